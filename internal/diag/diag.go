// Package diag prints the prefix-disciplined progress, warning and
// error lines the driver and its collaborators emit to the console.
// The exact wording is not a compatibility surface; the "INFO:" /
// "WARNING:" / "ERROR:" prefixes are.
package diag

import (
	"fmt"
	"io"
	"os"
)

// Out and Err are the destinations for Info/Warn and Error
// respectively. Tests may redirect them to capture output.
var (
	Out io.Writer = os.Stdout
	Err io.Writer = os.Stderr
)

// Info prints a progress line.
func Info(format string, args ...any) {
	fmt.Fprintf(Out, "  INFO: "+format+"\n", args...)
}

// Infof prints a progress line that is already indented/formatted by
// the caller (used for the multi-line per-request diagnostic block).
func Infof(line string) {
	fmt.Fprintln(Out, "  INFO: "+line)
}

// Warn prints a recoverable-anomaly line. Warnings never change the
// process exit status.
func Warn(format string, args ...any) {
	fmt.Fprintf(Out, "  WARNING: "+format+"\n", args...)
}

// Error prints a fatal-error line.
func Error(format string, args ...any) {
	fmt.Fprintf(Err, "  ERROR: "+format+"\n", args...)
}
