package techlib

import (
	"bufio"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/esp-tools/memgen/internal/diag"
)

// Load reads <tech>/lib.txt and returns the macros it defines, in
// file order. Blank lines and lines beginning with '#' are ignored.
// A macro line that fails to parse is a fatal FormatError; a macro
// whose port count falls outside {1,2} is only a WARNING and is
// dropped from the returned Library.
func Load(tech string) (Library, error) {
	path := filepath.Join(tech, "lib.txt")
	fp, err := os.Open(path)
	if err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	defer fp.Close()

	var lib Library
	var lineNo int
	var scanner = bufio.NewScanner(fp)
	for scanner.Scan() {
		lineNo++
		text := strings.TrimSpace(scanner.Text())
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}

		macro, skip, err := parseMacroLine(text, lineNo)
		if err != nil {
			return nil, err
		}
		if skip {
			continue
		}
		lib = append(lib, macro)
	}
	if err := scanner.Err(); err != nil {
		return nil, &IOError{Path: path, Err: err}
	}
	return lib, nil
}

// parseMacroLine parses "<words> <width> <name> <area> <ports>".
// skip is true (with no error) when the line is well-formed but names
// an unsupported port count — that case is logged here as a WARNING
// through diag, and the macro is simply omitted.
func parseMacroLine(text string, lineNo int) (macro Macro, skip bool, err error) {
	fields := strings.Fields(text)
	if len(fields) != 5 {
		return Macro{}, false, &FormatError{Line: lineNo, Text: text, Problem: "expected 5 fields <words> <width> <name> <area> <ports>"}
	}

	words, err := strconv.Atoi(fields[0])
	if err != nil {
		return Macro{}, false, &FormatError{Line: lineNo, Text: text, Problem: "word count is not an integer"}
	}
	width, err := strconv.Atoi(fields[1])
	if err != nil {
		return Macro{}, false, &FormatError{Line: lineNo, Text: text, Problem: "bit-width is not an integer"}
	}
	name := fields[2]
	area, err := strconv.ParseFloat(fields[3], 64)
	if err != nil {
		return Macro{}, false, &FormatError{Line: lineNo, Text: text, Problem: "area is not a floating-point number"}
	}
	ports, err := strconv.Atoi(fields[4])
	if err != nil {
		return Macro{}, false, &FormatError{Line: lineNo, Text: text, Problem: "port count is not an integer"}
	}

	if ports < 1 || ports > 2 {
		diag.Warn("Skipping SRAM type %s with unsupported number of ports", name)
		return Macro{}, true, nil
	}

	macro = Macro{Name: name, Words: words, Width: width, Ports: ports, Area: area}
	diag.Info("Found SRAM definition %20s%7d%3d-bit words %2d read/write ports", macro.Name, macro.Words, macro.Width, macro.Ports)
	return macro, false, nil
}
