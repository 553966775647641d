// Command memgen compiles a technology library of physical SRAM
// macros and a list of logical memory requests into one Verilog-2001
// wrapper module per request.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/pflag"

	"github.com/esp-tools/memgen/internal/cli"
	"github.com/esp-tools/memgen/internal/diag"
	"github.com/esp-tools/memgen/internal/hdl"
	"github.com/esp-tools/memgen/internal/memdesc"
	"github.com/esp-tools/memgen/internal/plan"
	"github.com/esp-tools/memgen/internal/techlib"
)

func main() {
	pflag.Usage = func() {
		fmt.Fprint(os.Stderr, cli.Usage)
	}
	pflag.Parse()

	if err := run(pflag.Args()); err != nil {
		diag.Error("%s", err.Error())
		os.Exit(exitCode(err))
	}
}

// run implements the driver: positional-argument check, a single
// library load, then one plan+emit pass per request, stopping at the
// first fatal error.
func run(args []string) error {
	if len(args) != 2 {
		pflag.Usage()
		return &cli.UsageError{Problem: "expected exactly two arguments: <tech> <infile>"}
	}
	tech, infile := args[0], args[1]

	lib, err := techlib.Load(tech)
	if err != nil {
		return err
	}

	requests, err := memdesc.LoadRequests(infile)
	if err != nil {
		return err
	}

	for _, req := range requests {
		diag.Info("Generating %s...", req.Name)
		diag.Infof("        " + req.Summary())

		p, err := plan.Compute(req, lib)
		if err != nil {
			return err
		}
		logPlan(p)

		module := hdl.Build(req, p)
		if err := os.WriteFile(req.Name+".v", hdl.Render(module), 0o644); err != nil {
			return &memdesc.IOError{Path: req.Name + ".v", Err: err}
		}
	}

	return nil
}

func logPlan(p plan.Plan) {
	diag.Infof(fmt.Sprintf("        read_interfaces %d", p.ReadInterfaces))
	diag.Infof(fmt.Sprintf("        write_interfaces %d", p.WriteInterfaces))
	diag.Infof(fmt.Sprintf("        duplication_factor %d", p.Duplication))
	diag.Infof(fmt.Sprintf("        distribution_factor %d", p.Distribution))
	diag.Infof(fmt.Sprintf("        need_dual_port %t", p.NeedDualPort))
	diag.Infof(fmt.Sprintf("        need_parallel_rw %t", p.NeedParallelRW))
	diag.Infof(fmt.Sprintf("        v-banks %d", p.VBanks))
	diag.Infof(fmt.Sprintf("        hh-banks %d", p.HHBanks))
	diag.Infof(fmt.Sprintf("        bank type %s", p.Bank.Name))
	diag.Infof(fmt.Sprintf("        total area %g", p.Area))
}

// exitCode maps a fatal error to the process exit status: 1 for a
// malformed invocation, 2 for every other (I/O, format, or planning)
// failure.
func exitCode(err error) int {
	if _, ok := err.(*cli.UsageError); ok {
		return 1
	}
	return 2
}
