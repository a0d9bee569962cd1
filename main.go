package main

import (
	"flag"
	"fmt"
	"os"

	"straybasic/interp"
)

var (
	traceFlag = flag.Bool("trace", false, "run with line tracing enabled from startup")
)

// init parses flags the way the core always has, so `-trace` is available
// whether or not a program file follows it.
func init() {
	flag.Parse()
}

func main() {
	args := os.Args[len(os.Args)-flag.NArg():]

	if len(args) > 1 {
		fmt.Fprintln(os.Stderr, "Usage: straybasic [-trace] [file]")
		os.Exit(1)
	}

	rt := interp.NewRuntime()
	rt.TraceOn = *traceFlag

	if len(args) == 1 {
		if err := runFile(rt, args[0]); err != nil {
			fmt.Fprintln(os.Stderr, err)
			os.Exit(1)
		}
	}

	repl := interp.NewREPL(rt)
	if err := repl.Run(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// runFile loads a program and runs it immediately, the way classic BASIC
// systems boot straight into a listing passed on the command line.
func runFile(rt *interp.Runtime, path string) error {
	if err := rt.LoadAndRun(path); err != nil {
		return err
	}
	return nil
}
