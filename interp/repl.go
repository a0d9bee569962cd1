package interp

import (
	"fmt"
	"io"
	"strings"
)

// Component K: the REPL driver (spec.md §4.K). Each line read from the
// input is tokenized into OBJ; if it starts with an integer literal it
// edits the stored program (Program.Insert/Delete), otherwise it's run
// immediately with IP0 pointing at the OBJ buffer rather than a stored
// line — so statements that need real program context fail with
// ILLEGAL_OUTSIDE_PROGRAM via Runtime.InProgram.
type REPL struct {
	rt *Runtime
}

func NewREPL(rt *Runtime) *REPL { return &REPL{rt: rt} }

// Run drives the prompt loop until EOF, BYE, or a fatal read error.
func (r *REPL) Run() error {
	for !r.rt.Quit {
		fmt.Fprint(r.rt.Stdout, "> ")
		r.rt.Stdout.Flush()

		line, err := r.rt.Stdin.ReadString('\n')
		if err != nil {
			if err == io.EOF && line == "" {
				return nil
			}
			if err != io.EOF {
				return err
			}
		}
		line = strings.TrimRight(line, "\r\n")
		if line == "" {
			continue
		}
		if err := r.handleLine(line); err != nil {
			return err
		}
	}
	return nil
}

// handleLine tokenizes and dispatches a single line of input, reporting any
// error to the user the way the core's error channel expects (message plus
// line number when running a stored program).
func (r *REPL) handleLine(line string) error {
	rt := r.rt
	total, err := rt.tok.Tokenize([]byte(line))
	if err != nil {
		r.reportError(err, false)
		return nil
	}
	obj := rt.ram.Cur.OBJ

	if rt.ram.ReadU8(obj+1) == CodeIntLit {
		lineNo := rt.ram.ReadU16(obj + 2)
		body := append([]byte(nil), rt.ram.Bytes[obj:obj+total]...)
		if err := rt.prog.Insert(lineNo, body); err != nil {
			r.reportError(err, false)
		}
		return nil
	}

	if err := rt.RunImmediate(obj, obj+1); err != nil {
		// IP0 is left on a stored line when the error escaped from program
		// execution (RUN, CONTINUE, GOTO), and on OBJ otherwise.
		r.reportError(err, rt.IP0 != NIL && rt.IP0 != obj)
	}
	return nil
}

func (r *REPL) reportError(err error, inProgram bool) {
	be, ok := err.(*BasicError)
	if !ok {
		fmt.Fprintln(r.rt.Stdout, err.Error())
		r.rt.Stdout.Flush()
		return
	}
	if inProgram {
		fmt.Fprintf(r.rt.Stdout, "%s IN %d\n", be.Error(), r.rt.prog.lineNumberAt(r.rt.IP0))
	} else {
		fmt.Fprintln(r.rt.Stdout, be.Error())
	}
	r.rt.Stdout.Flush()
}
