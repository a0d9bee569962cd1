package interp

import "fmt"

// Component H: the instruction dispatcher. Each call to stepStatement runs
// exactly one statement: volatile reset, skip statement separators, an
// optional trace hook, dispatch on the leading keyword (or an implicit LET
// when the line starts with a variable), then trailing-context resolution
// (":" continues the same line, end-of-line advances to the next stored
// line) — spec.md §4.H.
type stmtFn func(rt *Runtime) error

// RunProgram drives statements from the current IP0/IP until the program
// halts (STOP/END/BYE), runs off the end of stored lines, or an error
// escapes every ON ERROR handler.
func (rt *Runtime) RunProgram() error {
	rt.Halted = false
	rt.InProgram = true
	defer func() { rt.InProgram = false }()
	for !rt.Halted && !rt.Quit {
		if rt.IP0 == NIL {
			return nil
		}
		if err := rt.stepStatement(); err != nil {
			if !rt.trap(err) {
				return err
			}
		}
	}
	return nil
}

// stepStatement executes one statement and repositions IP0/IP at the next.
func (rt *Runtime) stepStatement() error {
	rt.VolatileReset()
	rt.skipSeparators()

	if rt.IP0 == NIL {
		return nil
	}
	if rt.curByte() == 0 {
		rt.advanceLine()
		return nil
	}

	if rt.TraceOn {
		fmt.Fprintf(rt.Stdout, "[%d]\n", rt.prog.lineNumberAt(rt.IP0))
	}

	if err := rt.dispatchOne(); err != nil {
		return err
	}

	switch rt.curByte() {
	case ':':
		rt.advance()
	case 0:
		rt.advanceLine()
	}
	return nil
}

func (rt *Runtime) skipSeparators() {
	for rt.IP0 != NIL && rt.curByte() == ':' {
		rt.advance()
	}
}

func (rt *Runtime) advanceLine() {
	next := rt.prog.Next(rt.IP0)
	if next == NIL {
		rt.IP0, rt.IP = NIL, NIL
		rt.Halted = true
		return
	}
	rt.IP0 = next
	rt.IP = rt.prog.TokenStart(next)
}

// dispatchOne dispatches the current token: a variable identifier is an
// implicit LET (no keyword byte to consume); otherwise the byte must be a
// statement keyword code.
func (rt *Runtime) dispatchOne() error {
	c := rt.curByte()
	if c == CodeIdn || c == CodeIdnS {
		return execLet(rt)
	}
	if !isKeywordCode(c) {
		return newErr(CodeIllegalInstruction)
	}
	rt.advance()
	fn, ok := statementTable()[c]
	if !ok {
		return newErr(CodeIllegalInstruction)
	}
	return fn(rt)
}

// RunImmediate executes a single immediate-mode line (not stored in the
// program): statements requiring program context (NEXT, RETURN, and so on)
// fail with ILLEGAL_OUTSIDE_PROGRAM because IP0 points at the OBJ buffer,
// not a stored line, so Program.Next/lineNumberAt would misbehave — callers
// must special-case statements that need a "real" program line.
func (rt *Runtime) RunImmediate(ip0, ip uint16) error {
	rt.IP0, rt.IP = ip0, ip
	for rt.IP0 != NIL && !rt.Quit {
		rt.VolatileReset()
		rt.skipSeparators()
		if rt.curByte() == 0 {
			return nil
		}
		if err := rt.dispatchOne(); err != nil {
			if rt.trap(err) {
				continue
			}
			return err
		}
		switch rt.curByte() {
		case ':':
			rt.advance()
		case 0:
			return nil
		}
	}
	return nil
}
