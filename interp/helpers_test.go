package interp

import (
	"bytes"
	"strings"
	"testing"
)

// assert follows the teacher's vm_test.go style: a single helper wrapping
// t.Fatalf with a condition check, used throughout instead of testify.
func assert(t *testing.T, cond bool, format string, args ...any) {
	t.Helper()
	if !cond {
		t.Fatalf(format, args...)
	}
}

// newTestRuntime builds a fresh runtime over an in-memory stdout buffer,
// mirroring compileAndCheckSource's role of producing a ready-to-run VM.
func newTestRuntime(stdin string) (*Runtime, *bytes.Buffer) {
	var out bytes.Buffer
	rt := NewRuntimeIO(strings.NewReader(stdin), &out)
	return rt, &out
}

// loadProgram tokenizes and stores every numbered line of source, the same
// way Runtime.loadFile does for a file read off disk.
func loadProgram(t *testing.T, rt *Runtime, source string) {
	t.Helper()
	for _, line := range splitLines(source) {
		if line == "" {
			continue
		}
		total, err := rt.tok.Tokenize([]byte(line))
		assert(t, err == nil, "tokenize %q: %v", line, err)
		obj := rt.ram.Cur.OBJ
		if rt.ram.ReadU8(obj+1) != CodeIntLit {
			continue
		}
		lineNo := rt.ram.ReadU16(obj + 2)
		body := append([]byte(nil), rt.ram.Bytes[obj:obj+total]...)
		assert(t, rt.prog.Insert(lineNo, body) == nil, "insert line %q", line)
	}
}

// runSource loads source as a stored program and runs it to completion,
// returning whatever it wrote to stdout.
func runSource(t *testing.T, source string) (string, error) {
	t.Helper()
	rt, out := newTestRuntime("")
	loadProgram(t, rt, source)
	first := rt.prog.First()
	assert(t, first != NIL, "no program lines stored from %q", source)
	rt.IP0 = first
	rt.IP = rt.prog.TokenStart(first)
	err := rt.RunProgram()
	rt.Stdout.Flush()
	return out.String(), err
}

// runSourceWithInput is runSource but feeding INPUT/LINPUT from stdin.
func runSourceWithInput(t *testing.T, source, stdin string) (string, error) {
	t.Helper()
	rt, out := newTestRuntime(stdin)
	loadProgram(t, rt, source)
	first := rt.prog.First()
	assert(t, first != NIL, "no program lines stored from %q", source)
	rt.IP0 = first
	rt.IP = rt.prog.TokenStart(first)
	err := rt.RunProgram()
	rt.Stdout.Flush()
	return out.String(), err
}

// codeOf unwraps a *BasicError's Code, or CodeNone for a nil/foreign error.
func codeOf(err error) Code {
	be, ok := err.(*BasicError)
	if !ok {
		return CodeNone
	}
	return be.Code
}

// evalExpr tokenizes a bare expression (no line number) and evaluates it
// against a fresh runtime, returning the resulting value.
func evalExpr(t *testing.T, rt *Runtime, expr string) Value {
	t.Helper()
	total, err := rt.tok.Tokenize([]byte(expr))
	assert(t, err == nil, "tokenize %q: %v", expr, err)
	obj := rt.ram.Cur.OBJ
	rt.IP0, rt.IP = obj, obj+1
	_ = total
	v, err := newEvaluator(rt).Eval()
	assert(t, err == nil, "eval %q: %v", expr, err)
	return v
}
