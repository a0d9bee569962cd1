package interp

import (
	"bufio"
	"io"
	"math/rand"
	"os"
	"time"
)

// Runtime is the single owned object tying every component together (spec.md
// §9: "global mutable runtime becomes one owned Runtime object passed by
// mutable reference; tests instantiate fresh runtimes").
type Runtime struct {
	ram     *Ram
	strings *StringPool
	stack   *ValueStack
	vars    *VarStore
	prog    *Program
	tok     *Tokenizer

	// Current statement's line pointer (spec.md §4.J.1): IP0 is the header
	// byte of the enclosing program line (or the OBJ base for an immediate
	// line); IP advances within the line until NIL.
	IP0, IP uint16

	// ON ERROR target line, or NIL. Persists until overwritten or program
	// end (spec.md §3.6).
	ErrHandlerLine uint16
	// Last trapped error code, exposed via ERR().
	LastErrCode Code

	// DATA/READ iteration pointer (spec.md §4.I "READ ... DATA ... RESTORE").
	DataIP0, DataIP uint16

	TraceOn bool

	channels *Channels
	Term     Terminal

	startTime time.Time
	rng       *rand.Rand

	Stdout *bufio.Writer
	Stdin  *bufio.Reader

	Quit bool

	// Halted stops RunProgram's loop: set by STOP/END/BYE, by RUN/CHAIN on
	// an empty program, and when execution runs off the last stored line.
	Halted bool
	// StoppedAt is the resume point saved by STOP, valid only until the next
	// RUN/CONTINUE; NIL after END (which has no resume point).
	StoppedAt0, StoppedAt uint16

	// InProgram is false while executing an immediate-mode line (spec.md
	// §4.K): statements that only make sense inside a stored program
	// (NEXT, RETURN, GOSUB, REPEAT, and so on) check this and fail
	// with ILLEGAL_OUTSIDE_PROGRAM otherwise.
	InProgram bool
}

// NewRuntime builds a fresh interpreter with the default (stdio-backed)
// terminal collaborator.
func NewRuntime() *Runtime {
	return NewRuntimeIO(os.Stdin, os.Stdout)
}

// NewRuntimeIO builds a fresh interpreter over explicit IO, used by tests
// and by embedders that don't want the real stdio streams.
func NewRuntimeIO(in io.Reader, out io.Writer) *Runtime {
	rt := &Runtime{
		startTime: time.Now(),
		rng:       rand.New(rand.NewSource(0)),
		Stdout:    bufio.NewWriter(out),
		Stdin:     bufio.NewReader(in),
	}
	rt.ram = NewRam()
	rt.strings = newStringPool(rt.ram)
	rt.stack = newValueStack(rt.ram, 0)
	rt.vars = newVarStore(rt)
	rt.prog = newProgram(rt)
	rt.tok = newTokenizer(rt)
	rt.channels = newChannels(rt)
	rt.Term = newStdTerminal(rt)
	rt.ErrHandlerLine = NIL
	rt.DataIP0, rt.DataIP = NIL, NIL
	rt.StoppedAt0, rt.StoppedAt = NIL, NIL
	return rt
}

// --- token-stream cursor helpers, used by the evaluator and dispatcher ---

func (rt *Runtime) curByte() byte    { return rt.ram.ReadU8(rt.IP) }
func (rt *Runtime) peekAt(n uint16) byte { return rt.ram.ReadU8(rt.IP + n) }
func (rt *Runtime) advance()         { rt.IP++ }

func (rt *Runtime) readU16Arg() uint16 {
	v := rt.ram.ReadU16(rt.IP)
	rt.IP += 2
	return v
}

func (rt *Runtime) readF32Arg() float32 {
	v := rt.ram.ReadF32(rt.IP)
	rt.IP += 4
	return v
}

// FullReset implements spec.md §4.A "Full reset".
func (rt *Runtime) FullReset() {
	rt.ram.FullReset()
	rt.ErrHandlerLine = NIL
	rt.LastErrCode = CodeNone
	rt.DataIP0, rt.DataIP = NIL, NIL
	rt.prog.Dirty = false
	rt.channels.CloseAll()
}

// VariablesReset implements spec.md §4.A "Variables reset", invoked by RUN.
func (rt *Runtime) VariablesReset() {
	rt.ram.VariablesReset()
	rt.DataIP0, rt.DataIP = NIL, NIL
	rt.rng = rand.New(rand.NewSource(0))
}

// VolatileReset implements spec.md §4.A "Volatile reset", invoked at the
// entry of every statement.
func (rt *Runtime) VolatileReset() {
	rt.ram.VolatileReset()
}

func (rt *Runtime) ElapsedSeconds() float32 {
	return float32(time.Since(rt.startTime).Seconds())
}
