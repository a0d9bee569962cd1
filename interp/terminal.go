package interp

import "bufio"

// Terminal is the external collaborator boundary named in spec.md §1's
// out-of-scope list: ANSI formatting, TAB/AT cursor positioning and raw
// keystroke reading for INKEY$ are deliberately not specified by the core.
// A production front-end backed by golang.org/x/term (the dependency the
// pack's IntuitionAmiga-IntuitionEngine repo pulls in for raw-mode input)
// plugs in here; the default implementation below is the buffered-stdio
// stand-in the core's own tests run against.
type Terminal interface {
	// SetAttr applies a display attribute (ATTR statement); a no-op
	// collaborator is a legal implementation.
	SetAttr(n int)
	// Cls clears the screen (CLS statement).
	Cls()
	// At moves the cursor (AT operator's side effect); the AT operator
	// itself yields the empty string value per spec.md §4.G.3.
	At(row, col int)
	// Tab moves the cursor to column c (TAB operator's side effect).
	Tab(col int)
	// Col and Row report the current cursor position (COL/ROW operators).
	Col() int
	Row() int
	// Key blocks for one keystroke (INKEY$); returns its single-byte value.
	Key() (byte, error)
}

// stdTerminal is a minimal non-ANSI stand-in: attribute/cursor calls emit
// nothing (cursor calls only update the position COL/ROW report; StrayBasic's
// core never depends on their side effects for correctness, only on
// COL/ROW/TAB/AT returning without error), and Key reads one raw byte from
// stdin.
type stdTerminal struct {
	rt         *Runtime
	col, row   int
	keyReader  *bufio.Reader
}

func newStdTerminal(rt *Runtime) *stdTerminal {
	return &stdTerminal{rt: rt, keyReader: rt.Stdin}
}

func (t *stdTerminal) SetAttr(n int) {}
func (t *stdTerminal) Cls()          { t.col, t.row = 0, 0 }
func (t *stdTerminal) At(row, col int) {
	t.row, t.col = row, col
}
func (t *stdTerminal) Tab(col int) { t.col = col }
func (t *stdTerminal) Col() int    { return t.col }
func (t *stdTerminal) Row() int    { return t.row }

func (t *stdTerminal) Key() (byte, error) {
	b, err := t.keyReader.ReadByte()
	if err != nil {
		return 0, newErr(CodeFile)
	}
	return b, nil
}
