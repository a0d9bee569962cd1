package interp

// Program is the ordered list of tokenized lines living in [PP0, PP)
// (Component F, spec.md §3.4/§4.F). Each stored line is
// [size, CODE_INTLIT, lo, hi, token bytes..., 0] exactly as emitted by the
// tokenizer when a line begins with an integer literal.
type Program struct {
	rt    *Runtime
	Dirty bool
}

func newProgram(rt *Runtime) *Program { return &Program{rt: rt} }

func (p *Program) ram() *Ram { return p.rt.ram }

// lineNumberAt reads the line number header at a stored line's start.
func (p *Program) lineNumberAt(addr uint16) uint16 {
	lo := p.ram().ReadU8(addr + 2)
	hi := p.ram().ReadU8(addr + 3)
	return uint16(lo) | uint16(hi)<<8
}

func (p *Program) sizeAt(addr uint16) uint16 { return uint16(p.ram().ReadU8(addr)) }

// Find returns the start offset of the line with the given number.
func (p *Program) Find(lineNo uint16) (uint16, bool) {
	c := &p.ram().Cur
	addr := c.PP0
	for addr < c.PP {
		n := p.lineNumberAt(addr)
		if n == lineNo {
			return addr, true
		}
		if n > lineNo {
			return addr, false
		}
		addr += p.sizeAt(addr)
	}
	return addr, false
}

// First returns the offset of the first stored line, or NIL if empty.
func (p *Program) First() uint16 {
	c := &p.ram().Cur
	if c.PP0 == c.PP {
		return NIL
	}
	return c.PP0
}

// Next returns the offset of the line following addr, or NIL at end.
func (p *Program) Next(addr uint16) uint16 {
	c := &p.ram().Cur
	next := addr + p.sizeAt(addr)
	if next >= c.PP {
		return NIL
	}
	return next
}

// Insert stores tokens (the full [size,...,0] encoded line, as produced by
// the tokenizer) for lineNo, replacing any existing line with that number.
// An empty body (tokens encodes nothing but the line-number header and the
// end-of-line 0) deletes the line instead.
func (p *Program) Insert(lineNo uint16, tokens []byte) error {
	// A bare "10" with nothing else is a delete.
	if len(tokens) <= 5 {
		p.Delete(lineNo)
		return nil
	}

	at, exists := p.Find(lineNo)
	if exists {
		p.deleteAt(at)
		at, _ = p.Find(lineNo)
	}

	c := &p.ram().Cur
	need := uint16(len(tokens))
	if c.PP+need > c.VP0 {
		return newErr(CodeProgramTooLong)
	}

	// Shift the suffix right to make room at `at`.
	copy(p.ram().Bytes[at+need:c.PP+need], p.ram().Bytes[at:c.PP])
	copy(p.ram().Bytes[at:], tokens)
	c.PP += need
	p.Dirty = true
	return nil
}

// Delete removes the line with the given number, if present.
func (p *Program) Delete(lineNo uint16) {
	at, exists := p.Find(lineNo)
	if !exists {
		return
	}
	p.deleteAt(at)
	p.Dirty = true
}

func (p *Program) deleteAt(at uint16) {
	c := &p.ram().Cur
	sz := p.sizeAt(at)
	copy(p.ram().Bytes[at:], p.ram().Bytes[at+sz:c.PP])
	c.PP -= sz
}

// Lines enumerates every stored line's start offset, ascending.
func (p *Program) Lines() []uint16 {
	var out []uint16
	for addr := p.First(); addr != NIL; addr = p.Next(addr) {
		out = append(out, addr)
	}
	return out
}

// TokenStart returns the offset of the first token past a stored line's
// header (size + CODE_INTLIT + lo + hi), i.e. where statement execution or
// relisting begins.
func (p *Program) TokenStart(addr uint16) uint16 { return addr + 4 }
