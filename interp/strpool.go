package interp

import "bytes"

// StringPool is the append-only interned-string arena plus its volatile temp
// tail (Component B, spec.md §4.B). Interned strings live in [CSP0, CSP);
// temporary strings used during expression evaluation live in [CSP, TSP)
// and are discarded by every volatile reset.
type StringPool struct {
	ram *Ram
}

func newStringPool(ram *Ram) *StringPool { return &StringPool{ram: ram} }

// Find performs a linear search for an exact match in the interned portion,
// returning its offset or false.
func (p *StringPool) Find(s []byte) (uint16, bool) {
	c := &p.ram.Cur
	off := c.CSP0
	for off < c.CSP {
		cur := p.ram.ReadCString(off)
		if bytes.Equal(cur, s) {
			return off, true
		}
		off += uint16(len(cur)) + 1
	}
	return 0, false
}

// Add appends a NUL-terminated copy of s to the interned region. Callers
// must have already called Find and gotten no match; Add never deduplicates
// on its own.
func (p *StringPool) Add(s []byte) (uint16, error) {
	c := &p.ram.Cur
	need := uint16(len(s)) + 1
	if c.CSP+need > c.TSP && c.CSP+need > c.PP0 {
		return 0, newErr(CodeOutOfStrings)
	}
	// The temp tail shares the region with interned strings; growing the
	// interned portion must not run past the program region base.
	if c.CSP+need > c.PP0 {
		return 0, newErr(CodeOutOfStrings)
	}
	start := c.CSP
	copy(p.ram.Bytes[start:], s)
	p.ram.Bytes[start+uint16(len(s))] = 0
	c.CSP += need
	// Keep TSP in sync: a fresh intern always happens at a statement
	// boundary after a volatile reset, so TSP tracks CSP until temps grow.
	if c.TSP < c.CSP {
		c.TSP = c.CSP
	}
	return start, nil
}

// Intern finds-or-adds, which is the common case for identifiers and string
// literals encountered by the tokenizer.
func (p *StringPool) Intern(s []byte) (uint16, error) {
	if off, ok := p.Find(s); ok {
		return off, nil
	}
	return p.Add(s)
}

// AddTemp appends into the temp tail [CSP, TSP); used for per-expression
// transient strings such as concatenation results.
func (p *StringPool) AddTemp(s []byte) (uint16, error) {
	c := &p.ram.Cur
	need := uint16(len(s)) + 1
	if c.TSP+need > c.PP0 {
		return 0, newErr(CodeOutOfStrings)
	}
	start := c.TSP
	copy(p.ram.Bytes[start:], s)
	p.ram.Bytes[start+uint16(len(s))] = 0
	c.TSP += need
	return start, nil
}

// Bytes returns the NUL-terminated contents at offset off as a slice
// (shared storage — callers must copy before further pool mutation).
func (p *StringPool) Bytes(off uint16) []byte {
	return p.ram.ReadCString(off)
}

// Len returns the string length at offset off, not including the
// terminator.
func (p *StringPool) Len(off uint16) uint16 {
	return p.ram.CStringLen(off)
}

// Empty returns the offset of an empty string. The trailing NUL of whatever
// was last interned always qualifies (spec.md §4.B).
func (p *StringPool) Empty() uint16 {
	c := &p.ram.Cur
	if c.CSP == c.CSP0 {
		// Nothing interned yet: an empty string still needs a NUL byte.
		// Use the byte just before PP0, which is always zero-initialized.
		return c.PP0 - 1
	}
	return c.CSP - 1
}
