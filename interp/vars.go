package interp

import "bytes"

// Variable type tags (spec.md §3.3). These are a bitmask; valid
// combinations are NUM, STR, NUM|VEC, STR|VEC, NUM|MAT, STR|MAT, FOR.
const (
	TypeNum byte = 2
	TypeStr byte = 4
	TypeFor byte = 8
	TypeVec byte = 16
	TypeMat byte = 32
)

const recordHeaderBytes = 5 // size(u16) + nameOff(u16) + tag(u8)
const forPayloadBytes = 4 + 4 + 4 + 2 + 2

// VarStore is the linear list of variable records living in [VP0, VP)
// (Component D, spec.md §3.3/§4.D).
type VarStore struct {
	rt *Runtime
}

func newVarStore(rt *Runtime) *VarStore { return &VarStore{rt: rt} }

func (v *VarStore) ram() *Ram { return v.rt.ram }

func (v *VarStore) recSize(addr uint16) uint16   { return v.ram().ReadU16(addr) }
func (v *VarStore) recName(addr uint16) uint16   { return v.ram().ReadU16(addr + 2) }
func (v *VarStore) recTag(addr uint16) byte      { return v.ram().ReadU8(addr + 4) }
func (v *VarStore) payloadOf(addr uint16) uint16 { return addr + recordHeaderBytes }

// Find does a linear scan by interned-name identity (pointer equality of
// string-pool offsets, since names are deduplicated at intern time).
func (v *VarStore) Find(nameOff uint16) (uint16, bool) {
	c := &v.ram().Cur
	addr := c.VP0
	for addr < c.VP {
		if v.recName(addr) == nameOff {
			return addr, true
		}
		addr += v.recSize(addr)
	}
	return 0, false
}

// alloc reserves `total` bytes at the end of the variable region.
func (v *VarStore) alloc(total uint16) (uint16, error) {
	c := &v.ram().Cur
	if c.VP+total > c.SP0 {
		return 0, newErr(CodeOutOfVariables)
	}
	addr := c.VP
	c.VP += total
	return addr, nil
}

func (v *VarStore) writeHeader(addr uint16, size uint16, nameOff uint16, tag byte) {
	v.ram().WriteU16(addr, size)
	v.ram().WriteU16(addr+2, nameOff)
	v.ram().WriteU8(addr+4, tag)
}

// Create appends a zero/empty-initialized record. dims gives array bounds
// for VEC (1 value: N) or MAT (2 values: R, C) tags; it's ignored otherwise.
func (v *VarStore) Create(nameOff uint16, tag byte, dims ...uint16) (uint16, error) {
	if _, exists := v.Find(nameOff); exists {
		return 0, newErr(CodeVariableAlreadyDefined)
	}

	switch {
	case tag == TypeFor:
		total := uint16(recordHeaderBytes + forPayloadBytes)
		addr, err := v.alloc(total)
		if err != nil {
			return 0, err
		}
		v.writeHeader(addr, total, nameOff, tag)
		p := v.payloadOf(addr)
		v.ram().WriteF32(p, 0)
		v.ram().WriteF32(p+4, 0)
		v.ram().WriteF32(p+8, 0)
		v.ram().WriteU16(p+12, NIL)
		v.ram().WriteU16(p+14, NIL)
		return addr, nil

	case tag == TypeNum:
		total := uint16(recordHeaderBytes + 4)
		addr, err := v.alloc(total)
		if err != nil {
			return 0, err
		}
		v.writeHeader(addr, total, nameOff, tag)
		v.ram().WriteF32(v.payloadOf(addr), 0)
		return addr, nil

	case tag == TypeStr:
		total := uint16(recordHeaderBytes + 1)
		addr, err := v.alloc(total)
		if err != nil {
			return 0, err
		}
		v.writeHeader(addr, total, nameOff, tag)
		v.ram().WriteU8(v.payloadOf(addr), 0)
		return addr, nil

	case tag == TypeNum|TypeVec:
		n := dims[0]
		total := uint16(recordHeaderBytes + 2 + int(n)*4)
		addr, err := v.alloc(total)
		if err != nil {
			return 0, err
		}
		v.writeHeader(addr, total, nameOff, tag)
		p := v.payloadOf(addr)
		v.ram().WriteU16(p, n)
		for i := uint16(0); i < n; i++ {
			v.ram().WriteF32(p+2+i*4, 0)
		}
		return addr, nil

	case tag == TypeNum|TypeMat:
		r, cCols := dims[0], dims[1]
		total := uint16(recordHeaderBytes + 4 + int(r)*int(cCols)*4)
		addr, err := v.alloc(total)
		if err != nil {
			return 0, err
		}
		v.writeHeader(addr, total, nameOff, tag)
		p := v.payloadOf(addr)
		v.ram().WriteU16(p, r)
		v.ram().WriteU16(p+2, cCols)
		for i := 0; i < int(r)*int(cCols); i++ {
			v.ram().WriteF32(p+4+uint16(i)*4, 0)
		}
		return addr, nil

	case tag == TypeStr|TypeVec:
		n := dims[0]
		total := uint16(recordHeaderBytes) + 2 + n // n empty strings, 1 byte each
		addr, err := v.alloc(total)
		if err != nil {
			return 0, err
		}
		v.writeHeader(addr, total, nameOff, tag)
		p := v.payloadOf(addr)
		v.ram().WriteU16(p, n)
		for i := uint16(0); i < n; i++ {
			v.ram().WriteU8(p+2+i, 0)
		}
		return addr, nil

	case tag == TypeStr|TypeMat:
		r, cCols := dims[0], dims[1]
		count := r * cCols
		total := uint16(recordHeaderBytes) + 4 + count
		addr, err := v.alloc(total)
		if err != nil {
			return 0, err
		}
		v.writeHeader(addr, total, nameOff, tag)
		p := v.payloadOf(addr)
		v.ram().WriteU16(p, r)
		v.ram().WriteU16(p+2, cCols)
		for i := uint16(0); i < count; i++ {
			v.ram().WriteU8(p+4+i, 0)
		}
		return addr, nil
	}

	return 0, newErr(CodeType)
}

// InferScalarTag returns STR for names ending in $, NUM otherwise.
func InferScalarTag(name []byte) byte {
	if len(name) > 0 && name[len(name)-1] == '$' {
		return TypeStr
	}
	return TypeNum
}

// InsertScalarOnDemand returns the existing record for nameOff, or creates a
// fresh scalar of the type inferred from the name.
func (v *VarStore) InsertScalarOnDemand(nameOff uint16, nameBytes []byte) (uint16, error) {
	if addr, exists := v.Find(nameOff); exists {
		return addr, nil
	}
	return v.Create(nameOff, InferScalarTag(nameBytes))
}

// NumScalar reads a NUM scalar's value.
func (v *VarStore) NumScalar(addr uint16) (float32, error) {
	if v.recTag(addr) != TypeNum {
		return 0, newErr(CodeType)
	}
	return v.ram().ReadF32(v.payloadOf(addr)), nil
}

// SetNumScalar writes a NUM scalar's value.
func (v *VarStore) SetNumScalar(addr uint16, val float32) error {
	if v.recTag(addr) != TypeNum {
		return newErr(CodeType)
	}
	v.ram().WriteF32(v.payloadOf(addr), val)
	return nil
}

// StrScalar returns a copy of a STR scalar's bytes.
func (v *VarStore) StrScalar(addr uint16) ([]byte, error) {
	if v.recTag(addr) != TypeStr {
		return nil, newErr(CodeType)
	}
	return append([]byte(nil), v.ram().ReadCString(v.payloadOf(addr))...), nil
}

// SetStrScalar overwrites a STR scalar's contents, resizing the variable
// region in place (spec.md §4.D "String assignment to a variable-length
// slot").
func (v *VarStore) SetStrScalar(addr uint16, newVal []byte) error {
	if v.recTag(addr) != TypeStr {
		return newErr(CodeType)
	}
	return v.resizeString(addr, v.payloadOf(addr), newVal)
}

// resizeString overwrites the NUL-terminated string at slot with newVal,
// shifting every byte after it by the length delta and updating addr's size
// field and VP.
func (v *VarStore) resizeString(addr, slot uint16, newVal []byte) error {
	c := &v.ram().Cur
	oldLen := v.ram().CStringLen(slot)
	newLen := uint16(len(newVal))
	d := int(newLen) - int(oldLen)

	if d != 0 {
		if c.VP+uint16(d) > c.SP0 {
			return newErr(CodeOutOfVariables)
		}
		tailStart := slot + oldLen + 1
		tailLen := c.VP - tailStart
		if d > 0 {
			copy(v.ram().Bytes[tailStart+uint16(d):], v.ram().Bytes[tailStart:tailStart+tailLen])
		} else {
			copy(v.ram().Bytes[tailStart+uint16(d):], v.ram().Bytes[tailStart:tailStart+tailLen])
		}
		c.VP = uint16(int(c.VP) + d)
		v.ram().WriteU16(addr, v.recSize(addr)+uint16(int16(d)))
	}
	copy(v.ram().Bytes[slot:], newVal)
	v.ram().Bytes[slot+newLen] = 0
	return nil
}

// ElementAddress resolves subscripts (1-based) against a VEC/MAT record,
// returning the byte offset of the numeric element or the start of the
// NUL-terminated string element.
func (v *VarStore) ElementAddress(addr uint16, subscripts []int) (uint16, error) {
	tag := v.recTag(addr)
	p := v.payloadOf(addr)

	switch {
	case tag&TypeVec != 0:
		if len(subscripts) != 1 {
			return 0, newErr(CodeSubscript)
		}
		n := v.ram().ReadU16(p)
		i := subscripts[0]
		if i < 1 || i > int(n) {
			return 0, newErr(CodeSubscriptRange)
		}
		if tag&TypeNum != 0 {
			return p + 2 + uint16(i-1)*4, nil
		}
		return v.nthString(p+2, i-1)

	case tag&TypeMat != 0:
		if len(subscripts) != 2 {
			return 0, newErr(CodeSubscript)
		}
		r := v.ram().ReadU16(p)
		cCols := v.ram().ReadU16(p + 2)
		ri, ci := subscripts[0], subscripts[1]
		if ri < 1 || ri > int(r) || ci < 1 || ci > int(cCols) {
			return 0, newErr(CodeSubscriptRange)
		}
		idx := (ri-1)*int(cCols) + (ci - 1)
		if tag&TypeNum != 0 {
			return p + 4 + uint16(idx)*4, nil
		}
		return v.nthString(p+4, idx)

	default:
		return 0, newErr(CodeSubscript)
	}
}

// nthString walks past idx NUL-terminated strings starting at base to find
// the (idx)-th one (0-based), per spec.md §3.3: "the i-th string is found
// by skipping (i-1) strings."
func (v *VarStore) nthString(base uint16, idx int) (uint16, error) {
	off := base
	for i := 0; i < idx; i++ {
		off += v.ram().CStringLen(off) + 1
	}
	return off, nil
}

// SetElementString resizes the variable region to hold a new string at an
// array element's slot, same machinery as SetStrScalar.
func (v *VarStore) SetElementString(recAddr, slot uint16, newVal []byte) error {
	return v.resizeString(recAddr, slot, newVal)
}

// --- FOR records -------------------------------------------------------

type ForState struct {
	Value, Bound, Step float32
	LineStart, ResumeIP uint16
}

func (v *VarStore) ReadFor(addr uint16) (ForState, error) {
	if v.recTag(addr) != TypeFor {
		return ForState{}, newErr(CodeForVar)
	}
	p := v.payloadOf(addr)
	return ForState{
		Value:     v.ram().ReadF32(p),
		Bound:     v.ram().ReadF32(p + 4),
		Step:      v.ram().ReadF32(p + 8),
		LineStart: v.ram().ReadU16(p + 12),
		ResumeIP:  v.ram().ReadU16(p + 14),
	}, nil
}

func (v *VarStore) WriteFor(addr uint16, s ForState) error {
	if v.recTag(addr) != TypeFor {
		return newErr(CodeForVar)
	}
	p := v.payloadOf(addr)
	v.ram().WriteF32(p, s.Value)
	v.ram().WriteF32(p+4, s.Bound)
	v.ram().WriteF32(p+8, s.Step)
	v.ram().WriteU16(p+12, s.LineStart)
	v.ram().WriteU16(p+14, s.ResumeIP)
	return nil
}

// Terminated reports whether the loop's termination condition holds:
// step > 0 => value > bound is done; step <= 0 => value < bound is done.
func (s ForState) Terminated() bool {
	if s.Step > 0 {
		return s.Value > s.Bound
	}
	return s.Value < s.Bound
}

// Advance adds step to value and reports whether the loop has terminated.
func (v *VarStore) Advance(addr uint16) (bool, error) {
	s, err := v.ReadFor(addr)
	if err != nil {
		return false, err
	}
	s.Value += s.Step
	if err := v.WriteFor(addr, s); err != nil {
		return false, err
	}
	return s.Terminated(), nil
}

// NameEquals compares a record's interned name against raw bytes, used by
// callers that only have text (e.g. DIM parsing before interning).
func (v *VarStore) NameEquals(recAddr uint16, name []byte) bool {
	off := v.recName(recAddr)
	return bytes.Equal(v.rt.strings.Bytes(off), name)
}
