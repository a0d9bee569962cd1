package interp

import (
	"encoding/binary"
	"math"
)

// RAM is the fixed 64 KiB byte array every subsystem mutates through typed
// cursors. It never grows; region bases are fixed at init and only the
// cursors within each region move (spec.md §3.1).
const RAMSize = 65536

// NIL is the reserved "absent" 16-bit offset.
const NIL uint16 = 0xFFFF

// Region layout defaults. These are the initial bases; Ram.Clear may rebase
// PP0/VP0 to reshape the string-pool/program split (spec.md §4.A).
const (
	defaultCSPBase = 0
	defaultCSPSize = 4096
	defaultPPSize  = 8192
	defaultOBJSize = 256
	// One stdin buffer plus room for a handful of file channels.
	numFileBuffers  = 4
	fileBufferBytes = 256
)

// Cursors is the full set of region boundaries described in spec.md §3.1.
// Invariant: csp0 <= csp <= tsp <= pp0 <= pp <= vp0 <= vp <= sp0 <= sp <=
// rsp0 <= rsp <= obj < buf[0] < ... < buf[N] = RAMSize.
type Cursors struct {
	CSP0 uint16 // string pool base
	CSP  uint16 // string pool cursor (end of interned strings)
	TSP  uint16 // temp string cursor (end of temp tail)
	PP0  uint16 // program base
	PP   uint16 // program cursor
	VP0  uint16 // variable base
	VP   uint16 // variable cursor
	SP0  uint16 // value stack base
	SP   uint16 // value stack cursor
	RSP0 uint16 // return stack base
	RSP  uint16 // return stack cursor
	OBJ  uint16 // OBJ staging buffer base
	Buf  [numFileBuffers + 1]uint16
}

// RAM owns the byte array plus the live region cursors. All "pointers" used
// elsewhere in the interpreter are byte offsets into Ram.Bytes.
type Ram struct {
	Bytes [RAMSize]byte
	Cur   Cursors
}

func NewRam() *Ram {
	r := &Ram{}
	r.layout(defaultCSPSize, defaultPPSize)
	return r
}

// layout carves the fixed region bases given a string-pool size and program
// size; everything after is packed contiguously, leaving the remainder to
// the variables, value/return stacks and file buffers. Used at init, by
// FullReset and by Clear.
func (r *Ram) layout(cspSize, ppSize uint16) {
	c := &r.Cur
	c.CSP0 = defaultCSPBase
	c.CSP = c.CSP0
	c.TSP = c.CSP
	c.PP0 = c.CSP0 + cspSize
	c.PP = c.PP0
	ppEnd := c.PP0 + ppSize
	c.VP0 = ppEnd
	c.VP = c.VP0

	// Reserve the tail of RAM for OBJ + file buffers, stack regions grow
	// between VP and that reserved tail.
	tailSize := uint16(defaultOBJSize + (numFileBuffers+1)*fileBufferBytes)
	tailStart := uint16(RAMSize - int(tailSize))

	// Give the first half of the remaining middle to variables, then split
	// the rest 3:1 between the value stack and the return stack.
	mid := c.VP0 + (tailStart-c.VP0)/2
	c.SP0 = mid
	c.SP = c.SP0
	stackMid := c.SP0 + (tailStart-c.SP0)*3/4
	c.RSP0 = stackMid
	c.RSP = c.RSP0

	c.OBJ = tailStart
	bufStart := c.OBJ + defaultOBJSize
	for i := range c.Buf {
		c.Buf[i] = bufStart + uint16(i)*fileBufferBytes
	}
}

// FullReset clears string pool, program, variables, stacks and (by the
// caller closing channels) file channels. Invoked by NEW and by LOAD/CHAIN.
func (r *Ram) FullReset() {
	r.layout(defaultCSPSize, defaultPPSize)
}

// Clear reshapes the string-pool/program split, discarding both regions'
// contents. The CLEAR statement does not call it: execClear takes no
// arguments and only resets variables, leaving both regions as they are.
func (r *Ram) Clear(cspSize, ppSize uint16) {
	r.layout(cspSize, ppSize)
}

// VariablesReset clears variables and the stacks but keeps program and
// strings intact. Invoked by RUN.
func (r *Ram) VariablesReset() {
	c := &r.Cur
	c.VP = c.VP0
	c.SP = c.SP0
	c.RSP = c.RSP0
}

// VolatileReset clears the value stack, operator stack and temp-string tail.
// Invoked at the entry of every statement.
func (r *Ram) VolatileReset() {
	c := &r.Cur
	c.SP = c.SP0
	c.TSP = c.CSP
}

// --- typed accessors -------------------------------------------------

func (r *Ram) ReadU8(addr uint16) byte { return r.Bytes[addr] }

func (r *Ram) WriteU8(addr uint16, v byte) { r.Bytes[addr] = v }

func (r *Ram) ReadU16(addr uint16) uint16 {
	return binary.LittleEndian.Uint16(r.Bytes[addr:])
}

func (r *Ram) WriteU16(addr uint16, v uint16) {
	binary.LittleEndian.PutUint16(r.Bytes[addr:], v)
}

func (r *Ram) ReadF32(addr uint16) float32 {
	bits := binary.LittleEndian.Uint32(r.Bytes[addr:])
	return math.Float32frombits(bits)
}

func (r *Ram) WriteF32(addr uint16, v float32) {
	binary.LittleEndian.PutUint32(r.Bytes[addr:], math.Float32bits(v))
}

// ReadCString returns the bytes of a NUL-terminated string starting at addr,
// not including the terminator.
func (r *Ram) ReadCString(addr uint16) []byte {
	end := addr
	for r.Bytes[end] != 0 {
		end++
	}
	return r.Bytes[addr:end]
}

// CStringLen returns the length in bytes of the NUL-terminated string at
// addr, not including the terminator.
func (r *Ram) CStringLen(addr uint16) uint16 {
	n := uint16(0)
	for r.Bytes[addr+n] != 0 {
		n++
	}
	return n
}
