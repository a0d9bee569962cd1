package interp

import "testing"

func TestTokenizeIntegerLine(t *testing.T) {
	rt, _ := newTestRuntime("")
	total, err := rt.tok.Tokenize([]byte(`10 PRINT "HI"`))
	assert(t, err == nil, "tokenize: %v", err)
	obj := rt.ram.Cur.OBJ
	assert(t, rt.ram.ReadU8(obj) == byte(total), "size byte mismatch: got %d want %d", rt.ram.ReadU8(obj), total)
	assert(t, rt.ram.ReadU8(obj+1) == CodeIntLit, "expected leading line-number literal")
	assert(t, rt.ram.ReadU16(obj+2) == 10, "expected line number 10, got %d", rt.ram.ReadU16(obj+2))

	ip := obj + 4
	assert(t, rt.ram.ReadU8(ip) == kw("PRINT"), "expected PRINT keyword code")
	ip++
	assert(t, rt.ram.ReadU8(ip) == CodeStrLit, "expected string literal after PRINT")
}

func TestTokenizeNumberLiterals(t *testing.T) {
	rt, _ := newTestRuntime("")
	_, err := rt.tok.Tokenize([]byte("1 X = 3.5"))
	assert(t, err == nil, "tokenize: %v", err)
	obj := rt.ram.Cur.OBJ
	ip := obj + 4 // past size + line-number header
	assert(t, rt.ram.ReadU8(ip) == CodeIdn, "expected identifier X")
	ip += 3 // code + 2-byte name offset
	assert(t, rt.ram.ReadU8(ip) == op("="), "expected assignment operator")
	ip++
	assert(t, rt.ram.ReadU8(ip) == CodeNumLit, "expected float literal for 3.5")
	ip++
	assert(t, rt.ram.ReadF32(ip) == 3.5, "expected 3.5, got %v", rt.ram.ReadF32(ip))
}

func TestTokenizeIdentifierInterning(t *testing.T) {
	rt, _ := newTestRuntime("")
	_, err := rt.tok.Tokenize([]byte(`1 A$ = "HELLO"`))
	assert(t, err == nil, "tokenize: %v", err)
	obj := rt.ram.Cur.OBJ
	ip := obj + 4
	assert(t, rt.ram.ReadU8(ip) == CodeIdnS, "expected string-typed identifier A$")
	ip++
	nameOff := rt.ram.ReadU16(ip)
	assert(t, string(rt.strings.Bytes(nameOff)) == "A$", "expected interned name A$, got %q", rt.strings.Bytes(nameOff))
}

func TestTokenizeOperatorNamesTakePrecedenceOverIdentifiers(t *testing.T) {
	rt, _ := newTestRuntime("")
	_, err := rt.tok.Tokenize([]byte("1 ABS(X)"))
	assert(t, err == nil, "tokenize: %v", err)
	obj := rt.ram.Cur.OBJ
	ip := obj + 4
	assert(t, rt.ram.ReadU8(ip) == op("ABS"), "expected ABS to lex as an operator code, not an identifier")
}

func TestTokenizeRejectsNonASCII(t *testing.T) {
	rt, _ := newTestRuntime("")
	_, err := rt.tok.Tokenize([]byte{'1', ' ', 0xC3, 0xA9})
	assert(t, err != nil, "expected error tokenizing a non-ASCII byte")
}

func TestTokenizeDataLineKeepsRawPayload(t *testing.T) {
	rt, _ := newTestRuntime("")
	_, err := rt.tok.Tokenize([]byte("1 DATA 1, 2, 3"))
	assert(t, err == nil, "tokenize: %v", err)
	obj := rt.ram.Cur.OBJ
	ip := obj + 4
	assert(t, rt.ram.ReadU8(ip) == kw("DATA"), "expected DATA keyword code")
	ip++
	payload := rt.ram.ReadCString(ip)
	assert(t, string(payload) == " 1, 2, 3", "expected raw payload preserved, got %q", payload)
}
