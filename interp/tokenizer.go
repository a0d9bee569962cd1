package interp

import (
	"math"
	"strconv"
)

// Tokenizer converts a source text line into the bytecode form described in
// spec.md §3.5, writing the result into the Runtime's OBJ staging area
// (Component E). It shares the Runtime's string pool so identifiers and
// string literals get interned as they're scanned.
type Tokenizer struct {
	rt *Runtime
}

func newTokenizer(rt *Runtime) *Tokenizer { return &Tokenizer{rt: rt} }

func isDigit(b byte) bool { return b >= '0' && b <= '9' }
func isAlpha(b byte) bool {
	return (b >= 'A' && b <= 'Z') || (b >= 'a' && b <= 'z') || b == '_'
}
func isAlnum(b byte) bool { return isAlpha(b) || isDigit(b) }

func toUpper(b byte) byte {
	if b >= 'a' && b <= 'z' {
		return b - 'a' + 'A'
	}
	return b
}

// Tokenize encodes text into the OBJ buffer: [size, token bytes..., 0].
// Returns the total encoded length (including the size byte).
func (t *Tokenizer) Tokenize(text []byte) (uint16, error) {
	out := make([]byte, 0, len(text)*2+4)
	i := 0
	n := len(text)

	for i < n {
		b := text[i]

		// Rule 1: skip spaces/tabs.
		if b == ' ' || b == '\t' {
			i++
			continue
		}
		// Rule 2: skip control bytes < 32; reject bytes > 127.
		if b < 32 {
			i++
			continue
		}
		if b > 127 {
			return 0, newErrf(CodeSyntax, "non-ASCII byte 0x%02X", b)
		}

		switch {
		case isDigit(b) || (b == '.' && i+1 < n && isDigit(text[i+1])):
			consumed, err := t.scanNumber(text[i:], &out)
			if err != nil {
				return 0, err
			}
			i += consumed

		case isAlpha(b):
			consumed, err := t.scanIdentOrKeyword(text, i, &out)
			if err != nil {
				return 0, err
			}
			i = consumed

		case b == '\'':
			// Comment: emit the punctuation byte then the remainder verbatim.
			out = append(out, '\'')
			out = append(out, text[i+1:]...)
			out = append(out, 0)
			i = n

		case b == '"':
			consumed, err := t.scanString(text, i, &out)
			if err != nil {
				return 0, err
			}
			i = consumed

		default:
			consumed := t.scanOperatorOrPunct(text, i, &out)
			i = consumed
		}
	}

	out = append(out, 0)
	total := uint16(len(out)) + 1 // +1 for the leading size byte itself
	if int(total) > len(t.rt.ram.Bytes)-int(t.rt.ram.Cur.OBJ) {
		return 0, newErr(CodeProgramTooLong)
	}

	obj := t.rt.ram.Cur.OBJ
	t.rt.ram.Bytes[obj] = byte(total)
	copy(t.rt.ram.Bytes[obj+1:], out)
	return total, nil
}

func (t *Tokenizer) scanNumber(s []byte, out *[]byte) (int, error) {
	j := 0
	for j < len(s) && (isDigit(s[j]) || s[j] == '.') {
		j++
	}
	text := string(s[:j])

	if iv, err := strconv.ParseInt(text, 10, 64); err == nil && iv >= -32768 && iv <= 65535 {
		*out = append(*out, CodeIntLit)
		*out = append(*out, byte(uint16(iv)), byte(uint16(iv)>>8))
		return j, nil
	}

	fv, err := strconv.ParseFloat(text, 32)
	if err != nil {
		return 0, newErrf(CodeSyntax, "bad numeric literal %q", text)
	}
	bits := math.Float32bits(float32(fv))
	*out = append(*out, CodeNumLit)
	*out = append(*out, byte(bits), byte(bits>>8), byte(bits>>16), byte(bits>>24))
	return j, nil
}

func (t *Tokenizer) scanIdentOrKeyword(text []byte, start int, out *[]byte) (int, error) {
	j := start
	for j < len(text) && isAlnum(text[j]) {
		j++
	}
	hasDollar := j < len(text) && text[j] == '$'
	name := make([]byte, 0, j-start+1)
	for _, b := range text[start:j] {
		name = append(name, toUpper(b))
	}
	if hasDollar {
		name = append(name, '$')
		j++
	}
	upper := string(name)

	// Operator table first, so ABS/STR$/etc. lex as operators not idents.
	if code, ok := operatorCode[upper]; ok {
		*out = append(*out, code)
		return j, nil
	}
	if code, ok := keywordCode[upper]; ok {
		if upper == "DATA" || upper == "REM" {
			*out = append(*out, code)
			*out = append(*out, text[j:]...)
			*out = append(*out, 0)
			return len(text), nil
		}
		*out = append(*out, code)
		return j, nil
	}

	off, err := t.rt.strings.Intern(name)
	if err != nil {
		return 0, err
	}
	if hasDollar {
		*out = append(*out, CodeIdnS)
	} else {
		*out = append(*out, CodeIdn)
	}
	*out = append(*out, byte(off), byte(off>>8))
	return j, nil
}

func (t *Tokenizer) scanString(text []byte, start int, out *[]byte) (int, error) {
	j := start + 1
	for j < len(text) && text[j] != '"' {
		j++
	}
	if j >= len(text) {
		return 0, newErr(CodeEolInsideString)
	}
	body := text[start+1 : j]
	off, err := t.rt.strings.Intern(body)
	if err != nil {
		return 0, err
	}
	*out = append(*out, CodeStrLit)
	*out = append(*out, byte(off), byte(off>>8))
	return j + 1, nil
}

// twoCharOps must be checked before single-character operator lookup.
var twoCharOps = []string{"<=", "<>", ">="}

func (t *Tokenizer) scanOperatorOrPunct(text []byte, start int, out *[]byte) int {
	if start+1 < len(text) {
		two := string(text[start : start+2])
		for _, o := range twoCharOps {
			if two == o {
				*out = append(*out, operatorCode[two])
				return start + 2
			}
		}
	}
	one := string(text[start : start+1])
	if code, ok := operatorCode[one]; ok {
		*out = append(*out, code)
	} else {
		*out = append(*out, text[start])
	}
	return start + 1
}
