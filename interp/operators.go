package interp

import (
	"bytes"
	"fmt"
	"math"
	"sync"
)

// OpRoutine is one entry of the operator table (Component G, spec.md
// §4.G.1): a name, arity bounds, priority, and the routine that consumes
// argc operands off the value stack and pushes exactly one result.
//
// Fn receives argc rather than assuming MinArity==MaxArity because MID$ is
// the one operator in spec.md §6.2 with a variable call shape (2 or 3 args,
// third optional) — the parser records how many were actually supplied for
// this occurrence.
type OpRoutine struct {
	MinArity, MaxArity int
	Priority           int
	Fn                 func(ev *Evaluator, argc int) error
}

// OpSpec groups the (up to two) entries a textual operator name can have:
// a prefix (non-infix) form and/or an infix form, per spec.md §4.G.1's
// example of "-" appearing twice with different entries.
type OpSpec struct {
	Name   string
	Prefix *OpRoutine
	Infix  *OpRoutine
}

var (
	opTable     map[byte]*OpSpec
	opTableOnce sync.Once
)

func operatorTable() map[byte]*OpSpec {
	opTableOnce.Do(func() {
		opTable = buildOperatorTable()
	})
	return opTable
}

func buildOperatorTable() map[byte]*OpSpec {
	t := make(map[byte]*OpSpec)
	set := func(name string, spec *OpSpec) {
		spec.Name = name
		t[op(name)] = spec
	}

	numBin := func(prio int, fn func(a, b float32) (float32, error)) *OpRoutine {
		return &OpRoutine{MinArity: 2, MaxArity: 2, Priority: prio, Fn: func(ev *Evaluator, argc int) error {
			b, err := ev.rt.stack.PopNum()
			if err != nil {
				return err
			}
			a, err := ev.rt.stack.PopNum()
			if err != nil {
				return err
			}
			r, err := fn(a, b)
			if err != nil {
				return err
			}
			return ev.rt.stack.Push(NumberValue(r))
		}}
	}

	cmp := func(prio int, fn func(c int) bool) *OpRoutine {
		return &OpRoutine{MinArity: 2, MaxArity: 2, Priority: prio, Fn: func(ev *Evaluator, argc int) error {
			b, err := ev.rt.stack.Pop()
			if err != nil {
				return err
			}
			a, err := ev.rt.stack.Pop()
			if err != nil {
				return err
			}
			var c int
			if a.IsNumber() != b.IsNumber() {
				return newErr(CodeType)
			}
			if a.IsNumber() {
				switch {
				case a.Num < b.Num:
					c = -1
				case a.Num > b.Num:
					c = 1
				}
			} else {
				c = bytes.Compare(ev.rt.strings.Bytes(a.Str), ev.rt.strings.Bytes(b.Str))
			}
			return ev.rt.stack.Push(boolValue(fn(c)))
		}}
	}

	mathFn := func(fn func(x float32) (float32, error)) *OpRoutine {
		return &OpRoutine{MinArity: 1, MaxArity: 1, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
			x, err := ev.rt.stack.PopNum()
			if err != nil {
				return err
			}
			r, err := fn(x)
			if err != nil {
				return err
			}
			return ev.rt.stack.Push(NumberValue(r))
		}}
	}

	// --- arithmetic / comparison / logical --------------------------------

	set("+", &OpSpec{Infix: &OpRoutine{MinArity: 2, MaxArity: 2, Priority: 50, Fn: opAdd}})
	set("-", &OpSpec{
		Infix:  numBin(50, func(a, b float32) (float32, error) { return a - b, nil }),
		Prefix: &OpRoutine{MinArity: 1, MaxArity: 1, Priority: 70, Fn: opNeg},
	})
	set("*", &OpSpec{Infix: numBin(60, func(a, b float32) (float32, error) { return a * b, nil })})
	set("/", &OpSpec{Infix: numBin(60, func(a, b float32) (float32, error) {
		if b == 0 {
			return 0, newErr(CodeZero)
		}
		return a / b, nil
	})})
	set("^", &OpSpec{Infix: numBin(80, opPow)})
	set("MOD", &OpSpec{Infix: numBin(60, func(a, b float32) (float32, error) {
		if b == 0 {
			return 0, newErr(CodeZero)
		}
		return float32(math.Mod(float64(a), float64(b))), nil
	})})

	set("=", &OpSpec{Infix: cmp(30, func(c int) bool { return c == 0 })})
	set("<>", &OpSpec{Infix: cmp(30, func(c int) bool { return c != 0 })})
	set("<", &OpSpec{Infix: cmp(30, func(c int) bool { return c < 0 })})
	set("<=", &OpSpec{Infix: cmp(30, func(c int) bool { return c <= 0 })})
	set(">", &OpSpec{Infix: cmp(30, func(c int) bool { return c > 0 })})
	set(">=", &OpSpec{Infix: cmp(30, func(c int) bool { return c >= 0 })})

	set("AND", &OpSpec{Infix: numBin(10, func(a, b float32) (float32, error) {
		return boolNum(a != 0 && b != 0), nil
	})})
	set("OR", &OpSpec{Infix: numBin(10, func(a, b float32) (float32, error) {
		return boolNum(a != 0 || b != 0), nil
	})})
	set("NOT", &OpSpec{Prefix: &OpRoutine{MinArity: 1, MaxArity: 1, Priority: 20, Fn: func(ev *Evaluator, argc int) error {
		x, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		return ev.rt.stack.Push(boolValue(x == 0))
	}}})

	// --- math functions ----------------------------------------------------

	set("ABS", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) { return float32(math.Abs(float64(x))), nil })})
	set("INT", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) { return float32(math.Floor(float64(x))), nil })})
	set("SGN", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) {
		switch {
		case x > 0:
			return 1, nil
		case x < 0:
			return -1, nil
		default:
			return 0, nil
		}
	})})
	set("SIN", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) { return float32(math.Sin(float64(x))), nil })})
	set("COS", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) { return float32(math.Cos(float64(x))), nil })})
	set("TAN", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) { return float32(math.Tan(float64(x))), nil })})
	set("ATN", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) { return float32(math.Atan(float64(x))), nil })})
	set("EXP", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) { return float32(math.Exp(float64(x))), nil })})
	set("SQR", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) {
		if x < 0 {
			return 0, newErr(CodeDomain)
		}
		return float32(math.Sqrt(float64(x))), nil
	})})
	set("LOG", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) {
		if x <= 0 {
			return 0, newErr(CodeDomain)
		}
		return float32(math.Log(float64(x))), nil
	})})
	set("ACS", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) {
		if x < -1 || x > 1 {
			return 0, newErr(CodeDomain)
		}
		return float32(math.Acos(float64(x))), nil
	})})
	set("ASN", &OpSpec{Prefix: mathFn(func(x float32) (float32, error) {
		if x < -1 || x > 1 {
			return 0, newErr(CodeDomain)
		}
		return float32(math.Asin(float64(x))), nil
	})})
	set("RND", &OpSpec{Prefix: &OpRoutine{MinArity: 0, MaxArity: 0, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		return ev.rt.stack.Push(NumberValue(ev.rt.rng.Float32()))
	}}})

	// --- string functions ---------------------------------------------------

	set("LEN", &OpSpec{Prefix: &OpRoutine{MinArity: 1, MaxArity: 1, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		s, err := ev.rt.stack.PopStr()
		if err != nil {
			return err
		}
		return ev.rt.stack.Push(NumberValue(float32(ev.rt.strings.Len(s))))
	}}})
	set("ASC", &OpSpec{Prefix: &OpRoutine{MinArity: 1, MaxArity: 1, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		s, err := ev.rt.stack.PopStr()
		if err != nil {
			return err
		}
		bs := ev.rt.strings.Bytes(s)
		if len(bs) == 0 {
			return ev.rt.stack.Push(NumberValue(0))
		}
		return ev.rt.stack.Push(NumberValue(float32(bs[0])))
	}}})
	set("VAL", &OpSpec{Prefix: &OpRoutine{MinArity: 1, MaxArity: 1, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		s, err := ev.rt.stack.PopStr()
		if err != nil {
			return err
		}
		n := parseLeadingNumber(ev.rt.strings.Bytes(s))
		return ev.rt.stack.Push(NumberValue(n))
	}}})
	set("STR$", &OpSpec{Prefix: &OpRoutine{MinArity: 1, MaxArity: 1, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		n, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		return ev.pushTempString([]byte(formatNumber(n)))
	}}})
	set("CHR$", &OpSpec{Prefix: &OpRoutine{MinArity: 1, MaxArity: 1, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		n, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		return ev.pushTempString([]byte{byte(int32(n))})
	}}})
	set("LEFT$", &OpSpec{Prefix: &OpRoutine{MinArity: 2, MaxArity: 2, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		n, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		s, err := ev.rt.stack.PopStr()
		if err != nil {
			return err
		}
		bs := ev.rt.strings.Bytes(s)
		k := clampLen(int(n), len(bs))
		return ev.pushTempString(bs[:k])
	}}})
	set("RIGHT$", &OpSpec{Prefix: &OpRoutine{MinArity: 2, MaxArity: 2, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		n, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		s, err := ev.rt.stack.PopStr()
		if err != nil {
			return err
		}
		bs := ev.rt.strings.Bytes(s)
		k := clampLen(int(n), len(bs))
		return ev.pushTempString(bs[len(bs)-k:])
	}}})
	set("MID$", &OpSpec{Prefix: &OpRoutine{MinArity: 2, MaxArity: 3, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		length := -1
		if argc == 3 {
			n, err := ev.rt.stack.PopNum()
			if err != nil {
				return err
			}
			length = int(n)
		}
		start, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		s, err := ev.rt.stack.PopStr()
		if err != nil {
			return err
		}
		bs := ev.rt.strings.Bytes(s)
		i := int(start) - 1
		if i < 0 {
			i = 0
		}
		if i > len(bs) {
			i = len(bs)
		}
		end := len(bs)
		if length >= 0 && i+length < end {
			end = i + length
		}
		return ev.pushTempString(bs[i:end])
	}}})
	set("SUB$", &OpSpec{Prefix: &OpRoutine{MinArity: 3, MaxArity: 3, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		j, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		i, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		s, err := ev.rt.stack.PopStr()
		if err != nil {
			return err
		}
		bs := ev.rt.strings.Bytes(s)
		lo, hi := int(i), int(j)
		if hi < lo {
			return ev.pushTempString(nil)
		}
		if lo < 1 || hi > len(bs) {
			return newErr(CodeSubscriptRange)
		}
		return ev.pushTempString(bs[lo-1 : hi])
	}}})

	// --- environment / IO-adjacent operators ---------------------------------

	set("ERR", &OpSpec{Prefix: &OpRoutine{MinArity: 0, MaxArity: 0, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		return ev.rt.stack.Push(NumberValue(float32(ev.rt.LastErrCode)))
	}}})
	set("TIME", &OpSpec{Prefix: &OpRoutine{MinArity: 0, MaxArity: 0, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		return ev.rt.stack.Push(NumberValue(ev.rt.ElapsedSeconds()))
	}}})
	set("EOF", &OpSpec{Prefix: &OpRoutine{MinArity: 1, MaxArity: 1, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		n, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		eof, err := ev.rt.channels.EOF(int(n))
		if err != nil {
			return err
		}
		return ev.rt.stack.Push(boolValue(eof))
	}}})
	set("INKEY$", &OpSpec{Prefix: &OpRoutine{MinArity: 0, MaxArity: 0, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		b, err := ev.rt.Term.Key()
		if err != nil {
			return err
		}
		return ev.pushTempString([]byte{b})
	}}})
	set("COL", &OpSpec{Prefix: &OpRoutine{MinArity: 0, MaxArity: 0, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		return ev.rt.stack.Push(NumberValue(float32(ev.rt.Term.Col())))
	}}})
	set("ROW", &OpSpec{Prefix: &OpRoutine{MinArity: 0, MaxArity: 0, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		return ev.rt.stack.Push(NumberValue(float32(ev.rt.Term.Row())))
	}}})
	set("TAB", &OpSpec{Prefix: &OpRoutine{MinArity: 1, MaxArity: 1, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		n, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		ev.rt.Term.Tab(int(n))
		return ev.pushTempString(nil)
	}}})
	set("AT", &OpSpec{Prefix: &OpRoutine{MinArity: 2, MaxArity: 2, Priority: 100, Fn: func(ev *Evaluator, argc int) error {
		c, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		r, err := ev.rt.stack.PopNum()
		if err != nil {
			return err
		}
		ev.rt.Term.At(int(r), int(c))
		return ev.pushTempString(nil)
	}}})

	return t
}

func boolNum(b bool) float32 {
	if b {
		return 1
	}
	return 0
}

func clampLen(n, max int) int {
	if n < 0 {
		n = 0
	}
	if n > max {
		n = max
	}
	return n
}

func opAdd(ev *Evaluator, argc int) error {
	b, err := ev.rt.stack.Pop()
	if err != nil {
		return err
	}
	a, err := ev.rt.stack.Pop()
	if err != nil {
		return err
	}
	if a.IsNumber() && b.IsNumber() {
		return ev.rt.stack.Push(NumberValue(a.Num + b.Num))
	}
	if a.IsString() && b.IsString() {
		joined := append(append([]byte{}, ev.rt.strings.Bytes(a.Str)...), ev.rt.strings.Bytes(b.Str)...)
		return ev.pushTempString(joined)
	}
	return newErr(CodeType)
}

func opNeg(ev *Evaluator, argc int) error {
	x, err := ev.rt.stack.PopNum()
	if err != nil {
		return err
	}
	return ev.rt.stack.Push(NumberValue(-x))
}

func opPow(a, b float32) (float32, error) {
	if a == 0 && b <= 0 {
		return 0, newErr(CodeDomain)
	}
	r := math.Pow(float64(a), float64(b))
	if math.IsNaN(r) {
		return 0, newErr(CodeDomain)
	}
	return float32(r), nil
}

// parseLeadingNumber mimics classic BASIC VAL: parse as much of a leading
// numeric prefix as possible, 0 if none.
func parseLeadingNumber(s []byte) float32 {
	i := 0
	n := len(s)
	for i < n && (s[i] == ' ' || s[i] == '\t') {
		i++
	}
	start := i
	if i < n && (s[i] == '+' || s[i] == '-') {
		i++
	}
	for i < n && isDigit(s[i]) {
		i++
	}
	if i < n && s[i] == '.' {
		i++
		for i < n && isDigit(s[i]) {
			i++
		}
	}
	if i == start {
		return 0
	}
	var f float64
	fmt.Sscanf(string(s[start:i]), "%g", &f)
	return float32(f)
}
