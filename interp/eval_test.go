package interp

import "testing"

func TestEvalArithmeticPrecedence(t *testing.T) {
	rt, _ := newTestRuntime("")
	v := evalExpr(t, rt, "2 + 3 * 4")
	assert(t, v.Num == 14, "expected 2+3*4 == 14, got %v", v.Num)
}

func TestEvalParenthesesOverridePrecedence(t *testing.T) {
	rt, _ := newTestRuntime("")
	v := evalExpr(t, rt, "(2 + 3) * 4")
	assert(t, v.Num == 20, "expected (2+3)*4 == 20, got %v", v.Num)
}

func TestEvalPowerIsRightAssociative(t *testing.T) {
	rt, _ := newTestRuntime("")
	// 2^3^2 must bind as 2^(3^2) == 2^9 == 512, not (2^3)^2 == 64.
	v := evalExpr(t, rt, "2^3^2")
	assert(t, v.Num == 512, "expected right-associative 2^3^2 == 512, got %v", v.Num)
}

func TestEvalUnaryMinusBindsTighterThanMultiply(t *testing.T) {
	rt, _ := newTestRuntime("")
	v := evalExpr(t, rt, "-2*3")
	assert(t, v.Num == -6, "expected -2*3 == -6, got %v", v.Num)
}

func TestEvalComparisonAndLogical(t *testing.T) {
	rt, _ := newTestRuntime("")
	v := evalExpr(t, rt, "(1 < 2) AND (3 > 2)")
	assert(t, v.Num == 1, "expected true AND true == 1, got %v", v.Num)

	v = evalExpr(t, rt, "NOT (1 = 2)")
	assert(t, v.Num == 1, "expected NOT(1=2) == 1, got %v", v.Num)
}

func TestEvalStringConcatenation(t *testing.T) {
	rt, _ := newTestRuntime("")
	v := evalExpr(t, rt, `"FOO" + "BAR"`)
	assert(t, v.IsString(), "expected a string result")
	assert(t, string(rt.strings.Bytes(v.Str)) == "FOOBAR", "expected FOOBAR, got %q", rt.strings.Bytes(v.Str))
}

func TestEvalStringSliceLowering(t *testing.T) {
	rt, _ := newTestRuntime("")
	off, err := rt.strings.Intern([]byte("HELLO"))
	assert(t, err == nil, "intern: %v", err)
	nameOff, err := rt.strings.Intern([]byte("A$"))
	assert(t, err == nil, "intern name: %v", err)
	addr, err := rt.vars.Create(nameOff, TypeStr)
	assert(t, err == nil, "create A$: %v", err)
	assert(t, rt.vars.SetStrScalar(addr, rt.strings.Bytes(off)) == nil, "set A$")

	v := evalExpr(t, rt, "A$(2 TO 4)")
	assert(t, v.IsString(), "expected string result from slice")
	assert(t, string(rt.strings.Bytes(v.Str)) == "ELL", "expected ELL, got %q", rt.strings.Bytes(v.Str))

	v = evalExpr(t, rt, "A$(1)")
	assert(t, string(rt.strings.Bytes(v.Str)) == "H", "expected single-char slice H, got %q", rt.strings.Bytes(v.Str))
}

func TestEvalStringSliceMissingOperandsDefault(t *testing.T) {
	rt, _ := newTestRuntime("")
	off, err := rt.strings.Intern([]byte("HELLO"))
	assert(t, err == nil, "intern: %v", err)
	nameOff, err := rt.strings.Intern([]byte("A$"))
	assert(t, err == nil, "intern name: %v", err)
	addr, err := rt.vars.Create(nameOff, TypeStr)
	assert(t, err == nil, "create A$: %v", err)
	assert(t, rt.vars.SetStrScalar(addr, rt.strings.Bytes(off)) == nil, "set A$")

	// Missing i defaults to 1.
	v := evalExpr(t, rt, "A$(TO 3)")
	assert(t, string(rt.strings.Bytes(v.Str)) == "HEL", "expected HEL from A$(TO 3), got %q", rt.strings.Bytes(v.Str))

	// Missing j defaults to the string's length.
	v = evalExpr(t, rt, "A$(3 TO)")
	assert(t, string(rt.strings.Bytes(v.Str)) == "LLO", "expected LLO from A$(3 TO), got %q", rt.strings.Bytes(v.Str))
}

func TestEvalMidDollarTwoAndThreeArgForms(t *testing.T) {
	rt, _ := newTestRuntime("")
	v := evalExpr(t, rt, `MID$("HELLO WORLD", 7)`)
	assert(t, string(rt.strings.Bytes(v.Str)) == "WORLD", "expected WORLD, got %q", rt.strings.Bytes(v.Str))

	v = evalExpr(t, rt, `MID$("HELLO WORLD", 1, 5)`)
	assert(t, string(rt.strings.Bytes(v.Str)) == "HELLO", "expected HELLO, got %q", rt.strings.Bytes(v.Str))
}

func TestEvalLeftRightDollar(t *testing.T) {
	rt, _ := newTestRuntime("")
	v := evalExpr(t, rt, `LEFT$("HELLO", 3)`)
	assert(t, string(rt.strings.Bytes(v.Str)) == "HEL", "expected HEL, got %q", rt.strings.Bytes(v.Str))

	v = evalExpr(t, rt, `RIGHT$("HELLO", 3)`)
	assert(t, string(rt.strings.Bytes(v.Str)) == "LLO", "expected LLO, got %q", rt.strings.Bytes(v.Str))
}

func TestEvalDivisionByZero(t *testing.T) {
	rt, _ := newTestRuntime("")
	total, err := rt.tok.Tokenize([]byte("1/0"))
	assert(t, err == nil, "tokenize: %v", err)
	obj := rt.ram.Cur.OBJ
	rt.IP0, rt.IP = obj, obj+1
	_ = total
	_, err = newEvaluator(rt).Eval()
	assert(t, codeOf(err) == CodeZero, "expected division-by-zero error, got %v", err)
}

func TestEvalFunctionArity(t *testing.T) {
	rt, _ := newTestRuntime("")
	v := evalExpr(t, rt, `LEN("HELLO")`)
	assert(t, v.Num == 5, "expected LEN(\"HELLO\") == 5, got %v", v.Num)

	v = evalExpr(t, rt, "ABS(-7)")
	assert(t, v.Num == 7, "expected ABS(-7) == 7, got %v", v.Num)
}
