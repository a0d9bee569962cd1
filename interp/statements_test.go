package interp

import "testing"

func TestPrintHelloWorld(t *testing.T) {
	out, err := runSource(t, "10 PRINT \"HELLO, WORLD\"\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "HELLO, WORLD\n", "expected greeting, got %q", out)
}

func TestPrintCommaTabsThenSemicolonJoinsWithoutASecondTab(t *testing.T) {
	out, err := runSource(t, "10 PRINT \"A\",\"B\";\"C\"\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "A\tBC\n", "expected comma to tab and semicolon to join flush, got %q", out)
}

func TestPrintTrailingSemicolonSuppressesNewline(t *testing.T) {
	out, err := runSource(t, "10 PRINT \"NO NEWLINE\";\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "NO NEWLINE", "expected trailing semicolon to suppress the newline, got %q", out)
}

func TestIfThenFalseSkipsRestOfLine(t *testing.T) {
	out, err := runSource(t, ""+
		"10 IF 1 = 2 THEN PRINT \"NO\"\n"+
		"20 PRINT \"YES\"\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "YES\n", "expected false branch skipped, got %q", out)
}

func TestIfThenNumericTargetActsAsGoto(t *testing.T) {
	out, err := runSource(t, ""+
		"10 IF 1 = 1 THEN 30\n"+
		"20 PRINT \"SKIPPED\"\n"+
		"30 PRINT \"LANDED\"\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "LANDED\n", "expected jump past line 20, got %q", out)
}

func TestDimAndArrayAssignment(t *testing.T) {
	out, err := runSource(t, ""+
		"10 DIM V(3)\n"+
		"20 V(1) = 10\n"+
		"30 V(2) = 20\n"+
		"40 V(3) = V(1) + V(2)\n"+
		"50 PRINT V(3)\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "30\n", "expected 30, got %q", out)
}

func TestInputReadsLineAndAssigns(t *testing.T) {
	out, err := runSourceWithInput(t, ""+
		"10 INPUT N\n"+
		"20 PRINT N * 2\n", "21\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "42\n", "expected doubled input, got %q", out)
}

func TestLinputReadsRawLineIntoStringVar(t *testing.T) {
	out, err := runSourceWithInput(t, ""+
		"10 LINPUT A$\n"+
		"20 PRINT A$\n", "HELLO, COMMAS, AND ALL\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "HELLO, COMMAS, AND ALL\n", "expected raw line echoed, got %q", out)
}

func TestListRendersStoredProgramInOrder(t *testing.T) {
	rt, out := newTestRuntime("")
	loadProgram(t, rt, "20 PRINT 2\n10 PRINT 1\n")
	assert(t, execList(rt) == nil, "list: unexpected error")
	assert(t, out.String() == "10 PRINT 1 \n20 PRINT 2 \n", "expected ascending listing, got %q", out.String())
}

func TestClearResetsVariablesButKeepsProgram(t *testing.T) {
	rt, _ := newTestRuntime("")
	loadProgram(t, rt, "10 LET X = 5\n")
	first := rt.prog.First()
	rt.IP0, rt.IP = first, rt.prog.TokenStart(first)
	assert(t, rt.RunProgram() == nil, "run: unexpected error")

	off, err := rt.strings.Intern([]byte("X"))
	assert(t, err == nil, "intern: %v", err)
	_, exists := rt.vars.Find(off)
	assert(t, exists, "expected X to exist after running")

	assert(t, execClear(rt) == nil, "clear: unexpected error")
	_, exists = rt.vars.Find(off)
	assert(t, !exists, "expected CLEAR to wipe variables")
	assert(t, rt.prog.First() != NIL, "expected CLEAR to keep the stored program")
}

func TestNewWipesEverything(t *testing.T) {
	rt, _ := newTestRuntime("")
	loadProgram(t, rt, "10 PRINT 1\n")
	assert(t, execNew(rt) == nil, "new: unexpected error")
	assert(t, rt.prog.First() == NIL, "expected NEW to wipe the stored program")
}

func TestUndefinedVariableIsAnError(t *testing.T) {
	_, err := runSource(t, "10 PRINT Q\n")
	assert(t, codeOf(err) == CodeUndefinedVariable, "expected undefined-variable error, got %v", err)
}

func TestTypeMismatchAssigningStringToNumericVar(t *testing.T) {
	_, err := runSource(t, `10 LET X = "NOT A NUMBER"`+"\n")
	assert(t, codeOf(err) == CodeType, "expected type-mismatch error, got %v", err)
}

func TestSysIsANoOp(t *testing.T) {
	out, err := runSource(t, "10 SYS 42\n20 PRINT \"STILL HERE\"\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "STILL HERE\n", "expected SYS to be inert, got %q", out)
}
