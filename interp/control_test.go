package interp

import "testing"

func TestForNextLoopAccumulates(t *testing.T) {
	out, err := runSource(t, ""+
		"10 LET S = 0\n"+
		"20 FOR I = 1 TO 5\n"+
		"30 LET S = S + I\n"+
		"40 NEXT I\n"+
		"50 PRINT S\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "15\n", "expected 15, got %q", out)
}

func TestForNextWithStep(t *testing.T) {
	out, err := runSource(t, ""+
		"10 FOR I = 10 TO 0 STEP -2\n"+
		"20 PRINT I,\n"+
		"30 NEXT I\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "10\t8\t6\t4\t2\t0\t", "expected countdown sequence tab-joined with no trailing newline, got %q", out)
}

func TestForSkipsBodyWhenConditionAlreadyFalse(t *testing.T) {
	out, err := runSource(t, ""+
		"10 FOR I = 1 TO 0\n"+
		"20 PRINT \"BODY\"\n"+
		"30 NEXT I\n"+
		"40 PRINT \"AFTER\"\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "AFTER\n", "expected the zero-trip body to be skipped, got %q", out)
}

func TestForWithoutMatchingNextFails(t *testing.T) {
	_, err := runSource(t, ""+
		"10 FOR I = 1 TO 0\n"+
		"20 PRINT \"BODY\"\n")
	assert(t, codeOf(err) == CodeForWithoutNext, "expected for-without-next error, got %v", err)
}

func TestRepeatRestartsCurrentLine(t *testing.T) {
	out, err := runSource(t, ""+
		"10 LET N = 0\n"+
		"20 LET N = N + 1 : IF N < 3 THEN REPEAT\n"+
		"30 PRINT N\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "3\n", "expected REPEAT to re-run line 20 until N reaches 3, got %q", out)
}

func TestRepeatOutsideProgramFails(t *testing.T) {
	rt, _ := newTestRuntime("")
	total, err := rt.tok.Tokenize([]byte("REPEAT"))
	assert(t, err == nil, "tokenize: %v", err)
	obj := rt.ram.Cur.OBJ
	_ = total
	err = rt.RunImmediate(obj, obj+1)
	assert(t, codeOf(err) == CodeIllegalOutsideProgram, "expected illegal-outside-program error, got %v", err)
}

func TestSkipAdvancesPastRestOfLine(t *testing.T) {
	out, err := runSource(t, ""+
		"10 PRINT 1 : SKIP : PRINT 2\n"+
		"20 PRINT 3\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "1\n3\n", "expected SKIP to discard the rest of line 10, got %q", out)
}

func TestGosubReturn(t *testing.T) {
	out, err := runSource(t, ""+
		"10 GOSUB 100\n"+
		"20 PRINT \"BACK\"\n"+
		"30 END\n"+
		"100 PRINT \"IN SUB\"\n"+
		"110 RETURN\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "IN SUB\nBACK\n", "expected sub then continuation, got %q", out)
}

func TestGosubOutsideProgramFails(t *testing.T) {
	rt, _ := newTestRuntime("")
	total, err := rt.tok.Tokenize([]byte("GOSUB 10"))
	assert(t, err == nil, "tokenize: %v", err)
	obj := rt.ram.Cur.OBJ
	_ = total
	err = rt.RunImmediate(obj, obj+1)
	assert(t, codeOf(err) == CodeIllegalOutsideProgram, "expected illegal-outside-program error, got %v", err)
}

func TestOnErrorTrapsAndClearsAfterOneUse(t *testing.T) {
	out, err := runSource(t, ""+
		"10 ON ERROR GOTO 100\n"+
		"20 LET X = 1/0\n"+
		"30 PRINT \"UNREACHABLE\"\n"+
		"40 END\n"+
		"100 PRINT \"CAUGHT\"\n"+
		"110 LET Y = 1/0\n")
	assert(t, err != nil, "expected the second division by zero to propagate once the handler is consumed")
	assert(t, out == "CAUGHT\n", "expected only the handler's output, got %q", out)
	assert(t, codeOf(err) == CodeZero, "expected the escaping error to be division-by-zero, got %v", err)
}

func TestDataReadMultipleItemsOnOneLine(t *testing.T) {
	out, err := runSource(t, ""+
		"10 DATA 1, 2, 3\n"+
		"20 READ A, B, C\n"+
		"30 PRINT A + B + C\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "6\n", "expected sum of the three DATA items, got %q", out)
}

// RESTORE rescans from the first program line for the next unconsumed DATA
// item; since reading consumes items in place, RESTORE after a partial read
// picks up wherever that line's remaining items are, not the original start.
func TestDataRestoreRescansFromFirstLine(t *testing.T) {
	out, err := runSource(t, ""+
		"10 DATA 1, 2, 3\n"+
		"20 READ A\n"+
		"30 RESTORE\n"+
		"40 READ B\n"+
		"50 PRINT A, B\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "1\t2\n", "expected RESTORE to resume from the remaining DATA items, got %q", out)
}

func TestReadPastEndOfDataFails(t *testing.T) {
	_, err := runSource(t, ""+
		"10 DATA 1\n"+
		"20 READ A\n"+
		"30 READ B\n")
	assert(t, codeOf(err) == CodeOutOfData, "expected out-of-data error, got %v", err)
}

func TestOnGotoComputedJump(t *testing.T) {
	out, err := runSource(t, ""+
		"10 LET N = 2\n"+
		"20 ON N GOTO 100, 200, 300\n"+
		"30 END\n"+
		"100 PRINT \"ONE\"\n"+
		"110 END\n"+
		"200 PRINT \"TWO\"\n"+
		"210 END\n"+
		"300 PRINT \"THREE\"\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "TWO\n", "expected branch 2 taken, got %q", out)
}

func TestDefFnCallsWithParameterBinding(t *testing.T) {
	out, err := runSource(t, ""+
		"10 DEF FNSQ(X) = X * X\n"+
		"20 PRINT FNSQ(5)\n")
	assert(t, err == nil, "run: %v", err)
	assert(t, out == "25\n", "expected 25, got %q", out)
}

func TestStopAndContinue(t *testing.T) {
	rt, out := newTestRuntime("")
	loadProgram(t, rt, ""+
		"10 PRINT \"BEFORE\"\n"+
		"20 STOP\n"+
		"30 PRINT \"AFTER\"\n")
	first := rt.prog.First()
	rt.IP0, rt.IP = first, rt.prog.TokenStart(first)
	assert(t, rt.RunProgram() == nil, "expected STOP to halt cleanly")
	assert(t, rt.StoppedAt0 != NIL, "expected STOP to leave a resume point")

	assert(t, execContinue(rt) == nil, "continue: unexpected error")
	rt.Stdout.Flush()
	assert(t, out.String() == "BEFORE\nAFTER\n", "expected execution to resume past STOP, got %q", out.String())
}
