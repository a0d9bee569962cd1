package interp

import "testing"

func TestProgramInsertKeepsAscendingOrder(t *testing.T) {
	rt, _ := newTestRuntime("")
	loadProgram(t, rt, "30 PRINT 3\n10 PRINT 1\n20 PRINT 2\n")

	lines := rt.prog.Lines()
	assert(t, len(lines) == 3, "expected 3 stored lines, got %d", len(lines))
	var nums []uint16
	for _, addr := range lines {
		nums = append(nums, rt.prog.lineNumberAt(addr))
	}
	assert(t, nums[0] == 10 && nums[1] == 20 && nums[2] == 30, "expected ascending order, got %v", nums)
}

func TestProgramInsertReplacesExistingLine(t *testing.T) {
	rt, _ := newTestRuntime("")
	loadProgram(t, rt, "10 PRINT 1\n10 PRINT 2\n")

	lines := rt.prog.Lines()
	assert(t, len(lines) == 1, "expected replacement to keep a single line 10, got %d", len(lines))
	assert(t, rt.detokenizeLine(lines[0]) == `10 PRINT 2 `, "expected replaced body, got %q", rt.detokenizeLine(lines[0]))
}

func TestProgramBareLineNumberDeletes(t *testing.T) {
	rt, _ := newTestRuntime("")
	loadProgram(t, rt, "10 PRINT 1\n20 PRINT 2\n10\n")

	lines := rt.prog.Lines()
	assert(t, len(lines) == 1, "expected line 10 deleted, got %d lines", len(lines))
	assert(t, rt.prog.lineNumberAt(lines[0]) == 20, "expected only line 20 to remain")
}

func TestProgramFindAndNext(t *testing.T) {
	rt, _ := newTestRuntime("")
	loadProgram(t, rt, "10 PRINT 1\n20 PRINT 2\n")

	addr, ok := rt.prog.Find(10)
	assert(t, ok, "expected to find line 10")
	next := rt.prog.Next(addr)
	assert(t, next != NIL, "expected a next line after 10")
	assert(t, rt.prog.lineNumberAt(next) == 20, "expected line 20 to follow line 10")
	assert(t, rt.prog.Next(next) == NIL, "expected no line after the last one")
}
