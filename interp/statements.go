package interp

import (
	"fmt"
	"math/rand"
	"os"
	"strconv"
	"sync"
	"time"
)

// Component I: statement routines, one function per keyword, dispatched
// from Component H's table (spec.md §4.I). Every routine assumes the
// keyword byte itself has already been consumed by dispatchOne; it reads
// whatever arguments follow directly off the token stream via the
// Runtime's cursor helpers (curByte/advance/readU16Arg/readF32Arg) and
// the Evaluator for subexpressions.

var (
	stmtTable     map[byte]stmtFn
	stmtTableOnce sync.Once
)

func statementTable() map[byte]stmtFn {
	stmtTableOnce.Do(func() {
		stmtTable = map[byte]stmtFn{
			kw("ATTR"):      execAttr,
			kw("BYE"):       execBye,
			kw("CHAIN"):     execChain,
			kw("CLEAR"):     execClear,
			kw("CLOSE"):     execClose,
			kw("CLS"):       execCls,
			kw("CONTINUE"):  execContinue,
			kw("DATA"):      execSkipRawLine,
			kw("DEF"):       execSkipRawLine,
			kw("DIM"):       execDim,
			kw("DUMP"):      execDump,
			kw("END"):       execEnd,
			kw("ERROR"):     execError,
			kw("FOR"):       execFor,
			kw("GOSUB"):     execGosub,
			kw("GOTO"):      execGoto,
			kw("IF"):        execIf,
			kw("INPUT"):     execInput,
			kw("LET"):       execLet,
			kw("LINPUT"):    execLinput,
			kw("LIST"):      execList,
			kw("LOAD"):      execLoad,
			kw("MERGE"):     execMerge,
			kw("NEW"):       execNew,
			kw("NEXT"):      execNext,
			kw("ON"):        execOn,
			kw("OPEN"):      execOpen,
			kw("PRINT"):     execPrint,
			kw("RANDOMIZE"): execRandomize,
			kw("READ"):      execRead,
			kw("REM"):       execSkipRawLine,
			kw("REPEAT"):    execRepeat,
			kw("RESTORE"):   execRestore,
			kw("RETURN"):    execReturn,
			kw("RUN"):       execRun,
			kw("SAVE"):      execSave,
			kw("SKIP"):      execSkipRawLine,
			kw("STOP"):      execStop,
			kw("SYS"):       execSys,
			kw("TRACE"):     execTrace,
		}
	})
	return stmtTable
}

func isExprStart(c byte) bool {
	switch c {
	case CodeIntLit, CodeNumLit, CodeStrLit, CodeIdn, CodeIdnS, '(':
		return true
	}
	spec, ok := operatorTable()[c]
	return ok && spec.Prefix != nil
}

// --- lvalue helpers -----------------------------------------------------

// lvalue is a resolved assignment target: either a variable's scalar slot
// or an array element's slot.
type lvalue struct {
	isStr    bool
	recAddr  uint16 // record header address, for string resizes
	slot     uint16 // payload address (scalar) or element slot (array)
	isScalar bool
}

// parseLvalue reads an identifier (and optional subscript) as an
// assignment target, creating the variable on demand for bare scalars.
func (rt *Runtime) parseLvalue() (lvalue, error) {
	c := rt.curByte()
	if c != CodeIdn && c != CodeIdnS {
		return lvalue{}, newErr(CodeIdentifier)
	}
	rt.advance()
	nameOff := rt.readU16Arg()
	isStr := c == CodeIdnS

	if rt.curByte() == '(' {
		rt.advance()
		ev := newEvaluator(rt)
		var subs []int
		for {
			v, err := ev.Eval()
			if err != nil {
				return lvalue{}, err
			}
			subs = append(subs, int(v.Num))
			if rt.curByte() == ',' {
				rt.advance()
				continue
			}
			break
		}
		if rt.curByte() != ')' {
			return lvalue{}, newErr(CodeClosedPar)
		}
		rt.advance()
		addr, exists := rt.vars.Find(nameOff)
		if !exists {
			return lvalue{}, newErr(CodeUndefinedVariable)
		}
		slot, err := rt.vars.ElementAddress(addr, subs)
		if err != nil {
			return lvalue{}, err
		}
		return lvalue{isStr: isStr, recAddr: addr, slot: slot}, nil
	}

	name := rt.strings.Bytes(nameOff)
	addr, err := rt.vars.InsertScalarOnDemand(nameOff, name)
	if err != nil {
		return lvalue{}, err
	}
	return lvalue{isStr: isStr, recAddr: addr, isScalar: true}, nil
}

func (rt *Runtime) assign(lv lvalue, v Value) error {
	if lv.isStr != v.IsString() {
		return newErr(CodeType)
	}
	if lv.isScalar {
		if lv.isStr {
			return rt.vars.SetStrScalar(lv.recAddr, rt.strings.Bytes(v.Str))
		}
		return rt.vars.SetNumScalar(lv.recAddr, v.Num)
	}
	if lv.isStr {
		return rt.vars.SetElementString(lv.recAddr, lv.slot, rt.strings.Bytes(v.Str))
	}
	rt.ram.WriteF32(lv.slot, v.Num)
	return nil
}

// --- statement routines ---------------------------------------------------

func execLet(rt *Runtime) error {
	lv, err := rt.parseLvalue()
	if err != nil {
		return err
	}
	if rt.curByte() != op("=") {
		return newErr(CodeAssignment)
	}
	rt.advance()
	v, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	return rt.assign(lv, v)
}

func execAttr(rt *Runtime) error {
	v, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	rt.Term.SetAttr(int(v.Num))
	return nil
}

func execBye(rt *Runtime) error {
	rt.Quit = true
	rt.Halted = true
	return nil
}

func execCls(rt *Runtime) error {
	rt.Term.Cls()
	return nil
}

func execClear(rt *Runtime) error {
	rt.VariablesReset()
	return nil
}

func execEnd(rt *Runtime) error {
	rt.Halted = true
	rt.StoppedAt0, rt.StoppedAt = NIL, NIL
	return nil
}

func execStop(rt *Runtime) error {
	rt.Halted = true
	rt.StoppedAt0, rt.StoppedAt = rt.IP0, rt.IP
	return nil
}

func execContinue(rt *Runtime) error {
	if rt.StoppedAt0 == NIL {
		return newErr(CodeIllegalInstruction)
	}
	ip0, ip := rt.StoppedAt0, rt.StoppedAt
	rt.StoppedAt0, rt.StoppedAt = NIL, NIL
	rt.IP0, rt.IP = ip0, ip
	if !rt.InProgram {
		return rt.RunProgram()
	}
	return nil
}

func execSkipRawLine(rt *Runtime) error {
	for rt.curByte() != 0 {
		rt.advance()
	}
	return nil
}

// execRepeat restarts execution at the first token of the current line
// (spec.md §4.I "REPEAT"), erroring outside a stored program the same way
// GOSUB/RETURN/NEXT do.
func execRepeat(rt *Runtime) error {
	if !rt.InProgram {
		return newErr(CodeIllegalOutsideProgram)
	}
	rt.IP = rt.prog.TokenStart(rt.IP0)
	return nil
}

func execError(rt *Runtime) error {
	v, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	return userError(int(v.Num))
}

func execNew(rt *Runtime) error {
	rt.FullReset()
	return nil
}

func execRun(rt *Runtime) error {
	rt.VariablesReset()
	first := rt.prog.First()
	if first == NIL {
		rt.Halted = true
		return nil
	}
	rt.IP0 = first
	rt.IP = rt.prog.TokenStart(first)
	if rt.InProgram {
		return nil
	}
	return rt.RunProgram()
}

func execGoto(rt *Runtime) error {
	v, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	return rt.gotoLine(uint16(v.Num))
}

func execGosub(rt *Runtime) error {
	if !rt.InProgram {
		return newErr(CodeIllegalOutsideProgram)
	}
	v, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	return rt.doGosub(uint16(v.Num))
}

func execReturn(rt *Runtime) error {
	if !rt.InProgram {
		return newErr(CodeIllegalOutsideProgram)
	}
	return rt.doReturn()
}

func execFor(rt *Runtime) error {
	if rt.curByte() != CodeIdn {
		return newErr(CodeForVar)
	}
	rt.advance()
	nameOff := rt.readU16Arg()

	if rt.curByte() != op("=") {
		return newErr(CodeAssignment)
	}
	rt.advance()
	start, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	if rt.curByte() != kw("TO") {
		return newErr(CodeToExpected)
	}
	rt.advance()
	bound, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	step := float32(1)
	if rt.curByte() == kw("STEP") {
		rt.advance()
		sv, err := newEvaluator(rt).Eval()
		if err != nil {
			return err
		}
		step = sv.Num
	}
	if err := rt.doForInit(nameOff, start.Num, bound.Num, step); err != nil {
		return err
	}
	if (ForState{Value: start.Num, Bound: bound.Num, Step: step}).Terminated() {
		return rt.scanForMatchingNext(nameOff)
	}
	return nil
}

func execNext(rt *Runtime) error {
	if !rt.InProgram {
		return newErr(CodeIllegalOutsideProgram)
	}
	if rt.curByte() != CodeIdn {
		return newErr(CodeForVar)
	}
	rt.advance()
	nameOff := rt.readU16Arg()
	_, err := rt.doNext(nameOff)
	return err
}

// execIf implements "IF cond [THEN] stmts" and "IF cond THEN n" (numeric
// target is shorthand for GOTO n). A false condition discards the rest of
// the line; spec.md's dialect has no ELSE.
func execIf(rt *Runtime) error {
	cond, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	if rt.curByte() == kw("THEN") {
		rt.advance()
	}
	if !cond.Truthy() {
		for rt.curByte() != 0 {
			rt.advance()
		}
		return nil
	}
	if rt.curByte() == CodeIntLit {
		rt.advance()
		n := rt.readU16Arg()
		return rt.gotoLine(n)
	}
	return nil
}

func execOn(rt *Runtime) error {
	// "ON ERROR GOTO n" has no leading expression to evaluate: ERROR is a
	// keyword, not an operand, so it must be recognized before attempting
	// the computed-jump form's expression.
	if rt.curByte() == kw("ERROR") {
		rt.advance()
		if rt.curByte() != kw("GOTO") {
			return newErr(CodeOn)
		}
		rt.advance()
		lv, err := newEvaluator(rt).Eval()
		if err != nil {
			return err
		}
		rt.ErrHandlerLine = uint16(lv.Num)
		return nil
	}

	v, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	n := int(v.Num)

	var isGosub bool
	switch rt.curByte() {
	case kw("GOTO"):
		isGosub = false
	case kw("GOSUB"):
		isGosub = true
	default:
		return newErr(CodeOn)
	}
	rt.advance()

	var targets []uint16
	for {
		if rt.curByte() != CodeIntLit {
			return newErr(CodeSyntax)
		}
		rt.advance()
		targets = append(targets, rt.readU16Arg())
		if rt.curByte() == ',' {
			rt.advance()
			continue
		}
		break
	}

	target, ok := onTarget(n, targets)
	if !ok {
		return newErr(CodeOn)
	}
	if isGosub {
		if !rt.InProgram {
			return newErr(CodeIllegalOutsideProgram)
		}
		return rt.doGosub(target)
	}
	return rt.gotoLine(target)
}

func execDim(rt *Runtime) error {
	for {
		if rt.curByte() != CodeIdn && rt.curByte() != CodeIdnS {
			return newErr(CodeIdentifier)
		}
		isStr := rt.curByte() == CodeIdnS
		rt.advance()
		nameOff := rt.readU16Arg()
		if rt.curByte() != '(' {
			return newErr(CodeOpenedPar)
		}
		rt.advance()
		var dims []uint16
		for {
			v, err := newEvaluator(rt).Eval()
			if err != nil {
				return err
			}
			dims = append(dims, uint16(v.Num))
			if rt.curByte() == ',' {
				rt.advance()
				continue
			}
			break
		}
		if rt.curByte() != ')' {
			return newErr(CodeClosedPar)
		}
		rt.advance()

		tag := TypeNum | TypeVec
		if isStr {
			tag = TypeStr | TypeVec
		}
		if len(dims) == 2 {
			tag = TypeNum | TypeMat
			if isStr {
				tag = TypeStr | TypeMat
			}
		}
		if _, err := rt.vars.Create(nameOff, tag, dims...); err != nil {
			return err
		}

		if rt.curByte() == ',' {
			rt.advance()
			continue
		}
		break
	}
	return nil
}

func execDump(rt *Runtime) error {
	c := &rt.ram.Cur
	addr := c.VP0
	for addr < c.VP {
		name := rt.strings.Bytes(rt.vars.recName(addr))
		tag := rt.vars.recTag(addr)
		fmt.Fprintf(rt.Stdout, "%s\t%s\n", name, describeTag(tag))
		addr += rt.vars.recSize(addr)
	}
	return rt.Stdout.Flush()
}

func describeTag(tag byte) string {
	switch tag {
	case TypeNum:
		return "NUM"
	case TypeStr:
		return "STR"
	case TypeFor:
		return "FOR"
	case TypeNum | TypeVec:
		return "NUM VEC"
	case TypeStr | TypeVec:
		return "STR VEC"
	case TypeNum | TypeMat:
		return "NUM MAT"
	case TypeStr | TypeMat:
		return "STR MAT"
	}
	return "?"
}

// --- PRINT / INPUT / LINPUT ----------------------------------------------

func execPrint(rt *Runtime) error {
	writer := func(s string) error {
		_, err := rt.Stdout.WriteString(s)
		return err
	}
	if rt.curByte() == '#' {
		rt.advance()
		v, err := newEvaluator(rt).Eval()
		if err != nil {
			return err
		}
		ch := int(v.Num)
		if ch != 0 {
			writer = func(s string) error { return rt.channels.Write(ch, s) }
		}
		if rt.curByte() == ',' {
			rt.advance()
		}
	}

	trailing := byte(0)
	for isExprStart(rt.curByte()) {
		v, err := newEvaluator(rt).Eval()
		if err != nil {
			return err
		}
		if v.IsString() {
			if err := writer(string(rt.strings.Bytes(v.Str))); err != nil {
				return newErr(CodeFile)
			}
		} else {
			if err := writer(formatNumber(v.Num)); err != nil {
				return newErr(CodeFile)
			}
		}
		trailing = 0
		switch rt.curByte() {
		case ',':
			rt.advance()
			trailing = ','
			if err := writer("\t"); err != nil {
				return newErr(CodeFile)
			}
		case ';':
			rt.advance()
			trailing = ';'
		default:
		}
		if !isExprStart(rt.curByte()) {
			break
		}
	}
	if trailing == 0 {
		if err := writer("\n"); err != nil {
			return newErr(CodeFile)
		}
	}
	return rt.Stdout.Flush()
}

func execInput(rt *Runtime) error {
	ch := 0
	if rt.curByte() == '#' {
		rt.advance()
		v, err := newEvaluator(rt).Eval()
		if err != nil {
			return err
		}
		ch = int(v.Num)
		if rt.curByte() == ',' {
			rt.advance()
		}
	}
	if rt.curByte() == CodeStrLit {
		rt.advance()
		off := rt.readU16Arg()
		rt.Stdout.WriteString(string(rt.strings.Bytes(off)))
		if rt.curByte() == ';' || rt.curByte() == ',' {
			rt.advance()
		}
	}
	rt.Stdout.Flush()

	for {
		lv, err := rt.parseLvalue()
		if err != nil {
			return err
		}
		line, err := rt.readInputLine(ch)
		if err != nil {
			return err
		}
		if lv.isStr {
			if err := rt.assign(lv, StringValue(mustIntern(rt, line))); err != nil {
				return err
			}
		} else {
			n := parseLeadingNumber([]byte(line))
			if err := rt.assign(lv, NumberValue(n)); err != nil {
				return err
			}
		}
		if rt.curByte() == ',' {
			rt.advance()
			continue
		}
		break
	}
	return nil
}

func execLinput(rt *Runtime) error {
	ch := 0
	if rt.curByte() == '#' {
		rt.advance()
		v, err := newEvaluator(rt).Eval()
		if err != nil {
			return err
		}
		ch = int(v.Num)
		if rt.curByte() == ',' {
			rt.advance()
		}
	}
	lv, err := rt.parseLvalue()
	if err != nil {
		return err
	}
	if !lv.isStr {
		return newErr(CodeStrVar)
	}
	line, err := rt.readInputLine(ch)
	if err != nil {
		return err
	}
	off, err := rt.strings.AddTemp([]byte(line))
	if err != nil {
		return err
	}
	return rt.assign(lv, StringValue(off))
}

func (rt *Runtime) readInputLine(ch int) (string, error) {
	if ch != 0 {
		return rt.channels.ReadLine(ch)
	}
	line, err := rt.Stdin.ReadString('\n')
	if err != nil && line == "" {
		return "", newErr(CodeIllegalInput)
	}
	for len(line) > 0 && (line[len(line)-1] == '\n' || line[len(line)-1] == '\r') {
		line = line[:len(line)-1]
	}
	return line, nil
}

func mustIntern(rt *Runtime, s string) uint16 {
	off, err := rt.strings.AddTemp([]byte(s))
	if err != nil {
		return rt.strings.Empty()
	}
	return off
}

// --- READ / DATA / RESTORE -------------------------------------------------

func execRead(rt *Runtime) error {
	for {
		lv, err := rt.parseLvalue()
		if err != nil {
			return err
		}
		val, err := rt.nextData()
		if err != nil {
			return err
		}
		if err := rt.assign(lv, val); err != nil {
			return err
		}
		if rt.curByte() == ',' {
			rt.advance()
			continue
		}
		break
	}
	return nil
}

func execRestore(rt *Runtime) error {
	if isExprStart(rt.curByte()) {
		v, err := newEvaluator(rt).Eval()
		if err != nil {
			return err
		}
		addr, ok := rt.prog.Find(uint16(v.Num))
		if !ok {
			return newErr(CodeIllegalLineNumber)
		}
		rt.DataIP0, rt.DataIP = addr, NIL
		return nil
	}
	rt.DataIP0, rt.DataIP = NIL, NIL
	return nil
}

// nextData scans forward from the DATA cursor (or the start of the
// program, on first use) for the next comma-separated value in a DATA
// statement's raw payload. rt.DataIP == NIL is the "rescan this line from
// its start looking for a DATA keyword" sentinel; once positioned inside a
// line's payload, DataIP tracks the unconsumed remainder directly.
func (rt *Runtime) nextData() (Value, error) {
	if rt.DataIP0 == NIL {
		rt.DataIP0 = rt.prog.First()
		rt.DataIP = NIL
	}

	for {
		if rt.DataIP0 == NIL {
			return Value{}, newErr(CodeOutOfData)
		}

		if rt.DataIP == NIL {
			ip := rt.prog.TokenStart(rt.DataIP0)
			for rt.ram.ReadU8(ip) != 0 && rt.ram.ReadU8(ip) != kw("DATA") {
				ip++
			}
			if rt.ram.ReadU8(ip) != kw("DATA") {
				rt.DataIP0 = rt.prog.Next(rt.DataIP0)
				continue
			}
			rt.DataIP = ip + 1
		}

		text := rt.ram.ReadCString(rt.DataIP)
		item, rest, ok := parseDataItem(text)
		if !ok {
			rt.DataIP0 = rt.prog.Next(rt.DataIP0)
			rt.DataIP = NIL
			continue
		}
		// item aliases RAM; take a copy before the remainder is shifted over it.
		item = append([]byte(nil), item...)
		copy(rt.ram.Bytes[rt.DataIP:], rest)
		rt.ram.Bytes[rt.DataIP+uint16(len(rest))] = 0

		if len(item) >= 2 && item[0] == '"' && item[len(item)-1] == '"' {
			off, err := rt.strings.AddTemp(item[1 : len(item)-1])
			if err != nil {
				return Value{}, err
			}
			return StringValue(off), nil
		}
		if n, isNum := tryParseDataNumber(item); isNum {
			return NumberValue(n), nil
		}
		off, err := rt.strings.AddTemp(item)
		if err != nil {
			return Value{}, err
		}
		return StringValue(off), nil
	}
}

// tryParseDataNumber parses a DATA item as a plain number, the common case
// for unquoted numeric constants.
func tryParseDataNumber(item []byte) (float32, bool) {
	f, err := strconv.ParseFloat(string(item), 32)
	if err != nil {
		return 0, false
	}
	return float32(f), true
}

// parseDataItem pulls one comma-separated item off the front of a DATA
// line's raw text, returning the trimmed item, the unconsumed remainder
// (without a leading comma), and whether an item was found.
func parseDataItem(text []byte) ([]byte, []byte, bool) {
	i := 0
	for i < len(text) && text[i] == ' ' {
		i++
	}
	if i >= len(text) {
		return nil, nil, false
	}
	j := i
	for j < len(text) && text[j] != ',' {
		j++
	}
	k := j
	for k > i && text[k-1] == ' ' {
		k--
	}
	item := text[i:k]
	rest := text[j:]
	if len(rest) > 0 && rest[0] == ',' {
		rest = rest[1:]
	}
	return item, rest, true
}

// --- CHAIN / LOAD / MERGE / SAVE / LIST -----------------------------------

func execChain(rt *Runtime) error {
	path, err := rt.readFilenameArg()
	if err != nil {
		return err
	}
	if err := rt.loadFile(path, true); err != nil {
		return err
	}
	rt.VariablesReset()
	first := rt.prog.First()
	if first == NIL {
		rt.Halted = true
		return nil
	}
	rt.IP0 = first
	rt.IP = rt.prog.TokenStart(first)
	return nil
}

func execLoad(rt *Runtime) error {
	path, err := rt.readFilenameArg()
	if err != nil {
		return err
	}
	return rt.loadFile(path, true)
}

func execMerge(rt *Runtime) error {
	path, err := rt.readFilenameArg()
	if err != nil {
		return err
	}
	return rt.loadFile(path, false)
}

func (rt *Runtime) readFilenameArg() (string, error) {
	v, err := newEvaluator(rt).Eval()
	if err != nil {
		return "", err
	}
	if !v.IsString() {
		return "", newErr(CodeType)
	}
	return string(rt.strings.Bytes(v.Str)), nil
}

// LoadAndRun loads a source file as a stored program and runs it from the
// first line, the entry point used by the command-line driver when a
// filename is given on startup (spec.md §6.1).
func (rt *Runtime) LoadAndRun(path string) error {
	if err := rt.loadFile(path, true); err != nil {
		return err
	}
	first := rt.prog.First()
	if first == NIL {
		return nil
	}
	rt.IP0 = first
	rt.IP = rt.prog.TokenStart(first)
	return rt.RunProgram()
}

func (rt *Runtime) loadFile(path string, reset bool) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return newErr(CodeFile)
	}
	if reset {
		rt.FullReset()
	}
	for _, line := range splitLines(string(data)) {
		if line == "" {
			continue
		}
		total, err := rt.tok.Tokenize([]byte(line))
		if err != nil {
			return err
		}
		obj := rt.ram.Cur.OBJ
		if rt.ram.ReadU8(obj+1) != CodeIntLit {
			continue // non-numbered source lines are ignored on LOAD/MERGE
		}
		lineNo := rt.ram.ReadU16(obj + 2)
		if err := rt.prog.Insert(lineNo, append([]byte(nil), rt.ram.Bytes[obj:obj+total]...)); err != nil {
			return err
		}
	}
	return nil
}

func splitLines(s string) []string {
	var out []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '\n' {
			line := s[start:i]
			if len(line) > 0 && line[len(line)-1] == '\r' {
				line = line[:len(line)-1]
			}
			out = append(out, line)
			start = i + 1
		}
	}
	if start < len(s) {
		out = append(out, s[start:])
	}
	return out
}

func execSave(rt *Runtime) error {
	path, err := rt.readFilenameArg()
	if err != nil {
		return err
	}
	var out []byte
	for _, addr := range rt.prog.Lines() {
		out = append(out, []byte(rt.detokenizeLine(addr))...)
		out = append(out, '\n')
	}
	if err := os.WriteFile(path, out, 0644); err != nil {
		return newErr(CodeFile)
	}
	return nil
}

func execList(rt *Runtime) error {
	for _, addr := range rt.prog.Lines() {
		fmt.Fprintln(rt.Stdout, rt.detokenizeLine(addr))
	}
	return rt.Stdout.Flush()
}

// detokenizeLine renders a stored line back to BASIC source text, used by
// LIST and SAVE.
func (rt *Runtime) detokenizeLine(addr uint16) string {
	lineNo := rt.prog.lineNumberAt(addr)
	out := strconv.Itoa(int(lineNo)) + " "
	ip := rt.prog.TokenStart(addr)
	for rt.ram.ReadU8(ip) != 0 {
		c := rt.ram.ReadU8(ip)
		switch {
		case c == CodeIntLit:
			ip++
			v := rt.ram.ReadU16(ip)
			ip += 2
			out += strconv.Itoa(int(v)) + " "
		case c == CodeNumLit:
			ip++
			f := rt.ram.ReadF32(ip)
			ip += 4
			out += formatNumber(f) + " "
		case c == CodeStrLit:
			ip++
			off := rt.ram.ReadU16(ip)
			ip += 2
			out += `"` + string(rt.strings.Bytes(off)) + `" `
		case c == CodeIdn || c == CodeIdnS:
			ip++
			off := rt.ram.ReadU16(ip)
			ip += 2
			out += string(rt.strings.Bytes(off)) + " "
		case isKeywordCode(c):
			name := codeKeyword[c]
			ip++
			if name == "DATA" || name == "REM" {
				rest := rt.ram.ReadCString(ip)
				out += name + " " + string(rest) + " "
				ip += uint16(len(rest))
				continue
			}
			out += name + " "
		case isOperatorCode(c):
			out += codeOperator[c] + " "
			ip++
		default:
			out += string(rune(c))
			ip++
		}
	}
	return out
}

// --- OPEN / CLOSE -----------------------------------------------------------

func execOpen(rt *Runtime) error {
	if rt.curByte() != '#' {
		return newErr(CodeHash)
	}
	rt.advance()
	nv, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	if rt.curByte() != ',' {
		return newErr(CodeComma)
	}
	rt.advance()
	pathV, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	if !pathV.IsString() {
		return newErr(CodeType)
	}
	mode := byte('r')
	if rt.curByte() == ',' {
		rt.advance()
		modeV, err := newEvaluator(rt).Eval()
		if err != nil {
			return err
		}
		if !modeV.IsString() {
			return newErr(CodeType)
		}
		m := rt.strings.Bytes(modeV.Str)
		if len(m) > 0 {
			mode = toLowerByte(m[0])
		}
	}
	return rt.channels.Open(int(nv.Num), string(rt.strings.Bytes(pathV.Str)), mode)
}

func toLowerByte(b byte) byte {
	if b >= 'A' && b <= 'Z' {
		return b - 'A' + 'a'
	}
	return b
}

func execClose(rt *Runtime) error {
	if rt.curByte() != '#' {
		return newErr(CodeHash)
	}
	rt.advance()
	v, err := newEvaluator(rt).Eval()
	if err != nil {
		return err
	}
	return rt.channels.Close(int(v.Num))
}

// --- RANDOMIZE / SYS / TRACE -----------------------------------------------

func execRandomize(rt *Runtime) error {
	if isExprStart(rt.curByte()) {
		v, err := newEvaluator(rt).Eval()
		if err != nil {
			return err
		}
		rt.rng = rand.New(rand.NewSource(int64(v.Num)))
		return nil
	}
	rt.rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	return nil
}

// execSys is a deliberate no-op: the original dialect's SYS poked memory-
// mapped hardware ports that have no counterpart in this simulated
// environment, and shelling out to the host OS from BASIC source is out of
// scope on security grounds. The argument is still evaluated so well-formed
// programs don't fail to parse.
func execSys(rt *Runtime) error {
	if isExprStart(rt.curByte()) {
		_, err := newEvaluator(rt).Eval()
		return err
	}
	return nil
}

func execTrace(rt *Runtime) error {
	if isExprStart(rt.curByte()) {
		v, err := newEvaluator(rt).Eval()
		if err != nil {
			return err
		}
		rt.TraceOn = v.Num != 0
		return nil
	}
	rt.TraceOn = true
	return nil
}
