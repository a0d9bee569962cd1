package interp

// Component J: control flow — GOTO/GOSUB/RETURN via a return stack,
// FOR/NEXT loop state, ON computed jumps, DEF FN resolution by program
// rescan, and the ON ERROR catch-frame (spec.md §4.J).

const retFrameBytes = 4 // ip0(u16) + ip(u16)

// pushReturn saves a resume point onto the return stack (GOSUB).
func (rt *Runtime) pushReturn(ip0, ip uint16) error {
	c := &rt.ram.Cur
	if c.RSP+retFrameBytes > c.OBJ {
		return newErr(CodeTooManyGosub)
	}
	rt.ram.WriteU16(c.RSP, ip0)
	rt.ram.WriteU16(c.RSP+2, ip)
	c.RSP += retFrameBytes
	return nil
}

// popReturn restores the most recently saved resume point (RETURN).
func (rt *Runtime) popReturn() (ip0, ip uint16, err error) {
	c := &rt.ram.Cur
	if c.RSP < c.RSP0+retFrameBytes {
		return 0, 0, newErr(CodeReturn)
	}
	c.RSP -= retFrameBytes
	return rt.ram.ReadU16(c.RSP), rt.ram.ReadU16(c.RSP + 2), nil
}

// gotoLine repositions IP0/IP at the start of lineNo's statements.
func (rt *Runtime) gotoLine(lineNo uint16) error {
	addr, ok := rt.prog.Find(lineNo)
	if !ok {
		return newErr(CodeIllegalLineNumber)
	}
	rt.IP0 = addr
	rt.IP = rt.prog.TokenStart(addr)
	return nil
}

// doGosub saves the statement following the GOSUB (already parsed past the
// target line number, so rt.IP0/rt.IP are the resume point) and jumps.
func (rt *Runtime) doGosub(lineNo uint16) error {
	if err := rt.pushReturn(rt.IP0, rt.IP); err != nil {
		return err
	}
	if err := rt.gotoLine(lineNo); err != nil {
		rt.popReturn()
		return err
	}
	return nil
}

func (rt *Runtime) doReturn() error {
	ip0, ip, err := rt.popReturn()
	if err != nil {
		return err
	}
	rt.IP0, rt.IP = ip0, ip
	return nil
}

// doForInit creates (or overwrites) a FOR record for nameOff and records the
// loop body's entry point as its resume point, per spec.md §4.D's FOR
// record layout (ForState.LineStart/ResumeIP).
func (rt *Runtime) doForInit(nameOff uint16, start, bound, step float32) error {
	addr, exists := rt.vars.Find(nameOff)
	if exists {
		if rt.ram.ReadU8(addr+4) != TypeFor {
			return newErr(CodeForVar)
		}
	} else {
		var err error
		addr, err = rt.vars.Create(nameOff, TypeFor)
		if err != nil {
			return err
		}
	}
	return rt.vars.WriteFor(addr, ForState{
		Value: start, Bound: bound, Step: step,
		LineStart: rt.IP0, ResumeIP: rt.IP,
	})
}

// doNext advances nameOff's loop variable; if the loop continues, jumps back
// to its resume point, otherwise falls through (caller leaves IP where it
// is, past the NEXT statement).
func (rt *Runtime) doNext(nameOff uint16) (bool, error) {
	addr, exists := rt.vars.Find(nameOff)
	if !exists {
		return false, newErr(CodeForVar)
	}
	done, err := rt.vars.Advance(addr)
	if err != nil {
		return false, err
	}
	if done {
		return false, nil
	}
	s, err := rt.vars.ReadFor(addr)
	if err != nil {
		return false, err
	}
	rt.IP0, rt.IP = s.LineStart, s.ResumeIP
	return true, nil
}

// tokenWidth reports the byte width of the token at ip, including its
// keyword/operator/literal code byte, mirroring detokenizeLine's switch.
func (rt *Runtime) tokenWidth(ip uint16) uint16 {
	c := rt.ram.ReadU8(ip)
	switch {
	case c == CodeIntLit:
		return 3
	case c == CodeNumLit:
		return 5
	case c == CodeStrLit:
		return 3
	case c == CodeIdn || c == CodeIdnS:
		return 3
	case isKeywordCode(c):
		name := codeKeyword[c]
		if name == "DATA" || name == "REM" {
			return 1 + rt.ram.CStringLen(ip+1)
		}
		return 1
	default:
		return 1
	}
}

// scanForMatchingNext forward-scans the token stream from the current
// IP0/IP, across stored lines, for a "NEXT nameOff" statement, repositioning
// IP0/IP just past it when found (spec.md §4.I: "If the termination
// condition already holds, forward-scan for the matching NEXT var and skip
// past it; unmatched => FOR_WITHOUT_NEXT").
func (rt *Runtime) scanForMatchingNext(nameOff uint16) error {
	addr, ip := rt.IP0, rt.IP
	for {
		for rt.ram.ReadU8(ip) == 0 {
			next := rt.prog.Next(addr)
			if next == NIL {
				return newErr(CodeForWithoutNext)
			}
			addr = next
			ip = rt.prog.TokenStart(addr)
		}
		c := rt.ram.ReadU8(ip)
		if c == kw("NEXT") {
			arg := ip + 1
			if rt.ram.ReadU8(arg) == CodeIdn && rt.ram.ReadU16(arg+1) == nameOff {
				rt.IP0, rt.IP = addr, arg+3
				return nil
			}
		}
		ip += rt.tokenWidth(ip)
	}
}

// onTarget resolves ON expr GOTO/GOSUB's n-th line number (1-based),
// reporting false when n is out of range (execOn then raises ON).
func onTarget(n int, targets []uint16) (uint16, bool) {
	if n < 1 || n > len(targets) {
		return 0, false
	}
	return targets[n-1], true
}

// trap implements the ON ERROR catch-frame: a *BasicError propagating out
// of stepStatement is either routed to the armed handler line (consuming
// the arming, as classic ON ERROR GOTO does) or left to propagate.
func (rt *Runtime) trap(err error) bool {
	be, ok := err.(*BasicError)
	if !ok {
		return false
	}
	rt.LastErrCode = be.Code
	if rt.ErrHandlerLine == NIL {
		return false
	}
	target := rt.ErrHandlerLine
	rt.ErrHandlerLine = NIL
	if gotoErr := rt.gotoLine(target); gotoErr != nil {
		return false
	}
	return true
}

// callDefFn resolves a DEF FN call by rescanning the program for
// "DEF FNname(param) = expr", binding param to arg for the duration of the
// evaluation and restoring its prior value afterward (spec.md §4.J.5).
func (rt *Runtime) callDefFn(nameOff uint16, arg Value) (Value, error) {
	savedIP0, savedIP := rt.IP0, rt.IP
	defer func() { rt.IP0, rt.IP = savedIP0, savedIP }()

	for _, addr := range rt.prog.Lines() {
		ip := rt.prog.TokenStart(addr)
		if rt.ram.ReadU8(ip) != kw("DEF") {
			continue
		}
		ip++
		if rt.ram.ReadU8(ip) != CodeIdn && rt.ram.ReadU8(ip) != CodeIdnS {
			return Value{}, newErr(CodeSyntax)
		}
		ip++
		fnName := rt.ram.ReadU16(ip)
		ip += 2
		if fnName != nameOff {
			continue
		}
		if rt.ram.ReadU8(ip) != '(' {
			return Value{}, newErr(CodeSyntax)
		}
		ip++
		if rt.ram.ReadU8(ip) != CodeIdn && rt.ram.ReadU8(ip) != CodeIdnS {
			return Value{}, newErr(CodeSyntax)
		}
		paramTag := TypeNum
		if rt.ram.ReadU8(ip) == CodeIdnS {
			paramTag = TypeStr
		}
		ip++
		paramOff := rt.ram.ReadU16(ip)
		ip += 2
		if rt.ram.ReadU8(ip) != ')' {
			return Value{}, newErr(CodeSyntax)
		}
		ip++
		if rt.ram.ReadU8(ip) != op("=") {
			return Value{}, newErr(CodeSyntax)
		}
		ip++

		paramAddr, existed := rt.vars.Find(paramOff)
		var savedNum float32
		var savedStr []byte
		if existed {
			if paramTag == TypeNum {
				savedNum, _ = rt.vars.NumScalar(paramAddr)
			} else {
				savedStr, _ = rt.vars.StrScalar(paramAddr)
			}
		} else {
			var err error
			paramAddr, err = rt.vars.Create(paramOff, paramTag)
			if err != nil {
				return Value{}, err
			}
		}
		if paramTag == TypeNum {
			rt.vars.SetNumScalar(paramAddr, arg.Num)
		} else {
			rt.vars.SetStrScalar(paramAddr, rt.strings.Bytes(arg.Str))
		}

		rt.IP0, rt.IP = addr, ip
		result, err := newEvaluator(rt).Eval()

		if existed {
			if paramTag == TypeNum {
				rt.vars.SetNumScalar(paramAddr, savedNum)
			} else {
				rt.vars.SetStrScalar(paramAddr, savedStr)
			}
		}
		return result, err
	}
	return Value{}, newErr(CodeUndefinedVariable)
}
