package interp

// Evaluator implements the operator-precedence expression engine (Component
// G, spec.md §4.G): a recursive-descent driver over a flat operator stack,
// with prefix/operand/postfix/infix phases and an explicit "unroll" step
// that applies queued operator routines against the value stack.
//
// The operator stack is a plain Go slice rather than RAM-backed (unlike the
// value stack): expression nesting depth is bounded by source line length,
// not by the 64 KiB budget, so there's nothing to gain by carving out a
// fixed region for it.
type Evaluator struct {
	rt      *Runtime
	opStack []opStackEntry
}

type opStackEntry struct {
	sentinel bool
	priority int
	argc     int
	fn       func(ev *Evaluator, argc int) error
}

func newEvaluator(rt *Runtime) *Evaluator { return &Evaluator{rt: rt} }

// Eval parses and evaluates one expression starting at rt.IP, leaving IP
// just past the last token it consumed, and returns the resulting value.
func (ev *Evaluator) Eval() (Value, error) {
	if err := ev.expr(); err != nil {
		return Value{}, err
	}
	return ev.rt.stack.Pop()
}

// expr evaluates one expression onto the value stack without popping it,
// per spec.md §4.G.2's outer loop: push sentinel, prefix phase, then
// (infix operator, prefix phase)* until no infix operator follows, final
// unroll to priority 1.
func (ev *Evaluator) expr() error {
	ev.opStack = append(ev.opStack, opStackEntry{sentinel: true})
	if err := ev.prefixPhase(); err != nil {
		return err
	}
	for {
		c := ev.rt.curByte()
		spec, ok := operatorTable()[c]
		if !ok || spec.Infix == nil {
			break
		}
		r := spec.Infix
		limit := r.Priority
		if spec.Name == "^" {
			// Right-associative: don't unroll an equal-priority "^" already
			// queued, so "2^3^2" binds as 2^(3^2).
			limit++
		}
		if err := ev.unroll(limit); err != nil {
			return err
		}
		ev.opStack = append(ev.opStack, opStackEntry{priority: r.Priority, argc: 2, fn: r.Fn})
		ev.rt.advance()
		if err := ev.prefixPhase(); err != nil {
			return err
		}
	}
	if err := ev.unroll(1); err != nil {
		return err
	}
	ev.opStack = ev.opStack[:len(ev.opStack)-1] // drop this level's sentinel
	return nil
}

// unroll pops and applies queued operator routines whose priority is at
// least limit, stopping at this expression level's sentinel.
func (ev *Evaluator) unroll(limit int) error {
	for {
		top := ev.opStack[len(ev.opStack)-1]
		if top.sentinel || top.priority < limit {
			return nil
		}
		ev.opStack = ev.opStack[:len(ev.opStack)-1]
		if err := top.fn(ev, top.argc); err != nil {
			return err
		}
	}
}

// prefixPhase consumes zero or more prefix operators (queuing each for
// later application) and then exactly one operand.
func (ev *Evaluator) prefixPhase() error {
	for {
		c := ev.rt.curByte()
		spec, ok := operatorTable()[c]
		if !ok || spec.Prefix == nil {
			break
		}
		r := spec.Prefix
		ev.rt.advance()

		switch {
		case r.MinArity == 0:
			// Arity 0: invoke immediately, its result *is* the operand.
			return ev.afterOperand(r.Fn(ev, 0))

		case r.MinArity == r.MaxArity && r.MinArity == 1:
			// True unary prefix: queue it, loop back for its operand.
			ev.opStack = append(ev.opStack, opStackEntry{priority: r.Priority, argc: 1, fn: r.Fn})
			continue

		default:
			// Arity >= 2 (or variable, e.g. MID$): parenthesized argument list
			// evaluated eagerly; the call itself is queued like any operator.
			argc, err := ev.parseArgList(r.MinArity, r.MaxArity)
			if err != nil {
				return err
			}
			ev.opStack = append(ev.opStack, opStackEntry{priority: r.Priority, argc: argc, fn: r.Fn})
			return nil
		}
	}
	return ev.operandPhase()
}

// parseArgList parses "(" expr ("," expr)* ")" with between min and max
// comma-separated subexpressions, each evaluated onto the value stack.
func (ev *Evaluator) parseArgList(min, max int) (int, error) {
	if ev.rt.curByte() != '(' {
		return 0, newErr(CodeSyntax)
	}
	ev.rt.advance()
	argc := 0
	for {
		if err := ev.expr(); err != nil {
			return 0, err
		}
		argc++
		if ev.rt.curByte() == ',' {
			if argc >= max {
				return 0, newErr(CodeComma)
			}
			ev.rt.advance()
			continue
		}
		break
	}
	if argc < min {
		return 0, newErr(CodeComma)
	}
	if ev.rt.curByte() != ')' {
		return 0, newErr(CodeClosedPar)
	}
	ev.rt.advance()
	return argc, nil
}

// operandPhase reads a single literal, variable reference, or parenthesized
// subexpression, pushing exactly one value, then runs the postfix phase.
func (ev *Evaluator) operandPhase() error {
	c := ev.rt.curByte()
	switch c {
	case '(':
		ev.rt.advance()
		if err := ev.expr(); err != nil {
			return err
		}
		if ev.rt.curByte() != ')' {
			return newErr(CodeClosedPar)
		}
		ev.rt.advance()
		return ev.postfixPhase()

	case CodeIntLit:
		ev.rt.advance()
		v := ev.rt.readU16Arg()
		return ev.afterOperand(ev.rt.stack.Push(NumberValue(float32(v))))

	case CodeNumLit:
		ev.rt.advance()
		f := ev.rt.readF32Arg()
		return ev.afterOperand(ev.rt.stack.Push(NumberValue(f)))

	case CodeStrLit:
		ev.rt.advance()
		off := ev.rt.readU16Arg()
		return ev.afterOperand(ev.rt.stack.Push(StringValue(off)))

	case CodeIdn, CodeIdnS:
		ev.rt.advance()
		return ev.operandIdentifier()

	default:
		return newErr(CodeSyntax)
	}
}

// afterOperand folds an error-returning push into a call to postfixPhase,
// small helper to avoid repeating the same two lines at every literal case.
func (ev *Evaluator) afterOperand(pushErr error) error {
	if pushErr != nil {
		return pushErr
	}
	return ev.postfixPhase()
}

// operandIdentifier resolves a variable reference: a scalar, an array
// element (subscripted form), or — if no such variable exists and the name
// has the "FN" prefix — a user-defined function call (spec.md §4.J.5).
func (ev *Evaluator) operandIdentifier() error {
	nameOff := ev.rt.readU16Arg()
	addr, exists := ev.rt.vars.Find(nameOff)

	if exists && ev.rt.curByte() == '(' && ev.rt.vars.recTag(addr)&(TypeVec|TypeMat) != 0 {
		ev.rt.advance()
		subs, err := ev.parseSubscripts()
		if err != nil {
			return err
		}
		if ev.rt.curByte() != ')' {
			return newErr(CodeClosedPar)
		}
		ev.rt.advance()
		slot, err := ev.rt.vars.ElementAddress(addr, subs)
		if err != nil {
			return err
		}
		if ev.rt.vars.recTag(addr)&TypeStr != 0 {
			return ev.pushTempString(ev.rt.ram.ReadCString(slot))
		}
		return ev.rt.stack.Push(NumberValue(ev.rt.ram.ReadF32(slot)))
	}

	if exists {
		tag := ev.rt.vars.recTag(addr)
		if tag == TypeStr {
			s, err := ev.rt.vars.StrScalar(addr)
			if err != nil {
				return err
			}
			return ev.afterOperand(ev.pushTempStringNoPostfixGuard(s))
		}
		if tag == TypeNum {
			n, err := ev.rt.vars.NumScalar(addr)
			if err != nil {
				return err
			}
			return ev.afterOperand(ev.rt.stack.Push(NumberValue(n)))
		}
		if tag == TypeFor {
			s, err := ev.rt.vars.ReadFor(addr)
			if err != nil {
				return err
			}
			return ev.afterOperand(ev.rt.stack.Push(NumberValue(s.Value)))
		}
		return newErr(CodeType)
	}

	name := ev.rt.strings.Bytes(nameOff)
	if ev.rt.curByte() == '(' && len(name) >= 3 && name[0] == 'F' && name[1] == 'N' {
		ev.rt.advance()
		if err := ev.expr(); err != nil {
			return err
		}
		arg, err := ev.rt.stack.Pop()
		if err != nil {
			return err
		}
		if ev.rt.curByte() != ')' {
			return newErr(CodeClosedPar)
		}
		ev.rt.advance()
		v, err := ev.rt.callDefFn(nameOff, arg)
		if err != nil {
			return err
		}
		return ev.afterOperand(ev.rt.stack.Push(v))
	}

	return newErr(CodeUndefinedVariable)
}

// pushTempStringNoPostfixGuard pushes a scalar string's value as a temp
// string without itself invoking postfixPhase — the caller runs that via
// afterOperand so a trailing "(i TO j)" slice can still apply to a plain
// string scalar (as opposed to an array element, which already consumed
// its own parens as a subscript).
func (ev *Evaluator) pushTempStringNoPostfixGuard(s []byte) error {
	off, err := ev.rt.strings.AddTemp(s)
	if err != nil {
		return err
	}
	return ev.rt.stack.Push(StringValue(off))
}

// parseSubscripts parses one or two comma-separated integer subexpressions
// (VEC or MAT indices) without consuming the closing ")".
func (ev *Evaluator) parseSubscripts() ([]int, error) {
	var subs []int
	for {
		if err := ev.expr(); err != nil {
			return nil, err
		}
		n, err := ev.rt.stack.PopNum()
		if err != nil {
			return nil, err
		}
		subs = append(subs, int(n))
		if ev.rt.curByte() == ',' {
			ev.rt.advance()
			continue
		}
		break
	}
	return subs, nil
}

// postfixPhase lowers a trailing "(" [expr] ["TO" [expr]] ")" applied
// directly to a string-valued operand into a SUB$ call (spec.md §4.G.2
// "postfix phase: string-slice lowering"). A bare "(i)" slices a single
// character (i TO i). A missing i defaults to 1; a missing j defaults to
// the length of the string (spec.md §4.G.2(c)).
func (ev *Evaluator) postfixPhase() error {
	top, err := ev.rt.stack.Top()
	if err != nil {
		return err
	}
	if !top.IsString() || ev.rt.curByte() != '(' {
		return nil
	}
	ev.rt.advance()

	if ev.rt.curByte() == kw("TO") {
		if err := ev.rt.stack.Push(NumberValue(1)); err != nil {
			return err
		}
	} else if err := ev.expr(); err != nil {
		return err
	}

	if ev.rt.curByte() == kw("TO") {
		ev.rt.advance()
		if ev.rt.curByte() == ')' {
			strLen := len(ev.rt.strings.Bytes(top.Str))
			if err := ev.rt.stack.Push(NumberValue(float32(strLen))); err != nil {
				return err
			}
		} else if err := ev.expr(); err != nil {
			return err
		}
	} else {
		iv, err := ev.rt.stack.Top()
		if err != nil {
			return err
		}
		if err := ev.rt.stack.Push(iv); err != nil {
			return err
		}
	}
	if ev.rt.curByte() != ')' {
		return newErr(CodeClosedPar)
	}
	ev.rt.advance()
	spec := operatorTable()[op("SUB$")]
	return spec.Prefix.Fn(ev, 3)
}

// pushTempString interns s into the temp-string tail and pushes its offset.
func (ev *Evaluator) pushTempString(s []byte) error {
	off, err := ev.rt.strings.AddTemp(s)
	if err != nil {
		return err
	}
	return ev.rt.stack.Push(StringValue(off))
}
