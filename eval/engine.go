package eval

import (
	"strings"

	"github.com/justina-lang/justina/parser"
	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
)

// FunctionCaller invokes a user-defined (external) function's body, per
// spec.md §4.4 "Function call": the flow package's call-stack engine
// implements this, binding args into a fresh vars.Frame and running the
// function to its `return`/falling off `end`.
type FunctionCaller interface {
	Call(funcIndex int, args []vars.Value) (vars.Value, error)
}

// Evaluator walks a token.Buffer expression and applies operators per
// terminals.go's priority/associativity/coercion flags (spec.md §4.3). It
// holds no per-expression state itself — VarAccess and FunctionCaller are
// supplied by the caller (the flow package) per call, since they depend on
// which function's frame is currently active.
type Evaluator struct {
	Heap      *vars.HeapRegistry
	Acc       *vars.Accounting
	Builtins  *BuiltinTable
	Functions FunctionArity
	Caller    FunctionCaller
	Last      *LastResults
}

// NewEvaluator builds an Evaluator. heap must be the same registry the
// parser used to register Constant-string and GenericName handles, so
// runtime token decoding resolves to the same owned strings.
func NewEvaluator(heap *vars.HeapRegistry, acc *vars.Accounting, builtins *BuiltinTable, functions FunctionArity, caller FunctionCaller, last *LastResults) *Evaluator {
	return &Evaluator{Heap: heap, Acc: acc, Builtins: builtins, Functions: functions, Caller: caller, Last: last}
}

// operand is one evaluation-stack level: its value, whether it is
// assignable (spec.md §4.3 "Assignability"), and (for string values) whether
// this Evaluator call chain owns it and must free it if it's discarded
// unpropagated.
type operand struct {
	Value      vars.Value
	Owned      bool
	Assignable bool
	Scope      token.Scope
	ValueIdx   int
}

func (o operand) release() {
	if o.Owned && o.Value.Kind == vars.KindString {
		o.Value.Str.Free()
	}
}

// EvalExpr evaluates one expression starting at start, returning its value
// and the Step immediately past it. Ownership of any intermediate string
// the result carries passes to the caller, who must either store it (via
// va.Set, which takes ownership) or call eval.ReleaseResult.
func (e *Evaluator) EvalExpr(buf *token.Buffer, start token.Step, va VarAccess) (vars.Value, token.Step, *Error) {
	o, next, err := e.evalBinary(buf, start, va, 1)
	if err != nil {
		return vars.Value{}, next, err
	}
	if e.Last != nil {
		e.Last.Push(o.Value)
	}
	return o.Value, next, nil
}

// ReleaseResult frees v if it is a string produced by EvalExpr
// and not kept anywhere (e.g. a top-level expression statement's discarded
// result, spec.md §7 "free all intermediate strings currently referenced
// ONLY by the evaluation stack"). Safe to call on any Value; values owned
// by a variable or constant token must NOT be passed here.
func ReleaseResult(v vars.Value) {
	if v.Kind == vars.KindString {
		v.Str.Free()
	}
}

// PeekStructural reports whether the token at step is the `to` or `step`
// structural keyword terminal (spec.md §4.4's `for` parsing), without
// consuming it. Used by the flow package to walk a `for` command's
// control/final/step sub-expressions, which parser.go emits as one
// continuous token run rather than as separate statements.
func (e *Evaluator) PeekStructural(buf *token.Buffer, step token.Step) (text string, next token.Step, ok bool) {
	if buf.IsSemicolon(step) || buf.IsEndOfProgram(step) {
		return "", step, false
	}
	tok, after, derr := buf.Read(step)
	if derr != nil || tok.Kind != token.KindTerminal {
		return "", step, false
	}
	entry, found := parser.TerminalByIndex(tok.TermGroup, tok.TermIndex)
	if !found || (entry.Text != "to" && entry.Text != "step") {
		return "", step, false
	}
	return entry.Text, after, true
}

// evalBinary implements spec.md §4.3's evaluation contract via precedence
// climbing: the primary/unary operand is read first, then infix operators
// at or above minPrio are consumed and applied left-to-right (or, for
// right-associative operators, right-to-left via a same-priority recursive
// call).
func (e *Evaluator) evalBinary(buf *token.Buffer, step token.Step, va VarAccess, minPrio int) (operand, token.Step, *Error) {
	lhs, next, err := e.evalUnary(buf, step, va)
	if err != nil {
		return operand{}, next, err
	}

	for {
		if buf.IsSemicolon(next) || buf.IsEndOfProgram(next) {
			return lhs, next, nil
		}
		tok, after, derr := buf.Read(next)
		if derr != nil || tok.Kind != token.KindTerminal {
			return lhs, next, nil
		}
		entry, ok := parser.TerminalByIndex(tok.TermGroup, tok.TermIndex)
		if !ok || entry.Text == "to" || entry.Text == "step" {
			return lhs, next, nil
		}
		prio := entry.Flags.InfixPriority
		if prio == 0 || prio < minPrio {
			return lhs, next, nil
		}

		isAssign := isAssignmentOp(entry.Text)
		nextMinPrio := prio + 1
		if entry.Flags.OpRtoL {
			nextMinPrio = prio
		}

		rhs, after2, rerr := e.evalBinary(buf, after, va, nextMinPrio)
		if rerr != nil {
			lhs.release()
			return operand{}, after2, rerr
		}
		next = after2

		if isAssign {
			if !lhs.Assignable {
				rhs.release()
				return operand{}, next, NewError(ErrNotAssignable, "left side of "+entry.Text+" is not assignable")
			}
			newVal, owned, aerr := applyAssignment(entry.Text, lhs.Value, rhs, e.Acc)
			if aerr != nil {
				rhs.release()
				return operand{}, next, aerr
			}
			if serr := va.Set(lhs.Scope, lhs.ValueIdx, newVal); serr != nil {
				return operand{}, next, NewError(ErrOther, serr.Error())
			}
			lhs = operand{Value: newVal, Owned: owned, Assignable: true, Scope: lhs.Scope, ValueIdx: lhs.ValueIdx}
			continue
		}

		val, aerr := applyArithInfix(entry.Text, entry.Flags.OpLong, lhs.Value, rhs.Value, e.Acc)
		resultOwned := aerr == nil && entry.Text == "+" && val.Kind == vars.KindString
		lhs.release()
		rhs.release()
		if aerr != nil {
			return operand{}, next, aerr
		}
		lhs = operand{Value: val, Owned: resultOwned}
	}
}

func isAssignmentOp(text string) bool {
	switch text {
	case "=", "+=", "-=", "*=", "/=", "%=", "&=", "|=", "^=", "<<=", ">>=":
		return true
	default:
		return false
	}
}

// applyAssignment computes the value to store for one assignment operator
// application. For compound operators (+=, etc.) it combines the
// variable's current value with rhs using the corresponding binary
// operator, then, in both cases, takes ownership of the resulting string
// (transferring rhs's owned intermediate directly, or cloning a borrowed
// one) so the assigned variable slot never shares a *vars.HeapString with
// another live reference (spec.md §3.2: "A variable string is owned by the
// variable slot").
func applyAssignment(op string, lhsCurrent vars.Value, rhs operand, acc *vars.Accounting) (vars.Value, bool, *Error) {
	var combined vars.Value
	var combinedOwned bool
	if op == "=" {
		combined, combinedOwned = rhs.Value, rhs.Owned
	} else {
		base := strings.TrimSuffix(op, "=")
		_, _, entry, ok := parser.LookupTerminal(base)
		opLong := ok && entry.Flags.OpLong
		val, err := applyArithInfix(base, opLong, lhsCurrent, rhs.Value, acc)
		if err != nil {
			return vars.Value{}, false, err
		}
		combined = val
		combinedOwned = val.Kind == vars.KindString
		rhs.release()
	}
	return ownForAssignment(combined, combinedOwned, acc), false, nil
}

// ownForAssignment ensures the value about to be written into a variable
// slot owns its own string: an already-owned intermediate is taken as-is,
// a borrowed one (read from another variable or a constant token) is
// cloned.
func ownForAssignment(v vars.Value, owned bool, acc *vars.Accounting) vars.Value {
	if v.Kind != vars.KindString || v.Str == nil {
		return v
	}
	if owned {
		return v
	}
	return vars.StringValue(v.Str.Clone(acc))
}

// evalUnary consumes a run of prefix operators then one primary operand,
// followed by a postfix ++/-- if present (spec.md §4.3: prefix always
// right-to-left via this function's own recursion; postfix always
// left-to-right, applied once here).
func (e *Evaluator) evalUnary(buf *token.Buffer, step token.Step, va VarAccess) (operand, token.Step, *Error) {
	tok, after, derr := buf.Read(step)
	if derr != nil {
		return operand{}, step, NewError(ErrOther, derr.Error())
	}
	if tok.Kind == token.KindTerminal {
		entry, ok := parser.TerminalByIndex(tok.TermGroup, tok.TermIndex)
		if ok && entry.Flags.PrefixPriority > 0 {
			inner, next, err := e.evalUnary(buf, after, va)
			if err != nil {
				return operand{}, next, err
			}
			if entry.Text == "++" || entry.Text == "--" {
				if !inner.Assignable {
					inner.release()
					return operand{}, next, NewError(ErrNotAssignable, entry.Text+": operand is not assignable")
				}
				newVal, perr := applyPrefix(entry.Text, inner.Value)
				if perr != nil {
					return operand{}, next, perr
				}
				if serr := va.Set(inner.Scope, inner.ValueIdx, newVal); serr != nil {
					return operand{}, next, NewError(ErrOther, serr.Error())
				}
				return operand{Value: newVal, Assignable: true, Scope: inner.Scope, ValueIdx: inner.ValueIdx}, next, nil
			}
			newVal, perr := applyPrefix(entry.Text, inner.Value)
			inner.release()
			if perr != nil {
				return operand{}, next, perr
			}
			return operand{Value: newVal}, next, nil
		}
	}
	return e.evalPrimaryAndPostfix(buf, step, va)
}

func (e *Evaluator) evalPrimaryAndPostfix(buf *token.Buffer, step token.Step, va VarAccess) (operand, token.Step, *Error) {
	o, next, err := e.evalPrimary(buf, step, va)
	if err != nil {
		return o, next, err
	}
	if buf.IsSemicolon(next) || buf.IsEndOfProgram(next) {
		return o, next, nil
	}
	tok, after, derr := buf.Read(next)
	if derr != nil || tok.Kind != token.KindTerminal {
		return o, next, nil
	}
	entry, ok := parser.TerminalByIndex(tok.TermGroup, tok.TermIndex)
	if !ok || entry.Flags.PostfixPriority == 0 {
		return o, next, nil
	}
	if !o.Assignable {
		return operand{}, next, NewError(ErrNotAssignable, entry.Text+": operand is not assignable")
	}
	// Postfix returns the PRE-increment value and is not itself assignable
	// (spec.md §4.3).
	newVal, perr := applyPrefix(entry.Text, o.Value)
	if perr != nil {
		return operand{}, next, perr
	}
	if serr := va.Set(o.Scope, o.ValueIdx, newVal); serr != nil {
		return operand{}, next, NewError(ErrOther, serr.Error())
	}
	return operand{Value: o.Value}, after, nil
}

func (e *Evaluator) evalPrimary(buf *token.Buffer, step token.Step, va VarAccess) (operand, token.Step, *Error) {
	tok, next, derr := buf.Read(step)
	if derr != nil {
		return operand{}, step, NewError(ErrOther, derr.Error())
	}

	switch tok.Kind {
	case token.KindConstant:
		switch tok.ValType {
		case token.ValueLong:
			return operand{Value: vars.LongValue(tok.LongVal)}, next, nil
		case token.ValueFloat:
			return operand{Value: vars.FloatValue(tok.FloatVal)}, next, nil
		case token.ValueString:
			hs := e.Heap.Lookup(tok.StrHandle)
			return operand{Value: vars.StringValue(hs)}, next, nil
		default:
			return operand{}, next, NewError(ErrOther, "corrupt constant token")
		}

	case token.KindVariable:
		val, gerr := va.Get(tok.VarScope, int(tok.ValueIndex))
		if gerr != nil {
			return operand{}, next, NewError(ErrOther, gerr.Error())
		}
		if !tok.IsArray {
			return operand{Value: val, Assignable: true, Scope: tok.VarScope, ValueIdx: int(tok.ValueIndex)}, next, nil
		}
		arr, aerr := va.Array(tok.VarScope, int(tok.ValueIndex))
		if aerr != nil {
			return operand{}, next, NewError(ErrOther, aerr.Error())
		}
		return e.evalArraySubscript(buf, next, va, arr, tok.VarScope, int(tok.ValueIndex))

	case token.KindInternalFunc:
		return e.evalInternalCall(buf, next, va, int(tok.FuncIndex))

	case token.KindExternalFunc:
		return e.evalExternalCall(buf, next, va, int(tok.FuncIndex))

	case token.KindGenericName:
		return operand{}, next, NewError(ErrUndefinedFunction, "name does not resolve to a variable, function, or constant")

	default:
		return operand{}, next, NewError(ErrOther, "expression expected")
	}
}

// evalArraySubscript consumes exactly arr.DimCount subscript
// sub-expressions (the parser never encodes an explicit subscript count;
// the array's own declared dimension count supplies it, per the parser
// package's documented design decision) and returns the addressed element.
func (e *Evaluator) evalArraySubscript(buf *token.Buffer, step token.Step, va VarAccess, arr *vars.Array, scope token.Scope, valueIdx int) (operand, token.Step, *Error) {
	subs := make([]int, 0, arr.DimCount)
	next := step
	for i := 0; i < arr.DimCount; i++ {
		sub, after, serr := e.EvalExpr(buf, next, va)
		if serr != nil {
			return operand{}, after, serr
		}
		next = after
		n, ok := wantInt(sub)
		ReleaseResult(sub)
		if !ok {
			return operand{}, next, NewError(ErrArgTypeInvalid, "array subscript must be an integer")
		}
		subs = append(subs, n)
	}
	val, gerr := arr.Get(subs)
	if gerr != nil {
		return operand{}, next, NewError(ErrArraySubscriptOutOfRange, gerr.Error())
	}
	return operand{Value: val, Assignable: false, Scope: scope, ValueIdx: valueIdx}, next, nil
}

// evalInternalCall evaluates a builtin function call's arguments (exactly
// as many as the function's declared arity requires) and dispatches it.
func (e *Evaluator) evalInternalCall(buf *token.Buffer, step token.Step, va VarAccess, funcIdx int) (operand, token.Step, *Error) {
	min, max, aerr := e.Builtins.Arity(funcIdx)
	if aerr != nil {
		return operand{}, step, NewError(ErrUndefinedFunction, aerr.Error())
	}
	args, argOperands, next, err := e.evalArgs(buf, step, va, min, max)
	if err != nil {
		return operand{}, next, err
	}
	ctx := &CallContext{Acc: e.Acc, Last: e.Last}
	result, owned, cerr := e.Builtins.Call(ctx, funcIdx, args)
	releaseArgsExcept(argOperands, result)
	if cerr != nil {
		return operand{}, next, cerr
	}
	return operand{Value: result, Owned: owned}, next, nil
}

// evalExternalCall evaluates a user-defined function call's arguments and
// delegates execution to the flow package via FunctionCaller (spec.md
// §4.4's function-call mechanics live there; the engine only marshals
// argument values across the boundary).
func (e *Evaluator) evalExternalCall(buf *token.Buffer, step token.Step, va VarAccess, funcIdx int) (operand, token.Step, *Error) {
	min, max, aerr := e.Functions.Arity(funcIdx)
	if aerr != nil {
		return operand{}, step, NewError(ErrUndefinedFunction, aerr.Error())
	}
	args, argOperands, next, err := e.evalArgs(buf, step, va, min, max)
	if err != nil {
		return operand{}, next, err
	}
	result, cerr := e.Caller.Call(funcIdx, args)
	releaseArgsExcept(argOperands, result)
	if cerr != nil {
		return operand{}, next, NewError(ErrOther, cerr.Error())
	}
	return operand{Value: result, Owned: result.Kind == vars.KindString}, next, nil
}

// evalArgs evaluates up to max call-argument sub-expressions (stopping
// early once min is met and the following token isn't another argument —
// arguments beyond an absent optional one are simply not present in the
// stream, since the parser never encoded an argument-count token). A bare
// array variable argument (IsArray and not followed by a subscript) is
// passed whole, matching parser.parseCallArg's special case.
func (e *Evaluator) evalArgs(buf *token.Buffer, step token.Step, va VarAccess, min, max int) ([]vars.Value, []operand, token.Step, *Error) {
	var args []vars.Value
	var operands []operand
	next := step
	for len(args) < max {
		if buf.IsSemicolon(next) || buf.IsEndOfProgram(next) {
			break
		}
		tok, after, derr := buf.Read(next)
		if derr != nil {
			break
		}
		if tok.Kind == token.KindVariable && tok.IsArray {
			val, gerr := va.Get(tok.VarScope, int(tok.ValueIndex))
			if gerr != nil {
				return nil, nil, next, NewError(ErrOther, gerr.Error())
			}
			o := operand{Value: val, Assignable: true, Scope: tok.VarScope, ValueIdx: int(tok.ValueIndex)}
			args = append(args, val)
			operands = append(operands, o)
			next = after
			continue
		}
		o, after2, aerr := e.evalBinary(buf, next, va, 1)
		if aerr != nil {
			for _, prev := range operands {
				prev.release()
			}
			return nil, nil, after2, aerr
		}
		args = append(args, o.Value)
		operands = append(operands, o)
		next = after2
	}
	if len(args) < min {
		return nil, nil, next, NewError(ErrArgCountOutOfRange, "too few arguments")
	}
	return args, operands, next, nil
}

func releaseArgsExcept(operands []operand, result vars.Value) {
	for _, o := range operands {
		if result.Kind == vars.KindString && o.Value.Kind == vars.KindString && o.Value.Str == result.Str {
			continue
		}
		o.release()
	}
}
