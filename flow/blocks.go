package flow

import (
	"fmt"

	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/parser"
	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
)

// execBlockStart processes a `program`/`function`/`if`/`while`/`for` token
// reached by normal sequential execution (never one entered directly via
// FunctionRegistry.Call, which seeds its own boundary frame and jumps
// straight past this token to the body — see runBody).
func (e *Engine) execBlockStart(name string, spec parser.CommandSpec, tok token.Token, next token.Step, va eval.VarAccess, stack *[]blockFrame) (token.Step, error) {
	switch spec.BlockKind {
	case "program":
		*stack = append(*stack, blockFrame{kind: "program"})
		return next, nil

	case "function":
		// Never run a function body by falling into it; only Call does
		// that, via its own seeded boundary frame. Here we just skip over
		// the whole definition.
		if !tok.HasJump {
			return next, fmt.Errorf("flow: function token missing jump target")
		}
		*stack = append(*stack, blockFrame{kind: "function"})
		return skipPastEnd(tok.JumpStep), nil

	case "if":
		val, after, eerr := e.Eval.EvalExpr(e.Buf, next, va)
		if eerr != nil {
			return next, eerr
		}
		eval.ReleaseResult(val)
		bodyStart, serr := e.expectSemicolon(after)
		if serr != nil {
			return next, serr
		}
		frame := blockFrame{kind: "if"}
		if truthy(val) {
			frame.branchTaken = true
			*stack = append(*stack, frame)
			return bodyStart, nil
		}
		*stack = append(*stack, frame)
		if !tok.HasJump {
			return next, fmt.Errorf("flow: if token missing jump target")
		}
		return tok.JumpStep, nil

	case "while":
		if !tok.HasJump {
			return next, fmt.Errorf("flow: while token missing jump target")
		}
		frame := blockFrame{kind: "while", condStep: next, bodyStart: 0, endStep: tok.JumpStep}
		val, after, eerr := e.Eval.EvalExpr(e.Buf, next, va)
		if eerr != nil {
			return next, eerr
		}
		eval.ReleaseResult(val)
		bodyStart, serr := e.expectSemicolon(after)
		if serr != nil {
			return next, serr
		}
		frame.bodyStart = bodyStart
		if truthy(val) {
			frame.entered = true
			*stack = append(*stack, frame)
			return bodyStart, nil
		}
		*stack = append(*stack, frame)
		return tok.JumpStep, nil

	case "for":
		if !tok.HasJump {
			return next, fmt.Errorf("flow: for token missing jump target")
		}
		return e.execForStart(tok, next, va, stack)

	default:
		return next, fmt.Errorf("flow: unknown block-start kind %q", spec.BlockKind)
	}
}

// execForStart evaluates a `for`'s header (control-variable assignment,
// `to` final value, optional `step`) and performs the loop's initial bound
// test (spec.md §4.4 "for" / §8 property 7).
func (e *Engine) execForStart(tok token.Token, ctrlStep token.Step, va eval.VarAccess, stack *[]blockFrame) (token.Step, error) {
	ctrlTok, _, derr := e.Buf.Read(ctrlStep)
	if derr != nil {
		return ctrlStep, fmt.Errorf("flow: %w", derr)
	}
	if ctrlTok.Kind != token.KindVariable || ctrlTok.IsArray {
		return ctrlStep, fmt.Errorf("flow: for loop control must be a scalar variable")
	}

	initVal, after, eerr := e.Eval.EvalExpr(e.Buf, ctrlStep, va)
	if eerr != nil {
		return ctrlStep, eerr
	}
	eval.ReleaseResult(initVal)

	text, after2, ok := e.Eval.PeekStructural(e.Buf, after)
	if !ok || text != "to" {
		return ctrlStep, fmt.Errorf("flow: for loop missing 'to'")
	}
	finalVal, after3, eerr := e.Eval.EvalExpr(e.Buf, after2, va)
	if eerr != nil {
		return ctrlStep, eerr
	}
	final := asFloat(finalVal)
	eval.ReleaseResult(finalVal)

	step := 1.0
	after4 := after3
	if text2, after5, ok2 := e.Eval.PeekStructural(e.Buf, after3); ok2 && text2 == "step" {
		stepVal, after6, eerr := e.Eval.EvalExpr(e.Buf, after5, va)
		if eerr != nil {
			return ctrlStep, eerr
		}
		step = asFloat(stepVal)
		eval.ReleaseResult(stepVal)
		after4 = after6
	}

	bodyStart, serr := e.expectSemicolon(after4)
	if serr != nil {
		return ctrlStep, serr
	}

	frame := blockFrame{
		kind:      "for",
		bodyStart: bodyStart,
		endStep:   tok.JumpStep,
		forScope:  ctrlTok.VarScope,
		forValIdx: int(ctrlTok.ValueIndex),
		forFloat:  initVal.Kind == vars.KindFloat,
		forFinal:  final,
		forStep:   step,
	}

	curVal, gerr := va.Get(frame.forScope, frame.forValIdx)
	if gerr != nil {
		return ctrlStep, gerr
	}
	if forContinues(asFloat(curVal), final, step) {
		frame.entered = true
		*stack = append(*stack, frame)
		return bodyStart, nil
	}
	*stack = append(*stack, frame)
	return tok.JumpStep, nil
}

func forContinues(cur, final, step float64) bool {
	if step >= 0 {
		return cur <= final
	}
	return cur >= final
}

// execBlockMiddle processes an `elseif`/`else` token. If the chain's frame
// already took a branch, every subsequent elseif/else is skipped via its
// own jump target without evaluating anything (spec.md §4.4: "the if/
// elseif/else chain runs at most one branch").
func (e *Engine) execBlockMiddle(spec parser.CommandSpec, tok token.Token, next token.Step, va eval.VarAccess, stack *[]blockFrame) (token.Step, error) {
	top, ok := topFrame(*stack, "if")
	if !ok {
		return next, fmt.Errorf("flow: %s with no matching if", spec.Name)
	}

	if top.branchTaken {
		if !tok.HasJump {
			return next, fmt.Errorf("flow: %s token missing jump target", spec.Name)
		}
		return tok.JumpStep, nil
	}

	if spec.Name == "else" {
		top.branchTaken = true
		return next, nil
	}

	// elseif
	val, after, eerr := e.Eval.EvalExpr(e.Buf, next, va)
	if eerr != nil {
		return next, eerr
	}
	eval.ReleaseResult(val)
	bodyStart, serr := e.expectSemicolon(after)
	if serr != nil {
		return next, serr
	}
	if truthy(val) {
		top.branchTaken = true
		return bodyStart, nil
	}
	if !tok.HasJump {
		return next, fmt.Errorf("flow: elseif token missing jump target")
	}
	return tok.JumpStep, nil
}

// execBlockEnd processes an `end` token: boundary frames stop Run
// (FunctionRegistry.Call's seeded entry), while/for frames retest and
// possibly loop back, and every other kind simply pops and continues.
func (e *Engine) execBlockEnd(next token.Step, va eval.VarAccess, stack *[]blockFrame) (pc token.Step, stop bool, err error) {
	if len(*stack) == 0 {
		return next, false, fmt.Errorf("flow: end with no open block")
	}
	top := (*stack)[len(*stack)-1]

	if top.isBoundary {
		*stack = (*stack)[:len(*stack)-1]
		return next, true, nil
	}

	switch top.kind {
	case "program", "function", "if":
		*stack = (*stack)[:len(*stack)-1]
		return next, false, nil

	case "while":
		return e.execWhileEnd(top, next, va, stack)

	case "for":
		return e.execForEnd(top, next, va, stack)

	default:
		return next, false, fmt.Errorf("flow: end on unknown block kind %q", top.kind)
	}
}

// execWhileEnd re-tests a while loop's condition (entered==false means it
// was skipped outright at `while` and must simply be popped, never
// retested — this is what makes a zero-iteration while safe).
func (e *Engine) execWhileEnd(top blockFrame, next token.Step, va eval.VarAccess, stack *[]blockFrame) (token.Step, bool, error) {
	if !top.entered {
		*stack = (*stack)[:len(*stack)-1]
		return next, false, nil
	}
	val, _, eerr := e.Eval.EvalExpr(e.Buf, top.condStep, va)
	if eerr != nil {
		return next, false, eerr
	}
	eval.ReleaseResult(val)
	if truthy(val) {
		return top.bodyStart, false, nil
	}
	*stack = (*stack)[:len(*stack)-1]
	return next, false, nil
}

// execForEnd increments the control variable and re-tests the bound
// (entered==false means the initial test already failed at `for` and the
// loop never ran; pop without mutating anything further).
func (e *Engine) execForEnd(top blockFrame, next token.Step, va eval.VarAccess, stack *[]blockFrame) (token.Step, bool, error) {
	if !top.entered {
		*stack = (*stack)[:len(*stack)-1]
		return next, false, nil
	}
	cur, gerr := va.Get(top.forScope, top.forValIdx)
	if gerr != nil {
		return next, false, gerr
	}
	next64 := asFloat(cur) + top.forStep
	var newVal vars.Value
	if top.forFloat {
		newVal = vars.FloatValue(float32(next64))
	} else {
		newVal = vars.LongValue(int32(next64))
	}
	if serr := va.Set(top.forScope, top.forValIdx, newVal); serr != nil {
		return next, false, serr
	}
	if forContinues(next64, top.forFinal, top.forStep) {
		return top.bodyStart, false, nil
	}
	*stack = (*stack)[:len(*stack)-1]
	return next, false, nil
}

// execBreakLike implements `break`/`continue` against the runtime block
// stack (spec.md §4.4): break pops frames through the nearest loop and
// resumes past its `end`; continue leaves the frame in place and resumes
// AT its `end` token, reusing the normal retest/increment dispatch there.
func (e *Engine) execBreakLike(name string, tok token.Token, stack *[]blockFrame) (token.Step, error) {
	idx := -1
	for i := len(*stack) - 1; i >= 0; i-- {
		if (*stack)[i].kind == "while" || (*stack)[i].kind == "for" {
			idx = i
			break
		}
	}
	if idx < 0 {
		return 0, fmt.Errorf("flow: %s outside a loop", name)
	}

	if name == "continue" {
		*stack = (*stack)[:idx+1]
		return (*stack)[idx].endStep, nil
	}

	// break: drop the loop frame and everything nested inside it, then
	// resume just past its own `end` token.
	endStep := (*stack)[idx].endStep
	*stack = (*stack)[:idx]
	endTok, after, derr := e.Buf.Read(endStep)
	if derr != nil {
		return 0, fmt.Errorf("flow: %w", derr)
	}
	_ = endTok
	pc, serr := e.expectSemicolon(after)
	if serr != nil {
		return 0, serr
	}
	return pc, nil
}

// execReturn implements the `return` command: evaluates its optional
// expression (if present) and hands back a sigReturn signal, which runBody
// returns immediately to its caller (spec.md §4.4 "Function call").
func (e *Engine) execReturn(spec parser.CommandSpec, next token.Step, va eval.VarAccess) (*signal, error) {
	if e.Buf.IsSemicolon(next) {
		return &signal{kind: sigReturn, hasValue: false}, nil
	}
	val, after, eerr := e.Eval.EvalExpr(e.Buf, next, va)
	if eerr != nil {
		return nil, eerr
	}
	if _, serr := e.expectSemicolon(after); serr != nil {
		return nil, serr
	}
	return &signal{kind: sigReturn, hasValue: true, value: val}, nil
}

// topFrame returns a pointer into stack at the innermost frame of the given
// kind, so callers can mutate it in place (branchTaken, entered, ...).
func topFrame(stack []blockFrame, kind string) (*blockFrame, bool) {
	for i := len(stack) - 1; i >= 0; i-- {
		if stack[i].kind == kind {
			return &stack[i], true
		}
	}
	return nil, false
}

// skipPastEnd is a placeholder identity: a `function` header's JumpStep
// already points directly at its `end` token (see applyBlockRole), which is
// exactly where normal scanning should resume; kept as a named helper for
// readability at the call site.
func skipPastEnd(jumpStep token.Step) token.Step { return jumpStep }
