package flow

import (
	"fmt"

	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/host"
	"github.com/justina-lang/justina/parser"
	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
)

// signalKind classifies why Engine.Run stopped short of running off the
// end of its statement range.
type signalKind int

const (
	sigReturn signalKind = iota
	sigBreak
	sigContinue
)

// signal carries a return value (when applicable) out of the flat
// statement loop. break/continue never leave Run at all — they are
// resolved entirely against the runtime block stack before Run's loop
// continues — so in practice only sigReturn is ever returned to a caller;
// the other two kinds exist for readability at the point break/continue
// are computed.
type signal struct {
	kind     signalKind
	value    vars.Value
	hasValue bool
}

// blockFrame is the runtime counterpart of parser.BlockFrame: one entry
// per currently-open if/while/for/function/program block, pushed when its
// start token is processed and popped when its matching `end` is reached
// (spec.md §4.4 "push flow-control level ... pop level" generalized from
// function calls alone to every block kind, since `end` needs the same
// "which block am I closing" bookkeeping for loops and if-chains).
type blockFrame struct {
	kind string

	// isBoundary marks a frame synthesized by FunctionRegistry.Call to
	// stand in for the `function` header token it never re-executes
	// (Call jumps straight to the body). Its matching `end` stops Run
	// instead of merely continuing past it.
	isBoundary bool

	// if/elseif/else chains: has any segment's body already run?
	branchTaken bool

	// while/for: did the most recent condition test pass (so `end` must
	// retest and possibly branch back into the body)?
	entered   bool
	condStep  token.Step
	bodyStart token.Step
	// endStep is this block's own `end` token position (== the start
	// token's JumpStep, per applyBlockRole's patch-before-emit ordering):
	// break jumps past it, continue jumps straight at it.
	endStep token.Step

	// for only: the control variable and its bounds, evaluated once at
	// loop entry (spec.md §8 property 7: iteration count is fixed at
	// floor((final-init)/step)+1, not re-derived every pass).
	forScope   token.Scope
	forValIdx  int
	forFloat   bool
	forFinal   float64
	forStep    float64
}

// Engine is the call-stack & flow-control engine of spec.md §4.4: it walks
// a token.Buffer's ResWord-led statements, maintaining the runtime block
// stack described above, and delegates expression evaluation to an
// eval.Evaluator and variable storage to a Frame. Grounded on the
// teacher's vm.VM (vm/executor.go): Buf+pc stand in for Memory+CPU.PC, and
// Flags stands in for the teacher's VM.State/LastError pair, generalized
// from a single halt/error state to the four independent housekeeping
// flags spec.md §5 names.
type Engine struct {
	Tables *vars.Tables
	Buf    *token.Buffer
	Host   *host.Host
	Eval   *eval.Evaluator
	Funcs  *FunctionRegistry

	Flags host.Flags

	DispFmt eval.NumFormat
	DispMod eval.NumFormat

	// housekeepTicks counts statements executed since the housekeeping
	// callback was last invoked (spec.md §5 "called periodically"); reset
	// whenever it fires.
	housekeepTicks int

	// DebugHook, when set, is invoked before every statement is executed
	// (spec.md §4.5's step/stop/resume debugger state machine). It runs on
	// the same goroutine as the program itself, so a debugger implements
	// "pause" by simply blocking inside the hook until told to resume —
	// there is no separate suspend/restart path through runBody's loop to
	// maintain. Grounded on the teacher's debugger.ShouldBreak, which
	// polled VM.CPU.PC once per fetch-decode-execute cycle; here the hook
	// is polled once per statement instead of once per instruction.
	DebugHook func(pc token.Step, depth int, va eval.VarAccess)

	// CallDepth is the current function-call nesting depth, maintained by
	// FunctionRegistry.Call so DebugHook (and "step over"/"step out") can
	// tell a call in the current frame from one two levels down.
	CallDepth int
}

// HousekeepEvery is how many statements elapse between housekeeping
// callback invocations, absent a more precise wall-clock trigger (spec.md
// §5 leaves the exact period host-defined; this package uses a statement
// count as its suspension point, matching the teacher's own per-
// instruction cycle accounting in vm/executor.go's Step).
const HousekeepEvery = 256

// NewEngine wires an Engine over an already-populated Tables/Buf (the
// output of a parser.Parser run) and a host. functions is the parser's
// recorded FunctionDef list (Parser.Functions).
func NewEngine(t *vars.Tables, buf *token.Buffer, h *host.Host, builtins *eval.BuiltinTable, functions []parser.FunctionDef) *Engine {
	e := &Engine{
		Tables:  t,
		Buf:     buf,
		Host:    h,
		DispFmt: eval.DefaultNumFormat(),
		DispMod: eval.DefaultNumFormat(),
	}
	e.Funcs = NewFunctionRegistry(e, functions)
	last := eval.NewLastResults(10)
	e.Eval = eval.NewEvaluator(nil, t.Acc, builtins, e.Funcs, e.Funcs, last)
	return e
}

// RunProgram executes the whole program area from its first statement.
func (e *Engine) RunProgram() error {
	va := NewTopLevelFrame(e.Tables)
	_, err := e.Run(0, va)
	return err
}

// RunImmediate executes one immediate-mode (prompt/debugger-typed)
// statement.
func (e *Engine) RunImmediate(start token.Step, va eval.VarAccess) error {
	_, err := e.runBody(start, va, nil)
	return err
}

// Run executes statements beginning at start until the buffer's
// end-of-program sentinel is reached, an unhandled `return` escapes (a
// parser placement error in practice, since `return` is
// PlaceInsideFunctionOnly), or a housekeeping flag stops execution.
func (e *Engine) Run(start token.Step, va eval.VarAccess) (*signal, error) {
	return e.runBody(start, va, nil)
}

// RunFunctionBody executes a function's body starting right after its
// `function` header (FunctionRegistry.Call's entry point, which never
// re-executes that header token). It seeds runBody with a boundary frame
// standing in for the header, so the body's own `end` token stops execution
// here instead of merely falling through to the statement after it.
func (e *Engine) RunFunctionBody(start token.Step, va eval.VarAccess) (*signal, error) {
	return e.runBody(start, va, &blockFrame{kind: "function", isBoundary: true})
}

// runBody is Run's implementation, seeded with an optional boundary frame
// (FunctionRegistry.Call passes one standing in for the `function` header
// token it skipped) so its matching `end` knows to stop execution here
// rather than merely falling through to the next statement.
func (e *Engine) runBody(start token.Step, va eval.VarAccess, seed *blockFrame) (*signal, error) {
	var stack []blockFrame
	if seed != nil {
		stack = append(stack, *seed)
	}
	pc := start

	for {
		if e.Flags.Quit || e.Flags.Kill || e.Flags.Abort || e.Flags.Stop {
			return nil, nil
		}
		if e.Buf.IsEndOfProgram(pc) {
			return nil, nil
		}

		e.housekeepTicks++
		if e.housekeepTicks >= HousekeepEvery {
			e.housekeepTicks = 0
			if e.Host != nil && e.Host.Housekeep != nil {
				e.Host.Housekeep(&e.Flags)
			}
		}

		if e.DebugHook != nil {
			e.DebugHook(pc, e.CallDepth, va)
			if e.Flags.Quit || e.Flags.Kill || e.Flags.Abort || e.Flags.Stop {
				return nil, nil
			}
		}

		tok, next, derr := e.Buf.Read(pc)
		if derr != nil {
			return nil, fmt.Errorf("flow: %w", derr)
		}

		if tok.Kind != token.KindResWord {
			val, after, eerr := e.Eval.EvalExpr(e.Buf, pc, va)
			if eerr != nil {
				return nil, eerr
			}
			eval.ReleaseResult(val)
			pc, derr = e.expectSemicolon(after)
			if derr != nil {
				return nil, derr
			}
			continue
		}

		name := e.Tables.ResWords.Name(int(tok.CmdIndex))
		spec, ok := parser.CommandSpecByName(name)
		if !ok {
			return nil, fmt.Errorf("flow: unknown command index %d", tok.CmdIndex)
		}

		switch spec.Role {
		case parser.RoleBlockStart:
			newPC, err := e.execBlockStart(name, spec, tok, next, va, &stack)
			if err != nil {
				return nil, err
			}
			pc = newPC

		case parser.RoleBlockMiddle:
			newPC, err := e.execBlockMiddle(spec, tok, next, va, &stack)
			if err != nil {
				return nil, err
			}
			pc = newPC

		case parser.RoleBlockEnd:
			newPC, stop, err := e.execBlockEnd(next, va, &stack)
			if err != nil {
				return nil, err
			}
			if stop {
				return nil, nil
			}
			pc = newPC

		case parser.RoleBreakLike:
			newPC, err := e.execBreakLike(name, tok, &stack)
			if err != nil {
				return nil, err
			}
			pc = newPC

		case parser.RoleReturn:
			sig, err := e.execReturn(spec, next, va)
			if err != nil {
				return nil, err
			}
			return sig, nil

		default:
			newPC, err := e.execSimpleCommand(name, spec, next, va)
			if err != nil {
				return nil, err
			}
			pc = newPC
		}
	}
}

// expectSemicolon consumes the statement terminator an expression or
// command's argument list must be sitting on, reporting a corrupt-buffer
// error otherwise (the parser never emits anything else there).
func (e *Engine) expectSemicolon(at token.Step) (token.Step, error) {
	if !e.Buf.IsSemicolon(at) {
		return at, fmt.Errorf("flow: expected statement terminator at %s", at)
	}
	return at.MustAdd(1), nil
}

func truthy(v vars.Value) bool {
	switch v.Kind {
	case vars.KindLong:
		return v.Long != 0
	case vars.KindFloat:
		return v.Float != 0
	case vars.KindString:
		return v.Str != nil && v.Str.Value() != ""
	default:
		return false
	}
}

func asFloat(v vars.Value) float64 {
	switch v.Kind {
	case vars.KindLong:
		return float64(v.Long)
	case vars.KindFloat:
		return float64(v.Float)
	default:
		return 0
	}
}
