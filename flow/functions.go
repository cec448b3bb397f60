package flow

import (
	"fmt"

	"github.com/justina-lang/justina/parser"
	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
)

// FunctionRegistry implements eval.FunctionArity and eval.FunctionCaller
// over the function definitions the parser recorded in Parser.Functions
// (spec.md §4.4 "Function call"). It is the flow package's half of the
// parser/eval handshake: parser.FunctionDef carries the static shape
// (parameter count, default-value expression positions, body start,
// frame size), and FunctionRegistry.Call is what actually reserves a
// frame, binds arguments, evaluates missing optional defaults, runs the
// body, and returns its result.
type FunctionRegistry struct {
	engine *Engine
	byIdx  map[int]*parser.FunctionDef
}

// NewFunctionRegistry indexes defs by their ExternFuncNames index so a
// call site's FuncIndex (read straight off an ExternalFunc token) resolves
// in O(1).
func NewFunctionRegistry(e *Engine, defs []parser.FunctionDef) *FunctionRegistry {
	r := &FunctionRegistry{engine: e, byIdx: make(map[int]*parser.FunctionDef, len(defs))}
	for i := range defs {
		d := &defs[i]
		r.byIdx[d.ExternIdx] = d
	}
	return r
}

func (r *FunctionRegistry) lookup(funcIndex int) (*parser.FunctionDef, error) {
	def, ok := r.byIdx[funcIndex]
	if !ok {
		return nil, fmt.Errorf("flow: call to undefined function (index %d)", funcIndex)
	}
	return def, nil
}

// Arity reports a function's accepted argument-count range: every
// parameter up to the first defaulted one is required, every parameter
// from there on is optional (parser.go rejects a required parameter
// following a defaulted one, so this split point is well defined).
func (r *FunctionRegistry) Arity(funcIndex int) (min, max int, err error) {
	def, lerr := r.lookup(funcIndex)
	if lerr != nil {
		return 0, 0, lerr
	}
	min = len(def.Params)
	for i, p := range def.Params {
		if p.HasDefault {
			min = i
			break
		}
	}
	return min, len(def.Params), nil
}

// Call implements spec.md §4.4's function-call algorithm: reserve a frame
// sized for every parameter and local the function declares, bind the
// supplied arguments, evaluate default initializers for any missing
// trailing optional parameters (evaluated now, at call time, against the
// partially-bound new frame — spec.md: "on encountering a function's
// closing `)` during execution"), then run the body until `return` or
// fall-off-`end`.
func (r *FunctionRegistry) Call(funcIndex int, args []vars.Value) (vars.Value, error) {
	def, err := r.lookup(funcIndex)
	if err != nil {
		return vars.Value{}, err
	}

	locals := vars.NewFrame(def.FrameSize)
	callFrame := NewCallFrame(r.engine.Tables, locals)

	for i, p := range def.Params {
		if i < len(args) {
			if serr := callFrame.Set(token.ScopeParameter, p.FrameIndex, args[i]); serr != nil {
				locals.Release()
				return vars.Value{}, serr
			}
			continue
		}
		if !p.HasDefault {
			locals.Release()
			return vars.Value{}, fmt.Errorf("flow: missing required argument %d for %s", i+1, def.Name)
		}
		val, _, derr := r.engine.Eval.EvalExpr(r.engine.Buf, p.DefaultStep, callFrame)
		if derr != nil {
			locals.Release()
			return vars.Value{}, derr
		}
		if serr := callFrame.Set(token.ScopeParameter, p.FrameIndex, val); serr != nil {
			locals.Release()
			return vars.Value{}, serr
		}
	}

	r.engine.CallDepth++
	sig, rerr := r.engine.RunFunctionBody(def.BodyStep, callFrame)
	r.engine.CallDepth--
	if rerr != nil {
		locals.Release()
		return vars.Value{}, rerr
	}

	result := vars.LongValue(0)
	if sig != nil && sig.kind == sigReturn && sig.hasValue {
		result = sig.value
		// A returned string may live in a local/parameter slot about to be
		// freed; take an owned copy before the frame is released out from
		// under it (spec.md §3.2 "A variable string is owned by the
		// variable slot").
		if result.Kind == vars.KindString && result.Str != nil {
			result = vars.StringValue(result.Str.Clone(r.engine.Tables.Acc))
		}
	}
	locals.Release()
	return result, nil
}
