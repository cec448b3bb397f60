package flow

import (
	"fmt"

	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
)

// defaultArrayElemKind is the element type a freshly allocated array gets
// when the declaration gives no type hint (the grammar exposes no
// array-of-float/string declaration syntax in any surface this package
// consumes — see DESIGN.md's Open Question on this).
const defaultArrayElemKind = vars.KindLong

// execDeclare implements `var`/`static`/`local`: each name in the list is
// either a scalar (its storage slot was already allocated at parse time, so
// there is nothing to do at runtime) or an array, marked by a leading
// KindArrayDims marker whose dimension sub-expressions must be evaluated
// now and turned into a freshly allocated vars.Array (spec.md §3.2: arrays
// are allocated, not just reserved, at the point their declaration runs).
func (e *Engine) execDeclare(next token.Step, va eval.VarAccess) (token.Step, error) {
	pc := next
	for !e.Buf.IsSemicolon(pc) {
		tok, after, derr := e.Buf.Read(pc)
		if derr != nil {
			return pc, fmt.Errorf("flow: %w", derr)
		}

		if tok.Kind != token.KindArrayDims {
			// Scalar: tok is the Variable token itself; its slot already
			// exists, zero-valued, from parse time.
			pc = after
			continue
		}

		varAfter, aerr := e.declareArrayFromMarker(tok, after, va)
		if aerr != nil {
			return pc, aerr
		}
		pc = varAfter
	}
	return e.expectSemicolon(pc)
}

// declareArrayFromMarker evaluates a KindArrayDims marker's dimension
// sub-expressions, allocates the array, and assigns it to the Variable
// token that follows them. Shared by execDeclare (var/static/local) and
// execInput (whose variable targets are declared the same way).
func (e *Engine) declareArrayFromMarker(marker token.Token, after token.Step, va eval.VarAccess) (token.Step, error) {
	dims := make([]int, 0, int(marker.Dims))
	cursor := after
	for i := 0; i < int(marker.Dims); i++ {
		val, dimAfter, eerr := e.Eval.EvalExpr(e.Buf, cursor, va)
		if eerr != nil {
			return cursor, eerr
		}
		n, ok := wantArrayDim(val)
		eval.ReleaseResult(val)
		if !ok {
			return cursor, fmt.Errorf("flow: array dimension must be a positive integer")
		}
		dims = append(dims, n)
		cursor = dimAfter
	}

	varTok, varAfter, derr := e.Buf.Read(cursor)
	if derr != nil {
		return cursor, fmt.Errorf("flow: %w", derr)
	}
	if varTok.Kind != token.KindVariable {
		return cursor, fmt.Errorf("flow: expected array variable after dimension list")
	}

	arr, aerr := vars.NewArray(e.Tables.Acc, dims, defaultArrayElemKind)
	if aerr != nil {
		return cursor, aerr
	}
	if serr := va.Set(varTok.VarScope, int(varTok.ValueIndex), vars.Value{Kind: defaultArrayElemKind, Arr: arr}); serr != nil {
		return cursor, serr
	}
	return varAfter, nil
}

func wantArrayDim(v vars.Value) (int, bool) {
	switch v.Kind {
	case vars.KindLong:
		if v.Long <= 0 {
			return 0, false
		}
		return int(v.Long), true
	case vars.KindFloat:
		n := int(v.Float)
		if n <= 0 || float32(n) != v.Float {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}
