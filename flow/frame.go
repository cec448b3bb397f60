// Package flow implements the call stack and flow-control engine (spec.md
// §4.4): the top-level statement-scheduling loop, block commands
// (if/elseif/else/while/for/end), break/continue/return, and the
// function-call mechanism that binds arguments into a fresh frame and
// evaluates missing trailing parameters' defaults. Grounded on the
// teacher's vm.VM/CPU fetch-decode-execute loop (vm/executor.go's
// Step/Run), generalized from a fixed-width instruction stream with a
// single PC to a variable-width token stream with an explicit runtime
// block-nesting stack standing in for the CPU's link register/branch
// history.
package flow

import (
	"fmt"

	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
)

// Frame implements eval.VarAccess over the shared Tables (globals/statics/
// users) plus one call's local+parameter storage (nil at top level, where
// only global/static/user scopes are reachable). One Frame is constructed
// per nesting level: the top-level program gets one with Locals == nil,
// and each function call gets its own wrapping a freshly allocated
// vars.Frame (spec.md §3.2: "Locals & parameters: allocated on function
// entry in a dynamic frame; freed on return").
type Frame struct {
	Tables *vars.Tables
	Locals *vars.Frame
}

// NewTopLevelFrame builds the Frame used to execute program-level
// (non-function) statements, where only user/global/static scopes can be
// addressed.
func NewTopLevelFrame(t *vars.Tables) *Frame {
	return &Frame{Tables: t}
}

// NewCallFrame builds the Frame for one function invocation, backed by a
// freshly allocated local/parameter store.
func NewCallFrame(t *vars.Tables, locals *vars.Frame) *Frame {
	return &Frame{Tables: t, Locals: locals}
}

func (f *Frame) Get(scope token.Scope, valueIdx int) (vars.Value, error) {
	slot, err := f.slot(scope, valueIdx)
	if err != nil {
		return vars.Value{}, err
	}
	return slot.Value, nil
}

func (f *Frame) Array(scope token.Scope, valueIdx int) (*vars.Array, error) {
	slot, err := f.slot(scope, valueIdx)
	if err != nil {
		return nil, err
	}
	if slot.Value.Arr == nil {
		return nil, fmt.Errorf("flow: array not yet allocated (declaration not executed)")
	}
	return slot.Value.Arr, nil
}

func (f *Frame) Set(scope token.Scope, valueIdx int, v vars.Value) error {
	switch scope {
	case token.ScopeUser:
		return f.Tables.Users.Set(valueIdx, v)
	case token.ScopeGlobal:
		return f.Tables.Globals.Set(valueIdx, v)
	case token.ScopeStatic:
		return f.Tables.Statics.Set(valueIdx, v)
	case token.ScopeLocal, token.ScopeParameter:
		if f.Locals == nil {
			return fmt.Errorf("flow: local/parameter access outside a function call")
		}
		return f.Locals.Set(valueIdx, v)
	default:
		return fmt.Errorf("flow: unknown variable scope %v", scope)
	}
}

func (f *Frame) slot(scope token.Scope, valueIdx int) (vars.Slot, error) {
	switch scope {
	case token.ScopeUser:
		return f.Tables.Users.Get(valueIdx)
	case token.ScopeGlobal:
		return f.Tables.Globals.Get(valueIdx)
	case token.ScopeStatic:
		return f.Tables.Statics.Get(valueIdx)
	case token.ScopeLocal, token.ScopeParameter:
		if f.Locals == nil {
			return vars.Slot{}, fmt.Errorf("flow: local/parameter access outside a function call")
		}
		return f.Locals.Get(valueIdx)
	default:
		return vars.Slot{}, fmt.Errorf("flow: unknown variable scope %v", scope)
	}
}
