package vars

import (
	"fmt"

	"github.com/justina-lang/justina/token"
)

// ErrVarNotDeclared and ErrVarRedeclared correspond to spec.md §4.2's
// varNotDeclared / varRedeclared parser errors; they are returned by the
// table operations and wrapped with position information by the parser.
var (
	ErrVarNotDeclared = fmt.Errorf("vars: varNotDeclared")
	ErrVarRedeclared  = fmt.Errorf("vars: varRedeclared")
)

// Tables aggregates the five identifier classes and the scope-segregated
// variable stores (spec.md §3.2/§4.1), plus the current global/user
// name->value-index bindings. FunctionScope (below) holds the equivalent
// bindings for one function's statics/locals/parameters.
type Tables struct {
	Acc *Accounting

	ProgramNames    *IdentTable
	UserNames       *IdentTable
	ExternFuncNames *IdentTable
	ResWords        *StaticTable
	InternalFuncs   *StaticTable

	Globals *IndexedStore
	Users   *IndexedStore
	Statics *StaticStore

	globalBinding map[int]int // ProgramNames index -> Globals slot index
	userBinding   map[int]int // UserNames index -> Users slot index
}

// NewTables constructs an empty set of tables bound to acc, with reserved
// words and internal function names loaded from the given static lists
// (spec.md §3.2: these two classes are "static tables, not heap-allocated").
func NewTables(acc *Accounting, resWords, internalFuncs []string) *Tables {
	return &Tables{
		Acc:             acc,
		ProgramNames:    NewIdentTable(acc, ClassIdentName),
		UserNames:       NewIdentTable(acc, ClassIdentName),
		ExternFuncNames: NewIdentTable(acc, ClassIdentName),
		ResWords:        NewStaticTable(resWords),
		InternalFuncs:   NewStaticTable(internalFuncs),
		Globals:         NewIndexedStore(acc),
		Users:           NewIndexedStore(acc),
		Statics:         NewStaticStore(acc),
		globalBinding:   make(map[int]int),
		userBinding:     make(map[int]int),
	}
}

// FunctionScope holds one function's static/local/parameter name bindings,
// built while the parser processes the function's declarations (spec.md
// §4.1). It is owned by the function's definition record (see flow
// package) and consulted by resolve_variable while parsing statements
// inside that function.
type FunctionScope struct {
	Locals     map[int]int // ProgramNames index -> Frame index
	Params     map[int]int // ProgramNames index -> Frame index
	Statics    map[int]int // ProgramNames index -> StaticStore absolute index
	ParamOrder []int       // ProgramNames indices, in declaration order
	LocalOrder []int
	StaticStart int
	StaticCount int
}

// NewFunctionScope returns an empty scope for a function being parsed.
func NewFunctionScope() *FunctionScope {
	return &FunctionScope{
		Locals:  make(map[int]int),
		Params:  make(map[int]int),
		Statics: make(map[int]int),
	}
}

// DeclareParam interns name as a program variable name and reserves it as
// the next parameter slot. Duplicate parameter names, and a parameter
// colliding with a local already declared in the same function, are
// varRedeclared (spec.md §4.1 invariants).
func (fn *FunctionScope) DeclareParam(t *Tables, name string) (nameIdx, frameIdx int, err error) {
	nameIdx, err = t.ProgramNames.Intern(name)
	if err != nil {
		return 0, 0, err
	}
	if _, exists := fn.Params[nameIdx]; exists {
		return 0, 0, ErrVarRedeclared
	}
	if _, exists := fn.Locals[nameIdx]; exists {
		return 0, 0, ErrVarRedeclared
	}
	frameIdx = len(fn.ParamOrder)
	fn.Params[nameIdx] = frameIdx
	fn.ParamOrder = append(fn.ParamOrder, nameIdx)
	return nameIdx, frameIdx, nil
}

// DeclareLocal interns name and reserves the next local-frame slot,
// appended after all parameter slots (so frame layout is
// [params...][locals...]).
func (fn *FunctionScope) DeclareLocal(t *Tables, name string) (nameIdx, frameIdx int, err error) {
	nameIdx, err = t.ProgramNames.Intern(name)
	if err != nil {
		return 0, 0, err
	}
	if _, exists := fn.Locals[nameIdx]; exists {
		return 0, 0, ErrVarRedeclared
	}
	if _, exists := fn.Params[nameIdx]; exists {
		return 0, 0, ErrVarRedeclared
	}
	frameIdx = len(fn.ParamOrder) + len(fn.LocalOrder)
	fn.Locals[nameIdx] = frameIdx
	fn.LocalOrder = append(fn.LocalOrder, nameIdx)
	return nameIdx, frameIdx, nil
}

// FrameSize returns the total slot count (parameters + locals) the
// function needs allocated on each call.
func (fn *FunctionScope) FrameSize() int {
	return len(fn.ParamOrder) + len(fn.LocalOrder)
}

// DeclareStatic interns name, reserves its absolute slot in the shared
// StaticStore (via fn.StaticStart/StaticCount, which the caller must have
// already allocated with Statics.Allocate), and records the binding.
func (fn *FunctionScope) DeclareStatic(t *Tables, name string, absoluteIdx int) (nameIdx int, err error) {
	nameIdx, err = t.ProgramNames.Intern(name)
	if err != nil {
		return 0, err
	}
	if _, exists := fn.Statics[nameIdx]; exists {
		return 0, ErrVarRedeclared
	}
	fn.Statics[nameIdx] = absoluteIdx
	return nameIdx, nil
}

// ResolveInFunction implements resolve_variable's inside-a-function lookup
// rule: parameters/locals shadow statics shadow globals shadow users
// (spec.md §4.1).
func (t *Tables) ResolveInFunction(fn *FunctionScope, name string) (scope token.Scope, valueIdx int, err error) {
	nameIdx, ok := t.ProgramNames.Lookup(name)
	if ok {
		if idx, exists := fn.Params[nameIdx]; exists {
			return token.ScopeParameter, idx, nil
		}
		if idx, exists := fn.Locals[nameIdx]; exists {
			return token.ScopeLocal, idx, nil
		}
		if idx, exists := fn.Statics[nameIdx]; exists {
			return token.ScopeStatic, idx, nil
		}
		if idx, exists := t.globalBinding[nameIdx]; exists {
			return token.ScopeGlobal, idx, nil
		}
	}
	if userIdx, ok := t.UserNames.Lookup(name); ok {
		if idx, exists := t.userBinding[userIdx]; exists {
			return token.ScopeUser, idx, nil
		}
	}
	return 0, 0, ErrVarNotDeclared
}

// ResolveTopLevel implements resolve_variable's top-level rule: user
// variables first, then globals for program variable names (spec.md
// §4.1). immediateMode restricts lookup to the user-variable table only
// (typed-at-prompt names), per spec.md's "user only (for user var names,
// in immediate mode)".
func (t *Tables) ResolveTopLevel(name string, immediateMode bool) (scope token.Scope, valueIdx int, err error) {
	if userIdx, ok := t.UserNames.Lookup(name); ok {
		if idx, exists := t.userBinding[userIdx]; exists {
			return token.ScopeUser, idx, nil
		}
	}
	if immediateMode {
		return 0, 0, ErrVarNotDeclared
	}
	if nameIdx, ok := t.ProgramNames.Lookup(name); ok {
		if idx, exists := t.globalBinding[nameIdx]; exists {
			return token.ScopeGlobal, idx, nil
		}
	}
	return 0, 0, ErrVarNotDeclared
}

// CreateGlobal declares a new global program variable, failing with
// ErrVarRedeclared if one already exists under this name.
func (t *Tables) CreateGlobal(name string, isArray bool) (valueIdx int, err error) {
	nameIdx, err := t.ProgramNames.Intern(name)
	if err != nil {
		return 0, err
	}
	if _, exists := t.globalBinding[nameIdx]; exists {
		return 0, ErrVarRedeclared
	}
	idx, err := t.Globals.Create(TypeByte{Scope: token.ScopeGlobal, IsArray: isArray, GlobalValueExists: true})
	if err != nil {
		return 0, err
	}
	t.globalBinding[nameIdx] = idx
	return idx, nil
}

// CreateUser declares a new user (prompt-typed) variable, failing with
// ErrVarRedeclared if one already exists under this name.
func (t *Tables) CreateUser(name string, isArray bool) (valueIdx int, err error) {
	nameIdx, err := t.UserNames.Intern(name)
	if err != nil {
		return 0, err
	}
	if _, exists := t.userBinding[nameIdx]; exists {
		return 0, ErrVarRedeclared
	}
	idx, err := t.Users.Create(TypeByte{Scope: token.ScopeUser, IsArray: isArray})
	if err != nil {
		return 0, err
	}
	t.userBinding[nameIdx] = idx
	return idx, nil
}

// DeleteGlobal implements delVar for a single global: frees the slot's
// owned heap objects and removes the binding so the name resolves as
// not-declared again (it may be redeclared afterward).
func (t *Tables) DeleteGlobal(name string) error {
	nameIdx, ok := t.ProgramNames.Lookup(name)
	if !ok {
		return ErrVarNotDeclared
	}
	idx, exists := t.globalBinding[nameIdx]
	if !exists {
		return ErrVarNotDeclared
	}
	slot, err := t.Globals.Get(idx)
	if err != nil {
		return err
	}
	FreeValue(slot.Value)
	if slot.Value.Arr != nil {
		slot.Value.Arr.Free()
	}
	delete(t.globalBinding, nameIdx)
	return nil
}

// DeleteUser is DeleteGlobal's counterpart for user variables.
func (t *Tables) DeleteUser(name string) error {
	nameIdx, ok := t.UserNames.Lookup(name)
	if !ok {
		return ErrVarNotDeclared
	}
	idx, exists := t.userBinding[nameIdx]
	if !exists {
		return ErrVarNotDeclared
	}
	slot, err := t.Users.Get(idx)
	if err != nil {
		return err
	}
	FreeValue(slot.Value)
	if slot.Value.Arr != nil {
		slot.Value.Arr.Free()
	}
	delete(t.userBinding, nameIdx)
	return nil
}

// ClearVars implements the `clearVars` command: frees every user and
// global variable's owned heap objects and empties both stores and their
// bindings (spec.md §8 scenario S5: "clearVars; → all array and string
// counters return to zero").
func (t *Tables) ClearVars() {
	for idx := range t.globalBinding {
		delete(t.globalBinding, idx)
	}
	t.Globals.Clear()
	for idx := range t.userBinding {
		delete(t.userBinding, idx)
	}
	t.Users.Clear()
}

// GlobalNames returns the currently bound global variable names, for the
// `vars` command's introspection listing (spec.md §6.2 command table).
func (t *Tables) GlobalNames() []string {
	names := make([]string, 0, len(t.globalBinding))
	for nameIdx := range t.globalBinding {
		names = append(names, t.ProgramNames.Name(nameIdx))
	}
	return names
}

// UserVarNames is GlobalNames' counterpart for user (prompt-typed)
// variables.
func (t *Tables) UserVarNames() []string {
	names := make([]string, 0, len(t.userBinding))
	for nameIdx := range t.userBinding {
		names = append(names, t.UserNames.Name(nameIdx))
	}
	return names
}

// ReleaseStatics frees the owned heap objects of count static slots
// starting at start (used when unloading a program: spec.md §3.3
// lifecycle, "statics persist across calls" but not across a full reset).
func (t *Tables) ReleaseStatics(start, count int) {
	for i := start; i < start+count; i++ {
		slot, err := t.Statics.Get(i)
		if err != nil {
			continue
		}
		FreeValue(slot.Value)
		if slot.Value.Arr != nil {
			slot.Value.Arr.Free()
		}
	}
}
