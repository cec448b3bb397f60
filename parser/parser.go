// Package parser turns one line of Justina source at a time into tokens
// appended to a token.Buffer, validating command syntax, block nesting, and
// variable declarations as it goes (spec.md §4.2: "a hand-written,
// single-pass recursive parser"). Operator precedence is NOT applied here —
// tokens are emitted in source order, carrying the priority/associativity
// metadata from terminals.go for the eval package's runtime
// operator-precedence engine to consume (spec.md §4.3/§5).
package parser

import (
	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
)

// Parser holds all state that must survive across statements within one
// program: open block frames, the identifier/value tables, and the
// scalar/array consistency masks for forward-referenced functions.
type Parser struct {
	Tables *vars.Tables
	Buf    *token.Buffer
	Heap   *vars.HeapRegistry

	InternalMasks *InternalFuncMasks
	ExternalMasks *ExternalFuncMasks

	blocks []BlockFrame
	parens ParenStack

	currentFunc *vars.FunctionScope
	// pending accumulates the function header currently being parsed, from
	// the moment its name is seen until its matching `end` closes the block.
	pending *pendingFunc
	// Functions holds every fully-parsed function definition in source
	// order; the flow package's call-stack engine indexes into this by
	// ExternIdx to bind arguments and locate each function's body.
	Functions []FunctionDef

	// immediateMode selects which buffer area new tokens land in and which
	// placement/visibility rules apply (spec.md §4.1 ResolveTopLevel).
	immediateMode bool

	// inStaticDecl/inLocalDecl select which scope declareName targets while
	// parsing one command's slots; the parser is single-pass and
	// single-goroutine, so a flag per declaration kind set just before
	// parseSlots and cleared just after is enough.
	inStaticDecl bool
	inLocalDecl  bool
}

// BlockFrame tracks one open block on the parser's block-nesting stack
// (spec.md §4.2.1).
type BlockFrame struct {
	BlockKind string // "if", "while", "for", "function", "program"
	Command   string // the specific command that opened/last continued it
	StartStep token.Step
}

// internalFuncNames is the fixed internal-function name list used to build
// the InternalFuncs static table; populated by eval.BuiltinNames() once the
// eval package is wired in (SPEC_FULL.md PART D supplement #2). Kept here
// as a parser-local placeholder list covering the functions this package's
// own tests exercise, so the parser package has no import-cycle dependency
// on eval.
var internalFuncNames = []string{
	"abs", "sgn", "sqrt", "sin", "cos", "tan", "exp", "ln", "len", "left",
	"right", "mid", "asc", "chr", "val", "str", "int", "float", "max", "min",
}

// NewParser builds a parser over an already-allocated token.Buffer, with
// fresh identifier tables seeded from the fixed command and internal
// function name lists. Convenience wrapper over NewParserWithBuiltins for
// this package's own tests; real callers wiring in the full internal
// function library should use NewParserWithBuiltins(buf, eval.BuiltinNames()).
func NewParser(buf *token.Buffer) *Parser {
	return NewParserWithBuiltins(buf, internalFuncNames)
}

// NewParserWithBuiltins builds a parser whose InternalFuncs table is seeded
// from internalFuncNames, in index order. The caller (loader.Load)
// passes eval.BuiltinNames() here; parser itself cannot import eval (eval
// imports parser for its terminal tables), so this indirection is how the
// two packages agree on internal-function indices without a cycle.
func NewParserWithBuiltins(buf *token.Buffer, internalFuncNames []string) *Parser {
	acc := vars.NewAccounting()
	tables := vars.NewTables(acc, reservedWordNames(), internalFuncNames)
	return &Parser{
		Tables:        tables,
		Buf:           buf,
		Heap:          vars.NewHeapRegistry(),
		InternalMasks: NewInternalFuncMasks(len(internalFuncNames)),
		ExternalMasks: NewExternalFuncMasks(),
	}
}

// SetImmediateMode switches between loading program text (false) and
// parsing a single prompt/debugger-typed statement (true).
func (p *Parser) SetImmediateMode(on bool) { p.immediateMode = on }

// InFunction reports whether the parser is currently inside a `function`
// ... `end` block.
func (p *Parser) InFunction() bool { return p.currentFunc != nil }

func (p *Parser) curStep() token.Step {
	if p.immediateMode {
		return p.Buf.ImmediateEnd
	}
	return p.Buf.ProgramEnd
}

func (p *Parser) advanceTo(step token.Step) {
	if p.immediateMode {
		p.Buf.ImmediateEnd = step
	} else {
		p.Buf.ProgramEnd = step
	}
}

// emit writes tok at the current write position and advances it.
func (p *Parser) emit(tok token.Token, pos Position) (token.Step, *Error) {
	start := p.curStep()
	next, err := p.Buf.Write(start, tok)
	if err != nil {
		return 0, NewError(pos, ErrProgMemoryFull, err.Error())
	}
	p.advanceTo(next)
	return start, nil
}

func (p *Parser) writeSemicolon(pos Position) *Error {
	start := p.curStep()
	next, err := p.Buf.WriteSemicolon(start)
	if err != nil {
		return NewError(pos, ErrProgMemoryFull, err.Error())
	}
	p.advanceTo(next)
	return nil
}

// Finish writes the end-of-program sentinel after the last statement of a
// fully loaded program (not called per-statement).
func (p *Parser) Finish() *Error {
	next, err := p.Buf.WriteEndOfProgram(p.Buf.ProgramEnd)
	if err != nil {
		return NewError(Position{}, ErrProgMemoryFull, err.Error())
	}
	p.Buf.ProgramEnd = next
	return nil
}

// topBlock returns the innermost open block frame, if any.
func (p *Parser) topBlock() (*BlockFrame, bool) {
	if len(p.blocks) == 0 {
		return nil, false
	}
	return &p.blocks[len(p.blocks)-1], true
}

// ParseStatement parses one statement (a single logical line, without its
// own trailing newline) and appends its tokens, terminated by a semicolon
// token, to the current write area.
func (p *Parser) ParseStatement(line string) *Error {
	probe := NewLexer(line)
	first, lexErr := probe.Next()
	if lexErr != nil {
		return lexErr
	}
	if first.Kind == LexEOF {
		return nil
	}

	if first.Kind == LexIdentifier {
		if spec, ok := commandTable[first.Text]; ok {
			lex := NewLexer(line)
			if _, lexErr := lex.Next(); lexErr != nil {
				return lexErr
			}
			if err := p.parseCommand(lex, first, spec); err != nil {
				return err
			}
			return p.writeSemicolon(first.Pos)
		}
	}

	lex := NewLexer(line)
	if err := p.parseExprStatement(lex); err != nil {
		return err
	}
	return p.writeSemicolon(first.Pos)
}

// parseCommand handles one reserved-word-led statement: placement check,
// block-role bookkeeping, emitting the ResWord token, then its parameter
// slots.
func (p *Parser) parseCommand(lex *Lexer, cmdLx Lexeme, spec CommandSpec) *Error {
	if err := p.checkPlacement(cmdLx.Pos, spec); err != nil {
		return err
	}

	cmdIndex, ok := p.Tables.ResWords.Lookup(spec.Name)
	if !ok {
		return NewError(cmdLx.Pos, ErrOther, "internal: unknown reserved word "+spec.Name)
	}

	hasJump, err := p.applyBlockRole(cmdLx, spec)
	if err != nil {
		return err
	}

	tokStep, err := p.emit(token.Token{
		Kind:     token.KindResWord,
		CmdIndex: uint16(cmdIndex),
		HasJump:  hasJump,
		JumpStep: token.Invalid,
	}, cmdLx.Pos)
	if err != nil {
		return err
	}

	if spec.Role == RoleBlockStart || spec.Role == RoleBlockMiddle {
		if top, ok := p.topBlock(); ok && top.BlockKind == spec.BlockKind {
			top.StartStep = tokStep
			top.Command = spec.Name
		}
	}

	if spec.Name == "function" {
		return p.parseFunctionDecl(lex, cmdLx.Pos)
	}

	switch spec.Name {
	case "static":
		p.inStaticDecl = true
	case "local":
		p.inLocalDecl = true
	}
	err = p.parseSlots(lex, cmdLx.Pos, spec)
	p.inStaticDecl = false
	p.inLocalDecl = false
	return err
}

func (p *Parser) checkPlacement(pos Position, spec CommandSpec) *Error {
	inFunc := p.InFunction()
	var bad bool
	switch spec.Placement {
	case PlaceImmediateOnly:
		bad = !p.immediateMode
	case PlaceInsideProgramOnly:
		bad = p.immediateMode
	case PlaceInsideFunctionOnly:
		bad = !inFunc
	case PlaceOutsideFunctionOnly:
		bad = inFunc
	case PlaceInProgOutsideFunctionOnly:
		bad = p.immediateMode || inFunc
	case PlaceImmediateOrInFunction:
		bad = !p.immediateMode && !inFunc
	}
	if bad {
		return NewError(pos, spec.Placement.errorKind(), spec.Name+" not allowed here")
	}
	return nil
}

// applyBlockRole pushes/pops/patches the block-nesting stack and reports
// whether the emitted ResWord token needs a patchable JumpStep field.
func (p *Parser) applyBlockRole(cmdLx Lexeme, spec CommandSpec) (hasJump bool, err *Error) {
	switch spec.Role {
	case RoleBlockStart:
		p.blocks = append(p.blocks, BlockFrame{BlockKind: spec.BlockKind, Command: spec.Name})
		if spec.BlockKind == "function" {
			p.currentFunc = vars.NewFunctionScope()
		}
		// Every block kind, including function, carries a patchable jump
		// field: if/while/for jump over their body when the condition
		// fails, and function jumps over its body during top-level
		// sequential execution so its code only runs via a call.
		return spec.BlockKind == "if" || spec.BlockKind == "while" ||
			spec.BlockKind == "for" || spec.BlockKind == "function", nil

	case RoleBlockMiddle:
		top, ok := p.topBlock()
		if !ok || top.BlockKind != spec.BlockKind {
			return false, NewError(cmdLx.Pos, ErrNoOpenBlock, spec.Name+" without matching "+spec.BlockKind)
		}
		if perr := p.Buf.PatchJump(top.StartStep, p.curStep()); perr != nil {
			return false, NewError(cmdLx.Pos, ErrOther, perr.Error())
		}
		// Both elseif and else get a patchable jump field so the closing
		// `end` can always back-patch whichever segment is currently on
		// top uniformly; else's is never taken at runtime (no condition
		// to fail) but costs nothing to carry.
		return true, nil

	case RoleBlockEnd:
		top, ok := p.popBlock()
		if !ok {
			return false, NewError(cmdLx.Pos, ErrNoOpenBlock, "end without matching block")
		}
		if perr := p.Buf.PatchJump(top.StartStep, p.curStep()); perr != nil {
			return false, NewError(cmdLx.Pos, ErrOther, perr.Error())
		}
		if top.BlockKind == "function" {
			p.finalizeFunction()
			p.currentFunc = nil
		}
		return false, nil

	case RoleBreakLike:
		if _, ok := p.nearestLoop(); !ok {
			return false, NewError(cmdLx.Pos, ErrNotAllowedInThisOpenBlock, spec.Name+" outside a loop")
		}
		return false, nil

	case RoleReturn:
		return false, nil

	default:
		return false, nil
	}
}

func (p *Parser) popBlock() (BlockFrame, bool) {
	if len(p.blocks) == 0 {
		return BlockFrame{}, false
	}
	f := p.blocks[len(p.blocks)-1]
	p.blocks = p.blocks[:len(p.blocks)-1]
	return f, true
}

func (p *Parser) nearestLoop() (*BlockFrame, bool) {
	for i := len(p.blocks) - 1; i >= 0; i-- {
		if p.blocks[i].BlockKind == "while" || p.blocks[i].BlockKind == "for" {
			return &p.blocks[i], true
		}
	}
	return nil, false
}

// parseSlots consumes a command's parameter list per its Slots descriptors.
func (p *Parser) parseSlots(lex *Lexer, cmdPos Position, spec CommandSpec) *Error {
	argsSeen := 0
	for slotIdx, slot := range spec.Slots {
		count := 0
		for {
			lx, lexErr := lex.Next()
			if lexErr != nil {
				return lexErr
			}
			if lx.Kind == LexEOF {
				break
			}
			if count > 0 {
				if lx.Kind != LexComma {
					return NewError(lx.Pos, ErrCmdParameterMissing, "expected , between arguments")
				}
				lx, lexErr = lex.Next()
				if lexErr != nil {
					return lexErr
				}
			}
			if err := p.parseOneSlotItem(lex, lx, slot); err != nil {
				return err
			}
			count++
			argsSeen++
			if !slot.Multiple {
				break
			}
			// peek ahead for another comma without consuming non-comma input
			save := *lex
			nxt, _ := lex.Next()
			if nxt.Kind != LexComma {
				*lex = save
				break
			}
		}
		if count == 0 && !slot.Optional {
			return NewError(cmdPos, ErrCmdParameterMissing, "missing required parameter")
		}
		_ = slotIdx
	}
	trailing, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	if trailing.Kind != LexEOF {
		return NewError(trailing.Pos, ErrCmdHasTooManyParameters, "too many parameters for "+spec.Name)
	}
	return nil
}

func (p *Parser) parseOneSlotItem(lex *Lexer, first Lexeme, slot ParamSlot) *Error {
	switch {
	case slot.Kinds&ParamVarAssignable != 0:
		return p.parseDeclareOrName(lex, first)
	case slot.Kinds&ParamVarNotAssignable != 0:
		return p.parseExistingVarRef(lex, first)
	case slot.Kinds&ParamIdentifier != 0 && slot.Kinds&ParamExpression == 0:
		return p.parseBareNameParam(lex, first)
	default:
		return p.parseExprFrom(lex, first)
	}
}

// parseBareNameParam handles a slot that is just a name with no storage of
// its own: a `function`/`declareCB` name, or `callback`'s target name. It
// interns the identifier into the external-function name table (so calls,
// even forward-referenced ones, can later resolve it by the same index) and
// emits an ExternalFunc token carrying that index.
func (p *Parser) parseBareNameParam(lex *Lexer, nameLx Lexeme) *Error {
	if nameLx.Kind != LexIdentifier {
		return NewError(nameLx.Pos, ErrCmdParameterMissing, "identifier expected")
	}
	if _, isCmd := commandTable[nameLx.Text]; isCmd {
		return NewError(nameLx.Pos, ErrResWordNotAllowedHere, "reserved word used as identifier")
	}
	funcIdx, err := p.Tables.ExternFuncNames.Intern(nameLx.Text)
	if err != nil {
		return NewError(nameLx.Pos, ErrOther, err.Error())
	}
	_, perr := p.emit(token.Token{Kind: token.KindExternalFunc, FuncIndex: uint16(funcIdx)}, nameLx.Pos)
	return perr
}

// parseDeclareOrName handles var/static/local/function/declareCB/callback
// name parameters: a bare identifier, optionally followed by an array
// dimension list for var/static/local.
func (p *Parser) parseDeclareOrName(lex *Lexer, nameLx Lexeme) *Error {
	if nameLx.Kind != LexIdentifier {
		return NewError(nameLx.Pos, ErrCmdParameterMissing, "identifier expected")
	}
	if _, isCmd := commandTable[nameLx.Text]; isCmd {
		return NewError(nameLx.Pos, ErrResWordNotAllowedHere, "reserved word used as identifier")
	}

	dims := 0
	save := *lex
	nxt, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	isArray := nxt.Kind == LexLParen
	if !isArray {
		*lex = save
	} else {
		p.parens.Push(ParenFrame{Kind: ParenArrayDimDecl, Name: nameLx.Text, OpenPos: nxt.Pos})
		// Reserve the dims-count marker before any dimension expression is
		// emitted (its count isn't known until the closing `)`), the same
		// reserve-then-patch idiom block tokens use for JumpStep.
		markerStep, perr := p.emit(token.Token{Kind: token.KindArrayDims}, nxt.Pos)
		if perr != nil {
			return perr
		}
		for {
			dimLx, lexErr := lex.Next()
			if lexErr != nil {
				return lexErr
			}
			if dimLx.Kind == LexRParen {
				break
			}
			if dims > 0 {
				if dimLx.Kind != LexComma {
					return NewError(dimLx.Pos, ErrArrayUseWrongDimCount, "expected , between dimensions")
				}
				dimLx, lexErr = lex.Next()
				if lexErr != nil {
					return lexErr
				}
			}
			if err := p.parseExprFrom(lex, dimLx); err != nil {
				return err
			}
			dims++
			if dims > vars.MaxArrayDims {
				return NewError(nxt.Pos, ErrArrayDefMaxDimsExceeded, "too many array dimensions")
			}
		}
		p.parens.Pop()
		if err := p.Buf.PatchArrayDims(markerStep, dims); err != nil {
			return NewError(nxt.Pos, ErrOther, err.Error())
		}
	}

	return p.declareName(nameLx, isArray, dims)
}

// declareName creates the variable in whichever scope is currently active
// (static/local take the function's FunctionScope; otherwise global at
// program-load time, user in immediate mode) and emits its Variable token.
// dims is the declared dimension count (0 for a scalar), carried on the
// token itself so the flow package can re-evaluate exactly that many
// dimension sub-expressions when it executes this declaration.
func (p *Parser) declareName(nameLx Lexeme, isArray bool, dims int) *Error {
	var scope token.Scope
	var nameIdx, valIdx int
	var err error

	switch {
	case p.currentFunc != nil && p.inStaticDecl:
		scope = token.ScopeStatic
		start := p.Tables.Statics.Allocate(1, vars.TypeByte{Scope: token.ScopeStatic, IsArray: isArray})
		nameIdx, err = p.currentFunc.DeclareStatic(p.Tables, nameLx.Text, start)
		valIdx = start
	case p.currentFunc != nil && p.inLocalDecl:
		scope = token.ScopeLocal
		nameIdx, valIdx, err = p.currentFunc.DeclareLocal(p.Tables, nameLx.Text)
	case p.immediateMode:
		scope = token.ScopeUser
		valIdx, err = p.Tables.CreateUser(nameLx.Text, isArray)
		if err == nil {
			nameIdx, _ = p.Tables.UserNames.Lookup(nameLx.Text)
		}
	default:
		scope = token.ScopeGlobal
		valIdx, err = p.Tables.CreateGlobal(nameLx.Text, isArray)
		if err == nil {
			nameIdx, _ = p.Tables.ProgramNames.Lookup(nameLx.Text)
		}
	}

	if err == vars.ErrVarRedeclared {
		return NewError(nameLx.Pos, ErrVarRedeclared, "variable already declared: "+nameLx.Text)
	}
	if err != nil {
		return NewError(nameLx.Pos, ErrOther, err.Error())
	}

	_, perr := p.emit(token.Token{
		Kind:       token.KindVariable,
		VarScope:   scope,
		IsArray:    isArray,
		Dims:       byte(dims),
		NameIndex:  byte(nameIdx),
		ValueIndex: byte(valIdx),
	}, nameLx.Pos)
	return perr
}

// parseExistingVarRef handles delVar's argument: a name that must already
// resolve to a declared variable (not a fresh declaration).
func (p *Parser) parseExistingVarRef(lex *Lexer, nameLx Lexeme) *Error {
	if nameLx.Kind != LexIdentifier {
		return NewError(nameLx.Pos, ErrCmdParameterMissing, "identifier expected")
	}
	scope, valIdx, nameIdx, ok := p.resolveForRead(nameLx.Text)
	if !ok {
		return NewError(nameLx.Pos, ErrVarNotDeclared, "variable not declared: "+nameLx.Text)
	}
	_, err := p.emit(token.Token{
		Kind:       token.KindVariable,
		VarScope:   scope,
		NameIndex:  byte(nameIdx),
		ValueIndex: byte(valIdx),
	}, nameLx.Pos)
	return err
}

func (p *Parser) resolveForRead(name string) (scope token.Scope, valIdx, nameIdx int, ok bool) {
	if p.currentFunc != nil {
		s, v, err := p.Tables.ResolveInFunction(p.currentFunc, name)
		if err == nil {
			nameIdx, _ = p.Tables.ProgramNames.Lookup(name)
			return s, v, nameIdx, true
		}
	}
	s, v, err := p.Tables.ResolveTopLevel(name, p.immediateMode)
	if err != nil {
		return 0, 0, 0, false
	}
	if s == token.ScopeUser {
		nameIdx, _ = p.Tables.UserNames.Lookup(name)
	} else {
		nameIdx, _ = p.Tables.ProgramNames.Lookup(name)
	}
	return s, v, nameIdx, true
}

