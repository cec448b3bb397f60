package parser

import "github.com/justina-lang/justina/token"

// parseFunctionDecl handles the whole `function name(...)` header: the bare
// name (interned into ExternFuncNames exactly as parseBareNameParam would),
// then an optional parenthesized parameter list, then the trailing-EOF
// check parseSlots would otherwise perform.
func (p *Parser) parseFunctionDecl(lex *Lexer, cmdPos Position) *Error {
	nameLx, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	if nameLx.Kind != LexIdentifier {
		return NewError(nameLx.Pos, ErrCmdParameterMissing, "function name expected")
	}
	if _, isCmd := commandTable[nameLx.Text]; isCmd {
		return NewError(nameLx.Pos, ErrResWordNotAllowedHere, "reserved word used as identifier")
	}

	funcIdx, err := p.Tables.ExternFuncNames.Intern(nameLx.Text)
	if err != nil {
		return NewError(nameLx.Pos, ErrOther, err.Error())
	}
	if _, perr := p.emit(token.Token{Kind: token.KindExternalFunc, FuncIndex: uint16(funcIdx)}, nameLx.Pos); perr != nil {
		return perr
	}

	if err := p.parseFunctionHeader(lex, nameLx, funcIdx); err != nil {
		return err
	}
	p.finishFunctionHeader()

	trailing, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	if trailing.Kind != LexEOF {
		return NewError(trailing.Pos, ErrCmdHasTooManyParameters, "too many parameters for function")
	}
	return nil
}

// ParamInfo is one declared parameter of a function definition: its
// program-name index, frame slot, and (for a trailing optional parameter,
// spec.md §4.4/S2) where its default-value expression's tokens begin.
type ParamInfo struct {
	NameIndex   int
	FrameIndex  int
	HasDefault  bool
	DefaultStep token.Step
}

// FunctionDef is one fully-parsed `function ... end` definition, recorded
// by the parser as it parses the header and closed out once `end` is seen.
// The flow package's call-stack engine consumes Parser.Functions directly
// (rather than re-deriving this from the token stream) to bind arguments,
// evaluate missing optional parameters' defaults, and allocate call frames.
type FunctionDef struct {
	Name      string
	ExternIdx int
	Params    []ParamInfo
	FrameSize int
	BodyStep  token.Step
}

// pendingFunc accumulates one function definition's header while its body
// is being parsed; finalized into Parser.Functions when the matching `end`
// closes the block.
type pendingFunc struct {
	def FunctionDef
}

// parseFunctionHeader is called right after `function`'s bare-name slot has
// been parsed (which interned the name into ExternFuncNames and emitted its
// ExternalFunc token). It parses an optional `(name [= default], ...)`
// parameter list, declaring each parameter in the function's FunctionScope
// and recording default-value expression positions for S2-style optional
// trailing parameters.
func (p *Parser) parseFunctionHeader(lex *Lexer, nameLx Lexeme, externIdx int) *Error {
	def := FunctionDef{Name: nameLx.Text, ExternIdx: externIdx}

	save := *lex
	nxt, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	if nxt.Kind != LexLParen {
		*lex = save
		p.pending = &pendingFunc{def: def}
		return nil
	}

	p.parens.Push(ParenFrame{Kind: ParenInternalCall, Name: nameLx.Text, OpenPos: nxt.Pos})
	seenDefault := false
	pos := 0
	for {
		paramLx, lexErr := lex.Next()
		if lexErr != nil {
			return lexErr
		}
		if paramLx.Kind == LexRParen {
			break
		}
		if pos > 0 {
			if paramLx.Kind != LexComma {
				return NewError(paramLx.Pos, ErrWrongArgCount, "expected , between parameters")
			}
			paramLx, lexErr = lex.Next()
			if lexErr != nil {
				return lexErr
			}
		}
		if paramLx.Kind != LexIdentifier {
			return NewError(paramLx.Pos, ErrCmdParameterMissing, "parameter name expected")
		}
		if _, isCmd := commandTable[paramLx.Text]; isCmd {
			return NewError(paramLx.Pos, ErrResWordNotAllowedHere, "reserved word used as identifier")
		}

		nameIdx, frameIdx, derr := p.currentFunc.DeclareParam(p.Tables, paramLx.Text)
		if derr != nil {
			return NewError(paramLx.Pos, ErrVarRedeclared, derr.Error())
		}

		info := ParamInfo{NameIndex: nameIdx, FrameIndex: frameIdx}

		eqSave := *lex
		eqLx, lexErr := lex.Next()
		if lexErr != nil {
			return lexErr
		}
		if eqLx.Kind == LexOperator && eqLx.Text == "=" {
			seenDefault = true
			info.HasDefault = true
			info.DefaultStep = p.curStep()
			valLx, lexErr := lex.Next()
			if lexErr != nil {
				return lexErr
			}
			if err := p.parseExprFrom(lex, valLx); err != nil {
				return err
			}
		} else {
			if seenDefault {
				return NewError(paramLx.Pos, ErrWrongArgCount, "a required parameter cannot follow a default-valued one")
			}
			*lex = eqSave
		}

		def.Params = append(def.Params, info)
		pos++
	}
	p.parens.Pop()

	p.pending = &pendingFunc{def: def}
	return nil
}

// finishFunctionHeader records the body's starting step once the header
// (name, parameter list, default-value expressions) has been fully parsed
// and no more header tokens will be emitted.
func (p *Parser) finishFunctionHeader() {
	if p.pending == nil {
		return
	}
	p.pending.def.BodyStep = p.curStep()
}

// finalizeFunction closes out the pending definition when `end` closes a
// `function` block, recording its final frame size (now that every local
// declared in the body has been seen) into Parser.Functions.
func (p *Parser) finalizeFunction() {
	if p.pending == nil {
		return
	}
	p.pending.def.FrameSize = p.currentFunc.FrameSize()
	p.Functions = append(p.Functions, p.pending.def)
	p.pending = nil
}
