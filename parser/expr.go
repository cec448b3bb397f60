package parser

import (
	"strconv"
	"strings"

	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
)

// parseExprStatement parses a bare expression (an assignment or plain value
// expression typed without a leading command keyword, e.g. immediate-mode
// `x = 5` or `sin(3)`) occupying an entire statement.
func (p *Parser) parseExprStatement(lex *Lexer) *Error {
	first, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	if first.Kind == LexEOF {
		return nil
	}
	if err := p.parseExprFrom(lex, first); err != nil {
		return err
	}
	trailing, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	if trailing.Kind != LexEOF {
		return NewError(trailing.Pos, ErrTokenNotRecognised, "unexpected token after expression")
	}
	return nil
}

// parseExprFrom parses one expression starting with the already-consumed
// lexeme first, emitting tokens in source order. Operator priority and
// associativity are NOT applied here: they ride along as OpFlags on each
// emitted Terminal token for the eval package's runtime
// operator-precedence engine to use (spec.md §4.3/§5). parseExprFrom stops
// without consuming a top-level comma, a closing paren belonging to an
// enclosing call/subscript/group, or EOF, so callers that manage their own
// comma-separated lists (parseSlots, call-argument parsing) see it still in
// the lexer's lookahead.
func (p *Parser) parseExprFrom(lex *Lexer, first Lexeme) *Error {
	if err := p.parseUnaryChain(lex, first); err != nil {
		return err
	}
	for {
		save := *lex
		nxt, lexErr := lex.Next()
		if lexErr != nil {
			return lexErr
		}
		if nxt.Kind != LexOperator && nxt.Kind != LexIdentifier {
			*lex = save
			return nil
		}
		group, idx, entry, ok := LookupTerminal(nxt.Text)
		structural := nxt.Text == "to" || nxt.Text == "step"
		if !ok || (entry.Flags.InfixPriority == 0 && !structural) {
			*lex = save
			return nil
		}
		if _, err := p.emit(token.Token{Kind: token.KindTerminal, TermGroup: group, TermIndex: idx}, nxt.Pos); err != nil {
			return err
		}
		operandFirst, lexErr := lex.Next()
		if lexErr != nil {
			return lexErr
		}
		if err := p.parseUnaryChain(lex, operandFirst); err != nil {
			return err
		}
	}
}

// parseUnaryChain consumes a run of prefix operators (not, ~, unary +/-,
// prefix ++/--) ahead of one primary operand.
func (p *Parser) parseUnaryChain(lex *Lexer, first Lexeme) *Error {
	lx := first
	for lx.Kind == LexOperator || lx.Kind == LexIdentifier {
		group, idx, entry, ok := LookupTerminal(lx.Text)
		if !ok || entry.Flags.PrefixPriority == 0 {
			break
		}
		if _, err := p.emit(token.Token{Kind: token.KindTerminal, TermGroup: group, TermIndex: idx}, lx.Pos); err != nil {
			return err
		}
		nxt, lexErr := lex.Next()
		if lexErr != nil {
			return lexErr
		}
		lx = nxt
	}
	return p.parsePrimary(lex, lx)
}

// parsePrimary parses one operand: a literal, a parenthesized
// sub-expression, or an identifier (reserved word use is rejected; internal
// function / external function / variable / generic name are
// disambiguated by table lookup, per spec.md §4.2).
func (p *Parser) parsePrimary(lex *Lexer, lx Lexeme) *Error {
	switch lx.Kind {
	case LexNumber:
		return p.emitNumberConstant(lx)
	case LexString:
		return p.emitStringConstant(lx)
	case LexLParen:
		return p.parseBareGroup(lex, lx)
	case LexIdentifier:
		return p.parseIdentifierPrimary(lex, lx)
	default:
		return NewError(lx.Pos, ErrTokenNotRecognised, "expression expected")
	}
}

func (p *Parser) parseBareGroup(lex *Lexer, openLx Lexeme) *Error {
	p.parens.Push(ParenFrame{Kind: ParenBareExpr, OpenPos: openLx.Pos})
	inner, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	if err := p.parseExprFrom(lex, inner); err != nil {
		return err
	}
	closeLx, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	if closeLx.Kind != LexRParen {
		return NewError(openLx.Pos, ErrMissingRightParenthesis, "missing closing )")
	}
	p.parens.Pop()
	return nil
}

func (p *Parser) emitNumberConstant(lx Lexeme) *Error {
	text := lx.Text
	switch {
	case strings.HasPrefix(text, "0x") || strings.HasPrefix(text, "0X"):
		v, err := strconv.ParseInt(text[2:], 16, 64)
		if err != nil {
			return NewError(lx.Pos, ErrNumberInvalidFormat, "invalid hex literal")
		}
		if v > 0xFFFFFFFF {
			return NewError(lx.Pos, ErrOverflow, "hex literal overflow")
		}
		_, perr := p.emit(token.Token{Kind: token.KindConstant, ValType: token.ValueLong, LongVal: int32(uint32(v))}, lx.Pos)
		return perr
	case strings.HasPrefix(text, "0b") || strings.HasPrefix(text, "0B"):
		v, err := strconv.ParseInt(text[2:], 2, 64)
		if err != nil {
			return NewError(lx.Pos, ErrNumberInvalidFormat, "invalid binary literal")
		}
		_, perr := p.emit(token.Token{Kind: token.KindConstant, ValType: token.ValueLong, LongVal: int32(uint32(v))}, lx.Pos)
		return perr
	case strings.ContainsAny(text, ".eE"):
		f, err := strconv.ParseFloat(text, 32)
		if err != nil {
			return NewError(lx.Pos, ErrNumberInvalidFormat, "invalid float literal")
		}
		_, perr := p.emit(token.Token{Kind: token.KindConstant, ValType: token.ValueFloat, FloatVal: float32(f)}, lx.Pos)
		return perr
	default:
		n, err := strconv.ParseInt(text, 10, 64)
		if err != nil || n > 1<<31-1 || n < -(1<<31) {
			return NewError(lx.Pos, ErrOverflow, "integer literal overflow")
		}
		_, perr := p.emit(token.Token{Kind: token.KindConstant, ValType: token.ValueLong, LongVal: int32(n)}, lx.Pos)
		return perr
	}
}

func (p *Parser) emitStringConstant(lx Lexeme) *Error {
	hs := vars.NewHeapString(p.Tables.Acc, vars.ClassParsedConstStr, lx.Text)
	handle := p.Heap.Register(hs)
	_, err := p.emit(token.Token{Kind: token.KindConstant, ValType: token.ValueString, StrHandle: handle}, lx.Pos)
	return err
}

func (p *Parser) parseIdentifierPrimary(lex *Lexer, nameLx Lexeme) *Error {
	name := nameLx.Text
	if _, isCmd := commandTable[name]; isCmd {
		return NewError(nameLx.Pos, ErrResWordNotAllowedHere, "reserved word not allowed here")
	}

	if funcIdx, ok := p.Tables.InternalFuncs.Lookup(name); ok {
		return p.parseInternalCall(lex, nameLx, funcIdx)
	}

	if scope, valIdx, nameIdx, ok := p.resolveForRead(name); ok {
		return p.parseVariableUse(lex, nameLx, scope, valIdx, nameIdx)
	}

	save := *lex
	nxt, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	if nxt.Kind == LexLParen {
		return p.parseExternalCall(lex, nameLx, nxt)
	}
	*lex = save

	// Not a declared variable and not followed by a call: a forward
	// reference or otherwise unclassified name (spec.md §3.1 GenericName).
	hs := vars.NewHeapString(p.Tables.Acc, vars.ClassSystemStr, name)
	handle := p.Heap.Register(hs)
	_, err := p.emit(token.Token{Kind: token.KindGenericName, NameHandle: handle}, nameLx.Pos)
	return err
}

func (p *Parser) parseVariableUse(lex *Lexer, nameLx Lexeme, scope token.Scope, valIdx, nameIdx int) *Error {
	isArray, _ := p.isDeclaredArray(scope, valIdx)

	save := *lex
	nxt, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	subscripted := isArray && nxt.Kind == LexLParen
	if !subscripted {
		*lex = save
	}

	if _, err := p.emit(token.Token{
		Kind:       token.KindVariable,
		VarScope:   scope,
		IsArray:    isArray,
		NameIndex:  byte(nameIdx),
		ValueIndex: byte(valIdx),
	}, nameLx.Pos); err != nil {
		return err
	}

	if !subscripted {
		return nil
	}

	p.parens.Push(ParenFrame{Kind: ParenArraySubscript, Name: nameLx.Text, OpenPos: nxt.Pos})
	count := 0
	for {
		itemLx, lexErr := lex.Next()
		if lexErr != nil {
			return lexErr
		}
		if itemLx.Kind == LexRParen {
			break
		}
		if count > 0 {
			if itemLx.Kind != LexComma {
				return NewError(itemLx.Pos, ErrArrayUseWrongDimCount, "expected , between subscripts")
			}
			itemLx, lexErr = lex.Next()
			if lexErr != nil {
				return lexErr
			}
		}
		if err := p.parseExprFrom(lex, itemLx); err != nil {
			return err
		}
		count++
	}
	p.parens.Pop()
	return nil
}

func (p *Parser) isDeclaredArray(scope token.Scope, valIdx int) (bool, error) {
	switch scope {
	case token.ScopeGlobal:
		slot, err := p.Tables.Globals.Get(valIdx)
		return slot.Type.IsArray, err
	case token.ScopeUser:
		slot, err := p.Tables.Users.Get(valIdx)
		return slot.Type.IsArray, err
	case token.ScopeStatic:
		slot, err := p.Tables.Statics.Get(valIdx)
		return slot.Type.IsArray, err
	default:
		// Local/parameter array-ness is tracked by the function's own
		// frame layout (flow package), not visible to the parser at this
		// point in the single-pass design; treated as scalar here.
		return false, nil
	}
}

// parseInternalCall handles name(arg, arg, ...) where name is a known
// internal (builtin) function.
func (p *Parser) parseInternalCall(lex *Lexer, nameLx Lexeme, funcIdx int) *Error {
	openLx, lexErr := lex.Next()
	if lexErr != nil {
		return lexErr
	}
	if openLx.Kind != LexLParen {
		return NewError(openLx.Pos, ErrParenthesisNotAllowedHere, "( expected after "+nameLx.Text)
	}
	if _, err := p.emit(token.Token{Kind: token.KindInternalFunc, FuncIndex: uint16(funcIdx)}, nameLx.Pos); err != nil {
		return err
	}
	mask := p.InternalMasks.Get(funcIdx)
	return p.parseCallArgs(lex, openLx, mask)
}

// parseExternalCall handles name(arg, ...) where name is not (yet) a known
// variable or internal function: it is registered (or reused) as an
// external function name, resolvable even before its `function` definition
// is parsed (spec.md §4.2.3 forward references).
func (p *Parser) parseExternalCall(lex *Lexer, nameLx, openLx Lexeme) *Error {
	funcIdx, err := p.Tables.ExternFuncNames.Intern(nameLx.Text)
	if err != nil {
		return NewError(nameLx.Pos, ErrOther, err.Error())
	}
	if _, perr := p.emit(token.Token{Kind: token.KindExternalFunc, FuncIndex: uint16(funcIdx)}, nameLx.Pos); perr != nil {
		return perr
	}
	mask := p.ExternalMasks.Get(funcIdx)
	return p.parseCallArgs(lex, openLx, mask)
}

// parseCallArgs parses a comma-separated, parenthesized argument list,
// tracking each position's scalar/array shape against mask.
func (p *Parser) parseCallArgs(lex *Lexer, openLx Lexeme, mask *ScalarArrayMask) *Error {
	p.parens.Push(ParenFrame{Kind: ParenInternalCall, OpenPos: openLx.Pos})
	defer p.parens.Pop()

	pos := 0
	for {
		argLx, lexErr := lex.Next()
		if lexErr != nil {
			return lexErr
		}
		if argLx.Kind == LexRParen {
			break
		}
		if pos > 0 {
			if argLx.Kind != LexComma {
				return NewError(argLx.Pos, ErrWrongArgCount, "expected , between arguments")
			}
			argLx, lexErr = lex.Next()
			if lexErr != nil {
				return lexErr
			}
		}
		isArray, err := p.parseCallArg(lex, argLx)
		if err != nil {
			return err
		}
		if !mask.Observe(pos, isArray) {
			return NewError(argLx.Pos, ErrFcnScalarAndArrayArgOrderNotConsistent, "argument shape differs from an earlier call")
		}
		pos++
		if pos > maxExternalFuncArgs {
			return NewError(openLx.Pos, ErrWrongArgCount, "too many arguments")
		}
	}
	return nil
}

// parseCallArg parses one call argument, reporting whether it was passed
// as a bare (unsubscripted) array variable.
func (p *Parser) parseCallArg(lex *Lexer, first Lexeme) (isArray bool, err *Error) {
	if first.Kind == LexIdentifier {
		if _, isCmd := commandTable[first.Text]; !isCmd {
			if scope, valIdx, nameIdx, ok := p.resolveForRead(first.Text); ok {
				declaredArray, _ := p.isDeclaredArray(scope, valIdx)
				if declaredArray {
					save := *lex
					nxt, lexErr := lex.Next()
					if lexErr != nil {
						return false, lexErr
					}
					if nxt.Kind != LexLParen {
						*lex = save
						_, perr := p.emit(token.Token{
							Kind:       token.KindVariable,
							VarScope:   scope,
							IsArray:    true,
							NameIndex:  byte(nameIdx),
							ValueIndex: byte(valIdx),
						}, first.Pos)
						return true, perr
					}
					*lex = save
				}
			}
		}
	}
	return false, p.parseExprFrom(lex, first)
}
