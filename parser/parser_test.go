package parser

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/justina-lang/justina/token"
)

func newTestParser(t *testing.T) *Parser {
	t.Helper()
	return NewParser(token.NewBuffer())
}

func TestParseGlobalVarDeclaration(t *testing.T) {
	p := newTestParser(t)
	err := p.ParseStatement("var count")
	require.Nil(t, err)
	require.Equal(t, 1, p.Tables.Globals.Len())
}

func TestParseVarRedeclarationFails(t *testing.T) {
	p := newTestParser(t)
	require.Nil(t, p.ParseStatement("var count"))
	err := p.ParseStatement("var count")
	require.NotNil(t, err)
	require.Equal(t, ErrVarRedeclared, err.Kind)
}

func TestParseImmediateExpressionStatement(t *testing.T) {
	p := newTestParser(t)
	p.SetImmediateMode(true)
	err := p.ParseStatement("3 + 4 * 2")
	require.Nil(t, err)
}

func TestIfElseEndPatchesJumps(t *testing.T) {
	p := newTestParser(t)
	require.Nil(t, p.ParseStatement("if 1"))
	require.Len(t, p.blocks, 1)
	require.Nil(t, p.ParseStatement("else"))
	require.Len(t, p.blocks, 1)
	require.Nil(t, p.ParseStatement("end"))
	require.Len(t, p.blocks, 0)
}

func TestEndWithoutOpenBlockErrors(t *testing.T) {
	p := newTestParser(t)
	err := p.ParseStatement("end")
	require.NotNil(t, err)
	require.Equal(t, ErrNoOpenBlock, err.Kind)
}

func TestBreakOutsideLoopErrors(t *testing.T) {
	p := newTestParser(t)
	err := p.ParseStatement("break")
	require.NotNil(t, err)
	require.Equal(t, ErrNotAllowedInThisOpenBlock, err.Kind)
}

func TestStaticOutsideFunctionErrors(t *testing.T) {
	p := newTestParser(t)
	err := p.ParseStatement("static x")
	require.NotNil(t, err)
	require.Equal(t, ErrOnlyInsideFunction, err.Kind)
}

func TestDelVarRequiresExistingVariable(t *testing.T) {
	p := newTestParser(t)
	err := p.ParseStatement("delVar ghost")
	require.NotNil(t, err)
	require.Equal(t, ErrVarNotDeclared, err.Kind)

	require.Nil(t, p.ParseStatement("var ghost"))
	require.Nil(t, p.ParseStatement("delVar ghost"))
}

func TestInternalFunctionCallParses(t *testing.T) {
	p := newTestParser(t)
	p.SetImmediateMode(true)
	err := p.ParseStatement("sin(1)")
	require.Nil(t, err)
}

func TestScalarArrayArgInconsistencyErrors(t *testing.T) {
	p := newTestParser(t)
	require.Nil(t, p.ParseStatement("var a(3)"))
	require.Nil(t, p.ParseStatement("var b"))
	p.SetImmediateMode(true)
	require.Nil(t, p.ParseStatement("len(a)"))
	err := p.ParseStatement("len(b)")
	require.NotNil(t, err)
	require.Equal(t, ErrFcnScalarAndArrayArgOrderNotConsistent, err.Kind)
}

func TestTerminalLookupRoundTrip(t *testing.T) {
	group, idx, entry, ok := LookupTerminal("^^")
	require.True(t, ok)
	require.Equal(t, "^^", entry.Text)
	back, ok := TerminalByIndex(group, idx)
	require.True(t, ok)
	require.Equal(t, entry, back)
}
