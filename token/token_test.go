package token

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestRoundTripEachKind(t *testing.T) {
	tests := []struct {
		name string
		tok  Token
	}{
		{"resword-no-jump", Token{Kind: KindResWord, CmdIndex: 7}},
		{"resword-with-jump", Token{Kind: KindResWord, CmdIndex: 3, HasJump: true, JumpStep: 1234}},
		{"internal-func", Token{Kind: KindInternalFunc, FuncIndex: 42}},
		{"external-func", Token{Kind: KindExternalFunc, FuncIndex: 5}},
		{"variable", Token{Kind: KindVariable, VarScope: ScopeLocal, IsArray: true, NameIndex: 9, ValueIndex: 200}},
		{"const-long", Token{Kind: KindConstant, ValType: ValueLong, LongVal: -12345}},
		{"const-float", Token{Kind: KindConstant, ValType: ValueFloat, FloatVal: 3.25}},
		{"const-string", Token{Kind: KindConstant, ValType: ValueString, StrHandle: 99}},
		{"generic-name", Token{Kind: KindGenericName, NameHandle: 555}},
		{"terminal", Token{Kind: KindTerminal, TermGroup: GroupOperator, TermIndex: 11}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := NewBuffer()
			next, err := buf.Write(0, tt.tok)
			require.NoError(t, err)
			require.Equal(t, Step(tt.tok.Len()), next)

			got, next2, err := buf.Read(0)
			require.NoError(t, err)
			require.Equal(t, next, next2)
			require.Equal(t, tt.tok, got)
		})
	}
}

func TestStatementAndProgramSentinels(t *testing.T) {
	buf := NewBuffer()
	pos, err := buf.Write(0, Token{Kind: KindConstant, ValType: ValueLong, LongVal: 1})
	require.NoError(t, err)

	pos, err = buf.WriteSemicolon(pos)
	require.NoError(t, err)
	require.True(t, buf.IsSemicolon(pos-1))

	_, err = buf.WriteEndOfProgram(pos)
	require.NoError(t, err)
	require.True(t, buf.IsEndOfProgram(pos))
}

func TestIterFromStopsAtSemicolon(t *testing.T) {
	buf := NewBuffer()
	pos, err := buf.Write(0, Token{Kind: KindConstant, ValType: ValueLong, LongVal: 1})
	require.NoError(t, err)
	pos, err = buf.Write(pos, Token{Kind: KindConstant, ValType: ValueLong, LongVal: 2})
	require.NoError(t, err)
	_, err = buf.WriteSemicolon(pos)
	require.NoError(t, err)

	next := IterFrom(buf, 0)
	count := 0
	for {
		_, _, done, err := next()
		require.NoError(t, err)
		if done {
			break
		}
		count++
	}
	require.Equal(t, 2, count)
}

func TestStepAddOverflow(t *testing.T) {
	s := Step(MaxBufferSize - 1)
	_, err := s.Add(2)
	require.Error(t, err)
}
