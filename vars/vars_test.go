package vars

import (
	"testing"

	"github.com/justina-lang/justina/token"
	"github.com/stretchr/testify/require"
)

func TestHeapCounterConservation(t *testing.T) {
	acc := NewAccounting()
	tables := NewTables(acc, []string{"if", "end"}, []string{"len"})

	idx, err := tables.CreateGlobal("x", false)
	require.NoError(t, err)

	s := NewHeapString(acc, ClassVarStr, "hello")
	require.Equal(t, 1, acc.Count(ClassVarStr))
	require.NoError(t, tables.Globals.Set(idx, StringValue(s)))

	require.NoError(t, tables.DeleteGlobal("x"))
	require.Equal(t, 0, acc.Count(ClassVarStr))
	require.False(t, acc.IsClean()) // ProgramNames interning still holds "x"
}

func TestEmptyStringIsNilHandle(t *testing.T) {
	acc := NewAccounting()
	hs := NewHeapString(acc, ClassVarStr, "")
	require.Nil(t, hs)
	require.Equal(t, 0, acc.Count(ClassVarStr))
	require.Equal(t, "", hs.Value())
}

func TestScopeShadowing(t *testing.T) {
	acc := NewAccounting()
	tables := NewTables(acc, nil, nil)

	_, err := tables.CreateGlobal("x", false)
	require.NoError(t, err)
	require.NoError(t, tables.Globals.Set(mustLookupGlobalIdx(t, tables, "x"), LongValue(100)))

	fn := NewFunctionScope()
	_, frameIdx, err := fn.DeclareLocal(tables, "x")
	require.NoError(t, err)

	scope, idx, err := tables.ResolveInFunction(fn, "x")
	require.NoError(t, err)
	require.Equal(t, token.ScopeLocal, scope)
	require.Equal(t, frameIdx, idx)

	frame := NewFrame(fn.FrameSize())
	require.NoError(t, frame.Set(frameIdx, LongValue(7)))
	gotFrame, err := frame.Get(frameIdx)
	require.NoError(t, err)
	require.Equal(t, int32(7), gotFrame.Value.Long)

	gidx, err := tables.Globals.Get(mustLookupGlobalIdx(t, tables, "x"))
	require.NoError(t, err)
	require.Equal(t, int32(100), gidx.Value.Long)
}

func mustLookupGlobalIdx(t *testing.T, tables *Tables, name string) int {
	t.Helper()
	scope, idx, err := tables.ResolveTopLevel(name, false)
	require.NoError(t, err)
	require.Equal(t, token.ScopeGlobal, scope)
	return idx
}

func TestArrayValueTypeFixed(t *testing.T) {
	acc := NewAccounting()
	arr, err := NewArray(acc, []int{3}, KindString)
	require.NoError(t, err)

	err = arr.Set([]int{1}, LongValue(5))
	require.ErrorIs(t, err, ErrArrayValueTypeFixed)

	s := NewHeapString(acc, ClassVarStr, "x")
	require.NoError(t, arr.Set([]int{1}, StringValue(s)))
	require.Equal(t, 1, acc.Count(ClassVarStr))

	arr.Free()
	require.Equal(t, 0, acc.Count(ClassVarStr))
	require.Equal(t, 0, acc.Count(ClassArrayBlock))
}
