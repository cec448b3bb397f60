package flow

import (
	"testing"
	"time"

	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/host"
	"github.com/justina-lang/justina/parser"
	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
	"github.com/stretchr/testify/require"
)

// testOutput is an in-memory host.OutputStream, capturing everything
// `print`/`vars`/`info` write for assertions.
type testOutput struct {
	data []byte
}

func (o *testOutput) WriteByte(b byte) error { o.data = append(o.data, b); return nil }
func (o *testOutput) Print(d []byte) (int, error) {
	o.data = append(o.data, d...)
	return len(d), nil
}
func (o *testOutput) Println() error        { o.data = append(o.data, '\n'); return nil }
func (o *testOutput) Flush() error          { return nil }
func (o *testOutput) WriteError() error     { return nil }
func (o *testOutput) ClearWriteError()      {}
func (o *testOutput) AvailableForWrite() int { return 4096 }

// testInput is an in-memory host.InputStream for `input`.
type testInput struct {
	data []byte
	pos  int
}

func (in *testInput) Read() (byte, bool, error) {
	if in.pos >= len(in.data) {
		return 0, false, nil
	}
	b := in.data[in.pos]
	in.pos++
	return b, true, nil
}
func (in *testInput) Peek() (byte, bool, error) {
	if in.pos >= len(in.data) {
		return 0, false, nil
	}
	return in.data[in.pos], true, nil
}
func (in *testInput) Available() int             { return len(in.data) - in.pos }
func (in *testInput) SetTimeout(d time.Duration) {}

// newTestEngine parses lines as one top-level program (not immediate mode)
// and wires an Engine over the result, matching how the root main.go (via loader.Load) loads a
// whole program before running it.
func newTestEngine(t *testing.T, lines []string) (*parser.Parser, *Engine, *testOutput) {
	t.Helper()
	buf := token.NewBuffer()
	p := parser.NewParserWithBuiltins(buf, eval.BuiltinNames())
	for _, ln := range lines {
		err := p.ParseStatement(ln)
		require.Nil(t, err, "parsing %q: %v", ln, err)
	}
	require.Nil(t, p.Finish())

	out := &testOutput{}
	h := &host.Host{Out: out}
	e := NewEngine(p.Tables, p.Buf, h, eval.NewBuiltinTable(), p.Functions)
	return p, e, out
}

// globalValue resolves name as a top-level global and returns its current
// value, failing the test if it isn't one.
func globalValue(t *testing.T, p *parser.Parser, name string) vars.Value {
	t.Helper()
	scope, idx, err := p.Tables.ResolveTopLevel(name, false)
	require.NoError(t, err, "variable %s not found", name)
	require.Equal(t, token.ScopeGlobal, scope)
	slot, serr := p.Tables.Globals.Get(idx)
	require.NoError(t, serr)
	return slot.Value
}

func TestIfElseIfElseChain(t *testing.T) {
	cases := []struct {
		x    int32
		want int32
	}{
		{1, 10}, // if branch
		{2, 20}, // elseif branch
		{3, 30}, // else branch
	}
	for _, c := range cases {
		lines := []string{
			"var x, y",
			"x = " + itoa(c.x),
			"if x == 1",
			"y = 10",
			"elseif x == 2",
			"y = 20",
			"else",
			"y = 30",
			"end",
		}
		p, e, _ := newTestEngine(t, lines)
		require.NoError(t, e.RunProgram())
		require.Equal(t, c.want, globalValue(t, p, "y").Long)
	}
}

func TestWhileZeroIterations(t *testing.T) {
	lines := []string{
		"var n",
		"n = 0",
		"while n > 0",
		"n = n + 1",
		"end",
	}
	p, e, _ := newTestEngine(t, lines)
	require.NoError(t, e.RunProgram())
	require.EqualValues(t, 0, globalValue(t, p, "n").Long)
}

func TestWhileCountsUp(t *testing.T) {
	lines := []string{
		"var n",
		"n = 0",
		"while n < 5",
		"n = n + 1",
		"end",
	}
	p, e, _ := newTestEngine(t, lines)
	require.NoError(t, e.RunProgram())
	require.EqualValues(t, 5, globalValue(t, p, "n").Long)
}

func TestForLoopAscending(t *testing.T) {
	lines := []string{
		"var sum, down",
		"sum = 0",
		"down = 0",
		"for sum to 3",
		"down = down + sum",
		"end",
	}
	p, e, _ := newTestEngine(t, lines)
	require.NoError(t, e.RunProgram())
	// sum runs 0,1,2,3 (fixed bound evaluated once at loop entry): down
	// accumulates each value the control variable takes, 0+1+2+3 = 6.
	require.EqualValues(t, 6, globalValue(t, p, "down").Long)
}

func TestForLoopZeroIterations(t *testing.T) {
	lines := []string{
		"var i, ran",
		"i = 5",
		"ran = 0",
		"for i to 1",
		"ran = 1",
		"end",
	}
	p, e, _ := newTestEngine(t, lines)
	require.NoError(t, e.RunProgram())
	require.EqualValues(t, 0, globalValue(t, p, "ran").Long)
	require.EqualValues(t, 5, globalValue(t, p, "i").Long)
}

func TestBreakExitsLoop(t *testing.T) {
	lines := []string{
		"var i, hits",
		"i = 0",
		"hits = 0",
		"while i < 10",
		"i = i + 1",
		"if i == 3",
		"break",
		"end",
		"hits = hits + 1",
		"end",
	}
	p, e, _ := newTestEngine(t, lines)
	require.NoError(t, e.RunProgram())
	require.EqualValues(t, 3, globalValue(t, p, "i").Long)
	require.EqualValues(t, 2, globalValue(t, p, "hits").Long)
}

func TestContinueSkipsRestOfBody(t *testing.T) {
	lines := []string{
		"var i, odd",
		"i = 0",
		"odd = 0",
		"while i < 5",
		"i = i + 1",
		"if i == 2",
		"continue",
		"end",
		"odd = odd + i",
		"end",
	}
	p, e, _ := newTestEngine(t, lines)
	require.NoError(t, e.RunProgram())
	// i runs 1..5; i==2 is skipped via continue, so odd = 1+3+4+5.
	require.EqualValues(t, 13, globalValue(t, p, "odd").Long)
}

func TestFunctionCallWithDefaultParameter(t *testing.T) {
	lines := []string{
		"function addTo(base, inc = 10)",
		"return base + inc",
		"end",
		"var r1, r2",
		"r1 = addTo(5)",
		"r2 = addTo(5, 1)",
	}
	p, e, _ := newTestEngine(t, lines)
	require.NoError(t, e.RunProgram())
	require.EqualValues(t, 15, globalValue(t, p, "r1").Long)
	require.EqualValues(t, 6, globalValue(t, p, "r2").Long)
}

func TestArrayDeclarationAndAssignment(t *testing.T) {
	lines := []string{
		"var a(3)",
		"a(1) = 11",
		"a(2) = 22",
		"a(3) = 33",
		"var total",
		"total = a(1) + a(2) + a(3)",
	}
	p, e, _ := newTestEngine(t, lines)
	require.NoError(t, e.RunProgram())
	require.EqualValues(t, 66, globalValue(t, p, "total").Long)
}

func TestClearVarsResetsCounters(t *testing.T) {
	lines := []string{
		`var a(3), s`,
		`a(1) = 11`,
		`a(2) = 22`,
		`s = "hello"`,
		`clearVars`,
	}
	p, e, _ := newTestEngine(t, lines)
	require.NoError(t, e.RunProgram())
	require.True(t, p.Tables.Acc.IsClean(), "clearVars should free every owned heap object")
}

func itoa(n int32) string {
	if n == 0 {
		return "0"
	}
	neg := n < 0
	if neg {
		n = -n
	}
	var buf [12]byte
	i := len(buf)
	for n > 0 {
		i--
		buf[i] = byte('0' + n%10)
		n /= 10
	}
	if neg {
		i--
		buf[i] = '-'
	}
	return string(buf[i:])
}
