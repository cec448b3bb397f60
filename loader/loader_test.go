package loader

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadSimpleProgram(t *testing.T) {
	src := "var x\n\nx = 1 + 2\n"
	prog, err := Load(strings.NewReader(src))
	require.NoError(t, err)

	require.Contains(t, prog.StepOfLine, 1, "var x should record a step")
	require.NotContains(t, prog.StepOfLine, 2, "blank line should not record a step")
	require.Contains(t, prog.StepOfLine, 3)

	line, text, ok := prog.SourceAt(prog.StepOfLine[3])
	require.True(t, ok)
	require.Equal(t, 3, line)
	require.Equal(t, "x = 1 + 2", text)
}

func TestLoadRejectsBadSyntax(t *testing.T) {
	_, err := Load(strings.NewReader("if x ==\n"))
	require.Error(t, err)
}
