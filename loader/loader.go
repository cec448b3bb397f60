// Package loader reads Justina source text into a parser.Parser's token
// buffer, the step analogous to the teacher's LoadProgramIntoVM: instead of
// encoding assembly into machine words at fixed addresses, it feeds source
// lines one at a time through parser.Parser.ParseStatement and records
// where each source line's tokens begin, so a debugger can later map a
// breakpoint line number to a token.Step and back (mirroring the teacher's
// use of parser.Program's per-instruction Address to place encoded words).
package loader

import (
	"bufio"
	"fmt"
	"io"
	"strings"

	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/parser"
	"github.com/justina-lang/justina/token"
)

// Program is a fully parsed source file: the Parser that consumed it (its
// Tables/Buf/Functions are what flow.Engine runs against) plus a line-level
// source map for the debugger and `list` command.
type Program struct {
	Parser *parser.Parser

	// Lines holds the original source, one entry per line, 1-indexed by
	// convention (Lines[0] is unused) so line numbers in error messages and
	// breakpoint commands match editor line numbers directly.
	Lines []string

	// StepOfLine maps a 1-indexed source line to the token.Step its first
	// statement starts at. Blank/comment-only lines that produced no
	// tokens are absent.
	StepOfLine map[int]token.Step

	// LineOfStep is StepOfLine inverted, for presenting the current
	// statement during a debugging session.
	LineOfStep map[token.Step]int
}

// Load reads r line by line and parses it as a complete top-level program.
// It does not evaluate immediate-mode input; see LoadImmediate for that.
func Load(r io.Reader) (*Program, error) {
	buf := token.NewBuffer()
	p := parser.NewParserWithBuiltins(buf, eval.BuiltinNames())

	prog := &Program{
		Parser:     p,
		Lines:      []string{""},
		StepOfLine: make(map[int]token.Step),
		LineOfStep: make(map[token.Step]int),
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := scanner.Text()
		prog.Lines = append(prog.Lines, line)

		if strings.TrimSpace(line) == "" {
			continue
		}

		before := p.Buf.ProgramEnd
		if err := p.ParseStatement(line); err != nil {
			return nil, fmt.Errorf("loader: line %d: %w", lineNo, err)
		}
		after := p.Buf.ProgramEnd
		if after != before {
			prog.StepOfLine[lineNo] = before
			prog.LineOfStep[before] = lineNo
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("loader: reading source: %w", err)
	}
	if err := p.Finish(); err != nil {
		return nil, fmt.Errorf("loader: %w", err)
	}

	return prog, nil
}

// SourceAt returns the raw source line a token.Step's statement began on,
// for the debugger's `list`/breakpoint-hit display.
func (prog *Program) SourceAt(pc token.Step) (line int, text string, ok bool) {
	line, ok = prog.LineOfStep[pc]
	if !ok {
		return 0, "", false
	}
	if line < 0 || line >= len(prog.Lines) {
		return line, "", true
	}
	return line, prog.Lines[line], true
}
