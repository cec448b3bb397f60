package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/parser"
	"github.com/justina-lang/justina/token"
)

// LintLevel represents the severity of a lint issue.
type LintLevel int

const (
	LintError   LintLevel = iota // parse/placement/declaration errors from the real parser
	LintWarning                  // unreachable code, unused declarations
	LintInfo                     // style suggestions
)

func (l LintLevel) String() string {
	switch l {
	case LintError:
		return "error"
	case LintWarning:
		return "warning"
	case LintInfo:
		return "info"
	default:
		return "unknown"
	}
}

// LintIssue represents a single lint finding.
type LintIssue struct {
	Level   LintLevel
	Line    int
	Column  int
	Message string
	Code    string // e.g. "varNotDeclared", "UNREACHABLE_CODE", "UNUSED_VAR"
}

func (i *LintIssue) String() string {
	return fmt.Sprintf("line %d:%d: %s: %s [%s]", i.Line, i.Column, i.Level, i.Message, i.Code)
}

// LintOptions controls linter behavior.
type LintOptions struct {
	CheckUnused  bool // warn about declared-but-unreferenced variables
	CheckReach   bool // warn about code after return/break/continue/halt/stop/quit
	SuggestFixes bool // has no effect: the linter produces no fix suggestions
}

// DefaultLintOptions returns default linter options.
func DefaultLintOptions() *LintOptions {
	return &LintOptions{
		CheckUnused:  true,
		CheckReach:   true,
		SuggestFixes: true,
	}
}

// blockFrame describes one open block (kind and start line), mirroring
// parser.Parser's own BlockFrame loosely. Linter.blocks holds a slice of
// them, but no pass reads or fills it: block balance is reported only
// through the real parser's errors.
type blockFrame struct {
	kind      string
	startLine int
}

// Linter analyzes Justina source for issues beyond what the parser itself
// catches on the happy path: it runs the real parser.Parser against the
// source line by line (so every parser.ErrorKind surfaces as a LintIssue),
// then layers unreachable-code and unused-variable passes on top using the
// same line-oriented, CommandSpecByName-driven walk tools.Formatter uses.
type Linter struct {
	options *LintOptions
	issues  []*LintIssue

	declared   map[string]int   // variable name -> line first declared
	referenced map[string][]int // variable name -> line numbers referenced
	blocks     []blockFrame
}

// NewLinter creates a new linter.
func NewLinter(options *LintOptions) *Linter {
	if options == nil {
		options = DefaultLintOptions()
	}
	return &Linter{
		options:    options,
		issues:     make([]*LintIssue, 0),
		declared:   make(map[string]int),
		referenced: make(map[string][]int),
	}
}

// Lint analyzes the given Justina source.
func (l *Linter) Lint(input, filename string) []*LintIssue {
	lines := strings.Split(input, "\n")

	l.runParser(lines)

	unreachableFromLine := -1
	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}

		if l.options.CheckReach && unreachableFromLine >= 0 {
			spec, isCmd := leadingCommand(trimmed)
			if !(isCmd && (spec.Role == parser.RoleBlockEnd || spec.Role == parser.RoleBlockMiddle)) {
				l.issues = append(l.issues, &LintIssue{
					Level:   LintWarning,
					Line:    lineNo,
					Column:  1,
					Message: fmt.Sprintf("unreachable code (preceded by an unconditional exit at line %d)", unreachableFromLine),
					Code:    "UNREACHABLE_CODE",
				})
			}
			unreachableFromLine = -1
		}

		l.scanDeclarationsAndReferences(trimmed, lineNo)

		if l.options.CheckReach && endsBlock(trimmed) {
			unreachableFromLine = lineNo
		}
	}

	if l.options.CheckUnused {
		l.checkUnusedVars()
	}

	sort.Slice(l.issues, func(i, j int) bool {
		if l.issues[i].Line == l.issues[j].Line {
			return l.issues[i].Column < l.issues[j].Column
		}
		return l.issues[i].Line < l.issues[j].Line
	})

	return l.issues
}

// runParser feeds every non-blank line through a fresh parser.Parser,
// collecting each line's error (if any) instead of stopping at the first
// one, so a single Lint call surfaces every parse/placement/declaration
// problem in the source rather than just the earliest.
func (l *Linter) runParser(lines []string) {
	buf := token.NewBuffer()
	p := parser.NewParserWithBuiltins(buf, eval.BuiltinNames())

	for i, raw := range lines {
		lineNo := i + 1
		if strings.TrimSpace(raw) == "" {
			continue
		}
		if err := p.ParseStatement(raw); err != nil {
			l.issues = append(l.issues, &LintIssue{
				Level:   LintError,
				Line:    lineNo,
				Column:  err.Pos.Column,
				Message: err.Message,
				Code:    err.Kind.String(),
			})
		}
	}
}

// scanDeclarationsAndReferences records var/static/local declarations and
// plain-identifier references for the unused-variable pass.
func (l *Linter) scanDeclarationsAndReferences(trimmed string, lineNo int) {
	word := firstWord(trimmed)
	declaring := word == "var" || word == "static" || word == "local"

	_, leadingIsCmd := parser.CommandSpecByName(word)

	lex := parser.NewLexer(trimmed)
	first := true
	for {
		tok, err := lex.Next()
		if err != nil || tok.Kind == parser.LexEOF {
			break
		}
		if tok.Kind != parser.LexIdentifier {
			first = false
			continue
		}
		if first {
			first = false
			if leadingIsCmd {
				continue // the leading keyword itself, e.g. "var"/"print"
			}
		} else if _, isCmd := parser.CommandSpecByName(tok.Text); isCmd {
			continue
		}

		if declaring {
			if _, exists := l.declared[tok.Text]; !exists {
				l.declared[tok.Text] = lineNo
			}
		} else {
			l.referenced[tok.Text] = append(l.referenced[tok.Text], lineNo)
		}
	}
}

// checkUnusedVars warns about var/static/local declarations with no
// reference anywhere else in the source.
func (l *Linter) checkUnusedVars() {
	for name, line := range l.declared {
		if _, used := l.referenced[name]; !used {
			l.issues = append(l.issues, &LintIssue{
				Level:   LintWarning,
				Line:    line,
				Column:  1,
				Message: fmt.Sprintf("variable '%s' declared but never referenced", name),
				Code:    "UNUSED_VAR",
			})
		}
	}
}

// endsBlock reports whether trimmed unconditionally exits its enclosing
// block, making the remainder of that block (up to its elseif/else/end)
// unreachable.
func endsBlock(trimmed string) bool {
	word := firstWord(trimmed)
	switch word {
	case "return", "break", "continue", "halt", "stop", "quit":
		return true
	}
	return false
}
