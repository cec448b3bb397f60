// Package tools implements developer-facing source utilities (formatter,
// linter, cross-referencer) for Justina source files, parallel to but
// independent from the parser/flow pipeline a running interpreter uses:
// these operate on source text directly rather than building a runnable
// token buffer, so a malformed program can still be reformatted or
// linted for diagnosis.
package tools

import (
	"fmt"
	"strings"

	"github.com/justina-lang/justina/parser"
)

// FormatStyle selects a formatting preset.
type FormatStyle int

const (
	FormatDefault  FormatStyle = iota // one indent level per block, single spaces
	FormatCompact                     // minimal whitespace, no block indentation
	FormatExpanded                    // wider indentation, spaces around every operator
)

// FormatOptions controls formatter behavior.
type FormatOptions struct {
	Style              FormatStyle
	IndentSize         int  // spaces per block-nesting level
	SpaceAroundOps     bool // pad binary/comparison operators with spaces
	PreserveEmptyLines bool // keep blank lines in the output
}

// DefaultFormatOptions returns the default formatter options.
func DefaultFormatOptions() *FormatOptions {
	return &FormatOptions{
		Style:              FormatDefault,
		IndentSize:         4,
		SpaceAroundOps:     true,
		PreserveEmptyLines: true,
	}
}

// CompactFormatOptions returns options for compact (no indent) formatting.
func CompactFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatCompact
	opts.IndentSize = 0
	opts.SpaceAroundOps = false
	opts.PreserveEmptyLines = false
	return opts
}

// ExpandedFormatOptions returns options for wide, heavily-spaced formatting.
func ExpandedFormatOptions() *FormatOptions {
	opts := DefaultFormatOptions()
	opts.Style = FormatExpanded
	opts.IndentSize = 8
	return opts
}

// Formatter reformats Justina source line by line: one statement per
// source line (the same unit loader.Load feeds to Parser.ParseStatement),
// re-indented by block nesting and re-spaced token by token.
type Formatter struct {
	options *FormatOptions
	output  strings.Builder
	depth   int
}

// NewFormatter creates a new formatter.
func NewFormatter(options *FormatOptions) *Formatter {
	if options == nil {
		options = DefaultFormatOptions()
	}
	return &Formatter{options: options}
}

// Format reformats input, one statement-line at a time. filename is used
// only in returned error messages.
func (f *Formatter) Format(input, filename string) (string, error) {
	f.output.Reset()
	f.depth = 0

	lines := strings.Split(input, "\n")
	for i, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			if f.options.PreserveEmptyLines && i < len(lines)-1 {
				f.output.WriteString("\n")
			}
			continue
		}

		if err := f.formatLine(trimmed, filename, i+1); err != nil {
			return "", err
		}
	}

	return f.output.String(), nil
}

func (f *Formatter) formatLine(trimmed, filename string, lineNo int) error {
	spec, isCmd := leadingCommand(trimmed)

	printDepth := f.depth
	if isCmd && (spec.Role == parser.RoleBlockEnd || spec.Role == parser.RoleBlockMiddle) && printDepth > 0 {
		printDepth--
	}

	rendered, err := f.respace(trimmed, filename, lineNo)
	if err != nil {
		return err
	}

	if f.options.Style != FormatCompact {
		f.output.WriteString(strings.Repeat(" ", printDepth*f.options.IndentSize))
	}
	f.output.WriteString(rendered)
	f.output.WriteString("\n")

	switch {
	case isCmd && spec.Role == parser.RoleBlockStart:
		f.depth = printDepth + 1
	case isCmd && spec.Role == parser.RoleBlockMiddle:
		f.depth = printDepth + 1
	case isCmd && spec.Role == parser.RoleBlockEnd:
		f.depth = printDepth
	}

	return nil
}

// leadingCommand looks up the command spec for trimmed's first word, if it
// names a reserved word (spec.md's block-structure keywords: if/elseif/
// else/end/for/while/function/program, plus the flat commands).
func leadingCommand(trimmed string) (parser.CommandSpec, bool) {
	word := firstWord(trimmed)
	if word == "" {
		return parser.CommandSpec{}, false
	}
	return parser.CommandSpecByName(word)
}

func firstWord(s string) string {
	i := strings.IndexFunc(s, func(r rune) bool {
		return !(r == '_' || (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9'))
	})
	if i == 0 {
		return ""
	}
	if i < 0 {
		return s
	}
	return s[:i]
}

// respace re-lexes trimmed and rejoins its lexemes with canonical spacing:
// no space before `,` `;` `)`, none after `(`, a single space between
// words/operators otherwise (with SpaceAroundOps off, as in Compact style,
// the operator spacing is dropped).
func (f *Formatter) respace(trimmed, filename string, lineNo int) (string, error) {
	lex := parser.NewLexer(trimmed)
	var out strings.Builder
	prev := parser.LexEOF

	for {
		tok, perr := lex.Next()
		if perr != nil {
			return "", fmt.Errorf("%s:%d: %w", filename, lineNo, perr)
		}
		if tok.Kind == parser.LexEOF {
			break
		}

		if needsSpaceBefore(prev, tok.Kind, f.options) {
			out.WriteString(" ")
		}

		switch tok.Kind {
		case parser.LexString:
			out.WriteString(`"`)
			out.WriteString(strings.ReplaceAll(strings.ReplaceAll(tok.Text, `\`, `\\`), `"`, `\"`))
			out.WriteString(`"`)
		default:
			out.WriteString(tok.Text)
		}

		prev = tok.Kind
	}

	return out.String(), nil
}

// needsSpaceBefore decides whether a space separates the previous lexeme
// from the next one, by kind only (good enough for a line-oriented
// formatter; it never needs to look further back than one token).
func needsSpaceBefore(prev, next parser.LexKind, opts *FormatOptions) bool {
	if prev == parser.LexEOF {
		return false
	}
	switch next {
	case parser.LexComma, parser.LexSemicolon, parser.LexRParen:
		return false
	case parser.LexLParen:
		return false // never space before '('
	}
	switch prev {
	case parser.LexLParen:
		return false
	case parser.LexComma:
		return true
	}
	if !opts.SpaceAroundOps {
		return prev == parser.LexIdentifier || prev == parser.LexNumber || prev == parser.LexString
	}
	return true
}

// FormatString formats input with default options.
func FormatString(input, filename string) (string, error) {
	return NewFormatter(DefaultFormatOptions()).Format(input, filename)
}

// FormatStringWithStyle formats input with the given style preset.
func FormatStringWithStyle(input, filename string, style FormatStyle) (string, error) {
	var options *FormatOptions
	switch style {
	case FormatCompact:
		options = CompactFormatOptions()
	case FormatExpanded:
		options = ExpandedFormatOptions()
	default:
		options = DefaultFormatOptions()
	}
	return NewFormatter(options).Format(input, filename)
}
