package tools

import (
	"fmt"
	"sort"
	"strings"

	"github.com/justina-lang/justina/parser"
)

// ReferenceType indicates how a symbol is used at one source location.
type ReferenceType int

const (
	RefDefinition ReferenceType = iota // var/static/local/function declaration
	RefAssignment                      // written to (name = ...)
	RefRead                            // read as part of an expression
	RefCall                            // called as a function (name(...))
)

func (r ReferenceType) String() string {
	switch r {
	case RefDefinition:
		return "definition"
	case RefAssignment:
		return "assignment"
	case RefRead:
		return "read"
	case RefCall:
		return "call"
	default:
		return "unknown"
	}
}

// Reference represents a single reference to a symbol.
type Reference struct {
	Type   ReferenceType
	Line   int
	Column int
	Source string // the source line text
}

// Symbol represents a variable or function and all its references.
type Symbol struct {
	Name       string
	Definition *Reference // where it's declared, nil if never declared
	References []*Reference
	IsFunction bool
}

// XRefGenerator builds a cross-reference of variable and function names
// across Justina source, walking it the same line-oriented way
// tools.Formatter and tools.Linter do rather than via a parsed AST (Justina's
// own parser writes directly into a token.Buffer and keeps no such tree).
type XRefGenerator struct {
	symbols map[string]*Symbol
}

// NewXRefGenerator creates a new cross-reference generator.
func NewXRefGenerator() *XRefGenerator {
	return &XRefGenerator{symbols: make(map[string]*Symbol)}
}

// Generate builds cross-reference information from source code.
func (x *XRefGenerator) Generate(input, filename string) (map[string]*Symbol, error) {
	lines := strings.Split(input, "\n")

	for i, raw := range lines {
		lineNo := i + 1
		trimmed := strings.TrimSpace(raw)
		if trimmed == "" {
			continue
		}
		if err := x.scanLine(trimmed, lineNo, raw); err != nil {
			return nil, fmt.Errorf("%s:%d: %w", filename, lineNo, err)
		}
	}

	return x.symbols, nil
}

func (x *XRefGenerator) scanLine(trimmed string, lineNo int, rawSource string) error {
	word := firstWord(trimmed)
	_, isCmd := parser.CommandSpecByName(word)

	declaring := word == "var" || word == "static" || word == "local"
	definingFunc := word == "function"

	lex := parser.NewLexer(trimmed)
	first := true
	var prevIdent string
	havePrevIdent := false

	for {
		tok, perr := lex.Next()
		if perr != nil {
			return perr
		}
		if tok.Kind == parser.LexEOF {
			break
		}

		if first {
			first = false
			if isCmd {
				havePrevIdent = false
				continue
			}
		}

		switch tok.Kind {
		case parser.LexIdentifier:
			if _, isReservedWord := parser.CommandSpecByName(tok.Text); isReservedWord {
				havePrevIdent = false
				continue
			}
			if declaring {
				x.define(tok.Text, lineNo, tok.Pos.Column, rawSource, false)
			} else if definingFunc {
				x.define(tok.Text, lineNo, tok.Pos.Column, rawSource, true)
				definingFunc = false // only the first identifier after "function" is the name
			} else {
				prevIdent = tok.Text
				havePrevIdent = true
				continue
			}
		case parser.LexLParen:
			if havePrevIdent {
				x.addReference(prevIdent, RefCall, lineNo, tok.Pos.Column, rawSource)
			}
		case parser.LexOperator:
			if havePrevIdent && tok.Text == "=" {
				x.addReference(prevIdent, RefAssignment, lineNo, tok.Pos.Column, rawSource)
			} else if havePrevIdent {
				x.addReference(prevIdent, RefRead, lineNo, tok.Pos.Column, rawSource)
			}
		default:
			if havePrevIdent {
				x.addReference(prevIdent, RefRead, lineNo, tok.Pos.Column, rawSource)
			}
		}
		havePrevIdent = false
	}

	if havePrevIdent {
		x.addReference(prevIdent, RefRead, lineNo, 1, rawSource)
	}

	return nil
}

func (x *XRefGenerator) define(name string, line, column int, source string, isFunction bool) {
	sym := x.symbolFor(name)
	if sym.Definition == nil {
		sym.Definition = &Reference{Type: RefDefinition, Line: line, Column: column, Source: source}
	}
	if isFunction {
		sym.IsFunction = true
	}
}

func (x *XRefGenerator) addReference(name string, refType ReferenceType, line, column int, source string) {
	sym := x.symbolFor(name)
	sym.References = append(sym.References, &Reference{Type: refType, Line: line, Column: column, Source: source})
	if refType == RefCall {
		sym.IsFunction = true
	}
}

func (x *XRefGenerator) symbolFor(name string) *Symbol {
	if sym, ok := x.symbols[name]; ok {
		return sym
	}
	sym := &Symbol{Name: name, References: make([]*Reference, 0)}
	x.symbols[name] = sym
	return sym
}

// GetSymbols returns all symbols found in the source.
func (x *XRefGenerator) GetSymbols() map[string]*Symbol {
	return x.symbols
}

// GetSymbol returns a specific symbol by name.
func (x *XRefGenerator) GetSymbol(name string) (*Symbol, bool) {
	sym, exists := x.symbols[name]
	return sym, exists
}

// GetFunctions returns all symbols that are functions.
func (x *XRefGenerator) GetFunctions() []*Symbol {
	functions := make([]*Symbol, 0)
	for _, sym := range x.symbols {
		if sym.IsFunction {
			functions = append(functions, sym)
		}
	}
	sort.Slice(functions, func(i, j int) bool { return functions[i].Name < functions[j].Name })
	return functions
}

// GetUndefinedSymbols returns symbols referenced but never declared.
func (x *XRefGenerator) GetUndefinedSymbols() []*Symbol {
	undefined := make([]*Symbol, 0)
	for _, sym := range x.symbols {
		if sym.Definition == nil && len(sym.References) > 0 {
			undefined = append(undefined, sym)
		}
	}
	sort.Slice(undefined, func(i, j int) bool { return undefined[i].Name < undefined[j].Name })
	return undefined
}

// GetUnusedSymbols returns symbols declared but never referenced.
func (x *XRefGenerator) GetUnusedSymbols() []*Symbol {
	unused := make([]*Symbol, 0)
	for _, sym := range x.symbols {
		if sym.Definition != nil && len(sym.References) == 0 {
			unused = append(unused, sym)
		}
	}
	sort.Slice(unused, func(i, j int) bool { return unused[i].Name < unused[j].Name })
	return unused
}

// XRefReport renders a XRefGenerator's symbol table as a text report.
type XRefReport struct {
	symbols []*Symbol
}

// NewXRefReport creates a new cross-reference report, sorted by name.
func NewXRefReport(symbols map[string]*Symbol) *XRefReport {
	sorted := make([]*Symbol, 0, len(symbols))
	for _, sym := range symbols {
		sorted = append(sorted, sym)
	}
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })
	return &XRefReport{symbols: sorted}
}

// String generates a text report.
func (r *XRefReport) String() string {
	var sb strings.Builder

	sb.WriteString("Symbol Cross-Reference\n")
	sb.WriteString("======================\n\n")

	for _, sym := range r.symbols {
		sb.WriteString(fmt.Sprintf("%-30s", sym.Name))
		if sym.IsFunction {
			sb.WriteString(" [function]")
		} else {
			sb.WriteString(" [variable]")
		}
		sb.WriteString("\n")

		if sym.Definition != nil {
			sb.WriteString(fmt.Sprintf("  Defined:     line %d\n", sym.Definition.Line))
		} else {
			sb.WriteString("  Defined:     (undefined)\n")
		}

		if len(sym.References) == 0 {
			sb.WriteString("  Referenced:  (never)\n")
		} else {
			sb.WriteString(fmt.Sprintf("  Referenced:  %d time(s)\n", len(sym.References)))

			refsByType := make(map[ReferenceType][]*Reference)
			for _, ref := range sym.References {
				refsByType[ref.Type] = append(refsByType[ref.Type], ref)
			}

			for _, refType := range []ReferenceType{RefCall, RefAssignment, RefRead} {
				refs := refsByType[refType]
				if len(refs) == 0 {
					continue
				}
				lines := make([]string, len(refs))
				for i, ref := range refs {
					lines[i] = fmt.Sprintf("%d", ref.Line)
				}
				sb.WriteString(fmt.Sprintf("    %-10s: line(s) %s\n", refType.String(), strings.Join(lines, ", ")))
			}
		}

		sb.WriteString("\n")
	}

	total := len(r.symbols)
	defined, undefined, unused, functionCount := 0, 0, 0, 0
	for _, sym := range r.symbols {
		if sym.Definition != nil {
			defined++
		} else {
			undefined++
		}
		if len(sym.References) == 0 {
			unused++
		}
		if sym.IsFunction {
			functionCount++
		}
	}

	sb.WriteString("Summary\n")
	sb.WriteString("=======\n")
	sb.WriteString(fmt.Sprintf("Total symbols:     %d\n", total))
	sb.WriteString(fmt.Sprintf("Defined:           %d\n", defined))
	sb.WriteString(fmt.Sprintf("Undefined:         %d\n", undefined))
	sb.WriteString(fmt.Sprintf("Unused:            %d\n", unused))
	sb.WriteString(fmt.Sprintf("Functions:         %d\n", functionCount))

	return sb.String()
}

// GenerateXRef is a convenience function to generate a cross-reference report.
func GenerateXRef(input, filename string) (string, error) {
	gen := NewXRefGenerator()
	symbols, err := gen.Generate(input, filename)
	if err != nil {
		return "", err
	}
	return NewXRefReport(symbols).String(), nil
}
