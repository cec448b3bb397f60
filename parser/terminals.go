package parser

import "github.com/justina-lang/justina/token"

// OpFlags carries the per-operator metadata spec.md §4.3 describes: three
// priorities (0 = not applicable in that position), long-operand/long-
// result constraints, and right-associativity.
type OpFlags struct {
	PrefixPriority  int
	InfixPriority   int
	PostfixPriority int
	OpLong          bool // both operands must be integer
	ResLong         bool // result is integer
	OpRtoL          bool // infix operator is right-associative
}

// TerminalEntry is one member of a ≤16-entry terminal group (spec.md
// §3.1): its textual spelling and, where it denotes an operator, its
// OpFlags. Assignment and comparison/arithmetic/bitwise operators live in
// groups 0 and 1; unary operators and the `for`-loop's context keywords
// `to`/`step` live in group 2 (structural terminals with no evaluation
// priority of their own).
type TerminalEntry struct {
	Text  string
	Flags OpFlags
}

// Assignment operators: priority 1, right-associative (spec.md §4.3).
var groupAssignment = []TerminalEntry{
	{Text: "=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true}},
	{Text: "+=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true}},
	{Text: "-=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true}},
	{Text: "*=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true}},
	{Text: "/=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true}},
	{Text: "%=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true, OpLong: true}},
	{Text: "&=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true, OpLong: true}},
	{Text: "|=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true, OpLong: true}},
	{Text: "^=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true, OpLong: true}},
	{Text: "<<=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true, OpLong: true}},
	{Text: ">>=", Flags: OpFlags{InfixPriority: 1, OpRtoL: true, OpLong: true}},
}

// Binary comparison/arithmetic/bitwise operators, left-associative infix.
// Priorities follow conventional precedence: comparison < additive <
// multiplicative < bitwise-shift, with `^^` (power) handled in group 2 at
// the highest infix priority and right-associative (spec.md §8 property 6:
// `2 ^ 3 ^ 2` = `2 ^ (3 ^ 2)`).
var groupBinary = []TerminalEntry{
	{Text: "==", Flags: OpFlags{InfixPriority: 3, ResLong: true}},
	{Text: "<>", Flags: OpFlags{InfixPriority: 3, ResLong: true}},
	{Text: "<", Flags: OpFlags{InfixPriority: 3, ResLong: true}},
	{Text: "<=", Flags: OpFlags{InfixPriority: 3, ResLong: true}},
	{Text: ">", Flags: OpFlags{InfixPriority: 3, ResLong: true}},
	{Text: ">=", Flags: OpFlags{InfixPriority: 3, ResLong: true}},
	{Text: "+", Flags: OpFlags{InfixPriority: 5, PrefixPriority: 8}},
	{Text: "-", Flags: OpFlags{InfixPriority: 5, PrefixPriority: 8}},
	{Text: "*", Flags: OpFlags{InfixPriority: 6}},
	{Text: "/", Flags: OpFlags{InfixPriority: 6}},
	{Text: "%", Flags: OpFlags{InfixPriority: 6, OpLong: true, ResLong: true}},
	{Text: "&", Flags: OpFlags{InfixPriority: 4, OpLong: true, ResLong: true}},
	{Text: "|", Flags: OpFlags{InfixPriority: 2, OpLong: true, ResLong: true}},
	{Text: "<<", Flags: OpFlags{InfixPriority: 7, OpLong: true, ResLong: true}},
	{Text: ">>", Flags: OpFlags{InfixPriority: 7, OpLong: true, ResLong: true}},
}

// Unary/keyword terminals: logical and/or (short-circuit, lowest infix
// priority of the non-assignment operators), unary not/~ (prefix only),
// `^^` power (infix, right-associative, highest priority), prefix/postfix
// ++/--, and the `for`-loop structural keywords `to`/`step`.
var groupUnaryKeyword = []TerminalEntry{
	{Text: "and", Flags: OpFlags{InfixPriority: 1, ResLong: true}},
	{Text: "or", Flags: OpFlags{InfixPriority: 1, ResLong: true}},
	{Text: "not", Flags: OpFlags{PrefixPriority: 9, ResLong: true}},
	{Text: "^", Flags: OpFlags{InfixPriority: 4, OpLong: true, ResLong: true}}, // bitwise xor
	{Text: "~", Flags: OpFlags{PrefixPriority: 9, OpLong: true, ResLong: true}},
	{Text: "^^", Flags: OpFlags{InfixPriority: 10, OpRtoL: true}}, // power
	{Text: "++", Flags: OpFlags{PrefixPriority: 9, PostfixPriority: 11, OpLong: true, ResLong: true}},
	{Text: "--", Flags: OpFlags{PrefixPriority: 9, PostfixPriority: 11, OpLong: true, ResLong: true}},
	{Text: "to", Flags: OpFlags{}},
	{Text: "step", Flags: OpFlags{}},
}

var terminalGroups = [3][]TerminalEntry{
	token.GroupOperator:  groupAssignment,
	token.GroupSeparator: groupBinary,
	token.GroupKeyword:   groupUnaryKeyword,
}

// LookupTerminal finds a terminal by its spelling across all three groups.
func LookupTerminal(text string) (group token.TerminalGroup, index byte, entry TerminalEntry, ok bool) {
	for g, entries := range terminalGroups {
		for i, e := range entries {
			if e.Text == text {
				return token.TerminalGroup(g), byte(i), e, true
			}
		}
	}
	return 0, 0, TerminalEntry{}, false
}

// TerminalByIndex looks up a terminal's entry by (group, index), used by
// the evaluator to recover operator flags from a decoded token.Token.
func TerminalByIndex(group token.TerminalGroup, index byte) (TerminalEntry, bool) {
	entries := terminalGroups[group]
	if int(index) >= len(entries) {
		return TerminalEntry{}, false
	}
	return entries[index], true
}
