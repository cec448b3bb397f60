package parser

// ParamKind is a bitmask of the parameter-slot shapes a command argument
// may take (spec.md §4.2.1).
type ParamKind uint16

const (
	ParamNone ParamKind = 1 << iota
	ParamExpression
	ParamVarAssignable
	ParamVarNotAssignable
	ParamIdentifier
	ParamExternalFunction
	ParamReservedWord
)

// ParamSlot is one of a command's up to four parameter-slot descriptors.
type ParamSlot struct {
	Kinds    ParamKind
	Optional bool
	Multiple bool
}

// Placement restricts where in the source a command may legally appear
// (spec.md §4.2.1's "command placement rules").
type Placement int

const (
	PlaceAnywhere Placement = iota
	PlaceImmediateOnly
	PlaceInsideProgramOnly
	PlaceInsideFunctionOnly
	PlaceOutsideFunctionOnly
	PlaceInProgOutsideFunctionOnly
	PlaceImmediateOrInFunction
)

// errorKind maps a Placement to the ErrorKind the validator raises
// when a command appears somewhere it's not allowed.
func (p Placement) errorKind() ErrorKind {
	switch p {
	case PlaceImmediateOnly:
		return ErrOnlyImmediateMode
	case PlaceInsideProgramOnly:
		return ErrOnlyInsideProgram
	case PlaceInsideFunctionOnly:
		return ErrOnlyInsideFunction
	case PlaceOutsideFunctionOnly:
		return ErrOnlyOutsideFunction
	case PlaceInProgOutsideFunctionOnly:
		return ErrOnlyInProgOutsideFunction
	case PlaceImmediateOrInFunction:
		return ErrOnlyImmediateOrInFunction
	default:
		return ErrOther
	}
}

// BlockRole classifies a command's role in the block-structure state
// machine (spec.md §4.2.1: block-start / block-middle / end / break-like /
// return).
type BlockRole int

const (
	RoleNone BlockRole = iota
	RoleBlockStart
	RoleBlockMiddle
	RoleBlockEnd
	RoleBreakLike
	RoleReturn
)

// CommandSpec is one reserved word's full syntax descriptor.
type CommandSpec struct {
	Name      string
	Slots     []ParamSlot
	Placement Placement
	Role      BlockRole
	// BlockKind names which block kind this command opens/continues/closes
	// (e.g. "if"/"elseif"/"else"/"end" all share BlockKind "if"; "for" and
	// "while" are their own kinds; "function"/"program" are their own).
	BlockKind string
}

// commandTable is the full reserved-word parameter/placement table,
// supplementing spec.md's named command list (§6.2) with the concrete
// slot descriptors original_source/commands.cpp encodes (spec.md PART D
// supplement #1 in SPEC_FULL.md).
var commandTable = map[string]CommandSpec{
	"program": {Name: "program", Placement: PlaceInsideProgramOnly, Role: RoleBlockStart, BlockKind: "program"},
	"function": {
		Name:      "function",
		Slots:     []ParamSlot{{Kinds: ParamIdentifier}},
		Placement: PlaceInsideProgramOnly,
		Role:      RoleBlockStart,
		BlockKind: "function",
	},
	"var": {
		Name:      "var",
		Slots:     []ParamSlot{{Kinds: ParamVarAssignable | ParamIdentifier, Multiple: true}},
		Placement: PlaceAnywhere,
	},
	"static": {
		Name:      "static",
		Slots:     []ParamSlot{{Kinds: ParamVarAssignable | ParamIdentifier, Multiple: true}},
		Placement: PlaceInsideFunctionOnly,
	},
	"local": {
		Name:      "local",
		Slots:     []ParamSlot{{Kinds: ParamVarAssignable | ParamIdentifier, Multiple: true}},
		Placement: PlaceInsideFunctionOnly,
	},
	"delVar": {
		Name:      "delVar",
		Slots:     []ParamSlot{{Kinds: ParamVarNotAssignable, Multiple: true}},
		Placement: PlaceAnywhere,
	},
	"clearVars": {Name: "clearVars", Placement: PlaceAnywhere},
	"vars":      {Name: "vars", Placement: PlaceAnywhere},
	"for": {
		Name:      "for",
		Slots:     []ParamSlot{{Kinds: ParamExpression}},
		Placement: PlaceAnywhere,
		Role:      RoleBlockStart,
		BlockKind: "for",
	},
	"while": {
		Name:      "while",
		Slots:     []ParamSlot{{Kinds: ParamExpression}},
		Placement: PlaceAnywhere,
		Role:      RoleBlockStart,
		BlockKind: "while",
	},
	"if": {
		Name:      "if",
		Slots:     []ParamSlot{{Kinds: ParamExpression}},
		Placement: PlaceAnywhere,
		Role:      RoleBlockStart,
		BlockKind: "if",
	},
	"elseif": {
		Name:      "elseif",
		Slots:     []ParamSlot{{Kinds: ParamExpression}},
		Placement: PlaceAnywhere,
		Role:      RoleBlockMiddle,
		BlockKind: "if",
	},
	"else": {
		Name:      "else",
		Placement: PlaceAnywhere,
		Role:      RoleBlockMiddle,
		BlockKind: "if",
	},
	"break":    {Name: "break", Placement: PlaceAnywhere, Role: RoleBreakLike},
	"continue": {Name: "continue", Placement: PlaceAnywhere, Role: RoleBreakLike},
	"return": {
		Name:      "return",
		Slots:     []ParamSlot{{Kinds: ParamExpression, Optional: true}},
		Placement: PlaceInsideFunctionOnly,
		Role:      RoleReturn,
	},
	"end": {Name: "end", Placement: PlaceAnywhere, Role: RoleBlockEnd},
	"quit": {Name: "quit", Placement: PlaceAnywhere},
	"info": {Name: "info", Placement: PlaceAnywhere},
	"input": {
		Name:      "input",
		Slots:     []ParamSlot{{Kinds: ParamExpression, Optional: true}, {Kinds: ParamVarAssignable, Multiple: true}},
		Placement: PlaceAnywhere,
	},
	"print": {
		Name:      "print",
		Slots:     []ParamSlot{{Kinds: ParamExpression, Multiple: true}},
		Placement: PlaceAnywhere,
	},
	"dispFmt": {
		Name:      "dispFmt",
		Slots:     []ParamSlot{{Kinds: ParamExpression, Multiple: true}},
		Placement: PlaceAnywhere,
	},
	"dispMod": {
		Name:      "dispMod",
		Slots:     []ParamSlot{{Kinds: ParamExpression, Multiple: true}},
		Placement: PlaceAnywhere,
	},
	"pause": {
		Name:      "pause",
		Slots:     []ParamSlot{{Kinds: ParamExpression, Optional: true}},
		Placement: PlaceAnywhere,
	},
	"halt": {Name: "halt", Placement: PlaceAnywhere},
	"stop": {Name: "stop", Placement: PlaceAnywhere},
	"go":   {Name: "go", Placement: PlaceImmediateOnly},
	"step": {
		Name:      "step",
		Slots:     []ParamSlot{{Kinds: ParamIdentifier, Optional: true}},
		Placement: PlaceImmediateOnly,
	},
	"debug": {Name: "debug", Placement: PlaceAnywhere},
	"nop":   {Name: "nop", Placement: PlaceAnywhere},
	"declareCB": {
		Name:      "declareCB",
		Slots:     []ParamSlot{{Kinds: ParamIdentifier}},
		Placement: PlaceAnywhere,
	},
	"callback": {
		Name:      "callback",
		Slots:     []ParamSlot{{Kinds: ParamIdentifier}, {Kinds: ParamExpression, Multiple: true, Optional: true}},
		Placement: PlaceAnywhere,
	},
}

// CommandSpecByName exposes one reserved word's syntax descriptor to
// packages outside parser (the flow package's statement dispatcher looks up
// a ResWord token's BlockKind/Role by name, resolved from its CmdIndex via
// vars.StaticTable.Name).
func CommandSpecByName(name string) (CommandSpec, bool) {
	spec, ok := commandTable[name]
	return spec, ok
}

// reservedWordNames returns the full command-name list in a stable order,
// used to build the vars.StaticTable that token.Token.CmdIndex indexes
// into (index = position in this slice).
func reservedWordNames() []string {
	names := make([]string, 0, len(commandTable))
	// Fixed order so indices are stable across a process's lifetime;
	// map iteration order is not, so sort isn't enough on its own — an
	// explicit list is used instead.
	order := []string{
		"program", "function", "var", "static", "local", "delVar", "clearVars",
		"vars", "for", "while", "if", "elseif", "else", "break", "continue",
		"return", "end", "quit", "info", "input", "print", "dispFmt", "dispMod",
		"pause", "halt", "stop", "go", "step", "debug", "nop", "declareCB", "callback",
	}
	for _, n := range order {
		if _, ok := commandTable[n]; ok {
			names = append(names, n)
		}
	}
	return names
}
