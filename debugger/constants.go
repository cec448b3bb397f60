package debugger

// TUI Display Update Constants
const (
	// DisplayUpdateFrequency controls how often the TUI display updates during continuous execution
	// (every N statements, to keep the display responsive without overwhelming the terminal)
	DisplayUpdateFrequency = 100
)

// Source View Context Constants
const (
	// CodeContextLinesBefore is the default number of lines to show before the
	// current statement in the full source view
	CodeContextLinesBefore = 20

	// CodeContextLinesAfter is the default number of lines to show after the
	// current statement in the full source view
	CodeContextLinesAfter = 80

	// CodeContextLinesBeforeCompact is the number of lines to show before the
	// current statement in compact views
	CodeContextLinesBeforeCompact = 5

	// CodeContextLinesAfterCompact is the number of lines to show after the
	// current statement in compact views
	CodeContextLinesAfterCompact = 10
)

// Variable Display Constants
const (
	// VariablesPerPage is the number of variables to show per page in the
	// variable inspector view
	VariablesPerPage = 16

	// CallStackDisplayDepth is the number of call frames to show in the
	// backtrace/call-stack panel
	CallStackDisplayDepth = 16
)
