package api

import (
	"time"

	"github.com/justina-lang/justina/service"
)

// SessionCreateRequest represents a request to create a new session.
type SessionCreateRequest struct {
	FSRoot string `json:"fsRoot,omitempty"` // Filesystem root directory
}

// SessionCreateResponse represents the response from creating a session.
type SessionCreateResponse struct {
	SessionID string    `json:"sessionId"`
	CreatedAt time.Time `json:"createdAt"`
}

// SessionStatusResponse represents the current status of a session.
type SessionStatusResponse struct {
	SessionID string `json:"sessionId"`
	State     string `json:"state"`
	Running   bool   `json:"running"`
}

// LoadProgramRequest represents a request to load a program.
type LoadProgramRequest struct {
	Source string `json:"source"` // Justina source code
}

// LoadProgramResponse represents the response from loading a program.
type LoadProgramResponse struct {
	Success bool     `json:"success"`
	Errors  []string `json:"errors,omitempty"`
}

// VariablesResponse represents the current set of global variables.
type VariablesResponse struct {
	Variables []service.VariableInfo `json:"variables"`
}

// SourceMapResponse returns a loaded program's source lines and the line
// numbers that carry a breakable statement.
type SourceMapResponse struct {
	Lines     []string `json:"lines"`
	Breakable []int    `json:"breakable"`
}

// BreakpointRequest represents a request to add a breakpoint.
type BreakpointRequest struct {
	Line      int    `json:"line"`
	Condition string `json:"condition,omitempty"`
}

// BreakpointResponse represents a single breakpoint.
type BreakpointResponse struct {
	ID        int    `json:"id"`
	Line      int    `json:"line"`
	Enabled   bool   `json:"enabled"`
	Temporary bool   `json:"temporary"`
	Condition string `json:"condition,omitempty"`
	HitCount  int    `json:"hitCount"`
}

// BreakpointsResponse represents a list of breakpoints.
type BreakpointsResponse struct {
	Breakpoints []service.BreakpointInfo `json:"breakpoints"`
}

// WatchpointRequest represents a request to add a watchpoint.
type WatchpointRequest struct {
	Expression string `json:"expression"`
	Type       string `json:"type,omitempty"` // "read", "write", "readwrite"
}

// WatchpointResponse represents a single watchpoint.
type WatchpointResponse struct {
	ID         int    `json:"id"`
	Expression string `json:"expression"`
	Type       string `json:"type"`
}

// WatchpointsResponse represents a list of watchpoints.
type WatchpointsResponse struct {
	Watchpoints []service.WatchpointInfo `json:"watchpoints"`
}

// StdinRequest represents a request to send console input.
type StdinRequest struct {
	Data string `json:"data"`
}

// CommandRequest represents a raw debugger command (print/info/list/...).
type CommandRequest struct {
	Command string `json:"command"`
}

// CommandResponse represents a debugger command's text output.
type CommandResponse struct {
	Output string `json:"output"`
}

// ErrorResponse represents an error response.
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Code    int    `json:"code,omitempty"`
}

// SuccessResponse represents a simple success response.
type SuccessResponse struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// Event represents a WebSocket event envelope.
type Event struct {
	Type      string      `json:"type"`
	SessionID string      `json:"sessionId"`
	Timestamp time.Time   `json:"timestamp"`
	Data      interface{} `json:"data"`
}

// OutputEvent represents console output.
type OutputEvent struct {
	Stream  string `json:"stream"`  // "stdout"
	Content string `json:"content"` // Output content
}

// ExecutionEvent represents execution events like breakpoints.
type ExecutionEvent struct {
	Event   string `json:"event"` // "breakpoint_hit", "watchpoint_hit", "error", "halted"
	Line    int    `json:"line,omitempty"`
	Message string `json:"message,omitempty"`
}

// ExampleInfo describes a bundled example program.
type ExampleInfo struct {
	Name string `json:"name"`
	Size int64  `json:"size"`
}

// ExamplesResponse lists the bundled example programs.
type ExamplesResponse struct {
	Examples []ExampleInfo `json:"examples"`
	Count    int           `json:"count"`
}

// ExampleContentResponse returns one example program's source.
type ExampleContentResponse struct {
	Name    string `json:"name"`
	Content string `json:"content"`
	Size    int64  `json:"size"`
}

// ConfigResponse mirrors config.Config for the API surface.
type ConfigResponse struct {
	Execution  ExecutionConfig  `json:"execution"`
	Debugger   DebuggerConfig   `json:"debugger"`
	Display    DisplayConfig    `json:"display"`
	Statistics StatisticsConfig `json:"statistics"`
}

// ExecutionConfig mirrors config.Config.Execution.
type ExecutionConfig struct {
	MaxStatements  uint64 `json:"maxStatements"`
	HousekeepEvery uint   `json:"housekeepEvery"`
	DefaultEntry   string `json:"defaultEntry"`
	EnableTrace    bool   `json:"enableTrace"`
	EnableStats    bool   `json:"enableStats"`
}

// DebuggerConfig mirrors config.Config.Debugger.
type DebuggerConfig struct {
	HistorySize    int  `json:"historySize"`
	AutoSaveBreaks bool `json:"autoSaveBreakpoints"`
	ShowSource     bool `json:"showSource"`
	ShowVariables  bool `json:"showVariables"`
}

// DisplayConfig mirrors config.Config.Display.
type DisplayConfig struct {
	ColorOutput   bool   `json:"colorOutput"`
	VarsPerPage   int    `json:"varsPerPage"`
	SourceContext int    `json:"sourceContext"`
	NumberFormat  string `json:"numberFormat"`
}

// StatisticsConfig mirrors config.Config.Statistics.
type StatisticsConfig struct {
	OutputFile string `json:"outputFile"`
	Format     string `json:"format"`
	TrackCalls bool   `json:"trackCalls"`
	TrackHeap  bool   `json:"trackHeap"`
}
