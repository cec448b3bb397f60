// Package service wraps a debugger.Debugger in a thread-safe API usable by
// the HTTP/WebSocket layer (api package) and, eventually, any other
// front end built on the same engine. Grounded on the teacher's
// service.DebuggerService: same lock-ordering discipline (the service's own
// mutex is acquired before any call into the wrapped debugger/engine), same
// async run-to-completion-or-pause pattern launched from a goroutine so the
// HTTP handler that triggered it returns immediately.
package service

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/justina-lang/justina/debugger"
	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/flow"
	"github.com/justina-lang/justina/host"
	"github.com/justina-lang/justina/loader"
)

var serviceLog *log.Logger

func init() {
	if os.Getenv("JUSTINA_DEBUG") != "" {
		logPath := filepath.Join(os.TempDir(), "justina-service-debug.log")
		f, err := os.OpenFile(logPath, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0600) // #nosec G304 -- fixed filename in temp dir
		if err != nil {
			serviceLog = log.New(os.Stderr, "SERVICE: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		} else {
			serviceLog = log.New(f, "SERVICE: ", log.Ltime|log.Lmicroseconds|log.Lshortfile)
		}
	} else {
		serviceLog = log.New(io.Discard, "", 0)
	}
}

// DebuggerService provides a thread-safe interface to a loaded program's
// debugger session. It is shared by the API server and, potentially, other
// front ends (a TUI embeds debugger.Debugger directly instead).
//
// Lock ordering: s.mu is acquired before any call into dbg/engine, mirroring
// the teacher's "service mutex before debugger mutex" discipline.
type DebuggerService struct {
	mu      sync.RWMutex
	dbg     *debugger.Debugger
	engine  *flow.Engine
	prog    *loader.Program
	console *pipeConsole
	fs      *host.OSFileSystem
	tempDir string

	running bool
	state   ExecutionState
	lastErr error

	source string
}

// NewDebuggerService creates a session rooted at fsRoot for filesystem
// operations. If fsRoot is empty, a temporary directory is created and
// removed by Close.
func NewDebuggerService(fsRoot string, onOutput func([]byte)) (*DebuggerService, error) {
	var tempDir string
	if fsRoot == "" {
		var err error
		tempDir, err = os.MkdirTemp("", "justina-session-*")
		if err != nil {
			return nil, err
		}
		fsRoot = tempDir
	}

	fsys, err := host.NewOSFileSystem(fsRoot)
	if err != nil {
		return nil, err
	}

	return &DebuggerService{
		console: newPipeConsole(onOutput),
		fs:      fsys,
		tempDir: tempDir,
		state:   StateHalted,
	}, nil
}

// Close releases the session's temporary filesystem root, if one was
// created (an explicit FSRoot passed to NewDebuggerService is left alone).
func (s *DebuggerService) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tempDir != "" {
		return os.RemoveAll(s.tempDir)
	}
	return nil
}

// LoadProgram parses source and wires a fresh engine/debugger for it,
// replacing any previously loaded program.
func (s *DebuggerService) LoadProgram(source string) error {
	prog, err := loader.Load(strings.NewReader(source))
	if err != nil {
		return err
	}

	h := &host.Host{
		Console:   s.console,
		Out:       s.console,
		FS:        s.fs,
		Clock:     host.NewSystemClock(),
		Callbacks: nil,
	}

	engine := flow.NewEngine(prog.Parser.Tables, prog.Parser.Buf, h, eval.NewBuiltinTable(), prog.Parser.Functions)
	dbg := debugger.NewDebugger(engine, prog)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.prog = prog
	s.engine = engine
	s.dbg = dbg
	s.state = StateHalted
	s.running = false
	s.lastErr = nil
	s.source = source
	return nil
}

// Reset reloads the most recently loaded program from scratch, discarding
// all execution state, breakpoints, and watchpoints (the Justina analogue of
// an ARM VM register/memory reset, since the engine has no other mutable
// state to rewind).
func (s *DebuggerService) Reset() error {
	s.mu.RLock()
	source := s.source
	s.mu.RUnlock()
	if source == "" {
		return fmt.Errorf("no program loaded")
	}
	return s.LoadProgram(source)
}

// GetSourceMap returns the loaded program's source lines alongside the set
// of line numbers that carry an executable statement (and are therefore
// valid breakpoint targets), for a UI to render a gutter.
func (s *DebuggerService) GetSourceMap() (lines []string, breakable []int, err error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.prog == nil {
		return nil, nil, fmt.Errorf("no program loaded")
	}

	breakable = make([]int, 0, len(s.prog.StepOfLine))
	for line := range s.prog.StepOfLine {
		breakable = append(breakable, line)
	}
	sort.Ints(breakable)

	return s.prog.Lines, breakable, nil
}

// GetVariables lists every bound global variable and its current formatted
// value, the Justina analogue of a register dump.
func (s *DebuggerService) GetVariables() ([]VariableInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.dbg == nil {
		return nil, fmt.Errorf("no program loaded")
	}

	names := s.engine.Tables.GlobalNames()
	result := make([]VariableInfo, 0, len(names))
	for _, name := range names {
		if err := s.dbg.ExecuteCommand("print " + name); err != nil {
			continue
		}
		result = append(result, VariableInfo{Name: name, Value: strings.TrimSpace(s.dbg.GetOutput())})
	}
	return result, nil
}

// RunAsync starts the program and runs it to its first pause (breakpoint,
// watchpoint) or exit, in the background. GetExecutionState reflects the
// result once it finishes.
func (s *DebuggerService) RunAsync() error {
	s.mu.Lock()
	if s.dbg == nil {
		s.mu.Unlock()
		return fmt.Errorf("no program loaded")
	}
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("already running")
	}
	s.running = true
	s.state = StateRunning
	dbg := s.dbg
	s.mu.Unlock()

	go s.runAndUpdateState(func() error { return dbg.ExecuteCommand("run") })
	return nil
}

// ContinueAsync resumes a paused program.
func (s *DebuggerService) ContinueAsync() error {
	return s.resumeAsync("continue")
}

// StepAsync executes one statement, stepping into any call.
func (s *DebuggerService) StepAsync() error {
	return s.resumeAsync("step")
}

// StepOverAsync executes one statement, stepping over any call.
func (s *DebuggerService) StepOverAsync() error {
	return s.resumeAsync("next")
}

// StepOutAsync resumes until the current function returns.
func (s *DebuggerService) StepOutAsync() error {
	return s.resumeAsync("finish")
}

func (s *DebuggerService) resumeAsync(cmd string) error {
	s.mu.Lock()
	if s.dbg == nil {
		s.mu.Unlock()
		return fmt.Errorf("no program loaded")
	}
	if s.running {
		s.mu.Unlock()
		return fmt.Errorf("already running")
	}
	s.running = true
	s.state = StateRunning
	dbg := s.dbg
	s.mu.Unlock()

	go s.runAndUpdateState(func() error { return dbg.ExecuteCommand(cmd) })
	return nil
}

func (s *DebuggerService) runAndUpdateState(run func() error) {
	err := run()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.running = false
	s.lastErr = err
	switch {
	case err != nil:
		s.state = StateError
	case strings.Contains(s.dbg.Output.String(), "breakpoint") || strings.Contains(s.dbg.Output.String(), "watchpoint"):
		s.state = StateBreakpoint
	default:
		s.state = StateHalted
	}
	serviceLog.Printf("run finished: state=%s err=%v", s.state, err)
}

// Pause requests that a running program stop at its next statement
// boundary (spec.md's housekeeping flags, polled every statement).
func (s *DebuggerService) Pause() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		return fmt.Errorf("no program loaded")
	}
	s.engine.Flags.Stop = true
	return nil
}

// IsRunning reports whether the program is currently executing.
func (s *DebuggerService) IsRunning() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.running
}

// GetExecutionState returns the current execution state.
func (s *DebuggerService) GetExecutionState() ExecutionState {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// AddBreakpoint sets a breakpoint on the given 1-indexed source line,
// optionally guarded by condition.
func (s *DebuggerService) AddBreakpoint(line int, condition string) (*BreakpointInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dbg == nil {
		return nil, fmt.Errorf("no program loaded")
	}

	cmd := "break " + strconv.Itoa(line)
	if condition != "" {
		cmd += " if " + condition
	}
	if err := s.dbg.ExecuteCommand(cmd); err != nil {
		return nil, err
	}
	s.dbg.GetOutput()

	step, err := s.dbg.ResolveLine(line)
	if err != nil {
		return nil, err
	}
	bp := s.dbg.Breakpoints.GetBreakpoint(step)
	if bp == nil {
		return nil, fmt.Errorf("breakpoint was not created")
	}
	return toBreakpointInfo(bp, line), nil
}

// RemoveBreakpoint removes the breakpoint with the given ID.
func (s *DebuggerService) RemoveBreakpoint(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dbg == nil {
		return fmt.Errorf("no program loaded")
	}
	return s.dbg.Breakpoints.DeleteBreakpoint(id)
}

// GetBreakpoints returns every breakpoint currently set.
func (s *DebuggerService) GetBreakpoints() ([]BreakpointInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dbg == nil {
		return nil, fmt.Errorf("no program loaded")
	}

	bps := s.dbg.Breakpoints.GetAllBreakpoints()
	result := make([]BreakpointInfo, len(bps))
	for i, bp := range bps {
		line := s.prog.LineOfStep[bp.Step]
		result[i] = *toBreakpointInfo(bp, line)
	}
	return result, nil
}

// ClearAllBreakpoints removes every breakpoint.
func (s *DebuggerService) ClearAllBreakpoints() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dbg == nil {
		return fmt.Errorf("no program loaded")
	}
	s.dbg.Breakpoints.Clear()
	return nil
}

func toBreakpointInfo(bp *debugger.Breakpoint, line int) *BreakpointInfo {
	return &BreakpointInfo{
		ID:        bp.ID,
		Line:      line,
		Enabled:   bp.Enabled,
		Temporary: bp.Temporary,
		Condition: bp.Condition,
		HitCount:  bp.HitCount,
	}
}

// AddWatchpoint watches expr for value changes.
func (s *DebuggerService) AddWatchpoint(expr string, watchType string) (*WatchpointInfo, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dbg == nil {
		return nil, fmt.Errorf("no program loaded")
	}

	var wpType debugger.WatchType
	switch watchType {
	case "", "write":
		wpType = debugger.WatchWrite
	case "read":
		wpType = debugger.WatchRead
	case "readwrite":
		wpType = debugger.WatchReadWrite
	default:
		return nil, fmt.Errorf("invalid watchpoint type: %s", watchType)
	}

	wp := s.dbg.Watchpoints.AddWatchpoint(wpType, expr)
	_ = s.dbg.Watchpoints.InitializeWatchpoint(wp.ID, s.dbg.EvaluateExpression)
	return toWatchpointInfo(wp), nil
}

// RemoveWatchpoint removes the watchpoint with the given ID.
func (s *DebuggerService) RemoveWatchpoint(id int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.dbg == nil {
		return fmt.Errorf("no program loaded")
	}
	return s.dbg.Watchpoints.DeleteWatchpoint(id)
}

// GetWatchpoints returns every watchpoint currently set.
func (s *DebuggerService) GetWatchpoints() ([]WatchpointInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.dbg == nil {
		return nil, fmt.Errorf("no program loaded")
	}

	wps := s.dbg.Watchpoints.GetAllWatchpoints()
	result := make([]WatchpointInfo, len(wps))
	for i, wp := range wps {
		result[i] = *toWatchpointInfo(wp)
	}
	return result, nil
}

func toWatchpointInfo(wp *debugger.Watchpoint) *WatchpointInfo {
	var t string
	switch wp.Type {
	case debugger.WatchRead:
		t = "read"
	case debugger.WatchWrite:
		t = "write"
	case debugger.WatchReadWrite:
		t = "readwrite"
	}
	return &WatchpointInfo{
		ID:         wp.ID,
		Expression: wp.Expression,
		Type:       t,
		Enabled:    wp.Enabled,
		HitCount:   wp.HitCount,
	}
}

// ExecuteCommand runs a single debugger command synchronously and returns
// its output. Use RunAsync/ContinueAsync/Step*Async instead for commands
// that resume execution, since those can run for an unbounded time.
func (s *DebuggerService) ExecuteCommand(command string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.dbg == nil {
		return "", fmt.Errorf("no program loaded")
	}

	err := s.dbg.ExecuteCommand(command)
	return s.dbg.GetOutput(), err
}

// GetConsoleOutput returns and clears program output written to stream 0
// (the console), as opposed to debugger command output.
func (s *DebuggerService) GetConsoleOutput() string {
	return s.console.GetOutputAndClear()
}

// SendInput sends user input to the program's console input stream.
func (s *DebuggerService) SendInput(input string) error {
	return s.console.SendInput(input)
}
