// Package debugger implements spec.md §4.5's step/stop/resume state
// machine: breakpoints, watchpoints, command history, and expression
// evaluation wrapped around a running flow.Engine. Grounded on the
// teacher's own debugger package (same command set and manager shapes),
// generalized from polling a VM's program counter/registers every
// fetch-decode-execute cycle to polling a token.Step/variable frame every
// statement via flow.Engine.DebugHook.
package debugger

import (
	"fmt"
	"strings"
	"sync"

	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/flow"
	"github.com/justina-lang/justina/loader"
	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
)

// StepMode represents different stepping modes.
type StepMode int

const (
	StepNone   StepMode = iota // Not stepping
	StepSingle                 // Step one statement, into any call
	StepOver                   // Step over function calls
	StepOut                    // Step out of the current function
)

// pauseInfo is what onStep hands the frontend (RunCLI/TUI) when execution
// actually stops.
type pauseInfo struct {
	step   token.Step
	reason string
}

// Debugger wraps a flow.Engine, driving it one statement at a time via
// Engine.DebugHook instead of letting it run a whole program unattended.
// The engine runs on its own goroutine (started by Start); onStep blocks
// that goroutine at a pause point until the frontend sends a continuation
// on resumeCh, which is how "step"/"continue"/"stop" are implemented
// without restructuring runBody's loop into an explicit resumable state
// machine.
type Debugger struct {
	Engine  *flow.Engine
	Program *loader.Program

	Breakpoints *BreakpointManager
	Watchpoints *WatchpointManager
	History     *CommandHistory

	Running  bool
	StepMode StepMode

	// stepOverDepth records the call depth the step-over/step-out command
	// was issued at, so onStep knows when the program has unwound back to
	// (or past) it.
	stepOverDepth int

	// LastCommand repeats on empty input (gdb-style).
	LastCommand string

	// Output buffers everything commands print, drained by GetOutput.
	Output strings.Builder

	mu           sync.Mutex
	currentStep  token.Step
	currentDepth int
	currentVA    eval.VarAccess

	resumeCh chan struct{}
	pausedCh chan pauseInfo
	done     chan error
}

// NewDebugger creates a new debugger wrapping engine, wiring itself in as
// the engine's DebugHook.
func NewDebugger(engine *flow.Engine, program *loader.Program) *Debugger {
	d := &Debugger{
		Engine:      engine,
		Program:     program,
		Breakpoints: NewBreakpointManager(),
		Watchpoints: NewWatchpointManager(),
		History:     NewCommandHistory(),
		StepMode:    StepNone,
		resumeCh:    make(chan struct{}),
		pausedCh:    make(chan pauseInfo),
		done:        make(chan error, 1),
	}
	engine.DebugHook = d.onStep
	return d
}

// ResolveLine resolves a 1-indexed source line to the token.Step its first
// statement starts at, for the `break`/`tbreak` commands.
func (d *Debugger) ResolveLine(line int) (token.Step, error) {
	step, ok := d.Program.StepOfLine[line]
	if !ok {
		return 0, fmt.Errorf("no statement on line %d", line)
	}
	return step, nil
}

// onStep is Engine.DebugHook: called on the program's own goroutine before
// every statement. It records the current position, decides whether to
// pause, and if so hands control to the frontend and blocks until resumed.
func (d *Debugger) onStep(pc token.Step, depth int, va eval.VarAccess) {
	d.mu.Lock()
	d.currentStep = pc
	d.currentDepth = depth
	d.currentVA = va
	d.mu.Unlock()

	stop, reason := d.shouldBreak(pc, depth)
	if !stop {
		return
	}

	d.mu.Lock()
	d.StepMode = StepNone
	d.mu.Unlock()

	d.pausedCh <- pauseInfo{step: pc, reason: reason}
	<-d.resumeCh
}

// shouldBreak checks step mode, breakpoints, and watchpoints, in that
// order, mirroring the teacher's ShouldBreak.
func (d *Debugger) shouldBreak(pc token.Step, depth int) (bool, string) {
	switch d.StepMode {
	case StepSingle:
		return true, "single step"
	case StepOver:
		if depth <= d.stepOverDepth {
			return true, "step over complete"
		}
	case StepOut:
		if depth < d.stepOverDepth {
			return true, "step out complete"
		}
	}

	if bp := d.Breakpoints.GetBreakpoint(pc); bp != nil {
		if !bp.Enabled {
			return false, ""
		}

		if bp.Condition != "" {
			result, err := d.evalExpression(bp.Condition)
			if err != nil {
				return true, fmt.Sprintf("breakpoint %d (condition error: %v)", bp.ID, err)
			}
			if !truthyValue(result) {
				return false, ""
			}
		}

		hit := d.Breakpoints.ProcessHit(pc)
		return true, fmt.Sprintf("breakpoint %d", hit.ID)
	}

	if wp, changed := d.Watchpoints.CheckWatchpoints(d.evalExpression); wp != nil && changed {
		return true, fmt.Sprintf("watchpoint %d: %s", wp.ID, wp.Expression)
	}

	return false, ""
}

// evalExpression evaluates expr against the currently paused statement's
// variable frame, by parsing it into the program's immediate-mode buffer
// area and delegating to the engine's own expression evaluator (spec.md's
// immediate-mode area exists precisely for this: prompt/debugger-typed
// expressions, so `print`/watch/breakpoint conditions reuse it instead of
// a bespoke expression language).
func (d *Debugger) evalExpression(expr string) (vars.Value, error) {
	p := d.Program.Parser
	p.SetImmediateMode(true)
	defer p.SetImmediateMode(false)
	p.Buf.ResetImmediate()

	start := p.Buf.ImmediateEnd
	if err := p.ParseStatement(expr); err != nil {
		return vars.Value{}, fmt.Errorf("debugger: %w", err)
	}

	d.mu.Lock()
	va := d.currentVA
	d.mu.Unlock()
	if va == nil {
		va = flow.NewTopLevelFrame(d.Engine.Tables)
	}

	val, _, err := d.Engine.Eval.EvalExpr(p.Buf, start, va)
	if err != nil {
		return vars.Value{}, err
	}
	defer eval.ReleaseResult(val)
	return val, nil
}

// EvaluateExpression evaluates expr against the currently paused statement's
// variable frame, for callers outside this package (the API/service layer)
// that need watchpoint/print-style evaluation without going through
// ExecuteCommand's text formatting.
func (d *Debugger) EvaluateExpression(expr string) (vars.Value, error) {
	return d.evalExpression(expr)
}

// Start launches the program on its own goroutine and blocks until it
// either pauses (breakpoint/watchpoint/step) or finishes. Running is true
// once this returns with ok==true.
func (d *Debugger) Start() (ok bool, reason string, err error) {
	d.Running = true
	go func() {
		d.done <- d.Engine.RunProgram()
	}()
	return d.waitForStopOrExit()
}

// waitForStopOrExit blocks until onStep reports a pause or the program
// goroutine finishes, whichever comes first.
func (d *Debugger) waitForStopOrExit() (ok bool, reason string, err error) {
	select {
	case info := <-d.pausedCh:
		return true, info.reason, nil
	case runErr := <-d.done:
		d.Running = false
		return false, "program exited", runErr
	}
}

// Resume sends a continuation to a paused program goroutine and waits for
// the next pause or exit.
func (d *Debugger) Resume(mode StepMode) (ok bool, reason string, err error) {
	d.mu.Lock()
	d.StepMode = mode
	d.stepOverDepth = d.currentDepth
	d.Running = true
	d.mu.Unlock()

	d.resumeCh <- struct{}{}
	return d.waitForStopOrExit()
}

// ExecuteCommand processes and executes a debugger command line.
func (d *Debugger) ExecuteCommand(cmdLine string) error {
	cmdLine = strings.TrimSpace(cmdLine)

	if cmdLine == "" {
		cmdLine = d.LastCommand
	}

	if cmdLine != "" {
		d.History.Add(cmdLine)
		d.LastCommand = cmdLine
	}

	parts := strings.Fields(cmdLine)
	if len(parts) == 0 {
		return nil
	}

	cmd := strings.ToLower(parts[0])
	args := parts[1:]

	return d.handleCommand(cmd, args)
}

// handleCommand dispatches commands to appropriate handlers.
func (d *Debugger) handleCommand(cmd string, args []string) error {
	switch cmd {
	case "run", "r":
		return d.cmdRun(args)
	case "continue", "c":
		return d.cmdContinue(args)
	case "step", "s", "si":
		return d.cmdStep(args)
	case "next", "n":
		return d.cmdNext(args)
	case "finish", "fin":
		return d.cmdFinish(args)

	case "break", "b":
		return d.cmdBreak(args)
	case "tbreak", "tb":
		return d.cmdTBreak(args)
	case "delete", "d":
		return d.cmdDelete(args)
	case "enable":
		return d.cmdEnable(args)
	case "disable":
		return d.cmdDisable(args)

	case "watch", "w":
		return d.cmdWatch(args)

	case "print", "p":
		return d.cmdPrint(args)
	case "info", "i":
		return d.cmdInfo(args)
	case "backtrace", "bt", "where":
		return d.cmdBacktrace(args)
	case "list", "l":
		return d.cmdList(args)

	case "set":
		return d.cmdSet(args)

	case "help", "h", "?":
		return d.cmdHelp(args)

	default:
		return fmt.Errorf("unknown command: %s (type 'help' for available commands)", cmd)
	}
}

// GetOutput returns and clears the output buffer.
func (d *Debugger) GetOutput() string {
	output := d.Output.String()
	d.Output.Reset()
	return output
}

// Printf writes formatted output to the output buffer.
func (d *Debugger) Printf(format string, args ...interface{}) {
	d.Output.WriteString(fmt.Sprintf(format, args...))
}

// Println writes a line to the output buffer.
func (d *Debugger) Println(args ...interface{}) {
	d.Output.WriteString(fmt.Sprintln(args...))
}

func truthyValue(v vars.Value) bool {
	switch v.Kind {
	case vars.KindLong:
		return v.Long != 0
	case vars.KindFloat:
		return v.Float != 0
	case vars.KindString:
		return v.Str != nil && v.Str.Value() != ""
	default:
		return false
	}
}
