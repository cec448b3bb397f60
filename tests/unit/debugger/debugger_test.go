package debugger_test

import (
	"strings"
	"testing"
	"time"

	"github.com/justina-lang/justina/debugger"
	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/flow"
	"github.com/justina-lang/justina/host"
	"github.com/justina-lang/justina/loader"
)

func newDebugger(t *testing.T, src string) *debugger.Debugger {
	t.Helper()
	prog, err := loader.Load(strings.NewReader(src))
	if err != nil {
		t.Fatalf("loader.Load failed: %v", err)
	}
	h := &host.Host{}
	engine := flow.NewEngine(prog.Parser.Tables, prog.Parser.Buf, h, eval.NewBuiltinTable(), prog.Parser.Functions)
	return debugger.NewDebugger(engine, prog)
}

const sampleProgram = "var total\n" +
	"total = 0\n" +
	"total = total + 1\n" +
	"total = total + 2\n" +
	"total = total + 3\n"

func TestNewDebugger(t *testing.T) {
	dbg := newDebugger(t, sampleProgram)

	if dbg == nil {
		t.Fatal("NewDebugger returned nil")
	}
	if dbg.Breakpoints == nil {
		t.Error("Breakpoints not initialized")
	}
	if dbg.Watchpoints == nil {
		t.Error("Watchpoints not initialized")
	}
	if dbg.History == nil {
		t.Error("History not initialized")
	}
}

func TestExecuteCommandHelp(t *testing.T) {
	dbg := newDebugger(t, sampleProgram)

	if err := dbg.ExecuteCommand("help"); err != nil {
		t.Fatalf("help command failed: %v", err)
	}

	output := dbg.GetOutput()
	if !strings.Contains(output, "Justina Debugger Commands") {
		t.Error("help output not found")
	}
}

func TestExecuteCommandUnknown(t *testing.T) {
	dbg := newDebugger(t, sampleProgram)

	if err := dbg.ExecuteCommand("invalidcmd"); err == nil {
		t.Error("expected an error for an unknown command")
	}
}

func TestBreakpointCommands(t *testing.T) {
	dbg := newDebugger(t, sampleProgram)

	if err := dbg.ExecuteCommand("break 3"); err != nil {
		t.Fatalf("failed to set breakpoint: %v", err)
	}

	output := dbg.GetOutput()
	if !strings.Contains(output, "Breakpoint") {
		t.Error("breakpoint not confirmed in output")
	}

	step, err := dbg.ResolveLine(3)
	if err != nil {
		t.Fatalf("ResolveLine failed: %v", err)
	}

	bp := dbg.Breakpoints.GetBreakpoint(step)
	if bp == nil {
		t.Fatal("breakpoint not created")
	}
	if !bp.Enabled {
		t.Error("breakpoint not enabled")
	}

	if err := dbg.ExecuteCommand("disable 1"); err != nil {
		t.Fatalf("failed to disable breakpoint: %v", err)
	}
	if bp.Enabled {
		t.Error("breakpoint still enabled after disable")
	}

	if err := dbg.ExecuteCommand("enable 1"); err != nil {
		t.Fatalf("failed to enable breakpoint: %v", err)
	}
	if !bp.Enabled {
		t.Error("breakpoint not enabled after enable")
	}

	if err := dbg.ExecuteCommand("delete 1"); err != nil {
		t.Fatalf("failed to delete breakpoint: %v", err)
	}
	if dbg.Breakpoints.GetBreakpoint(step) != nil {
		t.Error("breakpoint not deleted")
	}
}

func TestTemporaryBreakpoint(t *testing.T) {
	dbg := newDebugger(t, sampleProgram)

	if err := dbg.ExecuteCommand("tbreak 3"); err != nil {
		t.Fatalf("failed to set temporary breakpoint: %v", err)
	}

	step, err := dbg.ResolveLine(3)
	if err != nil {
		t.Fatalf("ResolveLine failed: %v", err)
	}

	bp := dbg.Breakpoints.GetBreakpoint(step)
	if bp == nil {
		t.Fatal("temporary breakpoint not created")
	}
	if !bp.Temporary {
		t.Error("breakpoint not marked as temporary")
	}
}

func TestRunStopsAtBreakpoint(t *testing.T) {
	dbg := newDebugger(t, sampleProgram)

	if err := dbg.ExecuteCommand("break 3"); err != nil {
		t.Fatalf("failed to set breakpoint: %v", err)
	}
	dbg.GetOutput()

	done := make(chan error, 1)
	go func() { done <- dbg.ExecuteCommand("run") }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop within 2 seconds - possible deadlock")
	}

	output := dbg.GetOutput()
	if !strings.Contains(output, "breakpoint 1") {
		t.Errorf("expected breakpoint stop reason, got: %s", output)
	}

	bp := dbg.Breakpoints.GetAllBreakpoints()[0]
	if bp.HitCount != 1 {
		t.Errorf("hit count = %d, want 1", bp.HitCount)
	}

	if err := dbg.ExecuteCommand("continue"); err != nil {
		t.Fatalf("continue failed: %v", err)
	}
}

func TestPrintCommand(t *testing.T) {
	dbg := newDebugger(t, sampleProgram)

	if err := dbg.ExecuteCommand("break 5"); err != nil {
		t.Fatalf("failed to set breakpoint: %v", err)
	}
	dbg.GetOutput()

	done := make(chan error, 1)
	go func() { done <- dbg.ExecuteCommand("run") }()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop")
	}
	dbg.GetOutput()

	if err := dbg.ExecuteCommand("print total"); err != nil {
		t.Fatalf("print failed: %v", err)
	}

	output := dbg.GetOutput()
	if !strings.Contains(output, "3") {
		t.Errorf("expected total == 3 (breakpoint fires before line 5 runs), got output: %s", output)
	}
}

func TestCommandHistory(t *testing.T) {
	dbg := newDebugger(t, sampleProgram)

	cmds := []string{"break 3", "help"}
	for _, cmd := range cmds {
		_ = dbg.ExecuteCommand(cmd)
		dbg.GetOutput()
	}

	history := dbg.History.GetAll()
	if len(history) != len(cmds) {
		t.Errorf("expected %d commands in history, got %d", len(cmds), len(history))
	}

	last := dbg.History.GetLast()
	if last != cmds[len(cmds)-1] {
		t.Errorf("last command = %s, want %s", last, cmds[len(cmds)-1])
	}
}

func TestConditionalBreakpoint(t *testing.T) {
	dbg := newDebugger(t, sampleProgram)

	if err := dbg.ExecuteCommand("break 3 if total == 99"); err != nil {
		t.Fatalf("failed to set conditional breakpoint: %v", err)
	}
	dbg.GetOutput()

	done := make(chan error, 1)
	go func() { done <- dbg.ExecuteCommand("run") }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not finish")
	}

	output := dbg.GetOutput()
	if !strings.Contains(output, "Program exited") {
		t.Errorf("expected the condition to never hold and the program to run to completion, got: %s", output)
	}
}
