package service_test

import (
	"testing"

	"github.com/justina-lang/justina/service"
)

const sampleProgram = "var total\n" +
	"total = 0\n" +
	"total = total + 1\n" +
	"total = total + 2\n" +
	"print total\n"

func newService(t *testing.T) *service.DebuggerService {
	t.Helper()
	svc, err := service.NewDebuggerService("", nil)
	if err != nil {
		t.Fatalf("NewDebuggerService failed: %v", err)
	}
	t.Cleanup(func() { _ = svc.Close() })
	return svc
}

func TestNewDebuggerService(t *testing.T) {
	svc := newService(t)

	if svc.GetExecutionState() != service.StateHalted {
		t.Errorf("expected a fresh service to start halted, got %s", svc.GetExecutionState())
	}
	if svc.IsRunning() {
		t.Error("expected a fresh service to not be running")
	}
}

func TestDebuggerService_LoadProgram(t *testing.T) {
	svc := newService(t)

	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	lines, breakable, err := svc.GetSourceMap()
	if err != nil {
		t.Fatalf("GetSourceMap failed: %v", err)
	}
	if len(lines) == 0 {
		t.Error("expected non-empty source lines")
	}
	if len(breakable) == 0 {
		t.Error("expected at least one breakable line")
	}
}

func TestDebuggerService_LoadProgramRejectsParseError(t *testing.T) {
	svc := newService(t)

	if err := svc.LoadProgram("end\n"); err == nil {
		t.Error("expected an error loading a program with an unmatched end")
	}
}

func TestDebuggerService_GetVariables(t *testing.T) {
	svc := newService(t)
	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	vars, err := svc.GetVariables()
	if err != nil {
		t.Fatalf("GetVariables failed: %v", err)
	}

	found := false
	for _, v := range vars {
		if v.Name == "total" {
			found = true
		}
	}
	if !found {
		t.Error("expected 'total' in the variable list")
	}
}

func TestDebuggerService_Reset(t *testing.T) {
	svc := newService(t)
	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	if err := svc.Reset(); err != nil {
		t.Fatalf("Reset failed: %v", err)
	}
	if svc.GetExecutionState() != service.StateHalted {
		t.Errorf("expected halted state after reset, got %s", svc.GetExecutionState())
	}
}

func TestDebuggerService_ResetWithoutProgramFails(t *testing.T) {
	svc := newService(t)
	if err := svc.Reset(); err == nil {
		t.Error("expected Reset to fail when no program has been loaded")
	}
}

func TestDebuggerService_BreakpointLifecycle(t *testing.T) {
	svc := newService(t)
	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	bp, err := svc.AddBreakpoint(3, "")
	if err != nil {
		t.Fatalf("AddBreakpoint failed: %v", err)
	}
	if bp.Line != 3 {
		t.Errorf("expected breakpoint on line 3, got %d", bp.Line)
	}

	all, err := svc.GetBreakpoints()
	if err != nil {
		t.Fatalf("GetBreakpoints failed: %v", err)
	}
	if len(all) != 1 {
		t.Fatalf("expected 1 breakpoint, got %d", len(all))
	}

	if err := svc.RemoveBreakpoint(bp.ID); err != nil {
		t.Fatalf("RemoveBreakpoint failed: %v", err)
	}
	all, err = svc.GetBreakpoints()
	if err != nil {
		t.Fatalf("GetBreakpoints failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("expected 0 breakpoints after removal, got %d", len(all))
	}
}

func TestDebuggerService_WatchpointLifecycle(t *testing.T) {
	svc := newService(t)
	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	wp, err := svc.AddWatchpoint("total", "write")
	if err != nil {
		t.Fatalf("AddWatchpoint failed: %v", err)
	}
	if wp.Expression != "total" {
		t.Errorf("expected expression 'total', got %q", wp.Expression)
	}

	wps, err := svc.GetWatchpoints()
	if err != nil {
		t.Fatalf("GetWatchpoints failed: %v", err)
	}
	if len(wps) != 1 {
		t.Fatalf("expected 1 watchpoint, got %d", len(wps))
	}

	if err := svc.RemoveWatchpoint(wp.ID); err != nil {
		t.Fatalf("RemoveWatchpoint failed: %v", err)
	}
}

func TestDebuggerService_AddWatchpointRejectsInvalidType(t *testing.T) {
	svc := newService(t)
	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}
	if _, err := svc.AddWatchpoint("total", "bogus"); err == nil {
		t.Error("expected an error for an invalid watchpoint type")
	}
}

func TestDebuggerService_ExecuteCommandWithoutProgramFails(t *testing.T) {
	svc := newService(t)
	if _, err := svc.ExecuteCommand("help"); err == nil {
		t.Error("expected ExecuteCommand to fail before a program is loaded")
	}
}
