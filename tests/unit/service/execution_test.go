package service_test

import (
	"testing"
	"time"

	"github.com/justina-lang/justina/service"
)

func waitForIdle(t *testing.T, svc *service.DebuggerService) {
	t.Helper()
	deadline := time.After(2 * time.Second)
	for svc.IsRunning() {
		select {
		case <-deadline:
			t.Fatal("timed out waiting for execution to finish")
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestDebuggerService_RunAsync(t *testing.T) {
	svc := newService(t)
	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	if err := svc.RunAsync(); err != nil {
		t.Fatalf("RunAsync failed: %v", err)
	}
	waitForIdle(t, svc)

	if state := svc.GetExecutionState(); state == service.StateRunning {
		t.Errorf("expected execution to have finished, still %s", state)
	}

	vars, err := svc.GetVariables()
	if err != nil {
		t.Fatalf("GetVariables failed: %v", err)
	}
	for _, v := range vars {
		if v.Name == "total" && v.Value != "3" {
			t.Errorf("expected total=3, got %s", v.Value)
		}
	}
}

func TestDebuggerService_RunAsyncRejectsConcurrentRun(t *testing.T) {
	svc := newService(t)
	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	if err := svc.RunAsync(); err != nil {
		t.Fatalf("first RunAsync failed: %v", err)
	}
	if err := svc.RunAsync(); err == nil {
		t.Error("expected a second concurrent RunAsync to fail")
	}
	waitForIdle(t, svc)
}

func TestDebuggerService_StepAsync(t *testing.T) {
	svc := newService(t)
	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	if err := svc.StepAsync(); err != nil {
		t.Fatalf("StepAsync failed: %v", err)
	}
	waitForIdle(t, svc)

	if svc.GetExecutionState() == service.StateError {
		t.Error("did not expect an error after a single step")
	}
}

func TestDebuggerService_BreakpointStopsRun(t *testing.T) {
	svc := newService(t)
	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	if _, err := svc.AddBreakpoint(4, ""); err != nil {
		t.Fatalf("AddBreakpoint failed: %v", err)
	}

	if err := svc.RunAsync(); err != nil {
		t.Fatalf("RunAsync failed: %v", err)
	}
	waitForIdle(t, svc)

	if state := svc.GetExecutionState(); state != service.StateBreakpoint {
		t.Errorf("expected StateBreakpoint, got %s", state)
	}
}

func TestDebuggerService_Pause(t *testing.T) {
	svc := newService(t)
	if err := svc.LoadProgram(sampleProgram); err != nil {
		t.Fatalf("LoadProgram failed: %v", err)
	}

	if err := svc.RunAsync(); err != nil {
		t.Fatalf("RunAsync failed: %v", err)
	}
	if err := svc.Pause(); err != nil {
		t.Fatalf("Pause failed: %v", err)
	}
	waitForIdle(t, svc)
}

func TestDebuggerService_PauseWithoutProgramFails(t *testing.T) {
	svc := newService(t)
	if err := svc.Pause(); err == nil {
		t.Error("expected Pause to fail when no program has been loaded")
	}
}

func TestDebuggerService_RunAsyncWithoutProgramFails(t *testing.T) {
	svc := newService(t)
	if err := svc.RunAsync(); err == nil {
		t.Error("expected RunAsync to fail when no program has been loaded")
	}
}
