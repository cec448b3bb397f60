package service_test

import (
	"testing"

	"github.com/justina-lang/justina/service"
)

func TestVariableInfo_Creation(t *testing.T) {
	v := service.VariableInfo{Name: "total", Value: "42"}

	if v.Name != "total" {
		t.Errorf("expected name 'total', got %q", v.Name)
	}
	if v.Value != "42" {
		t.Errorf("expected value '42', got %q", v.Value)
	}
}

func TestBreakpointInfo_WithCondition(t *testing.T) {
	bp := service.BreakpointInfo{
		ID:        1,
		Line:      10,
		Enabled:   true,
		Condition: "x > 10",
	}

	if bp.Condition != "x > 10" {
		t.Errorf("expected condition 'x > 10', got %q", bp.Condition)
	}
	if bp.Line != 10 {
		t.Errorf("expected line 10, got %d", bp.Line)
	}
}

func TestWatchpointInfo_Creation(t *testing.T) {
	wp := service.WatchpointInfo{
		ID:         1,
		Expression: "total",
		Type:       "write",
		Enabled:    true,
	}

	if wp.Expression != "total" {
		t.Errorf("expected expression 'total', got %q", wp.Expression)
	}
	if wp.Type != "write" {
		t.Errorf("expected type 'write', got %q", wp.Type)
	}
}

func TestExecutionState_Values(t *testing.T) {
	states := map[service.ExecutionState]string{
		service.StateRunning:    "running",
		service.StateHalted:     "halted",
		service.StateBreakpoint: "breakpoint",
		service.StateError:      "error",
	}
	for state, want := range states {
		if string(state) != want {
			t.Errorf("expected %q, got %q", want, string(state))
		}
	}
}
