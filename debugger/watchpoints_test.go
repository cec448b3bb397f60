package debugger

import (
	"fmt"
	"testing"

	"github.com/justina-lang/justina/vars"
)

// fakeResolver resolves a watched expression against a plain map, standing
// in for Debugger.evalExpression in tests that only exercise
// WatchpointManager itself.
type fakeResolver map[string]vars.Value

func (r fakeResolver) resolve(expr string) (vars.Value, error) {
	v, ok := r[expr]
	if !ok {
		return vars.Value{}, fmt.Errorf("no such variable: %s", expr)
	}
	return v, nil
}

func TestWatchpointManager_AddWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchWrite, "total")

	if wp == nil {
		t.Fatal("AddWatchpoint returned nil")
	}

	if wp.ID != 1 {
		t.Errorf("Expected ID 1, got %d", wp.ID)
	}

	if wp.Type != WatchWrite {
		t.Errorf("Wrong watchpoint type: got %d, want %d", wp.Type, WatchWrite)
	}

	if wp.Expression != "total" {
		t.Errorf("Expression = %s, want total", wp.Expression)
	}

	if !wp.Enabled {
		t.Error("Watchpoint should be enabled by default")
	}

	if wp.HitCount != 0 {
		t.Errorf("Initial hit count should be 0, got %d", wp.HitCount)
	}
}

func TestWatchpointManager_AddMultiple(t *testing.T) {
	wm := NewWatchpointManager()

	wp1 := wm.AddWatchpoint(WatchWrite, "total")
	wp2 := wm.AddWatchpoint(WatchRead, "a(1)")

	if wp1.ID == wp2.ID {
		t.Error("Watchpoint IDs should be unique")
	}

	if wm.Count() != 2 {
		t.Errorf("Expected 2 watchpoints, got %d", wm.Count())
	}
}

func TestWatchpointManager_DeleteWatchpoint(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchWrite, "total")

	err := wm.DeleteWatchpoint(wp.ID)
	if err != nil {
		t.Fatalf("DeleteWatchpoint failed: %v", err)
	}

	if wm.GetWatchpoint(wp.ID) != nil {
		t.Error("Watchpoint not deleted")
	}

	err = wm.DeleteWatchpoint(999)
	if err == nil {
		t.Error("Expected error when deleting non-existent watchpoint")
	}
}

func TestWatchpointManager_EnableDisable(t *testing.T) {
	wm := NewWatchpointManager()

	wp := wm.AddWatchpoint(WatchWrite, "total")

	if err := wm.DisableWatchpoint(wp.ID); err != nil {
		t.Fatalf("DisableWatchpoint failed: %v", err)
	}
	if wp.Enabled {
		t.Error("Watchpoint not disabled")
	}

	if err := wm.EnableWatchpoint(wp.ID); err != nil {
		t.Fatalf("EnableWatchpoint failed: %v", err)
	}
	if !wp.Enabled {
		t.Error("Watchpoint not enabled")
	}
}

func TestWatchpointManager_CheckWatchpoints(t *testing.T) {
	wm := NewWatchpointManager()
	state := fakeResolver{"total": vars.LongValue(100)}

	wp := wm.AddWatchpoint(WatchWrite, "total")

	if err := wm.InitializeWatchpoint(wp.ID, state.resolve); err != nil {
		t.Fatalf("InitializeWatchpoint failed: %v", err)
	}

	// No change.
	triggered, changed := wm.CheckWatchpoints(state.resolve)
	if triggered != nil || changed {
		t.Error("Should not trigger when value hasn't changed")
	}

	// Change value.
	state["total"] = vars.LongValue(200)
	triggered, changed = wm.CheckWatchpoints(state.resolve)
	if triggered == nil || !changed {
		t.Fatal("Should trigger when value changes")
	}

	if triggered.ID != wp.ID {
		t.Errorf("Wrong watchpoint triggered: got %d, want %d", triggered.ID, wp.ID)
	}

	if wp.HitCount != 1 {
		t.Errorf("Hit count = %d, want 1", wp.HitCount)
	}
}

func TestWatchpointManager_CheckWatchpoints_String(t *testing.T) {
	wm := NewWatchpointManager()
	acc := vars.NewAccounting()
	state := fakeResolver{"s": vars.StringValue(vars.NewHeapString(acc, vars.ClassVarStr, "hello"))}

	wp := wm.AddWatchpoint(WatchWrite, "s")
	if err := wm.InitializeWatchpoint(wp.ID, state.resolve); err != nil {
		t.Fatalf("InitializeWatchpoint failed: %v", err)
	}

	triggered, changed := wm.CheckWatchpoints(state.resolve)
	if triggered != nil || changed {
		t.Error("Should not trigger when string content hasn't changed")
	}

	state["s"] = vars.StringValue(vars.NewHeapString(acc, vars.ClassVarStr, "world"))
	triggered, changed = wm.CheckWatchpoints(state.resolve)
	if triggered == nil || !changed {
		t.Fatal("Should trigger when string content changes")
	}
}

func TestWatchpointManager_Disabled(t *testing.T) {
	wm := NewWatchpointManager()
	state := fakeResolver{"total": vars.LongValue(0)}

	wp := wm.AddWatchpoint(WatchWrite, "total")
	_ = wm.InitializeWatchpoint(wp.ID, state.resolve)
	_ = wm.DisableWatchpoint(wp.ID)

	state["total"] = vars.LongValue(100)

	triggered, _ := wm.CheckWatchpoints(state.resolve)
	if triggered != nil {
		t.Error("Disabled watchpoint should not trigger")
	}
}

func TestWatchpointManager_GetAllWatchpoints(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint(WatchWrite, "a")
	wm.AddWatchpoint(WatchRead, "b")
	wm.AddWatchpoint(WatchReadWrite, "c")

	all := wm.GetAllWatchpoints()

	if len(all) != 3 {
		t.Errorf("Expected 3 watchpoints, got %d", len(all))
	}
}

func TestWatchpointManager_Clear(t *testing.T) {
	wm := NewWatchpointManager()

	wm.AddWatchpoint(WatchWrite, "a")
	wm.AddWatchpoint(WatchRead, "b")

	wm.Clear()

	if wm.Count() != 0 {
		t.Errorf("Expected 0 watchpoints after clear, got %d", wm.Count())
	}
}

func TestWatchpoint_Types(t *testing.T) {
	wm := NewWatchpointManager()

	wpWrite := wm.AddWatchpoint(WatchWrite, "a")
	wpRead := wm.AddWatchpoint(WatchRead, "b")
	wpAccess := wm.AddWatchpoint(WatchReadWrite, "c")

	if wpWrite.Type != WatchWrite {
		t.Error("Wrong type for write watchpoint")
	}

	if wpRead.Type != WatchRead {
		t.Error("Wrong type for read watchpoint")
	}

	if wpAccess.Type != WatchReadWrite {
		t.Error("Wrong type for access watchpoint")
	}
}
