package debugger_test

import (
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/justina-lang/justina/debugger"
)

// createPausedTUI starts sampleProgram in the background, stopped at a
// breakpoint on line 3, so concurrent view-update tests have a stable
// paused frame to read from.
func createPausedTUI(t *testing.T) (*debugger.TUI, tcell.SimulationScreen) {
	t.Helper()
	tui, screen := createTestTUI(t)

	if err := tui.Debugger.ExecuteCommand("break 3"); err != nil {
		t.Fatalf("failed to set breakpoint: %v", err)
	}
	tui.Debugger.GetOutput()

	done := make(chan error, 1)
	go func() { done <- tui.Debugger.ExecuteCommand("run") }()

	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("run failed: %v", err)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("run did not stop at breakpoint within 2 seconds")
	}
	out := tui.Debugger.GetOutput()
	if !strings.Contains(out, "breakpoint 1") {
		t.Fatalf("expected to stop at breakpoint 1, got: %s", out)
	}

	return tui, screen
}

// TestTUI_ConcurrentSourceViewUpdates verifies repeated concurrent reads of
// the paused source view don't race or panic.
func TestTUI_ConcurrentSourceViewUpdates(t *testing.T) {
	tui, screen := createPausedTUI(t)
	defer screen.Fini()

	const numGoroutines = 10
	const numIterations = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				tui.UpdateSourceView()
			}
		}()
	}
	wg.Wait()
}

// TestTUI_ConcurrentVariablesViewUpdates verifies concurrent evaluation of
// every global variable (via Debugger.evalExpression, mutex-guarded) is
// race-free.
func TestTUI_ConcurrentVariablesViewUpdates(t *testing.T) {
	tui, screen := createPausedTUI(t)
	defer screen.Fini()

	const numGoroutines = 10
	const numIterations = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				tui.UpdateVariablesView()
			}
		}()
	}
	wg.Wait()
}

// TestTUI_ConcurrentBreakpointsViewUpdates verifies concurrent reads of
// breakpoint/watchpoint state are race-free.
func TestTUI_ConcurrentBreakpointsViewUpdates(t *testing.T) {
	tui, screen := createPausedTUI(t)
	defer screen.Fini()

	tui.Debugger.Watchpoints.AddWatchpoint(debugger.WatchWrite, "total")

	const numGoroutines = 10
	const numIterations = 100

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				tui.UpdateBreakpointsView()
			}
		}()
	}
	wg.Wait()
}

// TestTUI_ConcurrentMixedViewUpdates simulates RefreshAll's pattern of
// updating every panel back to back, called from several goroutines at
// once, against a single paused Debugger.
func TestTUI_ConcurrentMixedViewUpdates(t *testing.T) {
	tui, screen := createPausedTUI(t)
	defer screen.Fini()

	const numGoroutines = 5
	const numIterations = 50

	var wg sync.WaitGroup
	wg.Add(numGoroutines)
	for i := 0; i < numGoroutines; i++ {
		go func() {
			defer wg.Done()
			for j := 0; j < numIterations; j++ {
				tui.UpdateSourceView()
				tui.UpdateVariablesView()
				tui.UpdateBreakpointsView()
			}
		}()
	}
	wg.Wait()
}

// TestTUI_ReadWhileStepping simulates a UI goroutine continuously
// re-reading view state while the debugger itself steps forward on its own
// goroutine, matching the real split between the program's goroutine
// (onStep mutating currentStep/currentDepth/currentVA) and the UI's.
func TestTUI_ReadWhileStepping(t *testing.T) {
	tui, screen := createPausedTUI(t)
	defer screen.Fini()

	var wg sync.WaitGroup
	wg.Add(2)

	stop := make(chan struct{})

	go func() {
		defer wg.Done()
		for i := 0; i < 50; i++ {
			select {
			case <-stop:
				return
			default:
			}
			tui.UpdateSourceView()
			tui.UpdateVariablesView()
		}
	}()

	go func() {
		defer wg.Done()
		defer close(stop)
		for i := 0; i < 2; i++ {
			if err := tui.Debugger.ExecuteCommand("step"); err != nil {
				return
			}
			tui.Debugger.GetOutput()
		}
	}()

	wg.Wait()
}
