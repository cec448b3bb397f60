package debugger_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/gdamore/tcell/v2"
	"github.com/justina-lang/justina/debugger"
)

// createTestTUI creates a TUI with a simulation screen for testing.
func createTestTUI(t *testing.T) (*debugger.TUI, tcell.SimulationScreen) {
	t.Helper()
	dbg := newDebugger(t, sampleProgram)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	tui := debugger.NewTUIWithScreen(dbg, screen)
	return tui, screen
}

func TestNewTUI(t *testing.T) {
	dbg := newDebugger(t, sampleProgram)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := debugger.NewTUIWithScreen(dbg, screen)

	if tui == nil {
		t.Fatal("NewTUIWithScreen returned nil")
	}
	if tui.Debugger != dbg {
		t.Error("TUI debugger not set correctly")
	}
	if tui.App == nil {
		t.Error("TUI app not initialized")
	}
	if tui.Pages == nil {
		t.Error("TUI pages not initialized")
	}
}

func TestTUIViewsInitialized(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	tests := []struct {
		name string
		view interface{}
	}{
		{"SourceView", tui.SourceView},
		{"VariablesView", tui.VariablesView},
		{"BreakpointsView", tui.BreakpointsView},
		{"OutputView", tui.OutputView},
		{"CommandInput", tui.CommandInput},
	}

	for _, tt := range tests {
		if tt.view == nil {
			t.Errorf("%s not initialized", tt.name)
		}
	}
}

func TestTUILayoutInitialized(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	if tui.MainLayout == nil {
		t.Error("MainLayout not initialized")
	}
	if tui.LeftPanel == nil {
		t.Error("LeftPanel not initialized")
	}
	if tui.RightPanel == nil {
		t.Error("RightPanel not initialized")
	}
}

func TestTUIWriteOutput(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	tui.WriteOutput("Test output\n")

	text := tui.OutputView.GetText(false)
	if text != "Test output\n" {
		t.Errorf("Expected 'Test output\\n', got '%s'", text)
	}
}

func TestTUIUpdateSourceView(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	tui.UpdateSourceView()

	text := tui.SourceView.GetText(false)
	if text == "" {
		t.Error("SourceView not updated")
	}
	if !strings.Contains(text, "total") {
		t.Error("SourceView should contain the loaded program's source")
	}
}

func TestTUIUpdateSourceViewNoSource(t *testing.T) {
	dbg := newDebugger(t, "")
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := debugger.NewTUIWithScreen(dbg, screen)
	tui.UpdateSourceView()

	text := tui.SourceView.GetText(false)
	if !strings.Contains(text, "No source loaded") {
		t.Errorf("SourceView should show 'no source' message, got: %s", text)
	}
}

func TestTUIUpdateVariablesView(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	tui.UpdateVariablesView()

	text := tui.VariablesView.GetText(false)
	if text == "" {
		t.Error("VariablesView not updated")
	}
	if !strings.Contains(text, "total") {
		t.Error("VariablesView should list the program's global variable")
	}
}

func TestTUIUpdateBreakpointsView(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	step, err := tui.Debugger.ResolveLine(3)
	if err != nil {
		t.Fatalf("ResolveLine failed: %v", err)
	}
	tui.Debugger.Breakpoints.AddBreakpoint(step, false, "")

	tui.UpdateBreakpointsView()

	text := tui.BreakpointsView.GetText(false)
	if text == "" {
		t.Error("BreakpointsView not updated")
	}
	if !strings.Contains(text, "line 3") {
		t.Errorf("expected breakpoint at line 3 in output, got: %s", text)
	}
}

func TestTUIUpdateBreakpointsViewNoBreakpoints(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	tui.UpdateBreakpointsView()

	text := tui.BreakpointsView.GetText(false)
	if !strings.Contains(text, "No breakpoints set") {
		t.Errorf("BreakpointsView should show 'no breakpoints' message, got: %s", text)
	}
}

func TestTUIUpdateBreakpointsViewWithWatchpoints(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	tui.Debugger.Watchpoints.AddWatchpoint(debugger.WatchWrite, "total")

	tui.UpdateBreakpointsView()

	text := tui.BreakpointsView.GetText(false)
	if !strings.Contains(text, "watch total") {
		t.Errorf("expected watchpoint listed, got: %s", text)
	}
}

func TestTUIRefreshAll(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	step, err := tui.Debugger.ResolveLine(3)
	if err != nil {
		t.Fatalf("ResolveLine failed: %v", err)
	}
	tui.Debugger.Breakpoints.AddBreakpoint(step, false, "")

	tui.UpdateSourceView()
	tui.UpdateVariablesView()
	tui.UpdateBreakpointsView()

	if tui.SourceView.GetText(false) == "" {
		t.Error("SourceView not updated")
	}
	if tui.BreakpointsView.GetText(false) == "" {
		t.Error("BreakpointsView not updated")
	}
}

func TestTUIExecuteQuitMessage(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	tui.WriteOutput("[yellow]Exiting debugger...[white]\n")

	text := tui.OutputView.GetText(false)
	if !strings.Contains(text, "Exiting") {
		t.Error("quit message should be written to output")
	}
}

func TestTUIExecuteInvalidCommandMessage(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	tui.WriteOutput("[red]Error:[white] Unknown command\n")

	text := tui.OutputView.GetText(false)
	if !strings.Contains(text, "Error") && !strings.Contains(text, "Unknown") {
		t.Error("error message should be written to output")
	}
}

func TestTUIKeyBindings(t *testing.T) {
	tui, screen := createTestTUI(t)
	defer screen.Fini()

	if tui.App == nil {
		t.Error("TUI app not initialized with key bindings")
	}
}

func TestTUIFormatValueHelper(t *testing.T) {
	// Sanity check of the plain-decimal fmt pattern that values are
	// formatted with (rather than hex words).
	if got := fmt.Sprintf("%d", 3); got != "3" {
		t.Errorf("unexpected formatting: %s", got)
	}
}
