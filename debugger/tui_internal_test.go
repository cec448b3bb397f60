package debugger

import (
	"strings"
	"testing"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/flow"
	"github.com/justina-lang/justina/host"
	"github.com/justina-lang/justina/loader"
)

func newTestDebugger(t *testing.T) *Debugger {
	t.Helper()
	prog, err := loader.Load(strings.NewReader("var x\nx = 1\n"))
	if err != nil {
		t.Fatalf("loader.Load failed: %v", err)
	}
	h := &host.Host{}
	engine := flow.NewEngine(prog.Parser.Tables, prog.Parser.Buf, h, eval.NewBuiltinTable(), prog.Parser.Functions)
	return NewDebugger(engine, prog)
}

// TestExecuteCommandAsync tests that executeCommand doesn't block.
func TestExecuteCommandAsync(t *testing.T) {
	dbg := newTestDebugger(t)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := NewTUIWithScreen(dbg, screen)

	done := make(chan bool, 1)
	go func() {
		tui.executeCommand("help")
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(time.Second * 2):
		t.Fatal("executeCommand blocked for more than 2 seconds - deadlock detected")
	}
}

// TestHandleCommandAsync tests that handleCommand doesn't block.
func TestHandleCommandAsync(t *testing.T) {
	dbg := newTestDebugger(t)
	screen := tcell.NewSimulationScreen("UTF-8")
	if err := screen.Init(); err != nil {
		t.Fatalf("failed to init simulation screen: %v", err)
	}
	defer screen.Fini()

	tui := NewTUIWithScreen(dbg, screen)
	tui.CommandInput.SetText("help")

	done := make(chan bool, 1)
	go func() {
		tui.handleCommand(tcell.KeyEnter)
		done <- true
	}()

	select {
	case <-done:
	case <-time.After(time.Millisecond * 100):
		t.Fatal("handleCommand blocked for more than 100ms - should return immediately")
	}
}
