package debugger

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/justina-lang/justina/vars"
)

// Command handler implementations.

// cmdRun starts program execution from the top.
func (d *Debugger) cmdRun(args []string) error {
	ok, reason, err := d.Start()
	return d.reportStop(ok, reason, err, "Starting program execution...")
}

// cmdContinue resumes a paused program until the next breakpoint/
// watchpoint/exit.
func (d *Debugger) cmdContinue(args []string) error {
	if !d.Running {
		return fmt.Errorf("program is not running")
	}
	ok, reason, err := d.Resume(StepNone)
	return d.reportStop(ok, reason, err, "Continuing...")
}

// cmdStep executes a single statement, descending into any call it makes.
func (d *Debugger) cmdStep(args []string) error {
	if !d.Running {
		return fmt.Errorf("program is not running")
	}
	ok, reason, err := d.Resume(StepSingle)
	return d.reportStop(ok, reason, err, "")
}

// cmdNext steps over function calls (statement-level step at the same
// call depth).
func (d *Debugger) cmdNext(args []string) error {
	if !d.Running {
		return fmt.Errorf("program is not running")
	}
	ok, reason, err := d.Resume(StepOver)
	return d.reportStop(ok, reason, err, "")
}

// cmdFinish steps out of the current function.
func (d *Debugger) cmdFinish(args []string) error {
	if !d.Running {
		return fmt.Errorf("program is not running")
	}
	ok, reason, err := d.Resume(StepOut)
	return d.reportStop(ok, reason, err, "")
}

// reportStop prints the result of starting/resuming the program: a pause
// location and reason, a runtime error, or program exit.
func (d *Debugger) reportStop(ok bool, reason string, err error, startMsg string) error {
	if startMsg != "" {
		d.Println(startMsg)
	}
	if err != nil {
		d.Running = false
		return fmt.Errorf("runtime error: %w", err)
	}
	if !ok {
		d.Println("Program exited")
		return nil
	}
	if line, text, found := d.Program.SourceAt(d.currentStep); found {
		d.Printf("Stopped: %s at line %d: %s\n", reason, line, text)
	} else {
		d.Printf("Stopped: %s\n", reason)
	}
	return nil
}

// cmdBreak sets a breakpoint at a source line.
func (d *Debugger) cmdBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: break <line> [if <condition>]")
	}

	line, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid line number: %s", args[0])
	}
	step, err := d.ResolveLine(line)
	if err != nil {
		return err
	}

	var condition string
	if len(args) > 1 && strings.ToLower(args[1]) == "if" {
		condition = strings.Join(args[2:], " ")
	}

	bp := d.Breakpoints.AddBreakpoint(step, false, condition)

	if condition != "" {
		d.Printf("Breakpoint %d at line %d (condition: %s)\n", bp.ID, line, condition)
	} else {
		d.Printf("Breakpoint %d at line %d\n", bp.ID, line)
	}

	return nil
}

// cmdTBreak sets a temporary breakpoint (auto-delete after hit).
func (d *Debugger) cmdTBreak(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: tbreak <line>")
	}

	line, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid line number: %s", args[0])
	}
	step, err := d.ResolveLine(line)
	if err != nil {
		return err
	}

	bp := d.Breakpoints.AddBreakpoint(step, true, "")
	d.Printf("Temporary breakpoint %d at line %d\n", bp.ID, line)

	return nil
}

// cmdDelete deletes breakpoint(s).
func (d *Debugger) cmdDelete(args []string) error {
	if len(args) == 0 {
		d.Breakpoints.Clear()
		d.Println("All breakpoints deleted")
		return nil
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.DeleteBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d deleted\n", id)
	return nil
}

// cmdEnable enables a breakpoint by ID.
func (d *Debugger) cmdEnable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: enable <breakpoint-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.EnableBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d enabled\n", id)
	return nil
}

// cmdDisable disables a breakpoint by ID.
func (d *Debugger) cmdDisable(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: disable <breakpoint-id>")
	}

	id, err := strconv.Atoi(args[0])
	if err != nil {
		return fmt.Errorf("invalid breakpoint ID: %s", args[0])
	}

	if err := d.Breakpoints.DisableBreakpoint(id); err != nil {
		return err
	}

	d.Printf("Breakpoint %d disabled\n", id)
	return nil
}

// cmdWatch sets a watchpoint on a variable or array-element expression.
func (d *Debugger) cmdWatch(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: watch <expression>")
	}

	expression := strings.Join(args, " ")
	wp := d.Watchpoints.AddWatchpoint(WatchWrite, expression)

	if err := d.Watchpoints.InitializeWatchpoint(wp.ID, d.evalExpression); err != nil {
		_ = d.Watchpoints.DeleteWatchpoint(wp.ID)
		return err
	}

	d.Printf("Watchpoint %d: %s\n", wp.ID, expression)
	return nil
}

// cmdPrint evaluates and prints an expression.
func (d *Debugger) cmdPrint(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: print <expression>")
	}

	expression := strings.Join(args, " ")
	result, err := d.evalExpression(expression)
	if err != nil {
		return err
	}

	d.Printf("%s\n", formatValue(result))
	return nil
}

func formatValue(v vars.Value) string {
	switch v.Kind {
	case vars.KindString:
		if v.Str == nil {
			return `""`
		}
		return fmt.Sprintf("%q", v.Str.Value())
	case vars.KindFloat:
		return fmt.Sprintf("%v", v.Float)
	default:
		return fmt.Sprintf("%d", v.Long)
	}
}

// cmdInfo displays information about program state.
func (d *Debugger) cmdInfo(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: info <breakpoints|watchpoints|locals>")
	}

	switch strings.ToLower(args[0]) {
	case "breakpoints", "break", "b":
		return d.showBreakpoints()
	case "watchpoints", "watch", "w":
		return d.showWatchpoints()
	case "locals", "vars", "v":
		return d.showLocals()
	default:
		return fmt.Errorf("unknown info command: %s", args[0])
	}
}

// showBreakpoints displays all breakpoints.
func (d *Debugger) showBreakpoints() error {
	breakpoints := d.Breakpoints.GetAllBreakpoints()
	if len(breakpoints) == 0 {
		d.Println("No breakpoints")
		return nil
	}

	d.Println("Breakpoints:")
	for _, bp := range breakpoints {
		status := "enabled"
		if !bp.Enabled {
			status = "disabled"
		}

		temp := ""
		if bp.Temporary {
			temp = " (temporary)"
		}

		condition := ""
		if bp.Condition != "" {
			condition = fmt.Sprintf(" if %s", bp.Condition)
		}

		line, _, _ := d.Program.SourceAt(bp.Step)
		d.Printf("  %d: line %d %s%s%s (hit %d times)\n",
			bp.ID, line, status, temp, condition, bp.HitCount)
	}

	return nil
}

// showWatchpoints displays all watchpoints.
func (d *Debugger) showWatchpoints() error {
	watchpoints := d.Watchpoints.GetAllWatchpoints()
	if len(watchpoints) == 0 {
		d.Println("No watchpoints")
		return nil
	}

	d.Println("Watchpoints:")
	for _, wp := range watchpoints {
		status := "enabled"
		if !wp.Enabled {
			status = "disabled"
		}

		d.Printf("  %d: %s %s (hit %d times, last value: %s)\n",
			wp.ID, wp.Expression, status, wp.HitCount, wp.LastValue)
	}

	return nil
}

// showLocals shows the program's global variables, each evaluated in the
// paused frame; locals and statics are not listed.
func (d *Debugger) showLocals() error {
	names := d.Engine.Tables.GlobalNames()
	if len(names) == 0 {
		d.Println("No variables")
		return nil
	}

	d.Println("Variables:")
	for _, name := range names {
		v, err := d.evalExpression(name)
		if err != nil {
			continue
		}
		d.Printf("  %s = %s\n", name, formatValue(v))
	}

	return nil
}

// cmdBacktrace shows the call stack depth (spec.md's call frames aren't
// individually named beyond the function that owns each one, so this
// reports depth and the paused line rather than a full frame list).
func (d *Debugger) cmdBacktrace(args []string) error {
	line, text, found := d.Program.SourceAt(d.currentStep)
	d.Println("Call stack:")
	if found {
		d.Printf("  #0  line %d: %s (depth %d)\n", line, text, d.currentDepth)
	} else {
		d.Printf("  #0  (depth %d)\n", d.currentDepth)
	}
	return nil
}

// cmdList shows source code around the current statement.
func (d *Debugger) cmdList(args []string) error {
	line, _, found := d.Program.SourceAt(d.currentStep)
	if !found {
		d.Println("<no source>")
		return nil
	}

	from := line - CodeContextLinesBeforeCompact
	if from < 1 {
		from = 1
	}
	to := line + CodeContextLinesAfterCompact
	if to >= len(d.Program.Lines) {
		to = len(d.Program.Lines) - 1
	}

	for i := from; i <= to; i++ {
		marker := "  "
		if i == line {
			marker = "=>"
		}
		d.Printf("%s %4d  %s\n", marker, i, d.Program.Lines[i])
	}

	return nil
}

// cmdSet assigns an expression's value to a variable.
func (d *Debugger) cmdSet(args []string) error {
	if len(args) < 3 || args[1] != "=" {
		return fmt.Errorf("usage: set <variable> = <expression>")
	}

	assignment := strings.Join(args, " ")
	if _, err := d.evalExpression(assignment); err != nil {
		return err
	}

	d.Printf("%s\n", assignment)
	return nil
}

// cmdHelp displays help information.
func (d *Debugger) cmdHelp(args []string) error {
	if len(args) > 0 {
		return d.showCommandHelp(args[0])
	}

	d.Println("Justina Debugger Commands:")
	d.Println()
	d.Println("Execution Control:")
	d.Println("  run (r)           - Start program execution")
	d.Println("  continue (c)      - Continue execution")
	d.Println("  step (s, si)      - Execute a single statement")
	d.Println("  next (n)          - Step over function calls")
	d.Println("  finish (fin)      - Step out of current function")
	d.Println()
	d.Println("Breakpoints:")
	d.Println("  break (b) <line>  - Set breakpoint")
	d.Println("  tbreak (tb) <line>- Set temporary breakpoint")
	d.Println("  delete (d) [id]   - Delete breakpoint(s)")
	d.Println("  enable <id>       - Enable breakpoint")
	d.Println("  disable <id>      - Disable breakpoint")
	d.Println()
	d.Println("Watchpoints:")
	d.Println("  watch (w) <expr>  - Watch a variable expression for changes")
	d.Println()
	d.Println("Inspection:")
	d.Println("  print (p) <expr>  - Evaluate expression")
	d.Println("  info (i) <what>   - Show information (breakpoints/watchpoints/locals)")
	d.Println("  backtrace (bt)    - Show call depth")
	d.Println("  list (l)          - List source code")
	d.Println()
	d.Println("Modification:")
	d.Println("  set <var> = <val> - Assign a variable")
	d.Println()
	d.Println("Control:")
	d.Println("  help (h, ?)       - Show this help")
	d.Println()
	d.Println("Type 'help <command>' for detailed help on a specific command.")

	return nil
}

// showCommandHelp shows detailed help for a specific command.
func (d *Debugger) showCommandHelp(cmd string) error {
	helpText := map[string]string{
		"break": "break <line> [if <condition>]\n  Set a breakpoint at the specified source line.\n  Optional condition will be evaluated each time.",
		"step":  "step\n  Execute a single statement, descending into any call it makes.",
		"next":  "next\n  Step over function calls (execute until the next statement at the same call depth).",
		"print": "print <expression>\n  Evaluate and print an expression against the currently paused frame.",
		"info":  "info <breakpoints|watchpoints|locals>\n  Display information about program state.",
	}

	if help, exists := helpText[cmd]; exists {
		d.Println(help)
		return nil
	}

	return fmt.Errorf("no help available for command: %s", cmd)
}
