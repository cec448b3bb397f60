package flow

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/justina-lang/justina/eval"
	"github.com/justina-lang/justina/parser"
	"github.com/justina-lang/justina/token"
	"github.com/justina-lang/justina/vars"
)

// execSimpleCommand dispatches every reserved word whose BlockRole is
// RoleNone: the non-block commands of spec.md §6.2's command table. Each
// handler reads exactly its own argument tokens and returns the step
// immediately after the statement's terminating semicolon.
func (e *Engine) execSimpleCommand(name string, spec parser.CommandSpec, next token.Step, va eval.VarAccess) (token.Step, error) {
	switch name {
	case "var", "static", "local":
		return e.execDeclare(next, va)
	case "delVar":
		return e.execDelVar(next)
	case "clearVars":
		e.Tables.ClearVars()
		return e.expectSemicolon(next)
	case "vars":
		return e.execListVars(next)
	case "quit":
		e.Flags.Quit = true
		return e.expectSemicolon(next)
	case "halt":
		e.Flags.Abort = true
		return e.expectSemicolon(next)
	case "stop":
		e.Flags.Stop = true
		return e.expectSemicolon(next)
	case "info":
		return e.execInfo(next)
	case "input":
		return e.execInput(next, va)
	case "print":
		return e.execPrint(next, va)
	case "dispFmt":
		return e.execDispFmt(next, va)
	case "dispMod":
		return e.execDispMod(next, va)
	case "pause":
		return e.execPause(next, va)
	case "declareCB":
		return e.execDeclareCB(next)
	case "callback":
		return e.execCallback(next, va)
	case "go", "step", "debug", "nop":
		// Debugger-mode commands: a free-standing flow.Engine (no debugger
		// attached) just advances past them, since the running program's own
		// control flow never depends on the debugger's state machine.
		return e.skipToSemicolon(next)
	default:
		return next, fmt.Errorf("flow: unhandled command %q", name)
	}
}

// skipToSemicolon walks tokens without evaluating them, for commands whose
// arguments carry no runtime behavior in a debugger-less engine.
func (e *Engine) skipToSemicolon(next token.Step) (token.Step, error) {
	pc := next
	for !e.Buf.IsSemicolon(pc) {
		_, after, err := e.Buf.Read(pc)
		if err != nil {
			return pc, fmt.Errorf("flow: %w", err)
		}
		pc = after
	}
	return e.expectSemicolon(pc)
}

// execDelVar implements `delVar`: each argument is an existing variable's
// Variable token (parser.parseExistingVarRef already verified it resolves);
// the token's NameIndex/VarScope are resolved back to a name and handed to
// vars.Tables.DeleteGlobal/DeleteUser (spec.md §6.2). Statics, locals, and
// parameters cannot be deleted — their storage lives for the function's
// static lifetime or call lifetime, not the name-table lifetime delVar
// operates on.
func (e *Engine) execDelVar(next token.Step) (token.Step, error) {
	pc := next
	for !e.Buf.IsSemicolon(pc) {
		tok, after, derr := e.Buf.Read(pc)
		if derr != nil {
			return pc, fmt.Errorf("flow: %w", derr)
		}
		if tok.Kind != token.KindVariable {
			return pc, fmt.Errorf("flow: delVar expects a variable reference")
		}
		switch tok.VarScope {
		case token.ScopeGlobal:
			name := e.Tables.ProgramNames.Name(int(tok.NameIndex))
			if err := e.Tables.DeleteGlobal(name); err != nil {
				return pc, err
			}
		case token.ScopeUser:
			name := e.Tables.UserNames.Name(int(tok.NameIndex))
			if err := e.Tables.DeleteUser(name); err != nil {
				return pc, err
			}
		default:
			return pc, fmt.Errorf("flow: delVar cannot remove a %s variable", tok.VarScope)
		}
		pc = after
	}
	return e.expectSemicolon(pc)
}

// execListVars implements `vars`: prints every currently bound global and
// user variable name, one per line, grounded on the teacher's debugger
// variable-listing commands (a read-only introspection aid, not a value
// dump — spec.md leaves the exact rendering host-defined).
func (e *Engine) execListVars(next token.Step) (token.Step, error) {
	if e.Host != nil && e.Host.Out != nil {
		for _, n := range e.Tables.GlobalNames() {
			e.Host.Out.Print([]byte(n))
			e.Host.Out.Println()
		}
		for _, n := range e.Tables.UserVarNames() {
			e.Host.Out.Print([]byte(n))
			e.Host.Out.Println()
		}
	}
	return e.expectSemicolon(next)
}

// execInfo implements `info`: a one-line interpreter status report (housing
// no further arguments per the command table).
func (e *Engine) execInfo(next token.Step) (token.Step, error) {
	if e.Host != nil && e.Host.Out != nil {
		line := fmt.Sprintf("globals=%d users=%d", e.Tables.Globals.Len(), e.Tables.Users.Len())
		e.Host.Out.Print([]byte(line))
		e.Host.Out.Println()
	}
	return e.expectSemicolon(next)
}

// execPrint implements `print`: evaluates each expression argument in turn,
// formatting it per the current dispFmt/dispMod settings, and writes it to
// stream 0 (spec.md §6.1's stream-number convention; a stream-redirect
// prefix is not part of this command's slot shape, so output always targets
// the console).
func (e *Engine) execPrint(next token.Step, va eval.VarAccess) (token.Step, error) {
	pc := next
	for !e.Buf.IsSemicolon(pc) {
		val, after, eerr := e.Eval.EvalExpr(e.Buf, pc, va)
		if eerr != nil {
			return pc, eerr
		}
		text := eval.FormatValue(val, e.DispFmt)
		eval.ReleaseResult(val)
		if e.Host != nil && e.Host.Out != nil {
			e.Host.Out.Print([]byte(text))
		}
		pc = after
	}
	if e.Host != nil && e.Host.Out != nil {
		e.Host.Out.Println()
	}
	return e.expectSemicolon(pc)
}

// evalArgList evaluates every expression argument up to the statement's
// terminating semicolon, releasing each result's borrowed ownership once
// its Value has been copied out (dispFmt/dispMod/callback all just read
// scalar settings or stringify, never keep the Value itself).
func (e *Engine) evalArgList(next token.Step, va eval.VarAccess) ([]vars.Value, token.Step, error) {
	var vals []vars.Value
	pc := next
	for !e.Buf.IsSemicolon(pc) {
		val, after, eerr := e.Eval.EvalExpr(e.Buf, pc, va)
		if eerr != nil {
			return nil, pc, eerr
		}
		vals = append(vals, val)
		pc = after
	}
	return vals, pc, nil
}

func (e *Engine) execDispFmt(next token.Step, va eval.VarAccess) (token.Step, error) {
	vals, pc, err := e.evalArgList(next, va)
	if err != nil {
		return pc, err
	}
	f, ferr := eval.ParseDispFmtArgs(vals, e.DispFmt)
	for _, v := range vals {
		eval.ReleaseResult(v)
	}
	if ferr != nil {
		return pc, ferr
	}
	e.DispFmt = f
	return e.expectSemicolon(pc)
}

func (e *Engine) execDispMod(next token.Step, va eval.VarAccess) (token.Step, error) {
	vals, pc, err := e.evalArgList(next, va)
	if err != nil {
		return pc, err
	}
	f, ferr := eval.ParseDispModArgs(vals, e.DispFmt)
	for _, v := range vals {
		eval.ReleaseResult(v)
	}
	if ferr != nil {
		return pc, ferr
	}
	e.DispFmt = f
	e.DispMod = f
	return e.expectSemicolon(pc)
}

// execPause implements `pause`: an optional millisecond duration, slept via
// the host's own thread (spec.md §5's cooperative scheduling model has no
// separate pause mechanism below the housekeeping suspension points, so a
// long pause is simply a long sleep between statements, same as `delay`
// would be inside an expression).
func (e *Engine) execPause(next token.Step, va eval.VarAccess) (token.Step, error) {
	if e.Buf.IsSemicolon(next) {
		return e.expectSemicolon(next)
	}
	val, after, eerr := e.Eval.EvalExpr(e.Buf, next, va)
	if eerr != nil {
		return next, eerr
	}
	ms := asFloat(val)
	eval.ReleaseResult(val)
	if ms > 0 {
		time.Sleep(time.Duration(ms) * time.Millisecond)
	}
	return e.expectSemicolon(after)
}

// execDeclareCB implements `declareCB`: its single ParamIdentifier argument
// was interned into ExternFuncNames at parse time and emitted as a
// KindExternalFunc token, exactly as an ordinary function-call name would
// be; declareCB simply resolves that name and registers it with the host
// (spec.md §6.1 "Host callback registry").
func (e *Engine) execDeclareCB(next token.Step) (token.Step, error) {
	tok, after, derr := e.Buf.Read(next)
	if derr != nil {
		return next, fmt.Errorf("flow: %w", derr)
	}
	if tok.Kind != token.KindExternalFunc {
		return next, fmt.Errorf("flow: declareCB expects a callback name")
	}
	name := e.Tables.ExternFuncNames.Name(int(tok.FuncIndex))
	if e.Host == nil || e.Host.Callbacks == nil {
		return next, fmt.Errorf("flow: no callback registry configured")
	}
	if err := e.Host.Callbacks.Declare(name); err != nil {
		return next, err
	}
	return e.expectSemicolon(after)
}

// execCallback implements `callback`: evaluates its argument expressions,
// stringifies each per the current display format, invokes the host, and
// records the returned string as the most recent result (readable via
// last(1)) since callback itself produces no assignable target.
func (e *Engine) execCallback(next token.Step, va eval.VarAccess) (token.Step, error) {
	tok, after, derr := e.Buf.Read(next)
	if derr != nil {
		return next, fmt.Errorf("flow: %w", derr)
	}
	if tok.Kind != token.KindExternalFunc {
		return next, fmt.Errorf("flow: callback expects a callback name")
	}
	name := e.Tables.ExternFuncNames.Name(int(tok.FuncIndex))

	var args []string
	pc := after
	for !e.Buf.IsSemicolon(pc) {
		val, nextPc, eerr := e.Eval.EvalExpr(e.Buf, pc, va)
		if eerr != nil {
			return pc, eerr
		}
		args = append(args, eval.FormatValue(val, e.DispFmt))
		eval.ReleaseResult(val)
		pc = nextPc
	}

	if e.Host == nil || e.Host.Callbacks == nil {
		return pc, fmt.Errorf("flow: no callback registry configured")
	}
	result, cerr := e.Host.Callbacks.Invoke(name, args)
	if cerr != nil {
		return pc, cerr
	}
	hs := vars.NewHeapString(e.Tables.Acc, vars.ClassIntermediateStr, result)
	if e.Eval.Last != nil {
		e.Eval.Last.Push(vars.StringValue(hs))
	} else {
		hs.Free()
	}
	return e.expectSemicolon(pc)
}

// execInput implements `input`: an optional prompt expression followed by
// one or more variable targets (each freshly declared by the parser, same
// as var/static/local — see parser.parseDeclareOrName). A scalar target
// reads one console line and parses it as long, then float, then falls
// back to string; an array target is allocated exactly as a declaration
// would be, with no per-element console read (spec.md leaves bulk-array
// input undefined — see DESIGN.md's Open Question on this).
//
// The leading peek below can't distinguish a bare-variable prompt
// expression from the first declare target (both are KindVariable tokens);
// a literal or computed prompt is unambiguous, so this only affects the
// rare `input someExistingVar, x;` form (see DESIGN.md's Open Question).
func (e *Engine) execInput(next token.Step, va eval.VarAccess) (token.Step, error) {
	pc := next
	if !e.Buf.IsSemicolon(pc) {
		peekTok, _, derr := e.Buf.Read(pc)
		if derr != nil {
			return pc, fmt.Errorf("flow: %w", derr)
		}
		if peekTok.Kind != token.KindVariable && peekTok.Kind != token.KindArrayDims {
			val, after, eerr := e.Eval.EvalExpr(e.Buf, pc, va)
			if eerr != nil {
				return pc, eerr
			}
			prompt := eval.FormatValue(val, e.DispFmt)
			eval.ReleaseResult(val)
			if e.Host != nil && e.Host.Out != nil {
				e.Host.Out.Print([]byte(prompt))
			}
			pc = after
		}
	}

	for !e.Buf.IsSemicolon(pc) {
		tok, after, derr := e.Buf.Read(pc)
		if derr != nil {
			return pc, fmt.Errorf("flow: %w", derr)
		}

		if tok.Kind == token.KindArrayDims {
			varAfter, aerr := e.declareArrayFromMarker(tok, after, va)
			if aerr != nil {
				return pc, aerr
			}
			pc = varAfter
			continue
		}

		if tok.Kind != token.KindVariable {
			return pc, fmt.Errorf("flow: input expects a variable")
		}

		line, rerr := e.readConsoleLine()
		if rerr != nil {
			return pc, rerr
		}
		val := parseInputValue(e.Tables.Acc, line)
		if serr := va.Set(tok.VarScope, int(tok.ValueIndex), val); serr != nil {
			return pc, serr
		}
		pc = after
	}
	return e.expectSemicolon(pc)
}

// readConsoleLine reads stream 0 one byte at a time up to (and excluding) a
// newline, matching input's line-oriented console convention.
func (e *Engine) readConsoleLine() (string, error) {
	if e.Host == nil || e.Host.Console == nil {
		return "", fmt.Errorf("flow: no console configured for input")
	}
	var sb strings.Builder
	for {
		b, ok, err := e.Host.Console.Read()
		if err != nil {
			return "", err
		}
		if !ok || b == '\n' {
			break
		}
		if b == '\r' {
			continue
		}
		sb.WriteByte(b)
	}
	return sb.String(), nil
}

// parseInputValue interprets one console line as a long, then a float, then
// falls back to an owned string (spec.md §3.2 "A variable string is owned
// by the variable slot").
func parseInputValue(acc *vars.Accounting, s string) vars.Value {
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return vars.LongValue(int32(n))
	}
	if f, err := strconv.ParseFloat(s, 32); err == nil {
		return vars.FloatValue(float32(f))
	}
	return vars.StringValue(vars.NewHeapString(acc, vars.ClassVarStr, s))
}
