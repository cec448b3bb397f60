package eval

import (
	"math"
	"strconv"
	"strings"

	"github.com/justina-lang/justina/vars"
)

// CallContext carries the bits a builtin implementation needs beyond its
// argument values: somewhere to account newly allocated strings, and the
// last-results FIFO (`last(n)`) the glossary names.
type CallContext struct {
	Acc  *vars.Accounting
	Last *LastResults
}

// builtinFunc implements one internal function. It reports whether its
// result is a freshly allocated (Owned) string the engine must eventually
// release if the caller doesn't keep it, mirroring applyArithInfix's
// concatenation result.
type builtinFunc func(ctx *CallContext, args []vars.Value) (result vars.Value, owned bool, err *Error)

// builtinEntry pairs one internal function's name, arity, and
// implementation (spec.md §4.2's "internal function" token kind;
// SPEC_FULL.md PART D supplement #2, grounded on
// original_source/internCppFunc.cpp's fnccod_* dispatch table — restricted
// here to the math/string/type/introspection subset that has no host-
// hardware dependency; the file-I/O and GPIO-passthrough functions
// (open/read/digitalRead/millis/...) are deferred to the host package,
// see DESIGN.md).
type builtinEntry struct {
	name     string
	minArgs  int
	maxArgs  int
	fn       builtinFunc
}

// builtinOrder is the fixed, stable name list: its index IS the
// InternalFunc token's FuncIndex and the InternalFuncs static table's
// entry order (vars.NewTables seeds InternalFuncs from exactly this list,
// via BuiltinNames()).
var builtinOrder = []builtinEntry{
	{"abs", 1, 1, biAbs},
	{"sgn", 1, 1, biSgn},
	{"sqrt", 1, 1, biMath1(math.Sqrt)},
	{"sin", 1, 1, biMath1(math.Sin)},
	{"cos", 1, 1, biMath1(math.Cos)},
	{"tan", 1, 1, biMath1(math.Tan)},
	{"asin", 1, 1, biMath1(math.Asin)},
	{"acos", 1, 1, biMath1(math.Acos)},
	{"atan", 1, 1, biMath1(math.Atan)},
	{"exp", 1, 1, biMath1(math.Exp)},
	{"ln", 1, 1, biMath1(math.Log)},
	{"log10", 1, 1, biMath1(math.Log10)},
	{"round", 1, 1, biRound},
	{"ceil", 1, 1, biCeil},
	{"floor", 1, 1, biFloor},
	{"trunc", 1, 1, biTrunc},
	{"fmod", 2, 2, biFmod},
	{"max", 2, 2, biMax},
	{"min", 2, 2, biMin},
	{"len", 1, 1, biLen},
	{"left", 2, 2, biLeft},
	{"right", 2, 2, biRight},
	{"mid", 2, 3, biMid},
	{"asc", 1, 1, biAsc},
	{"chr", 1, 1, biChr},
	{"val", 1, 1, biVal},
	{"str", 1, 1, biStr},
	{"int", 1, 1, biInt},
	{"float", 1, 1, biFloat},
	{"find", 2, 2, biFind},
	{"valueType", 1, 1, biValueType},
	{"last", 1, 1, biLast},
	{"err", 0, 0, biErr},
	{"ifte", 3, 3, biIfte},
}

// BuiltinNames returns the fixed internal-function name list, in index
// order, for seeding vars.Tables.InternalFuncs at parser construction time
// (parser.NewParserWithBuiltins). Kept in a fixed order so FuncIndex values
// stay stable across a process's lifetime.
func BuiltinNames() []string {
	names := make([]string, len(builtinOrder))
	for i, b := range builtinOrder {
		names[i] = b.name
	}
	return names
}

// BuiltinTable is the runtime dispatch table parallel to BuiltinNames():
// FuncIndex i calls builtinOrder[i].fn.
type BuiltinTable struct{}

// NewBuiltinTable returns the dispatch table. It holds no state of its own
// (builtinOrder is a package-level constant table); it exists so callers
// have a concrete type to depend on rather than free functions, matching
// the teacher's dispatch-table idiom (debugger/commands.go's command map).
func NewBuiltinTable() *BuiltinTable { return &BuiltinTable{} }

// Arity returns the [min,max] argument count for funcIndex.
func (t *BuiltinTable) Arity(funcIndex int) (min, max int, err error) {
	if funcIndex < 0 || funcIndex >= len(builtinOrder) {
		return 0, 0, NewError(ErrUndefinedFunction, "unknown internal function index")
	}
	b := builtinOrder[funcIndex]
	return b.minArgs, b.maxArgs, nil
}

// Call dispatches funcIndex with args, already evaluated by the engine.
func (t *BuiltinTable) Call(ctx *CallContext, funcIndex int, args []vars.Value) (vars.Value, bool, *Error) {
	if funcIndex < 0 || funcIndex >= len(builtinOrder) {
		return vars.Value{}, false, NewError(ErrUndefinedFunction, "unknown internal function index")
	}
	b := builtinOrder[funcIndex]
	if len(args) < b.minArgs || len(args) > b.maxArgs {
		return vars.Value{}, false, NewError(ErrArgCountOutOfRange, b.name+": wrong argument count")
	}
	return b.fn(ctx, args)
}

func wantNumeric(v vars.Value) (float64, bool) {
	if !numeric(v) {
		return 0, false
	}
	return asFloat(v), true
}

func biMath1(f func(float64) float64) builtinFunc {
	return func(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
		x, ok := wantNumeric(args[0])
		if !ok {
			return vars.Value{}, false, NewError(ErrArgTypeInvalid, "argument must be numeric")
		}
		return vars.FloatValue(float32(f(x))), false, nil
	}
}

func biAbs(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	v := args[0]
	switch v.Kind {
	case vars.KindLong:
		if v.Long < 0 {
			return vars.LongValue(-v.Long), false, nil
		}
		return v, false, nil
	case vars.KindFloat:
		return vars.FloatValue(float32(math.Abs(float64(v.Float)))), false, nil
	default:
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "abs: argument must be numeric")
	}
}

func biSgn(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	x, ok := wantNumeric(args[0])
	if !ok {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "sgn: argument must be numeric")
	}
	switch {
	case x > 0:
		return vars.LongValue(1), false, nil
	case x < 0:
		return vars.LongValue(-1), false, nil
	default:
		return vars.LongValue(0), false, nil
	}
}

func biRound(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	x, ok := wantNumeric(args[0])
	if !ok {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "round: argument must be numeric")
	}
	return vars.LongValue(int32(math.Round(x))), false, nil
}

func biCeil(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	x, ok := wantNumeric(args[0])
	if !ok {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "ceil: argument must be numeric")
	}
	return vars.LongValue(int32(math.Ceil(x))), false, nil
}

func biFloor(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	x, ok := wantNumeric(args[0])
	if !ok {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "floor: argument must be numeric")
	}
	return vars.LongValue(int32(math.Floor(x))), false, nil
}

func biTrunc(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	x, ok := wantNumeric(args[0])
	if !ok {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "trunc: argument must be numeric")
	}
	return vars.LongValue(int32(math.Trunc(x))), false, nil
}

func biFmod(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	x, ok1 := wantNumeric(args[0])
	y, ok2 := wantNumeric(args[1])
	if !ok1 || !ok2 {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "fmod: arguments must be numeric")
	}
	if y == 0 {
		return vars.Value{}, false, NewError(ErrDivideByZero, "fmod: division by zero")
	}
	return vars.FloatValue(float32(math.Mod(x, y))), false, nil
}

func biMax(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	return biMinMax(args[0], args[1], true)
}

func biMin(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	return biMinMax(args[0], args[1], false)
}

func biMinMax(a, b vars.Value, wantMax bool) (vars.Value, bool, *Error) {
	if !numeric(a) || !numeric(b) {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "max/min: arguments must be numeric")
	}
	af, bf := asFloat(a), asFloat(b)
	pickA := af >= bf
	if wantMax {
		pickA = af >= bf
	} else {
		pickA = af <= bf
	}
	if pickA {
		return a, false, nil
	}
	return b, false, nil
}

// biLen implements `len`: string length, or total element count for an
// array argument (spec.md §8 scenario S5).
func biLen(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	v := args[0]
	if v.Arr != nil {
		return vars.LongValue(int32(v.Arr.Count())), false, nil
	}
	if v.Kind != vars.KindString {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "len: argument must be a string or array")
	}
	return vars.LongValue(int32(len(v.Str.Value()))), false, nil
}

func wantString(v vars.Value) (string, bool) {
	if v.Kind != vars.KindString {
		return "", false
	}
	return v.Str.Value(), true
}

func wantInt(v vars.Value) (int, bool) {
	if v.Kind != vars.KindLong {
		return 0, false
	}
	return int(v.Long), true
}

func newOwnedString(ctx *CallContext, s string) vars.Value {
	hs := vars.NewHeapString(ctx.Acc, vars.ClassIntermediateStr, s)
	return vars.StringValue(hs)
}

func biLeft(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	s, ok1 := wantString(args[0])
	n, ok2 := wantInt(args[1])
	if !ok1 || !ok2 {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "left: expected (string, integer)")
	}
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return newOwnedString(ctx, s[:n]), true, nil
}

func biRight(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	s, ok1 := wantString(args[0])
	n, ok2 := wantInt(args[1])
	if !ok1 || !ok2 {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "right: expected (string, integer)")
	}
	if n < 0 {
		n = 0
	}
	if n > len(s) {
		n = len(s)
	}
	return newOwnedString(ctx, s[len(s)-n:]), true, nil
}

func biMid(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	s, ok1 := wantString(args[0])
	start, ok2 := wantInt(args[1])
	if !ok1 || !ok2 {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "mid: expected (string, integer[, integer])")
	}
	length := len(s) - (start - 1)
	if len(args) == 3 {
		n, ok3 := wantInt(args[2])
		if !ok3 {
			return vars.Value{}, false, NewError(ErrArgTypeInvalid, "mid: length must be integer")
		}
		length = n
	}
	if start < 1 {
		start = 1
	}
	from := start - 1
	if from > len(s) {
		from = len(s)
	}
	to := from + length
	if to > len(s) {
		to = len(s)
	}
	if to < from {
		to = from
	}
	return newOwnedString(ctx, s[from:to]), true, nil
}

func biAsc(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	s, ok := wantString(args[0])
	if !ok || len(s) == 0 {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "asc: argument must be a non-empty string")
	}
	return vars.LongValue(int32(s[0])), false, nil
}

func biChr(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	n, ok := wantInt(args[0])
	if !ok || n < 0 || n > 255 {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "chr: argument must be an integer in [0,255]")
	}
	return newOwnedString(ctx, string([]byte{byte(n)})), true, nil
}

func biVal(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	s, ok := wantString(args[0])
	if !ok {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "val: argument must be a string")
	}
	s = strings.TrimSpace(s)
	if n, err := strconv.ParseInt(s, 10, 32); err == nil {
		return vars.LongValue(int32(n)), false, nil
	}
	if f, err := strconv.ParseFloat(s, 32); err == nil {
		return vars.FloatValue(float32(f)), false, nil
	}
	return vars.LongValue(0), false, nil
}

func biStr(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	v := args[0]
	switch v.Kind {
	case vars.KindLong:
		return newOwnedString(ctx, strconv.FormatInt(int64(v.Long), 10)), true, nil
	case vars.KindFloat:
		return newOwnedString(ctx, strconv.FormatFloat(float64(v.Float), 'g', -1, 32)), true, nil
	case vars.KindString:
		return newOwnedString(ctx, v.Str.Value()), true, nil
	default:
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "str: unsupported argument type")
	}
}

func biInt(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	v := args[0]
	switch v.Kind {
	case vars.KindLong:
		return v, false, nil
	case vars.KindFloat:
		return vars.LongValue(int32(v.Float)), false, nil
	default:
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "int: argument must be numeric")
	}
}

func biFloat(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	v := args[0]
	switch v.Kind {
	case vars.KindFloat:
		return v, false, nil
	case vars.KindLong:
		return vars.FloatValue(float32(v.Long)), false, nil
	default:
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "float: argument must be numeric")
	}
}

func biFind(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	haystack, ok1 := wantString(args[0])
	needle, ok2 := wantString(args[1])
	if !ok1 || !ok2 {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "find: arguments must be strings")
	}
	idx := strings.Index(haystack, needle)
	return vars.LongValue(int32(idx + 1)), false, nil // 1-based, 0 = not found
}

func biValueType(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	v := args[0]
	var code int32
	switch {
	case v.Arr != nil:
		code = 3
	case v.Kind == vars.KindString:
		code = 2
	case v.Kind == vars.KindFloat:
		code = 1
	default:
		code = 0
	}
	return vars.LongValue(code), false, nil
}

func biLast(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	n, ok := wantInt(args[0])
	if !ok || n < 1 {
		return vars.Value{}, false, NewError(ErrArgTypeInvalid, "last: argument must be a positive integer")
	}
	v, found := ctx.Last.Nth(n)
	if !found {
		return vars.LongValue(0), false, nil
	}
	return v, false, nil
}

// biErr implements `err()`. It always returns 0: there is no trap flag, and
// neither the evaluator nor the flow package records execution errors for it.
func biErr(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	return vars.LongValue(0), false, nil
}

// biIfte implements the `ifte(cond, whenTrue, whenFalse)` conditional
// expression (original_source/internCppFunc.cpp fnccod_ifte).
func biIfte(ctx *CallContext, args []vars.Value) (vars.Value, bool, *Error) {
	if truthy(args[0]) {
		return args[1], false, nil
	}
	return args[2], false, nil
}
