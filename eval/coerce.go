package eval

import (
	"math"
	"strings"

	"github.com/justina-lang/justina/vars"
)

// asFloat widens a Long/Float value to a float64 for mixed-type arithmetic
// (spec.md §4.3: "Mixed integer/float in arithmetic: promote integer to
// float; result is float.").
func asFloat(v vars.Value) float64 {
	if v.Kind == vars.KindLong {
		return float64(v.Long)
	}
	return float64(v.Float)
}

func bothLong(a, b vars.Value) bool {
	return a.Kind == vars.KindLong && b.Kind == vars.KindLong
}

func numeric(v vars.Value) bool {
	return v.Kind == vars.KindLong || v.Kind == vars.KindFloat
}

// boolLong converts a Go bool to the 0/1 Long value res_long comparison and
// logical operators produce (spec.md §4.3: "res_long: ... result is
// integer (0/1 for boolean-ish ops)").
func boolLong(b bool) vars.Value {
	if b {
		return vars.LongValue(1)
	}
	return vars.LongValue(0)
}

func truthy(v vars.Value) bool {
	switch v.Kind {
	case vars.KindLong:
		return v.Long != 0
	case vars.KindFloat:
		return v.Float != 0
	case vars.KindString:
		return v.Str.Value() != ""
	default:
		return false
	}
}

// applyArithInfix implements the non-assignment binary operators (+ - * /
// % & | ^ << >> == <> < <= > >= and or), following spec.md §4.3's type
// coercion rules. acc accounts any newly allocated intermediate string
// (string concatenation only).
func applyArithInfix(op string, opLong bool, lhs, rhs vars.Value, acc *vars.Accounting) (vars.Value, *Error) {
	if opLong {
		if !bothLong(lhs, rhs) {
			return vars.Value{}, NewError(ErrOperatorNotAllowedForTypes, op+": both operands must be integer")
		}
		return applyLongOp(op, lhs.Long, rhs.Long)
	}

	switch op {
	case "+":
		if lhs.Kind == vars.KindString || rhs.Kind == vars.KindString {
			if lhs.Kind != vars.KindString || rhs.Kind != vars.KindString {
				return vars.Value{}, NewError(ErrOperatorNotAllowedForTypes, "+: cannot mix string and numeric operands")
			}
			combined := lhs.Str.Value() + rhs.Str.Value()
			hs := vars.NewHeapString(acc, vars.ClassIntermediateStr, combined)
			return vars.StringValue(hs), nil
		}
		if !numeric(lhs) || !numeric(rhs) {
			return vars.Value{}, NewError(ErrOperatorNotAllowedForTypes, "+: operands must be numeric or string")
		}
		if bothLong(lhs, rhs) {
			return vars.LongValue(lhs.Long + rhs.Long), nil
		}
		return vars.FloatValue(float32(asFloat(lhs) + asFloat(rhs))), nil

	case "-", "*", "/":
		if !numeric(lhs) || !numeric(rhs) {
			return vars.Value{}, NewError(ErrOperatorNotAllowedForTypes, op+": operands must be numeric")
		}
		if op == "/" {
			if bothLong(lhs, rhs) {
				if rhs.Long == 0 {
					return vars.Value{}, NewError(ErrDivideByZero, "division by zero")
				}
				return vars.FloatValue(float32(float64(lhs.Long) / float64(rhs.Long))), nil
			}
			if asFloat(rhs) == 0 {
				return vars.Value{}, NewError(ErrDivideByZero, "division by zero")
			}
			return vars.FloatValue(float32(asFloat(lhs) / asFloat(rhs))), nil
		}
		if bothLong(lhs, rhs) {
			if op == "-" {
				return vars.LongValue(lhs.Long - rhs.Long), nil
			}
			return vars.LongValue(lhs.Long * rhs.Long), nil
		}
		if op == "-" {
			return vars.FloatValue(float32(asFloat(lhs) - asFloat(rhs))), nil
		}
		return vars.FloatValue(float32(asFloat(lhs) * asFloat(rhs))), nil

	case "==", "<>", "<", "<=", ">", ">=":
		return applyComparison(op, lhs, rhs)

	case "and", "or":
		l, r := truthy(lhs), truthy(rhs)
		if op == "and" {
			return boolLong(l && r), nil
		}
		return boolLong(l || r), nil

	case "^^":
		return applyPower(lhs, rhs)

	default:
		return vars.Value{}, NewError(ErrOther, "unknown operator "+op)
	}
}

func applyLongOp(op string, a, b int32) (vars.Value, *Error) {
	switch op {
	case "%":
		if b == 0 {
			return vars.Value{}, NewError(ErrDivideByZero, "division by zero")
		}
		return vars.LongValue(a % b), nil
	case "&":
		return vars.LongValue(a & b), nil
	case "|":
		return vars.LongValue(a | b), nil
	case "^":
		return vars.LongValue(a ^ b), nil
	case "<<":
		return vars.LongValue(int32(uint32(a) << (uint32(b) & 31))), nil
	case ">>":
		return vars.LongValue(int32(uint32(a) >> (uint32(b) & 31))), nil
	case "==", "<>", "<", "<=", ">", ">=":
		return applyComparison(op, vars.LongValue(a), vars.LongValue(b))
	default:
		return vars.Value{}, NewError(ErrOther, "unknown integer operator "+op)
	}
}

// applyComparison implements the == <> < <= > >= family for two operands of
// the same broad kind: numeric (integer/float, promoted) or string
// (case-sensitive lexicographic, spec.md §4.3).
func applyComparison(op string, lhs, rhs vars.Value) (vars.Value, *Error) {
	var cmp int
	switch {
	case lhs.Kind == vars.KindString && rhs.Kind == vars.KindString:
		cmp = strings.Compare(lhs.Str.Value(), rhs.Str.Value())
	case numeric(lhs) && numeric(rhs):
		lf, rf := asFloat(lhs), asFloat(rhs)
		switch {
		case lf < rf:
			cmp = -1
		case lf > rf:
			cmp = 1
		default:
			cmp = 0
		}
	default:
		return vars.Value{}, NewError(ErrOperatorNotAllowedForTypes, "cannot compare string and numeric operands")
	}
	switch op {
	case "==":
		return boolLong(cmp == 0), nil
	case "<>":
		return boolLong(cmp != 0), nil
	case "<":
		return boolLong(cmp < 0), nil
	case "<=":
		return boolLong(cmp <= 0), nil
	case ">":
		return boolLong(cmp > 0), nil
	case ">=":
		return boolLong(cmp >= 0), nil
	default:
		return vars.Value{}, NewError(ErrOther, "unknown comparison operator "+op)
	}
}

// applyPower implements ^^ (spec.md §8 property 6: right-associative,
// highest infix priority). An integer base raised to a non-negative integer
// exponent stays integer; any other combination promotes to float.
func applyPower(lhs, rhs vars.Value) (vars.Value, *Error) {
	if !numeric(lhs) || !numeric(rhs) {
		return vars.Value{}, NewError(ErrOperatorNotAllowedForTypes, "^^: operands must be numeric")
	}
	if bothLong(lhs, rhs) && rhs.Long >= 0 {
		result := int64(1)
		base := int64(lhs.Long)
		for i := int32(0); i < rhs.Long; i++ {
			result *= base
		}
		if result >= math.MinInt32 && result <= math.MaxInt32 {
			return vars.LongValue(int32(result)), nil
		}
		return vars.FloatValue(float32(math.Pow(float64(lhs.Long), float64(rhs.Long)))), nil
	}
	return vars.FloatValue(float32(math.Pow(asFloat(lhs), asFloat(rhs)))), nil
}

// applyPrefix implements the prefix-only operators not/~ and prefix ++/--
// (spec.md §4.3: prefix is always right-to-left, already guaranteed by the
// engine's reduction order).
func applyPrefix(op string, operand vars.Value) (vars.Value, *Error) {
	switch op {
	case "not":
		return boolLong(!truthy(operand)), nil
	case "~":
		if operand.Kind != vars.KindLong {
			return vars.Value{}, NewError(ErrOperatorNotAllowedForTypes, "~: operand must be integer")
		}
		return vars.LongValue(^operand.Long), nil
	case "+":
		if !numeric(operand) {
			return vars.Value{}, NewError(ErrOperatorNotAllowedForTypes, "unary +: operand must be numeric")
		}
		return operand, nil
	case "-":
		if !numeric(operand) {
			return vars.Value{}, NewError(ErrOperatorNotAllowedForTypes, "unary -: operand must be numeric")
		}
		if operand.Kind == vars.KindLong {
			return vars.LongValue(-operand.Long), nil
		}
		return vars.FloatValue(-operand.Float), nil
	case "++":
		return applyIncrDecr(operand, 1)
	case "--":
		return applyIncrDecr(operand, -1)
	default:
		return vars.Value{}, NewError(ErrOther, "unknown prefix operator "+op)
	}
}

func applyIncrDecr(operand vars.Value, delta int32) (vars.Value, *Error) {
	switch operand.Kind {
	case vars.KindLong:
		return vars.LongValue(operand.Long + delta), nil
	case vars.KindFloat:
		return vars.FloatValue(operand.Float + float32(delta)), nil
	default:
		return vars.Value{}, NewError(ErrOperatorNotAllowedForTypes, "++/--: operand must be numeric")
	}
}
