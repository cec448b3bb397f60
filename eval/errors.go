// Package eval implements the evaluation stack and operator-precedence
// engine described in spec.md §4.3: it walks a token.Buffer expression,
// applying operators per the priority/associativity/coercion flags
// terminals.go attaches to Terminal tokens, and carries the internal
// function library (builtins.go) and dispFmt/dispMod formatting
// (format.go) that spec.md's distillation left to original_source/ to
// supply (SPEC_FULL.md PART D supplements #2-#5).
package eval

import "fmt"

// ErrorCode enumerates the execution-error codes spec.md §7 describes as
// "carrying a numeric code and the token address". Unlike parser.ErrorKind
// (position-addressed, line-local), these are runtime errors addressed by
// token.Step. They are not caught: there is no trap flag, and err() always
// returns 0.
type ErrorCode int

const (
	ErrDivideByZero ErrorCode = iota + 1
	ErrOperatorNotAllowedForTypes
	ErrArrayValueTypeFixed
	ErrArraySubscriptOutOfRange
	ErrArgCountOutOfRange
	ErrArgTypeInvalid
	ErrNotAssignable
	ErrOverflow
	ErrUndefinedFunction
	ErrOther
)

var errCodeNames = map[ErrorCode]string{
	ErrDivideByZero:               "divideByZero",
	ErrOperatorNotAllowedForTypes: "operatorNotAllowedForTypes",
	ErrArrayValueTypeFixed:        "array_valueTypeIsFixed",
	ErrArraySubscriptOutOfRange:   "arraySubscriptOutOfRange",
	ErrArgCountOutOfRange:         "argCountOutOfRange",
	ErrArgTypeInvalid:             "argTypeInvalid",
	ErrNotAssignable:              "notAssignable",
	ErrOverflow:                   "overflow",
	ErrUndefinedFunction:          "undefinedFunction",
	ErrOther:                      "other",
}

func (c ErrorCode) String() string {
	if n, ok := errCodeNames[c]; ok {
		return n
	}
	return fmt.Sprintf("ErrorCode(%d)", int(c))
}

// Error is a runtime (execution) error: a numeric code plus a free-text
// message, with no position (execution errors are addressed by token.Step,
// carried separately by the caller, per spec.md §7).
type Error struct {
	Code    ErrorCode
	Message string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// NewError builds an execution error.
func NewError(code ErrorCode, message string) *Error {
	return &Error{Code: code, Message: message}
}
