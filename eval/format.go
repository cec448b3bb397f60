package eval

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/justina-lang/justina/vars"
)

// NumFormat holds the numeric display settings the `dispFmt`/`dispMod`
// commands control (SPEC_FULL.md PART D supplement #3, grounded on
// original_source/internCppFunc.cpp's fnccod_format and the dispFmt/dispMod
// command handlers in original_source/commands.cpp): field width, decimal
// places, fixed-vs-scientific notation, and thousands separators.
type NumFormat struct {
	Width       int  // 0 = no padding
	Decimals    int  // -1 = default precision
	Scientific  bool
	Thousands   bool
	LeftAlign   bool
}

// DefaultNumFormat matches the interpreter's power-up display settings.
func DefaultNumFormat() NumFormat {
	return NumFormat{Decimals: -1}
}

// FormatValue renders v for `print`/host display. f's Width and LeftAlign
// pad every kind, strings included; its other settings affect numeric
// values only.
func FormatValue(v vars.Value, f NumFormat) string {
	var s string
	switch v.Kind {
	case vars.KindLong:
		s = formatLong(v.Long, f)
	case vars.KindFloat:
		s = formatFloat(float64(v.Float), f)
	case vars.KindString:
		s = v.Str.Value()
	default:
		s = ""
	}
	if f.Width > 0 && len(s) < f.Width {
		pad := strings.Repeat(" ", f.Width-len(s))
		if f.LeftAlign {
			s = s + pad
		} else {
			s = pad + s
		}
	}
	return s
}

func formatLong(n int32, f NumFormat) string {
	s := strconv.FormatInt(int64(n), 10)
	if f.Thousands {
		s = insertThousands(s)
	}
	return s
}

func formatFloat(x float64, f NumFormat) string {
	decimals := f.Decimals
	if decimals < 0 {
		decimals = 6
	}
	var s string
	if f.Scientific {
		s = strconv.FormatFloat(x, 'e', decimals, 64)
	} else {
		s = strconv.FormatFloat(x, 'f', decimals, 64)
	}
	if f.Thousands && !f.Scientific {
		s = insertThousandsFloat(s)
	}
	return s
}

// insertThousands inserts ',' every three digits of an unsigned decimal
// integer string (sign handled by the caller's literal string having its
// own leading '-').
func insertThousands(s string) string {
	neg := strings.HasPrefix(s, "-")
	if neg {
		s = s[1:]
	}
	n := len(s)
	if n <= 3 {
		if neg {
			return "-" + s
		}
		return s
	}
	var b strings.Builder
	lead := n % 3
	if lead == 0 {
		lead = 3
	}
	b.WriteString(s[:lead])
	for i := lead; i < n; i += 3 {
		b.WriteByte(',')
		b.WriteString(s[i : i+3])
	}
	if neg {
		return "-" + b.String()
	}
	return b.String()
}

func insertThousandsFloat(s string) string {
	parts := strings.SplitN(s, ".", 2)
	intPart := insertThousands(parts[0])
	if len(parts) == 2 {
		return intPart + "." + parts[1]
	}
	return intPart
}

// ParseDispFmtArgs/ParseDispModArgs turn the `dispFmt`/`dispMod` commands'
// already-evaluated argument values into a NumFormat, per original_source's
// positional-argument convention (width, decimals, mode-flags).
func ParseDispFmtArgs(args []vars.Value, base NumFormat) (NumFormat, *Error) {
	f := base
	if len(args) > 0 {
		w, ok := wantInt(args[0])
		if !ok {
			return f, NewError(ErrArgTypeInvalid, "dispFmt: width must be an integer")
		}
		f.Width = w
	}
	if len(args) > 1 {
		d, ok := wantInt(args[1])
		if !ok {
			return f, NewError(ErrArgTypeInvalid, "dispFmt: decimals must be an integer")
		}
		f.Decimals = d
	}
	return f, nil
}

func ParseDispModArgs(args []vars.Value, base NumFormat) (NumFormat, *Error) {
	f := base
	for _, a := range args {
		s, ok := wantString(a)
		if !ok {
			return f, NewError(ErrArgTypeInvalid, "dispMod: argument must be a string flag")
		}
		switch strings.ToLower(s) {
		case "sci", "scientific":
			f.Scientific = true
		case "fixed":
			f.Scientific = false
		case "comma", "thousands":
			f.Thousands = true
		case "left":
			f.LeftAlign = true
		case "right":
			f.LeftAlign = false
		default:
			return f, NewError(ErrArgTypeInvalid, fmt.Sprintf("dispMod: unknown flag %q", s))
		}
	}
	return f, nil
}
