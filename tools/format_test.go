package tools

import (
	"strings"
	"testing"
)

func TestFormat_SingleStatement(t *testing.T) {
	source := `print "hello"`

	formatter := NewFormatter(DefaultFormatOptions())
	result, err := formatter.Format(source, "test.just")

	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if !strings.Contains(result, `print "hello"`) {
		t.Errorf("expected print statement preserved, got: %s", result)
	}
}

func TestFormat_IndentsIfBlock(t *testing.T) {
	source := "if x > 0\n" +
		"print x\n" +
		"end\n"

	formatter := NewFormatter(DefaultFormatOptions())
	result, err := formatter.Format(source, "test.just")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(result, "\n"), "\n")
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d: %q", len(lines), result)
	}
	if strings.HasPrefix(lines[0], " ") {
		t.Errorf("expected if at depth 0, got %q", lines[0])
	}
	if !strings.HasPrefix(lines[1], "    print") {
		t.Errorf("expected print indented one level under if, got %q", lines[1])
	}
	if strings.HasPrefix(lines[2], " ") {
		t.Errorf("expected end to dedent back to if's own level, got %q", lines[2])
	}
}

func TestFormat_ElseifDedentsOnlyItself(t *testing.T) {
	source := "if x > 0\n" +
		"print 1\n" +
		"elseif x < 0\n" +
		"print 2\n" +
		"else\n" +
		"print 3\n" +
		"end\n"

	formatter := NewFormatter(DefaultFormatOptions())
	result, err := formatter.Format(source, "test.just")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(result, "\n"), "\n")
	// if(0) print(1) elseif(0) print(1) else(0) print(1) end(0)
	wantIndent := []int{0, 1, 0, 1, 0, 1, 0}
	for i, want := range wantIndent {
		got := len(lines[i]) - len(strings.TrimLeft(lines[i], " "))
		if got != want*4 {
			t.Errorf("line %d (%q): expected indent %d, got %d", i, lines[i], want*4, got)
		}
	}
}

func TestFormat_NestedForInsideFunction(t *testing.T) {
	source := "function sum\n" +
		"for i = 1 to 10\n" +
		"print i\n" +
		"end\n" +
		"end\n"

	formatter := NewFormatter(DefaultFormatOptions())
	result, err := formatter.Format(source, "test.just")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(result, "\n"), "\n")
	if !strings.HasPrefix(lines[1], "    for") {
		t.Errorf("expected for indented under function, got %q", lines[1])
	}
	if !strings.HasPrefix(lines[2], "        print") {
		t.Errorf("expected print indented under for, got %q", lines[2])
	}
	if !strings.HasPrefix(lines[3], "    end") {
		t.Errorf("expected inner end back at function's body level, got %q", lines[3])
	}
	if strings.HasPrefix(lines[4], " ") {
		t.Errorf("expected outer end back at top level, got %q", lines[4])
	}
}

func TestFormat_CompactStyleHasNoIndent(t *testing.T) {
	source := "if x > 0\n" +
		"print x\n" +
		"end\n"

	formatter := NewFormatter(CompactFormatOptions())
	result, err := formatter.Format(source, "test.just")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	for _, line := range strings.Split(strings.TrimRight(result, "\n"), "\n") {
		if strings.HasPrefix(line, " ") {
			t.Errorf("compact style should not indent, got %q", line)
		}
	}
}

func TestFormat_ExpandedStyleUsesWiderIndent(t *testing.T) {
	source := "if x > 0\n" +
		"print x\n" +
		"end\n"

	formatter := NewFormatter(ExpandedFormatOptions())
	result, err := formatter.Format(source, "test.just")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	lines := strings.Split(strings.TrimRight(result, "\n"), "\n")
	if !strings.HasPrefix(lines[1], strings.Repeat(" ", 8)) {
		t.Errorf("expected 8-space indent in expanded style, got %q", lines[1])
	}
}

func TestFormat_RespacesOperatorsAndCommas(t *testing.T) {
	source := `print  1+2 , "x"`

	formatter := NewFormatter(DefaultFormatOptions())
	result, err := formatter.Format(source, "test.just")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}

	if strings.Contains(result, "  ") {
		t.Errorf("expected collapsed whitespace, got: %q", result)
	}
	if strings.Contains(result, " ,") {
		t.Errorf("expected no space before comma, got: %q", result)
	}
}

func TestFormat_EmptyInput(t *testing.T) {
	result, err := NewFormatter(DefaultFormatOptions()).Format("", "test.just")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if strings.TrimSpace(result) != "" {
		t.Errorf("expected empty output for empty input, got: %q", result)
	}
}

func TestFormat_PreservesBlankLinesWhenRequested(t *testing.T) {
	source := "print 1\n\nprint 2\n"

	opts := DefaultFormatOptions()
	opts.PreserveEmptyLines = true
	result, err := NewFormatter(opts).Format(source, "test.just")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if !strings.Contains(result, "\n\n") {
		t.Errorf("expected a blank line preserved, got: %q", result)
	}
}

func TestFormat_FunctionCallNoSpaceBeforeParen(t *testing.T) {
	source := `print max (1, 2)`

	formatter := NewFormatter(DefaultFormatOptions())
	result, err := formatter.Format(source, "test.just")
	if err != nil {
		t.Fatalf("Format error: %v", err)
	}
	if !strings.Contains(result, "max(1, 2)") {
		t.Errorf("expected call with no space before paren, got: %q", result)
	}
}

func TestFormatString_Convenience(t *testing.T) {
	result, err := FormatString(`print "hi"`, "test.just")
	if err != nil {
		t.Fatalf("FormatString error: %v", err)
	}
	if !strings.Contains(result, "print") {
		t.Error("expected print in formatted output")
	}
}

func TestFormatStringWithStyle_Compact(t *testing.T) {
	result, err := FormatStringWithStyle("if x>0\nprint x\nend\n", "test.just", FormatCompact)
	if err != nil {
		t.Fatalf("FormatStringWithStyle error: %v", err)
	}
	if strings.HasPrefix(strings.Split(result, "\n")[1], " ") {
		t.Error("expected compact style, no indentation")
	}
}

func TestFormatStringWithStyle_Expanded(t *testing.T) {
	result, err := FormatStringWithStyle("if x>0\nprint x\nend\n", "test.just", FormatExpanded)
	if err != nil {
		t.Fatalf("FormatStringWithStyle error: %v", err)
	}
	if !strings.Contains(result, strings.Repeat(" ", 8)) {
		t.Error("expected wide indentation in expanded style")
	}
}
