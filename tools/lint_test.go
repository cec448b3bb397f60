package tools

import (
	"strings"
	"testing"
)

func TestLint_DelVarUndeclaredVariable(t *testing.T) {
	source := "delVar ghost\n"

	linter := NewLinter(DefaultLintOptions())
	issues := linter.Lint(source, "test.just")

	found := false
	for _, issue := range issues {
		if issue.Code == "varNotDeclared" {
			found = true
			if issue.Level != LintError {
				t.Errorf("expected error level, got %v", issue.Level)
			}
		}
	}
	if !found {
		t.Error("expected varNotDeclared issue for delVar on an undeclared name")
	}
}

func TestLint_EndWithoutOpenBlock(t *testing.T) {
	source := "end\n"

	linter := NewLinter(DefaultLintOptions())
	issues := linter.Lint(source, "test.just")

	found := false
	for _, issue := range issues {
		if issue.Code == "noOpenBlock" {
			found = true
		}
	}
	if !found {
		t.Error("expected noOpenBlock issue for a stray end")
	}
}

func TestLint_BreakOutsideLoop(t *testing.T) {
	source := "break\n"

	linter := NewLinter(DefaultLintOptions())
	issues := linter.Lint(source, "test.just")

	found := false
	for _, issue := range issues {
		if issue.Code == "notAllowedInThisOpenBlock" {
			found = true
		}
	}
	if !found {
		t.Error("expected notAllowedInThisOpenBlock issue for break outside a loop")
	}
}

func TestLint_StaticOutsideFunction(t *testing.T) {
	source := "static x\n"

	linter := NewLinter(DefaultLintOptions())
	issues := linter.Lint(source, "test.just")

	found := false
	for _, issue := range issues {
		if issue.Code == "onlyInsideFunction" {
			found = true
		}
	}
	if !found {
		t.Error("expected onlyInsideFunction issue for static outside a function")
	}
}

func TestLint_ValidProgramHasNoErrors(t *testing.T) {
	source := "var x\n" +
		"x = 1\n" +
		"print x\n"

	linter := NewLinter(DefaultLintOptions())
	issues := linter.Lint(source, "test.just")

	for _, issue := range issues {
		if issue.Level == LintError {
			t.Errorf("unexpected error in valid program: %s", issue.Message)
		}
	}
}

func TestLint_UnusedVariable(t *testing.T) {
	source := "var x\n" +
		"var y\n" +
		"print y\n"

	linter := NewLinter(DefaultLintOptions())
	issues := linter.Lint(source, "test.just")

	foundX, foundY := false, false
	for _, issue := range issues {
		if issue.Code != "UNUSED_VAR" {
			continue
		}
		switch {
		case strings.Contains(issue.Message, "'x'"):
			foundX = true
		case strings.Contains(issue.Message, "'y'"):
			foundY = true
		}
	}
	if !foundX {
		t.Error("expected unused-variable warning for x")
	}
	if foundY {
		t.Error("did not expect unused-variable warning for y, which is referenced")
	}
}

func TestLint_UnusedVariableSuppressedWhenDisabled(t *testing.T) {
	source := "var x\n"

	options := DefaultLintOptions()
	options.CheckUnused = false

	linter := NewLinter(options)
	issues := linter.Lint(source, "test.just")

	for _, issue := range issues {
		if issue.Code == "UNUSED_VAR" {
			t.Error("did not expect UNUSED_VAR issue when CheckUnused is disabled")
		}
	}
}

func TestLint_UnreachableCodeAfterReturn(t *testing.T) {
	source := "function f\n" +
		"return 1\n" +
		"print \"never\"\n" +
		"end\n"

	linter := NewLinter(DefaultLintOptions())
	issues := linter.Lint(source, "test.just")

	found := false
	for _, issue := range issues {
		if issue.Code == "UNREACHABLE_CODE" {
			found = true
		}
	}
	if !found {
		t.Error("expected unreachable-code warning after an unconditional return")
	}
}

func TestLint_NoUnreachableWarningWhenReturnEndsBlock(t *testing.T) {
	source := "function f\n" +
		"return 1\n" +
		"end\n"

	linter := NewLinter(DefaultLintOptions())
	issues := linter.Lint(source, "test.just")

	for _, issue := range issues {
		if issue.Code == "UNREACHABLE_CODE" {
			t.Error("did not expect unreachable-code warning when return is immediately followed by end")
		}
	}
}

func TestLint_UnreachableCodeSuppressedWhenDisabled(t *testing.T) {
	source := "function f\n" +
		"return 1\n" +
		"print \"never\"\n" +
		"end\n"

	options := DefaultLintOptions()
	options.CheckReach = false

	linter := NewLinter(options)
	issues := linter.Lint(source, "test.just")

	for _, issue := range issues {
		if issue.Code == "UNREACHABLE_CODE" {
			t.Error("did not expect UNREACHABLE_CODE issue when CheckReach is disabled")
		}
	}
}

func TestLint_MultipleIssuesSortedByLine(t *testing.T) {
	source := "break\n" +
		"static x\n" +
		"end\n"

	linter := NewLinter(DefaultLintOptions())
	issues := linter.Lint(source, "test.just")

	if len(issues) < 3 {
		t.Fatalf("expected at least 3 issues, got %d", len(issues))
	}
	for i := 1; i < len(issues); i++ {
		if issues[i].Line < issues[i-1].Line {
			t.Error("issues are not sorted by line number")
		}
	}
}
