package parser

import "testing"

func TestLexerStringEscapes(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"escaped backslash", `"a\\b"`, `a\b`},
		{"escaped quote", `"a\"b"`, `a"b`},
		{"no escapes", `"hello"`, "hello"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			lex := NewLexer(tt.input)
			tok, err := lex.Next()
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if tok.Kind != LexString {
				t.Fatalf("expected LexString, got %v", tok.Kind)
			}
			if tok.Text != tt.want {
				t.Errorf("got %q, want %q", tok.Text, tt.want)
			}
		})
	}
}

func TestLexerStringInvalidEscape(t *testing.T) {
	lex := NewLexer(`"a\nb"`)
	_, err := lex.Next()
	if err == nil {
		t.Fatal("expected an error for an unsupported escape sequence")
	}
	if err.Kind != ErrAlphaConstInvalidEscSeq {
		t.Errorf("expected ErrAlphaConstInvalidEscSeq, got %v", err.Kind)
	}
}

func TestLexerStringMissingClosingQuote(t *testing.T) {
	lex := NewLexer(`"unterminated`)
	_, err := lex.Next()
	if err == nil {
		t.Fatal("expected an error for a missing closing quote")
	}
	if err.Kind != ErrAlphaClosingQuoteMissing {
		t.Errorf("expected ErrAlphaClosingQuoteMissing, got %v", err.Kind)
	}
}
