// Tests the lexer type by verifying that a small sample program is tokenized into the expected
// sequence of token types, including the synthesized INDENT/DEDENT/NEWLINE tokens, mirroring the
// teacher's TestLexer (frontend/lexer_test.go) but driven from an inline string rather than a
// bundled resource file.

package frontend

import (
	"strings"
	"testing"

	"github.com/alecthomas/participle/v2/lexer"
)

func lexAll(t *testing.T, src string) []rune {
	t.Helper()
	def := NewDefinition()
	lx, err := def.Lex("test.rh", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	var types []rune
	for {
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		types = append(types, tok.Type)
		if tok.Type == lexer.EOF {
			break
		}
	}
	return types
}

func TestLexerIndentDedent(t *testing.T) {
	src := "if x:\n    y = 1\nz = 2\n"
	got := lexAll(t, src)
	want := []rune{
		rune(tokIf), rune(tokIdent), rune(':'), rune(tokNewline),
		rune(tokIndent),
		rune(tokIdent), rune('='), rune(tokInt), rune(tokNewline),
		rune(tokDedent),
		rune(tokIdent), rune('='), rune(tokInt), rune(tokNewline),
		rune(tokEOF),
	}
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d\ngot: %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLexerAugmentedAssignAndCompare(t *testing.T) {
	src := "x += 1\ny = x <= 2\n"
	got := lexAll(t, src)
	want := []rune{
		rune(tokIdent), rune(tokPlusEq), rune(tokInt), rune(tokNewline),
		rune(tokIdent), rune('='), rune(tokIdent), rune(tokLe), rune(tokInt), rune(tokNewline),
		rune(tokEOF),
	}
	if len(got) != len(want) {
		t.Fatalf("token count = %d, want %d\ngot: %v\nwant: %v", len(got), len(want), got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("token %d = %d, want %d", i, got[i], want[i])
		}
	}
}

func TestLexerStringEscapes(t *testing.T) {
	def := NewDefinition()
	lx, err := def.Lex("test.rh", strings.NewReader(`x = "a\nb"` + "\n"))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	var found string
	for {
		tok, err := lx.Next()
		if err != nil {
			t.Fatalf("Next: %v", err)
		}
		if tok.Type == rune(tokString) {
			found = tok.Value
		}
		if tok.Type == lexer.EOF {
			break
		}
	}
	if found != "a\nb" {
		t.Errorf("string literal = %q, want %q", found, "a\nb")
	}
}

func TestLexerInconsistentIndentation(t *testing.T) {
	src := "if x:\n    y = 1\n  z = 2\n"
	def := NewDefinition()
	lx, err := def.Lex("test.rh", strings.NewReader(src))
	if err != nil {
		t.Fatalf("Lex: %v", err)
	}
	for {
		tok, err := lx.Next()
		if err != nil {
			return // Expected: inconsistent dedent reported as an error.
		}
		if tok.Type == lexer.EOF {
			t.Fatal("expected an inconsistent-indentation error, got clean EOF")
		}
	}
}
