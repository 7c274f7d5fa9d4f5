package diagnostic

import (
	"bytes"
	"strings"
	"testing"
)

func init() {
	// Force non-colorized output so Render's assertions can match on plain substrings regardless
	// of whether the test runner's stdout is a terminal.
	bold.DisableColor()
	red.DisableColor()
	cyan.DisableColor()
}

// TestKindString verifies every Kind renders its documented label.
func TestKindString(t *testing.T) {
	tests := []struct {
		kind Kind
		want string
	}{
		{Syntax, "syntax error"},
		{Unsupported, "unsupported construct"},
		{Semantic, "semantic error"},
		{Kind(99), "error"},
	}
	for _, tt := range tests {
		if got := tt.kind.String(); got != tt.want {
			t.Errorf("Kind(%d).String() = %q, want %q", tt.kind, got, tt.want)
		}
	}
}

// TestDiagnosticError verifies Diagnostic's Error() formats line, column, kind and message.
func TestDiagnosticError(t *testing.T) {
	d := Diagnostic{Kind: Syntax, Line: 3, Col: 5, Message: "unexpected token"}
	want := "3:5: syntax error: unexpected token"
	if got := d.Error(); got != want {
		t.Errorf("Error() = %q, want %q", got, want)
	}
}

// TestRenderDrawsCaretUnderColumn verifies Render prints the offending source line followed by a
// caret positioned exactly under d.Col.
func TestRenderDrawsCaretUnderColumn(t *testing.T) {
	src := "let x = 1\nlet y = bogus\n"
	d := Diagnostic{Kind: Semantic, Line: 2, Col: 9, Message: "undeclared variable", Source: src}

	var buf bytes.Buffer
	Render(&buf, d)

	out := buf.String()
	lines := strings.Split(out, "\n")
	if len(lines) < 3 {
		t.Fatalf("Render produced fewer than 3 lines:\n%s", out)
	}
	if lines[1] != "let y = bogus" {
		t.Errorf("source line = %q, want %q", lines[1], "let y = bogus")
	}
	wantCaret := strings.Repeat(" ", 8) + "^"
	if lines[2] != wantCaret {
		t.Errorf("caret line = %q, want %q", lines[2], wantCaret)
	}
}

// TestRenderWithoutSourceOmitsCaret verifies Render prints only the summary line when Source is
// empty, never panicking on the missing source text.
func TestRenderWithoutSourceOmitsCaret(t *testing.T) {
	d := Diagnostic{Kind: Syntax, Line: 1, Col: 1, Message: "boom"}
	var buf bytes.Buffer
	Render(&buf, d)

	out := strings.TrimRight(buf.String(), "\n")
	if strings.Contains(out, "^") {
		t.Errorf("Render with no source still emitted a caret line: %q", out)
	}
	if !strings.Contains(out, "boom") {
		t.Errorf("Render output missing message: %q", out)
	}
}

// TestRenderClampsOutOfRangeColumn verifies a column beyond the line's length is clamped rather
// than indexed out of bounds.
func TestRenderClampsOutOfRangeColumn(t *testing.T) {
	d := Diagnostic{Kind: Syntax, Line: 1, Col: 500, Message: "eof", Source: "x"}
	var buf bytes.Buffer
	Render(&buf, d) // must not panic
	if !strings.Contains(buf.String(), "^") {
		t.Error("Render did not emit a caret for an out-of-range column")
	}
}

// TestRenderAllSeparatesDiagnosticsWithBlankLine verifies RenderAll renders each diagnostic in
// order with exactly one blank line between consecutive entries.
func TestRenderAllSeparatesDiagnosticsWithBlankLine(t *testing.T) {
	diags := []Diagnostic{
		{Kind: Syntax, Line: 1, Col: 1, Message: "first"},
		{Kind: Semantic, Line: 2, Col: 1, Message: "second"},
	}
	var buf bytes.Buffer
	RenderAll(&buf, diags)

	out := buf.String()
	if !strings.Contains(out, "first") || !strings.Contains(out, "second") {
		t.Fatalf("RenderAll output missing one of the diagnostics: %q", out)
	}
	firstIdx := strings.Index(out, "first")
	secondIdx := strings.Index(out, "second")
	if firstIdx > secondIdx {
		t.Errorf("RenderAll did not preserve diagnostic order: %q", out)
	}
	if !strings.Contains(out, "first\n\n") {
		t.Errorf("RenderAll did not separate the diagnostics with a blank line: %q", out)
	}
}
