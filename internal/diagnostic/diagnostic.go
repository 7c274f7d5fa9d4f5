// Package diagnostic renders compiler errors with the offending source line and a caret under the
// bad column. It has no bearing on compiler correctness — it is pure presentation over the plain
// Go errors every other package already returns.
package diagnostic

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
)

// Kind classifies a diagnostic: syntax errors (malformed token stream), unsupported constructs
// (well-formed but outside the subset this compiler implements), and semantic errors (undeclared
// names, arity mismatches, reserved-name collisions).
type Kind int

const (
	Syntax Kind = iota
	Unsupported
	Semantic
)

func (k Kind) String() string {
	switch k {
	case Syntax:
		return "syntax error"
	case Unsupported:
		return "unsupported construct"
	case Semantic:
		return "semantic error"
	default:
		return "error"
	}
}

// Diagnostic is one reported problem: its kind, source position, message, and (if available) the
// full source text it was found in, used to print the offending line with a caret.
type Diagnostic struct {
	Kind    Kind
	Line    int
	Col     int
	Message string
	Source  string // Full source text; empty suppresses the source-line/caret rendering.
}

func (d Diagnostic) Error() string {
	return fmt.Sprintf("%d:%d: %s: %s", d.Line, d.Col, d.Kind, d.Message)
}

// bold, red and cyan colorize the severity label and caret; color auto-detects whether the
// destination is a terminal and no-ops to plain text otherwise (see color.NoColor).
var bold = color.New(color.Bold)
var red = color.New(color.FgRed, color.Bold)
var cyan = color.New(color.FgCyan)

// Render writes d to w: one colorized summary line, then (when d.Source is non-empty) the
// offending source line with a caret under d.Col.
func Render(w io.Writer, d Diagnostic) {
	_, _ = red.Fprintf(w, "%s", d.Kind.String())
	_, _ = bold.Fprintf(w, " at %d:%d: ", d.Line, d.Col)
	_, _ = fmt.Fprintln(w, d.Message)

	if d.Source == "" {
		return
	}
	lines := strings.Split(d.Source, "\n")
	if d.Line < 1 || d.Line > len(lines) {
		return
	}
	line := lines[d.Line-1]
	_, _ = fmt.Fprintln(w, line)

	col := d.Col
	if col < 1 {
		col = 1
	}
	if col > len(line)+1 {
		col = len(line) + 1
	}
	_, _ = cyan.Fprintln(w, strings.Repeat(" ", col-1)+"^")
}

// RenderAll renders every diagnostic in order, separated by a blank line. Lowering and codegen
// each stop at their first error, so cmd/rusthonc renders with Render; RenderAll serves a caller
// holding several diagnostics at once.
func RenderAll(w io.Writer, diags []Diagnostic) {
	for i, d := range diags {
		if i > 0 {
			_, _ = fmt.Fprintln(w)
		}
		Render(w, d)
	}
}
