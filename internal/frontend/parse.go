package frontend

import (
	"github.com/alecthomas/participle/v2"
)

var parser = participle.MustBuild[Program](
	participle.Lexer(NewDefinition()),
	participle.UseLookahead(2),
)

// Parse tokenizes and parses one source file, returning its concrete syntax tree.
// internal/lowering turns the result into an internal/ir.Program.
func Parse(filename, src string) (*Program, error) {
	return parser.ParseString(filename, src)
}
