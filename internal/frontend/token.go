package frontend

import "github.com/alecthomas/participle/v2/lexer"

// tokenType enumerates every token kind the lexer emits. Each keyword gets its own type (rather
// than being lumped into a single Ident type) so that participle's literal grammar tags match
// unambiguously.
type tokenType rune

const (
	tokEOF tokenType = tokenType(lexer.EOF) - iota
	tokIdent
	tokInt
	tokFloat
	tokString
	tokNewline
	tokIndent
	tokDedent

	// Keywords.
	tokDef
	tokIf
	tokElif
	tokElse
	tokWhile
	tokFor
	tokIn
	tokBreak
	tokContinue
	tokReturn
	tokTrue
	tokFalse
	tokAnd
	tokOr
	tokNot

	// Multi-character operators. Single-character punctuation (+ - * / % & | ^ ~ ( ) [ ] , : =)
	// is emitted using the rune's own value as its token type.
	tokEq
	tokNe
	tokLe
	tokGe
	tokShl
	tokShr
	tokPlusEq
	tokMinusEq
	tokStarEq
	tokSlashEq
	tokPercentEq
	tokAmpEq
	tokPipeEq
	tokCaretEq
)

// keywords maps reserved words to their token type, keyed directly by string: the source files
// this lexer handles are small enough that a length-bucketed table would be premature.
var keywords = map[string]tokenType{
	"def":      tokDef,
	"if":       tokIf,
	"elif":     tokElif,
	"else":     tokElse,
	"while":    tokWhile,
	"for":      tokFor,
	"in":       tokIn,
	"break":    tokBreak,
	"continue": tokContinue,
	"return":   tokReturn,
	"True":     tokTrue,
	"False":    tokFalse,
	"and":      tokAnd,
	"or":       tokOr,
	"not":      tokNot,
}

// symbolNames names every token type for participle's lexer.Definition.Symbols().
var symbolNames = map[string]rune{
	"EOF":     rune(tokEOF),
	"Ident":   rune(tokIdent),
	"Int":     rune(tokInt),
	"Float":   rune(tokFloat),
	"String":  rune(tokString),
	"Newline": rune(tokNewline),
	"Indent":  rune(tokIndent),
	"Dedent":  rune(tokDedent),

	"def":      rune(tokDef),
	"if":       rune(tokIf),
	"elif":     rune(tokElif),
	"else":     rune(tokElse),
	"while":    rune(tokWhile),
	"for":      rune(tokFor),
	"in":       rune(tokIn),
	"break":    rune(tokBreak),
	"continue": rune(tokContinue),
	"return":   rune(tokReturn),
	"True":     rune(tokTrue),
	"False":    rune(tokFalse),
	"and":      rune(tokAnd),
	"or":       rune(tokOr),
	"not":      rune(tokNot),

	"==": rune(tokEq),
	"!=": rune(tokNe),
	"<=": rune(tokLe),
	">=": rune(tokGe),
	"<<": rune(tokShl),
	">>": rune(tokShr),
	"+=": rune(tokPlusEq),
	"-=": rune(tokMinusEq),
	"*=": rune(tokStarEq),
	"/=": rune(tokSlashEq),
	"%=": rune(tokPercentEq),
	"&=": rune(tokAmpEq),
	"|=": rune(tokPipeEq),
	"^=": rune(tokCaretEq),

	"(": rune('('),
	")": rune(')'),
	"[": rune('['),
	"]": rune(']'),
	",": rune(','),
	":": rune(':'),
	"=": rune('='),
	"+": rune('+'),
	"-": rune('-'),
	"*": rune('*'),
	"/": rune('/'),
	"%": rune('%'),
	"&": rune('&'),
	"|": rune('|'),
	"^": rune('^'),
	"~": rune('~'),
	"<": rune('<'),
	">": rune('>'),
}

// isKeyword reports whether s is a reserved word and, if so, its token type.
func isKeyword(s string) (tokenType, bool) {
	t, ok := keywords[s]
	return t, ok
}
