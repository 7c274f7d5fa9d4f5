// grammar.go defines the participle struct-tag grammar for the source language's concrete
// syntax. Each binary-operator precedence level is its own struct with a Left operand and a
// slice of (operator, operand) pairs, the canonical left-associative cascade participle's own
// documentation uses for expression grammars; internal/lowering flattens these into
// internal/ir.BinOpExpr/Cmp/Unary trees and desugars elif, augmented assignment and range-based
// for into the IR's smaller statement set.
package frontend

import "github.com/alecthomas/participle/v2/lexer"

// Program is the root of a parsed source file: a flat, source-ordered sequence of function
// definitions and top-level statements.
type Program struct {
	Pos   lexer.Position
	Items []*TopLevelItem `@@*`
}

// TopLevelItem is either a function definition or a statement belonging to the synthetic main
// function's body.
type TopLevelItem struct {
	Func *FunctionDef `  @@`
	Stmt *Stmt        `| @@`
}

// FunctionDef declares a function with positional parameters, optional default values, and an
// indented body.
type FunctionDef struct {
	Pos    lexer.Position
	Name   string   `"def" @Ident`
	Params []*Param `"(" ( @@ ( "," @@ )* )? ")" ":" Newline`
	Body   []*Stmt  `Indent @@+ Dedent`
}

// Param is one positional parameter with an optional default-value expression.
type Param struct {
	Name    string `@Ident`
	Default *Expr  `( "=" @@ )?`
}

// Stmt is one statement; exactly one alternative field is populated after a successful parse.
type Stmt struct {
	Pos      lexer.Position
	If       *IfStmt    `  @@`
	While    *WhileStmt `| @@`
	For      *ForStmt   `| @@`
	Break    *bool      `| @"break" Newline`
	Continue *bool      `| @"continue" Newline`
	Return   *ReturnStmt `| @@`
	Print    *PrintStmt  `| @@`
	Assign   *AssignStmt `| @@`
}

// IfStmt implements if/elif*/else?.
type IfStmt struct {
	Cond Expr          `"if" @@ ":" Newline`
	Then []*Stmt       `Indent @@+ Dedent`
	Elif []*ElifClause `@@*`
	Else []*Stmt       `( "else" ":" Newline Indent @@+ Dedent )?`
}

// ElifClause is one elif arm; lowering nests these as If-in-Else.
type ElifClause struct {
	Cond Expr    `"elif" @@ ":" Newline`
	Body []*Stmt `Indent @@+ Dedent`
}

// WhileStmt implements the while loop.
type WhileStmt struct {
	Cond Expr    `"while" @@ ":" Newline`
	Body []*Stmt `Indent @@+ Dedent`
}

// ForStmt implements range-based for: "for i in range(args...)". args holds 1-3 expressions
// (stop), (start, stop) or (start, stop, step), resolved by internal/lowering.
type ForStmt struct {
	Var  string  `"for" @Ident "in" "range" "("`
	Args []*Expr `@@ ( "," @@ )* ")" ":" Newline`
	Body []*Stmt `Indent @@+ Dedent`
}

// ReturnStmt returns an optional value; a bare "return" is lowered to returning boxed zero.
type ReturnStmt struct {
	Value *Expr `"return" @@? Newline`
}

// PrintStmt prints zero or more comma-separated arguments.
type PrintStmt struct {
	Args []*Expr `"print" "(" ( @@ ( "," @@ )* )? ")" Newline`
}

// AssignStmt covers both plain assignment and every augmented-assignment operator; Op is "="
// for plain assignment and one of the "+="-style tokens otherwise.
type AssignStmt struct {
	Name  string `@Ident`
	Op    string `@( "=" | "+=" | "-=" | "*=" | "/=" | "%=" | "&=" | "|=" | "^=" )`
	Value Expr   `@@ Newline`
}

// ---- Expression grammar: precedence cascade, loosest to tightest. ----

// Expr is the loosest level: logical or.
type Expr struct {
	Left  *AndExpr `@@`
	Right []*OrRHS `@@*`
}

type OrRHS struct {
	Right *AndExpr `"or" @@`
}

// AndExpr: logical and.
type AndExpr struct {
	Left  *NotExpr  `@@`
	Right []*NotExpr `( "and" @@ )*`
}

// NotExpr: optional leading logical not, binding tighter than and/or but looser than comparisons.
type NotExpr struct {
	Not bool     `@"not"?`
	Cmp *CmpExpr `@@`
}

// CmpExpr: at most one comparison, non-chaining (a < b < c is not supported, matching the
// teacher's single-relation genRelation).
type CmpExpr struct {
	Left  *BitOrExpr `@@`
	Op    *string    `( @( "==" | "!=" | "<=" | ">=" | "<" | ">" )`
	Right *BitOrExpr `  @@ )?`
}

type BitOrExpr struct {
	Left  *BitXorExpr   `@@`
	Right []*BitXorExpr `( "|" @@ )*`
}

type BitXorExpr struct {
	Left  *BitAndExpr   `@@`
	Right []*BitAndExpr `( "^" @@ )*`
}

type BitAndExpr struct {
	Left  *ShiftExpr   `@@`
	Right []*ShiftExpr `( "&" @@ )*`
}

type ShiftExpr struct {
	Left  *AdditiveExpr `@@`
	Right []*ShiftRHS   `@@*`
}

type ShiftRHS struct {
	Op    string        `@( "<<" | ">>" )`
	Right *AdditiveExpr `@@`
}

type AdditiveExpr struct {
	Left  *MulExpr   `@@`
	Right []*AddRHS  `@@*`
}

type AddRHS struct {
	Op    string   `@( "+" | "-" )`
	Right *MulExpr `@@`
}

type MulExpr struct {
	Left  *UnaryExpr `@@`
	Right []*MulRHS  `@@*`
}

type MulRHS struct {
	Op    string     `@( "*" | "/" | "%" )`
	Right *UnaryExpr `@@`
}

// UnaryExpr: prefix -, +, ~, or a postfix expression.
type UnaryExpr struct {
	Op      string       `(  @( "-" | "+" | "~" )`
	Operand *UnaryExpr   `   @@ )`
	Postfix *PostfixExpr `| @@`
}

// PostfixExpr: a primary optionally indexed once with [expr].
type PostfixExpr struct {
	Primary *Primary `@@`
	Index   *Expr    `( "[" @@ "]" )?`
}

// Primary is the tightest-binding production: literals, identifiers, calls, lists, and
// parenthesized sub-expressions.
type Primary struct {
	Float *float64 `  @Float`
	Int   *int64   `| @Int`
	Bool  *string  `| @( "True" | "False" )`
	Str   *string  `| @String`
	Call  *CallExpr `| @@`
	Ident *string  `| @Ident`
	List  *ListExpr `| @@`
	Paren *Expr    `| "(" @@ ")"`
}

// CallExpr is a function call with positional arguments. input/len are ordinary names resolved
// to builtins by internal/lowering; print and range are not keywords either, but are matched by
// name in PrintStmt and ForStmt.
type CallExpr struct {
	Name string  `@Ident "("`
	Args []*Expr `( @@ ( "," @@ )* )? ")"`
}

// ListExpr is a fixed-size list literal.
type ListExpr struct {
	Elems []*Expr `"[" ( @@ ( "," @@ )* )? "]"`
}
