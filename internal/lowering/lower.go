// Package lowering turns a parsed internal/frontend.Program into an internal/ir.Program. It is
// where every piece of syntactic sugar gets removed: elif becomes a nested If inside Else,
// augmented assignment becomes Assign(BinOpExpr(Var, Value)), range-based for becomes an init
// Assign plus a While, and short-circuiting and/or become a temporary variable guarded by an If,
// since internal/ir has no boolean short-circuit operator of its own.
package lowering

import (
	"fmt"

	"github.com/samber/lo"

	"github.com/Samrhan/rusthonc/internal/frontend"
	"github.com/Samrhan/rusthonc/internal/ir"
)

// Lower converts a parsed program into its IR form. Errors are returned for the handful of
// static checks that belong at this stage rather than codegen: malformed range() arities and
// unknown assignment operators.
func Lower(p *frontend.Program) (*ir.Program, error) {
	lw := &lowerer{}
	out := &ir.Program{}
	for _, item := range p.Items {
		switch {
		case item.Func != nil:
			fn, err := lw.lowerFunctionDef(item.Func)
			if err != nil {
				return nil, err
			}
			out.Functions = append(out.Functions, fn)
		case item.Stmt != nil:
			stmts, err := lw.lowerStmt(item.Stmt)
			if err != nil {
				return nil, err
			}
			out.Top = append(out.Top, stmts...)
		}
	}
	return out, nil
}

// lowerer carries the monotonic counter used to name the temporaries short-circuit desugaring
// and range-bound caching introduce. Names are prefixed with a '.', which the lexer never accepts
// in an Ident token, so they can't collide with user-declared variables.
type lowerer struct {
	tmp int
}

func (lw *lowerer) newTemp(prefix string) string {
	lw.tmp++
	return fmt.Sprintf(".%s%d", prefix, lw.tmp)
}

// loweredExpr pairs one lowered expression with the pre-statements it needs and any error
// encountered, the unit lowerExprs maps a slice of raw expressions into before collapsing
// errors back to the usual (value, pre, err) shape the rest of this package returns.
type loweredExpr struct {
	v   ir.Expr
	pre []ir.Stmt
	err error
}

// lowerExprs lowers every expression in exprs independently via lo.Map, then collapses the
// per-element results back into a single value slice, a concatenated pre-statement list, and the
// first error encountered in source order — the shared slice-building step behind call arguments,
// print arguments and list literals, which otherwise repeated this loop three times over.
func (lw *lowerer) lowerExprs(exprs []*frontend.Expr) ([]ir.Expr, []ir.Stmt, error) {
	results := lo.Map(exprs, func(e *frontend.Expr, _ int) loweredExpr {
		v, pre, err := lw.lowerExpr(e)
		return loweredExpr{v: v, pre: pre, err: err}
	})
	vals := make([]ir.Expr, len(results))
	var pre []ir.Stmt
	for i, r := range results {
		if r.err != nil {
			return nil, nil, r.err
		}
		vals[i] = r.v
		pre = append(pre, r.pre...)
	}
	return vals, pre, nil
}

func (lw *lowerer) lowerFunctionDef(f *frontend.FunctionDef) (*ir.FunctionDef, error) {
	p := ir.NewPos(f.Pos.Line, f.Pos.Column)
	params := make([]ir.Param, len(f.Params))
	for i, fp := range f.Params {
		ip := ir.Param{Name: fp.Name}
		if fp.Default != nil {
			def, pre, err := lw.lowerExpr(fp.Default)
			if err != nil {
				return nil, err
			}
			if len(pre) != 0 {
				return nil, ir.Errorf(p, "lowering: default value for parameter %q in %q may not use and/or", fp.Name, f.Name)
			}
			ip.Default = def
		}
		params[i] = ip
	}
	body, err := lw.lowerBlock(f.Body)
	if err != nil {
		return nil, err
	}
	return &ir.FunctionDef{Pos: p, Name: f.Name, Params: params, Body: body}, nil
}

func (lw *lowerer) lowerBlock(stmts []*frontend.Stmt) ([]ir.Stmt, error) {
	var out []ir.Stmt
	for _, s := range stmts {
		lowered, err := lw.lowerStmt(s)
		if err != nil {
			return nil, err
		}
		out = append(out, lowered...)
	}
	return out, nil
}

func (lw *lowerer) lowerStmt(s *frontend.Stmt) ([]ir.Stmt, error) {
	p := ir.NewPos(s.Pos.Line, s.Pos.Column)
	switch {
	case s.If != nil:
		return lw.lowerIf(s.If, p)

	case s.While != nil:
		cond, pre, err := lw.lowerExpr(&s.While.Cond)
		if err != nil {
			return nil, err
		}
		body, err := lw.lowerBlock(s.While.Body)
		if err != nil {
			return nil, err
		}
		// Pre-statements computing the condition (e.g. and/or desugaring) must be re-evaluated
		// on every pass through the loop, so they run once before entry and again at the tail
		// of the body, ahead of the backward branch.
		bodyWithRecheck := append(append([]ir.Stmt{}, body...), pre...)
		out := append(pre, ir.While{Base: ir.At(p), Cond: cond, Body: bodyWithRecheck})
		return out, nil

	case s.For != nil:
		return lw.lowerFor(s.For, p)

	case s.Break != nil:
		return []ir.Stmt{ir.Break{Base: ir.At(p)}}, nil

	case s.Continue != nil:
		return []ir.Stmt{ir.Continue{Base: ir.At(p)}}, nil

	case s.Return != nil:
		var val ir.Expr = ir.Const{Base: ir.At(p), Value: 0}
		var pre []ir.Stmt
		if s.Return.Value != nil {
			var err error
			val, pre, err = lw.lowerExpr(s.Return.Value)
			if err != nil {
				return nil, err
			}
		}
		return append(pre, ir.Return{Base: ir.At(p), Value: val}), nil

	case s.Print != nil:
		args, pre, err := lw.lowerExprs(s.Print.Args)
		if err != nil {
			return nil, err
		}
		return append(pre, ir.Print{Base: ir.At(p), Args: args}), nil

	case s.Assign != nil:
		return lw.lowerAssign(s.Assign, p)
	}
	return nil, ir.Errorf(p, "lowering: empty statement")
}

func (lw *lowerer) lowerAssign(a *frontend.AssignStmt, p ir.Pos) ([]ir.Stmt, error) {
	val, pre, err := lw.lowerExpr(&a.Value)
	if err != nil {
		return nil, err
	}
	if a.Op == "=" {
		return append(pre, ir.Assign{Base: ir.At(p), Name: a.Name, Value: val}), nil
	}
	op, ok := augOps[a.Op]
	if !ok {
		return nil, ir.Errorf(p, "lowering: unknown assignment operator %q", a.Op)
	}
	combined := ir.BinOpExpr{Base: ir.At(p), Op: op, Left: ir.Var{Base: ir.At(p), Name: a.Name}, Right: val}
	return append(pre, ir.Assign{Base: ir.At(p), Name: a.Name, Value: combined}), nil
}

var augOps = map[string]ir.BinOp{
	"+=": ir.Add, "-=": ir.Sub, "*=": ir.Mul, "/=": ir.Div, "%=": ir.Mod,
	"&=": ir.BitAnd, "|=": ir.BitOr, "^=": ir.BitXor,
}

// lowerIf nests each elif arm inside the previous one's Else, then attaches the trailing else
// (if any) at the bottom of the chain. A non-empty pre-statement list for an elif/else condition
// is folded into that branch's own statement list rather than hoisted, since it must only run
// when control actually reaches that branch.
func (lw *lowerer) lowerIf(s *frontend.IfStmt, p ir.Pos) ([]ir.Stmt, error) {
	var elseBranch []ir.Stmt
	if s.Else != nil {
		b, err := lw.lowerBlock(s.Else)
		if err != nil {
			return nil, err
		}
		elseBranch = b
	}
	for i := len(s.Elif) - 1; i >= 0; i-- {
		clause := s.Elif[i]
		cond, pre, err := lw.lowerExpr(&clause.Cond)
		if err != nil {
			return nil, err
		}
		body, err := lw.lowerBlock(clause.Body)
		if err != nil {
			return nil, err
		}
		nested := append(pre, ir.If{Base: ir.At(p), Cond: cond, Then: body, Else: elseBranch})
		elseBranch = nested
	}
	cond, pre, err := lw.lowerExpr(&s.Cond)
	if err != nil {
		return nil, err
	}
	then, err := lw.lowerBlock(s.Then)
	if err != nil {
		return nil, err
	}
	return append(pre, ir.If{Base: ir.At(p), Cond: cond, Then: then, Else: elseBranch}), nil
}

// lowerFor desugars "for v in range(args...)" into an init assignment, a single evaluation of
// the stop/step bounds into hidden temporaries (range() arguments are evaluated once, not once
// per iteration), and a While loop that increments v by the step temporary at the tail of its
// body.
//
// A non-literal, non-constant step is assumed ascending, and the loop condition also requires it
// to be positive; per the open question this resolves, a runtime-negative (or zero) dynamic step
// produces a loop that never executes rather than one that silently runs backwards.
func (lw *lowerer) lowerFor(f *frontend.ForStmt, p ir.Pos) ([]ir.Stmt, error) {
	if len(f.Args) < 1 || len(f.Args) > 3 {
		return nil, ir.Errorf(p, "lowering: range() takes 1 to 3 arguments")
	}
	var startE, stopE, stepE *frontend.Expr
	switch len(f.Args) {
	case 1:
		startE, stopE, stepE = intLiteralExpr(0), f.Args[0], intLiteralExpr(1)
	case 2:
		startE, stopE, stepE = f.Args[0], f.Args[1], intLiteralExpr(1)
	case 3:
		startE, stopE, stepE = f.Args[0], f.Args[1], f.Args[2]
	}

	start, startPre, err := lw.lowerExpr(startE)
	if err != nil {
		return nil, err
	}
	stop, stopPre, err := lw.lowerExpr(stopE)
	if err != nil {
		return nil, err
	}
	step, stepPre, err := lw.lowerExpr(stepE)
	if err != nil {
		return nil, err
	}

	stopTmp := lw.newTemp("stop")
	stepTmp := lw.newTemp("step")

	ascending := true
	v, literalStep := negatedConstValue(step)
	if literalStep && v < 0 {
		ascending = false
	}

	out := append([]ir.Stmt{}, startPre...)
	out = append(out, stopPre...)
	out = append(out, stepPre...)
	out = append(out, ir.Assign{Base: ir.At(p), Name: f.Var, Value: start})
	out = append(out, ir.Assign{Base: ir.At(p), Name: stopTmp, Value: stop})
	out = append(out, ir.Assign{Base: ir.At(p), Name: stepTmp, Value: step})

	cmpOp := ir.Lt
	if !ascending {
		cmpOp = ir.Gt
	}
	var cond ir.Expr = ir.Cmp{Base: ir.At(p), Op: cmpOp, Left: ir.Var{Base: ir.At(p), Name: f.Var}, Right: ir.Var{Base: ir.At(p), Name: stopTmp}}
	if !literalStep {
		stepPositive := ir.Cmp{Base: ir.At(p), Op: ir.Gt, Left: ir.Var{Base: ir.At(p), Name: stepTmp}, Right: ir.Const{Base: ir.At(p), Value: 0}}
		cond = ir.BinOpExpr{Base: ir.At(p), Op: ir.BitAnd, Left: cond, Right: stepPositive}
	}

	body, err := lw.lowerBlock(f.Body)
	if err != nil {
		return nil, err
	}
	body = append(body, ir.Assign{
		Base: ir.At(p), Name: f.Var,
		Value: ir.BinOpExpr{Base: ir.At(p), Op: ir.Add, Left: ir.Var{Base: ir.At(p), Name: f.Var}, Right: ir.Var{Base: ir.At(p), Name: stepTmp}},
	})
	out = append(out, ir.While{Base: ir.At(p), Cond: cond, Body: body})
	return out, nil
}

// negatedConstValue reports the literal integer value of step when it is a bare constant or a
// unary +/- applied to one — the only shapes the grammar can produce for a literal step, since
// there is no signed-integer token and "-1" always parses as Unary{Neg, Const{1}}.
func negatedConstValue(e ir.Expr) (int64, bool) {
	switch n := e.(type) {
	case ir.Const:
		return n.Value, true
	case ir.Unary:
		v, ok := negatedConstValue(n.Operand)
		if !ok {
			return 0, false
		}
		switch n.Op {
		case ir.Neg:
			return -v, true
		case ir.Pos_:
			return v, true
		default:
			return 0, false
		}
	}
	return 0, false
}

func intLiteralExpr(v int64) *frontend.Expr {
	i := v
	return wrapPrimary(&frontend.Primary{Int: &i})
}

func wrapPrimary(pr *frontend.Primary) *frontend.Expr {
	post := &frontend.PostfixExpr{Primary: pr}
	un := &frontend.UnaryExpr{Postfix: post}
	mul := &frontend.MulExpr{Left: un}
	add := &frontend.AdditiveExpr{Left: mul}
	shift := &frontend.ShiftExpr{Left: add}
	band := &frontend.BitAndExpr{Left: shift}
	bxor := &frontend.BitXorExpr{Left: band}
	bor := &frontend.BitOrExpr{Left: bxor}
	cmp := &frontend.CmpExpr{Left: bor}
	not := &frontend.NotExpr{Cmp: cmp}
	and := &frontend.AndExpr{Left: not}
	return &frontend.Expr{Left: and}
}

// ---- Expression lowering: mirrors the grammar's precedence cascade one level at a time. ----

func (lw *lowerer) lowerExpr(e *frontend.Expr) (ir.Expr, []ir.Stmt, error) {
	cur, pre, err := lw.lowerAndExpr(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, rhs := range e.Right {
		tmp := lw.newTemp("or")
		pre = append(pre, ir.Assign{Name: tmp, Value: cur})
		rightVal, rightPre, err := lw.lowerAndExpr(rhs.Right)
		if err != nil {
			return nil, nil, err
		}
		body := append(rightPre, ir.Assign{Name: tmp, Value: rightVal})
		notTmp := ir.Unary{Op: ir.Not, Operand: ir.Var{Name: tmp}}
		pre = append(pre, ir.If{Cond: notTmp, Then: body})
		cur = ir.Var{Name: tmp}
	}
	return cur, pre, nil
}

func (lw *lowerer) lowerAndExpr(e *frontend.AndExpr) (ir.Expr, []ir.Stmt, error) {
	cur, pre, err := lw.lowerNotExpr(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, rhs := range e.Right {
		tmp := lw.newTemp("and")
		pre = append(pre, ir.Assign{Name: tmp, Value: cur})
		rightVal, rightPre, err := lw.lowerNotExpr(rhs)
		if err != nil {
			return nil, nil, err
		}
		body := append(rightPre, ir.Assign{Name: tmp, Value: rightVal})
		pre = append(pre, ir.If{Cond: ir.Var{Name: tmp}, Then: body})
		cur = ir.Var{Name: tmp}
	}
	return cur, pre, nil
}

func (lw *lowerer) lowerNotExpr(e *frontend.NotExpr) (ir.Expr, []ir.Stmt, error) {
	val, pre, err := lw.lowerCmpExpr(e.Cmp)
	if err != nil {
		return nil, nil, err
	}
	if e.Not {
		return ir.Unary{Op: ir.Not, Operand: val}, pre, nil
	}
	return val, pre, nil
}

func (lw *lowerer) lowerCmpExpr(e *frontend.CmpExpr) (ir.Expr, []ir.Stmt, error) {
	left, pre, err := lw.lowerBitOrExpr(e.Left)
	if err != nil {
		return nil, nil, err
	}
	if e.Op == nil {
		return left, pre, nil
	}
	right, rp, err := lw.lowerBitOrExpr(e.Right)
	if err != nil {
		return nil, nil, err
	}
	pre = append(pre, rp...)
	op, ok := cmpOps[*e.Op]
	if !ok {
		return nil, nil, fmt.Errorf("lowering: unknown comparison operator %q", *e.Op)
	}
	return ir.Cmp{Op: op, Left: left, Right: right}, pre, nil
}

var cmpOps = map[string]ir.CompareOp{
	"==": ir.Eq, "!=": ir.Ne, "<": ir.Lt, "<=": ir.Le, ">": ir.Gt, ">=": ir.Ge,
}

func (lw *lowerer) lowerBitOrExpr(e *frontend.BitOrExpr) (ir.Expr, []ir.Stmt, error) {
	cur, pre, err := lw.lowerBitXorExpr(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range e.Right {
		rv, rp, err := lw.lowerBitXorExpr(r)
		if err != nil {
			return nil, nil, err
		}
		pre = append(pre, rp...)
		cur = ir.BinOpExpr{Op: ir.BitOr, Left: cur, Right: rv}
	}
	return cur, pre, nil
}

func (lw *lowerer) lowerBitXorExpr(e *frontend.BitXorExpr) (ir.Expr, []ir.Stmt, error) {
	cur, pre, err := lw.lowerBitAndExpr(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range e.Right {
		rv, rp, err := lw.lowerBitAndExpr(r)
		if err != nil {
			return nil, nil, err
		}
		pre = append(pre, rp...)
		cur = ir.BinOpExpr{Op: ir.BitXor, Left: cur, Right: rv}
	}
	return cur, pre, nil
}

func (lw *lowerer) lowerBitAndExpr(e *frontend.BitAndExpr) (ir.Expr, []ir.Stmt, error) {
	cur, pre, err := lw.lowerShiftExpr(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, r := range e.Right {
		rv, rp, err := lw.lowerShiftExpr(r)
		if err != nil {
			return nil, nil, err
		}
		pre = append(pre, rp...)
		cur = ir.BinOpExpr{Op: ir.BitAnd, Left: cur, Right: rv}
	}
	return cur, pre, nil
}

func (lw *lowerer) lowerShiftExpr(e *frontend.ShiftExpr) (ir.Expr, []ir.Stmt, error) {
	cur, pre, err := lw.lowerAdditiveExpr(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, rhs := range e.Right {
		rv, rp, err := lw.lowerAdditiveExpr(rhs.Right)
		if err != nil {
			return nil, nil, err
		}
		pre = append(pre, rp...)
		op := ir.Shl
		if rhs.Op == ">>" {
			op = ir.Shr
		}
		cur = ir.BinOpExpr{Op: op, Left: cur, Right: rv}
	}
	return cur, pre, nil
}

func (lw *lowerer) lowerAdditiveExpr(e *frontend.AdditiveExpr) (ir.Expr, []ir.Stmt, error) {
	cur, pre, err := lw.lowerMulExpr(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, rhs := range e.Right {
		rv, rp, err := lw.lowerMulExpr(rhs.Right)
		if err != nil {
			return nil, nil, err
		}
		pre = append(pre, rp...)
		op := ir.Add
		if rhs.Op == "-" {
			op = ir.Sub
		}
		cur = ir.BinOpExpr{Op: op, Left: cur, Right: rv}
	}
	return cur, pre, nil
}

func (lw *lowerer) lowerMulExpr(e *frontend.MulExpr) (ir.Expr, []ir.Stmt, error) {
	cur, pre, err := lw.lowerUnaryExpr(e.Left)
	if err != nil {
		return nil, nil, err
	}
	for _, rhs := range e.Right {
		rv, rp, err := lw.lowerUnaryExpr(rhs.Right)
		if err != nil {
			return nil, nil, err
		}
		pre = append(pre, rp...)
		var op ir.BinOp
		switch rhs.Op {
		case "*":
			op = ir.Mul
		case "/":
			op = ir.Div
		default:
			op = ir.Mod
		}
		cur = ir.BinOpExpr{Op: op, Left: cur, Right: rv}
	}
	return cur, pre, nil
}

func (lw *lowerer) lowerUnaryExpr(e *frontend.UnaryExpr) (ir.Expr, []ir.Stmt, error) {
	if e.Postfix != nil {
		return lw.lowerPostfixExpr(e.Postfix)
	}
	val, pre, err := lw.lowerUnaryExpr(e.Operand)
	if err != nil {
		return nil, nil, err
	}
	var op ir.UnaryOp
	switch e.Op {
	case "-":
		op = ir.Neg
	case "+":
		op = ir.Pos_
	default:
		op = ir.BitNot
	}
	return ir.Unary{Op: op, Operand: val}, pre, nil
}

func (lw *lowerer) lowerPostfixExpr(e *frontend.PostfixExpr) (ir.Expr, []ir.Stmt, error) {
	val, pre, err := lw.lowerPrimary(e.Primary)
	if err != nil {
		return nil, nil, err
	}
	if e.Index == nil {
		return val, pre, nil
	}
	idx, ip, err := lw.lowerExpr(e.Index)
	if err != nil {
		return nil, nil, err
	}
	pre = append(pre, ip...)
	return ir.Index{List: val, Idx: idx}, pre, nil
}

func (lw *lowerer) lowerPrimary(p *frontend.Primary) (ir.Expr, []ir.Stmt, error) {
	switch {
	case p.Float != nil:
		return ir.Float{Value: *p.Float}, nil, nil
	case p.Int != nil:
		return ir.Const{Value: *p.Int}, nil, nil
	case p.Bool != nil:
		return ir.Bool{Value: *p.Bool == "True"}, nil, nil
	case p.Str != nil:
		return ir.Str{Value: *p.Str}, nil, nil
	case p.Call != nil:
		return lw.lowerCall(p.Call)
	case p.Ident != nil:
		return ir.Var{Name: *p.Ident}, nil, nil
	case p.List != nil:
		elems, pre, err := lw.lowerExprs(p.List.Elems)
		if err != nil {
			return nil, nil, err
		}
		return ir.List{Elems: elems}, pre, nil
	case p.Paren != nil:
		return lw.lowerExpr(p.Paren)
	}
	return nil, nil, fmt.Errorf("lowering: empty primary expression")
}

func (lw *lowerer) lowerCall(c *frontend.CallExpr) (ir.Expr, []ir.Stmt, error) {
	args, pre, err := lw.lowerExprs(c.Args)
	if err != nil {
		return nil, nil, err
	}
	switch c.Name {
	case "len":
		if len(args) != 1 {
			return nil, nil, fmt.Errorf("lowering: len() takes exactly 1 argument, got %d", len(args))
		}
		return ir.Len{Arg: args[0]}, pre, nil
	case "input":
		if len(args) != 0 {
			return nil, nil, fmt.Errorf("lowering: input() takes no arguments")
		}
		return ir.Input{}, pre, nil
	}
	return ir.Call{Callee: c.Name, Args: args}, pre, nil
}
