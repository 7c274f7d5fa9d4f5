package llvm

import (
	"fmt"

	golllvm "tinygo.org/x/go-llvm"

	"github.com/Samrhan/rusthonc/internal/ir"
	"github.com/Samrhan/rusthonc/internal/runtime"
	"github.com/Samrhan/rusthonc/internal/util"
	"github.com/Samrhan/rusthonc/internal/value"
)

// genExpr lowers one internal/ir.Expr into the boxed i64 LLVM value it evaluates to. fun is the
// enclosing LLVM function (needed by genBinOp/genCmp, which open their own basic blocks for the
// polymorphic int/float dispatch).
func (g *generator) genExpr(fun golllvm.Value, e ir.Expr, st *util.Stack) (golllvm.Value, error) {
	i64 := boxedType(g.ctx)
	switch n := e.(type) {
	case ir.Const:
		return golllvm.ConstInt(i64, value.BoxInt(n.Value), false), nil

	case ir.Float:
		return golllvm.ConstInt(i64, value.BoxFloat(n.Value), false), nil

	case ir.Bool:
		return golllvm.ConstInt(i64, value.BoxBool(n.Value), false), nil

	case ir.Str:
		return g.genStringLiteral(n.Value), nil

	case ir.Var:
		return g.load(st, n.Name)

	case ir.List:
		return g.genList(fun, n, st)

	case ir.Index:
		return g.genIndex(fun, n, st)

	case ir.Len:
		return g.genLen(fun, n, st)

	case ir.BinOpExpr:
		lv, err := g.genExpr(fun, n.Left, st)
		if err != nil {
			return golllvm.Value{}, err
		}
		rv, err := g.genExpr(fun, n.Right, st)
		if err != nil {
			return golllvm.Value{}, err
		}
		return g.genBinOp(fun, n.Op, lv, rv), nil

	case ir.Unary:
		return g.genUnary(fun, n, st)

	case ir.Cmp:
		lv, err := g.genExpr(fun, n.Left, st)
		if err != nil {
			return golllvm.Value{}, err
		}
		rv, err := g.genExpr(fun, n.Right, st)
		if err != nil {
			return golllvm.Value{}, err
		}
		return g.genCmp(fun, n.Op, lv, rv), nil

	case ir.Call:
		return g.genCall(fun, n, st)

	case ir.Input:
		return g.genInput(fun), nil
	}
	return golllvm.Value{}, fmt.Errorf("codegen: unhandled expression %T", e)
}

func (g *generator) genUnary(fun golllvm.Value, n ir.Unary, st *util.Stack) (golllvm.Value, error) {
	v, err := g.genExpr(fun, n.Operand, st)
	if err != nil {
		return golllvm.Value{}, err
	}
	i64 := boxedType(g.ctx)
	switch n.Op {
	case ir.Not:
		truth := g.genTruth(v)
		notTruth := g.builder.CreateNot(truth, "")
		return g.boxBool(notTruth), nil
	case ir.BitNot:
		raw := g.signExtendPayload(v)
		return g.boxInt(g.builder.CreateNot(raw, "")), nil
	case ir.Neg:
		// Polymorphic: 0 - v, reusing the numeric dispatch engine.
		zero := golllvm.ConstInt(i64, value.BoxInt(0), false)
		return g.genBinOp(fun, ir.Sub, zero, v), nil
	default: // Pos_ is a no-op.
		return v, nil
	}
}

// genTruth computes value.ToTruth(w) as an i1, used for unary "not" and as every If/While
// condition.
func (g *generator) genTruth(w golllvm.Value) golllvm.Value {
	i64 := boxedType(g.ctx)
	isFloat := g.isFloatBit(w)

	floatTruth := g.builder.CreateFCmp(golllvm.FloatUNE, g.builder.CreateBitCast(w, g.ctx.DoubleType(), ""),
		golllvm.ConstFloat(g.ctx.DoubleType(), 0), "")
	payload := g.builder.CreateAnd(w, golllvm.ConstInt(i64, value.PayloadMask, false), "")
	zero := golllvm.ConstInt(i64, 0, false)
	nonzeroTruth := g.builder.CreateICmp(golllvm.IntNE, payload, zero, "")

	return g.builder.CreateSelect(isFloat, floatTruth, nonzeroTruth, "")
}

// genStringLiteral materializes a constant string as a module-level global (never heap
// allocated, so it never enters main's free-on-return arena) and boxes its address.
func (g *generator) genStringLiteral(s string) golllvm.Value {
	i64 := boxedType(g.ctx)
	g.stringPool++
	name := fmt.Sprintf("L_STR%d", g.stringPool)
	ptr := g.builder.CreateGlobalStringPtr(s, name)
	addr := g.builder.CreatePtrToInt(ptr, i64, "")
	masked := g.builder.CreateAnd(addr, golllvm.ConstInt(i64, value.PayloadMask, false), "")
	header := golllvm.ConstInt(i64, value.BoxedHeader(value.TagString), false)
	return g.builder.CreateOr(header, masked, "")
}

// genList allocates a list's backing buffer on the heap: one i64 length word followed by one i64
// per element, each already a boxed value. Only recorded in main's free-on-return arena when
// built directly in main's entry block (see recordAlloc).
func (g *generator) genList(fun golllvm.Value, n ir.List, st *util.Stack) (golllvm.Value, error) {
	i64 := boxedType(g.ctx)
	elems := make([]golllvm.Value, len(n.Elems))
	for i, e := range n.Elems {
		v, err := g.genExpr(fun, e, st)
		if err != nil {
			return golllvm.Value{}, err
		}
		elems[i] = v
	}

	mallocFn := runtime.Malloc(g.mod, g.ctx)
	size := golllvm.ConstInt(g.ctx.Int64Type(), uint64((len(elems)+1))*8, false)
	raw := g.builder.CreateCall(mallocFn, []golllvm.Value{size}, "")
	g.recordAlloc(raw)

	base := g.builder.CreateBitCast(raw, golllvm.PointerType(i64, 0), "")
	g.builder.CreateStore(golllvm.ConstInt(i64, uint64(len(elems)), false), base)
	for i, v := range elems {
		idx := golllvm.ConstInt(i64, uint64(i+1), false)
		slot := g.builder.CreateGEP(base, []golllvm.Value{idx}, "")
		g.builder.CreateStore(v, slot)
	}

	addr := g.builder.CreatePtrToInt(raw, i64, "")
	masked := g.builder.CreateAnd(addr, golllvm.ConstInt(i64, value.PayloadMask, false), "")
	header := golllvm.ConstInt(i64, value.BoxedHeader(value.TagList), false)
	return g.builder.CreateOr(header, masked, ""), nil
}

func (g *generator) genIndex(fun golllvm.Value, n ir.Index, st *util.Stack) (golllvm.Value, error) {
	listVal, err := g.genExpr(fun, n.List, st)
	if err != nil {
		return golllvm.Value{}, err
	}
	idxVal, err := g.genExpr(fun, n.Idx, st)
	if err != nil {
		return golllvm.Value{}, err
	}
	i64 := boxedType(g.ctx)
	addr := g.builder.CreateAnd(listVal, golllvm.ConstInt(i64, value.PayloadMask, false), "")
	base := g.builder.CreateIntToPtr(addr, golllvm.PointerType(i64, 0), "")
	idx := g.signExtendPayload(idxVal)
	adjIdx := g.builder.CreateAdd(idx, golllvm.ConstInt(i64, 1, false), "")
	slot := g.builder.CreateGEP(base, []golllvm.Value{adjIdx}, "")
	return g.builder.CreateLoad(slot, ""), nil
}

// genLen dispatches at run time on whether its argument is a string (strlen of the C buffer) or
// a list (the length word stored ahead of its elements), since the language has no static type
// system to resolve this at compile time.
func (g *generator) genLen(fun golllvm.Value, n ir.Len, st *util.Stack) (golllvm.Value, error) {
	arg, err := g.genExpr(fun, n.Arg, st)
	if err != nil {
		return golllvm.Value{}, err
	}
	i64 := boxedType(g.ctx)
	shifted := g.builder.CreateLShr(arg, golllvm.ConstInt(i64, value.TagShift, false), "")
	tag := g.builder.CreateAnd(shifted, golllvm.ConstInt(i64, 0x3, false), "")
	isList := g.builder.CreateICmp(golllvm.IntEQ, tag, golllvm.ConstInt(i64, uint64(value.TagList), false), "")

	listBB := golllvm.AddBasicBlock(fun, "len.list")
	strBB := golllvm.AddBasicBlock(fun, "len.str")
	mergeBB := golllvm.AddBasicBlock(fun, "len.merge")
	addr := g.builder.CreateAnd(arg, golllvm.ConstInt(i64, value.PayloadMask, false), "")
	g.builder.CreateCondBr(isList, listBB, strBB)

	g.builder.SetInsertPointAtEnd(listBB)
	listPtr := g.builder.CreateIntToPtr(addr, golllvm.PointerType(i64, 0), "")
	listLen := g.builder.CreateLoad(listPtr, "")
	listEnd := g.builder.GetInsertBlock()
	g.builder.CreateBr(mergeBB)

	g.builder.SetInsertPointAtEnd(strBB)
	strPtr := g.builder.CreateIntToPtr(addr, golllvm.PointerType(g.ctx.Int8Type(), 0), "")
	strlenFn := runtime.Strlen(g.mod, g.ctx)
	strLen := g.builder.CreateCall(strlenFn, []golllvm.Value{strPtr}, "")
	strEnd := g.builder.GetInsertBlock()
	g.builder.CreateBr(mergeBB)

	g.builder.SetInsertPointAtEnd(mergeBB)
	phi := g.builder.CreatePHI(i64, "")
	phi.AddIncoming([]golllvm.Value{listLen, strLen}, []golllvm.BasicBlock{listEnd, strEnd})
	return g.boxInt(phi), nil
}

// genCall resolves missing trailing arguments against the callee's own default-value
// expressions, evaluated in the caller's scope rather than the callee's.
func (g *generator) genCall(fun golllvm.Value, c ir.Call, st *util.Stack) (golllvm.Value, error) {
	def, ok := g.defs[c.Callee]
	if !ok {
		return golllvm.Value{}, fmt.Errorf("undeclared function %q", c.Callee)
	}
	llfn := g.funcs[c.Callee]
	if len(c.Args) > len(def.Params) {
		return golllvm.Value{}, fmt.Errorf("function %q expects at most %d arguments, got %d", c.Callee, len(def.Params), len(c.Args))
	}
	args := make([]golllvm.Value, len(def.Params))
	for i, p := range def.Params {
		if i < len(c.Args) {
			v, err := g.genExpr(fun, c.Args[i], st)
			if err != nil {
				return golllvm.Value{}, err
			}
			args[i] = v
			continue
		}
		if p.Default == nil {
			return golllvm.Value{}, fmt.Errorf("function %q: missing required argument %q", c.Callee, p.Name)
		}
		v, err := g.genExpr(fun, p.Default, st)
		if err != nil {
			return golllvm.Value{}, err
		}
		args[i] = v
	}
	return g.builder.CreateCall(llfn, args, ""), nil
}

// genInput reads one double from standard input via scanf("%lf", &slot) and returns its bits
// directly as a boxed word: an ordinary finite double never collides with the boxed-value bit
// pattern.
func (g *generator) genInput(fun golllvm.Value) golllvm.Value {
	f64 := g.ctx.DoubleType()
	scanfFn := runtime.Scanf(g.mod, g.ctx)
	g.stringPool++
	fmtStr := g.builder.CreateGlobalStringPtr("%lf", fmt.Sprintf("L_FMT%d", g.stringPool))
	slot := g.builder.CreateAlloca(f64, "")
	g.builder.CreateCall(scanfFn, []golllvm.Value{fmtStr, slot}, "")
	d := g.builder.CreateLoad(slot, "")
	return g.builder.CreateBitCast(d, boxedType(g.ctx), "")
}
