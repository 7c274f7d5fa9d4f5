package llvm

import (
	golllvm "tinygo.org/x/go-llvm"

	"github.com/Samrhan/rusthonc/internal/ir"
	"github.com/Samrhan/rusthonc/internal/runtime"
	"github.com/Samrhan/rusthonc/internal/value"
)

// genBinOp is the polymorphic binary-operator engine: since every rusthonc value carries its own
// runtime tag rather than a static type, + - * / % must each inspect both operands at run time and
// choose an integer or floating-point instruction sequence, promoting to double whenever either
// side is one, and converge the two paths with a phi node. Add additionally dispatches to string
// concatenation when both operands are tagged string, ahead of the numeric engine.
//
// Shl, Shr, BitAnd, BitOr and BitXor skip the dispatch entirely and always take the integer path.
// Applying one to a float-tagged operand is a well-formedness condition the compiler does not
// check dynamically, so it reads garbage bits rather than trapping.
func (g *generator) genBinOp(fun golllvm.Value, op ir.BinOp, lv, rv golllvm.Value) golllvm.Value {
	switch op {
	case ir.Shl, ir.Shr, ir.BitOr, ir.BitAnd, ir.BitXor:
		return g.genIntOnlyBinOp(op, lv, rv)
	case ir.Add:
		return g.genAdd(fun, lv, rv)
	default:
		return g.genNumericBinOp(fun, op, lv, rv)
	}
}

// genAdd dispatches + at run time between string concatenation (both operands tagged string) and
// the numeric engine (everything else, including a string added to a non-string, which falls
// through to genNumericBinOp's integer path on the string's raw pointer bits — a well-formedness
// condition the compiler does not check dynamically).
func (g *generator) genAdd(fun golllvm.Value, lv, rv golllvm.Value) golllvm.Value {
	i64 := boxedType(g.ctx)
	bothStr := g.builder.CreateAnd(g.tagIs(lv, value.TagString), g.tagIs(rv, value.TagString), "")

	strBB := golllvm.AddBasicBlock(fun, "add.str")
	numBB := golllvm.AddBasicBlock(fun, "add.num")
	mergeBB := golllvm.AddBasicBlock(fun, "add.merge")
	g.builder.CreateCondBr(bothStr, strBB, numBB)

	g.builder.SetInsertPointAtEnd(strBB)
	strResult := g.genStringConcat(lv, rv)
	strEnd := g.builder.GetInsertBlock()
	g.builder.CreateBr(mergeBB)

	g.builder.SetInsertPointAtEnd(numBB)
	numResult := g.genNumericBinOp(fun, ir.Add, lv, rv)
	numEnd := g.builder.GetInsertBlock()
	g.builder.CreateBr(mergeBB)

	g.builder.SetInsertPointAtEnd(mergeBB)
	phi := g.builder.CreatePHI(i64, "")
	phi.AddIncoming([]golllvm.Value{strResult, numResult}, []golllvm.BasicBlock{strEnd, numEnd})
	return phi
}

// tagIs reports whether w is a boxed (non-float) value carrying the given tag.
func (g *generator) tagIs(w golllvm.Value, tag value.Tag) golllvm.Value {
	i64 := boxedType(g.ctx)
	notFloat := g.builder.CreateNot(g.isFloatBit(w), "")
	shifted := g.builder.CreateLShr(w, golllvm.ConstInt(i64, value.TagShift, false), "")
	actual := g.builder.CreateAnd(shifted, golllvm.ConstInt(i64, 0x3, false), "")
	isTag := g.builder.CreateICmp(golllvm.IntEQ, actual, golllvm.ConstInt(i64, uint64(tag), false), "")
	return g.builder.CreateAnd(notFloat, isTag, "")
}

// genStringConcat allocates len(l)+len(r)+1 bytes, copies both operands' bytes in with memcpy,
// NUL-terminates the result, and boxes the new pointer as a string — the "Hello"+" World" case
// the numeric engine cannot handle. The buffer is offered to recordAlloc, but this code always
// runs in genAdd's add.str block rather than main's entry block, so it is never tracked or freed.
func (g *generator) genStringConcat(lv, rv golllvm.Value) golllvm.Value {
	i64 := boxedType(g.ctx)
	i8ptr := golllvm.PointerType(g.ctx.Int8Type(), 0)

	lAddr := g.builder.CreateAnd(lv, golllvm.ConstInt(i64, value.PayloadMask, false), "")
	rAddr := g.builder.CreateAnd(rv, golllvm.ConstInt(i64, value.PayloadMask, false), "")
	lPtr := g.builder.CreateIntToPtr(lAddr, i8ptr, "")
	rPtr := g.builder.CreateIntToPtr(rAddr, i8ptr, "")

	strlenFn := runtime.Strlen(g.mod, g.ctx)
	lLen := g.builder.CreateCall(strlenFn, []golllvm.Value{lPtr}, "")
	rLen := g.builder.CreateCall(strlenFn, []golllvm.Value{rPtr}, "")
	total := g.builder.CreateAdd(lLen, rLen, "")
	size := g.builder.CreateAdd(total, golllvm.ConstInt(i64, 1, false), "")

	mallocFn := runtime.Malloc(g.mod, g.ctx)
	buf := g.builder.CreateCall(mallocFn, []golllvm.Value{size}, "")
	g.recordAlloc(buf)

	memcpyFn := runtime.Memcpy(g.mod, g.ctx)
	g.builder.CreateCall(memcpyFn, []golllvm.Value{buf, lPtr, lLen}, "")
	rDest := g.builder.CreateGEP(buf, []golllvm.Value{lLen}, "")
	g.builder.CreateCall(memcpyFn, []golllvm.Value{rDest, rPtr, rLen}, "")
	nulDest := g.builder.CreateGEP(buf, []golllvm.Value{total}, "")
	g.builder.CreateStore(golllvm.ConstInt(g.ctx.Int8Type(), 0, false), nulDest)

	addr := g.builder.CreatePtrToInt(buf, i64, "")
	masked := g.builder.CreateAnd(addr, golllvm.ConstInt(i64, value.PayloadMask, false), "")
	header := golllvm.ConstInt(i64, value.BoxedHeader(value.TagString), false)
	return g.builder.CreateOr(header, masked, "")
}

// genCmp implements comparisons the same polymorphic way, always producing a boxed Bool.
func (g *generator) genCmp(fun golllvm.Value, op ir.CompareOp, lv, rv golllvm.Value) golllvm.Value {
	i64 := boxedType(g.ctx)
	lIsFloat := g.isFloatBit(lv)
	rIsFloat := g.isFloatBit(rv)
	eitherFloat := g.builder.CreateOr(lIsFloat, rIsFloat, "")

	floatBB := golllvm.AddBasicBlock(fun, "cmp.float")
	intBB := golllvm.AddBasicBlock(fun, "cmp.int")
	mergeBB := golllvm.AddBasicBlock(fun, "cmp.merge")
	g.builder.CreateCondBr(eitherFloat, floatBB, intBB)

	g.builder.SetInsertPointAtEnd(intBB)
	li := g.signExtendPayload(lv)
	ri := g.signExtendPayload(rv)
	intResult := g.builder.CreateICmp(intPredicate(op), li, ri, "")
	intBoxed := g.boxBool(intResult)
	intEnd := g.builder.GetInsertBlock()
	g.builder.CreateBr(mergeBB)

	g.builder.SetInsertPointAtEnd(floatBB)
	lf := g.toDouble(lv, lIsFloat)
	rf := g.toDouble(rv, rIsFloat)
	floatResult := g.builder.CreateFCmp(floatPredicate(op), lf, rf, "")
	floatBoxed := g.boxBool(floatResult)
	floatEnd := g.builder.GetInsertBlock()
	g.builder.CreateBr(mergeBB)

	g.builder.SetInsertPointAtEnd(mergeBB)
	phi := g.builder.CreatePHI(i64, "")
	phi.AddIncoming([]golllvm.Value{intBoxed, floatBoxed}, []golllvm.BasicBlock{intEnd, floatEnd})
	return phi
}

func (g *generator) genIntOnlyBinOp(op ir.BinOp, lv, rv golllvm.Value) golllvm.Value {
	li := g.signExtendPayload(lv)
	ri := g.signExtendPayload(rv)
	var raw golllvm.Value
	switch op {
	case ir.Shl:
		raw = g.builder.CreateShl(li, ri, "")
	case ir.Shr:
		raw = g.builder.CreateAShr(li, ri, "")
	case ir.BitOr:
		raw = g.builder.CreateOr(li, ri, "")
	case ir.BitAnd:
		raw = g.builder.CreateAnd(li, ri, "")
	default: // BitXor
		raw = g.builder.CreateXor(li, ri, "")
	}
	return g.boxInt(raw)
}

func (g *generator) genNumericBinOp(fun golllvm.Value, op ir.BinOp, lv, rv golllvm.Value) golllvm.Value {
	i64 := boxedType(g.ctx)
	lIsFloat := g.isFloatBit(lv)
	rIsFloat := g.isFloatBit(rv)
	eitherFloat := g.builder.CreateOr(lIsFloat, rIsFloat, "")

	floatBB := golllvm.AddBasicBlock(fun, "binop.float")
	intBB := golllvm.AddBasicBlock(fun, "binop.int")
	mergeBB := golllvm.AddBasicBlock(fun, "binop.merge")
	g.builder.CreateCondBr(eitherFloat, floatBB, intBB)

	g.builder.SetInsertPointAtEnd(intBB)
	li := g.signExtendPayload(lv)
	ri := g.signExtendPayload(rv)
	var rawInt golllvm.Value
	switch op {
	case ir.Add:
		rawInt = g.builder.CreateAdd(li, ri, "")
	case ir.Sub:
		rawInt = g.builder.CreateSub(li, ri, "")
	case ir.Mul:
		rawInt = g.builder.CreateMul(li, ri, "")
	case ir.Div:
		rawInt = g.builder.CreateSDiv(li, ri, "")
	default: // Mod
		rawInt = g.builder.CreateSRem(li, ri, "")
	}
	intBoxed := g.boxInt(rawInt)
	intEnd := g.builder.GetInsertBlock()
	g.builder.CreateBr(mergeBB)

	g.builder.SetInsertPointAtEnd(floatBB)
	lf := g.toDouble(lv, lIsFloat)
	rf := g.toDouble(rv, rIsFloat)
	var rawFloat golllvm.Value
	switch op {
	case ir.Add:
		rawFloat = g.builder.CreateFAdd(lf, rf, "")
	case ir.Sub:
		rawFloat = g.builder.CreateFSub(lf, rf, "")
	case ir.Mul:
		rawFloat = g.builder.CreateFMul(lf, rf, "")
	case ir.Div:
		rawFloat = g.builder.CreateFDiv(lf, rf, "")
	default: // Mod
		rawFloat = g.builder.CreateFRem(lf, rf, "")
	}
	floatBoxed := g.builder.CreateBitCast(rawFloat, i64, "")
	floatEnd := g.builder.GetInsertBlock()
	g.builder.CreateBr(mergeBB)

	g.builder.SetInsertPointAtEnd(mergeBB)
	phi := g.builder.CreatePHI(i64, "")
	phi.AddIncoming([]golllvm.Value{intBoxed, floatBoxed}, []golllvm.BasicBlock{intEnd, floatEnd})
	return phi
}

// isFloatBit computes value.IsFloat(w) as an i1: w&BoxMask != BoxMask.
func (g *generator) isFloatBit(w golllvm.Value) golllvm.Value {
	i64 := boxedType(g.ctx)
	mask := golllvm.ConstInt(i64, value.BoxMask, false)
	masked := g.builder.CreateAnd(w, mask, "")
	return g.builder.CreateICmp(golllvm.IntNE, masked, mask, "")
}

// signExtendPayload extracts the low 48 bits of w and sign-extends them to a full i64, the same
// arithmetic value.PayloadInt computes in Go.
func (g *generator) signExtendPayload(w golllvm.Value) golllvm.Value {
	i64 := boxedType(g.ctx)
	shift := golllvm.ConstInt(i64, 16, false)
	shifted := g.builder.CreateShl(w, shift, "")
	return g.builder.CreateAShr(shifted, shift, "")
}

// toDouble produces a float64 bit-pattern value for w, bitcasting directly if isFloat is true at
// compile time... it isn't: isFloat is a runtime i1, so this emits a select between a bitcast
// (w is already a double) and a signed-int-to-float conversion of the sign-extended payload.
func (g *generator) toDouble(w, isFloat golllvm.Value) golllvm.Value {
	f64 := g.ctx.DoubleType()
	asDouble := g.builder.CreateBitCast(w, f64, "")
	asInt := g.signExtendPayload(w)
	converted := g.builder.CreateSIToFP(asInt, f64, "")
	return g.builder.CreateSelect(isFloat, asDouble, converted, "")
}

func (g *generator) boxInt(raw golllvm.Value) golllvm.Value {
	i64 := boxedType(g.ctx)
	header := golllvm.ConstInt(i64, value.BoxedHeader(value.TagInt), false)
	mask := golllvm.ConstInt(i64, value.PayloadMask, false)
	payload := g.builder.CreateAnd(raw, mask, "")
	return g.builder.CreateOr(header, payload, "")
}

func (g *generator) boxBool(cond golllvm.Value) golllvm.Value {
	i64 := boxedType(g.ctx)
	header := golllvm.ConstInt(i64, value.BoxedHeader(value.TagBool), false)
	ext := g.builder.CreateZExt(cond, i64, "")
	return g.builder.CreateOr(header, ext, "")
}

func intPredicate(op ir.CompareOp) golllvm.IntPredicate {
	switch op {
	case ir.Eq:
		return golllvm.IntEQ
	case ir.Ne:
		return golllvm.IntNE
	case ir.Lt:
		return golllvm.IntSLT
	case ir.Le:
		return golllvm.IntSLE
	case ir.Gt:
		return golllvm.IntSGT
	default: // Ge
		return golllvm.IntSGE
	}
}

func floatPredicate(op ir.CompareOp) golllvm.FloatPredicate {
	switch op {
	case ir.Eq:
		return golllvm.FloatOEQ
	case ir.Ne:
		return golllvm.FloatONE
	case ir.Lt:
		return golllvm.FloatOLT
	case ir.Le:
		return golllvm.FloatOLE
	case ir.Gt:
		return golllvm.FloatOGT
	default: // Ge
		return golllvm.FloatOGE
	}
}
