package llvm

import (
	"fmt"

	golllvm "tinygo.org/x/go-llvm"

	"github.com/Samrhan/rusthonc/internal/ir"
	"github.com/Samrhan/rusthonc/internal/runtime"
	"github.com/Samrhan/rusthonc/internal/util"
	"github.com/Samrhan/rusthonc/internal/value"
)

// genStmts lowers a statement block, returning true iff every path through the block ends in a
// terminator (Return, Break or Continue) — the caller uses this to decide whether it still needs
// to supply its own fallthrough terminator (e.g. defineFunc's implicit "return 0").
func (g *generator) genStmts(stmts []ir.Stmt, fun golllvm.Value, st, ls *util.Stack) (bool, error) {
	for _, s := range stmts {
		terminated, err := g.genStmt(s, fun, st, ls)
		if err != nil {
			return false, err
		}
		if terminated {
			return true, nil
		}
	}
	return false, nil
}

func (g *generator) genStmt(s ir.Stmt, fun golllvm.Value, st, ls *util.Stack) (bool, error) {
	switch n := s.(type) {
	case ir.Assign:
		v, err := g.genExpr(fun, n.Value, st)
		if err != nil {
			return false, err
		}
		g.store(st, n.Name, v)
		return false, nil

	case ir.Return:
		v, err := g.genExpr(fun, n.Value, st)
		if err != nil {
			return false, err
		}
		if g.inMain {
			g.freeArena()
			code := g.builder.CreateTrunc(g.signExtendPayload(v), g.ctx.Int32Type(), "")
			g.builder.CreateRet(code)
		} else {
			g.builder.CreateRet(v)
		}
		return true, nil

	case ir.Print:
		if err := g.genPrint(fun, n, st); err != nil {
			return false, err
		}
		return false, nil

	case ir.If:
		return g.genIf(fun, n, st, ls)

	case ir.While:
		return g.genWhile(fun, n, st, ls)

	case ir.Break:
		top, ok := ls.Peek().(*loopLabels)
		if !ok {
			return false, ir.Errorf(n.Pos, "break outside a loop")
		}
		g.builder.CreateBr(top.exit)
		return true, nil

	case ir.Continue:
		top, ok := ls.Peek().(*loopLabels)
		if !ok {
			return false, ir.Errorf(n.Pos, "continue outside a loop")
		}
		g.builder.CreateBr(top.cond)
		return true, nil
	}
	return false, fmt.Errorf("codegen: unhandled statement %T", s)
}

// genIf emits the then/else blocks, nested elif chains having already been desugared by
// internal/lowering into n.Else holding a single further ir.If. The block is only reported
// terminated when both arms are (an absent else is treated as a fallthrough no-op arm). Both
// arms share the function's one flat symbol table — no scope is pushed here — so a variable
// assigned for the first time in only one arm is still visible after the merge block.
func (g *generator) genIf(fun golllvm.Value, n ir.If, st, ls *util.Stack) (bool, error) {
	cond, err := g.genExpr(fun, n.Cond, st)
	if err != nil {
		return false, err
	}
	truth := g.genTruth(cond)

	thenBB := golllvm.AddBasicBlock(fun, "if.then")
	mergeBB := golllvm.AddBasicBlock(fun, "if.end")

	if n.Else == nil {
		g.builder.CreateCondBr(truth, thenBB, mergeBB)
		g.builder.SetInsertPointAtEnd(thenBB)
		thenTerm, err := g.genStmts(n.Then, fun, st, ls)
		if err != nil {
			return false, err
		}
		if !thenTerm {
			g.builder.CreateBr(mergeBB)
		}
		g.builder.SetInsertPointAtEnd(mergeBB)
		return false, nil
	}

	elseBB := golllvm.AddBasicBlock(fun, "if.else")
	g.builder.CreateCondBr(truth, thenBB, elseBB)

	g.builder.SetInsertPointAtEnd(thenBB)
	thenTerm, err := g.genStmts(n.Then, fun, st, ls)
	if err != nil {
		return false, err
	}
	if !thenTerm {
		g.builder.CreateBr(mergeBB)
	}

	g.builder.SetInsertPointAtEnd(elseBB)
	elseTerm, err := g.genStmts(n.Else, fun, st, ls)
	if err != nil {
		return false, err
	}
	if !elseTerm {
		g.builder.CreateBr(mergeBB)
	}

	g.builder.SetInsertPointAtEnd(mergeBB)
	if thenTerm && elseTerm {
		g.builder.CreateUnreachable()
	}
	return thenTerm && elseTerm, nil
}

// genWhile keeps the condition in its own block so continue can branch straight back to the
// re-check rather than to the loop body's first instruction. The body shares the function's one
// flat symbol table; a variable first assigned inside the loop is declared once (its alloca
// hoisted to the entry block by declare) rather than re-declared on every iteration.
func (g *generator) genWhile(fun golllvm.Value, n ir.While, st, ls *util.Stack) (bool, error) {
	condBB := golllvm.AddBasicBlock(fun, "while.cond")
	bodyBB := golllvm.AddBasicBlock(fun, "while.body")
	exitBB := golllvm.AddBasicBlock(fun, "while.exit")

	g.builder.CreateBr(condBB)
	g.builder.SetInsertPointAtEnd(condBB)
	cond, err := g.genExpr(fun, n.Cond, st)
	if err != nil {
		return false, err
	}
	truth := g.genTruth(cond)
	g.builder.CreateCondBr(truth, bodyBB, exitBB)

	g.builder.SetInsertPointAtEnd(bodyBB)
	ls.Push(&loopLabels{cond: condBB, exit: exitBB})
	bodyTerm, err := g.genStmts(n.Body, fun, st, ls)
	ls.Pop()
	if err != nil {
		return false, err
	}
	if !bodyTerm {
		g.builder.CreateBr(condBB)
	}

	g.builder.SetInsertPointAtEnd(exitBB)
	return false, nil
}

// genPrint prints its arguments space-separated with a trailing newline; every argument's format
// specifier is chosen at run time rather than read off a static type (see genPrintValue).
func (g *generator) genPrint(fun golllvm.Value, n ir.Print, st *util.Stack) error {
	space := g.globalCString(" ")
	newline := g.globalCString("\n")
	printfFn := runtime.Printf(g.mod, g.ctx)
	for i, a := range n.Args {
		v, err := g.genExpr(fun, a, st)
		if err != nil {
			return err
		}
		g.genPrintValue(fun, v)
		if i < len(n.Args)-1 {
			g.builder.CreateCall(printfFn, []golllvm.Value{space}, "")
		}
	}
	g.builder.CreateCall(printfFn, []golllvm.Value{newline}, "")
	return nil
}

// genPrintValue prints v by calling the module's "rh.print" helper, a void function of one boxed
// word whose body emitPrintValue builds the first time any value is printed. Because the
// dispatcher lives in its own function, a list's elements recurse into it at run time.
func (g *generator) genPrintValue(fun golllvm.Value, v golllvm.Value) {
	helper := g.mod.NamedFunction("rh.print")
	if helper.IsNil() {
		cur := g.builder.GetInsertBlock()
		ftyp := golllvm.FunctionType(g.ctx.VoidType(), []golllvm.Type{boxedType(g.ctx)}, false)
		helper = golllvm.AddFunction(g.mod, "rh.print", ftyp)
		g.builder.SetInsertPointAtEnd(golllvm.AddBasicBlock(helper, "entry"))
		g.emitPrintValue(helper, helper.Param(0))
		g.builder.CreateRetVoid()
		g.builder.SetInsertPointAtEnd(cur)
	}
	g.builder.CreateCall(helper, []golllvm.Value{v}, "")
}

// emitPrintValue dispatches at run time on v's tag (the print dispatcher has no static type to
// read; see the external tag vocabulary ExtInt/ExtFloat/ExtBool/ExtString/ExtList in
// internal/value) and calls printf with the matching format string. A list prints as
// "[e0, e1, ...]": a runtime loop over its elements, each handed to genPrintValue, which calls
// back into this same dispatcher, so a list of strings or a list of lists prints exactly as its
// elements would on their own.
func (g *generator) emitPrintValue(fun golllvm.Value, v golllvm.Value) {
	i64 := boxedType(g.ctx)
	printfFn := runtime.Printf(g.mod, g.ctx)

	floatBB := golllvm.AddBasicBlock(fun, "print.float")
	notFloatBB := golllvm.AddBasicBlock(fun, "print.notfloat")
	doneBB := golllvm.AddBasicBlock(fun, "print.done")

	isFloat := g.isFloatBit(v)
	g.builder.CreateCondBr(isFloat, floatBB, notFloatBB)

	g.builder.SetInsertPointAtEnd(floatBB)
	d := g.builder.CreateBitCast(v, g.ctx.DoubleType(), "")
	fmtFloat := g.globalCString("%g")
	g.builder.CreateCall(printfFn, []golllvm.Value{fmtFloat, d}, "")
	g.builder.CreateBr(doneBB)

	g.builder.SetInsertPointAtEnd(notFloatBB)
	shifted := g.builder.CreateLShr(v, golllvm.ConstInt(i64, value.TagShift, false), "")
	tag := g.builder.CreateAnd(shifted, golllvm.ConstInt(i64, 0x3, false), "")

	intBB := golllvm.AddBasicBlock(fun, "print.int")
	notIntBB := golllvm.AddBasicBlock(fun, "print.notint")
	isInt := g.builder.CreateICmp(golllvm.IntEQ, tag, golllvm.ConstInt(i64, uint64(value.TagInt), false), "")
	g.builder.CreateCondBr(isInt, intBB, notIntBB)

	g.builder.SetInsertPointAtEnd(intBB)
	raw := g.signExtendPayload(v)
	fmtInt := g.globalCString("%lld")
	g.builder.CreateCall(printfFn, []golllvm.Value{fmtInt, raw}, "")
	g.builder.CreateBr(doneBB)

	g.builder.SetInsertPointAtEnd(notIntBB)
	boolBB := golllvm.AddBasicBlock(fun, "print.bool")
	notBoolBB := golllvm.AddBasicBlock(fun, "print.notbool")
	isBool := g.builder.CreateICmp(golllvm.IntEQ, tag, golllvm.ConstInt(i64, uint64(value.TagBool), false), "")
	g.builder.CreateCondBr(isBool, boolBB, notBoolBB)

	g.builder.SetInsertPointAtEnd(boolBB)
	payload := g.builder.CreateAnd(v, golllvm.ConstInt(i64, value.PayloadMask, false), "")
	isTrue := g.builder.CreateICmp(golllvm.IntNE, payload, golllvm.ConstInt(i64, 0, false), "")
	truePtr := g.globalCString("true")
	falsePtr := g.globalCString("false")
	boolPtr := g.builder.CreateSelect(isTrue, truePtr, falsePtr, "")
	fmtStr := g.globalCString("%s")
	g.builder.CreateCall(printfFn, []golllvm.Value{fmtStr, boolPtr}, "")
	g.builder.CreateBr(doneBB)

	g.builder.SetInsertPointAtEnd(notBoolBB)
	strBB := golllvm.AddBasicBlock(fun, "print.str")
	listBB := golllvm.AddBasicBlock(fun, "print.list")
	isStr := g.builder.CreateICmp(golllvm.IntEQ, tag, golllvm.ConstInt(i64, uint64(value.TagString), false), "")
	addr := g.builder.CreateAnd(v, golllvm.ConstInt(i64, value.PayloadMask, false), "")
	g.builder.CreateCondBr(isStr, strBB, listBB)

	g.builder.SetInsertPointAtEnd(strBB)
	strPtr := g.builder.CreateIntToPtr(addr, golllvm.PointerType(g.ctx.Int8Type(), 0), "")
	g.builder.CreateCall(printfFn, []golllvm.Value{fmtStr, strPtr}, "")
	g.builder.CreateBr(doneBB)

	g.builder.SetInsertPointAtEnd(listBB)
	listPtr := g.builder.CreateIntToPtr(addr, golllvm.PointerType(i64, 0), "")
	length := g.builder.CreateLoad(listPtr, "")
	openBracket := g.globalCString("[")
	closeBracket := g.globalCString("]")
	comma := g.globalCString(", ")
	g.builder.CreateCall(printfFn, []golllvm.Value{fmtStr, openBracket}, "")

	idxSlot := g.builder.CreateAlloca(i64, "")
	g.builder.CreateStore(golllvm.ConstInt(i64, 0, false), idxSlot)

	loopCondBB := golllvm.AddBasicBlock(fun, "print.list.cond")
	loopBodyBB := golllvm.AddBasicBlock(fun, "print.list.body")
	loopExitBB := golllvm.AddBasicBlock(fun, "print.list.exit")
	g.builder.CreateBr(loopCondBB)

	g.builder.SetInsertPointAtEnd(loopCondBB)
	idx := g.builder.CreateLoad(idxSlot, "")
	inBounds := g.builder.CreateICmp(golllvm.IntSLT, idx, length, "")
	g.builder.CreateCondBr(inBounds, loopBodyBB, loopExitBB)

	g.builder.SetInsertPointAtEnd(loopBodyBB)
	isFirst := g.builder.CreateICmp(golllvm.IntEQ, idx, golllvm.ConstInt(i64, 0, false), "")
	sepBB := golllvm.AddBasicBlock(fun, "print.list.sep")
	elemBB := golllvm.AddBasicBlock(fun, "print.list.elem")
	g.builder.CreateCondBr(isFirst, elemBB, sepBB)

	g.builder.SetInsertPointAtEnd(sepBB)
	g.builder.CreateCall(printfFn, []golllvm.Value{fmtStr, comma}, "")
	g.builder.CreateBr(elemBB)

	g.builder.SetInsertPointAtEnd(elemBB)
	elemSlot := g.builder.CreateGEP(listPtr, []golllvm.Value{g.builder.CreateAdd(idx, golllvm.ConstInt(i64, 1, false), "")}, "")
	elem := g.builder.CreateLoad(elemSlot, "")
	g.genPrintValue(fun, elem)
	g.builder.CreateStore(g.builder.CreateAdd(idx, golllvm.ConstInt(i64, 1, false), ""), idxSlot)
	g.builder.CreateBr(loopCondBB)

	g.builder.SetInsertPointAtEnd(loopExitBB)
	g.builder.CreateCall(printfFn, []golllvm.Value{fmtStr, closeBracket}, "")
	g.builder.CreateBr(doneBB)

	g.builder.SetInsertPointAtEnd(doneBB)
}

// globalCString emits a constant C string global and returns its i8* address, used for format
// strings and the fixed "true"/"false" literals, never registered in main's heap arena since it
// is static storage, not malloc'd.
func (g *generator) globalCString(s string) golllvm.Value {
	g.stringPool++
	return g.builder.CreateGlobalStringPtr(s, fmt.Sprintf("L_C%d", g.stringPool))
}
