// Package llvm lowers an internal/ir.Program into an LLVM module via tinygo.org/x/go-llvm. Every
// value in the generated IR is the uniform i64 NaN-boxed word internal/value defines; there is
// exactly one LLVM type in play (boxedType), which is what lets a single polymorphic
// binary-operator engine (binop.go) stand in for what would otherwise be a family of typed
// arithmetic instructions.
package llvm

import (
	"github.com/samber/lo"
	golllvm "tinygo.org/x/go-llvm"

	"github.com/Samrhan/rusthonc/internal/ir"
	"github.com/Samrhan/rusthonc/internal/runtime"
	"github.com/Samrhan/rusthonc/internal/util"
	"github.com/Samrhan/rusthonc/internal/value"
)

// boxedType is the single LLVM type every rusthonc value occupies: a 64-bit integer holding
// either a NaN-boxed word or the raw bits of an IEEE-754 double.
func boxedType(ctx golllvm.Context) golllvm.Type { return ctx.Int64Type() }

// generator carries the module-wide state threaded through every codegen call: the context,
// module and instruction builder, plus the function-declaration table and main's heap arena.
type generator struct {
	ctx     golllvm.Context
	mod     golllvm.Module
	builder golllvm.Builder

	funcs map[string]golllvm.Value
	defs  map[string]*ir.FunctionDef

	inMain     bool
	mainEntry  golllvm.BasicBlock
	curEntry   golllvm.BasicBlock // Entry block of the function currently being generated; declare's hoist target.
	mainFn     golllvm.Value
	arena      []golllvm.Value // i8* heap pointers allocated in main's entry block only.
	stringPool int             // Counter for global string constant names.
}

// GenModule lowers an entire program into one LLVM module named name. Every function is declared
// before any is defined, so mutually recursive functions can reference each other, and the
// program's top-level statements become the body of the implicit C-ABI main the linked
// executable actually starts at.
func GenModule(prog *ir.Program, name string) (golllvm.Context, golllvm.Module, error) {
	ctx := golllvm.NewContext()
	mod := ctx.NewModule(name)
	b := ctx.NewBuilder()
	defer b.Dispose()

	g := &generator{
		ctx:     ctx,
		mod:     mod,
		builder: b,
		funcs:   make(map[string]golllvm.Value, len(prog.Functions)+1),
		defs:    make(map[string]*ir.FunctionDef, len(prog.Functions)),
	}

	for _, fn := range prog.Functions {
		if err := g.declareFunc(fn); err != nil {
			return ctx, mod, err
		}
		g.defs[fn.Name] = fn
	}

	mainTyp := golllvm.FunctionType(ctx.Int32Type(), nil, false)
	mainFn := golllvm.AddFunction(mod, "main", mainTyp)
	g.funcs["main"] = mainFn
	g.mainFn = mainFn

	for _, fn := range prog.Functions {
		if err := g.defineFunc(fn); err != nil {
			return ctx, mod, err
		}
	}
	if err := g.defineMain(prog.Top); err != nil {
		return ctx, mod, err
	}
	return ctx, mod, nil
}

func (g *generator) declareFunc(fn *ir.FunctionDef) error {
	for _, reserved := range runtime.ReservedNames {
		if fn.Name == reserved {
			return ir.Errorf(fn.Pos, "function %q is a reserved name", fn.Name)
		}
	}
	if _, exists := g.funcs[fn.Name]; exists {
		return ir.Errorf(fn.Pos, "duplicate function %q", fn.Name)
	}
	params := make([]golllvm.Type, len(fn.Params))
	for i := range fn.Params {
		params[i] = boxedType(g.ctx)
	}
	ftyp := golllvm.FunctionType(boxedType(g.ctx), params, false)
	llfn := golllvm.AddFunction(g.mod, fn.Name, ftyp)
	for i, p := range llfn.Params() {
		p.SetName(fn.Params[i].Name)
	}
	g.funcs[fn.Name] = llfn
	return nil
}

func (g *generator) defineFunc(fn *ir.FunctionDef) error {
	llfn := g.funcs[fn.Name]
	entry := golllvm.AddBasicBlock(llfn, "entry")
	g.builder.SetInsertPointAtEnd(entry)
	g.curEntry = entry

	st := util.Stack{}
	scope := newSymTab()
	for i, p := range llfn.Params() {
		slot := g.builder.CreateAlloca(boxedType(g.ctx), fn.Params[i].Name)
		g.builder.CreateStore(p, slot)
		scope.m[fn.Params[i].Name] = slot
	}
	st.Push(scope)
	ls := util.Stack{}

	prevInMain := g.inMain
	g.inMain = false
	defer func() { g.inMain = prevInMain }()

	ret, err := g.genStmts(fn.Body, llfn, &st, &ls)
	if err != nil {
		return err
	}
	if !ret {
		g.builder.CreateRet(golllvm.ConstInt(boxedType(g.ctx), value.BoxInt(0), false))
	}
	return nil
}

func (g *generator) defineMain(top []ir.Stmt) error {
	entry := golllvm.AddBasicBlock(g.mainFn, "entry")
	g.builder.SetInsertPointAtEnd(entry)
	g.mainEntry = entry
	g.curEntry = entry
	g.inMain = true
	g.arena = nil

	st := util.Stack{}
	st.Push(newSymTab())
	ls := util.Stack{}

	ret, err := g.genStmts(top, g.mainFn, &st, &ls)
	if err != nil {
		return err
	}
	if !ret {
		g.freeArena()
		g.builder.CreateRet(golllvm.ConstInt(g.ctx.Int32Type(), 0, false))
	}
	return nil
}

// freeArena releases every heap pointer recorded from main's entry block, in LIFO order, just
// ahead of one of main's returns. It is a no-op the first time a return is reached inside a
// nested block that never executed any entry-block allocation.
func (g *generator) freeArena() {
	if len(g.arena) == 0 {
		return
	}
	free := runtime.Free(g.mod, g.ctx)
	for _, ptr := range lo.Reverse(append([]golllvm.Value{}, g.arena...)) {
		g.builder.CreateCall(free, []golllvm.Value{ptr}, "")
	}
}

// recordAlloc adds ptr to main's arena if, and only if, the builder's current insertion point is
// literally main's entry block — the one block guaranteed to run on every path through main, so
// anything allocated there can be unconditionally freed at any of main's return points. An
// allocation made inside an if/while body inside main is not tracked and is not freed; this is
// an accepted trade-off rather than a bug, since the process exits shortly after and the OS
// reclaims the memory.
func (g *generator) recordAlloc(ptr golllvm.Value) {
	if g.inMain && g.builder.GetInsertBlock() == g.mainEntry {
		g.arena = append(g.arena, ptr)
	}
}
