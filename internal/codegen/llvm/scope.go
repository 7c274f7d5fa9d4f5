package llvm

import (
	"fmt"

	golllvm "tinygo.org/x/go-llvm"

	"github.com/Samrhan/rusthonc/internal/util"
)

// symTab maps a variable name to the stack slot (alloca) holding its current boxed value. There
// is no dynamic scope: one flat symTab backs an entire function (or main), pushed once when the
// function starts and never pushed again for an if/while body, so a variable's first assignment
// inside one branch of a conditional is visible to every block reachable from the function's
// entry — exactly the flat "identifier to stack slot" environment the language's locals model
// calls for. It carries no mutex: compilation here is single-threaded.
type symTab struct {
	m map[string]golllvm.Value
}

func newSymTab() *symTab { return &symTab{m: make(map[string]golllvm.Value, 8)} }

// loopLabels is what a loop pushes onto the label stack so break/continue know where to branch:
// cond is the loop's condition-recheck block (continue's target) and exit is the block following
// the loop (break's target).
type loopLabels struct {
	cond golllvm.BasicBlock
	exit golllvm.BasicBlock
}

// declare allocates a fresh stack slot for name in the current function's entry block — not at
// the current insertion point — so the slot dominates every block in the function regardless of
// which branch of an if/while first assigns the name, and records it in st's (only) scope. The
// builder's insertion point is saved and restored around the hoisted alloca.
func (g *generator) declare(st *util.Stack, name string) golllvm.Value {
	cur := g.builder.GetInsertBlock()
	if first := g.curEntry.FirstInstruction(); !first.IsNil() {
		g.builder.SetInsertPointBefore(first)
	} else {
		g.builder.SetInsertPointAtEnd(g.curEntry)
	}
	alloca := g.builder.CreateAlloca(boxedType(g.ctx), name)
	g.builder.SetInsertPointAtEnd(cur)

	tab, _ := st.Peek().(*symTab)
	tab.m[name] = alloca
	return alloca
}

// lookup finds the stack slot for name in the function's flat scope.
func (g *generator) lookup(st *util.Stack, name string) (golllvm.Value, bool) {
	tab, ok := st.Peek().(*symTab)
	if !ok {
		return golllvm.Value{}, false
	}
	v, ok := tab.m[name]
	return v, ok
}

// store writes val into name's slot, declaring the slot in the current (innermost) scope if this
// is the first assignment to name anywhere in the function.
func (g *generator) store(st *util.Stack, name string, val golllvm.Value) {
	slot, ok := g.lookup(st, name)
	if !ok {
		slot = g.declare(st, name)
	}
	g.builder.CreateStore(val, slot)
}

// load reads name's current value, erroring if it was never assigned: reading an unassigned
// identifier is a compile-time error rather than an implicit default.
func (g *generator) load(st *util.Stack, name string) (golllvm.Value, error) {
	slot, ok := g.lookup(st, name)
	if !ok {
		return golllvm.Value{}, fmt.Errorf("undeclared variable %q", name)
	}
	return g.builder.CreateLoad(slot, ""), nil
}
