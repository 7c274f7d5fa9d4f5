// Package optimize runs the mid-level optimization pipeline and module verifier: a standard
// -O2-equivalent legacy pass pipeline built from tinygo.org/x/go-llvm's PassManagerBuilder,
// bracketed by verification before and after.
package optimize

import (
	"fmt"

	golllvm "tinygo.org/x/go-llvm"
)

// Level selects how aggressively the pass pipeline optimizes, mirroring clang's -O0..-O3.
type Level int

const (
	O0 Level = iota
	O1
	O2
	O3
)

// Run verifies mod, optimizes it in place at the given level, and verifies it again, returning
// the first verifier failure encountered (pre- or post-pass). A module that fails the first
// verification is never handed to the pass pipeline, since a malformed module can make arbitrary
// passes misbehave.
func Run(mod golllvm.Module, level Level) error {
	if err := Verify(mod); err != nil {
		return fmt.Errorf("module failed verification before optimization: %w", err)
	}

	pm := golllvm.NewPassManager()
	defer pm.Dispose()

	pmb := golllvm.NewPassManagerBuilder()
	defer pmb.Dispose()
	pmb.SetOptLevel(int(level))
	pmb.Populate(pm)

	pm.RunPassManager(mod)

	if err := Verify(mod); err != nil {
		return fmt.Errorf("module failed verification after optimization: %w", err)
	}
	return nil
}

// Verify runs LLVM's module verifier, returning a descriptive error instead of aborting the
// process (the default action taken when the verifier is run via llvm.AbortProcessAction).
func Verify(mod golllvm.Module) error {
	return golllvm.VerifyModule(mod, golllvm.ReturnStatusAction)
}

// TargetMachine configures a target machine for the host's default triple. There is no
// multi-architecture or cross-OS target selection: exactly one triple construction path exists.
func TargetMachine() (golllvm.TargetMachine, error) {
	golllvm.InitializeNativeTarget()
	golllvm.InitializeNativeAsmPrinter()

	triple := golllvm.DefaultTargetTriple()
	target, err := golllvm.GetTargetFromTriple(triple)
	if err != nil {
		return golllvm.TargetMachine{}, fmt.Errorf("resolving host target triple %q: %w", triple, err)
	}
	tm := target.CreateTargetMachine(triple, "generic", "",
		golllvm.CodeGenLevelDefault,
		golllvm.RelocDefault,
		golllvm.CodeModelDefault)
	return tm, nil
}

// EmitObject runs mod through tm to produce a relocatable object file's bytes, ready to hand to
// the external linker (cmd/rusthonc invokes the linker; this package only ever produces bytes).
func EmitObject(tm golllvm.TargetMachine, mod golllvm.Module) ([]byte, error) {
	buf, err := tm.EmitToMemoryBuffer(mod, golllvm.ObjectFile)
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
