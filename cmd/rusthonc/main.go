// Command rusthonc is the ahead-of-time compiler's entry point: parse, lower, generate LLVM IR,
// optimize, verify, write the textual IR, then shell out to a C toolchain to assemble and link a
// native executable. Flags are parsed with github.com/spf13/cobra.
package main

import (
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/alecthomas/participle/v2"
	"github.com/spf13/cobra"

	"github.com/Samrhan/rusthonc/internal/codegen/llvm"
	"github.com/Samrhan/rusthonc/internal/diagnostic"
	"github.com/Samrhan/rusthonc/internal/frontend"
	"github.com/Samrhan/rusthonc/internal/ir"
	"github.com/Samrhan/rusthonc/internal/lowering"
	"github.com/Samrhan/rusthonc/internal/optimize"
	"github.com/Samrhan/rusthonc/internal/util"
)

var opt util.Options

var command = &cobra.Command{
	Use:   "rusthonc source.rh",
	Short: "Ahead-of-time compiler targeting native executables via LLVM",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		opt.Src = args[0]
		return run(opt)
	},
}

func init() {
	command.Flags().StringVarP(&opt.Out, "output", "o", "", "path to the output executable (defaults next to the source file)")
	command.Flags().BoolVar(&opt.EmitLLVM, "emit-llvm", false, "stop after writing the textual LLVM IR file")
	command.Flags().BoolVarP(&opt.Verbose, "verbose", "v", false, "dump unoptimized and optimized module text to stderr")
	command.Flags().IntVarP(&opt.OptLevel, "optimize", "O", 2, "optimization level 0-3")
	command.Flags().StringVar(&opt.CC, "cc", "", "C toolchain driver used to assemble and link the emitted .ll file (defaults to $RUSTHONC_CC or \"cc\")")
}

func main() {
	if err := command.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(opt util.Options) error {
	if opt.CC == "" {
		opt.CC = util.DefaultCC()
	}

	srcBytes, err := os.ReadFile(opt.Src)
	if err != nil {
		return fmt.Errorf("reading source: %w", err)
	}
	src := string(srcBytes)

	prog, err := frontend.Parse(opt.Src, src)
	if err != nil {
		diagnostic.Render(os.Stderr, diagnosticFromErr(diagnostic.Syntax, err, src))
		return fmt.Errorf("parse failed")
	}

	irProg, err := lowering.Lower(prog)
	if err != nil {
		diagnostic.Render(os.Stderr, diagnosticFromErr(diagnostic.Unsupported, err, src))
		return fmt.Errorf("lowering failed")
	}

	moduleName := strings.TrimSuffix(filepath.Base(opt.Src), filepath.Ext(opt.Src))
	ctx, mod, err := llvm.GenModule(irProg, moduleName)
	if err != nil {
		diagnostic.Render(os.Stderr, diagnosticFromErr(diagnostic.Semantic, err, src))
		return fmt.Errorf("code generation failed")
	}
	defer ctx.Dispose()
	defer mod.Dispose()

	if opt.Verbose {
		fmt.Fprintln(os.Stderr, "unoptimized LLVM IR:")
		fmt.Fprintln(os.Stderr, mod.String())
	}

	if err := optimize.Run(mod, optimize.Level(opt.OptLevel)); err != nil {
		return fmt.Errorf("optimization/verification: %w", err)
	}

	if opt.Verbose {
		fmt.Fprintln(os.Stderr, "optimized LLVM IR:")
		fmt.Fprintln(os.Stderr, mod.String())
	}

	out := opt.Out
	if out == "" {
		out = strings.TrimSuffix(opt.Src, filepath.Ext(opt.Src))
	}
	llPath := out + ".ll"
	if err := os.WriteFile(llPath, []byte(mod.String()), 0644); err != nil {
		return fmt.Errorf("writing %s: %w", llPath, err)
	}

	if opt.EmitLLVM {
		return nil
	}
	defer os.Remove(llPath)

	if err := link(opt.CC, llPath, out); err != nil {
		return fmt.Errorf("linking %s: %w", out, err)
	}
	return nil
}

// diagnosticFromErr builds a diagnostic.Diagnostic from err, recovering real Line/Col when err
// carries them: a participle.Error from frontend.Parse (syntax errors), or an *ir.PosError from
// lowering.Lower or llvm.GenModule (every position-aware error either raises). An err of neither
// kind renders with Line/Col left at zero, same as diagnostic.Render has always handled.
func diagnosticFromErr(kind diagnostic.Kind, err error, src string) diagnostic.Diagnostic {
	d := diagnostic.Diagnostic{Kind: kind, Message: err.Error(), Source: src}

	var perr participle.Error
	if errors.As(err, &perr) {
		pos := perr.Position()
		d.Line, d.Col = pos.Line, pos.Column
		d.Message = perr.Message()
		return d
	}

	var posErr *ir.PosError
	if errors.As(err, &posErr) {
		d.Line, d.Col = posErr.Pos.Line, posErr.Pos.Col
		d.Message = posErr.Message
	}
	return d
}

// link invokes the configured C toolchain driver to assemble and link the textual IR straight
// into a native executable, clang (and GCC's LLVM-aware "lto" front ends) both accepting .ll
// input directly. Grounded on the pack's runCommand helper (ajroetker-goat/main.go), which
// likewise shells a C toolchain driver and folds its combined output into the returned error.
func link(cc, llPath, out string) error {
	cmd := exec.Command(cc, llPath, "-o", out)
	output, err := cmd.CombinedOutput()
	if err != nil {
		if len(output) > 0 {
			return fmt.Errorf("%s", output)
		}
		return err
	}
	return nil
}
