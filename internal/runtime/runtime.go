// Package runtime declares the external C ABI surface the compiled program links against: the
// system libc's printf/scanf for I/O, malloc/free for the heap backing strings and lists, and
// memcpy for building a new string's buffer out of two existing ones.
// Each declaring function here is idempotent — it returns the existing module-level declaration if one
// was already added, by looking up a NamedFunction before declaring a fresh one.
package runtime

import "tinygo.org/x/go-llvm"

// Printf is the libc variadic formatted-print entry point, used to implement print().
func Printf(m llvm.Module, ctx llvm.Context) llvm.Value {
	if fn := m.NamedFunction("printf"); !fn.IsNil() {
		return fn
	}
	i8ptr := llvm.PointerType(ctx.Int8Type(), 0)
	ftyp := llvm.FunctionType(ctx.Int32Type(), []llvm.Type{i8ptr}, true)
	return llvm.AddFunction(m, "printf", ftyp)
}

// Scanf is the libc formatted-scan entry point, used to implement input(): the runtime calls
// scanf("%lf", &slot) to read one double from standard input.
func Scanf(m llvm.Module, ctx llvm.Context) llvm.Value {
	if fn := m.NamedFunction("scanf"); !fn.IsNil() {
		return fn
	}
	i8ptr := llvm.PointerType(ctx.Int8Type(), 0)
	ftyp := llvm.FunctionType(ctx.Int32Type(), []llvm.Type{i8ptr}, true)
	return llvm.AddFunction(m, "scanf", ftyp)
}

// Malloc is the libc heap allocator backing every string and list value. Lists and strings are
// allocated once, at the point they are constructed, and never resized: the language has no
// mutation operator for either.
func Malloc(m llvm.Module, ctx llvm.Context) llvm.Value {
	if fn := m.NamedFunction("malloc"); !fn.IsNil() {
		return fn
	}
	i8ptr := llvm.PointerType(ctx.Int8Type(), 0)
	ftyp := llvm.FunctionType(i8ptr, []llvm.Type{ctx.Int64Type()}, false)
	return llvm.AddFunction(m, "malloc", ftyp)
}

// Free releases one heap allocation made by Malloc. The arena discipline in
// internal/codegen/llvm frees every allocation main's entry block made, in reverse order, just
// ahead of each of main's return instructions.
func Free(m llvm.Module, ctx llvm.Context) llvm.Value {
	if fn := m.NamedFunction("free"); !fn.IsNil() {
		return fn
	}
	i8ptr := llvm.PointerType(ctx.Int8Type(), 0)
	ftyp := llvm.FunctionType(ctx.VoidType(), []llvm.Type{i8ptr}, false)
	return llvm.AddFunction(m, "free", ftyp)
}

// Strlen is the libc byte-length function for a NUL-terminated string, used by len() over a
// string and by string concatenation to size and fill the new buffer.
func Strlen(m llvm.Module, ctx llvm.Context) llvm.Value {
	if fn := m.NamedFunction("strlen"); !fn.IsNil() {
		return fn
	}
	i8ptr := llvm.PointerType(ctx.Int8Type(), 0)
	ftyp := llvm.FunctionType(ctx.Int64Type(), []llvm.Type{i8ptr}, false)
	return llvm.AddFunction(m, "strlen", ftyp)
}

// Memcpy is the libc buffer-copy primitive, used by string concatenation to fill a freshly
// malloc'd buffer from the two operand strings before NUL-terminating it.
func Memcpy(m llvm.Module, ctx llvm.Context) llvm.Value {
	if fn := m.NamedFunction("memcpy"); !fn.IsNil() {
		return fn
	}
	i8ptr := llvm.PointerType(ctx.Int8Type(), 0)
	ftyp := llvm.FunctionType(i8ptr, []llvm.Type{i8ptr, i8ptr, ctx.Int64Type()}, false)
	return llvm.AddFunction(m, "memcpy", ftyp)
}

// ReservedNames lists libc/runtime symbols a source program may not redeclare as a function.
var ReservedNames = []string{"main", "printf", "scanf", "malloc", "free", "strlen", "memcpy"}
