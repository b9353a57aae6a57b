package interp

import (
	"encoding/binary"
	"math"

	"github.com/wasmforge/wasmforge/internal/host"
	"github.com/wasmforge/wasmforge/internal/memory"
	"github.com/wasmforge/wasmforge/internal/numeric"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

func popI32(ctx *executionContext) uint32 {
	v, ok := ctx.pop()
	if !ok {
		panic(host.TrapStackUnderflow())
	}
	i, isI32 := v.I32()
	if !isI32 {
		panic(host.TrapTypeMismatch("i32", v.Type().String()))
	}
	return i
}

func popI64(ctx *executionContext) uint64 {
	v, ok := ctx.pop()
	if !ok {
		panic(host.TrapStackUnderflow())
	}
	i, isI64 := v.I64()
	if !isI64 {
		panic(host.TrapTypeMismatch("i64", v.Type().String()))
	}
	return i
}

func popF32(ctx *executionContext) float32 {
	v, ok := ctx.pop()
	if !ok {
		panic(host.TrapStackUnderflow())
	}
	f, isF32 := v.F32()
	if !isF32 {
		panic(host.TrapTypeMismatch("f32", v.Type().String()))
	}
	return f
}

func popF64(ctx *executionContext) float64 {
	v, ok := ctx.pop()
	if !ok {
		panic(host.TrapStackUnderflow())
	}
	f, isF64 := v.F64()
	if !isF64 {
		panic(host.TrapTypeMismatch("f64", v.Type().String()))
	}
	return f
}

// pop2I32 pops the second (right) then first (left) operand of a binary
// i32 instruction, restoring source order: the stack holds [..., a, b]
// with b on top.
func pop2I32(ctx *executionContext) (a, b uint32) { b = popI32(ctx); a = popI32(ctx); return }
func pop2I64(ctx *executionContext) (a, b uint64) { b = popI64(ctx); a = popI64(ctx); return }
func pop2F32(ctx *executionContext) (a, b float32) { b = popF32(ctx); a = popF32(ctx); return }
func pop2F64(ctx *executionContext) (a, b float64) { b = popF64(ctx); a = popF64(ctx); return }

func pushBool(ctx *executionContext, cond bool) {
	if cond {
		ctx.push(wasm.ValueI32(1))
	} else {
		ctx.push(wasm.ValueI32(0))
	}
}

func faultTrap(f numeric.Fault) {
	switch f {
	case numeric.FaultDivideByZero:
		panic(host.TrapIntegerDivideByZero())
	case numeric.FaultIntegerOverflow:
		panic(host.TrapIntegerOverflow())
	case numeric.FaultInvalidConversionToInteger:
		panic(host.TrapInvalidConversionToInteger())
	}
}

// currentMemory resolves the module's single memory (Wasm v1 never has more
// than one), panicking a generic (CauseOther) trap if the module declared
// none — a module-validation concern this engine folds into a
// trap rather than rejecting at instantiation time, since Non-goals exclude
// a separate validation pass (spec.md, Non-goals).
func currentMemory(h *host.Host, ctx *executionContext) *memory.Memory {
	addr, ok := h.ResolveMem(ctx.frame.Module, 0)
	if !ok {
		panic(host.NewTrap("instruction requires a memory, but module declares none"))
	}
	mem, ok := h.Mem(addr)
	if !ok {
		panic(host.NewTrap("instruction requires a memory, but module declares none"))
	}
	return mem.Memory
}

func loadBytes(mem *memory.Memory, ea uint32, n uint32) []byte {
	b, err := mem.Read(ea, n)
	if err != nil {
		panic(host.TrapMemoryOutOfBounds())
	}
	return b
}

func storeBytes(mem *memory.Memory, ea uint32, b []byte) {
	if err := mem.Write(ea, b); err != nil {
		panic(host.TrapMemoryOutOfBounds())
	}
}

// step executes a single non-control-flow instruction against ctx. Traps
// panic (see thread.go); it never returns an error value.
func (t *Thread) step(h *host.Host, ctx *executionContext, insn wasm.Instruction) {
	switch insn.Opcode {

	case wasm.OpUnreachable:
		panic(host.TrapUnreachableExecuted())
	case wasm.OpNop, wasm.OpEnd:
		// no-op; the end that closes a function body has nothing left to do

	case wasm.OpDrop:
		if _, ok := ctx.pop(); !ok {
			panic(host.TrapStackUnderflow())
		}
	case wasm.OpSelect:
		cond := popI32(ctx)
		b, ok := ctx.pop()
		if !ok {
			panic(host.TrapStackUnderflow())
		}
		a, ok := ctx.pop()
		if !ok {
			panic(host.TrapStackUnderflow())
		}
		if a.Type() != b.Type() {
			panic(host.TrapTypeMismatch(a.Type().String(), b.Type().String()))
		}
		if cond != 0 {
			ctx.push(a)
		} else {
			ctx.push(b)
		}

	case wasm.OpLocalGet:
		v, ok := ctx.local(insn.Index)
		if !ok {
			panic(host.TrapLocalIndexOutOfRange())
		}
		ctx.push(v)
	case wasm.OpLocalSet:
		v, ok := ctx.pop()
		if !ok {
			panic(host.TrapStackUnderflow())
		}
		if !ctx.setLocal(insn.Index, v) {
			panic(host.TrapLocalIndexOutOfRange())
		}
	case wasm.OpLocalTee:
		v, ok := ctx.pop()
		if !ok {
			panic(host.TrapStackUnderflow())
		}
		ctx.push(v)
		if !ctx.setLocal(insn.Index, v) {
			panic(host.TrapLocalIndexOutOfRange())
		}

	case wasm.OpGlobalGet, wasm.OpGlobalSet:
		panic(host.NewTrap("globals are not supported by this engine"))
	case wasm.OpCallIndirect:
		panic(host.NewTrap("call_indirect is not supported by this engine (no tables)"))

	case wasm.OpCall:
		t.dispatchCall(h, ctx, insn.Index)

	case wasm.OpI32Const:
		ctx.push(insn.Const)
	case wasm.OpI64Const:
		ctx.push(insn.Const)
	case wasm.OpF32Const:
		ctx.push(insn.Const)
	case wasm.OpF64Const:
		ctx.push(insn.Const)

	default:
		if isMemoryOp(insn.Opcode) {
			t.stepMemory(h, ctx, insn)
			return
		}
		t.stepNumeric(ctx, insn)
	}
}

func (t *Thread) dispatchCall(h *host.Host, ctx *executionContext, moduleLocalIdx uint32) {
	addr, ok := h.ResolveFunc(ctx.frame.Module, moduleLocalIdx)
	if !ok {
		panic(host.NewTrap("call to unknown function index"))
	}
	fn, ok := h.Func(addr)
	if !ok {
		panic(host.NewTrap("call to unknown function address"))
	}
	n := len(fn.Typ.Params)
	if len(ctx.values) < n {
		panic(host.TrapStackUnderflow())
	}
	args := append([]wasm.Value(nil), ctx.values[len(ctx.values)-n:]...)
	ctx.values = ctx.values[:len(ctx.values)-n]

	results, trap := t.Invoke(h, addr, args)
	if trap != nil {
		panic(trap)
	}
	for _, r := range results {
		ctx.push(r)
	}
}

func isMemoryOp(op wasm.Opcode) bool {
	switch op {
	case wasm.OpI32Load, wasm.OpI64Load, wasm.OpF32Load, wasm.OpF64Load,
		wasm.OpI32Load8S, wasm.OpI32Load8U, wasm.OpI32Load16S, wasm.OpI32Load16U,
		wasm.OpI64Load8S, wasm.OpI64Load8U, wasm.OpI64Load16S, wasm.OpI64Load16U,
		wasm.OpI64Load32S, wasm.OpI64Load32U,
		wasm.OpI32Store, wasm.OpI64Store, wasm.OpF32Store, wasm.OpF64Store,
		wasm.OpI32Store8, wasm.OpI32Store16, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32,
		wasm.OpMemorySize, wasm.OpMemoryGrow:
		return true
	default:
		return false
	}
}

func (t *Thread) stepMemory(h *host.Host, ctx *executionContext, insn wasm.Instruction) {
	if insn.Opcode == wasm.OpMemorySize {
		ctx.push(wasm.ValueI32(currentMemory(h, ctx).Pages()))
		return
	}
	if insn.Opcode == wasm.OpMemoryGrow {
		delta := popI32(ctx)
		old, ok := currentMemory(h, ctx).Grow(delta)
		if !ok {
			ctx.push(wasm.ValueI32(0xFFFFFFFF))
		} else {
			ctx.push(wasm.ValueI32(old))
		}
		return
	}

	mem := currentMemory(h, ctx)

	switch insn.Opcode {
	case wasm.OpI32Store, wasm.OpI64Store, wasm.OpF32Store, wasm.OpF64Store,
		wasm.OpI32Store8, wasm.OpI32Store16, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32:
		storeValue(mem, ctx, insn)
		return
	}

	ea := popI32(ctx) + insn.MemArg.Offset
	switch insn.Opcode {
	case wasm.OpI32Load:
		ctx.push(wasm.ValueI32(binary.LittleEndian.Uint32(loadBytes(mem, ea, 4))))
	case wasm.OpI64Load:
		ctx.push(wasm.ValueI64(binary.LittleEndian.Uint64(loadBytes(mem, ea, 8))))
	case wasm.OpF32Load:
		ctx.push(wasm.ValueF32(math.Float32frombits(binary.LittleEndian.Uint32(loadBytes(mem, ea, 4)))))
	case wasm.OpF64Load:
		ctx.push(wasm.ValueF64(math.Float64frombits(binary.LittleEndian.Uint64(loadBytes(mem, ea, 8)))))
	case wasm.OpI32Load8S:
		ctx.push(wasm.ValueI32(uint32(int32(int8(loadBytes(mem, ea, 1)[0])))))
	case wasm.OpI32Load8U:
		ctx.push(wasm.ValueI32(uint32(loadBytes(mem, ea, 1)[0])))
	case wasm.OpI32Load16S:
		ctx.push(wasm.ValueI32(uint32(int32(int16(binary.LittleEndian.Uint16(loadBytes(mem, ea, 2)))))))
	case wasm.OpI32Load16U:
		ctx.push(wasm.ValueI32(uint32(binary.LittleEndian.Uint16(loadBytes(mem, ea, 2)))))
	case wasm.OpI64Load8S:
		ctx.push(wasm.ValueI64(uint64(int64(int8(loadBytes(mem, ea, 1)[0])))))
	case wasm.OpI64Load8U:
		ctx.push(wasm.ValueI64(uint64(loadBytes(mem, ea, 1)[0])))
	case wasm.OpI64Load16S:
		ctx.push(wasm.ValueI64(uint64(int64(int16(binary.LittleEndian.Uint16(loadBytes(mem, ea, 2)))))))
	case wasm.OpI64Load16U:
		ctx.push(wasm.ValueI64(uint64(binary.LittleEndian.Uint16(loadBytes(mem, ea, 2)))))
	case wasm.OpI64Load32S:
		ctx.push(wasm.ValueI64(uint64(int64(int32(binary.LittleEndian.Uint32(loadBytes(mem, ea, 4)))))))
	case wasm.OpI64Load32U:
		ctx.push(wasm.ValueI64(uint64(binary.LittleEndian.Uint32(loadBytes(mem, ea, 4)))))
	}
}

func storeValue(mem *memory.Memory, ctx *executionContext, insn wasm.Instruction) {
	switch insn.Opcode {
	case wasm.OpI32Store:
		v := popI32(ctx)
		ea := popI32(ctx) + insn.MemArg.Offset
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, v)
		storeBytes(mem, ea, b)
	case wasm.OpI64Store:
		v := popI64(ctx)
		ea := popI32(ctx) + insn.MemArg.Offset
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, v)
		storeBytes(mem, ea, b)
	case wasm.OpF32Store:
		v := popF32(ctx)
		ea := popI32(ctx) + insn.MemArg.Offset
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, math.Float32bits(v))
		storeBytes(mem, ea, b)
	case wasm.OpF64Store:
		v := popF64(ctx)
		ea := popI32(ctx) + insn.MemArg.Offset
		b := make([]byte, 8)
		binary.LittleEndian.PutUint64(b, math.Float64bits(v))
		storeBytes(mem, ea, b)
	case wasm.OpI32Store8:
		v := popI32(ctx)
		ea := popI32(ctx) + insn.MemArg.Offset
		storeBytes(mem, ea, []byte{byte(v)})
	case wasm.OpI32Store16:
		v := popI32(ctx)
		ea := popI32(ctx) + insn.MemArg.Offset
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v))
		storeBytes(mem, ea, b)
	case wasm.OpI64Store8:
		v := popI64(ctx)
		ea := popI32(ctx) + insn.MemArg.Offset
		storeBytes(mem, ea, []byte{byte(v)})
	case wasm.OpI64Store16:
		v := popI64(ctx)
		ea := popI32(ctx) + insn.MemArg.Offset
		b := make([]byte, 2)
		binary.LittleEndian.PutUint16(b, uint16(v))
		storeBytes(mem, ea, b)
	case wasm.OpI64Store32:
		v := popI64(ctx)
		ea := popI32(ctx) + insn.MemArg.Offset
		b := make([]byte, 4)
		binary.LittleEndian.PutUint32(b, uint32(v))
		storeBytes(mem, ea, b)
	}
}
