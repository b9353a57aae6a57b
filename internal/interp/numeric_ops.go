package interp

import (
	"math"

	"github.com/wasmforge/wasmforge/internal/host"
	"github.com/wasmforge/wasmforge/internal/numeric"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// stepNumeric dispatches every comparison, arithmetic, bitwise and
// conversion instruction. It is split out of step so that family (i32,
// i64, f32, f64, conversions) stays readable as one switch arm apiece,
// mirroring how internal/numeric groups its own exported functions.
func (t *Thread) stepNumeric(ctx *executionContext, insn wasm.Instruction) {
	switch insn.Opcode {

	// --- i32 comparisons ---
	case wasm.OpI32Eqz:
		pushBool(ctx, popI32(ctx) == 0)
	case wasm.OpI32Eq:
		a, b := pop2I32(ctx)
		pushBool(ctx, a == b)
	case wasm.OpI32Ne:
		a, b := pop2I32(ctx)
		pushBool(ctx, a != b)
	case wasm.OpI32LtS:
		a, b := pop2I32(ctx)
		pushBool(ctx, int32(a) < int32(b))
	case wasm.OpI32LtU:
		a, b := pop2I32(ctx)
		pushBool(ctx, a < b)
	case wasm.OpI32GtS:
		a, b := pop2I32(ctx)
		pushBool(ctx, int32(a) > int32(b))
	case wasm.OpI32GtU:
		a, b := pop2I32(ctx)
		pushBool(ctx, a > b)
	case wasm.OpI32LeS:
		a, b := pop2I32(ctx)
		pushBool(ctx, int32(a) <= int32(b))
	case wasm.OpI32LeU:
		a, b := pop2I32(ctx)
		pushBool(ctx, a <= b)
	case wasm.OpI32GeS:
		a, b := pop2I32(ctx)
		pushBool(ctx, int32(a) >= int32(b))
	case wasm.OpI32GeU:
		a, b := pop2I32(ctx)
		pushBool(ctx, a >= b)

	// --- i64 comparisons ---
	case wasm.OpI64Eqz:
		pushBool(ctx, popI64(ctx) == 0)
	case wasm.OpI64Eq:
		a, b := pop2I64(ctx)
		pushBool(ctx, a == b)
	case wasm.OpI64Ne:
		a, b := pop2I64(ctx)
		pushBool(ctx, a != b)
	case wasm.OpI64LtS:
		a, b := pop2I64(ctx)
		pushBool(ctx, int64(a) < int64(b))
	case wasm.OpI64LtU:
		a, b := pop2I64(ctx)
		pushBool(ctx, a < b)
	case wasm.OpI64GtS:
		a, b := pop2I64(ctx)
		pushBool(ctx, int64(a) > int64(b))
	case wasm.OpI64GtU:
		a, b := pop2I64(ctx)
		pushBool(ctx, a > b)
	case wasm.OpI64LeS:
		a, b := pop2I64(ctx)
		pushBool(ctx, int64(a) <= int64(b))
	case wasm.OpI64LeU:
		a, b := pop2I64(ctx)
		pushBool(ctx, a <= b)
	case wasm.OpI64GeS:
		a, b := pop2I64(ctx)
		pushBool(ctx, int64(a) >= int64(b))
	case wasm.OpI64GeU:
		a, b := pop2I64(ctx)
		pushBool(ctx, a >= b)

	// --- f32/f64 comparisons (NaN makes every one false except Ne) ---
	case wasm.OpF32Eq:
		a, b := pop2F32(ctx)
		pushBool(ctx, a == b)
	case wasm.OpF32Ne:
		a, b := pop2F32(ctx)
		pushBool(ctx, a != b)
	case wasm.OpF32Lt:
		a, b := pop2F32(ctx)
		pushBool(ctx, a < b)
	case wasm.OpF32Gt:
		a, b := pop2F32(ctx)
		pushBool(ctx, a > b)
	case wasm.OpF32Le:
		a, b := pop2F32(ctx)
		pushBool(ctx, a <= b)
	case wasm.OpF32Ge:
		a, b := pop2F32(ctx)
		pushBool(ctx, a >= b)
	case wasm.OpF64Eq:
		a, b := pop2F64(ctx)
		pushBool(ctx, a == b)
	case wasm.OpF64Ne:
		a, b := pop2F64(ctx)
		pushBool(ctx, a != b)
	case wasm.OpF64Lt:
		a, b := pop2F64(ctx)
		pushBool(ctx, a < b)
	case wasm.OpF64Gt:
		a, b := pop2F64(ctx)
		pushBool(ctx, a > b)
	case wasm.OpF64Le:
		a, b := pop2F64(ctx)
		pushBool(ctx, a <= b)
	case wasm.OpF64Ge:
		a, b := pop2F64(ctx)
		pushBool(ctx, a >= b)

	// --- i32 arithmetic/bitwise ---
	case wasm.OpI32Clz:
		ctx.push(wasm.ValueI32(numeric.Clz32(popI32(ctx))))
	case wasm.OpI32Ctz:
		ctx.push(wasm.ValueI32(numeric.Ctz32(popI32(ctx))))
	case wasm.OpI32Popcnt:
		ctx.push(wasm.ValueI32(numeric.Popcnt32(popI32(ctx))))
	case wasm.OpI32Add:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(numeric.AddWrap(a, b)))
	case wasm.OpI32Sub:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(numeric.SubWrap(a, b)))
	case wasm.OpI32Mul:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(numeric.MulWrap(a, b)))
	case wasm.OpI32DivS:
		a, b := pop2I32(ctx)
		v, f := numeric.DivS32(a, b)
		faultTrap(f)
		ctx.push(wasm.ValueI32(v))
	case wasm.OpI32DivU:
		a, b := pop2I32(ctx)
		v, f := numeric.DivU32(a, b)
		faultTrap(f)
		ctx.push(wasm.ValueI32(v))
	case wasm.OpI32RemS:
		a, b := pop2I32(ctx)
		v, f := numeric.RemS32(a, b)
		faultTrap(f)
		ctx.push(wasm.ValueI32(v))
	case wasm.OpI32RemU:
		a, b := pop2I32(ctx)
		v, f := numeric.RemU32(a, b)
		faultTrap(f)
		ctx.push(wasm.ValueI32(v))
	case wasm.OpI32And:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(a & b))
	case wasm.OpI32Or:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(a | b))
	case wasm.OpI32Xor:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(a ^ b))
	case wasm.OpI32Shl:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(numeric.ShlMask(a, b, 32)))
	case wasm.OpI32ShrS:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(uint32(numeric.ShrSMask(int32(a), b, 32))))
	case wasm.OpI32ShrU:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(numeric.ShrUMask(a, b, 32)))
	case wasm.OpI32Rotl:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(numeric.Rotl32(a, b)))
	case wasm.OpI32Rotr:
		a, b := pop2I32(ctx)
		ctx.push(wasm.ValueI32(numeric.Rotr32(a, b)))

	// --- i64 arithmetic/bitwise ---
	case wasm.OpI64Clz:
		ctx.push(wasm.ValueI64(numeric.Clz64(popI64(ctx))))
	case wasm.OpI64Ctz:
		ctx.push(wasm.ValueI64(numeric.Ctz64(popI64(ctx))))
	case wasm.OpI64Popcnt:
		ctx.push(wasm.ValueI64(numeric.Popcnt64(popI64(ctx))))
	case wasm.OpI64Add:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(numeric.AddWrap(a, b)))
	case wasm.OpI64Sub:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(numeric.SubWrap(a, b)))
	case wasm.OpI64Mul:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(numeric.MulWrap(a, b)))
	case wasm.OpI64DivS:
		a, b := pop2I64(ctx)
		v, f := numeric.DivS64(a, b)
		faultTrap(f)
		ctx.push(wasm.ValueI64(v))
	case wasm.OpI64DivU:
		a, b := pop2I64(ctx)
		v, f := numeric.DivU64(a, b)
		faultTrap(f)
		ctx.push(wasm.ValueI64(v))
	case wasm.OpI64RemS:
		a, b := pop2I64(ctx)
		v, f := numeric.RemS64(a, b)
		faultTrap(f)
		ctx.push(wasm.ValueI64(v))
	case wasm.OpI64RemU:
		a, b := pop2I64(ctx)
		v, f := numeric.RemU64(a, b)
		faultTrap(f)
		ctx.push(wasm.ValueI64(v))
	case wasm.OpI64And:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(a & b))
	case wasm.OpI64Or:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(a | b))
	case wasm.OpI64Xor:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(a ^ b))
	case wasm.OpI64Shl:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(numeric.ShlMask(a, uint32(b), 64)))
	case wasm.OpI64ShrS:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(uint64(numeric.ShrSMask(int64(a), uint32(b), 64))))
	case wasm.OpI64ShrU:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(numeric.ShrUMask(a, uint32(b), 64)))
	case wasm.OpI64Rotl:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(numeric.Rotl64(a, uint32(b))))
	case wasm.OpI64Rotr:
		a, b := pop2I64(ctx)
		ctx.push(wasm.ValueI64(numeric.Rotr64(a, uint32(b))))

	// --- f32 arithmetic ---
	case wasm.OpF32Abs:
		ctx.push(wasm.ValueF32(float32(math.Abs(float64(popF32(ctx))))))
	case wasm.OpF32Neg:
		ctx.push(wasm.ValueF32(-popF32(ctx)))
	case wasm.OpF32Ceil:
		ctx.push(wasm.ValueF32(float32(math.Ceil(float64(popF32(ctx))))))
	case wasm.OpF32Floor:
		ctx.push(wasm.ValueF32(float32(math.Floor(float64(popF32(ctx))))))
	case wasm.OpF32Trunc:
		ctx.push(wasm.ValueF32(float32(math.Trunc(float64(popF32(ctx))))))
	case wasm.OpF32Nearest:
		ctx.push(wasm.ValueF32(numeric.Nearest32(popF32(ctx))))
	case wasm.OpF32Sqrt:
		ctx.push(wasm.ValueF32(float32(math.Sqrt(float64(popF32(ctx))))))
	case wasm.OpF32Add:
		a, b := pop2F32(ctx)
		ctx.push(wasm.ValueF32(a + b))
	case wasm.OpF32Sub:
		a, b := pop2F32(ctx)
		ctx.push(wasm.ValueF32(a - b))
	case wasm.OpF32Mul:
		a, b := pop2F32(ctx)
		ctx.push(wasm.ValueF32(a * b))
	case wasm.OpF32Div:
		a, b := pop2F32(ctx)
		ctx.push(wasm.ValueF32(a / b))
	case wasm.OpF32Min:
		a, b := pop2F32(ctx)
		ctx.push(wasm.ValueF32(numeric.MinFloat(a, b)))
	case wasm.OpF32Max:
		a, b := pop2F32(ctx)
		ctx.push(wasm.ValueF32(numeric.MaxFloat(a, b)))
	case wasm.OpF32Copysign:
		a, b := pop2F32(ctx)
		ctx.push(wasm.ValueF32(numeric.CopySignF32(a, b)))

	// --- f64 arithmetic ---
	case wasm.OpF64Abs:
		ctx.push(wasm.ValueF64(math.Abs(popF64(ctx))))
	case wasm.OpF64Neg:
		ctx.push(wasm.ValueF64(-popF64(ctx)))
	case wasm.OpF64Ceil:
		ctx.push(wasm.ValueF64(math.Ceil(popF64(ctx))))
	case wasm.OpF64Floor:
		ctx.push(wasm.ValueF64(math.Floor(popF64(ctx))))
	case wasm.OpF64Trunc:
		ctx.push(wasm.ValueF64(math.Trunc(popF64(ctx))))
	case wasm.OpF64Nearest:
		ctx.push(wasm.ValueF64(numeric.Nearest64(popF64(ctx))))
	case wasm.OpF64Sqrt:
		ctx.push(wasm.ValueF64(math.Sqrt(popF64(ctx))))
	case wasm.OpF64Add:
		a, b := pop2F64(ctx)
		ctx.push(wasm.ValueF64(a + b))
	case wasm.OpF64Sub:
		a, b := pop2F64(ctx)
		ctx.push(wasm.ValueF64(a - b))
	case wasm.OpF64Mul:
		a, b := pop2F64(ctx)
		ctx.push(wasm.ValueF64(a * b))
	case wasm.OpF64Div:
		a, b := pop2F64(ctx)
		ctx.push(wasm.ValueF64(a / b))
	case wasm.OpF64Min:
		a, b := pop2F64(ctx)
		ctx.push(wasm.ValueF64(numeric.MinFloat(a, b)))
	case wasm.OpF64Max:
		a, b := pop2F64(ctx)
		ctx.push(wasm.ValueF64(numeric.MaxFloat(a, b)))
	case wasm.OpF64Copysign:
		a, b := pop2F64(ctx)
		ctx.push(wasm.ValueF64(numeric.CopySignF64(a, b)))

	// --- conversions ---
	case wasm.OpI32WrapI64:
		ctx.push(wasm.ValueI32(uint32(popI64(ctx))))
	case wasm.OpI32TruncF32S:
		v, f := numeric.TruncToI32S(float64(popF32(ctx)))
		faultTrap(f)
		ctx.push(wasm.ValueI32(v))
	case wasm.OpI32TruncF32U:
		v, f := numeric.TruncToI32U(float64(popF32(ctx)))
		faultTrap(f)
		ctx.push(wasm.ValueI32(v))
	case wasm.OpI32TruncF64S:
		v, f := numeric.TruncToI32S(popF64(ctx))
		faultTrap(f)
		ctx.push(wasm.ValueI32(v))
	case wasm.OpI32TruncF64U:
		v, f := numeric.TruncToI32U(popF64(ctx))
		faultTrap(f)
		ctx.push(wasm.ValueI32(v))
	case wasm.OpI64ExtendI32S:
		ctx.push(wasm.ValueI64(uint64(int64(int32(popI32(ctx))))))
	case wasm.OpI64ExtendI32U:
		ctx.push(wasm.ValueI64(uint64(popI32(ctx))))
	case wasm.OpI64TruncF32S:
		v, f := numeric.TruncToI64S(float64(popF32(ctx)))
		faultTrap(f)
		ctx.push(wasm.ValueI64(v))
	case wasm.OpI64TruncF32U:
		v, f := numeric.TruncToI64U(float64(popF32(ctx)))
		faultTrap(f)
		ctx.push(wasm.ValueI64(v))
	case wasm.OpI64TruncF64S:
		v, f := numeric.TruncToI64S(popF64(ctx))
		faultTrap(f)
		ctx.push(wasm.ValueI64(v))
	case wasm.OpI64TruncF64U:
		v, f := numeric.TruncToI64U(popF64(ctx))
		faultTrap(f)
		ctx.push(wasm.ValueI64(v))
	case wasm.OpF32ConvertI32S:
		ctx.push(wasm.ValueF32(float32(int32(popI32(ctx)))))
	case wasm.OpF32ConvertI32U:
		ctx.push(wasm.ValueF32(float32(popI32(ctx))))
	case wasm.OpF32ConvertI64S:
		ctx.push(wasm.ValueF32(float32(int64(popI64(ctx)))))
	case wasm.OpF32ConvertI64U:
		ctx.push(wasm.ValueF32(float32(popI64(ctx))))
	case wasm.OpF32DemoteF64:
		ctx.push(wasm.ValueF32(float32(popF64(ctx))))
	case wasm.OpF64ConvertI32S:
		ctx.push(wasm.ValueF64(float64(int32(popI32(ctx)))))
	case wasm.OpF64ConvertI32U:
		ctx.push(wasm.ValueF64(float64(popI32(ctx))))
	case wasm.OpF64ConvertI64S:
		ctx.push(wasm.ValueF64(float64(int64(popI64(ctx)))))
	case wasm.OpF64ConvertI64U:
		ctx.push(wasm.ValueF64(float64(popI64(ctx))))
	case wasm.OpF64PromoteF32:
		ctx.push(wasm.ValueF64(float64(popF32(ctx))))
	case wasm.OpI32ReinterpretF32:
		v, ok := ctx.pop()
		if !ok {
			panic(host.TrapStackUnderflow())
		}
		if _, isF32 := v.F32(); !isF32 {
			panic(host.TrapTypeMismatch("f32", v.Type().String()))
		}
		ctx.push(wasm.ValueI32(uint32(v.Bits())))
	case wasm.OpI64ReinterpretF64:
		v, ok := ctx.pop()
		if !ok {
			panic(host.TrapStackUnderflow())
		}
		if _, isF64 := v.F64(); !isF64 {
			panic(host.TrapTypeMismatch("f64", v.Type().String()))
		}
		ctx.push(wasm.ValueI64(v.Bits()))
	case wasm.OpF32ReinterpretI32:
		v, ok := ctx.pop()
		if !ok {
			panic(host.TrapStackUnderflow())
		}
		if _, isI32 := v.I32(); !isI32 {
			panic(host.TrapTypeMismatch("i32", v.Type().String()))
		}
		ctx.push(wasm.ValueF32(math.Float32frombits(uint32(v.Bits()))))
	case wasm.OpF64ReinterpretI64:
		v, ok := ctx.pop()
		if !ok {
			panic(host.TrapStackUnderflow())
		}
		if _, isI64 := v.I64(); !isI64 {
			panic(host.TrapTypeMismatch("i64", v.Type().String()))
		}
		ctx.push(wasm.ValueF64(math.Float64frombits(v.Bits())))

	default:
		panic(host.NewTrap("unsupported opcode: " + insn.Opcode.String()))
	}
}
