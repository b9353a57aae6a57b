// Package wasm holds the static, decoder-independent representation of a
// WebAssembly v1 module: value types, function types, instructions and the
// module image itself. It has no knowledge of the host or the interpreter;
// those build runtime state on top of the types defined here.
package wasm

import (
	"fmt"
	"math"
)

// ValType tags a Value and identifies a function parameter or result type.
// The numeric tags match the WebAssembly binary encoding exactly, so a
// decoded byte can be cast directly.
type ValType byte

const (
	// Nil is the zero value of ValType and tags an absent script-level
	// result. It is never a legal operand on the interpreter's stack.
	Nil ValType = 0x00
	I32 ValType = 0x7F
	I64 ValType = 0x7E
	F32 ValType = 0x7D
	F64 ValType = 0x7C
	// BlockVoid is the block-type tag for a block/loop/if with no result.
	BlockVoid ValType = 0x40
)

func (t ValType) String() string {
	switch t {
	case Nil:
		return "nil"
	case I32:
		return "i32"
	case I64:
		return "i64"
	case F32:
		return "f32"
	case F64:
		return "f64"
	case BlockVoid:
		return "void"
	default:
		return fmt.Sprintf("valtype(0x%02x)", byte(t))
	}
}

// Value is a tagged scalar: nil, i32, i64, f32 or f64. Integer variants are
// stored as unsigned bit patterns — signedness belongs to the operation, not
// the value — and float variants are stored as their raw IEEE-754 bits so a
// Value can be copied and compared without ever going through a float
// register, which keeps NaN payloads intact.
type Value struct {
	typ  ValType
	bits uint64
}

// ValueNil is the absent value. It is the zero Value.
var ValueNil = Value{}

// ValueI32 constructs an i32 Value from its unsigned bit pattern.
func ValueI32(v uint32) Value { return Value{typ: I32, bits: uint64(v)} }

// ValueI64 constructs an i64 Value from its unsigned bit pattern.
func ValueI64(v uint64) Value { return Value{typ: I64, bits: v} }

// ValueF32 constructs an f32 Value, preserving its exact bit pattern.
func ValueF32(f float32) Value { return Value{typ: F32, bits: uint64(math.Float32bits(f))} }

// ValueF64 constructs an f64 Value, preserving its exact bit pattern.
func ValueF64(f float64) Value { return Value{typ: F64, bits: math.Float64bits(f)} }

// Type returns the value's tag.
func (v Value) Type() ValType { return v.typ }

// IsNil reports whether v is the absent value.
func (v Value) IsNil() bool { return v.typ == Nil }

// I32 returns v's bits as an i32, and whether v was tagged I32.
func (v Value) I32() (uint32, bool) { return uint32(v.bits), v.typ == I32 }

// I64 returns v's bits as an i64, and whether v was tagged I64.
func (v Value) I64() (uint64, bool) { return v.bits, v.typ == I64 }

// F32 returns v's bits reinterpreted as a float32, and whether v was tagged F32.
func (v Value) F32() (float32, bool) { return math.Float32frombits(uint32(v.bits)), v.typ == F32 }

// F64 returns v's bits reinterpreted as a float64, and whether v was tagged F64.
func (v Value) F64() (float64, bool) { return math.Float64frombits(v.bits), v.typ == F64 }

// Bits returns the raw unsigned bit pattern backing v, regardless of tag.
// Used by reinterpret instructions and by exact bit-pattern comparisons of
// values.
func (v Value) Bits() uint64 { return v.bits }

// WithBits returns a copy of v with the same tag but different bits, e.g. a
// float carrying a specific NaN payload.
func (v Value) WithBits(bits uint64) Value { return Value{typ: v.typ, bits: bits} }

func (v Value) String() string {
	switch v.typ {
	case Nil:
		return "nil"
	case I32:
		return fmt.Sprintf("i32:%d", uint32(v.bits))
	case I64:
		return fmt.Sprintf("i64:%d", v.bits)
	case F32:
		return fmt.Sprintf("f32:%v", math.Float32frombits(uint32(v.bits)))
	case F64:
		return fmt.Sprintf("f64:%v", math.Float64frombits(v.bits))
	default:
		return "value(?)"
	}
}
