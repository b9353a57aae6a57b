package wasm

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestValueAccessorsRoundTrip(t *testing.T) {
	v := ValueI32(42)
	got, ok := v.I32()
	require.True(t, ok)
	require.Equal(t, uint32(42), got)
	_, ok = v.I64()
	require.False(t, ok)
	require.Equal(t, "i32:42", v.String())
}

func TestValueFloatBitsSurviveNaN(t *testing.T) {
	v := ValueF32(0).WithBits(0x7FC00001) // a quiet NaN with a nonzero payload
	f, ok := v.F32()
	require.True(t, ok)
	require.Equal(t, v.Bits(), ValueF32(f).Bits())
}

func TestValueNilIsZeroValue(t *testing.T) {
	var v Value
	require.True(t, v.IsNil())
	require.Equal(t, ValueNil, v)
}

func TestFuncTypeEqual(t *testing.T) {
	a := FuncType{Params: []ValType{I32, I32}, Results: []ValType{I32}}
	b := FuncType{Params: []ValType{I32, I32}, Results: []ValType{I32}}
	c := FuncType{Params: []ValType{I32}, Results: []ValType{I32}}
	require.True(t, a.Equal(b))
	require.False(t, a.Equal(c))
}

func TestModuleFuncCountAndTypeIndex(t *testing.T) {
	m := &Module{
		Types: []FuncType{{Results: []ValType{I32}}},
		Imports: []Import{
			{Module: "env", Name: "a", Kind: ExternKindFunc, DescFuncTypeIdx: 0},
			{Module: "env", Name: "mem", Kind: ExternKindMemory},
		},
		Funcs: []uint32{0, 0},
	}
	require.Equal(t, 3, m.FuncCount())

	idx, ok := m.FuncTypeIndex(0)
	require.True(t, ok)
	require.Equal(t, uint32(0), idx) // imported func

	idx, ok = m.FuncTypeIndex(1)
	require.True(t, ok)
	require.Equal(t, uint32(0), idx) // first local func

	_, ok = m.FuncTypeIndex(2)
	require.True(t, ok) // second local func

	_, ok = m.FuncTypeIndex(3)
	require.False(t, ok) // out of range
}

func TestOpcodeStringKnownAndUnknown(t *testing.T) {
	require.Equal(t, "i32.add", OpI32Add.String())
	require.Equal(t, "opcode(0xff)", Opcode(0xFF).String())
}
