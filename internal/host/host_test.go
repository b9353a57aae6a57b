package host

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmforge/wasmforge/internal/wasm"
)

func TestSynthesizeExportsFuncAndMemory(t *testing.T) {
	h := New()
	b := NewModuleBuilder("env").
		WithFunc("print", wasm.FuncType{Params: []wasm.ValType{wasm.I32}}, func(h *Host, inv Invoker, args []wasm.Value) ([]wasm.Value, *Trap) {
			return nil, nil
		}).
		WithMemory("memory", 1, 1, true)
	addr := h.Synthesize(b)

	mod, ok := h.Module(addr)
	require.True(t, ok)
	require.Equal(t, "env", mod.Name)
	require.Len(t, mod.Exports, 2)

	export, ok := mod.FindExport("print")
	require.True(t, ok)
	require.Equal(t, wasm.ExternKindFunc, export.Value.Kind)

	export, ok = mod.FindExport("memory")
	require.True(t, ok)
	require.Equal(t, wasm.ExternKindMemory, export.Value.Kind)
	mem, ok := h.Mem(export.Value.Mem)
	require.True(t, ok)
	require.Equal(t, uint32(1), mem.Memory.Pages())
}

func TestInstantiateMissingModule(t *testing.T) {
	h := New()
	m := &wasm.Module{
		Imports: []wasm.Import{{Module: "env", Name: "missing", Kind: wasm.ExternKindFunc}},
	}
	_, err := h.Instantiate("m", m)
	require.Error(t, err)
	require.Equal(t, wasm.ErrModuleNotFound, err.Kind)
}

func TestInstantiateExportNotFound(t *testing.T) {
	h := New()
	h.Synthesize(NewModuleBuilder("env"))
	m := &wasm.Module{
		Imports: []wasm.Import{{Module: "env", Name: "missing", Kind: wasm.ExternKindFunc}},
	}
	_, err := h.Instantiate("m", m)
	require.Error(t, err)
	require.Equal(t, wasm.ErrExportNotFound, err.Kind)
}

func TestInstantiateExportTypeMismatch(t *testing.T) {
	h := New()
	h.Synthesize(NewModuleBuilder("env").WithMemory("thing", 1, 1, true))
	m := &wasm.Module{
		Imports: []wasm.Import{{Module: "env", Name: "thing", Kind: wasm.ExternKindFunc}},
	}
	_, err := h.Instantiate("m", m)
	require.Error(t, err)
	require.Equal(t, wasm.ErrExportTypeMismatch, err.Kind)
}

func TestInstantiateSimpleAddFunction(t *testing.T) {
	h := New()
	addI32 := wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}, Results: []wasm.ValType{wasm.I32}}
	m := &wasm.Module{
		Types: []wasm.FuncType{addI32},
		Funcs: []uint32{0},
		Code: []wasm.Code{{
			Body: wasm.Expr{
				{Opcode: wasm.OpLocalGet, Index: 0},
				{Opcode: wasm.OpLocalGet, Index: 1},
				{Opcode: wasm.OpI32Add},
			},
		}},
		Exports: []wasm.Export{{Name: "add", Kind: wasm.ExternKindFunc, Index: 0}},
	}
	addr, err := h.Instantiate("m", m)
	require.Nil(t, err)

	mod, _ := h.Module(addr)
	export, ok := mod.FindExport("add")
	require.True(t, ok)

	fn, ok := h.Func(export.Value.Func)
	require.True(t, ok)
	require.Equal(t, addr, fn.Module)
	require.Equal(t, FuncImplLocal, fn.ImplKind)
}

func TestInstantiateDataSegment(t *testing.T) {
	h := New()
	h.Synthesize(NewModuleBuilder("env").WithMemory("memory", 1, 1, true))
	m := &wasm.Module{
		Imports: []wasm.Import{{Module: "env", Name: "memory", Kind: wasm.ExternKindMemory}},
		Data: []wasm.DataSegment{{
			MemIndex: 0,
			Offset:   wasm.Expr{{Opcode: wasm.OpI32Const, Const: wasm.ValueI32(16)}},
			Init:     []byte("hi"),
		}},
	}
	addr, err := h.Instantiate("m", m)
	require.Nil(t, err)

	mod, _ := h.Module(addr)
	mem, ok := h.Mem(mod.Mems[0])
	require.True(t, ok)
	bs := mem.Memory.Bytes()
	require.Equal(t, byte(0x68), bs[16])
	require.Equal(t, byte(0x69), bs[17])
	require.Equal(t, byte(0), bs[15])
	require.Equal(t, byte(0), bs[18])
}

func TestInstantiateDataSegmentOutOfBounds(t *testing.T) {
	h := New()
	h.Synthesize(NewModuleBuilder("env").WithMemory("memory", 1, 1, true))
	m := &wasm.Module{
		Imports: []wasm.Import{{Module: "env", Name: "memory", Kind: wasm.ExternKindMemory}},
		Data: []wasm.DataSegment{{
			MemIndex: 0,
			Offset:   wasm.Expr{{Opcode: wasm.OpI32Const, Const: wasm.ValueI32(65530)}},
			Init:     []byte("too long for one page"),
		}},
	}
	_, err := h.Instantiate("m", m)
	require.Error(t, err)
	require.Equal(t, wasm.ErrInvalidModule, err.Kind)
}

func TestEvalExprRejectsNonConst(t *testing.T) {
	h := New()
	_, err := h.EvalExpr(wasm.Expr{{Opcode: wasm.OpNop}})
	require.Error(t, err)
}
