package interp

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmforge/wasmforge/internal/host"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

func addModule(t *testing.T) (*host.Host, host.FuncAddr) {
	t.Helper()
	h := host.New()
	addType := wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}, Results: []wasm.ValType{wasm.I32}}
	m := &wasm.Module{
		Types: []wasm.FuncType{addType},
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
	return h, export.Value.Func
}

func TestInvokeAdd(t *testing.T) {
	h, fn := addModule(t)
	th := NewThread()
	results, trap := th.Invoke(h, fn, []wasm.Value{wasm.ValueI32(2), wasm.ValueI32(3)})
	require.Nil(t, trap)
	require.Len(t, results, 1)
	v, _ := results[0].I32()
	require.Equal(t, uint32(5), v)
}

func TestInvokeArityMismatch(t *testing.T) {
	h, fn := addModule(t)
	th := NewThread()
	_, trap := th.Invoke(h, fn, []wasm.Value{wasm.ValueI32(2)})
	require.NotNil(t, trap)
	require.Equal(t, host.CauseCallArityMismatch, trap.Cause)
}

func TestDivideByZeroTraps(t *testing.T) {
	h := host.New()
	divType := wasm.FuncType{Params: []wasm.ValType{wasm.I32, wasm.I32}, Results: []wasm.ValType{wasm.I32}}
	m := &wasm.Module{
		Types: []wasm.FuncType{divType},
		Funcs: []uint32{0},
		Code: []wasm.Code{{
			Body: wasm.Expr{
				{Opcode: wasm.OpLocalGet, Index: 0},
				{Opcode: wasm.OpLocalGet, Index: 1},
				{Opcode: wasm.OpI32DivS},
			},
		}},
		Exports: []wasm.Export{{Name: "div", Kind: wasm.ExternKindFunc, Index: 0}},
	}
	addr, err := h.Instantiate("m", m)
	require.Nil(t, err)
	mod, _ := h.Module(addr)
	export, _ := mod.FindExport("div")

	th := NewThread()
	_, trap := th.Invoke(h, export.Value.Func, []wasm.Value{wasm.ValueI32(1), wasm.ValueI32(0)})
	require.NotNil(t, trap)
	require.Equal(t, host.CauseIntegerDivideByZero, trap.Cause)
	require.NotEmpty(t, trap.Trace)
}

// TestLoopSumsToTen runs a loop that accumulates a running total in local 1
// by repeatedly branching back to the loop head while decrementing a
// countdown in local 0, exercising br_if-driven loop control flow end to
// end (spec.md §9, Open Question 1).
func TestLoopSumsToTen(t *testing.T) {
	h := host.New()
	fnType := wasm.FuncType{Params: []wasm.ValType{}, Results: []wasm.ValType{wasm.I32}}
	// locals: 0 = countdown (starts 4), 1 = accumulator (starts 0)
	body := wasm.Expr{
		{Opcode: wasm.OpI32Const, Const: wasm.ValueI32(4)},
		{Opcode: wasm.OpLocalSet, Index: 0},
		{Opcode: wasm.OpLoop, BlockType: wasm.BlockVoid},
		{Opcode: wasm.OpLocalGet, Index: 1},
		{Opcode: wasm.OpLocalGet, Index: 0},
		{Opcode: wasm.OpI32Add},
		{Opcode: wasm.OpLocalSet, Index: 1},
		{Opcode: wasm.OpLocalGet, Index: 0},
		{Opcode: wasm.OpI32Const, Const: wasm.ValueI32(1)},
		{Opcode: wasm.OpI32Sub},
		{Opcode: wasm.OpLocalTee, Index: 0},
		{Opcode: wasm.OpBrIf, Index: 0},
		{Opcode: wasm.OpEnd},
		{Opcode: wasm.OpLocalGet, Index: 1},
	}
	m := &wasm.Module{
		Types: []wasm.FuncType{fnType},
		Funcs: []uint32{0},
		Code:  []wasm.Code{{Locals: []wasm.ValType{wasm.I32, wasm.I32}, Body: body}},
		Exports: []wasm.Export{{Name: "sum", Kind: wasm.ExternKindFunc, Index: 0}},
	}
	addr, err := h.Instantiate("m", m)
	require.Nil(t, err)
	mod, _ := h.Module(addr)
	export, _ := mod.FindExport("sum")

	th := NewThread()
	results, trap := th.Invoke(h, export.Value.Func, nil)
	require.Nil(t, trap)
	v, _ := results[0].I32()
	require.Equal(t, uint32(4+3+2+1), v)
}

func TestMemoryStoreThenLoad(t *testing.T) {
	h := host.New()
	h.Synthesize(host.NewModuleBuilder("env").WithMemory("memory", 1, 1, true))
	fnType := wasm.FuncType{Results: []wasm.ValType{wasm.I32}}
	m := &wasm.Module{
		Types:   []wasm.FuncType{fnType},
		Funcs:   []uint32{0},
		Imports: []wasm.Import{{Module: "env", Name: "memory", Kind: wasm.ExternKindMemory}},
		Code: []wasm.Code{{
			Body: wasm.Expr{
				{Opcode: wasm.OpI32Const, Const: wasm.ValueI32(8)},
				{Opcode: wasm.OpI32Const, Const: wasm.ValueI32(42)},
				{Opcode: wasm.OpI32Store, MemArg: wasm.MemArg{Offset: 0}},
				{Opcode: wasm.OpI32Const, Const: wasm.ValueI32(8)},
				{Opcode: wasm.OpI32Load, MemArg: wasm.MemArg{Offset: 0}},
			},
		}},
		Exports: []wasm.Export{{Name: "run", Kind: wasm.ExternKindFunc, Index: 0}},
	}
	addr, err := h.Instantiate("m", m)
	require.Nil(t, err)
	mod, _ := h.Module(addr)
	export, _ := mod.FindExport("run")

	th := NewThread()
	results, trap := th.Invoke(h, export.Value.Func, nil)
	require.Nil(t, trap)
	v, _ := results[0].I32()
	require.Equal(t, uint32(42), v)
}
