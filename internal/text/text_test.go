package text

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmforge/wasmforge/internal/wasm"
)

func TestParseModuleAddExport(t *testing.T) {
	src := `(module
		(func $add (export "add") (param $a i32) (param $b i32) (result i32)
			get_local $a get_local $b i32.add))`
	m, err := ParseModule(src)
	require.NoError(t, err)
	require.Len(t, m.Types, 1)
	require.Equal(t, []wasm.ValType{wasm.I32, wasm.I32}, m.Types[0].Params)
	require.Equal(t, []wasm.ValType{wasm.I32}, m.Types[0].Results)
	require.Len(t, m.Exports, 1)
	require.Equal(t, "add", m.Exports[0].Name)
	require.Equal(t, wasm.Expr{
		{Opcode: wasm.OpLocalGet, Index: 0},
		{Opcode: wasm.OpLocalGet, Index: 1},
		{Opcode: wasm.OpI32Add},
		{Opcode: wasm.OpEnd},
	}, m.Code[0].Body)
}

func TestParseModuleWithCall(t *testing.T) {
	src := `(module
		(func $helper (result i32) i32.const 1)
		(func $main (export "main") (result i32)
			call $helper i32.const 2 i32.add))`
	m, err := ParseModule(src)
	require.NoError(t, err)
	require.Len(t, m.Funcs, 2)
	require.Equal(t, wasm.Expr{
		{Opcode: wasm.OpCall, Index: 0},
		{Opcode: wasm.OpI32Const, Const: wasm.ValueI32(2)},
		{Opcode: wasm.OpI32Add},
		{Opcode: wasm.OpEnd},
	}, m.Code[1].Body)
}

func TestParseModuleImportOrderingPrecedesLocals(t *testing.T) {
	src := `(module
		(func $main (export "main") (result i32) call $env_fn)
		(import "env" "env_fn" (func $env_fn (result i32))))`
	m, err := ParseModule(src)
	require.NoError(t, err)
	require.Len(t, m.Imports, 1)
	// $env_fn is imported, so it must occupy index 0 regardless of where the
	// import form appears in the source text; $main (the only local
	// function) is index 1 and its call must resolve to 0.
	require.Equal(t, wasm.OpCall, m.Code[0].Body[0].Opcode)
	require.Equal(t, uint32(0), m.Code[0].Body[0].Index)
}

func TestParseScriptAssertions(t *testing.T) {
	src := `
		(module (func (export "add") (param i32 i32) (result i32)
			get_local 0 get_local 1 i32.add))
		(assert_return (invoke "add" (i32.const 1) (i32.const 2)) (i32.const 3))
		(assert_return (invoke "add" (i32.const 4294967295) (i32.const 1)) (i32.const 0))
	`
	sc, err := ParseScript(src)
	require.NoError(t, err)
	require.Len(t, sc.Commands, 3)

	mc, ok := sc.Commands[0].(ModuleCommand)
	require.True(t, ok)
	require.Len(t, mc.Module.Exports, 1)

	ar, ok := sc.Commands[1].(AssertReturn)
	require.True(t, ok)
	require.Equal(t, "add", ar.Action.Name)
	require.Len(t, ar.Action.Args, 2)
	require.NotNil(t, ar.Expected)
	v, _ := ar.Expected.I32()
	require.Equal(t, uint32(3), v)
}

func TestParseScriptAssertTrap(t *testing.T) {
	src := `
		(module (func (export "div") (param i32 i32) (result i32)
			get_local 0 get_local 1 i32.div_s))
		(assert_trap (invoke "div" (i32.const 1) (i32.const 0)) "integer divide by zero")
	`
	sc, err := ParseScript(src)
	require.NoError(t, err)
	require.Len(t, sc.Commands, 2)
	at, ok := sc.Commands[1].(AssertTrap)
	require.True(t, ok)
	require.Equal(t, "integer divide by zero", at.Message)
}

func TestTokenizeComments(t *testing.T) {
	toks, err := tokenize("(; a block comment ;) (foo ;; line comment\n bar)")
	require.NoError(t, err)
	require.Len(t, toks, 4) // ( foo bar )
}

func TestParseModuleBlockAndBranch(t *testing.T) {
	src := `(module (func (export "f") (result i32)
		(block (result i32)
			i32.const 1
			br 0
			i32.const 2)))`
	m, err := ParseModule(src)
	require.NoError(t, err)
	body := m.Code[0].Body
	require.Equal(t, wasm.OpBlock, body[0].Opcode)
	require.Equal(t, wasm.I32, body[0].BlockType)
}
