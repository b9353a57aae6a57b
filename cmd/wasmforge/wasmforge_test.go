package main

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// buildAddWasm hand-assembles a minimal binary module exporting
// `add(i32, i32) -> i32`, mirroring internal/binary's own decoder test so
// the CLI tests don't depend on an encoder this engine doesn't build.
func buildAddWasm(t *testing.T) string {
	t.Helper()
	sec := func(id byte, body []byte) []byte {
		out := []byte{id}
		out = append(out, leb128.EncodeUint32(uint32(len(body)))...)
		return append(out, body...)
	}
	name := func(s string) []byte {
		return append(leb128.EncodeUint32(uint32(len(s))), []byte(s)...)
	}

	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	typeBody := append([]byte{}, leb128.EncodeUint32(1)...)
	typeBody = append(typeBody, 0x60, 0x02, byte(wasm.I32), byte(wasm.I32), 0x01, byte(wasm.I32))
	out = append(out, sec(1, typeBody)...)

	funcBody := append([]byte{}, leb128.EncodeUint32(1)...)
	funcBody = append(funcBody, leb128.EncodeUint32(0)...)
	out = append(out, sec(3, funcBody)...)

	exportBody := append([]byte{}, leb128.EncodeUint32(1)...)
	exportBody = append(exportBody, name("add")...)
	exportBody = append(exportBody, byte(wasm.ExternKindFunc))
	exportBody = append(exportBody, leb128.EncodeUint32(0)...)
	out = append(out, sec(7, exportBody)...)

	fnBytes := []byte{0x00, byte(wasm.OpLocalGet), 0x00, byte(wasm.OpLocalGet), 0x01, byte(wasm.OpI32Add), byte(wasm.OpEnd)}
	codeBody := append([]byte{}, leb128.EncodeUint32(1)...)
	codeBody = append(codeBody, leb128.EncodeUint32(uint32(len(fnBytes)))...)
	codeBody = append(codeBody, fnBytes...)
	out = append(out, sec(10, codeBody)...)

	path := filepath.Join(t.TempDir(), "add.wasm")
	require.NoError(t, os.WriteFile(path, out, 0o644))
	return path
}

func TestDumpCommand(t *testing.T) {
	path := buildAddWasm(t)
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"dump", path})
	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "add")
}

func TestInitCommand(t *testing.T) {
	path := buildAddWasm(t)
	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"init", path})
	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "add")
}

func TestWastrunCommand(t *testing.T) {
	src := `
		(module (func (export "add") (param i32 i32) (result i32)
			get_local 0 get_local 1 i32.add))
		(assert_return (invoke "add" (i32.const 1) (i32.const 2)) (i32.const 3))
	`
	path := filepath.Join(t.TempDir(), "add.wast")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"wastrun", path})
	require.NoError(t, cmd.Execute())
	require.Contains(t, buf.String(), "succeeded")
}

func TestWastrunCommandReportsFailure(t *testing.T) {
	src := `
		(module (func (export "add") (param i32 i32) (result i32)
			get_local 0 get_local 1 i32.add))
		(assert_return (invoke "add" (i32.const 1) (i32.const 2)) (i32.const 4))
	`
	path := filepath.Join(t.TempDir(), "add.wast")
	require.NoError(t, os.WriteFile(path, []byte(src), 0o644))

	var buf bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&buf)
	cmd.SetArgs([]string{"wastrun", path})
	require.Error(t, cmd.Execute())
	require.Contains(t, buf.String(), "failed")
}
