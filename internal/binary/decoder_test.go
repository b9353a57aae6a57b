package binary

import (
	"bytes"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

func section(id byte, body []byte) []byte {
	out := []byte{id}
	out = append(out, leb128.EncodeUint32(uint32(len(body)))...)
	return append(out, body...)
}

func name(s string) []byte {
	return append(leb128.EncodeUint32(uint32(len(s))), []byte(s)...)
}

// buildAddModule assembles, byte by byte using the same leb128 encoder the
// decoder itself is tested against elsewhere, a minimal module exporting a
// single function `add(i32, i32) -> i32`.
func buildAddModule(t *testing.T) []byte {
	t.Helper()
	out := []byte{0x00, 0x61, 0x73, 0x6d, 0x01, 0x00, 0x00, 0x00}

	typeBody := append([]byte{}, leb128.EncodeUint32(1)...)
	typeBody = append(typeBody, 0x60, 0x02, byte(wasm.I32), byte(wasm.I32), 0x01, byte(wasm.I32))
	out = append(out, section(secType, typeBody)...)

	funcBody := append([]byte{}, leb128.EncodeUint32(1)...)
	funcBody = append(funcBody, leb128.EncodeUint32(0)...)
	out = append(out, section(secFunction, funcBody)...)

	exportBody := append([]byte{}, leb128.EncodeUint32(1)...)
	exportBody = append(exportBody, name("add")...)
	exportBody = append(exportBody, byte(wasm.ExternKindFunc))
	exportBody = append(exportBody, leb128.EncodeUint32(0)...)
	out = append(out, section(secExport, exportBody)...)

	fnBytes := []byte{0x00} // zero local-declaration groups
	fnBytes = append(fnBytes, byte(wasm.OpLocalGet), 0x00)
	fnBytes = append(fnBytes, byte(wasm.OpLocalGet), 0x01)
	fnBytes = append(fnBytes, byte(wasm.OpI32Add))
	fnBytes = append(fnBytes, byte(wasm.OpEnd))

	codeBody := append([]byte{}, leb128.EncodeUint32(1)...)
	codeBody = append(codeBody, leb128.EncodeUint32(uint32(len(fnBytes)))...)
	codeBody = append(codeBody, fnBytes...)
	out = append(out, section(secCode, codeBody)...)

	return out
}

func TestDecodeAddModule(t *testing.T) {
	m, err := Decode(buildAddModule(t))
	require.NoError(t, err)
	require.Len(t, m.Types, 1)
	require.Equal(t, []wasm.ValType{wasm.I32, wasm.I32}, m.Types[0].Params)
	require.Equal(t, []wasm.ValType{wasm.I32}, m.Types[0].Results)
	require.Equal(t, []uint32{0}, m.Funcs)
	require.Len(t, m.Exports, 1)
	require.Equal(t, "add", m.Exports[0].Name)
	require.Len(t, m.Code, 1)
	require.Equal(t, wasm.Expr{
		{Opcode: wasm.OpLocalGet, Index: 0},
		{Opcode: wasm.OpLocalGet, Index: 1},
		{Opcode: wasm.OpI32Add},
		{Opcode: wasm.OpEnd},
	}, m.Code[0].Body)
}

func TestDecodeRejectsBadMagic(t *testing.T) {
	_, err := Decode([]byte{0, 0, 0, 0, 1, 0, 0, 0})
	require.Error(t, err)
}

func TestDecodeRejectsUnsupportedVersion(t *testing.T) {
	_, err := Decode([]byte{0x00, 0x61, 0x73, 0x6d, 0x02, 0x00, 0x00, 0x00})
	require.Error(t, err)
	werr, ok := err.(*wasm.Error)
	require.True(t, ok)
	require.Equal(t, wasm.ErrUnsupportedVersion, werr.Kind)
}

func TestDecodeIfElseBlock(t *testing.T) {
	body := []byte{
		byte(wasm.OpLocalGet), 0x00,
		byte(wasm.OpIf), byte(wasm.I32),
		byte(wasm.OpI32Const), 0x01,
		byte(wasm.OpElse),
		byte(wasm.OpI32Const), 0x00,
		byte(wasm.OpEnd),
		byte(wasm.OpEnd),
	}
	d := &decoder{r: bytes.NewReader(body)}
	expr, err := d.expr()
	require.NoError(t, err)
	require.Len(t, expr, 7)
	require.Equal(t, wasm.OpIf, expr[1].Opcode)
	require.Equal(t, wasm.I32, expr[1].BlockType)
	require.Equal(t, wasm.OpElse, expr[3].Opcode)
}
