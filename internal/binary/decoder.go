// Package binary decodes the WebAssembly v1 binary module format into an
// internal/wasm.Module: the preamble, the standard sections this engine
// cares about (Type, Import, Function, Memory, Export, Code, Data) and the
// custom "name" section. Grounded on the reference implementation's
// src/binary/*.rs section-by-section reader, expressed as a single
// bytes.Reader-driven decoder the way the teacher's own binary package
// reads a module in one pass (internal/wasm/binary, now superseded here).
package binary

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"
	"math"

	"github.com/wasmforge/wasmforge/internal/leb128"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

const (
	magic   = 0x6d736100 // "\0asm"
	version = uint32(1)

	secCustom   = 0
	secType     = 1
	secImport   = 2
	secFunction = 3
	secTable    = 4
	secMemory   = 5
	secGlobal   = 6
	secExport   = 7
	secStart    = 8
	secElement  = 9
	secCode     = 10
	secData     = 11
)

type decoder struct {
	r *bytes.Reader
}

// Decode parses a complete binary module image.
func Decode(data []byte) (*wasm.Module, error) {
	d := &decoder{r: bytes.NewReader(data)}
	if err := d.preamble(); err != nil {
		return nil, err
	}

	m := &wasm.Module{}
	var funcTypeIdxs []uint32
	var codes []wasm.Code

	for d.r.Len() > 0 {
		id, err := d.u8()
		if err != nil {
			return nil, wasm.ErrorIO(err.Error())
		}
		size, _, err := leb128.DecodeUint32(d.r)
		if err != nil {
			return nil, wasm.ErrorIO(err.Error())
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(d.r, body); err != nil {
			return nil, wasm.ErrorIO(err.Error())
		}
		sec := &decoder{r: bytes.NewReader(body)}

		switch id {
		case secType:
			types, err := sec.typeSection()
			if err != nil {
				return nil, err
			}
			m.Types = types
		case secImport:
			imports, err := sec.importSection()
			if err != nil {
				return nil, err
			}
			m.Imports = imports
		case secFunction:
			idxs, err := sec.functionSection()
			if err != nil {
				return nil, err
			}
			funcTypeIdxs = idxs
		case secMemory:
			mems, err := sec.memorySection()
			if err != nil {
				return nil, err
			}
			m.MemorySecs = mems
		case secExport:
			exports, err := sec.exportSection()
			if err != nil {
				return nil, err
			}
			m.Exports = exports
		case secCode:
			cs, err := sec.codeSection()
			if err != nil {
				return nil, err
			}
			codes = cs
		case secData:
			segs, err := sec.dataSection()
			if err != nil {
				return nil, err
			}
			m.Data = segs
		case secCustom:
			name, rest, err := sec.customName()
			if err != nil {
				return nil, err
			}
			if name == "name" {
				ns, err := decodeNameSection(rest)
				if err != nil {
					return nil, err
				}
				m.Names = ns
			}
		case secTable, secGlobal, secStart, secElement:
			// Decoded structurally (consumed as an opaque section) but
			// never resolved or executed — tables/globals/start/elem are
			// Non-goals of this engine (spec.md, Non-goals).
		default:
			return nil, wasm.ErrorInvalidModule(fmt.Sprintf("unknown section id %d", id))
		}
	}

	m.Funcs = funcTypeIdxs
	m.Code = codes
	return m, nil
}

func (d *decoder) preamble() error {
	var magicBuf [4]byte
	if _, err := io.ReadFull(d.r, magicBuf[:]); err != nil {
		return wasm.ErrorIO(err.Error())
	}
	if binary.LittleEndian.Uint32(magicBuf[:]) != magic {
		return wasm.ErrorInvalidModule("bad magic number")
	}
	var verBuf [4]byte
	if _, err := io.ReadFull(d.r, verBuf[:]); err != nil {
		return wasm.ErrorIO(err.Error())
	}
	v := binary.LittleEndian.Uint32(verBuf[:])
	if v != version {
		return wasm.ErrorUnsupportedVersion(v)
	}
	return nil
}

func (d *decoder) u8() (byte, error) { return d.r.ReadByte() }

func (d *decoder) u32() (uint32, error) {
	v, _, err := leb128.DecodeUint32(d.r)
	return v, err
}

func (d *decoder) i32() (int32, error) {
	v, _, err := leb128.DecodeInt32(d.r)
	return v, err
}

func (d *decoder) i64() (int64, error) {
	v, _, err := leb128.DecodeInt64(d.r)
	return v, err
}

func (d *decoder) f32() (float32, error) {
	var buf [4]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.LittleEndian.Uint32(buf[:])), nil
}

func (d *decoder) f64() (float64, error) {
	var buf [8]byte
	if _, err := io.ReadFull(d.r, buf[:]); err != nil {
		return 0, err
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(buf[:])), nil
}

func (d *decoder) name() (string, error) {
	n, err := d.u32()
	if err != nil {
		return "", err
	}
	buf := make([]byte, n)
	if _, err := io.ReadFull(d.r, buf); err != nil {
		return "", err
	}
	return string(buf), nil
}

func (d *decoder) valType() (wasm.ValType, error) {
	b, err := d.u8()
	return wasm.ValType(b), err
}

func (d *decoder) typeSection() ([]wasm.FuncType, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.FuncType, n)
	for i := range out {
		form, err := d.u8()
		if err != nil || form != 0x60 {
			return nil, wasm.ErrorInvalidModule("function type must start with 0x60")
		}
		pCount, err := d.u32()
		if err != nil {
			return nil, err
		}
		params := make([]wasm.ValType, pCount)
		for j := range params {
			if params[j], err = d.valType(); err != nil {
				return nil, err
			}
		}
		rCount, err := d.u32()
		if err != nil {
			return nil, err
		}
		results := make([]wasm.ValType, rCount)
		for j := range results {
			if results[j], err = d.valType(); err != nil {
				return nil, err
			}
		}
		out[i] = wasm.FuncType{Params: params, Results: results}
	}
	return out, nil
}

func (d *decoder) limits() (wasm.Limits, error) {
	flag, err := d.u8()
	if err != nil {
		return wasm.Limits{}, err
	}
	min, err := d.u32()
	if err != nil {
		return wasm.Limits{}, err
	}
	l := wasm.Limits{Min: min}
	if flag == 1 {
		max, err := d.u32()
		if err != nil {
			return wasm.Limits{}, err
		}
		l.Max, l.HasMax = max, true
	}
	return l, nil
}

func (d *decoder) importSection() ([]wasm.Import, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.Import, n)
	for i := range out {
		mod, err := d.name()
		if err != nil {
			return nil, err
		}
		nm, err := d.name()
		if err != nil {
			return nil, err
		}
		kind, err := d.u8()
		if err != nil {
			return nil, err
		}
		imp := wasm.Import{Module: mod, Name: nm, Kind: wasm.ExternKind(kind)}
		switch wasm.ExternKind(kind) {
		case wasm.ExternKindFunc:
			if imp.DescFuncTypeIdx, err = d.u32(); err != nil {
				return nil, err
			}
		case wasm.ExternKindMemory:
			lim, err := d.limits()
			if err != nil {
				return nil, err
			}
			imp.DescMemory = wasm.MemoryType{Limits: lim}
		case wasm.ExternKindTable:
			if _, err := d.u8(); err != nil { // elemtype
				return nil, err
			}
			if _, err := d.limits(); err != nil {
				return nil, err
			}
		case wasm.ExternKindGlobal:
			if _, err := d.valType(); err != nil {
				return nil, err
			}
			if _, err := d.u8(); err != nil { // mutability
				return nil, err
			}
		}
		out[i] = imp
	}
	return out, nil
}

func (d *decoder) functionSection() ([]uint32, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	out := make([]uint32, n)
	for i := range out {
		if out[i], err = d.u32(); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (d *decoder) memorySection() ([]wasm.MemoryType, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.MemoryType, n)
	for i := range out {
		lim, err := d.limits()
		if err != nil {
			return nil, err
		}
		out[i] = wasm.MemoryType{Limits: lim}
	}
	return out, nil
}

func (d *decoder) exportSection() ([]wasm.Export, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.Export, n)
	for i := range out {
		nm, err := d.name()
		if err != nil {
			return nil, err
		}
		kind, err := d.u8()
		if err != nil {
			return nil, err
		}
		idx, err := d.u32()
		if err != nil {
			return nil, err
		}
		out[i] = wasm.Export{Name: nm, Kind: wasm.ExternKind(kind), Index: idx}
	}
	return out, nil
}

func (d *decoder) codeSection() ([]wasm.Code, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.Code, n)
	for i := range out {
		size, err := d.u32()
		if err != nil {
			return nil, err
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(d.r, body); err != nil {
			return nil, err
		}
		fd := &decoder{r: bytes.NewReader(body)}
		localCount, err := fd.u32()
		if err != nil {
			return nil, err
		}
		var locals []wasm.ValType
		for j := uint32(0); j < localCount; j++ {
			cnt, err := fd.u32()
			if err != nil {
				return nil, err
			}
			vt, err := fd.valType()
			if err != nil {
				return nil, err
			}
			for k := uint32(0); k < cnt; k++ {
				locals = append(locals, vt)
			}
		}
		expr, err := fd.expr()
		if err != nil {
			return nil, err
		}
		out[i] = wasm.Code{Locals: locals, Body: expr}
	}
	return out, nil
}

func (d *decoder) dataSection() ([]wasm.DataSegment, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	out := make([]wasm.DataSegment, n)
	for i := range out {
		memIdx, err := d.u32()
		if err != nil {
			return nil, err
		}
		offset, err := d.expr()
		if err != nil {
			return nil, err
		}
		size, err := d.u32()
		if err != nil {
			return nil, err
		}
		init := make([]byte, size)
		if _, err := io.ReadFull(d.r, init); err != nil {
			return nil, err
		}
		out[i] = wasm.DataSegment{MemIndex: memIdx, Offset: offset, Init: init}
	}
	return out, nil
}

func (d *decoder) customName() (string, []byte, error) {
	nm, err := d.name()
	if err != nil {
		return "", nil, err
	}
	rest, err := io.ReadAll(d.r)
	if err != nil {
		return "", nil, err
	}
	return nm, rest, nil
}
