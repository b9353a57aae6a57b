package binary

import (
	"bytes"
	"io"

	"github.com/wasmforge/wasmforge/internal/wasm"
)

const (
	nameSubsecModule   = 0
	nameSubsecFunction = 1
	nameSubsecLocal    = 2
)

// decodeNameSection parses the custom "name" section's subsections: module
// name, function names, and per-function local names. Any subsection this
// engine doesn't otherwise need is skipped by length, not by shape, so a
// future subsection type never breaks decoding of the ones that matter.
func decodeNameSection(data []byte) (*wasm.NameSection, error) {
	ns := &wasm.NameSection{FunctionNames: wasm.NameMap{}, LocalNames: map[uint32]wasm.NameMap{}}
	d := &decoder{r: bytes.NewReader(data)}

	for d.r.Len() > 0 {
		id, err := d.u8()
		if err != nil {
			return nil, wasm.ErrorIO(err.Error())
		}
		size, err := d.u32()
		if err != nil {
			return nil, wasm.ErrorIO(err.Error())
		}
		body := make([]byte, size)
		if _, err := io.ReadFull(d.r, body); err != nil {
			return nil, wasm.ErrorIO(err.Error())
		}
		sub := &decoder{r: bytes.NewReader(body)}

		switch id {
		case nameSubsecModule:
			nm, err := sub.name()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			ns.ModuleName = nm
		case nameSubsecFunction:
			m, err := sub.nameMap()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			ns.FunctionNames = m
		case nameSubsecLocal:
			n, err := sub.u32()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			for i := uint32(0); i < n; i++ {
				funcIdx, err := sub.u32()
				if err != nil {
					return nil, wasm.ErrorIO(err.Error())
				}
				m, err := sub.nameMap()
				if err != nil {
					return nil, wasm.ErrorIO(err.Error())
				}
				ns.LocalNames[funcIdx] = m
			}
		}
		// Unknown subsection ids are simply not visited; `body` was already
		// fully consumed by the size-prefixed read above.
	}
	return ns, nil
}

func (d *decoder) nameMap() (wasm.NameMap, error) {
	n, err := d.u32()
	if err != nil {
		return nil, err
	}
	out := make(wasm.NameMap, n)
	for i := uint32(0); i < n; i++ {
		idx, err := d.u32()
		if err != nil {
			return nil, err
		}
		nm, err := d.name()
		if err != nil {
			return nil, err
		}
		out[idx] = nm
	}
	return out, nil
}
