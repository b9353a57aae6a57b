package binary

import (
	"io"

	"github.com/wasmforge/wasmforge/internal/wasm"
)

// expr decodes a flat instruction sequence up to and including its closing
// End, matching the binary format's own encoding: block/loop/if bodies are
// not length-prefixed, they simply nest further Opcode/End pairs, so the
// decoder tracks nesting depth the same way internal/interp's matchingEnd
// does at execution time.
func (d *decoder) expr() (wasm.Expr, error) {
	var out wasm.Expr
	depth := 0
	for {
		op, err := d.u8()
		if err == io.EOF {
			return nil, wasm.ErrorInvalidModule("expression missing final end")
		}
		if err != nil {
			return nil, wasm.ErrorIO(err.Error())
		}
		opcode := wasm.Opcode(op)
		insn := wasm.Instruction{Opcode: opcode}

		switch opcode {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			bt, err := d.u8()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			insn.BlockType = wasm.ValType(bt)
			depth++
		case wasm.OpElse:
			// No payload; depth unchanged (still inside the enclosing if).
		case wasm.OpEnd:
			out = append(out, insn)
			if depth == 0 {
				return out, nil
			}
			depth--
			continue

		case wasm.OpBr, wasm.OpBrIf, wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpLocalTee,
			wasm.OpGlobalGet, wasm.OpGlobalSet, wasm.OpCall:
			idx, err := d.u32()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			insn.Index = idx

		case wasm.OpCallIndirect:
			idx, err := d.u32()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			insn.Index = idx
			if _, err := d.u8(); err != nil { // reserved table index byte
				return nil, wasm.ErrorIO(err.Error())
			}

		case wasm.OpBrTable:
			n, err := d.u32()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			targets := make([]uint32, n)
			for i := range targets {
				if targets[i], err = d.u32(); err != nil {
					return nil, wasm.ErrorIO(err.Error())
				}
			}
			def, err := d.u32()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			insn.Targets = targets
			insn.Index = def

		case wasm.OpI32Const:
			v, err := d.i32()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			insn.Const = wasm.ValueI32(uint32(v))
		case wasm.OpI64Const:
			v, err := d.i64()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			insn.Const = wasm.ValueI64(uint64(v))
		case wasm.OpF32Const:
			v, err := d.f32()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			insn.Const = wasm.ValueF32(v)
		case wasm.OpF64Const:
			v, err := d.f64()
			if err != nil {
				return nil, wasm.ErrorIO(err.Error())
			}
			insn.Const = wasm.ValueF64(v)

		default:
			if hasMemArg(opcode) {
				align, err := d.u32()
				if err != nil {
					return nil, wasm.ErrorIO(err.Error())
				}
				offset, err := d.u32()
				if err != nil {
					return nil, wasm.ErrorIO(err.Error())
				}
				insn.MemArg = wasm.MemArg{Align: align, Offset: offset}
			} else if opcode == wasm.OpMemorySize || opcode == wasm.OpMemoryGrow {
				if _, err := d.u8(); err != nil { // reserved memory index byte
					return nil, wasm.ErrorIO(err.Error())
				}
			}
			// Every other opcode (unreachable/nop/drop/select, all
			// comparisons/arithmetic/conversions) has no immediate.
		}

		out = append(out, insn)
	}
}

func hasMemArg(op wasm.Opcode) bool {
	switch op {
	case wasm.OpI32Load, wasm.OpI64Load, wasm.OpF32Load, wasm.OpF64Load,
		wasm.OpI32Load8S, wasm.OpI32Load8U, wasm.OpI32Load16S, wasm.OpI32Load16U,
		wasm.OpI64Load8S, wasm.OpI64Load8U, wasm.OpI64Load16S, wasm.OpI64Load16U,
		wasm.OpI64Load32S, wasm.OpI64Load32U,
		wasm.OpI32Store, wasm.OpI64Store, wasm.OpF32Store, wasm.OpF64Store,
		wasm.OpI32Store8, wasm.OpI32Store16, wasm.OpI64Store8, wasm.OpI64Store16, wasm.OpI64Store32:
		return true
	default:
		return false
	}
}
