package text

import (
	"fmt"

	"github.com/wasmforge/wasmforge/internal/wasm"
)

// resolveBody walks a function's flat instruction sequence (a mix of bare
// mnemonic atoms, like spec.md's own `get_local 0 get_local 1 i32.add`, and
// parenthesized `(block ...)`/`(loop ...)`/`(if ... (then ...) (else ...))`
// control forms) into a wasm.Expr, resolving every `$name` reference
// (local or function) against fd's own local table and the module-wide
// function name table.
func resolveBody(fd *funcDecl, funcsByName map[string]uint32) (wasm.Expr, error) {
	r := &bodyResolver{fd: fd, funcsByName: funcsByName}
	out, err := r.sequence(fd.body)
	if err != nil {
		return nil, err
	}
	out = append(out, wasm.Instruction{Opcode: wasm.OpEnd})
	return out, nil
}

type bodyResolver struct {
	fd          *funcDecl
	funcsByName map[string]uint32
}

func (r *bodyResolver) localIndex(tok string) (uint32, error) {
	if len(tok) > 0 && tok[0] == '$' {
		idx, ok := r.fd.localName[tok]
		if !ok {
			return 0, fmt.Errorf("unknown local %s", tok)
		}
		return idx, nil
	}
	v, err := parseI64(tok)
	return uint32(v), err
}

func (r *bodyResolver) funcIndex(tok string) (uint32, error) {
	if len(tok) > 0 && tok[0] == '$' {
		idx, ok := r.funcsByName[tok]
		if !ok {
			return 0, fmt.Errorf("unknown function %s", tok)
		}
		return idx, nil
	}
	v, err := parseI64(tok)
	return uint32(v), err
}

// sequence resolves a list of body items, which may themselves be bare
// atoms (an instruction mnemonic or its trailing immediate) or sub-lists
// (a nested control construct, folded-style).
func (r *bodyResolver) sequence(items []Sexpr) (wasm.Expr, error) {
	var out wasm.Expr
	for i := 0; i < len(items); i++ {
		it := items[i]
		if it.List != nil {
			insns, consumed, err := r.construct(items, i)
			if err != nil {
				return nil, err
			}
			out = append(out, insns...)
			i += consumed - 1
			continue
		}
		insns, consumed, err := r.atom(items, i)
		if err != nil {
			return nil, err
		}
		out = append(out, insns...)
		i += consumed - 1
	}
	return out, nil
}

// construct handles a parenthesized control form at items[i], returning its
// flattened instructions and how many top-level items it consumed (always
// 1, since the whole construct is one list node).
func (r *bodyResolver) construct(items []Sexpr, i int) (wasm.Expr, int, error) {
	s := items[i]
	switch s.Head() {
	case "block", "loop":
		isLoop := s.Head() == "loop"
		rest := s.List[1:]
		bt := wasm.BlockVoid
		if len(rest) > 0 && rest[0].Head() == "result" {
			vt, ok := valType(rest[0].List[1].Atom)
			if !ok {
				return nil, 0, fmt.Errorf("bad block result type")
			}
			bt = vt
			rest = rest[1:]
		}
		if len(rest) > 0 && len(rest[0].List) == 0 && len(rest[0].Atom) > 0 && rest[0].Atom[0] == '$' {
			rest = rest[1:] // a label name on the block itself; unused, just skip
		}
		body, err := r.sequence(rest)
		if err != nil {
			return nil, 0, err
		}
		op := wasm.OpBlock
		if isLoop {
			op = wasm.OpLoop
		}
		out := wasm.Expr{{Opcode: op, BlockType: bt}}
		out = append(out, body...)
		out = append(out, wasm.Instruction{Opcode: wasm.OpEnd})
		return out, 1, nil

	case "if":
		rest := s.List[1:]
		bt := wasm.BlockVoid
		if len(rest) > 0 && rest[0].Head() == "result" {
			vt, ok := valType(rest[0].List[1].Atom)
			if !ok {
				return nil, 0, fmt.Errorf("bad if result type")
			}
			bt = vt
			rest = rest[1:]
		}
		// The condition must already have been pushed by flat instructions
		// before this form; items other than (then ...) and (else ...) are
		// ignored, so a folded condition inside the form is not compiled.
		var thenItems, elseItems []Sexpr
		for _, c := range rest {
			switch c.Head() {
			case "then":
				thenItems = c.List[1:]
			case "else":
				elseItems = c.List[1:]
			}
		}
		thenBody, err := r.sequence(thenItems)
		if err != nil {
			return nil, 0, err
		}
		out := wasm.Expr{{Opcode: wasm.OpIf, BlockType: bt}}
		out = append(out, thenBody...)
		if elseItems != nil {
			elseBody, err := r.sequence(elseItems)
			if err != nil {
				return nil, 0, err
			}
			out = append(out, wasm.Instruction{Opcode: wasm.OpElse})
			out = append(out, elseBody...)
		}
		out = append(out, wasm.Instruction{Opcode: wasm.OpEnd})
		return out, 1, nil

	default:
		return nil, 0, fmt.Errorf("unsupported construct %q", s.Head())
	}
}

// atom resolves a single bare-token instruction starting at items[i],
// consuming any trailing immediate tokens it requires (an index, a
// constant, or a branch table's target list).
func (r *bodyResolver) atom(items []Sexpr, i int) (wasm.Expr, int, error) {
	tok := items[i].Atom
	op, ok := mnemonics[tok]
	if !ok {
		return nil, 0, fmt.Errorf("unknown instruction %q", tok)
	}
	insn := wasm.Instruction{Opcode: op}
	consumed := 1

	switch op {
	case wasm.OpLocalGet, wasm.OpLocalSet, wasm.OpLocalTee:
		idx, err := r.localIndex(items[i+1].Atom)
		if err != nil {
			return nil, 0, err
		}
		insn.Index = idx
		consumed = 2
	case wasm.OpCall:
		idx, err := r.funcIndex(items[i+1].Atom)
		if err != nil {
			return nil, 0, err
		}
		insn.Index = idx
		consumed = 2
	case wasm.OpBr, wasm.OpBrIf, wasm.OpGlobalGet, wasm.OpGlobalSet:
		v, err := parseI64(items[i+1].Atom)
		if err != nil {
			return nil, 0, err
		}
		insn.Index = uint32(v)
		consumed = 2
	case wasm.OpBrTable:
		j := i + 1
		var targets []uint32
		for j < len(items) {
			v, err := parseI64(items[j].Atom)
			if err != nil {
				break
			}
			targets = append(targets, uint32(v))
			j++
		}
		if len(targets) == 0 {
			return nil, 0, fmt.Errorf("br_table needs at least a default label")
		}
		insn.Index = targets[len(targets)-1]
		insn.Targets = targets[:len(targets)-1]
		consumed = j - i
	case wasm.OpI32Const:
		v, err := parseI64(items[i+1].Atom)
		if err != nil {
			return nil, 0, err
		}
		insn.Const = wasm.ValueI32(uint32(v))
		consumed = 2
	case wasm.OpI64Const:
		v, err := parseI64(items[i+1].Atom)
		if err != nil {
			return nil, 0, err
		}
		insn.Const = wasm.ValueI64(v)
		consumed = 2
	case wasm.OpF32Const:
		v, err := parseFloat(items[i+1].Atom, 32)
		if err != nil {
			return nil, 0, err
		}
		insn.Const = wasm.ValueF32(float32(v))
		consumed = 2
	case wasm.OpF64Const:
		v, err := parseFloat(items[i+1].Atom, 64)
		if err != nil {
			return nil, 0, err
		}
		insn.Const = wasm.ValueF64(v)
		consumed = 2
	default:
		if op >= wasm.OpI32Load && op <= wasm.OpI64Store32 {
			align, offset, n := parseMemArgTokens(items, i+1)
			insn.MemArg = wasm.MemArg{Align: align, Offset: offset}
			consumed = 1 + n
		}
	}
	return wasm.Expr{insn}, consumed, nil
}

// parseMemArgTokens consumes zero or more `offset=N`/`align=N` tokens
// following a load/store mnemonic.
func parseMemArgTokens(items []Sexpr, start int) (align, offset uint32, consumed int) {
	i := start
	for i < len(items) && items[i].List == nil {
		tok := items[i].Atom
		switch {
		case len(tok) > 7 && tok[:7] == "offset=":
			if v, err := parseI64(tok[7:]); err == nil {
				offset = uint32(v)
				i++
				continue
			}
		case len(tok) > 6 && tok[:6] == "align=":
			if v, err := parseI64(tok[6:]); err == nil {
				align = uint32(v)
				i++
				continue
			}
		}
		break
	}
	return align, offset, i - start
}
