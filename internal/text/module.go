package text

import (
	"fmt"
	"strings"

	"github.com/wasmforge/wasmforge/internal/wasm"
)

// funcDecl is the parser's working model of one `(func ...)` form before
// it's folded into the final wasm.Module — kept separate so a function can
// reference another function (by $name, in `call`) defined later in the
// same module.
type funcDecl struct {
	name      string
	typ       wasm.FuncType
	localVars []wasm.ValType // params ++ declared locals, for $name lookup
	localName map[string]uint32
	body      []Sexpr // raw flat instruction atoms/lists, not yet resolved
	exportAs  string
	imported  bool
	importMod string
	importNm  string
}

// ParseModule parses a single top-level `(module ...)` form into a
// wasm.Module. It implements the flat, unfolded instruction style spec.md's
// own scenarios use (`get_local 0 get_local 1 i32.add`), not the fully
// parenthesized/folded WAT surface.
func ParseModule(src string) (*wasm.Module, error) {
	forms, err := ParseAll(src)
	if err != nil {
		return nil, err
	}
	if len(forms) != 1 || forms[0].Head() != "module" {
		return nil, &parseError{message: "expected a single (module ...) form"}
	}
	return parseModuleForm(forms[0])
}

func parseModuleForm(m Sexpr) (*wasm.Module, error) {
	mod := &wasm.Module{}
	funcsByName := map[string]uint32{}
	var importFuncs []*funcDecl
	var localFuncs []*funcDecl
	var memories []wasm.MemoryType
	var memImported bool
	var memName string
	var pendingExports []wasm.Export
	var dataSegs []Sexpr

	// First pass: collect declarations. The module-local function index
	// space always lists every imported function before any locally
	// defined one, regardless of their order in the source text, so
	// indices are assigned in a second pass once both buckets are known.
	for _, child := range m.List[1:] {
		switch child.Head() {
		case "func":
			fd, err := parseFuncHeader(child)
			if err != nil {
				return nil, err
			}
			localFuncs = append(localFuncs, fd)
		case "import":
			fd, mt, kind, nm, err := parseImport(child)
			if err != nil {
				return nil, err
			}
			switch kind {
			case wasm.ExternKindFunc:
				importFuncs = append(importFuncs, fd)
			case wasm.ExternKindMemory:
				memImported = true
				memName = nm
				memories = append(memories, mt)
			}
		case "memory":
			mt, err := parseMemory(child)
			if err != nil {
				return nil, err
			}
			memories = append(memories, mt)
		case "export":
			// Resolved below, once funcsByName is complete.
		case "data":
			dataSegs = append(dataSegs, child)
		default:
			return nil, &parseError{line: child.Line, message: fmt.Sprintf("unsupported module field %q", child.Head())}
		}
	}

	for i, fd := range importFuncs {
		if fd.name != "" {
			funcsByName[fd.name] = uint32(i)
		}
	}
	base := uint32(len(importFuncs))
	for i, fd := range localFuncs {
		idx := base + uint32(i)
		if fd.name != "" {
			funcsByName[fd.name] = idx
		}
		if fd.exportAs != "" {
			pendingExports = append(pendingExports, wasm.Export{Name: fd.exportAs, Kind: wasm.ExternKindFunc, Index: idx})
		}
	}
	for _, child := range m.List[1:] {
		if child.Head() != "export" {
			continue
		}
		exp, err := parseTopExport(child, funcsByName)
		if err != nil {
			return nil, err
		}
		pendingExports = append(pendingExports, exp)
	}

	for _, fd := range importFuncs {
		mod.Imports = append(mod.Imports, wasm.Import{
			Module: fd.importMod, Name: fd.importNm, Kind: wasm.ExternKindFunc,
			DescFuncTypeIdx: addType(mod, fd.typ),
		})
	}
	for _, fd := range localFuncs {
		typeIdx := addType(mod, fd.typ)
		body, err := resolveBody(fd, funcsByName)
		if err != nil {
			return nil, err
		}
		mod.Funcs = append(mod.Funcs, typeIdx)
		mod.Code = append(mod.Code, wasm.Code{Locals: fd.localVars[len(fd.typ.Params):], Body: body})
	}

	if memImported {
		mod.Imports = append(mod.Imports, wasm.Import{Module: "env", Name: memName, Kind: wasm.ExternKindMemory, DescMemory: memories[0]})
	} else if len(memories) > 0 {
		mod.MemorySecs = append(mod.MemorySecs, memories...)
	}

	for _, d := range dataSegs {
		seg, err := parseData(d)
		if err != nil {
			return nil, err
		}
		mod.Data = append(mod.Data, seg)
	}

	mod.Exports = append(mod.Exports, pendingExports...)
	return mod, nil
}

func addType(mod *wasm.Module, ft wasm.FuncType) uint32 {
	for i, t := range mod.Types {
		if t.Equal(ft) {
			return uint32(i)
		}
	}
	mod.Types = append(mod.Types, ft)
	return uint32(len(mod.Types) - 1)
}

func parseFuncHeader(f Sexpr) (*funcDecl, error) {
	fd := &funcDecl{localName: map[string]uint32{}}
	i := 1
	items := f.List
	if i < len(items) && strings.HasPrefix(items[i].Atom, "$") {
		fd.name = items[i].Atom
		i++
	}
	for i < len(items) {
		c := items[i]
		switch c.Head() {
		case "export":
			if len(c.List) < 2 {
				return nil, &parseError{line: c.Line, message: "export needs a name"}
			}
			fd.exportAs = c.List[1].Atom
			i++
		case "param":
			rest := c.List[1:]
			if len(rest) == 2 && strings.HasPrefix(rest[0].Atom, "$") {
				// Named form: (param $a i32) — exactly one parameter.
				vt, ok := valType(rest[1].Atom)
				if !ok {
					return nil, &parseError{line: rest[1].Line, message: fmt.Sprintf("bad param type %q", rest[1].Atom)}
				}
				fd.localName[rest[0].Atom] = uint32(len(fd.localVars))
				fd.typ.Params = append(fd.typ.Params, vt)
				fd.localVars = append(fd.localVars, vt)
			} else {
				for _, t := range rest {
					vt, ok := valType(t.Atom)
					if !ok {
						return nil, &parseError{line: t.Line, message: fmt.Sprintf("bad param type %q", t.Atom)}
					}
					fd.typ.Params = append(fd.typ.Params, vt)
					fd.localVars = append(fd.localVars, vt)
				}
			}
			i++
		case "result":
			for _, t := range c.List[1:] {
				vt, ok := valType(t.Atom)
				if !ok {
					return nil, &parseError{line: t.Line, message: fmt.Sprintf("bad result type %q", t.Atom)}
				}
				fd.typ.Results = append(fd.typ.Results, vt)
			}
			i++
		case "local":
			items2 := c.List[1:]
			if len(items2) > 0 && strings.HasPrefix(items2[0].Atom, "$") {
				vt, ok := valType(items2[1].Atom)
				if !ok {
					return nil, &parseError{line: c.Line, message: "bad local type"}
				}
				fd.localName[items2[0].Atom] = uint32(len(fd.localVars))
				fd.localVars = append(fd.localVars, vt)
			} else {
				for _, t := range items2 {
					vt, ok := valType(t.Atom)
					if !ok {
						return nil, &parseError{line: t.Line, message: fmt.Sprintf("bad local type %q", t.Atom)}
					}
					fd.localVars = append(fd.localVars, vt)
				}
			}
			i++
		default:
			// Reached the instruction sequence: everything remaining is body.
			fd.body = items[i:]
			return fd, nil
		}
	}
	return fd, nil
}

func parseImport(f Sexpr) (*funcDecl, wasm.MemoryType, wasm.ExternKind, string, error) {
	items := f.List
	if len(items) < 4 {
		return nil, wasm.MemoryType{}, 0, "", &parseError{line: f.Line, message: "malformed import"}
	}
	modName := items[1].Atom
	fieldName := items[2].Atom
	desc := items[3]
	switch desc.Head() {
	case "func":
		fd, err := parseFuncHeader(desc)
		if err != nil {
			return nil, wasm.MemoryType{}, 0, "", err
		}
		fd.imported = true
		fd.importMod = modName
		fd.importNm = fieldName
		return fd, wasm.MemoryType{}, wasm.ExternKindFunc, fieldName, nil
	case "memory":
		mt, err := parseMemory(desc)
		if err != nil {
			return nil, wasm.MemoryType{}, 0, "", err
		}
		return nil, mt, wasm.ExternKindMemory, fieldName, nil
	default:
		return nil, wasm.MemoryType{}, 0, "", &parseError{line: desc.Line, message: fmt.Sprintf("unsupported import kind %q", desc.Head())}
	}
}

func parseMemory(m Sexpr) (wasm.MemoryType, error) {
	items := m.List[1:]
	if len(items) == 0 {
		return wasm.MemoryType{}, &parseError{line: m.Line, message: "memory needs a min limit"}
	}
	minV, err := parseI64(items[0].Atom)
	if err != nil {
		return wasm.MemoryType{}, err
	}
	lim := wasm.Limits{Min: uint32(minV)}
	if len(items) > 1 {
		maxV, err := parseI64(items[1].Atom)
		if err != nil {
			return wasm.MemoryType{}, err
		}
		lim.Max = uint32(maxV)
		lim.HasMax = true
	}
	return wasm.MemoryType{Limits: lim}, nil
}

func parseTopExport(e Sexpr, funcsByName map[string]uint32) (wasm.Export, error) {
	items := e.List[1:]
	if len(items) < 2 {
		return wasm.Export{}, &parseError{line: e.Line, message: "malformed export"}
	}
	exportName := items[0].Atom
	ref := items[1]
	switch ref.Head() {
	case "func":
		target := ref.List[1].Atom
		idx, ok := funcsByName[target]
		if !ok {
			idxV, err := parseI64(target)
			if err != nil {
				return wasm.Export{}, &parseError{line: ref.Line, message: fmt.Sprintf("unknown function %q", target)}
			}
			idx = uint32(idxV)
		}
		return wasm.Export{Name: exportName, Kind: wasm.ExternKindFunc, Index: idx}, nil
	default:
		return wasm.Export{}, &parseError{line: ref.Line, message: fmt.Sprintf("unsupported export kind %q", ref.Head())}
	}
}

func parseData(d Sexpr) (wasm.DataSegment, error) {
	items := d.List[1:]
	if len(items) < 2 {
		return wasm.DataSegment{}, &parseError{line: d.Line, message: "malformed data segment"}
	}
	offsetExpr, err := parseConstOffset(items[0])
	if err != nil {
		return wasm.DataSegment{}, err
	}
	return wasm.DataSegment{Offset: offsetExpr, Init: []byte(items[1].Atom)}, nil
}

func parseConstOffset(s Sexpr) (wasm.Expr, error) {
	if s.Head() != "i32.const" || len(s.List) < 2 {
		return nil, &parseError{line: s.Line, message: "data offset must be (i32.const N)"}
	}
	v, err := parseI64(s.List[1].Atom)
	if err != nil {
		return nil, err
	}
	return wasm.Expr{{Opcode: wasm.OpI32Const, Const: wasm.ValueI32(uint32(v))}}, nil
}
