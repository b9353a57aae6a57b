// Package host implements the Wasm store (spec.md §4.3): append-only
// arenas of module/function/memory instances, import resolution, module
// instantiation (including data-segment initialization), and synthesized
// host modules. It is grounded on the reference implementation's
// src/runtime/host.rs, translated from an owned-arena-of-structs design to
// Go's idiomatic slice-of-pointers-with-index-addresses shape.
package host

import (
	"github.com/wasmforge/wasmforge/internal/memory"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// Host is the store: it owns three append-only arenas keyed by 1-based
// addresses, and is used from a single owning goroutine at a time
// (spec.md §5 — it carries no internal locking).
type Host struct {
	modules []*ModuleInst
	funcs   []*FuncInst
	mems    []*MemInst
}

// New returns an empty store.
func New() *Host {
	return &Host{}
}

// Module, Func and Mem dereference an address into the arena. They return
// false for the null address or one beyond the arena's current length;
// since arenas only grow, a false result once allocated never flips back.
func (h *Host) Module(addr ModuleAddr) (*ModuleInst, bool) {
	if addr.IsNull() || addr.index() >= len(h.modules) {
		return nil, false
	}
	return h.modules[addr.index()], true
}

func (h *Host) Func(addr FuncAddr) (*FuncInst, bool) {
	if addr.IsNull() || addr.index() >= len(h.funcs) {
		return nil, false
	}
	return h.funcs[addr.index()], true
}

func (h *Host) Mem(addr MemAddr) (*MemInst, bool) {
	if addr.IsNull() || addr.index() >= len(h.mems) {
		return nil, false
	}
	return h.mems[addr.index()], true
}

// Modules, Funcs and Mems iterate allocated addresses, oldest first.
func (h *Host) Modules() []ModuleAddr {
	out := make([]ModuleAddr, len(h.modules))
	for i := range h.modules {
		out[i] = ModuleAddr(i + 1)
	}
	return out
}

func (h *Host) Funcs() []FuncAddr {
	out := make([]FuncAddr, len(h.funcs))
	for i := range h.funcs {
		out[i] = FuncAddr(i + 1)
	}
	return out
}

func (h *Host) Mems() []MemAddr {
	out := make([]MemAddr, len(h.mems))
	for i := range h.mems {
		out[i] = MemAddr(i + 1)
	}
	return out
}

// FindModule returns the address of the most recently registered module
// named name, if any.
func (h *Host) FindModule(name string) (ModuleAddr, bool) {
	for i := len(h.modules) - 1; i >= 0; i-- {
		if h.modules[i].Name == name {
			return ModuleAddr(i + 1), true
		}
	}
	return 0, false
}

// ResolveImport looks up export name on the module registered at moduleAddr.
func (h *Host) ResolveImport(moduleAddr ModuleAddr, name string) (ExportInst, *wasm.Error) {
	mod, ok := h.Module(moduleAddr)
	if !ok {
		return ExportInst{}, wasm.ErrorModuleNotFound("")
	}
	if e, ok := mod.FindExport(name); ok {
		return e, nil
	}
	return ExportInst{}, wasm.ErrorExportNotFound(mod.Name, name)
}

// ResolveFunc and ResolveMem translate a module-local index into a host
// address, looking the index up in the instance's own funcs/mems vectors
// (which list every imported member first, in import order, followed by
// the locally defined ones, per spec.md §3's invariants).
func (h *Host) ResolveFunc(moduleAddr ModuleAddr, idx uint32) (FuncAddr, bool) {
	mod, ok := h.Module(moduleAddr)
	if !ok || int(idx) >= len(mod.Funcs) {
		return 0, false
	}
	return mod.Funcs[idx], true
}

func (h *Host) ResolveMem(moduleAddr ModuleAddr, idx uint32) (MemAddr, bool) {
	mod, ok := h.Module(moduleAddr)
	if !ok || int(idx) >= len(mod.Mems) {
		return 0, false
	}
	return mod.Mems[idx], true
}

// EvalExpr evaluates a module-scope constant expression. This engine only
// ever needs constant expressions for data-segment offsets, so the only
// legal shape is a single *.const instruction; anything else is a usage
// error rather than a trap (spec.md §4.3).
func (h *Host) EvalExpr(expr wasm.Expr) (wasm.Value, *wasm.Error) {
	if len(expr) != 1 {
		return wasm.ValueNil, wasm.ErrorInvalidModule("constant expression must be a single instruction")
	}
	insn := expr[0]
	switch insn.Opcode {
	case wasm.OpI32Const, wasm.OpI64Const, wasm.OpF32Const, wasm.OpF64Const:
		return insn.Const, nil
	default:
		return wasm.ValueNil, wasm.ErrorInvalidModule("constant expression must be a *.const instruction")
	}
}

// Synthesize registers a host-built module (spec.md §4.3): each declared
// function becomes a FuncInst{Synthetic} plus an ExportInst::Func, each
// declared memory becomes a fresh MemInst plus an ExportInst::Mem, and the
// module instance is appended.
func (h *Host) Synthesize(b *ModuleBuilder) ModuleAddr {
	inst := &ModuleInst{Name: b.name}

	for _, bf := range b.funcs {
		h.funcs = append(h.funcs, &FuncInst{
			Typ:        bf.typ,
			ImplKind:   FuncImplSynthetic,
			Fn:         bf.fn,
			LocalIndex: -1,
		})
		addr := FuncAddr(len(h.funcs))
		inst.Funcs = append(inst.Funcs, addr)
		inst.Exports = append(inst.Exports, ExportInst{
			Name:  bf.name,
			Value: ExternVal{Kind: wasm.ExternKindFunc, Func: addr},
		})
	}

	for _, bm := range b.mems {
		h.mems = append(h.mems, &MemInst{Memory: memory.New(bm.min, bm.max, bm.hasMax)})
		addr := MemAddr(len(h.mems))
		inst.Mems = append(inst.Mems, addr)
		inst.Exports = append(inst.Exports, ExportInst{
			Name:  bm.name,
			Value: ExternVal{Kind: wasm.ExternKindMemory, Mem: addr},
		})
	}

	h.modules = append(h.modules, inst)
	return ModuleAddr(len(h.modules))
}

// Instantiate loads m under the given name, performing import resolution,
// local-function instantiation, export materialization and data-segment
// initialization in that order (spec.md §4.3, steps 1-5).
func (h *Host) Instantiate(name string, m *wasm.Module) (ModuleAddr, *wasm.Error) {
	var localFuncs []FuncAddr
	var localMems []MemAddr

	// Step 1: import resolution.
	for _, imp := range m.Imports {
		srcAddr, ok := h.FindModule(imp.Module)
		if !ok {
			return 0, wasm.ErrorModuleNotFound(imp.Module)
		}
		export, err := h.ResolveImport(srcAddr, imp.Name)
		if err != nil {
			return 0, err
		}
		if export.Value.Kind != imp.Kind {
			return 0, wasm.ErrorExportTypeMismatch(imp.Module, imp.Name)
		}
		switch imp.Kind {
		case wasm.ExternKindFunc:
			localFuncs = append(localFuncs, export.Value.Func)
		case wasm.ExternKindMemory:
			localMems = append(localMems, export.Value.Mem)
		}
	}

	// Step 2: local function instantiation.
	for i, code := range m.Code {
		typeIdx := m.Funcs[i]
		if int(typeIdx) >= len(m.Types) {
			return 0, wasm.ErrorInvalidModule("function type index out of range")
		}
		localIdx := len(localFuncs)
		h.funcs = append(h.funcs, &FuncInst{
			Typ:        m.Types[typeIdx],
			Module:     0, // set below, once the module's own address is known
			ImplKind:   FuncImplLocal,
			Locals:     code.Locals,
			Body:       code.Body,
			LocalIndex: localIdx,
		})
		localFuncs = append(localFuncs, FuncAddr(len(h.funcs)))
	}

	// Step 2b: local memory instantiation (declared, non-imported memories).
	for _, mt := range m.MemorySecs {
		h.mems = append(h.mems, &MemInst{Memory: memory.New(mt.Limits.Min, mt.Limits.Max, mt.Limits.HasMax)})
		localMems = append(localMems, MemAddr(len(h.mems)))
	}

	inst := &ModuleInst{Name: name, Funcs: localFuncs, Mems: localMems, Names: m.Names}

	// Step 3: export materialization.
	for _, exp := range m.Exports {
		var val ExternVal
		switch exp.Kind {
		case wasm.ExternKindFunc:
			if int(exp.Index) >= len(localFuncs) {
				return 0, wasm.ErrorInvalidModule("export function index out of range")
			}
			val = ExternVal{Kind: wasm.ExternKindFunc, Func: localFuncs[exp.Index]}
		case wasm.ExternKindMemory:
			if int(exp.Index) >= len(localMems) {
				return 0, wasm.ErrorInvalidModule("export memory index out of range")
			}
			val = ExternVal{Kind: wasm.ExternKindMemory, Mem: localMems[exp.Index]}
		default:
			continue // tables/globals are decoded but never exported by this engine
		}
		inst.Exports = append(inst.Exports, ExportInst{Name: exp.Name, Value: val})
	}

	h.modules = append(h.modules, inst)
	addr := ModuleAddr(len(h.modules))

	// Back-fill Module on the functions just allocated for this instance —
	// they couldn't know their owning module's address before it existed.
	for _, idx := range localFuncs[len(localFuncs)-len(m.Code):] {
		if fn, ok := h.Func(idx); ok && fn.ImplKind == FuncImplLocal {
			fn.Module = addr
		}
	}

	// Step 4: data-segment initialization.
	for _, seg := range m.Data {
		if int(seg.MemIndex) >= len(localMems) {
			return 0, wasm.ErrorInvalidModule("data segment memory index out of range")
		}
		memAddr := localMems[seg.MemIndex]
		mem, ok := h.Mem(memAddr)
		if !ok {
			return 0, wasm.ErrorInvalidModule("data segment targets unknown memory")
		}
		offsetVal, err := h.EvalExpr(seg.Offset)
		if err != nil {
			return 0, err
		}
		offset, isI32 := offsetVal.I32()
		if !isI32 {
			return 0, wasm.ErrorInvalidModule("data segment offset must be i32.const")
		}
		end := uint64(offset) + uint64(len(seg.Init))
		if end > uint64(mem.Memory.Len()) {
			return 0, wasm.ErrorInvalidModule("data segment out of bounds")
		}
		if err := mem.Memory.Write(offset, seg.Init); err != nil {
			return 0, wasm.ErrorInvalidModule(err.Error())
		}
	}

	return addr, nil
}
