package host

import (
	"github.com/wasmforge/wasmforge/internal/memory"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// ExternVal is the runtime counterpart of wasm.ExternKind: an export
// resolves to either a function or a memory address.
type ExternVal struct {
	Kind wasm.ExternKind
	Func FuncAddr
	Mem  MemAddr
}

// ExportInst is one materialized export of an instantiated module.
type ExportInst struct {
	Name  string
	Value ExternVal
}

// Invoker is the capability a synthetic (host) function receives to call
// back into the interpreter — e.g. a host function that implements a
// callback-based API and needs to invoke a Wasm-defined function passed to
// it. internal/interp.Thread implements this; internal/host never imports
// internal/interp; the dependency runs the other way.
type Invoker interface {
	Invoke(addr FuncAddr, args []wasm.Value) ([]wasm.Value, *Trap)
}

// SyntheticFunc is a host-implemented function body: given the Host (to
// resolve memories etc.), an Invoker (to re-enter the interpreter) and the
// already type-checked argument values, it returns results or a Trap.
type SyntheticFunc func(h *Host, inv Invoker, args []wasm.Value) ([]wasm.Value, *Trap)

// FuncImplKind tags FuncInst.Impl.
type FuncImplKind int

const (
	FuncImplLocal FuncImplKind = iota
	FuncImplSynthetic
)

// FuncInst is a runtime function: its signature, the module that owns its
// code (Local) or that synthesized it (Synthetic), and its implementation.
type FuncInst struct {
	Typ    wasm.FuncType
	Module ModuleAddr

	ImplKind FuncImplKind

	// Local fields, valid when ImplKind == FuncImplLocal.
	Locals []wasm.ValType
	Body   wasm.Expr
	// LocalIndex is this function's module-local function index, used by
	// GetLocation to look up its debug name. -1 for synthetic functions.
	LocalIndex int

	// Synthetic field, valid when ImplKind == FuncImplSynthetic.
	Fn SyntheticFunc
}

// MemInst is a runtime memory instance: a MemInst's identity is its
// address, but its storage lives in Memory.
type MemInst struct {
	Memory *memory.Memory
}

// ModuleInst is the runtime counterpart of a wasm.Module: its functions and
// memories resolved to addresses, and its materialized exports.
type ModuleInst struct {
	Name    string
	Funcs   []FuncAddr
	Mems    []MemAddr
	Exports []ExportInst
	Names   *wasm.NameSection
}

// FindExport looks up an export by name.
func (m *ModuleInst) FindExport(name string) (ExportInst, bool) {
	for _, e := range m.Exports {
		if e.Name == name {
			return e, true
		}
	}
	return ExportInst{}, false
}
