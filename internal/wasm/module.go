package wasm

// ExternKind distinguishes the two external kinds this engine links:
// functions and memories. Tables and globals are decoded (their section
// shapes are part of the binary format) but never resolved or executed —
// see the Non-goals in the host/interpreter packages.
type ExternKind byte

const (
	ExternKindFunc ExternKind = iota
	ExternKindTable
	ExternKindMemory
	ExternKindGlobal
)

func (k ExternKind) String() string {
	switch k {
	case ExternKindFunc:
		return "func"
	case ExternKindTable:
		return "table"
	case ExternKindMemory:
		return "memory"
	case ExternKindGlobal:
		return "global"
	default:
		return "unknown"
	}
}

// Limits is the min/max pair shared by memory and table types, in units the
// declaring section defines (pages for memory).
type Limits struct {
	Min uint32
	Max uint32 // only meaningful when HasMax is true
	HasMax bool
}

// MemoryType is a memory import/declaration: its limits in pages.
type MemoryType struct {
	Limits Limits
}

// Import is one entry of the import section: a (module, name) pair plus the
// descriptor of what's being imported. Exactly one of the Desc* fields is
// meaningful, selected by Kind.
type Import struct {
	Module string
	Name   string
	Kind   ExternKind

	// DescFuncTypeIdx indexes Module.Types when Kind == ExternKindFunc.
	DescFuncTypeIdx uint32
	// DescMemory is populated when Kind == ExternKindMemory.
	DescMemory MemoryType
}

// Export is one entry of the export section: a name plus the kind/index of
// the thing exported, indexing the module-local space (imports then locals,
// concatenated) of the matching kind.
type Export struct {
	Name  string
	Kind  ExternKind
	Index uint32
}

// Code is one locally defined function body: its expanded local
// declarations (append to the function's declared parameters to form the
// full local-index space) and its instruction sequence.
type Code struct {
	Locals []ValType
	Body   Expr
}

// DataSegment is one entry of the data section: the memory it targets, a
// constant offset expression (must decode, at instantiation time, to a
// single i32.const) and the bytes to copy there.
type DataSegment struct {
	MemIndex uint32
	Offset   Expr
	Init     []byte
}

// NameMap is an index -> name association, as carried by the Name custom
// section for functions.
type NameMap map[uint32]string

// NameSection carries the optional debug names decoded from the binary
// format's Custom "name" section.
type NameSection struct {
	ModuleName    string
	FunctionNames NameMap
	LocalNames    map[uint32]NameMap // keyed by function index
}

// Module is the immutable static image produced by a decoder (or the text
// parser) and consumed, by value, exactly once by Host.Instantiate. It owns
// no runtime state — no addresses, no memory bytes beyond what Data
// declares — so the same Module value could in principle back multiple
// independent instantiations (this engine only ever instantiates it once,
// per §3's Lifecycles note).
type Module struct {
	Types      []FuncType
	Imports    []Import
	Funcs      []uint32 // index into Types, one per locally defined function
	Exports    []Export
	Code       []Code // parallel to the locally defined subset of Funcs
	Data       []DataSegment
	MemorySecs []MemoryType // locally declared (non-imported) memories

	Names *NameSection // nil if no name section was present
}

// FuncCount returns the total number of functions a module-local func index
// can address: imported functions followed by locally defined ones.
func (m *Module) FuncCount() int {
	imported := 0
	for _, imp := range m.Imports {
		if imp.Kind == ExternKindFunc {
			imported++
		}
	}
	return imported + len(m.Funcs)
}

// FuncTypeIndex returns the Types index for module-local function index idx,
// accounting for the imported-functions-first ordering.
func (m *Module) FuncTypeIndex(idx uint32) (uint32, bool) {
	imported := uint32(0)
	for _, imp := range m.Imports {
		if imp.Kind == ExternKindFunc {
			if imported == idx {
				return imp.DescFuncTypeIdx, true
			}
			imported++
		}
	}
	local := idx - imported
	if int(local) >= len(m.Funcs) {
		return 0, false
	}
	return m.Funcs[local], true
}
