package host

import "github.com/wasmforge/wasmforge/internal/wasm"

// builderFunc and builderMem are a synthesized module's declared members,
// accumulated by ModuleBuilder before Host.Synthesize allocates addresses
// for them.
type builderFunc struct {
	name string
	typ  wasm.FuncType
	fn   SyntheticFunc
}

type builderMem struct {
	name   string
	min    uint32
	max    uint32
	hasMax bool
}

// ModuleBuilder assembles a synthetic (host) module: a named bundle of
// external functions and memories that a loaded module can import against,
// the way the `env` module is built for `init`/`run` (SPEC_FULL.md,
// Supplemented Features §3). Grounded on the reference implementation's
// ModuleBuilder/FuncBuilder (src/builder/*.rs), collapsed into a single
// builder since this engine only synthesizes functions and memories, never
// tables or globals.
type ModuleBuilder struct {
	name  string
	funcs []builderFunc
	mems  []builderMem
}

// NewModuleBuilder starts a builder for a synthetic module named name.
func NewModuleBuilder(name string) *ModuleBuilder {
	return &ModuleBuilder{name: name}
}

// WithFunc declares an exported function implemented by fn.
func (b *ModuleBuilder) WithFunc(name string, typ wasm.FuncType, fn SyntheticFunc) *ModuleBuilder {
	b.funcs = append(b.funcs, builderFunc{name: name, typ: typ, fn: fn})
	return b
}

// WithMemory declares an exported memory with the given page limits.
func (b *ModuleBuilder) WithMemory(name string, minPages, maxPages uint32, hasMax bool) *ModuleBuilder {
	b.mems = append(b.mems, builderMem{name: name, min: minPages, max: maxPages, hasMax: hasMax})
	return b
}
