package host

import "fmt"

// Location is a human-readable rendering of a program counter — a
// (module, func, offset) triple — using whatever name metadata the module
// carries. Grounded on the reference implementation's Location type
// (src/location.rs): falls back to a hex address whenever a name is
// unavailable, and always prints the byte offset within the function.
type Location struct {
	Module     ModuleAddr
	Func       FuncAddr
	ModuleName string
	FuncName   string
	Offset     uint32
}

func (l Location) String() string {
	mod := l.ModuleName
	if mod == "" {
		mod = fmt.Sprintf("0x%04X", uint32(l.Module))
	}
	fn := l.FuncName
	if fn == "" {
		fn = fmt.Sprintf("0x%04X", uint32(l.Func))
	}
	return fmt.Sprintf("%s!%s+%04d", mod, fn, l.Offset)
}

// GetLocation turns a (funcAddr, offset) program counter into a Location,
// or false if funcAddr doesn't name a known function (spec.md §4.3).
func (h *Host) GetLocation(funcAddr FuncAddr, offset uint32) (Location, bool) {
	fn, ok := h.Func(funcAddr)
	if !ok {
		return Location{}, false
	}
	mod, ok := h.Module(fn.Module)
	if !ok {
		return Location{}, false
	}

	loc := Location{Module: fn.Module, Func: funcAddr, Offset: offset}
	if mod.Names != nil {
		loc.ModuleName = mod.Names.ModuleName
		if fn.LocalIndex >= 0 {
			loc.FuncName = mod.Names.FunctionNames[uint32(fn.LocalIndex)]
		}
	}
	return loc, true
}
