package host

// ModuleAddr, FuncAddr and MemAddr are 1-based indices into the Host's
// per-kind arenas. Zero is reserved as "no address" (see spec.md §9, Open
// Question 2): this is Go's natural zero value, so a zero address never
// needs explicit construction the way an Option<Addr> would in the
// reference implementation.
type ModuleAddr uint32
type FuncAddr uint32
type MemAddr uint32

// IsNull reports whether the address is the null sentinel.
func (a ModuleAddr) IsNull() bool { return a == 0 }
func (a FuncAddr) IsNull() bool   { return a == 0 }
func (a MemAddr) IsNull() bool    { return a == 0 }

// index converts a 1-based address to a 0-based arena slice index. Callers
// must have already checked IsNull.
func (a ModuleAddr) index() int { return int(a) - 1 }
func (a FuncAddr) index() int   { return int(a) - 1 }
func (a MemAddr) index() int    { return int(a) - 1 }
