package host

import "fmt"

// TrapCause classifies why execution faulted, mirroring spec.md §7's Trap
// taxonomy. CauseOther carries a free-form message with no structured
// cause, used for script-level and host-function-raised traps that don't
// fit the fixed set.
type TrapCause int

const (
	CauseOther TrapCause = iota
	CauseStackUnderflow
	CauseTypeMismatch
	CauseIntegerDivideByZero
	CauseIntegerOverflow
	CauseInvalidConversionToInteger
	CauseStackNotEmpty
	CauseUnreachableExecuted
	CauseMemoryOutOfBounds
	CauseCallArityMismatch
	CauseLocalIndexOutOfRange
)

// StackFrame identifies one activation in a StackTrace: the module it ran
// in, and the function it was executing (absent for the eval frame, which
// has no function).
type StackFrame struct {
	Module ModuleAddr
	Func   FuncAddr
	HasFunc bool
}

func (f StackFrame) String() string {
	if f.HasFunc {
		return fmt.Sprintf("0x%08X!0x%08X", uint32(f.Module), uint32(f.Func))
	}
	return fmt.Sprintf("0x%08X!<eval>", uint32(f.Module))
}

// StackTrace is a snapshot of frames, innermost first, captured at the
// moment a Trap was first raised.
type StackTrace []StackFrame

// Trap is the execution-level fault (spec.md §7): distinct from Error, it
// unwinds to the nearest invoke/eval boundary and never reaches a Host
// caller as an Error.
type Trap struct {
	Cause   TrapCause
	Message string
	Trace   StackTrace

	// Expected/Actual are populated only for CauseTypeMismatch.
	Expected string
	Actual   string
}

func (t *Trap) Error() string { return t.Message }

func NewTrap(message string) *Trap {
	return &Trap{Cause: CauseOther, Message: message}
}

func trapf(cause TrapCause, format string, args ...any) *Trap {
	return &Trap{Cause: cause, Message: fmt.Sprintf(format, args...)}
}

func TrapStackUnderflow() *Trap {
	return trapf(CauseStackUnderflow, "stack underflow")
}

func TrapTypeMismatch(expected, actual string) *Trap {
	t := trapf(CauseTypeMismatch, "type mismatch: expected %s, got %s", expected, actual)
	t.Expected, t.Actual = expected, actual
	return t
}

func TrapIntegerDivideByZero() *Trap {
	return trapf(CauseIntegerDivideByZero, "integer divide by zero")
}

func TrapIntegerOverflow() *Trap {
	return trapf(CauseIntegerOverflow, "integer overflow")
}

func TrapInvalidConversionToInteger() *Trap {
	return trapf(CauseInvalidConversionToInteger, "invalid conversion to integer")
}

func TrapStackNotEmpty() *Trap {
	return trapf(CauseStackNotEmpty, "stack not empty at function exit")
}

func TrapUnreachableExecuted() *Trap {
	return trapf(CauseUnreachableExecuted, "unreachable executed")
}

func TrapMemoryOutOfBounds() *Trap {
	return trapf(CauseMemoryOutOfBounds, "out of bounds memory access")
}

func TrapCallArityMismatch() *Trap {
	return trapf(CauseCallArityMismatch, "call arity mismatch")
}

func TrapLocalIndexOutOfRange() *Trap {
	return trapf(CauseLocalIndexOutOfRange, "local index out of range")
}

// WithTrace sets t's stack trace if one isn't already set, matching "the
// interpreter sets the trace on the innermost trap that does not already
// have one" (spec.md §4.4).
func (t *Trap) WithTrace(trace StackTrace) *Trap {
	if t.Trace == nil {
		t.Trace = trace
	}
	return t
}
