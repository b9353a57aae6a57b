// Package interp implements the interpreter thread (spec.md §4.4-§4.5): the
// operand-stack-per-frame execution discipline, invoke/eval, and
// instruction dispatch including the numeric instruction families and a
// structured block/loop/if/br control-flow semantics (spec.md §9, Open
// Question 1). Grounded on the reference implementation's src/interp/*.rs
// and, for the panic/recover trap-propagation idiom, on the teacher's
// modern interpreter engine (internal/engine/interpreter/interpreter.go).
package interp

import (
	"github.com/wasmforge/wasmforge/internal/host"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// executionContext is one activation record: the module/function it is
// running in, its local variables, and its own operand stack. Frames never
// see each other's operand stacks (spec.md §4.4).
type executionContext struct {
	frame  host.StackFrame
	locals []wasm.Value
	values []wasm.Value
}

// push appends v to the operand stack. A nil Value is silently dropped,
// matching spec.md §3: "must never be pushed onto the operand stack... it
// is silently dropped if pushed".
func (c *executionContext) push(v wasm.Value) {
	if v.IsNil() {
		return
	}
	c.values = append(c.values, v)
}

// pop removes and returns the top operand, or reports stack underflow.
func (c *executionContext) pop() (wasm.Value, bool) {
	if len(c.values) == 0 {
		return wasm.ValueNil, false
	}
	v := c.values[len(c.values)-1]
	c.values = c.values[:len(c.values)-1]
	return v, true
}

// local returns the value of local variable idx.
func (c *executionContext) local(idx uint32) (wasm.Value, bool) {
	if int(idx) >= len(c.locals) {
		return wasm.ValueNil, false
	}
	return c.locals[idx], true
}

// setLocal overwrites local variable idx.
func (c *executionContext) setLocal(idx uint32, v wasm.Value) bool {
	if int(idx) >= len(c.locals) {
		return false
	}
	c.locals[idx] = v
	return true
}

func (c *executionContext) isEmpty() bool { return len(c.values) == 0 }

// executionStack is the stack of call frames a Thread owns.
type executionStack struct {
	frames []*executionContext
}

func (s *executionStack) enter(module host.ModuleAddr, funcAddr host.FuncAddr, hasFunc bool, locals []wasm.Value) *executionContext {
	ctx := &executionContext{
		frame:  host.StackFrame{Module: module, Func: funcAddr, HasFunc: hasFunc},
		locals: locals,
	}
	s.frames = append(s.frames, ctx)
	return ctx
}

// exit pops the innermost frame. Panics if the stack is empty — a bug in
// the interpreter itself, not a user-triggerable condition, so this
// mirrors the reference implementation's own unchecked pop.
func (s *executionStack) exit() {
	s.frames = s.frames[:len(s.frames)-1]
}

func (s *executionStack) current() *executionContext {
	return s.frames[len(s.frames)-1]
}

// trace snapshots every frame, innermost first.
func (s *executionStack) trace() host.StackTrace {
	out := make(host.StackTrace, len(s.frames))
	for i, f := range s.frames {
		out[i] = f.frame
	}
	// Reverse so index 0 is innermost.
	for i, j := 0, len(out)-1; i < j; i, j = i+1, j-1 {
		out[i], out[j] = out[j], out[i]
	}
	return out
}
