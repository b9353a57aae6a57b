package interp

import (
	"fmt"

	"github.com/wasmforge/wasmforge/internal/host"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// Thread is an execution context: a stack of call frames, emptied again
// when each top-level invocation returns, so one Thread can serve many
// invocations (wastrun runs a whole script on one). It holds no reference
// to host state beyond what is passed into Invoke (spec.md §4.4's
// Lifecycles note). It implements host.Invoker so synthetic (host-defined) functions
// can call back into Wasm-defined ones.
type Thread struct {
	stack executionStack
}

// NewThread returns an empty execution thread.
func NewThread() *Thread { return &Thread{} }

// threadInvoker binds a Thread to the Host it is currently running
// against, satisfying host.Invoker without Thread itself retaining a Host
// reference between calls.
type threadInvoker struct {
	thread *Thread
	host   *host.Host
}

func (ti threadInvoker) Invoke(addr host.FuncAddr, args []wasm.Value) ([]wasm.Value, *host.Trap) {
	return ti.thread.Invoke(ti.host, addr, args)
}

// recoverTrap turns a recovered panic value into a Trap: the value is
// either already a *host.Trap (the expected case — every trap condition in
// this package panics one, rather than threading an error return through
// every instruction-dispatch helper) or some other runtime panic, which is
// wrapped as a generic trap the same way the teacher's interpreter engine
// turns a recovered value into a reported runtime error at its call
// boundary.
func recoverTrap(r any) *host.Trap {
	if t, ok := r.(*host.Trap); ok {
		return t
	}
	return host.NewTrap(fmt.Sprintf("internal error: %v", r))
}

func zeroValue(vt wasm.ValType) wasm.Value {
	switch vt {
	case wasm.I32:
		return wasm.ValueI32(0)
	case wasm.I64:
		return wasm.ValueI64(0)
	case wasm.F32:
		return wasm.ValueF32(0)
	case wasm.F64:
		return wasm.ValueF64(0)
	default:
		return wasm.ValueNil
	}
}

// Invoke calls the function at addr with args (spec.md §4.4): it checks
// arity and parameter types, runs the function body (local) or the host
// callback (synthetic), and checks that the function left exactly its
// declared result types on the stack. Any trap raised anywhere below —
// including inside a nested call this invocation itself makes — unwinds
// here via panic/recover and is returned as a Trap rather than propagating
// as a Go panic past this boundary.
func (t *Thread) Invoke(h *host.Host, addr host.FuncAddr, args []wasm.Value) (results []wasm.Value, trap *host.Trap) {
	fn, ok := h.Func(addr)
	if !ok {
		return nil, host.NewTrap("call to unknown function address")
	}
	if len(args) != len(fn.Typ.Params) {
		return nil, host.TrapCallArityMismatch()
	}
	for i, pt := range fn.Typ.Params {
		if args[i].Type() != pt {
			return nil, host.TrapTypeMismatch(pt.String(), args[i].Type().String())
		}
	}

	entryDepth := len(t.stack.frames)
	defer func() {
		if r := recover(); r != nil {
			trap = recoverTrap(r).WithTrace(t.stack.trace())
			results = nil
		}
		t.stack.frames = t.stack.frames[:entryDepth]
	}()

	if fn.ImplKind == host.FuncImplSynthetic {
		t.stack.enter(fn.Module, addr, true, nil)
		res, synTrap := fn.Fn(h, threadInvoker{thread: t, host: h}, args)
		if synTrap != nil {
			return nil, synTrap.WithTrace(t.stack.trace())
		}
		return res, nil
	}

	locals := make([]wasm.Value, len(args)+len(fn.Locals))
	copy(locals, args)
	for i, lt := range fn.Locals {
		locals[len(args)+i] = zeroValue(lt)
	}
	ctx := t.stack.enter(fn.Module, addr, true, locals)
	t.runFunctionBody(h, ctx, fn.Body, len(fn.Typ.Results))

	if len(ctx.values) != len(fn.Typ.Results) {
		panic(host.TrapStackNotEmpty())
	}
	for i, rt := range fn.Typ.Results {
		if ctx.values[i].Type() != rt {
			panic(host.TrapTypeMismatch(rt.String(), ctx.values[i].Type().String()))
		}
	}
	return append([]wasm.Value(nil), ctx.values...), nil
}

// Eval runs expr in a fresh frame that has no function and no locals,
// against module, and returns its single resulting value; any other
// number of results left on the stack traps with StackNotEmpty. The
// text/script front end does not call it: it reads action arguments and
// expected values as literal constants.
func (t *Thread) Eval(h *host.Host, module host.ModuleAddr, expr wasm.Expr) (result wasm.Value, trap *host.Trap) {
	entryDepth := len(t.stack.frames)
	defer func() {
		if r := recover(); r != nil {
			trap = recoverTrap(r).WithTrace(t.stack.trace())
			result = wasm.ValueNil
		}
		t.stack.frames = t.stack.frames[:entryDepth]
	}()
	ctx := t.stack.enter(module, 0, false, nil)
	t.runBody(h, ctx, expr)
	if len(ctx.values) != 1 {
		panic(host.TrapStackNotEmpty())
	}
	return ctx.values[0], nil
}
