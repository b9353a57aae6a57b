package interp

import (
	"github.com/wasmforge/wasmforge/internal/host"
	"github.com/wasmforge/wasmforge/internal/wasm"
)

// branchSignal is how a taken br/br_if/br_table/return unwinds out of
// runBody without unwinding the Go call stack: it is passed up the
// recursive block/loop/if structure by plain return value until it reaches
// the construct (or the function body) it targets (spec.md §9, Open
// Question 1). Trap conditions, by contrast, propagate by panicking —
// see thread.go — since they always unwind all the way to the nearest
// Invoke, never just to an enclosing label.
type branchSignal struct {
	// level counts how many enclosing labels remain to unwind; 0 means
	// "this is the target". Unused when isReturn is set.
	level uint32
	// isReturn marks a `return`, which always targets the function body
	// itself regardless of nesting depth.
	isReturn bool
}

func blockArity(bt wasm.ValType) int {
	if bt == wasm.BlockVoid || bt == wasm.Nil {
		return 0
	}
	return 1
}

// matchingEnd scans expr from start (the instruction right after a
// block/loop/if) for the End that closes it, tracking nested constructs by
// depth. elseIdx is the index of a top-level Else (or -1 if none); endIdx
// is always returned.
func matchingEnd(expr wasm.Expr, start int) (elseIdx, endIdx int) {
	depth := 0
	elseIdx = -1
	for i := start; i < len(expr); i++ {
		switch expr[i].Opcode {
		case wasm.OpBlock, wasm.OpLoop, wasm.OpIf:
			depth++
		case wasm.OpElse:
			if depth == 0 {
				elseIdx = i
			}
		case wasm.OpEnd:
			if depth == 0 {
				return elseIdx, i
			}
			depth--
		}
	}
	// Malformed input (no matching end); treat EOF as the end so execution
	// terminates rather than loops forever.
	return elseIdx, len(expr)
}

// runBody executes a flat instruction sequence against ctx, dispatching
// block/loop/if recursively and every other opcode to step. It returns a
// non-nil branchSignal when a br/br_if/br_table/return escapes this
// sequence, and nil when it runs off the end normally. Traps panic rather
// than return (see thread.go's recover boundary in Invoke).
func (t *Thread) runBody(h *host.Host, ctx *executionContext, expr wasm.Expr) *branchSignal {
	i := 0
	for i < len(expr) {
		insn := expr[i]
		switch insn.Opcode {
		case wasm.OpBlock, wasm.OpLoop:
			_, endIdx := matchingEnd(expr, i+1)
			body := expr[i+1 : endIdx]
			branch := t.runConstruct(h, ctx, body, insn.Opcode == wasm.OpLoop, blockArity(insn.BlockType))
			if branch != nil {
				return branch
			}
			i = endIdx + 1

		case wasm.OpIf:
			cond, ok := ctx.pop()
			if !ok {
				panic(host.TrapStackUnderflow())
			}
			v, isI32 := cond.I32()
			if !isI32 {
				panic(host.TrapTypeMismatch("i32", cond.Type().String()))
			}
			elseIdx, endIdx := matchingEnd(expr, i+1)
			var body wasm.Expr
			switch {
			case v != 0 && elseIdx >= 0:
				body = expr[i+1 : elseIdx]
			case v != 0:
				body = expr[i+1 : endIdx]
			case v == 0 && elseIdx >= 0:
				body = expr[elseIdx+1 : endIdx]
			default:
				body = nil
			}
			branch := t.runConstruct(h, ctx, body, false, blockArity(insn.BlockType))
			if branch != nil {
				return branch
			}
			i = endIdx + 1

		case wasm.OpBr:
			return &branchSignal{level: insn.Index}

		case wasm.OpBrIf:
			cond, ok := ctx.pop()
			if !ok {
				panic(host.TrapStackUnderflow())
			}
			v, isI32 := cond.I32()
			if !isI32 {
				panic(host.TrapTypeMismatch("i32", cond.Type().String()))
			}
			if v != 0 {
				return &branchSignal{level: insn.Index}
			}
			i++

		case wasm.OpBrTable:
			idxVal, ok := ctx.pop()
			if !ok {
				panic(host.TrapStackUnderflow())
			}
			v, isI32 := idxVal.I32()
			if !isI32 {
				panic(host.TrapTypeMismatch("i32", idxVal.Type().String()))
			}
			level := insn.Index
			if int(v) < len(insn.Targets) {
				level = insn.Targets[v]
			}
			return &branchSignal{level: level}

		case wasm.OpReturn:
			return &branchSignal{isReturn: true}

		default:
			t.step(h, ctx, insn)
			i++
		}
	}
	return nil
}

// runConstruct executes body as a block's or loop's contents. entryHeight
// is ctx's operand stack depth on entry; when a branch targets this
// construct (level == 0), the stack is truncated back to entryHeight plus
// exactly arity result values, discarding anything pushed above them
// (spec.md §9, Open Question 1: "br k... discards operands above the
// label's arity"). A loop re-executes body from the top on a level-0
// branch; a block simply falls through.
func (t *Thread) runConstruct(h *host.Host, ctx *executionContext, body wasm.Expr, isLoop bool, arity int) *branchSignal {
	entryHeight := len(ctx.values)
	for {
		branch := t.runBody(h, ctx, body)
		if branch == nil {
			return nil
		}
		if branch.isReturn {
			return branch
		}
		if branch.level > 0 {
			return &branchSignal{level: branch.level - 1}
		}

		if len(ctx.values) < arity {
			panic(host.TrapStackUnderflow())
		}
		results := append([]wasm.Value(nil), ctx.values[len(ctx.values)-arity:]...)
		ctx.values = append(ctx.values[:entryHeight], results...)

		if !isLoop {
			return nil
		}
		// Loop: re-enter from the top with the truncated stack.
	}
}

// runFunctionBody executes a function's top-level instruction sequence.
// Wasm defines the function body itself as an implicit outermost label:
// both `return` and a `br`/`br_table` whose level unwinds past every
// enclosing block/loop target it, and reaching it truncates the operand
// stack to exactly arity result values the same way a nested branch's
// target construct does (spec.md §9, Open Question 1) — without this, a
// function that returns through a live block leaves the block's
// now-unreachable operands on the stack.
func (t *Thread) runFunctionBody(h *host.Host, ctx *executionContext, body wasm.Expr, arity int) {
	entryHeight := len(ctx.values)
	branch := t.runBody(h, ctx, body)
	if branch == nil {
		return
	}
	if len(ctx.values) < arity {
		panic(host.TrapStackUnderflow())
	}
	results := append([]wasm.Value(nil), ctx.values[len(ctx.values)-arity:]...)
	ctx.values = append(ctx.values[:entryHeight], results...)
}
