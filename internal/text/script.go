package text

import (
	"fmt"

	"github.com/wasmforge/wasmforge/internal/wasm"
)

// ActionKind distinguishes the two action forms a script command can wrap.
type ActionKind int

const (
	ActionInvoke ActionKind = iota
	ActionGet
)

// Action is `(invoke "name" EXPR*)` or `(get "name")`.
type Action struct {
	Kind ActionKind
	Name string
	Args []wasm.Value
}

// AssertReturn is `(assert_return ACTION EXPR?)`. Expected is nil when the
// action is asserted to return nothing.
type AssertReturn struct {
	Action   Action
	Expected *wasm.Value
}

// AssertTrap is `(assert_trap ACTION "message")`.
type AssertTrap struct {
	Action  Action
	Message string
}

// ModuleCommand is a top-level `(module ...)` form: the parsed image plus
// its optional `$name` binding (for `(register ...)`/later reference,
// unused by this engine beyond giving the host a human-readable label).
type ModuleCommand struct {
	Name   string
	Module *wasm.Module
}

// Script is an ordered sequence of top-level commands.
type Script struct {
	Commands []any // ModuleCommand, AssertReturn, or AssertTrap
}

// ParseScript parses a whole `.wast`-style assertion script: a sequence of
// `(module ...)`, `(assert_return ...)` and `(assert_trap ...)` forms.
func ParseScript(src string) (*Script, error) {
	forms, err := ParseAll(src)
	if err != nil {
		return nil, err
	}
	sc := &Script{}
	for _, f := range forms {
		switch f.Head() {
		case "module":
			name := ""
			i := 1
			if i < len(f.List) && len(f.List[i].Atom) > 0 && f.List[i].Atom[0] == '$' {
				name = f.List[i].Atom
			}
			m, err := parseModuleForm(f)
			if err != nil {
				return nil, err
			}
			sc.Commands = append(sc.Commands, ModuleCommand{Name: name, Module: m})
		case "assert_return":
			cmd, err := parseAssertReturn(f)
			if err != nil {
				return nil, err
			}
			sc.Commands = append(sc.Commands, cmd)
		case "assert_trap":
			cmd, err := parseAssertTrap(f)
			if err != nil {
				return nil, err
			}
			sc.Commands = append(sc.Commands, cmd)
		default:
			return nil, &parseError{line: f.Line, message: fmt.Sprintf("unsupported top-level command %q", f.Head())}
		}
	}
	return sc, nil
}

func parseAssertReturn(f Sexpr) (AssertReturn, error) {
	if len(f.List) < 2 {
		return AssertReturn{}, &parseError{line: f.Line, message: "assert_return needs an action"}
	}
	action, err := parseAction(f.List[1])
	if err != nil {
		return AssertReturn{}, err
	}
	ar := AssertReturn{Action: action}
	if len(f.List) > 2 {
		v, err := constExprValue(f.List[2])
		if err != nil {
			return AssertReturn{}, err
		}
		ar.Expected = &v
	}
	return ar, nil
}

func parseAssertTrap(f Sexpr) (AssertTrap, error) {
	if len(f.List) < 3 {
		return AssertTrap{}, &parseError{line: f.Line, message: "assert_trap needs an action and a message"}
	}
	action, err := parseAction(f.List[1])
	if err != nil {
		return AssertTrap{}, err
	}
	return AssertTrap{Action: action, Message: f.List[2].Atom}, nil
}

func parseAction(a Sexpr) (Action, error) {
	switch a.Head() {
	case "invoke":
		if len(a.List) < 2 {
			return Action{}, &parseError{line: a.Line, message: "invoke needs a name"}
		}
		act := Action{Kind: ActionInvoke, Name: a.List[1].Atom}
		for _, arg := range a.List[2:] {
			v, err := constExprValue(arg)
			if err != nil {
				return Action{}, err
			}
			act.Args = append(act.Args, v)
		}
		return act, nil
	case "get":
		if len(a.List) < 2 {
			return Action{}, &parseError{line: a.Line, message: "get needs a name"}
		}
		return Action{Kind: ActionGet, Name: a.List[1].Atom}, nil
	default:
		return Action{}, &parseError{line: a.Line, message: fmt.Sprintf("unsupported action %q", a.Head())}
	}
}

// constExprValue evaluates a literal constant expression — always exactly
// one `*.const` form in this engine's scripts (spec.md §6/§8 never asks for
// anything richer, e.g. a `global.get` reference).
func constExprValue(s Sexpr) (wasm.Value, error) {
	if s.List == nil || len(s.List) < 2 {
		return wasm.Value{}, &parseError{line: s.Line, message: "expected a constant expression"}
	}
	switch s.Head() {
	case "i32.const":
		v, err := parseI64(s.List[1].Atom)
		if err != nil {
			return wasm.Value{}, err
		}
		return wasm.ValueI32(uint32(v)), nil
	case "i64.const":
		v, err := parseI64(s.List[1].Atom)
		if err != nil {
			return wasm.Value{}, err
		}
		return wasm.ValueI64(v), nil
	case "f32.const":
		v, err := parseFloat(s.List[1].Atom, 32)
		if err != nil {
			return wasm.Value{}, err
		}
		return wasm.ValueF32(float32(v)), nil
	case "f64.const":
		v, err := parseFloat(s.List[1].Atom, 64)
		if err != nil {
			return wasm.Value{}, err
		}
		return wasm.ValueF64(v), nil
	default:
		return wasm.Value{}, &parseError{line: s.Line, message: fmt.Sprintf("unsupported constant expression %q", s.Head())}
	}
}
