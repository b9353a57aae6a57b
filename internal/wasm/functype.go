package wasm

import "strings"

// FuncType is an ordered list of parameter types and an ordered list of
// result types. Wasm v1 restricts Results to 0 or 1 entries, but nothing in
// this model enforces that, and internal/binary's type-section decoder
// accepts any result count as well.
type FuncType struct {
	Params  []ValType
	Results []ValType
}

// Equal reports whether t and other describe the same signature,
// position-by-position.
func (t FuncType) Equal(other FuncType) bool {
	if len(t.Params) != len(other.Params) || len(t.Results) != len(other.Results) {
		return false
	}
	for i, p := range t.Params {
		if p != other.Params[i] {
			return false
		}
	}
	for i, r := range t.Results {
		if r != other.Results[i] {
			return false
		}
	}
	return true
}

func (t FuncType) String() string {
	var b strings.Builder
	b.WriteByte('(')
	for i, p := range t.Params {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(p.String())
	}
	b.WriteString(") -> (")
	for i, r := range t.Results {
		if i > 0 {
			b.WriteByte(' ')
		}
		b.WriteString(r.String())
	}
	b.WriteByte(')')
	return b.String()
}
