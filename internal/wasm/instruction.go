package wasm

// MemArg is the alignment/offset pair carried by every load/store
// instruction. Align is the declared alignment hint (log2 of byte
// alignment); this engine never validates or exploits it, matching the
// letter of the v1 spec which treats it as a hint only.
type MemArg struct {
	Align  uint32
	Offset uint32
}

// Instruction is one decoded opcode plus whichever payload its opcode
// requires. Only the fields relevant to Opcode are populated; the zero
// value of the others is never inspected by dispatch. A flat struct (rather
// than one concrete type per opcode) keeps the binary decoder, the text
// parser and the interpreter dispatch all working off the same simple shape.
type Instruction struct {
	Opcode Opcode

	// Index is the single u32 operand for call/local.*/global.*/br/br_if,
	// and the branch-table's default label.
	Index uint32

	// MemArg is populated for load/store instructions.
	MemArg MemArg

	// Const is populated for i32.const/i64.const/f32.const/f64.const.
	Const Value

	// BlockType is populated for block/loop/if, and is BlockVoid for a
	// block with no declared result.
	BlockType ValType

	// Targets holds the label list for br_table; Index holds its default.
	Targets []uint32
}

// Expr is a sequence of instructions — a function body or a constant
// expression. A constant expression used for a data-segment offset must be
// exactly one *.const instruction (enforced by the host at instantiation
// time, not here).
type Expr []Instruction
