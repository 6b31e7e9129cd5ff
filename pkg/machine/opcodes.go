package machine

import "fmt"

// Opcode identifies one instruction of either dialect. The two dialects
// share a single enumeration; which opcodes a program may actually use is a
// decode-time question (see OpcodeInfo.Dialect), never a stepping-time one.
type Opcode uint8

const (
	// ========================================================================
	// Assembly dialect (variable arity)
	// ========================================================================

	OpCpy Opcode = iota // cpy src dst: dst = src
	OpInc               // inc dst: dst += 1
	OpDec               // dec dst: dst -= 1
	OpJnz               // jnz cond offset: relative jump when cond != 0
	OpTgl               // tgl offset: rewrite the instruction at ip+offset
	OpOut               // out src: emit src as an output value

	// ========================================================================
	// ALU dialect (always op a b dst; the suffix fixes each source's kind)
	// ========================================================================

	OpAddr // dst = a + b, both registers
	OpAddi // dst = a + b, b immediate
	OpMulr // dst = a * b, both registers
	OpMuli // dst = a * b, b immediate
	OpBanr // dst = a & b, both registers
	OpBani // dst = a & b, b immediate
	OpBorr // dst = a | b, both registers
	OpBori // dst = a | b, b immediate
	OpSetr // dst = b, b register (a ignored)
	OpSeti // dst = b, b immediate (a ignored)
	OpGtir // dst = 1 if a > b else 0, a immediate
	OpGtri // dst = 1 if a > b else 0, b immediate
	OpGtrr // dst = 1 if a > b else 0, both registers
	OpEqir // dst = 1 if a == b else 0, a immediate
	OpEqri // dst = 1 if a == b else 0, b immediate
	OpEqrr // dst = 1 if a == b else 0, both registers

	opcodeCount
)

// Dialect selects which opcode family a program may use. The constraint is
// enforced when a program is decoded or loaded, not when it runs.
type Dialect uint8

const (
	// DialectAssembly is the cpy/inc/dec/jnz/tgl/out family.
	DialectAssembly Dialect = iota

	// DialectALU is the fixed three-operand arithmetic family.
	DialectALU
)

// String returns the dialect name used in manifests and program containers.
func (d Dialect) String() string {
	switch d {
	case DialectAssembly:
		return "assembly"
	case DialectALU:
		return "alu"
	default:
		return fmt.Sprintf("Dialect(%d)", uint8(d))
	}
}

// DialectByName maps a manifest/container dialect name back to its value.
func DialectByName(name string) (Dialect, bool) {
	switch name {
	case "assembly":
		return DialectAssembly, true
	case "alu":
		return DialectALU, true
	default:
		return 0, false
	}
}

// OperandSpec constrains one operand slot at decode time.
type OperandSpec uint8

const (
	// SlotNone marks a slot beyond the opcode's arity.
	SlotNone OperandSpec = iota

	// SlotValue accepts a register or an immediate (a read position).
	SlotValue

	// SlotRegister accepts only a register (write positions, and ALU reads
	// whose suffix says register).
	SlotRegister

	// SlotImmediate accepts only an immediate (ALU reads whose suffix says
	// immediate).
	SlotImmediate

	// SlotIgnored is encoded but never read (the first operand of setr/seti);
	// decoders keep the raw number as an immediate.
	SlotIgnored
)

// OpcodeInfo provides decode-time metadata about an opcode.
type OpcodeInfo struct {
	Mnemonic string         // source-form name
	Dialect  Dialect        // which family the opcode belongs to
	Arity    int            // number of encoded operands
	Slots    [3]OperandSpec // per-slot kind constraint
}

var opcodeInfoTable = map[Opcode]OpcodeInfo{
	// Assembly
	OpCpy: {"cpy", DialectAssembly, 2, [3]OperandSpec{SlotValue, SlotRegister, SlotNone}},
	OpInc: {"inc", DialectAssembly, 1, [3]OperandSpec{SlotRegister, SlotNone, SlotNone}},
	OpDec: {"dec", DialectAssembly, 1, [3]OperandSpec{SlotRegister, SlotNone, SlotNone}},
	OpJnz: {"jnz", DialectAssembly, 2, [3]OperandSpec{SlotValue, SlotValue, SlotNone}},
	OpTgl: {"tgl", DialectAssembly, 1, [3]OperandSpec{SlotValue, SlotNone, SlotNone}},
	OpOut: {"out", DialectAssembly, 1, [3]OperandSpec{SlotValue, SlotNone, SlotNone}},

	// ALU
	OpAddr: {"addr", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotRegister, SlotRegister}},
	OpAddi: {"addi", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotImmediate, SlotRegister}},
	OpMulr: {"mulr", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotRegister, SlotRegister}},
	OpMuli: {"muli", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotImmediate, SlotRegister}},
	OpBanr: {"banr", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotRegister, SlotRegister}},
	OpBani: {"bani", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotImmediate, SlotRegister}},
	OpBorr: {"borr", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotRegister, SlotRegister}},
	OpBori: {"bori", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotImmediate, SlotRegister}},
	OpSetr: {"setr", DialectALU, 3, [3]OperandSpec{SlotIgnored, SlotRegister, SlotRegister}},
	OpSeti: {"seti", DialectALU, 3, [3]OperandSpec{SlotIgnored, SlotImmediate, SlotRegister}},
	OpGtir: {"gtir", DialectALU, 3, [3]OperandSpec{SlotImmediate, SlotRegister, SlotRegister}},
	OpGtri: {"gtri", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotImmediate, SlotRegister}},
	OpGtrr: {"gtrr", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotRegister, SlotRegister}},
	OpEqir: {"eqir", DialectALU, 3, [3]OperandSpec{SlotImmediate, SlotRegister, SlotRegister}},
	OpEqri: {"eqri", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotImmediate, SlotRegister}},
	OpEqrr: {"eqrr", DialectALU, 3, [3]OperandSpec{SlotRegister, SlotRegister, SlotRegister}},
}

// mnemonic -> opcode, built once from the info table.
var opcodeByMnemonic = func() map[string]Opcode {
	m := make(map[string]Opcode, len(opcodeInfoTable))
	for op, info := range opcodeInfoTable {
		m[info.Mnemonic] = op
	}
	return m
}()

// Info returns decode metadata for an opcode. Unknown opcodes yield a zero
// info with mnemonic "UNKNOWN".
func Info(op Opcode) OpcodeInfo {
	if info, ok := opcodeInfoTable[op]; ok {
		return info
	}
	return OpcodeInfo{Mnemonic: fmt.Sprintf("UNKNOWN(%d)", uint8(op))}
}

// AllOpcodes returns every defined opcode, both dialects.
func AllOpcodes() []Opcode {
	out := make([]Opcode, 0, opcodeCount)
	for op := Opcode(0); op < opcodeCount; op++ {
		out = append(out, op)
	}
	return out
}

// ByMnemonic looks up an opcode by its source-form name within a dialect.
func ByMnemonic(name string, d Dialect) (Opcode, bool) {
	op, ok := opcodeByMnemonic[name]
	if !ok || opcodeInfoTable[op].Dialect != d {
		return 0, false
	}
	return op, true
}

// String returns the opcode's mnemonic.
func (op Opcode) String() string {
	return Info(op).Mnemonic
}

// toggleTable maps an opcode to what tgl turns it into. One-operand
// instructions become inc (except inc, which becomes dec); two-operand
// instructions become jnz (except jnz, which becomes cpy). ALU opcodes are
// absent: a toggle never changes them.
var toggleTable = map[Opcode]Opcode{
	OpInc: OpDec,
	OpDec: OpInc,
	OpTgl: OpInc,
	OpOut: OpInc,
	OpJnz: OpCpy,
	OpCpy: OpJnz,
}
