package machine

import "strconv"

// OperandKind distinguishes register references from immediate constants.
type OperandKind uint8

const (
	// KindRegister refers to a register by index.
	KindRegister OperandKind = iota

	// KindImmediate is a constant baked into the instruction at decode time.
	KindImmediate
)

// Operand is a value reference inside an instruction: either a register
// index or an immediate constant. Operands are small flat values, copied
// freely and compared with ==.
type Operand struct {
	Kind  OperandKind `cbor:"k"`
	Value int64       `cbor:"v"` // register index for KindRegister, the constant otherwise
}

// Reg returns an operand referring to register index.
func Reg(index int) Operand {
	return Operand{Kind: KindRegister, Value: int64(index)}
}

// Imm returns an immediate operand holding value.
func Imm(value int64) Operand {
	return Operand{Kind: KindImmediate, Value: value}
}

// IsRegister reports whether the operand names a register.
func (o Operand) IsRegister() bool {
	return o.Kind == KindRegister
}

// Resolve reads the operand against a register file: an immediate yields
// itself, a register reference yields the register's current value.
func (o Operand) Resolve(regs []int64) int64 {
	if o.Kind == KindImmediate {
		return o.Value
	}
	return regs[o.Value]
}

// String renders registers as letters (a, b, c, ...) and immediates as
// plain numbers, matching the assembly dialect's source form.
func (o Operand) String() string {
	if o.Kind == KindRegister {
		if o.Value >= 0 && o.Value < 26 {
			return string(rune('a' + o.Value))
		}
		return "r" + strconv.FormatInt(o.Value, 10)
	}
	return strconv.FormatInt(o.Value, 10)
}
