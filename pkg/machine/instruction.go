package machine

import (
	"fmt"
	"strings"
)

// Instruction is one decoded operation: an opcode plus a fixed, opcode-
// dependent list of operands. Instructions are flat values; copying a
// Program copies them wholesale, and templates compare them with ==.
type Instruction struct {
	Op   Opcode     `cbor:"op"`
	Args [3]Operand `cbor:"args"` // slots beyond Info(Op).Arity stay zero
}

// NewInstruction builds an instruction after checking the opcode's arity and
// operand kinds. It panics on a violation: programs coming out of the
// decoders can never reach this, so a panic here means the caller assembled
// the instruction by hand and got it wrong.
func NewInstruction(op Opcode, args ...Operand) Instruction {
	in := Instruction{Op: op}
	copy(in.Args[:], args)
	if err := checkInstruction(in, len(args)); err != nil {
		panic("machine: " + err.Error())
	}
	return in
}

// checkInstruction verifies arity and operand kinds against the opcode's
// slot constraints. Register range checks happen separately, where the
// register count is known (Program.Validate, New).
func checkInstruction(in Instruction, argc int) error {
	info, ok := opcodeInfoTable[in.Op]
	if !ok {
		return fmt.Errorf("unknown opcode %d", uint8(in.Op))
	}
	if argc != info.Arity {
		return fmt.Errorf("%s takes %d operands, got %d", info.Mnemonic, info.Arity, argc)
	}
	for i := 0; i < info.Arity; i++ {
		switch info.Slots[i] {
		case SlotRegister:
			if !in.Args[i].IsRegister() {
				return fmt.Errorf("%s operand %d must be a register", info.Mnemonic, i+1)
			}
		case SlotImmediate:
			if in.Args[i].IsRegister() {
				return fmt.Errorf("%s operand %d must be an immediate", info.Mnemonic, i+1)
			}
		}
	}
	return nil
}

// Arity returns the number of operands the instruction encodes.
func (in Instruction) Arity() int {
	return Info(in.Op).Arity
}

// String renders the instruction in its source form, e.g. "cpy 2 a" or
// "mulr b c d".
func (in Instruction) String() string {
	info := Info(in.Op)
	parts := make([]string, 0, 4)
	parts = append(parts, info.Mnemonic)
	for i := 0; i < info.Arity; i++ {
		parts = append(parts, in.Args[i].String())
	}
	return strings.Join(parts, " ")
}
