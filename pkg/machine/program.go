package machine

import "fmt"

// Program is the ordered instruction sequence a VM executes, addressable by
// index. It is mutable because tgl rewrites instructions in place, and a run
// therefore consumes it destructively: callers that want to rerun from
// scratch must Clone first rather than share the slice.
type Program []Instruction

// Clone returns an independent copy of the program. Instructions are flat
// values, so this is a single allocation.
func (p Program) Clone() Program {
	out := make(Program, len(p))
	copy(out, p)
	return out
}

// Toggle rewrites the instruction at target in place per the tgl rules:
// one-operand instructions become inc (inc itself becomes dec), two-operand
// instructions become jnz (jnz itself becomes cpy). Operand slots and their
// kinds are kept as-is, which can leave an instruction whose write target is
// an immediate; the stepper skips those.
//
// A target outside [0, len) is a no-op, as is a toggle whose resulting
// opcode would need a different number of operands than the instruction
// already encodes.
func (p Program) Toggle(target int) {
	if target < 0 || target >= len(p) {
		return
	}
	old := p[target].Op
	flipped, ok := toggleTable[old]
	if !ok {
		return
	}
	if Info(flipped).Arity != Info(old).Arity {
		return
	}
	p[target].Op = flipped
}

// Validate checks that every instruction is legal for the dialect and that
// every register operand fits the configured register count. Decoders and
// the container loader run this so that programs reaching a VM are
// guaranteed well-formed.
func (p Program) Validate(registers int, d Dialect) error {
	if registers <= 0 {
		return fmt.Errorf("register count must be positive, got %d", registers)
	}
	for i, in := range p {
		info, ok := opcodeInfoTable[in.Op]
		if !ok {
			return fmt.Errorf("instruction %d: unknown opcode %d", i, uint8(in.Op))
		}
		if info.Dialect != d {
			return fmt.Errorf("instruction %d: %s is not a %s opcode", i, info.Mnemonic, d)
		}
		if err := checkInstruction(in, info.Arity); err != nil {
			return fmt.Errorf("instruction %d: %w", i, err)
		}
		for slot := 0; slot < info.Arity; slot++ {
			arg := in.Args[slot]
			if arg.IsRegister() && (arg.Value < 0 || arg.Value >= int64(registers)) {
				return fmt.Errorf("instruction %d: register %d out of range [0,%d)", i, arg.Value, registers)
			}
		}
	}
	return nil
}
