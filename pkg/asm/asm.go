// Package asm decodes line-oriented source text into machine programs, one
// instruction per line, whitespace-separated. There is one decoder per
// dialect; both guarantee that a returned Program is fully well-formed, so
// the stepper never has to validate anything.
package asm

import (
	"strconv"
	"strings"

	"github.com/cindervm/cinder/pkg/machine"
)

// ParseAssembly decodes assembly-dialect source (cpy/inc/dec/jnz/tgl/out).
// Registers are single letters starting at 'a'; immediates are signed
// integers. Blank lines and lines starting with '#' are skipped.
func ParseAssembly(src string, registers int) (machine.Program, error) {
	var prog machine.Program
	for i, raw := range strings.Split(src, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		in, err := decodeLine(text, i+1, registers, machine.DialectAssembly)
		if err != nil {
			return nil, err
		}
		prog = append(prog, in)
	}
	return prog, nil
}

// decodeLine turns one trimmed source line into an instruction, enforcing
// the opcode's arity and per-slot operand constraints.
func decodeLine(text string, lineNo, registers int, d machine.Dialect) (machine.Instruction, error) {
	fields := strings.Fields(text)
	op, ok := machine.ByMnemonic(fields[0], d)
	if !ok {
		return machine.Instruction{}, &ParseError{
			Line: lineNo, Text: text, Kind: ErrBadOpcode,
			Reason: "unknown mnemonic " + strconv.Quote(fields[0]),
		}
	}
	info := machine.Info(op)
	if len(fields)-1 != info.Arity {
		return machine.Instruction{}, &ParseError{
			Line: lineNo, Text: text, Kind: ErrBadOperandCount,
			Reason: fields[0] + " takes " + strconv.Itoa(info.Arity) + " operands, got " + strconv.Itoa(len(fields)-1),
		}
	}

	in := machine.Instruction{Op: op}
	for slot := 0; slot < info.Arity; slot++ {
		arg, reason := decodeOperand(fields[slot+1], info.Slots[slot], registers, d)
		if reason != "" {
			return machine.Instruction{}, &ParseError{
				Line: lineNo, Text: text, Kind: ErrBadOperand, Reason: reason,
			}
		}
		in.Args[slot] = arg
	}
	return in, nil
}

// decodeOperand decodes one token under a slot constraint. The assembly
// dialect names registers by letter; the ALU dialect uses bare numbers whose
// kind comes entirely from the slot. A non-empty reason signals failure.
func decodeOperand(tok string, spec machine.OperandSpec, registers int, d machine.Dialect) (machine.Operand, string) {
	if d == machine.DialectALU {
		n, err := strconv.ParseInt(tok, 10, 64)
		if err != nil {
			return machine.Operand{}, "not a number: " + strconv.Quote(tok)
		}
		switch spec {
		case machine.SlotRegister:
			if n < 0 || n >= int64(registers) {
				return machine.Operand{}, "register " + tok + " out of range [0," + strconv.Itoa(registers) + ")"
			}
			return machine.Reg(int(n)), ""
		default:
			// SlotImmediate and SlotIgnored both keep the raw number.
			return machine.Imm(n), ""
		}
	}

	// Assembly dialect: a single letter is a register, anything else must
	// parse as a signed integer.
	if len(tok) == 1 && tok[0] >= 'a' && tok[0] <= 'z' {
		idx := int(tok[0] - 'a')
		if idx >= registers {
			return machine.Operand{}, "register " + strconv.Quote(tok) + " out of range for " + strconv.Itoa(registers) + " registers"
		}
		return machine.Reg(idx), ""
	}
	n, err := strconv.ParseInt(tok, 10, 64)
	if err != nil {
		return machine.Operand{}, "not a register or number: " + strconv.Quote(tok)
	}
	if spec == machine.SlotRegister {
		return machine.Operand{}, "immediate " + tok + " in a write position"
	}
	return machine.Imm(n), ""
}
