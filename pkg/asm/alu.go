package asm

import (
	"strconv"
	"strings"

	"github.com/cindervm/cinder/pkg/machine"
)

// ParseALU decodes ALU-dialect source: three numeric operands per line whose
// kinds come from the opcode suffix. An optional leading "#ip N" directive
// aliases the instruction counter to register N; without it the counter is
// managed and starts at zero. Blank lines and other '#' lines are skipped.
func ParseALU(src string, registers int) (machine.Program, machine.IPBinding, error) {
	binding := machine.ManagedIP(0)
	sawInstruction := false

	var prog machine.Program
	for i, raw := range strings.Split(src, "\n") {
		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		if strings.HasPrefix(text, "#") {
			// Only a whole "#ip" token is a directive; "#ipsum ..." is a comment.
			if strings.Fields(text)[0] != "#ip" {
				continue
			}
			if sawInstruction {
				return nil, binding, &ParseError{
					Line: i + 1, Text: text, Kind: ErrBadOpcode,
					Reason: "#ip directive must precede the first instruction",
				}
			}
			b, err := decodeIPDirective(text, i+1, registers)
			if err != nil {
				return nil, binding, err
			}
			binding = b
			continue
		}
		in, err := decodeLine(text, i+1, registers, machine.DialectALU)
		if err != nil {
			return nil, binding, err
		}
		prog = append(prog, in)
		sawInstruction = true
	}
	return prog, binding, nil
}

func decodeIPDirective(text string, lineNo, registers int) (machine.IPBinding, error) {
	fields := strings.Fields(text)
	badDirective := &ParseError{
		Line: lineNo, Text: text, Kind: ErrBadOperand,
		Reason: "#ip needs a register index in [0," + strconv.Itoa(registers) + ")",
	}
	if len(fields) != 2 {
		return machine.IPBinding{}, badDirective
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil || n < 0 || n >= registers {
		return machine.IPBinding{}, badDirective
	}
	return machine.RegisterIP(n), nil
}
