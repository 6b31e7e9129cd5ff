package asm

import "fmt"

// ErrorKind classifies what went wrong with one source line.
type ErrorKind uint8

const (
	// ErrBadOpcode means the mnemonic is not part of the dialect.
	ErrBadOpcode ErrorKind = iota

	// ErrBadOperandCount means the line has the wrong number of operands.
	ErrBadOperandCount

	// ErrBadOperand means an operand is malformed: not a number or register
	// name, a register out of range, or an immediate in a write position.
	ErrBadOperand
)

// String returns a short name for the kind.
func (k ErrorKind) String() string {
	switch k {
	case ErrBadOpcode:
		return "bad opcode"
	case ErrBadOperandCount:
		return "bad operand count"
	case ErrBadOperand:
		return "bad operand"
	default:
		return fmt.Sprintf("ErrorKind(%d)", uint8(k))
	}
}

// ParseError reports one undecodable source line. Decoding stops at the
// first bad line, so a well-formed prefix never leaks out.
type ParseError struct {
	Line   int    // 1-based line number
	Text   string // the offending line, trimmed
	Kind   ErrorKind
	Reason string // human-readable detail
}

// Error implements error.
func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s: %s (%q)", e.Line, e.Kind, e.Reason, e.Text)
}
