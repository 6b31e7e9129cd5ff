// Package machine implements a small register-machine interpreter: a fixed
// bank of signed 64-bit registers, an ordered program of decoded
// instructions, and a single-step execution contract.
//
// Two instruction families share the one engine:
//
//   - The assembly family (cpy/inc/dec/jnz/tgl/out) is a variable-arity toy
//     ISA. Its tgl opcode rewrites other instructions in the program at
//     runtime, so a Program is mutable and destructively consumed by a run.
//
//   - The ALU family (addr/addi/mulr/.../eqrr) is a fixed three-operand ISA
//     where every instruction writes a register. Its control flow comes from
//     binding the instruction counter to a register (RegisterIP), so ordinary
//     arithmetic on that register is a jump.
//
// The counter contract: between steps the counter is the index of the next
// instruction; the moment it leaves [0, len(program)) the machine has halted.
// Halting is the normal termination signal, never an error.
//
// On top of the stepper sit two hook mechanisms:
//
//   - Interrupt hooks (InterruptFunc) run between steps with mutable access
//     to the VM, and can stop a run early or patch registers mid-flight.
//
//   - Fast-forward recognizers (FastForward) run before a step, match a
//     window of upcoming instructions, and replace the whole window with an
//     equivalent bulk register update. Recognizers are a pure optimization:
//     running the window instruction-by-instruction must leave the registers
//     in exactly the same state.
//
// Programs reaching a VM are assumed well-formed: the decoders in pkg/asm
// and the container loader in pkg/progfile validate operand kinds and
// register ranges, so the stepper never checks them. Hand-built programs go
// through New, which panics on contract violations rather than tolerating
// them.
package machine
