package machine

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/tliron/commonlog"
)

// StepOutcome classifies what a single step produced.
type StepOutcome uint8

const (
	// Halted means the counter was (or moved) outside the program. The
	// machine is done; further steps keep returning Halted.
	Halted StepOutcome = iota

	// Stepped means one instruction ran and produced no output.
	Stepped

	// Emitted means an out instruction ran; Value carries the output.
	Emitted
)

// String returns a short name for the outcome.
func (o StepOutcome) String() string {
	switch o {
	case Halted:
		return "halted"
	case Stepped:
		return "stepped"
	case Emitted:
		return "emitted"
	default:
		return fmt.Sprintf("StepOutcome(%d)", uint8(o))
	}
}

// StepResult is the result of one step or one fast-forward.
type StepResult struct {
	Outcome StepOutcome
	Value   int64 // meaningful only when Outcome == Emitted
}

// InterruptFunc observes and may mutate the VM between steps. Returning
// false stops the run.
type InterruptFunc func(*VM) bool

// FastForward recognizes a window of upcoming instructions and, on a match,
// performs the equivalent bulk register update and advances the counter past
// the window. Declining (ok == false) is the expected common case and falls
// through to ordinary stepping. A recognizer must be semantically
// transparent: stepping the matched window instruction by instruction has to
// leave the registers in exactly the same state.
type FastForward interface {
	TryFastForward(vm *VM) (res StepResult, ok bool)
}

// VM executes a Program against a fixed register file. It owns the Program
// exclusively; tgl mutates it in place, so a VM is single-use unless the
// caller cloned the program beforehand.
type VM struct {
	prog    Program
	regs    []int64
	ip      int64 // authoritative only for a managed binding
	binding IPBinding
	steps   uint64
	id      string

	// Trace makes every step emit a debug line through the logger. It has
	// no effect on semantics.
	Trace bool

	log commonlog.Logger
}

// New builds a VM over prog with the given register count and counter
// binding. It panics if the program references a register outside
// [0, registers) or if the binding does: a well-formed, decoded program can
// never trip this, so it indicates a bug in the calling layer.
func New(prog Program, registers int, binding IPBinding) *VM {
	if registers <= 0 {
		panic(fmt.Sprintf("machine: register count must be positive, got %d", registers))
	}
	if r, ok := binding.Bound(); ok && r >= registers {
		panic(fmt.Sprintf("machine: ip register %d out of range [0,%d)", r, registers))
	}
	for i, in := range prog {
		info := Info(in.Op)
		for slot := 0; slot < info.Arity; slot++ {
			arg := in.Args[slot]
			if arg.IsRegister() && (arg.Value < 0 || arg.Value >= int64(registers)) {
				panic(fmt.Sprintf("machine: instruction %d (%s): register %d out of range [0,%d)",
					i, in, arg.Value, registers))
			}
		}
	}
	return &VM{
		prog:    prog,
		regs:    make([]int64, registers),
		ip:      binding.Start(),
		binding: binding,
		id:      "vm-" + uuid.NewString()[:8],
		log:     commonlog.GetLogger("cinder.machine"),
	}
}

// ID returns the instance id used to label trace lines.
func (vm *VM) ID() string {
	return vm.id
}

// Registers returns the live register file. Interrupt hooks and readout use
// it directly; writes take effect on the next step.
func (vm *VM) Registers() []int64 {
	return vm.regs
}

// Register reads one register.
func (vm *VM) Register(index int) int64 {
	return vm.regs[index]
}

// SetRegister writes one register. Writing the bound ip register moves
// execution, same as an instruction writing it would.
func (vm *VM) SetRegister(index int, value int64) {
	vm.regs[index] = value
}

// Program returns the live program. Fast-forward recognizers read it to
// inspect upcoming instructions; mutating it aliases what tgl does.
func (vm *VM) Program() Program {
	return vm.prog
}

// IP returns the current instruction counter, reading through the register
// binding when one is configured.
func (vm *VM) IP() int64 {
	if r, ok := vm.binding.Bound(); ok {
		return vm.regs[r]
	}
	return vm.ip
}

// SetIP moves the instruction counter, writing through the register binding
// when one is configured.
func (vm *VM) SetIP(value int64) {
	if r, ok := vm.binding.Bound(); ok {
		vm.regs[r] = value
		return
	}
	vm.ip = value
}

// Binding returns the counter binding the VM was built with.
func (vm *VM) Binding() IPBinding {
	return vm.binding
}

// Steps returns how many instructions have executed. Fast-forwarded windows
// count as zero: they bypass the stepper.
func (vm *VM) Steps() uint64 {
	return vm.steps
}

// Halted reports whether the counter is outside the program.
func (vm *VM) Halted() bool {
	ip := vm.IP()
	return ip < 0 || ip >= int64(len(vm.prog))
}

// Peek returns the next n instructions starting at the counter, or nil if
// fewer than n remain. The returned slice aliases the live program.
func (vm *VM) Peek(n int) []Instruction {
	ip := vm.IP()
	if ip < 0 || ip+int64(n) > int64(len(vm.prog)) {
		return nil
	}
	return vm.prog[ip : ip+int64(n)]
}

// Step executes exactly one instruction. A counter outside the program is
// the sole terminal condition and yields Halted without touching any state.
func (vm *VM) Step() StepResult {
	ip := vm.IP()
	if ip < 0 || ip >= int64(len(vm.prog)) {
		return StepResult{Outcome: Halted}
	}
	in := vm.prog[ip]
	if vm.Trace {
		vm.log.Debugf("%s [%4d] %-16s %v", vm.id, ip, in, vm.regs)
	}
	vm.steps++

	res := StepResult{Outcome: Stepped}
	switch in.Op {
	case OpCpy:
		// A toggled jnz can leave an immediate in the write slot; such an
		// instruction is skipped.
		if in.Args[1].IsRegister() {
			vm.regs[in.Args[1].Value] = in.Args[0].Resolve(vm.regs)
			vm.finishWrite(ip, int(in.Args[1].Value))
			return res
		}
		vm.SetIP(ip + 1)

	case OpInc:
		if in.Args[0].IsRegister() {
			vm.regs[in.Args[0].Value]++
			vm.finishWrite(ip, int(in.Args[0].Value))
			return res
		}
		vm.SetIP(ip + 1)

	case OpDec:
		if in.Args[0].IsRegister() {
			vm.regs[in.Args[0].Value]--
			vm.finishWrite(ip, int(in.Args[0].Value))
			return res
		}
		vm.SetIP(ip + 1)

	case OpJnz:
		if in.Args[0].Resolve(vm.regs) != 0 {
			vm.SetIP(ip + in.Args[1].Resolve(vm.regs))
		} else {
			vm.SetIP(ip + 1)
		}

	case OpTgl:
		// The target is fixed from pre-step register values; the mutation is
		// a plain element replacement.
		vm.prog.Toggle(int(ip + in.Args[0].Resolve(vm.regs)))
		vm.SetIP(ip + 1)

	case OpOut:
		res = StepResult{Outcome: Emitted, Value: in.Args[0].Resolve(vm.regs)}
		vm.SetIP(ip + 1)

	default:
		vm.stepALU(ip, in)
	}
	return res
}

// stepALU executes one ALU-family instruction: dst = f(a, b), then the
// counter advances by one unless dst is the bound ip register, in which case
// the write itself was the jump.
func (vm *VM) stepALU(ip int64, in Instruction) {
	a := in.Args[0].Resolve(vm.regs)
	b := in.Args[1].Resolve(vm.regs)

	var v int64
	switch in.Op {
	case OpAddr, OpAddi:
		v = a + b
	case OpMulr, OpMuli:
		v = a * b
	case OpBanr, OpBani:
		v = a & b
	case OpBorr, OpBori:
		v = a | b
	case OpSetr, OpSeti:
		v = b
	case OpGtir, OpGtri, OpGtrr:
		v = boolToWord(a > b)
	case OpEqir, OpEqri, OpEqrr:
		v = boolToWord(a == b)
	default:
		panic(fmt.Sprintf("machine: unknown opcode %d at %d", uint8(in.Op), ip))
	}

	dst := int(in.Args[2].Value)
	vm.regs[dst] = v
	vm.finishWrite(ip, dst)
}

// finishWrite advances the counter after a register write: +1 as usual, or
// nothing when the write went to the bound ip register, because then the
// write was the counter update.
func (vm *VM) finishWrite(ip int64, dst int) {
	if r, ok := vm.binding.Bound(); ok && r == dst {
		return
	}
	vm.SetIP(ip + 1)
}

// RunToEnd drives Step until the machine halts and returns every emitted
// output value in order.
func (vm *VM) RunToEnd() []int64 {
	var out []int64
	for {
		res := vm.Step()
		switch res.Outcome {
		case Halted:
			return out
		case Emitted:
			out = append(out, res.Value)
		}
	}
}

// RunWithInterrupt drives Step until the machine halts or hook returns
// false. The hook runs after every executed step with mutable access to the
// VM; a nil hook makes this equivalent to RunToEnd.
func (vm *VM) RunWithInterrupt(hook InterruptFunc) []int64 {
	var out []int64
	for {
		res := vm.Step()
		if res.Outcome == Halted {
			return out
		}
		if res.Outcome == Emitted {
			out = append(out, res.Value)
		}
		if hook != nil && !hook(vm) {
			return out
		}
	}
}

// StepTurbo gives ff a chance to fast-forward the upcoming window and falls
// back to exactly one ordinary step when it declines.
func (vm *VM) StepTurbo(ff FastForward) StepResult {
	if ff != nil {
		if vm.Halted() {
			return StepResult{Outcome: Halted}
		}
		if res, ok := ff.TryFastForward(vm); ok {
			if vm.Trace {
				vm.log.Debugf("%s [%4d] fast-forward      %v", vm.id, vm.IP(), vm.regs)
			}
			return res
		}
	}
	return vm.Step()
}

// RunTurbo drives StepTurbo until the machine halts and returns every
// emitted output value in order.
func (vm *VM) RunTurbo(ff FastForward) []int64 {
	var out []int64
	for {
		res := vm.StepTurbo(ff)
		switch res.Outcome {
		case Halted:
			return out
		case Emitted:
			out = append(out, res.Value)
		}
	}
}

func boolToWord(b bool) int64 {
	if b {
		return 1
	}
	return 0
}
