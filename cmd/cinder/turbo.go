package main

import (
	"github.com/cindervm/cinder/pkg/machine"
)

// mulLoop fast-forwards the canonical multiply-by-repeated-addition idiom of
// the assembly dialect:
//
//	cpy b c
//	inc a
//	dec c
//	jnz c -2
//	dec d
//	jnz d -5
//
// which adds b*d into a and zeroes c and d. Unlike a literal
// machine.WindowRecognizer it matches the shape with any register choice, so
// any program using the idiom benefits without per-program templates.
type mulLoop struct{}

func (mulLoop) TryFastForward(vm *machine.VM) (machine.StepResult, bool) {
	w := vm.Peek(6)
	if w == nil {
		return machine.StepResult{}, false
	}
	if w[0].Op != machine.OpCpy || w[1].Op != machine.OpInc || w[2].Op != machine.OpDec ||
		w[3].Op != machine.OpJnz || w[4].Op != machine.OpDec || w[5].Op != machine.OpJnz {
		return machine.StepResult{}, false
	}

	b := w[0].Args[0] // multiplicand, register or immediate
	c := w[0].Args[1] // inner counter
	a := w[1].Args[0] // accumulator
	d := w[4].Args[0] // outer counter
	if !c.IsRegister() || !a.IsRegister() || !d.IsRegister() {
		return machine.StepResult{}, false
	}
	if w[2].Args[0] != c || w[3].Args[0] != c || w[5].Args[0] != d {
		return machine.StepResult{}, false
	}
	if w[3].Args[1] != machine.Imm(-2) || w[5].Args[1] != machine.Imm(-5) {
		return machine.StepResult{}, false
	}
	// The three mutated registers must be distinct, and the multiplicand
	// must not alias any of them, or the loop is not a plain product.
	if a == c || a == d || c == d {
		return machine.StepResult{}, false
	}
	if b.IsRegister() && (b == a || b == c || b == d) {
		return machine.StepResult{}, false
	}

	regs := vm.Registers()
	bv := b.Resolve(regs)
	dv := regs[d.Value]
	// Nonpositive counters make the loop run away instead of terminating;
	// leave those to the ordinary stepper.
	if bv <= 0 || dv <= 0 {
		return machine.StepResult{}, false
	}

	start := vm.IP()
	regs[a.Value] += bv * dv
	regs[c.Value] = 0
	regs[d.Value] = 0
	vm.SetIP(start + 6)
	return machine.StepResult{Outcome: machine.Stepped}, true
}
