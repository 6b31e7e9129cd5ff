package machine

// WindowRecognizer is a FastForward for one fixed instruction window. It
// matches the upcoming instructions against Window by literal equality and,
// on a match, applies Apply to the registers and advances the counter past
// the window.
//
// Apply must compute exactly what the window computes: the recognizer is an
// optimization, not a semantics change, and comparing a fast-forwarded run
// against a plain run of the same program is the way to keep it honest.
type WindowRecognizer struct {
	Window []Instruction      // template, matched by literal equality
	Apply  func(regs []int64) // the bulk update the window implements
}

// TryFastForward implements FastForward.
func (r *WindowRecognizer) TryFastForward(vm *VM) (StepResult, bool) {
	if len(r.Window) == 0 {
		return StepResult{}, false
	}
	upcoming := vm.Peek(len(r.Window))
	if upcoming == nil {
		return StepResult{}, false
	}
	for i := range upcoming {
		if upcoming[i] != r.Window[i] {
			return StepResult{}, false
		}
	}
	// The counter is captured first so an Apply that touches a bound ip
	// register cannot skew the advance.
	start := vm.IP()
	r.Apply(vm.Registers())
	vm.SetIP(start + int64(len(r.Window)))
	return StepResult{Outcome: Stepped}, true
}

// FastForwards composes recognizers: each is tried in order and the first
// match wins. An empty list always declines.
type FastForwards []FastForward

// TryFastForward implements FastForward.
func (ffs FastForwards) TryFastForward(vm *VM) (StepResult, bool) {
	for _, ff := range ffs {
		if res, ok := ff.TryFastForward(vm); ok {
			return res, ok
		}
	}
	return StepResult{}, false
}
