package machine

import "fmt"

// IPBinding says where the instruction counter lives. With ManagedIP the
// counter is a private scalar inside the VM; with RegisterIP the counter is
// one of the registers, so any instruction that writes that register moves
// execution. The binding is fixed when the VM is built and never changes.
//
// The zero value is ManagedIP(0).
type IPBinding struct {
	reg   int   // 0 when managed, bound register index + 1 otherwise
	start int64 // initial counter, managed binding only
}

// ManagedIP binds the counter to a private scalar starting at start.
func ManagedIP(start int) IPBinding {
	return IPBinding{start: int64(start)}
}

// RegisterIP aliases the counter to register index. The register's initial
// value (normally zero) is the starting counter.
func RegisterIP(index int) IPBinding {
	if index < 0 {
		panic(fmt.Sprintf("machine: ip register index %d is negative", index))
	}
	return IPBinding{reg: index + 1}
}

// Bound returns the aliased register index, if any.
func (b IPBinding) Bound() (int, bool) {
	if b.reg == 0 {
		return 0, false
	}
	return b.reg - 1, true
}

// Start returns the initial counter for a managed binding.
func (b IPBinding) Start() int64 {
	return b.start
}

// String describes the binding, e.g. "managed(0)" or "register(4)".
func (b IPBinding) String() string {
	if r, ok := b.Bound(); ok {
		return fmt.Sprintf("register(%d)", r)
	}
	return fmt.Sprintf("managed(%d)", b.start)
}
