package machine

import "testing"

func TestOperandResolve(t *testing.T) {
	regs := []int64{10, -3, 0, 7}

	tests := []struct {
		op   Operand
		want int64
	}{
		{Imm(0), 0},
		{Imm(42), 42},
		{Imm(-5), -5},
		{Reg(0), 10},
		{Reg(1), -3},
		{Reg(3), 7},
	}

	for _, tt := range tests {
		got := tt.op.Resolve(regs)
		if got != tt.want {
			t.Errorf("%v.Resolve() = %d, want %d", tt.op, got, tt.want)
		}
	}
}

func TestOperandIsRegister(t *testing.T) {
	if !Reg(2).IsRegister() {
		t.Error("Reg(2).IsRegister() = false, want true")
	}
	if Imm(2).IsRegister() {
		t.Error("Imm(2).IsRegister() = true, want false")
	}
}

func TestOperandString(t *testing.T) {
	tests := []struct {
		op   Operand
		want string
	}{
		{Reg(0), "a"},
		{Reg(3), "d"},
		{Reg(30), "r30"},
		{Imm(5), "5"},
		{Imm(-2), "-2"},
	}

	for _, tt := range tests {
		if got := tt.op.String(); got != tt.want {
			t.Errorf("Operand.String() = %q, want %q", got, tt.want)
		}
	}
}

func TestOperandEquality(t *testing.T) {
	// Templates rely on == distinguishing kind, not just value.
	if Reg(2) == Imm(2) {
		t.Error("Reg(2) == Imm(2), want distinct")
	}
	if Reg(1) != Reg(1) {
		t.Error("Reg(1) != Reg(1), want equal")
	}
}
