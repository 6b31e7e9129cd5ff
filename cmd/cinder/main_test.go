package main

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/cindervm/cinder/pkg/machine"
	"github.com/cindervm/cinder/pkg/progfile"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoadProgramAssembly(t *testing.T) {
	cfg := runConfig{
		programPath: writeFile(t, "prog.asm", "cpy 5 a\ndec a\njnz a -1\n"),
		dialectName: "assembly",
		ipRegister:  -1,
	}

	prog, dialect, regCount, binding, err := cfg.loadProgram()
	if err != nil {
		t.Fatalf("loadProgram: %v", err)
	}
	if dialect != machine.DialectAssembly {
		t.Errorf("dialect = %v, want assembly", dialect)
	}
	if regCount != 4 {
		t.Errorf("regCount = %d, want the default 4", regCount)
	}
	if len(prog) != 3 {
		t.Errorf("len(prog) = %d, want 3", len(prog))
	}
	if _, ok := binding.Bound(); ok {
		t.Errorf("binding = %v, want managed", binding)
	}
}

func TestLoadProgramALUDirectiveWins(t *testing.T) {
	cfg := runConfig{
		programPath: writeFile(t, "prog.alu", "#ip 3\nseti 0 7 0\n"),
		dialectName: "alu",
		ipRegister:  1, // the #ip directive overrides this
	}

	_, _, regCount, binding, err := cfg.loadProgram()
	if err != nil {
		t.Fatalf("loadProgram: %v", err)
	}
	if regCount != 6 {
		t.Errorf("regCount = %d, want the alu default 6", regCount)
	}
	if r, ok := binding.Bound(); !ok || r != 3 {
		t.Errorf("binding = %v, want register(3)", binding)
	}
}

func TestLoadProgramContainer(t *testing.T) {
	img := progfile.NewImage(machine.Program{
		machine.NewInstruction(machine.OpCpy, machine.Imm(9), machine.Reg(0)),
	}, 4, machine.DialectAssembly, machine.ManagedIP(0))
	path := filepath.Join(t.TempDir(), "prog.cnpr")
	if err := progfile.Save(path, img); err != nil {
		t.Fatal(err)
	}

	// Container metadata wins over flags.
	cfg := runConfig{programPath: path, dialectName: "alu", registers: 8}
	prog, dialect, regCount, _, err := cfg.loadProgram()
	if err != nil {
		t.Fatalf("loadProgram: %v", err)
	}
	if dialect != machine.DialectAssembly || regCount != 4 || len(prog) != 1 {
		t.Errorf("got dialect=%v regCount=%d len=%d, want assembly/4/1", dialect, regCount, len(prog))
	}
}

func TestLoadProgramUnknownDialect(t *testing.T) {
	cfg := runConfig{
		programPath: writeFile(t, "prog.asm", "inc a\n"),
		dialectName: "forth",
	}
	if _, _, _, _, err := cfg.loadProgram(); err == nil {
		t.Fatal("want error for unknown dialect")
	}
}

func TestLoadProgramIPRegisterOutOfRange(t *testing.T) {
	// Bad flag input must come back as an error, never a panic.
	cfg := runConfig{
		programPath: writeFile(t, "prog.asm", "inc a\n"),
		dialectName: "assembly",
		ipRegister:  9,
	}
	_, _, _, _, err := cfg.loadProgram()
	if err == nil {
		t.Fatal("want error for ip register beyond the register count")
	}
	if !strings.Contains(err.Error(), "out of range") {
		t.Errorf("err = %v, want an out-of-range message", err)
	}
}

func TestSeedRegisters(t *testing.T) {
	vm := machine.New(machine.Program{}, 4, machine.ManagedIP(0))
	cfg := runConfig{
		seedMap: map[string]int64{"a": 1, "b": 2},
		seeds:   "b=20, d=-4",
	}
	if err := cfg.seedRegisters(vm); err != nil {
		t.Fatalf("seedRegisters: %v", err)
	}
	want := []int64{1, 20, 0, -4}
	for i, v := range want {
		if got := vm.Register(i); got != v {
			t.Errorf("register %d = %d, want %d", i, got, v)
		}
	}
}

func TestSeedRegistersErrors(t *testing.T) {
	vm := machine.New(machine.Program{}, 4, machine.ManagedIP(0))
	for _, seeds := range []string{"a", "a=x", "z=1", "!=1"} {
		cfg := runConfig{seeds: seeds}
		if err := cfg.seedRegisters(vm); err == nil {
			t.Errorf("seeds %q: want error", seeds)
		}
	}
}

func TestRunHonorsStepBudget(t *testing.T) {
	vm := machine.New(machine.Program{
		machine.NewInstruction(machine.OpInc, machine.Reg(0)),
		machine.NewInstruction(machine.OpJnz, machine.Imm(1), machine.Imm(-1)),
	}, 4, machine.ManagedIP(0))

	_, finished := run(vm, nil, 100)
	if finished {
		t.Error("finished = true, want false (the loop never halts)")
	}
	if got := vm.Steps(); got != 100 {
		t.Errorf("Steps() = %d, want 100", got)
	}
}

func TestRunCollectsOutput(t *testing.T) {
	vm := machine.New(machine.Program{
		machine.NewInstruction(machine.OpOut, machine.Imm(3)),
		machine.NewInstruction(machine.OpOut, machine.Imm(1)),
	}, 4, machine.ManagedIP(0))

	out, finished := run(vm, nil, 0)
	if !finished {
		t.Error("finished = false, want true")
	}
	if len(out) != 2 || out[0] != 3 || out[1] != 1 {
		t.Errorf("out = %v, want [3 1]", out)
	}
}

func mulWindow(b, c, a, d machine.Operand) machine.Program {
	return machine.Program{
		machine.NewInstruction(machine.OpCpy, b, c),
		machine.NewInstruction(machine.OpInc, a),
		machine.NewInstruction(machine.OpDec, c),
		machine.NewInstruction(machine.OpJnz, c, machine.Imm(-2)),
		machine.NewInstruction(machine.OpDec, d),
		machine.NewInstruction(machine.OpJnz, d, machine.Imm(-5)),
	}
}

func TestMulLoopFastForward(t *testing.T) {
	// Any register assignment of the multiply shape must match.
	vm := machine.New(mulWindow(machine.Reg(3), machine.Reg(2), machine.Reg(0), machine.Reg(1)), 4, machine.ManagedIP(0))
	vm.SetRegister(3, 11)
	vm.SetRegister(1, 4)

	res, ok := mulLoop{}.TryFastForward(vm)
	if !ok {
		t.Fatal("TryFastForward declined, want a match")
	}
	if res.Outcome != machine.Stepped {
		t.Errorf("outcome = %v, want Stepped", res.Outcome)
	}
	if got := vm.Register(0); got != 44 {
		t.Errorf("a = %d, want 44", got)
	}
	if vm.Register(2) != 0 || vm.Register(1) != 0 {
		t.Errorf("counters = %d,%d, want 0,0", vm.Register(2), vm.Register(1))
	}
	if !vm.Halted() {
		t.Errorf("IP() = %d, want past the window", vm.IP())
	}
}

func TestMulLoopMatchesEquivalentToStepping(t *testing.T) {
	prog := mulWindow(machine.Imm(9), machine.Reg(2), machine.Reg(0), machine.Reg(3))

	plain := machine.New(prog.Clone(), 4, machine.ManagedIP(0))
	plain.SetRegister(3, 5)
	plain.RunToEnd()

	turbo := machine.New(prog.Clone(), 4, machine.ManagedIP(0))
	turbo.SetRegister(3, 5)
	turbo.RunTurbo(mulLoop{})

	for i := 0; i < 4; i++ {
		if plain.Register(i) != turbo.Register(i) {
			t.Errorf("register %d: plain %d != turbo %d", i, plain.Register(i), turbo.Register(i))
		}
	}
}

func TestMulLoopDeclines(t *testing.T) {
	reg := machine.Reg
	tests := []struct {
		name string
		prog machine.Program
		seed map[int]int64
	}{
		{"aliased counters", mulWindow(reg(1), reg(2), reg(0), reg(2)), map[int]int64{1: 3, 2: 3}},
		{"multiplicand aliases accumulator", mulWindow(reg(0), reg(2), reg(0), reg(3)), map[int]int64{0: 3, 3: 3}},
		{"nonpositive outer counter", mulWindow(reg(1), reg(2), reg(0), reg(3)), map[int]int64{1: 3, 3: 0}},
		{"nonpositive multiplicand", mulWindow(reg(1), reg(2), reg(0), reg(3)), map[int]int64{1: -2, 3: 3}},
		{"too short", machine.Program{machine.NewInstruction(machine.OpInc, reg(0))}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			vm := machine.New(tt.prog, 4, machine.ManagedIP(0))
			for i, v := range tt.seed {
				vm.SetRegister(i, v)
			}
			if _, ok := (mulLoop{}).TryFastForward(vm); ok {
				t.Error("TryFastForward matched, want a decline")
			}
		})
	}
}
