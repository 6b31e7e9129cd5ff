package machine

import (
	"strings"
	"testing"
)

func TestAllOpcodesHaveMetadata(t *testing.T) {
	for _, op := range AllOpcodes() {
		info := Info(op)
		if info.Mnemonic == "" || strings.HasPrefix(info.Mnemonic, "UNKNOWN") {
			t.Errorf("opcode %d has no metadata", op)
		}
		if info.Arity < 1 || info.Arity > 3 {
			t.Errorf("%s: arity %d outside [1,3]", info.Mnemonic, info.Arity)
		}
		for slot := info.Arity; slot < 3; slot++ {
			if info.Slots[slot] != SlotNone {
				t.Errorf("%s: slot %d beyond arity is %d, want SlotNone", info.Mnemonic, slot, info.Slots[slot])
			}
		}
	}
}

func TestUnknownOpcodeString(t *testing.T) {
	got := Opcode(0xEE).String()
	if !strings.HasPrefix(got, "UNKNOWN") {
		t.Errorf("unknown opcode String() = %q, want UNKNOWN prefix", got)
	}
}

func TestByMnemonicRespectsDialect(t *testing.T) {
	tests := []struct {
		name    string
		dialect Dialect
		want    Opcode
		ok      bool
	}{
		{"cpy", DialectAssembly, OpCpy, true},
		{"tgl", DialectAssembly, OpTgl, true},
		{"addr", DialectALU, OpAddr, true},
		{"eqrr", DialectALU, OpEqrr, true},
		{"cpy", DialectALU, 0, false},
		{"addr", DialectAssembly, 0, false},
		{"nope", DialectAssembly, 0, false},
	}

	for _, tt := range tests {
		got, ok := ByMnemonic(tt.name, tt.dialect)
		if ok != tt.ok || (ok && got != tt.want) {
			t.Errorf("ByMnemonic(%q, %s) = (%v, %v), want (%v, %v)", tt.name, tt.dialect, got, ok, tt.want, tt.ok)
		}
	}
}

func TestDialectNames(t *testing.T) {
	for _, d := range []Dialect{DialectAssembly, DialectALU} {
		back, ok := DialectByName(d.String())
		if !ok || back != d {
			t.Errorf("DialectByName(%q) = (%v, %v), want (%v, true)", d.String(), back, ok, d)
		}
	}
	if _, ok := DialectByName("forth"); ok {
		t.Error("DialectByName(\"forth\") succeeded, want failure")
	}
}
