// Package manifest handles cinder.toml run configuration.
package manifest

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/BurntSushi/toml"

	"github.com/cindervm/cinder/pkg/machine"
)

// Manifest represents a cinder.toml run configuration.
type Manifest struct {
	Program Program `toml:"program"`
	Machine Machine `toml:"machine"`
	Run     Run     `toml:"run"`

	// Dir is the directory containing the cinder.toml file (set at load time).
	Dir string `toml:"-"`
}

// Program says what to execute.
type Program struct {
	Path      string `toml:"path"`      // program source, relative to Dir
	Dialect   string `toml:"dialect"`   // "assembly" or "alu"
	Registers int    `toml:"registers"` // register count; 0 means the dialect default
}

// Machine configures the initial execution state.
type Machine struct {
	// Seed maps register names ("a", "b", ... or "0", "1", ...) to their
	// starting values. Unnamed registers start at zero.
	Seed map[string]int64 `toml:"seed"`

	// IPRegister aliases the instruction counter to a register. -1 (the
	// default) keeps the counter managed. For the ALU dialect a #ip
	// directive in the program wins over this field.
	IPRegister int `toml:"ip-register"`

	// IPStart is the starting counter for a managed binding.
	IPStart int `toml:"ip-start"`
}

// Run configures how the program is driven.
type Run struct {
	Trace    bool   `toml:"trace"`
	Turbo    bool   `toml:"turbo"`
	MaxSteps uint64 `toml:"max-steps"` // 0 = unlimited
}

// Dialect register counts observed in practice; used when registers is 0.
const (
	defaultAssemblyRegisters = 4
	defaultALURegisters      = 6
)

// Load parses a cinder.toml file from the given directory.
func Load(dir string) (*Manifest, error) {
	path := filepath.Join(dir, "cinder.toml")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("cannot read %s: %w", path, err)
	}

	m := &Manifest{Machine: Machine{IPRegister: -1}}
	if err := toml.Unmarshal(data, m); err != nil {
		return nil, fmt.Errorf("parse error in %s: %w", path, err)
	}
	m.Dir = dir

	if err := m.validate(path); err != nil {
		return nil, err
	}
	m.applyDefaults()
	// The register count is only settled after defaults, so the counter
	// binding is checked here rather than in validate.
	if m.Machine.IPRegister >= m.Program.Registers {
		return nil, fmt.Errorf("%s: machine.ip-register %d out of range for %d registers", path, m.Machine.IPRegister, m.Program.Registers)
	}
	return m, nil
}

func (m *Manifest) validate(path string) error {
	if m.Program.Path == "" {
		return fmt.Errorf("%s: program.path is required", path)
	}
	if _, ok := machine.DialectByName(m.Program.Dialect); !ok {
		return fmt.Errorf("%s: program.dialect must be \"assembly\" or \"alu\", got %q", path, m.Program.Dialect)
	}
	return nil
}

func (m *Manifest) applyDefaults() {
	if m.Program.Registers == 0 {
		if m.Program.Dialect == machine.DialectALU.String() {
			m.Program.Registers = defaultALURegisters
		} else {
			m.Program.Registers = defaultAssemblyRegisters
		}
	}
}

// Dialect returns the parsed dialect. Only valid after Load succeeded.
func (m *Manifest) Dialect() machine.Dialect {
	d, _ := machine.DialectByName(m.Program.Dialect)
	return d
}

// ProgramPath returns the program source path resolved against Dir.
func (m *Manifest) ProgramPath() string {
	if filepath.IsAbs(m.Program.Path) {
		return m.Program.Path
	}
	return filepath.Join(m.Dir, m.Program.Path)
}

// Binding returns the counter binding the manifest describes.
func (m *Manifest) Binding() machine.IPBinding {
	if m.Machine.IPRegister >= 0 {
		return machine.RegisterIP(m.Machine.IPRegister)
	}
	return machine.ManagedIP(m.Machine.IPStart)
}

// SeedRegisters applies the seed map to a register file.
func (m *Manifest) SeedRegisters(regs []int64) error {
	for name, value := range m.Machine.Seed {
		idx, err := RegisterIndex(name)
		if err != nil {
			return err
		}
		if idx >= len(regs) {
			return fmt.Errorf("seed register %q out of range for %d registers", name, len(regs))
		}
		regs[idx] = value
	}
	return nil
}

// RegisterIndex resolves a register name: a single letter ("a" = 0) or a
// bare index ("0", "1", ...).
func RegisterIndex(name string) (int, error) {
	if len(name) == 1 && name[0] >= 'a' && name[0] <= 'z' {
		return int(name[0] - 'a'), nil
	}
	idx, err := strconv.Atoi(name)
	if err != nil || idx < 0 {
		return 0, fmt.Errorf("invalid register name %q", name)
	}
	return idx, nil
}
