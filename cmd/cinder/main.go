// Cinder CLI - runs register-machine programs to completion and prints the
// output stream and final register file.
package main

import (
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/tliron/commonlog"
	_ "github.com/tliron/commonlog/simple"

	"github.com/cindervm/cinder/manifest"
	"github.com/cindervm/cinder/pkg/asm"
	"github.com/cindervm/cinder/pkg/machine"
	"github.com/cindervm/cinder/pkg/progfile"
)

func main() {
	dialectName := flag.String("d", "assembly", "Program dialect: assembly or alu")
	registers := flag.Int("registers", 0, "Register count (0 = dialect default)")
	seeds := flag.String("seed", "", "Comma-separated register seeds, e.g. \"a=7,c=1\"")
	ipRegister := flag.Int("ip", -1, "Bind the instruction counter to this register (-1 = managed)")
	ipStart := flag.Int("ip-start", 0, "Starting counter for a managed binding")
	trace := flag.Bool("trace", false, "Emit a debug line per executed step")
	turbo := flag.Bool("turbo", false, "Enable the built-in multiply-loop fast-forward")
	maxSteps := flag.Uint64("max-steps", 0, "Stop after this many steps (0 = unlimited)")
	manifestDir := flag.String("manifest", "", "Load run configuration from cinder.toml in this directory")
	saveProg := flag.String("save-prog", "", "Write the decoded program to this container file and exit")
	verbosity := flag.Int("v", 0, "Log verbosity (0 = quiet)")

	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: cinder [options] [program-file]\n\n")
		fmt.Fprintf(os.Stderr, "Runs a register-machine program to completion.\n\n")
		fmt.Fprintf(os.Stderr, "Options:\n")
		flag.PrintDefaults()
		fmt.Fprintf(os.Stderr, "\nExamples:\n")
		fmt.Fprintf(os.Stderr, "  cinder prog.asm                      # assembly dialect, 4 registers\n")
		fmt.Fprintf(os.Stderr, "  cinder -seed a=7 prog.asm            # seed register a with 7\n")
		fmt.Fprintf(os.Stderr, "  cinder -d alu -registers 6 prog.alu  # ALU dialect (#ip directive binds the counter)\n")
		fmt.Fprintf(os.Stderr, "  cinder -turbo -seed a=12 prog.asm    # fast-forward multiply loops\n")
		fmt.Fprintf(os.Stderr, "  cinder -manifest ./run               # everything from ./run/cinder.toml\n")
		fmt.Fprintf(os.Stderr, "  cinder -save-prog prog.cnpr prog.asm # cache the decoded program\n")
		fmt.Fprintf(os.Stderr, "  cinder prog.cnpr                     # run a cached program container\n")
	}
	flag.Parse()

	commonlog.Configure(*verbosity, nil)

	cfg := runConfig{
		dialectName: *dialectName,
		registers:   *registers,
		seeds:       *seeds,
		ipRegister:  *ipRegister,
		ipStart:     *ipStart,
		trace:       *trace,
		turbo:       *turbo,
		maxSteps:    *maxSteps,
	}

	if *manifestDir != "" {
		m, err := manifest.Load(*manifestDir)
		if err != nil {
			fatal(err)
		}
		cfg.applyManifest(m)
	} else {
		if flag.NArg() != 1 {
			flag.Usage()
			os.Exit(2)
		}
		cfg.programPath = flag.Arg(0)
	}

	if err := cfg.execute(*saveProg); err != nil {
		fatal(err)
	}
}

var log = commonlog.GetLogger("cinder.cli")

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "Error: %v\n", err)
	os.Exit(1)
}

// runConfig is the merged flag/manifest view of one run.
type runConfig struct {
	programPath string
	dialectName string
	registers   int
	seeds       string
	seedMap     map[string]int64 // from the manifest; seeds string wins otherwise
	ipRegister  int
	ipStart     int
	trace       bool
	turbo       bool
	maxSteps    uint64
}

func (cfg *runConfig) applyManifest(m *manifest.Manifest) {
	cfg.programPath = m.ProgramPath()
	cfg.dialectName = m.Program.Dialect
	cfg.registers = m.Program.Registers
	cfg.seedMap = m.Machine.Seed
	cfg.ipRegister = m.Machine.IPRegister
	cfg.ipStart = m.Machine.IPStart
	cfg.trace = m.Run.Trace
	cfg.turbo = m.Run.Turbo
	cfg.maxSteps = m.Run.MaxSteps
}

func (cfg *runConfig) execute(saveProg string) error {
	prog, dialect, regCount, binding, err := cfg.loadProgram()
	if err != nil {
		return err
	}

	if saveProg != "" {
		img := progfile.NewImage(prog, regCount, dialect, binding)
		if err := progfile.Save(saveProg, img); err != nil {
			return err
		}
		fmt.Printf("Wrote %d instructions to %s\n", len(prog), saveProg)
		return nil
	}

	vm := machine.New(prog, regCount, binding)
	vm.Trace = cfg.trace
	if cfg.trace {
		log.Infof("machine %s: %d instructions, %d registers, %s counter",
			vm.ID(), len(prog), regCount, binding)
	}
	if err := cfg.seedRegisters(vm); err != nil {
		return err
	}

	var ff machine.FastForward
	if cfg.turbo {
		ff = mulLoop{}
	}

	out, finished := run(vm, ff, cfg.maxSteps)

	if len(out) > 0 {
		parts := make([]string, len(out))
		for i, v := range out {
			parts[i] = fmt.Sprintf("%d", v)
		}
		fmt.Printf("out: %s\n", strings.Join(parts, " "))
	}
	for i, v := range vm.Registers() {
		fmt.Printf("%c = %d\n", 'a'+i, v)
	}
	if !finished {
		fmt.Printf("(stopped after %d steps)\n", vm.Steps())
	}
	return nil
}

// loadProgram decodes the program source, or loads a container when the
// path ends in .cnpr.
func (cfg *runConfig) loadProgram() (machine.Program, machine.Dialect, int, machine.IPBinding, error) {
	if strings.HasSuffix(cfg.programPath, ".cnpr") {
		img, err := progfile.Load(cfg.programPath)
		if err != nil {
			return nil, 0, 0, machine.IPBinding{}, err
		}
		d, _ := machine.DialectByName(img.Dialect)
		return img.Program, d, img.Registers, img.Binding(), nil
	}

	dialect, ok := machine.DialectByName(cfg.dialectName)
	if !ok {
		return nil, 0, 0, machine.IPBinding{}, fmt.Errorf("unknown dialect %q", cfg.dialectName)
	}
	regCount := cfg.registers
	if regCount == 0 {
		regCount = 4
		if dialect == machine.DialectALU {
			regCount = 6
		}
	}

	data, err := os.ReadFile(cfg.programPath)
	if err != nil {
		return nil, 0, 0, machine.IPBinding{}, err
	}

	binding := machine.ManagedIP(cfg.ipStart)
	if cfg.ipRegister >= 0 {
		if cfg.ipRegister >= regCount {
			return nil, 0, 0, machine.IPBinding{}, fmt.Errorf("ip register %d out of range for %d registers", cfg.ipRegister, regCount)
		}
		binding = machine.RegisterIP(cfg.ipRegister)
	}

	var prog machine.Program
	if dialect == machine.DialectALU {
		var b machine.IPBinding
		prog, b, err = asm.ParseALU(string(data), regCount)
		if _, bound := b.Bound(); bound {
			binding = b // the #ip directive wins
		}
	} else {
		prog, err = asm.ParseAssembly(string(data), regCount)
	}
	if err != nil {
		return nil, 0, 0, machine.IPBinding{}, err
	}
	return prog, dialect, regCount, binding, nil
}

func (cfg *runConfig) seedRegisters(vm *machine.VM) error {
	for name, value := range cfg.seedMap {
		if err := seedOne(vm, name, value); err != nil {
			return err
		}
	}
	if cfg.seeds == "" {
		return nil
	}
	for _, pair := range strings.Split(cfg.seeds, ",") {
		name, valueText, found := strings.Cut(strings.TrimSpace(pair), "=")
		if !found {
			return fmt.Errorf("invalid seed %q (want name=value)", pair)
		}
		var value int64
		if _, err := fmt.Sscanf(valueText, "%d", &value); err != nil {
			return fmt.Errorf("invalid seed value %q", valueText)
		}
		if err := seedOne(vm, name, value); err != nil {
			return err
		}
	}
	return nil
}

func seedOne(vm *machine.VM, name string, value int64) error {
	idx, err := manifest.RegisterIndex(name)
	if err != nil {
		return err
	}
	if idx >= len(vm.Registers()) {
		return fmt.Errorf("seed register %q out of range for %d registers", name, len(vm.Registers()))
	}
	vm.SetRegister(idx, value)
	return nil
}

// run drives the VM to halt, through the fast-forward when one is set,
// honoring the step budget. Returns the outputs and whether the program
// actually halted.
func run(vm *machine.VM, ff machine.FastForward, maxSteps uint64) ([]int64, bool) {
	var out []int64
	for {
		res := vm.StepTurbo(ff)
		switch res.Outcome {
		case machine.Halted:
			return out, true
		case machine.Emitted:
			out = append(out, res.Value)
		}
		if maxSteps > 0 && vm.Steps() >= maxSteps {
			return out, false
		}
	}
}
