// Package progfile reads and writes decoded programs as small CBOR
// container files ("CNPR" format). Only the program and its construction
// parameters are stored — never the register file or counter of a running
// machine.
package progfile

import (
	"bytes"
	"fmt"
	"os"

	"github.com/fxamacker/cbor/v2"

	"github.com/cindervm/cinder/pkg/machine"
)

// FormatVersion is the current container format version. Increment when
// making incompatible changes to the layout.
const FormatVersion uint16 = 1

// Magic identifies a program container file.
var Magic = []byte{'C', 'N', 'P', 'R'}

// cborEncMode is canonical so identical images encode to identical bytes.
var cborEncMode cbor.EncMode

func init() {
	em, err := cbor.CanonicalEncOptions().EncMode()
	if err != nil {
		panic(fmt.Sprintf("progfile: failed to create CBOR enc mode: %v", err))
	}
	cborEncMode = em
}

// Image is a decoded program plus everything a caller needs to build a VM
// around it.
type Image struct {
	Version    uint16          `cbor:"version"`
	Dialect    string          `cbor:"dialect"` // "assembly" or "alu"
	Registers  int             `cbor:"registers"`
	IPRegister int             `cbor:"ip-register"` // -1 when the counter is managed
	IPStart    int64           `cbor:"ip-start"`    // managed counter start
	Program    machine.Program `cbor:"program"`
}

// NewImage assembles an Image from VM construction parameters.
func NewImage(prog machine.Program, registers int, d machine.Dialect, binding machine.IPBinding) *Image {
	img := &Image{
		Version:    FormatVersion,
		Dialect:    d.String(),
		Registers:  registers,
		IPRegister: -1,
		Program:    prog,
	}
	if r, ok := binding.Bound(); ok {
		img.IPRegister = r
	} else {
		img.IPStart = binding.Start()
	}
	return img
}

// Binding reconstructs the counter binding the image describes.
func (img *Image) Binding() machine.IPBinding {
	if img.IPRegister >= 0 {
		return machine.RegisterIP(img.IPRegister)
	}
	return machine.ManagedIP(int(img.IPStart))
}

// Marshal serializes an image: the magic prefix followed by canonical CBOR.
func Marshal(img *Image) ([]byte, error) {
	body, err := cborEncMode.Marshal(img)
	if err != nil {
		return nil, fmt.Errorf("progfile: marshal image: %w", err)
	}
	return append(append([]byte{}, Magic...), body...), nil
}

// Unmarshal deserializes an image and validates it, so that a program loaded
// from an untrusted file carries the same well-formedness guarantee as one
// coming out of the decoders.
func Unmarshal(data []byte) (*Image, error) {
	if !bytes.HasPrefix(data, Magic) {
		return nil, fmt.Errorf("progfile: not a program container (bad magic)")
	}
	var img Image
	if err := cbor.Unmarshal(data[len(Magic):], &img); err != nil {
		return nil, fmt.Errorf("progfile: unmarshal image: %w", err)
	}
	if img.Version != FormatVersion {
		return nil, fmt.Errorf("progfile: unsupported format version %d (want %d)", img.Version, FormatVersion)
	}
	d, ok := machine.DialectByName(img.Dialect)
	if !ok {
		return nil, fmt.Errorf("progfile: unknown dialect %q", img.Dialect)
	}
	if img.IPRegister >= img.Registers {
		return nil, fmt.Errorf("progfile: ip register %d out of range [0,%d)", img.IPRegister, img.Registers)
	}
	if err := img.Program.Validate(img.Registers, d); err != nil {
		return nil, fmt.Errorf("progfile: invalid program: %w", err)
	}
	return &img, nil
}

// Save writes an image to path.
func Save(path string, img *Image) error {
	data, err := Marshal(img)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("progfile: write %s: %w", path, err)
	}
	return nil
}

// Load reads and validates an image from path.
func Load(path string) (*Image, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("progfile: read %s: %w", path, err)
	}
	return Unmarshal(data)
}
