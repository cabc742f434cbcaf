package proc

import "fmt"

// Registers is an interface for a generic register snapshot. The
// implementation is selected at build time by the backend (one per
// architecture) and is the only place that knows the name of the
// instruction pointer and stack pointer fields.
//
// A Registers value is a copy: it does not change when the registers of
// the tracee change, and modifying it has no effect on the tracee until it
// is written back.
type Registers interface {
	PC() uint64
	SP() uint64
	SetPC(uint64)
	SetSP(uint64)
	// Get returns the value of the named general purpose register. Names
	// are case insensitive.
	Get(name string) (uint64, error)
	// Set changes the named general purpose register in the snapshot.
	Set(name string, value uint64) error
	Slice() []Register
	// Copy returns a copy of the registers that is guaranteed not to change
	// when the receiver is modified.
	Copy() Registers
}

// Register represents a CPU register.
type Register struct {
	Name  string
	Value uint64
	Size  int // in bytes
}

func (r Register) String() string {
	return fmt.Sprintf("%-10s 0x%0*x", r.Name, r.Size*2, r.Value)
}

// AppendDwordReg appends a double word (32 bit) register to regs.
func AppendDwordReg(regs []Register, name string, value uint32) []Register {
	return append(regs, Register{Name: name, Value: uint64(value), Size: 4})
}

// AppendQwordReg appends a quad word (64 bit) register to regs.
func AppendQwordReg(regs []Register, name string, value uint64) []Register {
	return append(regs, Register{Name: name, Value: value, Size: 8})
}

// UnknownRegisterError is returned by Registers.Get and Registers.Set for
// names the architecture does not have.
type UnknownRegisterError struct {
	Name string
}

func (e *UnknownRegisterError) Error() string {
	return fmt.Sprintf("unknown register %q", e.Name)
}
