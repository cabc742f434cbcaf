package proc

import (
	"unsafe"

	"github.com/ptracectl/ptracectl/pkg/logflags"
)

// Tracee is a stopped process whose registers and memory can be
// manipulated.
type Tracee interface {
	MemoryReadWriter
	Registers() (Registers, error)
	SetRegisters(Registers) error
}

// Pushable lists the value widths Push accepts.
type Pushable interface {
	~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Jump redirects the tracee so that the next resume starts executing at
// addr. Every other register keeps its value. No return path is
// established.
func Jump(t Tracee, addr uint64) error {
	regs, err := t.Registers()
	if err != nil {
		return err
	}
	regs.SetPC(addr)
	return t.SetRegisters(regs)
}

// Push decrements the stack pointer by the size of v and stores v, little
// endian, at the new top of the stack.
func Push[T Pushable](t Tracee, v T) error {
	b := make([]byte, unsafe.Sizeof(v))
	x := uint64(v)
	for i := range b {
		b[i] = byte(x >> (8 * i))
	}
	return PushBytes(t, b)
}

// PushBytes decrements the stack pointer by len(b), commits the register
// change, then writes b at the new stack pointer.
//
// The stack pointer is committed before memory is written; if the write
// fails the stack pointer stays decremented and the error is returned
// as is.
func PushBytes(t Tracee, b []byte) error {
	regs, err := t.Registers()
	if err != nil {
		return err
	}
	_, err = pushBytes(t, regs, b)
	return err
}

func pushBytes(t Tracee, regs Registers, b []byte) (uint64, error) {
	sp := regs.SP() - uint64(len(b))
	regs.SetSP(sp)
	if err := t.SetRegisters(regs); err != nil {
		return 0, err
	}
	if err := WriteMemory(t, b, sp); err != nil {
		return 0, err
	}
	return sp, nil
}

// Call builds a call frame: it pushes the current instruction pointer as a
// pointer sized return address and sets the instruction pointer to addr.
// The tracee is neither resumed nor waited for.
//
// The returned snapshot holds the registers as they were before the call;
// the caller owns detecting the return of the injected routine and
// restoring any state it needs.
func Call(t Tracee, addr uint64) (Registers, error) {
	regs, err := t.Registers()
	if err != nil {
		return nil, err
	}
	saved := regs.Copy()
	var buf [8]byte
	b := buf[:WordSize]
	putWord(b, Word(regs.PC()))
	if _, err := pushBytes(t, regs, b); err != nil {
		return nil, err
	}
	regs.SetPC(addr)
	if err := t.SetRegisters(regs); err != nil {
		return nil, err
	}
	logflags.InjectLogger().Debugf("call %#x: return address %#x pushed at %#x", addr, saved.PC(), regs.SP())
	return saved, nil
}

// CallFrame records what InjectCall changed so that it can be undone.
type CallFrame struct {
	// Saved holds the registers before the frame was built.
	Saved Registers
	// ReturnAddr is the address the injected routine returns to: the
	// instruction pointer at the time of the call.
	ReturnAddr uint64
	// Target is the address of the injected routine.
	Target uint64
}

// InjectCall is Call returning a CallFrame.
func InjectCall(t Tracee, addr uint64) (*CallFrame, error) {
	saved, err := Call(t, addr)
	if err != nil {
		return nil, err
	}
	return &CallFrame{Saved: saved, ReturnAddr: saved.PC(), Target: addr}, nil
}

// Restore writes the pre-call registers back. Memory below the saved stack
// pointer (the pushed return address) is left as is.
func (f *CallFrame) Restore(t Tracee) error {
	return t.SetRegisters(f.Saved.Copy())
}
