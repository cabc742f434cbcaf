package proc_test

import (
	"errors"
	"strings"
	"syscall"

	"github.com/ptracectl/ptracectl/pkg/proc"
)

// fakeRegs is a two register snapshot used to exercise the
// architecture independent code.
type fakeRegs struct {
	pc, sp, ax uint64
}

func (r *fakeRegs) PC() uint64      { return r.pc }
func (r *fakeRegs) SP() uint64      { return r.sp }
func (r *fakeRegs) SetPC(pc uint64) { r.pc = pc }
func (r *fakeRegs) SetSP(sp uint64) { r.sp = sp }

func (r *fakeRegs) Get(name string) (uint64, error) {
	switch strings.ToLower(name) {
	case "pc":
		return r.pc, nil
	case "sp":
		return r.sp, nil
	case "ax":
		return r.ax, nil
	}
	return 0, &proc.UnknownRegisterError{Name: name}
}

func (r *fakeRegs) Set(name string, v uint64) error {
	switch strings.ToLower(name) {
	case "pc":
		r.pc = v
	case "sp":
		r.sp = v
	case "ax":
		r.ax = v
	default:
		return &proc.UnknownRegisterError{Name: name}
	}
	return nil
}

func (r *fakeRegs) Slice() []proc.Register {
	var out []proc.Register
	out = proc.AppendQwordReg(out, "pc", r.pc)
	out = proc.AppendQwordReg(out, "sp", r.sp)
	out = proc.AppendQwordReg(out, "ax", r.ax)
	return out
}

func (r *fakeRegs) Copy() proc.Registers {
	c := *r
	return &c
}

// fakeTracee keeps its memory as a map of aligned words. Reads of words
// that were never written fail like an unmapped page would.
type fakeTracee struct {
	regs   fakeRegs
	mem    map[uint64]proc.Word
	peeks  int
	pokes  int
	setErr error
	ro     map[uint64]bool
}

func newFakeTracee() *fakeTracee {
	return &fakeTracee{mem: make(map[uint64]proc.Word), ro: make(map[uint64]bool)}
}

func (t *fakeTracee) mapRange(addr uint64, n int) {
	for a := addr &^ uint64(proc.WordSize-1); a < addr+uint64(n); a += uint64(proc.WordSize) {
		if _, ok := t.mem[a]; !ok {
			t.mem[a] = 0
		}
	}
}

func (t *fakeTracee) word(addr uint64) (proc.Word, error) {
	if addr%uint64(proc.WordSize) != 0 {
		return 0, errors.New("unaligned access in fake")
	}
	w, ok := t.mem[addr]
	if !ok {
		return 0, syscall.EIO
	}
	return w, nil
}

func (t *fakeTracee) PeekWord(addr uint64) (proc.Word, error) {
	t.peeks++
	return t.word(addr)
}

func (t *fakeTracee) PokeWord(addr uint64, w proc.Word) error {
	t.pokes++
	if _, err := t.word(addr); err != nil {
		return err
	}
	if t.ro[addr] {
		return syscall.EFAULT
	}
	t.mem[addr] = w
	return nil
}

func (t *fakeTracee) Registers() (proc.Registers, error) {
	return t.regs.Copy(), nil
}

func (t *fakeTracee) SetRegisters(regs proc.Registers) error {
	if t.setErr != nil {
		return t.setErr
	}
	t.regs = *(regs.(*fakeRegs))
	return nil
}
