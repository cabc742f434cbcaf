package terminal

import (
	"strings"
	"syscall"

	"github.com/ptracectl/ptracectl/pkg/proc"
)

type fakeRegs struct {
	pc, sp uint64
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
	}
	return 0, &proc.UnknownRegisterError{Name: name}
}

func (r *fakeRegs) Set(name string, v uint64) error {
	switch strings.ToLower(name) {
	case "pc":
		r.pc = v
	case "sp":
		r.sp = v
	default:
		return &proc.UnknownRegisterError{Name: name}
	}
	return nil
}

func (r *fakeRegs) Slice() []proc.Register {
	return proc.AppendQwordReg(proc.AppendQwordReg(nil, "pc", r.pc), "sp", r.sp)
}

func (r *fakeRegs) Copy() proc.Registers {
	c := *r
	return &c
}

// fakeTarget records the execution control requests it receives and keeps
// its memory in a map of aligned words.
type fakeTarget struct {
	regs     fakeRegs
	mem      map[uint64]proc.Word
	calls    []string
	signals  []int
	detached bool
	closed   bool
}

func newFakeTarget() *fakeTarget {
	t := &fakeTarget{mem: make(map[uint64]proc.Word), regs: fakeRegs{pc: 0x401000, sp: 0x7000}}
	for a := uint64(0x6000); a < 0x8000; a += uint64(proc.WordSize) {
		t.mem[a] = 0
	}
	return t
}

func (t *fakeTarget) PeekWord(addr uint64) (proc.Word, error) {
	w, ok := t.mem[addr]
	if !ok {
		return 0, syscall.EIO
	}
	return w, nil
}

func (t *fakeTarget) PokeWord(addr uint64, w proc.Word) error {
	if _, ok := t.mem[addr]; !ok {
		return syscall.EIO
	}
	t.mem[addr] = w
	return nil
}

func (t *fakeTarget) Registers() (proc.Registers, error) { return t.regs.Copy(), nil }

func (t *fakeTarget) SetRegisters(r proc.Registers) error {
	t.regs = *(r.(*fakeRegs))
	return nil
}

func (t *fakeTarget) Pid() int     { return 1234 }
func (t *fakeTarget) Exited() bool { return false }

func (t *fakeTarget) Step() error {
	t.calls = append(t.calls, "step")
	t.regs.pc++
	return nil
}

func (t *fakeTarget) Continue(sig int) error {
	t.calls = append(t.calls, "continue")
	t.signals = append(t.signals, sig)
	return nil
}

func (t *fakeTarget) ContinueSyscall(sig int) error {
	t.calls = append(t.calls, "syscall")
	return nil
}

func (t *fakeTarget) Stop() error {
	t.calls = append(t.calls, "stop")
	return nil
}

func (t *fakeTarget) Wait(options int) (proc.WaitStatus, error) {
	t.calls = append(t.calls, "wait")
	return proc.WaitStatus(0x137f), nil
}

func (t *fakeTarget) Kill(sig int) error {
	t.calls = append(t.calls, "kill")
	t.signals = append(t.signals, sig)
	return nil
}

func (t *fakeTarget) Detach(sig int) error {
	t.calls = append(t.calls, "detach")
	t.detached = true
	return nil
}

func (t *fakeTarget) Close() error {
	t.closed = true
	return nil
}
