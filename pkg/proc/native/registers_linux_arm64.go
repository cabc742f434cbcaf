package native

import (
	"debug/elf"
	"fmt"
	"syscall"
	"unsafe"

	sys "golang.org/x/sys/unix"
)

const (
	pcName = "pc"
	spName = "sp"

	opGetRegs = "PTRACE_GETREGSET"
	opSetRegs = "PTRACE_SETREGSET"

	_AARCH64_GREGS_SIZE = 34 * 8
)

// arm64PtraceRegs is the struct used by the linux kernel to return the
// general purpose registers for ARM64 CPUs (struct user_pt_regs).
type arm64PtraceRegs struct {
	Regs   [31]uint64
	Sp     uint64
	Pc     uint64
	Pstate uint64
}

// Regs is the general purpose register set of an arm64 tracee.
type Regs struct {
	raw arm64PtraceRegs
}

func (r *Regs) PC() uint64 { return r.raw.Pc }
func (r *Regs) SP() uint64 { return r.raw.Sp }
func (r *Regs) SetPC(pc uint64) { r.raw.Pc = pc }
func (r *Regs) SetSP(sp uint64) { r.raw.Sp = sp }

func (r *Regs) slots() []regSlot {
	out := make([]regSlot, 0, len(r.raw.Regs)+3)
	out = append(out, regSlot{name: "Pc", p64: &r.raw.Pc}, regSlot{name: "Sp", p64: &r.raw.Sp})
	for i := range r.raw.Regs {
		out = append(out, regSlot{name: fmt.Sprintf("X%d", i), p64: &r.raw.Regs[i]})
	}
	return append(out, regSlot{name: "Pstate", p64: &r.raw.Pstate})
}

func ptraceGetRegs(pid int, r *Regs) (err error) {
	iov := sys.Iovec{Base: (*byte)(unsafe.Pointer(&r.raw)), Len: _AARCH64_GREGS_SIZE}
	_, _, err = syscall.Syscall6(syscall.SYS_PTRACE, sys.PTRACE_GETREGSET, uintptr(pid), uintptr(elf.NT_PRSTATUS), uintptr(unsafe.Pointer(&iov)), 0, 0)
	if err == syscall.Errno(0) {
		err = nil
	}
	return
}

func ptraceSetRegs(pid int, r *Regs) (err error) {
	iov := sys.Iovec{Base: (*byte)(unsafe.Pointer(&r.raw)), Len: _AARCH64_GREGS_SIZE}
	_, _, err = syscall.Syscall6(syscall.SYS_PTRACE, sys.PTRACE_SETREGSET, uintptr(pid), uintptr(elf.NT_PRSTATUS), uintptr(unsafe.Pointer(&iov)), 0, 0)
	if err == syscall.Errno(0) {
		err = nil
	}
	return
}
