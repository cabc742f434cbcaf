package native

import (
	sys "golang.org/x/sys/unix"
)

const (
	pcName = "rip"
	spName = "rsp"

	opGetRegs = "PTRACE_GETREGS"
	opSetRegs = "PTRACE_SETREGS"
)

// Regs is the general purpose register set of an amd64 tracee.
type Regs struct {
	raw sys.PtraceRegs
}

func (r *Regs) PC() uint64 { return r.raw.Rip }
func (r *Regs) SP() uint64 { return r.raw.Rsp }
func (r *Regs) SetPC(pc uint64) { r.raw.Rip = pc }
func (r *Regs) SetSP(sp uint64) { r.raw.Rsp = sp }

func (r *Regs) slots() []regSlot {
	return []regSlot{
		{name: "Rip", p64: &r.raw.Rip},
		{name: "Rsp", p64: &r.raw.Rsp},
		{name: "Rax", p64: &r.raw.Rax},
		{name: "Rbx", p64: &r.raw.Rbx},
		{name: "Rcx", p64: &r.raw.Rcx},
		{name: "Rdx", p64: &r.raw.Rdx},
		{name: "Rdi", p64: &r.raw.Rdi},
		{name: "Rsi", p64: &r.raw.Rsi},
		{name: "Rbp", p64: &r.raw.Rbp},
		{name: "R8", p64: &r.raw.R8},
		{name: "R9", p64: &r.raw.R9},
		{name: "R10", p64: &r.raw.R10},
		{name: "R11", p64: &r.raw.R11},
		{name: "R12", p64: &r.raw.R12},
		{name: "R13", p64: &r.raw.R13},
		{name: "R14", p64: &r.raw.R14},
		{name: "R15", p64: &r.raw.R15},
		{name: "Orig_rax", p64: &r.raw.Orig_rax},
		{name: "Eflags", p64: &r.raw.Eflags},
		{name: "Cs", p64: &r.raw.Cs},
		{name: "Ss", p64: &r.raw.Ss},
		{name: "Ds", p64: &r.raw.Ds},
		{name: "Es", p64: &r.raw.Es},
		{name: "Fs", p64: &r.raw.Fs},
		{name: "Gs", p64: &r.raw.Gs},
		{name: "Fs_base", p64: &r.raw.Fs_base},
		{name: "Gs_base", p64: &r.raw.Gs_base},
	}
}

func ptraceGetRegs(pid int, r *Regs) error {
	return sys.PtraceGetRegs(pid, &r.raw)
}

func ptraceSetRegs(pid int, r *Regs) error {
	return sys.PtraceSetRegs(pid, &r.raw)
}
