package native

import (
	"unsafe"

	sys "golang.org/x/sys/unix"
)

const (
	pcName = "eip"
	spName = "esp"

	opGetRegs = "PTRACE_GETREGS"
	opSetRegs = "PTRACE_SETREGS"
)

// Regs is the general purpose register set of a 386 tracee.
type Regs struct {
	raw sys.PtraceRegs
}

func (r *Regs) PC() uint64 { return uint64(uint32(r.raw.Eip)) }
func (r *Regs) SP() uint64 { return uint64(uint32(r.raw.Esp)) }
func (r *Regs) SetPC(pc uint64) { r.raw.Eip = int32(pc) }
func (r *Regs) SetSP(sp uint64) { r.raw.Esp = int32(sp) }

func u32(p *int32) *uint32 {
	return (*uint32)(unsafe.Pointer(p))
}

func (r *Regs) slots() []regSlot {
	return []regSlot{
		{name: "Eip", p32: u32(&r.raw.Eip)},
		{name: "Esp", p32: u32(&r.raw.Esp)},
		{name: "Eax", p32: u32(&r.raw.Eax)},
		{name: "Ebx", p32: u32(&r.raw.Ebx)},
		{name: "Ecx", p32: u32(&r.raw.Ecx)},
		{name: "Edx", p32: u32(&r.raw.Edx)},
		{name: "Edi", p32: u32(&r.raw.Edi)},
		{name: "Esi", p32: u32(&r.raw.Esi)},
		{name: "Ebp", p32: u32(&r.raw.Ebp)},
		{name: "Orig_eax", p32: u32(&r.raw.Orig_eax)},
		{name: "Eflags", p32: u32(&r.raw.Eflags)},
		{name: "Cs", p32: u32(&r.raw.Xcs)},
		{name: "Ss", p32: u32(&r.raw.Xss)},
		{name: "Ds", p32: u32(&r.raw.Xds)},
		{name: "Es", p32: u32(&r.raw.Xes)},
		{name: "Fs", p32: u32(&r.raw.Xfs)},
		{name: "Gs", p32: u32(&r.raw.Xgs)},
	}
}

func ptraceGetRegs(pid int, r *Regs) error {
	return sys.PtraceGetRegs(pid, &r.raw)
}

func ptraceSetRegs(pid int, r *Regs) error {
	return sys.PtraceSetRegs(pid, &r.raw)
}
