package native

import (
	"fmt"
	"strings"

	"github.com/ptracectl/ptracectl/pkg/proc"
)

// regSlot points at one general purpose register inside a Regs value.
// Exactly one of p64 and p32 is set.
type regSlot struct {
	name string
	p64  *uint64
	p32  *uint32
}

func (s regSlot) value() uint64 {
	if s.p64 != nil {
		return *s.p64
	}
	return uint64(*s.p32)
}

func (s regSlot) set(v uint64) {
	if s.p64 != nil {
		*s.p64 = v
		return
	}
	*s.p32 = uint32(v)
}

func (r *Regs) lookup(name string) (regSlot, bool) {
	switch strings.ToLower(name) {
	case "pc":
		name = pcName
	case "sp":
		name = spName
	}
	for _, s := range r.slots() {
		if strings.EqualFold(s.name, name) {
			return s, true
		}
	}
	return regSlot{}, false
}

// Get returns the value of the named register. "pc" and "sp" are accepted
// on every architecture.
func (r *Regs) Get(name string) (uint64, error) {
	s, ok := r.lookup(name)
	if !ok {
		return 0, &proc.UnknownRegisterError{Name: name}
	}
	return s.value(), nil
}

// Set changes the named register in the snapshot.
func (r *Regs) Set(name string, value uint64) error {
	s, ok := r.lookup(name)
	if !ok {
		return &proc.UnknownRegisterError{Name: name}
	}
	s.set(value)
	return nil
}

// Slice returns the registers as a list of (name, value) pairs.
func (r *Regs) Slice() []proc.Register {
	slots := r.slots()
	out := make([]proc.Register, 0, len(slots))
	for _, s := range slots {
		if s.p64 != nil {
			out = proc.AppendQwordReg(out, s.name, *s.p64)
		} else {
			out = proc.AppendDwordReg(out, s.name, *s.p32)
		}
	}
	return out
}

// Copy returns a copy of the snapshot.
func (r *Regs) Copy() proc.Registers {
	c := *r
	return &c
}

func (r *Regs) String() string {
	var b strings.Builder
	for _, reg := range r.Slice() {
		fmt.Fprintln(&b, reg)
	}
	return b.String()
}

// Registers reads the general purpose registers of the tracee.
func (p *Process) Registers() (proc.Registers, error) {
	if p.detached.Load() {
		return nil, p.notAttached(opGetRegs)
	}
	regs := new(Regs)
	var err error
	p.execPtraceFunc(func() { err = ptraceGetRegs(p.pid, regs) })
	if err != nil {
		return nil, &proc.TraceError{Op: opGetRegs, Pid: p.pid, Err: err}
	}
	return regs, nil
}

// SetRegisters writes a full register snapshot back to the tracee.
// Writing back an unmodified snapshot leaves the tracee unchanged.
func (p *Process) SetRegisters(regs proc.Registers) error {
	if p.detached.Load() {
		return p.notAttached(opSetRegs)
	}
	r, ok := regs.(*Regs)
	if !ok {
		return &proc.TraceError{Op: opSetRegs, Pid: p.pid, Err: fmt.Errorf("unsupported register snapshot %T", regs)}
	}
	var err error
	p.execPtraceFunc(func() { err = ptraceSetRegs(p.pid, r) })
	if err != nil {
		return &proc.TraceError{Op: opSetRegs, Pid: p.pid, Err: err}
	}
	return nil
}
