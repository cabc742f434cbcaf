package native

import (
	sys "golang.org/x/sys/unix"

	"github.com/ptracectl/ptracectl/pkg/proc"
)

// PeekWord reads the word at addr with PTRACE_PEEKDATA.
func (p *Process) PeekWord(addr uint64) (proc.Word, error) {
	const op = "PTRACE_PEEKDATA"
	if p.detached.Load() {
		return 0, p.notAttached(op)
	}
	var (
		val uintptr
		err error
	)
	p.execPtraceFunc(func() { val, err = ptracePeekData(p.pid, uintptr(addr)) })
	if err != nil {
		return 0, memError(op, "read", p.pid, addr, err)
	}
	return proc.Word(val), nil
}

// PokeWord writes w at addr with PTRACE_POKEDATA.
func (p *Process) PokeWord(addr uint64, w proc.Word) error {
	const op = "PTRACE_POKEDATA"
	if p.detached.Load() {
		return p.notAttached(op)
	}
	var err error
	p.execPtraceFunc(func() { err = ptracePokeData(p.pid, uintptr(addr), uintptr(w)) })
	if err != nil {
		return memError(op, "write", p.pid, addr, err)
	}
	return nil
}

// ReadMemory reads count bytes starting at addr.
func (p *Process) ReadMemory(addr uint64, count int) ([]byte, error) {
	return proc.ReadMemory(p, addr, count)
}

// WriteMemory writes data at addr leaving the surrounding bytes untouched.
func (p *Process) WriteMemory(addr uint64, data []byte) error {
	return proc.WriteMemory(p, data, addr)
}

func memError(op, dir string, pid int, addr uint64, err error) error {
	if err == sys.EIO || err == sys.EFAULT {
		return &proc.MemoryAccessError{Op: dir, Addr: addr, Err: err}
	}
	return &proc.TraceError{Op: op, Pid: pid, Err: err}
}
