package native

import (
	"syscall"
	"unsafe"

	sys "golang.org/x/sys/unix"
)

// ptraceAttach executes the sys.PtraceAttach call.
func ptraceAttach(pid int) error {
	return sys.PtraceAttach(pid)
}

// ptraceDetach calls ptrace(PTRACE_DETACH).
func ptraceDetach(tid, sig int) error {
	_, _, err := sys.Syscall6(sys.SYS_PTRACE, sys.PTRACE_DETACH, uintptr(tid), 1, uintptr(sig), 0, 0)
	if err != syscall.Errno(0) {
		return err
	}
	return nil
}

// ptraceCont executes ptrace PTRACE_CONT
func ptraceCont(tid, sig int) error {
	return sys.PtraceCont(tid, sig)
}

// ptraceSyscall executes ptrace PTRACE_SYSCALL
func ptraceSyscall(tid, sig int) error {
	return sys.PtraceSyscall(tid, sig)
}

// ptraceSingleStep executes ptrace PTRACE_SINGLESTEP
func ptraceSingleStep(pid, sig int) error {
	_, _, e1 := sys.Syscall6(sys.SYS_PTRACE, uintptr(sys.PTRACE_SINGLESTEP), uintptr(pid), uintptr(0), uintptr(sig), 0, 0)
	if e1 != 0 {
		return e1
	}
	return nil
}

// ptracePeekData executes ptrace PTRACE_PEEKDATA. The raw request stores
// the word at the address passed as data.
func ptracePeekData(pid int, addr uintptr) (uintptr, error) {
	var val uintptr
	_, _, err := sys.Syscall6(sys.SYS_PTRACE, sys.PTRACE_PEEKDATA, uintptr(pid), addr, uintptr(unsafe.Pointer(&val)), 0, 0)
	if err != syscall.Errno(0) {
		return 0, err
	}
	return val, nil
}

// ptracePokeData executes ptrace PTRACE_POKEDATA
func ptracePokeData(pid int, addr, val uintptr) error {
	_, _, err := sys.Syscall6(sys.SYS_PTRACE, sys.PTRACE_POKEDATA, uintptr(pid), addr, val, 0, 0)
	if err != syscall.Errno(0) {
		return err
	}
	return nil
}
