package proc

import (
	"fmt"

	sys "golang.org/x/sys/unix"
)

// WaitStatus is the raw status word reported by wait4 for a traced
// process. Decoding is done by sys.WaitStatus; the methods return plain
// ints so that callers do not need the syscall types.
type WaitStatus uint32

func (w WaitStatus) raw() sys.WaitStatus { return sys.WaitStatus(w) }

// Exited reports whether the process terminated normally.
func (w WaitStatus) Exited() bool { return w.raw().Exited() }

// Signaled reports whether the process was terminated by a signal.
func (w WaitStatus) Signaled() bool { return w.raw().Signaled() }

// Stopped reports whether the process is in a stop (signal delivery stop,
// syscall stop or ptrace event stop).
func (w WaitStatus) Stopped() bool { return w.raw().Stopped() }

// Continued reports whether the process was resumed by SIGCONT.
func (w WaitStatus) Continued() bool { return w.raw().Continued() }

// CoreDump reports whether a terminating signal produced a core dump.
func (w WaitStatus) CoreDump() bool { return w.raw().CoreDump() }

// ExitStatus returns the exit code, or -1 when the process did not exit.
func (w WaitStatus) ExitStatus() int { return w.raw().ExitStatus() }

// Signal returns the terminating signal, or -1.
func (w WaitStatus) Signal() int { return int(w.raw().Signal()) }

// StopSignal returns the signal that caused the stop, or -1. Syscall stops
// report SIGTRAP, or SIGTRAP|0x80 with PTRACE_O_TRACESYSGOOD.
func (w WaitStatus) StopSignal() int { return int(w.raw().StopSignal()) }

// TrapCause returns the PTRACE_EVENT_* value of an event stop, or -1.
func (w WaitStatus) TrapCause() int { return w.raw().TrapCause() }

func (w WaitStatus) String() string {
	switch {
	case w.Exited():
		return fmt.Sprintf("exited with status %d", w.ExitStatus())
	case w.Signaled():
		if w.CoreDump() {
			return fmt.Sprintf("killed by signal %d (core dumped)", w.Signal())
		}
		return fmt.Sprintf("killed by signal %d", w.Signal())
	case w.Stopped():
		if c := w.TrapCause(); c > 0 {
			return fmt.Sprintf("stopped by signal %d (event %d)", w.StopSignal(), c)
		}
		return fmt.Sprintf("stopped by signal %d", w.StopSignal())
	case w.Continued():
		return "continued"
	}
	return fmt.Sprintf("unknown status %#x", uint32(w))
}
