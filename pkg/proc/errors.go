package proc

import (
	"errors"
	"fmt"
)

// ErrNotAttached is returned (wrapped in a TraceError) by every operation
// issued on a process handle after it detached.
var ErrNotAttached = errors.New("process not attached")

// AttachError is returned when the tracer could not establish the tracing
// relationship: the target does not exist, exited before the stop was
// observed or the kernel denied permission.
type AttachError struct {
	Pid    int
	Reason string
	Err    error
}

func (e *AttachError) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("could not attach to pid %d: %s", e.Pid, e.Reason)
	}
	return fmt.Sprintf("could not attach to pid %d: %s: %v", e.Pid, e.Reason, e.Err)
}

func (e *AttachError) Unwrap() error { return e.Err }

// TraceError is returned when the kernel rejects a trace request. Op is the
// name of the failing request (e.g. PTRACE_GETREGS).
type TraceError struct {
	Op  string
	Pid int
	Err error
}

func (e *TraceError) Error() string {
	return fmt.Sprintf("%s on pid %d failed: %v", e.Op, e.Pid, e.Err)
}

func (e *TraceError) Unwrap() error { return e.Err }

// MemoryAccessError is returned when a word transfer targets an address that
// is not mapped, not readable or not writable in the tracee.
type MemoryAccessError struct {
	Op   string // "read" or "write"
	Addr uint64
	Err  error
}

func (e *MemoryAccessError) Error() string {
	return fmt.Sprintf("could not %s memory at %#x: %v", e.Op, e.Addr, e.Err)
}

func (e *MemoryAccessError) Unwrap() error { return e.Err }

// NotFoundError is returned when no process matches a program name.
type NotFoundError struct {
	Name string
	Err  error
}

func (e *NotFoundError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("could not find process %q: %v", e.Name, e.Err)
	}
	return fmt.Sprintf("could not find process %q", e.Name)
}

func (e *NotFoundError) Unwrap() error { return e.Err }

// ErrProcessExited indicates that the process has exited and contains both
// process id and exit status.
type ErrProcessExited struct {
	Pid    int
	Status int
}

func (pe ErrProcessExited) Error() string {
	return fmt.Sprintf("process %d has exited with status %d", pe.Pid, pe.Status)
}
