package native

import (
	"runtime"
	"sync/atomic"

	"github.com/ptracectl/ptracectl/pkg/proc"
)

// Process represents a traced process: the attachment to it and the
// goroutine that issues every ptrace request on its behalf.
type Process struct {
	pid int

	ptraceChan     chan func()
	ptraceDoneChan chan interface{}

	// detached is read by Stop and Kill, which may be called from a
	// signal handling goroutine.
	detached   atomic.Bool
	exited     bool
	exitStatus int
}

// newProcess returns an initialized Process struct. Before returning,
// it will also launch a goroutine in order to handle ptrace(2)
// functions. For more information, see the documentation on
// `handlePtraceFuncs`.
func newProcess(pid int) *Process {
	p := &Process{
		pid:            pid,
		ptraceChan:     make(chan func()),
		ptraceDoneChan: make(chan interface{}),
	}
	go p.handlePtraceFuncs()
	return p
}

// Pid returns the process ID.
func (p *Process) Pid() int {
	return p.pid
}

// Exited returns true if a wait observed the termination of the process.
func (p *Process) Exited() bool {
	return p.exited
}

// ExitStatus returns the exit code observed by the last wait, or a negated
// signal number when the process was killed. Only meaningful when Exited
// is true.
func (p *Process) ExitStatus() int {
	return p.exitStatus
}

func (p *Process) handlePtraceFuncs() {
	// We must ensure here that we are running on the same thread during
	// while invoking the ptrace(2) syscall. This is due to the fact that ptrace(2) expects
	// all commands after PTRACE_ATTACH to come from the same thread.
	runtime.LockOSThread()

	for fn := range p.ptraceChan {
		fn()
		p.ptraceDoneChan <- nil
	}
}

func (p *Process) execPtraceFunc(fn func()) {
	p.ptraceChan <- fn
	<-p.ptraceDoneChan
}

// release stops the ptrace goroutine. The handle is unusable afterwards.
func (p *Process) release() {
	p.detached.Store(true)
	close(p.ptraceChan)
}

func (p *Process) notAttached(op string) error {
	return &proc.TraceError{Op: op, Pid: p.pid, Err: proc.ErrNotAttached}
}
