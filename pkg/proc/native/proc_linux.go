package native

import (
	"errors"
	"syscall"

	sys "golang.org/x/sys/unix"

	"github.com/ptracectl/ptracectl/pkg/logflags"
	"github.com/ptracectl/ptracectl/pkg/proc"
	"github.com/ptracectl/ptracectl/pkg/proc/procfs"
)

// ErrNoStateChange is returned by Wait when WNOHANG was requested and the
// tracee has nothing to report.
var ErrNoStateChange = errors.New("tracee has no pending state change")

// Attach to an existing process with the given PID. The tracee is stopped
// when Attach returns.
func Attach(pid int) (*Process, error) {
	p := newProcess(pid)
	var err error
	p.execPtraceFunc(func() { err = ptraceAttach(pid) })
	if err != nil {
		p.release()
		return nil, &proc.AttachError{Pid: pid, Reason: attachReason(err), Err: err}
	}

	var ws sys.WaitStatus
	p.execPtraceFunc(func() { _, err = sys.Wait4(pid, &ws, sys.WALL, nil) })
	switch {
	case err != nil:
		p.execPtraceFunc(func() { _ = ptraceDetach(pid, 0) })
		p.release()
		return nil, &proc.AttachError{Pid: pid, Reason: "wait failed", Err: err}
	case ws.Exited() || ws.Signaled():
		p.exited = true
		p.release()
		return nil, &proc.AttachError{Pid: pid, Reason: "exited before stop"}
	}
	logflags.NativeLogger().Debugf("attached to %d: %v", pid, proc.WaitStatus(ws))
	return p, nil
}

// AttachByName resolves name through r and attaches to the first matching
// process.
func AttachByName(r *procfs.Resolver, name string) (*Process, error) {
	pid, err := r.Resolve(name)
	if err != nil {
		return nil, err
	}
	return Attach(pid)
}

func attachReason(err error) string {
	switch err {
	case sys.ESRCH:
		return "no such process"
	case sys.EPERM:
		return "permission denied"
	}
	return "ptrace attach failed"
}

// Step executes exactly one machine instruction. Signal stops other than
// the single step trap are stepped over with the signal suppressed.
func (p *Process) Step() error {
	const op = "PTRACE_SINGLESTEP"
	if p.detached.Load() {
		return p.notAttached(op)
	}
	var err error
	p.execPtraceFunc(func() { err = p.singleStep() })
	var pe proc.ErrProcessExited
	if err != nil && !errors.As(err, &pe) {
		return &proc.TraceError{Op: op, Pid: p.pid, Err: err}
	}
	return err
}

func (p *Process) singleStep() error {
	for {
		if err := ptraceSingleStep(p.pid, 0); err != nil {
			return err
		}
		var ws sys.WaitStatus
		if _, err := sys.Wait4(p.pid, &ws, sys.WALL, nil); err != nil {
			return err
		}
		switch {
		case ws.Exited():
			p.exited, p.exitStatus = true, ws.ExitStatus()
			return proc.ErrProcessExited{Pid: p.pid, Status: ws.ExitStatus()}
		case ws.Signaled():
			p.exited, p.exitStatus = true, -int(ws.Signal())
			return proc.ErrProcessExited{Pid: p.pid, Status: -int(ws.Signal())}
		case ws.Stopped() && ws.StopSignal() == sys.SIGTRAP:
			return nil
		}
		logflags.NativeLogger().Debugf("step on %d interrupted: %v", p.pid, proc.WaitStatus(ws))
	}
}

// Continue resumes the tracee delivering sig (0 for none).
func (p *Process) Continue(sig int) error {
	return p.resume("PTRACE_CONT", sig, ptraceCont)
}

// ContinueSyscall resumes the tracee until the next system call entry or
// exit, delivering sig (0 for none).
func (p *Process) ContinueSyscall(sig int) error {
	return p.resume("PTRACE_SYSCALL", sig, ptraceSyscall)
}

func (p *Process) resume(op string, sig int, fn func(pid, sig int) error) error {
	if p.detached.Load() {
		return p.notAttached(op)
	}
	var err error
	p.execPtraceFunc(func() { err = fn(p.pid, sig) })
	if err != nil {
		return &proc.TraceError{Op: op, Pid: p.pid, Err: err}
	}
	return nil
}

// Stop sends SIGSTOP to the tracee without detaching. The stop must be
// collected with Wait.
func (p *Process) Stop() error {
	return p.Kill(int(sys.SIGSTOP))
}

// Kill sends sig to the tracee.
func (p *Process) Kill(sig int) error {
	const op = "kill"
	if p.detached.Load() {
		return p.notAttached(op)
	}
	if err := sys.Kill(p.pid, syscall.Signal(sig)); err != nil {
		return &proc.TraceError{Op: op, Pid: p.pid, Err: err}
	}
	return nil
}

// Wait blocks until the tracee changes state and returns the raw status.
func (p *Process) Wait(options int) (proc.WaitStatus, error) {
	const op = "wait4"
	if p.detached.Load() {
		return 0, p.notAttached(op)
	}
	var (
		ws   sys.WaitStatus
		wpid int
		err  error
	)
	p.execPtraceFunc(func() { wpid, err = sys.Wait4(p.pid, &ws, options, nil) })
	if err != nil {
		return 0, &proc.TraceError{Op: op, Pid: p.pid, Err: err}
	}
	if wpid == 0 {
		return 0, ErrNoStateChange
	}
	if ws.Exited() || ws.Signaled() {
		p.exited = true
		p.exitStatus = ws.ExitStatus()
		if ws.Signaled() {
			p.exitStatus = -int(ws.Signal())
		}
	}
	logflags.NativeLogger().Debugf("wait %d: %v", p.pid, proc.WaitStatus(ws))
	return proc.WaitStatus(ws), nil
}

// Detach ends the tracing relationship delivering sig to the tracee. The
// tracee must be stopped. On failure the handle stays attached.
func (p *Process) Detach(sig int) error {
	const op = "PTRACE_DETACH"
	if p.detached.Load() {
		return p.notAttached(op)
	}
	if p.exited {
		p.release()
		return nil
	}
	var err error
	p.execPtraceFunc(func() { err = ptraceDetach(p.pid, sig) })
	if err != nil {
		return &proc.TraceError{Op: op, Pid: p.pid, Err: err}
	}
	logflags.NativeLogger().Debugf("detached from %d", p.pid)
	p.release()
	return nil
}

// Close detaches from the tracee. If the tracee is running it is stopped
// first. Errors are logged and never returned.
func (p *Process) Close() error {
	if p.detached.Load() {
		return nil
	}
	if p.exited {
		p.release()
		return nil
	}
	log := logflags.NativeLogger()
	var err error
	p.execPtraceFunc(func() {
		err = ptraceDetach(p.pid, 0)
		if err != sys.ESRCH {
			return
		}
		// PTRACE_DETACH needs a stopped tracee.
		if err = sys.Kill(p.pid, sys.SIGSTOP); err != nil {
			return
		}
		var exited bool
		exited, err = waitForStop(
			func() (sys.WaitStatus, error) {
				var ws sys.WaitStatus
				_, err := sys.Wait4(p.pid, &ws, sys.WALL, nil)
				return ws, err
			},
			func(sig int) error { return ptraceCont(p.pid, sig) })
		if err != nil || exited {
			return
		}
		err = ptraceDetach(p.pid, 0)
	})
	if err != nil {
		log.Debugf("detach from %d failed: %v", p.pid, err)
	}
	p.release()
	return nil
}

// waitForStop collects stops until the one caused by our SIGSTOP, so that
// the signal is consumed before detaching. Other signals are delivered on
// the way. SIGTRAP stops are syscall stops when the tracee was resumed
// with PTRACE_SYSCALL and are resumed without a signal.
func waitForStop(wait func() (sys.WaitStatus, error), cont func(sig int) error) (exited bool, err error) {
	for {
		ws, err := wait()
		if err != nil {
			return false, err
		}
		switch {
		case ws.Exited() || ws.Signaled():
			return true, nil
		case !ws.Stopped():
			continue
		case ws.StopSignal() == sys.SIGSTOP:
			return false, nil
		}
		sig := int(ws.StopSignal())
		if ws.StopSignal() == sys.SIGTRAP {
			sig = 0
		}
		if err := cont(sig); err != nil {
			return false, err
		}
	}
}
