package procfs

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/afero"
)

// ProcessInfo describes a process as reported by its status and cmdline
// files.
type ProcessInfo struct {
	Pid       int
	Name      string // comm, at most 15 characters
	State     string
	PPid      int
	Uid       int // real uid
	TracerPid int
	Cmdline   []string
}

// Program returns the program name derived from the command line, falling
// back to the kernel task name for processes without one (kernel threads,
// zombies).
func (pi *ProcessInfo) Program() string {
	if len(pi.Cmdline) > 0 {
		if name := programName([]byte(pi.Cmdline[0])); name != "" {
			return name
		}
	}
	return pi.Name
}

// Info reads the status and cmdline files of pid.
func (r *Resolver) Info(pid int) (*ProcessInfo, error) {
	buf, err := afero.ReadFile(r.fs, r.path(pid, "status"))
	if err != nil {
		return nil, err
	}
	pi, err := parseStatus(buf)
	if err != nil {
		return nil, fmt.Errorf("could not parse status of %d: %w", pid, err)
	}
	pi.Pid = pid
	// the command line of a zombie is unreadable or empty
	pi.Cmdline, _ = r.Cmdline(pid)
	return pi, nil
}

// List returns the information of every process that can be read, in
// directory order.
func (r *Resolver) List() ([]*ProcessInfo, error) {
	pids, err := r.pids()
	if err != nil {
		return nil, err
	}
	out := make([]*ProcessInfo, 0, len(pids))
	for _, pid := range pids {
		pi, err := r.Info(pid)
		if err != nil {
			continue
		}
		out = append(out, pi)
	}
	return out, nil
}

func parseStatus(buf []byte) (*ProcessInfo, error) {
	pi := &ProcessInfo{}
	s := bufio.NewScanner(bytes.NewReader(buf))
	for s.Scan() {
		key, value, ok := strings.Cut(s.Text(), ":")
		if !ok {
			continue
		}
		value = strings.TrimSpace(value)
		var err error
		switch key {
		case "Name":
			pi.Name = value
		case "State":
			pi.State = value
		case "PPid":
			pi.PPid, err = strconv.Atoi(value)
		case "TracerPid":
			pi.TracerPid, err = strconv.Atoi(value)
		case "Uid":
			// real, effective, saved, filesystem
			fields := strings.Fields(value)
			if len(fields) == 0 {
				return nil, fmt.Errorf("empty Uid line")
			}
			pi.Uid, err = strconv.Atoi(fields[0])
		}
		if err != nil {
			return nil, fmt.Errorf("bad %s line: %w", key, err)
		}
	}
	if err := s.Err(); err != nil {
		return nil, err
	}
	return pi, nil
}
