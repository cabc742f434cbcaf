package procfs

import (
	"bytes"
	"path"
	"strconv"
	"strings"

	"github.com/spf13/afero"

	"github.com/ptracectl/ptracectl/pkg/logflags"
	"github.com/ptracectl/ptracectl/pkg/proc"
)

// DefaultRoot is where the kernel mounts the process information
// directory.
const DefaultRoot = "/proc"

// Resolver maps program names to process ids by scanning the command
// lines under root.
type Resolver struct {
	fs   afero.Fs
	root string
}

// New returns a Resolver reading the directory root of fs.
func New(fs afero.Fs, root string) *Resolver {
	if root == "" {
		root = DefaultRoot
	}
	return &Resolver{fs: fs, root: root}
}

// Default returns a Resolver reading /proc on the host filesystem.
func Default() *Resolver {
	return New(afero.NewOsFs(), DefaultRoot)
}

// Root returns the directory the resolver scans.
func (r *Resolver) Root() string {
	return r.root
}

func (r *Resolver) path(pid int, file string) string {
	return path.Join(r.root, strconv.Itoa(pid), file)
}

// pids returns the numeric entries of root in directory order.
func (r *Resolver) pids() ([]int, error) {
	names, err := ListDir(r.fs, r.root)
	if err != nil {
		return nil, err
	}
	pids := make([]int, 0, len(names))
	for _, name := range names {
		pid, err := strconv.Atoi(name)
		if err != nil || pid < 0 {
			continue
		}
		pids = append(pids, pid)
	}
	return pids, nil
}

// Resolve returns the id of the first process, in directory order, whose
// program name is name. Processes whose command line cannot be read are
// skipped.
func (r *Resolver) Resolve(name string) (int, error) {
	log := logflags.ProcfsLogger()
	if name == "" {
		return 0, &proc.NotFoundError{Name: name}
	}
	pids, err := r.pids()
	if err != nil {
		return 0, &proc.NotFoundError{Name: name, Err: err}
	}
	for _, pid := range pids {
		pname, err := r.ProgramName(pid)
		if err != nil {
			// probably we just don't have permissions, or it exited
			log.Debugf("skipping %d: %v", pid, err)
			continue
		}
		if pname == name {
			log.Debugf("resolved %q to %d", name, pid)
			return pid, nil
		}
	}
	return 0, &proc.NotFoundError{Name: name}
}

// ProgramName returns the program name of pid: the first command line
// argument stripped of its directory.
func (r *Resolver) ProgramName(pid int) (string, error) {
	buf, err := afero.ReadFile(r.fs, r.path(pid, "cmdline"))
	if err != nil {
		return "", err
	}
	return programName(buf), nil
}

// Cmdline returns the command line arguments of pid.
func (r *Resolver) Cmdline(pid int) ([]string, error) {
	buf, err := afero.ReadFile(r.fs, r.path(pid, "cmdline"))
	if err != nil {
		return nil, err
	}
	buf = bytes.TrimSuffix(buf, []byte{0})
	if len(buf) == 0 {
		return nil, nil
	}
	return strings.Split(string(buf), "\x00"), nil
}

func programName(cmdline []byte) string {
	if i := bytes.IndexByte(cmdline, 0); i >= 0 {
		cmdline = cmdline[:i]
	}
	if i := bytes.LastIndexByte(cmdline, '/'); i >= 0 {
		cmdline = cmdline[i+1:]
	}
	return string(cmdline)
}
