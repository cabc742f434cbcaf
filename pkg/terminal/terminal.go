// Package terminal implements the interactive console of ptracectl: it
// reads commands from the user and dispatches them to a traced process.
package terminal

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/go-delve/liner"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"

	"github.com/ptracectl/ptracectl/pkg/config"
	"github.com/ptracectl/ptracectl/pkg/proc"
	"github.com/ptracectl/ptracectl/pkg/proc/procfs"
)

const (
	historyFile                 string = ".ptracectl_history"
	terminalHighlightEscapeCode string = "\033[%2dm"
	terminalResetEscapeCode     string = "\033[0m"

	ansiBlue = 34
)

// Target is the process the terminal drives.
type Target interface {
	proc.Tracee
	Pid() int
	Exited() bool
	Step() error
	Continue(sig int) error
	ContinueSyscall(sig int) error
	Stop() error
	Wait(options int) (proc.WaitStatus, error)
	Kill(sig int) error
	Detach(sig int) error
	Close() error
}

// Term represents the terminal running ptracectl.
type Term struct {
	target   Target
	resolver *procfs.Resolver
	conf     *config.Config
	prompt   string
	line     *liner.State
	console  *Console
	dumb     bool
	stdin    *os.File
	stdout   io.Writer
	InitFile string

	// frame is the call frame built by the last call command.
	frame *proc.CallFrame
}

// New returns a new Term driving target. resolver may be nil, in which
// case info only prints what the process handle knows.
func New(target Target, resolver *procfs.Resolver, conf *config.Config) *Term {
	if conf == nil {
		conf = &config.Config{}
	}

	var w io.Writer

	dumb := strings.ToLower(os.Getenv("TERM")) == "dumb"
	if dumb {
		w = os.Stdout
	} else {
		w = colorable.NewColorableStdout()
	}

	t := &Term{
		target:   target,
		resolver: resolver,
		conf:     conf,
		prompt:   fmt.Sprintf("(ptracectl %d) ", target.Pid()),
		dumb:     dumb,
		stdin:    os.Stdin,
		stdout:   w,
	}
	return t
}

// interactive reports whether both ends of the terminal are ttys.
func interactive(in, out *os.File) bool {
	return isatty.IsTerminal(in.Fd()) && isatty.IsTerminal(out.Fd())
}

// Close returns the terminal to its previous mode.
func (t *Term) Close() {
	if t.line != nil {
		t.line.Close()
	}
}

func (t *Term) sigintGuard(ch <-chan os.Signal) {
	for range ch {
		fmt.Fprintf(t.stdout, "received SIGINT, stopping process (will not forward signal)\n")
		if err := t.target.Stop(); err != nil {
			fmt.Fprintf(os.Stderr, "%v\n", err)
		}
	}
}

// Run begins running ptracectl in the terminal.
func (t *Term) Run() (int, error) {
	defer t.Close()

	var in lineReader
	if interactive(t.stdin, os.Stdout) {
		t.line = liner.NewLiner()
		in = &linerReader{line: t.line}
	} else {
		in = &scannerReader{s: bufio.NewScanner(t.stdin)}
	}
	t.console = newConsole(in, os.Stderr)
	t.console.SetPrompt(t.prompt)
	DebugCommands(t).Register(t.console, t.conf.Aliases)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT)
	defer signal.Stop(ch)
	go t.sigintGuard(ch)

	if t.line != nil {
		t.line.SetCompleter(func(line string) []string {
			return t.console.Complete(strings.ToLower(line))
		})
		t.loadHistory()
		fmt.Fprintln(t.stdout, "Type 'help' for list of commands.")
	}

	if t.InitFile != "" {
		if err := t.executeFile(t.InitFile); err != nil {
			fmt.Fprintf(os.Stderr, "Error executing init file: %s\n", err)
		}
	}

	if !t.console.Stopped() {
		if err := t.console.Run(); err != nil {
			return 1, fmt.Errorf("prompt for input failed: %v", err)
		}
	}
	return t.handleExit()
}

func (t *Term) executeFile(name string) error {
	fh, err := os.Open(name)
	if err != nil {
		return err
	}
	defer fh.Close()
	return t.console.RunReader(fh)
}

func (t *Term) loadHistory() {
	if t.conf.NoHistory {
		return
	}
	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Printf("Unable to load history file: %v.", err)
		return
	}
	f, err := os.Open(fullHistoryFile)
	if err != nil {
		f, err = os.Create(fullHistoryFile)
		if err != nil {
			fmt.Printf("Unable to open history file: %v. History will not be saved for this session.", err)
			return
		}
	}
	t.line.ReadHistory(f)
	f.Close()
}

func (t *Term) saveHistory() {
	if t.line == nil || t.conf.NoHistory {
		return
	}
	fullHistoryFile, err := config.GetConfigFilePath(historyFile)
	if err != nil {
		fmt.Println("Error saving history file:", err)
		return
	}
	if f, err := os.OpenFile(fullHistoryFile, os.O_RDWR|os.O_TRUNC, 0666); err == nil {
		if _, err := t.line.WriteHistory(f); err != nil {
			fmt.Println("readline history error:", err)
		}
		f.Close()
	}
}

func (t *Term) handleExit() (int, error) {
	t.saveHistory()
	if err := t.target.Close(); err != nil {
		return 1, err
	}
	return 0, nil
}

// highlight wraps s in the escape codes of color unless the terminal is
// dumb.
func (t *Term) highlight(color int, s string) string {
	if t.dumb {
		return s
	}
	return fmt.Sprintf(terminalHighlightEscapeCode, color) + s + terminalResetEscapeCode
}

type linerReader struct {
	line *liner.State
}

func (r *linerReader) ReadLine(prompt string) (string, error) {
	l, err := r.line.Prompt(prompt)
	if err != nil {
		return "", err
	}
	l = strings.TrimSuffix(l, "\n")
	if l != "" {
		r.line.AppendHistory(l)
	}
	return l, nil
}
