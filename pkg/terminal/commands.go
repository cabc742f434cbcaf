package terminal

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"text/tabwriter"

	sys "golang.org/x/sys/unix"

	"github.com/ptracectl/ptracectl/pkg/proc"
)

type cmdfunc func(t *Term, args []string) error

type command struct {
	aliases []string
	argc    int
	helpMsg string
	cmdFn   cmdfunc
}

// Commands represents the commands of the console.
type Commands struct {
	cmds []command
	term *Term
}

// DebugCommands returns the command set driving t.
func DebugCommands(t *Term) *Commands {
	c := &Commands{term: t}

	c.cmds = []command{
		{aliases: []string{"help", "h"}, cmdFn: c.help, helpMsg: "Prints the help message."},
		{aliases: []string{"step", "si"}, cmdFn: step, helpMsg: "Executes exactly one machine instruction."},
		{aliases: []string{"continue", "c"}, argc: 1, cmdFn: cont, helpMsg: `Resumes the process.

	continue <signal>

Use 0 to resume without delivering a signal.`},
		{aliases: []string{"stop"}, cmdFn: stop, helpMsg: "Sends SIGSTOP to the process. Use wait to collect the stop."},
		{aliases: []string{"syscall"}, cmdFn: syscallCmd, helpMsg: "Resumes the process until the next system call entry or exit."},
		{aliases: []string{"wait"}, cmdFn: wait, helpMsg: "Waits for the process to change state and prints the status."},
		{aliases: []string{"kill"}, argc: 1, cmdFn: kill, helpMsg: `Sends a signal to the process.

	kill <signal>`},
		{aliases: []string{"regs"}, cmdFn: regs, helpMsg: "Prints the general purpose registers."},
		{aliases: []string{"setreg"}, argc: 2, cmdFn: setreg, helpMsg: `Changes the value of a register.

	setreg <name> <value>`},
		{aliases: []string{"jump", "j"}, argc: 1, cmdFn: jump, helpMsg: `Sets the instruction pointer.

	jump <address>`},
		{aliases: []string{"call"}, argc: 1, cmdFn: call, helpMsg: `Pushes the current instruction pointer and jumps to address.

	call <address>

The process is not resumed. Use restore to go back to the registers saved by call.`},
		{aliases: []string{"restore"}, cmdFn: restore, helpMsg: "Restores the registers saved by the last call."},
		{aliases: []string{"push8"}, argc: 1, cmdFn: pushN(8), helpMsg: "Pushes a byte on the stack."},
		{aliases: []string{"push16"}, argc: 1, cmdFn: pushN(16), helpMsg: "Pushes a 16 bit value on the stack."},
		{aliases: []string{"push32"}, argc: 1, cmdFn: pushN(32), helpMsg: "Pushes a 32 bit value on the stack."},
		{aliases: []string{"push64"}, argc: 1, cmdFn: pushN(64), helpMsg: "Pushes a 64 bit value on the stack."},
		{aliases: []string{"peek"}, argc: 1, cmdFn: peek, helpMsg: `Reads one word.

	peek <address>`},
		{aliases: []string{"poke"}, argc: 2, cmdFn: poke, helpMsg: `Writes one word.

	poke <address> <word>`},
		{aliases: []string{"read", "x"}, argc: 2, cmdFn: read, helpMsg: `Prints a hexdump of memory.

	read <address> <count>`},
		{aliases: []string{"write"}, argc: 2, cmdFn: write, helpMsg: `Writes bytes to memory.

	write <address> <hexbytes>

Example: write 0x7ffd0000 9090cc`},
		{aliases: []string{"movptr"}, argc: 2, cmdFn: movptr, helpMsg: `Copies one word inside the process.

	movptr <src> <dst>`},
		{aliases: []string{"info"}, cmdFn: info, helpMsg: "Prints information about the process."},
		{aliases: []string{"detach"}, cmdFn: detach, helpMsg: "Detaches from the process and exits."},
		{aliases: []string{"exit", "quit", "q"}, cmdFn: exitCommand, helpMsg: "Detaches from the process and exits."},
	}

	sort.Sort(byFirstAlias(c.cmds))
	return c
}

type byFirstAlias []command

func (a byFirstAlias) Len() int           { return len(a) }
func (a byFirstAlias) Swap(i, j int)      { a[i], a[j] = a[j], a[i] }
func (a byFirstAlias) Less(i, j int) bool { return a[i].aliases[0] < a[j].aliases[0] }

// Register adds every command to console, under its builtin aliases and
// the extra aliases of allAliases (command name -> aliases).
func (c *Commands) Register(console *Console, allAliases map[string][]string) {
	for i := range c.cmds {
		cmd := &c.cmds[i]
		if extra, ok := allAliases[cmd.aliases[0]]; ok {
			cmd.aliases = append(cmd.aliases, extra...)
		}
		fn := cmd.cmdFn
		for _, alias := range cmd.aliases {
			console.AddOption(alias, cmd.argc, func(args []string) error {
				return fn(c.term, args)
			})
		}
	}
	console.SetNotFoundHandler(func(token string) error {
		return fmt.Errorf("command not available: %s (type 'help' for the list of commands)", token)
	})
}

func (c *Commands) help(t *Term, args []string) error {
	fmt.Fprintln(t.stdout, "The following commands are available:")
	w := new(tabwriter.Writer)
	w.Init(t.stdout, 0, 8, 0, ' ', 0)
	for _, cmd := range c.cmds {
		h := cmd.helpMsg
		if idx := strings.Index(h, "\n"); idx >= 0 {
			h = h[:idx]
		}
		if len(cmd.aliases) > 1 {
			fmt.Fprintf(w, "    %s (alias: %s) \t %s\n", cmd.aliases[0], strings.Join(cmd.aliases[1:], " | "), h)
		} else {
			fmt.Fprintf(w, "    %s \t %s\n", cmd.aliases[0], h)
		}
	}
	return w.Flush()
}

func parseAddr(s string) (uint64, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid address %q", s)
	}
	return v, nil
}

func parseSignal(s string) (int, error) {
	if n, err := strconv.Atoi(s); err == nil {
		if n < 0 {
			return 0, fmt.Errorf("invalid signal %q", s)
		}
		return n, nil
	}
	name := strings.ToUpper(s)
	if !strings.HasPrefix(name, "SIG") {
		name = "SIG" + name
	}
	if sig := sys.SignalNum(name); sig != 0 {
		return int(sig), nil
	}
	return 0, fmt.Errorf("unknown signal %q", s)
}

func printPC(t *Term) error {
	regs, err := t.target.Registers()
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "pc = %#x\n", regs.PC())
	return nil
}

func step(t *Term, args []string) error {
	if err := t.target.Step(); err != nil {
		var pe proc.ErrProcessExited
		if errors.As(err, &pe) {
			fmt.Fprintln(t.stdout, pe.Error())
			return nil
		}
		return err
	}
	return printPC(t)
}

func cont(t *Term, args []string) error {
	sig, err := parseSignal(args[0])
	if err != nil {
		return err
	}
	return t.target.Continue(sig)
}

func stop(t *Term, args []string) error {
	return t.target.Stop()
}

func syscallCmd(t *Term, args []string) error {
	return t.target.ContinueSyscall(0)
}

func wait(t *Term, args []string) error {
	ws, err := t.target.Wait(0)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "process %d %v\n", t.target.Pid(), ws)
	return nil
}

func kill(t *Term, args []string) error {
	sig, err := parseSignal(args[0])
	if err != nil {
		return err
	}
	return t.target.Kill(sig)
}

func regs(t *Term, args []string) error {
	r, err := t.target.Registers()
	if err != nil {
		return err
	}
	for _, reg := range r.Slice() {
		fmt.Fprintf(t.stdout, "%s 0x%0*x\n", t.highlight(ansiBlue, fmt.Sprintf("%-10s", reg.Name)), reg.Size*2, reg.Value)
	}
	return nil
}

func setreg(t *Term, args []string) error {
	v, err := strconv.ParseUint(args[1], 0, 64)
	if err != nil {
		return fmt.Errorf("invalid value %q", args[1])
	}
	r, err := t.target.Registers()
	if err != nil {
		return err
	}
	if err := r.Set(args[0], v); err != nil {
		return err
	}
	return t.target.SetRegisters(r)
}

func jump(t *Term, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	return proc.Jump(t.target, addr)
}

func call(t *Term, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	frame, err := proc.InjectCall(t.target, addr)
	if err != nil {
		return err
	}
	t.frame = frame
	fmt.Fprintf(t.stdout, "return address %#x pushed, pc = %#x\n", frame.ReturnAddr, frame.Target)
	return nil
}

func restore(t *Term, args []string) error {
	if t.frame == nil {
		return errors.New("no call frame to restore")
	}
	if err := t.frame.Restore(t.target); err != nil {
		return err
	}
	t.frame = nil
	return printPC(t)
}

func pushN(bits int) cmdfunc {
	return func(t *Term, args []string) error {
		v, err := strconv.ParseUint(args[0], 0, bits)
		if err != nil {
			return fmt.Errorf("invalid %d bit value %q", bits, args[0])
		}
		switch bits {
		case 8:
			return proc.Push(t.target, uint8(v))
		case 16:
			return proc.Push(t.target, uint16(v))
		case 32:
			return proc.Push(t.target, uint32(v))
		}
		return proc.Push(t.target, v)
	}
}

func peek(t *Term, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	w, err := proc.CopyWord(t.target, addr)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "%#x: 0x%0*x\n", addr, proc.WordSize*2, uint64(w))
	return nil
}

func poke(t *Term, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	v, err := strconv.ParseUint(args[1], 0, proc.WordSize*8)
	if err != nil {
		return fmt.Errorf("invalid word %q", args[1])
	}
	return proc.PokeWord(t.target, addr, proc.Word(v))
}

func read(t *Term, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	count, err := strconv.Atoi(args[1])
	if err != nil || count < 0 {
		return fmt.Errorf("invalid count %q", args[1])
	}
	data, err := proc.ReadMemory(t.target, addr, count)
	if err != nil {
		return err
	}
	hexdump(t.stdout, addr, data, t.conf.GetBytesPerLine())
	return nil
}

func hexdump(w io.Writer, addr uint64, data []byte, width int) {
	for off := 0; off < len(data); off += width {
		end := off + width
		if end > len(data) {
			end = len(data)
		}
		line := data[off:end]
		fmt.Fprintf(w, "%#016x: ", addr+uint64(off))
		for i := 0; i < width; i++ {
			if i < len(line) {
				fmt.Fprintf(w, "%02x ", line[i])
			} else {
				fmt.Fprint(w, "   ")
			}
		}
		fmt.Fprint(w, " |")
		for _, b := range line {
			if b < 0x20 || b > 0x7e {
				b = '.'
			}
			fmt.Fprintf(w, "%c", b)
		}
		fmt.Fprintln(w, "|")
	}
}

func write(t *Term, args []string) error {
	addr, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	data, err := hex.DecodeString(strings.TrimPrefix(args[1], "0x"))
	if err != nil {
		return fmt.Errorf("invalid hex bytes %q: %v", args[1], err)
	}
	return proc.WriteMemory(t.target, data, addr)
}

func movptr(t *Term, args []string) error {
	src, err := parseAddr(args[0])
	if err != nil {
		return err
	}
	dst, err := parseAddr(args[1])
	if err != nil {
		return err
	}
	return proc.MovePointer(t.target, src, dst)
}

func info(t *Term, args []string) error {
	pid := t.target.Pid()
	fmt.Fprintf(t.stdout, "pid:\t%d\n", pid)
	if t.target.Exited() {
		fmt.Fprintln(t.stdout, "state:\texited")
		return nil
	}
	if t.resolver == nil {
		return nil
	}
	pi, err := t.resolver.Info(pid)
	if err != nil {
		return err
	}
	fmt.Fprintf(t.stdout, "name:\t%s\n", pi.Program())
	fmt.Fprintf(t.stdout, "state:\t%s\n", pi.State)
	fmt.Fprintf(t.stdout, "ppid:\t%d\n", pi.PPid)
	fmt.Fprintf(t.stdout, "uid:\t%d\n", pi.Uid)
	fmt.Fprintf(t.stdout, "tracer:\t%d\n", pi.TracerPid)
	fmt.Fprintf(t.stdout, "cmdline:\t%s\n", strings.Join(pi.Cmdline, " "))
	return nil
}

func detach(t *Term, args []string) error {
	if err := t.target.Detach(0); err != nil {
		return err
	}
	t.console.Stop()
	return nil
}

func exitCommand(t *Term, args []string) error {
	t.console.Stop()
	return nil
}
