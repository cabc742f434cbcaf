package terminal

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/cosiner/argv"
	"github.com/derekparker/trie"

	"github.com/ptracectl/ptracectl/pkg/logflags"
)

// OptionFunc handles a console command. args holds exactly the number of
// arguments the command was registered with.
type OptionFunc func(args []string) error

type option struct {
	name    string
	argc    int
	handler OptionFunc
}

// lineReader is a source of input lines.
type lineReader interface {
	ReadLine(prompt string) (string, error)
}

// ErrMissingArguments is returned when the input ends before a command
// received all of its arguments.
var ErrMissingArguments = errors.New("missing arguments")

// Console reads a stream of whitespace separated tokens and dispatches
// them to registered commands. A command that needs more arguments than
// are left on the current line takes them from the following lines.
type Console struct {
	options  map[string]*option
	names    *trie.Trie
	notFound func(token string) error

	in     lineReader
	out    io.Writer
	prompt string

	tokens  []string
	stopped bool
	parent  *Console
}

// NewConsole returns a console reading lines from in and printing
// errors to out.
func NewConsole(in io.Reader, out io.Writer) *Console {
	return newConsole(&scannerReader{s: bufio.NewScanner(in)}, out)
}

func newConsole(in lineReader, out io.Writer) *Console {
	return &Console{
		options: make(map[string]*option),
		names:   trie.New(),
		in:      in,
		out:     out,
	}
}

// AddOption registers handler under name. The handler receives the argc
// tokens following name. Registering the same name twice replaces the
// previous handler.
func (c *Console) AddOption(name string, argc int, handler OptionFunc) {
	c.options[name] = &option{name: name, argc: argc, handler: handler}
	c.names.Add(name, nil)
}

// SetNotFoundHandler sets the function called with tokens that do not
// name a registered command.
func (c *Console) SetNotFoundHandler(fn func(token string) error) {
	c.notFound = fn
}

// SetPrompt changes the prompt shown by interactive line readers.
func (c *Console) SetPrompt(prompt string) {
	c.prompt = prompt
}

// Complete returns the command names starting with prefix, sorted.
func (c *Console) Complete(prefix string) []string {
	out := c.names.PrefixSearch(prefix)
	sort.Strings(out)
	return out
}

// Stop makes Run return after the current command.
func (c *Console) Stop() {
	c.stopped = true
}

// Stopped reports whether Stop was called.
func (c *Console) Stopped() bool {
	return c.stopped || (c.parent != nil && c.parent.Stopped())
}

// nextToken returns the next token, reading new lines as needed. Lines
// without tokens are skipped.
func (c *Console) nextToken() (string, error) {
	for len(c.tokens) == 0 {
		line, err := c.in.ReadLine(c.prompt)
		if err != nil {
			return "", err
		}
		c.tokens, err = splitLine(line)
		if err != nil {
			return "", err
		}
	}
	tok := c.tokens[0]
	c.tokens = c.tokens[1:]
	return tok, nil
}

// ProcessOption reads one command and its arguments and runs it. It
// returns io.EOF when the input is exhausted before a command starts.
func (c *Console) ProcessOption() error {
	tok, err := c.nextToken()
	if err != nil {
		return err
	}
	opt, ok := c.options[tok]
	if !ok {
		logflags.TerminalLogger().Debugf("unknown token %q, discarding %v", tok, c.tokens)
		c.tokens = nil
		if c.notFound != nil {
			return c.notFound(tok)
		}
		return fmt.Errorf("command not available: %s", tok)
	}
	args := make([]string, 0, opt.argc)
	for len(args) < opt.argc {
		arg, err := c.nextToken()
		if err != nil {
			if err == io.EOF {
				return fmt.Errorf("%s: %w: want %d, got %d", tok, ErrMissingArguments, opt.argc, len(args))
			}
			return err
		}
		args = append(args, arg)
	}
	logflags.TerminalLogger().Debugf("dispatch %s %v", tok, args)
	return opt.handler(args)
}

// Run processes commands until the input ends or Stop is called. Command
// errors are printed and do not stop the loop.
func (c *Console) Run() error {
	for !c.Stopped() {
		err := c.ProcessOption()
		switch {
		case err == nil:
		case err == io.EOF:
			return nil
		case errors.Is(err, ErrMissingArguments):
			fmt.Fprintf(c.out, "Command failed: %s\n", err)
			return nil
		default:
			fmt.Fprintf(c.out, "Command failed: %s\n", err)
		}
	}
	return nil
}

// RunReader processes the commands read from r with the commands of c.
// Calling Stop from one of them stops c as well.
func (c *Console) RunReader(r io.Reader) error {
	sub := &Console{
		options:  c.options,
		names:    c.names,
		notFound: c.notFound,
		in:       &scannerReader{s: bufio.NewScanner(r)},
		out:      c.out,
		parent:   c,
	}
	err := sub.Run()
	if sub.stopped {
		c.stopped = true
	}
	return err
}

// splitLine splits a line into tokens with shell quoting rules. Pipes
// separate nothing: all sections are joined.
func splitLine(line string) ([]string, error) {
	if strings.TrimSpace(line) == "" {
		return nil, nil
	}
	v, err := argv.Argv(line,
		func(s string) (string, error) {
			return "", fmt.Errorf("Backtick not supported in '%s'", s)
		},
		nil)
	if err != nil {
		return nil, err
	}
	var out []string
	for _, section := range v {
		out = append(out, section...)
	}
	return out, nil
}

type scannerReader struct {
	s *bufio.Scanner
}

func (r *scannerReader) ReadLine(string) (string, error) {
	if !r.s.Scan() {
		if err := r.s.Err(); err != nil {
			return "", err
		}
		return "", io.EOF
	}
	return r.s.Text(), nil
}
