package terminal

import (
	"os"
	"testing"

	"github.com/creack/pty"
)

func TestInteractiveDetection(t *testing.T) {
	ptmx, tty, err := pty.Open()
	if err != nil {
		t.Skipf("could not open a pseudo terminal: %v", err)
	}
	defer ptmx.Close()
	defer tty.Close()

	if !interactive(tty, tty) {
		t.Fatal("pseudo terminal not detected as interactive")
	}

	r, w, err := os.Pipe()
	if err != nil {
		t.Fatal(err)
	}
	defer r.Close()
	defer w.Close()
	if interactive(r, tty) {
		t.Fatal("pipe detected as interactive")
	}
}

func TestHighlight(t *testing.T) {
	term := &Term{dumb: true}
	if got := term.highlight(ansiBlue, "rip"); got != "rip" {
		t.Fatalf("dumb terminal highlighted: %q", got)
	}
	term.dumb = false
	if got := term.highlight(ansiBlue, "rip"); got != "\033[34mrip\033[0m" {
		t.Fatalf("unexpected highlight %q", got)
	}
}
