package proc_test

import (
	"bytes"
	"errors"
	"syscall"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/ptracectl/ptracectl/pkg/proc"
)

const memBase = 0x10000

func pattern(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(i*7 + 1)
	}
	return b
}

func TestReadWriteRoundTrip(t *testing.T) {
	ws := proc.WordSize
	for off := 0; off <= ws; off++ {
		for n := 0; n <= 3*ws+1; n++ {
			mem := newFakeTracee()
			mem.mapRange(memBase, 8*ws)
			fill := bytes.Repeat([]byte{0xaa}, 8*ws)
			if err := proc.WriteMemory(mem, fill, memBase); err != nil {
				t.Fatalf("fill: %v", err)
			}

			addr := uint64(memBase + ws + off)
			data := pattern(n)
			if err := proc.WriteMemory(mem, data, addr); err != nil {
				t.Fatalf("off=%d n=%d: write: %v", off, n, err)
			}
			got, err := proc.ReadMemory(mem, addr, n)
			if err != nil {
				t.Fatalf("off=%d n=%d: read: %v", off, n, err)
			}
			if diff := cmp.Diff(data, got); diff != "" {
				t.Fatalf("off=%d n=%d: round trip mismatch (-want +got):\n%s", off, n, diff)
			}

			want := append([]byte(nil), fill...)
			copy(want[ws+off:], data)
			all, err := proc.ReadMemory(mem, memBase, 8*ws)
			if err != nil {
				t.Fatalf("off=%d n=%d: read back: %v", off, n, err)
			}
			if diff := cmp.Diff(want, all); diff != "" {
				t.Fatalf("off=%d n=%d: neighbouring bytes changed (-want +got):\n%s", off, n, diff)
			}
		}
	}
}

func TestWriteMemoryFullWordsSkipsPeek(t *testing.T) {
	mem := newFakeTracee()
	mem.mapRange(memBase, 4*proc.WordSize)
	if err := proc.WriteMemory(mem, pattern(2*proc.WordSize), memBase); err != nil {
		t.Fatal(err)
	}
	if mem.peeks != 0 {
		t.Fatalf("expected no peeks for an aligned whole word write, got %d", mem.peeks)
	}
	if mem.pokes != 2 {
		t.Fatalf("expected 2 pokes, got %d", mem.pokes)
	}
}

func TestWriteMemoryEmpty(t *testing.T) {
	mem := newFakeTracee()
	if err := proc.WriteMemory(mem, nil, 0xdead); err != nil {
		t.Fatalf("empty write: %v", err)
	}
	if mem.peeks != 0 || mem.pokes != 0 {
		t.Fatalf("empty write touched memory: %d peeks, %d pokes", mem.peeks, mem.pokes)
	}
}

func TestReadMemoryStopsAtLastWord(t *testing.T) {
	mem := newFakeTracee()
	mem.mapRange(memBase, proc.WordSize)
	got, err := proc.ReadMemory(mem, memBase+1, proc.WordSize-1)
	if err != nil {
		t.Fatalf("read inside the only mapped word: %v", err)
	}
	if len(got) != proc.WordSize-1 {
		t.Fatalf("expected %d bytes, got %d", proc.WordSize-1, len(got))
	}
	if mem.peeks != 1 {
		t.Fatalf("expected exactly one peek, got %d", mem.peeks)
	}
}

func TestReadMemoryUnmapped(t *testing.T) {
	mem := newFakeTracee()
	_, err := proc.ReadMemory(mem, 0x1000, 4)
	var mae *proc.MemoryAccessError
	if !errors.As(err, &mae) {
		t.Fatalf("expected a MemoryAccessError, got %#v", err)
	}
	if mae.Op != "read" {
		t.Fatalf("expected op read, got %q", mae.Op)
	}
	if !errors.Is(err, syscall.EIO) {
		t.Fatalf("expected the cause to be EIO, got %v", err)
	}
}

func TestReadMemoryNegative(t *testing.T) {
	mem := newFakeTracee()
	if _, err := proc.ReadMemory(mem, memBase, -1); err == nil {
		t.Fatal("expected an error for a negative length")
	}
}

func TestWriteMemoryReadOnly(t *testing.T) {
	mem := newFakeTracee()
	mem.mapRange(memBase, proc.WordSize)
	mem.ro[memBase] = true
	err := proc.WriteMemory(mem, []byte{1}, memBase)
	var mae *proc.MemoryAccessError
	if !errors.As(err, &mae) || mae.Op != "write" {
		t.Fatalf("expected a write MemoryAccessError, got %v", err)
	}
	if !errors.Is(err, syscall.EFAULT) {
		t.Fatalf("expected the cause to be EFAULT, got %v", err)
	}
}

func TestMovePointer(t *testing.T) {
	mem := newFakeTracee()
	mem.mapRange(memBase, 2*proc.WordSize)
	src, dst := uint64(memBase), uint64(memBase+proc.WordSize)
	if err := proc.PokeWord(mem, src, 0x12345678); err != nil {
		t.Fatal(err)
	}
	if err := proc.MovePointer(mem, src, dst); err != nil {
		t.Fatal(err)
	}
	w, err := proc.CopyWord(mem, dst)
	if err != nil {
		t.Fatal(err)
	}
	if w != 0x12345678 {
		t.Fatalf("expected 0x12345678 at destination, got %#x", w)
	}
}
