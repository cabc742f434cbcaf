package proc_test

import (
	"errors"
	"testing"

	"github.com/ptracectl/ptracectl/pkg/proc"
)

const stackTop = 0x20000

func newStackTracee(pc uint64) *fakeTracee {
	tr := newFakeTracee()
	tr.mapRange(stackTop-16*uint64(proc.WordSize), 16*proc.WordSize)
	tr.regs = fakeRegs{pc: pc, sp: stackTop, ax: 42}
	return tr
}

func TestJump(t *testing.T) {
	tr := newStackTracee(0x401000)
	if err := proc.Jump(tr, 0x402000); err != nil {
		t.Fatal(err)
	}
	if tr.regs.pc != 0x402000 {
		t.Fatalf("expected pc 0x402000, got %#x", tr.regs.pc)
	}
	if tr.regs.sp != stackTop || tr.regs.ax != 42 {
		t.Fatalf("jump changed other registers: %#v", tr.regs)
	}
}

func TestPushWidths(t *testing.T) {
	tr := newStackTracee(0)

	if err := proc.Push(tr, uint8(0x11)); err != nil {
		t.Fatal(err)
	}
	if err := proc.Push(tr, uint16(0x2233)); err != nil {
		t.Fatal(err)
	}
	if err := proc.Push(tr, uint32(0x44556677)); err != nil {
		t.Fatal(err)
	}
	if err := proc.Push(tr, uint64(0x8899aabbccddeeff)); err != nil {
		t.Fatal(err)
	}

	if want := uint64(stackTop - 15); tr.regs.sp != want {
		t.Fatalf("expected sp %#x, got %#x", want, tr.regs.sp)
	}
	got, err := proc.ReadMemory(tr, tr.regs.sp, 15)
	if err != nil {
		t.Fatal(err)
	}
	want := []byte{
		0xff, 0xee, 0xdd, 0xcc, 0xbb, 0xaa, 0x99, 0x88,
		0x77, 0x66, 0x55, 0x44,
		0x33, 0x22,
		0x11,
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("stack mismatch at %d: expected %#x, got %#x (% x)", i, want[i], got[i], got)
		}
	}
}

func TestPushRegisterFailure(t *testing.T) {
	tr := newStackTracee(0)
	tr.setErr = errors.New("boom")
	if err := proc.Push(tr, uint32(1)); err == nil {
		t.Fatal("expected an error")
	}
	if tr.regs.sp != stackTop {
		t.Fatalf("sp changed after failed register commit: %#x", tr.regs.sp)
	}
}

func TestPushUnmappedStack(t *testing.T) {
	tr := newFakeTracee()
	tr.regs = fakeRegs{sp: 0x1000}
	err := proc.Push(tr, uint64(1))
	var mae *proc.MemoryAccessError
	if !errors.As(err, &mae) {
		t.Fatalf("expected a MemoryAccessError, got %v", err)
	}
	if tr.regs.sp != 0x1000-8 {
		t.Fatalf("expected sp to stay decremented, got %#x", tr.regs.sp)
	}
}

func TestCall(t *testing.T) {
	tr := newStackTracee(0x401234)
	saved, err := proc.Call(tr, 0x405000)
	if err != nil {
		t.Fatal(err)
	}
	if saved.PC() != 0x401234 || saved.SP() != stackTop {
		t.Fatalf("saved registers do not match the pre-call state: pc=%#x sp=%#x", saved.PC(), saved.SP())
	}
	if tr.regs.pc != 0x405000 {
		t.Fatalf("expected pc 0x405000, got %#x", tr.regs.pc)
	}
	if want := uint64(stackTop - proc.WordSize); tr.regs.sp != want {
		t.Fatalf("expected sp %#x, got %#x", want, tr.regs.sp)
	}
	ret, err := proc.CopyWord(tr, tr.regs.sp)
	if err != nil {
		t.Fatal(err)
	}
	if ret != 0x401234 {
		t.Fatalf("expected return address 0x401234 on the stack, got %#x", ret)
	}
}

func TestInjectCallRestore(t *testing.T) {
	tr := newStackTracee(0x401234)
	frame, err := proc.InjectCall(tr, 0x405000)
	if err != nil {
		t.Fatal(err)
	}
	if frame.ReturnAddr != 0x401234 || frame.Target != 0x405000 {
		t.Fatalf("unexpected frame %#v", frame)
	}
	tr.regs.ax = 7
	if err := frame.Restore(tr); err != nil {
		t.Fatal(err)
	}
	if tr.regs != (fakeRegs{pc: 0x401234, sp: stackTop, ax: 42}) {
		t.Fatalf("registers not restored: %#v", tr.regs)
	}
}
