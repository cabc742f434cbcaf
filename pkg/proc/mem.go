package proc

import (
	"encoding/binary"
	"errors"
	"unsafe"
)

// Word is the unit moved by a single PEEKDATA/POKEDATA request: the pointer
// width of the target architecture.
type Word uintptr

// WordSize is the size of a Word in bytes.
const WordSize = int(unsafe.Sizeof(Word(0)))

// MemoryReadWriter is the word transfer primitive a backend must provide.
// Addresses do not need to be word aligned.
type MemoryReadWriter interface {
	PeekWord(addr uint64) (Word, error)
	PokeWord(addr uint64, w Word) error
}

// CopyWord reads exactly one word starting at addr.
func CopyWord(mem MemoryReadWriter, addr uint64) (Word, error) {
	w, err := mem.PeekWord(addr)
	if err != nil {
		return 0, memoryError("read", addr, err)
	}
	return w, nil
}

// PokeWord writes exactly one word starting at addr.
func PokeWord(mem MemoryReadWriter, addr uint64, w Word) error {
	if err := mem.PokeWord(addr, w); err != nil {
		return memoryError("write", addr, err)
	}
	return nil
}

// MovePointer copies the word at src to dst, both in the tracee.
func MovePointer(mem MemoryReadWriter, src, dst uint64) error {
	w, err := CopyWord(mem, src)
	if err != nil {
		return err
	}
	return PokeWord(mem, dst, w)
}

// ReadMemory returns exactly count bytes starting at addr. The bytes are
// assembled from the word aligned transfers covering the range; no word
// past the one containing the last requested byte is read.
func ReadMemory(mem MemoryReadWriter, addr uint64, count int) ([]byte, error) {
	if count < 0 {
		return nil, &MemoryAccessError{Op: "read", Addr: addr, Err: errors.New("negative length")}
	}
	out := make([]byte, count)
	if count == 0 {
		return out, nil
	}
	end := addr + uint64(count)
	if end < addr {
		return nil, &MemoryAccessError{Op: "read", Addr: addr, Err: errors.New("range overflows address space")}
	}
	var buf [8]byte
	b := buf[:WordSize]
	for wa := alignDown(addr); wa < end; wa += uint64(WordSize) {
		w, err := mem.PeekWord(wa)
		if err != nil {
			return nil, memoryError("read", wa, err)
		}
		putWord(b, w)
		lo, hi := clip(addr, end, wa)
		copy(out[lo-addr:hi-addr], b[lo-wa:hi-wa])
		if wa+uint64(WordSize) < wa {
			break
		}
	}
	return out, nil
}

// WriteMemory overwrites [addr, addr+len(data)) with data. Words entirely
// covered by the range are written directly. A word only partially covered
// (at the start or at the end of the range) is read first and the new bytes
// are spliced into it, so bytes outside the range keep their value.
func WriteMemory(mem MemoryReadWriter, data []byte, addr uint64) error {
	if len(data) == 0 {
		return nil
	}
	end := addr + uint64(len(data))
	if end < addr {
		return &MemoryAccessError{Op: "write", Addr: addr, Err: errors.New("range overflows address space")}
	}
	var buf [8]byte
	b := buf[:WordSize]
	for wa := alignDown(addr); wa < end; wa += uint64(WordSize) {
		lo, hi := clip(addr, end, wa)
		if lo != wa || hi-wa != uint64(WordSize) {
			w, err := mem.PeekWord(wa)
			if err != nil {
				return memoryError("read", wa, err)
			}
			putWord(b, w)
		}
		copy(b[lo-wa:hi-wa], data[lo-addr:hi-addr])
		if err := mem.PokeWord(wa, wordFrom(b)); err != nil {
			return memoryError("write", wa, err)
		}
		if wa+uint64(WordSize) < wa {
			break
		}
	}
	return nil
}

func alignDown(addr uint64) uint64 {
	return addr &^ uint64(WordSize-1)
}

// clip returns the part of [start, end) that falls inside the word at wa.
func clip(start, end, wa uint64) (lo, hi uint64) {
	lo, hi = wa, wa+uint64(WordSize)
	if hi < wa {
		hi = ^uint64(0)
	}
	if start > lo {
		lo = start
	}
	if end < hi {
		hi = end
	}
	return lo, hi
}

func putWord(b []byte, w Word) {
	if WordSize == 8 {
		binary.LittleEndian.PutUint64(b, uint64(w))
		return
	}
	binary.LittleEndian.PutUint32(b, uint32(w))
}

func wordFrom(b []byte) Word {
	if WordSize == 8 {
		return Word(binary.LittleEndian.Uint64(b))
	}
	return Word(binary.LittleEndian.Uint32(b))
}

// memoryError leaves typed backend errors alone and classifies anything
// else as a memory access failure.
func memoryError(op string, addr uint64, err error) error {
	var mae *MemoryAccessError
	var te *TraceError
	if errors.As(err, &mae) || errors.As(err, &te) {
		return err
	}
	return &MemoryAccessError{Op: op, Addr: addr, Err: err}
}
