// Package sdram emulates the shared on-board memory bank of a chip.
//
// The first word of the bank is the one the blink demo cares about: an
// external agent writes a PWM duty cycle there and the tick handler
// reads it back on every tick. The rest of the bank behaves like plain
// memory so host tooling can use the ordinary read/write commands
// against it.
package sdram

import (
	"encoding/binary"
	"fmt"
	"sync"
)

// BaseAddr is the unbuffered SDRAM base address on real hardware
// (SDRAM_BASE_UNBUF). Reads and writes are addressed relative to it.
const BaseAddr = 0x70000000

// DefaultSize keeps emulated banks small; the demo only ever touches
// the first word.
const DefaultSize = 64 * 1024

// Bank is a fixed-size memory region with bounds-checked access.
//
// A RWMutex covers every access. That is stronger than the unsynchronized
// single-word read the hardware offers, which is fine: callers get
// untorn values without any change to observable waveforms.
type Bank struct {
	mu    sync.RWMutex
	buf   []byte
	unmap func() error
}

// minSize keeps the duty word addressable in every bank.
const minSize = 4

// NewBank allocates an in-process bank of the given size in bytes.
// Sizes below one word are raised to one word.
func NewBank(size int) *Bank {
	if size <= 0 {
		size = DefaultSize
	}
	if size < minSize {
		size = minSize
	}
	return &Bank{buf: make([]byte, size)}
}

// Size returns the bank size in bytes.
func (b *Bank) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.buf)
}

// check bounds an access against the bank. Callers must hold mu in at
// least read mode: Close swaps the buffer out under the write lock.
func (b *Bank) check(addr uint32, n int) (int, error) {
	if addr < BaseAddr {
		return 0, fmt.Errorf("sdram: address 0x%08x below bank base 0x%08x", addr, uint32(BaseAddr))
	}
	off := int(addr - BaseAddr)
	if n < 0 || off+n > len(b.buf) {
		return 0, fmt.Errorf("sdram: access [0x%08x, +%d) outside %d-byte bank", addr, n, len(b.buf))
	}
	return off, nil
}

// Read copies n bytes starting at addr.
func (b *Bank) Read(addr uint32, n int) ([]byte, error) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	off, err := b.check(addr, n)
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b.buf[off:off+n]...), nil
}

// Write copies data into the bank starting at addr.
func (b *Bank) Write(addr uint32, data []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	off, err := b.check(addr, len(data))
	if err != nil {
		return err
	}
	copy(b.buf[off:], data)
	return nil
}

// DutyWord returns the first word of the bank, the PWM duty cycle. The
// value is returned raw: nothing clamps or validates it, matching the
// permissive behavior of the on-chip app.
func (b *Bank) DutyWord() uint32 {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return binary.LittleEndian.Uint32(b.buf[0:4])
}

// SetDutyWord stores value into the first word of the bank.
func (b *Bank) SetDutyWord(value uint32) {
	b.mu.Lock()
	defer b.mu.Unlock()
	binary.LittleEndian.PutUint32(b.buf[0:4], value)
}

// Close releases any file mapping behind the bank. In-process banks are
// a no-op.
func (b *Bank) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.unmap == nil {
		return nil
	}
	unmap := b.unmap
	b.unmap = nil
	b.buf = make([]byte, minSize) // keep DutyWord safe after close
	return unmap()
}
