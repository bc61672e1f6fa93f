package sdram

import (
	"bytes"
	"sync"
	"testing"
)

func TestBank_WriteReadRoundTrip(t *testing.T) {
	b := NewBank(1024)

	data := []byte{1, 2, 3, 4, 5, 6, 7, 8}
	if err := b.Write(BaseAddr+16, data); err != nil {
		t.Fatalf("Write() error: %v", err)
	}

	got, err := b.Read(BaseAddr+16, len(data))
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !bytes.Equal(got, data) {
		t.Fatalf("read=% x want % x", got, data)
	}
}

func TestBank_RejectsOutOfRange(t *testing.T) {
	b := NewBank(64)

	if err := b.Write(BaseAddr-4, []byte{1}); err == nil {
		t.Fatalf("expected error below base")
	}
	if err := b.Write(BaseAddr+60, []byte{1, 2, 3, 4, 5}); err == nil {
		t.Fatalf("expected error past end")
	}
	if _, err := b.Read(BaseAddr, 65); err == nil {
		t.Fatalf("expected error for oversized read")
	}
}

func TestBank_DutyWordIsFirstWordLittleEndian(t *testing.T) {
	b := NewBank(64)

	if err := b.Write(BaseAddr, []byte{0x7F, 0x00, 0x00, 0x00}); err != nil {
		t.Fatalf("Write() error: %v", err)
	}
	if got := b.DutyWord(); got != 127 {
		t.Fatalf("DutyWord()=%d want 127", got)
	}

	b.SetDutyWord(0xDEADBEEF)
	got, err := b.Read(BaseAddr, 4)
	if err != nil {
		t.Fatalf("Read() error: %v", err)
	}
	if !bytes.Equal(got, []byte{0xEF, 0xBE, 0xAD, 0xDE}) {
		t.Fatalf("word bytes=% x", got)
	}
}

func TestBank_DefaultSize(t *testing.T) {
	if got := NewBank(0).Size(); got != DefaultSize {
		t.Fatalf("Size()=%d want %d", got, DefaultSize)
	}
}

func TestBank_TinySizeStillHoldsDutyWord(t *testing.T) {
	b := NewBank(2)

	if got := b.Size(); got != 4 {
		t.Fatalf("Size()=%d want 4", got)
	}
	b.SetDutyWord(300)
	if got := b.DutyWord(); got != 300 {
		t.Fatalf("DutyWord()=%d want 300", got)
	}
}

func TestBank_ConcurrentReadAndClose(t *testing.T) {
	b := NewBank(64)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_, _ = b.Read(BaseAddr, 64)
			_ = b.DutyWord()
		}
	}()
	go func() {
		defer wg.Done()
		_ = b.Close()
	}()
	wg.Wait()

	// The bank stays readable for the duty word after close.
	_ = b.DutyWord()
}

func TestBank_ConcurrentDutyAccess(t *testing.T) {
	b := NewBank(64)

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			b.SetDutyWord(uint32(i))
		}
	}()
	go func() {
		defer wg.Done()
		for i := 0; i < 1000; i++ {
			_ = b.DutyWord()
		}
	}()
	wg.Wait()

	if got := b.DutyWord(); got != 999 {
		t.Fatalf("DutyWord()=%d want 999", got)
	}
}
