package blinker

import (
	"context"
	"fmt"
	"sync"
	"time"
)

// DefaultTickInterval matches the timer period the on-chip demo
// configures at startup.
const DefaultTickInterval = 10 * time.Millisecond

type Config struct {
	// TickInterval is the PWM timer period.
	TickInterval time.Duration
}

// Snapshot is a point-in-time view of a running blinker, for status
// reporting.
type Snapshot struct {
	Counter    uint32    `json:"counter"`
	Duty       uint32    `json:"duty"`
	LEDOn      bool      `json:"led_on"`
	Ticks      uint64    `json:"ticks"`
	LastTickAt time.Time `json:"last_tick_utc,omitempty"`
	LastError  string    `json:"last_error,omitempty"`
}

// Service runs a Blinker on a fixed-period ticker. Ticks execute one at
// a time on a single goroutine, so the handler can never overlap
// itself.
type Service struct {
	cfg Config

	b    *Blinker
	duty DutySource
	led  LED

	mu   sync.RWMutex
	snap Snapshot

	wg       sync.WaitGroup
	stopOnce sync.Once
	stopCh   chan struct{}
}

func NewService(cfg Config, duty DutySource, led LED) *Service {
	if cfg.TickInterval <= 0 {
		cfg.TickInterval = DefaultTickInterval
	}
	return &Service{
		cfg:    cfg,
		b:      New(duty, led),
		duty:   duty,
		led:    led,
		stopCh: make(chan struct{}),
	}
}

func (s *Service) Snapshot() Snapshot {
	if s == nil {
		return Snapshot{}
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.snap
}

// Start arms the ticker and returns immediately.
func (s *Service) Start(ctx context.Context) error {
	if s == nil {
		return fmt.Errorf("blinker: service is nil")
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		s.runLoop(ctx)
	}()
	return nil
}

// Close stops the tick loop and turns the LED off.
func (s *Service) Close() {
	if s == nil {
		return
	}
	s.stopOnce.Do(func() {
		close(s.stopCh)
	})
	s.wg.Wait()
	_ = s.led.Set(false)
}

func (s *Service) runLoop(ctx context.Context) {
	t := time.NewTicker(s.cfg.TickInterval)
	defer t.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-s.stopCh:
			return
		case <-t.C:
			err := s.b.Tick()

			s.mu.Lock()
			s.snap.Counter = s.b.Counter()
			s.snap.Duty = s.duty.DutyWord()
			s.snap.LEDOn = s.b.On()
			s.snap.Ticks = s.b.Ticks()
			s.snap.LastTickAt = time.Now().UTC()
			if err != nil {
				s.snap.LastError = fmt.Sprintf("blinker: set led failed: %v", err)
			} else {
				s.snap.LastError = ""
			}
			s.mu.Unlock()
		}
	}
}
