// Package led provides the LED output backends for emulated chips.
//
// One chip can be wired to a physical LED through any of the hardware
// backends; every other chip gets a recording stub. Backends expose the
// two discrete operations the demo needs: on and off.
package led

import (
	"fmt"
	"sync"
)

// LED is a single addressable on/off output. On reports the last
// commanded state, which the SCP LED-invert handling relies on.
type LED interface {
	Set(on bool) error
	On() bool
	Close() error
}

// output is the raw backend surface; Open wraps it with state tracking.
type output interface {
	Set(on bool) error
	Close() error
}

type Config struct {
	// Backend selects the output driver: stub, gpiod, rpio or periph.
	Backend string
	// Pin is the BCM GPIO number for hardware backends.
	Pin int
}

// Open returns the configured backend. Hardware backends exist only on
// the platforms their driver supports; elsewhere their opener returns
// an error.
func Open(cfg Config) (LED, error) {
	var (
		out output
		err error
	)
	switch cfg.Backend {
	case "", "stub":
		return NewStub(), nil
	case "gpiod":
		out, err = openGpiod(cfg.Pin)
	case "rpio":
		out, err = openRpio(cfg.Pin)
	case "periph":
		out, err = openPeriph(cfg.Pin)
	default:
		return nil, fmt.Errorf("led: unknown backend %q", cfg.Backend)
	}
	if err != nil {
		return nil, err
	}
	return &tracked{out: out}, nil
}

// tracked layers last-commanded-state bookkeeping over a hardware
// backend, which has no way to read its pin back.
type tracked struct {
	mu  sync.Mutex
	on  bool
	out output
}

func (t *tracked) Set(on bool) error {
	t.mu.Lock()
	t.on = on
	t.mu.Unlock()
	return t.out.Set(on)
}

func (t *tracked) On() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.on
}

func (t *tracked) Close() error {
	return t.out.Close()
}

// Stub is an in-memory LED that records its state. It backs chips with
// no physical output and stands in for hardware in tests.
type Stub struct {
	mu          sync.Mutex
	on          bool
	transitions int
}

func NewStub() *Stub {
	return &Stub{}
}

func (s *Stub) Set(on bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if on != s.on {
		s.transitions++
	}
	s.on = on
	return nil
}

func (s *Stub) Close() error {
	return s.Set(false)
}

// On reports the current state.
func (s *Stub) On() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.on
}

// Transitions counts on/off edges, which is what PWM tests care about.
func (s *Stub) Transitions() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.transitions
}
