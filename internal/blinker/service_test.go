package blinker

import (
	"context"
	"sync"
	"testing"
	"time"
)

type chanLED struct {
	mu     sync.Mutex
	last   bool
	states chan bool
}

func (l *chanLED) Set(on bool) error {
	l.mu.Lock()
	l.last = on
	l.mu.Unlock()
	select {
	case l.states <- on:
	default:
	}
	return nil
}

func (l *chanLED) lastState() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.last
}

func TestServiceStart_IsNonBlocking(t *testing.T) {
	led := &chanLED{states: make(chan bool, 8)}
	svc := NewService(Config{TickInterval: time.Millisecond}, fixedDuty(255), led)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	start := time.Now()
	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	if time.Since(start) > 200*time.Millisecond {
		t.Fatalf("Start took too long (likely blocked): %v", time.Since(start))
	}

	select {
	case on := <-led.states:
		if !on {
			t.Fatalf("first tick state=%v want on (duty 255)", on)
		}
	case <-time.After(time.Second):
		t.Fatalf("expected a tick quickly")
	}

	svc.Close()
}

func TestServiceClose_TurnsLEDOff(t *testing.T) {
	led := &chanLED{states: make(chan bool, 8)}
	svc := NewService(Config{TickInterval: time.Millisecond}, fixedDuty(255), led)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}

	select {
	case <-led.states:
	case <-time.After(time.Second):
		t.Fatalf("expected a tick")
	}

	svc.Close()
	if led.lastState() {
		t.Fatalf("led still on after Close")
	}
}

func TestServiceSnapshot_ReflectsTicks(t *testing.T) {
	led := &chanLED{states: make(chan bool, 64)}
	svc := NewService(Config{TickInterval: time.Millisecond}, fixedDuty(127), led)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	if err := svc.Start(ctx); err != nil {
		t.Fatalf("Start() error: %v", err)
	}
	defer svc.Close()

	deadline := time.After(2 * time.Second)
	for {
		snap := svc.Snapshot()
		if snap.Ticks >= 3 {
			if snap.Duty != 127 {
				t.Fatalf("snapshot duty=%d want 127", snap.Duty)
			}
			if snap.Counter > 255 {
				t.Fatalf("snapshot counter=%d outside [0,255]", snap.Counter)
			}
			if snap.LastTickAt.IsZero() {
				t.Fatalf("snapshot missing tick time")
			}
			return
		}
		select {
		case <-deadline:
			t.Fatalf("ticks=%d, expected at least 3", snap.Ticks)
		case <-time.After(5 * time.Millisecond):
		}
	}
}

func TestServiceDefaultInterval(t *testing.T) {
	svc := NewService(Config{}, fixedDuty(0), &chanLED{states: make(chan bool, 1)})
	if svc.cfg.TickInterval != DefaultTickInterval {
		t.Fatalf("interval=%s want %s", svc.cfg.TickInterval, DefaultTickInterval)
	}
}
