//go:build linux && (arm || arm64)

package led

import (
	"fmt"
	"sync"

	"github.com/stianeikeland/go-rpio/v4"
)

// rpio maps the BCM283x GPIO registers once per process.
var rpioOnce struct {
	sync.Mutex
	opened bool
}

// openRpio drives the LED through memory-mapped GPIO. Faster than the
// character device but limited to BCM283x-era Pis.
func openRpio(pin int) (output, error) {
	if pin <= 0 {
		return nil, fmt.Errorf("led: invalid gpio pin %d", pin)
	}

	rpioOnce.Lock()
	defer rpioOnce.Unlock()
	if !rpioOnce.opened {
		if err := rpio.Open(); err != nil {
			return nil, fmt.Errorf("led: rpio open: %w", err)
		}
		rpioOnce.opened = true
	}

	p := rpio.Pin(pin)
	p.Output()
	p.Low()
	return &rpioLED{pin: p}, nil
}

type rpioLED struct {
	pin rpio.Pin
}

func (r *rpioLED) Set(on bool) error {
	if on {
		r.pin.High()
	} else {
		r.pin.Low()
	}
	return nil
}

func (r *rpioLED) Close() error {
	r.pin.Low()
	return nil
}
