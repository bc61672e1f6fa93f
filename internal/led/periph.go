package led

import (
	"fmt"
	"sync"

	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

var periphInit sync.Once
var periphInitErr error

// openPeriph drives the LED through periph.io's GPIO registry. Works on
// any host periph supports; on machines with no GPIO the pin lookup
// fails cleanly.
func openPeriph(pin int) (output, error) {
	periphInit.Do(func() {
		_, periphInitErr = host.Init()
	})
	if periphInitErr != nil {
		return nil, fmt.Errorf("led: periph host init: %w", periphInitErr)
	}

	p := gpioreg.ByName(fmt.Sprintf("GPIO%d", pin))
	if p == nil {
		return nil, fmt.Errorf("led: gpio pin GPIO%d not found", pin)
	}
	if err := p.Out(gpio.Low); err != nil {
		return nil, fmt.Errorf("led: set GPIO%d as output: %w", pin, err)
	}
	return &periphLED{pin: p}, nil
}

type periphLED struct {
	pin gpio.PinIO
}

func (p *periphLED) Set(on bool) error {
	if on {
		return p.pin.Out(gpio.High)
	}
	return p.pin.Out(gpio.Low)
}

func (p *periphLED) Close() error {
	return p.pin.Out(gpio.Low)
}
