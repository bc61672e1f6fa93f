// Package blinker drives an LED with a software PWM waveform.
//
// Each tick advances a free-running 8-bit counter and turns the LED on
// exactly when the counter is at or below the duty-cycle word supplied
// by the duty source. With the counter wrapping through 256 values the
// result is a PWM signal with period 256 ticks and duty cycle of
// roughly duty/255.
package blinker

// DutySource provides the current duty-cycle threshold. The value is
// used raw: anything at or above 255 keeps the LED on permanently, and
// zero leaves a single on-tick per period.
type DutySource interface {
	DutyWord() uint32
}

// LED is the output the blinker toggles.
type LED interface {
	Set(on bool) error
}

// Blinker owns the tick counter. Tick must not be called concurrently;
// the Service run loop guarantees ticks are strictly sequential.
type Blinker struct {
	duty DutySource
	led  LED

	counter uint32
	on      bool
	ticks   uint64
}

func New(duty DutySource, led LED) *Blinker {
	return &Blinker{duty: duty, led: led}
}

// Tick advances the counter by one, wraps it into [0, 255], and sets
// the LED from the comparison against the duty word.
func (b *Blinker) Tick() error {
	b.counter = (b.counter + 1) & 0xFF
	b.ticks++
	b.on = ledState(b.counter, b.duty.DutyWord())
	return b.led.Set(b.on)
}

// ledState is the whole waveform rule: on iff counter <= duty, with an
// unsigned comparison and no clamping of either side.
func ledState(counter, duty uint32) bool {
	return counter <= duty
}

// Counter returns the current counter value.
func (b *Blinker) Counter() uint32 {
	return b.counter
}

// On reports the LED state set by the most recent tick.
func (b *Blinker) On() bool {
	return b.on
}

// Ticks returns the number of ticks since creation.
func (b *Blinker) Ticks() uint64 {
	return b.ticks
}
