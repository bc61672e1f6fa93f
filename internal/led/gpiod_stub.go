//go:build !linux

package led

import "fmt"

func openGpiod(pin int) (output, error) {
	return nil, fmt.Errorf("led: gpiod backend unsupported on this platform")
}
