//go:build !linux || (!arm && !arm64)

package led

import "fmt"

func openRpio(pin int) (output, error) {
	return nil, fmt.Errorf("led: rpio backend unsupported on this platform")
}
