//go:build !linux

package sdram

import "fmt"

// File-backed banks need mmap; only supported on Linux.
func OpenFileBank(path string, size int) (*Bank, error) {
	return nil, fmt.Errorf("sdram: file-backed banks unsupported on this platform")
}
