//go:build linux

package sdram

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

// OpenFileBank maps a bank onto a file so another process (a debugger,
// or a host-side loader sharing the filesystem) can observe or seed the
// duty word directly. The file is created and extended to size if
// needed.
func OpenFileBank(path string, size int) (*Bank, error) {
	if size <= 0 {
		size = DefaultSize
	}
	if size < minSize {
		size = minSize
	}

	f, err := os.OpenFile(path, os.O_RDWR|os.O_CREATE, 0o644)
	if err != nil {
		return nil, fmt.Errorf("sdram: open backing file: %w", err)
	}
	defer f.Close()

	if err := f.Truncate(int64(size)); err != nil {
		return nil, fmt.Errorf("sdram: size backing file: %w", err)
	}

	buf, err := unix.Mmap(int(f.Fd()), 0, size, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		return nil, fmt.Errorf("sdram: mmap %s: %w", path, err)
	}

	return &Bank{
		buf:   buf,
		unmap: func() error { return unix.Munmap(buf) },
	}, nil
}
