//go:build !unix

package mmap

import (
	"io"
	"os"
)

// Fallback for platforms without a usable mmap syscall: read the whole file.
// xdb files are small enough (tens of MiB) that this is acceptable.
func openMapping(f *os.File, size int64) (*Mapping, error) {
	data := make([]byte, size)
	if _, err := io.ReadFull(f, data); err != nil {
		return nil, err
	}
	return &Mapping{data: data}, nil
}

func munmap([]byte) error { return nil }
