//go:build linux || darwin || freebsd || netbsd || openbsd || dragonfly

package mapped

import (
	"os"

	"golang.org/x/sys/unix"
)

func alignment() int { return os.Getpagesize() }

func mapFile(f *os.File, off int64, length int) (*mapping, error) {
	data, err := unix.Mmap(int(f.Fd()), off, length, unix.PROT_READ, unix.MAP_SHARED)
	if err != nil {
		return nil, err
	}
	return &mapping{data: data}, nil
}

func (m *mapping) unmap() error {
	if m.data == nil {
		return nil
	}
	err := unix.Munmap(m.data)
	m.data = nil
	return err
}

func (m *mapping) advise(a advice) error {
	if m.data == nil {
		return nil
	}
	hint := unix.MADV_WILLNEED
	if a == adviceDontNeed {
		hint = unix.MADV_DONTNEED
	}
	return unix.Madvise(m.data, hint)
}
