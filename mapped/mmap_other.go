//go:build !(linux || darwin || freebsd || netbsd || openbsd || dragonfly || windows)

package mapped

import "os"

func alignment() int { return 1 }

// mapFile reads the window into the heap where mmap is unavailable.
func mapFile(f *os.File, off int64, length int) (*mapping, error) {
	data := make([]byte, length)
	if _, err := f.ReadAt(data, off); err != nil {
		return nil, err
	}
	return &mapping{data: data}, nil
}

func (m *mapping) unmap() error {
	m.data = nil
	return nil
}

func (m *mapping) advise(advice) error { return nil }
