//go:build windows

package mapped

import (
	"os"
	"unsafe"

	"golang.org/x/sys/windows"
)

// Views must start on the allocation granularity, not the page size.
func alignment() int { return 64 << 10 }

func mapFile(f *os.File, off int64, length int) (*mapping, error) {
	h, err := windows.CreateFileMapping(windows.Handle(f.Fd()), nil, windows.PAGE_READONLY, 0, 0, nil)
	if err != nil {
		return nil, err
	}
	addr, err := windows.MapViewOfFile(h, windows.FILE_MAP_READ,
		uint32(off>>32), uint32(off), uintptr(length))
	if err != nil {
		_ = windows.CloseHandle(h)
		return nil, err
	}
	return &mapping{
		data: unsafe.Slice((*byte)(unsafe.Pointer(addr)), length),
		addr: addr,
		h:    uintptr(h),
	}, nil
}

func (m *mapping) unmap() error {
	if m.data == nil {
		return nil
	}
	m.data = nil
	err := windows.UnmapViewOfFile(m.addr)
	if cerr := windows.CloseHandle(windows.Handle(m.h)); err == nil {
		err = cerr
	}
	return err
}

// advise is a no-op: read-only views are trimmed from the working set by
// the memory manager.
func (m *mapping) advise(advice) error { return nil }
