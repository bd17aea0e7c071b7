package mapped

import (
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/pixeldata"
	"github.com/gogpu/pixeldata/dicom"
)

// Region is an open byte range of one file. It implements
// pixeldata.Handle and is owned by a single PixelBuffer.
type Region struct {
	store *Store
	file  *sharedFile
	ref   dicom.Reference
	codec Codec

	mu         sync.Mutex
	m          *mapping
	data       []byte
	conv       *pixeldata.ConversionInfo
	locks      int
	headerOnly bool
	loading    chan struct{} // closed when an async load finishes
	loadErr    error
	released   bool
}

// loaded is the outcome of one load: the mapping (nil once decoded to the
// heap), the pixels and any codec geometry.
type loaded struct {
	m    *mapping
	data []byte
	conv *pixeldata.ConversionInfo
}

// load maps the page-aligned window around the reference and, with a
// codec, decodes it to the heap. It does not touch mu.
func (r *Region) load(prefetch bool) (loaded, error) {
	m, data, err := r.mapRange(prefetch)
	if err != nil {
		return loaded{}, err
	}
	if r.codec == nil {
		return loaded{m: m, data: data}, nil
	}

	res, err := r.decode(data)
	if uerr := m.unmap(); uerr != nil {
		pixeldata.Logger().Warn("mapped: unmap after decode failed", "ref", r.ref.String(), "error", uerr)
	}
	if err != nil {
		return loaded{}, err
	}
	return loaded{data: res.Pixels, conv: res.Info}, nil
}

// publish stores a load result. Callers hold mu.
func (r *Region) publish(res loaded) {
	r.m, r.data, r.conv = res.m, res.data, res.conv
}

func (r *Region) mapRange(prefetch bool) (*mapping, []byte, error) {
	align := r.store.align
	start := r.ref.Offset - r.ref.Offset%align
	delta := r.ref.Offset - start

	m, err := mapFile(r.file.f, start, int(delta+r.ref.Length))
	if err != nil {
		return nil, nil, fmt.Errorf("mapped: map %s: %w", r.ref, err)
	}
	if prefetch {
		if err := m.advise(adviceWillNeed); err != nil {
			pixeldata.Logger().Debug("mapped: prefetch hint failed", "ref", r.ref.String(), "error", err)
		}
	}
	return m, m.data[delta : delta+r.ref.Length], nil
}

func (r *Region) decode(src []byte) (*DecodeResult, error) {
	res, err := r.codec.Decode(src, r.ref)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %s: %w", ErrDecode, r.codec.Name(), r.ref, err)
	}
	if res == nil || res.Pixels == nil {
		return nil, fmt.Errorf("%w: %s returned no pixels", ErrDecode, r.codec.Name())
	}
	return res, nil
}

// Lock returns the pixels, loading them first if needed. It waits for a
// triggered asynchronous load.
func (r *Region) Lock() ([]byte, error) {
	if err := r.WaitForLoadCompletion(); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released {
		return nil, ErrReleased
	}
	if r.data == nil {
		// Header-only region locked without a load: map synchronously.
		res, err := r.load(false)
		if err != nil {
			return nil, err
		}
		r.publish(res)
		r.headerOnly = false
	}
	r.locks++
	return r.data, nil
}

// Unlock undoes one Lock.
func (r *Region) Unlock() {
	r.mu.Lock()
	if r.locks > 0 {
		r.locks--
	}
	r.mu.Unlock()
}

// MarkForCleanup lets the kernel drop the mapped pages of an unlocked
// region. They are faulted back in from the file on the next access.
func (r *Region) MarkForCleanup() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released || r.locks > 0 || r.m == nil {
		return
	}
	if err := r.m.advise(adviceDontNeed); err != nil {
		pixeldata.Logger().Debug("mapped: cleanup hint failed", "ref", r.ref.String(), "error", err)
	}
}

// TriggerAsyncLoad starts mapping a header-only region in the background.
// It does nothing for a region that is loaded or loading.
func (r *Region) TriggerAsyncLoad() {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.released || !r.headerOnly || r.loading != nil {
		return
	}
	r.headerOnly = false
	done := make(chan struct{})
	r.loading = done

	go func() {
		res, err := r.load(true)
		r.mu.Lock()
		switch {
		case err != nil:
			r.loadErr = err
		case r.released:
			// Released while loading: nobody will see the mapping.
			if res.m != nil {
				_ = res.m.unmap()
			}
		default:
			r.publish(res)
		}
		r.mu.Unlock()
		close(done)
		if err != nil {
			pixeldata.Logger().Warn("mapped: async load failed", "ref", r.ref.String(), "error", err)
		}
	}()
}

// WaitForLoadCompletion blocks until a triggered load finishes and returns
// its error. It returns nil at once if no load was triggered.
func (r *Region) WaitForLoadCompletion() error {
	r.mu.Lock()
	done := r.loading
	r.mu.Unlock()
	if done == nil {
		return nil
	}
	<-done

	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loadErr
}

// HeaderOnly reports whether the region has never been asked to load.
func (r *Region) HeaderOnly() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.headerOnly
}

// ModifiedConversion returns the geometry reported by the codec, or nil
// when pixels are delivered as stored.
func (r *Region) ModifiedConversion() *pixeldata.ConversionInfo {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.conv
}

// Release waits for an in-flight load, unmaps the window and returns the
// file descriptor to the store. It is idempotent.
func (r *Region) Release() error {
	_ = r.WaitForLoadCompletion()

	r.mu.Lock()
	if r.released {
		r.mu.Unlock()
		return nil
	}
	r.released = true
	m := r.m
	r.m, r.data = nil, nil
	if r.locks > 0 {
		pixeldata.Logger().Warn("mapped: region released while locked", "ref", r.ref.String(), "locks", r.locks)
	}
	r.mu.Unlock()

	var errs []error
	if m != nil {
		errs = append(errs, m.unmap())
	}
	r.store.release(r.file)
	return errors.Join(errs...)
}
