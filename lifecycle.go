package pixeldata

import (
	"errors"
	"log/slog"
	"sync"
	"sync/atomic"

	"github.com/gogpu/pixeldata/dicom"
)

// lifecycle is the reference-counted state of one PixelBuffer.
//
// mu guards every field except refs and state. refs is also updated
// atomically so RefCount can read it without mu. The invariant
// refs > 0 ⇒ (handle != nil || entry != nil) && pixels != nil holds until
// the buffer is disposed.
type lifecycle struct {
	mu sync.Mutex

	md     Metadata
	ref    dicom.Reference
	hasRef bool

	handle   Handle
	entry    CacheEntry
	pixels   []byte
	released bool
	disposed bool

	size      int
	sizeKnown bool
	desc      *Description

	refs  atomic.Int32
	state atomic.Uint32

	opener  Opener
	repo    CacheRepository
	imageID string
	tracer  Tracer
	logger  *slog.Logger
}

func newLifecycle(md Metadata, o options) *lifecycle {
	l := &lifecycle{
		md:      md,
		ref:     o.ref,
		hasRef:  o.hasRef,
		opener:  o.opener,
		repo:    o.repo,
		imageID: o.imageID,
		tracer:  o.tracer,
		logger:  o.logger,
	}
	if l.logger == nil {
		l.logger = Logger()
	}
	if l.imageID == "" {
		l.imageID = sopInstanceUID(md)
	}
	return l
}

// syncState publishes the state implied by the current fields.
// Callers hold mu.
func (l *lifecycle) syncState() {
	var s State
	switch {
	case l.disposed:
		s = StateDisposed
	case l.refs.Load() > 0:
		s = StateLocked
	case l.handle != nil || l.entry != nil:
		s = StateResolved
	case l.released:
		s = StateReleased
	default:
		s = StateUnresolved
	}
	l.state.Store(uint32(s))
}

func (l *lifecycle) acquire() {
	l.refs.Add(1)
	l.syncState()
}

// lock resolves a backing store if needed and pins its pixels.
// The mutex is held across resolution and the count increment.
func (l *lifecycle) lock() ([]byte, error) {
	span := l.tracer.Start("lock", slog.String("image", l.imageID))
	l.mu.Lock()
	data, err := l.lockLocked()
	l.mu.Unlock()
	span.End(err)
	return data, err
}

func (l *lifecycle) lockLocked() ([]byte, error) {
	if l.disposed {
		return nil, ErrDisposed
	}
	if err := l.ensureLoaded(); err != nil {
		return nil, err
	}

	if l.entry != nil {
		if l.refs.Load() > 0 {
			l.acquire()
			return l.pixels, nil
		}
		data, err := l.entry.Load()
		if err == nil {
			l.pixels = data
			l.acquire()
			return data, nil
		}
		l.logger.Debug("pixeldata: fast cache entry unavailable, using mapped region",
			"image", l.imageID, "error", err)
		l.dropEntry()
		if err := l.resolveRegion(); err != nil {
			return nil, err
		}
	}

	if l.handle == nil {
		return nil, ErrNoPixelData
	}
	data, err := l.handle.Lock()
	if err != nil {
		// A failed load is not retried by the handle; drop it so the
		// next lock opens the region again.
		l.logger.Debug("pixeldata: region lock failed, dropping region",
			"image", l.imageID, "error", err)
		if rerr := l.handle.Release(); rerr != nil {
			l.logger.Warn("pixeldata: releasing failed region",
				"image", l.imageID, "error", rerr)
		}
		l.handle = nil
		l.syncState()
		return nil, err
	}
	l.pixels = data
	l.acquire()
	return data, nil
}

// unlock drops one lock. At zero the pixel slice and any fast-cache lease
// are released; with clean set the backing store is released as well.
func (l *lifecycle) unlock(clean bool) (int, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.refs.Load() < 1 {
		l.logger.Error("pixeldata: unlock without matching lock",
			"image", l.imageID, "clean", clean)
		return 0, ErrUnbalancedUnlock
	}

	if l.entry == nil && l.handle != nil {
		l.handle.Unlock()
	}
	n := l.refs.Add(-1)

	var err error
	if n == 0 {
		l.pixels = nil
		l.dropEntry()
		if clean && !l.disposed && l.handle != nil {
			err = l.handle.Release()
			l.handle = nil
			l.released = true
		}
	}
	l.syncState()
	return int(n), err
}

// markForCleanup forwards an idle hint to an unlocked backing store.
func (l *lifecycle) markForCleanup() {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.disposed || l.refs.Load() != 0 || l.handle == nil {
		return
	}
	l.handle.MarkForCleanup()
}

// load resolves a backing store without locking it.
func (l *lifecycle) load() error {
	span := l.tracer.Start("load", slog.String("image", l.imageID))
	l.mu.Lock()
	err := l.loadLocked()
	l.mu.Unlock()
	span.End(err)
	return err
}

func (l *lifecycle) loadLocked() error {
	if l.disposed {
		return ErrDisposed
	}
	return l.ensureLoaded()
}

// loadAsync opens a header-only region and starts materializing it while
// holding mu. The returned function waits for completion without mu.
func (l *lifecycle) loadAsync() (func() error, error) {
	span := l.tracer.Start("load_async", slog.String("image", l.imageID))
	l.mu.Lock()
	h, err := l.triggerLocked()
	l.mu.Unlock()
	span.End(err)

	if err != nil {
		return nil, err
	}
	if h == nil {
		return func() error { return nil }, nil
	}
	return h.WaitForLoadCompletion, nil
}

func (l *lifecycle) triggerLocked() (Handle, error) {
	if l.disposed {
		return nil, ErrDisposed
	}
	if l.entry != nil || (l.handle != nil && !l.handle.HeaderOnly()) {
		return nil, nil
	}
	if l.handle == nil {
		if l.retrieveEntry() {
			return nil, nil
		}
		if err := l.openRegion(false); err != nil || l.handle == nil {
			return nil, err
		}
	}
	l.handle.TriggerAsyncLoad()
	return l.handle, nil
}

// dispose tears everything down once. It never panics when invoked from
// the cleanup backstop.
func (l *lifecycle) dispose() error {
	span := l.tracer.Start("dispose", slog.String("image", l.imageID))
	l.mu.Lock()
	err := l.disposeLocked()
	l.mu.Unlock()
	span.End(err)
	return err
}

func (l *lifecycle) disposeLocked() error {
	if l.disposed {
		return nil
	}
	l.disposed = true

	if n := l.refs.Load(); n > 0 {
		l.logger.Warn("pixeldata: buffer disposed while locked",
			"image", l.imageID, "refs", n)
	}

	var errs []error
	l.pixels = nil
	l.dropEntry()
	if l.handle != nil {
		errs = append(errs, l.handle.Release())
		l.handle = nil
	}
	if l.md != nil {
		errs = append(errs, l.md.Close())
		l.md = nil
	}
	l.syncState()

	err := errors.Join(errs...)
	if err != nil {
		l.logger.Warn("pixeldata: release failed during dispose",
			"image", l.imageID, "error", err)
	}
	return err
}

// dropEntry returns the fast-cache lease, if any.
func (l *lifecycle) dropEntry() {
	if l.entry == nil {
		return
	}
	l.entry.ReleaseResources()
	l.entry = nil
}
