package pixeldata

import (
	"log/slog"
	"runtime"
)

// PixelBuffer gives reference-counted access to the pixel data of one
// image frame.
//
// Pixels are paged in lazily from a fast-cache entry or a mapped file
// region. Every successful Lock must be balanced by Unlock or
// UnlockAndClean; the slice returned by Lock is valid only until the count
// returns to zero.
//
// PixelBuffer is safe for concurrent use. Reads of the locked slice are not
// synchronized by the buffer.
type PixelBuffer struct {
	l       *lifecycle
	cleanup runtime.Cleanup
}

// New creates a PixelBuffer over md. The buffer owns md and closes it in
// Close. md may be nil, in which case the buffer has no pixels.
//
// A buffer that becomes unreachable without Close is disposed by a runtime
// cleanup. Close should still be called; the cleanup is a backstop.
func New(md Metadata, opts ...Option) *PixelBuffer {
	o := defaultOptions()
	for _, opt := range opts {
		opt(&o)
	}
	b := &PixelBuffer{l: newLifecycle(md, o)}
	b.cleanup = runtime.AddCleanup(b, disposeUnreachable, b.l)
	return b
}

// disposeUnreachable runs the normal teardown for a buffer that was never
// closed. Panics from collaborators are contained.
func disposeUnreachable(l *lifecycle) {
	defer func() {
		if r := recover(); r != nil {
			l.logger.Error("pixeldata: panic during cleanup", "image", l.imageID, "panic", r)
		}
	}()
	if l.refs.Load() > 0 {
		l.logger.Warn("pixeldata: unreachable buffer still locked", "image", l.imageID)
	}
	_ = l.dispose()
}

// LoadAndLockPixels resolves the backing store and locks it in one step.
func (b *PixelBuffer) LoadAndLockPixels() ([]byte, error) {
	return b.l.lock()
}

// LoadPixels resolves and fully loads the backing store without locking.
// A buffer without a resolvable reference loads nothing and returns nil.
func (b *PixelBuffer) LoadPixels() error {
	return b.l.load()
}

// LoadAsync starts loading pixels and returns a function that waits for
// the load to finish. The wait happens outside the buffer's mutex, so the
// caller can do other work in between.
func (b *PixelBuffer) LoadAsync() (wait func() error, err error) {
	return b.l.loadAsync()
}

// Lock pins the pixels and returns them, resolving the backing store first
// if needed. It returns ErrNoPixelData when nothing can be resolved.
func (b *PixelBuffer) Lock() ([]byte, error) {
	return b.l.lock()
}

// Unlock drops one lock and returns the remaining count. When the count
// reaches zero the pixel slice is cleared but the backing store stays open
// for reuse. Unlocking an unlocked buffer returns ErrUnbalancedUnlock.
func (b *PixelBuffer) Unlock() (int, error) {
	return b.l.unlock(false)
}

// UnlockAndClean is Unlock that also releases the backing store when the
// count reaches zero. The next Lock resolves from scratch.
func (b *PixelBuffer) UnlockAndClean() (int, error) {
	return b.l.unlock(true)
}

// SupportsUnlockAndClean reports that UnlockAndClean releases resources.
func (b *PixelBuffer) SupportsUnlockAndClean() bool {
	return true
}

// MarkForCleanup hints to an unlocked backing store that it may reclaim
// memory. It does nothing while the buffer is locked.
func (b *PixelBuffer) MarkForCleanup() {
	b.l.markForCleanup()
}

// Pixels returns the locked pixel slice, or nil when the buffer is not
// locked.
func (b *PixelBuffer) Pixels() []byte {
	b.l.mu.Lock()
	defer b.l.mu.Unlock()
	return b.l.pixels
}

// HasPixels reports whether metadata is present and carries every
// mandatory geometry attribute.
func (b *PixelBuffer) HasPixels() bool {
	b.l.mu.Lock()
	defer b.l.mu.Unlock()
	return hasGeometry(b.l.md)
}

// Size returns the pixel data length in bytes.
//
// A fast-cache entry reports its own length. Otherwise the length is
// estimated once as rows × columns × ceil(bitsAllocated/8) × samples and
// cached. A buffer without pixels has size 0.
func (b *PixelBuffer) Size() int {
	l := b.l
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.entry != nil {
		return l.entry.Len()
	}
	if l.sizeKnown {
		return l.size
	}
	if !hasGeometry(l.md) {
		return 0
	}
	n, err := estimateSize(l.md)
	if err != nil {
		l.logger.Debug("pixeldata: size estimate failed", "image", l.imageID, "error", err)
		return 0
	}
	l.size, l.sizeKnown = n, true
	return n
}

// Description returns the normalized geometry of the delivered pixels.
//
// The description is derived once and the same value is returned on every
// later call. Metadata errors are returned unchanged and not cached; a
// buffer without geometry returns ErrNoPixelData.
func (b *PixelBuffer) Description() (*Description, error) {
	l := b.l
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.desc != nil {
		return l.desc, nil
	}
	if l.disposed {
		return nil, ErrDisposed
	}

	span := l.tracer.Start("describe", slog.String("image", l.imageID))
	d, err := l.deriveDescription()
	span.End(err)
	if err != nil {
		return nil, err
	}
	l.desc = d
	return d, nil
}

// deriveDescription prefers the fast-cache entry's own description, then
// conversion info computed by the backing store, then metadata.
func (l *lifecycle) deriveDescription() (*Description, error) {
	if d, ok := l.entry.(Describer); ok {
		if desc, ok := d.Describe(l.md); ok {
			return desc, nil
		}
	}
	if l.handle != nil {
		if info := l.handle.ModifiedConversion(); info != nil {
			return NewDescription(*info), nil
		}
	}
	if !hasGeometry(l.md) {
		return nil, ErrNoPixelData
	}
	info, err := ConversionInfoFromMetadata(l.md)
	if err != nil {
		return nil, err
	}
	ApplyTransferSyntax(info)
	return NewDescription(*info), nil
}

// Metadata returns the image header, or nil after Close.
func (b *PixelBuffer) Metadata() Metadata {
	b.l.mu.Lock()
	defer b.l.mu.Unlock()
	return b.l.md
}

// RefCount returns the number of outstanding locks. It does not take the
// buffer's mutex and is meant for diagnostics.
func (b *PixelBuffer) RefCount() int {
	return int(b.l.refs.Load())
}

// State returns the current lifecycle state without taking the mutex.
func (b *PixelBuffer) State() State {
	return State(b.l.state.Load())
}

// ImageID returns the fast-cache key the buffer was created with.
func (b *PixelBuffer) ImageID() string {
	return b.l.imageID
}

// Close releases the backing store, any fast-cache lease and the metadata.
// It is idempotent and may be called while locks are outstanding; those
// locks can still be unlocked afterwards.
func (b *PixelBuffer) Close() error {
	err := b.l.dispose()
	b.cleanup.Stop()
	return err
}
