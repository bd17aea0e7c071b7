package fastcache

import (
	"sync"

	"github.com/gogpu/pixeldata"
)

// Entry is a lease on one cached blob, returned by Repository.Retrieve.
// It implements pixeldata.CacheEntry and pixeldata.Describer.
type Entry struct {
	repo *Repository
	id   string
	blob *blob

	mu       sync.Mutex
	buf      []byte
	released bool
}

// Load decompresses the blob on first call and returns the same buffer
// afterwards. It fails with ErrEvicted if the blob left the cache before
// the first Load.
func (e *Entry) Load() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.released {
		return nil, ErrReleased
	}
	if e.buf != nil {
		return e.buf, nil
	}
	if e.blob.evicted.Load() {
		return nil, ErrEvicted
	}
	buf, err := e.repo.decode(e.blob)
	if err != nil {
		return nil, err
	}
	e.buf = buf
	return buf, nil
}

// ReleaseResources returns the decompression buffer to the pool. The
// slice returned by Load must not be used afterwards.
func (e *Entry) ReleaseResources() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.released {
		return
	}
	e.released = true
	if e.buf != nil {
		e.repo.pool.put(e.buf)
		e.buf = nil
	}
}

// Len returns the decompressed length.
func (e *Entry) Len() int {
	return e.blob.rawLen
}

// ID returns the image ID the entry was retrieved with.
func (e *Entry) ID() string {
	return e.id
}

// Describe returns the description stored with Put.
func (e *Entry) Describe(pixeldata.Metadata) (*pixeldata.Description, bool) {
	return e.blob.desc, e.blob.desc != nil
}
