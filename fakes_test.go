package pixeldata

import (
	"errors"
	"io/fs"
	"sync"

	"github.com/gogpu/pixeldata/dicom"
)

// newGeometry returns a dataset with every mandatory geometry attribute.
func newGeometry(rows, cols, bits, samples int, photometric string) *dicom.Dataset {
	ds := dicom.NewDataset()
	ds.Set(dicom.TagRows, rows)
	ds.Set(dicom.TagColumns, cols)
	ds.Set(dicom.TagBitsAllocated, bits)
	ds.Set(dicom.TagBitsStored, bits)
	ds.Set(dicom.TagHighBit, bits-1)
	ds.Set(dicom.TagPixelRepresentation, 0)
	ds.Set(dicom.TagSamplesPerPixel, samples)
	ds.Set(dicom.TagPhotometricInterpretation, photometric)
	ds.Set(dicom.TagSOPInstanceUID, "1.2.3.4")
	return ds
}

var testRef = dicom.Reference{Path: "image.dcm", Offset: 128, Length: 8}

// countingMetadata counts Close calls.
type countingMetadata struct {
	*dicom.Dataset
	mu     sync.Mutex
	closes int
}

func (m *countingMetadata) Close() error {
	m.mu.Lock()
	m.closes++
	m.mu.Unlock()
	return m.Dataset.Close()
}

func (m *countingMetadata) closeCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.closes
}

type openCall struct {
	ref      dicom.Reference
	fullLoad bool
}

// fakeOpener hands out fakeHandles over a fixed byte slice.
type fakeOpener struct {
	mu       sync.Mutex
	data     []byte
	err      error
	modified *ConversionInfo
	calls    []openCall
	handles  []*fakeHandle

	// asyncErr is reported by handles whose load was triggered
	// asynchronously.
	asyncErr error
}

func (o *fakeOpener) Open(ref dicom.Reference, fullLoad bool) (Handle, error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.calls = append(o.calls, openCall{ref: ref, fullLoad: fullLoad})
	if o.err != nil {
		return nil, o.err
	}
	h := &fakeHandle{
		data:       o.data,
		headerOnly: !fullLoad,
		modified:   o.modified,
		loaded:     make(chan struct{}),
		asyncErr:   o.asyncErr,
	}
	if fullLoad {
		close(h.loaded)
	}
	o.handles = append(o.handles, h)
	return h, nil
}

func (o *fakeOpener) opens() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.calls)
}

func (o *fakeOpener) last() *fakeHandle {
	o.mu.Lock()
	defer o.mu.Unlock()
	if len(o.handles) == 0 {
		return nil
	}
	return o.handles[len(o.handles)-1]
}

type fakeHandle struct {
	mu         sync.Mutex
	data       []byte
	headerOnly bool
	triggered  bool
	loaded     chan struct{}
	modified   *ConversionInfo
	locks      int
	marks      int
	releases   int
	releaseErr error
	asyncErr   error
}

func (h *fakeHandle) Lock() ([]byte, error) {
	<-h.loaded
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.releases > 0 {
		return nil, errors.New("fake: locked after release")
	}
	if h.triggered && h.asyncErr != nil {
		return nil, h.asyncErr
	}
	h.locks++
	return h.data, nil
}

func (h *fakeHandle) Unlock() {
	h.mu.Lock()
	h.locks--
	h.mu.Unlock()
}

func (h *fakeHandle) MarkForCleanup() {
	h.mu.Lock()
	h.marks++
	h.mu.Unlock()
}

func (h *fakeHandle) Release() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.releases++
	return h.releaseErr
}

func (h *fakeHandle) TriggerAsyncLoad() {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.triggered || !h.headerOnly {
		return
	}
	h.triggered = true
	h.headerOnly = false
	go close(h.loaded)
}

func (h *fakeHandle) WaitForLoadCompletion() error {
	<-h.loaded
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.triggered {
		return h.asyncErr
	}
	return nil
}

func (h *fakeHandle) HeaderOnly() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.headerOnly
}

func (h *fakeHandle) ModifiedConversion() *ConversionInfo {
	return h.modified
}

func (h *fakeHandle) counts() (locks, marks, releases int) {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.locks, h.marks, h.releases
}

// fakeRepo is an in-memory CacheRepository.
type fakeRepo struct {
	mu        sync.Mutex
	enabled   bool
	entries   map[string]CacheEntry
	retrieves int
}

func newFakeRepo(enabled bool) *fakeRepo {
	return &fakeRepo{enabled: enabled, entries: make(map[string]CacheEntry)}
}

func (r *fakeRepo) Enabled() bool { return r.enabled }

func (r *fakeRepo) put(id string, e CacheEntry) {
	r.mu.Lock()
	r.entries[id] = e
	r.mu.Unlock()
}

func (r *fakeRepo) Retrieve(id string) (CacheEntry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.retrieves++
	e, ok := r.entries[id]
	if !ok {
		return nil, false
	}
	return e, true
}

type fakeEntry struct {
	mu       sync.Mutex
	data     []byte
	loadErr  error
	loads    int
	releases int
}

func (e *fakeEntry) Load() ([]byte, error) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.loads++
	if e.loadErr != nil {
		return nil, e.loadErr
	}
	return e.data, nil
}

func (e *fakeEntry) ReleaseResources() {
	e.mu.Lock()
	e.releases++
	e.mu.Unlock()
}

func (e *fakeEntry) Len() int { return len(e.data) }

func (e *fakeEntry) loadCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.loads
}

func (e *fakeEntry) releaseCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.releases
}

// describingEntry carries its own description.
type describingEntry struct {
	fakeEntry
	desc *Description
}

func (e *describingEntry) Describe(Metadata) (*Description, bool) {
	return e.desc, e.desc != nil
}

var errNotFound = &fs.PathError{Op: "open", Path: "image.dcm", Err: fs.ErrNotExist}
