package pixeldata

import "github.com/gogpu/pixeldata/dicom"

// Metadata is the image header a PixelBuffer reads geometry and the pixel
// data reference from. *dicom.Dataset implements it.
//
// The PixelBuffer owns its Metadata and closes it on Close.
type Metadata interface {
	Has(tag dicom.Tag) bool
	Int(tag dicom.Tag) (int, error)
	String(tag dicom.Tag) (string, error)
	Reference(tag dicom.Tag) (dicom.Reference, bool)
	Close() error
}

// Opener resolves a byte range reference into an open Handle.
//
// With fullLoad false the handle is header-only: the range is validated but
// pixels are not materialized until TriggerAsyncLoad is called.
// Open must return an error matching fs.ErrNotExist when the range is
// unavailable.
type Opener interface {
	Open(ref dicom.Reference, fullLoad bool) (Handle, error)
}

// Handle is an open backing store for one pixel buffer.
//
// A Handle is owned by exactly one PixelBuffer and is never shared.
type Handle interface {
	// Lock pins the pixels and returns them. Each Lock is paired with one
	// Unlock. Lock waits for an in-flight asynchronous load.
	Lock() ([]byte, error)

	// Unlock undoes one Lock.
	Unlock()

	// MarkForCleanup hints that the pixels are idle and may be reclaimed.
	MarkForCleanup()

	// Release frees every resource. It is idempotent.
	Release() error

	// TriggerAsyncLoad starts materializing a header-only handle.
	TriggerAsyncLoad()

	// WaitForLoadCompletion blocks until a triggered load finishes.
	WaitForLoadCompletion() error

	// HeaderOnly reports whether materialization was never requested.
	HeaderOnly() bool

	// ModifiedConversion returns conversion info the store computed while
	// loading, or nil.
	ModifiedConversion() *ConversionInfo
}

// CacheRepository serves pre-decoded pixel blobs keyed by image identifier.
type CacheRepository interface {
	Enabled() bool
	Retrieve(imageID string) (CacheEntry, bool)
}

// CacheEntry is a lease on one cached blob. The repository keeps ownership
// of the memory; the lease is returned through ReleaseResources.
type CacheEntry interface {
	// Load returns the pixels. Failures are transient: the entry is no
	// longer available.
	Load() ([]byte, error)
	ReleaseResources()
	Len() int
}

// Describer is implemented by cache entries that know their own geometry.
type Describer interface {
	Describe(md Metadata) (*Description, bool)
}
