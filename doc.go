// Package pixeldata manages the lifetime of DICOM pixel data.
//
// # Overview
//
// A PixelBuffer stands for the pixel data of one image frame without
// holding it. Pixels are paged in on first use from one of two backing
// stores and released again when the last user is done with them:
//
//   - a fast cache of pre-decoded blobs (see package fastcache)
//   - a mapped region of the source file (see package mapped)
//
// # Quick Start
//
//	import (
//	    "github.com/gogpu/pixeldata"
//	    "github.com/gogpu/pixeldata/dicom"
//	    "github.com/gogpu/pixeldata/mapped"
//	)
//
//	ds, err := dicom.ReadFile("image.dcm")
//	if err != nil {
//	    return err
//	}
//	store := mapped.NewStore(mapped.DefaultConfig())
//	defer store.Close()
//
//	pb := pixeldata.New(ds, pixeldata.WithOpener(store))
//	defer pb.Close()
//
//	pixels, err := pb.Lock()
//	if err != nil {
//	    return err
//	}
//	defer pb.Unlock()
//	desc, _ := pb.Description()
//	_ = render(pixels, desc)
//
// # Locking
//
// Lock and Unlock are reference counted. The slice returned by Lock stays
// valid until the count drops back to zero. Unlock keeps the backing store
// open so the next Lock is cheap; UnlockAndClean releases it.
//
// # Resolution
//
// The first Lock (or LoadPixels) picks a backing store. The fast cache is
// consulted when a repository is configured and enabled; otherwise, or when
// the cached blob is gone by the time it is loaded, the referenced byte
// range is mapped. A buffer whose metadata has no pixel data reference
// has nothing to lock and Lock returns ErrNoPixelData.
//
// # Description
//
// Description reports the geometry of the pixels as delivered, which may
// differ from the stored geometry: YBR color is delivered as RGB, and
// decoded compressed data is pixel-interleaved.
//
// # Logging
//
// Nothing is logged by default. Use SetLogger to route diagnostics to a
// slog.Logger, and WithTracer to time individual operations.
package pixeldata
