package pixeldata

import (
	"errors"
	"fmt"
	"io/fs"
	"strings"

	"github.com/gogpu/pixeldata/dicom"
)

// ensureLoaded makes sure a fully loaded backing store is selected.
//
// Resolution order: an existing fast-cache lease, an existing fully loaded
// region, a fast-cache hit (only while no region is open), then a mapped
// region opened with full load. A buffer without a resolvable reference
// stays unresolved; that is not an error. Callers hold mu.
func (l *lifecycle) ensureLoaded() error {
	if l.entry != nil {
		return nil
	}
	if l.handle != nil && !l.handle.HeaderOnly() {
		return nil
	}

	l.state.Store(uint32(StateResolving))
	defer l.syncState()

	if l.handle == nil && l.retrieveEntry() {
		return nil
	}
	return l.resolveRegion()
}

// retrieveEntry looks the image up in the fast repository.
func (l *lifecycle) retrieveEntry() bool {
	if l.repo == nil || !l.repo.Enabled() {
		return false
	}
	id := l.cacheKey()
	if id == "" {
		return false
	}
	entry, ok := l.repo.Retrieve(id)
	if !ok {
		l.logger.Debug("pixeldata: fast cache miss", "image", id)
		return false
	}
	l.logger.Debug("pixeldata: fast cache hit", "image", id, "bytes", entry.Len())
	l.entry = entry
	l.released = false
	return true
}

// resolveRegion opens a fully loaded mapped region, re-opening a
// header-only one.
func (l *lifecycle) resolveRegion() error {
	if l.handle != nil {
		if !l.handle.HeaderOnly() {
			return nil
		}
		if err := l.handle.Release(); err != nil {
			l.logger.Warn("pixeldata: releasing header-only region failed",
				"image", l.imageID, "error", err)
		}
		l.handle = nil
	}
	return l.openRegion(true)
}

// openRegion opens the referenced byte range. With no resolvable reference
// the buffer has no pixel data and openRegion returns nil with no handle.
func (l *lifecycle) openRegion(fullLoad bool) error {
	ref, ok := l.reference()
	if !ok {
		l.logger.Debug("pixeldata: no pixel data reference", "image", l.imageID)
		return nil
	}
	if l.opener == nil {
		return ErrNoOpener
	}

	h, err := l.opener.Open(ref, fullLoad)
	if err != nil {
		return translateOpenError(ref, err)
	}
	l.logger.Debug("pixeldata: region opened",
		"image", l.imageID, "ref", ref.String(), "full", fullLoad)
	l.handle = h
	l.ref, l.hasRef = ref, true
	l.released = false
	return nil
}

// reference returns the stored reference, or re-reads it from metadata.
// Metadata may gain a reference after the buffer was created, so the
// metadata lookup happens at every resolution that lacks a stored one.
func (l *lifecycle) reference() (dicom.Reference, bool) {
	if l.hasRef && l.ref.Valid() {
		return l.ref, true
	}
	if l.md == nil {
		return dicom.Reference{}, false
	}
	ref, ok := l.md.Reference(dicom.TagPixelData)
	if !ok || !ref.Valid() {
		return dicom.Reference{}, false
	}
	return ref, true
}

// cacheKey returns the fast-cache key. Without an explicit image ID the
// SOP Instance UID is read from metadata on every lookup.
func (l *lifecycle) cacheKey() string {
	if l.imageID != "" {
		return l.imageID
	}
	return sopInstanceUID(l.md)
}

func sopInstanceUID(md Metadata) string {
	if md == nil || !md.Has(dicom.TagSOPInstanceUID) {
		return ""
	}
	uid, err := md.String(dicom.TagSOPInstanceUID)
	if err != nil {
		return ""
	}
	return strings.TrimRight(uid, "\x00 ")
}

// translateOpenError reports missing bytes as corrupt data.
func translateOpenError(ref dicom.Reference, err error) error {
	if errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("%w: %s: %w", ErrCorruptData, ref, err)
	}
	return fmt.Errorf("pixeldata: open %s: %w", ref, err)
}
