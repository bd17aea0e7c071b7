package pixeldata

import "errors"

// Errors returned by PixelBuffer.
var (
	// ErrCorruptData is returned when the backing store cannot find the
	// bytes a reference points at. The opener's error is wrapped.
	ErrCorruptData = errors.New("pixeldata: pixel data corrupt or missing")

	// ErrUnbalancedUnlock is returned when Unlock is called more times than
	// Lock. It always indicates a caller bug.
	ErrUnbalancedUnlock = errors.New("pixeldata: unlock without matching lock")

	// ErrNoPixelData is returned by Lock when no backing store can be
	// resolved for the buffer.
	ErrNoPixelData = errors.New("pixeldata: no pixel data")

	// ErrDisposed is returned by operations on a closed buffer.
	ErrDisposed = errors.New("pixeldata: buffer disposed")

	// ErrNoOpener is returned when a mapped region is needed but the buffer
	// was created without an Opener.
	ErrNoOpener = errors.New("pixeldata: no opener configured")
)
