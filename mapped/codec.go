package mapped

import (
	"errors"
	"fmt"

	"github.com/gogpu/pixeldata"
	"github.com/gogpu/pixeldata/dicom"
)

// ErrDecode wraps every Codec failure.
var ErrDecode = errors.New("mapped: decode failed")

// Codec decodes the stored bytes of one transfer syntax into native
// little-endian, pixel-interleaved samples.
type Codec interface {
	// UID returns the transfer syntax UID the codec handles.
	UID() string

	// Name returns a human-readable name.
	Name() string

	// Decode converts src, the referenced bytes as stored. src is only
	// valid during the call; the result must not alias it.
	Decode(src []byte, ref dicom.Reference) (*DecodeResult, error)
}

// DecodeResult is the output of a Codec.
type DecodeResult struct {
	Pixels []byte

	// Info describes the decoded pixels. Nil means the geometry in the
	// metadata still applies.
	Info *pixeldata.ConversionInfo
}

// Swap16 converts big endian 16-bit samples to little endian. It is not
// registered by default; add it to Config.Codecs for datasets known to
// use 16-bit samples.
type Swap16 struct{}

// UID returns the Explicit VR Big Endian transfer syntax.
func (Swap16) UID() string { return dicom.ExplicitVRBigEndian }

// Name returns "swap16".
func (Swap16) Name() string { return "swap16" }

// Decode swaps every pair of bytes into a new slice.
func (Swap16) Decode(src []byte, _ dicom.Reference) (*DecodeResult, error) {
	if len(src)%2 != 0 {
		return nil, fmt.Errorf("odd length %d", len(src))
	}
	dst := make([]byte, len(src))
	for i := 0; i < len(src); i += 2 {
		dst[i], dst[i+1] = src[i+1], src[i]
	}
	return &DecodeResult{Pixels: dst}, nil
}
