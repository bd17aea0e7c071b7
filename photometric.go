package pixeldata

import "strings"

// Photometric is a Photometric Interpretation (0028,0004) defined term.
type Photometric uint8

const (
	// PhotometricUnknown is an absent or unrecognised term.
	PhotometricUnknown Photometric = iota

	// PhotometricMonochrome1 is grayscale where the minimum value is white.
	PhotometricMonochrome1

	// PhotometricMonochrome2 is grayscale where the minimum value is black.
	PhotometricMonochrome2

	// PhotometricPaletteColor is a single index sample into palette tables.
	PhotometricPaletteColor

	// PhotometricRGB is three samples: red, green, blue.
	PhotometricRGB

	// PhotometricYBRFull is full-range luminance and chrominance.
	PhotometricYBRFull

	// PhotometricYBRFull422 is YBR_FULL with horizontally halved chroma.
	PhotometricYBRFull422

	// PhotometricYBRPartial422 is partial-range YBR with halved chroma.
	PhotometricYBRPartial422

	// PhotometricYBRPartial420 is partial-range YBR with quartered chroma.
	PhotometricYBRPartial420

	// PhotometricYBRICT is the irreversible JPEG 2000 color transform.
	PhotometricYBRICT

	// PhotometricYBRRCT is the reversible JPEG 2000 color transform.
	PhotometricYBRRCT

	// PhotometricARGB is a retired four-sample term.
	PhotometricARGB

	// PhotometricCMYK is a retired four-sample term.
	PhotometricCMYK

	// PhotometricHSV is a retired three-sample term.
	PhotometricHSV

	// photometricCount is the number of terms (for internal use).
	photometricCount
)

// PhotometricInfo contains metadata about a photometric interpretation.
type PhotometricInfo struct {
	// Term is the defined term as written in the dataset.
	Term string

	// Samples is the Samples per Pixel the term requires.
	Samples int

	// IsColor is false for monochrome terms.
	IsColor bool

	// IsYBR marks the chroma-subsampled and transform encodings that
	// backing stores deliver as RGB.
	IsYBR bool

	// IsRetired marks terms removed from the standard.
	IsRetired bool
}

// photometricTable contains metadata for each term.
var photometricTable = [photometricCount]PhotometricInfo{
	PhotometricUnknown:       {Term: "", Samples: 0},
	PhotometricMonochrome1:   {Term: "MONOCHROME1", Samples: 1},
	PhotometricMonochrome2:   {Term: "MONOCHROME2", Samples: 1},
	PhotometricPaletteColor:  {Term: "PALETTE COLOR", Samples: 1, IsColor: true},
	PhotometricRGB:           {Term: "RGB", Samples: 3, IsColor: true},
	PhotometricYBRFull:       {Term: "YBR_FULL", Samples: 3, IsColor: true, IsYBR: true},
	PhotometricYBRFull422:    {Term: "YBR_FULL_422", Samples: 3, IsColor: true, IsYBR: true},
	PhotometricYBRPartial422: {Term: "YBR_PARTIAL_422", Samples: 3, IsColor: true, IsYBR: true, IsRetired: true},
	PhotometricYBRPartial420: {Term: "YBR_PARTIAL_420", Samples: 3, IsColor: true, IsYBR: true},
	PhotometricYBRICT:        {Term: "YBR_ICT", Samples: 3, IsColor: true, IsYBR: true},
	PhotometricYBRRCT:        {Term: "YBR_RCT", Samples: 3, IsColor: true, IsYBR: true},
	PhotometricARGB:          {Term: "ARGB", Samples: 4, IsColor: true, IsRetired: true},
	PhotometricCMYK:          {Term: "CMYK", Samples: 4, IsColor: true, IsRetired: true},
	PhotometricHSV:           {Term: "HSV", Samples: 3, IsColor: true, IsRetired: true},
}

// ParsePhotometric maps a defined term to a Photometric. Padding and case
// are ignored. Unrecognised terms yield PhotometricUnknown.
func ParsePhotometric(term string) Photometric {
	term = strings.ToUpper(strings.TrimRight(strings.TrimSpace(term), "\x00"))
	if term == "" {
		return PhotometricUnknown
	}
	for p := PhotometricUnknown + 1; p < photometricCount; p++ {
		if photometricTable[p].Term == term {
			return p
		}
	}
	return PhotometricUnknown
}

// Info returns the PhotometricInfo for p.
func (p Photometric) Info() PhotometricInfo {
	if p >= photometricCount {
		return PhotometricInfo{}
	}
	return photometricTable[p]
}

// Samples returns the Samples per Pixel the term requires.
func (p Photometric) Samples() int {
	return p.Info().Samples
}

// IsColor reports whether p is not monochrome.
func (p Photometric) IsColor() bool {
	return p.Info().IsColor
}

// IsYBR reports whether p belongs to the YBR family.
func (p Photometric) IsYBR() bool {
	return p.Info().IsYBR
}

// IsValid reports whether p is a known term.
func (p Photometric) IsValid() bool {
	return p > PhotometricUnknown && p < photometricCount
}

// Delivered returns the interpretation of pixels as a backing store hands
// them out. YBR family terms are delivered as RGB.
func (p Photometric) Delivered() Photometric {
	if p.IsYBR() {
		return PhotometricRGB
	}
	return p
}

// String returns the defined term, or "UNKNOWN".
func (p Photometric) String() string {
	if !p.IsValid() {
		return "UNKNOWN"
	}
	return photometricTable[p].Term
}
