package pixeldata

import (
	"log/slog"

	"github.com/gogpu/pixeldata/dicom"
)

// ConversionType describes how delivered pixels differ from stored pixels.
type ConversionType uint8

const (
	// ConversionNone means pixels are delivered exactly as stored.
	ConversionNone ConversionType = iota

	// ConversionByteSwap means multi-byte samples were swapped to little endian.
	ConversionByteSwap

	// ConversionDecompress means encapsulated fragments were decoded.
	ConversionDecompress
)

// String returns a short name for the conversion.
func (c ConversionType) String() string {
	switch c {
	case ConversionNone:
		return "none"
	case ConversionByteSwap:
		return "byteswap"
	case ConversionDecompress:
		return "decompress"
	default:
		return "unknown"
	}
}

// PlanarConfiguration is the sample layout of color pixels.
type PlanarConfiguration uint8

const (
	// PixelInterleaved stores samples of one pixel next to each other (RGBRGB).
	PixelInterleaved PlanarConfiguration = iota

	// PlaneInterleaved stores each color plane separately (RR..GG..BB..).
	PlaneInterleaved
)

// String returns "pixel" or "plane".
func (p PlanarConfiguration) String() string {
	if p == PlaneInterleaved {
		return "plane"
	}
	return "pixel"
}

// ConversionInfo is pixel geometry as read from metadata, adjusted for what
// the backing store does to the bytes while loading them.
type ConversionInfo struct {
	Rows                int
	Columns             int
	SamplesPerPixel     int
	BitsAllocated       int
	BitsStored          int
	HighBit             int
	PixelRepresentation int
	Photometric         Photometric

	// PlanarConfiguration is the raw (0028,0006) value; 0 when absent.
	PlanarConfiguration int

	TransferSyntax string
	Conversion     ConversionType
}

// Description is the normalized geometry of delivered pixels.
//
// A Description is computed once per PixelBuffer and must be treated as
// read-only.
type Description struct {
	Rows            int
	Columns         int
	SamplesPerPixel int
	BitsAllocated   int
	BitsStored      int
	HighBit         int
	Signed          bool
	Photometric     Photometric
	Planar          PlanarConfiguration
	Converted       bool
	Conversion      ConversionType
}

// FrameBytes returns rows × columns × ceil(bitsAllocated/8) × samples.
// It does not account for subsampled or bit-packed layouts.
func (d *Description) FrameBytes() int {
	return frameBytes(d.Rows, d.Columns, d.BitsAllocated, d.SamplesPerPixel)
}

// LogValue implements slog.LogValuer.
func (d *Description) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("rows", d.Rows),
		slog.Int("columns", d.Columns),
		slog.Int("samples", d.SamplesPerPixel),
		slog.Int("bits_allocated", d.BitsAllocated),
		slog.Int("bits_stored", d.BitsStored),
		slog.String("photometric", d.Photometric.String()),
		slog.String("planar", d.Planar.String()),
		slog.Bool("converted", d.Converted),
	)
}

func frameBytes(rows, columns, bitsAllocated, samples int) int {
	return rows * columns * ((bitsAllocated + 7) / 8) * samples
}

// ConversionInfoFromMetadata reads geometry from md. Mandatory attributes
// that are missing or malformed return the metadata error unchanged.
func ConversionInfoFromMetadata(md Metadata) (*ConversionInfo, error) {
	info := &ConversionInfo{}
	ints := []struct {
		tag dicom.Tag
		dst *int
	}{
		{dicom.TagRows, &info.Rows},
		{dicom.TagColumns, &info.Columns},
		{dicom.TagSamplesPerPixel, &info.SamplesPerPixel},
		{dicom.TagBitsAllocated, &info.BitsAllocated},
		{dicom.TagBitsStored, &info.BitsStored},
		{dicom.TagHighBit, &info.HighBit},
		{dicom.TagPixelRepresentation, &info.PixelRepresentation},
	}
	for _, f := range ints {
		v, err := md.Int(f.tag)
		if err != nil {
			return nil, err
		}
		*f.dst = v
	}

	term, err := md.String(dicom.TagPhotometricInterpretation)
	if err != nil {
		return nil, err
	}
	info.Photometric = ParsePhotometric(term)

	if md.Has(dicom.TagPlanarConfiguration) {
		if info.PlanarConfiguration, err = md.Int(dicom.TagPlanarConfiguration); err != nil {
			return nil, err
		}
	}
	if md.Has(dicom.TagTransferSyntaxUID) {
		if info.TransferSyntax, err = md.String(dicom.TagTransferSyntaxUID); err != nil {
			return nil, err
		}
	}
	return info, nil
}

// ApplyTransferSyntax records the translation a backing store performs for
// info.TransferSyntax. Encapsulated data is decoded to interleaved samples;
// big endian data wider than a byte is swapped.
func ApplyTransferSyntax(info *ConversionInfo) {
	switch {
	case dicom.IsEncapsulated(info.TransferSyntax):
		info.Conversion = ConversionDecompress
		info.PlanarConfiguration = 0
	case dicom.IsBigEndian(info.TransferSyntax) && info.BitsAllocated > 8:
		info.Conversion = ConversionByteSwap
	}
}

// NewDescription normalizes info into a Description. YBR family
// interpretations become RGB, planar configuration 1 means plane-interleaved
// and anything else pixel-interleaved.
func NewDescription(info ConversionInfo) *Description {
	planar := PixelInterleaved
	if info.PlanarConfiguration == 1 {
		planar = PlaneInterleaved
	}
	return &Description{
		Rows:            info.Rows,
		Columns:         info.Columns,
		SamplesPerPixel: info.SamplesPerPixel,
		BitsAllocated:   info.BitsAllocated,
		BitsStored:      info.BitsStored,
		HighBit:         info.HighBit,
		Signed:          info.PixelRepresentation == 1,
		Photometric:     info.Photometric.Delivered(),
		Planar:          planar,
		Converted:       info.Conversion != ConversionNone,
		Conversion:      info.Conversion,
	}
}
