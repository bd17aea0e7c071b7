package dicom

// Transfer syntax UIDs recognised by the reader and by the pixel pipeline.
const (
	ImplicitVRLittleEndian         = "1.2.840.10008.1.2"
	ExplicitVRLittleEndian         = "1.2.840.10008.1.2.1"
	DeflatedExplicitVRLittleEndian = "1.2.840.10008.1.2.1.99"
	ExplicitVRBigEndian            = "1.2.840.10008.1.2.2"
	JPEGBaseline8Bit               = "1.2.840.10008.1.2.4.50"
	JPEGExtended12Bit              = "1.2.840.10008.1.2.4.51"
	JPEGLossless                   = "1.2.840.10008.1.2.4.57"
	JPEGLosslessSV1                = "1.2.840.10008.1.2.4.70"
	JPEGLSLossless                 = "1.2.840.10008.1.2.4.80"
	JPEGLSNearLossless             = "1.2.840.10008.1.2.4.81"
	JPEG2000Lossless               = "1.2.840.10008.1.2.4.90"
	JPEG2000                       = "1.2.840.10008.1.2.4.91"
	HTJ2KLossless                  = "1.2.840.10008.1.2.4.201"
	HTJ2KLosslessRPCL              = "1.2.840.10008.1.2.4.202"
	HTJ2K                          = "1.2.840.10008.1.2.4.203"
	RLELossless                    = "1.2.840.10008.1.2.5"
)

// transferSyntaxInfo describes how a transfer syntax lays out pixel data.
type transferSyntaxInfo struct {
	implicitVR   bool
	bigEndian    bool
	deflated     bool
	encapsulated bool
}

var transferSyntaxTable = map[string]transferSyntaxInfo{
	ImplicitVRLittleEndian:         {implicitVR: true},
	ExplicitVRLittleEndian:         {},
	DeflatedExplicitVRLittleEndian: {deflated: true},
	ExplicitVRBigEndian:            {bigEndian: true},
	JPEGBaseline8Bit:               {encapsulated: true},
	JPEGExtended12Bit:              {encapsulated: true},
	JPEGLossless:                   {encapsulated: true},
	JPEGLosslessSV1:                {encapsulated: true},
	JPEGLSLossless:                 {encapsulated: true},
	JPEGLSNearLossless:             {encapsulated: true},
	JPEG2000Lossless:               {encapsulated: true},
	JPEG2000:                       {encapsulated: true},
	HTJ2KLossless:                  {encapsulated: true},
	HTJ2KLosslessRPCL:              {encapsulated: true},
	HTJ2K:                          {encapsulated: true},
	RLELossless:                    {encapsulated: true},
}

// KnownTransferSyntax reports whether uid is in the table above.
func KnownTransferSyntax(uid string) bool {
	_, ok := transferSyntaxTable[uid]
	return ok
}

// IsEncapsulated reports whether pixel data under uid is stored as
// compressed fragments.
func IsEncapsulated(uid string) bool {
	return transferSyntaxTable[uid].encapsulated
}

// IsBigEndian reports whether uid encodes multi-byte values big endian.
func IsBigEndian(uid string) bool {
	return transferSyntaxTable[uid].bigEndian
}

// IsImplicitVR reports whether uid omits value representations.
func IsImplicitVR(uid string) bool {
	return transferSyntaxTable[uid].implicitVR
}

// IsDeflated reports whether the dataset after the file meta group is
// deflate-compressed.
func IsDeflated(uid string) bool {
	return transferSyntaxTable[uid].deflated
}
