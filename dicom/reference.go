package dicom

import "fmt"

// Reference locates a value inside a file without holding its bytes.
//
// TransferSyntax records how the referenced bytes are encoded so that a
// backing store can pick a codec for encapsulated data. It may be empty.
type Reference struct {
	Path           string
	Offset         int64
	Length         int64
	TransferSyntax string
}

// Valid reports whether the reference names a non-empty byte range.
func (r Reference) Valid() bool {
	return r.Path != "" && r.Offset >= 0 && r.Length > 0
}

// End returns the offset one past the last referenced byte.
func (r Reference) End() int64 {
	return r.Offset + r.Length
}

// String returns "path[offset:+length]".
func (r Reference) String() string {
	return fmt.Sprintf("%s[%d:+%d]", r.Path, r.Offset, r.Length)
}
