package pixeldata

import "github.com/gogpu/pixeldata/dicom"

// hasGeometry reports whether md carries every attribute in
// dicom.GeometryTags. A nil md has no geometry.
func hasGeometry(md Metadata) bool {
	if md == nil {
		return false
	}
	for _, tag := range dicom.GeometryTags {
		if !md.Has(tag) {
			return false
		}
	}
	return true
}

// estimateSize computes the uncompressed frame size from metadata.
func estimateSize(md Metadata) (int, error) {
	var v [4]int
	tags := [4]dicom.Tag{dicom.TagRows, dicom.TagColumns, dicom.TagBitsAllocated, dicom.TagSamplesPerPixel}
	for i, tag := range tags {
		n, err := md.Int(tag)
		if err != nil {
			return 0, err
		}
		v[i] = n
	}
	return frameBytes(v[0], v[1], v[2], v[3]), nil
}
