// Package dicom provides the minimal DICOM object model used by pixeldata:
// attribute tags, value references into files, an in-memory dataset and a
// Part-10 header reader that locates pixel data without reading it.
//
// The package deliberately stops at what a pixel buffer needs. It does not
// decode pixel data and only knows the semantics of the attributes listed
// in this file.
package dicom

import "fmt"

// Tag identifies a DICOM attribute as group<<16 | element.
type Tag uint32

// NewTag builds a Tag from its group and element numbers.
func NewTag(group, element uint16) Tag {
	return Tag(uint32(group)<<16 | uint32(element))
}

// Group returns the group number.
func (t Tag) Group() uint16 { return uint16(t >> 16) }

// Element returns the element number.
func (t Tag) Element() uint16 { return uint16(t) }

// String formats the tag as "(gggg,eeee)".
func (t Tag) String() string {
	return fmt.Sprintf("(%04X,%04X)", t.Group(), t.Element())
}

// Attributes referenced by the pixel pipeline.
const (
	TagFileMetaGroupLength       Tag = 0x00020000
	TagTransferSyntaxUID         Tag = 0x00020010
	TagSpecificCharacterSet      Tag = 0x00080005
	TagSOPInstanceUID            Tag = 0x00080018
	TagSamplesPerPixel           Tag = 0x00280002
	TagPhotometricInterpretation Tag = 0x00280004
	TagPlanarConfiguration       Tag = 0x00280006
	TagNumberOfFrames            Tag = 0x00280008
	TagRows                      Tag = 0x00280010
	TagColumns                   Tag = 0x00280011
	TagBitsAllocated             Tag = 0x00280100
	TagBitsStored                Tag = 0x00280101
	TagHighBit                   Tag = 0x00280102
	TagPixelRepresentation       Tag = 0x00280103
	TagPixelData                 Tag = 0x7FE00010

	// Item and delimiter tags used by undefined-length values.
	TagItem                     Tag = 0xFFFEE000
	TagItemDelimitationItem     Tag = 0xFFFEE00D
	TagSequenceDelimitationItem Tag = 0xFFFEE0DD
)

// GeometryTags is the fixed set of attributes that must all be present for
// an image to be considered as carrying pixels.
var GeometryTags = [...]Tag{
	TagBitsAllocated,
	TagBitsStored,
	TagHighBit,
	TagPhotometricInterpretation,
	TagPixelRepresentation,
	TagRows,
	TagColumns,
	TagSamplesPerPixel,
}
