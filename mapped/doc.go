// Package mapped opens DICOM pixel data in place by memory-mapping the byte
// range a dicom.Reference points at.
//
// A Store implements pixeldata.Opener. Each Open returns a Region, which
// implements pixeldata.Handle and maps the page-aligned window around the
// referenced bytes. Header-only regions validate the range without mapping
// it until TriggerAsyncLoad is called.
//
// Encapsulated data can be decoded on load by registering a Codec for its
// transfer syntax. Without a codec, pixels are delivered exactly as stored.
//
// Diagnostics are written to pixeldata.Logger.
package mapped
