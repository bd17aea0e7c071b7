package main

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"os"

	"golang.org/x/image/tiff"

	"github.com/gogpu/pixeldata"
)

var errUnsupportedLayout = errors.New("unsupported pixel layout for export")

// exportTIFF writes the first frame of pixels as a deflate-compressed TIFF.
func exportTIFF(path string, pixels []byte, d *pixeldata.Description) error {
	img, err := toImage(pixels, d)
	if err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := tiff.Encode(f, img, &tiff.Options{Compression: tiff.Deflate}); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}

// toImage converts the first frame to an image. Supported layouts are
// 8-bit and 16-bit grayscale and 8-bit RGB.
func toImage(pixels []byte, d *pixeldata.Description) (image.Image, error) {
	if len(pixels) < d.FrameBytes() {
		return nil, fmt.Errorf("frame needs %d bytes, have %d", d.FrameBytes(), len(pixels))
	}
	rect := image.Rect(0, 0, d.Columns, d.Rows)
	n := d.Rows * d.Columns

	switch {
	case d.SamplesPerPixel == 1 && d.BitsAllocated == 8:
		img := image.NewGray(rect)
		copy(img.Pix, pixels[:n])
		if d.Photometric == pixeldata.PhotometricMonochrome1 {
			for i, v := range img.Pix {
				img.Pix[i] = ^v
			}
		}
		return img, nil

	case d.SamplesPerPixel == 1 && d.BitsAllocated == 16:
		img := image.NewGray16(rect)
		for i := 0; i < n; i++ {
			v := uint16(pixels[2*i]) | uint16(pixels[2*i+1])<<8
			if d.Signed {
				v ^= 0x8000
			}
			if d.Photometric == pixeldata.PhotometricMonochrome1 {
				v = ^v
			}
			img.SetGray16(i%d.Columns, i/d.Columns, color.Gray16{Y: v})
		}
		return img, nil

	case d.SamplesPerPixel == 3 && d.BitsAllocated == 8 && d.Photometric == pixeldata.PhotometricRGB:
		img := image.NewRGBA(rect)
		for i := 0; i < n; i++ {
			var r, g, b byte
			if d.Planar == pixeldata.PlaneInterleaved {
				r, g, b = pixels[i], pixels[n+i], pixels[2*n+i]
			} else {
				r, g, b = pixels[3*i], pixels[3*i+1], pixels[3*i+2]
			}
			img.Pix[4*i], img.Pix[4*i+1], img.Pix[4*i+2], img.Pix[4*i+3] = r, g, b, 0xFF
		}
		return img, nil
	}
	return nil, fmt.Errorf("%w: %d sample(s), %d bits, %s",
		errUnsupportedLayout, d.SamplesPerPixel, d.BitsAllocated, d.Photometric)
}
