// Package format turns a rectified document image into the caller's output:
// a binarized, cropped JPEG scan or recognized text.
package format

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/jpeg"

	"github.com/ivlev/docscan/internal/raster"
)

var (
	ErrMarginTooLarge = errors.New("crop margin leaves no pixels")
	ErrEncode         = errors.New("encoding failed")
)

// Scan is an encoded scan output
type Scan struct {
	Data   []byte // JPEG bytes
	Width  int
	Height int
}

// ScanFormatter produces the scan output: grayscale, fixed threshold, crop
// and JPEG encode
type ScanFormatter struct {
	Threshold uint8 // Pixels strictly above become white
	Margin    int   // Pixels cropped from every edge
	Quality   int   // JPEG quality, 1..100
}

// NewScanFormatter creates a scan formatter with default settings
func NewScanFormatter() *ScanFormatter {
	return &ScanFormatter{
		Threshold: 128,
		Margin:    10,
		Quality:   95,
	}
}

// Binarize runs the pixel steps of the scan path and returns the cropped
// two-level image
func (f *ScanFormatter) Binarize(img image.Image) (*image.Gray, error) {
	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	if f.Margin < 0 || 2*f.Margin >= w || 2*f.Margin >= h {
		return nil, fmt.Errorf("%w: margin %d on %dx%d", ErrMarginTooLarge, f.Margin, w, h)
	}

	bw := raster.Threshold(raster.Gray(img), f.Threshold)

	crop := image.Rect(f.Margin, f.Margin, w-f.Margin, h-f.Margin)
	out := image.NewGray(image.Rect(0, 0, crop.Dx(), crop.Dy()))
	for y := 0; y < crop.Dy(); y++ {
		s := bw.PixOffset(crop.Min.X, crop.Min.Y+y)
		copy(out.Pix[y*out.Stride:y*out.Stride+crop.Dx()], bw.Pix[s:s+crop.Dx()])
	}

	return out, nil
}

// Format produces the encoded scan
func (f *ScanFormatter) Format(img image.Image) (*Scan, error) {
	bw, err := f.Binarize(img)
	if err != nil {
		return nil, err
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, bw, &jpeg.Options{Quality: f.Quality}); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrEncode, err)
	}
	if buf.Len() == 0 {
		return nil, fmt.Errorf("%w: empty output", ErrEncode)
	}

	return &Scan{
		Data:   buf.Bytes(),
		Width:  bw.Rect.Dx(),
		Height: bw.Rect.Dy(),
	}, nil
}
