package analyzer

import (
	"errors"
	"image"

	"github.com/ivlev/docscan/internal/geom"
)

var ErrEmptyImage = errors.New("image has no pixels")

// Contour is a detected document boundary in detection-image coordinates
type Contour struct {
	Quad     geom.Quad
	Area     float64 // Enclosed area of the accepted contour in px²
	Fallback bool    // No quadrilateral qualified, the whole frame is the document
}

// Detector is the interface for document boundary strategies
type Detector interface {
	Detect(img image.Image) (Contour, error)
}

// FullFrame is the graceful-degradation contour: the entire w x h image is
// treated as the document.
func FullFrame(w, h int) Contour {
	return Contour{
		Quad:     geom.Rect(float64(w), float64(h)),
		Area:     float64(w) * float64(h),
		Fallback: true,
	}
}
