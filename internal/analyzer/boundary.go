package analyzer

import (
	"image"
	"sort"

	"github.com/ivlev/docscan/internal/geom"
	"github.com/ivlev/docscan/internal/raster"
)

// BoundaryDetector finds the largest four-cornered contour of an
// Otsu-binarized image
type BoundaryDetector struct {
	MinArea float64 // Contours at or below this area (px²) are ignored
	Epsilon float64 // Approximation tolerance, fraction of the contour perimeter
}

// NewBoundaryDetector creates a new boundary detector with default settings
func NewBoundaryDetector() *BoundaryDetector {
	s := DefaultSettings()
	return &BoundaryDetector{
		MinArea: s.MinArea,
		Epsilon: s.Epsilon,
	}
}

// Detect always yields four points. When no contour qualifies the full frame
// is returned with Fallback set; that is not an error.
func (d *BoundaryDetector) Detect(img image.Image) (Contour, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return Contour{}, ErrEmptyImage
	}

	// Step 1: Grayscale and 5x5 Gaussian smoothing
	gray := raster.Gray(img)
	blurred := gaussianBlur5(gray)

	// Step 2: Global threshold picked by Otsu's method
	binary := raster.Threshold(blurred, otsuThreshold(blurred))

	// Step 3: Every border, outer and hole alike
	contours := findContours(binary)

	// Step 4: Largest first
	areas := make([]float64, len(contours))
	order := make([]int, len(contours))
	for i, c := range contours {
		areas[i] = contourArea(c)
		order[i] = i
	}
	sort.SliceStable(order, func(a, b int) bool {
		return areas[order[a]] > areas[order[b]]
	})

	// Step 5: First candidate that simplifies to a quadrilateral wins
	for _, i := range order {
		if areas[i] <= d.MinArea {
			break
		}

		c := contours[i]
		approx := approxPolyDP(c, d.Epsilon*arcLength(c))
		if len(approx) == 4 {
			return Contour{
				Quad: geom.Quad{approx[0], approx[1], approx[2], approx[3]},
				Area: areas[i],
			}, nil
		}
	}

	// Step 6: Nothing qualified, use the whole frame
	return FullFrame(bounds.Dx(), bounds.Dy()), nil
}
