//go:build gocv

package analyzer

import (
	"fmt"
	"image"
	"sort"

	"github.com/ivlev/docscan/internal/geom"

	"gocv.io/x/gocv"
)

// OpenCVDetector runs the boundary search through OpenCV
type OpenCVDetector struct {
	MinArea float64
	Epsilon float64
}

func newOpenCVDetector(s Settings) (Detector, error) {
	return &OpenCVDetector{MinArea: s.MinArea, Epsilon: s.Epsilon}, nil
}

func (d *OpenCVDetector) Detect(img image.Image) (Contour, error) {
	bounds := img.Bounds()
	if bounds.Empty() {
		return Contour{}, ErrEmptyImage
	}

	src, err := gocv.ImageToMatRGB(img)
	if err != nil {
		return Contour{}, fmt.Errorf("convert image: %w", err)
	}
	defer src.Close()

	gray := gocv.NewMat()
	defer gray.Close()
	gocv.CvtColor(src, &gray, gocv.ColorBGRToGray)

	blur := gocv.NewMat()
	defer blur.Close()
	gocv.GaussianBlur(gray, &blur, image.Pt(5, 5), 0, 0, gocv.BorderDefault)

	thresh := gocv.NewMat()
	defer thresh.Close()
	gocv.Threshold(blur, &thresh, 0, 255, gocv.ThresholdBinary+gocv.ThresholdOtsu)

	contours := gocv.FindContours(thresh, gocv.RetrievalList, gocv.ChainApproxSimple)
	defer contours.Close()

	type candidate struct {
		points gocv.PointVector
		area   float64
	}

	candidates := make([]candidate, 0, contours.Size())
	for i := 0; i < contours.Size(); i++ {
		pv := contours.At(i)
		candidates = append(candidates, candidate{points: pv, area: gocv.ContourArea(pv)})
	}
	sort.SliceStable(candidates, func(a, b int) bool {
		return candidates[a].area > candidates[b].area
	})

	for _, c := range candidates {
		if c.area <= d.MinArea {
			break
		}

		approx := gocv.ApproxPolyDP(c.points, d.Epsilon*gocv.ArcLength(c.points, true), true)
		pts := approx.ToPoints()
		approx.Close()

		if len(pts) == 4 {
			var q geom.Quad
			for k, p := range pts {
				q[k] = geom.Pt(float64(p.X), float64(p.Y))
			}
			return Contour{Quad: q, Area: c.area}, nil
		}
	}

	return FullFrame(bounds.Dx(), bounds.Dy()), nil
}
