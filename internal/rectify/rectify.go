package rectify

import (
	"fmt"
	"image"

	"github.com/ivlev/docscan/internal/geom"
	"github.com/ivlev/docscan/internal/raster"
)

// Rectifier unwarps a document quadrilateral into an upright rectangle
type Rectifier struct {
	MinQuadArea float64 // Quads below this area (px², full resolution) are degenerate
}

// New creates a rectifier with default settings
func New() *Rectifier {
	return &Rectifier{
		MinQuadArea: 1.0,
	}
}

// Plan is the geometry of a rectification: ordered corners, output size and
// the transform from output pixels back into the source image.
type Plan struct {
	Corners geom.Quad
	Width   int
	Height  int
	Forward geom.Matrix // source -> output
	Inverse geom.Matrix // output -> source
}

// Prepare orders the corners, sizes the output and solves the transform.
func (r *Rectifier) Prepare(q geom.Quad) (*Plan, error) {
	ordered := geom.OrderCorners(q)

	if area := ordered.Area(); area < r.MinQuadArea {
		return nil, fmt.Errorf("%w: area %.2f", geom.ErrDegenerateQuad, area)
	}

	w, h := ordered.Size()
	width, height := int(w), int(h)
	if width < 2 || height < 2 {
		return nil, fmt.Errorf("%w: %dx%d target", geom.ErrDegenerateQuad, width, height)
	}

	target := geom.Quad{
		{X: 0, Y: 0},
		{X: float64(width - 1), Y: 0},
		{X: float64(width - 1), Y: float64(height - 1)},
		{X: 0, Y: float64(height - 1)},
	}

	forward, err := geom.PerspectiveTransform(ordered, target)
	if err != nil {
		return nil, err
	}

	inverse, err := forward.Inverse()
	if err != nil {
		return nil, err
	}

	return &Plan{
		Corners: ordered,
		Width:   width,
		Height:  height,
		Forward: forward,
		Inverse: inverse,
	}, nil
}

// Rectify resamples the quad region of img into a new width x height image
// using bilinear interpolation. img is not modified.
func (r *Rectifier) Rectify(img image.Image, q geom.Quad) (*image.RGBA, error) {
	plan, err := r.Prepare(q)
	if err != nil {
		return nil, err
	}
	return Warp(img, plan), nil
}

// Warp fills a new image by mapping every output pixel through plan.Inverse
func Warp(img image.Image, plan *Plan) *image.RGBA {
	src, ok := img.(*image.RGBA)
	if !ok {
		src = raster.ToRGBA(img)
	}

	out := image.NewRGBA(image.Rect(0, 0, plan.Width, plan.Height))
	m := plan.Inverse

	for y := 0; y < plan.Height; y++ {
		row := y * out.Stride
		for x := 0; x < plan.Width; x++ {
			p, ok := m.Apply(geom.Pt(float64(x), float64(y)))
			if !ok {
				continue
			}
			c := raster.Bilinear(src, p.X, p.Y)
			i := row + 4*x
			out.Pix[i+0] = c.R
			out.Pix[i+1] = c.G
			out.Pix[i+2] = c.B
			out.Pix[i+3] = c.A
		}
	}

	return out
}
