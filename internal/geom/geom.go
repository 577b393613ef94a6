package geom

import (
	"errors"
	"fmt"
	"math"
)

var (
	ErrInvalidScale   = errors.New("invalid detection scale factor")
	ErrDegenerateQuad = errors.New("degenerate document contour")
)

// Point is a 2-D coordinate with sub-pixel precision
type Point struct {
	X, Y float64
}

func Pt(x, y float64) Point {
	return Point{X: x, Y: y}
}

func (p Point) Sub(q Point) Point {
	return Point{X: p.X - q.X, Y: p.Y - q.Y}
}

// Dist returns the euclidean distance between p and q
func (p Point) Dist(q Point) float64 {
	return math.Hypot(p.X-q.X, p.Y-q.Y)
}

func (p Point) String() string {
	return fmt.Sprintf("(%.2f,%.2f)", p.X, p.Y)
}

// Quad is a document contour: always exactly four points.
// Unless it came out of OrderCorners the point order is arbitrary.
type Quad [4]Point

// Rect returns the quad covering a w x h frame, clockwise from the origin.
func Rect(w, h float64) Quad {
	return Quad{{0, 0}, {w, 0}, {w, h}, {0, h}}
}

func (q Quad) String() string {
	return fmt.Sprintf("[%v %v %v %v]", q[0], q[1], q[2], q[3])
}

// Area is the absolute shoelace area of the quad taken in its current order
func (q Quad) Area() float64 {
	var s float64
	for i := 0; i < 4; i++ {
		a, b := q[i], q[(i+1)%4]
		s += a.X*b.Y - b.X*a.Y
	}
	return math.Abs(s) / 2
}

// Rescale maps a detection-space quad into full-resolution space by dividing
// every coordinate by the detection scale factor.
func Rescale(q Quad, factor float64) (Quad, error) {
	if math.IsNaN(factor) || factor <= 0 || factor > 1 {
		return Quad{}, fmt.Errorf("%w: %v", ErrInvalidScale, factor)
	}

	var out Quad
	for i, p := range q {
		out[i] = Point{X: p.X / factor, Y: p.Y / factor}
	}
	return out, nil
}

// OrderCorners returns the points as top-left, top-right, bottom-right,
// bottom-left. TL has the smallest x+y, BR the largest x+y, TR the smallest
// y-x and BL the largest y-x. Ties go to the lexicographically smaller point
// so the result does not depend on the input order.
func OrderCorners(q Quad) Quad {
	sum := func(p Point) float64 { return p.X + p.Y }
	diff := func(p Point) float64 { return p.Y - p.X }

	tl := pick(q, sum, false)
	br := pick(q, sum, true)
	tr := pick(q, diff, false)
	bl := pick(q, diff, true)

	return Quad{tl, tr, br, bl}
}

func pick(q Quad, key func(Point) float64, largest bool) Point {
	best := q[0]
	for _, p := range q[1:] {
		kp, kb := key(p), key(best)
		better := kp < kb
		if largest {
			better = kp > kb
		}
		if better || (kp == kb && less(p, best)) {
			best = p
		}
	}
	return best
}

func less(a, b Point) bool {
	if a.X != b.X {
		return a.X < b.X
	}
	return a.Y < b.Y
}

// Size returns the target rectangle for an ordered quad: the longer of the two
// horizontal edges and the longer of the two vertical edges.
func (q Quad) Size() (width, height float64) {
	tl, tr, br, bl := q[0], q[1], q[2], q[3]

	width = math.Max(tl.Dist(tr), bl.Dist(br))
	height = math.Max(tl.Dist(bl), tr.Dist(br))
	return width, height
}
