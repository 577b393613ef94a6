package analyzer

import (
	"math"

	"github.com/ivlev/docscan/internal/geom"
)

// contourArea is the shoelace area enclosed by the closed contour
func contourArea(c contour) float64 {
	n := len(c)
	if n < 3 {
		return 0
	}

	var s float64
	for k := 0; k < n; k++ {
		a, b := c[k], c[(k+1)%n]
		s += float64(a.X*b.Y - b.X*a.Y)
	}
	return math.Abs(s) / 2
}

// arcLength is the perimeter of the closed contour
func arcLength(c contour) float64 {
	n := len(c)
	if n < 2 {
		return 0
	}

	var l float64
	for k := 0; k < n; k++ {
		a, b := c[k], c[(k+1)%n]
		l += math.Hypot(float64(b.X-a.X), float64(b.Y-a.Y))
	}
	return l
}

// approxPolyDP simplifies a closed contour with the Douglas-Peucker algorithm.
// The ring is split at two mutually distant points so both split points are
// extreme vertices, then each half is simplified with tolerance eps.
func approxPolyDP(c contour, eps float64) []geom.Point {
	n := len(c)
	pts := make([]geom.Point, n)
	for k, p := range c {
		pts[k] = geom.Pt(float64(p.X), float64(p.Y))
	}
	if n <= 2 {
		return pts
	}

	a := farthest(pts, farthest(pts, 0))
	b := farthest(pts, a)
	if a == b {
		return pts[a : a+1]
	}

	keep := make([]bool, n)
	keep[a], keep[b] = true, true
	douglasPeucker(pts, a, b, eps, keep)
	douglasPeucker(pts, b, a, eps, keep)

	poly := make([]geom.Point, 0, 8)
	for k := 0; k < n; k++ {
		if idx := (a + k) % n; keep[idx] {
			poly = append(poly, pts[idx])
		}
	}

	return dropCollinear(poly, eps)
}

func farthest(pts []geom.Point, from int) int {
	best, bestD := from, -1.0
	for k, p := range pts {
		if d := p.Dist(pts[from]); d > bestD {
			best, bestD = k, d
		}
	}
	return best
}

// douglasPeucker marks the points to keep on the ring span from -> to (walking forward, wrapping)
func douglasPeucker(pts []geom.Point, from, to int, eps float64, keep []bool) {
	n := len(pts)

	type span struct{ from, to int }
	stack := []span{{from, to}}

	for len(stack) > 0 {
		s := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		length := (s.to - s.from + n) % n
		if length < 2 {
			continue
		}

		maxD, maxK := -1.0, -1
		for k := 1; k < length; k++ {
			idx := (s.from + k) % n
			if d := lineDistance(pts[idx], pts[s.from], pts[s.to]); d > maxD {
				maxD, maxK = d, idx
			}
		}

		if maxD > eps {
			keep[maxK] = true
			stack = append(stack, span{s.from, maxK}, span{maxK, s.to})
		}
	}
}

// dropCollinear removes vertices that sit within eps of the line through
// their neighbours, never going below a triangle.
func dropCollinear(poly []geom.Point, eps float64) []geom.Point {
	out := poly
	for changed := true; changed && len(out) > 3; {
		changed = false
		for k := 0; k < len(out) && len(out) > 3; k++ {
			prev := out[(k-1+len(out))%len(out)]
			next := out[(k+1)%len(out)]
			if lineDistance(out[k], prev, next) <= eps {
				out = append(out[:k:k], out[k+1:]...)
				changed = true
				break
			}
		}
	}
	return out
}

// lineDistance is the distance from p to the infinite line through a and b
func lineDistance(p, a, b geom.Point) float64 {
	dx, dy := b.X-a.X, b.Y-a.Y
	l := math.Hypot(dx, dy)
	if l == 0 {
		return p.Dist(a)
	}
	return math.Abs(dy*(p.X-a.X)-dx*(p.Y-a.Y)) / l
}
