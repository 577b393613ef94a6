package geom

import (
	"fmt"
	"math"
)

// Matrix is a row-major 3x3 projective transform
type Matrix [9]float64

// Tolerances are relative to the largest coefficient involved.
const (
	pivotEpsilon = 1e-12
	detEpsilon   = 1e-15
)

// PerspectiveTransform solves for the homography that maps each src[i] onto
// dst[i]. Collinear or coincident points leave the system singular and
// produce ErrDegenerateQuad.
func PerspectiveTransform(src, dst Quad) (Matrix, error) {
	var a [8][9]float64

	for i := 0; i < 4; i++ {
		x, y := src[i].X, src[i].Y
		u, v := dst[i].X, dst[i].Y

		a[2*i] = [9]float64{x, y, 1, 0, 0, 0, -x * u, -y * u, u}
		a[2*i+1] = [9]float64{0, 0, 0, x, y, 1, -x * v, -y * v, v}
	}

	h, err := solve(a)
	if err != nil {
		return Matrix{}, err
	}

	return Matrix{h[0], h[1], h[2], h[3], h[4], h[5], h[6], h[7], 1}, nil
}

// solve runs Gaussian elimination with partial pivoting on the augmented 8x9 system
func solve(a [8][9]float64) ([8]float64, error) {
	var scale float64
	for r := range a {
		for c := 0; c < 8; c++ {
			scale = math.Max(scale, math.Abs(a[r][c]))
		}
	}
	if scale == 0 {
		return [8]float64{}, ErrDegenerateQuad
	}

	for col := 0; col < 8; col++ {
		pivot := col
		for r := col + 1; r < 8; r++ {
			if math.Abs(a[r][col]) > math.Abs(a[pivot][col]) {
				pivot = r
			}
		}
		if math.Abs(a[pivot][col]) <= pivotEpsilon*scale {
			return [8]float64{}, fmt.Errorf("%w: singular transform", ErrDegenerateQuad)
		}
		a[col], a[pivot] = a[pivot], a[col]

		for r := col + 1; r < 8; r++ {
			f := a[r][col] / a[col][col]
			for c := col; c < 9; c++ {
				a[r][c] -= f * a[col][c]
			}
		}
	}

	var x [8]float64
	for r := 7; r >= 0; r-- {
		s := a[r][8]
		for c := r + 1; c < 8; c++ {
			s -= a[r][c] * x[c]
		}
		x[r] = s / a[r][r]
	}
	return x, nil
}

func (m Matrix) Det() float64 {
	return m[0]*(m[4]*m[8]-m[5]*m[7]) -
		m[1]*(m[3]*m[8]-m[5]*m[6]) +
		m[2]*(m[3]*m[7]-m[4]*m[6])
}

// Inverse returns the inverse transform. A near-zero determinant is reported
// as ErrDegenerateQuad.
func (m Matrix) Inverse() (Matrix, error) {
	det := m.Det()

	var norm float64
	for _, v := range m {
		norm = math.Max(norm, math.Abs(v))
	}
	if norm == 0 || math.IsNaN(det) || math.Abs(det) <= detEpsilon*norm*norm*norm {
		return Matrix{}, fmt.Errorf("%w: determinant %g", ErrDegenerateQuad, det)
	}

	inv := Matrix{
		m[4]*m[8] - m[5]*m[7], m[2]*m[7] - m[1]*m[8], m[1]*m[5] - m[2]*m[4],
		m[5]*m[6] - m[3]*m[8], m[0]*m[8] - m[2]*m[6], m[2]*m[3] - m[0]*m[5],
		m[3]*m[7] - m[4]*m[6], m[1]*m[6] - m[0]*m[7], m[0]*m[4] - m[1]*m[3],
	}
	for i := range inv {
		inv[i] /= det
	}
	return inv, nil
}

// Apply maps p through the transform. ok is false when p lands on the line at infinity.
func (m Matrix) Apply(p Point) (Point, bool) {
	w := m[6]*p.X + m[7]*p.Y + m[8]
	if w == 0 {
		return Point{}, false
	}
	return Point{
		X: (m[0]*p.X + m[1]*p.Y + m[2]) / w,
		Y: (m[3]*p.X + m[4]*p.Y + m[5]) / w,
	}, true
}
