package analyzer

import "image"

// contour is a closed border as an ordered list of pixel positions
type contour []image.Point

// Neighbor offsets (row, col) in counterclockwise order starting east.
// With y growing downwards, east -> north-east -> north is counterclockwise.
var neighbors = [8][2]int{
	{0, 1}, {-1, 1}, {-1, 0}, {-1, -1},
	{0, -1}, {1, -1}, {1, 0}, {1, 1},
}

const (
	dirEast = 0
	dirWest = 4
)

// findContours extracts every border of the non-zero regions of a binary
// image with Suzuki-Abe border following: outer borders and hole borders
// alike, without hierarchy. Straight runs are compressed to their end points.
func findContours(binary *image.Gray) []contour {
	w, h := binary.Rect.Dx(), binary.Rect.Dy()

	// Labels with a one pixel zero frame so the tracer never leaves the grid
	pw, ph := w+2, h+2
	f := make([]int32, pw*ph)
	for y := 0; y < h; y++ {
		row := binary.Pix[y*binary.Stride : y*binary.Stride+w]
		for x, v := range row {
			if v != 0 {
				f[(y+1)*pw+x+1] = 1
			}
		}
	}

	var contours []contour
	nbd := int32(1)

	for i := 1; i < ph-1; i++ {
		for j := 1; j < pw-1; j++ {
			v := f[i*pw+j]
			if v == 0 {
				continue
			}

			var from int
			switch {
			case v == 1 && f[i*pw+j-1] == 0:
				// outer border
				from = dirWest
			case v >= 1 && f[i*pw+j+1] == 0:
				// hole border
				from = dirEast
			default:
				continue
			}

			nbd++
			border := traceBorder(f, pw, i, j, from, nbd)
			contours = append(contours, compressChain(border))
		}
	}

	return contours
}

// traceBorder follows one border starting at (i, j). from is the direction of
// the zero pixel that revealed the border.
func traceBorder(f []int32, pw, i, j, from int, nbd int32) contour {
	at := func(r, c int) int32 { return f[r*pw+c] }

	start := image.Point{X: j - 1, Y: i - 1}

	// Clockwise search for the first non-zero neighbor
	first := -1
	for k := 0; k < 8; k++ {
		d := (from - k + 8) % 8
		if at(i+neighbors[d][0], j+neighbors[d][1]) != 0 {
			first = d
			break
		}
	}
	if first < 0 {
		// isolated pixel
		f[i*pw+j] = -nbd
		return contour{start}
	}

	i1, j1 := i+neighbors[first][0], j+neighbors[first][1]
	i3, j3 := i, j
	back := first // direction from the current pixel to the previous one

	points := contour{start}

	for {
		// Counterclockwise search starting just after the previous pixel
		eastZero := false
		next := back
		for k := 1; k <= 8; k++ {
			d := (back + k) % 8
			if at(i3+neighbors[d][0], j3+neighbors[d][1]) != 0 {
				next = d
				break
			}
			if d == dirEast {
				eastZero = true
			}
		}

		idx := i3*pw + j3
		if eastZero {
			f[idx] = -nbd
		} else if f[idx] == 1 {
			f[idx] = nbd
		}

		i4, j4 := i3+neighbors[next][0], j3+neighbors[next][1]
		if i4 == i && j4 == j && i3 == i1 && j3 == j1 {
			break
		}

		back = (next + 4) % 8
		i3, j3 = i4, j4
		points = append(points, image.Point{X: j3 - 1, Y: i3 - 1})
	}

	return points
}

// compressChain drops every point that continues the step direction of its
// predecessor, keeping only the turning points.
func compressChain(c contour) contour {
	n := len(c)
	if n < 3 {
		return c
	}

	out := make(contour, 0, n)
	for k := 0; k < n; k++ {
		prev, cur, next := c[(k-1+n)%n], c[k], c[(k+1)%n]
		if cur.Sub(prev) != next.Sub(cur) {
			out = append(out, cur)
		}
	}

	if len(out) == 0 {
		return c[:1]
	}
	return out
}
