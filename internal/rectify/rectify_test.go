package rectify

import (
	"image"
	"image/color"
	"image/draw"
	"testing"

	"github.com/ivlev/docscan/internal/geom"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadrants paints a 400x300 image whose four quadrants have distinct colors
func quadrants() *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, 400, 300))
	fill := func(r image.Rectangle, c color.RGBA) {
		draw.Draw(img, r, &image.Uniform{C: c}, image.Point{}, draw.Src)
	}
	fill(image.Rect(0, 0, 200, 150), color.RGBA{255, 0, 0, 255})
	fill(image.Rect(200, 0, 400, 150), color.RGBA{0, 255, 0, 255})
	fill(image.Rect(200, 150, 400, 300), color.RGBA{0, 0, 255, 255})
	fill(image.Rect(0, 150, 200, 300), color.RGBA{255, 255, 0, 255})
	return img
}

func permutations(q geom.Quad) []geom.Quad {
	var out []geom.Quad
	var permute func(p []geom.Point, k int)
	permute = func(p []geom.Point, k int) {
		if k == len(p) {
			out = append(out, geom.Quad{p[0], p[1], p[2], p[3]})
			return
		}
		for i := k; i < len(p); i++ {
			p[k], p[i] = p[i], p[k]
			permute(p, k+1)
			p[k], p[i] = p[i], p[k]
		}
	}
	permute([]geom.Point{q[0], q[1], q[2], q[3]}, 0)
	return out
}

func TestRectifyOrientation(t *testing.T) {
	img := quadrants()
	q := geom.Quad{{X: 20, Y: 15}, {X: 380, Y: 30}, {X: 370, Y: 285}, {X: 35, Y: 270}}

	out, err := New().Rectify(img, q)
	require.NoError(t, err)

	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	assert.Equal(t, color.RGBA{255, 0, 0, 255}, out.RGBAAt(w/4, h/4), "top-left")
	assert.Equal(t, color.RGBA{0, 255, 0, 255}, out.RGBAAt(3*w/4, h/4), "top-right")
	assert.Equal(t, color.RGBA{0, 0, 255, 255}, out.RGBAAt(3*w/4, 3*h/4), "bottom-right")
	assert.Equal(t, color.RGBA{255, 255, 0, 255}, out.RGBAAt(w/4, 3*h/4), "bottom-left")
}

func TestRectifyAllPermutationsIdentical(t *testing.T) {
	img := quadrants()
	q := geom.Quad{{X: 20, Y: 15}, {X: 380, Y: 30}, {X: 370, Y: 285}, {X: 35, Y: 270}}

	r := New()
	want, err := r.Rectify(img, q)
	require.NoError(t, err)

	perms := permutations(q)
	require.Len(t, perms, 24)

	for _, p := range perms {
		got, err := r.Rectify(img, p)
		require.NoError(t, err)
		require.Equal(t, want.Bounds(), got.Bounds())
		assert.Equal(t, want.Pix, got.Pix, "permutation %v", p)
	}
}

func TestRectifyPreservesAspectRatio(t *testing.T) {
	tests := []struct {
		name string
		quad geom.Quad
	}{
		{"upright", geom.Quad{{X: 10, Y: 10}, {X: 310, Y: 10}, {X: 310, Y: 210}, {X: 10, Y: 210}}},
		{"keystone", geom.Quad{{X: 60, Y: 20}, {X: 340, Y: 20}, {X: 390, Y: 280}, {X: 10, Y: 280}}},
		{"rotated", geom.Quad{{X: 60, Y: 20}, {X: 380, Y: 80}, {X: 330, Y: 290}, {X: 10, Y: 230}}},
	}

	img := quadrants()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w, h := geom.OrderCorners(tt.quad).Size()

			out, err := New().Rectify(img, tt.quad)
			require.NoError(t, err)

			assert.Equal(t, int(w), out.Bounds().Dx())
			assert.Equal(t, int(h), out.Bounds().Dy())
			assert.InDelta(t, w/h, float64(out.Bounds().Dx())/float64(out.Bounds().Dy()), 0.01)
		})
	}
}

func TestRectifyMapsCornersOntoFrame(t *testing.T) {
	q := geom.Quad{{X: 20, Y: 15}, {X: 380, Y: 30}, {X: 370, Y: 285}, {X: 35, Y: 270}}

	plan, err := New().Prepare(q)
	require.NoError(t, err)

	want := geom.Quad{
		{X: 0, Y: 0},
		{X: float64(plan.Width - 1), Y: 0},
		{X: float64(plan.Width - 1), Y: float64(plan.Height - 1)},
		{X: 0, Y: float64(plan.Height - 1)},
	}
	for i, c := range plan.Corners {
		p, ok := plan.Forward.Apply(c)
		require.True(t, ok)
		assert.InDelta(t, want[i].X, p.X, 1e-6)
		assert.InDelta(t, want[i].Y, p.Y, 1e-6)
	}
}

func TestRectifyDegenerate(t *testing.T) {
	tests := []struct {
		name string
		quad geom.Quad
	}{
		{"coincident", geom.Quad{{X: 50, Y: 50}, {X: 50, Y: 50}, {X: 50, Y: 50}, {X: 50, Y: 50}}},
		{"collinear", geom.Quad{{X: 0, Y: 0}, {X: 100, Y: 100}, {X: 200, Y: 200}, {X: 300, Y: 300}}},
		{"sliver", geom.Quad{{X: 0, Y: 0}, {X: 300, Y: 0}, {X: 300, Y: 0.5}, {X: 0, Y: 0.5}}},
	}

	img := quadrants()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := New().Rectify(img, tt.quad)
			assert.ErrorIs(t, err, geom.ErrDegenerateQuad)
		})
	}
}

func TestRectifyLeavesInputUntouched(t *testing.T) {
	img := quadrants()
	before := append([]uint8(nil), img.Pix...)

	_, err := New().Rectify(img, geom.Quad{{X: 0, Y: 0}, {X: 399, Y: 0}, {X: 399, Y: 299}, {X: 0, Y: 299}})
	require.NoError(t, err)

	assert.Equal(t, before, img.Pix)
}
