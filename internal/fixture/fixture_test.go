package fixture

import (
	"bytes"
	"image/jpeg"
	"math/rand/v2"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPhoto(t *testing.T) {
	o := DefaultOptions()

	photo, err := NewPhoto(o)
	require.NoError(t, err)

	assert.Equal(t, o.Width, photo.Image.Bounds().Dx())
	assert.Equal(t, o.Height, photo.Image.Bounds().Dy())
	assert.Equal(t, o.Corners, photo.Corners)

	// desk outside, paper at the centre of the page
	assert.Equal(t, Desk, photo.Image.RGBAAt(5, 5))
	center := photo.Image.RGBAAt(o.Width/2, o.Height*2/3)
	assert.Greater(t, int(center.R), 200)
}

func TestPageCarriesText(t *testing.T) {
	page, err := Page(400, 600, []string{"HELLO"}, "")
	require.NoError(t, err)

	dark := 0
	for y := 0; y < 150; y++ {
		for x := 0; x < 400; x++ {
			if page.RGBAAt(x, y).R < 100 {
				dark++
			}
		}
	}
	assert.Greater(t, dark, 0)

	assert.Equal(t, Paper, page.RGBAAt(399, 599))
}

func TestJitter(t *testing.T) {
	o := DefaultOptions()
	r := rand.New(rand.NewPCG(1, 2))

	j := Jitter(o, r, 20)
	for i := range o.Corners {
		assert.InDelta(t, o.Corners[i].X, j.Corners[i].X, 20)
		assert.InDelta(t, o.Corners[i].Y, j.Corners[i].Y, 20)
	}

	// original options untouched
	assert.Equal(t, DefaultOptions().Corners, o.Corners)
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(Uniform(32, 16, Paper), 90)
	require.NoError(t, err)

	img, err := jpeg.Decode(bytes.NewReader(data))
	require.NoError(t, err)
	assert.Equal(t, 32, img.Bounds().Dx())
}

func TestGroundTruth(t *testing.T) {
	photo, err := NewPhoto(DefaultOptions())
	require.NoError(t, err)

	path := filepath.Join(t.TempDir(), "photo.yaml")
	require.NoError(t, WriteGroundTruth(NewGroundTruth("photo.png", photo), path))

	gt, err := ReadGroundTruth(path)
	require.NoError(t, err)

	assert.Equal(t, "photo.png", gt.Image)
	assert.Equal(t, 1000, gt.Width)
	assert.Equal(t, photo.Corners, gt.Quad())
}
