// Package fixture renders synthetic document photographs with known corner
// positions: a white page carrying text and a QR code, projected onto a
// dark desk.
package fixture

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"math/rand/v2"

	"github.com/ivlev/docscan/internal/geom"
	"github.com/ivlev/docscan/internal/raster"

	"github.com/skip2/go-qrcode"
	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

var (
	Paper = color.RGBA{R: 245, G: 243, B: 238, A: 255}
	Desk  = color.RGBA{R: 38, G: 32, B: 30, A: 255}
	Ink   = color.RGBA{R: 20, G: 20, B: 25, A: 255}
)

// text is drawn at a quarter of the page resolution and scaled up
const textScale = 4

// Photo is a rendered photograph and the ground truth of the page inside it
type Photo struct {
	Image   *image.RGBA
	Corners geom.Quad // TL, TR, BR, BL in photo coordinates
	Page    *image.RGBA
}

type Options struct {
	Width, Height         int       // Photo size
	PageWidth, PageHeight int       // Flat page size before projection
	Corners               geom.Quad // Page corners in the photo, TL, TR, BR, BL
	Lines                 []string  // Text printed on the page
	QR                    string    // QR payload, empty for none
	Desk                  color.RGBA
}

// DefaultOptions describes a 1000x1400 photo of an A4 page lying slightly
// skewed on a dark desk
func DefaultOptions() Options {
	return Options{
		Width:      1000,
		Height:     1400,
		PageWidth:  840,
		PageHeight: 1188,
		Corners: geom.Quad{
			{X: 118, Y: 104},
			{X: 884, Y: 132},
			{X: 912, Y: 1262},
			{X: 86, Y: 1290},
		},
		Lines: []string{
			"INVOICE 2041",
			"",
			"Paper scanner test page",
			"Quick brown fox jumps",
			"over the lazy dog",
		},
		QR:   "https://example.com/docscan",
		Desk: Desk,
	}
}

// Page renders the flat page
func Page(w, h int, lines []string, qr string) (*image.RGBA, error) {
	page := Uniform(w, h, Paper)

	if len(lines) > 0 {
		small := image.NewRGBA(image.Rect(0, 0, w/textScale, h/textScale))
		xdraw.Draw(small, small.Bounds(), &image.Uniform{C: Paper}, image.Point{}, xdraw.Src)

		d := &font.Drawer{
			Dst:  small,
			Src:  &image.Uniform{C: Ink},
			Face: basicfont.Face7x13,
		}
		for i, line := range lines {
			d.Dot = fixed.P(8, 24+16*i)
			d.DrawString(line)
		}

		xdraw.NearestNeighbor.Scale(page, image.Rect(0, 0, small.Rect.Dx()*textScale, small.Rect.Dy()*textScale), small, small.Bounds(), xdraw.Src, nil)
	}

	if qr != "" {
		code, err := qrcode.New(qr, qrcode.Medium)
		if err != nil {
			return nil, fmt.Errorf("qr code: %w", err)
		}

		size := w / 4
		margin := w / 12
		at := image.Rect(w-margin-size, h-margin-size, w-margin, h-margin)
		xdraw.Draw(page, at, code.Image(size), image.Point{}, xdraw.Src)
	}

	return page, nil
}

// NewPhoto renders the page and projects it onto the desk
func NewPhoto(o Options) (*Photo, error) {
	page, err := Page(o.PageWidth, o.PageHeight, o.Lines, o.QR)
	if err != nil {
		return nil, err
	}

	img := Uniform(o.Width, o.Height, o.Desk)

	// photo -> page coordinates
	m, err := geom.PerspectiveTransform(o.Corners, geom.Rect(float64(o.PageWidth), float64(o.PageHeight)))
	if err != nil {
		return nil, err
	}

	for y := 0; y < o.Height; y++ {
		for x := 0; x < o.Width; x++ {
			p, ok := m.Apply(geom.Pt(float64(x), float64(y)))
			if !ok || p.X < 0 || p.Y < 0 || p.X >= float64(o.PageWidth) || p.Y >= float64(o.PageHeight) {
				continue
			}
			img.SetRGBA(x, y, raster.Bilinear(page, p.X, p.Y))
		}
	}

	return &Photo{Image: img, Corners: o.Corners, Page: page}, nil
}

// Jitter moves every corner of o by up to amount pixels on each axis,
// keeping it inside the photo
func Jitter(o Options, r *rand.Rand, amount float64) Options {
	for i, c := range o.Corners {
		x := c.X + (r.Float64()*2-1)*amount
		y := c.Y + (r.Float64()*2-1)*amount
		o.Corners[i] = geom.Pt(
			min(max(x, 0), float64(o.Width-1)),
			min(max(y, 0), float64(o.Height-1)),
		)
	}
	return o
}

// Uniform returns a w x h image filled with c
func Uniform(w, h int, c color.Color) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, xdraw.Src)
	return img
}

func EncodeJPEG(img image.Image, quality int) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: quality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

func EncodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
