// Package raster holds the pixel-level helpers shared by the detection,
// rectification and formatting stages. Every function allocates its result
// and leaves its input untouched.
package raster

import (
	"image"
	"image/color"
	"image/draw"
	"math"
)

// Gray converts an image to single-channel luma using BT.601 weights
// in 14-bit fixed point.
func Gray(img image.Image) *image.Gray {
	bounds := img.Bounds()
	gray := image.NewGray(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))

	switch src := img.(type) {
	case *image.Gray:
		for y := 0; y < bounds.Dy(); y++ {
			s := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			copy(gray.Pix[y*gray.Stride:y*gray.Stride+bounds.Dx()], src.Pix[s:s+bounds.Dx()])
		}

	case *image.RGBA:
		for y := 0; y < bounds.Dy(); y++ {
			s := src.PixOffset(bounds.Min.X, bounds.Min.Y+y)
			d := y * gray.Stride
			for x := 0; x < bounds.Dx(); x++ {
				i := s + 4*x
				gray.Pix[d+x] = luma(uint32(src.Pix[i]), uint32(src.Pix[i+1]), uint32(src.Pix[i+2]))
			}
		}

	default:
		for y := 0; y < bounds.Dy(); y++ {
			d := y * gray.Stride
			for x := 0; x < bounds.Dx(); x++ {
				c := color.NRGBAModel.Convert(img.At(bounds.Min.X+x, bounds.Min.Y+y)).(color.NRGBA)
				gray.Pix[d+x] = luma(uint32(c.R), uint32(c.G), uint32(c.B))
			}
		}
	}

	return gray
}

func luma(r, g, b uint32) uint8 {
	return uint8((r*4899 + g*9617 + b*1868 + 1<<13) >> 14)
}

// ToRGBA returns a copy of img as *image.RGBA with its origin at (0, 0)
func ToRGBA(img image.Image) *image.RGBA {
	bounds := img.Bounds()
	rgba := image.NewRGBA(image.Rect(0, 0, bounds.Dx(), bounds.Dy()))
	draw.Draw(rgba, rgba.Bounds(), img, bounds.Min, draw.Src)
	return rgba
}

// Threshold maps pixels above t to 255 and everything else to 0
func Threshold(gray *image.Gray, t uint8) *image.Gray {
	out := image.NewGray(gray.Rect)
	for i, v := range gray.Pix {
		if v > t {
			out.Pix[i] = 255
		}
	}
	return out
}

// Bilinear samples src at a fractional position. Taps outside the image are
// clamped to the nearest edge pixel.
func Bilinear(src *image.RGBA, x, y float64) color.RGBA {
	w, h := src.Rect.Dx(), src.Rect.Dy()

	x0f, y0f := math.Floor(x), math.Floor(y)
	fx, fy := x-x0f, y-y0f
	x0, y0 := clamp(int(x0f), w), clamp(int(y0f), h)
	x1, y1 := clamp(int(x0f)+1, w), clamp(int(y0f)+1, h)

	p00 := src.PixOffset(src.Rect.Min.X+x0, src.Rect.Min.Y+y0)
	p10 := src.PixOffset(src.Rect.Min.X+x1, src.Rect.Min.Y+y0)
	p01 := src.PixOffset(src.Rect.Min.X+x0, src.Rect.Min.Y+y1)
	p11 := src.PixOffset(src.Rect.Min.X+x1, src.Rect.Min.Y+y1)

	var out [4]uint8
	for c := 0; c < 4; c++ {
		top := float64(src.Pix[p00+c])*(1-fx) + float64(src.Pix[p10+c])*fx
		bottom := float64(src.Pix[p01+c])*(1-fx) + float64(src.Pix[p11+c])*fx
		out[c] = uint8(math.Round(top*(1-fy) + bottom*fy))
	}

	return color.RGBA{R: out[0], G: out[1], B: out[2], A: out[3]}
}

func clamp(v, n int) int {
	if v < 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}
