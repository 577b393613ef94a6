package analyzer

import "image"

// 5-tap binomial kernel, the fixed Gaussian for a 5x5 window with sigma 1.1
var gaussian5 = [5]uint32{1, 4, 6, 4, 1}

// gaussianBlur5 applies a separable 5x5 Gaussian with mirrored borders
// (the edge pixel itself is not repeated)
func gaussianBlur5(gray *image.Gray) *image.Gray {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()
	tmp := make([]uint32, w*h)

	// Horizontal pass, scaled by 16
	for y := 0; y < h; y++ {
		row := gray.Pix[y*gray.Stride:]
		for x := 0; x < w; x++ {
			var sum uint32
			for k := -2; k <= 2; k++ {
				sum += gaussian5[k+2] * uint32(row[reflect101(x+k, w)])
			}
			tmp[y*w+x] = sum
		}
	}

	// Vertical pass, scaled by 16 again, rounded back to 8 bits
	out := image.NewGray(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			var sum uint32
			for k := -2; k <= 2; k++ {
				sum += gaussian5[k+2] * tmp[reflect101(y+k, h)*w+x]
			}
			out.Pix[y*out.Stride+x] = uint8((sum + 128) >> 8)
		}
	}

	return out
}

func reflect101(i, n int) int {
	if n == 1 {
		return 0
	}
	for i < 0 || i >= n {
		if i < 0 {
			i = -i
		}
		if i >= n {
			i = 2*(n-1) - i
		}
	}
	return i
}

// otsuThreshold picks the gray level that maximizes the between-class
// variance of the histogram. Pixels strictly above it are foreground.
func otsuThreshold(gray *image.Gray) uint8 {
	w, h := gray.Rect.Dx(), gray.Rect.Dy()

	var hist [256]float64
	for y := 0; y < h; y++ {
		for _, v := range gray.Pix[y*gray.Stride : y*gray.Stride+w] {
			hist[v]++
		}
	}

	total := float64(w * h)
	var sumAll float64
	for i, n := range hist {
		sumAll += float64(i) * n
	}

	var weightB, sumB, best float64
	threshold := 0

	for i, n := range hist {
		weightB += n
		sumB += float64(i) * n
		if weightB == 0 {
			continue
		}

		weightF := total - weightB
		if weightF == 0 {
			break
		}

		meanB := sumB / weightB
		meanF := (sumAll - sumB) / weightF

		between := weightB * weightF * (meanB - meanF) * (meanB - meanF)
		if between > best {
			best = between
			threshold = i
		}
	}

	return uint8(threshold)
}
