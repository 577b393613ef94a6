package tesseract

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os/exec"
	"strings"
	"testing"

	xdraw "golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// ensureTesseractAvailable checks that the tesseract binary is reachable.
func ensureTesseractAvailable(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("tesseract"); err != nil {
		t.Skip("tesseract not installed in PATH")
	}
}

func textImage(s string) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, 200, 80))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: color.White}, image.Point{}, draw.Src)

	d := &font.Drawer{
		Dst:  img,
		Src:  image.Black,
		Face: basicfont.Face7x13,
		Dot:  fixed.P(10, 50),
	}
	d.DrawString(s)

	big := image.NewRGBA(image.Rect(0, 0, 600, 240))
	xdraw.NearestNeighbor.Scale(big, big.Bounds(), img, img.Bounds(), xdraw.Src, nil)
	return big
}

func TestEngineRecognize(t *testing.T) {
	ensureTesseractAvailable(t)

	e := New()
	e.Languages = []string{"eng"}

	text, err := e.Recognize(context.Background(), textImage("Hello Scan"))
	if err != nil {
		t.Fatalf("Recognize() error = %v", err)
	}

	got := strings.ToLower(text)
	if !strings.Contains(got, "hello") || !strings.Contains(got, "scan") {
		t.Fatalf("unexpected OCR output: %q", text)
	}
}

func TestEngineCanceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := New().Recognize(ctx, textImage("x")); err == nil {
		t.Fatal("expected an error for a canceled context")
	}
}
