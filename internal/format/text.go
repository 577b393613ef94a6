package format

import (
	"context"
	"errors"
	"fmt"
	"image"
	"strings"

	"github.com/ivlev/docscan/internal/ocr"
)

var ErrRecognition = errors.New("text recognition failed")

// TextFormatter hands the colour rectified image to an OCR engine
type TextFormatter struct {
	Engine ocr.Engine
}

func NewTextFormatter(e ocr.Engine) *TextFormatter {
	return &TextFormatter{Engine: e}
}

// Format returns the recognized text with surrounding whitespace removed.
// No binarization or cropping happens on this path.
func (f *TextFormatter) Format(ctx context.Context, img image.Image) (string, error) {
	if f.Engine == nil {
		return "", fmt.Errorf("%w: %w", ErrRecognition, ocr.ErrUnavailable)
	}

	text, err := f.Engine.Recognize(ctx, img)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %w", ErrRecognition, f.Engine.Name(), err)
	}

	return strings.TrimSpace(text), nil
}
