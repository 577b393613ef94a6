// Package ocr defines the text recognition collaborator of the text path
// and the wrappers shared by every backend.
package ocr

import (
	"context"
	"errors"
	"image"
)

var ErrUnavailable = errors.New("ocr engine unavailable")

// Engine recognizes the text of a whole image
type Engine interface {
	Name() string
	Recognize(ctx context.Context, img image.Image) (string, error)
}

// Func adapts a plain function to an Engine
type Func func(ctx context.Context, img image.Image) (string, error)

func (f Func) Name() string { return "func" }

func (f Func) Recognize(ctx context.Context, img image.Image) (string, error) {
	return f(ctx, img)
}

// Disabled is the engine used when recognition is switched off. Every call
// fails with ErrUnavailable.
type Disabled struct{}

func (Disabled) Name() string { return "none" }

func (Disabled) Recognize(context.Context, image.Image) (string, error) {
	return "", ErrUnavailable
}
