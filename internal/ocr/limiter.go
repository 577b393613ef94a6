package ocr

import (
	"context"
	"image"

	"golang.org/x/time/rate"
)

type limitedEngine struct {
	limiter *rate.Limiter
	engine  Engine
}

// NewLimited throttles recognitions through l. A nil limiter passes every
// call straight through.
func NewLimited(l *rate.Limiter, e Engine) Engine {
	return &limitedEngine{
		limiter: l,
		engine:  e,
	}
}

func (e *limitedEngine) Name() string { return e.engine.Name() }

func (e *limitedEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	if e.limiter != nil {
		if err := e.limiter.Wait(ctx); err != nil {
			return "", err
		}
	}

	return e.engine.Recognize(ctx, img)
}
