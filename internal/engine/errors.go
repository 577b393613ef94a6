package engine

import (
	"context"
	"errors"

	"github.com/ivlev/docscan/internal/format"
	"github.com/ivlev/docscan/internal/geom"
	"github.com/ivlev/docscan/internal/ocr"
	"github.com/ivlev/docscan/internal/source"
)

// Kind groups pipeline failures by who has to act on them
type Kind int

const (
	KindUnknown Kind = iota
	KindInput
	KindInvalidArgument
	KindGeometry
	KindEncode
	KindRecognition
	KindUnavailable
	KindCanceled
)

func (k Kind) String() string {
	switch k {
	case KindInput:
		return "input"
	case KindInvalidArgument:
		return "invalid_argument"
	case KindGeometry:
		return "geometry"
	case KindEncode:
		return "encode"
	case KindRecognition:
		return "recognition"
	case KindUnavailable:
		return "unavailable"
	case KindCanceled:
		return "canceled"
	default:
		return "unknown"
	}
}

// KindOf classifies an error returned by the pipeline
func KindOf(err error) Kind {
	switch {
	case err == nil:
		return KindUnknown
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return KindCanceled
	case errors.Is(err, ErrInvalidMode):
		return KindInvalidArgument
	case errors.Is(err, source.ErrInputNotFound), errors.Is(err, source.ErrInputUnreadable):
		return KindInput
	case errors.Is(err, geom.ErrDegenerateQuad), errors.Is(err, format.ErrMarginTooLarge):
		return KindGeometry
	case errors.Is(err, format.ErrEncode):
		return KindEncode
	case errors.Is(err, ocr.ErrUnavailable):
		return KindUnavailable
	case errors.Is(err, format.ErrRecognition):
		return KindRecognition
	default:
		return KindUnknown
	}
}
