package ocr

import (
	"context"
	"image"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
)

const instrumentationName = "github.com/ivlev/docscan/internal/ocr"

type observableEngine struct {
	engine Engine

	durationMetric metric.Float64Histogram
}

// NewObservable records a span and a duration sample for every recognition
func NewObservable(e Engine) Engine {
	meter := otel.Meter(instrumentationName)

	durationMetric, _ := meter.Float64Histogram("docscan.ocr.duration",
		metric.WithDescription("Duration of text recognition"),
		metric.WithUnit("s"),
	)

	return &observableEngine{
		engine: e,

		durationMetric: durationMetric,
	}
}

func (e *observableEngine) Name() string { return e.engine.Name() }

func (e *observableEngine) Recognize(ctx context.Context, img image.Image) (string, error) {
	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "recognize "+e.engine.Name())
	defer span.End()

	timestamp := time.Now()

	text, err := e.engine.Recognize(ctx, img)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	if e.durationMetric != nil {
		e.durationMetric.Record(ctx, time.Since(timestamp).Seconds(),
			metric.WithAttributes(
				attribute.String("ocr.engine", e.engine.Name()),
				attribute.Bool("error", err != nil),
			),
		)
	}

	return text, err
}
