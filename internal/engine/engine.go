package engine

import (
	"context"
	"fmt"
	"image"
	"log/slog"
	"math"
	"time"

	"github.com/ivlev/docscan/internal/analyzer"
	"github.com/ivlev/docscan/internal/config"
	"github.com/ivlev/docscan/internal/format"
	"github.com/ivlev/docscan/internal/geom"
	"github.com/ivlev/docscan/internal/ocr"
	"github.com/ivlev/docscan/internal/rectify"
	"github.com/ivlev/docscan/internal/source"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"
	xdraw "golang.org/x/image/draw"
)

const instrumentationName = "github.com/ivlev/docscan/internal/engine"

// Pipeline runs one photo through detection, rectification and formatting.
// It keeps no state between calls and is safe for concurrent use.
type Pipeline struct {
	Loader    *source.Loader
	Detector  analyzer.Detector
	Rectifier *rectify.Rectifier
	Scan      *format.ScanFormatter
	Text      *format.TextFormatter

	BoxWidth  int // Detection working box
	BoxHeight int

	Logger *slog.Logger

	runsMetric      metric.Int64Counter
	fallbacksMetric metric.Int64Counter
	durationMetric  metric.Float64Histogram
}

// Result is the outcome of one run
type Result struct {
	Mode Mode

	Scan *format.Scan // Set in scan mode
	Text string       // Set in text mode

	Contour   analyzer.Contour // Detection-space boundary
	Quad      geom.Quad        // Boundary in original image coordinates
	Scale     float64          // Detection scale factor
	Source    image.Point      // Original image size
	Rectified image.Point      // Rectified image size

	Timings Timings
}

type Timings struct {
	Load    time.Duration
	Detect  time.Duration
	Rectify time.Duration
	Format  time.Duration
	Total   time.Duration
}

// New wires a pipeline from configuration. recognizer serves the text mode
// and may be nil when only scans are produced.
func New(cfg *config.Config, recognizer ocr.Engine) (*Pipeline, error) {
	det, err := analyzer.NewDetector(cfg.Detection.Detector, analyzer.Settings{
		MinArea: cfg.Detection.MinArea,
		Epsilon: cfg.Detection.Epsilon,
	})
	if err != nil {
		return nil, err
	}

	p := NewPipeline(det, recognizer)

	p.Loader.PDFDPI = cfg.Source.PDFDPI
	p.Rectifier.MinQuadArea = cfg.Rectify.MinQuadArea
	p.Scan.Threshold = uint8(cfg.Format.Threshold)
	p.Scan.Margin = cfg.Format.Margin
	p.Scan.Quality = cfg.Format.JPEGQuality
	p.BoxWidth = cfg.Detection.BoxWidth
	p.BoxHeight = cfg.Detection.BoxHeight

	return p, nil
}

// NewPipeline creates a pipeline with default stage settings
func NewPipeline(det analyzer.Detector, recognizer ocr.Engine) *Pipeline {
	meter := otel.Meter(instrumentationName)

	runsMetric, _ := meter.Int64Counter("docscan.pipeline.runs",
		metric.WithDescription("Pipeline runs by mode and outcome"))
	fallbacksMetric, _ := meter.Int64Counter("docscan.detection.fallbacks",
		metric.WithDescription("Detections that fell back to the full frame"))
	durationMetric, _ := meter.Float64Histogram("docscan.pipeline.duration",
		metric.WithDescription("Duration of a pipeline run"),
		metric.WithUnit("s"))

	return &Pipeline{
		Loader:    source.NewLoader(),
		Detector:  det,
		Rectifier: rectify.New(),
		Scan:      format.NewScanFormatter(),
		Text:      format.NewTextFormatter(recognizer),

		BoxWidth:  800,
		BoxHeight: 600,

		runsMetric:      runsMetric,
		fallbacksMetric: fallbacksMetric,
		durationMetric:  durationMetric,
	}
}

func (p *Pipeline) logger() *slog.Logger {
	if p.Logger != nil {
		return p.Logger
	}
	return slog.Default()
}

// Run parses the mode name before touching the input, then processes it
func (p *Pipeline) Run(ctx context.Context, in source.Input, mode string) (*Result, error) {
	m, err := ParseMode(mode)
	if err != nil {
		return nil, err
	}
	return p.Process(ctx, in, m)
}

// Process runs the full pipeline. The context is checked between stages.
func (p *Pipeline) Process(ctx context.Context, in source.Input, mode Mode) (*Result, error) {
	if !mode.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrInvalidMode, string(mode))
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, "process "+mode.String(),
		trace.WithAttributes(
			attribute.String("docscan.mode", mode.String()),
			attribute.String("docscan.input", in.Label()),
		))
	defer span.End()

	start := time.Now()

	result, err := p.process(ctx, in, mode)

	outcome := "ok"
	if err != nil {
		outcome = KindOf(err).String()
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	}

	attrs := metric.WithAttributes(
		attribute.String("docscan.mode", mode.String()),
		attribute.String("docscan.outcome", outcome),
	)
	if p.runsMetric != nil {
		p.runsMetric.Add(ctx, 1, attrs)
	}
	if p.durationMetric != nil {
		p.durationMetric.Record(ctx, time.Since(start).Seconds(), attrs)
	}

	if err != nil {
		p.logger().DebugContext(ctx, "pipeline failed", "input", in.Label(), "mode", mode, "kind", outcome, "error", err)
		return nil, err
	}

	result.Timings.Total = time.Since(start)
	return result, nil
}

func (p *Pipeline) process(ctx context.Context, in source.Input, mode Mode) (*Result, error) {
	log := p.logger().With("input", in.Label(), "mode", mode)
	result := &Result{Mode: mode}

	// Step 1: Decode
	img, err := stage(ctx, "load", &result.Timings.Load, func(ctx context.Context) (image.Image, error) {
		return p.Loader.Load(in)
	})
	if err != nil {
		return nil, err
	}

	w, h := img.Bounds().Dx(), img.Bounds().Dy()
	result.Source = image.Pt(w, h)

	// Step 2: Working copy for detection
	scale := DetectionScale(w, h, p.BoxWidth, p.BoxHeight)
	result.Scale = scale

	contour, err := stage(ctx, "detect", &result.Timings.Detect, func(ctx context.Context) (analyzer.Contour, error) {
		return p.Detector.Detect(Downscale(img, scale))
	})
	if err != nil {
		return nil, err
	}
	result.Contour = contour

	if contour.Fallback {
		log.InfoContext(ctx, "no document boundary found, using the full frame")
		if p.fallbacksMetric != nil {
			p.fallbacksMetric.Add(ctx, 1)
		}
	} else {
		log.DebugContext(ctx, "document boundary found", "quad", contour.Quad.String(), "area", contour.Area, "scale", scale)
	}

	// Step 3: Back to original coordinates
	quad, err := geom.Rescale(contour.Quad, scale)
	if err != nil {
		return nil, err
	}
	result.Quad = quad

	// Step 4: Unwarp the original, never the downscaled copy
	rectified, err := stage(ctx, "rectify", &result.Timings.Rectify, func(ctx context.Context) (*image.RGBA, error) {
		return p.Rectifier.Rectify(img, quad)
	})
	if err != nil {
		return nil, err
	}
	result.Rectified = rectified.Rect.Size()

	// Step 5: Output
	switch mode {
	case ModeScan:
		result.Scan, err = stage(ctx, "format scan", &result.Timings.Format, func(ctx context.Context) (*format.Scan, error) {
			return p.Scan.Format(rectified)
		})
	case ModeText:
		result.Text, err = stage(ctx, "format text", &result.Timings.Format, func(ctx context.Context) (string, error) {
			return p.Text.Format(ctx, rectified)
		})
	}
	if err != nil {
		return nil, err
	}

	log.DebugContext(ctx, "pipeline done", "size", result.Rectified.String(), "fallback", contour.Fallback)

	return result, nil
}

// stage runs one step inside its own span and records its duration. A done
// context stops the pipeline before the step starts.
func stage[T any](ctx context.Context, name string, took *time.Duration, fn func(context.Context) (T, error)) (T, error) {
	var zero T

	if err := ctx.Err(); err != nil {
		return zero, err
	}

	ctx, span := otel.Tracer(instrumentationName).Start(ctx, name)
	defer span.End()

	start := time.Now()
	v, err := fn(ctx)
	*took = time.Since(start)

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return zero, err
	}

	return v, nil
}

// DetectionScale bounds the longest image side by the larger box side.
// Images already inside the box are never upscaled.
func DetectionScale(w, h, boxW, boxH int) float64 {
	longest := max(w, h)
	if longest <= 0 {
		return 1
	}
	return math.Min(float64(max(boxW, boxH))/float64(longest), 1)
}

// Downscale returns img resized by scale. At scale 1 the image itself is
// returned, without a copy.
func Downscale(img image.Image, scale float64) image.Image {
	if scale >= 1 {
		return img
	}

	b := img.Bounds()
	w := max(int(float64(b.Dx())*scale), 1)
	h := max(int(float64(b.Dy())*scale), 1)

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	xdraw.CatmullRom.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
	return dst
}
