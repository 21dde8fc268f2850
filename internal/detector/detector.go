// Package detector runs the phishing pipeline for a single URL: extract the
// features, normalize them, wait out the simulated analysis latency, pick the
// requested algorithm (falling back to random-forest) and score.
package detector

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/metric"
	"go.opentelemetry.io/otel/trace"

	"github.com/raysh454/phishlens/internal/features"
	"github.com/raysh454/phishlens/internal/logging"
	"github.com/raysh454/phishlens/internal/models"
)

const instrumentationName = "github.com/raysh454/phishlens/internal/detector"

// DefaultLatency is the simulated analysis delay the dashboard shows a spinner for.
const DefaultLatency = time.Second

type Config struct {
	// Latency is how long Detect waits between normalizing and scoring.
	// Zero disables the wait.
	Latency time.Duration
}

func DefaultConfig() Config {
	return Config{Latency: DefaultLatency}
}

// Scorer is what the detector needs from a model registry.
type Scorer interface {
	Score(a models.Algorithm, v features.Vector) (models.Verdict, error)
}

// Result is the outcome of one detection.
type Result struct {
	IsPhishing bool    `json:"isPhishing"`
	Confidence float64 `json:"confidence"`
	// Algorithm is the model that produced the verdict. Unknown requested
	// names resolve to random-forest.
	Algorithm models.Algorithm     `json:"algorithm"`
	Features  features.RawFeatures `json:"features"`
	Vector    features.Vector      `json:"vector"`
}

// UnexpectedError wraps any failure other than an invalid URL or cancellation.
type UnexpectedError struct {
	Op  string
	Err error
}

func (e *UnexpectedError) Error() string {
	return fmt.Sprintf("unexpected error during %s: %v", e.Op, e.Err)
}

func (e *UnexpectedError) Unwrap() error { return e.Err }

type Detector struct {
	cfg    Config
	scorer Scorer
	logger logging.Logger

	tracer     trace.Tracer
	detections metric.Int64Counter
	failures   metric.Int64Counter
}

// New builds a Detector. A nil scorer means the process-wide model registry.
func New(cfg Config, scorer Scorer, logger logging.Logger) (*Detector, error) {
	if logger == nil {
		return nil, errors.New("detector: nil logger")
	}
	if cfg.Latency < 0 {
		return nil, fmt.Errorf("detector: negative latency %s", cfg.Latency)
	}
	if scorer == nil {
		scorer = models.Default
	}

	meter := otel.Meter(instrumentationName)
	detections, err := meter.Int64Counter("phishlens_detections_total",
		metric.WithDescription("Completed detections by algorithm and verdict."))
	if err != nil {
		return nil, fmt.Errorf("detector: create detections counter: %w", err)
	}
	failures, err := meter.Int64Counter("phishlens_detection_errors_total",
		metric.WithDescription("Failed detections by error kind."))
	if err != nil {
		return nil, fmt.Errorf("detector: create errors counter: %w", err)
	}

	return &Detector{
		cfg:        cfg,
		scorer:     scorer,
		logger:     logger.With(logging.Field{Key: "component", Value: "detector"}),
		tracer:     otel.Tracer(instrumentationName),
		detections: detections,
		failures:   failures,
	}, nil
}

// Detect analyzes rawURL with the named algorithm. Unknown algorithm names are
// scored by random-forest. Errors are either a *features.InvalidURLError, the
// context's error when ctx ends during the latency wait, or an *UnexpectedError.
func (d *Detector) Detect(ctx context.Context, rawURL, algorithm string) (res *Result, err error) {
	ctx, span := d.tracer.Start(ctx, "detector.Detect",
		trace.WithAttributes(attribute.String("algorithm.requested", algorithm)),
	)
	defer func() {
		if err != nil {
			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}
		span.End()
	}()

	raw, err := features.Extract(rawURL)
	if err != nil {
		d.countFailure(ctx, "invalid_url")
		return nil, err
	}

	vec := features.Normalize(raw)
	if !vec.Valid() {
		return nil, d.unexpected(ctx, rawURL, "normalize", fmt.Errorf("vector out of range: %v", vec))
	}

	if err := d.wait(ctx); err != nil {
		d.countFailure(ctx, "canceled")
		d.logger.Warn("detection canceled",
			logging.Field{Key: "url", Value: rawURL},
			logging.Err(err))
		return nil, fmt.Errorf("detect %q: %w", rawURL, err)
	}

	algo := models.Resolve(algorithm)
	if string(algo) != algorithm {
		d.logger.Debug("unknown algorithm, falling back",
			logging.Field{Key: "requested", Value: algorithm},
			logging.Field{Key: "fallback", Value: string(algo)})
	}
	span.SetAttributes(attribute.String("algorithm.resolved", string(algo)))

	verdict, err := d.score(algo, vec)
	if err != nil {
		return nil, d.unexpected(ctx, rawURL, "score", err)
	}

	span.SetAttributes(
		attribute.Bool("verdict.phishing", verdict.IsPhishing),
		attribute.Float64("verdict.confidence", verdict.Confidence),
	)
	d.detections.Add(ctx, 1, metric.WithAttributes(
		attribute.String("algorithm", string(algo)),
		attribute.String("verdict", verdictLabel(verdict)),
	))
	d.logger.Info("detection completed",
		logging.Field{Key: "url", Value: rawURL},
		logging.Field{Key: "algorithm", Value: string(algo)},
		logging.Field{Key: "is_phishing", Value: verdict.IsPhishing},
		logging.Field{Key: "confidence", Value: verdict.Confidence})

	return &Result{
		IsPhishing: verdict.IsPhishing,
		Confidence: verdict.Confidence,
		Algorithm:  algo,
		Features:   raw,
		Vector:     vec,
	}, nil
}

func (d *Detector) wait(ctx context.Context) error {
	if d.cfg.Latency <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d.cfg.Latency)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

func (d *Detector) score(a models.Algorithm, v features.Vector) (verdict models.Verdict, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("scorer %s panicked: %v", a, r)
		}
	}()
	return d.scorer.Score(a, v)
}

func (d *Detector) unexpected(ctx context.Context, rawURL, op string, err error) error {
	d.countFailure(ctx, "unexpected")
	d.logger.Error("detection failed",
		logging.Field{Key: "url", Value: rawURL},
		logging.Field{Key: "op", Value: op},
		logging.Err(err))
	return &UnexpectedError{Op: op, Err: err}
}

func (d *Detector) countFailure(ctx context.Context, kind string) {
	d.failures.Add(ctx, 1, metric.WithAttributes(attribute.String("kind", kind)))
}

func verdictLabel(v models.Verdict) string {
	if v.IsPhishing {
		return "phishing"
	}
	return "safe"
}

var (
	defaultOnce     sync.Once
	defaultDetector *Detector
)

// Default returns the shared detector used by the package-level Detect: one
// second of latency, the default registry and a stdout logger.
func Default() *Detector {
	defaultOnce.Do(func() {
		d, err := New(DefaultConfig(), nil, logging.NewStdoutLogger("detector"))
		if err != nil {
			panic(err)
		}
		defaultDetector = d
	})
	return defaultDetector
}

// Detect runs the default detector.
func Detect(ctx context.Context, rawURL, algorithm string) (*Result, error) {
	return Default().Detect(ctx, rawURL, algorithm)
}
