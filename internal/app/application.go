package app

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/raysh454/phishlens/internal/detector"
	"github.com/raysh454/phishlens/internal/history"
	"github.com/raysh454/phishlens/internal/logging"
	"github.com/raysh454/phishlens/internal/telemetry"
)

// Application is the runtime state container shared by the CLI and the API
// server. It owns the detector, the optional history store, the job
// orchestrator and the telemetry providers.
type Application struct {
	Config *Config
	Logger logging.Logger

	Detector *detector.Detector
	History  *history.Store // nil when history is disabled
	Orch     *Orchestrator

	shutdownTelemetry telemetry.ShutdownFunc
}

// NewApplication builds every component from cfg. A nil cfg means
// DefaultConfig().
func NewApplication(ctx context.Context, cfg *Config, logger logging.Logger) (*Application, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if logger == nil {
		return nil, errors.New("app: nil logger")
	}

	shutdown, err := telemetry.Init(ctx, cfg.Telemetry, logger.With(logging.Field{Key: "component", Value: "telemetry"}))
	if err != nil {
		return nil, fmt.Errorf("init telemetry: %w", err)
	}

	det, err := detector.New(cfg.Detector, nil, logger)
	if err != nil {
		telemetry.Flush(ctx, shutdown, logger)
		return nil, fmt.Errorf("new detector: %w", err)
	}

	a := &Application{
		Config:            cfg,
		Logger:            logger,
		Detector:          det,
		shutdownTelemetry: shutdown,
	}

	var rec Recorder
	if cfg.History.Enabled {
		path, err := ExpandPath(cfg.History.Path)
		if err != nil {
			telemetry.Flush(ctx, shutdown, logger)
			return nil, fmt.Errorf("expanding history path: %w", err)
		}
		store, err := history.Open(path, logger)
		if err != nil {
			telemetry.Flush(ctx, shutdown, logger)
			return nil, fmt.Errorf("open history: %w", err)
		}
		a.History = store
		rec = store
		logger.Info("history enabled", logging.Field{Key: "path", Value: path})
	}

	a.Orch = NewOrchestrator(cfg, det, rec, logger)
	return a, nil
}

// Detect runs one synchronous detection and records it when history is
// enabled. A history failure is logged and does not fail the detection.
func (a *Application) Detect(ctx context.Context, rawURL, algorithm string) (*detector.Result, error) {
	res, err := a.Detector.Detect(ctx, rawURL, algorithm)
	if err != nil {
		return nil, err
	}
	if a.History != nil {
		if _, err := a.History.Record(ctx, rawURL, res); err != nil {
			a.Logger.Warn("recording detection", logging.Field{Key: "url", Value: rawURL}, logging.Err(err))
		}
	}
	return res, nil
}

// Shutdown cancels running jobs, closes the history store and flushes
// telemetry.
func (a *Application) Shutdown(ctx context.Context) error {
	if a == nil {
		return errors.New("application is nil")
	}
	a.Logger.Info("application shutdown initiated")

	shutdownCtx, cancel := context.WithTimeout(ctx, 15*time.Second)
	defer cancel()

	if a.Orch != nil {
		a.Orch.Close()
	}

	var errs []error
	if a.History != nil {
		if err := a.History.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close history: %w", err))
		}
	}
	if a.shutdownTelemetry != nil {
		if err := a.shutdownTelemetry(shutdownCtx); err != nil {
			a.Logger.Warn("telemetry shutdown returned error", logging.Err(err))
		}
	}
	return errors.Join(errs...)
}
