// Package testutil provides shared test doubles for use across package tests.
// The dummies implement interfaces from the production code so they can be
// injected into components under test without real I/O.
package testutil

import (
	"context"
	"strings"
	"sync"

	"github.com/raysh454/phishlens/internal/features"
	"github.com/raysh454/phishlens/internal/logging"
	"github.com/raysh454/phishlens/internal/models"
)

// ─── Logger ────────────────────────────────────────────────────────────

// DummyLogger implements logging.Logger with in-memory recording.
type DummyLogger struct {
	mu     sync.Mutex
	Errors []string
	Infos  []string
	Debugs []string
	Warns  []string
}

func (l *DummyLogger) Debug(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Debugs = append(l.Debugs, msg)
}

func (l *DummyLogger) Info(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Infos = append(l.Infos, msg)
}

func (l *DummyLogger) Warn(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Warns = append(l.Warns, msg)
}

func (l *DummyLogger) Error(msg string, fields ...logging.Field) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.Errors = append(l.Errors, msg)
}

func (l *DummyLogger) With(_ ...logging.Field) logging.Logger { return l }

// Logged reports whether any level recorded a message containing substr.
func (l *DummyLogger) Logged(substr string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	for _, msgs := range [][]string{l.Errors, l.Warns, l.Infos, l.Debugs} {
		for _, m := range msgs {
			if strings.Contains(m, substr) {
				return true
			}
		}
	}
	return false
}

// ErrorCount returns how many error-level messages were recorded.
func (l *DummyLogger) ErrorCount() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.Errors)
}

// ─── Scorer ────────────────────────────────────────────────────────────

// DummyScorer implements detector.Scorer. By default it delegates to the
// real registry; Panic and Err force failures, Calls records algorithms.
type DummyScorer struct {
	Panic any
	Err   error

	mu    sync.Mutex
	Calls []models.Algorithm
}

func (d *DummyScorer) Score(a models.Algorithm, v features.Vector) (models.Verdict, error) {
	d.mu.Lock()
	d.Calls = append(d.Calls, a)
	d.mu.Unlock()

	if d.Panic != nil {
		panic(d.Panic)
	}
	if d.Err != nil {
		return models.Verdict{}, d.Err
	}
	return models.Default.Score(a, v)
}

// ─── Context ───────────────────────────────────────────────────────────

// CanceledContext returns a context that is already canceled.
func CanceledContext() context.Context {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	return ctx
}
