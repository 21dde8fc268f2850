// Package history keeps an optional log of detections in SQLite so the
// dashboard can show recent results. It sits outside the detection pipeline:
// Detect never touches it.
package history

import (
	"context"
	"database/sql"
	"embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/raysh454/phishlens/internal/detector"
	"github.com/raysh454/phishlens/internal/features"
	"github.com/raysh454/phishlens/internal/logging"
	"github.com/raysh454/phishlens/internal/models"
)

//go:embed schema.sql
var schemaFS embed.FS

var ErrRecordNotFound = errors.New("detection record not found")

const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// DetectionRecord is one stored detection.
type DetectionRecord struct {
	ID        string          `json:"id"`
	URL       string          `json:"url"`
	Result    detector.Result `json:"result"`
	CreatedAt time.Time       `json:"createdAt"`
}

// Store persists DetectionRecords.
type Store struct {
	db     *sql.DB
	logger logging.Logger
	now    func() time.Time
}

// Open opens (creating if needed) the SQLite database at path and applies the
// schema. ":memory:" gives a private in-memory database.
func Open(path string, logger logging.Logger) (*Store, error) {
	if path == "" {
		return nil, errors.New("history: empty database path")
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("history: create database dir: %w", err)
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("history: open database: %w", err)
	}
	// One connection keeps ":memory:" a single database and serializes writers.
	db.SetMaxOpenConns(1)
	if _, err := db.Exec(`PRAGMA busy_timeout = 5000;`); err != nil {
		db.Close()
		return nil, fmt.Errorf("history: set pragmas: %w", err)
	}

	s, err := New(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// New wraps an already open database and runs the schema.
func New(db *sql.DB, logger logging.Logger) (*Store, error) {
	if db == nil {
		return nil, errors.New("history: nil db")
	}
	if logger == nil {
		return nil, errors.New("history: nil logger")
	}

	schemaSQL, err := schemaFS.ReadFile("schema.sql")
	if err != nil {
		return nil, fmt.Errorf("history: read schema.sql: %w", err)
	}
	if _, err := db.Exec(string(schemaSQL)); err != nil {
		return nil, fmt.Errorf("history: execute schema: %w", err)
	}

	return &Store{
		db:     db,
		logger: logger.With(logging.Field{Key: "component", Value: "history"}),
		now:    func() time.Time { return time.Now().UTC() },
	}, nil
}

// Record stores res under a fresh id.
func (s *Store) Record(ctx context.Context, rawURL string, res *detector.Result) (*DetectionRecord, error) {
	if res == nil {
		return nil, errors.New("history: nil result")
	}

	featJSON, err := json.Marshal(res.Features)
	if err != nil {
		return nil, fmt.Errorf("history: encode features: %w", err)
	}
	vecJSON, err := json.Marshal(res.Vector)
	if err != nil {
		return nil, fmt.Errorf("history: encode vector: %w", err)
	}

	rec := &DetectionRecord{
		ID:        uuid.New().String(),
		URL:       rawURL,
		Result:    *res,
		CreatedAt: s.now(),
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO detections
             (id, url, algorithm, is_phishing, confidence, features, vector, created_at)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, string(res.Algorithm), res.IsPhishing, res.Confidence,
		string(featJSON), string(vecJSON), rec.CreatedAt.UnixNano(),
	)
	if err != nil {
		return nil, fmt.Errorf("history: insert detection: %w", err)
	}

	s.logger.Debug("detection recorded",
		logging.Field{Key: "id", Value: rec.ID},
		logging.Field{Key: "url", Value: rawURL})
	return rec, nil
}

// List returns the most recent records first. limit <= 0 means
// DefaultListLimit; larger values are capped at MaxListLimit.
func (s *Store) List(ctx context.Context, limit int) ([]DetectionRecord, error) {
	if limit <= 0 {
		limit = DefaultListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, url, algorithm, is_phishing, confidence, features, vector, created_at
         FROM detections
         ORDER BY created_at DESC, rowid DESC
         LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("history: list detections: %w", err)
	}
	defer rows.Close()

	out := []DetectionRecord{}
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *rec)
	}
	return out, rows.Err()
}

// Get returns the record with the given id or ErrRecordNotFound.
func (s *Store) Get(ctx context.Context, id string) (*DetectionRecord, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, url, algorithm, is_phishing, confidence, features, vector, created_at
         FROM detections
         WHERE id = ?
         LIMIT 1`, id)
	rec, err := scanRecord(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrRecordNotFound
	}
	return rec, err
}

func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(sc scanner) (*DetectionRecord, error) {
	var (
		rec       DetectionRecord
		algorithm string
		featJSON  string
		vecJSON   string
		createdAt int64
	)
	if err := sc.Scan(&rec.ID, &rec.URL, &algorithm,
		&rec.Result.IsPhishing, &rec.Result.Confidence, &featJSON, &vecJSON, &createdAt); err != nil {
		return nil, err
	}

	var feat features.RawFeatures
	if err := json.Unmarshal([]byte(featJSON), &feat); err != nil {
		return nil, fmt.Errorf("history: decode features of %s: %w", rec.ID, err)
	}
	var vec features.Vector
	if err := json.Unmarshal([]byte(vecJSON), &vec); err != nil {
		return nil, fmt.Errorf("history: decode vector of %s: %w", rec.ID, err)
	}

	rec.Result.Algorithm = models.Algorithm(algorithm)
	rec.Result.Features = feat
	rec.Result.Vector = vec
	rec.CreatedAt = time.Unix(0, createdAt).UTC()
	return &rec, nil
}
