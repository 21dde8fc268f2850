package app

import (
	"os"
	"path/filepath"
	"time"

	"github.com/raysh454/phishlens/internal/detector"
	"github.com/raysh454/phishlens/internal/telemetry"
)

// Config is the runtime configuration shared by the CLI and the API server.
type Config struct {
	Server    ServerConfig
	Detector  detector.Config
	History   HistoryConfig
	Jobs      JobsConfig
	Telemetry telemetry.Config

	// LogLevel is one of debug, info, warn, error.
	LogLevel string
}

type ServerConfig struct {
	ListenAddr string
}

type HistoryConfig struct {
	Enabled bool
	// Path of the SQLite file. A leading "~" is expanded to the home directory.
	Path string
}

type JobsConfig struct {
	// Retention is how long finished jobs stay visible through GetJob/ListJobs.
	Retention time.Duration
	// EventBuffer is the capacity of each job's event channel. Events that do
	// not fit are dropped.
	EventBuffer int
}

// DefaultConfig returns a Config populated with sensible development defaults.
func DefaultConfig() *Config {
	return &Config{
		Server: ServerConfig{
			ListenAddr: ":8080",
		},
		Detector: detector.DefaultConfig(),
		History: HistoryConfig{
			Enabled: false,
			Path:    "~/.config/phishlens/history.db",
		},
		Jobs: JobsConfig{
			Retention:   10 * time.Minute,
			EventBuffer: 16,
		},
		Telemetry: telemetry.DefaultConfig(),
		LogLevel:  "info",
	}
}

// ExpandPath replaces a leading "~" with the user's home directory.
func ExpandPath(p string) (string, error) {
	if len(p) > 0 && p[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", err
		}
		return filepath.Join(home, p[1:]), nil
	}
	return p, nil
}
