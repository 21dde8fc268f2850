package server

import (
	"github.com/raysh454/phishlens/internal/app"
	"github.com/raysh454/phishlens/internal/logging"
)

type Config struct {
	// ListenAddr is the HTTP listen address for the API server. Empty means
	// AppConfig.Server.ListenAddr.
	ListenAddr string

	// AppConfig configures the detector, history and jobs behind the API.
	// Nil means app.DefaultConfig().
	AppConfig *app.Config

	// Logger defaults to a stdout JSON logger.
	Logger logging.Logger
}
