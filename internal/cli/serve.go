package cli

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raysh454/phishlens/internal/logging"
	"github.com/raysh454/phishlens/internal/server"
)

const shutdownTimeout = 10 * time.Second

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the detection HTTP and WebSocket API",
	Long: `Serve starts the REST and WebSocket API. Detections are recorded to a
SQLite file when --history-db is given (or history.enabled is set in the
config file).

Examples:
  phishlens serve
  phishlens serve --listen 127.0.0.1:9090 --history-db ~/.config/phishlens/history.db
  PHISHLENS_TELEMETRY_ENABLED=true phishlens serve`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func runServe(cmd *cobra.Command, args []string) error {
	cfg := loadConfig()
	logger := newLogger(cmd, "info")

	srv, err := server.NewServer(server.Config{
		ListenAddr: cfg.Server.ListenAddr,
		AppConfig:  cfg,
		Logger:     logger,
	})
	if err != nil {
		return fmt.Errorf("creating server: %w", err)
	}
	defer srv.Close()

	parent := cmd.Context()
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpSrv := srv.HTTPServer()
	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", logging.Field{Key: "addr", Value: httpSrv.Addr})
		errCh <- httpSrv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return fmt.Errorf("serving on %s: %w", httpSrv.Addr, err)
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := httpSrv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down server: %w", err)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", ":8080", "HTTP listen address")
	serveCmd.Flags().String("history-db", "", "SQLite file to record detections in (enables history)")

	_ = viper.BindPFlag("listen", serveCmd.Flags().Lookup("listen"))
	_ = viper.BindPFlag("history.path", serveCmd.Flags().Lookup("history-db"))
}
