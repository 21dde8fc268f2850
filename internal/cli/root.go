// Package cli implements the phishlens command line.
package cli

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raysh454/phishlens/internal/app"
	"github.com/raysh454/phishlens/internal/logging"
)

var (
	cfgFile  string
	quiet    bool
	output   string
	logLevel string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "phishlens",
	Short: "Score URLs for phishing traits",
	Long: `PhishLens reads lexical features off a URL (domain length, subdomains,
HTTPS, special characters, query parameters and so on), scales them into a
ten element vector and scores it with one of six fixed formula models.

Examples:
  phishlens detect https://secure-login.example.xyz/account/update
  phishlens detect --algorithm knn -o json https://example.com
  phishlens algorithms
  phishlens serve --listen :8080 --history-db ~/.config/phishlens/history.db`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags
// appropriately. This is called by main.main(). It only needs to happen once
// to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

func init() {
	cobra.OnInitialize(initConfig)

	defaults := app.DefaultConfig()

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.phishlens.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&quiet, "quiet", "q", false, "suppress log output")
	rootCmd.PersistentFlags().StringVarP(&output, "output", "o", "human", "output format (human, json)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error)")

	viper.SetDefault("latency", defaults.Detector.Latency)
	viper.SetDefault("listen", defaults.Server.ListenAddr)
	viper.SetDefault("history.enabled", defaults.History.Enabled)
	viper.SetDefault("history.path", "")
	viper.SetDefault("jobs.retention", defaults.Jobs.Retention)
	viper.SetDefault("jobs.event_buffer", defaults.Jobs.EventBuffer)
	viper.SetDefault("telemetry.enabled", defaults.Telemetry.Enabled)
	viper.SetDefault("telemetry.endpoint", defaults.Telemetry.Endpoint)
	viper.SetDefault("telemetry.service_name", defaults.Telemetry.ServiceName)
	viper.SetDefault("telemetry.metric_interval", defaults.Telemetry.MetricInterval)
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName(".phishlens")
	}

	viper.SetEnvPrefix("phishlens")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	err := viper.ReadInConfig()
	switch {
	case err == nil:
		if !quiet {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	case cfgFile != "":
		fmt.Fprintln(os.Stderr, "Warning: reading config file:", err)
	default:
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			fmt.Fprintln(os.Stderr, "Warning: reading config file:", err)
		}
	}
}

// loadConfig overlays viper values (flags, config file, PHISHLENS_*
// environment) on app.DefaultConfig.
func loadConfig() *app.Config {
	cfg := app.DefaultConfig()

	cfg.Detector.Latency = viper.GetDuration("latency")
	cfg.Server.ListenAddr = viper.GetString("listen")

	cfg.History.Enabled = viper.GetBool("history.enabled")
	if p := viper.GetString("history.path"); p != "" {
		cfg.History.Path = p
		cfg.History.Enabled = true
	}

	if d := viper.GetDuration("jobs.retention"); d > 0 {
		cfg.Jobs.Retention = d
	}
	if n := viper.GetInt("jobs.event_buffer"); n > 0 {
		cfg.Jobs.EventBuffer = n
	}

	cfg.Telemetry.Enabled = viper.GetBool("telemetry.enabled")
	cfg.Telemetry.Endpoint = viper.GetString("telemetry.endpoint")
	cfg.Telemetry.ServiceName = viper.GetString("telemetry.service_name")
	if d := viper.GetDuration("telemetry.metric_interval"); d > 0 {
		cfg.Telemetry.MetricInterval = d
	}

	if l := viper.GetString("log_level"); l != "" {
		cfg.LogLevel = l
	}
	return cfg
}

// newLogger writes JSON log lines to the command's stderr. fallback is the
// level used when neither --log-level nor the config sets one.
func newLogger(cmd *cobra.Command, fallback string) logging.Logger {
	level := fallback
	switch {
	case quiet:
		level = "error"
	case logLevel != "":
		level = logLevel
	case viper.IsSet("log_level"):
		level = viper.GetString("log_level")
	}
	return logging.NewLogger(cmd.ErrOrStderr(), "cli", level)
}

func validateOutput() error {
	switch output {
	case "human", "json":
		return nil
	default:
		return fmt.Errorf("unsupported output format %q (want human or json)", output)
	}
}
