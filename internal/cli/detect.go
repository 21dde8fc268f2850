package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/raysh454/phishlens/internal/app"
	"github.com/raysh454/phishlens/internal/models"
)

var algorithmFlag string

// detectCmd represents the detect command
var detectCmd = &cobra.Command{
	Use:   "detect <url>",
	Short: "Score a URL for phishing traits",
	Long: `Detect extracts lexical features from the URL, normalizes them and scores
the vector with the chosen algorithm. Unknown algorithm names are scored with
random-forest.

Algorithms: knn, naive-bayes, adaboost, sgd, random-forest, decision-tree

Examples:
  phishlens detect https://example.com
  phishlens detect --algorithm decision-tree http://paypal-secure.verify123.xyz/login
  phishlens detect --latency 0 -o json https://example.com`,
	Args: cobra.ExactArgs(1),
	RunE: runDetect,
}

func runDetect(cmd *cobra.Command, args []string) error {
	if err := validateOutput(); err != nil {
		return err
	}
	target := args[0]

	cfg := loadConfig()
	logger := newLogger(cmd, "warn")

	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	a, err := app.NewApplication(ctx, cfg, logger)
	if err != nil {
		return fmt.Errorf("starting detector: %w", err)
	}
	defer a.Shutdown(context.Background())

	algorithm := viper.GetString("algorithm")
	res, err := a.Detect(ctx, target, algorithm)
	if err != nil {
		return fmt.Errorf("failed to detect %s: %w", target, err)
	}

	if output == "json" {
		return writeResultJSON(cmd.OutOrStdout(), target, res)
	}
	return writeResultHuman(cmd.OutOrStdout(), target, algorithm, res)
}

func init() {
	rootCmd.AddCommand(detectCmd)

	detectCmd.Flags().StringVarP(&algorithmFlag, "algorithm", "a", string(models.Fallback), "scoring algorithm")
	detectCmd.Flags().Duration("latency", time.Second, "simulated analysis delay")

	_ = viper.BindPFlag("algorithm", detectCmd.Flags().Lookup("algorithm"))
	_ = viper.BindPFlag("latency", detectCmd.Flags().Lookup("latency"))
}
