package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/raysh454/phishlens/internal/models"
)

// algorithmsCmd represents the algorithms command
var algorithmsCmd = &cobra.Command{
	Use:   "algorithms",
	Short: "List the scoring algorithms and their benchmark figures",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := validateOutput(); err != nil {
			return err
		}
		if output == "json" {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(models.Catalog())
		}
		return writeCatalog(cmd.OutOrStdout(), models.Catalog())
	},
}

func writeCatalog(out io.Writer, infos []models.Info) error {
	best, hasBest := models.Best("accuracy")

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "NAME\tMODEL\tACCURACY\tPRECISION\tRECALL\tF1")
	fmt.Fprintln(w, "----\t-----\t--------\t---------\t------\t--")

	for _, info := range infos {
		name := string(info.Name)
		if info.Default {
			name += " (default)"
		}
		if hasBest && info.Name == best.Name {
			name += " *"
		}
		m := info.Metrics
		fmt.Fprintf(w, "%s\t%s\t%d%%\t%d%%\t%d%%\t%d%%\n",
			name, info.DisplayName, m.Accuracy, m.Precision, m.Recall, m.F1Score)
	}

	if err := w.Flush(); err != nil {
		return err
	}
	if hasBest {
		fmt.Fprintf(out, "\n* highest accuracy: %s (%d%%)\n", best.DisplayName, best.Metrics.Accuracy)
	}
	return nil
}

func init() {
	rootCmd.AddCommand(algorithmsCmd)
}
