package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"math"
	"text/tabwriter"

	"github.com/raysh454/phishlens/internal/detector"
)

// detectOutput is the JSON shape printed by "detect -o json".
type detectOutput struct {
	URL               string           `json:"url"`
	ConfidencePercent int              `json:"confidencePercent"`
	Result            *detector.Result `json:"result"`
}

func confidencePercent(c float64) int {
	return int(math.Round(c * 100))
}

func verdictLabel(isPhishing bool) string {
	if isPhishing {
		return "Potential Phishing Site Detected"
	}
	return "Safe Website"
}

func writeResultJSON(out io.Writer, target string, res *detector.Result) error {
	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(detectOutput{
		URL:               target,
		ConfidencePercent: confidencePercent(res.Confidence),
		Result:            res,
	})
}

// writeResultHuman prints the result card. requested is the algorithm name
// the user asked for; a note is added when it resolved to another model.
func writeResultHuman(out io.Writer, target, requested string, res *detector.Result) error {
	fmt.Fprintln(out, verdictLabel(res.IsPhishing))
	fmt.Fprintf(out, "URL: %s\n", target)

	line := fmt.Sprintf("%s algorithm - %d%% confidence", res.Algorithm, confidencePercent(res.Confidence))
	if requested != "" && requested != string(res.Algorithm) {
		line += fmt.Sprintf(" (unknown algorithm %q)", requested)
	}
	fmt.Fprintln(out, line)
	fmt.Fprintln(out)
	fmt.Fprintln(out, "Features:")

	f := res.Features
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "  Domain length\t%d\n", f.DomainLength)
	fmt.Fprintf(w, "  Subdomain\t%s\n", yesNo(f.HasSubdomain))
	fmt.Fprintf(w, "  HTTPS\t%s\n", yesNo(f.HasHTTPS))
	fmt.Fprintf(w, "  Path length\t%d\n", f.PathLength)
	fmt.Fprintf(w, "  Special characters\t%s\n", yesNo(f.HasSpecialChars))
	fmt.Fprintf(w, "  Numbers\t%s\n", yesNo(f.HasNumbers))
	fmt.Fprintf(w, "  Dash\t%s\n", yesNo(f.HasDash))
	fmt.Fprintf(w, "  TLD length\t%d\n", f.TLDLength)
	fmt.Fprintf(w, "  Query parameters\t%d\n", f.QueryParamCount)
	fmt.Fprintf(w, "  Domain dots\t%d\n", f.DomainDotsCount)
	return w.Flush()
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}
