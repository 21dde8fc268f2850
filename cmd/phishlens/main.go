// Command phishlens scores URLs for phishing traits and serves the
// detection API.
package main

import (
	"fmt"
	"os"

	"github.com/raysh454/phishlens/internal/cli"
)

func main() {
	if err := cli.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
