package cmd

import (
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/killallgit/sherpa/pkg/api"
	"github.com/killallgit/sherpa/pkg/config"
	"github.com/spf13/cobra"
)

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the CodeSherpa backend",
	Long:  `Call the backend health endpoint and report its status`,
	Run: func(cmd *cobra.Command, args []string) {
		cfg := config.Get()
		client := api.NewClient(cfg.API.BaseURL, cfg.API.Timeout)

		health, err := client.CheckHealthWithTimeout(cfg.API.Timeout)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error checking health: %v\n", err)
			os.Exit(1)
		}

		if err := printHealth(os.Stdout, client.BaseURL(), health); err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}
		if !health.Available {
			os.Exit(1)
		}
	},
}

func printHealth(writer io.Writer, baseURL string, health *api.HealthStatus) error {
	w := tabwriter.NewWriter(writer, 0, 0, 2, ' ', 0)
	fmt.Fprintf(w, "URL\t%s\n", baseURL)

	if !health.Available {
		fmt.Fprintf(w, "STATUS\tunavailable\n")
		fmt.Fprintf(w, "ERROR\t%v\n", health.Error)
		return w.Flush()
	}

	fmt.Fprintf(w, "STATUS\tok\n")
	fmt.Fprintf(w, "SERVICE\t%s\n", health.Service)
	fmt.Fprintf(w, "VERSION\t%s\n", health.Version)
	fmt.Fprintf(w, "LATENCY\t%dms\n", health.Latency.Milliseconds())
	return w.Flush()
}

func init() {
	rootCmd.AddCommand(healthCmd)
}
