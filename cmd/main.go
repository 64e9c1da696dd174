// scrape-service
//
// Scrapes L&D job listings from job-search and extraction APIs, normalizes
// them into canonical records and inserts the new ones into the jobs table.
// Work is split into batch windows over the (location × term) search space;
// each invocation processes one window and returns a cursor to resume from.
//
// Commands:
//   - serve:   HTTP (+ optional gRPC and cron) invocation surface
//   - run:     drive a full pass from the command line
//   - version: print the build version
package main

import (
	"fmt"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
)

const version = "1.0.0"

var rootCmd = &cobra.Command{
	Use:   "scrape-service",
	Short: "Job scraping, normalization and dedup pipeline for the L&D job board",
	Long: `scrape-service finds Learning & Development job listings, normalizes
them and stores the ones the board has not seen yet.

Examples:
  scrape-service serve                                  # HTTP on $SCRAPE_PORT
  scrape-service run                                    # full pass, default search space
  scrape-service run --term "Corporate Trainer" --location "Tampa, FL"
  scrape-service run --dry-run                          # no database writes
  scrape-service run --remote localhost:9093            # drive a deployed service`,
	SilenceUsage: true,
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version",
	Run: func(cmd *cobra.Command, _ []string) {
		fmt.Fprintf(cmd.OutOrStdout(), "scrape-service v%s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(runCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		if hint := errors.FlattenHints(err); hint != "" {
			fmt.Fprintf(os.Stderr, "hint: %s\n", hint)
		}
		os.Exit(1)
	}
}
