// Draftd is a retrieval and analysis daemon for AI-assisted writing.
//
// It chunks submitted manuscript content, extracts narrative signals
// (characters, themes, emotions, plot points), and serves ranked retrieval
// over the accumulated project memory via an HTTP API.
//
// Usage:
//
//	# Start server with defaults
//	draftd serve
//
//	# Configure via environment
//	DRAFTD_SERVER_PORT=9000 DRAFTD_PROVIDER_MODEL=gpt-4o-mini draftd serve
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

// Version information (set via ldflags during build)
var (
	version   = "dev"
	gitCommit = "unknown"
	buildDate = "unknown"
)

var configPath string

var rootCmd = &cobra.Command{
	Use:   "draftd",
	Short: "Retrieval and analysis daemon for AI-assisted writing",
	Long: `draftd ingests manuscript content, splits it into analyzed chunks, and
answers retrieval queries with semantic or keyword search over the result.`,
	Version: version,
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the draftd HTTP server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return runServe(cmd.Context())
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("draftd\n")
		fmt.Printf("Version:    %s\n", version)
		fmt.Printf("Commit:     %s\n", gitCommit)
		fmt.Printf("Build Date: %s\n", buildDate)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to config file (default ~/.config/draftd/config.yaml)")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(versionCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
