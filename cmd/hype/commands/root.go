package commands

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	version string
	commit  string
	date    string
)

// configPath is shared by every subcommand that needs hype.yml.
var configPath string

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "hype",
	Short: "Hype - AI marketing campaign pipeline for local events",
	Long: `Hype scans local event listings, scores each event's marketing
potential, and turns high-potential events into complete campaign
packages: a creative brief, ad copy, social posts, and a generated
campaign image, summarized in a daily markdown digest.

Hype runs a chain of specialized model-backed agents over Redis-tracked
runs, archiving every campaign for later inspection.`,
	Version: version,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() error {
	return rootCmd.Execute()
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = fmt.Sprintf("%s (commit: %s, built: %s)", v, c, d)
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "hype.yml", "Path to configuration file")
}
