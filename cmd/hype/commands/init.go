package commands

import (
	"fmt"

	"github.com/dyluth/hype/internal/scaffold"
	"github.com/spf13/cobra"
)

var (
	forceInit bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a new hype project",
	Long: `Initialize a new hype project with default configuration.

Creates:
  • hype.yml - Pipeline configuration file
  • .env.example - Template for the model API key
  • Output directories for packages, images, digests, and logs

Use --force to reinitialize an existing project (WARNING: overwrites existing configuration).`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().BoolVarP(&forceInit, "force", "f", false, "Force reinitialization (replaces existing hype.yml)")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	// Check for existing files (unless --force)
	if !forceInit {
		if err := scaffold.CheckExisting(); err != nil {
			return err
		}
	}

	if err := scaffold.Initialize(forceInit); err != nil {
		return fmt.Errorf("initialization failed: %w", err)
	}

	scaffold.PrintSuccess()

	return nil
}
