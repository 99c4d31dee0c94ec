package main

import (
	"fmt"
	"os"

	"github.com/dyluth/hype/cmd/hype/commands"
	"github.com/joho/godotenv"
)

// Version information - set during build
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	// Load .env if present; real environment wins over file values
	_ = godotenv.Load()

	// Set version information on root command
	commands.SetVersionInfo(version, commit, date)

	// Execute root command
	if err := commands.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
