package scaffold

import (
	"fmt"
	"os"
)

// CheckExisting checks if hype.yml already exists.
// Returns an error if it does, nil otherwise.
func CheckExisting() error {
	if _, err := os.Stat("hype.yml"); err == nil {
		return fmt.Errorf("project already initialized\n\nFound existing: hype.yml\n\nUse 'hype init --force' to reinitialize (this will overwrite existing configuration)")
	}
	return nil
}
