// Package scaffold creates the on-disk layout of a new hype project.
package scaffold

import (
	"embed"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

//go:embed templates/*
var templatesFS embed.FS

// FileInfo represents a file to be created during initialization
type FileInfo struct {
	Path        string
	Content     []byte
	Permissions os.FileMode
}

// outputDirs are created empty so the first run never fails on a missing
// directory.
var outputDirs = []string{
	"campaign-packages",
	"campaign-images",
	"campaign-digests",
	"logs",
}

// Initialize creates the hype project structure in the current directory.
// If force is true, an existing hype.yml is replaced.
func Initialize(force bool) error {
	if force {
		if err := handleForce(); err != nil {
			return err
		}
	}

	files, err := getTemplateFiles()
	if err != nil {
		return err
	}

	for _, dir := range outputDirs {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}

	for _, file := range files {
		if err := os.WriteFile(file.Path, file.Content, file.Permissions); err != nil {
			return fmt.Errorf("failed to write %s: %w", file.Path, err)
		}
	}

	return validateCreatedFiles()
}

// handleForce removes existing files if --force was specified
func handleForce() error {
	if _, err := os.Stat("hype.yml"); err == nil {
		fmt.Println("⚠️  Removing existing hype.yml...")
		if err := os.Remove("hype.yml"); err != nil {
			return fmt.Errorf("failed to remove hype.yml: %w", err)
		}
	}
	return nil
}

// getTemplateFiles reads and processes all template files
func getTemplateFiles() ([]FileInfo, error) {
	files := []FileInfo{}

	hypeYml, err := templatesFS.ReadFile("templates/hype.yml.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read hype.yml template: %w", err)
	}
	files = append(files, FileInfo{
		Path:        "hype.yml",
		Content:     hypeYml,
		Permissions: 0644,
	})

	envExample, err := templatesFS.ReadFile("templates/env.example.tmpl")
	if err != nil {
		return nil, fmt.Errorf("failed to read .env.example template: %w", err)
	}
	files = append(files, FileInfo{
		Path:        filepath.Join(".env.example"),
		Content:     envExample,
		Permissions: 0644,
	})

	return files, nil
}

// validateCreatedFiles validates that created files are correct
func validateCreatedFiles() error {
	content, err := os.ReadFile("hype.yml")
	if err != nil {
		return fmt.Errorf("failed to read created hype.yml: %w", err)
	}

	var yamlData interface{}
	if err := yaml.Unmarshal(content, &yamlData); err != nil {
		return fmt.Errorf("created hype.yml is not valid YAML: %w", err)
	}

	return nil
}

// PrintSuccess prints the success message with created files
func PrintSuccess() {
	fmt.Println("\n✅ Successfully initialized hype project!")
	fmt.Println("\nCreated:")
	fmt.Println("  ✓ hype.yml")
	fmt.Println("  ✓ .env.example")
	fmt.Println("  ✓ campaign-packages/ campaign-images/ campaign-digests/ logs/")
	fmt.Println("\nNext steps:")
	fmt.Println("  1. Edit hype.yml to configure your event sources")
	fmt.Println("  2. Copy .env.example to .env and set OPENAI_API_KEY")
	fmt.Println("  3. Run 'hype run' for a one-off run, or 'hype serve' for the daily schedule")
}
