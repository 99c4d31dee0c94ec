package scaffold

import (
	"os"
	"path/filepath"
	"testing"

	"gopkg.in/yaml.v3"
)

func TestInitialize(t *testing.T) {
	tests := []struct {
		name      string
		force     bool
		setupFunc func(string)
		wantErr   bool
	}{
		{
			name:  "fresh initialization",
			force: false,
			setupFunc: func(dir string) {
				// No setup needed - clean directory
			},
			wantErr: false,
		},
		{
			name:  "force initialization replaces existing config",
			force: true,
			setupFunc: func(dir string) {
				os.WriteFile(filepath.Join(dir, "hype.yml"), []byte("old content"), 0644)
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir, err := os.MkdirTemp("", "init-test-*")
			if err != nil {
				t.Fatal(err)
			}
			defer os.RemoveAll(tmpDir)

			originalDir, err := os.Getwd()
			if err != nil {
				t.Fatal(err)
			}
			defer os.Chdir(originalDir)

			if err := os.Chdir(tmpDir); err != nil {
				t.Fatal(err)
			}

			tt.setupFunc(tmpDir)

			err = Initialize(tt.force)

			if (err != nil) != tt.wantErr {
				t.Errorf("Initialize() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if !tt.wantErr {
				expectedFiles := []string{
					"hype.yml",
					".env.example",
				}
				for _, ef := range expectedFiles {
					if _, err := os.Stat(filepath.Join(tmpDir, ef)); err != nil {
						t.Errorf("Expected file %s to exist, but got error: %v", ef, err)
					}
				}

				for _, dir := range outputDirs {
					info, err := os.Stat(filepath.Join(tmpDir, dir))
					if err != nil {
						t.Errorf("Expected directory %s to exist, but got error: %v", dir, err)
						continue
					}
					if !info.IsDir() {
						t.Errorf("Expected %s to be a directory", dir)
					}
				}

				// Verify hype.yml is valid YAML
				content, err := os.ReadFile(filepath.Join(tmpDir, "hype.yml"))
				if err != nil {
					t.Errorf("Failed to read hype.yml: %v", err)
				}

				var yamlData interface{}
				if err := yaml.Unmarshal(content, &yamlData); err != nil {
					t.Errorf("hype.yml is not valid YAML: %v", err)
				}

				// If force was true, verify the old content was replaced
				if tt.force && string(content) == "old content" {
					t.Errorf("Expected hype.yml to be replaced, but old content remains")
				}
			}
		})
	}
}

func TestHandleForce(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(string)
		wantErr   bool
	}{
		{
			name: "removes existing hype.yml",
			setupFunc: func(dir string) {
				os.WriteFile(filepath.Join(dir, "hype.yml"), []byte("content"), 0644)
			},
			wantErr: false,
		},
		{
			name: "handles when files don't exist",
			setupFunc: func(dir string) {
				// No files to remove
			},
			wantErr: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir, err := os.MkdirTemp("", "force-test-*")
			if err != nil {
				t.Fatal(err)
			}
			defer os.RemoveAll(tmpDir)

			originalDir, err := os.Getwd()
			if err != nil {
				t.Fatal(err)
			}
			defer os.Chdir(originalDir)

			if err := os.Chdir(tmpDir); err != nil {
				t.Fatal(err)
			}

			tt.setupFunc(tmpDir)

			err = handleForce()

			if (err != nil) != tt.wantErr {
				t.Errorf("handleForce() error = %v, wantErr %v", err, tt.wantErr)
				return
			}

			if _, err := os.Stat(filepath.Join(tmpDir, "hype.yml")); err == nil {
				t.Errorf("hype.yml should have been removed")
			}
		})
	}
}

func TestGetTemplateFiles(t *testing.T) {
	files, err := getTemplateFiles()
	if err != nil {
		t.Fatalf("getTemplateFiles() error = %v", err)
	}

	expectedFiles := map[string]struct {
		permissions os.FileMode
	}{
		"hype.yml":     {0644},
		".env.example": {0644},
	}

	if len(files) != len(expectedFiles) {
		t.Errorf("getTemplateFiles() returned %d files, want %d", len(files), len(expectedFiles))
	}

	for _, file := range files {
		expected, ok := expectedFiles[file.Path]
		if !ok {
			t.Errorf("Unexpected file in template: %s", file.Path)
			continue
		}

		if file.Permissions != expected.permissions {
			t.Errorf("File %s has permissions %v, want %v", file.Path, file.Permissions, expected.permissions)
		}

		if len(file.Content) == 0 {
			t.Errorf("File %s has empty content", file.Path)
		}
	}
}

func TestValidateCreatedFiles(t *testing.T) {
	tests := []struct {
		name      string
		setupFunc func(string)
		wantErr   bool
	}{
		{
			name: "valid YAML",
			setupFunc: func(dir string) {
				validYaml := `version: '1.0'
sources:
  devto:
    url: 'https://example.com/events'
`
				os.WriteFile(filepath.Join(dir, "hype.yml"), []byte(validYaml), 0644)
			},
			wantErr: false,
		},
		{
			name: "invalid YAML",
			setupFunc: func(dir string) {
				invalidYaml := `version: '1.0'
sources:
  devto:
    url: 'https://example.com/events'
  - invalid syntax
`
				os.WriteFile(filepath.Join(dir, "hype.yml"), []byte(invalidYaml), 0644)
			},
			wantErr: true,
		},
		{
			name: "missing file",
			setupFunc: func(dir string) {
				// Don't create hype.yml
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tmpDir, err := os.MkdirTemp("", "validate-test-*")
			if err != nil {
				t.Fatal(err)
			}
			defer os.RemoveAll(tmpDir)

			originalDir, err := os.Getwd()
			if err != nil {
				t.Fatal(err)
			}
			defer os.Chdir(originalDir)

			if err := os.Chdir(tmpDir); err != nil {
				t.Fatal(err)
			}

			tt.setupFunc(tmpDir)

			err = validateCreatedFiles()

			if (err != nil) != tt.wantErr {
				t.Errorf("validateCreatedFiles() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
