// Package logging configures process-wide logging: everything goes to both
// stderr and an append-only log file, so scheduled runs leave a durable
// trail even when nobody is watching the terminal.
package logging

import (
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"time"
)

// Setup tees the standard logger to stderr and the given append-only file,
// creating parent directories as needed. Returns a close function for the
// file handle.
func Setup(logFile string) (func() error, error) {
	if err := os.MkdirAll(filepath.Dir(logFile), 0755); err != nil {
		return nil, fmt.Errorf("create log dir: %w", err)
	}

	f, err := os.OpenFile(logFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("open log file: %w", err)
	}

	log.SetOutput(io.MultiWriter(os.Stderr, f))
	log.SetFlags(log.LstdFlags | log.LUTC)

	return f.Close, nil
}

// Event emits one structured JSON log line for machine consumption
// alongside the human-readable log output.
func Event(component, eventType string, data map[string]interface{}) {
	if data == nil {
		data = map[string]interface{}{}
	}
	data["timestamp"] = time.Now().UTC().Format(time.RFC3339)
	data["level"] = "info"
	data["component"] = component
	data["event_type"] = eventType

	jsonData, err := json.Marshal(data)
	if err != nil {
		log.Printf("[%s] Failed to marshal log event: %v", component, err)
		return
	}

	log.Println(string(jsonData))
}
