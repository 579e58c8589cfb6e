// Package fileutil writes run output files.
package fileutil

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileExists checks if a file exists at the given path
func FileExists(filePath string) bool {
	info, err := os.Stat(filePath)
	if os.IsNotExist(err) {
		return false
	}
	return err == nil && !info.IsDir()
}

// WriteFileWithOverwrite writes data to a file, respecting the overwrite flag
// Returns true if the file was written, false if it was skipped
func WriteFileWithOverwrite(filePath string, data []byte, perm os.FileMode, overwrite bool) (bool, error) {
	if FileExists(filePath) && !overwrite {
		return false, nil
	}

	dir := filepath.Dir(filePath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return false, err
	}

	if err := os.WriteFile(filePath, data, perm); err != nil {
		return false, err
	}

	return true, nil
}

// WriteJSONFile writes data as indented JSON to a file, respecting the overwrite flag
// Returns true if the file was written, false if it was skipped
func WriteJSONFile(data any, filePath string, overwrite bool) (bool, error) {
	jsonData, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return false, fmt.Errorf("failed to marshal JSON: %w", err)
	}
	return writeEncoded("JSON", filePath, jsonData, overwrite)
}

// WriteYAMLFile writes data as YAML to a file, respecting the overwrite flag
// Returns true if the file was written, false if it was skipped
func WriteYAMLFile(data any, filePath string, overwrite bool) (bool, error) {
	yamlData, err := yaml.Marshal(data)
	if err != nil {
		return false, fmt.Errorf("failed to marshal YAML: %w", err)
	}
	return writeEncoded("YAML", filePath, yamlData, overwrite)
}

func writeEncoded(format, filePath string, data []byte, overwrite bool) (bool, error) {
	if FileExists(filePath) && !overwrite {
		slog.Info(format+" file already exists, skipping", "filename", filePath, "overwrite", overwrite)
		return false, nil
	}

	slog.Info("Writing "+format+" file", "filename", filePath, "overwrite", overwrite)
	written, err := WriteFileWithOverwrite(filePath, data, 0644, true)
	if err != nil {
		return false, fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return written, nil
}
