package registry

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// ErrMalformedFile is returned when an update would overwrite a file that exists but does not parse
var ErrMalformedFile = errors.New("refusing to overwrite malformed file")

// LoadJSON reads path into v. A missing file or malformed JSON leaves v
// untouched and returns false.
func LoadJSON(path string, v any) bool {
	content, err := os.ReadFile(path)
	if err != nil {
		return false
	}
	if err := json.Unmarshal(content, v); err != nil {
		return false
	}
	return true
}

// checkParses returns ErrMalformedFile when path exists but does not decode into v.
// A missing file is fine.
func checkParses(path string, v any) error {
	if _, err := os.Stat(path); err != nil {
		return nil
	}
	if !LoadJSON(path, v) {
		return fmt.Errorf("%w: %s", ErrMalformedFile, path)
	}
	return nil
}

// SaveJSON writes v as indented JSON, creating parent directories
func SaveJSON(path string, v any) error {
	content, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", filepath.Base(path), err)
	}
	return writeFile(path, content)
}

// TextStore keeps a single trimmed value in a plain text file
type TextStore struct {
	filePath string
}

// NewTextStore creates a store backed by filePath
func NewTextStore(filePath string) *TextStore {
	return &TextStore{filePath: filePath}
}

// Path returns the backing file
func (s *TextStore) Path() string {
	return s.filePath
}

// Load returns the trimmed file content. A missing, unreadable or blank file reports false.
func (s *TextStore) Load() (string, bool) {
	content, err := os.ReadFile(s.filePath)
	if err != nil {
		return "", false
	}
	value := strings.TrimSpace(string(content))
	if value == "" {
		return "", false
	}
	return value, true
}

// Save writes the trimmed value, creating parent directories
func (s *TextStore) Save(value string) error {
	return writeFile(s.filePath, []byte(strings.TrimSpace(value)))
}

func writeFile(path string, content []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	if err := os.WriteFile(path, content, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", filepath.Base(path), err)
	}
	return nil
}
