package scanner

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// NormalizePath returns a canonical representation of a local file path.
//
// The normalization rules keep tracked files and history entries keyed the
// same way no matter how a path was entered:
//   - Surrounding whitespace is trimmed
//   - A leading "~" is expanded to the user's home directory
//   - Relative paths are made absolute against the working directory
//   - The path is cleaned (dot-segments resolved, duplicate separators collapsed)
//
// Symlinks are not resolved. An empty path is an error.
func NormalizePath(raw string) (string, error) {
	p := strings.TrimSpace(raw)
	if p == "" {
		return "", errors.New("empty path")
	}

	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("could not expand home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p, "~"))
	}

	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("could not make path absolute: %w", err)
	}

	return filepath.Clean(abs), nil
}
