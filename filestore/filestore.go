// Package filestore persists uploaded document bytes on the local
// filesystem under opaque generated names, decoupling stored paths from the
// caller-declared filename.
package filestore

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

// Store writes uploaded documents into a single directory.
// It is safe for concurrent use; generated names never collide.
type Store struct {
	dir    string
	logger *slog.Logger
}

// New creates a Store rooted at dir, creating the directory if needed.
func New(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("documents directory is required")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating documents directory: %w", err)
	}
	return &Store{
		dir:    dir,
		logger: slog.Default().With("component", "filestore"),
	}, nil
}

// Save writes content to a new file named by a generated uuid with the given
// extension and returns its path.
func (s *Store) Save(content []byte, extension string) (string, error) {
	name := uuid.NewString() + extension
	path := filepath.Join(s.dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	s.logger.Debug("saved document file", "path", path, "bytes", len(content))
	return path, nil
}

// Delete removes a stored file. Deleting a missing file is a no-op.
// Returns true if a file was actually removed.
func (s *Store) Delete(path string) (bool, error) {
	err := os.Remove(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("removing %s: %w", path, err)
	}
	return true, nil
}

// Dir returns the directory documents are stored in.
func (s *Store) Dir() string { return s.dir }
