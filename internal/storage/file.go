package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"inklore/server/internal/config"
	"inklore/server/internal/interfaces"
)

const saveExt = ".json"

// FileStore keeps one JSON file per adventure inside a saves directory.
type FileStore struct {
	dir string
}

// NewFileStore creates the saves directory if needed.
func NewFileStore(cfg config.FileConfig) (*FileStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create saves dir: %w", err)
	}
	return &FileStore{dir: cfg.Dir}, nil
}

func (s *FileStore) path(key string) string {
	return filepath.Join(s.dir, key+saveExt)
}

// Save writes the record, overwriting any existing file for the key.
func (s *FileStore) Save(_ context.Context, key string, rec *interfaces.SaveRecord) error {
	data, err := encodeRecord(rec)
	if err != nil {
		return fmt.Errorf("failed to encode save record: %w", err)
	}
	if err := os.WriteFile(s.path(key), data, 0o644); err != nil {
		return fmt.Errorf("failed to write save record: %w", err)
	}
	return nil
}

// Load reads and decodes the record for a key.
func (s *FileStore) Load(_ context.Context, key string) (*interfaces.SaveRecord, error) {
	data, err := os.ReadFile(s.path(key))
	if os.IsNotExist(err) {
		return nil, fmt.Errorf("%w: %s", ErrRecordNotFound, key)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read save record: %w", err)
	}
	return decodeRecord(data)
}

// List returns the keys of every stored record.
func (s *FileStore) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to read saves dir: %w", err)
	}

	keys := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), saveExt) {
			continue
		}
		keys = append(keys, strings.TrimSuffix(e.Name(), saveExt))
	}
	return keys, nil
}
