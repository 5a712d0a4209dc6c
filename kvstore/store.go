package kvstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
)

// FileName is the name of the backing file inside the data directory.
const FileName = "store.json"

// Store is a JSON object on disk mapping string keys to arbitrary values.
// Every Load reads the file again; there is no in-memory cache.
type Store struct {
	path   string
	logger *slog.Logger
}

// New returns a Store backed by the file at path.
func New(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}
	return &Store{
		path:   path,
		logger: logger.With("component", "kvstore"),
	}
}

// InDir returns a Store backed by FileName inside dir.
func InDir(dir string, logger *slog.Logger) *Store {
	return New(filepath.Join(dir, FileName), logger)
}

// Path returns the backing file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the store from disk. A missing file, invalid JSON, or a
// top-level value that is not an object all yield an empty map.
func (s *Store) Load() map[string]any {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if !os.IsNotExist(err) {
			s.logger.Warn("failed to read store", "path", s.path, "error", err)
		}
		return map[string]any{}
	}

	// Numbers stay as json.Number so untouched values are written back unchanged.
	dec := json.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()

	var parsed any
	err = dec.Decode(&parsed)
	if err == nil {
		if trailing := dec.Decode(&struct{}{}); trailing != io.EOF {
			err = errors.New("trailing data after JSON value")
		}
	}
	if err != nil {
		s.logger.Warn("ignoring corrupt store", "path", s.path, "error", err)
		return map[string]any{}
	}
	obj, ok := parsed.(map[string]any)
	if !ok {
		s.logger.Warn("ignoring store that is not a JSON object", "path", s.path)
		return map[string]any{}
	}
	return obj
}

// Save writes the store and logs any failure.
func (s *Store) Save(m map[string]any) {
	if err := s.Write(m); err != nil {
		s.logger.Warn("failed to save store", "path", s.path, "error", err)
	}
}

// Write serializes m as pretty-printed JSON and replaces the backing file.
func (s *Store) Write(m map[string]any) error {
	if m == nil {
		m = map[string]any{}
	}

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(m); err != nil {
		return fmt.Errorf("encoding store: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating store dir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".store-*.json")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replacing store: %w", err)
	}
	return nil
}
