package store

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// fileVersion guards against records written by a newer build.
const fileVersion = 1

type fileRecord struct {
	Version int     `json:"version"`
	Session *Record `json:"session,omitempty"`
}

// FileStore persists the session record as a JSON file with
// restricted permissions. Writes are atomic (temp file + rename).
// This is the fallback backend for platforms without an OS keyring.
type FileStore struct {
	mu   sync.Mutex
	path string
}

// NewFileStore creates a store at the given path. The parent
// directory is created with 0700 permissions if it doesn't exist.
func NewFileStore(path string) (*FileStore, error) {
	if path == "" {
		return nil, fmt.Errorf("%w: empty path", ErrStoreUnavailable)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return nil, fmt.Errorf("%w: create directory: %v", ErrStoreUnavailable, err)
	}
	return &FileStore{path: path}, nil
}

// Path returns the store file path.
func (s *FileStore) Path() string {
	return s.path
}

// Save writes the record to disk, replacing any previous one.
func (s *FileStore) Save(rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(fileRecord{Version: fileVersion, Session: &rec}, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: marshal: %v", ErrSaveFailed, err)
	}

	tmpPath := s.path + ".tmp"

	f, err := os.OpenFile(tmpPath, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0600)
	if err != nil {
		return fmt.Errorf("%w: create temp: %v", ErrSaveFailed, err)
	}

	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: write: %v", ErrSaveFailed, err)
	}

	// Fsync before rename so a crash never leaves a torn record
	if err := f.Sync(); err != nil {
		_ = f.Close()
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: fsync: %v", ErrSaveFailed, err)
	}

	if err := f.Close(); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: close: %v", ErrSaveFailed, err)
	}

	if err := os.Rename(tmpPath, s.path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("%w: rename: %v", ErrSaveFailed, err)
	}

	return nil
}

// Load reads the stored record. A missing or empty file is not an
// error — there is simply no session to restore.
func (s *FileStore) Load() (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	f, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("%w: open: %v", ErrLoadFailed, err)
	}
	defer func() { _ = f.Close() }()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, fmt.Errorf("%w: read: %v", ErrLoadFailed, err)
	}
	if len(data) == 0 {
		return nil, nil
	}

	var fr fileRecord
	if err := json.Unmarshal(data, &fr); err != nil {
		return nil, fmt.Errorf("%w: corrupt record: %v", ErrLoadFailed, err)
	}
	if fr.Version > fileVersion {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrLoadFailed, fr.Version)
	}
	if fr.Session == nil {
		return nil, nil
	}
	return fr.Session, nil
}

// Clear removes the record file. Clearing an absent record is a no-op.
func (s *FileStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: %v", ErrClearFailed, err)
	}
	return nil
}
