package learning

import (
	"encoding/json"
	"fmt"
	"os"
)

// ModelStore persists model snapshots across process restarts.
type ModelStore interface {
	Save(snap *Snapshot) error
	Load() (*Snapshot, error)
}

// FileStore writes the model as JSON to a single file.
type FileStore struct {
	path string
}

// NewFileStore creates a file-backed model store.
func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

// Save writes the snapshot to disk.
func (s *FileStore) Save(snap *Snapshot) error {
	file, err := os.Create(s.path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %v", err)
	}
	defer file.Close()

	encoder := json.NewEncoder(file)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(snap); err != nil {
		return fmt.Errorf("failed to encode model: %v", err)
	}
	return nil
}

// Load reads a snapshot from disk. A missing file yields a nil snapshot
// and no error, so a fresh deployment starts cold without failing.
func (s *FileStore) Load() (*Snapshot, error) {
	file, err := os.Open(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open model file: %v", err)
	}
	defer file.Close()

	var snap Snapshot
	if err := json.NewDecoder(file).Decode(&snap); err != nil {
		return nil, fmt.Errorf("failed to decode model: %v", err)
	}
	return &snap, nil
}
