package snapshot

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

const (
	snapshotsDir = "snapshots"
	indexFile    = "index.json"
)

// Store keeps discovery records under a root directory: one JSON file per
// record plus a listing index.
type Store struct {
	rootDir string
	index   *Index
}

// NewStore creates or opens a store at the given directory.
func NewStore(rootDir string) (*Store, error) {
	s := &Store{rootDir: rootDir}

	if err := os.MkdirAll(filepath.Join(rootDir, snapshotsDir), 0o755); err != nil {
		return nil, fmt.Errorf("create store directory: %w", err)
	}

	if err := s.loadIndex(); err != nil {
		s.index = &Index{
			Snapshots: []Summary{},
			UpdatedAt: time.Now(),
		}
	}
	return s, nil
}

// Save persists a record and updates the index.
func (s *Store) Save(rec *Record) error {
	recDir := filepath.Join(s.rootDir, snapshotsDir, rec.ID)
	if err := os.MkdirAll(recDir, 0o755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal snapshot: %w", err)
	}
	if err := os.WriteFile(filepath.Join(recDir, "snapshot.json"), data, 0o644); err != nil {
		return fmt.Errorf("write snapshot: %w", err)
	}

	s.index.Snapshots = append(s.index.Snapshots, rec.Summary())
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

// Load retrieves a record by ID.
func (s *Store) Load(id string) (*Record, error) {
	path := filepath.Join(s.rootDir, snapshotsDir, id, "snapshot.json")
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", id, err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("unmarshal snapshot %s: %w", id, err)
	}
	return &rec, nil
}

// List returns all record summaries, newest first.
func (s *Store) List() []Summary {
	result := make([]Summary, len(s.index.Snapshots))
	copy(result, s.index.Snapshots)

	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

// Delete removes a record.
func (s *Store) Delete(id string) error {
	if err := os.RemoveAll(filepath.Join(s.rootDir, snapshotsDir, id)); err != nil {
		return fmt.Errorf("remove snapshot dir: %w", err)
	}

	filtered := s.index.Snapshots[:0]
	for _, summary := range s.index.Snapshots {
		if summary.ID != id {
			filtered = append(filtered, summary)
		}
	}
	s.index.Snapshots = filtered
	s.index.UpdatedAt = time.Now()
	return s.saveIndex()
}

func (s *Store) loadIndex() error {
	data, err := os.ReadFile(filepath.Join(s.rootDir, indexFile))
	if err != nil {
		return err
	}
	s.index = &Index{}
	return json.Unmarshal(data, s.index)
}

func (s *Store) saveIndex() error {
	data, err := json.MarshalIndent(s.index, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(s.rootDir, indexFile), data, 0o644)
}
