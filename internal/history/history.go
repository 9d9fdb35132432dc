// Package history keeps a ledger of completed package builds.
package history

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"time"

	"github.com/google/uuid"

	"github.com/decantlabs/decant/internal/buildenv"
	"github.com/decantlabs/decant/packaging"
)

// Record is one completed build.
type Record struct {
	ID        string           `json:"id"`
	Format    packaging.Format `json:"format"`
	Version   string           `json:"version"`
	Mode      buildenv.Mode    `json:"mode"`
	Artifact  string           `json:"artifact"`
	CreatedAt time.Time        `json:"created_at"`
}

// Store persists records as a JSON array on disk. A missing file reads
// as an empty ledger.
type Store struct {
	Path string
}

// Append adds a record to the ledger, assigning an ID and timestamp
// when the caller left them unset.
func (s *Store) Append(record Record) error {
	records, err := s.load()
	if err != nil {
		return err
	}

	if record.ID == "" {
		record.ID = uuid.NewString()
	}
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}

	return s.save(append(records, record))
}

// List returns all records, newest first.
func (s *Store) List() ([]Record, error) {
	records, err := s.load()
	if err != nil {
		return nil, err
	}

	sort.SliceStable(records, func(i, j int) bool {
		return records[i].CreatedAt.After(records[j].CreatedAt)
	})
	return records, nil
}

func (s *Store) load() ([]Record, error) {
	data, err := os.ReadFile(s.Path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading build history %s: %w", s.Path, err)
	}

	var records []Record
	if err := json.Unmarshal(data, &records); err != nil {
		return nil, fmt.Errorf("parsing build history %s: %w", s.Path, err)
	}
	return records, nil
}

func (s *Store) save(records []Record) error {
	data, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("encoding build history: %w", err)
	}
	if err := os.WriteFile(s.Path, data, 0o644); err != nil {
		return fmt.Errorf("writing build history %s: %w", s.Path, err)
	}
	return nil
}
