package history

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/decantlabs/decant/internal/buildenv"
	"github.com/decantlabs/decant/packaging"
)

func TestStoreAppendAssignsIdentity(t *testing.T) {
	t.Parallel()

	store := &Store{Path: filepath.Join(t.TempDir(), "history.json")}
	record := Record{
		Format:   packaging.FormatDeb,
		Version:  "2.3.1",
		Mode:     buildenv.ModeContainerized,
		Artifact: "out/quill_2.3.1_amd64.deb",
	}

	if err := store.Append(record); err != nil {
		t.Fatalf("Append() error = %v", err)
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("List() returned %d records, want 1", len(records))
	}
	got := records[0]
	if got.ID == "" {
		t.Fatalf("Append() left record ID empty")
	}
	if got.CreatedAt.IsZero() {
		t.Fatalf("Append() left record timestamp empty")
	}
	if got.Format != packaging.FormatDeb || got.Version != "2.3.1" {
		t.Fatalf("round-tripped record = %+v", got)
	}
}

func TestStoreListsNewestFirst(t *testing.T) {
	t.Parallel()

	store := &Store{Path: filepath.Join(t.TempDir(), "history.json")}
	base := time.Date(2026, time.August, 1, 12, 0, 0, 0, time.UTC)

	for i, format := range []packaging.Format{packaging.FormatDeb, packaging.FormatRPM, packaging.FormatAppImage} {
		err := store.Append(Record{
			Format:    format,
			Version:   "2.3.1",
			Mode:      buildenv.ModeNative,
			CreatedAt: base.Add(time.Duration(i) * time.Hour),
		})
		if err != nil {
			t.Fatalf("Append(%s) error = %v", format, err)
		}
	}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("List() returned %d records, want 3", len(records))
	}
	if records[0].Format != packaging.FormatAppImage {
		t.Fatalf("newest record format = %s, want %s", records[0].Format, packaging.FormatAppImage)
	}
	if records[2].Format != packaging.FormatDeb {
		t.Fatalf("oldest record format = %s, want %s", records[2].Format, packaging.FormatDeb)
	}
}

func TestStoreMissingFileReadsEmpty(t *testing.T) {
	t.Parallel()

	store := &Store{Path: filepath.Join(t.TempDir(), "history.json")}

	records, err := store.List()
	if err != nil {
		t.Fatalf("List() error = %v", err)
	}
	if len(records) != 0 {
		t.Fatalf("List() on missing file returned %d records", len(records))
	}
}

func TestStoreRejectsCorruptLedger(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "history.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	store := &Store{Path: path}
	if _, err := store.List(); err == nil {
		t.Fatalf("List() accepted corrupt ledger")
	}
	if err := store.Append(Record{Format: packaging.FormatDeb}); err == nil {
		t.Fatalf("Append() accepted corrupt ledger")
	}
}
