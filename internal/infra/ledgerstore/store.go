// Package ledgerstore persists the viewer-scoped document ledger as a single
// versioned JSON file. Every mutation merges per record and writes through,
// so concurrent workflows in one process cannot lose each other's updates.
package ledgerstore

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"proofstamp/internal/domain"
)

const (
	// StorageName keys the on-disk file; it is part of the persisted schema.
	StorageName = "ip-timestamp-documents"
	// SchemaVersion tags the file so later shapes can be detected instead of
	// misread.
	SchemaVersion = 1
)

type ledgerFile struct {
	Version   int                     `json:"version"`
	Documents []domain.DocumentRecord `json:"documents"`
}

type Store struct {
	path string

	mu   sync.Mutex
	docs []domain.DocumentRecord
}

// Open loads the ledger from dir, creating an empty one if the file does not
// exist. A file with an unknown schema version is refused untouched rather
// than migrated or overwritten.
func Open(dir string) (*Store, error) {
	if dir == "" {
		return nil, fmt.Errorf("ledger dir is required")
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("create ledger dir: %w", err)
	}
	s := &Store{path: filepath.Join(dir, StorageName+".json")}

	data, err := os.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return s, nil
		}
		return nil, fmt.Errorf("read ledger: %w", err)
	}
	var file ledgerFile
	if err := json.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("decode ledger: %w", err)
	}
	if file.Version != SchemaVersion {
		return nil, fmt.Errorf("%w: found %d, want %d", domain.ErrLedgerVersion, file.Version, SchemaVersion)
	}
	s.docs = file.Documents
	return s, nil
}

// Upsert inserts a record or merges it into the existing one with the same
// id. New records are prepended so listings come back most-recent-first.
func (s *Store) Upsert(ctx context.Context, rec domain.DocumentRecord) error {
	if rec.ID == "" {
		return fmt.Errorf("record id is required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, existing := range s.docs {
		if existing.ID == rec.ID {
			s.docs[i] = existing.Merge(rec)
			return s.persistLocked()
		}
	}
	s.docs = append([]domain.DocumentRecord{rec}, s.docs...)
	return s.persistLocked()
}

// ListFor returns the records of one viewer partition in insertion order,
// most recent first.
func (s *Store) ListFor(ctx context.Context, viewer string) ([]domain.DocumentRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []domain.DocumentRecord
	for _, rec := range s.docs {
		if rec.ViewerAddress == viewer {
			out = append(out, rec)
		}
	}
	return out, nil
}

// ClearFor removes every record belonging to viewer. Other partitions are
// untouched.
func (s *Store) ClearFor(ctx context.Context, viewer string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	kept := s.docs[:0]
	for _, rec := range s.docs {
		if rec.ViewerAddress != viewer {
			kept = append(kept, rec)
		}
	}
	s.docs = kept
	return s.persistLocked()
}

// persistLocked writes the full ledger through a temp file and rename so a
// crash mid-write cannot leave a torn file.
func (s *Store) persistLocked() error {
	file := ledgerFile{Version: SchemaVersion, Documents: s.docs}
	data, err := json.MarshalIndent(file, "", "  ")
	if err != nil {
		return fmt.Errorf("encode ledger: %w", err)
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write ledger: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace ledger: %w", err)
	}
	return nil
}
