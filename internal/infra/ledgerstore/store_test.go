package ledgerstore

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"proofstamp/internal/domain"
)

func openTemp(t *testing.T) (*Store, string) {
	t.Helper()
	dir := t.TempDir()
	s, err := Open(dir)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	return s, dir
}

func record(viewer, hash string, source domain.DocumentSource) domain.DocumentRecord {
	return domain.DocumentRecord{
		ID:            domain.RecordID(viewer, hash, source),
		Name:          "doc",
		Hash:          hash,
		Source:        source,
		CreatedAt:     time.Now(),
		ViewerAddress: viewer,
	}
}

func TestUpsertIdempotent(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	rec := record("0xa", "0x01", domain.SourceTimestamp)

	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("first upsert: %v", err)
	}
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("second upsert: %v", err)
	}
	list, err := s.ListFor(ctx, "0xa")
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("want 1 record after duplicate upsert, got %d", len(list))
	}
}

func TestUpsertMergePreservesFields(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	rec := record("0xa", "0x01", domain.SourceTimestamp)
	rec.Name = "plan.pdf"
	rec.Status = domain.StatusPending

	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatalf("upsert: %v", err)
	}
	update := domain.DocumentRecord{
		ID:     rec.ID,
		TxHash: "0xabc",
		Status: domain.StatusConfirmed,
	}
	if err := s.Upsert(ctx, update); err != nil {
		t.Fatalf("merge upsert: %v", err)
	}

	list, _ := s.ListFor(ctx, "0xa")
	if len(list) != 1 {
		t.Fatalf("want 1 record, got %d", len(list))
	}
	got := list[0]
	if got.Name != "plan.pdf" {
		t.Errorf("merge dropped name: %q", got.Name)
	}
	if got.Hash != "0x01" {
		t.Errorf("merge dropped hash: %q", got.Hash)
	}
	if got.TxHash != "0xabc" || got.Status != domain.StatusConfirmed {
		t.Errorf("merge did not apply update: %+v", got)
	}
}

func TestListOrderMostRecentFirst(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	first := record("0xa", "0x01", domain.SourceTimestamp)
	second := record("0xa", "0x02", domain.SourceTimestamp)

	if err := s.Upsert(ctx, first); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, second); err != nil {
		t.Fatal(err)
	}
	list, _ := s.ListFor(ctx, "0xa")
	if len(list) != 2 {
		t.Fatalf("want 2 records, got %d", len(list))
	}
	if list[0].Hash != "0x02" || list[1].Hash != "0x01" {
		t.Errorf("listing not most-recent-first: %s, %s", list[0].Hash, list[1].Hash)
	}
}

func TestClearForIsolatesViewers(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()
	if err := s.Upsert(ctx, record("0xa", "0x01", domain.SourceTimestamp)); err != nil {
		t.Fatal(err)
	}
	if err := s.Upsert(ctx, record("0xb", "0x02", domain.SourceVerify)); err != nil {
		t.Fatal(err)
	}

	if err := s.ClearFor(ctx, "0xa"); err != nil {
		t.Fatalf("clear: %v", err)
	}
	a, _ := s.ListFor(ctx, "0xa")
	if len(a) != 0 {
		t.Errorf("viewer a should be empty, got %d records", len(a))
	}
	b, _ := s.ListFor(ctx, "0xb")
	if len(b) != 1 {
		t.Errorf("viewer b lost records: got %d, want 1", len(b))
	}
}

func TestPersistsAcrossReopen(t *testing.T) {
	s, dir := openTemp(t)
	ctx := context.Background()
	rec := record("0xa", "0x01", domain.SourceTimestamp)
	if err := s.Upsert(ctx, rec); err != nil {
		t.Fatal(err)
	}

	reopened, err := Open(dir)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	list, _ := reopened.ListFor(ctx, "0xa")
	if len(list) != 1 || list[0].ID != rec.ID {
		t.Errorf("ledger did not survive reopen: %+v", list)
	}
}

func TestVersionMismatchRefusedWithoutCorruption(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, StorageName+".json")
	original := []byte(`{"version":99,"documents":[{"id":"keep-me"}]}`)
	if err := os.WriteFile(path, original, 0o600); err != nil {
		t.Fatal(err)
	}

	_, err := Open(dir)
	if !errors.Is(err, domain.ErrLedgerVersion) {
		t.Fatalf("want ErrLedgerVersion, got %v", err)
	}

	after, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(after) != string(original) {
		t.Error("version mismatch must leave the file untouched")
	}
}

func TestConcurrentUpsertsLoseNothing(t *testing.T) {
	s, _ := openTemp(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	hashes := []string{"0x01", "0x02", "0x03", "0x04", "0x05", "0x06", "0x07", "0x08"}
	for _, h := range hashes {
		wg.Add(1)
		go func(h string) {
			defer wg.Done()
			if err := s.Upsert(ctx, record("0xa", h, domain.SourceTimestamp)); err != nil {
				t.Errorf("upsert %s: %v", h, err)
			}
		}(h)
	}
	wg.Wait()

	list, _ := s.ListFor(ctx, "0xa")
	if len(list) != len(hashes) {
		t.Errorf("lost records under concurrent upsert: got %d, want %d", len(list), len(hashes))
	}
}

func TestFileCarriesVersionTag(t *testing.T) {
	s, dir := openTemp(t)
	if err := s.Upsert(context.Background(), record("0xa", "0x01", domain.SourceTimestamp)); err != nil {
		t.Fatal(err)
	}
	data, err := os.ReadFile(filepath.Join(dir, StorageName+".json"))
	if err != nil {
		t.Fatal(err)
	}
	var file struct {
		Version int `json:"version"`
	}
	if err := json.Unmarshal(data, &file); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if file.Version != SchemaVersion {
		t.Errorf("persisted version %d, want %d", file.Version, SchemaVersion)
	}
}
