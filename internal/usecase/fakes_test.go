package usecase

import (
	"context"
	"sync"
	"time"

	"proofstamp/internal/domain"
)

type fakeHasher struct {
	digest string
	err    error
}

func (f *fakeHasher) HashFile(path string) (string, error) {
	return f.digest, f.err
}

type fakeGateway struct {
	mu sync.Mutex

	submitTx    string
	submitErr   error
	submitCalls int

	awaitErr     error
	awaitRelease chan struct{}
	awaitCalls   int

	checkStatus domain.ConfirmationStatus
	checkErr    error

	readTS     int64
	readTSErr  error
	readRecord domain.ChainRecord
	readErr    error
	readCalls  int
}

func (f *fakeGateway) SubmitTimestamp(ctx context.Context, hash string) (string, error) {
	f.mu.Lock()
	f.submitCalls++
	f.mu.Unlock()
	if f.submitErr != nil {
		return "", f.submitErr
	}
	return f.submitTx, nil
}

func (f *fakeGateway) AwaitConfirmation(ctx context.Context, txHash string) error {
	f.mu.Lock()
	f.awaitCalls++
	release := f.awaitRelease
	f.mu.Unlock()
	if release != nil {
		select {
		case <-release:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	return f.awaitErr
}

func (f *fakeGateway) CheckConfirmation(ctx context.Context, txHash string) (domain.ConfirmationStatus, error) {
	if f.checkErr != nil {
		return "", f.checkErr
	}
	return f.checkStatus, nil
}

func (f *fakeGateway) ReadTimestamp(ctx context.Context, hash string) (int64, error) {
	return f.readTS, f.readTSErr
}

func (f *fakeGateway) ReadRecord(ctx context.Context, hash string) (domain.ChainRecord, error) {
	f.mu.Lock()
	f.readCalls++
	f.mu.Unlock()
	if f.readErr != nil {
		return domain.ChainRecord{}, f.readErr
	}
	return f.readRecord, nil
}

// fakeLedger keeps records in memory and remembers every upsert in order so
// tests can assert write sequencing.
type fakeLedger struct {
	mu        sync.Mutex
	records   map[string]domain.DocumentRecord
	history   []domain.DocumentRecord
	upsertErr error
}

func newFakeLedger() *fakeLedger {
	return &fakeLedger{records: map[string]domain.DocumentRecord{}}
}

func (f *fakeLedger) Upsert(ctx context.Context, rec domain.DocumentRecord) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.upsertErr != nil {
		return f.upsertErr
	}
	if existing, ok := f.records[rec.ID]; ok {
		rec = existing.Merge(rec)
	}
	f.records[rec.ID] = rec
	f.history = append(f.history, rec)
	return nil
}

func (f *fakeLedger) ListFor(ctx context.Context, viewer string) ([]domain.DocumentRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []domain.DocumentRecord
	for _, rec := range f.records {
		if rec.ViewerAddress == viewer {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeLedger) ClearFor(ctx context.Context, viewer string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for id, rec := range f.records {
		if rec.ViewerAddress == viewer {
			delete(f.records, id)
		}
	}
	return nil
}

func (f *fakeLedger) historyLen() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.history)
}

func (f *fakeLedger) get(id string) (domain.DocumentRecord, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	return rec, ok
}

type fakeCache struct {
	entries map[string]domain.ChainRecord
	puts    int
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: map[string]domain.ChainRecord{}}
}

func (f *fakeCache) Get(ctx context.Context, hash string) (*domain.ChainRecord, bool, error) {
	rec, ok := f.entries[hash]
	if !ok {
		return nil, false, nil
	}
	return &rec, true, nil
}

func (f *fakeCache) Put(ctx context.Context, hash string, rec domain.ChainRecord, ttl time.Duration) error {
	f.entries[hash] = rec
	f.puts++
	return nil
}
