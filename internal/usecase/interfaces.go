package usecase

import (
	"context"
	"time"

	"proofstamp/internal/domain"
)

// Hasher fingerprints local files without the bytes leaving the machine.
type Hasher interface {
	HashFile(path string) (string, error)
}

// ChainGateway is the narrow surface of the external ledger contract.
type ChainGateway interface {
	SubmitTimestamp(ctx context.Context, hash string) (txHash string, err error)
	AwaitConfirmation(ctx context.Context, txHash string) error
	CheckConfirmation(ctx context.Context, txHash string) (domain.ConfirmationStatus, error)
	ReadTimestamp(ctx context.Context, hash string) (int64, error)
	ReadRecord(ctx context.Context, hash string) (domain.ChainRecord, error)
}

// DocumentLedger is the persisted, viewer-partitioned record list.
type DocumentLedger interface {
	Upsert(ctx context.Context, rec domain.DocumentRecord) error
	ListFor(ctx context.Context, viewer string) ([]domain.DocumentRecord, error)
	ClearFor(ctx context.Context, viewer string) error
}

// VerifyCache memoizes successful chain lookups. Timestamps are immutable
// once set, so positive results can be cached safely.
type VerifyCache interface {
	Get(ctx context.Context, hash string) (*domain.ChainRecord, bool, error)
	Put(ctx context.Context, hash string, record domain.ChainRecord, ttl time.Duration) error
}
