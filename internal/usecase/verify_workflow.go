package usecase

import (
	"context"
	"fmt"
	"time"

	"proofstamp/internal/domain"
)

// VerifyWorkflow resolves a user-entered hash against the chain record. A
// verified result is mirrored into the viewer's ledger; a negative result and
// any transport failure leave the ledger untouched.
type VerifyWorkflow struct {
	Gateway  ChainGateway
	Ledger   DocumentLedger
	Cache    VerifyCache
	CacheTTL time.Duration
	Viewer   string
	Now      func() time.Time
}

func (w *VerifyWorkflow) Execute(ctx context.Context, input string) (domain.VerifyResult, error) {
	canonical, err := domain.NormalizeHash(input)
	if err != nil {
		return domain.VerifyResult{}, err
	}

	record, ok := w.cachedRecord(ctx, canonical)
	if !ok {
		record, err = w.Gateway.ReadRecord(ctx, canonical)
		if err != nil {
			return domain.VerifyResult{}, err
		}
		if record.Exists() && w.Cache != nil {
			// only positive results are cached: a timestamp is immutable once
			// set, while an absent record may appear at any moment
			_ = w.Cache.Put(ctx, canonical, record, w.CacheTTL)
		}
	}

	result := domain.VerifyResult{
		Verified:  record.Exists(),
		Timestamp: record.Timestamp,
		Owner:     record.Owner,
	}
	if !result.Verified {
		return result, nil
	}

	if w.Ledger != nil {
		viewer := w.viewer()
		rec := domain.DocumentRecord{
			ID:            domain.RecordID(viewer, canonical, domain.SourceVerify),
			Name:          domain.PlaceholderVerifyName,
			Hash:          canonical,
			Timestamp:     record.Timestamp,
			Owner:         record.Owner,
			Source:        domain.SourceVerify,
			Status:        domain.StatusConfirmed,
			CreatedAt:     w.now(),
			ViewerAddress: viewer,
		}
		if err := w.Ledger.Upsert(ctx, rec); err != nil {
			return result, fmt.Errorf("record verified hash: %w", err)
		}
	}
	return result, nil
}

func (w *VerifyWorkflow) cachedRecord(ctx context.Context, hash string) (domain.ChainRecord, bool) {
	if w.Cache == nil {
		return domain.ChainRecord{}, false
	}
	rec, ok, err := w.Cache.Get(ctx, hash)
	if err != nil || !ok || rec == nil {
		return domain.ChainRecord{}, false
	}
	return *rec, true
}

func (w *VerifyWorkflow) viewer() string {
	if w.Viewer == "" {
		return domain.GuestViewer
	}
	return w.Viewer
}

func (w *VerifyWorkflow) now() time.Time {
	if w.Now == nil {
		return time.Now()
	}
	return w.Now()
}
