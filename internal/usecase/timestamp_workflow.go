package usecase

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"proofstamp/internal/domain"
)

const defaultConfirmTimeout = 3 * time.Minute

// TimestampWorkflowConfig carries the per-instance knobs. Zero values get
// sensible defaults.
type TimestampWorkflowConfig struct {
	Viewer         string
	ConfirmTimeout time.Duration
	Now            func() time.Time
}

// TimestampWorkflow drives one file through hash, submission and
// confirmation:
//
//	Idle -> Hashing -> Hashed -> Submitting -> Pending -> Confirmed/Failed
//
// The confirmation await runs off the caller's goroutine and checks instance
// liveness before touching any state, so a torn-down workflow never mutates
// the ledger after Close. A ledger entry left Pending by teardown is settled
// later by the PendingReconciler.
type TimestampWorkflow struct {
	hasher  Hasher
	gateway ChainGateway
	ledger  DocumentLedger

	viewer         string
	confirmTimeout time.Duration
	now            func() time.Time

	ctx    context.Context
	cancel context.CancelFunc

	mu       sync.Mutex
	state    domain.TimestampState
	fileName string
	hash     string
	txHash   string
	lastErr  error
	closed   bool
	settled  chan struct{}
}

// TimestampSnapshot is a point-in-time view of the workflow for display.
type TimestampSnapshot struct {
	State    domain.TimestampState
	FileName string
	Hash     string
	TxHash   string
	Err      error
}

func NewTimestampWorkflow(hasher Hasher, gateway ChainGateway, ledger DocumentLedger, cfg TimestampWorkflowConfig) *TimestampWorkflow {
	if cfg.Viewer == "" {
		cfg.Viewer = domain.GuestViewer
	}
	if cfg.ConfirmTimeout <= 0 {
		cfg.ConfirmTimeout = defaultConfirmTimeout
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &TimestampWorkflow{
		hasher:         hasher,
		gateway:        gateway,
		ledger:         ledger,
		viewer:         cfg.Viewer,
		confirmTimeout: cfg.ConfirmTimeout,
		now:            cfg.Now,
		ctx:            ctx,
		cancel:         cancel,
		state:          domain.StateIdle,
		settled:        make(chan struct{}),
	}
}

// SelectFile hashes the file at path and moves the workflow to Hashed.
// Re-selecting before submission replaces the previous file; once a
// submission is in flight the file is fixed.
func (w *TimestampWorkflow) SelectFile(path string) (string, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return "", domain.ErrWorkflowClosed
	}
	if w.state != domain.StateIdle && w.state != domain.StateHashed {
		w.mu.Unlock()
		return "", fmt.Errorf("%w: select file in state %s", domain.ErrInvalidTransition, w.state)
	}
	w.state = domain.StateHashing
	w.mu.Unlock()

	digest, err := w.hasher.HashFile(path)

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return "", domain.ErrWorkflowClosed
	}
	if err != nil {
		// local hashing errors return to Idle; nothing was submitted
		w.state = domain.StateIdle
		return "", err
	}
	canonical, err := domain.NormalizeHash(digest)
	if err != nil {
		w.state = domain.StateIdle
		return "", err
	}
	w.state = domain.StateHashed
	w.hash = canonical
	w.fileName = filepath.Base(path)
	return canonical, nil
}

// Submit sends the hash to the chain. On acceptance the ledger gets a Pending
// record (chain timestamp approximated by local time, the real one is not
// known yet) and the confirmation await starts in the background. A
// wrong-network or rejected submission fails the workflow without creating
// any ledger entry.
func (w *TimestampWorkflow) Submit(ctx context.Context) (string, error) {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return "", domain.ErrWorkflowClosed
	}
	if w.state != domain.StateHashed {
		w.mu.Unlock()
		return "", fmt.Errorf("%w: submit in state %s", domain.ErrInvalidTransition, w.state)
	}
	w.state = domain.StateSubmitting
	hash := w.hash
	name := w.fileName
	w.mu.Unlock()

	txHash, err := w.gateway.SubmitTimestamp(ctx, hash)
	if err != nil {
		w.fail(err)
		return "", err
	}

	now := w.now()
	rec := domain.DocumentRecord{
		ID:            domain.RecordID(w.viewer, hash, domain.SourceTimestamp),
		Name:          name,
		Hash:          hash,
		Timestamp:     now.Unix(),
		TxHash:        txHash,
		Source:        domain.SourceTimestamp,
		Status:        domain.StatusPending,
		CreatedAt:     now,
		ViewerAddress: w.viewer,
	}
	if rec.Name == "" {
		rec.Name = domain.PlaceholderTimestampName
	}
	if w.viewer != domain.GuestViewer {
		rec.Owner = w.viewer
	}
	if err := w.ledger.Upsert(ctx, rec); err != nil {
		err = fmt.Errorf("record pending submission: %w", err)
		w.fail(err)
		return "", err
	}

	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return txHash, domain.ErrWorkflowClosed
	}
	w.state = domain.StatePending
	w.txHash = txHash
	w.mu.Unlock()

	go w.awaitConfirmation(rec.ID, hash, txHash)
	return txHash, nil
}

func (w *TimestampWorkflow) awaitConfirmation(recordID, hash, txHash string) {
	ctx, cancel := context.WithTimeout(w.ctx, w.confirmTimeout)
	defer cancel()

	err := w.gateway.AwaitConfirmation(ctx, txHash)

	var chainTS int64
	if err == nil {
		// best effort: replace the local-time approximation with the real
		// on-chain timestamp
		if ts, tsErr := w.gateway.ReadTimestamp(w.ctx, hash); tsErr == nil && ts > 0 {
			chainTS = ts
		}
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		// instance torn down while awaiting: the ledger entry stays Pending
		// for a later reconcile pass
		return
	}
	update := domain.DocumentRecord{ID: recordID}
	if err == nil {
		w.state = domain.StateConfirmed
		update.Status = domain.StatusConfirmed
		update.Timestamp = chainTS
	} else {
		w.state = domain.StateFailed
		w.lastErr = err
		update.Status = domain.StatusFailed
	}
	if upsertErr := w.ledger.Upsert(w.ctx, update); upsertErr != nil && w.lastErr == nil {
		w.lastErr = fmt.Errorf("record confirmation: %w", upsertErr)
	}
	close(w.settled)
}

// Wait blocks until the workflow reaches a terminal state or ctx expires,
// returning the terminal error if any.
func (w *TimestampWorkflow) Wait(ctx context.Context) error {
	w.mu.Lock()
	if w.state.Terminal() {
		err := w.lastErr
		w.mu.Unlock()
		return err
	}
	settled := w.settled
	w.mu.Unlock()

	select {
	case <-settled:
		w.mu.Lock()
		err := w.lastErr
		w.mu.Unlock()
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Close tears the instance down. An in-flight confirmation await exits
// without mutating workflow or ledger state.
func (w *TimestampWorkflow) Close() {
	w.mu.Lock()
	w.closed = true
	w.mu.Unlock()
	w.cancel()
}

// Snapshot returns the current observable state.
func (w *TimestampWorkflow) Snapshot() TimestampSnapshot {
	w.mu.Lock()
	defer w.mu.Unlock()
	return TimestampSnapshot{
		State:    w.state,
		FileName: w.fileName,
		Hash:     w.hash,
		TxHash:   w.txHash,
		Err:      w.lastErr,
	}
}

func (w *TimestampWorkflow) fail(err error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.closed {
		return
	}
	w.state = domain.StateFailed
	w.lastErr = err
	close(w.settled)
}
