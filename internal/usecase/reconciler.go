package usecase

import (
	"context"

	"proofstamp/internal/domain"
)

// ReconcileReport summarizes one reconcile pass.
type ReconcileReport struct {
	Checked      int
	Confirmed    int
	Failed       int
	StillPending int
}

// PendingReconciler settles ledger entries left Pending by an interrupted
// timestamp workflow. Each pending submission is checked against its receipt;
// entries whose receipt cannot be fetched stay Pending for the next pass.
type PendingReconciler struct {
	Gateway ChainGateway
	Ledger  DocumentLedger
	Viewer  string
}

func (r *PendingReconciler) Run(ctx context.Context) (ReconcileReport, error) {
	viewer := r.Viewer
	if viewer == "" {
		viewer = domain.GuestViewer
	}
	records, err := r.Ledger.ListFor(ctx, viewer)
	if err != nil {
		return ReconcileReport{}, err
	}

	var report ReconcileReport
	for _, rec := range records {
		if rec.Source != domain.SourceTimestamp || rec.Status != domain.StatusPending || rec.TxHash == "" {
			continue
		}
		report.Checked++

		status, err := r.Gateway.CheckConfirmation(ctx, rec.TxHash)
		if err != nil {
			report.StillPending++
			continue
		}
		switch status {
		case domain.ConfirmationConfirmed:
			update := domain.DocumentRecord{ID: rec.ID, Status: domain.StatusConfirmed}
			if ts, tsErr := r.Gateway.ReadTimestamp(ctx, rec.Hash); tsErr == nil && ts > 0 {
				update.Timestamp = ts
			}
			if err := r.Ledger.Upsert(ctx, update); err != nil {
				return report, err
			}
			report.Confirmed++
		case domain.ConfirmationFailed:
			if err := r.Ledger.Upsert(ctx, domain.DocumentRecord{ID: rec.ID, Status: domain.StatusFailed}); err != nil {
				return report, err
			}
			report.Failed++
		default:
			report.StillPending++
		}
	}
	return report, nil
}
