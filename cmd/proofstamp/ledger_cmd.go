package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"proofstamp/internal/config"
	"proofstamp/internal/domain"
	"proofstamp/internal/infra/ledgerstore"
	"proofstamp/internal/usecase"
)

func parseViewerFlag(name string, args []string) (string, bool) {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var viewer string
	fs.StringVar(&viewer, "viewer", domain.GuestViewer, "ledger partition")
	if err := fs.Parse(args); err != nil {
		return "", false
	}
	return viewer, true
}

func openLedger() (*ledgerstore.Store, bool) {
	cfg := config.FromEnv()
	ledger, err := ledgerstore.Open(cfg.LedgerDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger: %v\n", err)
		return nil, false
	}
	return ledger, true
}

func runLedgerList(args []string) int {
	viewer, ok := parseViewerFlag("ledger list", args)
	if !ok {
		return 1
	}
	ledger, ok := openLedger()
	if !ok {
		return 1
	}

	records, err := ledger.ListFor(context.Background(), viewer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "list: %v\n", err)
		return 1
	}
	if len(records) == 0 {
		fmt.Printf("no records for %s\n", viewer)
		return 0
	}
	for _, rec := range records {
		ts := "-"
		if rec.Timestamp > 0 {
			ts = time.Unix(rec.Timestamp, 0).UTC().Format(time.RFC3339)
		}
		fmt.Printf("%-10s %-9s %-20s %s %s\n", rec.Source, rec.Status, ts, rec.Hash, rec.Name)
	}
	return 0
}

func runLedgerClear(args []string) int {
	viewer, ok := parseViewerFlag("ledger clear", args)
	if !ok {
		return 1
	}
	ledger, ok := openLedger()
	if !ok {
		return 1
	}
	if err := ledger.ClearFor(context.Background(), viewer); err != nil {
		fmt.Fprintf(os.Stderr, "clear: %v\n", err)
		return 1
	}
	fmt.Printf("cleared records for %s\n", viewer)
	return 0
}

func runLedgerReconcile(args []string) int {
	viewer, ok := parseViewerFlag("ledger reconcile", args)
	if !ok {
		return 1
	}
	ledger, ok := openLedger()
	if !ok {
		return 1
	}

	cfg := config.FromEnv()
	ctx := context.Background()
	gateway, err := dialGateway(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}

	r := &usecase.PendingReconciler{Gateway: gateway, Ledger: ledger, Viewer: viewer}
	report, err := r.Run(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "reconcile: %v\n", err)
		return 1
	}
	fmt.Printf("checked %d pending: %d confirmed, %d failed, %d still pending\n",
		report.Checked, report.Confirmed, report.Failed, report.StillPending)
	return 0
}
