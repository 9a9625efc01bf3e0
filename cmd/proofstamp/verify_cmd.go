package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"time"

	"proofstamp/internal/config"
	"proofstamp/internal/infra/hasher"
	"proofstamp/internal/infra/ledgerstore"
	"proofstamp/internal/usecase"
)

func runVerify(args []string) int {
	fs := flag.NewFlagSet("verify", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var hashInput string
	var inPath string
	var viewer string
	fs.StringVar(&hashInput, "hash", "", "hash to verify")
	fs.StringVar(&inPath, "in", "", "file to hash and verify")
	fs.StringVar(&viewer, "viewer", "", "ledger partition to record the result under")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if hashInput == "" && inPath == "" {
		fmt.Fprintln(os.Stderr, "--hash or --in is required")
		return 1
	}
	if inPath != "" {
		svc := &hasher.Service{}
		digest, err := svc.HashFile(inPath)
		if err != nil {
			fmt.Fprintf(os.Stderr, "hash: %v\n", err)
			return 1
		}
		hashInput = digest
	}

	cfg := config.FromEnv()
	ctx := context.Background()
	gateway, err := dialGateway(ctx, cfg, nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	ledger, err := ledgerstore.Open(cfg.LedgerDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger: %v\n", err)
		return 1
	}

	wf := &usecase.VerifyWorkflow{
		Gateway: gateway,
		Ledger:  ledger,
		Viewer:  viewer,
	}
	result, err := wf.Execute(ctx, hashInput)
	if err != nil {
		fmt.Fprintf(os.Stderr, "verify: %v\n", err)
		return 1
	}

	if !result.Verified {
		fmt.Println("not found: no timestamp recorded for this hash")
		return 1
	}
	fmt.Println("verified")
	fmt.Printf("timestamp: %s (%d)\n", time.Unix(result.Timestamp, 0).UTC().Format(time.RFC3339), result.Timestamp)
	fmt.Printf("owner:     %s\n", result.Owner)
	return 0
}
