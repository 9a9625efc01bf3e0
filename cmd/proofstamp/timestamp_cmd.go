package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"proofstamp/internal/config"
	"proofstamp/internal/domain"
	"proofstamp/internal/infra/chain"
	"proofstamp/internal/infra/hasher"
	"proofstamp/internal/infra/ledgerstore"
	"proofstamp/internal/usecase"
)

func runHash(args []string) int {
	fs := flag.NewFlagSet("hash", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var inPath string
	fs.StringVar(&inPath, "in", "", "file to hash")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(os.Stderr, "--in is required")
		return 1
	}

	svc := &hasher.Service{}
	digest, err := svc.HashFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash: %v\n", err)
		return 1
	}
	fmt.Printf("0x%s\n", digest)
	return 0
}

func runTimestamp(args []string) int {
	fs := flag.NewFlagSet("timestamp", flag.ContinueOnError)
	fs.SetOutput(os.Stderr)
	var inPath string
	var assumeYes bool
	fs.StringVar(&inPath, "in", "", "file to timestamp")
	fs.BoolVar(&assumeYes, "yes", false, "submit without confirmation prompt")
	if err := fs.Parse(args); err != nil {
		return 1
	}
	if inPath == "" {
		fmt.Fprintln(os.Stderr, "--in is required")
		return 1
	}

	cfg := config.FromEnv()
	if cfg.PrivateKeyHex == "" {
		fmt.Fprintln(os.Stderr, "PRIVATE_KEY is required to submit a timestamp")
		return 1
	}
	signer, err := chain.NewKeySigner(cfg.PrivateKeyHex)
	if err != nil {
		fmt.Fprintf(os.Stderr, "load key: %v\n", err)
		return 1
	}
	viewer := strings.ToLower(signer.Address().Hex())

	ctx := context.Background()
	gateway, err := dialGateway(ctx, cfg, signer)
	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		return 1
	}
	ledger, err := ledgerstore.Open(cfg.LedgerDir)
	if err != nil {
		fmt.Fprintf(os.Stderr, "open ledger: %v\n", err)
		return 1
	}

	wf := usecase.NewTimestampWorkflow(&hasher.Service{}, gateway, ledger, usecase.TimestampWorkflowConfig{
		Viewer:         viewer,
		ConfirmTimeout: cfg.ConfirmTimeout(),
	})
	defer wf.Close()

	hash, err := wf.SelectFile(inPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "hash: %v\n", err)
		return 1
	}
	fmt.Printf("file:    %s\n", inPath)
	fmt.Printf("sha-256: %s\n", hash)
	fmt.Printf("network: chain id %d\n", gateway.ExpectedChainID())

	if !assumeYes && !confirm("submit this hash to the contract?") {
		fmt.Fprintln(os.Stderr, "aborted:", domain.ErrUserRejected)
		return 1
	}

	txHash, err := wf.Submit(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "submit: %v\n", err)
		return 1
	}
	fmt.Printf("tx:      %s\n", txHash)
	fmt.Println("waiting for confirmation...")

	if err := wf.Wait(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "confirmation: %v\n", err)
		fmt.Fprintln(os.Stderr, "the submission stays pending in the ledger; run 'ledger reconcile' later")
		return 1
	}
	fmt.Println("confirmed")
	return 0
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	reader := bufio.NewReader(os.Stdin)
	line, err := reader.ReadString('\n')
	if err != nil {
		return false
	}
	answer := strings.ToLower(strings.TrimSpace(line))
	return answer == "y" || answer == "yes"
}

func dialGateway(ctx context.Context, cfg config.Config, signer chain.Signer) (*chain.Gateway, error) {
	if cfg.RPCURL == "" || cfg.ContractAddress == "" {
		return nil, fmt.Errorf("RPC_URL and CONTRACT_ADDRESS are required")
	}
	gateway, err := chain.Dial(ctx, cfg.RPCURL, cfg.ContractAddress, cfg.ChainID, signer)
	if err != nil {
		return nil, fmt.Errorf("dial chain: %w", err)
	}
	return gateway, nil
}
