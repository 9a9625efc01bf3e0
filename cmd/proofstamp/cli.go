package main

import (
	"fmt"
	"os"
	"path/filepath"
)

func main() {
	os.Exit(run(os.Args))
}

func run(args []string) int {
	if len(args) < 2 {
		usage(args)
		return 1
	}

	switch args[1] {
	case "hash":
		return runHash(args[2:])
	case "timestamp":
		return runTimestamp(args[2:])
	case "verify":
		return runVerify(args[2:])
	case "ledger":
		if len(args) >= 3 {
			switch args[2] {
			case "list":
				return runLedgerList(args[3:])
			case "clear":
				return runLedgerClear(args[3:])
			case "reconcile":
				return runLedgerReconcile(args[3:])
			}
		}
	}

	usage(args)
	return 1
}

func usage(args []string) {
	name := "proofstamp"
	if len(args) > 0 && args[0] != "" {
		name = filepath.Base(args[0])
	}
	fmt.Fprintf(os.Stderr, "usage:\n")
	fmt.Fprintf(os.Stderr, "  %s hash --in <file>\n", name)
	fmt.Fprintf(os.Stderr, "  %s timestamp --in <file> [--yes]\n", name)
	fmt.Fprintf(os.Stderr, "  %s verify (--hash <hex>|--in <file>)\n", name)
	fmt.Fprintf(os.Stderr, "  %s ledger list [--viewer <address>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s ledger clear [--viewer <address>]\n", name)
	fmt.Fprintf(os.Stderr, "  %s ledger reconcile [--viewer <address>]\n", name)
	fmt.Fprintf(os.Stderr, "\nchain access is configured through RPC_URL, CONTRACT_ADDRESS, CHAIN_ID and PRIVATE_KEY\n")
}
