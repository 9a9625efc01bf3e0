// Package chain is the gateway to the external proof-of-existence contract.
// It exposes the contract's three functions plus receipt polling and nothing
// else; conflict policy for re-submitted hashes is whatever the deployed
// contract decides.
package chain

import (
	"context"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"time"

	"proofstamp/internal/domain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
)

const contractABI = `[
  {"inputs":[{"internalType":"bytes32","name":"hash","type":"bytes32"}],"name":"timestampDocument","outputs":[],"stateMutability":"nonpayable","type":"function"},
  {"inputs":[{"internalType":"bytes32","name":"hash","type":"bytes32"}],"name":"verifyDocument","outputs":[{"internalType":"uint256","name":"","type":"uint256"}],"stateMutability":"view","type":"function"},
  {"inputs":[{"internalType":"bytes32","name":"","type":"bytes32"}],"name":"documents","outputs":[{"internalType":"bytes32","name":"hash","type":"bytes32"},{"internalType":"uint256","name":"timestamp","type":"uint256"},{"internalType":"address","name":"owner","type":"address"}],"stateMutability":"view","type":"function"}
]`

const defaultPollInterval = 5 * time.Second

// Backend is the slice of the Ethereum RPC surface the gateway uses.
// *ethclient.Client satisfies it.
type Backend interface {
	ChainID(ctx context.Context) (*big.Int, error)
	CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error)
	PendingNonceAt(ctx context.Context, account common.Address) (uint64, error)
	SuggestGasPrice(ctx context.Context) (*big.Int, error)
	EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error)
	SendTransaction(ctx context.Context, tx *types.Transaction) error
	TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error)
}

type Gateway struct {
	backend  Backend
	abi      abi.ABI
	contract common.Address

	expectedChainID *big.Int
	// chain id reported by the endpoint at construction time; the network
	// guard compares against this without another transport call.
	actualChainID *big.Int

	signer       Signer
	pollInterval time.Duration
}

// Dial connects to the RPC endpoint and builds a gateway against the contract
// at contractAddr. signer may be nil for a read-only gateway.
func Dial(ctx context.Context, rpcURL, contractAddr string, expectedChainID int64, signer Signer) (*Gateway, error) {
	client, err := ethclient.DialContext(ctx, rpcURL)
	if err != nil {
		return nil, fmt.Errorf("%w: dial %s: %v", domain.ErrTransport, rpcURL, err)
	}
	return New(ctx, client, contractAddr, expectedChainID, signer)
}

// New builds a gateway over an existing backend. The endpoint's chain id is
// read once here so later submissions can refuse a network mismatch without
// touching the transport.
func New(ctx context.Context, backend Backend, contractAddr string, expectedChainID int64, signer Signer) (*Gateway, error) {
	if !common.IsHexAddress(contractAddr) {
		return nil, fmt.Errorf("invalid contract address %q", contractAddr)
	}
	if expectedChainID <= 0 {
		return nil, fmt.Errorf("invalid expected chain id %d", expectedChainID)
	}
	parsed, err := abi.JSON(strings.NewReader(contractABI))
	if err != nil {
		return nil, fmt.Errorf("parse contract abi: %w", err)
	}
	actual, err := backend.ChainID(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: chain id: %v", domain.ErrTransport, err)
	}
	return &Gateway{
		backend:         backend,
		abi:             parsed,
		contract:        common.HexToAddress(contractAddr),
		expectedChainID: big.NewInt(expectedChainID),
		actualChainID:   actual,
		signer:          signer,
		pollInterval:    defaultPollInterval,
	}, nil
}

// SetPollInterval overrides the receipt polling cadence. Used by tests.
func (g *Gateway) SetPollInterval(d time.Duration) {
	if d > 0 {
		g.pollInterval = d
	}
}

// SubmitTimestamp asks the contract to record {hash, now, signer}. The
// contract silently keeps the existing record if one is already present for
// this hash; the gateway surfaces whatever the ledger decides.
func (g *Gateway) SubmitTimestamp(ctx context.Context, hash string) (string, error) {
	canonical, err := domain.NormalizeHash(hash)
	if err != nil {
		return "", err
	}
	if g.signer == nil {
		return "", errors.New("no signer configured")
	}
	if g.actualChainID.Cmp(g.expectedChainID) != 0 {
		return "", fmt.Errorf("%w: connected to chain %s, expected %s",
			domain.ErrWrongNetwork, g.actualChainID, g.expectedChainID)
	}

	data, err := g.abi.Pack("timestampDocument", common.HexToHash(canonical))
	if err != nil {
		return "", fmt.Errorf("pack calldata: %w", err)
	}
	from := g.signer.Address()

	nonce, err := g.backend.PendingNonceAt(ctx, from)
	if err != nil {
		return "", fmt.Errorf("%w: nonce: %v", domain.ErrTransport, err)
	}
	gasPrice, err := g.backend.SuggestGasPrice(ctx)
	if err != nil {
		return "", fmt.Errorf("%w: gas price: %v", domain.ErrTransport, err)
	}
	gasLimit, err := g.backend.EstimateGas(ctx, ethereum.CallMsg{
		From: from,
		To:   &g.contract,
		Data: data,
	})
	if err != nil {
		return "", fmt.Errorf("%w: estimate gas: %v", domain.ErrTransport, err)
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &g.contract,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})
	signed, err := g.signer.SignTx(tx, g.expectedChainID)
	if err != nil {
		if errors.Is(err, domain.ErrUserRejected) {
			return "", err
		}
		return "", fmt.Errorf("sign transaction: %w", err)
	}
	if err := g.backend.SendTransaction(ctx, signed); err != nil {
		return "", fmt.Errorf("%w: send transaction: %v", domain.ErrTransport, err)
	}
	return signed.Hash().Hex(), nil
}

// CheckConfirmation performs a single receipt lookup for a submitted
// transaction. A missing receipt is a pending transaction, not an error.
func (g *Gateway) CheckConfirmation(ctx context.Context, txHash string) (domain.ConfirmationStatus, error) {
	receipt, err := g.backend.TransactionReceipt(ctx, common.HexToHash(txHash))
	if err != nil {
		if errors.Is(err, ethereum.NotFound) {
			return domain.ConfirmationPending, nil
		}
		return "", fmt.Errorf("%w: receipt: %v", domain.ErrTransport, err)
	}
	if receipt.Status == types.ReceiptStatusSuccessful {
		return domain.ConfirmationConfirmed, nil
	}
	return domain.ConfirmationFailed, nil
}

// AwaitConfirmation polls the receipt until the transaction settles or ctx
// expires. Transient transport errors while polling are retried until the
// deadline.
func (g *Gateway) AwaitConfirmation(ctx context.Context, txHash string) error {
	ticker := time.NewTicker(g.pollInterval)
	defer ticker.Stop()
	for {
		status, err := g.CheckConfirmation(ctx, txHash)
		if err == nil {
			switch status {
			case domain.ConfirmationConfirmed:
				return nil
			case domain.ConfirmationFailed:
				return fmt.Errorf("%w: transaction %s reverted", domain.ErrConfirmationFailed, txHash)
			}
		}
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", domain.ErrConfirmationTimeout, ctx.Err())
		case <-ticker.C:
		}
	}
}

// ReadTimestamp returns the on-chain timestamp for hash in seconds, zero when
// no record exists.
func (g *Gateway) ReadTimestamp(ctx context.Context, hash string) (int64, error) {
	canonical, err := domain.NormalizeHash(hash)
	if err != nil {
		return 0, err
	}
	out, err := g.call(ctx, "verifyDocument", common.HexToHash(canonical))
	if err != nil {
		return 0, err
	}
	ts, ok := out[0].(*big.Int)
	if !ok {
		return 0, fmt.Errorf("unexpected verifyDocument output %T", out[0])
	}
	return ts.Int64(), nil
}

// ReadRecord returns the full on-chain record for hash. Owner is empty when
// the record does not exist.
func (g *Gateway) ReadRecord(ctx context.Context, hash string) (domain.ChainRecord, error) {
	canonical, err := domain.NormalizeHash(hash)
	if err != nil {
		return domain.ChainRecord{}, err
	}
	out, err := g.call(ctx, "documents", common.HexToHash(canonical))
	if err != nil {
		return domain.ChainRecord{}, err
	}
	if len(out) != 3 {
		return domain.ChainRecord{}, fmt.Errorf("unexpected documents output arity %d", len(out))
	}
	ts, ok := out[1].(*big.Int)
	if !ok {
		return domain.ChainRecord{}, fmt.Errorf("unexpected documents timestamp %T", out[1])
	}
	owner, ok := out[2].(common.Address)
	if !ok {
		return domain.ChainRecord{}, fmt.Errorf("unexpected documents owner %T", out[2])
	}
	record := domain.ChainRecord{
		Hash:      canonical,
		Timestamp: ts.Int64(),
	}
	if owner != (common.Address{}) {
		record.Owner = owner.Hex()
	}
	return record, nil
}

// ExpectedChainID reports the chain the gateway refuses to stray from.
func (g *Gateway) ExpectedChainID() int64 {
	return g.expectedChainID.Int64()
}

func (g *Gateway) call(ctx context.Context, method string, args ...any) ([]any, error) {
	data, err := g.abi.Pack(method, args...)
	if err != nil {
		return nil, fmt.Errorf("pack %s: %w", method, err)
	}
	raw, err := g.backend.CallContract(ctx, ethereum.CallMsg{To: &g.contract, Data: data}, nil)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", domain.ErrTransport, method, err)
	}
	out, err := g.abi.Unpack(method, raw)
	if err != nil {
		return nil, fmt.Errorf("unpack %s: %w", method, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("empty %s output", method)
	}
	return out, nil
}
