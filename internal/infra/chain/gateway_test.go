package chain

import (
	"context"
	"errors"
	"math/big"
	"strings"
	"testing"
	"time"

	"proofstamp/internal/domain"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
)

const (
	testChainID = int64(11155111)
	testKeyHex  = "4c0883a69102937d6231471b5dbb6204fe51296170827936ea5cce4b76994b0f"
)

var (
	testContract = "0x" + strings.Repeat("11", 20)
	testHash     = strings.Repeat("ab", 32)
)

type fakeBackend struct {
	chainID *big.Int

	callResult []byte
	callErr    error

	receipt    *types.Receipt
	receiptErr error

	sent *types.Transaction

	nonceCalls int
	sendCalls  int
	callCalls  int
}

func (f *fakeBackend) ChainID(ctx context.Context) (*big.Int, error) {
	return f.chainID, nil
}

func (f *fakeBackend) CallContract(ctx context.Context, call ethereum.CallMsg, blockNumber *big.Int) ([]byte, error) {
	f.callCalls++
	if f.callErr != nil {
		return nil, f.callErr
	}
	return f.callResult, nil
}

func (f *fakeBackend) PendingNonceAt(ctx context.Context, account common.Address) (uint64, error) {
	f.nonceCalls++
	return 7, nil
}

func (f *fakeBackend) SuggestGasPrice(ctx context.Context) (*big.Int, error) {
	return big.NewInt(1_000_000_000), nil
}

func (f *fakeBackend) EstimateGas(ctx context.Context, call ethereum.CallMsg) (uint64, error) {
	return 60_000, nil
}

func (f *fakeBackend) SendTransaction(ctx context.Context, tx *types.Transaction) error {
	f.sendCalls++
	f.sent = tx
	return nil
}

func (f *fakeBackend) TransactionReceipt(ctx context.Context, txHash common.Hash) (*types.Receipt, error) {
	if f.receiptErr != nil {
		return nil, f.receiptErr
	}
	return f.receipt, nil
}

type rejectingSigner struct{}

func (rejectingSigner) Address() common.Address { return common.Address{} }

func (rejectingSigner) SignTx(tx *types.Transaction, chainID *big.Int) (*types.Transaction, error) {
	return nil, domain.ErrUserRejected
}

func newTestGateway(t *testing.T, backend *fakeBackend, signer Signer) *Gateway {
	t.Helper()
	g, err := New(context.Background(), backend, testContract, testChainID, signer)
	if err != nil {
		t.Fatalf("new gateway: %v", err)
	}
	g.SetPollInterval(time.Millisecond)
	return g
}

func encodeUint256(v int64) []byte {
	return common.LeftPadBytes(big.NewInt(v).Bytes(), 32)
}

func encodeDocuments(hash common.Hash, ts int64, owner common.Address) []byte {
	out := make([]byte, 0, 96)
	out = append(out, hash.Bytes()...)
	out = append(out, encodeUint256(ts)...)
	out = append(out, common.LeftPadBytes(owner.Bytes(), 32)...)
	return out
}

func TestSubmitTimestamp(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(testChainID)}
	signer, err := NewKeySigner(testKeyHex)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	g := newTestGateway(t, backend, signer)

	txHash, err := g.SubmitTimestamp(context.Background(), testHash)
	if err != nil {
		t.Fatalf("submit: %v", err)
	}
	if backend.sent == nil {
		t.Fatal("no transaction sent")
	}
	if txHash != backend.sent.Hash().Hex() {
		t.Errorf("returned hash %s does not match sent transaction %s", txHash, backend.sent.Hash().Hex())
	}
	if to := backend.sent.To(); to == nil || *to != common.HexToAddress(testContract) {
		t.Errorf("transaction addressed to %v, want contract", to)
	}

	parsed := g.abi
	wantData, err := parsed.Pack("timestampDocument", common.HexToHash("0x"+testHash))
	if err != nil {
		t.Fatalf("pack expected calldata: %v", err)
	}
	if string(backend.sent.Data()) != string(wantData) {
		t.Error("calldata does not encode timestampDocument(hash)")
	}
}

func TestSubmitTimestampWrongNetwork(t *testing.T) {
	// endpoint is on mainnet, gateway expects sepolia
	backend := &fakeBackend{chainID: big.NewInt(1)}
	signer, err := NewKeySigner(testKeyHex)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	g := newTestGateway(t, backend, signer)

	_, err = g.SubmitTimestamp(context.Background(), testHash)
	if !errors.Is(err, domain.ErrWrongNetwork) {
		t.Fatalf("want ErrWrongNetwork, got %v", err)
	}
	if backend.nonceCalls != 0 || backend.sendCalls != 0 {
		t.Error("wrong-network refusal must happen before any transport call")
	}
}

func TestSubmitTimestampMalformedHash(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(testChainID)}
	signer, err := NewKeySigner(testKeyHex)
	if err != nil {
		t.Fatalf("new signer: %v", err)
	}
	g := newTestGateway(t, backend, signer)

	_, err = g.SubmitTimestamp(context.Background(), "abc")
	if !errors.Is(err, domain.ErrMalformedHash) {
		t.Fatalf("want ErrMalformedHash, got %v", err)
	}
	if backend.nonceCalls != 0 || backend.sendCalls != 0 {
		t.Error("malformed input must be rejected without transport calls")
	}
}

func TestSubmitTimestampUserRejected(t *testing.T) {
	backend := &fakeBackend{chainID: big.NewInt(testChainID)}
	g := newTestGateway(t, backend, rejectingSigner{})

	_, err := g.SubmitTimestamp(context.Background(), testHash)
	if !errors.Is(err, domain.ErrUserRejected) {
		t.Fatalf("want ErrUserRejected, got %v", err)
	}
	if backend.sendCalls != 0 {
		t.Error("rejected signature must not be sent")
	}
}

func TestAwaitConfirmationConfirmed(t *testing.T) {
	backend := &fakeBackend{
		chainID: big.NewInt(testChainID),
		receipt: &types.Receipt{Status: types.ReceiptStatusSuccessful},
	}
	g := newTestGateway(t, backend, nil)

	if err := g.AwaitConfirmation(context.Background(), "0xf00"); err != nil {
		t.Fatalf("await: %v", err)
	}
}

func TestAwaitConfirmationReverted(t *testing.T) {
	backend := &fakeBackend{
		chainID: big.NewInt(testChainID),
		receipt: &types.Receipt{Status: types.ReceiptStatusFailed},
	}
	g := newTestGateway(t, backend, nil)

	err := g.AwaitConfirmation(context.Background(), "0xf00")
	if !errors.Is(err, domain.ErrConfirmationFailed) {
		t.Fatalf("want ErrConfirmationFailed, got %v", err)
	}
}

func TestAwaitConfirmationTimeout(t *testing.T) {
	backend := &fakeBackend{
		chainID:    big.NewInt(testChainID),
		receiptErr: ethereum.NotFound,
	}
	g := newTestGateway(t, backend, nil)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	err := g.AwaitConfirmation(ctx, "0xf00")
	if !errors.Is(err, domain.ErrConfirmationTimeout) {
		t.Fatalf("want ErrConfirmationTimeout, got %v", err)
	}
}

func TestCheckConfirmationPending(t *testing.T) {
	backend := &fakeBackend{
		chainID:    big.NewInt(testChainID),
		receiptErr: ethereum.NotFound,
	}
	g := newTestGateway(t, backend, nil)

	status, err := g.CheckConfirmation(context.Background(), "0xf00")
	if err != nil {
		t.Fatalf("check: %v", err)
	}
	if status != domain.ConfirmationPending {
		t.Errorf("got %s, want pending", status)
	}
}

func TestReadTimestamp(t *testing.T) {
	backend := &fakeBackend{
		chainID:    big.NewInt(testChainID),
		callResult: encodeUint256(1700000000),
	}
	g := newTestGateway(t, backend, nil)

	ts, err := g.ReadTimestamp(context.Background(), testHash)
	if err != nil {
		t.Fatalf("read timestamp: %v", err)
	}
	if ts != 1700000000 {
		t.Errorf("got %d, want 1700000000", ts)
	}
}

func TestReadTimestampTransportFailure(t *testing.T) {
	backend := &fakeBackend{
		chainID: big.NewInt(testChainID),
		callErr: errors.New("connection refused"),
	}
	g := newTestGateway(t, backend, nil)

	_, err := g.ReadTimestamp(context.Background(), testHash)
	if !errors.Is(err, domain.ErrTransport) {
		t.Fatalf("want ErrTransport, got %v", err)
	}
	if !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("transport error text not passed through: %v", err)
	}
}

func TestReadRecord(t *testing.T) {
	owner := common.HexToAddress("0x" + strings.Repeat("aa", 20))
	backend := &fakeBackend{
		chainID:    big.NewInt(testChainID),
		callResult: encodeDocuments(common.HexToHash("0x"+testHash), 1700000000, owner),
	}
	g := newTestGateway(t, backend, nil)

	record, err := g.ReadRecord(context.Background(), "0x"+testHash)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if record.Hash != "0x"+testHash {
		t.Errorf("hash %s", record.Hash)
	}
	if record.Timestamp != 1700000000 {
		t.Errorf("timestamp %d", record.Timestamp)
	}
	if record.Owner != owner.Hex() {
		t.Errorf("owner %s, want %s", record.Owner, owner.Hex())
	}
	if !record.Exists() {
		t.Error("record with timestamp should exist")
	}
}

func TestReadRecordAbsent(t *testing.T) {
	backend := &fakeBackend{
		chainID:    big.NewInt(testChainID),
		callResult: encodeDocuments(common.Hash{}, 0, common.Address{}),
	}
	g := newTestGateway(t, backend, nil)

	record, err := g.ReadRecord(context.Background(), testHash)
	if err != nil {
		t.Fatalf("read record: %v", err)
	}
	if record.Exists() {
		t.Error("absent record reported as existing")
	}
	if record.Owner != "" {
		t.Errorf("zero owner should map to empty string, got %s", record.Owner)
	}
}
