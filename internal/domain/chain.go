package domain

// ChainRecord is the full on-chain record for a hash. Timestamp is zero and
// Owner empty when no record exists.
type ChainRecord struct {
	Hash      string `json:"hash"`
	Timestamp int64  `json:"timestamp"`
	Owner     string `json:"owner,omitempty"`
}

// Exists reports whether the ledger holds a record for this hash.
func (r ChainRecord) Exists() bool {
	return r.Timestamp > 0
}

// VerifyResult is what the verify flow surfaces to the caller.
type VerifyResult struct {
	Verified  bool   `json:"verified"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Owner     string `json:"owner,omitempty"`
}

// ConfirmationStatus is the outcome of a single receipt lookup for a
// submitted transaction.
type ConfirmationStatus string

const (
	ConfirmationPending   ConfirmationStatus = "pending"
	ConfirmationConfirmed ConfirmationStatus = "confirmed"
	ConfirmationFailed    ConfirmationStatus = "failed"
)
