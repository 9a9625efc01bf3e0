package domain

import (
	"encoding/hex"
	"strings"
	"time"
)

// DocumentSource records how the viewer learned of a ledger entry: by
// submitting a new timestamp or by verifying an existing one.
type DocumentSource string

const (
	SourceTimestamp DocumentSource = "timestamp"
	SourceVerify    DocumentSource = "verify"
)

// DocumentStatus tracks a timestamp submission through confirmation. Records
// discovered via verify are already on-chain and carry no status.
type DocumentStatus string

const (
	StatusPending   DocumentStatus = "pending"
	StatusConfirmed DocumentStatus = "confirmed"
	StatusFailed    DocumentStatus = "failed"
)

// GuestViewer is the ledger partition used when no wallet address is
// configured.
const GuestViewer = "guest"

const (
	// PlaceholderTimestampName labels timestamp-flow records when the file
	// name is unknown.
	PlaceholderTimestampName = "Untitled Document"
	// PlaceholderVerifyName labels verify-flow records; the verify flow never
	// learns the original file name.
	PlaceholderVerifyName = "Verified Hash"
)

// DocumentRecord is one entry in the viewer's local document ledger.
type DocumentRecord struct {
	ID            string         `json:"id"`
	Name          string         `json:"name"`
	Hash          string         `json:"hash"`
	Timestamp     int64          `json:"timestamp"`
	Owner         string         `json:"owner,omitempty"`
	TxHash        string         `json:"tx_hash,omitempty"`
	Source        DocumentSource `json:"source"`
	Status        DocumentStatus `json:"status,omitempty"`
	CreatedAt     time.Time      `json:"created_at"`
	ViewerAddress string         `json:"viewer_address"`
}

// RecordID derives the ledger identity of a record. It is deterministic over
// (viewer, hash, source) so re-running the same flow merges instead of
// duplicating.
func RecordID(viewer, hash string, source DocumentSource) string {
	return viewer + "-" + hash + "-" + string(source)
}

// Merge applies update on top of r field-wise. Fields left zero in update
// keep their previous value, so a confirmation update cannot erase the name
// or hash recorded at submission time.
func (r DocumentRecord) Merge(update DocumentRecord) DocumentRecord {
	out := r
	if update.Name != "" {
		out.Name = update.Name
	}
	if update.Hash != "" {
		out.Hash = update.Hash
	}
	if update.Timestamp != 0 {
		out.Timestamp = update.Timestamp
	}
	if update.Owner != "" {
		out.Owner = update.Owner
	}
	if update.TxHash != "" {
		out.TxHash = update.TxHash
	}
	if update.Source != "" {
		out.Source = update.Source
	}
	if update.Status != "" {
		out.Status = update.Status
	}
	if !update.CreatedAt.IsZero() {
		out.CreatedAt = update.CreatedAt
	}
	if update.ViewerAddress != "" {
		out.ViewerAddress = update.ViewerAddress
	}
	return out
}

// NormalizeHash canonicalizes a user-supplied content hash to
// "0x" + 64 lowercase hex digits. Anything else is ErrMalformedHash; callers
// must reject before contacting the chain.
func NormalizeHash(input string) (string, error) {
	trimmed := strings.TrimSpace(input)
	if strings.HasPrefix(trimmed, "0x") || strings.HasPrefix(trimmed, "0X") {
		trimmed = trimmed[2:]
	}
	if len(trimmed) != 64 {
		return "", ErrMalformedHash
	}
	lower := strings.ToLower(trimmed)
	if _, err := hex.DecodeString(lower); err != nil {
		return "", ErrMalformedHash
	}
	return "0x" + lower, nil
}
