package domain

import "time"

// DocumentMetadata is the server-side record kept for an uploaded document,
// scoped to the owner address that created it.
type DocumentMetadata struct {
	ID        string         `json:"id"`
	Owner     string         `json:"owner"`
	Title     string         `json:"title"`
	Hash      string         `json:"hash"`
	TxHash    string         `json:"tx_hash,omitempty"`
	ContentID string         `json:"content_id,omitempty"`
	FileURL   string         `json:"file_url,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// UploadResult is the response of the upload endpoint: the server-side hash
// of the stored bytes plus where the blob landed.
type UploadResult struct {
	Hash string `json:"hash"`
	URL  string `json:"url"`
	Size int64  `json:"size"`
	Type string `json:"type"`
}
