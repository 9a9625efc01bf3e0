package domain

// UploadPolicyInput is what the upload acceptance policy sees for each file.
type UploadPolicyInput struct {
	Name      string `json:"name"`
	MediaType string `json:"media_type"`
	SizeBytes int64  `json:"size_bytes"`
	MaxBytes  int64  `json:"max_bytes"`
}

type UploadPolicyDeny struct {
	Code    string `json:"code"`
	Message string `json:"message,omitempty"`
}

type UploadPolicyResult struct {
	Allow bool               `json:"allow"`
	Deny  []UploadPolicyDeny `json:"deny,omitempty"`
}
