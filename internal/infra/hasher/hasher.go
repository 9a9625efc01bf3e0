// Package hasher computes local content fingerprints. File bytes never leave
// the machine.
package hasher

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"

	"proofstamp/internal/domain"
)

type Service struct{}

// HashFile returns the SHA-256 digest of the file at path as 64 lowercase hex
// digits. An empty file yields domain.ErrNoHash; there is nothing meaningful
// to timestamp.
func (s *Service) HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", fmt.Errorf("read %s: %w", path, err)
	}
	if n == 0 {
		return "", domain.ErrNoHash
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// HashBytes is the in-memory variant used by the upload endpoint.
func (s *Service) HashBytes(data []byte) (string, error) {
	if len(data) == 0 {
		return "", domain.ErrNoHash
	}
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:]), nil
}
