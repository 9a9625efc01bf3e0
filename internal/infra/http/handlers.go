package http

import (
	"errors"
	"io"
	"net/http"
	"strings"
	"time"

	"proofstamp/internal/domain"
	"proofstamp/internal/usecase"

	"github.com/gin-gonic/gin"
)

type errorResponse struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

type verifyResponse struct {
	Hash      string `json:"hash"`
	Verified  bool   `json:"verified"`
	Timestamp int64  `json:"timestamp,omitempty"`
	Owner     string `json:"owner,omitempty"`
}

type createDocumentRequest struct {
	Title     string         `json:"title"`
	Hash      string         `json:"hash"`
	TxHash    string         `json:"tx_hash,omitempty"`
	ContentID string         `json:"content_id,omitempty"`
	FileURL   string         `json:"file_url,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

func (s *Server) handleVerify(c *gin.Context) {
	if !s.enforceRateLimit(c, "verify") {
		return
	}
	if s.gateway == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "CHAIN_UNAVAILABLE", "no chain endpoint configured")
		return
	}
	hash := c.Query("hash")
	if hash == "" {
		writeErrorCode(c, http.StatusBadRequest, "MISSING_HASH", "hash query parameter is required")
		return
	}

	wf := &usecase.VerifyWorkflow{
		Gateway:  s.gateway,
		Cache:    s.cache,
		CacheTTL: s.cfg.VerifyCacheTTL(),
	}
	result, err := wf.Execute(c.Request.Context(), hash)
	if err != nil {
		writeError(c, err)
		return
	}
	canonical, _ := domain.NormalizeHash(hash)
	c.JSON(http.StatusOK, verifyResponse{
		Hash:      canonical,
		Verified:  result.Verified,
		Timestamp: result.Timestamp,
		Owner:     result.Owner,
	})
}

func (s *Server) handleUpload(c *gin.Context) {
	if !s.enforceRateLimit(c, "upload") {
		return
	}
	file, header, err := c.Request.FormFile("file")
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "MISSING_FILE", "multipart field 'file' is required")
		return
	}
	defer file.Close()

	maxBytes := s.cfg.UploadMaxBytes
	var reader io.Reader = file
	if maxBytes > 0 {
		reader = io.LimitReader(file, maxBytes+1)
	}
	data, err := io.ReadAll(reader)
	if err != nil {
		writeErrorCode(c, http.StatusBadRequest, "UPLOAD_READ_FAILED", "could not read uploaded file")
		return
	}
	if maxBytes > 0 && int64(len(data)) > maxBytes {
		writeErrorCode(c, http.StatusRequestEntityTooLarge, "TOO_LARGE", "uploaded file exceeds the size limit")
		return
	}

	contentType := header.Header.Get("Content-Type")
	if s.policy != nil {
		decision, err := s.policy.Evaluate(c.Request.Context(), domain.UploadPolicyInput{
			Name:      header.Filename,
			MediaType: contentType,
			SizeBytes: int64(len(data)),
			MaxBytes:  maxBytes,
		})
		if err != nil {
			writeError(c, err)
			return
		}
		if !decision.Allow {
			message := "upload rejected by policy"
			if len(decision.Deny) > 0 && decision.Deny[0].Message != "" {
				message = decision.Deny[0].Message
			}
			writeErrorCode(c, http.StatusUnprocessableEntity, "POLICY_DENIED", message)
			return
		}
	}

	digest, err := s.hasher.HashBytes(data)
	if err != nil {
		writeError(c, err)
		return
	}
	canonical, err := domain.NormalizeHash(digest)
	if err != nil {
		writeError(c, err)
		return
	}

	result := domain.UploadResult{
		Hash: canonical,
		Size: int64(len(data)),
		Type: contentType,
	}
	if s.blob != nil {
		key := strings.TrimPrefix(canonical, "0x") + "/" + header.Filename
		url, err := s.blob.Put(c.Request.Context(), key, contentType, data)
		if err != nil {
			writeErrorCode(c, http.StatusBadGateway, "BLOB_UNAVAILABLE", "could not store uploaded file")
			return
		}
		result.URL = url
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleListDocuments(c *gin.Context) {
	if s.docs == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "document metadata requires a database")
		return
	}
	docs, err := s.docs.ListByOwner(c.Request.Context(), ownerFrom(c))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"documents": docs})
}

func (s *Server) handleCreateDocument(c *gin.Context) {
	if s.docs == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "document metadata requires a database")
		return
	}
	var req createDocumentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	canonical, err := domain.NormalizeHash(req.Hash)
	if err != nil {
		writeError(c, err)
		return
	}

	doc, err := s.docs.Create(c.Request.Context(), domain.DocumentMetadata{
		Owner:     ownerFrom(c),
		Title:     req.Title,
		Hash:      canonical,
		TxHash:    req.TxHash,
		ContentID: req.ContentID,
		FileURL:   req.FileURL,
		Metadata:  req.Metadata,
		CreatedAt: time.Now().UTC(),
	})
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, doc)
}

func (s *Server) handleGetDocument(c *gin.Context) {
	if s.docs == nil {
		writeErrorCode(c, http.StatusServiceUnavailable, "DB_UNAVAILABLE", "document metadata requires a database")
		return
	}
	doc, err := s.docs.GetByID(c.Request.Context(), ownerFrom(c), c.Param("id"))
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, doc)
}

func writeError(c *gin.Context, err error) {
	status, code := http.StatusInternalServerError, "INTERNAL"
	switch {
	case errors.Is(err, domain.ErrMalformedHash):
		status, code = http.StatusBadRequest, "MALFORMED_HASH"
	case errors.Is(err, domain.ErrNoHash):
		status, code = http.StatusBadRequest, "NO_HASH"
	case errors.Is(err, domain.ErrWrongNetwork):
		status, code = http.StatusConflict, "WRONG_NETWORK"
	case errors.Is(err, domain.ErrUserRejected):
		status, code = http.StatusConflict, "USER_REJECTED"
	case errors.Is(err, domain.ErrPolicyDenied):
		status, code = http.StatusUnprocessableEntity, "POLICY_DENIED"
	case errors.Is(err, domain.ErrConfirmationTimeout):
		status, code = http.StatusGatewayTimeout, "CONFIRMATION_TIMEOUT"
	case errors.Is(err, domain.ErrConfirmationFailed):
		status, code = http.StatusBadGateway, "CONFIRMATION_FAILED"
	case errors.Is(err, domain.ErrTransport):
		status, code = http.StatusBadGateway, "UPSTREAM_UNAVAILABLE"
	case errors.Is(err, domain.ErrNotFound):
		status, code = http.StatusNotFound, "NOT_FOUND"
	case errors.Is(err, domain.ErrUnauthorized):
		status, code = http.StatusUnauthorized, "UNAUTHORIZED"
	}
	writeErrorCode(c, status, code, err.Error())
}

func writeErrorCode(c *gin.Context, status int, code, message string) {
	c.JSON(status, errorResponse{
		Code:    code,
		Message: message,
	})
}
