package http

import (
	"context"
	"net/http"
	"time"

	"proofstamp/internal/config"
	"proofstamp/internal/domain"
	"proofstamp/internal/infra/db"
	"proofstamp/internal/usecase"

	"github.com/gin-gonic/gin"
)

// BlobStore is where uploaded document bytes land.
type BlobStore interface {
	Put(ctx context.Context, key string, contentType string, data []byte) (string, error)
}

// PolicyEngine decides whether an upload is acceptable.
type PolicyEngine interface {
	Evaluate(ctx context.Context, input domain.UploadPolicyInput) (domain.UploadPolicyResult, error)
}

// ByteHasher produces the canonical digest of uploaded bytes.
type ByteHasher interface {
	HashBytes(data []byte) (string, error)
}

type Server struct {
	cfg   config.Config
	store *db.Store
	r     *gin.Engine

	docs    *db.DocumentRepository
	gateway usecase.ChainGateway
	cache   usecase.VerifyCache
	blob    BlobStore
	policy  PolicyEngine
	hasher  ByteHasher

	nonces *nonceStore

	rateLimiter       domain.RateLimiter
	rateLimitRequests int
	rateLimitWindow   time.Duration
}

type ServerDeps struct {
	Store       *db.Store
	Gateway     usecase.ChainGateway
	Cache       usecase.VerifyCache
	Blob        BlobStore
	Policy      PolicyEngine
	Hasher      ByteHasher
	RateLimiter domain.RateLimiter
}

func NewServer(cfg config.Config, deps ServerDeps) *Server {
	r := gin.New()
	r.Use(gin.Recovery())

	s := &Server{
		cfg:         cfg,
		store:       deps.Store,
		r:           r,
		gateway:     deps.Gateway,
		cache:       deps.Cache,
		blob:        deps.Blob,
		policy:      deps.Policy,
		hasher:      deps.Hasher,
		rateLimiter: deps.RateLimiter,
		nonces:      newNonceStore(cfg.NonceTTL()),
	}
	if deps.Store != nil && deps.Store.DB != nil {
		s.docs = db.NewDocumentRepository(deps.Store.DB)
	}
	s.rateLimitRequests = cfg.RateLimitRequests
	s.rateLimitWindow = cfg.RateLimitWindow()
	s.routes()
	return s
}

func (s *Server) routes() {
	s.r.GET("/healthz", func(c *gin.Context) {
		dbMode := "no-db"
		if s.store.Available() {
			dbMode = "db"
		}
		chainMode := "off"
		if s.gateway != nil {
			chainMode = "on"
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok", "db": dbMode, "chain": chainMode})
	})

	v1 := s.r.Group("/v1")
	{
		v1.POST("/auth/nonce", s.handleAuthNonce)
		v1.POST("/auth/token", s.handleAuthToken)
		v1.GET("/verify", s.handleVerify)

		authed := v1.Group("")
		authed.Use(s.requireAuth)
		{
			authed.POST("/upload", s.handleUpload)
			authed.GET("/documents", s.handleListDocuments)
			authed.POST("/documents", s.handleCreateDocument)
			authed.GET("/documents/:id", s.handleGetDocument)
		}
	}

	s.r.NoRoute(func(c *gin.Context) {
		writeErrorCode(c, http.StatusNotFound, "NOT_FOUND", "route not found")
	})
}

func (s *Server) Run() error {
	return s.r.Run(s.cfg.HTTPAddr)
}

// Handler exposes the router for tests.
func (s *Server) Handler() http.Handler {
	return s.r
}
