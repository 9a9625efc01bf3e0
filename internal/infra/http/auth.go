package http

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"proofstamp/internal/domain"

	"github.com/ethereum/go-ethereum/accounts"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"
	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const ownerContextKey = "owner"

// nonceStore hands out single-use login nonces per wallet address.
type nonceStore struct {
	mu      sync.Mutex
	ttl     time.Duration
	entries map[string]nonceEntry
}

type nonceEntry struct {
	nonce     string
	expiresAt time.Time
}

func newNonceStore(ttl time.Duration) *nonceStore {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &nonceStore{ttl: ttl, entries: make(map[string]nonceEntry)}
}

func (n *nonceStore) issue(address string) (string, error) {
	raw := make([]byte, 16)
	if _, err := rand.Read(raw); err != nil {
		return "", err
	}
	nonce := hex.EncodeToString(raw)

	n.mu.Lock()
	defer n.mu.Unlock()
	n.entries[strings.ToLower(address)] = nonceEntry{
		nonce:     nonce,
		expiresAt: time.Now().Add(n.ttl),
	}
	return nonce, nil
}

// consume returns the live nonce for the address and removes it. A nonce is
// good for one token exchange.
func (n *nonceStore) consume(address string) (string, bool) {
	n.mu.Lock()
	defer n.mu.Unlock()
	key := strings.ToLower(address)
	entry, ok := n.entries[key]
	if !ok {
		return "", false
	}
	delete(n.entries, key)
	if time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.nonce, true
}

// loginMessage is what the wallet signs. The nonce binds the signature to
// one login attempt.
func loginMessage(address, nonce string) string {
	return fmt.Sprintf("proofstamp login\naddress: %s\nnonce: %s", strings.ToLower(address), nonce)
}

// verifyWalletSignature recovers the signer of an EIP-191 personal-sign
// message and checks it matches the claimed address.
func verifyWalletSignature(address, nonce, signatureHex string) error {
	if !common.IsHexAddress(address) {
		return fmt.Errorf("%w: invalid address", domain.ErrUnauthorized)
	}
	sig, err := hex.DecodeString(strings.TrimPrefix(signatureHex, "0x"))
	if err != nil || len(sig) != 65 {
		return fmt.Errorf("%w: malformed signature", domain.ErrUnauthorized)
	}
	// wallets emit V as 27/28, go-ethereum expects 0/1
	if sig[64] >= 27 {
		sig[64] -= 27
	}

	digest := accounts.TextHash([]byte(loginMessage(address, nonce)))
	pub, err := crypto.SigToPub(digest, sig)
	if err != nil {
		return fmt.Errorf("%w: signature recovery failed", domain.ErrUnauthorized)
	}
	recovered := crypto.PubkeyToAddress(*pub)
	if recovered != common.HexToAddress(address) {
		return fmt.Errorf("%w: signature does not match address", domain.ErrUnauthorized)
	}
	return nil
}

func (s *Server) issueToken(address string) (string, time.Time, error) {
	if s.cfg.AuthSecret == "" {
		return "", time.Time{}, fmt.Errorf("AUTH_SECRET is not configured")
	}
	expiresAt := time.Now().Add(s.cfg.AuthTTL())
	claims := jwt.RegisteredClaims{
		Subject:   strings.ToLower(address),
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
		Issuer:    "proofstamp",
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.AuthSecret))
	if err != nil {
		return "", time.Time{}, err
	}
	return signed, expiresAt, nil
}

func (s *Server) parseToken(raw string) (string, error) {
	token, err := jwt.ParseWithClaims(raw, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(s.cfg.AuthSecret), nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", fmt.Errorf("%w: %v", domain.ErrUnauthorized, err)
	}
	claims, ok := token.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", fmt.Errorf("%w: missing subject", domain.ErrUnauthorized)
	}
	return claims.Subject, nil
}

// requireAuth guards the owner-scoped routes.
func (s *Server) requireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if !strings.HasPrefix(header, "Bearer ") {
		writeError(c, fmt.Errorf("%w: missing bearer token", domain.ErrUnauthorized))
		c.Abort()
		return
	}
	owner, err := s.parseToken(strings.TrimPrefix(header, "Bearer "))
	if err != nil {
		writeError(c, err)
		c.Abort()
		return
	}
	c.Set(ownerContextKey, owner)
	c.Next()
}

func ownerFrom(c *gin.Context) string {
	owner, _ := c.Get(ownerContextKey)
	if addr, ok := owner.(string); ok {
		return addr
	}
	return ""
}

func (s *Server) handleAuthNonce(c *gin.Context) {
	if !s.enforceRateLimit(c, "auth:nonce") {
		return
	}
	var req struct {
		Address string `json:"address"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	if !common.IsHexAddress(req.Address) {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_ADDRESS", "address is not a hex address")
		return
	}
	nonce, err := s.nonces.issue(req.Address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"nonce":   nonce,
		"message": loginMessage(req.Address, nonce),
	})
}

func (s *Server) handleAuthToken(c *gin.Context) {
	if !s.enforceRateLimit(c, "auth:token") {
		return
	}
	var req struct {
		Address   string `json:"address"`
		Signature string `json:"signature"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		writeErrorCode(c, http.StatusBadRequest, "INVALID_JSON", "invalid json")
		return
	}
	nonce, ok := s.nonces.consume(req.Address)
	if !ok {
		writeError(c, fmt.Errorf("%w: no live nonce for address", domain.ErrUnauthorized))
		return
	}
	if err := verifyWalletSignature(req.Address, nonce, req.Signature); err != nil {
		writeError(c, err)
		return
	}
	token, expiresAt, err := s.issueToken(req.Address)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"token":      token,
		"expires_at": expiresAt.UTC().Format(time.RFC3339),
	})
}
