package main

import (
	"context"
	"log"

	"proofstamp/internal/config"
	"proofstamp/internal/domain"
	"proofstamp/internal/infra/blob"
	"proofstamp/internal/infra/chain"
	"proofstamp/internal/infra/chaincache"
	"proofstamp/internal/infra/db"
	"proofstamp/internal/infra/hasher"
	httpinfra "proofstamp/internal/infra/http"
	"proofstamp/internal/infra/ratelimit"
	"proofstamp/internal/infra/uploadpolicy"
)

func main() {
	cfg := config.FromEnv()
	ctx := context.Background()

	store, err := db.NewStore(cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("failed to init store: %v", err)
	}
	if err := store.Migrate(); err != nil {
		log.Fatalf("failed to migrate: %v", err)
	}

	deps := httpinfra.ServerDeps{
		Store:  store,
		Hasher: &hasher.Service{},
		Cache:  chaincache.New(),
	}

	if cfg.RPCURL != "" && cfg.ContractAddress != "" {
		// the API only reads from the contract, so no signer is attached
		gateway, err := chain.Dial(ctx, cfg.RPCURL, cfg.ContractAddress, cfg.ChainID, nil)
		if err != nil {
			log.Fatalf("failed to dial chain: %v", err)
		}
		deps.Gateway = gateway
	} else {
		log.Printf("RPC_URL or CONTRACT_ADDRESS not set; verification disabled")
	}

	if cfg.S3Bucket != "" {
		blobStore, err := blob.NewS3Store(ctx, blob.S3Config{
			Region:    cfg.S3Region,
			Endpoint:  cfg.S3Endpoint,
			AccessKey: cfg.S3AccessKey,
			SecretKey: cfg.S3SecretKey,
			Bucket:    cfg.S3Bucket,
			PathStyle: cfg.S3PathStyle,
		})
		if err != nil {
			log.Fatalf("failed to init blob store: %v", err)
		}
		deps.Blob = blobStore
	} else {
		log.Printf("S3_BUCKET not set; uploads are hashed but not stored")
	}

	if cfg.UploadPolicyPath != "" {
		deps.Policy, err = uploadpolicy.NewEngineFromPath(ctx, cfg.UploadPolicyPath)
	} else {
		deps.Policy, err = uploadpolicy.NewEngine(ctx)
	}
	if err != nil {
		log.Fatalf("failed to load upload policy: %v", err)
	}

	if cfg.RateLimitRequests > 0 {
		var limiter domain.RateLimiter
		if cfg.RedisAddr != "" {
			limiter, err = ratelimit.NewRedisLimiter(cfg.RedisAddr, cfg.RedisPassword, cfg.RedisDB, nil)
			if err != nil {
				log.Fatalf("failed to init redis limiter: %v", err)
			}
		} else {
			limiter = ratelimit.NewMemoryLimiter(ratelimit.MemoryLimiterConfig{MaxKeys: cfg.RateLimitMaxKeys})
		}
		deps.RateLimiter = limiter
	}

	srv := httpinfra.NewServer(cfg, deps)
	log.Printf("listening on %s", cfg.HTTPAddr)
	if err := srv.Run(); err != nil {
		log.Fatalf("server exited: %v", err)
	}
}
