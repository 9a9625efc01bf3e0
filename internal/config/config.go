package config

import (
	"os"
	"strconv"
	"time"
)

// Sepolia is the default target network.
const DefaultChainID = 11155111

type Config struct {
	HTTPAddr    string
	PostgresDSN string

	RPCURL          string
	ContractAddress string
	ChainID         int64
	PrivateKeyHex   string

	LedgerDir             string
	ConfirmTimeoutSeconds int
	VerifyCacheTTLSeconds int

	AuthSecret      string
	AuthTTLMinutes  int
	NonceTTLSeconds int

	S3Region    string
	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3PathStyle bool

	UploadMaxBytes   int64
	UploadPolicyPath string

	RateLimitRequests      int
	RateLimitWindowSeconds int
	RateLimitMaxKeys       int

	RedisAddr     string
	RedisPassword string
	RedisDB       int
}

func FromEnv() Config {
	return Config{
		HTTPAddr:    envDefault("HTTP_ADDR", ":8080"),
		PostgresDSN: os.Getenv("POSTGRES_DSN"),

		RPCURL:          os.Getenv("RPC_URL"),
		ContractAddress: os.Getenv("CONTRACT_ADDRESS"),
		ChainID:         envInt64Default("CHAIN_ID", DefaultChainID),
		PrivateKeyHex:   os.Getenv("PRIVATE_KEY"),

		LedgerDir:             envDefault("LEDGER_DIR", defaultLedgerDir()),
		ConfirmTimeoutSeconds: envIntDefault("CONFIRM_TIMEOUT_SECONDS", 180),
		VerifyCacheTTLSeconds: envIntDefault("VERIFY_CACHE_TTL_SECONDS", 300),

		AuthSecret:      os.Getenv("AUTH_SECRET"),
		AuthTTLMinutes:  envIntDefault("AUTH_TTL_MINUTES", 60),
		NonceTTLSeconds: envIntDefault("NONCE_TTL_SECONDS", 300),

		S3Region:    envDefault("S3_REGION", "us-east-1"),
		S3Endpoint:  os.Getenv("S3_ENDPOINT"),
		S3AccessKey: os.Getenv("S3_ACCESS_KEY"),
		S3SecretKey: os.Getenv("S3_SECRET_KEY"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
		S3PathStyle: envBoolDefault("S3_PATH_STYLE", false),

		UploadMaxBytes:   envInt64Default("UPLOAD_MAX_BYTES", 25<<20),
		UploadPolicyPath: os.Getenv("UPLOAD_POLICY_PATH"),

		RateLimitRequests:      envIntDefault("RATE_LIMIT_REQUESTS", 0),
		RateLimitWindowSeconds: envIntDefault("RATE_LIMIT_WINDOW_SECONDS", 60),
		RateLimitMaxKeys:       envIntDefault("RATE_LIMIT_MAX_KEYS", 10000),

		RedisAddr:     os.Getenv("REDIS_ADDR"),
		RedisPassword: os.Getenv("REDIS_PASSWORD"),
		RedisDB:       envIntDefault("REDIS_DB", 0),
	}
}

func (c Config) ConfirmTimeout() time.Duration {
	if c.ConfirmTimeoutSeconds <= 0 {
		return 0
	}
	return time.Duration(c.ConfirmTimeoutSeconds) * time.Second
}

func (c Config) VerifyCacheTTL() time.Duration {
	if c.VerifyCacheTTLSeconds <= 0 {
		return 0
	}
	return time.Duration(c.VerifyCacheTTLSeconds) * time.Second
}

func (c Config) AuthTTL() time.Duration {
	if c.AuthTTLMinutes <= 0 {
		return time.Hour
	}
	return time.Duration(c.AuthTTLMinutes) * time.Minute
}

func (c Config) NonceTTL() time.Duration {
	if c.NonceTTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.NonceTTLSeconds) * time.Second
}

func (c Config) RateLimitWindow() time.Duration {
	if c.RateLimitWindowSeconds <= 0 {
		return time.Minute
	}
	return time.Duration(c.RateLimitWindowSeconds) * time.Second
}

func defaultLedgerDir() string {
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return ".proofstamp"
	}
	return home + "/.proofstamp"
}

func envDefault(key, def string) string {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	return v
}

func envIntDefault(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return parsed
}

func envInt64Default(key string, def int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	parsed, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return def
	}
	return parsed
}

func envBoolDefault(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	switch v {
	case "1", "true", "TRUE", "True", "yes", "YES", "Yes":
		return true
	case "0", "false", "FALSE", "False", "no", "NO", "No":
		return false
	default:
		return def
	}
}
