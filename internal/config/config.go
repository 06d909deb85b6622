package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config はアプリケーション全体の設定を保持する。
// 環境変数から起動時に1回読み込み、イミュータブルとして扱う。
type Config struct {
	// Remote API
	APIBaseURL   string
	APILoginPath string
	APITimeout   time.Duration

	// Session
	SessionStore  string
	SessionMaxAge int
	RedisURL      string

	// Screens
	PageSize       int
	MaxUploadBytes int64

	// Assets
	AssetBaseURL      string
	AssetPresign      bool
	AssetPresignTTL   time.Duration
	S3Bucket          string
	S3Region          string
	S3Endpoint        string
	S3AccessKeyID     string
	S3SecretAccessKey string

	// Rate Limit
	RateLimitGeneral int
	RateLimitLogin   int

	// Logging
	LogLevel string

	// Tracing
	OTelEndpoint string
	OTelInsecure bool

	// Server
	ServerPort string
	BaseURL    string

	// Cookie
	CookieSecure bool
	CookieDomain string
}

// セッションストアの種別。
const (
	SessionStoreMemory = "memory"
	SessionStoreRedis  = "redis"
)

// Load は環境変数からConfigを読み込む。
// 必須環境変数が未設定の場合はエラーを返す。
func Load() (*Config, error) {
	cfg := &Config{}

	// Required fields
	var missing []string

	cfg.APIBaseURL = strings.TrimRight(os.Getenv("API_BASE_URL"), "/")
	if cfg.APIBaseURL == "" {
		missing = append(missing, "API_BASE_URL")
	}

	cfg.BaseURL = os.Getenv("BASE_URL")
	if cfg.BaseURL == "" {
		missing = append(missing, "BASE_URL")
	}

	if len(missing) > 0 {
		return nil, fmt.Errorf("required environment variables are not set: %v", missing)
	}

	// Optional fields with defaults
	cfg.APILoginPath = getEnvString("API_LOGIN_PATH", "/api/users/login")
	cfg.APITimeout = getEnvDuration("API_TIMEOUT", 0)
	cfg.SessionStore = strings.ToLower(getEnvString("SESSION_STORE", SessionStoreMemory))
	cfg.SessionMaxAge = getEnvInt("SESSION_MAX_AGE", 86400)
	cfg.RedisURL = getEnvString("REDIS_URL", "redis://localhost:6379/0")
	cfg.PageSize = getEnvInt("PAGE_SIZE", 5)
	cfg.MaxUploadBytes = getEnvInt64("MAX_UPLOAD_BYTES", 5242880)
	cfg.AssetBaseURL = strings.TrimRight(getEnvString("ASSET_BASE_URL", "https://abic-agent-bakit.s3.ap-southeast-1.amazonaws.com"), "/")
	cfg.AssetPresign = getEnvBool("ASSET_PRESIGN", false)
	cfg.AssetPresignTTL = getEnvDuration("ASSET_PRESIGN_TTL", 15*time.Minute)
	cfg.S3Bucket = getEnvString("S3_BUCKET", "abic-agent-bakit")
	cfg.S3Region = getEnvString("S3_REGION", "ap-southeast-1")
	cfg.S3Endpoint = getEnvString("S3_ENDPOINT", "")
	cfg.S3AccessKeyID = getEnvString("S3_ACCESS_KEY_ID", "")
	cfg.S3SecretAccessKey = getEnvString("S3_SECRET_ACCESS_KEY", "")
	cfg.RateLimitGeneral = getEnvInt("RATE_LIMIT_GENERAL", 120)
	cfg.RateLimitLogin = getEnvInt("RATE_LIMIT_LOGIN", 10)
	cfg.LogLevel = getEnvString("LOG_LEVEL", "info")
	cfg.OTelEndpoint = getEnvString("OTEL_EXPORTER_OTLP_ENDPOINT", "")
	cfg.OTelInsecure = getEnvBool("OTEL_EXPORTER_OTLP_INSECURE", false)
	cfg.ServerPort = getEnvString("SERVER_PORT", "8080")
	cfg.CookieSecure = strings.HasPrefix(cfg.BaseURL, "https://")
	cfg.CookieDomain = getEnvString("COOKIE_DOMAIN", "")

	if cfg.PageSize < 1 {
		cfg.PageSize = 5
	}

	if cfg.SessionStore != SessionStoreMemory && cfg.SessionStore != SessionStoreRedis {
		return nil, fmt.Errorf("unsupported SESSION_STORE %q (allowed: %s, %s)", cfg.SessionStore, SessionStoreMemory, SessionStoreRedis)
	}

	if cfg.AssetPresign && cfg.S3Bucket == "" {
		return nil, fmt.Errorf("S3_BUCKET is required when ASSET_PRESIGN is enabled")
	}

	return cfg, nil
}

func getEnvString(key, defaultVal string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return defaultVal
}

func getEnvInt(key string, defaultVal int) int {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(v)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvInt64(key string, defaultVal int64) int64 {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	i, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return defaultVal
	}
	return i
}

func getEnvBool(key string, defaultVal bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return defaultVal
	}
	return b
}

func getEnvDuration(key string, defaultVal time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return defaultVal
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return defaultVal
	}
	return d
}
