package infra

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// Config represents application configuration loaded from environment
// variables. It is constructed once in main and handed to each component;
// nothing reads the environment after startup.
type Config struct {
	AppEnv         string
	Port           string
	AllowedOrigins []string

	RedisURL    string
	JobsStream  string
	JobsIndex   string
	JobsStartID string

	OutDir       string
	VideoBaseURL string

	UseMinio       bool
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioBucket    string
	MinioURLExpiry time.Duration

	GenerationBaseURL string
	GenerationAPIKey  string
	GenerationModel   string
	OpenAIOrg         string
	OpenAIProject     string
	PollInterval      time.Duration
	PollTimeout       time.Duration

	WorkerConcurrency int
	TrimWindow        time.Duration

	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	HTTPReadTimeout  time.Duration
	HTTPWriteTimeout time.Duration
	HTTPIdleTimeout  time.Duration
}

// LoadConfig loads configuration from environment variables and applies
// defaults where needed.
func LoadConfig() (*Config, error) {
	cfg := &Config{
		AppEnv:         getEnv("APP_ENV", "development"),
		Port:           getEnv("PORT", "8080"),
		AllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "*")),

		RedisURL:    getEnv("REDIS_URL", "redis://redis:6379/0"),
		JobsStream:  getEnv("JOBS_STREAM", "videogen:jobs"),
		JobsIndex:   getEnv("JOBS_INDEX", "videogen:jobs:index"),
		JobsStartID: getEnv("JOBS_START_ID", "$"),

		OutDir:       getEnv("OUT_DIR", "/data/videos"),
		VideoBaseURL: getEnv("VIDEO_BASE_URL", "/videos"),

		UseMinio:       strings.EqualFold(os.Getenv("USE_MINIO"), "true"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "http://minio:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", "minioadmin"),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", "minioadmin"),
		MinioBucket:    getEnv("MINIO_BUCKET", "videos"),
		MinioURLExpiry: time.Second * time.Duration(getEnvInt("MINIO_URL_EXPIRY_SECONDS", 86400)),

		GenerationBaseURL: strings.TrimRight(getEnv("MOCHI_API_BASE", getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1")), "/"),
		GenerationAPIKey:  getEnv("OPENAI_API_KEY", os.Getenv("MOCHI_API_KEY")),
		GenerationModel:   getEnv("MOCHI_MODEL", "mochi-1-preview"),
		OpenAIOrg:         getEnv("OPENAI_ORG", os.Getenv("OPENAI_ORGANIZATION")),
		OpenAIProject:     os.Getenv("OPENAI_PROJECT"),
		PollInterval:      time.Second * time.Duration(getEnvInt("MOCHI_POLL_INTERVAL", 2)),
		PollTimeout:       time.Second * time.Duration(getEnvInt("MOCHI_POLL_TIMEOUT", 300)),

		WorkerConcurrency: getEnvInt("WORKER_CONCURRENCY", 1),
		TrimWindow:        time.Minute * time.Duration(getEnvInt("TRIM_MINUTES", 120)),

		SubmitRateLimit:  getEnvInt("SUBMIT_RATE_LIMIT", 0),
		SubmitRateWindow: time.Second * time.Duration(getEnvInt("SUBMIT_RATE_WINDOW_SECONDS", 60)),

		HTTPReadTimeout:  time.Second * time.Duration(getEnvInt("HTTP_READ_TIMEOUT_SECONDS", 15)),
		HTTPWriteTimeout: time.Second * time.Duration(getEnvInt("HTTP_WRITE_TIMEOUT_SECONDS", 30)),
		HTTPIdleTimeout:  time.Second * time.Duration(getEnvInt("HTTP_IDLE_TIMEOUT_SECONDS", 60)),
	}

	if cfg.WorkerConcurrency < 1 {
		cfg.WorkerConcurrency = 1
	}

	return cfg, nil
}

func splitCSV(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		return v
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v, ok := os.LookupEnv(key); ok && v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return fallback
}
