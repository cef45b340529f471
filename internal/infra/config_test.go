package infra

import (
	"testing"
	"time"
)

func TestLoadConfigDefaults(t *testing.T) {
	for _, key := range []string{
		"APP_ENV", "PORT", "REDIS_URL", "JOBS_STREAM", "JOBS_INDEX", "JOBS_START_ID",
		"OUT_DIR", "VIDEO_BASE_URL", "USE_MINIO", "MOCHI_API_BASE", "OPENAI_BASE_URL",
		"MOCHI_MODEL", "TRIM_MINUTES", "WORKER_CONCURRENCY", "CORS_ALLOWED_ORIGINS",
	} {
		t.Setenv(key, "")
	}

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "8080" {
		t.Fatalf("Port = %q, want 8080", cfg.Port)
	}
	if cfg.RedisURL != "redis://redis:6379/0" {
		t.Fatalf("RedisURL = %q", cfg.RedisURL)
	}
	if cfg.JobsStream != "videogen:jobs" || cfg.JobsIndex != "videogen:jobs:index" {
		t.Fatalf("stream keys = %q / %q", cfg.JobsStream, cfg.JobsIndex)
	}
	if cfg.JobsStartID != "$" {
		t.Fatalf("JobsStartID = %q, want $", cfg.JobsStartID)
	}
	if cfg.UseMinio {
		t.Fatal("UseMinio defaulted to true")
	}
	if cfg.GenerationBaseURL != "https://api.openai.com/v1" {
		t.Fatalf("GenerationBaseURL = %q", cfg.GenerationBaseURL)
	}
	if cfg.GenerationModel != "mochi-1-preview" {
		t.Fatalf("GenerationModel = %q", cfg.GenerationModel)
	}
	if cfg.PollInterval != 2*time.Second || cfg.PollTimeout != 300*time.Second {
		t.Fatalf("poll settings = %v / %v", cfg.PollInterval, cfg.PollTimeout)
	}
	if cfg.TrimWindow != 120*time.Minute {
		t.Fatalf("TrimWindow = %v, want 2h", cfg.TrimWindow)
	}
	if cfg.WorkerConcurrency != 1 {
		t.Fatalf("WorkerConcurrency = %d, want 1", cfg.WorkerConcurrency)
	}
	if len(cfg.AllowedOrigins) != 1 || cfg.AllowedOrigins[0] != "*" {
		t.Fatalf("AllowedOrigins = %v, want [*]", cfg.AllowedOrigins)
	}
}

func TestLoadConfigOverrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("USE_MINIO", "TRUE")
	t.Setenv("MOCHI_API_BASE", "https://gateway.example.com/v1/")
	t.Setenv("TRIM_MINUTES", "30")
	t.Setenv("WORKER_CONCURRENCY", "4")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://staging.example.com")

	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.Port != "9090" {
		t.Fatalf("Port = %q, want 9090", cfg.Port)
	}
	if !cfg.UseMinio {
		t.Fatal("USE_MINIO=TRUE not recognized")
	}
	if cfg.GenerationBaseURL != "https://gateway.example.com/v1" {
		t.Fatalf("GenerationBaseURL = %q, trailing slash not trimmed", cfg.GenerationBaseURL)
	}
	if cfg.TrimWindow != 30*time.Minute {
		t.Fatalf("TrimWindow = %v, want 30m", cfg.TrimWindow)
	}
	if cfg.WorkerConcurrency != 4 {
		t.Fatalf("WorkerConcurrency = %d, want 4", cfg.WorkerConcurrency)
	}
	want := []string{"https://app.example.com", "https://staging.example.com"}
	if len(cfg.AllowedOrigins) != len(want) {
		t.Fatalf("AllowedOrigins = %v, want %v", cfg.AllowedOrigins, want)
	}
	for i, origin := range want {
		if cfg.AllowedOrigins[i] != origin {
			t.Fatalf("AllowedOrigins[%d] = %q, want %q", i, cfg.AllowedOrigins[i], origin)
		}
	}
}

func TestLoadConfigClampsConcurrency(t *testing.T) {
	t.Setenv("WORKER_CONCURRENCY", "-2")
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatalf("LoadConfig returned error: %v", err)
	}
	if cfg.WorkerConcurrency != 1 {
		t.Fatalf("WorkerConcurrency = %d, want clamp to 1", cfg.WorkerConcurrency)
	}
}
