package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/keerthanap8898/TextToVideoAPI/internal/dispatch"
	"github.com/keerthanap8898/TextToVideoAPI/internal/generation"
	"github.com/keerthanap8898/TextToVideoAPI/internal/infra"
	"github.com/keerthanap8898/TextToVideoAPI/internal/storage"
	"github.com/keerthanap8898/TextToVideoAPI/internal/store"
	"github.com/keerthanap8898/TextToVideoAPI/internal/worker"
)

func main() {
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: redis connection failed")
	}
	defer rdb.Close()

	publisher, err := storage.FromConfig(cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("worker: failed to configure storage")
	}

	generator := generation.NewClient(generation.Options{
		BaseURL:      cfg.GenerationBaseURL,
		APIKey:       cfg.GenerationAPIKey,
		Model:        cfg.GenerationModel,
		Org:          cfg.OpenAIOrg,
		Project:      cfg.OpenAIProject,
		PollInterval: cfg.PollInterval,
		PollTimeout:  cfg.PollTimeout,
		Logger:       &logger,
	})
	if !generator.HasCredentials() {
		logger.Warn().Str("model", generator.Model()).Msg("worker: generation api key missing, jobs will fail until configured")
	}

	w := worker.New(worker.Options{
		Store:       store.New(rdb, cfg.JobsIndex),
		Channel:     dispatch.New(rdb, cfg.JobsStream, cfg.JobsStartID),
		Generator:   generator,
		Publisher:   publisher,
		Logger:      logger,
		Concurrency: cfg.WorkerConcurrency,
		TrimWindow:  cfg.TrimWindow,
	})

	logger.Info().
		Str("stream", cfg.JobsStream).
		Int("concurrency", cfg.WorkerConcurrency).
		Msg("worker: started")

	if err := w.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logger.Fatal().Err(err).Msg("worker: stopped with error")
	}
	logger.Info().Msg("worker: stopped")
}
