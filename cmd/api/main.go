package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/keerthanap8898/TextToVideoAPI/internal/dispatch"
	httpapi "github.com/keerthanap8898/TextToVideoAPI/internal/http"
	"github.com/keerthanap8898/TextToVideoAPI/internal/http/handlers"
	"github.com/keerthanap8898/TextToVideoAPI/internal/infra"
	"github.com/keerthanap8898/TextToVideoAPI/internal/store"
)

func main() {
	// Load .env (optional)
	_ = godotenv.Load()

	cfg, err := infra.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := infra.NewLogger(cfg.AppEnv)

	ctx := context.Background()
	rdb, err := infra.NewRedisClient(ctx, cfg)
	if err != nil {
		logger.Fatal().Err(err).Msg("api: redis connection failed")
	}
	defer rdb.Close()

	jobs := store.New(rdb, cfg.JobsIndex)
	channel := dispatch.New(rdb, cfg.JobsStream, cfg.JobsStartID)

	app := handlers.NewApp(jobs, channel, func(ctx context.Context) error {
		return rdb.Ping(ctx).Err()
	}, logger)

	routerOpts := httpapi.Options{
		AllowedOrigins:   cfg.AllowedOrigins,
		Logger:           logger,
		SubmitRateLimit:  cfg.SubmitRateLimit,
		SubmitRateWindow: cfg.SubmitRateWindow,
	}
	// Serve stored videos directly only when they live on local disk behind a
	// path-shaped base URL; with MinIO the presigned URL is the whole story.
	if !cfg.UseMinio && strings.HasPrefix(cfg.VideoBaseURL, "/") {
		routerOpts.VideoDir = cfg.OutDir
		routerOpts.VideoBase = cfg.VideoBaseURL
	}
	router := httpapi.NewRouter(app, routerOpts)

	server := infra.NewHTTPServer(cfg, router)

	go func() {
		logger.Info().Msgf("API listening on :%s", cfg.Port)
		if err := server.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal().Err(err).Msg("http server failed")
		}
	}()

	// Graceful shutdown
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.HTTPIdleTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error().Err(err).Msg("failed to shutdown server")
	}
	logger.Info().Msg("server stopped")
}
