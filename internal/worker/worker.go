// Package worker consumes the dispatch stream and drives each job from
// pending to a terminal state: generate, resolve the artifact, publish it,
// record the result. Failures are written back to the job record and never
// crash the loop.
package worker

import (
	"context"
	"errors"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/keerthanap8898/TextToVideoAPI/internal/dispatch"
	"github.com/keerthanap8898/TextToVideoAPI/internal/domain"
	"github.com/keerthanap8898/TextToVideoAPI/internal/generation"
	"github.com/keerthanap8898/TextToVideoAPI/internal/infra"
	"github.com/keerthanap8898/TextToVideoAPI/internal/storage"
	"github.com/keerthanap8898/TextToVideoAPI/internal/store"
)

const trimEvery = 5 * time.Minute

// Generator produces the raw video bytes for a job's parameters.
type Generator interface {
	Generate(ctx context.Context, req generation.Request) ([]byte, error)
}

// Options wires a Worker's collaborators.
type Options struct {
	Store       *store.Store
	Channel     *dispatch.Channel
	Generator   Generator
	Publisher   storage.Publisher
	Logger      infra.Logger
	Concurrency int
	TrimWindow  time.Duration
}

// Worker runs the consume/process loop. One stream reader feeds Concurrency
// processors; each processor runs jobs sequentially.
type Worker struct {
	store       *store.Store
	channel     *dispatch.Channel
	generator   Generator
	publisher   storage.Publisher
	logger      infra.Logger
	concurrency int
	trimWindow  time.Duration
}

// New constructs a Worker.
func New(opts Options) *Worker {
	concurrency := opts.Concurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Worker{
		store:       opts.Store,
		channel:     opts.Channel,
		generator:   opts.Generator,
		publisher:   opts.Publisher,
		logger:      opts.Logger,
		concurrency: concurrency,
		trimWindow:  opts.TrimWindow,
	}
}

// Run consumes the dispatch stream until the context is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	entries := make(chan dispatch.Entry)
	g, ctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		defer close(entries)
		for {
			e, err := w.channel.Consume(ctx)
			if err != nil {
				return err
			}
			select {
			case entries <- e:
			case <-ctx.Done():
				return ctx.Err()
			}
		}
	})

	for i := 0; i < w.concurrency; i++ {
		g.Go(func() error {
			for e := range entries {
				w.Process(ctx, e.JobID)
				if err := w.channel.Ack(ctx, e); err != nil {
					w.logger.Warn().Err(err).Str("job_id", e.JobID).Msg("worker: checkpoint persist failed")
				}
			}
			return nil
		})
	}

	if w.trimWindow > 0 {
		g.Go(func() error {
			ticker := time.NewTicker(trimEvery)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return ctx.Err()
				case <-ticker.C:
					if err := w.channel.TrimOlderThan(ctx, w.trimWindow); err != nil {
						w.logger.Warn().Err(err).Msg("worker: stream trim failed")
					}
				}
			}
		})
	}

	return g.Wait()
}

// Process runs the full pipeline for one job id. Re-delivery of an id is
// safe: an already-completed job with a result is skipped, and a full re-run
// simply republishes the artifact and overwrites the terminal fields.
func (w *Worker) Process(ctx context.Context, jobID string) {
	logger := w.logger.With().Str("job_id", jobID).Logger()

	job, err := w.store.Get(ctx, jobID)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			logger.Warn().Msg("worker: job record vanished, skipping")
		} else {
			logger.Error().Err(err).Msg("worker: load job failed")
		}
		return
	}

	if job.Status == domain.JobStatusCompleted && job.ResultURL != "" {
		logger.Info().Str("result_url", job.ResultURL).Msg("worker: job already completed, skipping")
		return
	}

	logger.Info().
		Str("quality", job.Quality).
		Str("resolution", job.Resolution).
		Int("seconds", job.Seconds).
		Msg("worker: picked job")

	// Best-effort: a failed write here only delays the visible transition.
	// Clearing stale terminal fields rides along so a redelivered job never
	// shows processing next to an old error or result.
	if err := w.store.MarkProcessing(ctx, jobID); err != nil {
		logger.Warn().Err(err).Msg("worker: mark processing failed")
	}

	data, err := w.generator.Generate(ctx, generation.Request{
		Prompt:     job.Prompt,
		Seconds:    job.Seconds,
		Quality:    job.Quality,
		Resolution: job.Resolution,
		JobID:      job.ID,
	})
	if err != nil {
		w.fail(ctx, logger, jobID, err)
		return
	}

	resultURL, err := w.publisher.Publish(ctx, job.ID+".mp4", data)
	if err != nil {
		w.fail(ctx, logger, jobID, err)
		return
	}

	if err := w.store.Complete(ctx, jobID, resultURL); err != nil {
		logger.Error().Err(err).Msg("worker: record completion failed")
		return
	}
	logger.Info().Str("result_url", resultURL).Msg("worker: job completed")
}

func (w *Worker) fail(ctx context.Context, logger infra.Logger, jobID string, cause error) {
	logger.Error().Err(cause).Msg("worker: job failed")
	if err := w.store.Fail(ctx, jobID, cause.Error()); err != nil {
		logger.Error().Err(err).Msg("worker: record failure failed")
	}
}
