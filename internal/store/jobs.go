// Package store implements the durable job record store on Redis. Each job is
// a Redis Hash keyed by id, and a List holds ids most-recently-submitted
// first for listing.
package store

import (
	"context"
	"fmt"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/keerthanap8898/TextToVideoAPI/internal/domain"
)

const (
	// ListRecent clamps limits into this validated range.
	MinListLimit = 1
	MaxListLimit = 200
)

// Store persists job records in Redis. Safe for concurrent use by the API
// process and any number of workers.
type Store struct {
	client goredis.Cmdable
	index  string
}

// New creates a job store. The caller owns the Redis client lifecycle.
// indexKey names the List holding the recency index.
func New(client goredis.Cmdable, indexKey string) *Store {
	return &Store{client: client, index: indexKey}
}

// Create writes a new job record and prepends its id to the recency index in
// one pipeline. The duplicate check runs before the pipeline, so a concurrent
// create of the same id has a narrow race window; ids are UUIDs, so the check
// is a safety net rather than a synchronization point.
func (s *Store) Create(ctx context.Context, j *domain.Job) error {
	key := jobKey(j.ID)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("store: create check exists: %w", err)
	}
	if exists > 0 {
		return domain.ErrDuplicateID
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, jobToFields(j))
	pipe.LPush(ctx, s.index, j.ID)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store: create job: %w", err)
	}
	return nil
}

// Get retrieves a job record by id.
func (s *Store) Get(ctx context.Context, id string) (*domain.Job, error) {
	vals, err := s.client.HGetAll(ctx, jobKey(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: get job: %w", err)
	}
	if len(vals) == 0 {
		return nil, domain.ErrNotFound
	}
	return fieldsToJob(vals), nil
}

// Update merges the given fields into an existing record. Only the owning
// worker writes terminal fields for a job, so field-level last-write-wins is
// sufficient; no record-level lock exists.
func (s *Store) Update(ctx context.Context, id string, fields map[string]string) error {
	key := jobKey(id)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("store: update check exists: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	args := make(map[string]interface{}, len(fields))
	for k, v := range fields {
		args[k] = v
	}
	if err := s.client.HSet(ctx, key, args).Err(); err != nil {
		return fmt.Errorf("store: update job: %w", err)
	}
	return nil
}

// MarkProcessing flags a job as picked up. Terminal fields left over from a
// previous delivery are cleared in the same write, so a record never shows
// processing alongside an error or result.
func (s *Store) MarkProcessing(ctx context.Context, id string) error {
	return s.finish(ctx, id, map[string]interface{}{
		"status": string(domain.JobStatusProcessing),
	}, "error", "result_url")
}

// Complete marks a job terminal-successful. Any error from a previous failed
// run is cleared so exactly one terminal field remains set.
func (s *Store) Complete(ctx context.Context, id, resultURL string) error {
	return s.finish(ctx, id, map[string]interface{}{
		"status":     string(domain.JobStatusCompleted),
		"result_url": resultURL,
	}, "error")
}

// Fail marks a job terminal-failed with a diagnostic message.
func (s *Store) Fail(ctx context.Context, id, message string) error {
	return s.finish(ctx, id, map[string]interface{}{
		"status": string(domain.JobStatusFailed),
		"error":  message,
	}, "result_url")
}

func (s *Store) finish(ctx context.Context, id string, fields map[string]interface{}, clear ...string) error {
	key := jobKey(id)

	exists, err := s.client.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("store: finish check exists: %w", err)
	}
	if exists == 0 {
		return domain.ErrNotFound
	}

	pipe := s.client.TxPipeline()
	pipe.HSet(ctx, key, fields)
	pipe.HDel(ctx, key, clear...)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("store: finish job: %w", err)
	}
	return nil
}

// ListRecent returns up to limit job summaries, most-recently-submitted
// first. Index entries whose record has expired or been evicted are skipped.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]domain.JobSummary, error) {
	if limit < MinListLimit {
		limit = MinListLimit
	}
	if limit > MaxListLimit {
		limit = MaxListLimit
	}

	ids, err := s.client.LRange(ctx, s.index, 0, int64(limit-1)).Result()
	if err != nil {
		return nil, fmt.Errorf("store: list index: %w", err)
	}

	summaries := make([]domain.JobSummary, 0, len(ids))
	for _, id := range ids {
		vals, err := s.client.HGetAll(ctx, jobKey(id)).Result()
		if err != nil || len(vals) == 0 {
			continue // record expired or evicted
		}
		j := fieldsToJob(vals)
		summaries = append(summaries, domain.JobSummary{
			ID:        j.ID,
			Status:    j.Status,
			CreatedAt: j.CreatedAt,
		})
	}
	return summaries, nil
}

// ── hash encoding ──

// Hash values are strings throughout, matching how the submission layer and
// workers have always stored them.
func jobToFields(j *domain.Job) map[string]interface{} {
	fields := map[string]interface{}{
		"id":         j.ID,
		"prompt":     j.Prompt,
		"seconds":    strconv.Itoa(j.Seconds),
		"quality":    j.Quality,
		"resolution": j.Resolution,
		"status":     string(j.Status),
		"created_at": strconv.FormatInt(j.CreatedAt.Unix(), 10),
	}
	if j.Error != "" {
		fields["error"] = j.Error
	}
	if j.ResultURL != "" {
		fields["result_url"] = j.ResultURL
	}
	return fields
}

func fieldsToJob(m map[string]string) *domain.Job {
	// Best-effort parses; the fields were written by this package.
	seconds, _ := strconv.Atoi(m["seconds"])
	created, _ := strconv.ParseInt(m["created_at"], 10, 64)

	return &domain.Job{
		ID:         m["id"],
		Prompt:     m["prompt"],
		Seconds:    seconds,
		Quality:    m["quality"],
		Resolution: m["resolution"],
		Status:     domain.JobStatus(m["status"]),
		Error:      m["error"],
		ResultURL:  m["result_url"],
		CreatedAt:  time.Unix(created, 0).UTC(),
	}
}
