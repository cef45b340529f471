package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/keerthanap8898/TextToVideoAPI/internal/domain"
)

const defaultListLimit = 50

type submitRequest struct {
	Prompt     string `json:"prompt"`
	Seconds    int    `json:"seconds"`
	Quality    string `json:"quality"`
	Resolution string `json:"resolution"`
}

// SubmitJob creates a pending job record, indexes it, and hands its id to the
// workers.
func (a *App) SubmitJob(w http.ResponseWriter, r *http.Request) {
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	job, err := domain.NewJob(req.Prompt, req.Seconds, req.Quality, req.Resolution)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
		return
	}

	if err := a.Jobs.Create(r.Context(), job); err != nil {
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("api: create job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to create job")
		return
	}

	if err := a.Dispatcher.Publish(r.Context(), job.ID); err != nil {
		// The record exists but no worker will see it; surface the failure
		// rather than report a job that cannot progress.
		a.Logger.Error().Err(err).Str("job_id", job.ID).Msg("api: dispatch job failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to dispatch job")
		return
	}

	a.json(w, http.StatusAccepted, map[string]string{"job_id": job.ID})
}

// JobStatus returns the lifecycle view of one job.
func (a *App) JobStatus(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	a.json(w, http.StatusOK, map[string]any{
		"id":         job.ID,
		"status":     job.Status,
		"error":      emptyToNil(job.Error),
		"result_url": emptyToNil(job.ResultURL),
	})
}

// ListJobs returns recent submissions, newest first.
func (a *App) ListJobs(w http.ResponseWriter, r *http.Request) {
	limit := defaultListLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 || parsed > 200 {
			a.error(w, http.StatusBadRequest, "bad_request", "limit must be between 1 and 200")
			return
		}
		limit = parsed
	}

	summaries, err := a.Jobs.ListRecent(r.Context(), limit)
	if err != nil {
		a.Logger.Error().Err(err).Msg("api: list jobs failed")
		a.error(w, http.StatusInternalServerError, "internal", "failed to list jobs")
		return
	}

	items := make([]map[string]any, 0, len(summaries))
	for _, s := range summaries {
		items = append(items, map[string]any{
			"id":         s.ID,
			"status":     s.Status,
			"created_at": s.CreatedAt.Unix(),
		})
	}
	a.json(w, http.StatusOK, map[string]any{"items": items})
}

// JobResult returns the result URL of a completed job. Querying before
// completion is a conflict, never a partial answer.
func (a *App) JobResult(w http.ResponseWriter, r *http.Request) {
	job, ok := a.loadJob(w, r)
	if !ok {
		return
	}
	if job.Status != domain.JobStatusCompleted {
		a.error(w, http.StatusConflict, "conflict", domain.ErrNotCompleted.Error())
		return
	}
	a.json(w, http.StatusOK, map[string]string{"result_url": job.ResultURL})
}

func (a *App) loadJob(w http.ResponseWriter, r *http.Request) (*domain.Job, bool) {
	id := chi.URLParam(r, "id")
	if id == "" {
		a.error(w, http.StatusBadRequest, "bad_request", "job id required")
		return nil, false
	}
	job, err := a.Jobs.Get(r.Context(), id)
	if err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			a.error(w, http.StatusNotFound, "not_found", "job not found")
		} else {
			a.Logger.Error().Err(err).Str("job_id", id).Msg("api: load job failed")
			a.error(w, http.StatusInternalServerError, "internal", "failed to load job")
		}
		return nil, false
	}
	return job, true
}

func emptyToNil(s string) any {
	if s == "" {
		return nil
	}
	return s
}
