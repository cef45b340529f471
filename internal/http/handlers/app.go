package handlers

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/keerthanap8898/TextToVideoAPI/internal/domain"
	"github.com/keerthanap8898/TextToVideoAPI/internal/infra"
)

// JobStore is the submission layer's view of the job record store.
type JobStore interface {
	Create(ctx context.Context, j *domain.Job) error
	Get(ctx context.Context, id string) (*domain.Job, error)
	ListRecent(ctx context.Context, limit int) ([]domain.JobSummary, error)
}

// Dispatcher hands newly created job ids to the workers.
type Dispatcher interface {
	Publish(ctx context.Context, jobID string) error
}

// App is the handler dependency container.
type App struct {
	Jobs       JobStore
	Dispatcher Dispatcher
	Ping       func(ctx context.Context) error
	Logger     infra.Logger
}

func NewApp(jobs JobStore, dispatcher Dispatcher, ping func(ctx context.Context) error, logger infra.Logger) *App {
	return &App{Jobs: jobs, Dispatcher: dispatcher, Ping: ping, Logger: logger}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]any{
		"error": map[string]string{"code": code, "message": message},
	})
}
