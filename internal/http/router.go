package httpapi

import (
	stdhttp "net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimw "github.com/go-chi/chi/v5/middleware"

	"github.com/keerthanap8898/TextToVideoAPI/internal/http/handlers"
	"github.com/keerthanap8898/TextToVideoAPI/internal/infra"
	"github.com/keerthanap8898/TextToVideoAPI/internal/middleware"
)

// Options configures the router beyond its handlers.
type Options struct {
	AllowedOrigins []string
	Logger         infra.Logger

	// SubmitRateLimit caps job submissions per client IP per window; zero
	// disables the limit.
	SubmitRateLimit  int
	SubmitRateWindow time.Duration

	// VideoDir, when non-empty, is served read-only under VideoBase so
	// locally stored artifacts resolve without a separate file server.
	VideoDir  string
	VideoBase string
}

func NewRouter(app *handlers.App, opts Options) stdhttp.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID, chimw.RealIP, chimw.Recoverer,
		middleware.Logger(opts.Logger), middleware.CORS(opts.AllowedOrigins))

	// Health
	r.Get("/v1/healthz", app.Health)

	r.Route("/jobs", func(r chi.Router) {
		r.With(middleware.RateLimit(opts.SubmitRateLimit, opts.SubmitRateWindow)).Post("/", app.SubmitJob)
		r.Get("/", app.ListJobs)
		r.Get("/{id}", app.JobStatus)
		r.Get("/{id}/result", app.JobResult)
	})

	if opts.VideoDir != "" && opts.VideoBase != "" {
		base := opts.VideoBase
		if base[len(base)-1] != '/' {
			base += "/"
		}
		fs := stdhttp.StripPrefix(base, stdhttp.FileServer(stdhttp.Dir(opts.VideoDir)))
		r.Get(base+"*", fs.ServeHTTP)
	}

	return r
}
