package worker

import (
	"context"
	"errors"
	"io"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"

	"github.com/keerthanap8898/TextToVideoAPI/internal/dispatch"
	"github.com/keerthanap8898/TextToVideoAPI/internal/domain"
	"github.com/keerthanap8898/TextToVideoAPI/internal/generation"
	"github.com/keerthanap8898/TextToVideoAPI/internal/store"
)

type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	data  []byte
	err   error
	hook  func(ctx context.Context, req generation.Request)
}

func (g *fakeGenerator) Generate(ctx context.Context, req generation.Request) ([]byte, error) {
	g.mu.Lock()
	g.calls++
	g.mu.Unlock()
	if g.hook != nil {
		g.hook(ctx, req)
	}
	if g.err != nil {
		return nil, g.err
	}
	return g.data, nil
}

func (g *fakeGenerator) callCount() int {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.calls
}

type fakePublisher struct {
	err error
}

func (p *fakePublisher) Publish(ctx context.Context, name string, data []byte) (string, error) {
	if p.err != nil {
		return "", p.err
	}
	return "/videos/" + name, nil
}

type fixture struct {
	worker  *Worker
	store   *store.Store
	channel *dispatch.Channel
	gen     *fakeGenerator
}

func newFixture(t *testing.T, gen *fakeGenerator, pub *fakePublisher) fixture {
	t.Helper()
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	jobs := store.New(client, "videogen:jobs:index")
	channel := dispatch.New(client, "videogen:jobs", "0-0")
	w := New(Options{
		Store:     jobs,
		Channel:   channel,
		Generator: gen,
		Publisher: pub,
		Logger:    zerolog.New(io.Discard),
	})
	return fixture{worker: w, store: jobs, channel: channel, gen: gen}
}

func createJob(t *testing.T, s *store.Store) *domain.Job {
	t.Helper()
	job, err := domain.NewJob("a storm over the sea", 6, "medium", "576p")
	if err != nil {
		t.Fatalf("NewJob: %v", err)
	}
	if err := s.Create(context.Background(), job); err != nil {
		t.Fatalf("Create: %v", err)
	}
	return job
}

func TestProcessCompletesJob(t *testing.T) {
	fx := newFixture(t, &fakeGenerator{data: []byte("mp4")}, &fakePublisher{})
	ctx := context.Background()

	job := createJob(t, fx.store)
	fx.worker.Process(ctx, job.ID)

	got, err := fx.store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %q, want completed", got.Status)
	}
	if got.ResultURL != "/videos/"+job.ID+".mp4" {
		t.Fatalf("result_url = %q", got.ResultURL)
	}
	if got.Error != "" {
		t.Fatalf("error set on success: %q", got.Error)
	}
}

func TestProcessRecordsGenerationFailure(t *testing.T) {
	fx := newFixture(t, &fakeGenerator{err: errors.New("upstream rejected prompt")}, &fakePublisher{})
	ctx := context.Background()

	job := createJob(t, fx.store)
	fx.worker.Process(ctx, job.ID)

	got, err := fx.store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.Error != "upstream rejected prompt" {
		t.Fatalf("error = %q", got.Error)
	}
	if got.ResultURL != "" {
		t.Fatalf("result_url set on failure: %q", got.ResultURL)
	}
}

func TestProcessRecordsPublishFailure(t *testing.T) {
	fx := newFixture(t, &fakeGenerator{data: []byte("mp4")}, &fakePublisher{err: errors.New("bucket unavailable")})
	ctx := context.Background()

	job := createJob(t, fx.store)
	fx.worker.Process(ctx, job.ID)

	got, err := fx.store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.JobStatusFailed {
		t.Fatalf("status = %q, want failed", got.Status)
	}
	if got.Error != "bucket unavailable" {
		t.Fatalf("error = %q", got.Error)
	}
}

func TestProcessSkipsCompletedJob(t *testing.T) {
	gen := &fakeGenerator{data: []byte("mp4")}
	fx := newFixture(t, gen, &fakePublisher{})
	ctx := context.Background()

	job := createJob(t, fx.store)
	if err := fx.store.Complete(ctx, job.ID, "/videos/done.mp4"); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	fx.worker.Process(ctx, job.ID)
	if gen.callCount() != 0 {
		t.Fatalf("generator called %d times for a completed job", gen.callCount())
	}

	got, err := fx.store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.ResultURL != "/videos/done.mp4" {
		t.Fatalf("result_url overwritten: %q", got.ResultURL)
	}
}

func TestProcessReprocessesFailedJob(t *testing.T) {
	gen := &fakeGenerator{data: []byte("mp4")}
	fx := newFixture(t, gen, &fakePublisher{})
	ctx := context.Background()

	job := createJob(t, fx.store)
	if err := fx.store.Fail(ctx, job.ID, "first attempt broke"); err != nil {
		t.Fatalf("Fail: %v", err)
	}

	// While the redelivered job is mid-generation, readers must see it as
	// processing without the stale error from the first delivery.
	gen.hook = func(ctx context.Context, _ generation.Request) {
		mid, err := fx.store.Get(ctx, job.ID)
		if err != nil {
			t.Errorf("Get during generation: %v", err)
			return
		}
		if mid.Status != domain.JobStatusProcessing {
			t.Errorf("mid-run status = %q, want processing", mid.Status)
		}
		if mid.Error != "" || mid.ResultURL != "" {
			t.Errorf("mid-run terminal fields visible: error=%q result=%q", mid.Error, mid.ResultURL)
		}
	}

	fx.worker.Process(ctx, job.ID)
	if gen.callCount() != 1 {
		t.Fatalf("generator calls = %d, want 1", gen.callCount())
	}

	got, err := fx.store.Get(ctx, job.ID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Status != domain.JobStatusCompleted {
		t.Fatalf("status = %q, want completed after redelivery", got.Status)
	}
	if got.Error != "" {
		t.Fatalf("stale error survived: %q", got.Error)
	}
}

func TestProcessIgnoresVanishedRecord(t *testing.T) {
	gen := &fakeGenerator{data: []byte("mp4")}
	fx := newFixture(t, gen, &fakePublisher{})

	fx.worker.Process(context.Background(), "never-created")
	if gen.callCount() != 0 {
		t.Fatalf("generator called for vanished record")
	}
}

func TestRunConsumesDispatchedJobs(t *testing.T) {
	fx := newFixture(t, &fakeGenerator{data: []byte("mp4")}, &fakePublisher{})
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	job := createJob(t, fx.store)
	if err := fx.channel.Publish(ctx, job.ID); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	var runErr atomic.Value
	done := make(chan struct{})
	go func() {
		defer close(done)
		if err := fx.worker.Run(ctx); err != nil {
			runErr.Store(err)
		}
	}()

	deadline := time.After(3 * time.Second)
	for {
		got, err := fx.store.Get(context.Background(), job.ID)
		if err == nil && got.Status == domain.JobStatusCompleted {
			break
		}
		select {
		case <-deadline:
			t.Fatal("job never completed")
		case <-time.After(20 * time.Millisecond):
		}
	}

	cancel()
	<-done
	if err, _ := runErr.Load().(error); err != nil && !errors.Is(err, context.Canceled) {
		t.Fatalf("Run returned %v", err)
	}
}
