// Package generation drives the remote text-to-video API: it submits a job's
// parameters once, polls the response handle to a terminal status, locates
// the produced artifact in the terminal payload, and retrieves the raw bytes.
package generation

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/keerthanap8898/TextToVideoAPI/internal/infra"
)

// ErrMissingAPIKey indicates that the client was configured without
// credentials. It is returned before any network call.
var ErrMissingAPIKey = errors.New("generation: api key is required")

// ErrPollTimeout indicates that the upstream never reached a terminal status
// within the configured ceiling.
var ErrPollTimeout = errors.New("generation: timed out waiting for completion")

// ErrNoArtifact indicates a completed response carried no video artifact.
var ErrNoArtifact = errors.New("generation: completed but no video artifact was returned")

// terminalStatuses for an upstream generation request. Only "completed"
// yields an artifact.
var terminalStatuses = map[string]bool{
	"completed": true,
	"failed":    true,
	"cancelled": true,
	"errored":   true,
}

// Options configures the generation client.
type Options struct {
	APIKey       string
	BaseURL      string
	Model        string
	Org          string
	Project      string
	PollInterval time.Duration
	PollTimeout  time.Duration
	HTTPClient   *http.Client
	Logger       *infra.Logger
}

// Client performs HTTP calls to the OpenAI-style video generation API.
type Client struct {
	apiKey       string
	baseURL      string
	model        string
	org          string
	project      string
	pollInterval time.Duration
	pollTimeout  time.Duration
	httpClient   *http.Client
	logger       *infra.Logger
}

// Request captures the job parameters handed to the generation API.
type Request struct {
	Prompt     string
	Seconds    int
	Quality    string
	Resolution string
	JobID      string
}

type pollResponse struct {
	ID     string          `json:"id"`
	Status string          `json:"status"`
	Error  json.RawMessage `json:"error"`
}

// NewClient constructs a client with sane defaults and injected dependencies.
func NewClient(opts Options) *Client {
	httpClient := opts.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 300 * time.Second}
	}
	baseURL := strings.TrimRight(opts.BaseURL, "/")
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	model := strings.TrimSpace(opts.Model)
	if model == "" {
		model = "mochi-1-preview"
	}
	pollInterval := opts.PollInterval
	if pollInterval <= 0 {
		pollInterval = 2 * time.Second
	}
	pollTimeout := opts.PollTimeout
	if pollTimeout <= 0 {
		pollTimeout = 300 * time.Second
	}
	var logger *infra.Logger
	if opts.Logger != nil {
		logger = opts.Logger
	} else {
		discard := zerolog.New(io.Discard)
		l := infra.Logger(discard)
		logger = &l
	}
	return &Client{
		apiKey:       strings.TrimSpace(opts.APIKey),
		baseURL:      baseURL,
		model:        model,
		org:          strings.TrimSpace(opts.Org),
		project:      strings.TrimSpace(opts.Project),
		pollInterval: pollInterval,
		pollTimeout:  pollTimeout,
		httpClient:   httpClient,
		logger:       logger,
	}
}

// Model returns the configured model identifier.
func (c *Client) Model() string {
	return c.model
}

// HasCredentials reports whether the client can perform remote calls.
func (c *Client) HasCredentials() bool {
	return c.apiKey != ""
}

// Generate submits the request, polls it to a terminal status, and returns
// the raw bytes of the produced video.
func (c *Client) Generate(ctx context.Context, req Request) ([]byte, error) {
	if !c.HasCredentials() {
		return nil, ErrMissingAPIKey
	}

	payload := buildSubmitRequest(c.model, req)
	raw, err := c.postJSON(ctx, "responses", payload)
	if err != nil {
		return nil, err
	}

	result, envelope, err := decodeResponse(raw)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	status := envelope.Status
	handle := envelope.ID
	for status != "" && !terminalStatuses[status] {
		if time.Since(start) > c.pollTimeout {
			return nil, ErrPollTimeout
		}
		if err := sleepCtx(ctx, c.pollInterval); err != nil {
			return nil, err
		}
		if handle == "" {
			break
		}
		raw, err = c.getJSON(ctx, "responses/"+handle)
		if err != nil {
			return nil, err
		}
		if result, envelope, err = decodeResponse(raw); err != nil {
			return nil, err
		}
		status = envelope.Status
		c.logger.Debug().
			Str("job_id", req.JobID).
			Str("handle", handle).
			Str("status", status).
			Msg("generation: poll status")
	}

	// Anything but an explicit "completed" is a failure, a missing status
	// included: an artifact next to an unresolved status is not trusted.
	if status != "completed" {
		if status == "" {
			status = "unresolved"
		}
		return nil, fmt.Errorf("generation: request %s: %s", status, diagnostic(envelope, raw))
	}

	locator, found := FindLocator(result)
	if !found {
		return nil, ErrNoArtifact
	}
	return c.fetchArtifact(ctx, locator)
}

// fetchArtifact retrieves the raw video bytes for a locator.
func (c *Client) fetchArtifact(ctx context.Context, loc Locator) ([]byte, error) {
	switch loc.Kind {
	case LocatorInline:
		data, err := base64.StdEncoding.DecodeString(loc.Value)
		if err != nil {
			return nil, fmt.Errorf("generation: decode inline payload: %w", err)
		}
		return data, nil
	case LocatorFileID:
		return c.downloadFile(ctx, loc.Value)
	case LocatorURL:
		return c.downloadURL(ctx, loc.Value)
	default:
		return nil, fmt.Errorf("generation: unknown artifact locator %q", loc.Kind)
	}
}

// downloadFile fetches a file artifact by its handle through the
// authenticated files endpoint.
func (c *Client) downloadFile(ctx context.Context, fileID string) ([]byte, error) {
	if !strings.HasPrefix(fileID, "file-") {
		return nil, fmt.Errorf("generation: invalid file id: %s", fileID)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/files/"+fileID+"/content", nil)
	if err != nil {
		return nil, fmt.Errorf("generation: build download request: %w", err)
	}
	c.setHeaders(req, false)
	return c.readBytes(req)
}

// downloadURL fetches an artifact from a direct URL without credentials.
func (c *Client) downloadURL(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("generation: build download request: %w", err)
	}
	return c.readBytes(req)
}

func (c *Client) postJSON(ctx context.Context, path string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("generation: encode request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/"+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("generation: build request: %w", err)
	}
	c.setHeaders(req, true)
	return c.readBytes(req)
}

func (c *Client) getJSON(ctx context.Context, path string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/"+path, nil)
	if err != nil {
		return nil, fmt.Errorf("generation: build request: %w", err)
	}
	c.setHeaders(req, false)
	return c.readBytes(req)
}

func (c *Client) setHeaders(req *http.Request, jsonBody bool) {
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	if c.org != "" {
		req.Header.Set("OpenAI-Organization", c.org)
	}
	if c.project != "" {
		req.Header.Set("OpenAI-Project", c.project)
	}
	if jsonBody {
		req.Header.Set("Content-Type", "application/json")
	}
}

func (c *Client) readBytes(req *http.Request) ([]byte, error) {
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("generation: reach upstream: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("generation: read response: %w", err)
	}
	if resp.StatusCode >= http.StatusBadRequest {
		return nil, fmt.Errorf("generation: status %d: %s", resp.StatusCode, strings.TrimSpace(string(raw)))
	}
	return raw, nil
}

// decodeResponse parses a response body into both the generic tree used for
// artifact discovery and the typed envelope carrying id/status/error.
func decodeResponse(raw []byte) (map[string]any, pollResponse, error) {
	if len(raw) == 0 {
		return map[string]any{}, pollResponse{}, nil
	}
	var tree map[string]any
	if err := json.Unmarshal(raw, &tree); err != nil {
		return nil, pollResponse{}, fmt.Errorf("generation: decode response: %w", err)
	}
	var envelope pollResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, pollResponse{}, fmt.Errorf("generation: decode response: %w", err)
	}
	return tree, envelope, nil
}

// diagnostic extracts whatever failure detail the upstream returned.
func diagnostic(envelope pollResponse, raw []byte) string {
	if len(envelope.Error) > 0 && string(envelope.Error) != "null" {
		return string(envelope.Error)
	}
	return strings.TrimSpace(string(raw))
}

// sleepCtx waits for the poll interval, or returns early if the context is
// cancelled.
func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
