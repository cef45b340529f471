package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// JobStatus enumerates job lifecycle states.
type JobStatus string

const (
	JobStatusPending    JobStatus = "pending"
	JobStatusProcessing JobStatus = "processing"
	JobStatusCompleted  JobStatus = "completed"
	JobStatusFailed     JobStatus = "failed"
)

// Terminal reports whether the status is final for a job.
func (s JobStatus) Terminal() bool {
	return s == JobStatusCompleted || s == JobStatusFailed
}

const (
	DefaultSeconds    = 6
	DefaultQuality    = "medium"
	DefaultResolution = "576p"
)

// Job encapsulates the lifecycle of one video-generation request. Exactly one
// of Error/ResultURL is set once Status is terminal; neither is set before.
type Job struct {
	ID         string
	Prompt     string
	Seconds    int
	Quality    string
	Resolution string
	Status     JobStatus
	Error      string
	ResultURL  string
	CreatedAt  time.Time
}

// JobSummary is the trimmed listing view of a job.
type JobSummary struct {
	ID        string
	Status    JobStatus
	CreatedAt time.Time
}

// NewJob builds a pending job from raw submission parameters, assigning an id
// and applying defaults. Quality and resolution are not validated against the
// known sets; unrecognized values pass through and are interpreted downstream.
func NewJob(prompt string, seconds int, quality, resolution string) (*Job, error) {
	prompt = strings.TrimSpace(prompt)
	if prompt == "" {
		return nil, ErrInvalidPrompt
	}
	if seconds <= 0 {
		seconds = DefaultSeconds
	}
	quality = strings.TrimSpace(quality)
	if quality == "" {
		quality = DefaultQuality
	}
	resolution = strings.TrimSpace(resolution)
	if resolution == "" {
		resolution = DefaultResolution
	}
	return &Job{
		ID:         uuid.NewString(),
		Prompt:     prompt,
		Seconds:    seconds,
		Quality:    quality,
		Resolution: resolution,
		Status:     JobStatusPending,
		CreatedAt:  time.Now().UTC().Truncate(time.Second),
	}, nil
}
