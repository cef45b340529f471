package domain

import "errors"

var (
	ErrNotFound      = errors.New("job not found")
	ErrDuplicateID   = errors.New("duplicate job id")
	ErrInvalidPrompt = errors.New("prompt is required")
	ErrNotCompleted  = errors.New("job not completed")
)
