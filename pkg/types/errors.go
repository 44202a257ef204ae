package types

import (
	"errors"
	"fmt"
	"time"
)

var (
	ErrPostNotFound     = errors.New("post not found")
	ErrConflict         = errors.New("transition conflict")
	ErrRateLimited      = errors.New("rate limited")
	ErrValidation       = errors.New("invalid post input")
	ErrStoreUnavailable = errors.New("store unavailable")
)

// RateLimitError carries the remaining cooldown so callers can present
// "try again after Xm".
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("rate limited, retry after %s", e.RetryAfter.Round(time.Second))
}

func (e *RateLimitError) Unwrap() error {
	return ErrRateLimited
}

type ValidationError struct {
	Fields map[string]string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid post input: %d field(s)", len(e.Fields))
}

func (e *ValidationError) Unwrap() error {
	return ErrValidation
}
