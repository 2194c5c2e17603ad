package vad

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfiguration is matched by every error Configure returns
	ErrInvalidConfiguration = errors.New("invalid configuration")

	// ErrScoringFailure is matched by every error caused by the scorer
	ErrScoringFailure = errors.New("scoring failure")
)

// ConfigError names the offending configuration field
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("invalid configuration: %s: %s", e.Field, e.Reason)
}

func (e *ConfigError) Is(target error) bool {
	return target == ErrInvalidConfiguration
}

// ScoringError reports a frame the scorer could not score. The frame was
// dropped from the detector's point of view
type ScoringError struct {
	// Frame is the zero-based index of the frame since the last reset
	Frame int64
	Err   error
}

func (e *ScoringError) Error() string {
	return fmt.Sprintf("scoring failure on frame %d: %v", e.Frame, e.Err)
}

func (e *ScoringError) Unwrap() error {
	return e.Err
}

func (e *ScoringError) Is(target error) bool {
	return target == ErrScoringFailure
}
