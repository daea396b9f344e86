package isef

import (
	"errors"
	"fmt"
)

var (
	ErrUnsupportedYear  = errors.New("unsupported year")
	ErrElementNotFound  = errors.New("element not found")
	ErrTimeout          = errors.New("timed out waiting for condition")
	ErrNavigation       = errors.New("navigation failed")
	ErrNoResults        = errors.New("no results in listing table")
	ErrSessionNotOpen   = errors.New("browser session not open")
	ErrSessionOpenTwice = errors.New("browser session already open")
)

// StepError is a failure of one interactive step, carrying what was being touched
type StepError struct {
	Step     string
	Selector string
	Err      error
}

func (e *StepError) Error() string {
	if e.Selector == "" {
		return fmt.Sprintf("step %q: %v", e.Step, e.Err)
	}
	return fmt.Sprintf("step %q (%s): %v", e.Step, e.Selector, e.Err)
}

func (e *StepError) Unwrap() error { return e.Err }

func stepErr(step, selector string, err error) error {
	return &StepError{Step: step, Selector: selector, Err: err}
}

// RecordError is a failure to fetch or parse one detail page
type RecordError struct {
	Index int
	URL   string
	Err   error
}

func (e *RecordError) Error() string {
	return fmt.Sprintf("record %d (%s): %v", e.Index, e.URL, e.Err)
}

func (e *RecordError) Unwrap() error { return e.Err }

// Error classes reported in logs and metrics
const (
	ClassConfiguration = "configuration"
	ClassTimeout       = "timeout"
	ClassZeroResults   = "zero_results"
	ClassNavigation    = "navigation"
	ClassRecord        = "record"
	ClassUnknown       = "unknown"
)

// Classify maps err onto the failure taxonomy
func Classify(err error) string {
	var recErr *RecordError
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNoResults):
		return ClassZeroResults
	case errors.As(err, &recErr):
		return ClassRecord
	case errors.Is(err, ErrUnsupportedYear), errors.Is(err, ErrElementNotFound):
		return ClassConfiguration
	case errors.Is(err, ErrTimeout):
		return ClassTimeout
	case errors.Is(err, ErrNavigation):
		return ClassNavigation
	default:
		return ClassUnknown
	}
}

// Retryable reports whether a detail fetch error is worth another attempt
func Retryable(err error) bool {
	return errors.Is(err, ErrTimeout) || errors.Is(err, ErrNavigation)
}
