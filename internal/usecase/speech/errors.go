package speech

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/openai/openai-go/v2"
)

// ErrorKind tells callers whether retrying can help
type ErrorKind string

const (
	Transient ErrorKind = "transient"
	Permanent ErrorKind = "permanent"
)

// ErrEmptyText is returned for blank input
var ErrEmptyText = errors.New("text to synthesize is empty")

// SynthesisError wraps a failed synthesis
type SynthesisError struct {
	Kind ErrorKind
	Err  error
}

func (e *SynthesisError) Error() string {
	return fmt.Sprintf("speech synthesis failed (%s): %v", e.Kind, e.Err)
}

func (e *SynthesisError) Unwrap() error {
	return e.Err
}

// IsTransient reports whether err is a retryable synthesis failure
func IsTransient(err error) bool {
	var se *SynthesisError
	return errors.As(err, &se) && se.Kind == Transient
}

// classify maps a provider error onto a SynthesisError
func classify(err error) *SynthesisError {
	var se *SynthesisError
	if errors.As(err, &se) {
		return se
	}

	var apiErr *openai.Error
	if errors.As(err, &apiErr) {
		switch code := apiErr.StatusCode; {
		case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code >= 500:
			return &SynthesisError{Kind: Transient, Err: err}
		default:
			return &SynthesisError{Kind: Permanent, Err: err}
		}
	}

	var netErr net.Error
	if errors.Is(err, context.DeadlineExceeded) || (errors.As(err, &netErr) && netErr.Timeout()) {
		return &SynthesisError{Kind: Transient, Err: err}
	}
	if errors.Is(err, context.Canceled) {
		return &SynthesisError{Kind: Permanent, Err: err}
	}

	// Connection resets and the like surface as plain errors
	return &SynthesisError{Kind: Transient, Err: err}
}
