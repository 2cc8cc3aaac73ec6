package types

import (
	"errors"
	"strings"
	"sync"
)

// Sentinel errors for the query surface. Handlers map these to HTTP status
// codes; everything else is an internal error.
var (
	// ErrMissingAddress means the address parameter was absent (400).
	ErrMissingAddress = errors.New("address parameter is required")

	// ErrUnrecognizedAddress means no address grammar matched (422).
	ErrUnrecognizedAddress = errors.New("invalid or unsupported address format")
)

// UpstreamError signals that every fallback endpoint for the selected
// pipeline was exhausted (502). It wraps the last provider error.
type UpstreamError struct {
	Source string
	Err    error
}

func (e *UpstreamError) Error() string {
	return "upstream " + e.Source + " failed: " + e.Err.Error()
}

func (e *UpstreamError) Unwrap() error { return e.Err }

type MultiError struct {
	mu     sync.Mutex
	Errors []error
}

func (m *MultiError) Error() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	msgs := make([]string, len(m.Errors))
	for i, err := range m.Errors {
		msgs[i] = err.Error()
	}
	return strings.Join(msgs, "; ")
}

func (m *MultiError) Add(err error) {
	if err == nil {
		return
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Errors = append(m.Errors, err)
}

func (m *MultiError) IsEmpty() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.Errors) == 0
}
