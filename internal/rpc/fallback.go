package rpc

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fystack/wallet-aggregator/pkg/common/logger"
)

// Provider is one endpoint in an ordered fallback list.
type Provider struct {
	Name   string
	URL    string
	Client NetworkClient

	mu                sync.Mutex
	consecutiveErrors int
	lastError         time.Time
}

func (p *Provider) fail() {
	p.mu.Lock()
	p.consecutiveErrors++
	p.lastError = time.Now()
	p.mu.Unlock()
}

func (p *Provider) succeed() {
	p.mu.Lock()
	p.consecutiveErrors = 0
	p.mu.Unlock()
}

// ConsecutiveErrors reports how many calls in a row have failed against this
// provider. Used for logging only; it never reorders the list.
func (p *Provider) ConsecutiveErrors() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.consecutiveErrors
}

// FetchFailure is returned after every endpoint in the list was tried and
// rejected. It wraps the last provider error.
type FetchFailure struct {
	Attempts int
	LastErr  error
}

func (e *FetchFailure) Error() string {
	return fmt.Sprintf("all %d providers failed, last error: %v", e.Attempts, e.LastErr)
}

func (e *FetchFailure) Unwrap() error { return e.LastErr }

// Fallback issues a logical request against an ordered list of redundant
// endpoints and accepts the first structurally valid response. There is no
// retry on the same endpoint and no backoff: the endpoints are public mirrors
// of the same data, so fallback is across endpoints, not across time.
// Failed attempts are never cached by callers; a transient vendor outage must
// not be sticky for a TTL window.
type Fallback[T NetworkClient] struct {
	providers []*Provider
}

// NewFallback creates a type-safe Fallback[T] over an ordered provider list.
func NewFallback[T NetworkClient](providers ...*Provider) (*Fallback[T], error) {
	for _, p := range providers {
		if _, ok := p.Client.(T); !ok {
			return nil, fmt.Errorf("invalid provider client type: expected %T, got %T", *new(T), p.Client)
		}
	}
	return &Fallback[T]{providers: providers}, nil
}

func (f *Fallback[T]) Providers() []*Provider {
	return f.providers
}

// Execute runs fn against each provider in order until one accepts. fn must
// perform both the request and its structural validation: a response that
// fails validation is rejected exactly like a transport error, and the next
// endpoint is tried. Context cancellation aborts the walk immediately.
func (f *Fallback[T]) Execute(ctx context.Context, fn func(T) error) error {
	if len(f.providers) == 0 {
		return &FetchFailure{Attempts: 0, LastErr: fmt.Errorf("no providers configured")}
	}

	var lastErr error
	for _, provider := range f.providers {
		if err := ctx.Err(); err != nil {
			return err
		}

		client := provider.Client.(T)
		start := time.Now()
		err := fn(client)
		if err == nil {
			provider.succeed()
			return nil
		}

		provider.fail()
		lastErr = err
		logger.Debug("Provider rejected, trying next",
			"provider", provider.Name,
			"elapsed", time.Since(start),
			"consecutive_errors", provider.ConsecutiveErrors(),
			"error", err.Error())
	}

	logger.Warn("All providers exhausted",
		"attempts", len(f.providers),
		"error", lastErr.Error())
	return &FetchFailure{Attempts: len(f.providers), LastErr: lastErr}
}
