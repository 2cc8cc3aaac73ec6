package rpc

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func rpcHandler(result any) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"result":  result,
		})
	}
}

func rpcErrorHandler(code int, msg string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]any{
			"jsonrpc": "2.0",
			"id":      1,
			"error":   map[string]any{"code": code, "message": msg},
		})
	}
}

func newTestFallback(t *testing.T, urls ...string) *Fallback[*EvmClient] {
	t.Helper()
	providers := make([]*Provider, 0, len(urls))
	for i, u := range urls {
		providers = append(providers, &Provider{
			Name:   fmt.Sprintf("test-%d", i),
			URL:    u,
			Client: NewEvmClient(u, nil, 5*time.Second, nil),
		})
	}
	f, err := NewFallback[*EvmClient](providers...)
	require.NoError(t, err)
	return f
}

func TestFallback_FirstProviderWins(t *testing.T) {
	var firstCalls, secondCalls atomic.Int64

	first := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		firstCalls.Add(1)
		rpcHandler("0x1bc16d674ec80000")(w, r)
	}))
	defer first.Close()
	second := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		secondCalls.Add(1)
		rpcHandler("0x0")(w, r)
	}))
	defer second.Close()

	f := newTestFallback(t, first.URL, second.URL)

	var balance string
	err := f.Execute(context.Background(), func(c *EvmClient) error {
		var err error
		balance, err = c.GetBalance(context.Background(), "0xd8da6bf26964af9d7eed9e03e53415d37aa96045")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "2000000000000000000", balance)
	assert.Equal(t, int64(1), firstCalls.Load())
	assert.Equal(t, int64(0), secondCalls.Load(), "second endpoint must not be touched on first success")
}

func TestFallback_SkipsHTTPFailure(t *testing.T) {
	broken := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer broken.Close()
	healthy := httptest.NewServer(rpcHandler("0xde0b6b3a7640000"))
	defer healthy.Close()

	f := newTestFallback(t, broken.URL, healthy.URL)

	var balance string
	err := f.Execute(context.Background(), func(c *EvmClient) error {
		var err error
		balance, err = c.GetBalance(context.Background(), "0xd8da6bf26964af9d7eed9e03e53415d37aa96045")
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "1000000000000000000", balance)
}

func TestFallback_SkipsRPCErrorEnvelope(t *testing.T) {
	// 200 OK with an error envelope is rejected like a transport failure.
	erroring := httptest.NewServer(rpcErrorHandler(-32000, "header not found"))
	defer erroring.Close()
	healthy := httptest.NewServer(rpcHandler("0x0"))
	defer healthy.Close()

	f := newTestFallback(t, erroring.URL, healthy.URL)

	err := f.Execute(context.Background(), func(c *EvmClient) error {
		_, err := c.GetBalance(context.Background(), "0xd8da6bf26964af9d7eed9e03e53415d37aa96045")
		return err
	})
	assert.NoError(t, err)
}

func TestFallback_ExhaustionReturnsFetchFailure(t *testing.T) {
	a := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer a.Close()
	b := httptest.NewServer(rpcErrorHandler(-32601, "method not found"))
	defer b.Close()

	f := newTestFallback(t, a.URL, b.URL)

	err := f.Execute(context.Background(), func(c *EvmClient) error {
		_, err := c.GetBalance(context.Background(), "0xd8da6bf26964af9d7eed9e03e53415d37aa96045")
		return err
	})
	require.Error(t, err)

	var failure *FetchFailure
	require.ErrorAs(t, err, &failure)
	assert.Equal(t, 2, failure.Attempts)
	assert.Contains(t, failure.LastErr.Error(), "method not found")
}

func TestFallback_ContextCancellation(t *testing.T) {
	slow := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer slow.Close()

	f := newTestFallback(t, slow.URL, slow.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	err := f.Execute(ctx, func(c *EvmClient) error {
		_, err := c.GetBalance(ctx, "0xd8da6bf26964af9d7eed9e03e53415d37aa96045")
		return err
	})
	assert.Error(t, err)
}

func TestFallback_NoProviders(t *testing.T) {
	f, err := NewFallback[*EvmClient]()
	require.NoError(t, err)

	err = f.Execute(context.Background(), func(c *EvmClient) error { return nil })
	var failure *FetchFailure
	require.True(t, errors.As(err, &failure))
	assert.Equal(t, 0, failure.Attempts)
}

func TestProvider_ErrorCounting(t *testing.T) {
	p := &Provider{Name: "x"}
	p.fail()
	p.fail()
	assert.Equal(t, 2, p.ConsecutiveErrors())
	p.succeed()
	assert.Equal(t, 0, p.ConsecutiveErrors())
}
