package rpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/fystack/wallet-aggregator/internal/ratelimiter"
	"github.com/fystack/wallet-aggregator/pkg/common/logger"
)

// AuthConfig holds authentication configuration for an upstream endpoint.
type AuthConfig struct {
	Type    string            `json:"type"`    // "bearer", "api_key", "custom"
	Token   string            `json:"token"`   // for bearer/api_key
	Headers map[string]string `json:"headers"` // custom headers
}

type NetworkClient interface {
	CallRPC(ctx context.Context, method string, params any) (*RPCResponse, error)
	Do(ctx context.Context, method, endpoint string, body any, params map[string]string) ([]byte, error)
	GetNetworkType() string
	GetURL() string
	Close() error
}

// GenericClient speaks both JSON-RPC and plain REST against one base URL,
// with a bounded timeout, optional auth headers and a per-endpoint rate
// limiter in front of every call.
type GenericClient struct {
	httpClient  *http.Client
	baseURL     string
	auth        *AuthConfig
	network     string
	clientType  string
	rateLimiter *ratelimiter.PooledRateLimiter

	rpcID int64
	mutex sync.Mutex
}

func NewGenericClient(baseURL, network, clientType string, auth *AuthConfig, timeout time.Duration, rateLimiter *ratelimiter.PooledRateLimiter) *GenericClient {
	return &GenericClient{
		httpClient:  &http.Client{Timeout: timeout},
		baseURL:     strings.TrimSuffix(baseURL, "/"),
		auth:        auth,
		network:     network,
		clientType:  clientType,
		rateLimiter: rateLimiter,
		rpcID:       1,
	}
}

// CallRPC performs a JSON-RPC call. An error envelope in the response body is
// returned as an error so fallback treats it like a transport failure.
func (c *GenericClient) CallRPC(ctx context.Context, method string, params any) (*RPCResponse, error) {
	if c.clientType != ClientTypeRPC {
		return nil, fmt.Errorf("client is %s, not RPC", c.clientType)
	}
	c.mutex.Lock()
	reqID := c.rpcID
	c.rpcID++
	c.mutex.Unlock()

	req := &RPCRequest{ID: reqID, JSONRPC: "2.0", Method: method, Params: params}
	raw, err := c.Do(ctx, http.MethodPost, "", req, nil)
	if err != nil {
		return nil, err
	}

	var rpcResp RPCResponse
	if err := json.Unmarshal(raw, &rpcResp); err != nil {
		return nil, fmt.Errorf("unmarshal RPC response: %w", err)
	}
	if rpcResp.Error != nil {
		return &rpcResp, rpcResp.Error
	}
	return &rpcResp, nil
}

func (c *GenericClient) Do(ctx context.Context, method, endpoint string, body any, params map[string]string) ([]byte, error) {
	if c.rateLimiter != nil {
		if err := c.rateLimiter.Wait(ctx, c.baseURL); err != nil {
			return nil, fmt.Errorf("rate limit: %w", err)
		}
	}

	reqURL := c.baseURL + endpoint
	if len(params) > 0 {
		q := url.Values{}
		for k, v := range params {
			q.Set(k, v)
		}
		reqURL += "?" + q.Encode()
	}

	var reqBody io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, reqURL, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	c.setAuthHeaders(req)

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	logger.Debug("HTTP request completed", "url", reqURL, "elapsed", time.Since(start))

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return data, fmt.Errorf("HTTP %d from %s: %s", resp.StatusCode, reqURL, string(data))
	}
	return data, nil
}

func (c *GenericClient) setAuthHeaders(req *http.Request) {
	if c.auth == nil {
		return
	}
	switch c.auth.Type {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+c.auth.Token)
	case "api_key":
		req.Header.Set("X-API-Key", c.auth.Token)
	case "custom":
		for k, v := range c.auth.Headers {
			req.Header.Set(k, v)
		}
	}
}

func (c *GenericClient) GetNetworkType() string { return c.network }
func (c *GenericClient) GetURL() string         { return c.baseURL }
func (c *GenericClient) Close() error           { return nil }
