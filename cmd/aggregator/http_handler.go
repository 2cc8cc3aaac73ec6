package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/fystack/wallet-aggregator/internal/service"
	"github.com/fystack/wallet-aggregator/pkg/common/logger"
	"github.com/fystack/wallet-aggregator/pkg/common/types"
)

type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp time.Time `json:"timestamp"`
	Version   string    `json:"version"`
}

type APIErrorResponse struct {
	Status    string    `json:"status"`
	Code      string    `json:"code"`
	Error     string    `json:"error"`
	Timestamp time.Time `json:"timestamp"`
}

type AggregatorHTTPHandler struct {
	version string
	svc     *service.Service
}

func NewAggregatorHTTPHandler(version string, svc *service.Service) *AggregatorHTTPHandler {
	return &AggregatorHTTPHandler{
		version: version,
		svc:     svc,
	}
}

func (h *AggregatorHTTPHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("/health", h.HandleHealth)
	mux.HandleFunc("/v1/portfolio", h.HandlePortfolio)
	mux.HandleFunc("/v1/activity", h.HandleActivity)
}

func (h *AggregatorHTTPHandler) HandleHealth(w http.ResponseWriter, r *http.Request) {
	response := HealthResponse{
		Status:    "ok",
		Timestamp: time.Now().UTC(),
		Version:   h.version,
	}
	writeJSON(w, http.StatusOK, response)
}

func (h *AggregatorHTTPHandler) HandlePortfolio(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "INTERNAL_ERROR", "method not allowed")
		return
	}

	address, chainHint := queryParams(r)
	p, err := h.svc.Portfolio(r.Context(), address, chainHint)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, p)
}

func (h *AggregatorHTTPHandler) HandleActivity(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		writeErrorJSON(w, http.StatusMethodNotAllowed, "INTERNAL_ERROR", "method not allowed")
		return
	}

	address, chainHint := queryParams(r)
	a, err := h.svc.Activity(r.Context(), address, chainHint)
	if err != nil {
		writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, a)
}

func queryParams(r *http.Request) (address, chainHint string) {
	return strings.TrimSpace(r.URL.Query().Get("address")),
		strings.TrimSpace(r.URL.Query().Get("chain"))
}

func writeServiceError(w http.ResponseWriter, err error) {
	var upstream *types.UpstreamError
	switch {
	case errors.Is(err, types.ErrMissingAddress):
		writeErrorJSON(w, http.StatusBadRequest, "MISSING_ADDRESS", err.Error())
	case errors.Is(err, types.ErrUnrecognizedAddress):
		writeErrorJSON(w, http.StatusUnprocessableEntity, "UNRECOGNIZED_ADDRESS", err.Error())
	case errors.As(err, &upstream):
		writeErrorJSON(w, http.StatusBadGateway, "VENDOR_API_ERROR", err.Error())
	default:
		logger.Error("query failed", "error", err)
		writeErrorJSON(w, http.StatusInternalServerError, "INTERNAL_ERROR", "internal error")
	}
}

func startHTTPServer(port int, version string, svc *service.Service) *http.Server {
	mux := http.NewServeMux()

	if version == "" {
		version = "1.0.0" // fallback version
	}

	handler := NewAggregatorHTTPHandler(version, svc)
	handler.Register(mux)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", port),
		Handler: mux,
	}

	go func() {
		logger.Info(
			"Aggregator HTTP server started",
			"port", port,
			"health_endpoint", "/health",
			"portfolio_endpoint", "/v1/portfolio",
			"activity_endpoint", "/v1/activity",
		)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Error("HTTP server failed to start", "error", err)
		}
	}()

	return server
}

func writeJSON(w http.ResponseWriter, statusCode int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		logger.Error("Failed to encode response", "status", statusCode, "err", err)
	}
}

func writeErrorJSON(w http.ResponseWriter, statusCode int, code, message string) {
	writeJSON(w, statusCode, APIErrorResponse{
		Status:    "error",
		Code:      code,
		Error:     message,
		Timestamp: time.Now().UTC(),
	})
}
