package rest

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"telemetry/pkg/model"
)

// ReadingStore is the storage surface the handlers need. Satisfied by
// *storage.Store; mocked in tests.
type ReadingStore interface {
	Insert(ctx context.Context, input model.SensorInput) (string, error)
	InsertAt(ctx context.Context, input model.SensorInput, ts time.Time) (string, error)
	ListAll(ctx context.Context) ([]model.SensorReading, error)
	ClearAll(ctx context.Context) (int64, error)
	Stats(ctx context.Context) (model.StoreStats, error)
}

type Handler struct {
	store ReadingStore
}

func NewHandler(store ReadingStore) *Handler {
	if store == nil {
		panic("reading store cannot be nil")
	}
	return &Handler{store: store}
}

// Default body size limit for ingestion payloads.
const DefaultMaxBodySize = 1 << 20 // 1MB

const (
	DefaultRequestTimeout = 30 * time.Second
	LongRequestTimeout    = 60 * time.Second // seeding inserts many records
)

// APIError represents a structured error response
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}

// Error codes
const (
	ErrCodeBadRequest      = "BAD_REQUEST"
	ErrCodeRequestTooLarge = "REQUEST_TOO_LARGE"
	ErrCodeInternalError   = "INTERNAL_ERROR"
)

// writeError writes a structured JSON error response
func writeError(w http.ResponseWriter, status int, code string, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(APIError{Code: code, Message: message}); err != nil {
		slog.Warn("Failed to encode error response", "error", err)
	}
}

// writeInternalError writes an internal error response, but first checks
// if the error is due to client cancellation (returns 499 instead of 500).
func writeInternalError(w http.ResponseWriter, err error, message string) {
	if errors.Is(err, context.Canceled) {
		w.WriteHeader(499) // Client Closed Request
		return
	}
	slog.Error(message, "error", err)
	writeError(w, http.StatusInternalServerError, ErrCodeInternalError, message+": "+err.Error())
}

// writeJSON writes a JSON response with proper error handling
func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		slog.Warn("Failed to encode JSON response", "error", err)
	}
}

// maxBodySize wraps a handler with request body size limiting
func maxBodySize(next http.HandlerFunc, maxBytes int64) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if r.Body != nil {
			r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
		}
		next(w, r)
	}
}

// withTimeout wraps a handler with a context timeout
func withTimeout(next http.HandlerFunc, timeout time.Duration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx, cancel := context.WithTimeout(r.Context(), timeout)
		defer cancel()
		next(w, r.WithContext(ctx))
	}
}

func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	// Request ID and panic recovery are handled by the server middleware.
	mux.HandleFunc("GET /{$}", withTimeout(h.handleIndex, 5*time.Second))
	mux.HandleFunc("GET /health", withTimeout(h.handleHealth, 5*time.Second))

	mux.HandleFunc("POST /api/send_data", withTimeout(maxBodySize(h.handleSendData, DefaultMaxBodySize), DefaultRequestTimeout))
	mux.HandleFunc("GET /api/sensors_data", withTimeout(h.handleListReadings, DefaultRequestTimeout))
	mux.HandleFunc("DELETE /api/sensors_data", withTimeout(h.handleClearReadings, DefaultRequestTimeout))
	mux.HandleFunc("GET /api/stats", withTimeout(h.handleStats, DefaultRequestTimeout))

	mux.HandleFunc("POST /api/generate_random_data", withTimeout(h.handleGenerateRandom, DefaultRequestTimeout))
	mux.HandleFunc("POST /api/seed_test_data", withTimeout(h.handleSeedTestData, LongRequestTimeout))
}

// handleIndex handles GET /
func (h *Handler) handleIndex(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"message": "Embedded Statistics Tracking API",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /api/send_data":      "Receive sensor data from embedded system",
			"GET /api/sensors_data":    "Get all sensor data",
			"DELETE /api/sensors_data": "Delete all sensor data",
			"GET /api/stats":           "Collection statistics",
			"POST /api/seed_test_data": "Generate test data (for development)",
		},
	})
}

func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("OK"))
}

// handleSendData handles POST /api/send_data
func (h *Handler) handleSendData(w http.ResponseWriter, r *http.Request) {
	input, err := decodeAndValidate[model.SensorInput](r)
	if err != nil {
		writeError(w, http.StatusBadRequest, ErrCodeBadRequest, err.Error())
		return
	}

	id, err := h.store.Insert(r.Context(), *input)
	if err != nil {
		writeInternalError(w, err, "Failed to store sensor data")
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":  "success",
		"message": "Sensor data stored successfully",
		"id":      id,
	})
}

// handleListReadings handles GET /api/sensors_data
func (h *Handler) handleListReadings(w http.ResponseWriter, r *http.Request) {
	readings, err := h.store.ListAll(r.Context())
	if err != nil {
		writeInternalError(w, err, "Failed to retrieve sensor data")
		return
	}
	if readings == nil {
		readings = []model.SensorReading{}
	}
	writeJSON(w, http.StatusOK, readings)
}

// handleClearReadings handles DELETE /api/sensors_data
func (h *Handler) handleClearReadings(w http.ResponseWriter, r *http.Request) {
	deleted, err := h.store.ClearAll(r.Context())
	if err != nil {
		writeInternalError(w, err, "Failed to delete sensor data")
		return
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"status":          "success",
		"records_deleted": deleted,
	})
}

// handleStats handles GET /api/stats
func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.Stats(r.Context())
	if err != nil {
		writeInternalError(w, err, "Failed to retrieve collection stats")
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
