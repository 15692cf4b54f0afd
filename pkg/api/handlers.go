package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/ssargent/njord/pkg/service"
)

// handleHealth reports server liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	sendJSON(w, http.StatusOK, map[string]string{"status": "healthy"})
}

// handleCreate registers a new product from the request payload.
func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var payload service.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	start := time.Now()
	product, err := s.service.Create(payload)
	s.metrics.RecordOperation("create", err, time.Since(start))
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusCreated, product)
}

// handleGet returns the product at the id in the URL.
func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	product, err := s.service.Get(id)
	s.metrics.RecordOperation("read", err, time.Since(start))
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, product)
}

// handleUpdate replaces the mutable fields of the product at the id in
// the URL.
func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	var payload service.Payload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		sendError(w, "Invalid JSON payload", http.StatusBadRequest)
		return
	}

	start := time.Now()
	product, err := s.service.Update(id, payload)
	s.metrics.RecordOperation("update", err, time.Since(start))
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, product)
}

// handleDelete removes the product at the id in the URL and returns the
// removed value.
func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	id, ok := parseID(w, r)
	if !ok {
		return
	}

	start := time.Now()
	product, err := s.service.Delete(id)
	s.metrics.RecordOperation("delete", err, time.Since(start))
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, product)
}

// handleList returns every tracked product in ascending id order.
func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	products, err := s.service.List()
	s.metrics.RecordOperation("list", err, time.Since(start))
	if err != nil {
		s.sendServiceError(w, err)
		return
	}
	sendJSON(w, http.StatusOK, products)
}

// sendServiceError maps service errors onto HTTP statuses: invalid
// input and not-found are the caller's to handle, anything else is a
// storage fault.
func (s *Server) sendServiceError(w http.ResponseWriter, err error) {
	var invalid *service.InvalidInputError
	if errors.As(err, &invalid) {
		sendError(w, invalid.Error(), http.StatusBadRequest)
		return
	}
	var notFound *service.NotFoundError
	if errors.As(err, &notFound) {
		sendError(w, notFound.Error(), http.StatusNotFound)
		return
	}

	s.logger.Error("storage failure", zap.Error(err))
	sendError(w, "internal storage error", http.StatusInternalServerError)
}

func parseID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		sendError(w, "Invalid product id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

// sendJSON sends a successful JSON response.
func sendJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Success: true,
		Data:    data,
	})
}

// sendError sends an error JSON response.
func sendError(w http.ResponseWriter, message string, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	_ = json.NewEncoder(w).Encode(APIResponse{
		Success: false,
		Error:   message,
	})
}
