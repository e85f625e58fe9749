// Copyright 2025 ScentStack
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package catalog

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"scentstack/platform/shared/logger"
	"scentstack/platform/store"
)

const maxRequestBodySize = 1 * 1024 * 1024 // 1MB

// allowedMethods is the Allow header value for unsupported methods.
const allowedMethods = "GET, POST, PUT, DELETE"

// PerfumesHandler handles HTTP requests for the perfume catalog.
type PerfumesHandler struct {
	store    PerfumeStore
	enricher Enricher
	log      *logger.Logger

	// missingConfig lists required settings absent at startup. While
	// non-empty every request fails fast with a 500 before any store access.
	missingConfig []string
}

// NewPerfumesHandler creates a new catalog handler.
func NewPerfumesHandler(perfumeStore PerfumeStore, enricher Enricher, log *logger.Logger, missingConfig []string) *PerfumesHandler {
	return &PerfumesHandler{
		store:         perfumeStore,
		enricher:      enricher,
		log:           log,
		missingConfig: missingConfig,
	}
}

// HandlePerfumes dispatches /api/perfumes on request method.
func (h *PerfumesHandler) HandlePerfumes(w http.ResponseWriter, r *http.Request) {
	requestID := uuid.New().String()
	start := time.Now()

	status := h.dispatch(w, r, requestID)

	durationMS := float64(time.Since(start).Milliseconds())
	promRequestsTotal.WithLabelValues(r.Method, strconv.Itoa(status)).Inc()
	promRequestDuration.WithLabelValues(r.Method).Observe(durationMS)
	h.log.InfoWithDuration(requestID, "Request completed", durationMS, map[string]interface{}{
		"method": r.Method,
		"status": status,
	})
}

// dispatch routes to the per-method branch and returns the response status.
func (h *PerfumesHandler) dispatch(w http.ResponseWriter, r *http.Request, requestID string) int {
	if len(h.missingConfig) > 0 {
		return h.writeError(w, http.StatusInternalServerError, "CONFIG_MISSING",
			"Service is not configured: missing "+strings.Join(h.missingConfig, ", "))
	}

	switch r.Method {
	case http.MethodGet:
		return h.listPerfumes(w, r, requestID)
	case http.MethodPost:
		return h.createPerfume(w, r, requestID)
	case http.MethodPut:
		return h.updatePerfume(w, r, requestID)
	case http.MethodDelete:
		return h.deletePerfume(w, r, requestID)
	default:
		w.Header().Set("Allow", allowedMethods)
		return h.writeError(w, http.StatusMethodNotAllowed, "METHOD_NOT_ALLOWED",
			"Method not allowed. Supported methods: "+allowedMethods)
	}
}

// listPerfumes handles GET /api/perfumes
func (h *PerfumesHandler) listPerfumes(w http.ResponseWriter, r *http.Request, requestID string) int {
	perfumes, err := h.store.List(r.Context())
	if err != nil {
		return h.internalError(w, requestID, "Failed to list perfumes", err)
	}

	return h.writeJSON(w, http.StatusOK, perfumes)
}

// createPerfume handles POST /api/perfumes
func (h *PerfumesHandler) createPerfume(w http.ResponseWriter, r *http.Request, requestID string) int {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
	}

	name := strings.TrimSpace(req.Name)

	var missing []string
	if name == "" {
		missing = append(missing, "name")
	}
	if req.Status == "" {
		missing = append(missing, "status")
	}
	if len(missing) > 0 {
		return h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR",
			"Missing required field(s): "+strings.Join(missing, ", "))
	}

	existing, err := h.store.FindByName(r.Context(), name)
	if err != nil {
		return h.internalError(w, requestID, "Duplicate check failed", err)
	}
	if existing != nil {
		return h.writeError(w, http.StatusBadRequest, "DUPLICATE_NAME",
			fmt.Sprintf("A perfume named %q already exists", name))
	}

	// Enrichment is synchronous and best-effort: a degraded lookup yields an
	// empty note string, never a failed create.
	result := h.enricher.TopNotes(r.Context(), name)
	if result.Fallback {
		promEnrichmentFallbacks.Inc()
		h.log.Warn(requestID, "Enrichment degraded to empty notes", map[string]interface{}{
			"name": name,
		})
	}

	var price *float64
	if req.Status == store.StatusWantToBuy {
		value := 0.0
		if req.PriceBDT != nil {
			value = *req.PriceBDT
		}
		price = &value
	}

	created, err := h.store.Insert(r.Context(), store.Perfume{
		Name:     name,
		Status:   req.Status,
		PriceBDT: price,
		TopNotes: result.Notes,
	})
	if err != nil {
		return h.internalError(w, requestID, "Failed to insert perfume", err)
	}

	return h.writeJSON(w, http.StatusCreated, created)
}

// updatePerfume handles PUT /api/perfumes
func (h *PerfumesHandler) updatePerfume(w http.ResponseWriter, r *http.Request, requestID string) int {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodySize)

	var req UpdateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		return h.writeError(w, http.StatusBadRequest, "INVALID_JSON", "Invalid JSON body")
	}

	if req.ID == "" {
		return h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required field: id")
	}

	patch := store.PerfumePatch{
		TopNotes: req.TopNotes,
		Status:   req.Status,
	}

	if req.PriceBDT != nil {
		// PriceBDT is only meaningful under the wantToBuy status. The
		// effective status is the request's when supplied, otherwise the
		// record's current stored status.
		effective, status := h.effectiveStatus(w, r, requestID, req)
		if status != 0 {
			return status
		}
		patch.PriceSet = true
		if effective == store.StatusWantToBuy {
			patch.Price = req.PriceBDT
		}
	} else if req.Status != nil && *req.Status != store.StatusWantToBuy {
		// Moving away from wantToBuy clears any stored price so the
		// price/status invariant holds on the stored record.
		patch.PriceSet = true
	}

	updated, err := h.store.Update(r.Context(), req.ID, patch)
	if errors.Is(err, store.ErrNotFound) {
		return h.writeError(w, http.StatusNotFound, "NOT_FOUND", "Perfume not found")
	}
	if err != nil {
		return h.internalError(w, requestID, "Failed to update perfume", err)
	}

	return h.writeJSON(w, http.StatusOK, updated)
}

// effectiveStatus resolves the status governing the priceBDT invariant for a
// partial update. Returns a non-zero HTTP status when the resolution itself
// already terminated the request.
func (h *PerfumesHandler) effectiveStatus(w http.ResponseWriter, r *http.Request, requestID string, req UpdateRequest) (string, int) {
	if req.Status != nil {
		return *req.Status, 0
	}

	current, err := h.store.FindByID(r.Context(), req.ID)
	if errors.Is(err, store.ErrNotFound) {
		return "", h.writeError(w, http.StatusNotFound, "NOT_FOUND", "Perfume not found")
	}
	if err != nil {
		return "", h.internalError(w, requestID, "Failed to load perfume for update", err)
	}

	return current.Status, 0
}

// deletePerfume handles DELETE /api/perfumes?id={id}
func (h *PerfumesHandler) deletePerfume(w http.ResponseWriter, r *http.Request, requestID string) int {
	id := r.URL.Query().Get("id")
	if id == "" {
		return h.writeError(w, http.StatusBadRequest, "VALIDATION_ERROR", "Missing required parameter: id")
	}

	err := h.store.Delete(r.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		return h.writeError(w, http.StatusNotFound, "NOT_FOUND", "Perfume not found")
	}
	if err != nil {
		return h.internalError(w, requestID, "Failed to delete perfume", err)
	}

	return h.writeJSON(w, http.StatusOK, DeleteResponse{Message: "Perfume deleted"})
}

// internalError logs the failure detail server-side and responds with a
// generic 500. No internal detail reaches the caller.
func (h *PerfumesHandler) internalError(w http.ResponseWriter, requestID, message string, err error) int {
	h.log.ErrorWithCode(requestID, message, http.StatusInternalServerError, err, nil)
	return h.writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR", "Internal server error")
}

// writeJSON writes a JSON response and returns the status for metrics.
func (h *PerfumesHandler) writeJSON(w http.ResponseWriter, status int, v interface{}) int {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("", "Failed to encode response", map[string]interface{}{"error": err.Error()})
	}
	return status
}

// writeError writes the uniform error envelope.
func (h *PerfumesHandler) writeError(w http.ResponseWriter, status int, code, message string) int {
	return h.writeJSON(w, status, ErrorResponse{Error: ErrorDetail{Code: code, Message: message}})
}
