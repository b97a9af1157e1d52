// Package server provides the JSON API and lifecycle management for the
// Tenura web binary. Handlers are thin wrappers over the resolution core:
// parameter parsing and status mapping happen here, everything else in
// internal/resolver.
package server

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/opencargos/tenura/internal/resolver"
)

// Handlers holds the API handler set.
type Handlers struct {
	svc *resolver.Service
}

// NewHandlers creates the API handler set over the resolution core.
func NewHandlers(svc *resolver.Service) *Handlers {
	return &Handlers{svc: svc}
}

// ErrorResponse is the standard error response format for the API.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

// GetProfile handles GET /api/profile — resolve a person-name query to its
// corporate profile.
//
// Query parameters:
//   - name — free-text person name (required)
//
// Responds 404 when no identity resolves; the caller cannot distinguish
// "unknown name" from "store unavailable", matching the core's contract.
func (h *Handlers) GetProfile(w http.ResponseWriter, r *http.Request) {
	name := strings.TrimSpace(r.URL.Query().Get("name"))
	if name == "" {
		respondError(w, http.StatusBadRequest, "missing name parameter")
		return
	}

	profile, ok := h.svc.ResolveIdentityProfile(r.Context(), name)
	if !ok {
		respondError(w, http.StatusNotFound, "no identity found")
		return
	}
	respondJSON(w, http.StatusOK, profile)
}

// GetSearch handles GET /api/search — paginated identity search.
//
// Query parameters:
//   - q         — search query (required)
//   - page      — page number (default 1)
//   - page_size — results per page (defaults and caps come from config)
func (h *Handlers) GetSearch(w http.ResponseWriter, r *http.Request) {
	query := strings.TrimSpace(r.URL.Query().Get("q"))
	if query == "" {
		respondError(w, http.StatusBadRequest, "missing q parameter")
		return
	}

	page := parseInt(r.URL.Query().Get("page"), 1)
	if page < 1 {
		page = 1
	}
	pageSize := parseInt(r.URL.Query().Get("page_size"), 0)
	offset := (page - 1) * pageSize
	if pageSize <= 0 {
		offset = 0
	}

	rows, total := h.svc.SearchIdentities(r.Context(), query, offset, pageSize)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"query":   query,
		"results": rows,
		"total":   total,
		"page":    page,
	})
}

// GetOfficeHolders handles GET /api/officeholders — current holders of every
// seat of the best-matching organization.
//
// Query parameters:
//   - org       — free-text organization name (required)
//   - page      — page number (default 1)
//   - page_size — results per page (defaults and caps come from config)
//
// An unconfident match responds 200 with matched=false and alternate
// spellings, not an error.
func (h *Handlers) GetOfficeHolders(w http.ResponseWriter, r *http.Request) {
	org := strings.TrimSpace(r.URL.Query().Get("org"))
	if org == "" {
		respondError(w, http.StatusBadRequest, "missing org parameter")
		return
	}

	page := parseInt(r.URL.Query().Get("page"), 1)
	pageSize := parseInt(r.URL.Query().Get("page_size"), 0)

	match, holders, total := h.svc.ResolveCurrentOfficeHolders(r.Context(), org, page, pageSize)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"match":   match,
		"holders": holders,
		"total":   total,
		"page":    page,
	})
}

// GetTenure handles GET /api/tenure — the inferred tenure timeline for every
// seat of the best-matching organization.
//
// Query parameters:
//   - org — free-text organization name (required)
func (h *Handlers) GetTenure(w http.ResponseWriter, r *http.Request) {
	org := strings.TrimSpace(r.URL.Query().Get("org"))
	if org == "" {
		respondError(w, http.StatusBadRequest, "missing org parameter")
		return
	}

	timeline := h.svc.TenureTimeline(r.Context(), org)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"org":   org,
		"seats": timeline,
	})
}

// GetDisplayName handles GET /api/displayname — render a registry-style raw
// name for display. Pure computation, no store access.
func (h *Handlers) GetDisplayName(w http.ResponseWriter, r *http.Request) {
	name := r.URL.Query().Get("name")
	if strings.TrimSpace(name) == "" {
		respondError(w, http.StatusBadRequest, "missing name parameter")
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{
		"raw":     name,
		"display": h.svc.FormatDisplayName(name),
	})
}

// GetRanking handles GET /api/ranking — the precomputed most-linked
// identities list.
//
// Query parameters:
//   - limit — maximum rows (default 10)
func (h *Handlers) GetRanking(w http.ResponseWriter, r *http.Request) {
	limit := parseInt(r.URL.Query().Get("limit"), 10)
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"results": h.svc.TopRankedIdentities(limit),
	})
}

// GetHealth handles GET /api/health.
func (h *Handlers) GetHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, `{"status":"healthy"}`)
}

// parseInt parses s as an integer, returning defaultValue for empty or
// malformed input.
func parseInt(s string, defaultValue int) int {
	if s == "" {
		return defaultValue
	}
	val, err := strconv.Atoi(s)
	if err != nil {
		return defaultValue
	}
	return val
}

// respondJSON writes a JSON response with the given status code.
func respondJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		// Headers are already sent; nothing left to do but note it.
		fmt.Printf("failed to encode JSON response: %v\n", err)
	}
}

// respondError writes an error response with the given status code.
func respondError(w http.ResponseWriter, statusCode int, message string) {
	respondJSON(w, statusCode, ErrorResponse{
		Error: message,
		Code:  http.StatusText(statusCode),
	})
}
