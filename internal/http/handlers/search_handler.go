package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/fedsearch/identity-gateway/internal/http/middleware"
	"github.com/fedsearch/identity-gateway/internal/http/response"
	"github.com/fedsearch/identity-gateway/internal/service"
	"github.com/fedsearch/identity-gateway/pkg/logger"
)

type SearchHandler struct {
	search service.SearchService
}

func NewSearchHandler(search service.SearchService) *SearchHandler {
	return &SearchHandler{search: search}
}

// Search handles POST /v1/search for authenticated users.
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		response.WriteError(w, http.StatusUnauthorized, "authentication required", response.CodeUnauthorized)
		return
	}

	var req domain.SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid request body", response.CodeInvalidInput)
		return
	}

	result, err := h.search.Search(r.Context(), user, &req)
	if err != nil {
		var domainErr *domain.Error
		switch {
		case errors.As(err, &domainErr):
			response.WriteDomainError(w, err)
		case isValidationError(err):
			response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidInput)
		default:
			logger.ErrorContext(r.Context(), "Search failed", "error", err)
			response.WriteError(w, http.StatusInternalServerError, "internal server error", response.CodeInternalError)
		}
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}

// History handles GET /v1/search/history?limit=N.
func (h *SearchHandler) History(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		response.WriteError(w, http.StatusUnauthorized, "authentication required", response.CodeUnauthorized)
		return
	}

	limit := 50
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 100 {
			limit = n
		}
	}

	items, err := h.search.History(r.Context(), user.ID, limit)
	if err != nil {
		logger.ErrorContext(r.Context(), "Failed to load search history", "error", err)
		response.WriteError(w, http.StatusInternalServerError, "internal server error", response.CodeInternalError)
		return
	}

	if items == nil {
		items = []domain.SearchHistory{}
	}
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"history": items,
		"count":   len(items),
	})
}

// Health handles GET /v1/search/health and probes the upstream service.
func (h *SearchHandler) Health(w http.ResponseWriter, r *http.Request) {
	if err := h.search.Health(r.Context()); err != nil {
		response.WriteDomainError(w, err)
		return
	}
	response.WriteJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}
