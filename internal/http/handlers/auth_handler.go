package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/fedsearch/identity-gateway/internal/http/middleware"
	"github.com/fedsearch/identity-gateway/internal/http/response"
	"github.com/fedsearch/identity-gateway/internal/service"
	"github.com/fedsearch/identity-gateway/pkg/logger"
)

type AuthHandler struct {
	identity service.IdentityService
}

func NewAuthHandler(identity service.IdentityService) *AuthHandler {
	return &AuthHandler{identity: identity}
}

// Signup handles POST /v1/auth/signup. The activation code is returned in
// the response body; delivering it out-of-band is someone else's job.
func (h *AuthHandler) Signup(w http.ResponseWriter, r *http.Request) {
	var req domain.SignupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid request body", response.CodeInvalidInput)
		return
	}

	result, err := h.identity.CreateUser(r.Context(), &req)
	if err != nil {
		h.writeIdentityError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "User registered", "user_id", result.UserID)
	response.WriteJSON(w, http.StatusCreated, result)
}

// Signin handles POST /v1/auth/signin.
func (h *AuthHandler) Signin(w http.ResponseWriter, r *http.Request) {
	var req domain.SigninRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid request body", response.CodeInvalidInput)
		return
	}

	result, err := h.identity.SigninUser(r.Context(), req.Email, req.Password)
	if err != nil {
		h.writeIdentityError(w, r, err)
		return
	}

	response.WriteJSON(w, http.StatusOK, result)
}

// Activate handles POST /v1/auth/activate.
func (h *AuthHandler) Activate(w http.ResponseWriter, r *http.Request) {
	var req domain.ActivateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		response.WriteError(w, http.StatusBadRequest, "invalid request body", response.CodeInvalidInput)
		return
	}
	if err := req.Validate(); err != nil {
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidInput)
		return
	}

	user, err := h.identity.ActivateUser(r.Context(), req.UserID, req.Code)
	if err != nil {
		h.writeIdentityError(w, r, err)
		return
	}

	logger.InfoContext(r.Context(), "User activated", "user_id", user.ID)
	response.WriteJSON(w, http.StatusOK, map[string]interface{}{
		"user_id":   user.ID,
		"email":     user.Email,
		"is_active": user.IsActive,
	})
}

// Me handles GET /v1/me for authenticated requests.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	user := middleware.UserFrom(r.Context())
	if user == nil {
		response.WriteError(w, http.StatusUnauthorized, "authentication required", response.CodeUnauthorized)
		return
	}

	response.WriteJSON(w, http.StatusOK, user.ToUserInfo())
}

func (h *AuthHandler) writeIdentityError(w http.ResponseWriter, r *http.Request, err error) {
	var domainErr *domain.Error
	if errors.As(err, &domainErr) {
		response.WriteDomainError(w, err)
		return
	}

	// Validation failures carry safe messages; anything else is opaque.
	if isValidationError(err) {
		response.WriteError(w, http.StatusBadRequest, err.Error(), response.CodeInvalidInput)
		return
	}

	logger.ErrorContext(r.Context(), "Identity operation failed", "error", err)
	response.WriteError(w, http.StatusInternalServerError, "internal server error", response.CodeInternalError)
}
