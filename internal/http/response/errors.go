package response

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/fedsearch/identity-gateway/pkg/logger"
)

// ErrorResponse is the JSON error shape for every failed request.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// Machine-readable error codes
const (
	CodeInvalidInput        = "INVALID_INPUT"
	CodeEmailExists         = "EMAIL_EXISTS"
	CodeNotFound            = "NOT_FOUND"
	CodeUnauthorized        = "UNAUTHORIZED"
	CodeForbidden           = "FORBIDDEN"
	CodeInvalidCode         = "INVALID_CODE"
	CodeExpiredCode         = "EXPIRED_CODE"
	CodeInvalidToken        = "INVALID_TOKEN"
	CodeExpiredToken        = "EXPIRED_TOKEN"
	CodeMalformedAuthHeader = "MALFORMED_AUTH_HEADER"
	CodeRateLimit           = "RATE_LIMIT_EXCEEDED"
	CodeUpstreamUnavailable = "SEARCH_UNAVAILABLE"
	CodeInternalError       = "INTERNAL_ERROR"
)

func WriteJSON(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("failed to encode response", "error", err)
	}
}

func WriteError(w http.ResponseWriter, statusCode int, message, code string) {
	WriteJSON(w, statusCode, ErrorResponse{Error: message, Code: code})
}

// WriteDomainError maps a tagged domain failure to its transport status
// and a user-safe message. Unknown errors become opaque 500s so internal
// detail never leaks.
func WriteDomainError(w http.ResponseWriter, err error) {
	var domainErr *domain.Error
	if !errors.As(err, &domainErr) {
		WriteError(w, http.StatusInternalServerError, "internal server error", CodeInternalError)
		return
	}

	switch domainErr.Kind {
	case domain.KindAlreadyExists:
		WriteError(w, http.StatusBadRequest, domainErr.Message, CodeEmailExists)
	case domain.KindNotFound:
		WriteError(w, http.StatusNotFound, domainErr.Message, CodeNotFound)
	case domain.KindInvalidCredentials:
		WriteError(w, http.StatusUnauthorized, domainErr.Message, CodeUnauthorized)
	case domain.KindAccountNotActive:
		WriteError(w, http.StatusForbidden, domainErr.Message, CodeForbidden)
	case domain.KindInvalidCode:
		WriteError(w, http.StatusBadRequest, domainErr.Message, CodeInvalidCode)
	case domain.KindCodeExpired:
		WriteError(w, http.StatusBadRequest, domainErr.Message, CodeExpiredCode)
	case domain.KindTokenInvalid:
		WriteError(w, http.StatusUnauthorized, domainErr.Message, CodeInvalidToken)
	case domain.KindTokenExpired:
		WriteError(w, http.StatusUnauthorized, domainErr.Message, CodeExpiredToken)
	case domain.KindAuthHeaderMalformed:
		WriteError(w, http.StatusUnauthorized, domainErr.Message, CodeMalformedAuthHeader)
	case domain.KindUpstreamUnavailable:
		WriteError(w, http.StatusServiceUnavailable, domainErr.Message, CodeUpstreamUnavailable)
	default:
		WriteError(w, http.StatusInternalServerError, "internal server error", CodeInternalError)
	}
}
