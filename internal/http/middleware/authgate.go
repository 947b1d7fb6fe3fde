package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/fedsearch/identity-gateway/internal/http/response"
	"github.com/fedsearch/identity-gateway/internal/repository"
	"github.com/fedsearch/identity-gateway/internal/service"
	"github.com/fedsearch/identity-gateway/pkg/logger"
)

type ctxKey string

const ctxUser ctxKey = "authenticated_user"

// AuthGate resolves a bearer token into a verified, active user. A request
// without an Authorization header passes through anonymous; routes that
// need a user add RequireUser on top.
type AuthGate struct {
	tokens service.TokenService
	users  repository.UserRepository
}

func NewAuthGate(tokens service.TokenService, users repository.UserRepository) *AuthGate {
	return &AuthGate{tokens: tokens, users: users}
}

func (g *AuthGate) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authz := r.Header.Get("Authorization")
		if authz == "" {
			// Anonymous. Routes decide whether that is acceptable.
			next.ServeHTTP(w, r)
			return
		}

		parts := strings.SplitN(authz, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") || parts[1] == "" {
			response.WriteDomainError(w, domain.ErrAuthHeaderMalformed)
			return
		}

		payload, err := g.tokens.VerifyToken(parts[1])
		if err != nil {
			response.WriteDomainError(w, err)
			return
		}

		if payload.UserID == 0 {
			response.WriteError(w, http.StatusUnauthorized, "invalid token payload", response.CodeUnauthorized)
			return
		}

		user, err := g.users.FindByID(r.Context(), payload.UserID)
		if err != nil {
			logger.ErrorContext(r.Context(), "Auth gate user lookup failed", "error", err, "user_id", payload.UserID)
			response.WriteError(w, http.StatusInternalServerError, "authentication failed", response.CodeInternalError)
			return
		}
		if user == nil {
			response.WriteError(w, http.StatusUnauthorized, "user not found", response.CodeUnauthorized)
			return
		}

		if !user.IsActive {
			response.WriteDomainError(w, domain.ErrAccountNotActive)
			return
		}

		// The resolved user is bound to this request only, never cached.
		ctx := context.WithValue(r.Context(), ctxUser, user)
		ctx = context.WithValue(ctx, logger.UserIDKey, user.ID)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireUser rejects anonymous requests. It must run after Authenticate.
func RequireUser(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if UserFrom(r.Context()) == nil {
			response.WriteError(w, http.StatusUnauthorized, "authentication required", response.CodeUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// UserFrom returns the authenticated user bound to ctx, or nil.
func UserFrom(ctx context.Context) *domain.User {
	user, _ := ctx.Value(ctxUser).(*domain.User)
	return user
}
