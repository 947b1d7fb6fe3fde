package service

import (
	"errors"
	"time"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/golang-jwt/jwt/v5"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// refreshTokenTTL is fixed; only the access token TTL is configurable.
const refreshTokenTTL = 7 * 24 * time.Hour

type TokenClaims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	Type   string `json:"type"`
	jwt.RegisteredClaims
}

// TokenPayload is the normalized claim set handed to callers that only
// care about identity, not JWT internals.
type TokenPayload struct {
	UserID int64
	Email  string
	Type   string
}

// TokenService signs and verifies stateless HS256 tokens. There is no
// revocation: a token stays valid until its natural expiry, and rotating
// the secret invalidates every outstanding token at once.
type TokenService interface {
	GenerateAccessToken(userID int64, email string) (string, error)
	GenerateRefreshToken(userID int64, email string) (string, error)
	DecodeToken(token string) (*TokenClaims, error)
	VerifyToken(token string) (*TokenPayload, error)
	AccessTokenTTL() time.Duration
}

type tokenService struct {
	secret    []byte
	accessTTL time.Duration

	// injectable for deterministic tests
	now func() time.Time
}

func NewTokenService(secret string, accessTTL time.Duration) TokenService {
	return &tokenService{
		secret:    []byte(secret),
		accessTTL: accessTTL,
		now:       time.Now,
	}
}

func (s *tokenService) AccessTokenTTL() time.Duration { return s.accessTTL }

func (s *tokenService) GenerateAccessToken(userID int64, email string) (string, error) {
	return s.generate(userID, email, TokenTypeAccess, s.accessTTL)
}

func (s *tokenService) GenerateRefreshToken(userID int64, email string) (string, error) {
	return s.generate(userID, email, TokenTypeRefresh, refreshTokenTTL)
}

func (s *tokenService) generate(userID int64, email, tokenType string, ttl time.Duration) (string, error) {
	now := s.now()
	claims := TokenClaims{
		UserID: userID,
		Email:  email,
		Type:   tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.secret)
}

func (s *tokenService) DecodeToken(tokenString string) (*TokenClaims, error) {
	tok, err := jwt.ParseWithClaims(tokenString, &TokenClaims{},
		func(token *jwt.Token) (interface{}, error) {
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, domain.ErrTokenExpired
		}
		return nil, domain.ErrTokenInvalid
	}

	claims, ok := tok.Claims.(*TokenClaims)
	if !ok || !tok.Valid {
		return nil, domain.ErrTokenInvalid
	}

	return claims, nil
}

func (s *tokenService) VerifyToken(tokenString string) (*TokenPayload, error) {
	claims, err := s.DecodeToken(tokenString)
	if err != nil {
		return nil, err
	}

	return &TokenPayload{
		UserID: claims.UserID,
		Email:  claims.Email,
		Type:   claims.Type,
	}, nil
}
