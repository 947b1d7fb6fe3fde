package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/alexedwards/argon2id"
	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/fedsearch/identity-gateway/internal/repository"
	"github.com/fedsearch/identity-gateway/pkg/events"
	"github.com/fedsearch/identity-gateway/pkg/logger"
)

// IdentityService orchestrates the registration -> activation ->
// authenticated-session state machine.
type IdentityService interface {
	CreateUser(ctx context.Context, req *domain.SignupRequest) (*domain.SignupResult, error)
	AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error)
	SigninUser(ctx context.Context, email, password string) (*domain.SigninResult, error)
	ActivateUser(ctx context.Context, userID int64, code string) (*domain.User, error)
	GetUserByID(ctx context.Context, id int64) (*domain.User, error)
	GetUserByEmail(ctx context.Context, email string) (*domain.User, error)
}

type identityService struct {
	users       repository.UserRepository
	activations ActivationService
	tokens      TokenService
	eventBus    events.Publisher
	codeTTL     time.Duration
}

func NewIdentityService(
	users repository.UserRepository,
	activations ActivationService,
	tokens TokenService,
	eventBus events.Publisher,
	codeTTL time.Duration,
) IdentityService {
	if codeTTL <= 0 {
		codeTTL = DefaultActivationTTL
	}
	return &identityService{
		users:       users,
		activations: activations,
		tokens:      tokens,
		eventBus:    eventBus,
		codeTTL:     codeTTL,
	}
}

func (s *identityService) CreateUser(ctx context.Context, req *domain.SignupRequest) (*domain.SignupResult, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	exists, err := s.users.ExistsByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}
	if exists {
		return nil, domain.ErrAlreadyExists
	}

	passwordHash, err := argon2id.CreateHash(req.Password, argon2id.DefaultParams)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	// The repository maps a unique-index violation to ErrAlreadyExists,
	// covering signups that raced past the check above.
	user, err := s.users.Create(ctx, req.Email, req.Name, passwordHash)
	if err != nil {
		if errors.Is(err, domain.ErrAlreadyExists) {
			return nil, domain.ErrAlreadyExists
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	issued, err := s.activations.CreateActivation(ctx, user.ID, s.codeTTL)
	if err != nil {
		return nil, fmt.Errorf("failed to create activation: %w", err)
	}

	s.publish(ctx, events.UserRegistered, events.UserRegisteredEvent{
		UserID:           user.ID,
		Email:            user.Email,
		ActivationExpiry: issued.ExpiresAt,
		RegisteredAt:     user.CreatedAt,
	})

	return &domain.SignupResult{
		UserID:           user.ID,
		Email:            user.Email,
		Name:             user.Name,
		IsActive:         user.IsActive,
		ActivationCode:   issued.Code,
		ActivationExpiry: issued.ExpiresAt,
	}, nil
}

func (s *identityService) AuthenticateUser(ctx context.Context, email, password string) (*domain.User, error) {
	req := domain.SigninRequest{Email: email, Password: password}
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, domain.ErrInvalidCredentials
	}

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrInvalidCredentials
	}

	match, err := argon2id.ComparePasswordAndHash(req.Password, user.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("failed to verify password: %w", err)
	}
	if !match {
		return nil, domain.ErrInvalidCredentials
	}

	if !user.IsActive {
		return nil, domain.ErrAccountNotActive
	}

	return user, nil
}

func (s *identityService) SigninUser(ctx context.Context, email, password string) (*domain.SigninResult, error) {
	user, err := s.AuthenticateUser(ctx, email, password)
	if err != nil {
		return nil, err
	}

	accessToken, err := s.tokens.GenerateAccessToken(user.ID, user.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to create access token: %w", err)
	}

	s.publish(ctx, events.UserSignedIn, events.UserSignedInEvent{
		UserID:     user.ID,
		Email:      user.Email,
		SignedInAt: time.Now(),
	})

	return &domain.SigninResult{
		AccessToken: accessToken,
		ExpiresIn:   int64(s.tokens.AccessTokenTTL().Seconds()),
	}, nil
}

func (s *identityService) ActivateUser(ctx context.Context, userID int64, code string) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to find user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}

	if err := s.activations.VerifyCode(ctx, user.ID, code); err != nil {
		return nil, err
	}

	updated, err := s.users.MarkActive(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to activate user: %w", err)
	}
	if updated == nil {
		return nil, domain.ErrNotFound
	}

	s.publish(ctx, events.UserActivated, events.UserActivatedEvent{
		UserID:      updated.ID,
		Email:       updated.Email,
		ActivatedAt: updated.UpdatedAt,
	})

	return updated, nil
}

func (s *identityService) GetUserByID(ctx context.Context, id int64) (*domain.User, error) {
	user, err := s.users.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

func (s *identityService) GetUserByEmail(ctx context.Context, email string) (*domain.User, error) {
	req := domain.SigninRequest{Email: email}
	req.Normalize()

	user, err := s.users.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	if user == nil {
		return nil, domain.ErrNotFound
	}
	return user, nil
}

// publish is best effort: a dead event bus never blocks an identity flow.
func (s *identityService) publish(ctx context.Context, subject string, payload interface{}) {
	if s.eventBus == nil {
		return
	}
	if err := s.eventBus.Publish(ctx, subject, payload); err != nil {
		logger.WarnContext(ctx, "Failed to publish event", "subject", subject, "error", err)
	}
}
