package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"time"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/fedsearch/identity-gateway/internal/repository"
)

// DefaultActivationTTL is how long a fresh activation code stays valid.
const DefaultActivationTTL = 24 * time.Hour

type ActivationService interface {
	// CreateActivation generates a code and persists an unused record.
	// A non-positive ttl falls back to DefaultActivationTTL.
	CreateActivation(ctx context.Context, userID int64, ttl time.Duration) (*domain.ActivationIssued, error)
	// VerifyCode consumes the code on success. Wrong, foreign and
	// already-used codes are indistinguishable to the caller.
	VerifyCode(ctx context.Context, userID int64, code string) error
}

type activationService struct {
	codes repository.ActivationRepository

	// injectable for deterministic tests
	now    func() time.Time
	random io.Reader
}

func NewActivationService(codes repository.ActivationRepository) ActivationService {
	return &activationService{
		codes:  codes,
		now:    time.Now,
		random: rand.Reader,
	}
}

var codeSpace = big.NewInt(1_000_000)

// GenerateCode draws a 6-digit code uniformly from 000000-999999. No
// uniqueness check across outstanding codes: lookups are scoped per user,
// so collisions between users never match.
func (s *activationService) generateCode() (string, error) {
	n, err := rand.Int(s.random, codeSpace)
	if err != nil {
		return "", fmt.Errorf("failed to generate activation code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()), nil
}

func (s *activationService) CreateActivation(ctx context.Context, userID int64, ttl time.Duration) (*domain.ActivationIssued, error) {
	if ttl <= 0 {
		ttl = DefaultActivationTTL
	}

	code, err := s.generateCode()
	if err != nil {
		return nil, err
	}

	expiresAt := s.now().Add(ttl)

	record, err := s.codes.Create(ctx, userID, code, expiresAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create activation record: %w", err)
	}

	return &domain.ActivationIssued{
		Code:      record.Code,
		ExpiresAt: record.ExpiresAt,
	}, nil
}

func (s *activationService) VerifyCode(ctx context.Context, userID int64, code string) error {
	record, err := s.codes.FindUnused(ctx, userID, code)
	if err != nil {
		return fmt.Errorf("failed to look up activation code: %w", err)
	}
	if record == nil {
		return domain.ErrInvalidCode
	}

	// An expired record is left unconsumed: a newer still-valid code for
	// the same user remains independently checkable.
	if s.now().After(record.ExpiresAt) {
		return domain.ErrCodeExpired
	}

	consumed, err := s.codes.MarkUsed(ctx, record.ID)
	if err != nil {
		return fmt.Errorf("failed to consume activation code: %w", err)
	}
	if !consumed {
		// Lost the race against a concurrent activation with the same code.
		return domain.ErrInvalidCode
	}

	return nil
}
