package repository

import (
	"context"
	"time"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// ActivationRepository stores one-time activation codes. Stale codes are
// never deleted here; they simply become unusable once expired or consumed.
type ActivationRepository interface {
	Create(ctx context.Context, userID int64, code string, expiresAt time.Time) (*domain.ActivationCode, error)
	// FindUnused looks up an unconsumed code scoped to the given user.
	// A code belonging to another user is never returned.
	FindUnused(ctx context.Context, userID int64, code string) (*domain.ActivationCode, error)
	// MarkUsed consumes the code. It reports false when the record was
	// already consumed, so two concurrent activations cannot both win.
	MarkUsed(ctx context.Context, id int64) (bool, error)
}

type activationRepository struct {
	pool *pgxpool.Pool
}

func NewActivationRepository(pool *pgxpool.Pool) ActivationRepository {
	return &activationRepository{pool: pool}
}

const activationCols = `id, user_id, code, expires_at, used_at, created_at`

func (r *activationRepository) Create(ctx context.Context, userID int64, code string, expiresAt time.Time) (*domain.ActivationCode, error) {
	const q = `
		INSERT INTO activation_codes (user_id, code, expires_at)
		VALUES ($1, $2, $3)
		RETURNING ` + activationCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.ActivationCode
	err := r.pool.QueryRow(ctx, q, userID, code, expiresAt).Scan(
		&a.ID, &a.UserID, &a.Code, &a.ExpiresAt, &a.UsedAt, &a.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &a, nil
}

func (r *activationRepository) FindUnused(ctx context.Context, userID int64, code string) (*domain.ActivationCode, error) {
	const q = `
		SELECT ` + activationCols + `
		FROM activation_codes
		WHERE user_id = $1 AND code = $2 AND used_at IS NULL
		ORDER BY id DESC
		LIMIT 1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var a domain.ActivationCode
	err := r.pool.QueryRow(ctx, q, userID, code).Scan(
		&a.ID, &a.UserID, &a.Code, &a.ExpiresAt, &a.UsedAt, &a.CreatedAt,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	return &a, err
}

func (r *activationRepository) MarkUsed(ctx context.Context, id int64) (bool, error) {
	const q = `
		UPDATE activation_codes
		SET used_at = now()
		WHERE id = $1 AND used_at IS NULL`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	result, err := r.pool.Exec(ctx, q, id)
	if err != nil {
		return false, err
	}

	return result.RowsAffected() > 0, nil
}
