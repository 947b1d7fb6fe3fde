package repository

import (
	"context"
	"time"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type SearchHistoryRepository interface {
	Create(ctx context.Context, userID int64, query string, platforms []string, maxResults int) (*domain.SearchHistory, error)
	FindByUser(ctx context.Context, userID int64, limit int) ([]domain.SearchHistory, error)
	FindRecent(ctx context.Context, limit int) ([]domain.SearchHistory, error)
	CountByUser(ctx context.Context, userID int64) (int64, error)
}

type searchHistoryRepository struct {
	pool *pgxpool.Pool
}

func NewSearchHistoryRepository(pool *pgxpool.Pool) SearchHistoryRepository {
	return &searchHistoryRepository{pool: pool}
}

const historyCols = `id, user_id, query, platforms, max_results, created_at`

func (r *searchHistoryRepository) Create(ctx context.Context, userID int64, query string, platforms []string, maxResults int) (*domain.SearchHistory, error) {
	const q = `
		INSERT INTO search_history (user_id, query, platforms, max_results)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + historyCols

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var h domain.SearchHistory
	err := r.pool.QueryRow(ctx, q, userID, query, platforms, maxResults).Scan(
		&h.ID, &h.UserID, &h.Query, &h.Platforms, &h.MaxResults, &h.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	return &h, nil
}

func (r *searchHistoryRepository) FindByUser(ctx context.Context, userID int64, limit int) ([]domain.SearchHistory, error) {
	if limit <= 0 || limit > 100 {
		limit = 50
	}

	const q = `
		SELECT ` + historyCols + `
		FROM search_history
		WHERE user_id = $1
		ORDER BY created_at DESC
		LIMIT $2`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

func (r *searchHistoryRepository) FindRecent(ctx context.Context, limit int) ([]domain.SearchHistory, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}

	const q = `
		SELECT ` + historyCols + `
		FROM search_history
		ORDER BY created_at DESC
		LIMIT $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	rows, err := r.pool.Query(ctx, q, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanHistory(rows)
}

func (r *searchHistoryRepository) CountByUser(ctx context.Context, userID int64) (int64, error) {
	const q = `SELECT count(*) FROM search_history WHERE user_id = $1`

	ctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()

	var count int64
	err := r.pool.QueryRow(ctx, q, userID).Scan(&count)
	return count, err
}

func scanHistory(rows pgx.Rows) ([]domain.SearchHistory, error) {
	var items []domain.SearchHistory
	for rows.Next() {
		var h domain.SearchHistory
		if err := rows.Scan(&h.ID, &h.UserID, &h.Query, &h.Platforms, &h.MaxResults, &h.CreatedAt); err != nil {
			return nil, err
		}
		items = append(items, h)
	}
	return items, rows.Err()
}
