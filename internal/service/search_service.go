package service

import (
	"context"
	"fmt"

	"github.com/fedsearch/identity-gateway/internal/domain"
	"github.com/fedsearch/identity-gateway/internal/repository"
	"github.com/fedsearch/identity-gateway/internal/search"
	"github.com/fedsearch/identity-gateway/pkg/events"
	"github.com/fedsearch/identity-gateway/pkg/logger"
)

type SearchService interface {
	Search(ctx context.Context, user *domain.User, req *domain.SearchRequest) (*domain.SearchResponse, error)
	History(ctx context.Context, userID int64, limit int) ([]domain.SearchHistory, error)
	Health(ctx context.Context) error
}

type searchService struct {
	upstream search.Client
	history  repository.SearchHistoryRepository
	eventBus events.Publisher
}

func NewSearchService(upstream search.Client, history repository.SearchHistoryRepository, eventBus events.Publisher) SearchService {
	return &searchService{
		upstream: upstream,
		history:  history,
		eventBus: eventBus,
	}
}

func (s *searchService) Search(ctx context.Context, user *domain.User, req *domain.SearchRequest) (*domain.SearchResponse, error) {
	req.Normalize()
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("validation failed: %w", err)
	}

	// Single attempt, no retry. Every upstream failure surfaces as one
	// generic kind so callers learn nothing about upstream internals.
	resp, err := s.upstream.FederatedSearch(ctx, req)
	if err != nil {
		logger.ErrorContext(ctx, "Federated search failed", "error", err, "query", req.Query)
		return nil, domain.ErrUpstreamUnavailable
	}

	// History is best effort: losing a history row never fails a search.
	if _, err := s.history.Create(ctx, user.ID, req.Query, req.Platforms, req.MaxResults); err != nil {
		logger.WarnContext(ctx, "Failed to record search history", "error", err, "user_id", user.ID)
	}

	if s.eventBus != nil {
		event := events.SearchPerformedEvent{
			UserID:      user.ID,
			Query:       req.Query,
			Platforms:   req.Platforms,
			MaxResults:  req.MaxResults,
			ResultCount: resp.TotalCount,
		}
		if err := s.eventBus.Publish(ctx, events.SearchPerformed, event); err != nil {
			logger.WarnContext(ctx, "Failed to publish search event", "error", err)
		}
	}

	return resp, nil
}

func (s *searchService) History(ctx context.Context, userID int64, limit int) ([]domain.SearchHistory, error) {
	items, err := s.history.FindByUser(ctx, userID, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to load search history: %w", err)
	}
	return items, nil
}

func (s *searchService) Health(ctx context.Context) error {
	if err := s.upstream.Health(ctx); err != nil {
		logger.WarnContext(ctx, "Search upstream health probe failed", "error", err)
		return domain.ErrUpstreamUnavailable
	}
	return nil
}
