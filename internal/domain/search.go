package domain

import (
	"fmt"
	"strings"
	"time"
)

// Platforms the upstream federated-search service knows how to query.
const (
	PlatformGitHub        = "github"
	PlatformStackOverflow = "stackoverflow"
	PlatformReddit        = "reddit"
)

var allowedPlatforms = map[string]bool{
	PlatformGitHub:        true,
	PlatformStackOverflow: true,
	PlatformReddit:        true,
}

const (
	DefaultMaxResults = 20
	MaxMaxResults     = 100
	MaxQueryLength    = 500
)

type SearchRequest struct {
	Query      string   `json:"query"`
	MaxResults int      `json:"max_results"`
	Platforms  []string `json:"platforms"`
}

type SearchResult struct {
	Platform  string            `json:"platform"`
	Title     string            `json:"title"`
	Snippet   string            `json:"snippet"`
	URL       string            `json:"url"`
	Timestamp string            `json:"timestamp"`
	Metadata  map[string]string `json:"metadata"`
}

type SearchMetadata struct {
	ResponseTimeMs   int64 `json:"response_time_ms"`
	PlatformsQueried int32 `json:"platforms_queried"`
}

type SearchResponse struct {
	Results          []SearchResult `json:"results"`
	TotalCount       int32          `json:"total_count"`
	PlatformsSuccess []string       `json:"platforms_success"`
	PlatformsTimeout []string       `json:"platforms_timeout"`
	PlatformsError   []string       `json:"platforms_error"`
	Metadata         SearchMetadata `json:"metadata"`
}

type SearchHistory struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Query      string    `json:"query"`
	Platforms  []string  `json:"platforms"`
	MaxResults int       `json:"max_results"`
	CreatedAt  time.Time `json:"created_at"`
}

func (r *SearchRequest) Normalize() {
	r.Query = strings.TrimSpace(r.Query)
	for i, p := range r.Platforms {
		r.Platforms[i] = strings.ToLower(strings.TrimSpace(p))
	}
	if r.MaxResults == 0 {
		r.MaxResults = DefaultMaxResults
	}
}

func (r *SearchRequest) Validate() error {
	if r.Query == "" {
		return fmt.Errorf("query cannot be empty")
	}
	if len(r.Query) > MaxQueryLength {
		return fmt.Errorf("query must be at most %d characters", MaxQueryLength)
	}
	if len(r.Platforms) == 0 {
		return fmt.Errorf("at least one platform is required")
	}
	for _, p := range r.Platforms {
		if !allowedPlatforms[p] {
			return fmt.Errorf("invalid platform: %s", p)
		}
	}
	if r.MaxResults < 1 || r.MaxResults > MaxMaxResults {
		return fmt.Errorf("max_results must be between 1 and %d", MaxMaxResults)
	}
	return nil
}
