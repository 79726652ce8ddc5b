// Package pagination parses page/limit query parameters and builds the
// paginated list envelope used by the story and image listings.
package pagination

import (
	"fmt"
	"net/http"
	"strconv"

	"universitas/internal/pkg/config"
)

// Config holds the page size limits of list endpoints.
type Config struct {
	DefaultPage  int
	DefaultLimit int
	MaxLimit     int
}

// DefaultConfig returns page=1, limit=25, max=200. The desk browses images
// in pages of 25 and the print layout fetches up to 200 stories.
func DefaultConfig() Config {
	return Config{
		DefaultPage:  1,
		DefaultLimit: 25,
		MaxLimit:     200,
	}
}

// LoadFromEnv reads PAGINATION_DEFAULT_LIMIT and PAGINATION_MAX_LIMIT.
// Invalid values fall back to DefaultConfig.
func LoadFromEnv() Config {
	d := DefaultConfig()
	maxLimit := config.LoadEnvInt("PAGINATION_MAX_LIMIT", d.MaxLimit, func(v int) error {
		return config.ValidateIntRange(v, 1, 1000)
	}).Value
	limit := config.LoadEnvInt("PAGINATION_DEFAULT_LIMIT", d.DefaultLimit, func(v int) error {
		return config.ValidateIntRange(v, 1, maxLimit)
	}).Value
	return Config{DefaultPage: d.DefaultPage, DefaultLimit: limit, MaxLimit: maxLimit}
}

// Params are the parsed pagination query parameters.
type Params struct {
	Page  int // 1-based
	Limit int
}

// Offset is the SQL OFFSET of the page.
func (p Params) Offset() int {
	if p.Page < 1 {
		return 0
	}
	return (p.Page - 1) * p.Limit
}

// ParseQueryParams reads ?page= and ?limit=, applying the defaults of cfg
// to missing values.
func ParseQueryParams(r *http.Request, cfg Config) (Params, error) {
	params := Params{Page: cfg.DefaultPage, Limit: cfg.DefaultLimit}
	q := r.URL.Query()

	if s := q.Get("page"); s != "" {
		page, err := strconv.Atoi(s)
		if err != nil || page < 1 {
			return params, fmt.Errorf("invalid query parameter: page must be a positive integer")
		}
		params.Page = page
	}
	if s := q.Get("limit"); s != "" {
		limit, err := strconv.Atoi(s)
		if err != nil || limit < 1 || limit > cfg.MaxLimit {
			return params, fmt.Errorf("invalid query parameter: limit must be between 1 and %d", cfg.MaxLimit)
		}
		params.Limit = limit
	}
	return params, nil
}

// Metadata describes the page returned to the client.
type Metadata struct {
	Total      int64 `json:"total"`
	Page       int   `json:"page"`
	Limit      int   `json:"limit"`
	TotalPages int   `json:"total_pages"`
}

// NewMetadata builds the metadata for a page of a listing with total rows.
// An empty listing still has one page.
func NewMetadata(p Params, total int64) Metadata {
	pages := 1
	if total > 0 && p.Limit > 0 {
		pages = int((total + int64(p.Limit) - 1) / int64(p.Limit))
	}
	return Metadata{Total: total, Page: p.Page, Limit: p.Limit, TotalPages: pages}
}

// Response is the JSON envelope of a paginated listing.
type Response[T any] struct {
	Data       []T      `json:"data"`
	Pagination Metadata `json:"pagination"`
}

func NewResponse[T any](data []T, meta Metadata) Response[T] {
	return Response[T]{Data: data, Pagination: meta}
}
