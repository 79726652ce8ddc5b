// Package contributor manages the people credited in bylines and image
// attributions.
package contributor

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/repository"
)

var (
	// ErrContributorNotFound is returned when the contributor does not exist.
	ErrContributorNotFound = errors.New("contributor not found")

	// ErrInvalidContributorID is returned when a contributor ID is zero or
	// negative.
	ErrInvalidContributorID = errors.New("invalid contributor ID")
)

// Input holds the editable fields of a contributor.
type Input struct {
	DisplayName    string
	Email          string
	Phone          string
	Active         bool
	ProfileImageID *int64
}

func (in Input) apply(c *entity.Contributor) {
	c.DisplayName = strings.Join(strings.Fields(in.DisplayName), " ")
	c.Email = strings.ToLower(strings.TrimSpace(in.Email))
	c.Phone = strings.TrimSpace(in.Phone)
	c.Active = in.Active
	c.ProfileImageID = in.ProfileImageID
}

// Service provides contributor use cases.
type Service struct {
	Repo repository.ContributorRepository
	Now  func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// List returns one page of contributors ordered by name.
func (s *Service) List(ctx context.Context, params pagination.Params) ([]*entity.Contributor, error) {
	offset := params.Offset()
	list, err := s.Repo.List(ctx, offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list contributors: %w", err)
	}
	return list, nil
}

// Search finds contributors with a name like name.
func (s *Service) Search(ctx context.Context, name string) ([]*entity.Contributor, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []*entity.Contributor{}, nil
	}
	list, err := s.Repo.Search(ctx, name)
	if err != nil {
		return nil, fmt.Errorf("search contributors: %w", err)
	}
	return list, nil
}

// Get returns a contributor.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Contributor, error) {
	if id <= 0 {
		return nil, ErrInvalidContributorID
	}
	c, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get contributor: %w", err)
	}
	if c == nil {
		return nil, ErrContributorNotFound
	}
	return c, nil
}

// Create adds a contributor.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Contributor, error) {
	c := &entity.Contributor{}
	in.apply(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Created, c.Modified = s.now(), s.now()
	if err := s.Repo.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create contributor: %w", err)
	}
	return c, nil
}

// Update replaces the fields of a contributor.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*entity.Contributor, error) {
	c, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(c)
	if err := c.Validate(); err != nil {
		return nil, err
	}
	c.Modified = s.now()
	if err := s.Repo.Update(ctx, c); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrContributorNotFound
		}
		return nil, fmt.Errorf("update contributor: %w", err)
	}
	return c, nil
}
