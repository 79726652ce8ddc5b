package frontpage

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/infra/cache"
	"universitas/internal/repository"
)

// cachePrefix is the memoization prefix of frontpage listings.
const cachePrefix = "frontpage"

// Cache memoizes frontpage listings.
type Cache interface {
	cache.Store
	InvalidateAll(ctx context.Context, prefix string) error
}

// TeaserInput holds the editable fields of a frontpage story.
type TeaserInput struct {
	StoryID          int64
	Kicker           string
	Headline         string
	Lede             string
	ImageID          *int64
	HorizontalCentre int
	VerticalCentre   int
}

func (in TeaserInput) apply(fs *entity.FrontpageStory) {
	fs.StoryID = in.StoryID
	fs.Kicker = strings.TrimSpace(in.Kicker)
	fs.Headline = strings.TrimSpace(in.Headline)
	fs.Lede = strings.TrimSpace(in.Lede)
	fs.ImageID = in.ImageID
	fs.HorizontalCentre = in.HorizontalCentre
	fs.VerticalCentre = in.VerticalCentre
}

// BlockInput holds the placement of a frontpage story.
type BlockInput struct {
	Frontpage       string
	PublicationDate *time.Time
	Position        int
	Columns         int
	Height          int
}

// Service provides frontpage use cases.
type Service struct {
	Repo  repository.FrontpageRepository
	Cache Cache // optional
	Now   func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// Frontpage lists the placed teasers of a frontpage, most prominent first.
// Results are memoized until the next write.
func (s *Service) Frontpage(ctx context.Context, name string, limit int) ([]entity.FrontpageItem, error) {
	if name == "" {
		name = entity.DefaultFrontpage
	}
	var store cache.Store
	if s.Cache != nil {
		store = s.Cache
	}
	items, err := cache.Memoize(ctx, store, cachePrefix, []any{name, limit}, func() ([]entity.FrontpageItem, error) {
		return s.Repo.Frontpage(ctx, name, limit)
	})
	if err != nil {
		return nil, fmt.Errorf("frontpage: %w", err)
	}
	return items, nil
}

// ListStories searches teasers by headline and kicker.
func (s *Service) ListStories(ctx context.Context, query string, params pagination.Params) ([]*entity.FrontpageStory, error) {
	offset := params.Offset()
	teasers, err := s.Repo.ListStories(ctx, strings.TrimSpace(query), offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list frontpage stories: %w", err)
	}
	return teasers, nil
}

// GetStory returns a teaser with its blocks.
func (s *Service) GetStory(ctx context.Context, id int64) (*entity.FrontpageStory, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	fs, err := s.Repo.GetStory(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get frontpage story: %w", err)
	}
	if fs == nil {
		return nil, ErrTeaserNotFound
	}
	return fs, nil
}

// CreateStory adds a teaser without placing it.
func (s *Service) CreateStory(ctx context.Context, in TeaserInput) (*entity.FrontpageStory, error) {
	fs := &entity.FrontpageStory{}
	in.apply(fs)
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateStory(ctx, fs); err != nil {
		return nil, fmt.Errorf("create frontpage story: %w", err)
	}
	return fs, nil
}

// UpdateStory replaces the editable fields of a teaser.
func (s *Service) UpdateStory(ctx context.Context, id int64, in TeaserInput) (*entity.FrontpageStory, error) {
	fs, err := s.GetStory(ctx, id)
	if err != nil {
		return nil, err
	}
	if in.StoryID == 0 {
		in.StoryID = fs.StoryID
	}
	in.apply(fs)
	if err := fs.Validate(); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateStory(ctx, fs); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrTeaserNotFound
		}
		return nil, fmt.Errorf("update frontpage story: %w", err)
	}
	s.Invalidate(ctx)
	return fs, nil
}

// DeleteStory removes a teaser and its blocks.
func (s *Service) DeleteStory(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidID
	}
	if err := s.Repo.DeleteStory(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrTeaserNotFound
		}
		return fmt.Errorf("delete frontpage story: %w", err)
	}
	s.Invalidate(ctx)
	return nil
}

func (in BlockInput) apply(cb *entity.Contentblock, now time.Time) {
	cb.Frontpage = in.Frontpage
	if cb.Frontpage == "" {
		cb.Frontpage = entity.DefaultFrontpage
	}
	switch {
	case in.PublicationDate != nil:
		cb.PublicationDate = *in.PublicationDate
	case cb.PublicationDate.IsZero():
		cb.PublicationDate = now
	}
	cb.Position = in.Position
	cb.Columns = in.Columns
	cb.Height = in.Height
}

// CreateBlock places a teaser on a frontpage.
func (s *Service) CreateBlock(ctx context.Context, teaserID int64, in BlockInput) (*entity.Contentblock, error) {
	if _, err := s.GetStory(ctx, teaserID); err != nil {
		return nil, err
	}
	cb := &entity.Contentblock{FrontpageStoryID: teaserID}
	in.apply(cb, s.now())
	if err := cb.Validate(); err != nil {
		return nil, err
	}
	if err := s.Repo.CreateBlock(ctx, cb); err != nil {
		return nil, fmt.Errorf("create content block: %w", err)
	}
	s.Invalidate(ctx)
	return cb, nil
}

// UpdateBlock moves or resizes a placed teaser.
func (s *Service) UpdateBlock(ctx context.Context, id int64, in BlockInput) (*entity.Contentblock, error) {
	if id <= 0 {
		return nil, ErrInvalidID
	}
	cb, err := s.Repo.GetBlock(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get content block: %w", err)
	}
	if cb == nil {
		return nil, ErrBlockNotFound
	}
	in.apply(cb, s.now())
	if err := cb.Validate(); err != nil {
		return nil, err
	}
	if err := s.Repo.UpdateBlock(ctx, cb); err != nil {
		return nil, fmt.Errorf("update content block: %w", err)
	}
	s.Invalidate(ctx)
	return cb, nil
}

// EnsureForStory creates the default teaser and placement of a story that
// has no teaser yet.
func (s *Service) EnsureForStory(ctx context.Context, story *entity.Story) error {
	n, err := s.Repo.CountForStory(ctx, story.ID)
	if err != nil {
		return fmt.Errorf("count frontpage stories: %w", err)
	}
	if n > 0 {
		return nil
	}

	fs, block := entity.AutocreateFrontpageStory(story, s.now())
	if fs.Headline == "" {
		fs.Headline = story.String()
	}
	if err := s.Repo.CreateStory(ctx, fs); err != nil {
		return fmt.Errorf("create frontpage story: %w", err)
	}
	block.FrontpageStoryID = fs.ID
	if err := s.Repo.CreateBlock(ctx, block); err != nil {
		return fmt.Errorf("create content block: %w", err)
	}
	s.Invalidate(ctx)
	return nil
}

// Invalidate drops every cached frontpage listing.
func (s *Service) Invalidate(ctx context.Context) {
	if s.Cache == nil {
		return
	}
	if err := s.Cache.InvalidateAll(ctx, cachePrefix); err != nil {
		slog.WarnContext(ctx, "frontpage cache not invalidated", slog.Any("error", err))
	}
}
