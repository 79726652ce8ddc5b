package story

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/observability/metrics"
	"universitas/internal/observability/tracing"
	"universitas/internal/repository"
)

// Input holds the editable fields of a story.
type Input struct {
	Language          string
	Title             string
	Kicker            string
	Lede              string
	Comment           string
	ThemeWord         string
	WorkingTitle      string
	BodytextMarkup    string
	StoryType         string
	PublicationDate   *time.Time
	PublicationStatus entity.PublicationStatus
	IssueID           *int64
	Page              *int
}

func (in Input) apply(s *entity.Story) {
	if in.Language != "" {
		s.Language = in.Language
	}
	s.Title = strings.TrimSpace(in.Title)
	s.Kicker = in.Kicker
	s.Lede = in.Lede
	s.Comment = in.Comment
	s.ThemeWord = in.ThemeWord
	s.WorkingTitle = in.WorkingTitle
	s.BodytextMarkup = in.BodytextMarkup
	s.StoryType = in.StoryType
	s.PublicationDate = in.PublicationDate
	s.PublicationStatus = in.PublicationStatus
	s.IssueID = in.IssueID
	s.Page = in.Page
}

// VisitTracker dedupes visits from the same client.
type VisitTracker interface {
	FirstVisit(ctx context.Context, ip string, storyID int64) bool
}

// TeaserCreator creates the default frontpage teaser of a new story and
// drops cached frontpages when a story changes.
type TeaserCreator interface {
	EnsureForStory(ctx context.Context, s *entity.Story) error
	Invalidate(ctx context.Context)
}

// PaginatedResult is one page of stories with its metadata.
type PaginatedResult struct {
	Data       []*entity.Story
	Pagination pagination.Metadata
}

// Service provides story use cases.
type Service struct {
	Repo    repository.StoryRepository
	Visits  VisitTracker  // optional; every visit counts when nil
	Teasers TeaserCreator // optional
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// List returns one page of stories, newest first.
func (s *Service) List(ctx context.Context, filter repository.StoryFilter, params pagination.Params) (*PaginatedResult, error) {
	offset := params.Offset()

	total, err := s.Repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count stories: %w", err)
	}
	stories, err := s.Repo.List(ctx, filter, offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list stories: %w", err)
	}
	return &PaginatedResult{
		Data: stories,
		Pagination: pagination.NewMetadata(params, total),
	}, nil
}

// Published returns the newest stories that are public now.
func (s *Service) Published(ctx context.Context, limit int) ([]*entity.Story, error) {
	now := s.now()
	stories, err := s.Repo.List(ctx, repository.StoryFilter{PublishedAt: &now}, 0, limit)
	if err != nil {
		return nil, fmt.Errorf("published stories: %w", err)
	}
	return stories, nil
}

// Get returns a story with its bylines.
func (s *Service) Get(ctx context.Context, id int64) (*entity.Story, error) {
	if id <= 0 {
		return nil, ErrInvalidStoryID
	}
	story, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get story: %w", err)
	}
	if story == nil {
		return nil, ErrStoryNotFound
	}
	bylines, err := s.Repo.ListBylines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list bylines: %w", err)
	}
	story.Bylines = bylines
	return story, nil
}

// Create saves a new story and gives it a frontpage teaser.
func (s *Service) Create(ctx context.Context, in Input) (*entity.Story, error) {
	story := entity.NewStory()
	in.apply(story)
	if err := s.prepare(story); err != nil {
		return nil, err
	}
	if err := s.Repo.Create(ctx, story); err != nil {
		return nil, fmt.Errorf("create story: %w", err)
	}

	if s.Teasers != nil {
		if err := s.Teasers.EnsureForStory(ctx, story); err != nil {
			slog.WarnContext(ctx, "frontpage teaser not created",
				slog.Int64("story_id", story.ID),
				slog.Any("error", err))
		}
	}
	return story, nil
}

// Update replaces the editable fields of a story.
func (s *Service) Update(ctx context.Context, id int64, in Input) (*entity.Story, error) {
	story, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	in.apply(story)
	if err := s.prepare(story); err != nil {
		return nil, err
	}
	if err := s.Repo.Update(ctx, story); err != nil {
		return nil, fmt.Errorf("update story: %w", err)
	}
	// the frontpage only lists published stories
	s.invalidateFrontpage(ctx)
	return story, nil
}

func (s *Service) invalidateFrontpage(ctx context.Context) {
	if s.Teasers != nil {
		s.Teasers.Invalidate(ctx)
	}
}

func (s *Service) prepare(story *entity.Story) error {
	story.Clean(s.now())
	story.PrepareSave()
	return story.Validate()
}

// Delete removes a story.
func (s *Service) Delete(ctx context.Context, id int64) error {
	if id <= 0 {
		return ErrInvalidStoryID
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrStoryNotFound
		}
		return fmt.Errorf("delete story: %w", err)
	}
	s.invalidateFrontpage(ctx)
	return nil
}

// SetBylines replaces the bylines of a story and rebuilds its byline html.
func (s *Service) SetBylines(ctx context.Context, id int64, bylines []entity.Byline) (*entity.Story, error) {
	story, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	for i := range bylines {
		bylines[i].StoryID = id
		if err := bylines[i].Validate(); err != nil {
			return nil, err
		}
	}
	if err := s.Repo.SetBylines(ctx, id, bylines); err != nil {
		return nil, fmt.Errorf("set bylines: %w", err)
	}

	// reload for contributor names
	saved, err := s.Repo.ListBylines(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("list bylines: %w", err)
	}
	story.Bylines = saved
	story.BylinesHTML = story.BylinesAsHTML()
	if err := s.Repo.Update(ctx, story); err != nil {
		return nil, fmt.Errorf("update story: %w", err)
	}
	return story, nil
}

// AddImage attaches an image to a story.
func (s *Service) AddImage(ctx context.Context, storyID, imageID int64, caption string, top bool) error {
	if storyID <= 0 {
		return ErrInvalidStoryID
	}
	if imageID <= 0 {
		return &entity.ValidationError{Field: "image_id", Message: "must be positive"}
	}
	if err := s.Repo.AddImage(ctx, storyID, imageID, caption, top); err != nil {
		return fmt.Errorf("add story image: %w", err)
	}
	return nil
}

// Search ranks stories matching query.
func (s *Service) Search(ctx context.Context, query string, limit int) ([]repository.RankedStory, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, ErrEmptyQuery
	}
	ctx, span := tracing.Start(ctx, "story.Search", attribute.Int("query.length", len(query)))
	defer span.End()

	hits, err := s.Repo.Search(ctx, query, s.now(), limit)
	if err != nil {
		return nil, tracing.RecordError(span, fmt.Errorf("search stories: %w", err))
	}
	span.SetAttributes(attribute.Int("hits", len(hits)))
	return hits, nil
}

var botMarkers = []string{"bot", "spider", "yahoo", "crawler"}

// IsBot reports whether a user agent should not count as a reader.
func IsBot(userAgent string) bool {
	if userAgent == "" {
		return true
	}
	ua := strings.ToLower(userAgent)
	for _, m := range botMarkers {
		if strings.Contains(ua, m) {
			return true
		}
	}
	return false
}

// VisitPage counts a page view of a published story. It reports whether
// the visit was counted. Bots and repeat visits within the visit window
// are ignored.
func (s *Service) VisitPage(ctx context.Context, id int64, ip, userAgent string) (bool, error) {
	if id <= 0 {
		return false, ErrInvalidStoryID
	}
	story, err := s.Repo.Get(ctx, id)
	if err != nil {
		return false, fmt.Errorf("get story: %w", err)
	}
	if story == nil {
		return false, ErrStoryNotFound
	}
	if !story.IsPublished(s.now()) {
		metrics.RecordStoryVisit(metrics.VisitUnpublished)
		return false, nil
	}
	if IsBot(userAgent) {
		metrics.RecordStoryVisit(metrics.VisitBot)
		return false, nil
	}
	if s.Visits != nil && !s.Visits.FirstVisit(ctx, ip, id) {
		metrics.RecordStoryVisit(metrics.VisitRepeat)
		return false, nil
	}
	if err := s.Repo.IncrementVisit(ctx, id); err != nil {
		return false, fmt.Errorf("increment visit: %w", err)
	}
	metrics.RecordStoryVisit(metrics.VisitCounted)
	return true, nil
}

// DevalueHotness decays the hot count of every story.
func (s *Service) DevalueHotness(ctx context.Context, factor float64) (int64, error) {
	if factor <= 0 || factor > 1 {
		return 0, ErrInvalidFactor
	}
	ctx, span := tracing.Start(ctx, "story.DevalueHotness", attribute.Float64("factor", factor))
	defer span.End()

	n, err := s.Repo.DevalueHotness(ctx, factor)
	if err != nil {
		return 0, tracing.RecordError(span, fmt.Errorf("devalue hotness: %w", err))
	}
	metrics.RecordHotnessDevalued(n)
	return n, nil
}

// UpdateSearchVectors rebuilds stale full text search vectors.
func (s *Service) UpdateSearchVectors(ctx context.Context) (int64, error) {
	ctx, span := tracing.Start(ctx, "story.UpdateSearchVectors")
	defer span.End()

	n, err := s.Repo.UpdateSearchVectors(ctx)
	if err != nil {
		return 0, tracing.RecordError(span, fmt.Errorf("update search vectors: %w", err))
	}
	span.SetAttributes(attribute.Int64("rows", n))
	return n, nil
}
