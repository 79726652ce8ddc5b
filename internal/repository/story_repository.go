package repository

import (
	"context"
	"time"

	"universitas/internal/domain/entity"
)

// StoryFilter narrows story listings.
type StoryFilter struct {
	Status      *entity.PublicationStatus // Optional: only stories with this status
	IssueID     *int64                    // Optional: only stories printed in this issue
	PublishedAt *time.Time                // Optional: only stories public at this time
}

// RankedStory is a search hit with its combined rank.
type RankedStory struct {
	Story *entity.Story
	Rank  float64
}

type StoryRepository interface {
	// List returns stories newest first. Uses LIMIT and OFFSET.
	List(ctx context.Context, filter StoryFilter, offset, limit int) ([]*entity.Story, error)
	Count(ctx context.Context, filter StoryFilter) (int64, error)
	// Get returns (nil, nil) if the story does not exist.
	Get(ctx context.Context, id int64) (*entity.Story, error)
	Create(ctx context.Context, story *entity.Story) error
	Update(ctx context.Context, story *entity.Story) error
	Delete(ctx context.Context, id int64) error
	// Search ranks stories by full text rank, falling back to trigram word
	// similarity, both divided by the log2 age in days relative to now.
	Search(ctx context.Context, query string, now time.Time, limit int) ([]RankedStory, error)
	// IncrementVisit adds one hit and 100 hotness.
	IncrementVisit(ctx context.Context, id int64) error
	// DevalueHotness sets hot_count = (hot_count - 1) * factor on every hot story.
	DevalueHotness(ctx context.Context, factor float64) (int64, error)
	UpdateSearchVectors(ctx context.Context) (int64, error)
	ListBylines(ctx context.Context, storyID int64) ([]entity.Byline, error)
	// SetBylines replaces all bylines of a story.
	SetBylines(ctx context.Context, storyID int64, bylines []entity.Byline) error
	// AddImage attaches an image to a story. A top image makes the story's
	// main image.
	AddImage(ctx context.Context, storyID, imageID int64, caption string, top bool) error
}
