package frontpage_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	fpUC "universitas/internal/usecase/frontpage"
	storyUC "universitas/internal/usecase/story"
)

var _ storyUC.TeaserCreator = (*fpUC.Service)(nil)

/* ───────── stubs ───────── */

type stubRepo struct {
	teasers     map[int64]*entity.FrontpageStory
	blocks      map[int64]*entity.Contentblock
	nextID      int64
	frontpageN  int
	lastQuery   string
	lastOffset  int
	err         error
	countResult int64
}

func newStub() *stubRepo {
	return &stubRepo{
		teasers: map[int64]*entity.FrontpageStory{},
		blocks:  map[int64]*entity.Contentblock{},
		nextID:  1,
	}
}

func (s *stubRepo) Frontpage(_ context.Context, name string, limit int) ([]entity.FrontpageItem, error) {
	s.frontpageN++
	if s.err != nil {
		return nil, s.err
	}
	var out []entity.FrontpageItem
	for _, b := range s.blocks {
		if b.Frontpage == name {
			out = append(out, entity.FrontpageItem{Block: *b, Story: *s.teasers[b.FrontpageStoryID]})
		}
	}
	return out, nil
}
func (s *stubRepo) ListStories(_ context.Context, q string, offset, _ int) ([]*entity.FrontpageStory, error) {
	s.lastQuery, s.lastOffset = q, offset
	return nil, s.err
}
func (s *stubRepo) GetStory(_ context.Context, id int64) (*entity.FrontpageStory, error) {
	fs, ok := s.teasers[id]
	if !ok {
		return nil, s.err
	}
	cp := *fs
	return &cp, s.err
}
func (s *stubRepo) CountForStory(_ context.Context, storyID int64) (int64, error) {
	if s.countResult > 0 {
		return s.countResult, s.err
	}
	var n int64
	for _, fs := range s.teasers {
		if fs.StoryID == storyID {
			n++
		}
	}
	return n, s.err
}
func (s *stubRepo) CreateStory(_ context.Context, fs *entity.FrontpageStory) error {
	if s.err != nil {
		return s.err
	}
	fs.ID = s.nextID
	s.nextID++
	cp := *fs
	s.teasers[fs.ID] = &cp
	return nil
}
func (s *stubRepo) UpdateStory(_ context.Context, fs *entity.FrontpageStory) error {
	if _, ok := s.teasers[fs.ID]; !ok {
		return entity.ErrNotFound
	}
	cp := *fs
	s.teasers[fs.ID] = &cp
	return nil
}
func (s *stubRepo) DeleteStory(_ context.Context, id int64) error {
	if _, ok := s.teasers[id]; !ok {
		return fmt.Errorf("DeleteStory: %w", entity.ErrNotFound)
	}
	delete(s.teasers, id)
	return nil
}
func (s *stubRepo) GetBlock(_ context.Context, id int64) (*entity.Contentblock, error) {
	b, ok := s.blocks[id]
	if !ok {
		return nil, nil
	}
	cp := *b
	return &cp, nil
}
func (s *stubRepo) CreateBlock(_ context.Context, b *entity.Contentblock) error {
	b.ID = s.nextID
	s.nextID++
	cp := *b
	s.blocks[b.ID] = &cp
	return nil
}
func (s *stubRepo) UpdateBlock(_ context.Context, b *entity.Contentblock) error {
	cp := *b
	s.blocks[b.ID] = &cp
	return nil
}

// stubCache stores JSON like the Redis memoizer does.
type stubCache struct {
	data        map[string][]byte
	invalidated int
	err         error
}

func newCache() *stubCache { return &stubCache{data: map[string][]byte{}} }

func key(prefix string, args ...any) string { return prefix + fmt.Sprint(args...) }

func (c *stubCache) Get(_ context.Context, prefix string, dest any, args ...any) bool {
	raw, ok := c.data[key(prefix, args...)]
	if !ok {
		return false
	}
	return json.Unmarshal(raw, dest) == nil
}
func (c *stubCache) Set(_ context.Context, prefix string, value any, args ...any) {
	raw, _ := json.Marshal(value)
	c.data[key(prefix, args...)] = raw
}
func (c *stubCache) InvalidateAll(_ context.Context, _ string) error {
	c.invalidated++
	if c.err != nil {
		return c.err
	}
	c.data = map[string][]byte{}
	return nil
}

var fixedNow = time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)

func newService(repo *stubRepo, c *stubCache) *fpUC.Service {
	svc := &fpUC.Service{Repo: repo, Now: func() time.Time { return fixedNow }}
	if c != nil {
		svc.Cache = c
	}
	return svc
}

/* ───────── EnsureForStory ───────── */

func TestService_EnsureForStory(t *testing.T) {
	repo := newStub()
	c := newCache()
	svc := newService(repo, c)

	story := entity.NewStory()
	story.ID = 10
	story.Title = "Studentene streiker"
	story.Kicker = "Streik"
	story.Lede = "Tusenvis møtte opp."
	story.BodytextMarkup = "@tit:Streik\nbody"

	require.NoError(t, svc.EnsureForStory(context.Background(), story))
	require.Len(t, repo.teasers, 1)
	require.Len(t, repo.blocks, 1)

	fs := repo.teasers[1]
	assert.Equal(t, int64(10), fs.StoryID)
	assert.Equal(t, "Studentene streiker", fs.Headline)
	assert.Equal(t, "Streik", fs.Kicker)

	var block *entity.Contentblock
	for _, b := range repo.blocks {
		block = b
	}
	assert.Equal(t, fs.ID, block.FrontpageStoryID)
	assert.Equal(t, entity.DefaultFrontpage, block.Frontpage)
	assert.Equal(t, fixedNow, block.PublicationDate)
	assert.Equal(t, 1, c.invalidated)

	// second call is a no-op
	require.NoError(t, svc.EnsureForStory(context.Background(), story))
	assert.Len(t, repo.teasers, 1)
}

func TestService_EnsureForStory_UsesWorkingTitle(t *testing.T) {
	repo := newStub()
	svc := newService(repo, nil)

	story := entity.NewStory()
	story.ID = 3
	story.WorkingTitle = "Sak om husleie"

	require.NoError(t, svc.EnsureForStory(context.Background(), story))
	assert.Equal(t, "Sak om husleie", repo.teasers[1].Headline)
}

/* ───────── Frontpage listing ───────── */

func TestService_Frontpage_Memoized(t *testing.T) {
	repo := newStub()
	c := newCache()
	svc := newService(repo, c)

	fs, err := svc.CreateStory(context.Background(), fpUC.TeaserInput{StoryID: 1, Headline: "Hei"})
	require.NoError(t, err)
	_, err = svc.CreateBlock(context.Background(), fs.ID, fpUC.BlockInput{Columns: 6, Height: 2, Position: 50})
	require.NoError(t, err)

	items, err := svc.Frontpage(context.Background(), "", 10)
	require.NoError(t, err)
	require.Len(t, items, 1)
	assert.Equal(t, "Hei", items[0].Story.Headline)

	_, err = svc.Frontpage(context.Background(), "main", 10)
	require.NoError(t, err)
	assert.Equal(t, 1, repo.frontpageN, "second call served from cache")

	_, err = svc.UpdateStory(context.Background(), fs.ID, fpUC.TeaserInput{Headline: "Hallo"})
	require.NoError(t, err)

	items, err = svc.Frontpage(context.Background(), "main", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.frontpageN)
	assert.Equal(t, "Hallo", items[0].Story.Headline)
}

func TestService_Invalidate(t *testing.T) {
	repo := newStub()
	c := newCache()
	svc := newService(repo, c)
	ctx := context.Background()

	_, err := svc.Frontpage(ctx, "main", 10)
	require.NoError(t, err)
	_, err = svc.Frontpage(ctx, "main", 10)
	require.NoError(t, err)
	require.Equal(t, 1, repo.frontpageN)

	// a story changed its publication status
	svc.Invalidate(ctx)
	_, err = svc.Frontpage(ctx, "main", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.frontpageN)

	assert.NotPanics(t, func() { newService(repo, nil).Invalidate(ctx) })
}

func TestService_Frontpage_NoCache(t *testing.T) {
	repo := newStub()
	svc := newService(repo, nil)

	_, err := svc.Frontpage(context.Background(), "main", 10)
	require.NoError(t, err)
	_, err = svc.Frontpage(context.Background(), "main", 10)
	require.NoError(t, err)
	assert.Equal(t, 2, repo.frontpageN)
}

func TestService_Frontpage_Error(t *testing.T) {
	repo := newStub()
	repo.err = errors.New("db down")
	c := newCache()

	_, err := newService(repo, c).Frontpage(context.Background(), "main", 10)
	assert.ErrorIs(t, err, repo.err)
	assert.Empty(t, c.data)
}

/* ───────── teasers and blocks ───────── */

func TestService_CreateStory_Validation(t *testing.T) {
	_, err := newService(newStub(), nil).CreateStory(context.Background(), fpUC.TeaserInput{StoryID: 1, Headline: "  "})
	var ve *entity.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "headline", ve.Field)
}

func TestService_UpdateStory_KeepsStory(t *testing.T) {
	repo := newStub()
	svc := newService(repo, nil)
	fs, err := svc.CreateStory(context.Background(), fpUC.TeaserInput{StoryID: 9, Headline: "A", HorizontalCentre: 50, VerticalCentre: 50})
	require.NoError(t, err)

	updated, err := svc.UpdateStory(context.Background(), fs.ID, fpUC.TeaserInput{Headline: "B", HorizontalCentre: 10, VerticalCentre: 90})
	require.NoError(t, err)
	assert.Equal(t, int64(9), updated.StoryID)
	assert.Equal(t, 90, repo.teasers[fs.ID].VerticalCentre)

	_, err = svc.UpdateStory(context.Background(), fs.ID, fpUC.TeaserInput{Headline: "B", VerticalCentre: 101})
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	_, err = svc.UpdateStory(context.Background(), 404, fpUC.TeaserInput{Headline: "B"})
	assert.ErrorIs(t, err, fpUC.ErrTeaserNotFound)
}

func TestService_DeleteStory(t *testing.T) {
	repo := newStub()
	c := newCache()
	svc := newService(repo, c)
	fs, _ := svc.CreateStory(context.Background(), fpUC.TeaserInput{StoryID: 9, Headline: "A"})

	require.NoError(t, svc.DeleteStory(context.Background(), fs.ID))
	assert.Equal(t, 1, c.invalidated)
	assert.ErrorIs(t, svc.DeleteStory(context.Background(), fs.ID), fpUC.ErrTeaserNotFound)
	assert.ErrorIs(t, svc.DeleteStory(context.Background(), 0), fpUC.ErrInvalidID)
}

func TestService_Blocks(t *testing.T) {
	repo := newStub()
	svc := newService(repo, nil)
	fs, _ := svc.CreateStory(context.Background(), fpUC.TeaserInput{StoryID: 9, Headline: "A"})

	_, err := svc.CreateBlock(context.Background(), fs.ID, fpUC.BlockInput{Columns: 13, Height: 1})
	assert.ErrorIs(t, err, entity.ErrValidationFailed)

	_, err = svc.CreateBlock(context.Background(), 77, fpUC.BlockInput{Columns: 4, Height: 1})
	assert.ErrorIs(t, err, fpUC.ErrTeaserNotFound)

	pub := fixedNow.Add(-24 * time.Hour)
	cb, err := svc.CreateBlock(context.Background(), fs.ID, fpUC.BlockInput{Frontpage: "kultur", PublicationDate: &pub, Columns: 4, Height: 1})
	require.NoError(t, err)
	assert.Equal(t, "kultur", cb.Frontpage)
	assert.Equal(t, pub, cb.PublicationDate)

	moved, err := svc.UpdateBlock(context.Background(), cb.ID, fpUC.BlockInput{Frontpage: "kultur", Position: 90, Columns: 12, Height: 3})
	require.NoError(t, err)
	assert.Equal(t, 90, moved.Position)
	assert.Equal(t, pub, moved.PublicationDate, "date is kept when not given")

	_, err = svc.UpdateBlock(context.Background(), 999, fpUC.BlockInput{Columns: 1, Height: 1})
	assert.ErrorIs(t, err, fpUC.ErrBlockNotFound)
}

func TestService_ListStories(t *testing.T) {
	repo := newStub()
	svc := newService(repo, nil)

	_, err := svc.ListStories(context.Background(), " streik ", pagination.Params{Page: 3, Limit: 10})
	require.NoError(t, err)
	assert.Equal(t, "streik", repo.lastQuery)
	assert.Equal(t, 20, repo.lastOffset)
}
