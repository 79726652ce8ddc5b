package story_test

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/handler/http/auth"
	"universitas/internal/handler/http/middleware"
	storyHTTP "universitas/internal/handler/http/story"
	"universitas/internal/repository"
	storyUC "universitas/internal/usecase/story"
)

const testSecret = "test-secret-that-is-long-enough-for-hs256!"

/* ───────── stub service ───────── */

type stubService struct {
	stories    map[int64]*entity.Story
	err        error
	lastFilter repository.StoryFilter
	lastParams pagination.Params
	lastInput  storyUC.Input
	lastQuery  string
	lastLimit  int
	lastIP     string
	lastUA     string
	bylines    []entity.Byline
}

func newStub() *stubService {
	pub := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	return &stubService{stories: map[int64]*entity.Story{
		1: {ID: 1, Title: "Semesterstart", Slug: "semesterstart", Language: "nb", PublicationStatus: entity.StatusPublished, PublicationDate: &pub,
			Bylines: []entity.Byline{{ContributorID: 3, ContributorName: "Kari Nordmann", Credit: entity.CreditWriter}}},
	}}
}

func (s *stubService) List(_ context.Context, f repository.StoryFilter, p pagination.Params) (*storyUC.PaginatedResult, error) {
	s.lastFilter, s.lastParams = f, p
	if s.err != nil {
		return nil, s.err
	}
	return &storyUC.PaginatedResult{
		Data:       []*entity.Story{s.stories[1]},
		Pagination: pagination.Metadata{Total: 1, Page: p.Page, Limit: p.Limit, TotalPages: 1},
	}, nil
}
func (s *stubService) Get(_ context.Context, id int64) (*entity.Story, error) {
	if s.err != nil {
		return nil, s.err
	}
	st, ok := s.stories[id]
	if !ok {
		return nil, storyUC.ErrStoryNotFound
	}
	return st, nil
}
func (s *stubService) Create(_ context.Context, in storyUC.Input) (*entity.Story, error) {
	s.lastInput = in
	if s.err != nil {
		return nil, s.err
	}
	return &entity.Story{ID: 2, Title: in.Title, PublicationStatus: in.PublicationStatus}, nil
}
func (s *stubService) Update(_ context.Context, id int64, in storyUC.Input) (*entity.Story, error) {
	s.lastInput = in
	if _, ok := s.stories[id]; !ok {
		return nil, storyUC.ErrStoryNotFound
	}
	return &entity.Story{ID: id, Title: in.Title}, s.err
}
func (s *stubService) Delete(_ context.Context, id int64) error {
	if _, ok := s.stories[id]; !ok {
		return storyUC.ErrStoryNotFound
	}
	return nil
}
func (s *stubService) SetBylines(_ context.Context, id int64, b []entity.Byline) (*entity.Story, error) {
	s.bylines = b
	return s.stories[id], s.err
}
func (s *stubService) AddImage(_ context.Context, storyID, imageID int64, _ string, _ bool) error {
	if imageID <= 0 {
		return &entity.ValidationError{Field: "image_id", Message: "must be positive"}
	}
	return nil
}
func (s *stubService) Search(_ context.Context, q string, limit int) ([]repository.RankedStory, error) {
	s.lastQuery, s.lastLimit = q, limit
	if strings.TrimSpace(q) == "" {
		return nil, storyUC.ErrEmptyQuery
	}
	return []repository.RankedStory{{Story: s.stories[1], Rank: 0.75}}, nil
}
func (s *stubService) VisitPage(_ context.Context, id int64, ip, ua string) (bool, error) {
	s.lastIP, s.lastUA = ip, ua
	if _, ok := s.stories[id]; !ok {
		return false, storyUC.ErrStoryNotFound
	}
	return !storyUC.IsBot(ua), nil
}

func newMux(t *testing.T, svc *stubService, deps storyHTTP.Deps) *http.ServeMux {
	t.Helper()
	t.Setenv("JWT_SECRET", testSecret)
	if deps.Pagination == (pagination.Config{}) {
		deps.Pagination = pagination.DefaultConfig()
	}
	mux := http.NewServeMux()
	storyHTTP.Register(mux, svc, deps)
	return mux
}

func adminToken(t *testing.T) string {
	t.Helper()
	tok, err := auth.NewToken([]byte(testSecret), auth.User{Name: "desk", Role: auth.RoleAdmin}, time.Hour, time.Now())
	require.NoError(t, err)
	return "Bearer " + tok
}

func do(mux http.Handler, method, target, body, token string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if token != "" {
		req.Header.Set("Authorization", token)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	return w
}

/* ───────── reads ───────── */

func TestList(t *testing.T) {
	svc := newStub()
	mux := newMux(t, svc, storyHTTP.Deps{})

	w := do(mux, http.MethodGet, "/stories?page=2&limit=5&status=10&issue=4&published=true", "", "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())

	var resp pagination.Response[storyHTTP.DTO]
	require.NoError(t, json.NewDecoder(w.Body).Decode(&resp))
	require.Len(t, resp.Data, 1)
	assert.Equal(t, "Semesterstart", resp.Data[0].Title)
	assert.Equal(t, "Published on website", resp.Data[0].StatusLabel)
	assert.Equal(t, "Kari Nordmann", resp.Data[0].Bylines[0].Name)
	assert.Equal(t, pagination.Params{Page: 2, Limit: 5}, svc.lastParams)
	require.NotNil(t, svc.lastFilter.Status)
	assert.Equal(t, entity.StatusPublished, *svc.lastFilter.Status)
	assert.Equal(t, int64(4), *svc.lastFilter.IssueID)
	assert.NotNil(t, svc.lastFilter.PublishedAt)
}

func TestList_BadQuery(t *testing.T) {
	mux := newMux(t, newStub(), storyHTTP.Deps{})
	for _, q := range []string{"page=0", "limit=1000", "status=42", "issue=x", "published=maybe"} {
		w := do(mux, http.MethodGet, "/stories?"+q, "", "")
		assert.Equal(t, http.StatusBadRequest, w.Code, q)
	}
}

func TestList_ServiceError(t *testing.T) {
	svc := newStub()
	svc.err = fmt.Errorf("count stories: %w", assert.AnError)
	w := do(newMux(t, svc, storyHTTP.Deps{}), http.MethodGet, "/stories", "", "")
	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.JSONEq(t, `{"error":"internal server error"}`, w.Body.String())
}

func TestGet(t *testing.T) {
	mux := newMux(t, newStub(), storyHTTP.Deps{})
	tests := []struct {
		path string
		want int
	}{
		{"/stories/1", http.StatusOK},
		{"/stories/99", http.StatusNotFound},
		{"/stories/abc", http.StatusBadRequest},
		{"/stories/-1", http.StatusBadRequest},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, do(mux, http.MethodGet, tt.path, "", "").Code, tt.path)
	}
}

func TestSearch(t *testing.T) {
	svc := newStub()
	mux := newMux(t, svc, storyHTTP.Deps{})

	w := do(mux, http.MethodGet, "/stories/search?q=semester&limit=5", "", "")
	require.Equal(t, http.StatusOK, w.Code)
	var hits []storyHTTP.SearchResultDTO
	require.NoError(t, json.NewDecoder(w.Body).Decode(&hits))
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.75, hits[0].Rank, 1e-9)
	assert.Equal(t, int64(1), hits[0].ID)
	assert.Equal(t, 5, svc.lastLimit)

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/stories/search?q=", "", "").Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodGet, "/stories/search?q=x&limit=0", "", "").Code)
}

/* ───────── writes ───────── */

func TestWritesRequireToken(t *testing.T) {
	mux := newMux(t, newStub(), storyHTTP.Deps{})
	assert.Equal(t, http.StatusUnauthorized, do(mux, http.MethodPost, "/stories", `{"title":"x"}`, "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(mux, http.MethodDelete, "/stories/1", "", "").Code)
	assert.Equal(t, http.StatusUnauthorized, do(mux, http.MethodPut, "/stories/1/bylines", `[]`, "").Code)
}

func TestCreate(t *testing.T) {
	svc := newStub()
	mux := newMux(t, svc, storyHTTP.Deps{})
	tok := adminToken(t)

	w := do(mux, http.MethodPost, "/stories",
		`{"title":"Ny rektor","publication_status":10,"publication_date":"2026-03-04T10:00:00Z","issue_id":3}`, tok)
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	assert.Equal(t, "Ny rektor", svc.lastInput.Title)
	assert.Equal(t, entity.StatusPublished, svc.lastInput.PublicationStatus)
	require.NotNil(t, svc.lastInput.PublicationDate)
	assert.Equal(t, 2026, svc.lastInput.PublicationDate.Year())
	assert.Equal(t, int64(3), *svc.lastInput.IssueID)

	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/stories", `{`, tok).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/stories", `{"publication_date":"yesterday"}`, tok).Code)

	svc.err = &entity.ValidationError{Field: "language", Message: "must be a valid value"}
	w = do(mux, http.MethodPost, "/stories", `{"title":"x","language":"de"}`, tok)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "language")
}

func TestUpdateDelete(t *testing.T) {
	mux := newMux(t, newStub(), storyHTTP.Deps{})
	tok := adminToken(t)

	assert.Equal(t, http.StatusOK, do(mux, http.MethodPut, "/stories/1", `{"title":"Endret"}`, tok).Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodPut, "/stories/9", `{"title":"Endret"}`, tok).Code)
	assert.Equal(t, http.StatusNoContent, do(mux, http.MethodDelete, "/stories/1", "", tok).Code)
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodDelete, "/stories/9", "", tok).Code)
}

func TestBylinesAndImages(t *testing.T) {
	svc := newStub()
	mux := newMux(t, svc, storyHTTP.Deps{})
	tok := adminToken(t)

	w := do(mux, http.MethodPut, "/stories/1/bylines",
		`[{"contributor_id":3,"title":"journalist"},{"contributor_id":4,"credit":"photo"}]`, tok)
	require.Equal(t, http.StatusOK, w.Code)
	require.Len(t, svc.bylines, 2)
	assert.Equal(t, entity.CreditWriter, svc.bylines[0].Credit)
	assert.Equal(t, entity.CreditPhotographer, svc.bylines[1].Credit)

	assert.Equal(t, http.StatusNoContent, do(mux, http.MethodPost, "/stories/1/images", `{"image_id":7,"top":true}`, tok).Code)
	assert.Equal(t, http.StatusBadRequest, do(mux, http.MethodPost, "/stories/1/images", `{"image_id":0}`, tok).Code)
}

/* ───────── visits ───────── */

func TestVisit(t *testing.T) {
	svc := newStub()
	limiter := middleware.NewRateLimiter(2, time.Minute, nil)
	mux := newMux(t, svc, storyHTTP.Deps{VisitLimiter: limiter})

	req := httptest.NewRequest(http.MethodPost, "/stories/1/visit", nil)
	req.RemoteAddr = "192.0.2.10:5555"
	req.Header.Set("User-Agent", "Mozilla/5.0")
	w := httptest.NewRecorder()
	mux.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"counted":true}`, w.Body.String())
	assert.Equal(t, "192.0.2.10", svc.lastIP)
	assert.Equal(t, "Mozilla/5.0", svc.lastUA)

	req = httptest.NewRequest(http.MethodPost, "/stories/1/visit", nil)
	req.RemoteAddr = "192.0.2.10:5556"
	req.Header.Set("User-Agent", "Googlebot/2.1")
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.JSONEq(t, `{"counted":false}`, w.Body.String())

	req = httptest.NewRequest(http.MethodPost, "/stories/1/visit", nil)
	req.RemoteAddr = "192.0.2.10:5557"
	w = httptest.NewRecorder()
	mux.ServeHTTP(w, req)
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
}

func TestVisit_NotFound(t *testing.T) {
	mux := newMux(t, newStub(), storyHTTP.Deps{})
	assert.Equal(t, http.StatusNotFound, do(mux, http.MethodPost, "/stories/99/visit", "", "").Code)
}
