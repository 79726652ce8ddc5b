package postgres_test

import (
	"context"
	"database/sql/driver"
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"universitas/internal/domain/entity"
	"universitas/internal/infra/adapter/persistence/postgres"
	"universitas/internal/repository"
)

/* ──────────────────────────────── helpers ──────────────────────────────── */

var storyCols = []string{
	"id", "language", "title", "slug", "kicker", "lede", "comment", "theme_word",
	"working_title", "bodytext_markup", "story_type", "publication_date",
	"publication_status", "issue_id", "page", "hit_count", "hot_count",
	"bylines_html", "created", "modified", "has_main_image",
}

func storyValues(s *entity.Story) []any {
	return []any{
		s.ID, s.Language, s.Title, s.Slug, s.Kicker, s.Lede, s.Comment, s.ThemeWord,
		s.WorkingTitle, s.BodytextMarkup, s.StoryType, s.PublicationDate,
		int64(s.PublicationStatus), s.IssueID, s.Page, int64(s.HitCount), int64(s.HotCount),
		s.BylinesHTML, s.Created, s.Modified, s.HasMainImage,
	}
}

func storyRows(stories ...*entity.Story) *sqlmock.Rows {
	rows := sqlmock.NewRows(storyCols)
	for _, s := range stories {
		rows.AddRow(toDriver(storyValues(s))...)
	}
	return rows
}

func rankedRows(ranks []float64, stories ...*entity.Story) *sqlmock.Rows {
	rows := sqlmock.NewRows(append(append([]string{}, storyCols...), "score"))
	for i, s := range stories {
		rows.AddRow(toDriver(append(storyValues(s), ranks[i]))...)
	}
	return rows
}

// toDriver flattens nil pointers so sqlmock hands NULL to Scan.
func toDriver(vals []any) []driver.Value {
	out := make([]driver.Value, len(vals))
	for i, v := range vals {
		switch p := v.(type) {
		case *time.Time:
			if p == nil {
				out[i] = nil
			} else {
				out[i] = *p
			}
		case *int64:
			if p == nil {
				out[i] = nil
			} else {
				out[i] = *p
			}
		case *int:
			if p == nil {
				out[i] = nil
			} else {
				out[i] = int64(*p)
			}
		default:
			out[i] = v
		}
	}
	return out
}

func sampleStory() *entity.Story {
	pub := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
	issue := int64(3)
	page := 7
	return &entity.Story{
		ID: 42, Language: "nb", Title: "Ny rektor", Slug: "ny-rektor",
		Kicker: "Valg", Lede: "Ingress", WorkingTitle: "Ny rektor",
		BodytextMarkup: "@tit: Ny rektor", StoryType: "news",
		PublicationDate: &pub, PublicationStatus: entity.StatusPublished,
		IssueID: &issue, Page: &page, HitCount: 3, HotCount: 1000,
		BylinesHTML: "<table></table>", HasMainImage: true,
		Created: pub, Modified: pub,
	}
}

/* ──────────────────────────────── 1. Get ──────────────────────────────── */

func TestStoryRepo_Get(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	want := sampleStory()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM stories s`)).
		WithArgs(int64(42)).
		WillReturnRows(storyRows(want))

	got, err := postgres.NewStoryRepo(db).Get(context.Background(), 42)
	require.NoError(t, err)
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepo_Get_NotFound(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(`FROM stories s`).WithArgs(int64(9)).WillReturnRows(sqlmock.NewRows(storyCols))

	got, err := postgres.NewStoryRepo(db).Get(context.Background(), 9)
	assert.NoError(t, err)
	assert.Nil(t, got)
}

/* ──────────────────────────────── 2. List / Count ──────────────────────────────── */

func TestStoryRepo_List_Filters(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	status := entity.StatusDraft
	issue := int64(3)
	mock.ExpectQuery(regexp.QuoteMeta(`WHERE s.publication_status = $1 AND s.issue_id = $2`)).
		WithArgs(0, int64(3), 20, 40).
		WillReturnRows(storyRows(sampleStory()))

	got, err := postgres.NewStoryRepo(db).List(context.Background(),
		repository.StoryFilter{Status: &status, IssueID: &issue}, 40, 20)
	require.NoError(t, err)
	assert.Len(t, got, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepo_Count_Published(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`s.publication_status IN (10, 11) AND s.publication_date <= $1`)).
		WithArgs(now).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(int64(17)))

	n, err := postgres.NewStoryRepo(db).Count(context.Background(), repository.StoryFilter{PublishedAt: &now})
	require.NoError(t, err)
	assert.EqualValues(t, 17, n)
}

/* ──────────────────────────────── 3. Create / Update / Delete ──────────────────────────────── */

func TestStoryRepo_Create(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	created := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	s := entity.NewStory()
	s.Title = "Hei"
	mock.ExpectQuery(regexp.QuoteMeta(`INSERT INTO stories`)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "created", "modified"}).AddRow(int64(5), created, created))

	require.NoError(t, postgres.NewStoryRepo(db).Create(context.Background(), s))
	assert.EqualValues(t, 5, s.ID)
	assert.Equal(t, created, s.Created)
}

func TestStoryRepo_Update_NoRows(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`UPDATE stories SET`)).WillReturnResult(sqlmock.NewResult(0, 0))

	err := postgres.NewStoryRepo(db).Update(context.Background(), sampleStory())
	assert.ErrorIs(t, err, entity.ErrNotFound)
}

func TestStoryRepo_Delete(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM stories WHERE id = $1`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	assert.NoError(t, postgres.NewStoryRepo(db).Delete(context.Background(), 42))
}

/* ──────────────────────────────── 4. Search ──────────────────────────────── */

func TestStoryRepo_Search_FullText(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta(`plainto_tsquery('norwegian', $1)`)).
		WithArgs("studentparlamentet", now, 0.2, 10).
		WillReturnRows(rankedRows([]float64{0.4}, sampleStory()))

	hits, err := postgres.NewStoryRepo(db).Search(context.Background(), "studentparlamentet", now, 10)
	require.NoError(t, err)
	require.Len(t, hits, 1)
	assert.InDelta(t, 0.4, hits[0].Rank, 1e-9)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepo_Search_FallsBackToTrigram(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery(`plainto_tsquery`).
		WithArgs("rektorvalg", now, 0.2, 10).
		WillReturnRows(rankedRows(nil))
	mock.ExpectQuery(`word_similarity`).
		WithArgs("rektorvalg", now, 0.5, 10).
		WillReturnRows(rankedRows([]float64{0.3}, sampleStory()))

	hits, err := postgres.NewStoryRepo(db).Search(context.Background(), "rektorvalg", now, 10)
	require.NoError(t, err)
	assert.Len(t, hits, 1)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepo_Search_ShortQuerySkipsFullText(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	now := time.Now()
	mock.ExpectQuery(`word_similarity`).
		WithArgs("øl", now, sqlmock.AnyArg(), 5).
		WillReturnRows(rankedRows(nil))

	hits, err := postgres.NewStoryRepo(db).Search(context.Background(), "øl", now, 5)
	require.NoError(t, err)
	assert.Empty(t, hits)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTrigramCutoff(t *testing.T) {
	tests := []struct {
		query string
		want  float64
	}{
		{"a", 0.9},
		{"øl", 0.8},
		{"rekt", 0.6},
		{"rektor", 0.5},
		{"studentparlamentet", 0.5},
	}
	for _, tt := range tests {
		assert.InDelta(t, tt.want, postgres.TrigramCutoff(tt.query), 1e-9, tt.query)
	}
}

/* ──────────────────────────────── 5. hotness / visits ──────────────────────────────── */

func TestStoryRepo_DevalueHotness(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`SET hot_count = ((hot_count - 1) * $1::float8)::int`)).
		WithArgs(0.99).
		WillReturnResult(sqlmock.NewResult(0, 120))

	n, err := postgres.NewStoryRepo(db).DevalueHotness(context.Background(), 0.99)
	require.NoError(t, err)
	assert.EqualValues(t, 120, n)
}

func TestStoryRepo_IncrementVisit(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`hot_count = hot_count + 100`)).
		WithArgs(int64(42)).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(`hit_count = hit_count \+ 1`).
		WithArgs(int64(43)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := postgres.NewStoryRepo(db)
	assert.NoError(t, repo.IncrementVisit(context.Background(), 42))
	assert.ErrorIs(t, repo.IncrementVisit(context.Background(), 43), entity.ErrNotFound)
}

func TestStoryRepo_UpdateSearchVectors(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectExec(regexp.QuoteMeta(`stories.search_vector IS NULL`)).
		WillReturnResult(sqlmock.NewResult(0, 4))

	n, err := postgres.NewStoryRepo(db).UpdateSearchVectors(context.Background())
	require.NoError(t, err)
	assert.EqualValues(t, 4, n)
}

func TestStoryRepo_RowsAffectedError(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()
	repo := postgres.NewStoryRepo(db)

	mock.ExpectExec(regexp.QuoteMeta(`WHERE hot_count >= 1`)).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver lost count")))
	_, err := repo.DevalueHotness(context.Background(), 0.99)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "DevalueHotness: RowsAffected")

	mock.ExpectExec(regexp.QuoteMeta(`stories.search_vector IS NULL`)).
		WillReturnResult(sqlmock.NewErrorResult(errors.New("driver lost count")))
	_, err = repo.UpdateSearchVectors(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "UpdateSearchVectors: RowsAffected")
}

/* ──────────────────────────────── 6. bylines / images ──────────────────────────────── */

func TestStoryRepo_SetBylines(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`DELETE FROM bylines WHERE story_id = $1`)).
		WithArgs(int64(42)).WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bylines`)).
		WithArgs(int64(42), int64(7), "by", "journalist", 0).WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO bylines`)).
		WithArgs(int64(42), int64(8), "photo", "", 1).WillReturnResult(sqlmock.NewResult(2, 1))
	mock.ExpectCommit()

	err := postgres.NewStoryRepo(db).SetBylines(context.Background(), 42, []entity.Byline{
		{ContributorID: 7, Credit: entity.CreditWriter, Title: "journalist"},
		{ContributorID: 8, Credit: entity.CreditPhotographer},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepo_SetBylines_RollsBack(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM bylines`).WillReturnError(errors.New("deadlock"))
	mock.ExpectRollback()

	err := postgres.NewStoryRepo(db).SetBylines(context.Background(), 42, nil)
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestStoryRepo_ListBylines(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectQuery(regexp.QuoteMeta(`FROM bylines b`)).
		WithArgs(int64(42)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "story_id", "contributor_id", "display_name", "credit", "title"}).
			AddRow(int64(1), int64(42), int64(7), "Kari", "by", "journalist"))

	got, err := postgres.NewStoryRepo(db).ListBylines(context.Background(), 42)
	require.NoError(t, err)
	want := []entity.Byline{{ID: 1, StoryID: 42, ContributorID: 7, ContributorName: "Kari", Credit: entity.CreditWriter, Title: "journalist"}}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("mismatch (-want +got):\n%s", diff)
	}
}

func TestStoryRepo_AddImage_Top(t *testing.T) {
	db, mock, _ := sqlmock.New()
	defer func() { _ = db.Close() }()

	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE story_images SET is_top = FALSE`)).
		WithArgs(int64(42)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO story_images`)).
		WithArgs(int64(42), int64(9), "Foto", true).WillReturnResult(sqlmock.NewResult(3, 1))
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE stories SET modified = now()`)).
		WithArgs(int64(42)).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	require.NoError(t, postgres.NewStoryRepo(db).AddImage(context.Background(), 42, 9, "Foto", true))
	assert.NoError(t, mock.ExpectationsWereMet())
}
