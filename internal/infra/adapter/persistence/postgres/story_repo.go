package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"
	"unicode/utf8"

	"universitas/internal/domain/entity"
	"universitas/internal/observability/metrics"
	"universitas/internal/repository"
)

type StoryRepo struct{ db *sql.DB }

func NewStoryRepo(db *sql.DB) repository.StoryRepository {
	return &StoryRepo{db: db}
}

const storyColumns = `
s.id, s.language, s.title, s.slug, s.kicker, s.lede, s.comment, s.theme_word,
s.working_title, s.bodytext_markup, s.story_type, s.publication_date,
s.publication_status, s.issue_id, s.page, s.hit_count, s.hot_count,
s.bylines_html, s.created, s.modified,
EXISTS (SELECT 1 FROM story_images si WHERE si.story_id = s.id AND si.is_top) AS has_main_image`

func scanStory(row rowScanner, extra ...any) (*entity.Story, error) {
	var s entity.Story
	dest := []any{
		&s.ID, &s.Language, &s.Title, &s.Slug, &s.Kicker, &s.Lede, &s.Comment, &s.ThemeWord,
		&s.WorkingTitle, &s.BodytextMarkup, &s.StoryType, &s.PublicationDate,
		&s.PublicationStatus, &s.IssueID, &s.Page, &s.HitCount, &s.HotCount,
		&s.BylinesHTML, &s.Created, &s.Modified, &s.HasMainImage,
	}
	if err := row.Scan(append(dest, extra...)...); err != nil {
		return nil, err
	}
	return &s, nil
}

func storyWhere(filter repository.StoryFilter) *whereBuilder {
	b := &whereBuilder{}
	if filter.Status != nil {
		b.add("s.publication_status = ?", int(*filter.Status))
	}
	if filter.IssueID != nil {
		b.add("s.issue_id = ?", *filter.IssueID)
	}
	if filter.PublishedAt != nil {
		b.raw(fmt.Sprintf("s.publication_status IN (%d, %d)", entity.StatusPublished, entity.StatusNoIndex))
		b.add("s.publication_date <= ?", *filter.PublishedAt)
	}
	return b
}

func (repo *StoryRepo) List(ctx context.Context, filter repository.StoryFilter, offset, limit int) ([]*entity.Story, error) {
	b := storyWhere(filter)
	query := `SELECT ` + storyColumns + `
FROM stories s
` + b.clause() + `
ORDER BY s.publication_date DESC NULLS FIRST, s.id DESC
` + b.page(offset, limit)

	rows, err := repo.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	stories := make([]*entity.Story, 0, limit)
	for rows.Next() {
		s, err := scanStory(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		stories = append(stories, s)
	}
	return stories, rows.Err()
}

func (repo *StoryRepo) Count(ctx context.Context, filter repository.StoryFilter) (int64, error) {
	b := storyWhere(filter)
	var n int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM stories s `+b.clause(), b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func (repo *StoryRepo) Get(ctx context.Context, id int64) (*entity.Story, error) {
	query := `SELECT ` + storyColumns + `
FROM stories s
WHERE s.id = $1
LIMIT 1`
	s, err := scanStory(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return s, nil
}

func (repo *StoryRepo) Create(ctx context.Context, s *entity.Story) error {
	const query = `
INSERT INTO stories (
    language, title, slug, kicker, lede, comment, theme_word, working_title,
    bodytext_markup, story_type, publication_date, publication_status,
    issue_id, page, hit_count, hot_count, bylines_html
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
RETURNING id, created, modified`
	err := repo.db.QueryRowContext(ctx, query,
		s.Language, s.Title, s.Slug, s.Kicker, s.Lede, s.Comment, s.ThemeWord, s.WorkingTitle,
		s.BodytextMarkup, s.StoryType, s.PublicationDate, int(s.PublicationStatus),
		s.IssueID, s.Page, s.HitCount, s.HotCount, s.BylinesHTML,
	).Scan(&s.ID, &s.Created, &s.Modified)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

// Update writes the editable fields. The search vector is cleared so the
// next UpdateSearchVectors run rebuilds it.
func (repo *StoryRepo) Update(ctx context.Context, s *entity.Story) error {
	const query = `
UPDATE stories SET
       language           = $1,
       title              = $2,
       slug               = $3,
       kicker             = $4,
       lede               = $5,
       comment            = $6,
       theme_word         = $7,
       working_title      = $8,
       bodytext_markup    = $9,
       story_type         = $10,
       publication_date   = $11,
       publication_status = $12,
       issue_id           = $13,
       page               = $14,
       bylines_html       = $15,
       search_vector      = NULL,
       modified           = now()
WHERE id = $16`
	res, err := repo.db.ExecContext(ctx, query,
		s.Language, s.Title, s.Slug, s.Kicker, s.Lede, s.Comment, s.ThemeWord, s.WorkingTitle,
		s.BodytextMarkup, s.StoryType, s.PublicationDate, int(s.PublicationStatus),
		s.IssueID, s.Page, s.BylinesHTML, s.ID,
	)
	return expectRow("Update", res, err)
}

func (repo *StoryRepo) Delete(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM stories WHERE id = $1`, id)
	return expectRow("Delete", res, err)
}

const (
	fullTextMinLength = 5
	fullTextCutoff    = 0.2
)

// Age penalty: the log2 of the age in days, at least 1.
const logAge = `
LATERAL (SELECT greatest(1.0, log(2.0, greatest(1.0,
    abs(extract(epoch FROM ($2::timestamptz - coalesce(s.publication_date, s.created)))) / 86400
)::numeric))::float8 AS value) age`

// Search ranks by full text when the query is longer than five characters
// and falls back to trigram word similarity when that finds nothing.
func (repo *StoryRepo) Search(ctx context.Context, query string, now time.Time, limit int) ([]repository.RankedStory, error) {
	if utf8.RuneCountInString(query) > fullTextMinLength {
		hits, err := repo.fullTextSearch(ctx, query, now, limit)
		if err != nil || len(hits) > 0 {
			return hits, err
		}
	}
	return repo.trigramSearch(ctx, query, now, limit)
}

func (repo *StoryRepo) fullTextSearch(ctx context.Context, query string, now time.Time, limit int) ([]repository.RankedStory, error) {
	q := `SELECT ` + storyColumns + `, r.value / age.value AS score
FROM stories s,
LATERAL (SELECT ts_rank(s.search_vector, plainto_tsquery('norwegian', $1))::float8 AS value) r,` + logAge + `
WHERE r.value > $3
ORDER BY score DESC
LIMIT $4`
	return repo.ranked(ctx, "stories.search", q, query, now, fullTextCutoff, limit)
}

func (repo *StoryRepo) trigramSearch(ctx context.Context, query string, now time.Time, limit int) ([]repository.RankedStory, error) {
	q := `SELECT ` + storyColumns + `, r.value / age.value AS score
FROM stories s,
LATERAL (SELECT word_similarity($1,
    s.working_title || ' ' || s.kicker || ' ' || s.title || ' ' || s.lede)::float8 AS value) r,` + logAge + `
WHERE r.value > $3
ORDER BY score DESC
LIMIT $4`
	return repo.ranked(ctx, "stories.trigram", q, query, now, TrigramCutoff(query), limit)
}

// TrigramCutoff is the word similarity a story needs to match query.
// Short queries need a closer match.
func TrigramCutoff(query string) float64 {
	return 1 - float64(min(5, utf8.RuneCountInString(query)))/10
}

func (repo *StoryRepo) ranked(ctx context.Context, op, q, query string, now time.Time, cutoff float64, limit int) ([]repository.RankedStory, error) {
	defer func(start time.Time) { metrics.RecordDBQuery(op, time.Since(start)) }(time.Now())

	rows, err := repo.db.QueryContext(ctx, q, query, now, cutoff, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	hits := make([]repository.RankedStory, 0, limit)
	for rows.Next() {
		var rank float64
		s, err := scanStory(rows, &rank)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		hits = append(hits, repository.RankedStory{Story: s, Rank: rank})
	}
	return hits, rows.Err()
}

func (repo *StoryRepo) IncrementVisit(ctx context.Context, id int64) error {
	const query = `
UPDATE stories
SET hit_count = hit_count + 1,
    hot_count = hot_count + 100
WHERE id = $1`
	res, err := repo.db.ExecContext(ctx, query, id)
	return expectRow("IncrementVisit", res, err)
}

func (repo *StoryRepo) DevalueHotness(ctx context.Context, factor float64) (int64, error) {
	const query = `
UPDATE stories
SET hot_count = ((hot_count - 1) * $1::float8)::int
WHERE hot_count >= 1`
	res, err := repo.db.ExecContext(ctx, query, factor)
	if err != nil {
		return 0, fmt.Errorf("DevalueHotness: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("DevalueHotness: RowsAffected: %w", err)
	}
	return n, nil
}

// UpdateSearchVectors rebuilds the vectors cleared by Create and Update.
// Titles weigh most, then the lede, then the body text.
func (repo *StoryRepo) UpdateSearchVectors(ctx context.Context) (int64, error) {
	const query = `
UPDATE stories SET search_vector =
    setweight(to_tsvector(cfg.name, working_title || ' ' || title || ' ' || kicker || ' ' || theme_word), 'A') ||
    setweight(to_tsvector(cfg.name, lede), 'B') ||
    setweight(to_tsvector(cfg.name, bodytext_markup), 'C')
FROM (SELECT id AS story_id,
             (CASE WHEN language = 'en' THEN 'english' ELSE 'norwegian' END)::regconfig AS name
      FROM stories) cfg
WHERE cfg.story_id = stories.id
  AND stories.search_vector IS NULL`
	res, err := repo.db.ExecContext(ctx, query)
	if err != nil {
		return 0, fmt.Errorf("UpdateSearchVectors: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("UpdateSearchVectors: RowsAffected: %w", err)
	}
	return n, nil
}

func (repo *StoryRepo) ListBylines(ctx context.Context, storyID int64) ([]entity.Byline, error) {
	const query = `
SELECT b.id, b.story_id, b.contributor_id, c.display_name, b.credit, b.title
FROM bylines b
JOIN contributors c ON c.id = b.contributor_id
WHERE b.story_id = $1
ORDER BY b.ordering, b.id`
	rows, err := repo.db.QueryContext(ctx, query, storyID)
	if err != nil {
		return nil, fmt.Errorf("ListBylines: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var bylines []entity.Byline
	for rows.Next() {
		var bl entity.Byline
		if err := rows.Scan(&bl.ID, &bl.StoryID, &bl.ContributorID, &bl.ContributorName, &bl.Credit, &bl.Title); err != nil {
			return nil, fmt.Errorf("ListBylines: Scan: %w", err)
		}
		bylines = append(bylines, bl)
	}
	return bylines, rows.Err()
}

func (repo *StoryRepo) SetBylines(ctx context.Context, storyID int64, bylines []entity.Byline) error {
	err := withTx(ctx, repo.db, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM bylines WHERE story_id = $1`, storyID); err != nil {
			return err
		}
		const insert = `
INSERT INTO bylines (story_id, contributor_id, credit, title, ordering)
VALUES ($1, $2, $3, $4, $5)`
		for i, bl := range bylines {
			if _, err := tx.ExecContext(ctx, insert, storyID, bl.ContributorID, string(bl.Credit), bl.Title, i); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("SetBylines: %w", err)
	}
	return nil
}

func (repo *StoryRepo) AddImage(ctx context.Context, storyID, imageID int64, caption string, top bool) error {
	err := withTx(ctx, repo.db, func(tx *sql.Tx) error {
		if top {
			if _, err := tx.ExecContext(ctx, `UPDATE story_images SET is_top = FALSE WHERE story_id = $1`, storyID); err != nil {
				return err
			}
		}
		const insert = `
INSERT INTO story_images (story_id, imagefile_id, caption, is_top, ordering)
SELECT $1, $2, $3, $4, coalesce(max(ordering) + 1, 0)
FROM story_images WHERE story_id = $1`
		if _, err := tx.ExecContext(ctx, insert, storyID, imageID, caption, top); err != nil {
			return err
		}
		_, err := tx.ExecContext(ctx, `UPDATE stories SET modified = now() WHERE id = $1`, storyID)
		return err
	})
	if err != nil {
		return fmt.Errorf("AddImage: %w", err)
	}
	return nil
}
