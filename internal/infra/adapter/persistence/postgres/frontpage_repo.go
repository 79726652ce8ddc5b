package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"universitas/internal/domain/entity"
	"universitas/internal/repository"
)

type FrontpageRepo struct{ db *sql.DB }

func NewFrontpageRepo(db *sql.DB) repository.FrontpageRepository {
	return &FrontpageRepo{db: db}
}

const (
	teaserColumns = `fs.id, fs.story_id, fs.kicker, fs.headline, fs.lede, fs.imagefile_id,
fs.horizontal_centre, fs.vertical_centre, fs.created, fs.modified`
	blockColumns = `cb.id, cb.frontpage_story_id, cb.frontpage, cb.publication_date,
cb.position, cb.columns, cb.height`
)

func teaserDest(fs *entity.FrontpageStory) []any {
	return []any{&fs.ID, &fs.StoryID, &fs.Kicker, &fs.Headline, &fs.Lede, &fs.ImageID,
		&fs.HorizontalCentre, &fs.VerticalCentre, &fs.Created, &fs.Modified}
}

func blockDest(cb *entity.Contentblock) []any {
	return []any{&cb.ID, &cb.FrontpageStoryID, &cb.Frontpage, &cb.PublicationDate,
		&cb.Position, &cb.Columns, &cb.Height}
}

// Frontpage lists the blocks of a frontpage whose story is public.
func (repo *FrontpageRepo) Frontpage(ctx context.Context, frontpage string, limit int) ([]entity.FrontpageItem, error) {
	query := `
SELECT ` + blockColumns + `, ` + teaserColumns + `
FROM contentblocks cb
JOIN frontpage_stories fs ON fs.id = cb.frontpage_story_id
JOIN stories s ON s.id = fs.story_id
WHERE cb.frontpage = $1
  AND s.publication_status IN ($2, $3)
  AND cb.publication_date <= now()
ORDER BY cb.position DESC, cb.publication_date DESC
LIMIT $4`
	rows, err := repo.db.QueryContext(ctx, query, frontpage,
		int(entity.StatusPublished), int(entity.StatusNoIndex), limit)
	if err != nil {
		return nil, fmt.Errorf("Frontpage: %w", err)
	}
	defer func() { _ = rows.Close() }()

	items := make([]entity.FrontpageItem, 0, limit)
	for rows.Next() {
		var item entity.FrontpageItem
		if err := rows.Scan(append(blockDest(&item.Block), teaserDest(&item.Story)...)...); err != nil {
			return nil, fmt.Errorf("Frontpage: Scan: %w", err)
		}
		items = append(items, item)
	}
	return items, rows.Err()
}

func (repo *FrontpageRepo) ListStories(ctx context.Context, q string, offset, limit int) ([]*entity.FrontpageStory, error) {
	b := &whereBuilder{}
	if q != "" {
		b.add("(fs.headline ILIKE ? OR fs.kicker ILIKE ?)", contains(q))
	}
	query := `SELECT ` + teaserColumns + `
FROM frontpage_stories fs
` + b.clause() + `
ORDER BY fs.modified DESC, fs.id DESC
` + b.page(offset, limit)

	rows, err := repo.db.QueryContext(ctx, query, b.args...)
	if err != nil {
		return nil, fmt.Errorf("ListStories: %w", err)
	}
	defer func() { _ = rows.Close() }()

	teasers := make([]*entity.FrontpageStory, 0, limit)
	for rows.Next() {
		var fs entity.FrontpageStory
		if err := rows.Scan(teaserDest(&fs)...); err != nil {
			return nil, fmt.Errorf("ListStories: Scan: %w", err)
		}
		teasers = append(teasers, &fs)
	}
	return teasers, rows.Err()
}

// GetStory returns the teaser with its blocks.
func (repo *FrontpageRepo) GetStory(ctx context.Context, id int64) (*entity.FrontpageStory, error) {
	query := `SELECT ` + teaserColumns + `
FROM frontpage_stories fs
WHERE fs.id = $1
LIMIT 1`
	var fs entity.FrontpageStory
	err := repo.db.QueryRowContext(ctx, query, id).Scan(teaserDest(&fs)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetStory: %w", err)
	}

	blocks := `SELECT ` + blockColumns + `
FROM contentblocks cb
WHERE cb.frontpage_story_id = $1
ORDER BY cb.id`
	rows, err := repo.db.QueryContext(ctx, blocks, id)
	if err != nil {
		return nil, fmt.Errorf("GetStory: %w", err)
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		var cb entity.Contentblock
		if err := rows.Scan(blockDest(&cb)...); err != nil {
			return nil, fmt.Errorf("GetStory: Scan: %w", err)
		}
		fs.Blocks = append(fs.Blocks, cb)
	}
	return &fs, rows.Err()
}

func (repo *FrontpageRepo) CountForStory(ctx context.Context, storyID int64) (int64, error) {
	var n int64
	err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM frontpage_stories WHERE story_id = $1`, storyID).Scan(&n)
	if err != nil {
		return 0, fmt.Errorf("CountForStory: %w", err)
	}
	return n, nil
}

func (repo *FrontpageRepo) CreateStory(ctx context.Context, fs *entity.FrontpageStory) error {
	const query = `
INSERT INTO frontpage_stories (story_id, kicker, headline, lede, imagefile_id, horizontal_centre, vertical_centre)
VALUES ($1, $2, $3, $4, $5, $6, $7)
RETURNING id, created, modified`
	err := repo.db.QueryRowContext(ctx, query,
		fs.StoryID, fs.Kicker, fs.Headline, fs.Lede, fs.ImageID, fs.HorizontalCentre, fs.VerticalCentre,
	).Scan(&fs.ID, &fs.Created, &fs.Modified)
	if err != nil {
		return fmt.Errorf("CreateStory: %w", err)
	}
	return nil
}

func (repo *FrontpageRepo) UpdateStory(ctx context.Context, fs *entity.FrontpageStory) error {
	const query = `
UPDATE frontpage_stories SET
       kicker            = $1,
       headline          = $2,
       lede              = $3,
       imagefile_id      = $4,
       horizontal_centre = $5,
       vertical_centre   = $6,
       modified          = now()
WHERE id = $7`
	res, err := repo.db.ExecContext(ctx, query,
		fs.Kicker, fs.Headline, fs.Lede, fs.ImageID, fs.HorizontalCentre, fs.VerticalCentre, fs.ID,
	)
	return expectRow("UpdateStory", res, err)
}

func (repo *FrontpageRepo) DeleteStory(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM frontpage_stories WHERE id = $1`, id)
	return expectRow("DeleteStory", res, err)
}

func (repo *FrontpageRepo) GetBlock(ctx context.Context, id int64) (*entity.Contentblock, error) {
	query := `SELECT ` + blockColumns + `
FROM contentblocks cb
WHERE cb.id = $1
LIMIT 1`
	var cb entity.Contentblock
	err := repo.db.QueryRowContext(ctx, query, id).Scan(blockDest(&cb)...)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("GetBlock: %w", err)
	}
	return &cb, nil
}

func (repo *FrontpageRepo) CreateBlock(ctx context.Context, cb *entity.Contentblock) error {
	const query = `
INSERT INTO contentblocks (frontpage_story_id, frontpage, publication_date, position, columns, height)
VALUES ($1, $2, $3, $4, $5, $6)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		cb.FrontpageStoryID, cb.Frontpage, cb.PublicationDate, cb.Position, cb.Columns, cb.Height,
	).Scan(&cb.ID)
	if err != nil {
		return fmt.Errorf("CreateBlock: %w", err)
	}
	return nil
}

func (repo *FrontpageRepo) UpdateBlock(ctx context.Context, cb *entity.Contentblock) error {
	const query = `
UPDATE contentblocks SET
       frontpage        = $1,
       publication_date = $2,
       position         = $3,
       columns          = $4,
       height           = $5
WHERE id = $6`
	res, err := repo.db.ExecContext(ctx, query,
		cb.Frontpage, cb.PublicationDate, cb.Position, cb.Columns, cb.Height, cb.ID,
	)
	return expectRow("UpdateBlock", res, err)
}
