package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"universitas/internal/domain/entity"
	"universitas/internal/repository"
)

type ContributorRepo struct{ db *sql.DB }

func NewContributorRepo(db *sql.DB) repository.ContributorRepository {
	return &ContributorRepo{db: db}
}

const contributorColumns = `id, display_name, email, phone, active, profile_image_id, created, modified`

// Names below this trigram similarity are not returned by Search.
const contributorNameCutoff = 0.3

func scanContributor(row rowScanner) (*entity.Contributor, error) {
	var c entity.Contributor
	if err := row.Scan(&c.ID, &c.DisplayName, &c.Email, &c.Phone, &c.Active,
		&c.ProfileImageID, &c.Created, &c.Modified); err != nil {
		return nil, err
	}
	return &c, nil
}

func (repo *ContributorRepo) queryContributors(ctx context.Context, op, query string, args ...any) ([]*entity.Contributor, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	contributors := make([]*entity.Contributor, 0, 50)
	for rows.Next() {
		c, err := scanContributor(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		contributors = append(contributors, c)
	}
	return contributors, rows.Err()
}

func (repo *ContributorRepo) List(ctx context.Context, offset, limit int) ([]*entity.Contributor, error) {
	const query = `
SELECT ` + contributorColumns + `
FROM contributors
ORDER BY display_name, id
LIMIT $1 OFFSET $2`
	return repo.queryContributors(ctx, "List", query, limit, offset)
}

func (repo *ContributorRepo) Get(ctx context.Context, id int64) (*entity.Contributor, error) {
	const query = `
SELECT ` + contributorColumns + `
FROM contributors
WHERE id = $1
LIMIT 1`
	c, err := scanContributor(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return c, nil
}

func (repo *ContributorRepo) Search(ctx context.Context, name string) ([]*entity.Contributor, error) {
	const query = `
SELECT ` + contributorColumns + `
FROM contributors
WHERE display_name ILIKE $1 OR similarity(display_name, $2) > $3
ORDER BY similarity(display_name, $2) DESC, display_name
LIMIT 20`
	return repo.queryContributors(ctx, "Search", query, contains(name), name, contributorNameCutoff)
}

func (repo *ContributorRepo) Create(ctx context.Context, c *entity.Contributor) error {
	const query = `
INSERT INTO contributors (display_name, email, phone, active, profile_image_id)
VALUES ($1, $2, $3, $4, $5)
RETURNING id, created, modified`
	err := repo.db.QueryRowContext(ctx, query,
		c.DisplayName, c.Email, c.Phone, c.Active, c.ProfileImageID,
	).Scan(&c.ID, &c.Created, &c.Modified)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *ContributorRepo) Update(ctx context.Context, c *entity.Contributor) error {
	const query = `
UPDATE contributors SET
       display_name     = $1,
       email            = $2,
       phone            = $3,
       active           = $4,
       profile_image_id = $5,
       modified         = now()
WHERE id = $6`
	res, err := repo.db.ExecContext(ctx, query,
		c.DisplayName, c.Email, c.Phone, c.Active, c.ProfileImageID, c.ID,
	)
	return expectRow("Update", res, err)
}
