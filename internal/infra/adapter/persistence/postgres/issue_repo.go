package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"universitas/internal/domain/entity"
	"universitas/internal/repository"
)

type IssueRepo struct{ db *sql.DB }

func NewIssueRepo(db *sql.DB) repository.IssueRepository {
	return &IssueRepo{db: db}
}

const issueColumns = `id, issue_number, publication_date, pages, pdf, cover_page`

func scanIssue(row rowScanner) (*entity.PrintIssue, error) {
	var p entity.PrintIssue
	if err := row.Scan(&p.ID, &p.IssueNumber, &p.PublicationDate, &p.Pages, &p.PDF, &p.CoverPage); err != nil {
		return nil, err
	}
	return &p, nil
}

// List returns the issues of year in publication order. A zero year lists
// every issue.
func (repo *IssueRepo) List(ctx context.Context, year int) ([]*entity.PrintIssue, error) {
	const query = `
SELECT ` + issueColumns + `
FROM print_issues
WHERE $1 = 0 OR extract(year FROM publication_date) = $1
ORDER BY publication_date, issue_number`
	rows, err := repo.db.QueryContext(ctx, query, year)
	if err != nil {
		return nil, fmt.Errorf("List: %w", err)
	}
	defer func() { _ = rows.Close() }()

	issues := make([]*entity.PrintIssue, 0, 30)
	for rows.Next() {
		p, err := scanIssue(rows)
		if err != nil {
			return nil, fmt.Errorf("List: Scan: %w", err)
		}
		issues = append(issues, p)
	}
	return issues, rows.Err()
}

func (repo *IssueRepo) Get(ctx context.Context, id int64) (*entity.PrintIssue, error) {
	const query = `
SELECT ` + issueColumns + `
FROM print_issues
WHERE id = $1
LIMIT 1`
	p, err := scanIssue(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return p, nil
}

func (repo *IssueRepo) Latest(ctx context.Context, t time.Time) (*entity.PrintIssue, error) {
	const query = `
SELECT ` + issueColumns + `
FROM print_issues
WHERE publication_date <= $1
ORDER BY publication_date DESC
LIMIT 1`
	p, err := scanIssue(repo.db.QueryRowContext(ctx, query, t.Format(time.DateOnly)))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Latest: %w", err)
	}
	return p, nil
}

func (repo *IssueRepo) Create(ctx context.Context, p *entity.PrintIssue) error {
	const query = `
INSERT INTO print_issues (issue_number, publication_date, pages, pdf, cover_page)
VALUES ($1, $2, $3, $4, $5)
RETURNING id`
	err := repo.db.QueryRowContext(ctx, query,
		p.IssueNumber, p.PublicationDate.Format(time.DateOnly), p.Pages, p.PDF, p.CoverPage,
	).Scan(&p.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	return nil
}

func (repo *IssueRepo) Update(ctx context.Context, p *entity.PrintIssue) error {
	const query = `
UPDATE print_issues SET
       issue_number     = $1,
       publication_date = $2,
       pages            = $3,
       pdf              = $4,
       cover_page       = $5
WHERE id = $6`
	res, err := repo.db.ExecContext(ctx, query,
		p.IssueNumber, p.PublicationDate.Format(time.DateOnly), p.Pages, p.PDF, p.CoverPage, p.ID,
	)
	return expectRow("Update", res, err)
}

func (repo *IssueRepo) Delete(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM print_issues WHERE id = $1`, id)
	return expectRow("Delete", res, err)
}
