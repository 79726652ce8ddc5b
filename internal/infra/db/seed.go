package db

import (
	"bytes"
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"time"

	"gopkg.in/yaml.v3"

	"universitas/internal/domain/entity"
)

//go:embed seeds/publication_plan.yaml
var publicationPlanYAML []byte

// PublicationPlan is the YAML document listing planned print issues.
type PublicationPlan struct {
	Issues []entity.PrintIssue `yaml:"issues"`
}

// ParsePublicationPlan decodes and validates a publication plan.
func ParsePublicationPlan(r io.Reader) (*PublicationPlan, error) {
	var plan PublicationPlan
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&plan); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode publication plan: %w", err)
	}
	for i := range plan.Issues {
		if err := plan.Issues[i].Validate(); err != nil {
			return nil, fmt.Errorf("issue %d: %w", i+1, err)
		}
	}
	return &plan, nil
}

// SeedPublicationPlan inserts the print issues of the plan that do not exist
// yet. An issue exists when its number and publication date are already
// stored. It returns the number of inserted issues.
func SeedPublicationPlan(ctx context.Context, db *sql.DB, r io.Reader) (int, error) {
	plan, err := ParsePublicationPlan(r)
	if err != nil {
		return 0, err
	}

	const query = `
INSERT INTO print_issues (issue_number, publication_date, pages, pdf, cover_page)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (issue_number, publication_date) DO NOTHING`

	inserted := 0
	for _, issue := range plan.Issues {
		res, err := db.ExecContext(ctx, query,
			issue.IssueNumber,
			issue.PublicationDate.Format(time.DateOnly),
			issue.Pages,
			issue.PDF,
			issue.CoverPage,
		)
		if err != nil {
			return inserted, fmt.Errorf("SeedPublicationPlan: %w", err)
		}
		if n, err := res.RowsAffected(); err == nil && n > 0 {
			inserted++
		}
	}
	return inserted, nil
}

// SeedDefaultPublicationPlan loads the plan shipped with the binary.
func SeedDefaultPublicationPlan(ctx context.Context, db *sql.DB) error {
	n, err := SeedPublicationPlan(ctx, db, bytes.NewReader(publicationPlanYAML))
	if err != nil {
		return err
	}
	slog.Info("publication plan seeded", slog.Int("inserted", n))
	return nil
}

// WaitForSchema polls the database until the tables created by MigrateUp
// are visible. The worker calls it on start because the api binary owns the
// migrations.
func WaitForSchema(ctx context.Context, db *sql.DB, attempts int, interval time.Duration) error {
	const probe = "SELECT source_file FROM imagefiles LIMIT 1"
	var lastErr error
	for i := 0; i < attempts; i++ {
		if _, lastErr = db.ExecContext(ctx, probe); lastErr == nil {
			return nil
		}
		slog.Info("waiting for migrations", slog.Int("attempt", i+1), slog.Duration("retry_in", interval))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
	return fmt.Errorf("schema not ready after %d attempts: %w", attempts, lastErr)
}
