package repository

import (
	"context"
	"time"

	"universitas/internal/domain/entity"
)

type IssueRepository interface {
	List(ctx context.Context, year int) ([]*entity.PrintIssue, error)
	// Get returns (nil, nil) if the issue does not exist.
	Get(ctx context.Context, id int64) (*entity.PrintIssue, error)
	// Latest returns the newest issue published on or before t.
	Latest(ctx context.Context, t time.Time) (*entity.PrintIssue, error)
	Create(ctx context.Context, issue *entity.PrintIssue) error
	Update(ctx context.Context, issue *entity.PrintIssue) error
	Delete(ctx context.Context, id int64) error
}
