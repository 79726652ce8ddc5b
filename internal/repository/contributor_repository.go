package repository

import (
	"context"

	"universitas/internal/domain/entity"
)

type ContributorRepository interface {
	List(ctx context.Context, offset, limit int) ([]*entity.Contributor, error)
	// Get returns (nil, nil) if the contributor does not exist.
	Get(ctx context.Context, id int64) (*entity.Contributor, error)
	// Search does a trigram match on display name, best first.
	Search(ctx context.Context, name string) ([]*entity.Contributor, error)
	Create(ctx context.Context, c *entity.Contributor) error
	Update(ctx context.Context, c *entity.Contributor) error
}
