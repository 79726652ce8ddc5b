package repository

import (
	"context"
	"fmt"
	"time"

	"universitas/internal/domain/entity"
)

// ImageFilter narrows image listings.
type ImageFilter struct {
	Categories []entity.ImageCategory // Optional: any of these categories
	Method     *entity.CroppingMethod // Optional: cropping method
	Query      string                 // Optional: substring of original path or description
}

// SimilarField selects how Similar compares images.
type SimilarField string

const (
	SimilarByImageHash SimilarField = "imagehash"
	SimilarByMD5       SimilarField = "md5"
	SimilarByCreated   SimilarField = "created"
)

type ImageFileRepository interface {
	// List returns images newest first.
	List(ctx context.Context, filter ImageFilter, offset, limit int) ([]*entity.ImageFile, error)
	Count(ctx context.Context, filter ImageFilter) (int64, error)
	// Get returns (nil, nil) if the image does not exist.
	Get(ctx context.Context, id int64) (*entity.ImageFile, error)
	GetMany(ctx context.Context, ids []int64) ([]*entity.ImageFile, error)
	Create(ctx context.Context, img *entity.ImageFile) error
	Update(ctx context.Context, img *entity.ImageFile) error
	UpdateCrop(ctx context.Context, id int64, box entity.CropBox, method entity.CroppingMethod) error
	UpdateHashes(ctx context.Context, id int64, ahash string, hashes map[string]string) error
	// UpdateFile records a new original file and its metadata.
	UpdateFile(ctx context.Context, img *entity.ImageFile) error
	Delete(ctx context.Context, id int64) error
	ByMD5(ctx context.Context, md5 string) ([]*entity.ImageFile, error)
	// DupesByImageHash returns trigram candidates for ahash, best first.
	DupesByImageHash(ctx context.Context, ahash string, limit int) ([]*entity.ImageFile, error)
	// ByStemSimilarity returns images whose stem is trigram similar to stem.
	ByStemSimilarity(ctx context.Context, stem string, cutoff float64) ([]*entity.ImageFile, error)
	// FilenameSearch compares name with the basename of the original file.
	FilenameSearch(ctx context.Context, name string, similarity float64) ([]*entity.ImageFile, error)
	Similar(ctx context.Context, img *entity.ImageFile, field SimilarField, window time.Duration) ([]*entity.ImageFile, error)
	PendingIDs(ctx context.Context, limit int) ([]int64, error)
	// FindBySourceName finds the image whose source file ends with
	// "/"+name, falling back to an exact match on path when several do.
	FindBySourceName(ctx context.Context, name, path string) (*entity.ImageFile, error)
	// TouchRelated sets modified on stories, story images and contributors
	// using the image.
	TouchRelated(ctx context.Context, id int64, modified time.Time) error
	// Merge repoints references from others to keep and deletes others.
	Merge(ctx context.Context, keep int64, others []int64) error
}

// ErrInvalidSimilarField is returned by Similar for unknown fields.
var ErrInvalidSimilarField = fmt.Errorf("%w: unknown similar field", entity.ErrInvalidInput)
