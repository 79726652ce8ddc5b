package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/lib/pq"

	"universitas/internal/domain/entity"
	"universitas/internal/repository"
)

type ImageFileRepo struct{ db *sql.DB }

func NewImageFileRepo(db *sql.DB) repository.ImageFileRepository {
	return &ImageFileRepo{db: db}
}

const (
	imageColumns = `
i.id, i.stem, i.original, i.source_file, i.full_width, i.full_height, i.old_file_path,
i.contributor_id, coalesce(c.display_name, ''), i.description,
i.copyright_information, i.exif_data, i.crop_box, i.cropping_method,
i.category, i.stat, i.imagehash, i.imagehashes,
(SELECT COUNT(*) FROM story_images si WHERE si.imagefile_id = i.id) AS usage,
i.created, i.modified`

	imageFrom = `
FROM imagefiles i
LEFT JOIN contributors c ON c.id = i.contributor_id`

	// Trigram candidates are capped so FilterDupes stays cheap.
	trigramCandidateLimit = 30
)

func scanImage(row rowScanner) (*entity.ImageFile, error) {
	var (
		img                         entity.ImageFile
		exif, cropBox, stat, hashes []byte
	)
	if err := row.Scan(
		&img.ID, &img.Stem, &img.Original, &img.SourceFile, &img.FullWidth, &img.FullHeight, &img.OldFilePath,
		&img.ContributorID, &img.ContributorName, &img.Description,
		&img.CopyrightInformation, &exif, &cropBox, &img.CroppingMethod,
		&img.Category, &stat, &img.ImageHash, &hashes,
		&img.Usage, &img.Created, &img.Modified,
	); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(exif, &img.ExifData); err != nil {
		return nil, fmt.Errorf("exif_data: %w", err)
	}
	if err := unmarshalJSON(cropBox, &img.CropBox); err != nil {
		return nil, fmt.Errorf("crop_box: %w", err)
	}
	if err := unmarshalJSON(stat, &img.Stat); err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if err := unmarshalJSON(hashes, &img.ImageHashes); err != nil {
		return nil, fmt.Errorf("imagehashes: %w", err)
	}
	return &img, nil
}

func unmarshalJSON(data []byte, v any) error {
	if len(data) == 0 {
		return nil
	}
	return json.Unmarshal(data, v)
}

// jsonArgs marshals the JSONB columns of img in column order:
// exif_data, crop_box, stat, imagehashes.
func jsonArgs(img *entity.ImageFile) ([]any, error) {
	exif := img.ExifData
	if exif == nil {
		exif = map[string]any{}
	}
	hashes := img.ImageHashes
	if hashes == nil {
		hashes = map[string]string{}
	}
	out := make([]any, 0, 4)
	for _, v := range []any{exif, img.CropBox, img.Stat, hashes} {
		b, err := json.Marshal(v)
		if err != nil {
			return nil, err
		}
		out = append(out, b)
	}
	return out, nil
}

func (repo *ImageFileRepo) queryImages(ctx context.Context, op, query string, args ...any) ([]*entity.ImageFile, error) {
	rows, err := repo.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() { _ = rows.Close() }()

	images := make([]*entity.ImageFile, 0, 20)
	for rows.Next() {
		img, err := scanImage(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: Scan: %w", op, err)
		}
		images = append(images, img)
	}
	return images, rows.Err()
}

func imageWhere(filter repository.ImageFilter) *whereBuilder {
	b := &whereBuilder{}
	if len(filter.Categories) > 0 {
		cats := make([]int64, len(filter.Categories))
		for i, c := range filter.Categories {
			cats[i] = int64(c)
		}
		b.add("i.category = ANY(?)", pq.Array(cats))
	}
	if filter.Method != nil {
		b.add("i.cropping_method = ?", int(*filter.Method))
	}
	if filter.Query != "" {
		b.add("(i.original ILIKE ? OR i.description ILIKE ?)", contains(filter.Query))
	}
	return b
}

func (repo *ImageFileRepo) List(ctx context.Context, filter repository.ImageFilter, offset, limit int) ([]*entity.ImageFile, error) {
	b := imageWhere(filter)
	query := `SELECT ` + imageColumns + imageFrom + `
` + b.clause() + `
ORDER BY i.created DESC, i.id DESC
` + b.page(offset, limit)
	return repo.queryImages(ctx, "List", query, b.args...)
}

func (repo *ImageFileRepo) Count(ctx context.Context, filter repository.ImageFilter) (int64, error) {
	b := imageWhere(filter)
	var n int64
	if err := repo.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM imagefiles i `+b.clause(), b.args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("Count: %w", err)
	}
	return n, nil
}

func (repo *ImageFileRepo) Get(ctx context.Context, id int64) (*entity.ImageFile, error) {
	query := `SELECT ` + imageColumns + imageFrom + `
WHERE i.id = $1
LIMIT 1`
	img, err := scanImage(repo.db.QueryRowContext(ctx, query, id))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("Get: %w", err)
	}
	return img, nil
}

func (repo *ImageFileRepo) GetMany(ctx context.Context, ids []int64) ([]*entity.ImageFile, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	query := `SELECT ` + imageColumns + imageFrom + `
WHERE i.id = ANY($1)
ORDER BY i.id`
	return repo.queryImages(ctx, "GetMany", query, pq.Array(ids))
}

func (repo *ImageFileRepo) Create(ctx context.Context, img *entity.ImageFile) error {
	js, err := jsonArgs(img)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	const query = `
INSERT INTO imagefiles (
    stem, original, full_width, full_height, old_file_path, contributor_id,
    description, copyright_information, exif_data, crop_box, stat, imagehashes,
    cropping_method, category, imagehash, source_file, created, modified
) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $17)
RETURNING id`
	created := img.Created
	if created.IsZero() {
		created = time.Now()
		img.Created = created
	}
	err = repo.db.QueryRowContext(ctx, query,
		img.Stem, img.Original, img.FullWidth, img.FullHeight, img.OldFilePath, img.ContributorID,
		img.Description, img.CopyrightInformation, js[0], js[1], js[2], js[3],
		int(img.CroppingMethod), int(img.Category), img.ImageHash, img.SourceFile, created,
	).Scan(&img.ID)
	if err != nil {
		return fmt.Errorf("Create: %w", err)
	}
	img.Modified = created
	return nil
}

func (repo *ImageFileRepo) Update(ctx context.Context, img *entity.ImageFile) error {
	box, err := json.Marshal(img.CropBox)
	if err != nil {
		return fmt.Errorf("Update: %w", err)
	}
	const query = `
UPDATE imagefiles SET
       stem                  = $1,
       original              = $2,
       old_file_path         = $3,
       contributor_id        = $4,
       description           = $5,
       copyright_information = $6,
       category              = $7,
       crop_box              = $8,
       cropping_method       = $9,
       modified              = now()
WHERE id = $10`
	res, err := repo.db.ExecContext(ctx, query,
		img.Stem, img.Original, img.OldFilePath, img.ContributorID,
		img.Description, img.CopyrightInformation, int(img.Category),
		box, int(img.CroppingMethod), img.ID,
	)
	return expectRow("Update", res, err)
}

func (repo *ImageFileRepo) UpdateCrop(ctx context.Context, id int64, box entity.CropBox, method entity.CroppingMethod) error {
	b, err := json.Marshal(box)
	if err != nil {
		return fmt.Errorf("UpdateCrop: %w", err)
	}
	const query = `
UPDATE imagefiles
SET crop_box = $1, cropping_method = $2, modified = now()
WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, query, b, int(method), id)
	return expectRow("UpdateCrop", res, err)
}

func (repo *ImageFileRepo) UpdateHashes(ctx context.Context, id int64, ahash string, hashes map[string]string) error {
	b, err := json.Marshal(hashes)
	if err != nil {
		return fmt.Errorf("UpdateHashes: %w", err)
	}
	const query = `
UPDATE imagefiles
SET imagehash = $1, imagehashes = $2
WHERE id = $3`
	res, err := repo.db.ExecContext(ctx, query, ahash, b, id)
	return expectRow("UpdateHashes", res, err)
}

// UpdateFile replaces the stored original. Hashes and crop follow from the
// new file, so they are written as well.
func (repo *ImageFileRepo) UpdateFile(ctx context.Context, img *entity.ImageFile) error {
	js, err := jsonArgs(img)
	if err != nil {
		return fmt.Errorf("UpdateFile: %w", err)
	}
	const query = `
UPDATE imagefiles SET
       original        = $1,
       stem            = $2,
       full_width      = $3,
       full_height     = $4,
       exif_data       = $5,
       crop_box        = $6,
       stat            = $7,
       imagehashes     = $8,
       imagehash       = $9,
       cropping_method = $10,
       source_file     = $11,
       modified        = now()
WHERE id = $12`
	res, err := repo.db.ExecContext(ctx, query,
		img.Original, img.Stem, img.FullWidth, img.FullHeight,
		js[0], js[1], js[2], js[3], img.ImageHash, int(img.CroppingMethod),
		img.SourceFile, img.ID,
	)
	return expectRow("UpdateFile", res, err)
}

func (repo *ImageFileRepo) Delete(ctx context.Context, id int64) error {
	res, err := repo.db.ExecContext(ctx, `DELETE FROM imagefiles WHERE id = $1`, id)
	return expectRow("Delete", res, err)
}

func (repo *ImageFileRepo) ByMD5(ctx context.Context, md5 string) ([]*entity.ImageFile, error) {
	query := `SELECT ` + imageColumns + imageFrom + `
WHERE i.stat->>'md5' = $1
ORDER BY i.created DESC`
	return repo.queryImages(ctx, "ByMD5", query, md5)
}

func (repo *ImageFileRepo) DupesByImageHash(ctx context.Context, ahash string, limit int) ([]*entity.ImageFile, error) {
	query := `SELECT ` + imageColumns + imageFrom + `
WHERE i.imagehash % $1
ORDER BY similarity(i.imagehash, $1) DESC
LIMIT $2`
	return repo.queryImages(ctx, "DupesByImageHash", query, ahash, limit)
}

func (repo *ImageFileRepo) ByStemSimilarity(ctx context.Context, stem string, cutoff float64) ([]*entity.ImageFile, error) {
	query := `SELECT ` + imageColumns + imageFrom + `
WHERE similarity(i.stem, $1) > $2
ORDER BY similarity(i.stem, $1) DESC, i.created DESC
LIMIT $3`
	return repo.queryImages(ctx, "ByStemSimilarity", query, stem, cutoff, trigramCandidateLimit)
}

func (repo *ImageFileRepo) FilenameSearch(ctx context.Context, name string, similarity float64) ([]*entity.ImageFile, error) {
	query := `SELECT ` + imageColumns + imageFrom + `
WHERE similarity(regexp_replace(i.original, '.*/', ''), $1) > $2
ORDER BY similarity(regexp_replace(i.original, '.*/', ''), $1) DESC
LIMIT $3`
	return repo.queryImages(ctx, "FilenameSearch", query, name, similarity, trigramCandidateLimit)
}

func (repo *ImageFileRepo) Similar(ctx context.Context, img *entity.ImageFile, field repository.SimilarField, window time.Duration) ([]*entity.ImageFile, error) {
	switch field {
	case repository.SimilarByImageHash:
		query := `SELECT ` + imageColumns + imageFrom + `
WHERE i.imagehash % $1 AND i.id <> $2
ORDER BY similarity(i.imagehash, $1) DESC
LIMIT $3`
		return repo.queryImages(ctx, "Similar", query, img.ImageHash, img.ID, trigramCandidateLimit)
	case repository.SimilarByMD5:
		query := `SELECT ` + imageColumns + imageFrom + `
WHERE i.stat->>'md5' = $1 AND i.id <> $2
ORDER BY i.created DESC`
		return repo.queryImages(ctx, "Similar", query, img.Stat.MD5, img.ID)
	case repository.SimilarByCreated:
		query := `SELECT ` + imageColumns + imageFrom + `
WHERE i.created BETWEEN $1 AND $2 AND i.id <> $3
ORDER BY i.created`
		return repo.queryImages(ctx, "Similar", query, img.Created.Add(-window), img.Created.Add(window), img.ID)
	}
	return nil, fmt.Errorf("Similar: %w", repository.ErrInvalidSimilarField)
}

func (repo *ImageFileRepo) PendingIDs(ctx context.Context, limit int) ([]int64, error) {
	const query = `
SELECT id FROM imagefiles
WHERE cropping_method = $1
ORDER BY created DESC
LIMIT $2`
	rows, err := repo.db.QueryContext(ctx, query, int(entity.CropPending), limit)
	if err != nil {
		return nil, fmt.Errorf("PendingIDs: %w", err)
	}
	defer func() { _ = rows.Close() }()

	ids := make([]int64, 0, limit)
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("PendingIDs: Scan: %w", err)
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (repo *ImageFileRepo) FindBySourceName(ctx context.Context, name, path string) (*entity.ImageFile, error) {
	query := `SELECT ` + imageColumns + imageFrom + `
WHERE i.source_file = $1 OR i.source_file LIKE $2
ORDER BY i.created DESC`
	images, err := repo.queryImages(ctx, "FindBySourceName", query, name, "%/"+escapeLike(name))
	if err != nil || len(images) == 0 {
		return nil, err
	}
	if len(images) == 1 {
		return images[0], nil
	}
	for _, img := range images {
		if img.SourceFile == path {
			return img, nil
		}
	}
	return images[0], nil
}

func (repo *ImageFileRepo) TouchRelated(ctx context.Context, id int64, modified time.Time) error {
	statements := []string{
		`UPDATE stories SET modified = $2 WHERE id IN (SELECT story_id FROM story_images WHERE imagefile_id = $1)`,
		`UPDATE story_images SET modified = $2 WHERE imagefile_id = $1`,
		`UPDATE contributors SET modified = $2 WHERE profile_image_id = $1`,
		`UPDATE imagefiles SET modified = $2 WHERE id = $1`,
	}
	err := withTx(ctx, repo.db, func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, id, modified); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("TouchRelated: %w", err)
	}
	return nil
}

func (repo *ImageFileRepo) Merge(ctx context.Context, keep int64, others []int64) error {
	statements := []string{
		`UPDATE story_images SET imagefile_id = $1, modified = now() WHERE imagefile_id = ANY($2)`,
		`UPDATE frontpage_stories SET imagefile_id = $1, modified = now() WHERE imagefile_id = ANY($2)`,
		`UPDATE contributors SET profile_image_id = $1, modified = now() WHERE profile_image_id = ANY($2)`,
		`DELETE FROM imagefiles WHERE id = ANY($2) AND id <> $1`,
	}
	err := withTx(ctx, repo.db, func(tx *sql.Tx) error {
		for _, stmt := range statements {
			if _, err := tx.ExecContext(ctx, stmt, keep, pq.Array(others)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("Merge: %w", err)
	}
	return nil
}
