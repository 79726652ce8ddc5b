package photo

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"

	"universitas/internal/common/pagination"
	"universitas/internal/domain/entity"
	"universitas/internal/infra/detector"
	"universitas/internal/infra/imageproc"
	"universitas/internal/infra/queue"
	"universitas/internal/infra/storage"
	"universitas/internal/observability/metrics"
	"universitas/internal/observability/tracing"
	"universitas/internal/repository"
)

// defaultSimilarWindow is the created window of Similar by "created".
const defaultSimilarWindow = 30 * time.Minute

// PaginatedResult is one page of images with its metadata.
type PaginatedResult struct {
	Data       []*entity.ImageFile
	Pagination pagination.Metadata
}

// UpdateInput holds the editable fields of an image. Nil fields are left
// unchanged.
type UpdateInput struct {
	Description          *string
	CopyrightInformation *string
	Category             *entity.ImageCategory
	ContributorID        *int64
	CropBox              *entity.CropBox
}

// SearchQuery selects images by checksum, by visual similarity to a
// fingerprint image, or by file name.
type SearchQuery struct {
	MD5         string
	Fingerprint string
	Filename    string
	Cutoff      float64
}

// Service provides photo use cases.
type Service struct {
	Repo    repository.ImageFileRepository
	Storage storage.Storage
	Queue   queue.Enqueuer // optional; pending images are picked up by the cleanup job
	Faces   detector.Detector
	Salient detector.Detector
	Now     func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// ParseProfileFilter maps the profile_images query value to categories.
// Truthy values select profile images, falsy values photos, anything else
// every category.
func ParseProfileFilter(v string) []entity.ImageCategory {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "1", "yes", "true":
		return []entity.ImageCategory{entity.CategoryProfile}
	case "0", "no", "false":
		return []entity.ImageCategory{entity.CategoryPhoto}
	}
	return nil
}

// List returns one page of images, newest first.
func (s *Service) List(ctx context.Context, filter repository.ImageFilter, params pagination.Params) (*PaginatedResult, error) {
	offset := params.Offset()

	total, err := s.Repo.Count(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("count images: %w", err)
	}
	images, err := s.Repo.List(ctx, filter, offset, params.Limit)
	if err != nil {
		return nil, fmt.Errorf("list images: %w", err)
	}
	return &PaginatedResult{
		Data: images,
		Pagination: pagination.NewMetadata(params, total),
	}, nil
}

// Get returns an image.
func (s *Service) Get(ctx context.Context, id int64) (*entity.ImageFile, error) {
	if id <= 0 {
		return nil, ErrInvalidImageID
	}
	img, err := s.Repo.Get(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("get image: %w", err)
	}
	if img == nil {
		return nil, ErrImageNotFound
	}
	return img, nil
}

// prepareFile validates data and records its metadata on img. It returns
// the bytes to store, which are reduced in size and stripped of EXIF.
func prepareFile(img *entity.ImageFile, filename string, data []byte) ([]byte, error) {
	decoded, info, err := imageproc.Decode(data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	x, err := imageproc.ReadExif(data)
	if err != nil {
		slog.Warn("exif not readable", slog.String("filename", filename), slog.Any("error", err))
	}
	img.ExifData = x.Tags
	if img.Description == "" {
		img.Description = x.Description
	}
	if img.CopyrightInformation == "" {
		img.CopyrightInformation = x.Credit()
	}
	if !x.DateTime.IsZero() {
		img.Created = x.DateTime
	}

	reduced, err := imageproc.Reduce(data, decoded, info)
	if err != nil {
		return nil, fmt.Errorf("reduce image: %w", err)
	}
	stat, err := imageproc.Stat(reduced.Data)
	if err != nil {
		return nil, fmt.Errorf("stat image: %w", err)
	}
	img.Stat = stat
	img.FullWidth, img.FullHeight = reduced.Width, reduced.Height
	if img.Stem == "" {
		img.Stem = entity.StemOf(filename)
	}
	return reduced.Data, nil
}

// Upload validates and stores a new original and queues its autocrop,
// which builds the thumbnails once the crop box is known. Description, copyright and creation time are taken from the
// EXIF data of the file.
func (s *Service) Upload(ctx context.Context, filename string, data []byte, category entity.ImageCategory) (img *entity.ImageFile, err error) {
	ctx, span := tracing.Start(ctx, "photo.Upload", attribute.Int("bytes", len(data)))
	defer span.End()
	defer func() {
		var size int64
		if img != nil {
			size = img.Stat.Size
		}
		metrics.RecordImageUpload(category.APICategory(), size, err)
		_ = tracing.RecordError(span, err)
	}()

	img = entity.NewImageFile(s.now())
	img.Category = category
	file, err := prepareFile(img, filename, data)
	if err != nil {
		return nil, err
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	// the row is created first since the normalized file name needs the id
	img.Original = img.UploadPath(filename)
	img.SourceFile = img.SourcePath(filename)
	if err := s.Repo.Create(ctx, img); err != nil {
		return nil, fmt.Errorf("create image: %w", err)
	}
	img.Original = img.UploadPath(filename)
	if err := s.Storage.Put(ctx, img.Original, file, img.Stat.Mimetype); err != nil {
		if derr := s.Repo.Delete(ctx, img.ID); derr != nil {
			slog.WarnContext(ctx, "orphan image row", slog.Int64("image_id", img.ID), slog.Any("error", derr))
		}
		return nil, fmt.Errorf("store original: %w", err)
	}
	if err := s.Repo.UpdateFile(ctx, img); err != nil {
		return nil, fmt.Errorf("update image file: %w", err)
	}

	s.enqueue(ctx, img.ID)
	span.SetAttributes(attribute.Int64("image.id", img.ID))
	return img, nil
}

// ReplaceFile stores data as the new original of img unless it has the
// same checksum as the current one. It reports whether the file changed.
func (s *Service) ReplaceFile(ctx context.Context, img *entity.ImageFile, filename string, data []byte) (bool, error) {
	next := *img
	file, err := prepareFile(&next, filename, data)
	if err != nil {
		return false, err
	}
	if next.Stat.MD5 == img.Stat.MD5 {
		return false, nil
	}

	next.Original = next.UploadPath(filename)
	next.SourceFile = next.SourcePath(filename)
	next.CroppingMethod = entity.CropPending
	next.CropBox = entity.BasicCropBox()
	next.ImageHash = ""
	next.ImageHashes = map[string]string{}
	if err := s.Storage.Put(ctx, next.Original, file, next.Stat.Mimetype); err != nil {
		return false, fmt.Errorf("store original: %w", err)
	}
	if err := s.Repo.UpdateFile(ctx, &next); err != nil {
		return false, fmt.Errorf("update image file: %w", err)
	}
	if img.Original != "" && img.Original != next.Original {
		if err := s.Storage.Delete(ctx, img.Original); err != nil {
			slog.WarnContext(ctx, "old original not deleted",
				slog.String("key", img.Original), slog.Any("error", err))
		}
	}
	*img = next
	s.enqueue(ctx, img.ID)
	return true, nil
}

func (s *Service) enqueue(ctx context.Context, id int64) {
	if s.Queue == nil {
		return
	}
	if err := s.Queue.EnqueueAutocrop(ctx, id); err != nil {
		slog.WarnContext(ctx, "autocrop not queued", slog.Int64("image_id", id), slog.Any("error", err))
	}
}

// Update edits an image. A new crop box is clamped to the image and marks
// the crop as manual. Stories and contributors using the image are touched
// when its category or crop box changes.
func (s *Service) Update(ctx context.Context, id int64, in UpdateInput) (*entity.ImageFile, error) {
	img, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	oldCategory, oldBox := img.Category, img.CropBox

	if in.Description != nil {
		img.Description = strings.TrimSpace(*in.Description)
	}
	if in.CopyrightInformation != nil {
		img.CopyrightInformation = strings.TrimSpace(*in.CopyrightInformation)
	}
	if in.Category != nil {
		img.Category = *in.Category
	}
	if in.ContributorID != nil {
		img.ContributorID = in.ContributorID
		if *in.ContributorID == 0 {
			img.ContributorID = nil
		}
	}
	if in.CropBox != nil {
		box := in.CropBox.Clamped()
		if err := box.Validate(); err != nil {
			return nil, err
		}
		if box != oldBox {
			img.CropBox = box
			img.CroppingMethod = entity.CropManual
		}
	}
	if err := img.Validate(); err != nil {
		return nil, err
	}

	img.Modified = s.now()
	if err := s.Repo.Update(ctx, img); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return nil, ErrImageNotFound
		}
		return nil, fmt.Errorf("update image: %w", err)
	}

	if img.Category != oldCategory || img.CropBox != oldBox {
		if err := s.Repo.TouchRelated(ctx, id, img.Modified); err != nil {
			slog.WarnContext(ctx, "related rows not touched", slog.Int64("image_id", id), slog.Any("error", err))
		}
		// the cropped preview depends on both
		if s.Queue != nil {
			if err := s.Queue.EnqueuePostSave(ctx, id); err != nil {
				slog.WarnContext(ctx, "post save not queued", slog.Int64("image_id", id), slog.Any("error", err))
			}
		}
	}
	return img, nil
}

// Delete removes an image row and then its files.
func (s *Service) Delete(ctx context.Context, id int64) error {
	img, err := s.Get(ctx, id)
	if err != nil {
		return err
	}
	if err := s.Repo.Delete(ctx, id); err != nil {
		if errors.Is(err, entity.ErrNotFound) {
			return ErrImageNotFound
		}
		return fmt.Errorf("delete image: %w", err)
	}
	for _, key := range s.fileKeys(img) {
		if err := s.Storage.Delete(ctx, key); err != nil {
			slog.WarnContext(ctx, "image file not deleted", slog.String("key", key), slog.Any("error", err))
		}
	}
	return nil
}

// Search finds images by md5 first, then by fingerprint, then by file
// name. An empty query gives no images.
func (s *Service) Search(ctx context.Context, q SearchQuery) ([]*entity.ImageFile, error) {
	ctx, span := tracing.Start(ctx, "photo.Search")
	defer span.End()

	if md5 := strings.TrimSpace(q.MD5); md5 != "" {
		images, err := s.Repo.ByMD5(ctx, strings.ToLower(md5))
		if err != nil {
			return nil, tracing.RecordError(span, fmt.Errorf("search md5: %w", err))
		}
		if len(images) > 0 {
			return images, nil
		}
	}

	if strings.TrimSpace(q.Fingerprint) != "" {
		master, err := imageproc.FromFingerprint(q.Fingerprint)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidFingerprint, err)
		}
		hashes, err := imageproc.Hashes(master)
		if err != nil {
			return nil, tracing.RecordError(span, fmt.Errorf("hash fingerprint: %w", err))
		}
		candidates, err := s.Repo.DupesByImageHash(ctx, hashes[imageproc.AHash], dupeCandidates)
		if err != nil {
			return nil, tracing.RecordError(span, fmt.Errorf("search duplicates: %w", err))
		}
		dupes := FilterDupes(candidates, hashes, dupeLimit)
		metrics.RecordDuplicates(len(dupes))
		span.SetAttributes(attribute.Int("candidates", len(candidates)), attribute.Int("duplicates", len(dupes)))
		return dupes, nil
	}

	if strings.TrimSpace(q.Filename) != "" {
		cutoff := q.Cutoff
		if cutoff <= 0 {
			cutoff = 0.5
		}
		images, err := s.Repo.ByStemSimilarity(ctx, entity.StemOf(q.Filename), cutoff)
		if err != nil {
			return nil, tracing.RecordError(span, fmt.Errorf("search filename: %w", err))
		}
		return images, nil
	}
	return []*entity.ImageFile{}, nil
}

// FilenameSearch compares name with the base name of every original.
func (s *Service) FilenameSearch(ctx context.Context, name string, similarity float64) ([]*entity.ImageFile, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return []*entity.ImageFile{}, nil
	}
	if similarity <= 0 {
		similarity = 0.5
	}
	images, err := s.Repo.FilenameSearch(ctx, name, similarity)
	if err != nil {
		return nil, fmt.Errorf("filename search: %w", err)
	}
	return images, nil
}

// Similar finds other images that look like, have the same file as, or
// were created close to the image. minutes sizes the created window.
func (s *Service) Similar(ctx context.Context, id int64, field repository.SimilarField, minutes int) ([]*entity.ImageFile, error) {
	img, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if field == "" {
		field = repository.SimilarByImageHash
	}
	window := defaultSimilarWindow
	if minutes > 0 {
		window = time.Duration(minutes) * time.Minute
	}
	images, err := s.Repo.Similar(ctx, img, field, window)
	if err != nil {
		return nil, fmt.Errorf("similar images: %w", err)
	}
	return images, nil
}

// Merge keeps one image and moves every reference to the others onto it.
// The other images are deleted.
func (s *Service) Merge(ctx context.Context, keep int64, others []int64) (*entity.ImageFile, error) {
	img, err := s.Get(ctx, keep)
	if err != nil {
		return nil, err
	}
	ids := make([]int64, 0, len(others))
	seen := map[int64]bool{keep: true}
	for _, id := range others {
		if id <= 0 {
			return nil, ErrInvalidImageID
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return nil, ErrNothingToMerge
	}
	if err := s.Repo.Merge(ctx, keep, ids); err != nil {
		return nil, fmt.Errorf("merge images: %w", err)
	}
	slog.InfoContext(ctx, "images merged", slog.Int64("image_id", keep), slog.Any("merged", ids))
	return img, nil
}

// URL is the public address of the original.
func (s *Service) URL(img *entity.ImageFile) string {
	if img.Original == "" {
		return ""
	}
	return s.Storage.URL(img.Original)
}

// ThumbnailURL is the public address of a rendition of img.
func (s *Service) ThumbnailURL(img *entity.ImageFile, size imageproc.Size) string {
	if img.Original == "" {
		return ""
	}
	return s.Storage.URL(thumbnailKey(img, size))
}

func thumbnailKey(img *entity.ImageFile, size imageproc.Size) string {
	ext := ".jpg"
	if img.Stat.Mimetype == "image/png" {
		ext = ".png"
	}
	return imageproc.ThumbnailKey(img.Original, size.Name, ext)
}

func (s *Service) fileKeys(img *entity.ImageFile) []string {
	if img.Original == "" {
		return nil
	}
	keys := []string{img.Original}
	for _, size := range imageproc.Sizes {
		keys = append(keys, thumbnailKey(img, size))
	}
	return keys
}
