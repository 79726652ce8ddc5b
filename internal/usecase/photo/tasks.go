package photo

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"golang.org/x/sync/errgroup"

	"universitas/internal/domain/entity"
	"universitas/internal/infra/detector"
	"universitas/internal/infra/imageproc"
	"universitas/internal/observability/metrics"
	"universitas/internal/observability/tracing"
)

const (
	// DefaultCleanupLimit is how many pending images one cleanup run handles.
	DefaultCleanupLimit = 300

	profileFeatures = 1
	photoFeatures   = 10
)

// DetermineCroppingMethod names how a crop box made from features was
// found. features must not be empty.
func DetermineCroppingMethod(features []detector.Feature) entity.CroppingMethod {
	if strings.Contains(features[len(features)-1].Label, "face") {
		if len(features) == 1 {
			return entity.CropPortrait
		}
		return entity.CropFaces
	}
	return entity.CropFeatures
}

// CropFromFeatures is the union of the feature boxes with the focal point
// in the centre of the first feature.
func CropFromFeatures(features []detector.Feature) entity.CropBox {
	x, y := features[0].Center()
	others := make([]entity.CropBox, 0, len(features)-1)
	for _, f := range features[1:] {
		others = append(others, f.Box)
	}
	u := features[0].Box.Union(others...)
	return entity.NewCropBox(u.Left, u.Top, u.Right, u.Bottom, x, y)
}

func (s *Service) load(ctx context.Context, img *entity.ImageFile) ([]byte, error) {
	if img.Original == "" {
		return nil, fmt.Errorf("image %d has no original", img.ID)
	}
	data, err := s.Storage.Get(ctx, img.Original)
	if err != nil {
		return nil, fmt.Errorf("load original: %w", err)
	}
	return data, nil
}

// Autocrop detects faces or salient features in the image and stores the
// crop box they give, then rebuilds the thumbnails since the preview
// follows the crop box. Manually cropped images keep their crop box.
func (s *Service) Autocrop(ctx context.Context, id int64) error {
	if err := s.autocrop(ctx, id); err != nil {
		return err
	}
	return s.PostSave(ctx, id)
}

func (s *Service) autocrop(ctx context.Context, id int64) error {
	ctx, span := tracing.Start(ctx, "photo.Autocrop", attribute.Int64("image.id", id))
	defer span.End()

	img, err := s.Get(ctx, id)
	if err != nil {
		return tracing.RecordError(span, err)
	}
	if img.CroppingMethod == entity.CropManual {
		return nil
	}
	data, err := s.load(ctx, img)
	if err != nil {
		return tracing.RecordError(span, err)
	}
	decoded, _, err := imageproc.Decode(data)
	if err != nil {
		return tracing.RecordError(span, fmt.Errorf("decode original: %w", err))
	}

	start := time.Now()
	small := imageproc.Render(decoded, imageproc.Small, entity.BasicCropBox(), img.Category)
	n := photoFeatures
	if img.IsProfileImage() {
		n = profileFeatures
	}
	features, err := detector.NewHybrid(s.Faces, s.Salient, n).Detect(small)
	if err != nil {
		return tracing.RecordError(span, fmt.Errorf("detect features: %w", err))
	}

	box, method := entity.BasicCropBox(), entity.CropNone
	if len(features) > 0 {
		box, method = CropFromFeatures(features), DetermineCroppingMethod(features)
	}
	if err := s.Repo.UpdateCrop(ctx, id, box, method); err != nil {
		return tracing.RecordError(span, fmt.Errorf("update crop: %w", err))
	}
	if err := s.Repo.TouchRelated(ctx, id, s.now()); err != nil {
		slog.WarnContext(ctx, "related rows not touched", slog.Int64("image_id", id), slog.Any("error", err))
	}

	metrics.RecordAutocrop(method.Label(), time.Since(start))
	span.SetAttributes(attribute.String("method", method.Label()), attribute.Int("features", len(features)))
	slog.DebugContext(ctx, "autocrop",
		slog.String("image", img.String()),
		slog.String("crop_box", box.String()),
		slog.String("method", method.Label()))
	return nil
}

// PostSave builds and stores every thumbnail of the image and records its
// perceptual hashes.
func (s *Service) PostSave(ctx context.Context, id int64) error {
	ctx, span := tracing.Start(ctx, "photo.PostSave", attribute.Int64("image.id", id))
	defer span.End()

	img, err := s.Get(ctx, id)
	if err != nil {
		return tracing.RecordError(span, err)
	}
	data, err := s.load(ctx, img)
	if err != nil {
		return tracing.RecordError(span, err)
	}
	decoded, _, err := imageproc.Decode(data)
	if err != nil {
		return tracing.RecordError(span, fmt.Errorf("decode original: %w", err))
	}

	start := time.Now()
	g, gctx := errgroup.WithContext(ctx)
	for _, size := range imageproc.Sizes {
		g.Go(func() error {
			thumb := imageproc.Render(decoded, size, img.CropBox, img.Category)
			out, ext, err := imageproc.Encode(thumb, img.Stat.Mimetype)
			if err != nil {
				return fmt.Errorf("%s: %w", size.Name, err)
			}
			contentType := "image/jpeg"
			if ext == ".png" {
				contentType = "image/png"
			}
			key := imageproc.ThumbnailKey(img.Original, size.Name, ext)
			if err := s.Storage.Put(gctx, key, out, contentType); err != nil {
				return fmt.Errorf("store %s: %w", size.Name, err)
			}
			return nil
		})
	}

	var (
		mu     sync.Mutex
		hashes map[string]string
	)
	g.Go(func() error {
		h, err := imageproc.Hashes(decoded)
		if err != nil {
			return fmt.Errorf("hashes: %w", err)
		}
		mu.Lock()
		hashes = h
		mu.Unlock()
		return nil
	})
	if err := g.Wait(); err != nil {
		return tracing.RecordError(span, fmt.Errorf("post save: %w", err))
	}
	metrics.RecordThumbnails(time.Since(start))

	if err := s.Repo.UpdateHashes(ctx, id, hashes[imageproc.AHash], hashes); err != nil {
		return tracing.RecordError(span, fmt.Errorf("update hashes: %w", err))
	}
	slog.InfoContext(ctx, "built thumbs", slog.String("image", img.String()))
	return nil
}

// CleanUpPendingAutocrop crops and builds thumbnails for images still
// waiting for autocrop. Failures are logged and the batch continues. It
// returns the number of images processed without error.
func (s *Service) CleanUpPendingAutocrop(ctx context.Context, limit int) (int, error) {
	if limit <= 0 {
		limit = DefaultCleanupLimit
	}
	ids, err := s.Repo.PendingIDs(ctx, limit)
	if err != nil {
		return 0, fmt.Errorf("pending images: %w", err)
	}

	done := 0
	for _, id := range ids {
		if err := ctx.Err(); err != nil {
			return done, err
		}
		if err := s.Autocrop(ctx, id); err != nil {
			slog.WarnContext(ctx, "pending autocrop failed", slog.Int64("image_id", id), slog.Any("error", err))
			continue
		}
		done++
	}
	return done, nil
}
