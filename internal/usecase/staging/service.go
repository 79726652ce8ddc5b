// Package staging imports image files that the desk drops into a shared
// staging directory.
package staging

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"universitas/internal/domain/entity"
	"universitas/internal/observability/metrics"
	"universitas/internal/repository"
)

// DefaultMaxAge is how recently a file must have changed to be imported.
const DefaultMaxAge = 10 * time.Minute

// Import outcomes recorded in metrics.
const (
	ActionCreated   = "created"
	ActionUpdated   = "updated"
	ActionUnchanged = "unchanged"
	ActionFailed    = "failed"
)

// ErrNoDirectory is returned when no staging directory is configured.
var ErrNoDirectory = errors.New("staging directory not configured")

var imageSuffixes = map[string]bool{".jpg": true, ".jpeg": true, ".png": true}

// Photos stores image files.
type Photos interface {
	Upload(ctx context.Context, filename string, data []byte, category entity.ImageCategory) (*entity.ImageFile, error)
	ReplaceFile(ctx context.Context, img *entity.ImageFile, filename string, data []byte) (bool, error)
}

// SourceFinder looks up an image by the name of the file it came from.
type SourceFinder interface {
	FindBySourceName(ctx context.Context, name, path string) (*entity.ImageFile, error)
}

var _ SourceFinder = (repository.ImageFileRepository)(nil)

// Service imports staged image files.
type Service struct {
	Repo   SourceFinder
	Photos Photos
	Now    func() time.Time
}

func (s *Service) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	return time.Now()
}

// NewFiles lists the image files below dir changed within maxAge, as
// slash separated paths relative to dir.
func NewFiles(dir string, maxAge time.Duration, now time.Time) ([]string, error) {
	cutoff := now.Add(-maxAge)
	var files []string
	err := filepath.WalkDir(dir, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if strings.HasPrefix(d.Name(), ".") && p != dir {
			if d.IsDir() {
				return filepath.SkipDir
			}
			return nil
		}
		if d.IsDir() || !imageSuffixes[strings.ToLower(filepath.Ext(p))] {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		if info.ModTime().Before(cutoff) {
			return nil
		}
		rel, err := filepath.Rel(dir, p)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan %s: %w", dir, err)
	}
	sort.Strings(files)
	return files, nil
}

// Import saves new and changed staged files. An existing image is matched
// on the normalized name of the file it was imported from and gets the new
// file when its checksum differs; other files become new images. It
// returns the files saved.
func (s *Service) Import(ctx context.Context, dir string, maxAge time.Duration) ([]string, error) {
	if dir == "" {
		return nil, ErrNoDirectory
	}
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	now := s.now()
	files, err := NewFiles(dir, maxAge, now)
	if err != nil {
		return nil, err
	}

	var saved []string
	for _, file := range files {
		if err := ctx.Err(); err != nil {
			return saved, err
		}
		action, err := s.importFile(ctx, dir, file, now)
		metrics.RecordStagingImport(action)
		if err != nil {
			slog.WarnContext(ctx, "staging import failed", slog.String("file", file), slog.Any("error", err))
			continue
		}
		slog.DebugContext(ctx, "staging import", slog.String("file", file), slog.String("action", action))
		if action != ActionUnchanged {
			saved = append(saved, file)
		}
	}
	return saved, nil
}

func (s *Service) importFile(ctx context.Context, dir, file string, now time.Time) (string, error) {
	data, err := os.ReadFile(filepath.Join(dir, filepath.FromSlash(file)))
	if err != nil {
		return ActionFailed, fmt.Errorf("read: %w", err)
	}

	dest := entity.NewImageFile(now).SourcePath(file)
	img, err := s.Repo.FindBySourceName(ctx, path.Base(dest), dest)
	if err != nil {
		return ActionFailed, fmt.Errorf("find image: %w", err)
	}
	if img == nil {
		if _, err := s.Photos.Upload(ctx, path.Base(file), data, entity.CategoryUnknown); err != nil {
			return ActionFailed, err
		}
		return ActionCreated, nil
	}

	changed, err := s.Photos.ReplaceFile(ctx, img, path.Base(file), data)
	if err != nil {
		return ActionFailed, err
	}
	if !changed {
		return ActionUnchanged, nil
	}
	return ActionUpdated, nil
}
