package queue

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"
)

// Processor runs the photo tasks.
type Processor interface {
	Autocrop(ctx context.Context, imageID int64) error
	PostSave(ctx context.Context, imageID int64) error
}

// NewServeMux routes the photo task types to p.
func NewServeMux(p Processor, logger *slog.Logger) *asynq.ServeMux {
	mux := asynq.NewServeMux()
	mux.HandleFunc(TypeAutocrop, handler(TypeAutocrop, p.Autocrop, logger))
	mux.HandleFunc(TypePostSave, handler(TypePostSave, p.PostSave, logger))
	return mux
}

func handler(typ string, fn func(context.Context, int64) error, logger *slog.Logger) func(context.Context, *asynq.Task) error {
	return func(ctx context.Context, task *asynq.Task) error {
		payload, err := ParseImagePayload(task)
		if err != nil {
			return fmt.Errorf("%s: %v: %w", typ, err, asynq.SkipRetry)
		}
		start := time.Now()
		if err := fn(ctx, payload.ImageID); err != nil {
			logger.Error("task failed",
				slog.String("type", typ),
				slog.Int64("image_id", payload.ImageID),
				slog.Any("error", err))
			return fmt.Errorf("%s: %w", typ, err)
		}
		logger.Info("task completed",
			slog.String("type", typ),
			slog.Int64("image_id", payload.ImageID),
			slog.Duration("duration", time.Since(start)))
		return nil
	}
}

// NewServer returns an asynq server working the photos queue.
func NewServer(redisURL string, concurrency int, logger *slog.Logger) (*asynq.Server, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return asynq.NewServer(opt, asynq.Config{
		Concurrency: concurrency,
		Queues:      map[string]int{QueuePhotos: 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			logger.Warn("asynq task error", slog.String("type", task.Type()), slog.Any("error", err))
		}),
	}), nil
}
