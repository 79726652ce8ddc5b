package queue

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/hibiken/asynq"

	"universitas/internal/resilience/retry"
)

// Enqueuer schedules the photo tasks that follow an upload.
type Enqueuer interface {
	EnqueueAutocrop(ctx context.Context, imageID int64) error
	EnqueuePostSave(ctx context.Context, imageID int64) error
}

// taskClient is the part of *asynq.Client used here.
type taskClient interface {
	EnqueueContext(ctx context.Context, task *asynq.Task, opts ...asynq.Option) (*asynq.TaskInfo, error)
	Close() error
}

const (
	maxRetry    = 3
	uniqueFor   = 5 * time.Minute
	taskTimeout = 2 * time.Minute
)

// Client enqueues photo tasks on asynq.
type Client struct {
	client   taskClient
	retryCfg retry.Config
}

// NewClient connects to Redis at redisURL.
func NewClient(redisURL string) (*Client, error) {
	opt, err := asynq.ParseRedisURI(redisURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return newClient(asynq.NewClient(opt)), nil
}

func newClient(c taskClient) *Client {
	return &Client{client: c, retryCfg: retry.QueueConfig()}
}

func (c *Client) EnqueueAutocrop(ctx context.Context, imageID int64) error {
	return c.enqueue(ctx, TypeAutocrop, imageID)
}

func (c *Client) EnqueuePostSave(ctx context.Context, imageID int64) error {
	return c.enqueue(ctx, TypePostSave, imageID)
}

// enqueue treats a duplicate of a queued task as success.
func (c *Client) enqueue(ctx context.Context, typ string, imageID int64) error {
	task, err := NewImageTask(typ, imageID)
	if err != nil {
		return err
	}
	err = retry.WithBackoff(ctx, c.retryCfg, func() error {
		_, err := c.client.EnqueueContext(ctx, task,
			asynq.Queue(QueuePhotos),
			asynq.MaxRetry(maxRetry),
			asynq.Unique(uniqueFor),
			asynq.Timeout(taskTimeout),
		)
		return err
	})
	if errors.Is(err, asynq.ErrDuplicateTask) {
		slog.Debug("task already queued", slog.String("type", typ), slog.Int64("image_id", imageID))
		return nil
	}
	if err != nil {
		return fmt.Errorf("enqueue %s: %w", typ, err)
	}
	return nil
}

func (c *Client) Close() error { return c.client.Close() }

// Noop drops every task. Images stay pending until the cleanup job
// processes them.
type Noop struct{}

func (Noop) EnqueueAutocrop(context.Context, int64) error { return nil }
func (Noop) EnqueuePostSave(context.Context, int64) error { return nil }
