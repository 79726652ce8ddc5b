package cache

import (
	"context"
	"fmt"
	"log/slog"
	"time"
)

// VisitWindow is how long a reader's repeat visits are ignored.
const VisitWindow = 600 * time.Second

// VisitTracker remembers which client recently read which story.
type VisitTracker struct {
	client Client
	window time.Duration
}

func NewVisitTracker(client Client) *VisitTracker {
	return &VisitTracker{client: client, window: VisitWindow}
}

// FirstVisit reports whether ip has not read the story within the window.
// When Redis fails the visit is counted.
func (t *VisitTracker) FirstVisit(ctx context.Context, ip string, storyID int64) bool {
	key := fmt.Sprintf("visit:%s%d", ip, storyID)
	ok, err := t.client.SetNX(ctx, key, 1, t.window).Result()
	if err != nil {
		slog.Warn("visit tracker unavailable", slog.Any("error", err))
		return true
	}
	return ok
}
