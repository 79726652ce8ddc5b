// Package queue defines the background photo tasks and enqueues them on
// asynq.
package queue

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

const (
	TypeAutocrop = "photo:autocrop"
	TypePostSave = "photo:post_save"

	// QueuePhotos is the asynq queue photo tasks run on.
	QueuePhotos = "photos"
)

// ImagePayload is the body of every photo task.
type ImagePayload struct {
	ImageID int64 `json:"image_id"`
}

// NewImageTask builds a photo task of typ for the image.
func NewImageTask(typ string, imageID int64) (*asynq.Task, error) {
	payload, err := json.Marshal(ImagePayload{ImageID: imageID})
	if err != nil {
		return nil, fmt.Errorf("marshal payload: %w", err)
	}
	return asynq.NewTask(typ, payload), nil
}

// ParseImagePayload decodes the body of a photo task.
func ParseImagePayload(task *asynq.Task) (ImagePayload, error) {
	var p ImagePayload
	if err := json.Unmarshal(task.Payload(), &p); err != nil {
		return p, fmt.Errorf("unmarshal payload: %w", err)
	}
	if p.ImageID <= 0 {
		return p, fmt.Errorf("invalid image_id %d", p.ImageID)
	}
	return p, nil
}
