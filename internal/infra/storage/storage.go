// Package storage keeps image originals and thumbnails on the local disk
// or in a MinIO (S3 compatible) bucket.
package storage

import (
	"context"
	"errors"
	"fmt"
	"path"
	"strings"

	"universitas/internal/pkg/config"
)

var (
	// ErrNotExist is returned by Get for missing keys.
	ErrNotExist = errors.New("object does not exist")
	// ErrInvalidKey is returned for keys escaping the storage root.
	ErrInvalidKey = errors.New("invalid storage key")
)

// Storage is a flat key/value store for files. Keys use "/" separators.
type Storage interface {
	Put(ctx context.Context, key string, data []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
	// List returns the keys below prefix in lexical order.
	List(ctx context.Context, prefix string) ([]string, error)
	// URL is the public address of key.
	URL(key string) string
}

// Config selects and configures the backend.
type Config struct {
	Backend   string // "local" or "minio"
	LocalRoot string
	PublicURL string

	MinIOEndpoint  string
	MinIOAccessKey string
	MinIOSecretKey string
	MinIOBucket    string
	MinIOUseSSL    bool
}

// ConfigFromEnv reads STORAGE_BACKEND, MEDIA_ROOT, MEDIA_URL and the MINIO_*
// variables. An unknown backend falls back to local.
func ConfigFromEnv() (Config, []string) {
	backend := config.LoadEnvWithFallback("STORAGE_BACKEND", "local", func(s string) error {
		if s != "local" && s != "minio" {
			return fmt.Errorf("must be local or minio")
		}
		return nil
	})
	ssl := config.LoadEnvBool("MINIO_USE_SSL", false)

	var warnings []string
	warnings = append(warnings, backend.Warnings...)
	warnings = append(warnings, ssl.Warnings...)

	return Config{
		Backend:        backend.Value,
		LocalRoot:      config.LoadEnvString("MEDIA_ROOT", "./media"),
		PublicURL:      config.LoadEnvString("MEDIA_URL", "/media/"),
		MinIOEndpoint:  config.LoadEnvString("MINIO_ENDPOINT", "localhost:9000"),
		MinIOAccessKey: config.LoadEnvString("MINIO_ACCESS_KEY", ""),
		MinIOSecretKey: config.LoadEnvString("MINIO_SECRET_KEY", ""),
		MinIOBucket:    config.LoadEnvString("MINIO_BUCKET", "universitas"),
		MinIOUseSSL:    ssl.Value,
	}, warnings
}

// New builds the configured backend.
func New(ctx context.Context, cfg Config) (Storage, error) {
	switch cfg.Backend {
	case "minio":
		return NewMinIO(ctx, cfg)
	default:
		return NewLocal(cfg.LocalRoot, cfg.PublicURL)
	}
}

// cleanKey normalizes key and rejects keys that leave the root.
func cleanKey(key string) (string, error) {
	k := path.Clean("/" + strings.TrimSpace(key))
	k = strings.TrimPrefix(k, "/")
	if k == "" || k == "." || strings.Contains(key, "..") {
		return "", fmt.Errorf("%w: %q", ErrInvalidKey, key)
	}
	return k, nil
}

func joinURL(base, key string) string {
	return strings.TrimRight(base, "/") + "/" + key
}
