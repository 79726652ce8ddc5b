package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"universitas/internal/handler/http/requestid"
)

/* ───── levels ───── */

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"":        slog.LevelInfo,
		"debug":   slog.LevelDebug,
		" DEBUG ": slog.LevelDebug,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "input %q", in)
	}
}

/* ───── handlers ───── */

func TestNew_JSON(t *testing.T) {
	var buf bytes.Buffer
	logger := New(&buf, "info", "")

	logger.Debug("hidden")
	logger.Info("image uploaded", slog.Int64("image_id", 7))

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 1)

	var rec map[string]any
	require.NoError(t, json.Unmarshal([]byte(lines[0]), &rec))
	assert.Equal(t, "image uploaded", rec["msg"])
	assert.EqualValues(t, 7, rec["image_id"])
}

func TestNew_Text(t *testing.T) {
	var buf bytes.Buffer
	New(&buf, "debug", "text").Debug("autocrop", slog.String("method", "faces"))
	assert.Contains(t, buf.String(), "method=faces")
}

/* ───── context ───── */

func TestWithRequestID(t *testing.T) {
	var buf bytes.Buffer
	base := New(&buf, "", "")

	ctx := requestid.WithRequestID(context.Background(), "req-1")
	WithRequestID(ctx, base).Info("hello")
	assert.Contains(t, buf.String(), `"request_id":"req-1"`)

	assert.Same(t, base, WithRequestID(context.Background(), base))
}

func TestFromContext(t *testing.T) {
	assert.Same(t, slog.Default(), FromContext(context.Background()))

	logger := New(&bytes.Buffer{}, "", "")
	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
}
