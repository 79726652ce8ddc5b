package pagination

import (
	"errors"
	"io"
	"log/slog"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

/* ───────── query parsing ───────── */

func TestParseQueryParams(t *testing.T) {
	cfg := DefaultConfig()
	tests := []struct {
		name    string
		query   string
		want    Params
		wantErr string
	}{
		{"defaults", "", Params{Page: 1, Limit: 25}, ""},
		{"explicit", "?page=3&limit=50", Params{Page: 3, Limit: 50}, ""},
		{"max limit", "?limit=200", Params{Page: 1, Limit: 200}, ""},
		{"zero page", "?page=0", Params{}, "page must be a positive integer"},
		{"text page", "?page=two", Params{}, "page must be a positive integer"},
		{"limit too large", "?limit=201", Params{}, "limit must be between 1 and 200"},
		{"negative limit", "?limit=-1", Params{}, "limit must be between 1 and 200"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseQueryParams(httptest.NewRequest("GET", "/images"+tt.query, nil), cfg)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLoadFromEnv(t *testing.T) {
	t.Setenv("PAGINATION_MAX_LIMIT", "50")
	t.Setenv("PAGINATION_DEFAULT_LIMIT", "10")
	assert.Equal(t, Config{DefaultPage: 1, DefaultLimit: 10, MaxLimit: 50}, LoadFromEnv())

	t.Setenv("PAGINATION_DEFAULT_LIMIT", "80")
	assert.Equal(t, 25, LoadFromEnv().DefaultLimit, "default above max falls back")

	t.Setenv("PAGINATION_MAX_LIMIT", "lots")
	assert.Equal(t, 200, LoadFromEnv().MaxLimit)
}

/* ───────── offsets and metadata ───────── */

func TestOffset(t *testing.T) {
	assert.Equal(t, 0, Params{Page: 1, Limit: 25}.Offset())
	assert.Equal(t, 50, Params{Page: 3, Limit: 25}.Offset())
	assert.Equal(t, 0, Params{Page: 0, Limit: 25}.Offset())
}

func TestNewMetadata(t *testing.T) {
	tests := []struct {
		total int64
		limit int
		pages int
	}{
		{0, 25, 1},
		{10, 25, 1},
		{25, 25, 1},
		{26, 25, 2},
		{1000, 25, 40},
	}
	for _, tt := range tests {
		m := NewMetadata(Params{Page: 1, Limit: tt.limit}, tt.total)
		assert.Equal(t, tt.pages, m.TotalPages, "total=%d limit=%d", tt.total, tt.limit)
		assert.Equal(t, tt.total, m.Total)
	}
}

/* ───────── observation ───────── */

func TestListing_RecordsByResource(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	before := testutil.ToFloat64(listRequests.WithLabelValues("issues-test", "200", "1-10"))

	l := Observe(logger, "issues-test", "req-1")
	l.Done(Params{Page: 2, Limit: 25}, 25, 60)
	assert.Equal(t, before+1, testutil.ToFloat64(listRequests.WithLabelValues("issues-test", "200", "1-10")))
	assert.Equal(t, float64(60), testutil.ToFloat64(listTotal.WithLabelValues("issues-test")))

	l.Failed(Params{Page: 120, Limit: 25}, errors.New("db down"))
	assert.Equal(t, float64(1), testutil.ToFloat64(listRequests.WithLabelValues("issues-test", "500", "100+")))

	l.Invalid(errors.New("bad page"))
	assert.Equal(t, float64(1), testutil.ToFloat64(listRequests.WithLabelValues("issues-test", "400", "")))
}
