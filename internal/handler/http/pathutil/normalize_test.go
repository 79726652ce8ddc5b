package pathutil

import (
	"strconv"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		path string
		want string
	}{
		{"/stories", "/stories"},
		{"/stories/123", "/stories/:id"},
		{"/stories/123/", "/stories/:id"},
		{"/stories/123/visit", "/stories/:id/visit"},
		{"/stories/search?q=eksamen", "/stories/search"},
		{"/images/9/similar?field=md5", "/images/:id/similar"},
		{"/frontpage/stories/4/blocks", "/frontpage/stories/:id/blocks"},
		{"/frontpage/blocks/77", "/frontpage/blocks/:id"},
		{"/health", "/health"},
		{"/", "/"},
		{"/wp-admin/123", "other"},
		{"/.env", "other"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, NormalizePath(tt.path), tt.path)
	}
}

func TestNormalizePath_Cardinality(t *testing.T) {
	seen := map[string]bool{}
	for i := 1; i <= 500; i++ {
		seen[NormalizePath("/stories/"+strconv.Itoa(i))] = true
		seen[NormalizePath("/random/"+strconv.Itoa(i))] = true
	}
	assert.Len(t, seen, 2)
}
