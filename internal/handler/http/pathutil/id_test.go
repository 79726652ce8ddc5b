package pathutil

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestPathID_Values(t *testing.T) {
	tests := []struct {
		name    string
		target  string
		wantID  int64
		wantErr error
	}{
		{name: "story", target: "/stories/123", wantID: 123},
		{name: "not a number", target: "/stories/abc", wantErr: ErrInvalidID},
		{name: "zero", target: "/stories/0", wantErr: ErrInvalidID},
		{name: "negative", target: "/stories/-1", wantErr: ErrInvalidID},
		{name: "overflow", target: "/stories/99999999999999999999", wantErr: ErrInvalidID},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var id int64
			var err error
			mux := http.NewServeMux()
			mux.HandleFunc("GET /stories/{id}", func(_ http.ResponseWriter, r *http.Request) {
				id, err = PathID(r, "id")
			})
			mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.target, nil))
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestPathID(t *testing.T) {
	var got int64
	var gotErr error
	mux := http.NewServeMux()
	mux.HandleFunc("GET /images/{id}/similar", func(w http.ResponseWriter, r *http.Request) {
		got, gotErr = PathID(r, "id")
	})

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/images/42/similar", nil))
	assert.NoError(t, gotErr)
	assert.Equal(t, int64(42), got)

	mux.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/images/x/similar", nil))
	assert.ErrorIs(t, gotErr, ErrInvalidID)
}
