package respond

import (
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestJSON(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		data     any
		wantBody string
	}{
		{name: "map", code: http.StatusOK, data: map[string]string{"message": "ok"}, wantBody: `{"message":"ok"}`},
		{name: "struct", code: http.StatusCreated, data: struct {
			ID int `json:"id"`
		}{ID: 7}, wantBody: `{"id":7}`},
		{name: "nil", code: http.StatusAccepted, data: nil, wantBody: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			JSON(w, tt.code, tt.data)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, "application/json", w.Header().Get("Content-Type"))
			assert.Equal(t, tt.wantBody, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestSafeError(t *testing.T) {
	tests := []struct {
		name     string
		code     int
		err      error
		wantBody string
	}{
		{
			name:     "validation message is shown",
			code:     http.StatusBadRequest,
			err:      errors.New("validation error on field 'headline': cannot be blank"),
			wantBody: `{"error":"validation error on field 'headline': cannot be blank"}`,
		},
		{
			name:     "not found is shown",
			code:     http.StatusNotFound,
			err:      errors.New("story not found"),
			wantBody: `{"error":"story not found"}`,
		},
		{
			name:     "fingerprint error is shown",
			code:     http.StatusBadRequest,
			err:      fmt.Errorf("search images: %w", errors.New("incorrect fingerprint")),
			wantBody: `{"error":"search images: incorrect fingerprint"}`,
		},
		{
			name:     "database error is masked",
			code:     http.StatusBadRequest,
			err:      errors.New("pq: connection refused"),
			wantBody: `{"error":"internal server error"}`,
		},
		{
			name:     "5xx is always masked",
			code:     http.StatusInternalServerError,
			err:      errors.New("story not found"),
			wantBody: `{"error":"internal server error"}`,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			SafeError(w, tt.code, tt.err)
			assert.Equal(t, tt.code, w.Code)
			assert.Equal(t, tt.wantBody, strings.TrimSpace(w.Body.String()))
		})
	}
}

func TestSafeError_Nil(t *testing.T) {
	w := httptest.NewRecorder()
	SafeError(w, http.StatusBadRequest, nil)
	assert.Equal(t, 0, w.Body.Len())
}
