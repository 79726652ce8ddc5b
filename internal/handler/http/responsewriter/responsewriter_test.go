package responsewriter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap_Defaults(t *testing.T) {
	rw := Wrap(httptest.NewRecorder())
	assert.Equal(t, http.StatusOK, rw.StatusCode())
	assert.Equal(t, 0, rw.BytesWritten())
	assert.False(t, rw.Written())
}

func TestWrap_Idempotent(t *testing.T) {
	rw := Wrap(httptest.NewRecorder())
	assert.Same(t, rw, Wrap(rw))
}

func TestResponseWriter_FirstHeaderWins(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := Wrap(rec)
	rw.WriteHeader(http.StatusCreated)
	rw.WriteHeader(http.StatusInternalServerError)
	assert.Equal(t, http.StatusCreated, rw.StatusCode())
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestResponseWriter_Write(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := Wrap(rec)
	n, err := rw.Write([]byte("hello "))
	require.NoError(t, err)
	assert.Equal(t, 6, n)
	_, err = rw.Write([]byte("world"))
	require.NoError(t, err)

	assert.True(t, rw.Written())
	assert.Equal(t, http.StatusOK, rw.StatusCode())
	assert.Equal(t, 11, rw.BytesWritten())
	assert.Equal(t, "hello world", rec.Body.String())
}

func TestResponseWriter_Flush(t *testing.T) {
	rec := httptest.NewRecorder()
	rw := Wrap(rec)
	rw.Flush()
	assert.True(t, rec.Flushed)
	assert.True(t, rw.Written())
}

func TestResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	assert.Same(t, rec, Wrap(rec).Unwrap())
}
