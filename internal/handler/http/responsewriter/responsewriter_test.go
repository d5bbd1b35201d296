package responsewriter

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWrap(t *testing.T) {
	rec := httptest.NewRecorder()
	w := Wrap(rec)

	assert.Equal(t, http.StatusOK, w.StatusCode())
	assert.Equal(t, 0, w.BytesWritten())
	assert.False(t, w.HeaderWritten())
	assert.Same(t, w, Wrap(w))
}

func TestResponseWriter_FirstStatusWins(t *testing.T) {
	rec := httptest.NewRecorder()
	w := Wrap(rec)

	w.WriteHeader(http.StatusTooManyRequests)
	w.WriteHeader(http.StatusInternalServerError)

	assert.Equal(t, http.StatusTooManyRequests, w.StatusCode())
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestResponseWriter_WriteCountsBytes(t *testing.T) {
	rec := httptest.NewRecorder()
	w := Wrap(rec)

	n, err := w.Write([]byte(`{"ok":true}`))
	require.NoError(t, err)
	_, err = w.Write([]byte("\n"))
	require.NoError(t, err)

	assert.Equal(t, 11, n)
	assert.Equal(t, 12, w.BytesWritten())
	assert.True(t, w.HeaderWritten())
	assert.Equal(t, http.StatusOK, w.StatusCode())
}

func TestResponseWriter_Unwrap(t *testing.T) {
	rec := httptest.NewRecorder()
	w := Wrap(rec)
	assert.Equal(t, http.ResponseWriter(rec), w.Unwrap())
}
