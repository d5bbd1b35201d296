package http

import (
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMetricsHandler_MergesRegistries(t *testing.T) {
	extra := prometheus.NewRegistry()
	counter := prometheus.NewCounter(prometheus.CounterOpts{
		Name: "test_extra_registry_total",
		Help: "test counter",
	})
	extra.MustRegister(counter)
	counter.Add(3)

	srv := httptest.NewServer(MetricsHandler(extra, nil))
	defer srv.Close()

	resp, err := http.Get(srv.URL)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, string(body), "test_extra_registry_total 3")
	assert.Contains(t, string(body), "go_goroutines")
}
