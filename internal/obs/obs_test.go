package obs

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewLoggerWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "medistream.log")

	l, err := NewLogger(LogConfig{Level: "debug", File: path, App: "medistream"})
	require.NoError(t, err)

	l.Info("hello")
	_ = l.Sync()

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"msg":"hello"`)
	assert.Contains(t, string(data), `"service":"medistream"`)
}

func TestNewLoggerBadLevelFallsBackToInfo(t *testing.T) {
	l, err := NewLogger(LogConfig{Level: "loud", File: filepath.Join(t.TempDir(), "x.log")})
	require.NoError(t, err)
	assert.False(t, l.Core().Enabled(-1))
	assert.True(t, l.Core().Enabled(0))
}

func TestMetricsServerRoutes(t *testing.T) {
	healthy := true
	srv := createMetricsServer(":0", func(context.Context) error {
		if !healthy {
			return errors.New("down")
		}
		return nil
	})

	rec := httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusOK, rec.Code)

	healthy = false
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)

	PollsTotal.WithLabelValues("medications", "ok").Inc()
	rec = httptest.NewRecorder()
	srv.Handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "medistream_polls_total")
}
