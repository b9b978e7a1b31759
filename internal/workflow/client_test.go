package workflow

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_ListExecutions(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, ProxyPath, r.URL.Path)
		assert.Equal(t, "Bearer secret", r.Header.Get("Authorization"))

		var req ProxyRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, http.MethodGet, req.Method)
		assert.Equal(t, "/executions?includeData=false&limit=5&workflowId=wf1", req.Path)

		_, _ = w.Write([]byte(`{"data":[
			{"id":101,"workflowId":"wf1","finished":true,"mode":"trigger","startedAt":"2026-03-01T10:00:00Z","stoppedAt":"2026-03-01T10:00:03Z"},
			{"id":"100","workflowId":"wf1","finished":false,"mode":"manual","startedAt":"2026-03-01T09:00:00Z","stoppedAt":null}
		],"nextCursor":null}`))
	}))
	defer srv.Close()

	c := NewClient(srv.URL+"/", "secret")
	execs, err := c.ListExecutions(context.Background(), "wf1", 5)

	require.NoError(t, err)
	require.Len(t, execs, 2)
	assert.Equal(t, ID("101"), execs[0].ID)
	assert.Equal(t, ID("100"), execs[1].ID)
	assert.True(t, execs[0].Finished)
	assert.Nil(t, execs[1].StoppedAt)
}

func TestClient_Unauthorized(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer srv.Close()

	err := NewClient(srv.URL, "wrong").TestConnection(context.Background())
	assert.ErrorIs(t, err, ErrUnauthorized)
}

func TestClient_RetriesOn429(t *testing.T) {
	var calls atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		if calls.Add(1) == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		_, _ = w.Write([]byte(`{"id":"wf1","name":"Daily import","active":true}`))
	}))
	defer srv.Close()

	wf, err := NewClient(srv.URL, "").GetWorkflow(context.Background(), "wf1")

	require.NoError(t, err)
	assert.Equal(t, "Daily import", wf.Name)
	assert.Equal(t, int32(2), calls.Load())
}

func TestClient_RelayErrorBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		_, _ = w.Write([]byte(`{"error":"upstream unreachable"}`))
	}))
	defer srv.Close()

	_, err := NewClient(srv.URL, "").ListExecutions(context.Background(), "wf1", 0)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "upstream unreachable")
}
