package api

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/lunarforge/comicsync/internal/updater"
)

func newTestServer() (*Server, *updater.PendingSet) {
	pending := updater.NewPendingSet()
	return NewServer(pending, zap.NewNop()), pending
}

func doRequest(t *testing.T, srv *Server, method, path string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	rec := httptest.NewRecorder()
	srv.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer()

	rec := doRequest(t, srv, http.MethodGet, "/healthz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ok"}`, rec.Body.String())

	rec = doRequest(t, srv, http.MethodGet, "/readyz")
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ready"}`, rec.Body.String())
}

func TestScheduleNewsRefreshAccepted(t *testing.T) {
	t.Parallel()

	srv, pending := newTestServer()

	rec := doRequest(t, srv, http.MethodPost, "/v1/comics/4269/news/refresh")
	require.Equal(t, http.StatusAccepted, rec.Code)

	var body struct {
		Status  string `json:"status"`
		ComicID int    `json:"comic_id"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, "scheduled", body.Status)
	require.Equal(t, 4269, body.ComicID)

	require.Equal(t, []updater.ComicID{4269}, pending.Snapshot())
}

func TestScheduleNewsRefreshRejectsBadIDs(t *testing.T) {
	t.Parallel()

	srv, pending := newTestServer()

	for _, raw := range []string{"abc", "0", "-3", "1.5"} {
		rec := doRequest(t, srv, http.MethodPost, "/v1/comics/"+raw+"/news/refresh")
		require.Equal(t, http.StatusBadRequest, rec.Code, "id %q", raw)
		require.True(t, strings.Contains(rec.Body.String(), "positive integer"))
	}
	require.Equal(t, 0, pending.Len())
}

func TestListPendingIsSorted(t *testing.T) {
	t.Parallel()

	srv, pending := newTestServer()
	pending.Schedule(30)
	pending.Schedule(10)
	pending.Schedule(20)

	rec := doRequest(t, srv, http.MethodGet, "/v1/news/pending")
	require.Equal(t, http.StatusOK, rec.Code)

	var body struct {
		Pending []int `json:"pending"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	require.Equal(t, []int{10, 20, 30}, body.Pending)
	// Listing must not consume the set.
	require.Equal(t, 3, pending.Len())
}

func TestRequestIDHeaderIsSet(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer()
	rec := doRequest(t, srv, http.MethodGet, "/healthz")
	require.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestMetricsEndpointServes(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer()
	rec := doRequest(t, srv, http.MethodGet, "/metrics")
	require.Equal(t, http.StatusOK, rec.Code)
}
