package web

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
	"thirdcoast.systems/ytingest/internal/config"
	"thirdcoast.systems/ytingest/internal/db/dbtest"
	"thirdcoast.systems/ytingest/internal/ingest"
	"thirdcoast.systems/ytingest/internal/signature"
	"thirdcoast.systems/ytingest/internal/youtube"
)

const testSecret = "topsecret"

func newTestServer(t *testing.T, upstream http.HandlerFunc, perMinute int) (*Webserver, *dbtest.MemoryStore) {
	t.Helper()

	yt := httptest.NewServer(upstream)
	t.Cleanup(yt.Close)

	store := dbtest.NewMemoryStore()
	svc := ingest.NewService(store, youtube.NewClient(yt.URL, "key"), testSecret)

	s, err := NewWebserver(context.Background(), config.Config{RateLimitPerMinute: perMinute}, svc)
	require.NoError(t, err)
	return s, store
}

func serve(s *Webserver, method, target, body string, headers map[string]string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	req.RemoteAddr = "192.0.2.10:4321"
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func okUpstream(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(`{"items":[{"id":{"videoId":"id1"},"snippet":{"title":"One","publishedAt":"2025-07-16T00:00:00+02:00"}}]}`))
}

func TestServer_FetchThenList(t *testing.T) {
	s, store := newTestServer(t, okUpstream, 100)

	rec := serve(s, http.MethodPost, "/fetch/?channel_id=UC1&max_results=1", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"count":1,"videos":["id1"]}`, rec.Body.String())
	require.Equal(t, 1, store.Len())

	rec = serve(s, http.MethodGet, "/videos/", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"published_at":"2025-07-16T00:00:00"`)

	rec = serve(s, http.MethodGet, "/videos/?min_views=20000", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `[]`, rec.Body.String())
}

func TestServer_FetchUpstreamError(t *testing.T) {
	s, store := newTestServer(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "quotaExceeded", http.StatusForbidden)
	}, 100)

	rec := serve(s, http.MethodPost, "/fetch/?channel_id=UC1", "", nil)
	require.Equal(t, http.StatusBadGateway, rec.Code)
	require.JSONEq(t, `{"detail":"YouTube API error"}`, rec.Body.String())
	require.Zero(t, store.Len())
}

func TestServer_FetchPersistenceError(t *testing.T) {
	s, store := newTestServer(t, okUpstream, 100)
	store.FailCommit = true

	rec := serve(s, http.MethodPost, "/fetch/?channel_id=UC1", "", nil)
	require.Equal(t, http.StatusInternalServerError, rec.Code)
	require.JSONEq(t, `{"detail":"Database ingestion error"}`, rec.Body.String())
}

func TestServer_Webhook(t *testing.T) {
	s, store := newTestServer(t, okUpstream, 100)
	body := `{"video_id":"wh1","title":"Pushed","description":null,"published_at":"2025-07-16T00:00:00","view_count":100,"like_count":9}`

	rec := serve(s, http.MethodPost, "/webhook", body, map[string]string{
		signature.Header: signature.Sign([]byte(body), testSecret),
		"Content-Type":   "application/json",
	})
	require.Equal(t, http.StatusOK, rec.Code)
	require.JSONEq(t, `{"status":"ingested","video_id":"wh1"}`, rec.Body.String())

	v, ok := store.Get("wh1")
	require.True(t, ok)
	require.Nil(t, v.Description)
	require.EqualValues(t, 100, v.ViewCount)

	for _, sig := range []string{"", "0000", signature.Sign([]byte(body), "nope")} {
		rec = serve(s, http.MethodPost, "/webhook", body, map[string]string{signature.Header: sig})
		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.JSONEq(t, `{"detail":"Invalid signature"}`, rec.Body.String())
	}
}

func TestServer_WebhookValidation(t *testing.T) {
	s, store := newTestServer(t, okUpstream, 100)
	body := `{"video_id":"wh1","title":"T","published_at":"2025-07-16T00:00:00","view_count":-4,"like_count":0}`

	rec := serve(s, http.MethodPost, "/webhook", body, map[string]string{
		signature.Header: signature.Sign([]byte(body), testSecret),
	})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	require.Contains(t, rec.Body.String(), "view_count")
	require.Zero(t, store.Len())
}

func TestServer_ListFiltersByViews(t *testing.T) {
	s, _ := newTestServer(t, okUpstream, 100)
	for _, b := range []string{
		`{"video_id":"low","title":"L","published_at":"2025-07-16T00:00:00","view_count":1,"like_count":0}`,
		`{"video_id":"high","title":"H","published_at":"2025-07-16T00:00:00","view_count":100,"like_count":0}`,
	} {
		rec := serve(s, http.MethodPost, "/webhook", b, map[string]string{signature.Header: signature.Sign([]byte(b), testSecret)})
		require.Equal(t, http.StatusOK, rec.Code)
	}

	rec := serve(s, http.MethodGet, "/videos/?min_views=50", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `"video_id":"high"`)
	require.NotContains(t, rec.Body.String(), `"video_id":"low"`)

	rec = serve(s, http.MethodGet, "/videos/?min_views=-1", "", nil)
	require.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestServer_RateLimit(t *testing.T) {
	s, _ := newTestServer(t, okUpstream, 10)

	for i := range 10 {
		rec := serve(s, http.MethodGet, "/healthz", "", nil)
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
	rec := serve(s, http.MethodGet, "/healthz", "", nil)
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
	require.JSONEq(t, `{"detail":"Rate limit exceeded"}`, rec.Body.String())
}

func TestServer_RateLimitIgnoresForwardedHeaders(t *testing.T) {
	s, _ := newTestServer(t, okUpstream, 10)

	for i := range 10 {
		rec := serve(s, http.MethodGet, "/healthz", "", map[string]string{
			"X-Forwarded-For": fmt.Sprintf("10.0.0.%d", i),
			"X-Real-IP":       fmt.Sprintf("10.0.1.%d", i),
		})
		require.Equal(t, http.StatusOK, rec.Code, "request %d", i+1)
	}
	rec := serve(s, http.MethodGet, "/healthz", "", map[string]string{
		"X-Forwarded-For": "10.0.0.200",
		"X-Real-IP":       "10.0.1.200",
	})
	require.Equal(t, http.StatusTooManyRequests, rec.Code)
}

func TestServer_CORS(t *testing.T) {
	s, _ := newTestServer(t, okUpstream, 100)
	rec := serve(s, http.MethodGet, "/healthz", "", map[string]string{"Origin": "https://example.org"})
	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestServer_Metrics(t *testing.T) {
	s, _ := newTestServer(t, okUpstream, 100)
	serve(s, http.MethodGet, "/videos/", "", nil)

	rec := serve(s, http.MethodGet, "/metrics", "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	require.Contains(t, rec.Body.String(), `http_requests_total{handler="/videos/",method="GET",status="200"} 1`)
	require.Contains(t, rec.Body.String(), "http_request_duration_seconds")
}
