package server_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/clipreel/clipreel/internal/catalog"
	"github.com/clipreel/clipreel/internal/server"
)

type mockPinger struct{ err error }

func (m *mockPinger) Ping(ctx context.Context) error { return m.err }

func newTestServer(t *testing.T) *server.Server {
	t.Helper()
	store, err := catalog.New([]catalog.Video{
		{ID: 7, Title: "Seven", VideoURL: "https://cdn.example.com/7.mp4", Likes: 3},
	})
	if err != nil {
		t.Fatalf("seed store: %v", err)
	}
	return server.New(server.Config{Store: store})
}

func execute(srv *server.Server, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)
	return rec
}

// --- Root / health ---

func TestRootDescribesEndpoints(t *testing.T) {
	srv := newTestServer(t)
	rec := execute(srv, http.MethodGet, "/", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("root body is not JSON: %v", err)
	}
	if body["message"] != "Video Carousel API" {
		t.Errorf("unexpected message %v", body["message"])
	}
	endpoints := body["endpoints"].(map[string]any)
	for _, name := range []string{"videos", "like", "share", "comment"} {
		if endpoints[name] == nil {
			t.Errorf("endpoint %s missing from index", name)
		}
	}
}

func TestHealthOK(t *testing.T) {
	srv := newTestServer(t)
	rec := execute(srv, http.MethodGet, "/api/health", "")

	if rec.Code != http.StatusOK {
		t.Errorf("expected 200, got %d", rec.Code)
	}
	if rec.Body.String() != `{"status":"ok"}` {
		t.Errorf("unexpected body %q", rec.Body.String())
	}
}

func TestHealthReportsUnreachableDatabase(t *testing.T) {
	store, _ := catalog.New([]catalog.Video{{ID: 1}})
	srv := server.New(server.Config{
		Store:  store,
		Pinger: &mockPinger{err: errors.New("connection refused")},
	})

	rec := execute(srv, http.MethodGet, "/api/health", "")
	if rec.Code != http.StatusServiceUnavailable {
		t.Errorf("expected 503, got %d", rec.Code)
	}
}

// --- Engagement routes ---

func TestVideosRouteWired(t *testing.T) {
	srv := newTestServer(t)
	rec := execute(srv, http.MethodGet, "/api/videos", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["count"] != float64(1) {
		t.Errorf("expected count 1, got %v", body["count"])
	}
}

func TestLikeRouteWired(t *testing.T) {
	srv := newTestServer(t)
	rec := execute(srv, http.MethodPost, "/api/like", `{"videoId":7}`)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	var body map[string]any
	json.Unmarshal(rec.Body.Bytes(), &body)
	if body["likes"] != float64(4) {
		t.Errorf("expected likes 4, got %v", body["likes"])
	}
}

func TestShareAndCommentRoutesWired(t *testing.T) {
	srv := newTestServer(t)

	rec := execute(srv, http.MethodPost, "/api/share", `{"videoId":7,"platform":"twitter"}`)
	if rec.Code != http.StatusOK {
		t.Errorf("share: expected 200, got %d", rec.Code)
	}

	rec = execute(srv, http.MethodPost, "/api/comment", `{"videoId":7,"comment":"hi"}`)
	if rec.Code != http.StatusCreated {
		t.Errorf("comment: expected 201, got %d", rec.Code)
	}
}

func TestAnalyticsRoutesAbsentWithoutDatabase(t *testing.T) {
	srv := newTestServer(t)

	rec := execute(srv, http.MethodPost, "/api/view", `{"videoId":7}`)
	if rec.Code != http.StatusNotFound {
		t.Errorf("expected 404 for unmounted view route, got %d", rec.Code)
	}
}

// --- Rate limiting ---

func TestMutationRoutesAreRateLimited(t *testing.T) {
	store, _ := catalog.New([]catalog.Video{{ID: 7, Likes: 0}})
	srv := server.New(server.Config{Store: store, MutationRate: 0.001, MutationBurst: 2})

	codes := make(map[int]int)
	for i := 0; i < 4; i++ {
		rec := execute(srv, http.MethodPost, "/api/like", `{"videoId":7}`)
		codes[rec.Code]++
	}
	if codes[http.StatusTooManyRequests] == 0 {
		t.Errorf("expected some 429s past the burst, got %v", codes)
	}
	if codes[http.StatusOK] != 2 {
		t.Errorf("expected burst of 2 to pass, got %v", codes)
	}
}

func TestListRouteNotRateLimited(t *testing.T) {
	store, _ := catalog.New([]catalog.Video{{ID: 7}})
	srv := server.New(server.Config{Store: store, MutationRate: 0.001, MutationBurst: 1})

	for i := 0; i < 5; i++ {
		rec := execute(srv, http.MethodGet, "/api/videos", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("read route must not be limited, got %d on request %d", rec.Code, i+1)
		}
	}
}

// --- CORS ---

func TestCORSAllowsAnyOrigin(t *testing.T) {
	srv := newTestServer(t)

	req := httptest.NewRequest(http.MethodGet, "/api/videos", nil)
	req.Header.Set("Origin", "https://frontend.example.com")
	rec := httptest.NewRecorder()
	srv.ServeHTTP(rec, req)

	if got := rec.Header().Get("Access-Control-Allow-Origin"); got != "*" {
		t.Errorf("expected wildcard CORS origin, got %q", got)
	}
}
