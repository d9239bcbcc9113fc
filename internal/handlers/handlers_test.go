package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"photofind/internal/media"
	"photofind/internal/registry"

	"github.com/gorilla/mux"
)

type fakeSearcher struct {
	results []registry.SearchResult
	err     error
	lastQ   string
}

func (f *fakeSearcher) Search(term string) ([]registry.SearchResult, error) {
	f.lastQ = term
	return f.results, f.err
}

type fakeGenerator struct {
	data     []byte
	err      error
	lastPath string
	lastTier media.Tier
}

func (f *fakeGenerator) Generate(path string, tier media.Tier) ([]byte, error) {
	f.lastPath = path
	f.lastTier = tier
	return f.data, f.err
}

func newTestRouter(h *Handlers) *mux.Router {
	r := mux.NewRouter()
	h.Register(r)
	return r
}

func TestSearchEmptyQuery(t *testing.T) {
	h := New(&fakeSearcher{}, &fakeGenerator{}, t.TempDir(), t.TempDir(), nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/search", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var results []registry.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatalf("decoding body: %v", err)
	}
	if len(results) != 0 {
		t.Errorf("empty query returned %d results", len(results))
	}
}

func TestSearchReturnsResults(t *testing.T) {
	searcher := &fakeSearcher{results: []registry.SearchResult{
		{Path: "/photos/beach.nef", Value: "holiday;beach"},
	}}
	h := New(searcher, &fakeGenerator{}, t.TempDir(), t.TempDir(), nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/search?q=holiday+AND+beach", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if searcher.lastQ != "holiday AND beach" {
		t.Errorf("query passed through as %q", searcher.lastQ)
	}
	var results []registry.SearchResult
	if err := json.NewDecoder(rec.Body).Decode(&results); err != nil {
		t.Fatal(err)
	}
	if len(results) != 1 || results[0].Path != "/photos/beach.nef" {
		t.Errorf("results = %v", results)
	}
}

func TestSearchFailure(t *testing.T) {
	h := New(&fakeSearcher{err: errors.New("boom")}, &fakeGenerator{}, t.TempDir(), t.TempDir(), nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/search?q=x", nil))
	if rec.Code != http.StatusInternalServerError {
		t.Errorf("status = %d, want 500", rec.Code)
	}
}

func TestThumbnailServesJPEG(t *testing.T) {
	scanDir := t.TempDir()
	gen := &fakeGenerator{data: []byte{0xFF, 0xD8, 0xFF, 0xD9}}
	h := New(&fakeSearcher{}, gen, scanDir, t.TempDir(), nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/thumbnail/shoot/a.nef", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "image/jpeg" {
		t.Errorf("Content-Type = %s", ct)
	}
	if cc := rec.Header().Get("Cache-Control"); cc == "" {
		t.Error("missing Cache-Control header")
	}
	if gen.lastTier != media.TierThumbnail {
		t.Errorf("tier = %v", gen.lastTier)
	}
	if want := filepath.Join(scanDir, "shoot", "a.nef"); gen.lastPath != want {
		t.Errorf("path = %s, want %s", gen.lastPath, want)
	}
}

func TestPreviewUsesPreviewTier(t *testing.T) {
	gen := &fakeGenerator{data: []byte{1}}
	h := New(&fakeSearcher{}, gen, t.TempDir(), t.TempDir(), nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/preview/a.cr2", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if gen.lastTier != media.TierPreview {
		t.Errorf("tier = %v", gen.lastTier)
	}
}

func TestDerivativeErrorStatus(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"missing source", media.ErrSourceMissing, http.StatusNotFound},
		{"undecodable", media.ErrUnsupported, http.StatusUnsupportedMediaType},
		{"internal", errors.New("disk on fire"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := New(&fakeSearcher{}, &fakeGenerator{err: tt.err}, t.TempDir(), t.TempDir(), nil)
			router := newTestRouter(h)

			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/thumbnail/a.nef", nil))
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}
}

func TestTraversalRejected(t *testing.T) {
	gen := &fakeGenerator{data: []byte{1}}
	h := New(&fakeSearcher{}, gen, t.TempDir(), t.TempDir(), nil)

	req := httptest.NewRequest("GET", "/api/thumbnail/x", nil)
	req = mux.SetURLVars(req, map[string]string{"path": "../../etc/passwd"})
	rec := httptest.NewRecorder()
	h.GetThumbnail(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
	if gen.lastPath != "" {
		t.Errorf("generator was called with %s", gen.lastPath)
	}
}

func TestResolveMediaPath(t *testing.T) {
	root := t.TempDir()
	tests := []struct {
		name    string
		request string
		wantOK  bool
	}{
		{"simple", "a.nef", true},
		{"nested", "shoot/2023/a.nef", true},
		{"empty", "", false},
		{"traversal", "../outside", false},
		{"embedded traversal", "a/../../outside", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := resolveMediaPath(root, tt.request)
			if (got != "") != tt.wantOK {
				t.Errorf("resolveMediaPath(%q) = %q, want ok=%v", tt.request, got, tt.wantOK)
			}
		})
	}
}

func TestVideoServesRendition(t *testing.T) {
	videoDir := t.TempDir()
	rendition := filepath.Join(videoDir, "clip_480p.mp4")
	if err := os.WriteFile(rendition, []byte("mp4data"), 0644); err != nil {
		t.Fatal(err)
	}

	h := New(&fakeSearcher{}, &fakeGenerator{}, t.TempDir(), videoDir, nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/video/shoot/clip.mov", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, body %s", rec.Code, rec.Body.String())
	}
	if ct := rec.Header().Get("Content-Type"); ct != "video/mp4" {
		t.Errorf("Content-Type = %s", ct)
	}
	if rec.Body.String() != "mp4data" {
		t.Errorf("body = %q", rec.Body.String())
	}
}

func TestVideoMissingRendition(t *testing.T) {
	h := New(&fakeSearcher{}, &fakeGenerator{}, t.TempDir(), t.TempDir(), nil)
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/video/clip.mov", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestVideoPathWithoutExtension(t *testing.T) {
	h := New(&fakeSearcher{}, &fakeGenerator{}, t.TempDir(), t.TempDir(), nil)

	req := httptest.NewRequest("GET", "/api/video/x", nil)
	req = mux.SetURLVars(req, map[string]string{"path": "clipnoext"})
	rec := httptest.NewRecorder()
	h.GetVideo(rec, req)
	if rec.Code != http.StatusNotFound {
		t.Errorf("status = %d, want 404", rec.Code)
	}
}

func TestHealthCheck(t *testing.T) {
	h := New(&fakeSearcher{}, &fakeGenerator{}, t.TempDir(), t.TempDir(), func() bool { return true })
	router := newTestRouter(h)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, httptest.NewRequest("GET", "/health", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	var response HealthResponse
	if err := json.NewDecoder(rec.Body).Decode(&response); err != nil {
		t.Fatal(err)
	}
	if response.Status != "healthy" {
		t.Errorf("status = %s", response.Status)
	}
	if !response.ThumbnailBacklogDone {
		t.Error("backlog flag not surfaced")
	}
}
