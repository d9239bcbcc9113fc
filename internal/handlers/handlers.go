package handlers

import (
	"time"

	"photofind/internal/media"
	"photofind/internal/registry"

	"github.com/gorilla/mux"
)

// Searcher answers metadata queries. *registry.Registry satisfies it.
type Searcher interface {
	Search(term string) ([]registry.SearchResult, error)
}

// DerivativeGenerator produces cached JPEG derivatives. *media.Generator
// satisfies it.
type DerivativeGenerator interface {
	Generate(sourcePath string, tier media.Tier) ([]byte, error)
}

type Handlers struct {
	searcher  Searcher
	generator DerivativeGenerator
	scanDir   string
	videoDir  string

	// backlogDone reports whether the background thumbnail sweep has
	// nothing left to do; surfaced in the health payload. May be nil.
	backlogDone func() bool

	started time.Time
}

func New(searcher Searcher, generator DerivativeGenerator, scanDir, videoDir string, backlogDone func() bool) *Handlers {
	return &Handlers{
		searcher:    searcher,
		generator:   generator,
		scanDir:     scanDir,
		videoDir:    videoDir,
		backlogDone: backlogDone,
		started:     time.Now(),
	}
}

// Register wires the API routes onto the router. Middleware passed here
// wraps only the /api subrouter, not health checks.
func (h *Handlers) Register(r *mux.Router, apiMiddleware ...mux.MiddlewareFunc) {
	r.HandleFunc("/health", h.HealthCheck).Methods("GET")

	api := r.PathPrefix("/api").Subrouter()
	api.Use(apiMiddleware...)
	api.HandleFunc("/search", h.Search).Methods("GET")
	api.HandleFunc("/thumbnail/{path:.*}", h.GetThumbnail).Methods("GET")
	api.HandleFunc("/preview/{path:.*}", h.GetPreview).Methods("GET")
	api.HandleFunc("/video/{path:.*}", h.GetVideo).Methods("GET")
}
