package handlers

import (
	"net/http"

	"photofind/internal/logging"
	"photofind/internal/registry"
)

// Search answers /api/search?q=term with the matching library entries.
// Multi-part queries use " AND " between parts; all parts must match the
// same metadata value.
func (h *Handlers) Search(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")

	w.Header().Set("Content-Type", "application/json")

	if query == "" {
		writeJSON(w, []registry.SearchResult{})
		return
	}

	results, err := h.searcher.Search(query)
	if err != nil {
		logging.Error("Search failed for %q: %v", query, err)
		http.Error(w, "Search failed", http.StatusInternalServerError)
		return
	}
	if results == nil {
		results = []registry.SearchResult{}
	}

	writeJSON(w, results)
}
