package handlers

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"photofind/internal/logging"

	"github.com/gorilla/mux"
)

// GetVideo serves the pre-transcoded 480p rendition of a library video.
// Renditions are flat files in the video preview directory named after the
// source stem, so /api/video/shoot/clip.mov maps to clip_480p.mp4. ServeFile
// handles range requests for scrubbing.
func (h *Handlers) GetVideo(w http.ResponseWriter, r *http.Request) {
	requestPath := mux.Vars(r)["path"]

	if requestPath == "" || strings.Contains(requestPath, "..") {
		logging.Warn("Rejected video request for path %q", requestPath)
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	base := filepath.Base(filepath.FromSlash(requestPath))
	ext := filepath.Ext(base)
	if ext == "" || ext == base {
		http.Error(w, "Invalid video path", http.StatusNotFound)
		return
	}
	stem := strings.TrimSuffix(base, ext)
	rendition := filepath.Join(h.videoDir, stem+"_480p.mp4")

	if _, err := os.Stat(rendition); err != nil {
		logging.Warn("No transcoded rendition for %s (looked for %s)", requestPath, rendition)
		http.Error(w, "Transcoded video not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "video/mp4")
	w.Header().Set("Cache-Control", "public, max-age=3600")
	http.ServeFile(w, r, rendition)
}
