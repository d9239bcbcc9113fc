package handlers

import (
	"errors"
	"net/http"

	"photofind/internal/logging"
	"photofind/internal/media"

	"github.com/gorilla/mux"
)

// GetThumbnail serves the small grid derivative for a library file.
func (h *Handlers) GetThumbnail(w http.ResponseWriter, r *http.Request) {
	h.serveDerivative(w, r, media.TierThumbnail)
}

// GetPreview serves the large single-image derivative for a library file.
func (h *Handlers) GetPreview(w http.ResponseWriter, r *http.Request) {
	h.serveDerivative(w, r, media.TierPreview)
}

func (h *Handlers) serveDerivative(w http.ResponseWriter, r *http.Request, tier media.Tier) {
	requestPath := mux.Vars(r)["path"]

	fullPath := resolveMediaPath(h.scanDir, requestPath)
	if fullPath == "" {
		logging.Warn("Rejected %s request for path %q", tier, requestPath)
		http.Error(w, "Invalid path", http.StatusBadRequest)
		return
	}

	data, err := h.generator.Generate(fullPath, tier)
	switch {
	case err == nil:
	case errors.Is(err, media.ErrSourceMissing):
		http.Error(w, "File not found", http.StatusNotFound)
		return
	case errors.Is(err, media.ErrUnsupported):
		logging.Warn("No decoder produced a %s for %s: %v", tier, fullPath, err)
		http.Error(w, "Unsupported media format", http.StatusUnsupportedMediaType)
		return
	default:
		logging.Error("Generating %s for %s: %v", tier, fullPath, err)
		http.Error(w, "Failed to generate image", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "image/jpeg")
	w.Header().Set("Cache-Control", "public, max-age=86400")
	if _, err := w.Write(data); err != nil {
		logging.Debug("Writing %s response for %s: %v", tier, fullPath, err)
	}
}
