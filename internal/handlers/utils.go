package handlers

import (
	"encoding/json"
	"net/http"
	"path/filepath"
	"strings"

	"photofind/internal/logging"
)

func writeJSON(w http.ResponseWriter, v interface{}) {
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logging.Error("Failed to encode JSON response: %v", err)
	}
}

// resolveMediaPath joins a request path onto the library root and verifies
// the result stays inside it. Returns "" for traversal attempts.
func resolveMediaPath(root, requestPath string) string {
	if requestPath == "" || strings.Contains(requestPath, "..") {
		return ""
	}

	full := filepath.Join(root, filepath.FromSlash(requestPath))
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return ""
	}
	absFull, err := filepath.Abs(full)
	if err != nil {
		return ""
	}
	if absFull != absRoot && !strings.HasPrefix(absFull, absRoot+string(filepath.Separator)) {
		return ""
	}
	return full
}
