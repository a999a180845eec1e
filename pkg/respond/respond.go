package respond

import (
	"encoding/json"
	"net/http"

	"plusnotify/pkg/logger"
)

// JSON writes v with the given status.
func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Sugar.Errorf("Failed to encode response: %v", err)
	}
}

// Error writes {"ok": false, "error": msg}.
func Error(w http.ResponseWriter, status int, msg string) {
	JSON(w, status, map[string]any{"ok": false, "error": msg})
}

// OK writes {"OK": true}, the acknowledgement of notification mutations.
func OK(w http.ResponseWriter) {
	JSON(w, http.StatusOK, map[string]bool{"OK": true})
}

type Items[T any] struct {
	Items []T `json:"items"`
}

// List writes {"items": [...]}, never null.
func List[T any](w http.ResponseWriter, items []T) {
	if items == nil {
		items = []T{}
	}
	JSON(w, http.StatusOK, Items[T]{Items: items})
}
