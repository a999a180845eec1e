package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"plusnotify/internal/watch/model"
	"plusnotify/internal/watch/service"
	"plusnotify/middleware"
	"plusnotify/pkg/logger"
	"plusnotify/pkg/pagination"
	"plusnotify/pkg/respond"
)

type WatchHandler struct {
	Service *service.WatchService
}

func NewWatchHandler(service *service.WatchService) *WatchHandler {
	return &WatchHandler{Service: service}
}

// GetWatched lists the targets the caller watches.
func (h *WatchHandler) GetWatched(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authorized")
		return
	}

	limit, offset := pagination.Parse(r.URL.Query())
	targets, err := h.Service.Watched(r.Context(), user.ID, limit, offset)
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list watches for user %d: %v", user.ID, err)
		respond.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	respond.List(w, targets)
}

// Watch reports (GET) or creates (POST) the caller's watch on the page in
// the path.
func (h *WatchHandler) Watch(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authorized")
		return
	}

	url := r.PathValue("url")
	if url == "" {
		respond.Error(w, http.StatusBadRequest, "missing url")
		return
	}
	url = "/" + url

	switch r.Method {
	case http.MethodGet:
		status, err := h.Service.Status(r.Context(), user.ID, url)
		if err != nil {
			logger.Sugar.Errorf("Handler: Failed to read watch status of %s: %v", url, err)
			respond.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		respond.JSON(w, http.StatusOK, model.StatusResponse{OK: true, Status: status})

	case http.MethodPost:
		var req model.WatchRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			respond.Error(w, http.StatusBadRequest, "bad data")
			return
		}
		if _, err := h.Service.Watch(r.Context(), user.ID, url, req); err != nil {
			if errors.Is(err, service.ErrMissingTitle) {
				respond.Error(w, http.StatusBadRequest, "missing title")
				return
			}
			logger.Sugar.Errorf("Handler: Failed to watch %s: %v", url, err)
			respond.Error(w, http.StatusInternalServerError, "database error")
			return
		}
		respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})

	default:
		respond.JSON(w, http.StatusForbidden, map[string]bool{"ok": false})
	}
}

func (h *WatchHandler) UnwatchMany(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var req model.UnwatchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "bad data")
		return
	}
	if err := h.Service.UnwatchMany(r.Context(), user.ID, req.URLs); err != nil {
		logger.Sugar.Errorf("Handler: Failed to unwatch for user %d: %v", user.ID, err)
		respond.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
