package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"

	"plusnotify/internal/notification/model"
	"plusnotify/internal/notification/service"
	"plusnotify/middleware"
	"plusnotify/pkg/logger"
	"plusnotify/pkg/pagination"
	"plusnotify/pkg/respond"
)

type NotificationHandler struct {
	Service *service.NotificationService
}

func NewNotificationHandler(service *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{Service: service}
}

func (h *NotificationHandler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authorized")
		return
	}

	views, err := h.Service.List(r.Context(), user.ID, parseListQuery(r.URL.Query()))
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to list notifications for user %d: %v", user.ID, err)
		respond.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	respond.List(w, views)
}

func parseListQuery(q url.Values) model.ListQuery {
	var lq model.ListQuery
	if q.Has("filterStarred") {
		starred := isTruthy(q.Get("filterStarred"))
		lq.Filters.Starred = &starred
	}
	lq.Filters.Type = q.Get("filterType")
	lq.Sort = q.Get("sort")
	lq.Limit, lq.Offset = pagination.Parse(q)
	return lq
}

// isTruthy accepts only "true" and "True".
func isTruthy(s string) bool {
	return s == "true" || s == "True"
}

// MarkAsRead handles /notifications/{id}/mark-as-read/, where id may be "all".
func (h *NotificationHandler) MarkAsRead(w http.ResponseWriter, r *http.Request) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authorized")
		return
	}

	var id *int64
	if raw := r.PathValue("id"); raw != "all" {
		parsed, err := strconv.ParseInt(raw, 10, 64)
		if err != nil {
			http.Error(w, service.ErrInvalidID.Error(), http.StatusBadRequest)
			return
		}
		id = &parsed
	}

	h.single(w, h.Service.MarkRead(r.Context(), user.ID, id))
}

func (h *NotificationHandler) ToggleStarred(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(userID, id int64) error {
		return h.Service.ToggleStar(r.Context(), userID, id)
	})
}

func (h *NotificationHandler) DeleteNotification(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(userID, id int64) error {
		return h.Service.Delete(r.Context(), userID, id)
	})
}

func (h *NotificationHandler) UndoDeletion(w http.ResponseWriter, r *http.Request) {
	h.withID(w, r, func(userID, id int64) error {
		return h.Service.UndoDelete(r.Context(), userID, id)
	})
}

func (h *NotificationHandler) StarMany(w http.ResponseWriter, r *http.Request) {
	h.withIDs(w, r, h.Service.StarMany)
}

func (h *NotificationHandler) UnstarMany(w http.ResponseWriter, r *http.Request) {
	h.withIDs(w, r, h.Service.UnstarMany)
}

func (h *NotificationHandler) DeleteMany(w http.ResponseWriter, r *http.Request) {
	h.withIDs(w, r, h.Service.DeleteMany)
}

func (h *NotificationHandler) withID(w http.ResponseWriter, r *http.Request, apply func(userID, id int64) error) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authorized")
		return
	}
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, service.ErrInvalidID.Error(), http.StatusBadRequest)
		return
	}
	h.single(w, apply(user.ID, id))
}

func (h *NotificationHandler) single(w http.ResponseWriter, err error) {
	switch {
	case err == nil:
		respond.OK(w)
	case errors.Is(err, service.ErrInvalidID):
		http.Error(w, err.Error(), http.StatusBadRequest)
	default:
		logger.Sugar.Errorf("Handler: Notification update failed: %v", err)
		respond.Error(w, http.StatusInternalServerError, "database error")
	}
}

func (h *NotificationHandler) withIDs(w http.ResponseWriter, r *http.Request, apply func(ctx context.Context, userID int64, ids []int64) error) {
	user, ok := middleware.UserFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "not authorized")
		return
	}
	var req model.IDsRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "bad data")
		return
	}
	if err := apply(r.Context(), user.ID, req.IDs); err != nil {
		logger.Sugar.Errorf("Handler: Bulk notification update failed for user %d: %v", user.ID, err)
		respond.Error(w, http.StatusInternalServerError, "database error")
		return
	}
	respond.OK(w)
}

// Create fans a content change out to the page's watchers. Admin only.
func (h *NotificationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req model.CreateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "bad data")
		return
	}

	if _, err := h.Service.Create(r.Context(), req); err != nil {
		switch {
		case errors.Is(err, service.ErrMissingPage), errors.Is(err, service.ErrMissingData):
			respond.Error(w, http.StatusBadRequest, err.Error())
		default:
			logger.Sugar.Errorf("Handler: Failed to create notification for %s: %v", req.Page, err)
			respond.Error(w, http.StatusInternalServerError, "database error")
		}
		return
	}
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}

// Update publishes the pending compatibility changes. Admin only.
func (h *NotificationHandler) Update(w http.ResponseWriter, r *http.Request) {
	delivered, err := h.Service.Update(r.Context())
	if err != nil {
		logger.Sugar.Errorf("Handler: Failed to process changes: %v", err)
		respond.Error(w, http.StatusInternalServerError, "failed to process changes")
		return
	}
	logger.Sugar.Infof("Processed changes, %d notifications delivered", delivered)
	respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
}
