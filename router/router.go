package router

import (
	"database/sql"
	"net/http"

	"plusnotify/config"
	identityHandler "plusnotify/internal/identity"
	identityRepo "plusnotify/internal/identity/repository"
	identityService "plusnotify/internal/identity/service"
	notificationHandler "plusnotify/internal/notification"
	notificationRepo "plusnotify/internal/notification/repository"
	notificationService "plusnotify/internal/notification/service"
	watchHandler "plusnotify/internal/watch"
	watchRepo "plusnotify/internal/watch/repository"
	watchService "plusnotify/internal/watch/service"
	"plusnotify/middleware"
	"plusnotify/pkg/respond"
)

// NewNotificationService wires the notification store to the watch registry
// and the configured change source.
func NewNotificationService(db *sql.DB, cfg config.Config, watches *watchService.WatchService) *notificationService.NotificationService {
	return notificationService.NewNotificationService(
		notificationRepo.NewNotificationRepository(db),
		watches,
		notificationService.FileChangeSource{Path: cfg.ChangesFile},
	)
}

func Setup(db *sql.DB, cfg config.Config) http.Handler {
	mux := http.NewServeMux()

	resolver := identityService.NewResolver(
		identityRepo.NewIdentityRepository(db),
		identityService.NewJWTValidator(cfg.JWTSecret, cfg.JWTIssuer),
		cfg.SessionCookie,
	)
	watches := watchService.NewWatchService(watchRepo.NewWatchRepository(db))
	notifications := NewNotificationService(db, cfg, watches)

	idHandler := identityHandler.NewIdentityHandler(resolver)
	wHandler := watchHandler.NewWatchHandler(watches)
	nHandler := notificationHandler.NewNotificationHandler(notifications)

	subscriber := middleware.SubscriberAuth(resolver)
	admin := middleware.AdminAuth(identityService.NewAdminToken(cfg.AdminToken))

	mux.HandleFunc("GET /healthz", func(w http.ResponseWriter, _ *http.Request) {
		respond.JSON(w, http.StatusOK, map[string]bool{"ok": true})
	})
	mux.HandleFunc("GET /api/v1/whoami", idHandler.WhoAmI)

	// Subscriber API
	mux.Handle("GET /api/v1/plus/notifications/{$}", subscriber(http.HandlerFunc(nHandler.GetNotifications)))
	mux.Handle("POST /api/v1/plus/notifications/{id}/mark-as-read/{$}", subscriber(http.HandlerFunc(nHandler.MarkAsRead)))
	mux.Handle("POST /api/v1/plus/notifications/{id}/toggle-starred/{$}", subscriber(http.HandlerFunc(nHandler.ToggleStarred)))
	mux.Handle("POST /api/v1/plus/notifications/{id}/delete/{$}", subscriber(http.HandlerFunc(nHandler.DeleteNotification)))
	mux.Handle("POST /api/v1/plus/notifications/{id}/undo-deletion/{$}", subscriber(http.HandlerFunc(nHandler.UndoDeletion)))
	mux.Handle("POST /api/v1/plus/notifications/star-ids/{$}", subscriber(http.HandlerFunc(nHandler.StarMany)))
	mux.Handle("POST /api/v1/plus/notifications/unstar-ids/{$}", subscriber(http.HandlerFunc(nHandler.UnstarMany)))
	mux.Handle("POST /api/v1/plus/notifications/delete-ids/{$}", subscriber(http.HandlerFunc(nHandler.DeleteMany)))
	mux.Handle("GET /api/v1/plus/watched/{$}", subscriber(http.HandlerFunc(wHandler.GetWatched)))
	// Any method reaches this route; anything but GET and POST is refused
	// with 403 before credentials are checked.
	watchOnly := middleware.OnlyMethods(http.MethodGet, http.MethodPost)
	mux.Handle("/api/v1/plus/watch/{url...}", watchOnly(subscriber(http.HandlerFunc(wHandler.Watch))))
	mux.Handle("POST /api/v1/plus/unwatch-many/{$}", subscriber(http.HandlerFunc(wHandler.UnwatchMany)))

	// Admin ingestion
	mux.Handle("POST /api/v1/notifications/create/{$}", admin(http.HandlerFunc(nHandler.Create)))
	mux.Handle("POST /api/v1/notifications/update/{$}", admin(http.HandlerFunc(nHandler.Update)))

	return middleware.RequestLogger(middleware.CORSMiddleware(cfg.AllowedOrigin)(mux))
}
