package middleware

import (
	"context"
	"errors"
	"net/http"

	"plusnotify/internal/identity/model"
	"plusnotify/internal/identity/service"
	"plusnotify/pkg/logger"
	"plusnotify/pkg/respond"
)

type contextKey string

const UserKey contextKey = "subscriber"

type SubscriberResolver interface {
	Resolve(r *http.Request) (model.User, error)
}

// SubscriberAuth rejects requests that carry neither a live session nor a
// valid subscriber token. The resolved user is stored under UserKey.
func SubscriberAuth(resolver SubscriberResolver) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, err := resolver.Resolve(r)
			if err != nil {
				if errors.Is(err, service.ErrNotASubscriber) {
					respond.Error(w, http.StatusUnauthorized, "not authorized")
					return
				}
				logger.Sugar.Errorf("Failed to resolve subscriber: %v", err)
				respond.Error(w, http.StatusInternalServerError, "internal error")
				return
			}
			next.ServeHTTP(w, r.WithContext(WithUser(r.Context(), user)))
		})
	}
}

// AdminAuth lets through only requests presenting the admin token.
func AdminAuth(token service.AdminToken) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !token.Allow(r.Header.Get("Authorization")) {
				respond.Error(w, http.StatusUnauthorized, "not authorized")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func WithUser(ctx context.Context, user model.User) context.Context {
	return context.WithValue(ctx, UserKey, user)
}

func UserFrom(ctx context.Context) (model.User, bool) {
	user, ok := ctx.Value(UserKey).(model.User)
	return user, ok
}
