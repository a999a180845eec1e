package middleware

import (
	"net/http"
	"slices"

	"plusnotify/pkg/respond"
)

// OnlyMethods answers 403 {"ok": false} for any method not listed, before
// the rest of the chain runs.
func OnlyMethods(methods ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if !slices.Contains(methods, r.Method) {
				respond.JSON(w, http.StatusForbidden, map[string]bool{"ok": false})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}
