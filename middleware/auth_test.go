package middleware

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"plusnotify/internal/identity/model"
	"plusnotify/internal/identity/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type resolverFunc func(r *http.Request) (model.User, error)

func (f resolverFunc) Resolve(r *http.Request) (model.User, error) { return f(r) }

func echoUser(t *testing.T) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		user, ok := UserFrom(r.Context())
		require.True(t, ok)
		json.NewEncoder(w).Encode(user)
	})
}

func TestSubscriberAuthPassesUser(t *testing.T) {
	h := SubscriberAuth(resolverFunc(func(*http.Request) (model.User, error) {
		return model.User{ID: 5, Email: "a@example.com"}, nil
	}))(echoUser(t))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"id":5,"email":"a@example.com","created_at":"0001-01-01T00:00:00Z"}`, rec.Body.String())
}

func TestSubscriberAuthRejects(t *testing.T) {
	called := false
	next := http.HandlerFunc(func(http.ResponseWriter, *http.Request) { called = true })

	tests := []struct {
		name   string
		err    error
		status int
	}{
		{"not a subscriber", service.ErrNotASubscriber, http.StatusUnauthorized},
		{"wrapped rejection", errors.Join(service.ErrNotASubscriber, errors.New("expired")), http.StatusUnauthorized},
		{"store failure", errors.New("db down"), http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := SubscriberAuth(resolverFunc(func(*http.Request) (model.User, error) {
				return model.User{}, tt.err
			}))(next)

			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))

			assert.Equal(t, tt.status, rec.Code)
			assert.NotContains(t, rec.Body.String(), "db down")
			assert.False(t, called)
		})
	}
}

func TestAdminAuth(t *testing.T) {
	h := AdminAuth(service.NewAdminToken("s3cret"))(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	tests := []struct {
		header string
		status int
	}{
		{"s3cret", http.StatusTeapot},
		{"Bearer s3cret", http.StatusTeapot},
		{"Bearer nope", http.StatusUnauthorized},
		{"", http.StatusUnauthorized},
	}
	for _, tt := range tests {
		req := httptest.NewRequest(http.MethodPost, "/api/v1/notifications/create/", nil)
		if tt.header != "" {
			req.Header.Set("Authorization", tt.header)
		}
		rec := httptest.NewRecorder()
		h.ServeHTTP(rec, req)

		assert.Equal(t, tt.status, rec.Code, tt.header)
		if tt.status == http.StatusUnauthorized {
			assert.JSONEq(t, `{"ok":false,"error":"not authorized"}`, rec.Body.String())
		}
	}
}

func TestCORSPreflight(t *testing.T) {
	h := CORSMiddleware("https://example.com")(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		t.Fatal("preflight must not reach the handler")
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodOptions, "/api/v1/plus/watched/", nil))

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://example.com", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "true", rec.Header().Get("Access-Control-Allow-Credentials"))
}

func TestRequestLoggerSetsID(t *testing.T) {
	h := RequestLogger(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/", nil))
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Len(t, rec.Header().Get(RequestIDHeader), 36)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(RequestIDHeader, "given")
	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	assert.Equal(t, "given", rec.Header().Get(RequestIDHeader))
}
