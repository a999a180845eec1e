package service

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"plusnotify/internal/identity/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeRepo struct {
	mu        sync.Mutex
	sessions  map[string]model.User
	bySubject map[string]model.User
	nextID    int64
	upserts   int
	upsertErr error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{
		sessions:  map[string]model.User{},
		bySubject: map[string]model.User{},
	}
}

func (f *fakeRepo) GetBySession(_ context.Context, key string) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.sessions[key]
	if !ok {
		return model.User{}, sql.ErrNoRows
	}
	return u, nil
}

func (f *fakeRepo) UpsertSubscriber(_ context.Context, p model.Payload) (model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.upserts++
	if f.upsertErr != nil {
		return model.User{}, f.upsertErr
	}
	if u, ok := f.bySubject[p.Subject]; ok {
		u.Email = p.Email
		f.bySubject[p.Subject] = u
		return u, nil
	}
	f.nextID++
	u := model.User{ID: f.nextID, Subject: p.Subject, Email: p.Email}
	f.bySubject[p.Subject] = u
	return u, nil
}

type stubValidator map[string]model.Payload

func (s stubValidator) Validate(_ context.Context, token string) model.Payload {
	if p, ok := s[token]; ok {
		return p
	}
	return model.Payload{Error: "invalid token"}
}

func newRequest(cookie, auth string) *http.Request {
	r := httptest.NewRequest(http.MethodGet, "/api/v1/plus/notifications/", nil)
	if cookie != "" {
		r.AddCookie(&http.Cookie{Name: "sessionid", Value: cookie})
	}
	if auth != "" {
		r.Header.Set("Authorization", auth)
	}
	return r
}

func TestResolveSession(t *testing.T) {
	repo := newFakeRepo()
	repo.sessions["abc"] = model.User{ID: 7, Subject: "wiki"}
	res := NewResolver(repo, stubValidator{}, "sessionid")

	user, err := res.Resolve(newRequest("abc", ""))
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Zero(t, repo.upserts, "session path must not provision")
}

func TestResolveSessionTakesPrecedenceOverToken(t *testing.T) {
	repo := newFakeRepo()
	repo.sessions["abc"] = model.User{ID: 7}
	res := NewResolver(repo, stubValidator{"tok": {Subject: "other"}}, "sessionid")

	user, err := res.Resolve(newRequest("abc", "Bearer tok"))
	require.NoError(t, err)
	assert.Equal(t, int64(7), user.ID)
	assert.Zero(t, repo.upserts)
}

func TestResolveUnknownSessionFallsBackToToken(t *testing.T) {
	repo := newFakeRepo()
	res := NewResolver(repo, stubValidator{"tok": {Subject: "sub-1"}}, "sessionid")

	user, err := res.Resolve(newRequest("stale", "Bearer tok"))
	require.NoError(t, err)
	assert.Equal(t, "sub-1", user.Subject)
}

func TestResolveTokenProvisionsOnce(t *testing.T) {
	repo := newFakeRepo()
	res := NewResolver(repo, stubValidator{"tok": {Subject: "sub-1", Email: "a@example.com"}}, "sessionid")

	first, err := res.Resolve(newRequest("", "Bearer tok"))
	require.NoError(t, err)
	second, err := res.Resolve(newRequest("", "tok"))
	require.NoError(t, err)

	assert.Equal(t, first.ID, second.ID)
	assert.Len(t, repo.bySubject, 1)
}

func TestResolveTokenConcurrentFirstUse(t *testing.T) {
	repo := newFakeRepo()
	res := NewResolver(repo, stubValidator{"tok": {Subject: "sub-1"}}, "sessionid")

	var wg sync.WaitGroup
	ids := make([]int64, 10)
	for i := range ids {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			u, err := res.Resolve(newRequest("", "Bearer tok"))
			assert.NoError(t, err)
			ids[i] = u.ID
		}(i)
	}
	wg.Wait()

	for _, id := range ids {
		assert.Equal(t, ids[0], id)
	}
	assert.Len(t, repo.bySubject, 1)
}

func TestResolveRejections(t *testing.T) {
	res := NewResolver(newFakeRepo(), stubValidator{
		"denied": {Error: "subscription lapsed"},
		"nosub":  {Email: "x@example.com"},
	}, "sessionid")

	tests := []struct {
		name string
		req  *http.Request
	}{
		{"no credentials", newRequest("", "")},
		{"unknown session only", newRequest("nope", "")},
		{"authority error", newRequest("", "Bearer denied")},
		{"missing subject", newRequest("", "Bearer nosub")},
		{"garbage token", newRequest("", "Bearer garbage")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := res.Resolve(tt.req)
			assert.ErrorIs(t, err, ErrNotASubscriber)

			_, ok := res.IsSubscriber(tt.req)
			assert.False(t, ok)
		})
	}
}

func TestResolveProvisionFailureIsNotAnAuthError(t *testing.T) {
	repo := newFakeRepo()
	repo.upsertErr = errors.New("connection reset")
	res := NewResolver(repo, stubValidator{"tok": {Subject: "sub-1"}}, "sessionid")

	_, err := res.Resolve(newRequest("", "Bearer tok"))
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotASubscriber)

	_, ok := res.IsSubscriber(newRequest("", "Bearer tok"))
	assert.False(t, ok)
}

func TestIsSubscriber(t *testing.T) {
	repo := newFakeRepo()
	repo.sessions["abc"] = model.User{ID: 3}
	res := NewResolver(repo, stubValidator{}, "sessionid")

	user, ok := res.IsSubscriber(newRequest("abc", ""))
	assert.True(t, ok)
	assert.Equal(t, int64(3), user.ID)
}
