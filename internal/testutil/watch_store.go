// Package testutil provides in-memory stores with the same row semantics as
// the postgres repositories, for service and handler tests.
package testutil

import (
	"context"
	"database/sql"
	"slices"
	"sync"

	"plusnotify/internal/watch/model"
)

type WatchStore struct {
	mu      sync.Mutex
	targets []model.Target
	members map[int64][]int64
}

func NewWatchStore() *WatchStore {
	return &WatchStore{members: map[int64][]int64{}}
}

func (s *WatchStore) GetOrCreate(_ context.Context, url, title, path string) (model.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.targets {
		if t.URL == url && t.Title == title && t.Path == path {
			return t, nil
		}
	}
	t := model.Target{ID: int64(len(s.targets) + 1), URL: url, Title: title, Path: path}
	s.targets = append(s.targets, t)
	return t, nil
}

func (s *WatchStore) AddSubscriber(_ context.Context, watchID, userID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !slices.Contains(s.members[watchID], userID) {
		s.members[watchID] = append(s.members[watchID], userID)
	}
	return nil
}

func (s *WatchStore) RemoveSubscriber(_ context.Context, userID int64, urls []string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for _, t := range s.targets {
		if !slices.Contains(urls, t.URL) {
			continue
		}
		before := len(s.members[t.ID])
		s.members[t.ID] = slices.DeleteFunc(s.members[t.ID], func(id int64) bool { return id == userID })
		n += int64(before - len(s.members[t.ID]))
	}
	return n, nil
}

func (s *WatchStore) ListForSubscriber(_ context.Context, userID int64, limit, offset int) ([]model.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Target
	for i := len(s.targets) - 1; i >= 0; i-- {
		if slices.Contains(s.members[s.targets[i].ID], userID) {
			out = append(out, s.targets[i])
		}
	}
	return page(out, limit, offset), nil
}

func (s *WatchStore) Find(_ context.Context, url string, userID int64) (model.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.targets {
		if t.URL == url && slices.Contains(s.members[t.ID], userID) {
			return t, nil
		}
	}
	return model.Target{}, sql.ErrNoRows
}

func (s *WatchStore) FanOutTargets(_ context.Context, url string) ([]model.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []model.Target
	for _, t := range s.targets {
		if t.URL == url {
			out = append(out, s.withMembers(t))
		}
	}
	return out, nil
}

func (s *WatchStore) TargetForPath(_ context.Context, path string) (model.Target, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.targets {
		if t.Path == path {
			return s.withMembers(t), nil
		}
	}
	return model.Target{}, sql.ErrNoRows
}

// Targets returns every stored target with its subscribers.
func (s *WatchStore) Targets() []model.Target {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]model.Target, 0, len(s.targets))
	for _, t := range s.targets {
		out = append(out, s.withMembers(t))
	}
	return out
}

func (s *WatchStore) withMembers(t model.Target) model.Target {
	members := slices.Clone(s.members[t.ID])
	slices.Sort(members)
	t.Subscribers = members
	return t
}

func page[T any](items []T, limit, offset int) []T {
	if offset >= len(items) {
		return nil
	}
	items = items[offset:]
	if limit < len(items) {
		items = items[:limit]
	}
	return items
}
