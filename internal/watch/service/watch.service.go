package service

import (
	"context"
	"database/sql"
	"errors"

	"plusnotify/internal/watch/model"
)

var ErrMissingTitle = errors.New("missing title")

type Repository interface {
	GetOrCreate(ctx context.Context, url, title, path string) (model.Target, error)
	AddSubscriber(ctx context.Context, watchID, userID int64) error
	RemoveSubscriber(ctx context.Context, userID int64, urls []string) (int64, error)
	ListForSubscriber(ctx context.Context, userID int64, limit, offset int) ([]model.Target, error)
	Find(ctx context.Context, url string, userID int64) (model.Target, error)
	FanOutTargets(ctx context.Context, url string) ([]model.Target, error)
	TargetForPath(ctx context.Context, path string) (model.Target, error)
}

type WatchService struct {
	Repo Repository
}

func NewWatchService(repo Repository) *WatchService {
	return &WatchService{Repo: repo}
}

// Watch subscribes the user to (url, title, path), creating the target on
// first use. Watching twice is a no-op.
func (s *WatchService) Watch(ctx context.Context, userID int64, url string, req model.WatchRequest) (model.Target, error) {
	if req.Title == "" {
		return model.Target{}, ErrMissingTitle
	}
	target, err := s.Repo.GetOrCreate(ctx, url, req.Title, req.Path)
	if err != nil {
		return model.Target{}, err
	}
	if err := s.Repo.AddSubscriber(ctx, target.ID, userID); err != nil {
		return model.Target{}, err
	}
	return target, nil
}

func (s *WatchService) Status(ctx context.Context, userID int64, url string) (string, error) {
	_, ok, err := s.Find(ctx, url, userID)
	if err != nil {
		return "", err
	}
	if ok {
		return model.StatusMajor, nil
	}
	return model.StatusUnwatched, nil
}

func (s *WatchService) Find(ctx context.Context, url string, userID int64) (model.Target, bool, error) {
	return found(s.Repo.Find(ctx, url, userID))
}

func (s *WatchService) Watched(ctx context.Context, userID int64, limit, offset int) ([]model.Target, error) {
	return s.Repo.ListForSubscriber(ctx, userID, limit, offset)
}

// UnwatchMany drops the user from every target on the given urls. Urls the
// user does not watch are skipped.
func (s *WatchService) UnwatchMany(ctx context.Context, userID int64, urls []string) error {
	if len(urls) == 0 {
		return nil
	}
	_, err := s.Repo.RemoveSubscriber(ctx, userID, urls)
	return err
}

func (s *WatchService) FanOutTargets(ctx context.Context, url string) ([]model.Target, error) {
	return s.Repo.FanOutTargets(ctx, url)
}

func (s *WatchService) TargetForPath(ctx context.Context, path string) (model.Target, bool, error) {
	return found(s.Repo.TargetForPath(ctx, path))
}

func found(t model.Target, err error) (model.Target, bool, error) {
	if errors.Is(err, sql.ErrNoRows) {
		return model.Target{}, false, nil
	}
	if err != nil {
		return model.Target{}, false, err
	}
	return t, true, nil
}
