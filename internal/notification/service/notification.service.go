package service

import (
	"context"
	"errors"

	"plusnotify/internal/notification/model"
	watchmodel "plusnotify/internal/watch/model"
	"plusnotify/pkg/logger"
	"plusnotify/pkg/pagination"
)

var (
	ErrInvalidID   = errors.New("invalid 'id'")
	ErrMissingPage = errors.New("missing page")
	ErrMissingData = errors.New("missing notification data")
)

type Repository interface {
	CreateContent(ctx context.Context, c model.Content) (model.Content, error)
	Deliver(ctx context.Context, contentID int64, pageURL string, userIDs []int64) (int64, error)
	List(ctx context.Context, userID int64, q model.ListQuery) ([]model.View, error)
	MarkRead(ctx context.Context, userID int64, id *int64) (int64, error)
	ToggleStar(ctx context.Context, userID, id int64) (int64, error)
	SetStarred(ctx context.Context, userID int64, ids []int64, starred bool) (int64, error)
	SetDeleted(ctx context.Context, userID int64, ids []int64, deleted bool) (int64, error)
	// ClaimChanges records digest as published and reports false when it
	// already was.
	ClaimChanges(ctx context.Context, digest string) (bool, error)
	ReleaseChanges(ctx context.Context, digest string) error
}

// Watchers is the part of the watch registry the fan-out needs.
type Watchers interface {
	FanOutTargets(ctx context.Context, url string) ([]watchmodel.Target, error)
	TargetForPath(ctx context.Context, path string) (watchmodel.Target, bool, error)
}

type NotificationService struct {
	Repo     Repository
	Watchers Watchers
	Changes  ChangeSource
}

func NewNotificationService(repo Repository, watchers Watchers, changes ChangeSource) *NotificationService {
	return &NotificationService{Repo: repo, Watchers: watchers, Changes: changes}
}

// List returns one page of the user's visible notifications. Offsets are
// positions in the current result, so deleting rows shifts later pages.
func (s *NotificationService) List(ctx context.Context, userID int64, q model.ListQuery) ([]model.View, error) {
	if q.Limit < 1 {
		q.Limit = pagination.DefaultLimit
	}
	if q.Limit > pagination.MaxLimit {
		q.Limit = pagination.MaxLimit
	}
	if q.Offset < 0 {
		q.Offset = 0
	}
	return s.Repo.List(ctx, userID, q)
}

// MarkRead marks one unread notification, or all of them when id is nil.
func (s *NotificationService) MarkRead(ctx context.Context, userID int64, id *int64) error {
	n, err := s.Repo.MarkRead(ctx, userID, id)
	if err != nil {
		return err
	}
	if id != nil && n == 0 {
		return ErrInvalidID
	}
	return nil
}

func (s *NotificationService) ToggleStar(ctx context.Context, userID, id int64) error {
	return requireOne(s.Repo.ToggleStar(ctx, userID, id))
}

// StarMany, UnstarMany and DeleteMany skip ids the user does not own.

func (s *NotificationService) StarMany(ctx context.Context, userID int64, ids []int64) error {
	return s.bulk(ids, func() (int64, error) { return s.Repo.SetStarred(ctx, userID, ids, true) })
}

func (s *NotificationService) UnstarMany(ctx context.Context, userID int64, ids []int64) error {
	return s.bulk(ids, func() (int64, error) { return s.Repo.SetStarred(ctx, userID, ids, false) })
}

func (s *NotificationService) DeleteMany(ctx context.Context, userID int64, ids []int64) error {
	return s.bulk(ids, func() (int64, error) { return s.Repo.SetDeleted(ctx, userID, ids, true) })
}

func (s *NotificationService) Delete(ctx context.Context, userID, id int64) error {
	return requireOne(s.Repo.SetDeleted(ctx, userID, []int64{id}, true))
}

func (s *NotificationService) UndoDelete(ctx context.Context, userID, id int64) error {
	return requireOne(s.Repo.SetDeleted(ctx, userID, []int64{id}, false))
}

func (s *NotificationService) bulk(ids []int64, apply func() (int64, error)) error {
	if len(ids) == 0 {
		return nil
	}
	_, err := apply()
	return err
}

func requireOne(n int64, err error) error {
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrInvalidID
	}
	return nil
}

// Create records a content change on req.Page and delivers it to every
// subscriber of every target on that page. A subscriber watching two
// targets with the same url gets two deliveries.
func (s *NotificationService) Create(ctx context.Context, req model.CreateRequest) (int64, error) {
	if req.Page == "" {
		return 0, ErrMissingPage
	}
	if req.Title == "" || req.Text == "" {
		return 0, ErrMissingData
	}

	targets, err := s.Watchers.FanOutTargets(ctx, req.Page)
	if err != nil {
		return 0, err
	}

	content, err := s.Repo.CreateContent(ctx, model.Content{
		Title:   req.Title,
		Text:    req.Text,
		Type:    model.TypeContent,
		PageURL: req.Page,
	})
	if err != nil {
		return 0, err
	}

	var delivered int64
	for _, target := range targets {
		n, err := s.deliver(ctx, content.ID, req.Page, target.Subscribers)
		delivered += n
		if err != nil {
			return delivered, err
		}
	}
	logger.Sugar.Infof("Delivered notification %d for %s to %d subscribers", content.ID, req.Page, delivered)
	return delivered, nil
}

func (s *NotificationService) deliver(ctx context.Context, contentID int64, pageURL string, userIDs []int64) (int64, error) {
	if len(userIDs) == 0 {
		return 0, nil
	}
	return s.Repo.Deliver(ctx, contentID, pageURL, userIDs)
}
