package testutil

import (
	"cmp"
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"plusnotify/internal/notification/model"
)

var epoch = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// NotificationStore hands out increasing ids and creation times, so the
// default ordering matches insertion order reversed.
type NotificationStore struct {
	mu         sync.Mutex
	contents   []model.Content
	deliveries []model.Delivery
	processed  map[string]bool
}

func NewNotificationStore() *NotificationStore {
	return &NotificationStore{processed: map[string]bool{}}
}

func (s *NotificationStore) CreateContent(_ context.Context, c model.Content) (model.Content, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createContent(c), nil
}

func (s *NotificationStore) createContent(c model.Content) model.Content {
	for _, existing := range s.contents {
		if existing.Text == c.Text && existing.Title == c.Title && existing.Type == c.Type {
			return existing
		}
	}
	c.ID = int64(len(s.contents) + 1)
	c.Created = epoch.Add(time.Duration(c.ID) * time.Minute)
	s.contents = append(s.contents, c)
	return c
}

func (s *NotificationStore) Deliver(_ context.Context, contentID int64, pageURL string, userIDs []int64) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, uid := range userIDs {
		s.deliveries = append(s.deliveries, model.Delivery{
			ID:        int64(len(s.deliveries) + 1),
			UserID:    uid,
			ContentID: contentID,
			PageURL:   pageURL,
		})
	}
	return int64(len(userIDs)), nil
}

// Seed creates n distinct notifications for userID and returns their ids
// in creation order.
func (s *NotificationStore) Seed(userID int64, n int) []int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	ids := make([]int64, 0, n)
	for i := 0; i < n; i++ {
		c := s.createContent(model.Content{
			Title:   fmt.Sprintf("Notification %03d", len(s.contents)+1),
			Text:    "changed",
			Type:    model.TypeContent,
			PageURL: "/en-US/docs/Web",
		})
		d := model.Delivery{ID: int64(len(s.deliveries) + 1), UserID: userID, ContentID: c.ID, PageURL: c.PageURL}
		s.deliveries = append(s.deliveries, d)
		ids = append(ids, d.ID)
	}
	return ids
}

// Mutate applies fn to a stored delivery.
func (s *NotificationStore) Mutate(id int64, fn func(*model.Delivery)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i := range s.deliveries {
		if s.deliveries[i].ID == id {
			fn(&s.deliveries[i])
		}
	}
}

func (s *NotificationStore) Deliveries() []model.Delivery {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.deliveries)
}

func (s *NotificationStore) Contents() []model.Content {
	s.mu.Lock()
	defer s.mu.Unlock()
	return slices.Clone(s.contents)
}

func (s *NotificationStore) List(_ context.Context, userID int64, q model.ListQuery) ([]model.View, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var views []model.View
	for _, d := range s.deliveries {
		c := s.contents[d.ContentID-1]
		if d.UserID != userID || d.Deleted {
			continue
		}
		if q.Filters.Starred != nil && d.Starred != *q.Filters.Starred {
			continue
		}
		if q.Filters.Type != "" && c.Type != q.Filters.Type {
			continue
		}
		views = append(views, model.View{
			ID:      d.ID,
			Deleted: d.Deleted,
			Created: c.Created,
			Title:   c.Title,
			Text:    c.Text,
			Read:    d.Read,
			URL:     d.PageURL,
			Starred: d.Starred,
		})
	}

	if q.Sort == model.SortTitle {
		slices.SortStableFunc(views, func(a, b model.View) int {
			return cmp.Or(cmp.Compare(a.Title, b.Title), cmp.Compare(a.ID, b.ID))
		})
	} else {
		slices.SortStableFunc(views, func(a, b model.View) int {
			return cmp.Or(b.Created.Compare(a.Created), cmp.Compare(b.ID, a.ID))
		})
	}
	return page(views, q.Limit, q.Offset), nil
}

func (s *NotificationStore) MarkRead(_ context.Context, userID int64, id *int64) (int64, error) {
	return s.update(func(d *model.Delivery) bool {
		return d.UserID == userID && !d.Read && !d.Deleted && (id == nil || d.ID == *id)
	}, func(d *model.Delivery) { d.Read = true })
}

func (s *NotificationStore) ToggleStar(_ context.Context, userID, id int64) (int64, error) {
	return s.update(func(d *model.Delivery) bool {
		return d.UserID == userID && d.ID == id && !d.Deleted
	}, func(d *model.Delivery) { d.Starred = !d.Starred })
}

func (s *NotificationStore) SetStarred(_ context.Context, userID int64, ids []int64, starred bool) (int64, error) {
	return s.update(func(d *model.Delivery) bool {
		return d.UserID == userID && slices.Contains(ids, d.ID) && !d.Deleted
	}, func(d *model.Delivery) { d.Starred = starred })
}

func (s *NotificationStore) SetDeleted(_ context.Context, userID int64, ids []int64, deleted bool) (int64, error) {
	return s.update(func(d *model.Delivery) bool {
		return d.UserID == userID && slices.Contains(ids, d.ID)
	}, func(d *model.Delivery) { d.Deleted = deleted })
}

func (s *NotificationStore) update(match func(*model.Delivery) bool, apply func(*model.Delivery)) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for i := range s.deliveries {
		if match(&s.deliveries[i]) {
			apply(&s.deliveries[i])
			n++
		}
	}
	return n, nil
}

func (s *NotificationStore) ClaimChanges(_ context.Context, digest string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.processed[digest] {
		return false, nil
	}
	s.processed[digest] = true
	return true, nil
}

func (s *NotificationStore) ReleaseChanges(_ context.Context, digest string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.processed, digest)
	return nil
}
