package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"plusnotify/internal/watch/model"
	"plusnotify/pkg/logger"

	"github.com/lib/pq"
)

const targetsWithSubscribers = `
	SELECT w.id, w.url, w.title, w.path,
		COALESCE(array_agg(wu.user_id ORDER BY wu.user_id) FILTER (WHERE wu.user_id IS NOT NULL), '{}')
	FROM watches w LEFT JOIN watch_users wu ON wu.watch_id = w.id`

type WatchRepository struct {
	DB *sql.DB
}

func NewWatchRepository(db *sql.DB) *WatchRepository {
	return &WatchRepository{DB: db}
}

// GetOrCreate returns the target for (url, title, path), inserting it if
// needed. The no-op update makes RETURNING yield the existing row.
func (r *WatchRepository) GetOrCreate(ctx context.Context, url, title, path string) (model.Target, error) {
	t := model.Target{}
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO watches (url, title, path) VALUES ($1, $2, $3)
		ON CONFLICT (url, title, path) DO UPDATE SET url = EXCLUDED.url
		RETURNING id, url, title, path`, url, title, path).
		Scan(&t.ID, &t.URL, &t.Title, &t.Path)
	if err != nil {
		logger.Sugar.Errorf("Failed to get or create watch %s: %v", url, err)
	}
	return t, err
}

func (r *WatchRepository) AddSubscriber(ctx context.Context, watchID, userID int64) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO watch_users (watch_id, user_id) VALUES ($1, $2)
		ON CONFLICT (watch_id, user_id) DO NOTHING`, watchID, userID)
	if err != nil {
		logger.Sugar.Errorf("Failed to add user %d to watch %d: %v", userID, watchID, err)
	}
	return err
}

func (r *WatchRepository) RemoveSubscriber(ctx context.Context, userID int64, urls []string) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `
		DELETE FROM watch_users
		WHERE user_id = $1 AND watch_id IN (SELECT id FROM watches WHERE url = ANY($2))`,
		userID, pq.Array(urls))
	if err != nil {
		logger.Sugar.Errorf("Failed to unwatch for user %d: %v", userID, err)
		return 0, err
	}
	return result.RowsAffected()
}

func (r *WatchRepository) ListForSubscriber(ctx context.Context, userID int64, limit, offset int) ([]model.Target, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT w.id, w.url, w.title, w.path
		FROM watches w JOIN watch_users wu ON wu.watch_id = w.id
		WHERE wu.user_id = $1
		ORDER BY w.id DESC
		LIMIT $2 OFFSET $3`, userID, limit, offset)
	if err != nil {
		logger.Sugar.Errorf("Failed to list watches for user %d: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var targets []model.Target
	for rows.Next() {
		var t model.Target
		if err := rows.Scan(&t.ID, &t.URL, &t.Title, &t.Path); err != nil {
			return nil, fmt.Errorf("scan watch: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// Find returns the user's first watch on url, or sql.ErrNoRows.
func (r *WatchRepository) Find(ctx context.Context, url string, userID int64) (model.Target, error) {
	var t model.Target
	err := r.DB.QueryRowContext(ctx, `
		SELECT w.id, w.url, w.title, w.path
		FROM watches w JOIN watch_users wu ON wu.watch_id = w.id
		WHERE w.url = $1 AND wu.user_id = $2
		ORDER BY w.id
		LIMIT 1`, url, userID).
		Scan(&t.ID, &t.URL, &t.Title, &t.Path)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Sugar.Errorf("Failed to find watch %s for user %d: %v", url, userID, err)
	}
	return t, err
}

// FanOutTargets returns every target on url with its subscriber ids.
func (r *WatchRepository) FanOutTargets(ctx context.Context, url string) ([]model.Target, error) {
	rows, err := r.DB.QueryContext(ctx, targetsWithSubscribers+`
		WHERE w.url = $1
		GROUP BY w.id
		ORDER BY w.id`, url)
	if err != nil {
		logger.Sugar.Errorf("Failed to load watchers of %s: %v", url, err)
		return nil, err
	}
	defer rows.Close()

	var targets []model.Target
	for rows.Next() {
		var t model.Target
		if err := rows.Scan(&t.ID, &t.URL, &t.Title, &t.Path, pq.Array(&t.Subscribers)); err != nil {
			return nil, fmt.Errorf("scan watch: %w", err)
		}
		targets = append(targets, t)
	}
	return targets, rows.Err()
}

// TargetForPath returns the oldest target with the given path, or
// sql.ErrNoRows.
func (r *WatchRepository) TargetForPath(ctx context.Context, path string) (model.Target, error) {
	var t model.Target
	err := r.DB.QueryRowContext(ctx, targetsWithSubscribers+`
		WHERE w.path = $1
		GROUP BY w.id
		ORDER BY w.id
		LIMIT 1`, path).
		Scan(&t.ID, &t.URL, &t.Title, &t.Path, pq.Array(&t.Subscribers))
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Sugar.Errorf("Failed to load watch for path %s: %v", path, err)
	}
	return t, err
}
