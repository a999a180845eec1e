package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"plusnotify/internal/notification/model"
	"plusnotify/pkg/logger"

	"github.com/lib/pq"
)

type NotificationRepository struct {
	DB *sql.DB
}

func NewNotificationRepository(db *sql.DB) *NotificationRepository {
	return &NotificationRepository{DB: db}
}

// CreateContent returns the existing content with the same text, title and
// type, or inserts a new one.
func (r *NotificationRepository) CreateContent(ctx context.Context, c model.Content) (model.Content, error) {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO notification_data (title, text, type, page_url) VALUES ($1, $2, $3, $4)
		ON CONFLICT (title, type, md5(text)) DO UPDATE SET type = EXCLUDED.type
		RETURNING id, page_url, created`, c.Title, c.Text, c.Type, c.PageURL).
		Scan(&c.ID, &c.PageURL, &c.Created)
	if err != nil {
		logger.Sugar.Errorf("Failed to create notification data %q: %v", c.Title, err)
	}
	return c, err
}

// Deliver inserts one delivery per entry of userIDs, duplicates included.
// pageURL is stored on each delivery, since content rows are shared.
func (r *NotificationRepository) Deliver(ctx context.Context, contentID int64, pageURL string, userIDs []int64) (int64, error) {
	result, err := r.DB.ExecContext(ctx, `
		INSERT INTO notifications (notification_id, user_id, page_url)
		SELECT $1, unnest($2::bigint[]), $3`, contentID, pq.Array(userIDs), pageURL)
	if err != nil {
		logger.Sugar.Errorf("Failed to deliver notification %d: %v", contentID, err)
		return 0, err
	}
	return result.RowsAffected()
}

func (r *NotificationRepository) List(ctx context.Context, userID int64, q model.ListQuery) ([]model.View, error) {
	query, args := buildListQuery(userID, q)

	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to list notifications for user %d: %v", userID, err)
		return nil, err
	}
	defer rows.Close()

	var views []model.View
	for rows.Next() {
		var v model.View
		if err := rows.Scan(&v.ID, &v.Deleted, &v.Created, &v.Title, &v.Text, &v.Read, &v.URL, &v.Starred); err != nil {
			return nil, fmt.Errorf("scan notification: %w", err)
		}
		views = append(views, v)
	}
	return views, rows.Err()
}

func buildListQuery(userID int64, q model.ListQuery) (string, []any) {
	var sb strings.Builder
	args := []any{userID}

	sb.WriteString(`SELECT n.id, n.deleted, d.created, d.title, d.text, n.read, n.page_url, n.starred
		FROM notifications n JOIN notification_data d ON d.id = n.notification_id
		WHERE n.user_id = $1 AND n.deleted = FALSE`)

	if q.Filters.Starred != nil {
		args = append(args, *q.Filters.Starred)
		fmt.Fprintf(&sb, " AND n.starred = $%d", len(args))
	}
	if q.Filters.Type != "" {
		args = append(args, q.Filters.Type)
		fmt.Fprintf(&sb, " AND d.type = $%d", len(args))
	}

	if q.Sort == model.SortTitle {
		sb.WriteString(" ORDER BY d.title ASC, n.id ASC")
	} else {
		sb.WriteString(" ORDER BY d.created DESC, n.id DESC")
	}

	args = append(args, q.Limit, q.Offset)
	fmt.Fprintf(&sb, " LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return sb.String(), args
}

// MarkRead marks the user's unread deliveries as read, only id when it is
// not nil.
func (r *NotificationRepository) MarkRead(ctx context.Context, userID int64, id *int64) (int64, error) {
	query := `UPDATE notifications SET read = TRUE WHERE user_id = $1 AND read = FALSE AND deleted = FALSE`
	args := []any{userID}
	if id != nil {
		query += ` AND id = $2`
		args = append(args, *id)
	}
	return r.exec(ctx, "mark read", query, args...)
}

func (r *NotificationRepository) ToggleStar(ctx context.Context, userID, id int64) (int64, error) {
	return r.exec(ctx, "toggle star", `
		UPDATE notifications SET starred = NOT starred
		WHERE id = $1 AND user_id = $2 AND deleted = FALSE`, id, userID)
}

func (r *NotificationRepository) SetStarred(ctx context.Context, userID int64, ids []int64, starred bool) (int64, error) {
	return r.exec(ctx, "set starred", `
		UPDATE notifications SET starred = $3
		WHERE user_id = $1 AND id = ANY($2) AND deleted = FALSE`, userID, pq.Array(ids), starred)
}

func (r *NotificationRepository) SetDeleted(ctx context.Context, userID int64, ids []int64, deleted bool) (int64, error) {
	return r.exec(ctx, "set deleted", `
		UPDATE notifications SET deleted = $3
		WHERE user_id = $1 AND id = ANY($2)`, userID, pq.Array(ids), deleted)
}

func (r *NotificationRepository) exec(ctx context.Context, op, query string, args ...any) (int64, error) {
	result, err := r.DB.ExecContext(ctx, query, args...)
	if err != nil {
		logger.Sugar.Errorf("Failed to %s: %v", op, err)
		return 0, err
	}
	return result.RowsAffected()
}

// ClaimChanges reports whether digest was recorded by this call. A digest
// already present means the batch was published before.
func (r *NotificationRepository) ClaimChanges(ctx context.Context, digest string) (bool, error) {
	n, err := r.exec(ctx, "claim changes", `
		INSERT INTO processed_changes (digest) VALUES ($1)
		ON CONFLICT (digest) DO NOTHING`, digest)
	return n == 1, err
}

func (r *NotificationRepository) ReleaseChanges(ctx context.Context, digest string) error {
	_, err := r.exec(ctx, "release changes", `DELETE FROM processed_changes WHERE digest = $1`, digest)
	return err
}
