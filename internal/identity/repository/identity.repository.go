package repository

import (
	"context"
	"database/sql"
	"errors"

	"plusnotify/internal/identity/model"
	"plusnotify/pkg/logger"
)

type IdentityRepository struct {
	DB *sql.DB
}

func NewIdentityRepository(db *sql.DB) *IdentityRepository {
	return &IdentityRepository{DB: db}
}

// GetBySession returns the user owning an unexpired session, or
// sql.ErrNoRows.
func (r *IdentityRepository) GetBySession(ctx context.Context, sessionKey string) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, `
		SELECT u.id, u.subject, u.email, u.created_at
		FROM sessions s JOIN users u ON u.id = s.user_id
		WHERE s.session_key = $1 AND s.expires_at > NOW()`, sessionKey).
		Scan(&u.ID, &u.Subject, &u.Email, &u.CreatedAt)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		logger.Sugar.Errorf("Failed to look up session: %v", err)
	}
	return u, err
}

// UpsertSubscriber creates the user for a validated token payload, or
// refreshes the existing one. The unique subject column keeps concurrent
// first logins from creating two users.
func (r *IdentityRepository) UpsertSubscriber(ctx context.Context, p model.Payload) (model.User, error) {
	var u model.User
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO users (subject, email) VALUES ($1, $2)
		ON CONFLICT (subject) DO UPDATE SET email = EXCLUDED.email
		RETURNING id, subject, email, created_at`, p.Subject, p.Email).
		Scan(&u.ID, &u.Subject, &u.Email, &u.CreatedAt)
	if err != nil {
		logger.Sugar.Errorf("Failed to upsert subscriber %s: %v", p.Subject, err)
	}
	return u, err
}
