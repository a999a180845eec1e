package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"plusnotify/internal/identity/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetBySession(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	mock.ExpectQuery(`SELECT u.id, u.subject, u.email, u.created_at FROM sessions s JOIN users u`).
		WithArgs("abc").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject", "email", "created_at"}).
			AddRow(int64(4), "sub-4", "a@example.com", created))

	user, err := NewIdentityRepository(db).GetBySession(context.Background(), "abc")
	require.NoError(t, err)
	assert.Equal(t, model.User{ID: 4, Subject: "sub-4", Email: "a@example.com", CreatedAt: created}, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestGetBySessionMissing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`FROM sessions s JOIN users u`).
		WithArgs("gone").
		WillReturnError(sql.ErrNoRows)

	_, err = NewIdentityRepository(db).GetBySession(context.Background(), "gone")
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUpsertSubscriber(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery(`INSERT INTO users \(subject, email\) VALUES \(\$1, \$2\)\s+ON CONFLICT \(subject\) DO UPDATE`).
		WithArgs("sub-9", "n@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id", "subject", "email", "created_at"}).
			AddRow(int64(9), "sub-9", "n@example.com", time.Now()))

	user, err := NewIdentityRepository(db).UpsertSubscriber(context.Background(),
		model.Payload{Subject: "sub-9", Email: "n@example.com"})
	require.NoError(t, err)
	assert.Equal(t, int64(9), user.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}
