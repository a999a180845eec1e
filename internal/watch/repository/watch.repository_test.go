package repository

import (
	"context"
	"database/sql"
	"testing"

	"plusnotify/internal/watch/model"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMock(t *testing.T) (*WatchRepository, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return NewWatchRepository(db), mock
}

func TestGetOrCreate(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`INSERT INTO watches \(url, title, path\) VALUES \(\$1, \$2, \$3\) ON CONFLICT \(url, title, path\) DO UPDATE`).
		WithArgs("/css", "CSS", "css").
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "title", "path"}).AddRow(int64(3), "/css", "CSS", "css"))

	target, err := repo.GetOrCreate(context.Background(), "/css", "CSS", "css")
	require.NoError(t, err)
	assert.Equal(t, model.Target{ID: 3, URL: "/css", Title: "CSS", Path: "css"}, target)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAddSubscriberIgnoresDuplicates(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(`INSERT INTO watch_users \(watch_id, user_id\) VALUES \(\$1, \$2\) ON CONFLICT \(watch_id, user_id\) DO NOTHING`).
		WithArgs(int64(3), int64(9)).
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.AddSubscriber(context.Background(), 3, 9))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestRemoveSubscriber(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectExec(`DELETE FROM watch_users WHERE user_id = \$1 AND watch_id IN \(SELECT id FROM watches WHERE url = ANY\(\$2\)\)`).
		WithArgs(int64(9), pq.Array([]string{"/a", "/b"})).
		WillReturnResult(sqlmock.NewResult(0, 1))

	n, err := repo.RemoveSubscriber(context.Background(), 9, []string{"/a", "/b"})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestListForSubscriber(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`FROM watches w JOIN watch_users wu ON wu.watch_id = w.id WHERE wu.user_id = \$1 ORDER BY w.id DESC LIMIT \$2 OFFSET \$3`).
		WithArgs(int64(9), 20, 0).
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "title", "path"}).
			AddRow(int64(2), "/b", "B", "").
			AddRow(int64(1), "/a", "A", "a"))

	targets, err := repo.ListForSubscriber(context.Background(), 9, 20, 0)
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, "/b", targets[0].URL)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFindMissing(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`WHERE w.url = \$1 AND wu.user_id = \$2`).
		WithArgs("/a", int64(9)).
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "title", "path"}))

	_, err := repo.Find(context.Background(), "/a", 9)
	assert.ErrorIs(t, err, sql.ErrNoRows)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestFanOutTargets(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`array_agg\(wu.user_id ORDER BY wu.user_id\).*WHERE w.url = \$1 GROUP BY w.id ORDER BY w.id`).
		WithArgs("/css").
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "title", "path", "subscribers"}).
			AddRow(int64(1), "/css", "CSS", "css", "{1,2,3}").
			AddRow(int64(2), "/css", "CSS reference", "css", "{}"))

	targets, err := repo.FanOutTargets(context.Background(), "/css")
	require.NoError(t, err)
	require.Len(t, targets, 2)
	assert.Equal(t, []int64{1, 2, 3}, targets[0].Subscribers)
	assert.Empty(t, targets[1].Subscribers)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTargetForPath(t *testing.T) {
	repo, mock := newMock(t)

	mock.ExpectQuery(`WHERE w.path = \$1 GROUP BY w.id ORDER BY w.id LIMIT 1`).
		WithArgs("api.fetch").
		WillReturnRows(sqlmock.NewRows([]string{"id", "url", "title", "path", "subscribers"}).
			AddRow(int64(4), "/fetch", "fetch()", "api.fetch", "{7}"))

	target, err := repo.TargetForPath(context.Background(), "api.fetch")
	require.NoError(t, err)
	assert.Equal(t, model.Target{ID: 4, URL: "/fetch", Title: "fetch()", Path: "api.fetch", Subscribers: []int64{7}}, target)
	assert.NoError(t, mock.ExpectationsWereMet())
}
