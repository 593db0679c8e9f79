package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	pgxmock "github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/require"
)

func newDB(t *testing.T) (*DB, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	return &DB{Pool: mock}, mock
}

var userCols = []string{"id", "news_api", "created_at", "initialized_at"}

func TestUserRepo_Create_OK_and_UniqueViolation(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	now := time.Now().UTC()
	u := &model.User{ID: uuid.Must(uuid.NewV4()), NewsAPIKey: "k1"}

	mock.ExpectQuery(`INSERT INTO users \(id, news_api\) VALUES \(\$1, \$2\) RETURNING created_at`).
		WithArgs(u.ID, u.NewsAPIKey).
		WillReturnRows(pgxmock.NewRows([]string{"created_at"}).AddRow(now))
	require.NoError(t, r.Create(ctx, u))
	require.Equal(t, now, u.CreatedAt)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(u.ID, u.NewsAPIKey).
		WillReturnError(&pgconn.PgError{Code: "23505"})
	require.ErrorIs(t, r.Create(ctx, u), errs.ErrAlreadyExists)

	mock.ExpectQuery(`INSERT INTO users`).
		WithArgs(u.ID, u.NewsAPIKey).
		WillReturnError(errors.New("conn refused"))
	require.ErrorIs(t, r.Create(ctx, u), errs.ErrStorageUnavailable)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByID(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`SELECT id, news_api, created_at, initialized_at FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(id, "key", now, &now))
	u, err := r.GetByID(ctx, id)
	require.NoError(t, err)
	require.Equal(t, id, u.ID)
	require.True(t, u.Initialized())

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, errs.ErrNotFound)

	mock.ExpectQuery(`FROM users WHERE id=\$1`).
		WithArgs(id).
		WillReturnError(context.Canceled)
	_, err = r.GetByID(ctx, id)
	require.ErrorIs(t, err, context.Canceled)
	require.NotErrorIs(t, err, errs.ErrStorageUnavailable)
}

func TestUserRepo_GetByAPIKey(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectQuery(`SELECT id, news_api, created_at, initialized_at FROM users WHERE news_api=\$1`).
		WithArgs("k1").
		WillReturnRows(pgxmock.NewRows(userCols).AddRow(id, "k1", time.Now(), (*time.Time)(nil)))
	u, err := r.GetByAPIKey(ctx, "k1")
	require.NoError(t, err)
	require.Equal(t, "k1", u.NewsAPIKey)
	require.False(t, u.Initialized())

	mock.ExpectQuery(`FROM users WHERE news_api=\$1`).
		WithArgs("nope").
		WillReturnError(pgx.ErrNoRows)
	_, err = r.GetByAPIKey(ctx, "nope")
	require.ErrorIs(t, err, errs.ErrNotFound)
}

func TestUserRepo_EnsureDependents(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	ctx := context.Background()
	id := uuid.Must(uuid.NewV4())

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO preferred_topics \(id, topics\) VALUES \(\$1, '\{\}'\) ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO articles_seen \(id, articles, clicks\) VALUES \(\$1, '\{\}', 0\) ON CONFLICT \(id\) DO NOTHING`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))
	mock.ExpectExec(`UPDATE users SET initialized_at=now\(\) WHERE id=\$1 AND initialized_at IS NULL`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectCommit()
	require.NoError(t, r.EnsureDependents(ctx, id))

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO preferred_topics`).
		WithArgs(id).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO articles_seen`).
		WithArgs(id).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()
	require.ErrorIs(t, r.EnsureDependents(ctx, id), errs.ErrStorageUnavailable)

	mock.ExpectBegin()
	mock.ExpectExec(`INSERT INTO preferred_topics`).
		WithArgs(id).
		WillReturnError(&pgconn.PgError{Code: "23503"})
	mock.ExpectRollback()
	require.ErrorIs(t, r.EnsureDependents(ctx, id), errs.ErrNotFound)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_List(t *testing.T) {
	db, mock := newDB(t)
	defer mock.Close()
	r := NewUserRepo(db)
	a, b := uuid.Must(uuid.NewV4()), uuid.Must(uuid.NewV4())
	now := time.Now()

	mock.ExpectQuery(`SELECT id, news_api, created_at, initialized_at FROM users ORDER BY created_at DESC`).
		WillReturnRows(pgxmock.NewRows(userCols).
			AddRow(a, "ka", now, &now).
			AddRow(b, "kb", now.Add(-time.Hour), (*time.Time)(nil)))
	us, err := r.List(context.Background())
	require.NoError(t, err)
	require.Len(t, us, 2)
	require.Equal(t, a, us[0].ID)
	require.Equal(t, "kb", us[1].NewsAPIKey)

	mock.ExpectQuery(`FROM users ORDER BY`).WillReturnError(errors.New("boom"))
	_, err = r.List(context.Background())
	require.ErrorIs(t, err, errs.ErrStorageUnavailable)
}
