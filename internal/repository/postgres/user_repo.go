package postgres

import (
	"context"
	"errors"

	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// UserRepo implements UserRepository using PostgreSQL.
type UserRepo struct{ db *DB }

// NewUserRepo constructs a user repository.
func NewUserRepo(db *DB) *UserRepo { return &UserRepo{db: db} }

// Create inserts a new user row and fills CreatedAt.
func (r *UserRepo) Create(ctx context.Context, u *model.User) error {
	const q = `
INSERT INTO users (id, news_api)
VALUES ($1, $2)
RETURNING created_at`
	err := r.db.Pool.QueryRow(ctx, q, u.ID, u.NewsAPIKey).Scan(&u.CreatedAt)
	if isUniqueViolation(err) {
		return errs.ErrAlreadyExists
	}
	return storageErr("create user", err)
}

// GetByID selects a user by ID.
func (r *UserRepo) GetByID(ctx context.Context, id uuid.UUID) (*model.User, error) {
	const q = `
SELECT id, news_api, created_at, initialized_at
FROM users WHERE id=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, id))
}

// GetByAPIKey selects a user by credential.
func (r *UserRepo) GetByAPIKey(ctx context.Context, apiKey string) (*model.User, error) {
	const q = `
SELECT id, news_api, created_at, initialized_at
FROM users WHERE news_api=$1`
	return r.scanOne(r.db.Pool.QueryRow(ctx, q, apiKey))
}

func (r *UserRepo) scanOne(row pgx.Row) (*model.User, error) {
	var u model.User
	if err := row.Scan(&u.ID, &u.NewsAPIKey, &u.CreatedAt, &u.InitializedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, storageErr("get user", err)
	}
	return &u, nil
}

// EnsureDependents creates missing topics/tracking rows and stamps initialized_at.
func (r *UserRepo) EnsureDependents(ctx context.Context, id uuid.UUID) (err error) {
	tx, err := r.db.Pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return storageErr("begin", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
			return
		}
		if e := tx.Commit(ctx); e != nil {
			err = storageErr("commit", e)
		}
	}()

	const topics = `INSERT INTO preferred_topics (id, topics) VALUES ($1, '{}') ON CONFLICT (id) DO NOTHING`
	const seen = `INSERT INTO articles_seen (id, articles, clicks) VALUES ($1, '{}', 0) ON CONFLICT (id) DO NOTHING`
	const mark = `UPDATE users SET initialized_at=now() WHERE id=$1 AND initialized_at IS NULL`

	for _, q := range []string{topics, seen, mark} {
		if _, err = tx.Exec(ctx, q, id); err != nil {
			if isForeignKeyViolation(err) {
				return errs.ErrNotFound
			}
			return storageErr("init user rows", err)
		}
	}
	return nil
}

// List returns all users ordered by creation time, newest first.
func (r *UserRepo) List(ctx context.Context) ([]model.User, error) {
	const q = `
SELECT id, news_api, created_at, initialized_at
FROM users
ORDER BY created_at DESC`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr("list users", err)
	}
	defer rows.Close()

	var out []model.User
	for rows.Next() {
		var u model.User
		if err = rows.Scan(&u.ID, &u.NewsAPIKey, &u.CreatedAt, &u.InitializedAt); err != nil {
			return nil, storageErr("list users", err)
		}
		out = append(out, u)
	}
	return out, storageErr("list users", rows.Err())
}
