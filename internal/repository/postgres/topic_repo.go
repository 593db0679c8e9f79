package postgres

import (
	"context"
	"errors"

	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// TopicRepo implements TopicRepository using PostgreSQL.
type TopicRepo struct{ db *DB }

// NewTopicRepo constructs a topics repository.
func NewTopicRepo(db *DB) *TopicRepo { return &TopicRepo{db: db} }

// Get selects the topics row of a user.
func (r *TopicRepo) Get(ctx context.Context, id uuid.UUID) (*model.PreferredTopics, error) {
	const q = `SELECT id, topics FROM preferred_topics WHERE id=$1`
	var pt model.PreferredTopics
	if err := r.db.Pool.QueryRow(ctx, q, id).Scan(&pt.UserID, &pt.Topics); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, storageErr("get topics", err)
	}
	return &pt, nil
}

// Replace overwrites the whole topic list.
func (r *TopicRepo) Replace(ctx context.Context, id uuid.UUID, topics []string) error {
	const q = `
INSERT INTO preferred_topics (id, topics)
VALUES ($1, $2)
ON CONFLICT (id) DO UPDATE SET topics = EXCLUDED.topics`
	if topics == nil {
		topics = []string{}
	}
	_, err := r.db.Pool.Exec(ctx, q, id, topics)
	if isForeignKeyViolation(err) {
		return errs.ErrNotFound
	}
	return storageErr("replace topics", err)
}

// List returns every topics row.
func (r *TopicRepo) List(ctx context.Context) ([]model.PreferredTopics, error) {
	const q = `SELECT id, topics FROM preferred_topics`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr("list topics", err)
	}
	defer rows.Close()

	var out []model.PreferredTopics
	for rows.Next() {
		var pt model.PreferredTopics
		if err = rows.Scan(&pt.UserID, &pt.Topics); err != nil {
			return nil, storageErr("list topics", err)
		}
		out = append(out, pt)
	}
	return out, storageErr("list topics", rows.Err())
}
