package postgres

import (
	"context"
	"errors"

	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// TrackingRepo implements TrackingRepository using PostgreSQL.
type TrackingRepo struct{ db *DB }

// NewTrackingRepo constructs a tracking repository.
func NewTrackingRepo(db *DB) *TrackingRepo { return &TrackingRepo{db: db} }

// Get selects the tracking row of a user.
func (r *TrackingRepo) Get(ctx context.Context, userID uuid.UUID) (*model.TrackingRecord, error) {
	const q = `SELECT id, articles, clicks FROM articles_seen WHERE id=$1`
	var rec model.TrackingRecord
	if err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&rec.UserID, &rec.Articles, &rec.Clicks); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, errs.ErrNotFound
		}
		return nil, storageErr("get tracking", err)
	}
	return &rec, nil
}

// RecordClick upserts the row: the URL is appended only when absent and
// clicks is incremented relative to the stored value, so concurrent clicks
// cannot overwrite each other.
func (r *TrackingRepo) RecordClick(ctx context.Context, userID uuid.UUID, url string) (*model.TrackingRecord, error) {
	const q = `
INSERT INTO articles_seen AS s (id, articles, clicks)
VALUES ($1, ARRAY[$2::text], 1)
ON CONFLICT (id) DO UPDATE SET
  articles = CASE WHEN $2::text = ANY(s.articles) THEN s.articles ELSE array_append(s.articles, $2::text) END,
  clicks = s.clicks + 1
RETURNING id, articles, clicks`
	var rec model.TrackingRecord
	if err := r.db.Pool.QueryRow(ctx, q, userID, url).Scan(&rec.UserID, &rec.Articles, &rec.Clicks); err != nil {
		if isForeignKeyViolation(err) {
			return nil, errs.ErrNotFound
		}
		return nil, storageErr("record click", err)
	}
	return &rec, nil
}

// List returns every tracking row.
func (r *TrackingRepo) List(ctx context.Context) ([]model.TrackingRecord, error) {
	const q = `SELECT id, articles, clicks FROM articles_seen`
	rows, err := r.db.Pool.Query(ctx, q)
	if err != nil {
		return nil, storageErr("list tracking", err)
	}
	defer rows.Close()

	var out []model.TrackingRecord
	for rows.Next() {
		var rec model.TrackingRecord
		if err = rows.Scan(&rec.UserID, &rec.Articles, &rec.Clicks); err != nil {
			return nil, storageErr("list tracking", err)
		}
		out = append(out, rec)
	}
	return out, storageErr("list tracking", rows.Err())
}
