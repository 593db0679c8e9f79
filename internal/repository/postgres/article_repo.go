package postgres

import (
	"context"
	"errors"

	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/model"
	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"
)

// ArticleRepo implements ArticleRepository using PostgreSQL.
// Each user owns one saved_articles row whose ver column guards writes.
type ArticleRepo struct{ db *DB }

// NewArticleRepo constructs a saved-articles repository.
func NewArticleRepo(db *DB) *ArticleRepo { return &ArticleRepo{db: db} }

// Load reads and parses the user's document array.
func (r *ArticleRepo) Load(ctx context.Context, userID uuid.UUID) (*model.Shelf, error) {
	const q = `SELECT articles, ver FROM saved_articles WHERE id=$1`
	var (
		raw []string
		ver int64
	)
	if err := r.db.Pool.QueryRow(ctx, q, userID).Scan(&raw, &ver); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return model.NewShelf(nil, 0), nil
		}
		return nil, storageErr("load articles", err)
	}
	return model.NewShelf(raw, ver), nil
}

// Store writes the whole array if nobody else wrote since shelf.Version.
func (r *ArticleRepo) Store(ctx context.Context, userID uuid.UUID, shelf *model.Shelf) (int64, error) {
	const ins = `
INSERT INTO saved_articles (id, articles, ver)
VALUES ($1, $2, 1)
ON CONFLICT (id) DO NOTHING`
	const upd = `
UPDATE saved_articles
SET articles=$3, ver=ver+1, updated_at=now()
WHERE id=$1 AND ver=$2`

	raw := shelf.Raw()
	if !shelf.Exists() {
		tag, err := r.db.Pool.Exec(ctx, ins, userID, raw)
		if err != nil {
			if isForeignKeyViolation(err) {
				return 0, errs.ErrNotFound
			}
			return 0, storageErr("insert articles", err)
		}
		if tag.RowsAffected() == 0 {
			return 0, errs.ErrVersionConflict
		}
		return 1, nil
	}

	tag, err := r.db.Pool.Exec(ctx, upd, userID, shelf.Version, raw)
	if err != nil {
		return 0, storageErr("update articles", err)
	}
	if tag.RowsAffected() == 0 {
		return 0, errs.ErrVersionConflict
	}
	return shelf.Version + 1, nil
}
