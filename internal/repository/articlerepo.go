package repository

import (
	"context"

	"github.com/and161185/newsreader/internal/model"
	"github.com/gofrs/uuid/v5"
)

// ArticleRepository stores each user's saved-article document array as one row.
type ArticleRepository interface {
	// Load returns the user's shelf. A missing row yields an empty shelf
	// with Version 0, not an error.
	Load(ctx context.Context, userID uuid.UUID) (*model.Shelf, error)
	// Store writes the shelf back if the row is still at shelf.Version,
	// inserting it when Version is 0. It returns the new version or
	// errs.ErrVersionConflict.
	Store(ctx context.Context, userID uuid.UUID, shelf *model.Shelf) (int64, error)
}
