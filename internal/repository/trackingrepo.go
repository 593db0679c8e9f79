package repository

import (
	"context"

	"github.com/and161185/newsreader/internal/model"
	"github.com/gofrs/uuid/v5"
)

// TrackingRepository stores seen-lists and click counters.
type TrackingRepository interface {
	// Get returns the tracking row for a user.
	Get(ctx context.Context, userID uuid.UUID) (*model.TrackingRecord, error)
	// RecordClick appends url to the seen-list unless present and increments
	// clicks, in one statement. It returns the updated record.
	RecordClick(ctx context.Context, userID uuid.UUID, url string) (*model.TrackingRecord, error)
	// List returns every tracking row.
	List(ctx context.Context) ([]model.TrackingRecord, error)
}
