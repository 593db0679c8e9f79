package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/metrics"
	"github.com/and161185/newsreader/internal/model"
	"github.com/and161185/newsreader/internal/repository"
)

// TrackingService records article clicks and reports reading stats.
type TrackingService interface {
	// RecordClick marks url seen and counts the click; returns refreshed stats.
	RecordClick(ctx context.Context, userID uuid.UUID, url string) (model.TrackingStats, error)
	// Stats returns seen/click counters, zeros when the user has no row.
	Stats(ctx context.Context, userID uuid.UUID) (model.TrackingStats, error)
}

type TrackingServiceImpl struct {
	repo repository.TrackingRepository
}

// NewTrackingService constructs TrackingService.
func NewTrackingService(repo repository.TrackingRepository) *TrackingServiceImpl {
	return &TrackingServiceImpl{repo: repo}
}

// RecordClick delegates to a single atomic repository write.
func (s *TrackingServiceImpl) RecordClick(ctx context.Context, userID uuid.UUID, url string) (model.TrackingStats, error) {
	if userID == uuid.Nil || url == "" {
		return model.TrackingStats{}, fmt.Errorf("%w: userID/article url", errs.ErrInvalidRequest)
	}
	rec, err := s.repo.RecordClick(ctx, userID, url)
	if err != nil {
		return model.TrackingStats{}, err
	}
	metrics.ClicksTotal.Inc()
	return rec.Stats(), nil
}

// Stats is a pure read.
func (s *TrackingServiceImpl) Stats(ctx context.Context, userID uuid.UUID) (model.TrackingStats, error) {
	if userID == uuid.Nil {
		return model.TrackingStats{}, fmt.Errorf("%w: empty userID", errs.ErrInvalidRequest)
	}
	rec, err := s.repo.Get(ctx, userID)
	if errors.Is(err, errs.ErrNotFound) {
		return model.TrackingStats{}, nil
	}
	if err != nil {
		return model.TrackingStats{}, err
	}
	return rec.Stats(), nil
}
