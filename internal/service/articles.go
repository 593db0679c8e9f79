package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"

	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/metrics"
	"github.com/and161185/newsreader/internal/model"
	"github.com/and161185/newsreader/internal/repository"
)

// ArticleService manages a user's saved articles grouped into named collections.
type ArticleService interface {
	// List groups the user's readable saved articles by collection.
	List(ctx context.Context, userID uuid.UUID) (model.Collections, error)
	// Save adds a snapshot of a to the collection unless it is already there.
	Save(ctx context.Context, userID uuid.UUID, a model.SavedArticle, collection string) (model.SaveResult, error)
	// RemoveArticle deletes the (url, collection) entry.
	RemoveArticle(ctx context.Context, userID uuid.UUID, url, collection string) error
	// RemoveCollection deletes every article of the collection.
	RemoveCollection(ctx context.Context, userID uuid.UUID, collection string) error
}

type ArticleServiceImpl struct {
	repo        repository.ArticleRepository
	maxAttempts int
	now         func() time.Time
	log         *zap.Logger
}

// NewArticleService constructs ArticleService. maxAttempts bounds the
// read-modify-write retries after a version conflict.
func NewArticleService(repo repository.ArticleRepository, maxAttempts int, log *zap.Logger) *ArticleServiceImpl {
	if maxAttempts <= 0 {
		maxAttempts = 5
	}
	return &ArticleServiceImpl{repo: repo, maxAttempts: maxAttempts, now: time.Now, log: log}
}

// List returns an empty grouping for users without a row.
func (s *ArticleServiceImpl) List(ctx context.Context, userID uuid.UUID) (model.Collections, error) {
	if userID == uuid.Nil {
		return nil, fmt.Errorf("%w: empty userID", errs.ErrInvalidRequest)
	}
	shelf, err := s.repo.Load(ctx, userID)
	if err != nil {
		return nil, err
	}
	s.noteCorrupt(userID, shelf)
	return shelf.Collections(), nil
}

// Save validation rules:
// - userID set
// - article URL and title set
// - collection name set
func (s *ArticleServiceImpl) Save(ctx context.Context, userID uuid.UUID, a model.SavedArticle, collection string) (model.SaveResult, error) {
	if userID == uuid.Nil || a.URL == "" || a.Title == "" || collection == "" {
		return model.SaveResult{}, fmt.Errorf("%w: userID/article url/title/collection", errs.ErrInvalidRequest)
	}
	a.CollectionName = collection
	a.SavedAt = s.now().UTC()

	var res model.SaveResult
	err := s.mutate(ctx, userID, "save", func(shelf *model.Shelf) (bool, error) {
		added, err := shelf.Add(a)
		if err != nil {
			return false, err
		}
		res.AlreadyExists = !added
		return added, nil
	})
	if err == nil && res.AlreadyExists {
		metrics.RecordShelfWrite("save", "exists")
	}
	return res, err
}

// RemoveArticle reports errs.ErrNotFound when the user has no row.
func (s *ArticleServiceImpl) RemoveArticle(ctx context.Context, userID uuid.UUID, url, collection string) error {
	if userID == uuid.Nil || url == "" || collection == "" {
		return fmt.Errorf("%w: userID/article url/collection", errs.ErrInvalidRequest)
	}
	return s.mutate(ctx, userID, "remove_article", func(shelf *model.Shelf) (bool, error) {
		if !shelf.Exists() {
			return false, errs.ErrNotFound
		}
		return shelf.RemoveArticle(url, collection) > 0, nil
	})
}

// RemoveCollection reports errs.ErrNotFound when the user has no row.
func (s *ArticleServiceImpl) RemoveCollection(ctx context.Context, userID uuid.UUID, collection string) error {
	if userID == uuid.Nil || collection == "" {
		return fmt.Errorf("%w: userID/collection", errs.ErrInvalidRequest)
	}
	return s.mutate(ctx, userID, "remove_collection", func(shelf *model.Shelf) (bool, error) {
		if !shelf.Exists() {
			return false, errs.ErrNotFound
		}
		return shelf.RemoveCollection(collection) > 0, nil
	})
}

// mutate runs load, apply, compare-and-swap store, starting over from a
// fresh read whenever another writer got in first. apply returns false to
// skip the write.
func (s *ArticleServiceImpl) mutate(ctx context.Context, userID uuid.UUID, op string, apply func(*model.Shelf) (bool, error)) error {
	for attempt := 1; ; attempt++ {
		shelf, err := s.repo.Load(ctx, userID)
		if err != nil {
			return err
		}
		write, err := apply(shelf)
		if err != nil || !write {
			return err
		}
		_, err = s.repo.Store(ctx, userID, shelf)
		switch {
		case err == nil:
			metrics.RecordShelfWrite(op, "ok")
			return nil
		case !errors.Is(err, errs.ErrVersionConflict):
			metrics.RecordShelfWrite(op, "error")
			return err
		case attempt >= s.maxAttempts:
			metrics.RecordShelfWrite(op, "conflict")
			s.log.Warn("saved articles write kept conflicting",
				zap.String("op", op), zap.Stringer("user", userID), zap.Int("attempts", attempt))
			return err
		}
		metrics.VersionConflicts.Inc()
		s.log.Debug("saved articles version conflict, retrying",
			zap.String("op", op), zap.Stringer("user", userID), zap.Int("attempt", attempt))
	}
}

func (s *ArticleServiceImpl) noteCorrupt(userID uuid.UUID, shelf *model.Shelf) {
	if n := shelf.Corrupt(); n > 0 {
		metrics.CorruptEntries.Add(float64(n))
		s.log.Warn("skipping unreadable saved articles", zap.Stringer("user", userID), zap.Int("count", n))
	}
}
