// Package service contains application services for users, saved articles,
// click tracking and admin aggregation.
package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/metrics"
	"github.com/and161185/newsreader/internal/model"
	"github.com/and161185/newsreader/internal/repository"
)

// UserService resolves credentials to identities and serves per-user data.
type UserService interface {
	// ResolveOrCreate returns the identity for apiKey, creating it on first use.
	ResolveOrCreate(ctx context.Context, apiKey string) (id uuid.UUID, isNew bool, err error)
	// Fetch joins the user with its topics and tracking rows.
	Fetch(ctx context.Context, id uuid.UUID) (model.UserData, error)
	// UpdateTopics replaces the user's preferred topics.
	UpdateTopics(ctx context.Context, id uuid.UUID, topics []string) error
	// Summary returns library and activity counters for one user.
	Summary(ctx context.Context, id uuid.UUID) (model.UserStats, error)
}

type UserServiceImpl struct {
	users    repository.UserRepository
	topics   repository.TopicRepository
	tracking repository.TrackingRepository
	articles repository.ArticleRepository
	log      *zap.Logger
}

// NewUserService constructs UserService with required dependencies.
func NewUserService(
	users repository.UserRepository,
	topics repository.TopicRepository,
	tracking repository.TrackingRepository,
	articles repository.ArticleRepository,
	log *zap.Logger,
) *UserServiceImpl {
	return &UserServiceImpl{users: users, topics: topics, tracking: tracking, articles: articles, log: log}
}

// ResolveOrCreate looks the credential up and creates a user when it is unseen.
// Losing a concurrent create for the same credential resolves to the winner.
func (s *UserServiceImpl) ResolveOrCreate(ctx context.Context, apiKey string) (uuid.UUID, bool, error) {
	if apiKey == "" {
		return uuid.Nil, false, fmt.Errorf("%w: empty api key", errs.ErrInvalidRequest)
	}

	u, err := s.users.GetByAPIKey(ctx, apiKey)
	switch {
	case err == nil:
		if !u.Initialized() {
			s.bootstrap(ctx, u.ID)
		}
		return u.ID, false, nil
	case !errors.Is(err, errs.ErrNotFound):
		return uuid.Nil, false, err
	}

	id, err := uuid.NewV4()
	if err != nil {
		return uuid.Nil, false, err
	}
	if err := s.users.Create(ctx, &model.User{ID: id, NewsAPIKey: apiKey}); err != nil {
		if !errors.Is(err, errs.ErrAlreadyExists) {
			return uuid.Nil, false, err
		}
		winner, gerr := s.users.GetByAPIKey(ctx, apiKey)
		if gerr != nil {
			return uuid.Nil, false, gerr
		}
		return winner.ID, false, nil
	}
	s.log.Info("user created", zap.Stringer("user", id))
	s.bootstrap(ctx, id)
	return id, true, nil
}

// bootstrap creates dependent rows best-effort. A failure leaves the user
// uninitialized so the next resolve retries.
func (s *UserServiceImpl) bootstrap(ctx context.Context, id uuid.UUID) {
	if err := s.users.EnsureDependents(ctx, id); err != nil {
		metrics.PartialInitializations.Inc()
		s.log.Warn("partial user initialization", zap.Stringer("user", id), zap.Error(err))
	}
}

// Fetch reads the user, topics and tracking rows concurrently. Only a
// missing user is an error; the side rows degrade to empty values.
func (s *UserServiceImpl) Fetch(ctx context.Context, id uuid.UUID) (model.UserData, error) {
	if id == uuid.Nil {
		return model.UserData{}, fmt.Errorf("%w: empty user id", errs.ErrInvalidRequest)
	}

	var (
		u   *model.User
		pt  *model.PreferredTopics
		rec *model.TrackingRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		u, err = s.users.GetByID(gctx, id)
		return err
	})
	g.Go(func() error {
		var err error
		if pt, err = s.topics.Get(gctx, id); err != nil {
			s.log.Debug("topics unavailable", zap.Stringer("user", id), zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if rec, err = s.tracking.Get(gctx, id); err != nil {
			s.log.Debug("tracking unavailable", zap.Stringer("user", id), zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.UserData{}, err
	}

	out := model.UserData{
		ID:              u.ID,
		NewsAPIKey:      u.NewsAPIKey,
		PreferredTopics: []string{},
		ArticlesSeen:    []string{},
	}
	if pt != nil && pt.Topics != nil {
		out.PreferredTopics = pt.Topics
	}
	if rec != nil {
		if rec.Articles != nil {
			out.ArticlesSeen = rec.Articles
		}
		out.TotalClicks = rec.Clicks
	}
	return out, nil
}

// UpdateTopics fully replaces the topic list; an empty list clears it.
func (s *UserServiceImpl) UpdateTopics(ctx context.Context, id uuid.UUID, topics []string) error {
	if id == uuid.Nil || topics == nil {
		return fmt.Errorf("%w: userID/topics", errs.ErrInvalidRequest)
	}
	return s.topics.Replace(ctx, id, topics)
}

// Summary combines the saved-article shelf with tracking counters.
func (s *UserServiceImpl) Summary(ctx context.Context, id uuid.UUID) (model.UserStats, error) {
	if id == uuid.Nil {
		return model.UserStats{}, fmt.Errorf("%w: empty user id", errs.ErrInvalidRequest)
	}
	shelf, err := s.articles.Load(ctx, id)
	if err != nil {
		return model.UserStats{}, err
	}
	cs := shelf.Collections()
	out := model.UserStats{TotalSaved: cs.TotalArticles(), TotalCollections: len(cs)}

	rec, err := s.tracking.Get(ctx, id)
	switch {
	case err == nil:
		st := rec.Stats()
		out.TotalClicks, out.ArticlesSeenCount = st.Clicks, st.Seen
	case !errors.Is(err, errs.ErrNotFound):
		return model.UserStats{}, err
	}
	return out, nil
}
