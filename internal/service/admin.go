package service

import (
	"context"
	"crypto/subtle"

	"github.com/gofrs/uuid/v5"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/and161185/newsreader/internal/model"
	"github.com/and161185/newsreader/internal/repository"
)

// AdminService aggregates usage across all users. It never writes.
type AdminService interface {
	// Dashboard recomputes per-user stats, totals and the top articles.
	Dashboard(ctx context.Context) (model.Dashboard, error)
	// VerifyKey reports whether key is the shared admin secret.
	VerifyKey(key string) bool
}

type AdminServiceImpl struct {
	users    repository.UserRepository
	topics   repository.TopicRepository
	tracking repository.TrackingRepository
	key      []byte
	log      *zap.Logger
}

// NewAdminService constructs AdminService.
func NewAdminService(
	users repository.UserRepository,
	topics repository.TopicRepository,
	tracking repository.TrackingRepository,
	adminKey string,
	log *zap.Logger,
) *AdminServiceImpl {
	return &AdminServiceImpl{users: users, topics: topics, tracking: tracking, key: []byte(adminKey), log: log}
}

// VerifyKey compares in constant time. An unset secret matches nothing.
func (s *AdminServiceImpl) VerifyKey(key string) bool {
	if len(s.key) == 0 || key == "" {
		return false
	}
	return subtle.ConstantTimeCompare([]byte(key), s.key) == 1
}

// Dashboard runs three full-table reads concurrently and joins them in memory.
// Users without side rows are reported with empty topics and zero counters.
// The result is a snapshot with no isolation from concurrent writers.
func (s *AdminServiceImpl) Dashboard(ctx context.Context) (model.Dashboard, error) {
	var (
		users    []model.User
		topics   []model.PreferredTopics
		tracking []model.TrackingRecord
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() (err error) {
		users, err = s.users.List(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		if topics, err = s.topics.List(gctx); err != nil {
			s.log.Warn("dashboard: topics unavailable", zap.Error(err))
		}
		return nil
	})
	g.Go(func() error {
		var err error
		if tracking, err = s.tracking.List(gctx); err != nil {
			s.log.Warn("dashboard: tracking unavailable", zap.Error(err))
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return model.Dashboard{}, err
	}

	topicsBy := make(map[uuid.UUID][]string, len(topics))
	for _, t := range topics {
		topicsBy[t.UserID] = t.Topics
	}
	trackingBy := make(map[uuid.UUID]model.TrackingRecord, len(tracking))
	for _, r := range tracking {
		trackingBy[r.UserID] = r
	}

	out := model.Dashboard{Users: make([]model.UserSummary, 0, len(users))}
	seenLists := make([][]string, 0, len(users))
	for _, u := range users {
		rec := trackingBy[u.ID]
		ts := topicsBy[u.ID]
		if ts == nil {
			ts = []string{}
		}
		sum := model.UserSummary{
			ID:             u.ID,
			MaskedKey:      model.MaskCredential(u.NewsAPIKey),
			CreatedAt:      u.CreatedAt,
			Clicks:         rec.Clicks,
			ArticlesViewed: len(rec.Articles),
			Topics:         ts,
		}
		out.Users = append(out.Users, sum)
		out.Totals.Clicks += sum.Clicks
		out.Totals.ArticlesViewed += sum.ArticlesViewed
		seenLists = append(seenLists, rec.Articles)
	}
	out.Totals.Users = len(out.Users)
	out.TopArticles = model.TopURLs(seenLists, model.TopArticlesLimit)
	return out, nil
}
