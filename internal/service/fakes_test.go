package service

import (
	"context"
	"sync"
	"time"

	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/model"
	"github.com/and161185/newsreader/internal/repository"
	"github.com/gofrs/uuid/v5"
)

type fakeUsers struct {
	mu    sync.Mutex
	byKey map[string]*model.User
	order []string

	getErr    error
	createErr error
	ensureErr error

	// raceWinner, when set, is inserted just before Create runs to simulate
	// a concurrent request creating the same credential first.
	raceWinner *model.User

	ensureCalls int
}

var _ repository.UserRepository = (*fakeUsers)(nil)

func newFakeUsers() *fakeUsers { return &fakeUsers{byKey: map[string]*model.User{}} }

func (f *fakeUsers) put(u *model.User) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now()
	}
	f.byKey[u.NewsAPIKey] = u
	f.order = append(f.order, u.NewsAPIKey)
}

func (f *fakeUsers) Create(_ context.Context, u *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return f.createErr
	}
	if f.raceWinner != nil {
		f.put(f.raceWinner)
		f.raceWinner = nil
	}
	if _, ok := f.byKey[u.NewsAPIKey]; ok {
		return errs.ErrAlreadyExists
	}
	cp := *u
	f.put(&cp)
	return nil
}

func (f *fakeUsers) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	for _, u := range f.byKey {
		if u.ID == id {
			c := *u
			return &c, nil
		}
	}
	return nil, errs.ErrNotFound
}

func (f *fakeUsers) GetByAPIKey(_ context.Context, key string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	u, ok := f.byKey[key]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *u
	return &c, nil
}

func (f *fakeUsers) EnsureDependents(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ensureCalls++
	if f.ensureErr != nil {
		return f.ensureErr
	}
	for _, u := range f.byKey {
		if u.ID == id {
			now := time.Now()
			u.InitializedAt = &now
			return nil
		}
	}
	return errs.ErrNotFound
}

func (f *fakeUsers) List(_ context.Context) ([]model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.getErr != nil {
		return nil, f.getErr
	}
	out := make([]model.User, 0, len(f.order))
	for _, k := range f.order {
		out = append(out, *f.byKey[k])
	}
	return out, nil
}

type fakeTopics struct {
	mu   sync.Mutex
	rows map[uuid.UUID][]string
	keys []uuid.UUID
	err  error
}

var _ repository.TopicRepository = (*fakeTopics)(nil)

func newFakeTopics() *fakeTopics { return &fakeTopics{rows: map[uuid.UUID][]string{}} }

func (f *fakeTopics) Get(_ context.Context, id uuid.UUID) (*model.PreferredTopics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	t, ok := f.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &model.PreferredTopics{UserID: id, Topics: append([]string(nil), t...)}, nil
}

func (f *fakeTopics) Replace(_ context.Context, id uuid.UUID, topics []string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	if _, ok := f.rows[id]; !ok {
		f.keys = append(f.keys, id)
	}
	f.rows[id] = append([]string{}, topics...)
	return nil
}

func (f *fakeTopics) List(_ context.Context) ([]model.PreferredTopics, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []model.PreferredTopics
	for _, k := range f.keys {
		out = append(out, model.PreferredTopics{UserID: k, Topics: f.rows[k]})
	}
	return out, nil
}

type fakeTracking struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*model.TrackingRecord
	keys []uuid.UUID
	err  error
}

var _ repository.TrackingRepository = (*fakeTracking)(nil)

func newFakeTracking() *fakeTracking {
	return &fakeTracking{rows: map[uuid.UUID]*model.TrackingRecord{}}
}

func (f *fakeTracking) Get(_ context.Context, id uuid.UUID) (*model.TrackingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[id]
	if !ok {
		return nil, errs.ErrNotFound
	}
	c := *r
	c.Articles = append([]string(nil), r.Articles...)
	return &c, nil
}

func (f *fakeTracking) RecordClick(_ context.Context, id uuid.UUID, url string) (*model.TrackingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	r, ok := f.rows[id]
	if !ok {
		r = &model.TrackingRecord{UserID: id, Articles: []string{}}
		f.rows[id] = r
		f.keys = append(f.keys, id)
	}
	seen := false
	for _, a := range r.Articles {
		if a == url {
			seen = true
			break
		}
	}
	if !seen {
		r.Articles = append(r.Articles, url)
	}
	r.Clicks++
	c := *r
	c.Articles = append([]string(nil), r.Articles...)
	return &c, nil
}

func (f *fakeTracking) List(_ context.Context) ([]model.TrackingRecord, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	var out []model.TrackingRecord
	for _, k := range f.keys {
		out = append(out, *f.rows[k])
	}
	return out, nil
}

type articleRow struct {
	raw []string
	ver int64
}

type fakeArticles struct {
	mu   sync.Mutex
	rows map[uuid.UUID]*articleRow

	loadErr  error
	storeErr error
	// conflicts forces the next n stores to fail with a version conflict.
	conflicts int

	loads, stores int
}

var _ repository.ArticleRepository = (*fakeArticles)(nil)

func newFakeArticles() *fakeArticles { return &fakeArticles{rows: map[uuid.UUID]*articleRow{}} }

func (f *fakeArticles) Load(_ context.Context, id uuid.UUID) (*model.Shelf, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.loads++
	if f.loadErr != nil {
		return nil, f.loadErr
	}
	r, ok := f.rows[id]
	if !ok {
		return model.NewShelf(nil, 0), nil
	}
	return model.NewShelf(append([]string(nil), r.raw...), r.ver), nil
}

func (f *fakeArticles) Store(_ context.Context, id uuid.UUID, s *model.Shelf) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.stores++
	if f.storeErr != nil {
		return 0, f.storeErr
	}
	if f.conflicts > 0 {
		f.conflicts--
		return 0, errs.ErrVersionConflict
	}
	r, ok := f.rows[id]
	switch {
	case !ok && s.Version == 0:
		f.rows[id] = &articleRow{raw: s.Raw(), ver: 1}
		return 1, nil
	case ok && r.ver == s.Version:
		r.raw, r.ver = s.Raw(), r.ver+1
		return r.ver, nil
	default:
		return 0, errs.ErrVersionConflict
	}
}
