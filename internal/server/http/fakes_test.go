package httpserver

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/newsreader/internal/model"
)

type stubUsers struct {
	id    uuid.UUID
	isNew bool
	data  model.UserData
	stats model.UserStats
	err   error

	gotKey    string
	gotTopics []string
}

func (s *stubUsers) ResolveOrCreate(_ context.Context, key string) (uuid.UUID, bool, error) {
	s.gotKey = key
	return s.id, s.isNew, s.err
}

func (s *stubUsers) Fetch(_ context.Context, id uuid.UUID) (model.UserData, error) {
	d := s.data
	d.ID = id
	return d, s.err
}

func (s *stubUsers) UpdateTopics(_ context.Context, _ uuid.UUID, topics []string) error {
	s.gotTopics = topics
	return s.err
}

func (s *stubUsers) Summary(context.Context, uuid.UUID) (model.UserStats, error) {
	return s.stats, s.err
}

type stubArticles struct {
	cs  model.Collections
	res model.SaveResult
	err error

	saved      model.SavedArticle
	collection string
	removedURL string
	removedAll bool
}

func (s *stubArticles) List(context.Context, uuid.UUID) (model.Collections, error) {
	return s.cs, s.err
}

func (s *stubArticles) Save(_ context.Context, _ uuid.UUID, a model.SavedArticle, collection string) (model.SaveResult, error) {
	s.saved, s.collection = a, collection
	return s.res, s.err
}

func (s *stubArticles) RemoveArticle(_ context.Context, _ uuid.UUID, url, collection string) error {
	s.removedURL, s.collection = url, collection
	return s.err
}

func (s *stubArticles) RemoveCollection(_ context.Context, _ uuid.UUID, collection string) error {
	s.removedAll, s.collection = true, collection
	return s.err
}

type stubTracking struct {
	st  model.TrackingStats
	err error
}

func (s *stubTracking) RecordClick(context.Context, uuid.UUID, string) (model.TrackingStats, error) {
	return s.st, s.err
}

func (s *stubTracking) Stats(context.Context, uuid.UUID) (model.TrackingStats, error) {
	return s.st, s.err
}

type stubAdmin struct {
	key      string
	d        model.Dashboard
	err      error
	verified int
}

func (s *stubAdmin) Dashboard(context.Context) (model.Dashboard, error) { return s.d, s.err }

func (s *stubAdmin) VerifyKey(key string) bool {
	s.verified++
	return key != "" && key == s.key
}

type fakeLimiter struct {
	mu         sync.Mutex
	blocked    bool
	wait       time.Duration
	blockAfter int
	allowErr   error

	fails, successes int
}

func (l *fakeLimiter) Allow(context.Context, []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.allowErr != nil {
		return false, 0, l.allowErr
	}
	if l.blocked {
		return false, l.wait, nil
	}
	return true, 0, nil
}

func (l *fakeLimiter) Success(context.Context, []byte) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.successes++
	l.fails = 0
	return nil
}

func (l *fakeLimiter) Failure(context.Context, []byte) (bool, time.Duration, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.fails++
	if l.blockAfter > 0 && l.fails >= l.blockAfter {
		l.blocked = true
		return true, l.wait, nil
	}
	return false, 0, nil
}

type stubPinger struct{ err error }

func (p stubPinger) Ping(context.Context) error { return p.err }

type harness struct {
	users    *stubUsers
	articles *stubArticles
	tracking *stubTracking
	admin    *stubAdmin
	lim      *fakeLimiter
	pinger   *stubPinger
	e        *echo.Echo
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	h := &harness{
		users:    &stubUsers{},
		articles: &stubArticles{},
		tracking: &stubTracking{},
		admin:    &stubAdmin{key: "admin-secret"},
		lim:      &fakeLimiter{wait: 90 * time.Second},
		pinger:   &stubPinger{},
	}
	s := New(Services{Users: h.users, Articles: h.articles, Tracking: h.tracking, Admin: h.admin},
		h.lim, h.pinger, zaptest.NewLogger(t))
	h.e = s.Echo()
	return h
}

func (h *harness) do(method, target, body string, headers ...string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	for i := 0; i+1 < len(headers); i += 2 {
		req.Header.Set(headers[i], headers[i+1])
	}
	rec := httptest.NewRecorder()
	h.e.ServeHTTP(rec, req)
	return rec
}
