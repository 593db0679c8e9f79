// Package httpserver exposes the newsreader JSON API over echo.
package httpserver

import (
	"context"
	"fmt"
	"net/http"

	"github.com/gofrs/uuid/v5"
	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/and161185/newsreader/internal/convert"
	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/limiter"
	"github.com/and161185/newsreader/internal/model"
	"github.com/and161185/newsreader/internal/service"
)

// Pinger reports storage reachability for /healthz.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Services groups the application services behind the API.
type Services struct {
	Users    service.UserService
	Articles service.ArticleService
	Tracking service.TrackingService
	Admin    service.AdminService
}

// Server wires services into echo handlers.
type Server struct {
	users    service.UserService
	articles service.ArticleService
	tracking service.TrackingService
	admin    service.AdminService
	lim      limiter.Limiter
	health   Pinger
	log      *zap.Logger
}

// New constructs a Server with injected services.
func New(svc Services, lim limiter.Limiter, health Pinger, log *zap.Logger) *Server {
	return &Server{
		users:    svc.Users,
		articles: svc.Articles,
		tracking: svc.Tracking,
		admin:    svc.Admin,
		lim:      lim,
		health:   health,
		log:      log,
	}
}

// Echo builds the router with middleware and all routes registered.
func (s *Server) Echo() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = newRequestValidator()
	e.HTTPErrorHandler = s.handleError

	e.Use(Logging(s.log), Recover(s.log), Metrics)

	e.GET("/healthz", s.healthz)
	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	api := e.Group("/api")
	api.POST("/user", s.resolveUser)
	api.GET("/user", s.getUser)
	api.PUT("/user/topics", s.updateTopics)
	api.GET("/user/stats", s.userStats)

	api.GET("/articles", s.listArticles)
	api.POST("/articles", s.saveArticle)
	api.DELETE("/articles", s.deleteArticles)

	api.POST("/tracking", s.recordClick)
	api.GET("/tracking", s.trackingStats)

	api.GET("/admin", s.dashboard, s.AdminGate)
	api.POST("/admin", s.verifyAdmin)
	return e
}

// bind decodes and validates a request; both failures are 400s.
func bind(c echo.Context, req any) error {
	if err := c.Bind(req); err != nil {
		return fmt.Errorf("%w: malformed request body", errs.ErrInvalidRequest)
	}
	return c.Validate(req)
}

// parseUserID expects a value that already passed uuid4 validation.
func parseUserID(raw string) (uuid.UUID, error) {
	id, err := uuid.FromString(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("%w: userId must be a UUID", errs.ErrInvalidRequest)
	}
	return id, nil
}

func (s *Server) healthz(c echo.Context) error {
	if err := s.health.Ping(c.Request().Context()); err != nil {
		s.log.Warn("health check failed", zap.Error(err))
		return c.JSON(http.StatusServiceUnavailable, errorBody{Error: "database unavailable"})
	}
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

// --- Users ---

type resolveUserRequest struct {
	NewsAPIKey string `json:"newsApiKey" validate:"required"`
}

type resolveUserResponse struct {
	UserID    uuid.UUID `json:"userId"`
	IsNewUser bool      `json:"isNewUser"`
}

type userQuery struct {
	UserID string `query:"userId" validate:"required,uuid4"`
}

type updateTopicsRequest struct {
	UserID string   `json:"userId" validate:"required,uuid4"`
	Topics []string `json:"topics" validate:"required"`
}

type successResponse struct {
	Success bool `json:"success"`
}

// resolveUser creates a user on first sight of the key, or logs it in.
func (s *Server) resolveUser(c echo.Context) error {
	var req resolveUserRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id, isNew, err := s.users.ResolveOrCreate(c.Request().Context(), req.NewsAPIKey)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, resolveUserResponse{UserID: id, IsNewUser: isNew})
}

func (s *Server) getUser(c echo.Context) error {
	id, err := s.userFromQuery(c)
	if err != nil {
		return err
	}
	d, err := s.users.Fetch(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToUserDTO(d))
}

func (s *Server) updateTopics(c echo.Context) error {
	var req updateTopicsRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}
	if err := s.users.UpdateTopics(c.Request().Context(), id, req.Topics); err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

func (s *Server) userStats(c echo.Context) error {
	id, err := s.userFromQuery(c)
	if err != nil {
		return err
	}
	st, err := s.users.Summary(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToUserStatsDTO(st))
}

func (s *Server) userFromQuery(c echo.Context) (uuid.UUID, error) {
	var q userQuery
	if err := bind(c, &q); err != nil {
		return uuid.Nil, err
	}
	return parseUserID(q.UserID)
}

// --- Articles ---

type collectionsResponse struct {
	Collections []convert.CollectionDTO `json:"collections"`
}

type saveArticleRequest struct {
	UserID         string                  `json:"userId" validate:"required,uuid4"`
	Article        *convert.ArticlePayload `json:"article" validate:"required"`
	CollectionName string                  `json:"collectionName" validate:"required"`
}

type saveArticleResponse struct {
	Success       bool `json:"success"`
	AlreadyExists bool `json:"alreadyExists"`
}

type deleteArticlesRequest struct {
	UserID           string `json:"userId" validate:"required,uuid4"`
	CollectionName   string `json:"collectionName" validate:"required"`
	ArticleURL       string `json:"articleUrl"`
	DeleteCollection bool   `json:"deleteCollection"`
}

func (s *Server) listArticles(c echo.Context) error {
	id, err := s.userFromQuery(c)
	if err != nil {
		return err
	}
	cs, err := s.articles.List(c.Request().Context(), id)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, collectionsResponse{Collections: convert.ToCollections(cs)})
}

func (s *Server) saveArticle(c echo.Context) error {
	var req saveArticleRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}
	a, err := convert.ToSavedArticle(*req.Article)
	if err != nil {
		return fmt.Errorf("%w: %v", errs.ErrInvalidRequest, err)
	}
	res, err := s.articles.Save(c.Request().Context(), id, a, req.CollectionName)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, saveArticleResponse{Success: true, AlreadyExists: res.AlreadyExists})
}

// deleteArticles removes one article, or the whole collection when
// deleteCollection is set.
func (s *Server) deleteArticles(c echo.Context) error {
	var req deleteArticlesRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}
	ctx := c.Request().Context()
	switch {
	case req.DeleteCollection:
		err = s.articles.RemoveCollection(ctx, id, req.CollectionName)
	case req.ArticleURL == "":
		return fmt.Errorf("%w: articleUrl is required unless deleteCollection is set", errs.ErrInvalidRequest)
	default:
		err = s.articles.RemoveArticle(ctx, id, req.ArticleURL, req.CollectionName)
	}
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, successResponse{Success: true})
}

// --- Tracking ---

type recordClickRequest struct {
	UserID     string `json:"userId" validate:"required,uuid4"`
	ArticleURL string `json:"articleUrl" validate:"required"`
}

type recordClickResponse struct {
	Success bool  `json:"success"`
	Seen    int   `json:"seen"`
	Clicks  int64 `json:"clicks"`
}

func (s *Server) recordClick(c echo.Context) error {
	var req recordClickRequest
	if err := bind(c, &req); err != nil {
		return err
	}
	id, err := parseUserID(req.UserID)
	if err != nil {
		return err
	}
	st, err := s.tracking.RecordClick(c.Request().Context(), id, req.ArticleURL)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, recordClickResponse{Success: true, Seen: st.Seen, Clicks: st.Clicks})
}

// trackingStats never fails once the request is well-formed: read errors
// are reported as zero counters.
func (s *Server) trackingStats(c echo.Context) error {
	id, err := s.userFromQuery(c)
	if err != nil {
		return err
	}
	st, err := s.tracking.Stats(c.Request().Context(), id)
	if err != nil {
		s.log.Warn("tracking stats unavailable", zap.Stringer("user", id), zap.Error(err))
		st = model.TrackingStats{}
	}
	return c.JSON(http.StatusOK, convert.ToTrackingStatsDTO(st))
}
