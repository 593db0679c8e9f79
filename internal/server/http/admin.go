package httpserver

import (
	"errors"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/newsreader/internal/convert"
	"github.com/and161185/newsreader/internal/errs"
	"github.com/and161185/newsreader/internal/limiter"
)

const adminKeyHeader = "X-Admin-Key"

// AdminGate rejects requests without the admin key before any handler runs.
// The key is read from the adminKey query parameter or the X-Admin-Key header.
func (s *Server) AdminGate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		key := c.QueryParam("adminKey")
		if key == "" {
			key = c.Request().Header.Get(adminKeyHeader)
		}
		ok, err := s.checkAdmin(c, key)
		if err != nil {
			return err
		}
		if !ok {
			return errs.ErrUnauthorized
		}
		return next(c)
	}
}

// checkAdmin verifies key for the client IP, counting failures in the limiter.
// A locked-out client gets errs.ErrRateLimited without the key being compared.
func (s *Server) checkAdmin(c echo.Context, key string) (bool, error) {
	ctx := c.Request().Context()
	ip := c.RealIP()
	ipHash := limiter.HashIP(ip)

	allowed, wait, err := s.lim.Allow(ctx, ipHash)
	if err != nil {
		return false, err
	}
	if !allowed {
		setRetryAfter(c, wait)
		return false, errs.ErrRateLimited
	}

	if s.admin.VerifyKey(key) {
		if err := s.lim.Success(ctx, ipHash); err != nil {
			s.log.Warn("admin limiter reset failed", zap.Error(err))
		}
		return true, nil
	}

	blocked, wait, err := s.lim.Failure(ctx, ipHash)
	if err != nil {
		s.log.Warn("admin limiter failure not recorded", zap.Error(err))
		return false, nil
	}
	if blocked {
		s.log.Warn("admin access locked out", zap.String("peer", ip), zap.Duration("for", wait))
		setRetryAfter(c, wait)
	}
	return false, nil
}

func setRetryAfter(c echo.Context, wait time.Duration) {
	if wait <= 0 {
		return
	}
	c.Response().Header().Set("Retry-After", strconv.Itoa(int(math.Ceil(wait.Seconds()))))
}

type verifyAdminRequest struct {
	APIKey string `json:"apiKey"`
}

type verifyAdminResponse struct {
	IsAdmin bool `json:"isAdmin"`
}

// verifyAdmin answers whether apiKey is the admin secret. Only a lockout is
// reported as an error; anything else is a plain "no".
func (s *Server) verifyAdmin(c echo.Context) error {
	var req verifyAdminRequest
	if err := c.Bind(&req); err != nil {
		return c.JSON(http.StatusOK, verifyAdminResponse{})
	}
	ok, err := s.checkAdmin(c, req.APIKey)
	if errors.Is(err, errs.ErrRateLimited) {
		return err
	}
	if err != nil {
		s.log.Warn("admin verification failed", zap.Error(err))
	}
	return c.JSON(http.StatusOK, verifyAdminResponse{IsAdmin: ok})
}

func (s *Server) dashboard(c echo.Context) error {
	d, err := s.admin.Dashboard(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, convert.ToDashboardDTO(d))
}
