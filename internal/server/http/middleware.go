package httpserver

import (
	"net/http"
	"runtime/debug"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/newsreader/internal/metrics"
)

// responseStatus is the status the client will see for this result.
func responseStatus(c echo.Context, err error) int {
	if err != nil {
		code, _ := statusFor(err)
		return code
	}
	return c.Response().Status
}

// Logging returns middleware for structured access logging.
func Logging(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			// metadata only, never bodies or query strings
			log.Info("http",
				zap.String("method", c.Request().Method),
				zap.String("route", c.Path()),
				zap.Int("code", responseStatus(c, err)),
				zap.Duration("dur", time.Since(start)),
				zap.String("peer", c.RealIP()),
			)
			return err
		}
	}
}

// Recover returns middleware that turns handler panics into a 500.
func Recover(log *zap.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) (err error) {
			defer func() {
				if r := recover(); r != nil {
					if r == http.ErrAbortHandler {
						panic(r)
					}
					log.Error("panic",
						zap.Any("reason", r),
						zap.ByteString("stack", debug.Stack()),
						zap.String("route", c.Path()),
					)
					err = echo.NewHTTPError(http.StatusInternalServerError, "internal error")
				}
			}()
			return next(c)
		}
	}
}

// Metrics records request counts and latency per registered route.
func Metrics(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		start := time.Now()
		err := next(c)
		route := c.Path()
		if route == "" {
			route = "unmatched"
		}
		metrics.RecordRequest(c.Request().Method, route,
			strconv.Itoa(responseStatus(c, err)), time.Since(start).Seconds())
		return err
	}
}
