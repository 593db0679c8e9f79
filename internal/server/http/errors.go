package httpserver

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"

	"github.com/and161185/newsreader/internal/errs"
)

type errorBody struct {
	Error string `json:"error"`
}

// statusFor maps domain errors to an HTTP status and a short client message.
func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.Is(err, errs.ErrInvalidRequest):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, errs.ErrUnauthorized):
		return http.StatusUnauthorized, "unauthorized"
	case errors.Is(err, errs.ErrNotFound):
		return http.StatusNotFound, "not found"
	case errors.Is(err, errs.ErrVersionConflict):
		return http.StatusConflict, "concurrent update, retry"
	case errors.Is(err, errs.ErrRateLimited):
		return http.StatusTooManyRequests, "too many failed attempts"
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	default:
		return http.StatusInternalServerError, "internal error"
	}
}

// handleError is the echo.HTTPErrorHandler: every failure is {"error": msg}.
func (s *Server) handleError(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	code, msg := statusFor(err)
	if code >= http.StatusInternalServerError {
		s.log.Error("request failed",
			zap.String("method", c.Request().Method),
			zap.String("route", c.Path()),
			zap.Error(err),
		)
	}
	if c.Request().Method == http.MethodHead {
		err = c.NoContent(code)
	} else {
		err = c.JSON(code, errorBody{Error: msg})
	}
	if err != nil {
		s.log.Warn("write error response", zap.Error(err))
	}
}
