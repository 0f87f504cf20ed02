package loggingmw

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/happyfeet/storefront/pkg/logging"
)

// RequestLogger puts a request-scoped logger into the request context and
// writes one "request completed" line per request. The level follows the
// response status: 5xx at error, 4xx at warn, everything else at info.
// Handler errors are rendered here so the status is known when logging.
func RequestLogger(base *slog.Logger) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			l := base.With(
				"method", req.Method,
				"path", c.Path(),
				"url", req.URL.Path,
				"remote_ip", c.RealIP(),
				"user_agent", req.UserAgent(),
			)
			if rid := requestID(c); rid != "" {
				l = l.With("request_id", rid)
				c.Response().Header().Set(echo.HeaderXRequestID, rid)
			}
			c.SetRequest(req.WithContext(logging.IntoContext(req.Context(), l)))

			start := time.Now()
			err := next(c)
			if err != nil && !c.Response().Committed {
				c.Echo().HTTPErrorHandler(err, c)
			}

			status := responseStatus(c)
			attrs := []any{"status", status, "duration_ms", time.Since(start).Milliseconds()}
			switch {
			// an error returned after the response was committed is still a failure
			case status >= http.StatusInternalServerError, err != nil && status < http.StatusBadRequest:
				if err != nil {
					attrs = append(attrs, "error", err.Error())
				}
				l.Error("request completed", attrs...)
			case status >= http.StatusBadRequest:
				if msg := clientMessage(err); msg != "" {
					attrs = append(attrs, "reason", msg)
				}
				l.Warn("request completed", attrs...)
			default:
				l.Info("request completed", append(attrs, "bytes", c.Response().Size)...)
			}
			return nil
		}
	}
}

func requestID(c echo.Context) string {
	if rid := c.Request().Header.Get(echo.HeaderXRequestID); rid != "" {
		return rid
	}
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

func responseStatus(c echo.Context) int {
	if c.Response().Status == 0 {
		return http.StatusOK
	}
	return c.Response().Status
}

func clientMessage(err error) string {
	var he *echo.HTTPError
	if !errors.As(err, &he) {
		return ""
	}
	if msg, ok := he.Message.(string); ok {
		return msg
	}
	return ""
}
