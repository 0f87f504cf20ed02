package httpserver

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/happyfeet/storefront/internal/auth"
	"github.com/happyfeet/storefront/internal/checkout"
	"github.com/happyfeet/storefront/internal/service"
	"github.com/happyfeet/storefront/pkg/authz"
)

// fail logs err under event and converts it into the HTTP error the client
// sees. Causes of 5xx errors are never sent to the client.
func fail(l *slog.Logger, event string, err error) error {
	var inUse *service.CategoryInUseError
	var partial *checkout.PartialOrderError

	switch {
	case errors.Is(err, authz.ErrUnauthenticated):
		l.Warn(event, "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, "authentication required")
	case errors.Is(err, authz.ErrForbidden):
		l.Warn(event, "status", 403, "error", err)
		return echo.NewHTTPError(http.StatusForbidden, "admin access required")
	case errors.Is(err, auth.ErrInvalidCredentials), errors.Is(err, auth.ErrTokenRevoked):
		l.Warn(event, "status", 401, "error", err)
		return echo.NewHTTPError(http.StatusUnauthorized, err.Error())
	case errors.Is(err, service.ErrValidation), errors.Is(err, checkout.ErrValidation), errors.Is(err, auth.ErrValidation):
		l.Warn(event, "status", 400, "error", err)
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	case errors.Is(err, service.ErrNotFound):
		l.Warn(event, "status", 404, "error", err)
		return echo.NewHTTPError(http.StatusNotFound, err.Error())
	case errors.As(err, &inUse):
		l.Warn(event, "status", 409, "reason", "category in use", "products", inUse.Products)
		return echo.NewHTTPError(http.StatusConflict, echo.Map{
			"message":  inUse.Error(),
			"products": inUse.Products,
		})
	case errors.Is(err, service.ErrConflict):
		l.Warn(event, "status", 409, "error", err)
		return echo.NewHTTPError(http.StatusConflict, err.Error())
	case errors.As(err, &partial):
		l.Error(event, "status", 500, "reason", "order saved without items", "order_id", partial.OrderID, "error", err)
		return echo.NewHTTPError(http.StatusInternalServerError, "your order could not be completed, please try again")
	}

	l.Error(event, "status", 500, "error", err)
	return echo.NewHTTPError(http.StatusInternalServerError, "something went wrong, please try again")
}

func badRequest(l *slog.Logger, event, reason string, err error) error {
	l.Warn(event, "status", 400, "reason", reason, "error", err)
	return echo.NewHTTPError(http.StatusBadRequest, reason)
}
