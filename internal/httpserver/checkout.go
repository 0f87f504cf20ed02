package httpserver

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/happyfeet/storefront/internal/checkout"
	"github.com/happyfeet/storefront/internal/transport"
	"github.com/happyfeet/storefront/pkg/logging"
)

type CheckoutHTTP struct {
	Svc      *checkout.Service
	Sessions *CartSessions
}

// PlaceOrder returns the chat deep link; the client opens it in a new tab.
func (h *CheckoutHTTP) PlaceOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "checkout.place_order")

	var req transport.CheckoutRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "create_order_error", "invalid body", err)
	}

	store, err := h.Sessions.Open(c)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	res, err := h.Svc.PlaceOrder(ctx, checkout.Form{
		Name:     req.Name,
		Phone:    req.Phone,
		Location: req.Location,
		Notes:    req.Notes,
	}, store)
	if err != nil {
		return fail(l, "create_order_error", err)
	}

	l.Info("create_order_success", "order_id", res.Order.ID)
	return c.JSON(http.StatusCreated, echo.Map{
		"order_id":     res.Order.ID,
		"short_id":     checkout.ShortID(res.Order),
		"total":        res.Order.Total,
		"message":      res.Message,
		"redirect_url": res.RedirectURL,
	})
}
