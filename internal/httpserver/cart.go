package httpserver

import (
	"net/http"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"gorm.io/gorm"

	"github.com/happyfeet/storefront/internal/cart"
	"github.com/happyfeet/storefront/internal/service"
	"github.com/happyfeet/storefront/internal/transport"
	"github.com/happyfeet/storefront/pkg/logging"
)

const (
	CartCookie    = "cart_session"
	cartCookieTTL = 365 * 24 * time.Hour
)

// CartSessions maps the cart_session cookie to a browser's stored cart.
type CartSessions struct {
	DB           *gorm.DB
	CookieSecure bool
}

// Open returns the hydrated cart for the request, issuing a session cookie
// on first use.
func (s *CartSessions) Open(c echo.Context) (*cart.Store, error) {
	var sid uuid.UUID
	if ck, err := c.Cookie(CartCookie); err == nil {
		sid, _ = uuid.Parse(ck.Value)
	}
	if sid == uuid.Nil {
		sid = uuid.New()
		c.SetCookie(&http.Cookie{
			Name:     CartCookie,
			Value:    sid.String(),
			Path:     "/",
			Expires:  time.Now().Add(cartCookieTTL),
			HttpOnly: true,
			Secure:   s.CookieSecure,
			SameSite: http.SameSiteLaxMode,
		})
	}

	store := cart.NewStore(cart.GormStorage{DB: s.DB, SessionID: sid})
	if err := store.Hydrate(c.Request().Context()); err != nil {
		return nil, err
	}
	return store, nil
}

type CartHTTP struct {
	Sessions *CartSessions
	Products *service.ProductService
}

type cartResponse struct {
	Items      []cart.Item `json:"items"`
	TotalItems int         `json:"total_items"`
	TotalPrice int64       `json:"total_price"`
}

func cartJSON(c echo.Context, code int, s *cart.Store) error {
	st := s.State()
	items := st.Items
	if items == nil {
		items = []cart.Item{}
	}
	return c.JSON(code, cartResponse{Items: items, TotalItems: st.TotalItems(), TotalPrice: st.TotalPrice()})
}

func (h *CartHTTP) GetCart(c echo.Context) error {
	l := logging.FromContext(c.Request().Context()).With("handler", "cart.get")

	store, err := h.Sessions.Open(c)
	if err != nil {
		return fail(l, "get_cart_error", err)
	}
	return cartJSON(c, http.StatusOK, store)
}

// AddItem snapshots the product's current name, price and first image into
// the cart line.
func (h *CartHTTP) AddItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.add_item")

	var req transport.AddCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "add_cart_item_error", "invalid body", err)
	}
	if req.Quantity == 0 {
		req.Quantity = 1
	}
	if req.Quantity < 0 {
		return badRequest(l, "add_cart_item_error", "quantity must be positive", nil)
	}

	p, err := h.Products.Get(ctx, req.ProductID)
	if err != nil {
		return fail(l, "add_cart_item_error", err)
	}
	size := strings.TrimSpace(req.Size)
	if len(p.Sizes) > 0 && !slices.Contains(p.Sizes, size) {
		return badRequest(l, "add_cart_item_error", "size is not available for this product", nil)
	}
	image := ""
	if len(p.Images) > 0 {
		image = p.Images[0]
	}

	store, err := h.Sessions.Open(c)
	if err != nil {
		return fail(l, "add_cart_item_error", err)
	}
	err = store.Add(ctx, cart.Item{
		ProductID: p.ID,
		Name:      p.Name,
		Price:     p.Price,
		Image:     image,
		Size:      size,
		Quantity:  req.Quantity,
	})
	if err != nil {
		return fail(l, "add_cart_item_error", err)
	}
	return cartJSON(c, http.StatusOK, store)
}

// UpdateItem sets a line's quantity; zero or less removes the line.
func (h *CartHTTP) UpdateItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.update_item")

	var req transport.UpdateCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "update_cart_item_error", "invalid body", err)
	}

	store, err := h.Sessions.Open(c)
	if err != nil {
		return fail(l, "update_cart_item_error", err)
	}
	key := cart.LineKey{ProductID: req.ProductID, Size: strings.TrimSpace(req.Size)}
	if err := store.UpdateQuantity(ctx, key, req.Quantity); err != nil {
		return fail(l, "update_cart_item_error", err)
	}
	return cartJSON(c, http.StatusOK, store)
}

func (h *CartHTTP) RemoveItem(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.remove_item")

	var req transport.RemoveCartItemRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "remove_cart_item_error", "invalid body", err)
	}

	store, err := h.Sessions.Open(c)
	if err != nil {
		return fail(l, "remove_cart_item_error", err)
	}
	key := cart.LineKey{ProductID: req.ProductID, Size: strings.TrimSpace(req.Size)}
	if err := store.Remove(ctx, key); err != nil {
		return fail(l, "remove_cart_item_error", err)
	}
	return cartJSON(c, http.StatusOK, store)
}

func (h *CartHTTP) Clear(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "cart.clear")

	store, err := h.Sessions.Open(c)
	if err != nil {
		return fail(l, "clear_cart_error", err)
	}
	if err := store.Clear(ctx); err != nil {
		return fail(l, "clear_cart_error", err)
	}
	return cartJSON(c, http.StatusOK, store)
}
