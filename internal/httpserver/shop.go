package httpserver

import (
	"net/http"
	"net/url"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/happyfeet/storefront/internal/catalog"
	"github.com/happyfeet/storefront/internal/models"
	"github.com/happyfeet/storefront/internal/service"
	"github.com/happyfeet/storefront/pkg/logging"
)

type ShopHTTP struct {
	Products   *service.ProductService
	Categories *service.CategoryService
}

const (
	ShopPath = "/shop"

	// ParamFrom carries the query string the client is navigating away from.
	ParamFrom = "from"
	// ParamRemove names an active filter chip to clear.
	ParamRemove = "remove"
)

type shopResponse struct {
	catalog.View
	Filters          catalog.FilterState `json:"filters"`
	ActiveFilters    []catalog.Chip      `json:"active_filters"`
	Query            string              `json:"query"`
	Navigation       catalog.Navigation  `json:"navigation"`
	SearchDebounceMS int64               `json:"search_debounce_ms"`
}

// navigation folds the history calls of one request into the single entry
// the client should apply: push wins over replace.
type navigation struct {
	nav   catalog.Navigation
	moved bool
}

func (n *navigation) Push(u string) {
	n.nav = catalog.Navigation{Mode: catalog.HistoryPush, URL: u}
	n.moved = true
}

func (n *navigation) Replace(u string) {
	mode := catalog.HistoryReplace
	if n.nav.Mode == catalog.HistoryPush {
		mode = catalog.HistoryPush
	}
	n.nav = catalog.Navigation{Mode: mode, URL: u}
	n.moved = true
}

func previousState(from string, fallback catalog.FilterState) catalog.FilterState {
	if from == "" {
		return fallback
	}
	if i := strings.IndexByte(from, '?'); i >= 0 {
		from = from[i+1:]
	}
	v, err := url.ParseQuery(from)
	if err != nil {
		return fallback
	}
	return catalog.ParseFilterState(v)
}

// ListProducts applies the shop's filter query to the full catalog. With
// from set, the response says whether the address bar change is a push or a
// replace; remove clears one active filter chip first.
func (h *ShopHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.list_products")

	next := catalog.ParseFilterState(c.QueryParams())
	prev := previousState(c.QueryParam(ParamFrom), next)

	products, err := h.Products.List(ctx)
	if err != nil {
		return fail(l, "list_products_error", err)
	}

	hist := &navigation{}
	b := catalog.NewBrowser(ShopPath, products, prev, hist)
	defer b.Close()

	b.Goto(next)
	if key := c.QueryParam(ParamRemove); key != "" {
		b.RemoveFilter(key)
	}

	state := b.State()
	nav := hist.nav
	if !hist.moved {
		nav = catalog.Navigation{Mode: catalog.HistoryReplace, URL: state.URL(ShopPath)}
	}

	view := b.View()
	if view.Items == nil {
		view.Items = []models.Product{}
	}
	return c.JSON(http.StatusOK, shopResponse{
		View:             view,
		Filters:          state,
		ActiveFilters:    catalog.ActiveFilters(state),
		Query:            catalog.QueryString(state),
		Navigation:       nav,
		SearchDebounceMS: catalog.SearchDebounce.Milliseconds(),
	})
}

func (h *ShopHTTP) GetProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.get_product")

	p, err := h.Products.GetBySlug(ctx, c.Param("slug"))
	if err != nil {
		return fail(l, "get_product_error", err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ShopHTTP) ListCategories(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "shop.list_categories")

	cats, err := h.Categories.List(ctx)
	if err != nil {
		return fail(l, "list_categories_error", err)
	}
	return c.JSON(http.StatusOK, echo.Map{"data": cats})
}
