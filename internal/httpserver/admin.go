package httpserver

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	"github.com/happyfeet/storefront/internal/service"
	"github.com/happyfeet/storefront/internal/transport"
	"github.com/happyfeet/storefront/internal/util"
	"github.com/happyfeet/storefront/pkg/logging"
)

type AdminHTTP struct {
	Products   *service.ProductService
	Categories *service.CategoryService
	Orders     *service.OrderService
}

func pageParams(c echo.Context) (int, int) {
	page := util.ParseIntDefault(c.QueryParam("page"), 1)
	size := util.ParseIntDefault(c.QueryParam("size"), util.DefaultPageSize)
	return page, size
}

func bulkProgress(l *slog.Logger) service.Progress {
	return func(done, total int) {
		l.Info("bulk_delete_progress", "done", done, "total", total)
	}
}

func idParam(c echo.Context) (uuid.UUID, error) {
	return uuid.Parse(c.Param("id"))
}

// ListProducts searches when q is set and pages through all products otherwise.
func (h *AdminHTTP) ListProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_products")

	page, size := pageParams(c)
	if q := strings.TrimSpace(c.QueryParam("q")); q != "" {
		res, err := h.Products.Search(ctx, q, page, size)
		if err != nil {
			return fail(l, "search_products_error", err)
		}
		return c.JSON(http.StatusOK, res)
	}

	res, err := h.Products.AdminList(ctx, page, size)
	if err != nil {
		return fail(l, "list_products_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) CreateProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_product")

	var req transport.CreateProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_create_error", "invalid body", err)
	}

	p, err := h.Products.Create(ctx, req)
	if err != nil {
		return fail(l, "product_create_error", err)
	}

	l.Info("create_product_success", "product_id", p.ID)
	return c.JSON(http.StatusCreated, p)
}

func (h *AdminHTTP) PatchProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_product")

	id, err := idParam(c)
	if err != nil {
		return badRequest(l, "product_patch_error", "id not a uuid", err)
	}
	var req transport.PatchProductRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "product_patch_error", "invalid body", err)
	}

	p, err := h.Products.Patch(ctx, id, req)
	if err != nil {
		return fail(l, "product_patch_error", err)
	}

	l.Info("patch_product_success", "product_id", p.ID)
	return c.JSON(http.StatusOK, p)
}

func (h *AdminHTTP) DeleteProduct(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_product")

	id, err := idParam(c)
	if err != nil {
		return badRequest(l, "product_delete_error", "id not a uuid", err)
	}
	if err := h.Products.Delete(ctx, id); err != nil {
		return fail(l, "product_delete_error", err)
	}

	l.Info("delete_product_success", "product_id", id)
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) BulkDeleteProducts(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.bulk_delete_products")

	var req transport.BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "bulk_delete_error", "invalid body", err)
	}

	res, err := h.Products.BulkDelete(ctx, req.IDs, bulkProgress(l))
	if err != nil {
		return fail(l, "bulk_delete_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) CreateCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.create_category")

	var req transport.CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "category_create_error", "invalid body", err)
	}

	cat, err := h.Categories.Create(ctx, req)
	if err != nil {
		return fail(l, "category_create_error", err)
	}
	return c.JSON(http.StatusCreated, cat)
}

func (h *AdminHTTP) PatchCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_category")

	id, err := idParam(c)
	if err != nil {
		return badRequest(l, "category_patch_error", "id not a uuid", err)
	}
	var req transport.PatchCategoryRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "category_patch_error", "invalid body", err)
	}

	cat, err := h.Categories.Update(ctx, id, req)
	if err != nil {
		return fail(l, "category_patch_error", err)
	}
	return c.JSON(http.StatusOK, cat)
}

// DeleteCategory answers 409 with the product count while any product still
// references the category.
func (h *AdminHTTP) DeleteCategory(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_category")

	id, err := idParam(c)
	if err != nil {
		return badRequest(l, "category_delete_error", "id not a uuid", err)
	}
	if err := h.Categories.Delete(ctx, id); err != nil {
		return fail(l, "category_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) ListOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.list_orders")

	page, size := pageParams(c)
	res, err := h.Orders.List(ctx, c.QueryParam("status"), page, size)
	if err != nil {
		return fail(l, "list_orders_error", err)
	}
	return c.JSON(http.StatusOK, res)
}

func (h *AdminHTTP) GetOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.get_order")

	id, err := idParam(c)
	if err != nil {
		return badRequest(l, "get_order_error", "id not a uuid", err)
	}
	o, err := h.Orders.Get(ctx, id)
	if err != nil {
		return fail(l, "get_order_error", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHTTP) PatchOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.patch_order")

	id, err := idParam(c)
	if err != nil {
		return badRequest(l, "order_patch_error", "id not a uuid", err)
	}
	var req transport.PatchOrderRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "order_patch_error", "invalid body", err)
	}

	o, err := h.Orders.UpdateStatus(ctx, id, req.Status)
	if err != nil {
		return fail(l, "order_patch_error", err)
	}
	return c.JSON(http.StatusOK, o)
}

func (h *AdminHTTP) DeleteOrder(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.delete_order")

	id, err := idParam(c)
	if err != nil {
		return badRequest(l, "order_delete_error", "id not a uuid", err)
	}
	if err := h.Orders.Delete(ctx, id); err != nil {
		return fail(l, "order_delete_error", err)
	}
	return c.NoContent(http.StatusNoContent)
}

func (h *AdminHTTP) BulkDeleteOrders(c echo.Context) error {
	ctx := c.Request().Context()
	l := logging.FromContext(ctx).With("handler", "admin.bulk_delete_orders")

	var req transport.BulkDeleteRequest
	if err := c.Bind(&req); err != nil {
		return badRequest(l, "bulk_delete_error", "invalid body", err)
	}

	res, err := h.Orders.BulkDelete(ctx, req.IDs, bulkProgress(l))
	if err != nil {
		return fail(l, "bulk_delete_error", err)
	}
	return c.JSON(http.StatusOK, res)
}
