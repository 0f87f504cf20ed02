package httpserver

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/happyfeet/storefront/internal/auth"
	"github.com/happyfeet/storefront/internal/checkout"
	"github.com/happyfeet/storefront/internal/models"
	"github.com/happyfeet/storefront/internal/repo"
	"github.com/happyfeet/storefront/internal/service"
	"github.com/happyfeet/storefront/internal/testdb"
	"github.com/happyfeet/storefront/pkg/authz"
	"github.com/happyfeet/storefront/pkg/events"
	authmw "github.com/happyfeet/storefront/pkg/middleware/auth"
)

const adminEmail = "owner@happyfeet.test"

type testEnv struct {
	DB    *gorm.DB
	E     *echo.Echo
	Admin *AdminHTTP
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	gdb := testdb.New(t)
	r := &repo.GormRepo{DB: gdb}
	admins := authz.NewAllowList([]string{adminEmail})

	products := &service.ProductService{Repo: r, Authz: admins, Events: events.Noop{}}
	categories := &service.CategoryService{Repo: r, Authz: admins, Events: events.Noop{}}
	orders := &service.OrderService{Repo: r, Authz: admins, Events: events.Noop{}}
	authSvc := &auth.Service{
		Repo:          &auth.GormRepo{DB: gdb},
		Admins:        admins,
		AccessSecret:  []byte("access"),
		RefreshSecret: []byte("refresh"),
	}
	sessions := &CartSessions{DB: gdb}
	admin := &AdminHTTP{Products: products, Categories: categories, Orders: orders}

	e := echo.New()
	Register(e, &Deps{
		DB:       gdb,
		Shop:     &ShopHTTP{Products: products, Categories: categories},
		Cart:     &CartHTTP{Sessions: sessions, Products: products},
		Checkout: &CheckoutHTTP{Sessions: sessions, Svc: &checkout.Service{Orders: r, Events: events.Noop{}, ChatBaseURL: "https://wa.me", ChatPhone: "+254 700 000000"}},
		Auth:     &AuthHTTP{Svc: authSvc},
		Admin:    admin,
		Session:  &authmw.Session{AccessSecret: authSvc.AccessSecret, Refresher: authSvc, Admins: admins},
		LimitRPS: 1,
	})
	return &testEnv{DB: gdb, E: e, Admin: admin}
}

func (env *testEnv) product(t *testing.T, name string, price int64, cats ...string) models.Product {
	t.Helper()
	p := models.Product{
		Name:       name,
		Slug:       strings.ReplaceAll(strings.ToLower(name), " ", "-"),
		Price:      price,
		Categories: cats,
		Images:     []string{"https://cdn.test/" + name + ".jpg"},
		Sizes:      []string{"40", "41", "42"},
	}
	require.NoError(t, env.DB.Create(&p).Error)
	return p
}

func (env *testEnv) do(t *testing.T, method, target string, body any, cookies ...*http.Cookie) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	for _, ck := range cookies {
		req.AddCookie(ck)
	}
	rec := httptest.NewRecorder()
	env.E.ServeHTTP(rec, req)
	return rec
}

func adminContext(e *echo.Echo, method, target string, body any) (echo.Context, *httptest.ResponseRecorder) {
	var buf bytes.Buffer
	if body != nil {
		_ = json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	ctx := authz.IntoContext(req.Context(), authz.Principal{UserID: "u1", Email: adminEmail})
	req = req.WithContext(ctx)
	rec := httptest.NewRecorder()
	return e.NewContext(req, rec), rec
}

func cartCookie(rec *httptest.ResponseRecorder) *http.Cookie {
	for _, ck := range rec.Result().Cookies() {
		if ck.Name == CartCookie {
			return ck
		}
	}
	return nil
}

func TestHealth(t *testing.T) {
	env := newTestEnv(t)

	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/live", nil).Code)
	assert.Equal(t, http.StatusOK, env.do(t, http.MethodGet, "/health/ready", nil).Code)
}

func TestShopListProducts(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "Trail Runner", 5500, "Sneakers")
	env.product(t, "Beach Sandal", 1500, "Sandals")
	env.product(t, "Court Classic", 3900, "Sneakers")

	q := url.Values{"category": {"Sneakers"}, "price": {"under-4000"}}
	rec := env.do(t, http.MethodGet, "/api/v1/shop/products?"+q.Encode(), nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		Items []models.Product `json:"items"`
		Total int              `json:"total"`
		Query string           `json:"query"`
		Chips []struct {
			Key string `json:"key"`
		} `json:"active_filters"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	require.Len(t, resp.Items, 1)
	assert.Equal(t, "Court Classic", resp.Items[0].Name)
	assert.Equal(t, 1, resp.Total)
	assert.Len(t, resp.Chips, 2)
	assert.Contains(t, resp.Query, "category=Sneakers")
}

type shopNav struct {
	Filters struct {
		Price string `json:"price"`
		Page  int    `json:"page"`
	} `json:"filters"`
	Navigation struct {
		Mode string `json:"mode"`
		URL  string `json:"url"`
	} `json:"navigation"`
	Shown int `json:"shown"`
}

func TestShopNavigation(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "Trail Runner", 5500, "Sneakers")
	env.product(t, "Beach Sandal", 1500, "Sandals")

	tests := []struct {
		name     string
		query    url.Values
		wantMode string
		wantURL  string
	}{
		{
			name:     "category change pushes",
			query:    url.Values{"category": {"Sandals"}, "from": {"category=Sneakers"}},
			wantMode: "push",
			wantURL:  "/shop?category=Sandals",
		},
		{
			name:     "price change replaces",
			query:    url.Values{"category": {"Sneakers"}, "price": {"over-6000"}, "from": {"/shop?category=Sneakers"}},
			wantMode: "replace",
			wantURL:  "/shop?category=Sneakers&price=over-6000",
		},
		{
			name:     "removing a chip clears it and resets the page",
			query:    url.Values{"category": {"Sneakers"}, "price": {"over-6000"}, "page": {"3"}, "from": {"category=Sneakers&price=over-6000&page=3"}, "remove": {"price"}},
			wantMode: "replace",
			wantURL:  "/shop?category=Sneakers",
		},
		{
			name:     "first load without from",
			query:    url.Values{"sort": {"price-asc"}},
			wantMode: "replace",
			wantURL:  "/shop?sort=price-asc",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodGet, "/api/v1/shop/products?"+tt.query.Encode(), nil)
			require.Equal(t, http.StatusOK, rec.Code)

			var resp shopNav
			require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
			assert.Equal(t, tt.wantMode, resp.Navigation.Mode)
			assert.Equal(t, tt.wantURL, resp.Navigation.URL)
		})
	}
}

func TestShopHugePage(t *testing.T) {
	env := newTestEnv(t)
	env.product(t, "Trail Runner", 5500, "Sneakers")

	rec := env.do(t, http.MethodGet, "/api/v1/shop/products?page=384307168202282326", nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp shopNav
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &resp))
	assert.Equal(t, 1, resp.Shown)
}

func TestShopGetProductNotFound(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/v1/shop/products/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCartAndCheckoutFlow(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "Trail Runner", 5500, "Sneakers")

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": p.ID, "size": "42", "quantity": 2})
	require.Equal(t, http.StatusOK, rec.Code)
	ck := cartCookie(rec)
	require.NotNil(t, ck)

	var c cartResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Equal(t, 2, c.TotalItems)
	assert.EqualValues(t, 11000, c.TotalPrice)
	assert.Equal(t, p.Images[0], c.Items[0].Image)

	rec = env.do(t, http.MethodGet, "/api/v1/cart", nil, ck)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Len(t, c.Items, 1)

	rec = env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"name": "Amina", "phone": "0712345678", "location": "Westlands",
	}, ck)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var out struct {
		OrderID     uuid.UUID `json:"order_id"`
		RedirectURL string    `json:"redirect_url"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	assert.True(t, strings.HasPrefix(out.RedirectURL, "https://wa.me/254700000000?text="))

	var stored models.Order
	require.NoError(t, env.DB.Preload("Items").First(&stored, "id = ?", out.OrderID).Error)
	assert.Equal(t, models.OrderStatusPending, stored.Status)
	assert.Len(t, stored.Items, 1)

	rec = env.do(t, http.MethodGet, "/api/v1/cart", nil, ck)
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &c))
	assert.Empty(t, c.Items)
}

func TestCartRejectsUnknownSize(t *testing.T) {
	env := newTestEnv(t)
	p := env.product(t, "Trail Runner", 5500)

	rec := env.do(t, http.MethodPost, "/api/v1/cart/items", map[string]any{"product_id": p.ID, "size": "50"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCheckoutEmptyCart(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/v1/checkout", map[string]string{
		"name": "Amina", "phone": "0712345678", "location": "Westlands",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRateLimited(t *testing.T) {
	env := newTestEnv(t)

	body := map[string]string{"email": adminEmail, "password": "wrong-password"}
	var last int
	for i := 0; i < limitBurst+1; i++ {
		last = env.do(t, http.MethodPost, "/api/v1/auth/login", body).Code
		if i < limitBurst {
			assert.Equal(t, http.StatusUnauthorized, last)
		}
	}
	assert.Equal(t, http.StatusTooManyRequests, last)
}

func TestAdminRoutesRequireSession(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/api/v1/admin/orders", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestAdminDeleteCategoryInUse(t *testing.T) {
	env := newTestEnv(t)
	cat := models.Category{Name: "Sneakers", Slug: "sneakers"}
	require.NoError(t, env.DB.Create(&cat).Error)
	env.product(t, "Trail Runner", 5500, "Sneakers")
	env.product(t, "Court Classic", 3900, "sneakers")

	c, _ := adminContext(env.E, http.MethodDelete, "/", nil)
	c.SetParamNames("id")
	c.SetParamValues(cat.ID.String())

	err := env.Admin.DeleteCategory(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusConflict, he.Code)
	assert.EqualValues(t, 2, he.Message.(echo.Map)["products"])
}

func TestAdminCreateProductValidation(t *testing.T) {
	env := newTestEnv(t)

	c, _ := adminContext(env.E, http.MethodPost, "/", map[string]any{"name": "No Images", "slug": "no-images", "price": 100})
	err := env.Admin.CreateProduct(c)
	var he *echo.HTTPError
	require.ErrorAs(t, err, &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)

	c, rec := adminContext(env.E, http.MethodPost, "/", map[string]any{
		"name": "Trail Runner", "slug": "trail-runner", "price": 5500,
		"images": []string{"https://cdn.test/a.jpg"}, "categories": []string{"Sneakers"},
	})
	require.NoError(t, env.Admin.CreateProduct(c))
	assert.Equal(t, http.StatusCreated, rec.Code)
}

func TestAdminPatchOrderStatus(t *testing.T) {
	env := newTestEnv(t)
	o := models.Order{CustomerName: "Amina", Phone: "0712", Location: "Westlands", Total: 100, Status: models.OrderStatusPending}
	require.NoError(t, env.DB.Create(&o).Error)

	c, rec := adminContext(env.E, http.MethodPatch, "/", map[string]string{"status": "shipped"})
	c.SetParamNames("id")
	c.SetParamValues(o.ID.String())
	require.NoError(t, env.Admin.PatchOrder(c))
	assert.Equal(t, http.StatusOK, rec.Code)

	c, _ = adminContext(env.E, http.MethodPatch, "/", map[string]string{"status": "lost"})
	c.SetParamNames("id")
	c.SetParamValues(o.ID.String())
	var he *echo.HTTPError
	require.ErrorAs(t, env.Admin.PatchOrder(c), &he)
	assert.Equal(t, http.StatusBadRequest, he.Code)
}

func TestAdminHandlerWithoutPrincipal(t *testing.T) {
	env := newTestEnv(t)
	req := httptest.NewRequest(http.MethodGet, "/", nil).WithContext(context.Background())
	c := env.E.NewContext(req, httptest.NewRecorder())

	var he *echo.HTTPError
	require.ErrorAs(t, env.Admin.ListOrders(c), &he)
	assert.Equal(t, http.StatusUnauthorized, he.Code)
}
