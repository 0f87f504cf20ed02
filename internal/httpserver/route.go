package httpserver

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"
	"golang.org/x/time/rate"
	"gorm.io/gorm"

	"github.com/happyfeet/storefront/pkg/logging"
	authmw "github.com/happyfeet/storefront/pkg/middleware/auth"
)

const (
	CSRFHeader = "X-CSRF-Token"
	CSRFCookie = "_csrf"

	defaultLimitRPS   = 1
	limitBurst        = 5
	limiterExpiration = 3 * time.Minute
)

type Deps struct {
	DB       *gorm.DB
	Shop     *ShopHTTP
	Cart     *CartHTTP
	Checkout *CheckoutHTTP
	Auth     *AuthHTTP
	Admin    *AdminHTTP
	Session  *authmw.Session

	// LimitRPS is the per-client request rate allowed on checkout and login.
	LimitRPS     float64
	CookieSecure bool
}

// rateLimit keys a token bucket on the client's IP.
func rateLimit(rps float64) echo.MiddlewareFunc {
	if rps <= 0 {
		rps = defaultLimitRPS
	}
	store := echomw.NewRateLimiterMemoryStoreWithConfig(echomw.RateLimiterMemoryStoreConfig{
		Rate:      rate.Limit(rps),
		Burst:     limitBurst,
		ExpiresIn: limiterExpiration,
	})
	return echomw.RateLimiterWithConfig(echomw.RateLimiterConfig{
		Store: store,
		IdentifierExtractor: func(c echo.Context) (string, error) {
			return c.RealIP(), nil
		},
		ErrorHandler: func(c echo.Context, err error) error {
			return echo.NewHTTPError(http.StatusForbidden, "cannot identify client")
		},
		DenyHandler: func(c echo.Context, id string, err error) error {
			logging.FromContext(c.Request().Context()).Warn("rate_limited", "status", 429, "client", id)
			return echo.NewHTTPError(http.StatusTooManyRequests, "too many requests, please slow down")
		},
	})
}

func csrf(secure bool) echo.MiddlewareFunc {
	return echomw.CSRFWithConfig(echomw.CSRFConfig{
		TokenLookup:    "header:" + CSRFHeader,
		CookieName:     CSRFCookie,
		CookiePath:     "/",
		CookieSecure:   secure,
		CookieSameSite: http.SameSiteStrictMode,
	})
}

func Register(e *echo.Echo, d *Deps) {
	e.GET("/health/live", func(c echo.Context) error { return c.NoContent(http.StatusOK) })
	e.GET("/health/ready", func(c echo.Context) error {
		sqlDB, err := d.DB.DB()
		if err == nil {
			err = sqlDB.PingContext(c.Request().Context())
		}
		if err != nil {
			logging.FromContext(c.Request().Context()).Error("ready_check_failed", "error", err)
			return c.NoContent(http.StatusServiceUnavailable)
		}
		return c.NoContent(http.StatusOK)
	})

	api := e.Group("/api/v1")

	shop := api.Group("/shop")
	shop.GET("/products", d.Shop.ListProducts)
	shop.GET("/products/:slug", d.Shop.GetProduct)
	shop.GET("/categories", d.Shop.ListCategories)

	cart := api.Group("/cart")
	cart.GET("", d.Cart.GetCart)
	cart.DELETE("", d.Cart.Clear)
	cart.POST("/items", d.Cart.AddItem)
	cart.PATCH("/items", d.Cart.UpdateItem)
	cart.DELETE("/items", d.Cart.RemoveItem)

	api.POST("/checkout", d.Checkout.PlaceOrder, rateLimit(d.LimitRPS))

	authG := api.Group("/auth")
	authG.POST("/login", d.Auth.Login, rateLimit(d.LimitRPS))
	authG.POST("/refresh", d.Auth.Refresh)
	authG.POST("/logout", d.Auth.LogOut)

	admin := api.Group("/admin", d.Session.RequireAdmin, csrf(d.CookieSecure))
	admin.GET("/session", func(c echo.Context) error {
		return c.JSON(http.StatusOK, echo.Map{"csrf_token": c.Get(echomw.DefaultCSRFConfig.ContextKey)})
	})

	products := admin.Group("/products")
	products.GET("", d.Admin.ListProducts)
	products.POST("", d.Admin.CreateProduct)
	products.POST("/bulk-delete", d.Admin.BulkDeleteProducts)
	products.PATCH("/:id", d.Admin.PatchProduct)
	products.DELETE("/:id", d.Admin.DeleteProduct)

	categories := admin.Group("/categories")
	categories.POST("", d.Admin.CreateCategory)
	categories.PATCH("/:id", d.Admin.PatchCategory)
	categories.DELETE("/:id", d.Admin.DeleteCategory)

	orders := admin.Group("/orders")
	orders.GET("", d.Admin.ListOrders)
	orders.POST("/bulk-delete", d.Admin.BulkDeleteOrders)
	orders.GET("/:id", d.Admin.GetOrder)
	orders.PATCH("/:id", d.Admin.PatchOrder)
	orders.DELETE("/:id", d.Admin.DeleteOrder)
}
