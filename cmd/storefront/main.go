package main

import (
	"context"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/happyfeet/storefront/internal/auth"
	"github.com/happyfeet/storefront/internal/checkout"
	"github.com/happyfeet/storefront/internal/httpserver"
	"github.com/happyfeet/storefront/internal/repo"
	"github.com/happyfeet/storefront/internal/searchindex"
	"github.com/happyfeet/storefront/internal/service"
	"github.com/happyfeet/storefront/pkg/authz"
	"github.com/happyfeet/storefront/pkg/config"
	pkgdb "github.com/happyfeet/storefront/pkg/db"
	"github.com/happyfeet/storefront/pkg/events"
	"github.com/happyfeet/storefront/pkg/logging"
	authmw "github.com/happyfeet/storefront/pkg/middleware/auth"
	loggingmw "github.com/happyfeet/storefront/pkg/middleware/logging"
)

func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")
	config.MustNonEmptyBytes(cfg.JWTAccessSecret, "JWT_SECRET")
	config.MustNonEmptyBytes(cfg.JWTRefreshSecret, "JWT_REFRESH_SECRET")
	config.MustNonEmptyList(cfg.AdminEmails, "ADMIN_EMAILS")
	config.MustNonEmpty(cfg.ChatPhone, "CHAT_PHONE")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName)
	slog.SetDefault(logger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err == nil {
		err = repo.Migrate(ctx, db)
	}
	cancel()
	if err != nil {
		log.Fatalf("db open: %v", err)
	}

	publisher := events.New(cfg.KafkaBrokers)
	admins := authz.NewAllowList(cfg.AdminEmails)
	r := &repo.GormRepo{DB: db}

	products := &service.ProductService{Repo: r, Authz: admins, Events: publisher}
	if cfg.ESURL != "" {
		esCtx, esCancel := context.WithTimeout(context.Background(), 5*time.Second)
		ix, err := searchindex.New(esCtx, searchindex.Config{
			URL:      cfg.ESURL,
			Username: cfg.ESUser,
			Password: cfg.ESPassword,
			Index:    cfg.ESIndex,
		})
		esCancel()
		if err != nil {
			logger.Warn("search_index_unavailable", "error", err)
		} else {
			products.Index = ix
		}
	}
	categories := &service.CategoryService{Repo: r, Authz: admins, Events: publisher}
	orders := &service.OrderService{Repo: r, Authz: admins, Events: publisher}

	authSvc := &auth.Service{
		Repo:          &auth.GormRepo{DB: db},
		Admins:        admins,
		AccessSecret:  cfg.JWTAccessSecret,
		RefreshSecret: cfg.JWTRefreshSecret,
	}
	sessions := &httpserver.CartSessions{DB: db, CookieSecure: cfg.CookieSecure}

	e := echo.New()
	e.HideBanner = true
	e.Pre(echomw.RemoveTrailingSlash())
	e.Use(echomw.Recover())
	e.Use(echomw.RequestID())
	e.Use(loggingmw.RequestLogger(logger))
	e.Use(echomw.CORS())
	e.Use(echomw.Secure())

	httpserver.Register(e, &httpserver.Deps{
		DB:   db,
		Shop: &httpserver.ShopHTTP{Products: products, Categories: categories},
		Cart: &httpserver.CartHTTP{Sessions: sessions, Products: products},
		Checkout: &httpserver.CheckoutHTTP{
			Sessions: sessions,
			Svc: &checkout.Service{
				Orders:      r,
				Events:      publisher,
				ChatBaseURL: cfg.ChatBaseURL,
				ChatPhone:   cfg.ChatPhone,
			},
		},
		Auth:  &httpserver.AuthHTTP{Svc: authSvc, CookieSecure: cfg.CookieSecure},
		Admin: &httpserver.AdminHTTP{Products: products, Categories: categories, Orders: orders},
		Session: &authmw.Session{
			AccessSecret: cfg.JWTAccessSecret,
			Refresher:    authSvc,
			Admins:       admins,
			CookieSecure: cfg.CookieSecure,
		},
		LimitRPS:     cfg.CheckoutRPS,
		CookieSecure: cfg.CookieSecure,
	})

	srv := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.ServerPort),
		Handler:           e,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      15 * time.Second,
		ReadHeaderTimeout: 3 * time.Second,
	}

	go func() {
		logger.Info("storefront_listening", "addr", srv.Addr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer shutdownCancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server_shutdown_error", "error", err)
	}
	if err := publisher.Close(); err != nil {
		logger.Error("kafka_close_error", "error", err)
	}
	if err := pkgdb.Close(db); err != nil {
		logger.Error("db_close_error", "error", err)
	}

	logger.Info("storefront_stopped")
}
