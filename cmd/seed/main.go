package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"

	"github.com/happyfeet/storefront/internal/auth"
	"github.com/happyfeet/storefront/internal/repo"
	"github.com/happyfeet/storefront/internal/seed"
	"github.com/happyfeet/storefront/pkg/authz"
	"github.com/happyfeet/storefront/pkg/config"
	pkgdb "github.com/happyfeet/storefront/pkg/db"
	"github.com/happyfeet/storefront/pkg/logging"
)

// usage: seed [file], defaulting to SEED_FILE.
func main() {
	if err := godotenv.Load(); err != nil {
		log.Printf("warning: could not load .env: %v", err)
	}

	cfg := config.Load()
	config.MustNonEmpty(cfg.DatabaseURL, "DATABASE_URL")

	logger := logging.New(cfg.LogLevel).With("service", cfg.ServiceName+"-seed")
	slog.SetDefault(logger)

	path := cfg.SeedFile
	if len(os.Args) > 1 {
		path = os.Args[1]
	}
	f, err := seed.LoadFromFile(path)
	if err != nil {
		log.Fatalf("load seed: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()
	ctx = logging.IntoContext(ctx, logger)

	db, err := pkgdb.Open(ctx, cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db open: %v", err)
	}
	defer func() { _ = pkgdb.Close(db) }()

	if err := repo.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	authRepo := &auth.GormRepo{DB: db}
	seeder := &seed.Seeder{
		Repo:   &repo.GormRepo{DB: db},
		Admins: &auth.Service{Repo: authRepo, Admins: authz.NewAllowList(cfg.AdminEmails)},
		Finder: authRepo,
	}

	rep, err := seeder.Apply(ctx, f)
	if err != nil {
		logger.Error("seed_failed", "error", err)
		os.Exit(1)
	}
	logger.Info("seed_applied",
		"file", path,
		"admins", rep.AdminsCreated,
		"categories", rep.CategoriesCreated,
		"products", rep.ProductsCreated,
		"skipped", rep.Skipped,
	)
}
