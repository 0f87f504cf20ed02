package seed

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"gorm.io/gorm"

	"github.com/happyfeet/storefront/internal/catalog"
	"github.com/happyfeet/storefront/internal/models"
	"github.com/happyfeet/storefront/internal/repo"
	"github.com/happyfeet/storefront/pkg/logging"
)

// AdminCreator creates admin accounts.
type AdminCreator interface {
	EnsureAdmin(ctx context.Context, email, password string) (bool, error)
}

type AdminFinder interface {
	FindAdminByEmail(ctx context.Context, email string) (*models.AdminUser, error)
}

type Seeder struct {
	Repo   *repo.GormRepo
	Admins AdminCreator
	Finder AdminFinder
}

type Report struct {
	AdminsCreated     int
	CategoriesCreated int
	ProductsCreated   int
	Skipped           int
}

// Apply creates every record that does not exist yet. Existing records are
// left untouched, so applying the same file twice is a no-op.
func (s *Seeder) Apply(ctx context.Context, f *File) (Report, error) {
	l := logging.FromContext(ctx).With("svc", "seed")
	var rep Report

	for _, a := range f.Admins {
		email := strings.ToLower(strings.TrimSpace(a.Email))
		_, err := s.Finder.FindAdminByEmail(ctx, email)
		switch {
		case err == nil:
			rep.Skipped++
			continue
		case !errors.Is(err, gorm.ErrRecordNotFound):
			return rep, fmt.Errorf("find admin %s: %w", email, err)
		}
		if _, err := s.Admins.EnsureAdmin(ctx, email, a.Password); err != nil {
			return rep, fmt.Errorf("seed admin %s: %w", email, err)
		}
		rep.AdminsCreated++
		l.Info("admin_seeded", "email", email)
	}

	existing, err := s.Repo.ListCategories(ctx)
	if err != nil {
		return rep, err
	}
	have := map[string]bool{}
	for _, c := range existing {
		have[strings.ToLower(c.Name)] = true
	}
	for _, c := range f.Categories {
		name := strings.TrimSpace(c.Name)
		if have[strings.ToLower(name)] {
			rep.Skipped++
			continue
		}
		slug := catalog.Slugify(name)
		if slug == "" {
			return rep, fmt.Errorf("category %q has no usable slug", name)
		}
		if err := s.Repo.CreateCategory(ctx, &models.Category{Name: name, Slug: slug, Description: c.Description}); err != nil {
			return rep, fmt.Errorf("seed category %s: %w", name, err)
		}
		have[strings.ToLower(name)] = true
		rep.CategoriesCreated++
		l.Info("category_seeded", "name", name)
	}

	for _, p := range f.Products {
		slug := p.Slug
		if slug == "" {
			slug = catalog.Slugify(p.Name)
		}
		if !catalog.ValidSlug(slug) {
			return rep, fmt.Errorf("product %q: slug %q is not URL-safe", p.Name, slug)
		}
		if len(p.Categories) == 0 {
			return rep, fmt.Errorf("product %q has no categories", p.Name)
		}
		if len(p.Images) == 0 {
			return rep, fmt.Errorf("product %q has no images", p.Name)
		}
		if p.Price < 0 {
			return rep, fmt.Errorf("product %q has a negative price", p.Name)
		}

		_, err := s.Repo.GetProductBySlug(ctx, slug)
		if err == nil {
			rep.Skipped++
			continue
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return rep, fmt.Errorf("find product %s: %w", slug, err)
		}

		prod := &models.Product{
			Name:        p.Name,
			Slug:        slug,
			Price:       p.Price,
			Categories:  p.Categories,
			Images:      p.Images,
			Sizes:       p.Sizes,
			Description: p.Description,
			Featured:    p.Featured,
		}
		if err := s.Repo.CreateProduct(ctx, prod); err != nil {
			return rep, fmt.Errorf("seed product %s: %w", slug, err)
		}
		rep.ProductsCreated++
		l.Info("product_seeded", "slug", slug)
	}

	return rep, nil
}
