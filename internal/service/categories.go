package service

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/happyfeet/storefront/internal/catalog"
	"github.com/happyfeet/storefront/internal/models"
	"github.com/happyfeet/storefront/internal/repo"
	"github.com/happyfeet/storefront/internal/transport"
	"github.com/happyfeet/storefront/pkg/authz"
	"github.com/happyfeet/storefront/pkg/events"
	"github.com/happyfeet/storefront/pkg/logging"
)

const (
	EventCategoryCreated = "category_created"
	EventCategoryRenamed = "category_renamed"
	EventCategoryDeleted = "category_deleted"
)

type CategoryService struct {
	Repo   *repo.GormRepo
	Authz  *authz.AllowList
	Events events.Publisher
}

func (s *CategoryService) List(ctx context.Context) ([]models.Category, error) {
	return s.Repo.ListCategories(ctx)
}

func categorySlug(name string) (string, error) {
	if name == "" {
		return "", validationf("name is required")
	}
	if strings.EqualFold(name, catalog.AllCategories) {
		return "", validationf("%q is reserved", catalog.AllCategories)
	}
	slug := catalog.Slugify(name)
	if slug == "" {
		return "", validationf("name %q has no letters or digits", name)
	}
	return slug, nil
}

func (s *CategoryService) Create(ctx context.Context, req transport.CreateCategoryRequest) (*models.Category, error) {
	l := logging.FromContext(ctx).With("svc", "categories.create")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	name := strings.TrimSpace(req.Name)
	slug, err := categorySlug(name)
	if err != nil {
		return nil, err
	}

	c := &models.Category{Name: name, Slug: slug, Description: strings.TrimSpace(req.Description)}
	if err := s.Repo.CreateCategory(ctx, c); err != nil {
		return nil, translate(err, "category")
	}

	publish(ctx, l, s.Events, events.TopicCatalog, EventCategoryCreated, c.ID, map[string]any{"name": c.Name})
	return c, nil
}

// Update renames atomically (category and every product label together) and
// updates the description. There is no non-atomic rename path.
func (s *CategoryService) Update(ctx context.Context, id uuid.UUID, req transport.PatchCategoryRequest) (*models.Category, error) {
	l := logging.FromContext(ctx).With("svc", "categories.update")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return nil, translate(err, "category")
	}

	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		slug, err := categorySlug(name)
		if err != nil {
			return nil, err
		}
		if name != cat.Name {
			oldName := cat.Name
			renamed, relabelled, err := s.Repo.RenameCategory(ctx, id, name, slug)
			if err != nil {
				l.Error("rename_category_error", "category_id", id, "error", err)
				return nil, translate(err, "category")
			}
			cat = renamed
			l.Info("category_renamed", "from", oldName, "to", name, "products", relabelled)
			publish(ctx, l, s.Events, events.TopicCatalog, EventCategoryRenamed, id, map[string]any{
				"from": oldName, "to": name, "products": relabelled,
			})
		}
	}

	if req.Description != nil {
		desc := strings.TrimSpace(*req.Description)
		if err := s.Repo.UpdateCategoryDescription(ctx, id, desc); err != nil {
			return nil, translate(err, "category")
		}
		cat.Description = desc
	}
	return cat, nil
}

// Delete fails with *CategoryInUseError while any product carries the name.
func (s *CategoryService) Delete(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "categories.delete")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return err
	}

	cat, err := s.Repo.GetCategory(ctx, id)
	if err != nil {
		return translate(err, "category")
	}
	inUse, err := s.Repo.DeleteCategory(ctx, id)
	if err != nil {
		return translate(err, "category")
	}
	if inUse > 0 {
		return &CategoryInUseError{Name: cat.Name, Products: inUse}
	}

	publish(ctx, l, s.Events, events.TopicCatalog, EventCategoryDeleted, id, map[string]any{"name": cat.Name})
	return nil
}
