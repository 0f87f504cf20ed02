package service

import (
	"context"
	"net/url"
	"strings"

	"github.com/google/uuid"

	"github.com/happyfeet/storefront/internal/catalog"
	"github.com/happyfeet/storefront/internal/models"
	"github.com/happyfeet/storefront/internal/repo"
	"github.com/happyfeet/storefront/internal/transport"
	"github.com/happyfeet/storefront/internal/util"
	"github.com/happyfeet/storefront/pkg/authz"
	"github.com/happyfeet/storefront/pkg/events"
	"github.com/happyfeet/storefront/pkg/logging"
)

const (
	EventProductCreated = "product_created"
	EventProductUpdated = "product_updated"
	EventProductDeleted = "product_deleted"
)

// ProductIndex is the optional full-text index products are mirrored into.
type ProductIndex interface {
	IndexProduct(ctx context.Context, p *models.Product) error
	DeleteProduct(ctx context.Context, id uuid.UUID) error
	Search(ctx context.Context, query string, offset, limit int) (int64, []uuid.UUID, error)
}

type ProductService struct {
	Repo   *repo.GormRepo
	Authz  *authz.AllowList
	Index  ProductIndex
	Events events.Publisher
}

func (s *ProductService) List(ctx context.Context) ([]models.Product, error) {
	return s.Repo.ListProducts(ctx)
}

func (s *ProductService) GetBySlug(ctx context.Context, slug string) (*models.Product, error) {
	p, err := s.Repo.GetProductBySlug(ctx, slug)
	return p, translate(err, "product")
}

func (s *ProductService) Get(ctx context.Context, id uuid.UUID) (*models.Product, error) {
	p, err := s.Repo.GetProduct(ctx, id)
	return p, translate(err, "product")
}

func (s *ProductService) AdminList(ctx context.Context, page, size int) (util.Page[models.Product], error) {
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return util.Page[models.Product]{}, err
	}
	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.GetProducts(ctx, offset, limit)
	if err != nil {
		return util.Page[models.Product]{}, err
	}
	return util.Page[models.Product]{Data: items, Meta: util.NewMeta(page, size, total)}, nil
}

// Search uses the index when one is configured and falls back to a database
// substring search when it is absent or failing.
func (s *ProductService) Search(ctx context.Context, q string, page, size int) (util.Page[models.Product], error) {
	l := logging.FromContext(ctx).With("svc", "products.search")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return util.Page[models.Product]{}, err
	}
	q = strings.TrimSpace(q)
	if q == "" {
		return util.Page[models.Product]{}, validationf("query is required")
	}
	offset, limit := util.Calculate(page, size)

	if s.Index != nil {
		total, ids, err := s.Index.Search(ctx, q, offset, limit)
		if err == nil {
			items, err := s.Repo.GetProductsByIDs(ctx, ids)
			if err != nil {
				return util.Page[models.Product]{}, err
			}
			return util.Page[models.Product]{Data: items, Meta: util.NewMeta(page, size, total)}, nil
		}
		l.Warn("search_index_error", "reason", "falling back to database search", "error", err)
	}

	total, items, err := s.Repo.SearchProducts(ctx, q, offset, limit)
	if err != nil {
		return util.Page[models.Product]{}, err
	}
	return util.Page[models.Product]{Data: items, Meta: util.NewMeta(page, size, total)}, nil
}

func cleanList(in []string) []string {
	out := make([]string, 0, len(in))
	seen := map[string]bool{}
	for _, v := range in {
		v = strings.TrimSpace(v)
		if v == "" || seen[strings.ToLower(v)] {
			continue
		}
		seen[strings.ToLower(v)] = true
		out = append(out, v)
	}
	return out
}

func validateProduct(p *models.Product) error {
	if p.Name == "" {
		return validationf("name is required")
	}
	if !catalog.ValidSlug(p.Slug) {
		return validationf("slug %q is not URL-safe", p.Slug)
	}
	if p.Price < 0 {
		return validationf("price cannot be negative")
	}
	if len(p.Categories) == 0 {
		return validationf("at least one category is required")
	}
	if len(p.Images) == 0 {
		return validationf("at least one image is required")
	}
	for _, img := range p.Images {
		u, err := url.Parse(img)
		if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return validationf("image %q is not an absolute http(s) URL", img)
		}
	}
	return nil
}

func (s *ProductService) Create(ctx context.Context, req transport.CreateProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "products.create")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	p := &models.Product{
		Name:        strings.TrimSpace(req.Name),
		Slug:        strings.TrimSpace(req.Slug),
		Price:       req.Price,
		Categories:  cleanList(req.Categories),
		Images:      cleanList(req.Images),
		Sizes:       cleanList(req.Sizes),
		Description: strings.TrimSpace(req.Description),
		Featured:    req.Featured,
	}
	if p.Slug == "" {
		p.Slug = catalog.Slugify(p.Name)
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.Repo.CreateProduct(ctx, p); err != nil {
		return nil, translate(err, "product slug")
	}

	s.mirror(ctx, l, p)
	s.publish(ctx, l, EventProductCreated, p.ID, map[string]any{"slug": p.Slug, "name": p.Name})
	return p, nil
}

func (s *ProductService) Patch(ctx context.Context, id uuid.UUID, req transport.PatchProductRequest) (*models.Product, error) {
	l := logging.FromContext(ctx).With("svc", "products.patch")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}

	p, err := s.Repo.GetProduct(ctx, id)
	if err != nil {
		return nil, translate(err, "product")
	}

	if req.Name != nil {
		p.Name = strings.TrimSpace(*req.Name)
	}
	if req.Slug != nil {
		p.Slug = strings.TrimSpace(*req.Slug)
	}
	if req.Price != nil {
		p.Price = *req.Price
	}
	if req.Categories != nil {
		p.Categories = cleanList(*req.Categories)
	}
	if req.Images != nil {
		p.Images = cleanList(*req.Images)
	}
	if req.Sizes != nil {
		p.Sizes = cleanList(*req.Sizes)
	}
	if req.Description != nil {
		p.Description = strings.TrimSpace(*req.Description)
	}
	if req.Featured != nil {
		p.Featured = *req.Featured
	}
	if err := validateProduct(p); err != nil {
		return nil, err
	}

	if err := s.Repo.SaveProduct(ctx, p); err != nil {
		return nil, translate(err, "product slug")
	}

	s.mirror(ctx, l, p)
	s.publish(ctx, l, EventProductUpdated, p.ID, map[string]any{"slug": p.Slug})
	return p, nil
}

func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "products.delete")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return err
	}
	if err := s.Repo.DeleteProduct(ctx, id); err != nil {
		return translate(err, "product")
	}
	s.unmirror(ctx, l, id)
	s.publish(ctx, l, EventProductDeleted, id, nil)
	return nil
}

func (s *ProductService) BulkDelete(ctx context.Context, ids []uuid.UUID, progress Progress) (BulkResult, error) {
	l := logging.FromContext(ctx).With("svc", "products.bulk_delete")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return BulkResult{}, err
	}
	if len(ids) == 0 {
		return BulkResult{}, validationf("no ids given")
	}

	res := runBulk(ctx, ids, func(ctx context.Context, batch []uuid.UUID) (int64, error) {
		n, err := s.Repo.DeleteProducts(ctx, batch)
		if err != nil {
			l.Error("bulk_delete_batch_error", "batch_size", len(batch), "error", err)
			return 0, err
		}
		for _, id := range batch {
			s.unmirror(ctx, l, id)
		}
		return n, nil
	}, progress)

	s.publish(ctx, l, EventProductDeleted, uuid.Nil, map[string]any{"deleted": res.Deleted, "failed_batches": len(res.Failed)})
	return res, nil
}

func (s *ProductService) mirror(ctx context.Context, l logger, p *models.Product) {
	if s.Index == nil {
		return
	}
	if err := s.Index.IndexProduct(ctx, p); err != nil {
		l.Warn("search_index_error", "product_id", p.ID, "error", err)
	}
}

func (s *ProductService) unmirror(ctx context.Context, l logger, id uuid.UUID) {
	if s.Index == nil {
		return
	}
	if err := s.Index.DeleteProduct(ctx, id); err != nil {
		l.Warn("search_index_error", "product_id", id, "error", err)
	}
}

func (s *ProductService) publish(ctx context.Context, l logger, typ string, id uuid.UUID, data map[string]any) {
	publish(ctx, l, s.Events, events.TopicCatalog, typ, id, data)
}
