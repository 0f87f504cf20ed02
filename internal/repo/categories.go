package repo

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happyfeet/storefront/internal/models"
)

func (r *GormRepo) ListCategories(ctx context.Context) ([]models.Category, error) {
	var items []models.Category
	if err := r.DB.WithContext(ctx).Order("name ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}

func (r *GormRepo) GetCategory(ctx context.Context, id uuid.UUID) (*models.Category, error) {
	var c models.Category
	if err := r.DB.WithContext(ctx).First(&c, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &c, nil
}

func (r *GormRepo) CreateCategory(ctx context.Context, c *models.Category) error {
	return r.DB.WithContext(ctx).Create(c).Error
}

func (r *GormRepo) UpdateCategoryDescription(ctx context.Context, id uuid.UUID, description string) error {
	res := r.DB.WithContext(ctx).Model(&models.Category{}).Where("id = ?", id).Update("description", description)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func productsWithCategory(tx *gorm.DB, name string) ([]models.Product, error) {
	var candidates []models.Product
	err := tx.Where(`LOWER(categories) LIKE ? ESCAPE '\'`, jsonElementPattern(name)).Find(&candidates).Error
	if err != nil {
		return nil, err
	}
	out := candidates[:0]
	for _, p := range candidates {
		if containsFold(p.Categories, name) {
			out = append(out, p)
		}
	}
	return out, nil
}

// CountProductsInCategory counts products labelled with name, ignoring case.
func (r *GormRepo) CountProductsInCategory(ctx context.Context, name string) (int64, error) {
	ps, err := productsWithCategory(r.DB.WithContext(ctx), name)
	if err != nil {
		return 0, err
	}
	return int64(len(ps)), nil
}

// RenameCategory renames the category and relabels every product carrying
// the old name inside one transaction. It returns the number of relabelled
// products.
func (r *GormRepo) RenameCategory(ctx context.Context, id uuid.UUID, name, slug string) (*models.Category, int, error) {
	var cat models.Category
	relabelled := 0

	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&cat, "id = ?", id).Error; err != nil {
			return err
		}
		oldName := cat.Name

		if err := tx.Model(&cat).Updates(map[string]any{"name": name, "slug": slug}).Error; err != nil {
			return err
		}
		cat.Name, cat.Slug = name, slug

		products, err := productsWithCategory(tx, oldName)
		if err != nil {
			return err
		}
		for i := range products {
			p := &products[i]
			p.Categories = relabel(p.Categories, oldName, name)
			if err := tx.Model(p).Select("categories").Updates(p).Error; err != nil {
				return err
			}
		}
		relabelled = len(products)
		return nil
	})
	if err != nil {
		return nil, 0, err
	}
	return &cat, relabelled, nil
}

func relabel(labels []string, from, to string) []string {
	out := make([]string, 0, len(labels))
	seen := map[string]bool{}
	for _, l := range labels {
		if strings.EqualFold(l, from) {
			l = to
		}
		if key := strings.ToLower(l); !seen[key] {
			seen[key] = true
			out = append(out, l)
		}
	}
	return out
}

// DeleteCategory refuses with the blocking count when products still use the
// category. The check and the delete share a transaction.
func (r *GormRepo) DeleteCategory(ctx context.Context, id uuid.UUID) (inUse int64, err error) {
	err = r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var cat models.Category
		if err := tx.First(&cat, "id = ?", id).Error; err != nil {
			return err
		}
		ps, err := productsWithCategory(tx, cat.Name)
		if err != nil {
			return err
		}
		if len(ps) > 0 {
			inUse = int64(len(ps))
			return nil
		}
		return tx.Delete(&cat).Error
	})
	return inUse, err
}
