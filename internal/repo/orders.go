package repo

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/happyfeet/storefront/internal/models"
)

func (r *GormRepo) InsertOrder(ctx context.Context, o *models.Order) error {
	return r.DB.WithContext(ctx).Omit("Items").Create(o).Error
}

// InsertOrderItems writes all items in a single statement.
func (r *GormRepo) InsertOrderItems(ctx context.Context, items []models.OrderItem) error {
	if len(items) == 0 {
		return nil
	}
	return r.DB.WithContext(ctx).Create(&items).Error
}

func (r *GormRepo) GetOrders(ctx context.Context, status models.OrderStatus, offset, limit int) (int64, []models.Order, error) {
	q := r.DB.WithContext(ctx).Model(&models.Order{})
	if status != "" {
		q = q.Where("status = ?", status)
	}

	var total int64
	if err := q.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return 0, nil, err
	}

	var items []models.Order
	if err := q.Session(&gorm.Session{}).Order("created_at DESC").Offset(offset).Limit(limit).Find(&items).Error; err != nil {
		return 0, nil, err
	}
	return total, items, nil
}

func (r *GormRepo) GetOrder(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB { return db.Order("product_name ASC") }).
		First(&o, "id = ?", id).Error
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) UpdateOrderStatus(ctx context.Context, id uuid.UUID, status models.OrderStatus) (*models.Order, error) {
	var o models.Order
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&o, "id = ?", id).Error; err != nil {
			return err
		}
		if err := tx.Model(&o).Update("status", status).Error; err != nil {
			return err
		}
		o.Status = status
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &o, nil
}

func (r *GormRepo) DeleteOrder(ctx context.Context, id uuid.UUID) error {
	return r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id = ?", id).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id = ?", id)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func (r *GormRepo) DeleteOrders(ctx context.Context, ids []uuid.UUID) (int64, error) {
	var deleted int64
	err := r.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("order_id IN ?", ids).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
		res := tx.Delete(&models.Order{}, "id IN ?", ids)
		deleted = res.RowsAffected
		return res.Error
	})
	return deleted, err
}
