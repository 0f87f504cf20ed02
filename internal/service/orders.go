package service

import (
	"context"

	"github.com/google/uuid"

	"github.com/happyfeet/storefront/internal/models"
	"github.com/happyfeet/storefront/internal/repo"
	"github.com/happyfeet/storefront/internal/util"
	"github.com/happyfeet/storefront/pkg/authz"
	"github.com/happyfeet/storefront/pkg/events"
	"github.com/happyfeet/storefront/pkg/logging"
)

const (
	EventOrderStatusChanged = "order_status_changed"
	EventOrderDeleted       = "order_deleted"
)

type OrderService struct {
	Repo   *repo.GormRepo
	Authz  *authz.AllowList
	Events events.Publisher
}

func parseStatus(raw string) (models.OrderStatus, error) {
	st := models.OrderStatus(raw)
	if !st.Valid() {
		return "", validationf("unknown order status %q", raw)
	}
	return st, nil
}

// List filters by status when one is given.
func (s *OrderService) List(ctx context.Context, status string, page, size int) (util.Page[models.Order], error) {
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return util.Page[models.Order]{}, err
	}
	var st models.OrderStatus
	if status != "" {
		var err error
		if st, err = parseStatus(status); err != nil {
			return util.Page[models.Order]{}, err
		}
	}

	offset, limit := util.Calculate(page, size)
	total, items, err := s.Repo.GetOrders(ctx, st, offset, limit)
	if err != nil {
		return util.Page[models.Order]{}, err
	}
	return util.Page[models.Order]{Data: items, Meta: util.NewMeta(page, size, total)}, nil
}

func (s *OrderService) Get(ctx context.Context, id uuid.UUID) (*models.Order, error) {
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	o, err := s.Repo.GetOrder(ctx, id)
	return o, translate(err, "order")
}

// UpdateStatus allows any transition between known statuses.
func (s *OrderService) UpdateStatus(ctx context.Context, id uuid.UUID, status string) (*models.Order, error) {
	l := logging.FromContext(ctx).With("svc", "orders.update_status")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return nil, err
	}
	st, err := parseStatus(status)
	if err != nil {
		return nil, err
	}

	o, err := s.Repo.UpdateOrderStatus(ctx, id, st)
	if err != nil {
		return nil, translate(err, "order")
	}
	publish(ctx, l, s.Events, events.TopicOrders, EventOrderStatusChanged, id, map[string]any{"status": string(st)})
	return o, nil
}

func (s *OrderService) Delete(ctx context.Context, id uuid.UUID) error {
	l := logging.FromContext(ctx).With("svc", "orders.delete")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return err
	}
	if err := s.Repo.DeleteOrder(ctx, id); err != nil {
		return translate(err, "order")
	}
	publish(ctx, l, s.Events, events.TopicOrders, EventOrderDeleted, id, nil)
	return nil
}

func (s *OrderService) BulkDelete(ctx context.Context, ids []uuid.UUID, progress Progress) (BulkResult, error) {
	l := logging.FromContext(ctx).With("svc", "orders.bulk_delete")
	if _, err := s.Authz.RequireAdmin(ctx); err != nil {
		return BulkResult{}, err
	}
	if len(ids) == 0 {
		return BulkResult{}, validationf("no ids given")
	}

	res := runBulk(ctx, ids, func(ctx context.Context, batch []uuid.UUID) (int64, error) {
		n, err := s.Repo.DeleteOrders(ctx, batch)
		if err != nil {
			l.Error("bulk_delete_batch_error", "batch_size", len(batch), "error", err)
		}
		return n, err
	}, progress)

	publish(ctx, l, s.Events, events.TopicOrders, EventOrderDeleted, uuid.Nil, map[string]any{"deleted": res.Deleted, "failed_batches": len(res.Failed)})
	return res, nil
}
