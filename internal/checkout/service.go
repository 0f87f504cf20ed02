package checkout

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/happyfeet/storefront/internal/cart"
	"github.com/happyfeet/storefront/internal/models"
	"github.com/happyfeet/storefront/pkg/events"
	"github.com/happyfeet/storefront/pkg/logging"
)

const EventOrderCreated = "order_created"

// OrderWriter persists an order in two separate steps. Nothing ties the
// steps together: a failed item insert leaves the order row in place.
type OrderWriter interface {
	InsertOrder(ctx context.Context, o *models.Order) error
	InsertOrderItems(ctx context.Context, items []models.OrderItem) error
}

// PartialOrderError means the order row was written but its items were not.
type PartialOrderError struct {
	OrderID uuid.UUID
	Err     error
}

func (e *PartialOrderError) Error() string {
	return fmt.Sprintf("order %s saved without items: %v", e.OrderID, e.Err)
}

func (e *PartialOrderError) Unwrap() error { return e.Err }

type Service struct {
	Orders      OrderWriter
	Events      events.Publisher
	ChatBaseURL string
	ChatPhone   string
}

type Result struct {
	Order       models.Order `json:"order"`
	Message     string       `json:"message"`
	RedirectURL string       `json:"redirect_url"`
}

// PlaceOrder turns the cart into a pending order and builds the chat link
// carrying its summary. The cart is cleared only when both succeed.
func (s *Service) PlaceOrder(ctx context.Context, form Form, store *cart.Store) (Result, error) {
	log := logging.FromContext(ctx).With("svc", "checkout")

	if err := form.Validate(); err != nil {
		return Result{}, err
	}
	form = form.Normalize()

	state := store.State()
	if len(state.Items) == 0 {
		return Result{}, ErrEmptyCart
	}

	order := models.Order{
		CustomerName: form.Name,
		Phone:        form.Phone,
		Location:     form.Location,
		Notes:        form.Notes,
		Total:        state.TotalPrice(),
		Status:       models.OrderStatusPending,
	}
	if err := s.Orders.InsertOrder(ctx, &order); err != nil {
		log.Error("create_order_error", "reason", "insert order failed", "error", err)
		return Result{}, fmt.Errorf("insert order: %w", err)
	}

	items := make([]models.OrderItem, 0, len(state.Items))
	for _, it := range state.Items {
		pid := it.ProductID
		items = append(items, models.OrderItem{
			OrderID:     order.ID,
			ProductID:   &pid,
			ProductName: it.Name,
			Price:       it.Price,
			Size:        it.Size,
			Quantity:    it.Quantity,
		})
	}
	if err := s.Orders.InsertOrderItems(ctx, items); err != nil {
		log.Error("create_order_error", "reason", "insert order items failed", "order_id", order.ID, "error", err)
		return Result{}, &PartialOrderError{OrderID: order.ID, Err: err}
	}
	order.Items = items

	text := ComposeMessage(order, items)
	link, err := DeepLink(s.ChatBaseURL, s.ChatPhone, text)
	if err != nil {
		log.Error("create_order_error", "reason", "build chat link failed", "order_id", order.ID, "error", err)
		return Result{}, fmt.Errorf("build chat link: %w", err)
	}

	if err := store.Clear(ctx); err != nil {
		log.Warn("clear_cart_error", "order_id", order.ID, "error", err)
	}

	if s.Events != nil {
		ev := events.NewEvent(EventOrderCreated, map[string]any{
			"order_id": order.ID.String(),
			"total":    order.Total,
			"items":    len(items),
		})
		if err := s.Events.PublishEvent(ctx, events.TopicOrders, order.ID.String(), ev); err != nil {
			log.Warn("publish_event_error", "event", EventOrderCreated, "order_id", order.ID, "error", err)
		}
	}

	log.Info("order_created", "order_id", order.ID, "total", order.Total, "items", len(items))
	return Result{Order: order, Message: text, RedirectURL: link}, nil
}
