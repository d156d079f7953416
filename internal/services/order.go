package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopscript/apiserver/internal/events"
	"github.com/shopscript/apiserver/internal/metrics"
	"github.com/shopscript/apiserver/internal/store"
	"github.com/shopscript/apiserver/types"
)

// OrderRepository defines persistence operations for orders.
type OrderRepository interface {
	Create(ctx context.Context, order types.Order) (types.Order, error)
	Get(ctx context.Context, id int) (types.Order, error)
	List(ctx context.Context) ([]types.Order, error)
	ListByUser(ctx context.Context, userID int) ([]types.Order, error)
	UpdateStatus(ctx context.Context, id int, status types.OrderStatus) error
}

// EventPublisher emits domain events. Failures never undo the write that caused them.
type EventPublisher interface {
	Publish(ctx context.Context, channel, eventType string, payload any) error
}

// PlaceOrderInput is the checkout payload.
type PlaceOrderInput struct {
	ShippingAddress string
	PaymentMethod   string
	PaymentStatus   string
	Items           []PlaceOrderItem
}

type PlaceOrderItem struct {
	ProductID    int
	Quantity     int
	Price        float64
	SelectedSize string
}

// OrderEvent is the payload published for order events.
type OrderEvent struct {
	OrderID     int               `json:"orderId"`
	UserID      int               `json:"userId"`
	Status      types.OrderStatus `json:"status"`
	TotalAmount float64           `json:"totalAmount"`
}

// EventKey orders events per order.
func (e OrderEvent) EventKey() string {
	return fmt.Sprintf("order-%d", e.OrderID)
}

// OrderService encapsulates checkout and fulfilment use-cases.
type OrderService struct {
	orders   OrderRepository
	products ProductRepository
	events   EventPublisher
}

func NewOrderService(orders OrderRepository, products ProductRepository, publisher EventPublisher) *OrderService {
	return &OrderService{orders: orders, products: products, events: publisher}
}

// Place records a PENDING order for a user-table principal. Unit prices come
// from the catalog; a client price that no longer matches is rejected.
func (s *OrderService) Place(ctx context.Context, p types.Principal, input PlaceOrderInput) (types.Order, error) {
	if p.Source != types.SourceUser {
		return types.Order{}, ErrForbidden
	}
	address := strings.TrimSpace(input.ShippingAddress)
	method := strings.TrimSpace(input.PaymentMethod)
	if address == "" || method == "" || len(input.Items) == 0 {
		return types.Order{}, ErrMissingFields
	}

	items := make([]types.OrderItem, 0, len(input.Items))
	var total float64
	for _, in := range input.Items {
		if in.Quantity < 1 {
			return types.Order{}, fmt.Errorf("%w: quantity must be at least 1", ErrInvalidInput)
		}
		product, err := s.products.Get(ctx, in.ProductID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				return types.Order{}, fmt.Errorf("%w: product %d does not exist", ErrInvalidInput, in.ProductID)
			}
			return types.Order{}, fmt.Errorf("load product %d: %w", in.ProductID, err)
		}
		if product.Deleted {
			return types.Order{}, fmt.Errorf("%w: product %d is no longer available", ErrInvalidInput, in.ProductID)
		}

		size := strings.TrimSpace(in.SelectedSize)
		price := unitPrice(product, size)
		if in.Price > 0 && math.Abs(in.Price-price) >= 0.005 {
			return types.Order{}, fmt.Errorf("%w: price of product %d has changed", ErrInvalidInput, in.ProductID)
		}

		items = append(items, types.OrderItem{
			ProductID:    product.ID,
			ProductName:  product.Name,
			Quantity:     in.Quantity,
			Price:        price,
			SelectedSize: size,
		})
		total += price * float64(in.Quantity)
	}

	order, err := s.orders.Create(ctx, types.Order{
		UserID:          p.ID,
		Username:        p.Username,
		TotalAmount:     roundCents(total),
		Status:          types.OrderPending,
		ShippingAddress: address,
		PaymentMethod:   method,
		PaymentStatus:   strings.TrimSpace(input.PaymentStatus),
		Items:           items,
	})
	if err != nil {
		return types.Order{}, fmt.Errorf("create order: %w", err)
	}

	metrics.OrdersPlacedTotal.WithLabelValues(paymentMethodLabel(order.PaymentMethod)).Inc()
	zerolog.Ctx(ctx).Info().
		Int("order_id", order.ID).
		Int("user_id", order.UserID).
		Float64("total", order.TotalAmount).
		Msg("order placed")
	s.publish(ctx, events.TypeOrderCreated, order)
	return order, nil
}

// ListAll returns every order; admin only.
func (s *OrderService) ListAll(ctx context.Context, actor types.Principal) ([]types.Order, error) {
	if !actor.IsAdmin() {
		return nil, ErrForbidden
	}
	return s.orders.List(ctx)
}

// ListForUser returns a user's orders to that user or to an admin.
func (s *OrderService) ListForUser(ctx context.Context, actor types.Principal, userID int) ([]types.Order, error) {
	if !actor.IsAdmin() && (actor.Source != types.SourceUser || actor.ID != userID) {
		return nil, ErrForbidden
	}
	return s.orders.ListByUser(ctx, userID)
}

// UpdateStatus moves an order to any known status; admin only.
func (s *OrderService) UpdateStatus(ctx context.Context, actor types.Principal, id int, rawStatus string) (types.Order, error) {
	if !actor.IsAdmin() {
		return types.Order{}, ErrForbidden
	}
	status, ok := types.ParseOrderStatus(rawStatus)
	if !ok {
		return types.Order{}, ErrInvalidStatus
	}

	if err := s.orders.UpdateStatus(ctx, id, status); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Order{}, ErrNotFound
		}
		return types.Order{}, fmt.Errorf("update order status: %w", err)
	}
	order, err := s.orders.Get(ctx, id)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.Order{}, ErrNotFound
		}
		return types.Order{}, err
	}

	metrics.OrderStatusChangesTotal.WithLabelValues(string(status)).Inc()
	s.publish(ctx, events.TypeOrderStatusChanged, order)
	return order, nil
}

func (s *OrderService) publish(ctx context.Context, eventType string, order types.Order) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(ctx, events.ChannelOrders, eventType, OrderEvent{
		OrderID:     order.ID,
		UserID:      order.UserID,
		Status:      order.Status,
		TotalAmount: order.TotalAmount,
	})
	if err != nil {
		zerolog.Ctx(ctx).Warn().Err(err).Int("order_id", order.ID).Str("event", eventType).Msg("failed to publish order event")
	}
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}

// unitPrice is the size price when the product defines one for size, else the base price.
func unitPrice(product types.Product, size string) float64 {
	if size != "" {
		if price, ok := product.SizePrices[size]; ok && price > 0 {
			return price
		}
	}
	return product.Price
}

// paymentMethodLabel folds free-form payment methods into a fixed label set.
func paymentMethodLabel(method string) string {
	switch strings.ToLower(strings.Join(strings.Fields(method), " ")) {
	case "card", "credit card", "debit card":
		return "card"
	case "paypal":
		return "paypal"
	case "cod", "cash on delivery":
		return "cod"
	default:
		return "other"
	}
}
