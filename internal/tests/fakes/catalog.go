package fakes

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/shopscript/apiserver/internal/store"
	"github.com/shopscript/apiserver/types"
)

// ProductRepository is an in-memory product table with soft delete.
type ProductRepository struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]types.Product
}

func NewProductRepository() *ProductRepository {
	return &ProductRepository{rows: make(map[int]types.Product)}
}

func (r *ProductRepository) List(_ context.Context, filter types.ProductFilter) ([]types.Product, int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	query := strings.ToLower(strings.TrimSpace(filter.Query))
	category := strings.TrimSpace(filter.Category)
	matched := make([]types.Product, 0, len(r.rows))
	for _, p := range r.rows {
		if p.Deleted {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		matched = append(matched, p)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	total := len(matched)
	start := min(filter.Offset, total)
	end := total
	if filter.Limit > 0 {
		end = min(start+filter.Limit, total)
	}
	return matched[start:end], total, nil
}

func (r *ProductRepository) Get(_ context.Context, id int) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok {
		return types.Product{}, store.ErrNotFound
	}
	return p, nil
}

func (r *ProductRepository) Create(_ context.Context, p types.Product) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	now := time.Now().UTC()
	p.ID = r.nextID
	p.Deleted = false
	p.CreatedAt = now
	p.UpdatedAt = now
	r.rows[p.ID] = p
	return p, nil
}

func (r *ProductRepository) Update(_ context.Context, p types.Product) (types.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	existing, ok := r.rows[p.ID]
	if !ok || existing.Deleted {
		return types.Product{}, store.ErrNotFound
	}
	p.CreatedAt = existing.CreatedAt
	p.UpdatedAt = time.Now().UTC()
	r.rows[p.ID] = p
	return p, nil
}

func (r *ProductRepository) SoftDelete(_ context.Context, id int) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	p, ok := r.rows[id]
	if !ok || p.Deleted {
		return store.ErrNotFound
	}
	p.Deleted = true
	r.rows[id] = p
	return nil
}

// OrderRepository is an in-memory order table.
type OrderRepository struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]types.Order
}

func NewOrderRepository() *OrderRepository {
	return &OrderRepository{rows: make(map[int]types.Order)}
}

func (r *OrderRepository) Create(_ context.Context, order types.Order) (types.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	order.ID = r.nextID
	order.CreatedAt = time.Now().UTC()
	items := make([]types.OrderItem, len(order.Items))
	for i, item := range order.Items {
		item.ID = r.nextID*1000 + i + 1
		items[i] = item
	}
	order.Items = items
	r.rows[order.ID] = order
	return order, nil
}

func (r *OrderRepository) Get(_ context.Context, id int) (types.Order, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.rows[id]
	if !ok {
		return types.Order{}, store.ErrNotFound
	}
	return order, nil
}

func (r *OrderRepository) List(_ context.Context) ([]types.Order, error) {
	return r.filter(func(types.Order) bool { return true }), nil
}

func (r *OrderRepository) ListByUser(_ context.Context, userID int) ([]types.Order, error) {
	return r.filter(func(o types.Order) bool { return o.UserID == userID }), nil
}

func (r *OrderRepository) UpdateStatus(_ context.Context, id int, status types.OrderStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	order, ok := r.rows[id]
	if !ok {
		return store.ErrNotFound
	}
	order.Status = status
	r.rows[id] = order
	return nil
}

func (r *OrderRepository) filter(match func(types.Order) bool) []types.Order {
	r.mu.Lock()
	defer r.mu.Unlock()
	orders := make([]types.Order, 0, len(r.rows))
	for _, o := range r.rows {
		if match(o) {
			orders = append(orders, o)
		}
	}
	sort.Slice(orders, func(i, j int) bool { return orders[i].ID > orders[j].ID })
	return orders
}

// ReviewRepository is an in-memory review table.
type ReviewRepository struct {
	mu     sync.Mutex
	nextID int
	rows   map[int]types.Review
}

func NewReviewRepository() *ReviewRepository {
	return &ReviewRepository{rows: make(map[int]types.Review)}
}

func (r *ReviewRepository) Create(_ context.Context, review types.Review) (types.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.nextID++
	review.ID = r.nextID
	review.CreatedAt = time.Now().UTC()
	r.rows[review.ID] = review
	return review, nil
}

func (r *ReviewRepository) Get(_ context.Context, id int) (types.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	review, ok := r.rows[id]
	if !ok {
		return types.Review{}, store.ErrNotFound
	}
	return review, nil
}

func (r *ReviewRepository) ListApprovedByProduct(_ context.Context, productID int) ([]types.Review, error) {
	return r.filter(func(rv types.Review) bool { return rv.ProductID == productID && rv.Approved }), nil
}

func (r *ReviewRepository) ListPending(_ context.Context) ([]types.Review, error) {
	return r.filter(func(rv types.Review) bool { return !rv.Approved }), nil
}

func (r *ReviewRepository) SetApproval(_ context.Context, id int, approved bool) (types.Review, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	review, ok := r.rows[id]
	if !ok {
		return types.Review{}, store.ErrNotFound
	}
	review.Approved = approved
	r.rows[id] = review
	return review, nil
}

func (r *ReviewRepository) filter(match func(types.Review) bool) []types.Review {
	r.mu.Lock()
	defer r.mu.Unlock()
	reviews := make([]types.Review, 0, len(r.rows))
	for _, rv := range r.rows {
		if match(rv) {
			reviews = append(reviews, rv)
		}
	}
	sort.Slice(reviews, func(i, j int) bool { return reviews[i].ID > reviews[j].ID })
	return reviews
}

// SettingRepository is an in-memory key/value settings table.
type SettingRepository struct {
	mu   sync.Mutex
	rows map[string]string
}

func NewSettingRepository() *SettingRepository {
	return &SettingRepository{rows: make(map[string]string)}
}

func (r *SettingRepository) All(_ context.Context) (map[string]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[string]string, len(r.rows))
	for k, v := range r.rows {
		out[k] = v
	}
	return out, nil
}

func (r *SettingRepository) Count(_ context.Context) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.rows), nil
}

func (r *SettingRepository) Upsert(_ context.Context, settings map[string]string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, v := range settings {
		r.rows[k] = v
	}
	return nil
}
