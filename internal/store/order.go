package store

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/lib/pq"
	"github.com/shopscript/apiserver/types"
)

// OrderRepository handles persistence for orders and their items.
type OrderRepository struct {
	db *sql.DB
}

func NewOrderRepository(db *sql.DB) *OrderRepository {
	return &OrderRepository{db: db}
}

// Create inserts an order and all of its items in a single transaction.
func (r *OrderRepository) Create(ctx context.Context, order types.Order) (types.Order, error) {
	order.CreatedAt = time.Now()

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return types.Order{}, err
	}
	defer func() {
		_ = tx.Rollback()
	}()

	const orderQuery = `
		INSERT INTO orders (user_id, total_amount, status, shipping_address, payment_method, payment_status, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id`
	if err := tx.QueryRowContext(
		ctx,
		orderQuery,
		order.UserID,
		order.TotalAmount,
		order.Status,
		order.ShippingAddress,
		order.PaymentMethod,
		order.PaymentStatus,
		order.CreatedAt,
	).Scan(&order.ID); err != nil {
		return types.Order{}, err
	}

	const itemQuery = `
		INSERT INTO order_items (order_id, product_id, quantity, price, selected_size)
		VALUES ($1, $2, $3, $4, $5)
		RETURNING id`
	for i := range order.Items {
		item := &order.Items[i]
		if err := tx.QueryRowContext(
			ctx,
			itemQuery,
			order.ID,
			item.ProductID,
			item.Quantity,
			item.Price,
			item.SelectedSize,
		).Scan(&item.ID); err != nil {
			return types.Order{}, err
		}
	}

	if err := tx.Commit(); err != nil {
		return types.Order{}, err
	}
	return order, nil
}

func (r *OrderRepository) Get(ctx context.Context, id int) (types.Order, error) {
	orders, err := r.query(ctx, `WHERE o.id = $1`, id)
	if err != nil {
		return types.Order{}, err
	}
	if len(orders) == 0 {
		return types.Order{}, ErrNotFound
	}
	return orders[0], nil
}

func (r *OrderRepository) List(ctx context.Context) ([]types.Order, error) {
	return r.query(ctx, ``)
}

func (r *OrderRepository) ListByUser(ctx context.Context, userID int) ([]types.Order, error) {
	return r.query(ctx, `WHERE o.user_id = $1`, userID)
}

func (r *OrderRepository) UpdateStatus(ctx context.Context, id int, status types.OrderStatus) error {
	const query = `UPDATE orders SET status = $1 WHERE id = $2`
	result, err := r.db.ExecContext(ctx, query, status, id)
	if err != nil {
		return err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *OrderRepository) query(ctx context.Context, where string, args ...any) ([]types.Order, error) {
	query := `
		SELECT o.id, o.user_id, u.username, o.total_amount, o.status, o.shipping_address,
		       o.payment_method, o.payment_status, o.created_at
		FROM orders o
		JOIN users u ON u.id = o.user_id
		` + where + `
		ORDER BY o.created_at DESC, o.id DESC`
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	orders := make([]types.Order, 0)
	index := make(map[int]int)
	ids := make([]int64, 0)
	for rows.Next() {
		var order types.Order
		if err := rows.Scan(
			&order.ID,
			&order.UserID,
			&order.Username,
			&order.TotalAmount,
			&order.Status,
			&order.ShippingAddress,
			&order.PaymentMethod,
			&order.PaymentStatus,
			&order.CreatedAt,
		); err != nil {
			return nil, err
		}
		order.Items = []types.OrderItem{}
		index[order.ID] = len(orders)
		ids = append(ids, int64(order.ID))
		orders = append(orders, order)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if len(orders) == 0 {
		return orders, nil
	}

	if err := r.attachItems(ctx, orders, index, ids); err != nil {
		return nil, err
	}
	return orders, nil
}

func (r *OrderRepository) attachItems(ctx context.Context, orders []types.Order, index map[int]int, ids []int64) error {
	const query = `
		SELECT i.id, i.order_id, i.product_id, p.name, i.quantity, i.price, i.selected_size
		FROM order_items i
		JOIN products p ON p.id = i.product_id
		WHERE i.order_id = ANY($1)
		ORDER BY i.order_id, i.id`
	rows, err := r.db.QueryContext(ctx, query, pq.Array(ids))
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var item types.OrderItem
		var orderID int
		if err := rows.Scan(
			&item.ID,
			&orderID,
			&item.ProductID,
			&item.ProductName,
			&item.Quantity,
			&item.Price,
			&item.SelectedSize,
		); err != nil {
			return err
		}
		pos, ok := index[orderID]
		if !ok {
			return errors.New("order item references unknown order")
		}
		orders[pos].Items = append(orders[pos].Items, item)
	}
	return rows.Err()
}
