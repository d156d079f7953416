package types

import (
	"strings"
	"time"
)

// OrderStatus tracks an order through fulfilment.
type OrderStatus string

const (
	OrderPending   OrderStatus = "PENDING"
	OrderApproved  OrderStatus = "APPROVED"
	OrderRejected  OrderStatus = "REJECTED"
	OrderDelivered OrderStatus = "DELIVERED"
	OrderCancelled OrderStatus = "CANCELLED"
)

// ParseOrderStatus normalizes a status name. It reports false for unknown values.
func ParseOrderStatus(raw string) (OrderStatus, bool) {
	status := OrderStatus(strings.ToUpper(strings.TrimSpace(raw)))
	switch status {
	case OrderPending, OrderApproved, OrderRejected, OrderDelivered, OrderCancelled:
		return status, true
	default:
		return "", false
	}
}

// Order is a placed order together with its line items.
type Order struct {
	ID              int         `json:"id" db:"id"`
	UserID          int         `json:"userId" db:"user_id"`
	Username        string      `json:"username" db:"username"`
	TotalAmount     float64     `json:"totalAmount" db:"total_amount"`
	Status          OrderStatus `json:"status" db:"status"`
	ShippingAddress string      `json:"shippingAddress" db:"shipping_address"`
	PaymentMethod   string      `json:"paymentMethod" db:"payment_method"`
	PaymentStatus   string      `json:"paymentStatus" db:"payment_status"`
	Items           []OrderItem `json:"items"`
	CreatedAt       time.Time   `json:"createdAt" db:"created_at"`
}

// OrderItem is a single product line. Price is the unit price at checkout.
type OrderItem struct {
	ID           int     `json:"id" db:"id"`
	ProductID    int     `json:"productId" db:"product_id"`
	ProductName  string  `json:"productName" db:"product_name"`
	Quantity     int     `json:"quantity" db:"quantity"`
	Price        float64 `json:"price" db:"price"`
	SelectedSize string  `json:"selectedSize,omitempty" db:"selected_size"`
}
