package handlers

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/shopscript/apiserver/internal/services"
	"github.com/shopscript/apiserver/types"
)

// OrderHandler provides checkout and fulfilment endpoints.
type OrderHandler struct {
	orderService *services.OrderService
}

func NewOrderHandler(orderService *services.OrderService) *OrderHandler {
	return &OrderHandler{orderService: orderService}
}

// OrderRouter registers order routes. Every route requires a session.
func OrderRouter(r chi.Router, orderService *services.OrderService, authMiddleware func(http.Handler) http.Handler) {
	handler := NewOrderHandler(orderService)
	adminOnly := RequireRole(types.RoleAdmin)

	r.Use(authMiddleware)
	r.Post("/", handler.PlaceOrder)
	r.With(adminOnly).Get("/", handler.ListOrders)
	r.Get("/user/{userID}", handler.ListUserOrders)
	r.With(adminOnly).Put("/{orderID}/status", handler.UpdateStatus)
}

func (h *OrderHandler) PlaceOrder(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	var req PlaceOrderRequest
	if err := decodeJSON(r, &req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	items := make([]services.PlaceOrderItem, 0, len(req.Items))
	for _, item := range req.Items {
		items = append(items, services.PlaceOrderItem{
			ProductID:    item.ProductID,
			Quantity:     item.Quantity,
			Price:        item.Price,
			SelectedSize: item.SelectedSize,
		})
	}

	order, err := h.orderService.Place(r.Context(), principal, services.PlaceOrderInput{
		ShippingAddress: req.ShippingAddress,
		PaymentMethod:   req.PaymentMethod,
		PaymentStatus:   req.PaymentStatus,
		Items:           items,
	})
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, order)
}

func (h *OrderHandler) ListOrders(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	orders, err := h.orderService.ListAll(r.Context(), principal)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) ListUserOrders(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	userID, err := parseID(r, "userID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	orders, err := h.orderService.ListForUser(r.Context(), principal, userID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, orders)
}

func (h *OrderHandler) UpdateStatus(w http.ResponseWriter, r *http.Request) {
	principal, _ := PrincipalFromContext(r.Context())

	id, err := parseID(r, "orderID")
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	order, err := h.orderService.UpdateStatus(r.Context(), principal, id, r.URL.Query().Get("status"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, order)
}

type PlaceOrderRequest struct {
	ShippingAddress string             `json:"shippingAddress" validate:"required"`
	PaymentMethod   string             `json:"paymentMethod" validate:"required"`
	PaymentStatus   string             `json:"paymentStatus"`
	Items           []OrderItemRequest `json:"items" validate:"required,min=1,dive"`
}

type OrderItemRequest struct {
	ProductID    int     `json:"productId" validate:"gt=0"`
	Quantity     int     `json:"quantity" validate:"gte=1"`
	Price        float64 `json:"price" validate:"gte=0"`
	SelectedSize string  `json:"selectedSize"`
}
