package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/samiul-it/parts-station-server/internal/api/rest/middleware"
	"github.com/samiul-it/parts-station-server/internal/domain"
	"github.com/samiul-it/parts-station-server/internal/repository"
)

// OrderRepository defines the order store operations the handler needs.
type OrderRepository interface {
	Create(ctx context.Context, order *domain.Order) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	ListByUserEmail(ctx context.Context, email string) ([]domain.Order, error)
	ListAll(ctx context.Context) ([]domain.Order, error)
	MarkDelivered(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

// RoleRepository resolves the role attached to an identity.
type RoleRepository interface {
	GetRole(ctx context.Context, email string) (domain.Role, error)
}

// OrderHandler handles HTTP requests for order operations.
type OrderHandler struct {
	repo   OrderRepository
	roles  RoleRepository
	logger *slog.Logger
}

// NewOrderHandler creates a new OrderHandler instance
func NewOrderHandler(repo OrderRepository, roles RoleRepository, logger *slog.Logger) *OrderHandler {
	return &OrderHandler{
		repo:   repo,
		roles:  roles,
		logger: logger,
	}
}

// CreateOrderRequest represents the request payload for placing an order.
type CreateOrderRequest struct {
	UserEmail string         `json:"userEmail"`
	Items     map[string]any `json:"items"`
	Price     float64        `json:"price"`
}

// CreateOrder handles POST /orders.
func (h *OrderHandler) CreateOrder(w http.ResponseWriter, r *http.Request) {
	var req CreateOrderRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if req.UserEmail == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "userEmail is required")
		return
	}

	if req.Items == nil {
		req.Items = make(map[string]any)
	}

	order := &domain.Order{
		ID:        uuid.New(),
		UserEmail: req.UserEmail,
		Items:     req.Items,
		Price:     req.Price,
	}

	if err := h.repo.Create(r.Context(), order); err != nil {
		h.logger.Error("create_order_failed", "user_email", req.UserEmail, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create order")
		return
	}

	WriteJSONResponse(w, http.StatusCreated, order)
}

// MyOrders handles GET /myorders/{email}. The authenticated identity
// must match the requested owner email exactly.
func (h *OrderHandler) MyOrders(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.logger.Error("identity_missing_in_context")
		WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication is required")
		return
	}

	if identity != email {
		WriteErrorResponse(w, http.StatusForbidden, "forbidden", "You may only read your own orders")
		return
	}

	orders, err := h.repo.ListByUserEmail(r.Context(), email)
	if err != nil {
		h.logger.Error("list_my_orders_failed", "user_email", email, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list orders")
		return
	}

	WriteJSONResponse(w, http.StatusOK, orders)
}

// AllOrders handles GET /allorders. Requires the admin role.
func (h *OrderHandler) AllOrders(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.logger.Error("identity_missing_in_context")
		WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication is required")
		return
	}

	if !h.isAdmin(r.Context(), identity) {
		WriteErrorResponse(w, http.StatusForbidden, "forbidden", "Admin role is required")
		return
	}

	orders, err := h.repo.ListAll(r.Context())
	if err != nil {
		h.logger.Error("list_all_orders_failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list orders")
		return
	}

	WriteJSONResponse(w, http.StatusOK, orders)
}

// GetOrderByID handles GET /order/{id}.
func (h *OrderHandler) GetOrderByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Order ID must be a valid UUID")
		return
	}

	order, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if IsNotFound(err) {
			WriteErrorResponse(w, http.StatusNotFound, "not_found", "The requested order could not be found")
			return
		}
		h.logger.Error("get_order_failed", "order_id", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve order")
		return
	}

	WriteJSONResponse(w, http.StatusOK, order)
}

// DeliverOrder handles PUT /deliver-order/{id}. Marking an already
// delivered order delivered again is not an error.
func (h *OrderHandler) DeliverOrder(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Order ID must be a valid UUID")
		return
	}

	order, err := h.repo.MarkDelivered(r.Context(), id)
	if err != nil {
		if IsNotFound(err) {
			WriteErrorResponse(w, http.StatusNotFound, "not_found", "The requested order could not be found")
			return
		}
		h.logger.Error("deliver_order_failed", "order_id", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to update order")
		return
	}

	WriteJSONResponse(w, http.StatusOK, order)
}

// isAdmin reports whether email carries the admin role. An identity
// with no user record is not an admin, not an error.
func (h *OrderHandler) isAdmin(ctx context.Context, email string) bool {
	role, err := h.roles.GetRole(ctx, email)
	if err != nil {
		var notFound *repository.NotFoundError
		if !errors.As(err, &notFound) {
			h.logger.Error("role_lookup_failed", "user_email", email, "error", err)
		}
		return false
	}

	return role == domain.RoleAdmin
}
