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
	"github.com/samiul-it/parts-station-server/internal/payment"
	"github.com/samiul-it/parts-station-server/internal/repository"
)

// OrderReader loads an order for the ownership check on intent
// creation.
type OrderReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
}

// Settler drives the two-phase payment protocol.
type Settler interface {
	CreateIntent(ctx context.Context, orderID uuid.UUID, price float64) (string, error)
	Confirm(ctx context.Context, orderID uuid.UUID, transactionID string) (*domain.Order, error)
}

// PaymentHandler handles HTTP requests for the settlement workflow.
type PaymentHandler struct {
	settler Settler
	orders  OrderReader
	roles   RoleRepository
	logger  *slog.Logger
}

// NewPaymentHandler creates a new PaymentHandler instance
func NewPaymentHandler(settler Settler, orders OrderReader, roles RoleRepository, logger *slog.Logger) *PaymentHandler {
	return &PaymentHandler{
		settler: settler,
		orders:  orders,
		roles:   roles,
		logger:  logger,
	}
}

// CreatePaymentIntentRequest represents the phase-one request payload.
type CreatePaymentIntentRequest struct {
	OrderID    uuid.UUID `json:"orderId"`
	OrderPrice float64   `json:"orderPrice"`
}

// CreatePaymentIntentResponse carries the processor's client secret.
type CreatePaymentIntentResponse struct {
	ClientSecret string `json:"clientSecret"`
}

// ConfirmPaymentRequest represents the phase-two request payload.
type ConfirmPaymentRequest struct {
	TransactionID string `json:"transactionId"`
}

// CreatePaymentIntent handles POST /create-payment-intent. The caller
// must own the order or hold the admin role.
func (h *PaymentHandler) CreatePaymentIntent(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok {
		h.logger.Error("identity_missing_in_context")
		WriteErrorResponse(w, http.StatusUnauthorized, "unauthorized", "Authentication is required")
		return
	}

	var req CreatePaymentIntentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if req.OrderID == uuid.Nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "orderId is required")
		return
	}

	order, err := h.orders.GetByID(r.Context(), req.OrderID)
	if err != nil {
		if IsNotFound(err) {
			WriteErrorResponse(w, http.StatusNotFound, "not_found", "The requested order could not be found")
			return
		}
		h.logger.Error("get_order_failed", "order_id", req.OrderID, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve order")
		return
	}

	if order.UserEmail != identity && !h.isAdmin(r.Context(), identity) {
		WriteErrorResponse(w, http.StatusForbidden, "forbidden", "You may only pay for your own orders")
		return
	}

	clientSecret, err := h.settler.CreateIntent(r.Context(), req.OrderID, req.OrderPrice)
	if err != nil {
		var providerErr *payment.ProviderError
		if errors.As(err, &providerErr) {
			h.logger.Error("payment_provider_failed", "order_id", req.OrderID, "error", err)
			WriteErrorResponse(w, http.StatusBadGateway, "payment_provider_error", "The payment provider rejected the request")
			return
		}
		h.logger.Error("create_intent_failed", "order_id", req.OrderID, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create payment intent")
		return
	}

	WriteJSONResponse(w, http.StatusOK, CreatePaymentIntentResponse{ClientSecret: clientSecret})
}

// ConfirmPayment handles PATCH /order/{id}: records the payment and
// marks the order paid. Repeating a confirmation with the same
// transaction ID returns the already-settled order.
func (h *PaymentHandler) ConfirmPayment(w http.ResponseWriter, r *http.Request) {
	orderID, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Order ID must be a valid UUID")
		return
	}

	var req ConfirmPaymentRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if req.TransactionID == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "transactionId is required")
		return
	}

	order, err := h.settler.Confirm(r.Context(), orderID, req.TransactionID)
	if err != nil {
		if IsNotFound(err) {
			WriteErrorResponse(w, http.StatusNotFound, "not_found", "The requested order could not be found")
			return
		}

		var conflict *repository.ConflictError
		if errors.As(err, &conflict) {
			WriteErrorResponse(w, http.StatusConflict, "conflict", "Transaction ID is already used by another settlement")
			return
		}

		h.logger.Error("confirm_payment_failed", "order_id", orderID, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to confirm payment")
		return
	}

	WriteJSONResponse(w, http.StatusOK, order)
}

func (h *PaymentHandler) isAdmin(ctx context.Context, email string) bool {
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
