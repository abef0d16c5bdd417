package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/samiul-it/parts-station-server/internal/api/rest/middleware"
	"github.com/samiul-it/parts-station-server/internal/domain"
	"github.com/samiul-it/parts-station-server/internal/repository"
)

type mockOrderRepository struct {
	mock.Mock
}

func (m *mockOrderRepository) Create(ctx context.Context, order *domain.Order) error {
	args := m.Called(ctx, order)
	return args.Error(0)
}

func (m *mockOrderRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListByUserEmail(ctx context.Context, email string) ([]domain.Order, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) ListAll(ctx context.Context) ([]domain.Order, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.Order), args.Error(1)
}

func (m *mockOrderRepository) MarkDelivered(ctx context.Context, id uuid.UUID) (*domain.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Order), args.Error(1)
}

type mockRoleRepository struct {
	mock.Mock
}

func (m *mockRoleRepository) GetRole(ctx context.Context, email string) (domain.Role, error) {
	args := m.Called(ctx, email)
	return args.Get(0).(domain.Role), args.Error(1)
}

func contextWithIdentity(email string) context.Context {
	return context.WithValue(context.Background(), middleware.IdentityContextKey, email)
}

func jsonBody(t *testing.T, payload any) io.Reader {
	t.Helper()
	body, err := json.Marshal(payload)
	require.NoError(t, err)
	return bytes.NewReader(body)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func userNotFound(email string) error {
	return &repository.NotFoundError{Resource: "user", Key: "email", Value: email}
}

func TestOrderHandler_CreateOrder(t *testing.T) {
	testCases := map[string]struct {
		body           any
		setupRepo      func(r *mockOrderRepository)
		expectedStatus int
	}{
		"should create an order with placed status": {
			body: map[string]any{
				"userEmail": "a@x.com",
				"items":     map[string]any{"productId": "p-1", "quantity": 3},
				"price":     42.0,
			},
			setupRepo: func(r *mockOrderRepository) {
				r.On("Create", mock.Anything, mock.MatchedBy(func(o *domain.Order) bool {
					return o.UserEmail == "a@x.com" && o.Price == 42.0 && o.ID != uuid.Nil
				})).Return(nil)
			},
			expectedStatus: http.StatusCreated,
		},
		"should reject a missing owner email": {
			body:           map[string]any{"price": 10.0},
			setupRepo:      func(*mockOrderRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
		"should report a store failure": {
			body: map[string]any{"userEmail": "a@x.com", "price": 10.0},
			setupRepo: func(r *mockOrderRepository) {
				r.On("Create", mock.Anything, mock.Anything).Return(errors.New("db down"))
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			repo := &mockOrderRepository{}
			tc.setupRepo(repo)
			h := NewOrderHandler(repo, &mockRoleRepository{}, discardLogger())

			req := httptest.NewRequest(http.MethodPost, "/orders", jsonBody(t, tc.body))
			rec := httptest.NewRecorder()
			h.CreateOrder(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			repo.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_MyOrders(t *testing.T) {
	orders := []domain.Order{{ID: uuid.New(), UserEmail: "alice@example.com", Status: domain.OrderStatusPlaced}}

	testCases := map[string]struct {
		pathEmail      string
		identity       string
		setupRepo      func(r *mockOrderRepository)
		expectedStatus int
	}{
		"should return orders when identity matches the owner": {
			pathEmail: "alice@example.com",
			identity:  "alice@example.com",
			setupRepo: func(r *mockOrderRepository) {
				r.On("ListByUserEmail", mock.Anything, "alice@example.com").Return(orders, nil)
			},
			expectedStatus: http.StatusOK,
		},
		"should forbid reading another user's orders": {
			pathEmail:      "bob@example.com",
			identity:       "alice@example.com",
			setupRepo:      func(*mockOrderRepository) {},
			expectedStatus: http.StatusForbidden,
		},
		"should match the owner email case-sensitively": {
			pathEmail:      "Alice@example.com",
			identity:       "alice@example.com",
			setupRepo:      func(*mockOrderRepository) {},
			expectedStatus: http.StatusForbidden,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			repo := &mockOrderRepository{}
			tc.setupRepo(repo)
			h := NewOrderHandler(repo, &mockRoleRepository{}, discardLogger())

			req := httptest.NewRequest(http.MethodGet, "/myorders/"+tc.pathEmail, nil)
			req.SetPathValue("email", tc.pathEmail)
			req = req.WithContext(contextWithIdentity(tc.identity))
			rec := httptest.NewRecorder()
			h.MyOrders(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			repo.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_AllOrders(t *testing.T) {
	testCases := map[string]struct {
		identity       string
		setupRoles     func(r *mockRoleRepository)
		setupRepo      func(r *mockOrderRepository)
		expectedStatus int
	}{
		"should return all orders for an admin": {
			identity: "admin@example.com",
			setupRoles: func(r *mockRoleRepository) {
				r.On("GetRole", mock.Anything, "admin@example.com").Return(domain.RoleAdmin, nil)
			},
			setupRepo: func(r *mockOrderRepository) {
				r.On("ListAll", mock.Anything).Return([]domain.Order{}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		"should forbid a plain user": {
			identity: "alice@example.com",
			setupRoles: func(r *mockRoleRepository) {
				r.On("GetRole", mock.Anything, "alice@example.com").Return(domain.RoleUser, nil)
			},
			setupRepo:      func(*mockOrderRepository) {},
			expectedStatus: http.StatusForbidden,
		},
		"should forbid an identity with no user record without crashing": {
			identity: "nobody@example.com",
			setupRoles: func(r *mockRoleRepository) {
				r.On("GetRole", mock.Anything, "nobody@example.com").
					Return(domain.Role(""), userNotFound("nobody@example.com"))
			},
			setupRepo:      func(*mockOrderRepository) {},
			expectedStatus: http.StatusForbidden,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			repo := &mockOrderRepository{}
			roles := &mockRoleRepository{}
			tc.setupRepo(repo)
			tc.setupRoles(roles)
			h := NewOrderHandler(repo, roles, discardLogger())

			req := httptest.NewRequest(http.MethodGet, "/allorders", nil)
			req = req.WithContext(contextWithIdentity(tc.identity))
			rec := httptest.NewRecorder()
			h.AllOrders(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			repo.AssertExpectations(t)
			roles.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_GetOrderByID(t *testing.T) {
	orderID := uuid.New()

	testCases := map[string]struct {
		pathID         string
		setupRepo      func(r *mockOrderRepository)
		expectedStatus int
	}{
		"should return the order": {
			pathID: orderID.String(),
			setupRepo: func(r *mockOrderRepository) {
				r.On("GetByID", mock.Anything, orderID).
					Return(&domain.Order{ID: orderID, UserEmail: "a@x.com"}, nil)
			},
			expectedStatus: http.StatusOK,
		},
		"should return 404 for an unknown order": {
			pathID: orderID.String(),
			setupRepo: func(r *mockOrderRepository) {
				r.On("GetByID", mock.Anything, orderID).
					Return(nil, &repository.NotFoundError{Resource: "order", Key: "id", Value: orderID.String()})
			},
			expectedStatus: http.StatusNotFound,
		},
		"should reject a non-UUID id": {
			pathID:         "42",
			setupRepo:      func(*mockOrderRepository) {},
			expectedStatus: http.StatusBadRequest,
		},
	}

	for name, tc := range testCases {
		t.Run(name, func(t *testing.T) {
			repo := &mockOrderRepository{}
			tc.setupRepo(repo)
			h := NewOrderHandler(repo, &mockRoleRepository{}, discardLogger())

			req := httptest.NewRequest(http.MethodGet, "/order/"+tc.pathID, nil)
			req.SetPathValue("id", tc.pathID)
			rec := httptest.NewRecorder()
			h.GetOrderByID(rec, req)

			assert.Equal(t, tc.expectedStatus, rec.Code)
			repo.AssertExpectations(t)
		})
	}
}

func TestOrderHandler_DeliverOrder(t *testing.T) {
	orderID := uuid.New()
	delivered := &domain.Order{ID: orderID, UserEmail: "a@x.com", Status: domain.OrderStatusDelivered}

	repo := &mockOrderRepository{}
	repo.On("MarkDelivered", mock.Anything, orderID).Return(delivered, nil).Twice()
	h := NewOrderHandler(repo, &mockRoleRepository{}, discardLogger())

	// Delivering twice succeeds both times and leaves the same state.
	for range 2 {
		req := httptest.NewRequest(http.MethodPut, "/deliver-order/"+orderID.String(), nil)
		req.SetPathValue("id", orderID.String())
		rec := httptest.NewRecorder()
		h.DeliverOrder(rec, req)

		require.Equal(t, http.StatusOK, rec.Code)

		var got domain.Order
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
		assert.Equal(t, domain.OrderStatusDelivered, got.Status)
	}

	repo.AssertExpectations(t)
}
