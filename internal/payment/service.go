package payment

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"

	"github.com/samiul-it/parts-station-server/internal/domain"
)

// DefaultIntentTimeout bounds the external processor call so a slow
// provider cannot hang the request indefinitely.
const DefaultIntentTimeout = 15 * time.Second

// SettlementStore is the slice of the order store the workflow needs.
type SettlementStore interface {
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Order, error)
	Settle(ctx context.Context, orderID uuid.UUID, transactionID string) (*domain.Order, error)
}

// Config holds the settlement workflow configuration.
type Config struct {
	Currency      string
	IntentTimeout time.Duration // Optional: defaults to DefaultIntentTimeout
}

// Service drives the two-phase settlement protocol. Phase one creates
// a processor-side intent and mutates nothing; phase two records the
// payment and marks the order paid atomically.
type Service struct {
	store         SettlementStore
	provider      IntentCreator
	currency      string
	intentTimeout time.Duration
	logger        *slog.Logger
}

// NewService creates the settlement service.
func NewService(store SettlementStore, provider IntentCreator, cfg Config, logger *slog.Logger) *Service {
	timeout := cfg.IntentTimeout
	if timeout == 0 {
		timeout = DefaultIntentTimeout
	}

	return &Service{
		store:         store,
		provider:      provider,
		currency:      cfg.Currency,
		intentTimeout: timeout,
		logger:        logger,
	}
}

// CreateIntent is phase one: it reserves the order's price with the
// processor and returns the client secret. The order must exist; no
// order state changes in this phase.
func (s *Service) CreateIntent(ctx context.Context, orderID uuid.UUID, price float64) (string, error) {
	if _, err := s.store.GetByID(ctx, orderID); err != nil {
		return "", fmt.Errorf("load order for intent: %w", err)
	}

	amount := domain.MinorUnits(price)

	ctx, cancel := context.WithTimeout(ctx, s.intentTimeout)
	defer cancel()

	clientSecret, err := s.provider.CreateIntent(ctx, amount, s.currency)
	if err != nil {
		return "", err
	}

	s.logger.Info("payment_intent_created", "order_id", orderID, "amount", amount, "currency", s.currency)
	return clientSecret, nil
}

// Confirm is phase two: it appends the payment record and flips the
// order's paid flag in a single transaction. Confirming twice with the
// same transaction ID returns the already-settled order.
func (s *Service) Confirm(ctx context.Context, orderID uuid.UUID, transactionID string) (*domain.Order, error) {
	order, err := s.store.Settle(ctx, orderID, transactionID)
	if err != nil {
		return nil, err
	}

	s.logger.Info("payment_settled", "order_id", orderID, "transaction_id", transactionID)
	return order, nil
}
