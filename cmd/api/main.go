package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"golang.org/x/sync/errgroup"

	"github.com/samiul-it/parts-station-server/internal/api/rest/handler"
	"github.com/samiul-it/parts-station-server/internal/api/rest/middleware"
	"github.com/samiul-it/parts-station-server/internal/config"
	"github.com/samiul-it/parts-station-server/internal/payment"
	"github.com/samiul-it/parts-station-server/internal/repository/postgres"
	"github.com/samiul-it/parts-station-server/internal/token"
	"github.com/samiul-it/parts-station-server/pkg/keyfetcher"
)

func main() {
	logger := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger.Info("api_starting")

	if err := run(logger); err != nil {
		logger.Error("api_failed", "error", err)
		os.Exit(1)
	}
}

func run(logger *slog.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg := config.Load()

	// Database connection
	dbPool, err := initializeDatabase(ctx, cfg.DatabaseDSN())
	if err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	defer dbPool.Close()

	if err := postgres.RunMigrations(ctx, dbPool); err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}

	// Repositories
	userRepo := postgres.NewUserRepository(dbPool)
	orderRepo := postgres.NewOrderRepository(dbPool)
	productRepo := postgres.NewProductRepository(dbPool)

	// Identity tokens
	tokenConfig := token.Config{
		Issuer:   cfg.JWTIssuer,
		Audience: cfg.JWTAudience,
	}
	issuer := token.NewIssuer(keyfetcher.FromBase64Env("PRIVATE_KEY_BASE64"), tokenConfig)
	verifier := token.NewVerifier(keyfetcher.FromBase64Env("PUBLIC_KEY_BASE64"), tokenConfig)
	auth := middleware.NewAuth(verifier)

	// Settlement workflow
	settlement := payment.NewService(
		orderRepo,
		payment.NewStripeProvider(cfg.StripeSecretKey),
		payment.Config{Currency: cfg.StripeCurrency},
		logger,
	)

	// REST handlers
	productHandler := handler.NewProductHandler(productRepo, logger)
	orderHandler := handler.NewOrderHandler(orderRepo, userRepo, logger)
	userHandler := handler.NewUserHandler(userRepo, issuer, logger)
	paymentHandler := handler.NewPaymentHandler(settlement, orderRepo, userRepo, logger)

	mux := buildServeMux(productHandler, orderHandler, userHandler, paymentHandler, auth)

	server := &http.Server{
		Addr:              fmt.Sprintf(":%s", cfg.Port),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      20 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		logger.Info("api_listening", "addr", server.Addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("serve: %w", err)
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGracePeriod)
		defer cancel()

		logger.Info("api_shutting_down")
		return server.Shutdown(shutdownCtx)
	})

	return g.Wait()
}

// initializeDatabase creates a pool and verifies connectivity.
func initializeDatabase(ctx context.Context, connectionString string) (*pgxpool.Pool, error) {
	pool, err := pgxpool.New(ctx, connectionString)
	if err != nil {
		return nil, fmt.Errorf("create_pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping_db: %w", err)
	}

	return pool, nil
}

// buildServeMux wires every route, applying the auth middleware to the
// endpoints that require a credential.
func buildServeMux(
	productHandler *handler.ProductHandler,
	orderHandler *handler.OrderHandler,
	userHandler *handler.UserHandler,
	paymentHandler *handler.PaymentHandler,
	auth *middleware.Auth,
) *http.ServeMux {
	mux := http.NewServeMux()

	mux.Handle("GET /health", http.HandlerFunc(handleHealthCheck))

	// Catalog
	mux.Handle("GET /products", http.HandlerFunc(productHandler.ListProducts))
	mux.Handle("GET /products/{id}", http.HandlerFunc(productHandler.GetProductByID))
	mux.Handle("POST /products", http.HandlerFunc(productHandler.CreateProduct))
	mux.Handle("DELETE /delete-product/{id}", http.HandlerFunc(productHandler.DeleteProduct))

	// Orders
	mux.Handle("POST /orders", http.HandlerFunc(orderHandler.CreateOrder))
	mux.Handle("GET /myorders/{email}", auth.Handler(http.HandlerFunc(orderHandler.MyOrders)))
	mux.Handle("GET /allorders", auth.Handler(http.HandlerFunc(orderHandler.AllOrders)))
	mux.Handle("GET /order/{id}", http.HandlerFunc(orderHandler.GetOrderByID))
	mux.Handle("PUT /deliver-order/{id}", http.HandlerFunc(orderHandler.DeliverOrder))

	// Users, profiles, reviews
	mux.Handle("PUT /user/{email}", http.HandlerFunc(userHandler.UpsertUser))
	mux.Handle("GET /users", auth.Handler(http.HandlerFunc(userHandler.ListUsers)))
	mux.Handle("PUT /user/admin/{email}", http.HandlerFunc(userHandler.PromoteToAdmin))
	mux.Handle("GET /admin/{email}", http.HandlerFunc(userHandler.IsAdmin))
	mux.Handle("PUT /profile/{email}", http.HandlerFunc(userHandler.UpsertProfile))
	mux.Handle("GET /profile/{email}", http.HandlerFunc(userHandler.GetProfile))
	mux.Handle("GET /reviews", http.HandlerFunc(userHandler.ListUsers))
	mux.Handle("GET /reviews/{email}", http.HandlerFunc(userHandler.GetProfile))
	mux.Handle("PUT /reviews/{email}", http.HandlerFunc(userHandler.UpsertProfile))

	// Payments
	mux.Handle("POST /create-payment-intent", auth.Handler(http.HandlerFunc(paymentHandler.CreatePaymentIntent)))
	mux.Handle("PATCH /order/{id}", auth.Handler(http.HandlerFunc(paymentHandler.ConfirmPayment)))

	return mux
}

// handleHealthCheck returns a basic health status.
func handleHealthCheck(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(`{"status":"healthy"}`))
}
