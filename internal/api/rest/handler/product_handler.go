package handler

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/google/uuid"

	"github.com/samiul-it/parts-station-server/internal/domain"
)

// ProductRepository defines the catalog operations the handler needs.
type ProductRepository interface {
	Create(ctx context.Context, product *domain.Product) error
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Product, error)
	List(ctx context.Context) ([]domain.Product, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductHandler handles HTTP requests for the product catalog.
type ProductHandler struct {
	repo   ProductRepository
	logger *slog.Logger
}

// NewProductHandler creates a new ProductHandler instance
func NewProductHandler(repo ProductRepository, logger *slog.Logger) *ProductHandler {
	return &ProductHandler{
		repo:   repo,
		logger: logger,
	}
}

// CreateProductRequest represents the request payload for adding a product.
type CreateProductRequest struct {
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	ImageURL          string  `json:"imageUrl"`
	Price             float64 `json:"price"`
	MinOrderQuantity  int     `json:"minOrderQuantity"`
	AvailableQuantity int     `json:"availableQuantity"`
}

// ListProducts handles GET /products.
func (h *ProductHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list_products_failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list products")
		return
	}

	WriteJSONResponse(w, http.StatusOK, products)
}

// GetProductByID handles GET /products/{id}.
func (h *ProductHandler) GetProductByID(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Product ID must be a valid UUID")
		return
	}

	product, err := h.repo.GetByID(r.Context(), id)
	if err != nil {
		if IsNotFound(err) {
			WriteErrorResponse(w, http.StatusNotFound, "not_found", "The requested product could not be found")
			return
		}
		h.logger.Error("get_product_failed", "product_id", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve product")
		return
	}

	WriteJSONResponse(w, http.StatusOK, product)
}

// CreateProduct handles POST /products.
func (h *ProductHandler) CreateProduct(w http.ResponseWriter, r *http.Request) {
	var req CreateProductRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return
	}

	if req.Name == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Name is required")
		return
	}

	product := &domain.Product{
		ID:                uuid.New(),
		Name:              req.Name,
		Description:       req.Description,
		ImageURL:          req.ImageURL,
		Price:             req.Price,
		MinOrderQuantity:  req.MinOrderQuantity,
		AvailableQuantity: req.AvailableQuantity,
	}

	if err := h.repo.Create(r.Context(), product); err != nil {
		h.logger.Error("create_product_failed", "product_name", product.Name, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to create product")
		return
	}

	WriteJSONResponse(w, http.StatusCreated, product)
}

// DeleteProduct handles DELETE /delete-product/{id}.
func (h *ProductHandler) DeleteProduct(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(r.PathValue("id"))
	if err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Product ID must be a valid UUID")
		return
	}

	if err := h.repo.Delete(r.Context(), id); err != nil {
		if IsNotFound(err) {
			WriteErrorResponse(w, http.StatusNotFound, "not_found", "The requested product could not be found")
			return
		}
		h.logger.Error("delete_product_failed", "product_id", id, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to delete product")
		return
	}

	WriteJSONResponse(w, http.StatusOK, map[string]bool{"deleted": true})
}
