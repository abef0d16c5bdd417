package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/samiul-it/parts-station-server/internal/domain"
	"github.com/samiul-it/parts-station-server/internal/repository"
)

// UserRepository defines the user store operations the handler needs.
type UserRepository interface {
	Upsert(ctx context.Context, email string, update domain.ProfileUpdate) (*domain.User, error)
	GetByEmail(ctx context.Context, email string) (*domain.User, error)
	List(ctx context.Context) ([]domain.User, error)
	PromoteToAdmin(ctx context.Context, email string) (*domain.User, error)
	GetRole(ctx context.Context, email string) (domain.Role, error)
}

// TokenIssuer issues a bearer credential for an identity.
type TokenIssuer interface {
	Issue(email string) (string, error)
}

// UserHandler handles HTTP requests for user, profile, and review
// operations.
type UserHandler struct {
	repo   UserRepository
	issuer TokenIssuer
	logger *slog.Logger
}

// NewUserHandler creates a new UserHandler instance
func NewUserHandler(repo UserRepository, issuer TokenIssuer, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		repo:   repo,
		issuer: issuer,
		logger: logger,
	}
}

// UpsertUserRequest represents the user/profile/review upsert payload.
// Absent fields leave the stored value untouched.
type UpsertUserRequest struct {
	Name      *string  `json:"name,omitempty"`
	City      *string  `json:"city,omitempty"`
	Education *string  `json:"edu,omitempty"`
	Phone     *string  `json:"phone,omitempty"`
	LinkedIn  *string  `json:"link,omitempty"`
	Review    *string  `json:"review,omitempty"`
	Rating    *float64 `json:"rating,omitempty"`
}

func (req *UpsertUserRequest) toProfileUpdate() domain.ProfileUpdate {
	return domain.ProfileUpdate{
		Name:      req.Name,
		City:      req.City,
		Education: req.Education,
		Phone:     req.Phone,
		LinkedIn:  req.LinkedIn,
		Review:    req.Review,
		Rating:    req.Rating,
	}
}

// UpsertUserResponse bundles the stored user with a freshly issued
// token, matching the sign-in-on-upsert contract of PUT /user/{email}.
type UpsertUserResponse struct {
	User      *domain.User `json:"user"`
	Token     string       `json:"token"`
	TokenType string       `json:"token_type"`
}

// UpsertUser handles PUT /user/{email}: it stores the user and issues
// a bearer token for the email in one response.
func (h *UserHandler) UpsertUser(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	user, ok := h.upsert(w, r, email)
	if !ok {
		return
	}

	tokenString, err := h.issuer.Issue(email)
	if err != nil {
		h.logger.Error("issue_token_failed", "user_email", email, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to issue token")
		return
	}

	h.logger.Info("user_signed_in", "user_email", email)

	WriteJSONResponse(w, http.StatusOK, UpsertUserResponse{
		User:      user,
		Token:     tokenString,
		TokenType: "Bearer",
	})
}

// UpsertProfile handles PUT /profile/{email} and PUT /reviews/{email}.
// Same merge semantics as UpsertUser, without issuing a token.
func (h *UserHandler) UpsertProfile(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	user, ok := h.upsert(w, r, email)
	if !ok {
		return
	}

	WriteJSONResponse(w, http.StatusOK, user)
}

// GetProfile handles GET /profile/{email} and GET /reviews/{email}.
func (h *UserHandler) GetProfile(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	user, err := h.repo.GetByEmail(r.Context(), email)
	if err != nil {
		if IsNotFound(err) {
			WriteErrorResponse(w, http.StatusNotFound, "not_found", "The requested user could not be found")
			return
		}
		h.logger.Error("get_user_failed", "user_email", email, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to retrieve user")
		return
	}

	WriteJSONResponse(w, http.StatusOK, user)
}

// ListUsers handles GET /users and GET /reviews.
func (h *UserHandler) ListUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.repo.List(r.Context())
	if err != nil {
		h.logger.Error("list_users_failed", "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to list users")
		return
	}

	WriteJSONResponse(w, http.StatusOK, users)
}

// PromoteToAdmin handles PUT /user/admin/{email}.
func (h *UserHandler) PromoteToAdmin(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	user, err := h.repo.PromoteToAdmin(r.Context(), email)
	if err != nil {
		if IsNotFound(err) {
			WriteErrorResponse(w, http.StatusNotFound, "not_found", "The requested user could not be found")
			return
		}
		h.logger.Error("promote_user_failed", "user_email", email, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to promote user")
		return
	}

	h.logger.Info("user_promoted", "user_email", email)
	WriteJSONResponse(w, http.StatusOK, user)
}

// IsAdmin handles GET /admin/{email}. An email with no user record
// yields {"admin": false}, never an error.
func (h *UserHandler) IsAdmin(w http.ResponseWriter, r *http.Request) {
	email := r.PathValue("email")

	role, err := h.repo.GetRole(r.Context(), email)
	if err != nil {
		var notFound *repository.NotFoundError
		if !errors.As(err, &notFound) {
			h.logger.Error("role_lookup_failed", "user_email", email, "error", err)
			WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to look up role")
			return
		}
		role = domain.RoleUser
	}

	WriteJSONResponse(w, http.StatusOK, map[string]bool{"admin": role == domain.RoleAdmin})
}

func (h *UserHandler) upsert(w http.ResponseWriter, r *http.Request, email string) (*domain.User, bool) {
	if email == "" {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Email is required")
		return nil, false
	}

	var req UpsertUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		WriteErrorResponse(w, http.StatusBadRequest, "invalid_request", "Invalid request body")
		return nil, false
	}

	user, err := h.repo.Upsert(r.Context(), email, req.toProfileUpdate())
	if err != nil {
		h.logger.Error("upsert_user_failed", "user_email", email, "error", err)
		WriteErrorResponse(w, http.StatusInternalServerError, "internal_error", "Failed to store user")
		return nil, false
	}

	return user, true
}
