// internal/handlers/users.go
package handlers

import (
	"log/slog"
	"net/http"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/handlers/middleware"
)

// UserHandler handles account management requests
type UserHandler struct {
	service ports.UserService
	logger  *slog.Logger
}

// NewUserHandler creates a new user handler
func NewUserHandler(service ports.UserService, logger *slog.Logger) *UserHandler {
	return &UserHandler{
		service: service,
		logger:  logger.With(slog.String("handler", "users")),
	}
}

// CreateUserRequest is the body of POST /users
type CreateUserRequest struct {
	Email       string      `json:"email"`
	Password    string      `json:"password"`
	Name        string      `json:"name"`
	Role        domain.Role `json:"role"`
	Permissions []string    `json:"permissions"`
}

// UpdateUserRequest is the body of PUT /users/{id}
type UpdateUserRequest struct {
	Email       *string      `json:"email"`
	Password    *string      `json:"password"`
	Name        *string      `json:"name"`
	Role        *domain.Role `json:"role"`
	Permissions []string     `json:"permissions"`
}

// List handles GET /api/v1/users?role=
func (h *UserHandler) List(w http.ResponseWriter, r *http.Request) {
	users, err := h.service.List(r.Context(), domain.Role(r.URL.Query().Get("role")))
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"users": users})
}

// Create handles POST /api/v1/users
func (h *UserHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req CreateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.service.Create(r.Context(), middleware.IdentityFrom(r.Context()), ports.CreateUserInput{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusCreated, map[string]interface{}{"user": user})
}

// Get handles GET /api/v1/users/{id}
func (h *UserHandler) Get(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.service.Get(r.Context(), id)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// Update handles PUT /api/v1/users/{id}
func (h *UserHandler) Update(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	var req UpdateUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	user, err := h.service.Update(r.Context(), middleware.IdentityFrom(r.Context()), id, ports.UserPatch{
		Email:       req.Email,
		Password:    req.Password,
		Name:        req.Name,
		Role:        req.Role,
		Permissions: req.Permissions,
	})
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{"user": user})
}

// Delete handles DELETE /api/v1/users/{id}
func (h *UserHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id, err := pathUUID(r, "id")
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	if err := h.service.Delete(r.Context(), middleware.IdentityFrom(r.Context()), id); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "User deleted successfully"})
}
