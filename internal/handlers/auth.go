// internal/handlers/auth.go
package handlers

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/ammerola/tajalli-pos/internal/core/domain"
	"github.com/ammerola/tajalli-pos/internal/core/ports"
	"github.com/ammerola/tajalli-pos/internal/handlers/middleware"
)

// AuthHandler handles login, logout and session lookups
type AuthHandler struct {
	service      ports.AuthService
	cookieSecure bool
	logger       *slog.Logger
}

// NewAuthHandler creates a new auth handler
func NewAuthHandler(service ports.AuthService, cookieSecure bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		service:      service,
		cookieSecure: cookieSecure,
		logger:       logger.With(slog.String("handler", "auth")),
	}
}

// LoginRequest is the body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/v1/auth/login
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	session, err := h.service.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		respondServiceError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    session.Token,
		Path:     "/",
		Expires:  session.ExpiresAt,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]interface{}{
		"user":       session.User,
		"token":      session.Token,
		"expires_at": session.ExpiresAt,
	})
}

// Me handles GET /api/v1/auth/me
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	identity := middleware.IdentityFrom(r.Context())
	if identity == nil {
		respondError(w, http.StatusUnauthorized, "Not authenticated")
		return
	}
	respondJSON(w, http.StatusOK, map[string]*domain.Identity{"user": identity})
}

// Logout handles POST /api/v1/auth/logout. It always clears the cookie.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if err := h.service.Logout(r.Context(), middleware.IdentityFrom(r.Context())); err != nil {
		h.logger.WarnContext(r.Context(), "failed to revoke session", slog.String("error", err.Error()))
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookie,
		Value:    "",
		Path:     "/",
		Expires:  time.Unix(0, 0),
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.cookieSecure,
		SameSite: http.SameSiteLaxMode,
	})

	respondJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
}

// Permissions handles GET /api/v1/permissions
func (h *AuthHandler) Permissions(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"modules":     domain.AllModules,
		"operations":  domain.AllOperations,
		"permissions": domain.AvailablePermissions(),
	})
}
