package handler

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/pennywise-app/pennywise-backend/internal/middleware"
	"github.com/pennywise-app/pennywise-backend/internal/service"
	"github.com/rs/zerolog/log"
)

// AuthHandler handles authentication-related HTTP requests
type AuthHandler struct {
	categoryService *service.CategoryService
}

// NewAuthHandler creates a new AuthHandler
func NewAuthHandler(categoryService *service.CategoryService) *AuthHandler {
	return &AuthHandler{categoryService: categoryService}
}

// BootstrapResponse represents the response from the bootstrap endpoint
type BootstrapResponse struct {
	UserID string  `json:"userId"`
	Email  string  `json:"email,omitempty"`
	Name   *string `json:"name,omitempty"`
}

// Bootstrap prepares a user's workspace after their first authentication.
// It provisions the system balance adjustment categories and is safe to call
// on every login.
// POST /api/v1/auth/bootstrap
func (h *AuthHandler) Bootstrap(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		log.Error().Msg("No user ID in context - middleware may not be configured")
		return NewUnauthorizedError(c, "Authentication required")
	}

	if err := h.categoryService.ProvisionSystemCategories(userID); err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to provision system categories")
		return NewInternalError(c, "Failed to prepare user workspace")
	}

	resp := BootstrapResponse{UserID: userID}
	if claims := middleware.GetCustomClaims(c); claims != nil {
		resp.Email = claims.Email
		if claims.Name != "" {
			name := claims.Name
			resp.Name = &name
		}
	}

	log.Info().Str("user_id", userID).Msg("User workspace bootstrapped")

	return c.JSON(http.StatusOK, resp)
}
