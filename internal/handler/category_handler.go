package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pennywise-app/pennywise-backend/internal/domain"
	"github.com/pennywise-app/pennywise-backend/internal/middleware"
	"github.com/pennywise-app/pennywise-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// CategoryHandler handles category-related HTTP requests
type CategoryHandler struct {
	categoryService *service.CategoryService
}

// NewCategoryHandler creates a new CategoryHandler
func NewCategoryHandler(categoryService *service.CategoryService) *CategoryHandler {
	return &CategoryHandler{categoryService: categoryService}
}

// CreateCategoryRequest represents the create category request body
type CreateCategoryRequest struct {
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	ParentCategory string  `json:"parentCategory,omitempty"`
	Budget         *string `json:"budget,omitempty"`
}

// UpdateCategoryRequest represents the update category request body. Nil
// fields are left unchanged; an explicit empty budget string clears it.
type UpdateCategoryRequest struct {
	Name           *string `json:"name,omitempty"`
	Type           *string `json:"type,omitempty"`
	ParentCategory *string `json:"parentCategory,omitempty"`
	Budget         *string `json:"budget,omitempty"`
}

// CategoryResponse represents a category in API responses
type CategoryResponse struct {
	ID             int32   `json:"id"`
	Name           string  `json:"name"`
	Type           string  `json:"type"`
	ParentCategory string  `json:"parentCategory,omitempty"`
	Budget         *string `json:"budget,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// CreateCategory handles POST /api/v1/categories
func (h *CategoryHandler) CreateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	categoryType, err := domain.ParseCategoryType(req.Type)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be income or expense"},
		})
	}

	input := service.CreateCategoryInput{
		Name:           req.Name,
		Type:           categoryType,
		ParentCategory: req.ParentCategory,
	}
	if req.Budget != nil {
		budget, err := decimal.NewFromString(*req.Budget)
		if err != nil {
			return NewValidationError(c, "Invalid budget", []ValidationError{
				{Field: "budget", Message: "Must be a valid decimal number"},
			})
		}
		input.Budget = &budget
	}

	category, err := h.categoryService.CreateCategory(userID, input)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create category")
		return NewInternalError(c, "Failed to create category")
	}

	log.Info().Str("user_id", userID).Int32("category_id", category.ID).Str("name", category.Name).Msg("Category created")

	return c.JSON(http.StatusCreated, toCategoryResponse(category))
}

// GetCategories handles GET /api/v1/categories with optional type and parent
// query filters.
func (h *CategoryHandler) GetCategories(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var (
		categories []*domain.Category
		err        error
	)
	switch {
	case c.QueryParam("type") != "":
		var categoryType domain.CategoryType
		categoryType, err = domain.ParseCategoryType(c.QueryParam("type"))
		if err != nil {
			return NewValidationError(c, "Invalid type filter", nil)
		}
		categories, err = h.categoryService.GetCategoriesByType(userID, categoryType)
	case c.QueryParam("parent") != "":
		categories, err = h.categoryService.GetCategoriesByParent(userID, c.QueryParam("parent"))
	default:
		categories, err = h.categoryService.GetCategories(userID)
	}
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get categories")
		return NewInternalError(c, "Failed to get categories")
	}

	response := make([]CategoryResponse, len(categories))
	for i, category := range categories {
		response[i] = toCategoryResponse(category)
	}
	return c.JSON(http.StatusOK, response)
}

// GetCategory handles GET /api/v1/categories/:id
func (h *CategoryHandler) GetCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	category, err := h.categoryService.GetCategoryByID(userID, id)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Int32("category_id", id).Msg("Failed to get category")
		return NewInternalError(c, "Failed to get category")
	}

	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// UpdateCategory handles PUT /api/v1/categories/:id
func (h *CategoryHandler) UpdateCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	var req UpdateCategoryRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateCategoryInput{
		Name:           req.Name,
		ParentCategory: req.ParentCategory,
	}
	if req.Type != nil {
		categoryType, err := domain.ParseCategoryType(*req.Type)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "type", Message: "Type must be income or expense"},
			})
		}
		input.Type = &categoryType
	}
	if req.Budget != nil {
		if *req.Budget == "" {
			input.ClearBudget = true
		} else {
			budget, err := decimal.NewFromString(*req.Budget)
			if err != nil {
				return NewValidationError(c, "Invalid budget", []ValidationError{
					{Field: "budget", Message: "Must be a valid decimal number"},
				})
			}
			input.Budget = &budget
		}
	}

	category, err := h.categoryService.UpdateCategory(userID, id, input)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Int32("category_id", id).Msg("Failed to update category")
		return NewInternalError(c, "Failed to update category")
	}

	log.Info().Str("user_id", userID).Int32("category_id", category.ID).Msg("Category updated")

	return c.JSON(http.StatusOK, toCategoryResponse(category))
}

// DeleteCategory handles DELETE /api/v1/categories/:id
func (h *CategoryHandler) DeleteCategory(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid category ID", nil)
	}

	if err := h.categoryService.DeleteCategory(userID, id); err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Int32("category_id", id).Msg("Failed to delete category")
		return NewInternalError(c, "Failed to delete category")
	}

	log.Info().Str("user_id", userID).Int32("category_id", id).Msg("Category deleted")

	return c.NoContent(http.StatusNoContent)
}

func toCategoryResponse(category *domain.Category) CategoryResponse {
	resp := CategoryResponse{
		ID:             category.ID,
		Name:           category.Name,
		Type:           string(category.Type),
		ParentCategory: category.ParentCategory,
		CreatedAt:      category.CreatedAt.Format(time.RFC3339),
		UpdatedAt:      category.UpdatedAt.Format(time.RFC3339),
	}
	if category.Budget != nil {
		budget := category.Budget.StringFixed(2)
		resp.Budget = &budget
	}
	return resp
}
