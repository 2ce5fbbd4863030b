package service

import (
	"errors"
	"strings"

	"github.com/pennywise-app/pennywise-backend/internal/cache"
	"github.com/pennywise-app/pennywise-backend/internal/domain"
	"github.com/pennywise-app/pennywise-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// CategoryService handles category business logic
type CategoryService struct {
	categoryRepo domain.CategoryRepository
	cache        *cache.LRUCache[any]
	publisher    websocket.EventPublisher
}

// NewCategoryService creates a new CategoryService. cache may be nil to
// disable caching; publisher may be nil to disable event fan-out.
func NewCategoryService(categoryRepo domain.CategoryRepository, c *cache.LRUCache[any], publisher websocket.EventPublisher) *CategoryService {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &CategoryService{
		categoryRepo: categoryRepo,
		cache:        c,
		publisher:    publisher,
	}
}

// CreateCategoryInput holds the input for creating a category
type CreateCategoryInput struct {
	Name           string
	Type           domain.CategoryType
	ParentCategory string
	Budget         *decimal.Decimal
}

// CreateCategory creates a new category.
func (s *CategoryService) CreateCategory(userID string, input CreateCategoryInput) (*domain.Category, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxCategoryNameLength {
		return nil, domain.ErrNameTooLong
	}
	if input.Type != domain.CategoryTypeIncome && input.Type != domain.CategoryTypeExpense {
		return nil, domain.ErrInvalidCategoryType
	}
	if input.Budget != nil && input.Budget.IsNegative() {
		return nil, domain.ErrInvalidAmount
	}

	category, err := s.categoryRepo.Create(&domain.Category{
		UserID:         userID,
		Name:           name,
		Type:           input.Type,
		ParentCategory: strings.TrimSpace(input.ParentCategory),
		Budget:         input.Budget,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(userID)
	s.publisher.Publish(userID, websocket.CategoryCreated(category))
	return category, nil
}

// GetCategories retrieves all categories for a user, read through the cache.
func (s *CategoryService) GetCategories(userID string) ([]*domain.Category, error) {
	key := cache.CategoriesAllKey(userID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if categories, ok := cached.([]*domain.Category); ok {
				return categories, nil
			}
		}
	}

	categories, err := s.categoryRepo.GetAllByUser(userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, categories)
	}
	return categories, nil
}

// GetCategoryByID retrieves a single category, read through the cache.
func (s *CategoryService) GetCategoryByID(userID string, id int32) (*domain.Category, error) {
	key := cache.CategoryKey(userID, id)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if category, ok := cached.(*domain.Category); ok {
				return category, nil
			}
		}
	}

	category, err := s.categoryRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, category)
	}
	return category, nil
}

// GetCategoryByName retrieves a single category by name, read through the cache.
func (s *CategoryService) GetCategoryByName(userID string, name string) (*domain.Category, error) {
	key := cache.CategoryNameKey(userID, name)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if category, ok := cached.(*domain.Category); ok {
				return category, nil
			}
		}
	}

	category, err := s.categoryRepo.GetByName(userID, name)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, category)
	}
	return category, nil
}

// GetCategoriesByType retrieves the user's categories of one type.
func (s *CategoryService) GetCategoriesByType(userID string, categoryType domain.CategoryType) ([]*domain.Category, error) {
	if categoryType != domain.CategoryTypeIncome && categoryType != domain.CategoryTypeExpense {
		return nil, domain.ErrInvalidCategoryType
	}

	key := cache.CategoriesTypeKey(userID, string(categoryType))
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if categories, ok := cached.([]*domain.Category); ok {
				return categories, nil
			}
		}
	}

	categories, err := s.categoryRepo.GetByType(userID, categoryType)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, categories)
	}
	return categories, nil
}

// GetCategoriesByParent retrieves the user's categories under one parent.
func (s *CategoryService) GetCategoriesByParent(userID string, parent string) ([]*domain.Category, error) {
	key := cache.CategoriesParentKey(userID, parent)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if categories, ok := cached.([]*domain.Category); ok {
				return categories, nil
			}
		}
	}

	categories, err := s.categoryRepo.GetByParent(userID, parent)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, categories)
	}
	return categories, nil
}

// UpdateCategoryInput holds the input for updating a category. Nil fields
// keep their previous value.
type UpdateCategoryInput struct {
	Name           *string
	Type           *domain.CategoryType
	ParentCategory *string
	Budget         *decimal.Decimal
	ClearBudget    bool
}

// UpdateCategory edits a category in place.
func (s *CategoryService) UpdateCategory(userID string, id int32, input UpdateCategoryInput) (*domain.Category, error) {
	existing, err := s.categoryRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	data := &domain.UpdateCategoryData{
		Name:           existing.Name,
		Type:           existing.Type,
		ParentCategory: existing.ParentCategory,
		Budget:         existing.Budget,
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxCategoryNameLength {
			return nil, domain.ErrNameTooLong
		}
		data.Name = name
	}
	if input.Type != nil {
		if *input.Type != domain.CategoryTypeIncome && *input.Type != domain.CategoryTypeExpense {
			return nil, domain.ErrInvalidCategoryType
		}
		data.Type = *input.Type
	}
	if input.ParentCategory != nil {
		data.ParentCategory = strings.TrimSpace(*input.ParentCategory)
	}
	if input.ClearBudget {
		data.Budget = nil
	} else if input.Budget != nil {
		if input.Budget.IsNegative() {
			return nil, domain.ErrInvalidAmount
		}
		data.Budget = input.Budget
	}

	category, err := s.categoryRepo.Update(userID, id, data)
	if err != nil {
		return nil, err
	}

	s.invalidate(userID)
	s.publisher.Publish(userID, websocket.CategoryUpdated(category))
	return category, nil
}

// DeleteCategory removes a category. Transactions that reference it are left
// in place and keep a dangling category id.
func (s *CategoryService) DeleteCategory(userID string, id int32) error {
	if err := s.categoryRepo.Delete(userID, id); err != nil {
		return err
	}

	s.invalidate(userID)
	if s.cache != nil {
		// Joined transaction lists carry the deleted category's name.
		s.cache.DeletePrefix(cache.TransactionsPrefix(userID))
	}
	s.publisher.Publish(userID, websocket.CategoryDeleted(map[string]int32{"id": id}))
	return nil
}

// ProvisionSystemCategories makes sure the per-user balance adjustment
// categories exist. Idempotent; called once on first authenticated contact.
func (s *CategoryService) ProvisionSystemCategories(userID string) error {
	system := []struct {
		name         string
		categoryType domain.CategoryType
	}{
		{domain.AdjustmentIncomeCategory, domain.CategoryTypeIncome},
		{domain.AdjustmentExpenseCategory, domain.CategoryTypeExpense},
	}

	created := false
	for _, sc := range system {
		if _, err := s.categoryRepo.GetByName(userID, sc.name); err == nil {
			continue
		} else if !errors.Is(err, domain.ErrCategoryNotFound) {
			return err
		}

		_, err := s.categoryRepo.Create(&domain.Category{
			UserID: userID,
			Name:   sc.name,
			Type:   sc.categoryType,
		})
		if err != nil && !errors.Is(err, domain.ErrCategoryNameTaken) {
			return err
		}
		created = true
	}

	if created {
		s.invalidate(userID)
	}
	return nil
}

func (s *CategoryService) invalidate(userID string) {
	if s.cache != nil {
		s.cache.DeletePrefix(cache.CategoriesPrefix(userID))
	}
}
