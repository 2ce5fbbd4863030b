package domain

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type CategoryType string

const (
	CategoryTypeIncome  CategoryType = "income"
	CategoryTypeExpense CategoryType = "expense"
)

// System categories backing manual balance adjustments. They must exist per
// user before an adjustment is attempted; they are provisioned at bootstrap,
// never lazily.
const (
	AdjustmentIncomeCategory  = "Balance_Adjustment_Income"
	AdjustmentExpenseCategory = "Balance_Adjustment_Expense"
)

// ParseCategoryType normalizes case-insensitive input to a CategoryType.
func ParseCategoryType(s string) (CategoryType, error) {
	switch CategoryType(strings.ToLower(strings.TrimSpace(s))) {
	case CategoryTypeIncome:
		return CategoryTypeIncome, nil
	case CategoryTypeExpense:
		return CategoryTypeExpense, nil
	default:
		return "", ErrInvalidCategoryType
	}
}

// Category classifies transactions. ParentCategory is a free-text label, not
// a reference; no hierarchy is enforced.
type Category struct {
	ID             int32            `json:"id"`
	UserID         string           `json:"userId"`
	Name           string           `json:"name"`
	Type           CategoryType     `json:"type"`
	ParentCategory string           `json:"parentCategory,omitempty"`
	Budget         *decimal.Decimal `json:"budget,omitempty"`
	CreatedAt      time.Time        `json:"createdAt"`
	UpdatedAt      time.Time        `json:"updatedAt"`
}

// UpdateCategoryData holds the new field values for a category update.
type UpdateCategoryData struct {
	Name           string
	Type           CategoryType
	ParentCategory string
	Budget         *decimal.Decimal
}

type CategoryRepository interface {
	Create(category *Category) (*Category, error)
	GetByID(userID string, id int32) (*Category, error)
	GetByName(userID string, name string) (*Category, error)
	GetAllByUser(userID string) ([]*Category, error)
	GetByType(userID string, categoryType CategoryType) ([]*Category, error)
	GetByParent(userID string, parent string) ([]*Category, error)
	Update(userID string, id int32, data *UpdateCategoryData) (*Category, error)
	Delete(userID string, id int32) error
}
