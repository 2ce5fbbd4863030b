package service

import (
	"errors"
	"strings"
	"testing"

	"github.com/pennywise-app/pennywise-backend/internal/domain"
	"github.com/pennywise-app/pennywise-backend/internal/testutil"
	"github.com/shopspring/decimal"
)

func newCategoryService() (*testutil.MockCategoryRepository, *CategoryService) {
	categoryRepo := testutil.NewMockCategoryRepository()
	return categoryRepo, NewCategoryService(categoryRepo, nil, nil)
}

func TestCreateCategory_Success(t *testing.T) {
	_, categoryService := newCategoryService()

	budget := decimal.NewFromInt(400)
	category, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name:           "Groceries",
		Type:           domain.CategoryTypeExpense,
		ParentCategory: "Food",
		Budget:         &budget,
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if category.Name != "Groceries" {
		t.Errorf("Expected name 'Groceries', got %s", category.Name)
	}
	if category.Type != domain.CategoryTypeExpense {
		t.Errorf("Expected type expense, got %s", category.Type)
	}
	if category.ParentCategory != "Food" {
		t.Errorf("Expected parent 'Food', got %s", category.ParentCategory)
	}
	if category.Budget == nil || !category.Budget.Equal(budget) {
		t.Error("Expected budget 400")
	}
}

func TestCreateCategory_EmptyNameFails(t *testing.T) {
	_, categoryService := newCategoryService()

	_, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name: "  ",
		Type: domain.CategoryTypeExpense,
	})
	if !errors.Is(err, domain.ErrNameRequired) {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
}

func TestCreateCategory_LongNameFails(t *testing.T) {
	_, categoryService := newCategoryService()

	_, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name: strings.Repeat("x", domain.MaxCategoryNameLength+1),
		Type: domain.CategoryTypeExpense,
	})
	if !errors.Is(err, domain.ErrNameTooLong) {
		t.Errorf("Expected ErrNameTooLong, got %v", err)
	}
}

func TestCreateCategory_InvalidTypeFails(t *testing.T) {
	_, categoryService := newCategoryService()

	_, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name: "Misc",
		Type: domain.CategoryType("transfer"),
	})
	if !errors.Is(err, domain.ErrInvalidCategoryType) {
		t.Errorf("Expected ErrInvalidCategoryType, got %v", err)
	}
}

func TestCreateCategory_NegativeBudgetFails(t *testing.T) {
	_, categoryService := newCategoryService()

	budget := decimal.NewFromInt(-1)
	_, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name:   "Misc",
		Type:   domain.CategoryTypeExpense,
		Budget: &budget,
	})
	if !errors.Is(err, domain.ErrInvalidAmount) {
		t.Errorf("Expected ErrInvalidAmount, got %v", err)
	}
}

func TestCreateCategory_DuplicateNameFails(t *testing.T) {
	_, categoryService := newCategoryService()

	if _, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name: "Food",
		Type: domain.CategoryTypeExpense,
	}); err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	_, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name: "Food",
		Type: domain.CategoryTypeIncome,
	})
	if !errors.Is(err, domain.ErrCategoryNameTaken) {
		t.Errorf("Expected ErrCategoryNameTaken, got %v", err)
	}
}

func TestGetCategoryByName(t *testing.T) {
	_, categoryService := newCategoryService()

	if _, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name: "Food",
		Type: domain.CategoryTypeExpense,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	category, err := categoryService.GetCategoryByName(testUserID, "Food")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if category.Name != "Food" {
		t.Errorf("Expected name 'Food', got %s", category.Name)
	}

	_, err = categoryService.GetCategoryByName(testUserID, "Missing")
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}
}

func TestGetCategoriesByType_FiltersByType(t *testing.T) {
	_, categoryService := newCategoryService()

	mustCreate := func(name string, categoryType domain.CategoryType) {
		t.Helper()
		if _, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
			Name: name,
			Type: categoryType,
		}); err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	mustCreate("Salary", domain.CategoryTypeIncome)
	mustCreate("Food", domain.CategoryTypeExpense)
	mustCreate("Rent", domain.CategoryTypeExpense)

	expenses, err := categoryService.GetCategoriesByType(testUserID, domain.CategoryTypeExpense)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(expenses) != 2 {
		t.Errorf("Expected 2 expense categories, got %d", len(expenses))
	}
}

func TestGetCategoriesByType_InvalidTypeFails(t *testing.T) {
	_, categoryService := newCategoryService()

	_, err := categoryService.GetCategoriesByType(testUserID, domain.CategoryType("other"))
	if !errors.Is(err, domain.ErrInvalidCategoryType) {
		t.Errorf("Expected ErrInvalidCategoryType, got %v", err)
	}
}

func TestGetCategoriesByParent_FiltersByParent(t *testing.T) {
	_, categoryService := newCategoryService()

	if _, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name:           "Groceries",
		Type:           domain.CategoryTypeExpense,
		ParentCategory: "Food",
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name: "Rent",
		Type: domain.CategoryTypeExpense,
	}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	children, err := categoryService.GetCategoriesByParent(testUserID, "Food")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(children) != 1 || children[0].Name != "Groceries" {
		t.Errorf("Expected only 'Groceries' under 'Food', got %d entries", len(children))
	}
}

func TestUpdateCategory_PartialUpdate(t *testing.T) {
	_, categoryService := newCategoryService()

	created, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name: "Food",
		Type: domain.CategoryTypeExpense,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newName := "Dining"
	updated, err := categoryService.UpdateCategory(testUserID, created.ID, UpdateCategoryInput{Name: &newName})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Name != "Dining" {
		t.Errorf("Expected name 'Dining', got %s", updated.Name)
	}
	if updated.Type != domain.CategoryTypeExpense {
		t.Errorf("Expected type preserved, got %s", updated.Type)
	}
}

func TestUpdateCategory_ClearBudget(t *testing.T) {
	_, categoryService := newCategoryService()

	budget := decimal.NewFromInt(400)
	created, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name:   "Food",
		Type:   domain.CategoryTypeExpense,
		Budget: &budget,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	updated, err := categoryService.UpdateCategory(testUserID, created.ID, UpdateCategoryInput{ClearBudget: true})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Budget != nil {
		t.Errorf("Expected budget cleared, got %s", updated.Budget)
	}
}

func TestDeleteCategory_SecondDeleteIsNotFound(t *testing.T) {
	_, categoryService := newCategoryService()

	created, err := categoryService.CreateCategory(testUserID, CreateCategoryInput{
		Name: "Food",
		Type: domain.CategoryTypeExpense,
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := categoryService.DeleteCategory(testUserID, created.ID); err != nil {
		t.Fatalf("First delete failed: %v", err)
	}
	err = categoryService.DeleteCategory(testUserID, created.ID)
	if !errors.Is(err, domain.ErrCategoryNotFound) {
		t.Errorf("Expected ErrCategoryNotFound, got %v", err)
	}
}

func TestProvisionSystemCategories_CreatesBoth(t *testing.T) {
	categoryRepo, categoryService := newCategoryService()

	if err := categoryService.ProvisionSystemCategories(testUserID); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	income, err := categoryRepo.GetByName(testUserID, domain.AdjustmentIncomeCategory)
	if err != nil {
		t.Fatalf("Expected income adjustment category, got %v", err)
	}
	if income.Type != domain.CategoryTypeIncome {
		t.Errorf("Expected income type, got %s", income.Type)
	}

	expense, err := categoryRepo.GetByName(testUserID, domain.AdjustmentExpenseCategory)
	if err != nil {
		t.Fatalf("Expected expense adjustment category, got %v", err)
	}
	if expense.Type != domain.CategoryTypeExpense {
		t.Errorf("Expected expense type, got %s", expense.Type)
	}
}

func TestProvisionSystemCategories_Idempotent(t *testing.T) {
	categoryRepo, categoryService := newCategoryService()

	if err := categoryService.ProvisionSystemCategories(testUserID); err != nil {
		t.Fatalf("First provision failed: %v", err)
	}
	if err := categoryService.ProvisionSystemCategories(testUserID); err != nil {
		t.Fatalf("Second provision failed: %v", err)
	}

	all, err := categoryRepo.GetAllByUser(testUserID)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(all) != 2 {
		t.Errorf("Expected exactly 2 system categories, got %d", len(all))
	}
}
