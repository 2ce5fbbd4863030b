package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennywise-app/pennywise-backend/internal/domain"
)

// CategoryRepository implements domain.CategoryRepository using PostgreSQL
type CategoryRepository struct {
	pool *pgxpool.Pool
}

// NewCategoryRepository creates a new CategoryRepository
func NewCategoryRepository(pool *pgxpool.Pool) *CategoryRepository {
	return &CategoryRepository{pool: pool}
}

const categoryColumns = "id, user_id, name, type, parent_category, budget, created_at, updated_at"

// Create creates a new category
func (r *CategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	ctx := context.Background()

	var budget pgtype.Numeric
	if category.Budget != nil {
		b, err := decimalToPgNumeric(*category.Budget)
		if err != nil {
			return nil, fmt.Errorf("invalid budget: %w", err)
		}
		budget = b
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO categories (user_id, name, type, parent_category, budget)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING `+categoryColumns,
		category.UserID, category.Name, string(category.Type), category.ParentCategory, budget)

	created, err := scanCategory(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrCategoryNameTaken
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a category by its ID, scoped to the owning user
func (r *CategoryRepository) GetByID(userID string, id int32) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND id = $2`,
		userID, id)

	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetByName retrieves a category by its name, scoped to the owning user
func (r *CategoryRepository) GetByName(userID string, name string) (*domain.Category, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND name = $2`,
		userID, name)

	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		return nil, err
	}
	return category, nil
}

// GetAllByUser retrieves all categories for a user
func (r *CategoryRepository) GetAllByUser(userID string) ([]*domain.Category, error) {
	return r.queryCategories(
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 ORDER BY name`,
		userID)
}

// GetByType retrieves a user's categories of one type
func (r *CategoryRepository) GetByType(userID string, categoryType domain.CategoryType) ([]*domain.Category, error) {
	return r.queryCategories(
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND type = $2 ORDER BY name`,
		userID, string(categoryType))
}

// GetByParent retrieves a user's categories under a parent label
func (r *CategoryRepository) GetByParent(userID string, parent string) ([]*domain.Category, error) {
	return r.queryCategories(
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = $1 AND parent_category = $2 ORDER BY name`,
		userID, parent)
}

func (r *CategoryRepository) queryCategories(sql string, args ...any) ([]*domain.Category, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx, sql, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	categories := []*domain.Category{}
	for rows.Next() {
		category, err := scanCategory(rows)
		if err != nil {
			return nil, err
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// Update updates a category's fields
func (r *CategoryRepository) Update(userID string, id int32, data *domain.UpdateCategoryData) (*domain.Category, error) {
	ctx := context.Background()

	var budget pgtype.Numeric
	if data.Budget != nil {
		b, err := decimalToPgNumeric(*data.Budget)
		if err != nil {
			return nil, fmt.Errorf("invalid budget: %w", err)
		}
		budget = b
	}

	row := r.pool.QueryRow(ctx,
		`UPDATE categories
		 SET name = $3, type = $4, parent_category = $5, budget = $6, updated_at = now()
		 WHERE user_id = $1 AND id = $2
		 RETURNING `+categoryColumns,
		userID, id, data.Name, string(data.Type), data.ParentCategory, budget)

	category, err := scanCategory(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCategoryNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrCategoryNameTaken
		}
		return nil, err
	}
	return category, nil
}

// Delete permanently removes a category. Transactions referencing it keep a
// dangling category id; list reads COALESCE the missing name.
func (r *CategoryRepository) Delete(userID string, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM categories WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrCategoryNotFound
	}
	return nil
}

func scanCategory(row pgx.Row) (*domain.Category, error) {
	var category domain.Category
	var categoryType string
	var budget pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	if err := row.Scan(&category.ID, &category.UserID, &category.Name, &categoryType,
		&category.ParentCategory, &budget, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	category.Type = domain.CategoryType(categoryType)
	if budget.Valid {
		b := pgNumericToDecimal(budget)
		category.Budget = &b
	}
	category.CreatedAt = createdAt.Time
	category.UpdatedAt = updatedAt.Time
	return &category, nil
}
