package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennywise-app/pennywise-backend/internal/domain"
	"github.com/shopspring/decimal"
)

const uniqueViolationCode = "23505"

// AccountRepository implements domain.AccountRepository using PostgreSQL
type AccountRepository struct {
	pool *pgxpool.Pool
}

// NewAccountRepository creates a new AccountRepository
func NewAccountRepository(pool *pgxpool.Pool) *AccountRepository {
	return &AccountRepository{pool: pool}
}

const accountColumns = "id, user_id, name, balance, created_at, updated_at"

// Create creates a new account
func (r *AccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	ctx := context.Background()

	balance, err := decimalToPgNumeric(account.Balance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	row := r.pool.QueryRow(ctx,
		`INSERT INTO accounts (user_id, name, balance)
		 VALUES ($1, $2, $3)
		 RETURNING `+accountColumns,
		account.UserID, account.Name, balance)

	created, err := scanAccount(row)
	if err != nil {
		if isUniqueViolation(err) {
			return nil, domain.ErrAccountNameTaken
		}
		return nil, err
	}
	return created, nil
}

// GetByID retrieves an account by its ID, scoped to the owning user
func (r *AccountRepository) GetByID(userID string, id int32) (*domain.Account, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND id = $2`,
		userID, id)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetByName retrieves an account by its name, scoped to the owning user
func (r *AccountRepository) GetByName(userID string, name string) (*domain.Account, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 AND name = $2`,
		userID, name)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		return nil, err
	}
	return account, nil
}

// GetAllByUser retrieves all accounts for a user
func (r *AccountRepository) GetAllByUser(userID string) ([]*domain.Account, error) {
	ctx := context.Background()
	rows, err := r.pool.Query(ctx,
		`SELECT `+accountColumns+` FROM accounts WHERE user_id = $1 ORDER BY name`,
		userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	accounts := []*domain.Account{}
	for rows.Next() {
		account, err := scanAccount(rows)
		if err != nil {
			return nil, err
		}
		accounts = append(accounts, account)
	}
	return accounts, rows.Err()
}

// UpdateName updates an account's name
func (r *AccountRepository) UpdateName(userID string, id int32, name string) (*domain.Account, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`UPDATE accounts SET name = $3, updated_at = now()
		 WHERE user_id = $1 AND id = $2
		 RETURNING `+accountColumns,
		userID, id, name)

	account, err := scanAccount(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrAccountNotFound
		}
		if isUniqueViolation(err) {
			return nil, domain.ErrAccountNameTaken
		}
		return nil, err
	}
	return account, nil
}

// Delete permanently removes an account. Referencing transactions are left
// in place; list reads COALESCE the missing account name.
func (r *AccountRepository) Delete(userID string, id int32) error {
	ctx := context.Background()
	tag, err := r.pool.Exec(ctx,
		`DELETE FROM accounts WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrAccountNotFound
	}
	return nil
}

// Helper functions

func scanAccount(row pgx.Row) (*domain.Account, error) {
	var account domain.Account
	var balance pgtype.Numeric
	var createdAt, updatedAt pgtype.Timestamptz

	if err := row.Scan(&account.ID, &account.UserID, &account.Name, &balance, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	account.Balance = pgNumericToDecimal(balance)
	account.CreatedAt = createdAt.Time
	account.UpdatedAt = updatedAt.Time
	return &account, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == uniqueViolationCode
}

func decimalToPgNumeric(d decimal.Decimal) (pgtype.Numeric, error) {
	var num pgtype.Numeric
	if err := num.Scan(d.String()); err != nil {
		return pgtype.Numeric{}, err
	}
	return num, nil
}

func pgNumericToDecimal(n pgtype.Numeric) decimal.Decimal {
	if !n.Valid {
		return decimal.Zero
	}
	if n.Int == nil {
		return decimal.Zero
	}
	return decimal.NewFromBigInt(n.Int, n.Exp)
}
