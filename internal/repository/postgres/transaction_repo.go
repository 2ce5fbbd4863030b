package postgres

import (
	"context"
	"errors"
	"fmt"
	"sort"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/pennywise-app/pennywise-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// TransactionRepository implements domain.TransactionRepository using
// PostgreSQL. Every method that writes a transaction record together with
// account balances runs inside a single pgx transaction: either all writes
// commit or none are observable. Balance writes use relative UPDATEs, so
// concurrent mutations of the same account serialize on the row lock.
type TransactionRepository struct {
	pool *pgxpool.Pool
}

// NewTransactionRepository creates a new TransactionRepository
func NewTransactionRepository(pool *pgxpool.Pool) *TransactionRepository {
	return &TransactionRepository{pool: pool}
}

const transactionColumns = "id, user_id, account_id, category_id, amount, type, description, transaction_date, transfer_pair_id, created_at, updated_at"

// Create inserts the transaction record and applies the balance delta to its
// account as one atomic unit.
func (r *TransactionRepository) Create(transaction *domain.Transaction, delta domain.BalanceChange) (*domain.Transaction, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created, err := insertTransaction(ctx, tx, transaction)
	if err != nil {
		return nil, err
	}

	if err := applyBalanceChanges(ctx, tx, transaction.UserID, []domain.BalanceChange{delta}); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// GetByID retrieves a transaction by its ID, scoped to the owning user
func (r *TransactionRepository) GetByID(userID string, id int32) (*domain.Transaction, error) {
	ctx := context.Background()
	row := r.pool.QueryRow(ctx,
		`SELECT `+transactionColumns+` FROM transactions WHERE user_id = $1 AND id = $2`,
		userID, id)

	transaction, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}
	return transaction, nil
}

// GetByUser retrieves a user's transactions joined with account and category
// names, with optional filters and pagination.
func (r *TransactionRepository) GetByUser(userID string, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	ctx := context.Background()

	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)
	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
			if pageSize > domain.MaxPageSize {
				pageSize = domain.MaxPageSize
			}
		}
	}
	offset := (page - 1) * pageSize

	where := "t.user_id = $1"
	args := []any{userID}
	if filters != nil {
		if filters.AccountID != nil {
			args = append(args, *filters.AccountID)
			where += fmt.Sprintf(" AND t.account_id = $%d", len(args))
		}
		if filters.CategoryID != nil {
			args = append(args, *filters.CategoryID)
			where += fmt.Sprintf(" AND t.category_id = $%d", len(args))
		}
		if filters.Type != nil {
			args = append(args, string(*filters.Type))
			where += fmt.Sprintf(" AND t.type = $%d", len(args))
		}
		if filters.StartDate != nil {
			args = append(args, *filters.StartDate)
			where += fmt.Sprintf(" AND t.transaction_date >= $%d", len(args))
		}
		if filters.EndDate != nil {
			args = append(args, *filters.EndDate)
			where += fmt.Sprintf(" AND t.transaction_date <= $%d", len(args))
		}
	}

	var totalItems int64
	if err := r.pool.QueryRow(ctx,
		"SELECT COUNT(*) FROM transactions t WHERE "+where, args...).Scan(&totalItems); err != nil {
		return nil, err
	}

	// Deleted accounts/categories may leave dangling references, so both
	// joins are outer joins.
	query := `SELECT t.id, t.user_id, t.account_id, t.category_id, t.amount, t.type,
			t.description, t.transaction_date, t.transfer_pair_id, t.created_at, t.updated_at,
			COALESCE(a.name, ''), c.name
		FROM transactions t
		LEFT JOIN accounts a ON a.id = t.account_id
		LEFT JOIN categories c ON c.id = t.category_id
		WHERE ` + where + `
		ORDER BY t.transaction_date DESC, t.id DESC`
	args = append(args, pageSize, offset)
	query += fmt.Sprintf(" LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	details := []*domain.TransactionDetail{}
	for rows.Next() {
		detail, err := scanTransactionDetail(rows)
		if err != nil {
			return nil, err
		}
		details = append(details, detail)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	totalPages := int32(totalItems / int64(pageSize))
	if totalItems%int64(pageSize) > 0 {
		totalPages++
	}

	return &domain.PaginatedTransactions{
		Data:       details,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: totalItems,
		TotalPages: totalPages,
	}, nil
}

// Update persists the transaction's new field values and applies every
// balance change as one atomic unit.
func (r *TransactionRepository) Update(userID string, id int32, data *domain.UpdateTransactionData, deltas []domain.BalanceChange) (*domain.Transaction, error) {
	ctx := context.Background()

	amount, err := decimalToPgNumeric(data.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var categoryID pgtype.Int4
	if data.CategoryID != nil {
		categoryID.Int32 = *data.CategoryID
		categoryID.Valid = true
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	row := tx.QueryRow(ctx,
		`UPDATE transactions
		 SET account_id = $3, category_id = $4, amount = $5, type = $6,
			 description = $7, transaction_date = $8, updated_at = now()
		 WHERE user_id = $1 AND id = $2
		 RETURNING `+transactionColumns,
		userID, id, data.AccountID, categoryID, amount, string(data.Type),
		data.Description, data.TransactionDate)

	updated, err := scanTransaction(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrTransactionNotFound
		}
		return nil, err
	}

	if err := applyBalanceChanges(ctx, tx, userID, deltas); err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return updated, nil
}

// Delete removes the transaction record and applies the reversal delta as
// one atomic unit.
func (r *TransactionRepository) Delete(userID string, id int32, delta domain.BalanceChange) error {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	tag, err := tx.Exec(ctx,
		`DELETE FROM transactions WHERE user_id = $1 AND id = $2`, userID, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrTransactionNotFound
	}

	if err := applyBalanceChanges(ctx, tx, userID, []domain.BalanceChange{delta}); err != nil {
		return err
	}

	return tx.Commit(ctx)
}

// DeleteAllByUser reverses every transaction's effect on its account with a
// single aggregated update, then bulk-deletes the records. Accounts deleted
// out from under their transactions simply match no row.
func (r *TransactionRepository) DeleteAllByUser(userID string) (int64, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`UPDATE accounts a
		 SET balance = a.balance - s.net, updated_at = now()
		 FROM (
			 SELECT account_id,
					SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END) AS net
			 FROM transactions
			 WHERE user_id = $1
			 GROUP BY account_id
		 ) s
		 WHERE a.id = s.account_id AND a.user_id = $1`,
		userID)
	if err != nil {
		return 0, err
	}

	tag, err := tx.Exec(ctx, `DELETE FROM transactions WHERE user_id = $1`, userID)
	if err != nil {
		return 0, err
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// CreateTransferPair moves amount between two accounts and inserts both legs
// atomically. The source row is locked before the funds check so concurrent
// transfers cannot overdraw it.
func (r *TransactionRepository) CreateTransferPair(fromTx, toTx *domain.Transaction, amount decimal.Decimal) (*domain.TransferResult, error) {
	ctx := context.Background()

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	// Lock both account rows in ascending id order to avoid deadlock with a
	// concurrent transfer in the opposite direction.
	lockOrder := []int32{fromTx.AccountID, toTx.AccountID}
	sort.Slice(lockOrder, func(i, j int) bool { return lockOrder[i] < lockOrder[j] })

	var fromBalance decimal.Decimal
	for _, accountID := range lockOrder {
		var balance pgtype.Numeric
		err := tx.QueryRow(ctx,
			`SELECT balance FROM accounts WHERE user_id = $1 AND id = $2 FOR UPDATE`,
			fromTx.UserID, accountID).Scan(&balance)
		if err != nil {
			if errors.Is(err, pgx.ErrNoRows) {
				return nil, domain.ErrAccountNotFound
			}
			return nil, err
		}
		if accountID == fromTx.AccountID {
			fromBalance = pgNumericToDecimal(balance)
		}
	}

	if fromBalance.LessThan(amount) {
		return nil, domain.ErrInsufficientFunds
	}

	deltas := []domain.BalanceChange{
		{AccountID: fromTx.AccountID, Delta: amount.Neg()},
		{AccountID: toTx.AccountID, Delta: amount},
	}
	if err := applyBalanceChanges(ctx, tx, fromTx.UserID, deltas); err != nil {
		return nil, err
	}

	fromResult, err := insertTransaction(ctx, tx, fromTx)
	if err != nil {
		return nil, err
	}
	toResult, err := insertTransaction(ctx, tx, toTx)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}

	return &domain.TransferResult{
		FromTransaction: fromResult,
		ToTransaction:   toResult,
	}, nil
}

// CreateAdjustment inserts the synthetic adjustment record and sets the
// account balance to newBalance exactly, as one atomic unit. An absolute SET
// avoids accumulating drift from repeated relative writes.
func (r *TransactionRepository) CreateAdjustment(adjustment *domain.Transaction, newBalance decimal.Decimal) (*domain.Transaction, error) {
	ctx := context.Background()

	balance, err := decimalToPgNumeric(newBalance)
	if err != nil {
		return nil, fmt.Errorf("invalid balance: %w", err)
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	created, err := insertTransaction(ctx, tx, adjustment)
	if err != nil {
		return nil, err
	}

	tag, err := tx.Exec(ctx,
		`UPDATE accounts SET balance = $3, updated_at = now() WHERE user_id = $1 AND id = $2`,
		adjustment.UserID, adjustment.AccountID, balance)
	if err != nil {
		return nil, err
	}
	if tag.RowsAffected() == 0 {
		return nil, domain.ErrAccountNotFound
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return created, nil
}

// SumByAccount returns the signed sum over an account's transactions.
func (r *TransactionRepository) SumByAccount(userID string, accountID int32) (decimal.Decimal, error) {
	ctx := context.Background()

	var sum pgtype.Numeric
	err := r.pool.QueryRow(ctx,
		`SELECT COALESCE(SUM(CASE WHEN type = 'income' THEN amount ELSE -amount END), 0)
		 FROM transactions
		 WHERE user_id = $1 AND account_id = $2`,
		userID, accountID).Scan(&sum)
	if err != nil {
		return decimal.Zero, err
	}
	return pgNumericToDecimal(sum), nil
}

// Helper functions

// applyBalanceChanges applies each delta with a relative UPDATE inside tx.
// Rows are updated in ascending account id order so two multi-account writes
// acquire their locks in the same order.
func applyBalanceChanges(ctx context.Context, tx pgx.Tx, userID string, deltas []domain.BalanceChange) error {
	ordered := make([]domain.BalanceChange, len(deltas))
	copy(ordered, deltas)
	sort.Slice(ordered, func(i, j int) bool { return ordered[i].AccountID < ordered[j].AccountID })

	for _, change := range ordered {
		if change.Delta.IsZero() {
			continue
		}
		delta, err := decimalToPgNumeric(change.Delta)
		if err != nil {
			return fmt.Errorf("invalid delta: %w", err)
		}
		tag, err := tx.Exec(ctx,
			`UPDATE accounts SET balance = balance + $3, updated_at = now()
			 WHERE user_id = $1 AND id = $2`,
			userID, change.AccountID, delta)
		if err != nil {
			return err
		}
		if tag.RowsAffected() == 0 {
			return domain.ErrAccountNotFound
		}
	}
	return nil
}

func insertTransaction(ctx context.Context, tx pgx.Tx, transaction *domain.Transaction) (*domain.Transaction, error) {
	amount, err := decimalToPgNumeric(transaction.Amount)
	if err != nil {
		return nil, fmt.Errorf("invalid amount: %w", err)
	}

	var categoryID pgtype.Int4
	if transaction.CategoryID != nil {
		categoryID.Int32 = *transaction.CategoryID
		categoryID.Valid = true
	}

	var transferPairID pgtype.UUID
	if transaction.TransferPairID != nil {
		transferPairID.Bytes = *transaction.TransferPairID
		transferPairID.Valid = true
	}

	row := tx.QueryRow(ctx,
		`INSERT INTO transactions (user_id, account_id, category_id, amount, type, description, transaction_date, transfer_pair_id)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		 RETURNING `+transactionColumns,
		transaction.UserID, transaction.AccountID, categoryID, amount,
		string(transaction.Type), transaction.Description, transaction.TransactionDate, transferPairID)

	return scanTransaction(row)
}

func scanTransaction(row pgx.Row) (*domain.Transaction, error) {
	var transaction domain.Transaction
	var categoryID pgtype.Int4
	var amount pgtype.Numeric
	var txType string
	var transactionDate pgtype.Date
	var transferPairID pgtype.UUID
	var createdAt, updatedAt pgtype.Timestamptz

	if err := row.Scan(&transaction.ID, &transaction.UserID, &transaction.AccountID,
		&categoryID, &amount, &txType, &transaction.Description, &transactionDate,
		&transferPairID, &createdAt, &updatedAt); err != nil {
		return nil, err
	}

	if categoryID.Valid {
		transaction.CategoryID = &categoryID.Int32
	}
	transaction.Amount = pgNumericToDecimal(amount)
	transaction.Type = domain.TransactionType(txType)
	transaction.TransactionDate = transactionDate.Time
	if transferPairID.Valid {
		pairID := uuid.UUID(transferPairID.Bytes)
		transaction.TransferPairID = &pairID
	}
	transaction.CreatedAt = createdAt.Time
	transaction.UpdatedAt = updatedAt.Time
	return &transaction, nil
}

func scanTransactionDetail(rows pgx.Rows) (*domain.TransactionDetail, error) {
	var detail domain.TransactionDetail
	var categoryID pgtype.Int4
	var amount pgtype.Numeric
	var txType string
	var transactionDate pgtype.Date
	var transferPairID pgtype.UUID
	var createdAt, updatedAt pgtype.Timestamptz
	var categoryName pgtype.Text

	if err := rows.Scan(&detail.ID, &detail.UserID, &detail.AccountID,
		&categoryID, &amount, &txType, &detail.Description, &transactionDate,
		&transferPairID, &createdAt, &updatedAt, &detail.AccountName, &categoryName); err != nil {
		return nil, err
	}

	if categoryID.Valid {
		detail.CategoryID = &categoryID.Int32
	}
	detail.Amount = pgNumericToDecimal(amount)
	detail.Type = domain.TransactionType(txType)
	detail.TransactionDate = transactionDate.Time
	if transferPairID.Valid {
		pairID := uuid.UUID(transferPairID.Bytes)
		detail.TransferPairID = &pairID
	}
	if categoryName.Valid {
		detail.CategoryName = &categoryName.String
	}
	detail.CreatedAt = createdAt.Time
	detail.UpdatedAt = updatedAt.Time
	return &detail, nil
}
