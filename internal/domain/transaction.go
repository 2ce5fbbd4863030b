package domain

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionTypeIncome  TransactionType = "income"
	TransactionTypeExpense TransactionType = "expense"
)

// Pagination constants
const (
	DefaultPageSize = 50
	MaxPageSize     = 200
)

// ParseTransactionType normalizes case-insensitive input to a TransactionType.
func ParseTransactionType(s string) (TransactionType, error) {
	switch TransactionType(strings.ToLower(strings.TrimSpace(s))) {
	case TransactionTypeIncome:
		return TransactionTypeIncome, nil
	case TransactionTypeExpense:
		return TransactionTypeExpense, nil
	default:
		return "", ErrInvalidTransactionType
	}
}

// SignedAmount returns the effect of a transaction on its account balance:
// +amount for income, -amount for expense.
func SignedAmount(amount decimal.Decimal, txType TransactionType) decimal.Decimal {
	if txType == TransactionTypeExpense {
		return amount.Neg()
	}
	return amount
}

// Transaction records a single income or expense against an account.
// CategoryID is nil only for transfer legs, which bypass categorization.
type Transaction struct {
	ID              int32           `json:"id"`
	UserID          string          `json:"userId"`
	AccountID       int32           `json:"accountId"`
	CategoryID      *int32          `json:"categoryId,omitempty"`
	Amount          decimal.Decimal `json:"amount"`
	Type            TransactionType `json:"type"`
	Description     string          `json:"description"`
	TransactionDate time.Time       `json:"transactionDate"`
	TransferPairID  *uuid.UUID      `json:"transferPairId,omitempty"`
	CreatedAt       time.Time       `json:"createdAt"`
	UpdatedAt       time.Time       `json:"updatedAt"`
}

// Signed returns the transaction's effect on its account balance.
func (t *Transaction) Signed() decimal.Decimal {
	return SignedAmount(t.Amount, t.Type)
}

// TransactionDetail is the read-path projection: a transaction joined with
// its account and category names.
type TransactionDetail struct {
	Transaction
	AccountName  string  `json:"accountName"`
	CategoryName *string `json:"categoryName,omitempty"`
}

// TransactionFilters narrows read queries.
type TransactionFilters struct {
	AccountID  *int32
	CategoryID *int32
	Type       *TransactionType
	StartDate  *time.Time
	EndDate    *time.Time
	Page       int32
	PageSize   int32
}

// PaginatedTransactions is a page of joined transaction rows.
type PaginatedTransactions struct {
	Data       []*TransactionDetail `json:"data"`
	Page       int32                `json:"page"`
	PageSize   int32                `json:"pageSize"`
	TotalItems int64                `json:"totalItems"`
	TotalPages int32                `json:"totalPages"`
}

// UpdateTransactionData holds the effective new field values for an update.
// Callers resolve partial payloads against the existing record before the
// repository is invoked, so every field here is authoritative.
type UpdateTransactionData struct {
	AccountID       int32
	CategoryID      *int32
	Amount          decimal.Decimal
	Type            TransactionType
	Description     string
	TransactionDate time.Time
}

// BalanceChange is a signed delta to apply to one account's balance. Multi-
// entity writes carry a list of these and apply them in the same storage
// transaction as the record write.
type BalanceChange struct {
	AccountID int32
	Delta     decimal.Decimal
}

// TransferResult holds both legs of a completed fund transfer.
type TransferResult struct {
	FromTransaction *Transaction `json:"fromTransaction"`
	ToTransaction   *Transaction `json:"toTransaction"`
}

// TransactionRepository persists transactions. Every method that touches a
// transaction record together with account balances must apply all writes as
// one atomic unit; partial application is never observable.
type TransactionRepository interface {
	// Create inserts the record and applies the delta to its account.
	Create(transaction *Transaction, delta BalanceChange) (*Transaction, error)
	GetByID(userID string, id int32) (*Transaction, error)
	GetByUser(userID string, filters *TransactionFilters) (*PaginatedTransactions, error)
	// Update persists the new field values and applies each balance change.
	Update(userID string, id int32, data *UpdateTransactionData, deltas []BalanceChange) (*Transaction, error)
	// Delete removes the record and applies the reversal delta.
	Delete(userID string, id int32, delta BalanceChange) error
	// DeleteAllByUser reverses every transaction's effect on its account and
	// bulk-deletes the records, all in one unit. Returns the number deleted.
	DeleteAllByUser(userID string) (int64, error)
	// CreateTransferPair checks funds on the source account under lock, moves
	// amount between the two accounts and inserts both legs.
	CreateTransferPair(fromTx, toTx *Transaction, amount decimal.Decimal) (*TransferResult, error)
	// CreateAdjustment inserts the synthetic adjustment record and sets the
	// account balance to newBalance exactly.
	CreateAdjustment(adjustment *Transaction, newBalance decimal.Decimal) (*Transaction, error)
	// SumByAccount returns the signed sum over an account's transactions.
	SumByAccount(userID string, accountID int32) (decimal.Decimal, error)
}
