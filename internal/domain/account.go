package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// Account is a user-owned money container. Balance is denormalized: it always
// equals the signed sum of the transactions currently referencing the account.
// Only the ledger write paths mutate it.
type Account struct {
	ID        int32           `json:"id"`
	UserID    string          `json:"userId"`
	Name      string          `json:"name"`
	Balance   decimal.Decimal `json:"balance"`
	CreatedAt time.Time       `json:"createdAt"`
	UpdatedAt time.Time       `json:"updatedAt"`
}

// AccountSummary holds totals across all of a user's accounts.
type AccountSummary struct {
	TotalBalance decimal.Decimal `json:"totalBalance"`
	AccountCount int32           `json:"accountCount"`
}

type AccountRepository interface {
	Create(account *Account) (*Account, error)
	GetByID(userID string, id int32) (*Account, error)
	GetByName(userID string, name string) (*Account, error)
	GetAllByUser(userID string) ([]*Account, error)
	UpdateName(userID string, id int32, name string) (*Account, error)
	Delete(userID string, id int32) error
}
