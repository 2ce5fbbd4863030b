package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestSignedAmount(t *testing.T) {
	amount := decimal.NewFromInt(100)

	if got := SignedAmount(amount, TransactionTypeIncome); !got.Equal(amount) {
		t.Errorf("Expected income to stay positive, got %s", got)
	}
	if got := SignedAmount(amount, TransactionTypeExpense); !got.Equal(amount.Neg()) {
		t.Errorf("Expected expense to be negated, got %s", got)
	}
}

func TestTransactionSigned(t *testing.T) {
	tx := &Transaction{Amount: decimal.NewFromInt(50), Type: TransactionTypeExpense}
	if got := tx.Signed(); !got.Equal(decimal.NewFromInt(-50)) {
		t.Errorf("Expected -50, got %s", got)
	}
}

func TestParseTransactionType(t *testing.T) {
	cases := []struct {
		in      string
		want    TransactionType
		wantErr bool
	}{
		{"income", TransactionTypeIncome, false},
		{"expense", TransactionTypeExpense, false},
		{" Income ", TransactionTypeIncome, false},
		{"EXPENSE", TransactionTypeExpense, false},
		{"transfer", "", true},
		{"", "", true},
	}

	for _, tc := range cases {
		got, err := ParseTransactionType(tc.in)
		if tc.wantErr {
			if !errors.Is(err, ErrInvalidTransactionType) {
				t.Errorf("ParseTransactionType(%q): expected ErrInvalidTransactionType, got %v", tc.in, err)
			}
			continue
		}
		if err != nil {
			t.Errorf("ParseTransactionType(%q): unexpected error %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseTransactionType(%q) = %s, want %s", tc.in, got, tc.want)
		}
	}
}

func TestParseCategoryType(t *testing.T) {
	if got, err := ParseCategoryType("Income"); err != nil || got != CategoryTypeIncome {
		t.Errorf("Expected income, got %s (%v)", got, err)
	}
	if _, err := ParseCategoryType("savings"); !errors.Is(err, ErrInvalidCategoryType) {
		t.Errorf("Expected ErrInvalidCategoryType, got %v", err)
	}
}

func TestErrorClassifiers(t *testing.T) {
	if !IsInvalidArgument(ErrInvalidAmount) || IsInvalidArgument(ErrAccountNotFound) {
		t.Error("IsInvalidArgument misclassifies")
	}
	if !IsNotFound(ErrTransactionNotFound) || IsNotFound(ErrInsufficientFunds) {
		t.Error("IsNotFound misclassifies")
	}
	if !IsConflict(ErrAccountNameTaken) || IsConflict(ErrNameTooLong) {
		t.Error("IsConflict misclassifies")
	}
	if !IsFailedPrecondition(ErrInsufficientFunds) || IsFailedPrecondition(ErrCategoryNameTaken) {
		t.Error("IsFailedPrecondition misclassifies")
	}
}
