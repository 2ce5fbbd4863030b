package service

import (
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/pennywise-app/pennywise-backend/internal/cache"
	"github.com/pennywise-app/pennywise-backend/internal/domain"
	"github.com/shopspring/decimal"
)

func newAccountFixture(t *testing.T) (*ledgerFixture, *AccountService) {
	t.Helper()
	f := newLedgerFixture(t)
	return f, NewAccountService(f.accountRepo, f.ledger, nil, nil)
}

func TestCreateAccount_Success(t *testing.T) {
	_, accountService := newAccountFixture(t)

	account, err := accountService.CreateAccount(testUserID, CreateAccountInput{
		Name:           "Savings",
		InitialBalance: decimal.NewFromFloat(1000.50),
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	if account.Name != "Savings" {
		t.Errorf("Expected name 'Savings', got %s", account.Name)
	}
	if !account.Balance.Equal(decimal.NewFromFloat(1000.50)) {
		t.Errorf("Expected balance 1000.50, got %s", account.Balance)
	}
	if account.UserID != testUserID {
		t.Errorf("Expected user ID %s, got %s", testUserID, account.UserID)
	}
}

func TestCreateAccount_TrimsName(t *testing.T) {
	_, accountService := newAccountFixture(t)

	account, err := accountService.CreateAccount(testUserID, CreateAccountInput{
		Name: "  Wallet  ",
	})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if account.Name != "Wallet" {
		t.Errorf("Expected trimmed name 'Wallet', got %q", account.Name)
	}
}

func TestCreateAccount_EmptyNameFails(t *testing.T) {
	_, accountService := newAccountFixture(t)

	_, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "   "})
	if !errors.Is(err, domain.ErrNameRequired) {
		t.Errorf("Expected ErrNameRequired, got %v", err)
	}
}

func TestCreateAccount_LongNameFails(t *testing.T) {
	_, accountService := newAccountFixture(t)

	_, err := accountService.CreateAccount(testUserID, CreateAccountInput{
		Name: strings.Repeat("a", domain.MaxAccountNameLength+1),
	})
	if !errors.Is(err, domain.ErrNameTooLong) {
		t.Errorf("Expected ErrNameTooLong, got %v", err)
	}
}

func TestCreateAccount_NegativeBalanceFails(t *testing.T) {
	_, accountService := newAccountFixture(t)

	_, err := accountService.CreateAccount(testUserID, CreateAccountInput{
		Name:           "Debt",
		InitialBalance: decimal.NewFromInt(-100),
	})
	if !errors.Is(err, domain.ErrNegativeBalance) {
		t.Errorf("Expected ErrNegativeBalance, got %v", err)
	}
}

func TestCreateAccount_DuplicateNameFails(t *testing.T) {
	_, accountService := newAccountFixture(t)

	if _, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Cash"}); err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	_, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Cash"})
	if !errors.Is(err, domain.ErrAccountNameTaken) {
		t.Errorf("Expected ErrAccountNameTaken, got %v", err)
	}
}

func TestCreateAccount_SameNameDifferentUsers(t *testing.T) {
	_, accountService := newAccountFixture(t)

	if _, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Cash"}); err != nil {
		t.Fatalf("First create failed: %v", err)
	}
	if _, err := accountService.CreateAccount("auth0|user-2", CreateAccountInput{Name: "Cash"}); err != nil {
		t.Errorf("Expected no error for other user, got %v", err)
	}
}

func TestGetAccounts_ScopedToUser(t *testing.T) {
	_, accountService := newAccountFixture(t)

	if _, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Cash"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := accountService.CreateAccount("auth0|user-2", CreateAccountInput{Name: "Other"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	accounts, err := accountService.GetAccounts(testUserID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(accounts))
	}
	if accounts[0].Name != "Cash" {
		t.Errorf("Expected 'Cash', got %s", accounts[0].Name)
	}
}

func TestGetAccountByName(t *testing.T) {
	_, accountService := newAccountFixture(t)

	if _, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Cash"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	account, err := accountService.GetAccountByName(testUserID, "Cash")
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if account.Name != "Cash" {
		t.Errorf("Expected name 'Cash', got %s", account.Name)
	}

	_, err = accountService.GetAccountByName(testUserID, "Missing")
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestGetAccountByID_OtherUserNotFound(t *testing.T) {
	_, accountService := newAccountFixture(t)

	account, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Cash"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	_, err = accountService.GetAccountByID("auth0|user-2", account.ID)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound, got %v", err)
	}
}

func TestGetSummary_TotalsAllAccounts(t *testing.T) {
	_, accountService := newAccountFixture(t)

	mustCreate := func(name string, balance int64) {
		t.Helper()
		_, err := accountService.CreateAccount(testUserID, CreateAccountInput{
			Name:           name,
			InitialBalance: decimal.NewFromInt(balance),
		})
		if err != nil {
			t.Fatalf("Create failed: %v", err)
		}
	}
	mustCreate("Cash", 700)
	mustCreate("Bank", 800)

	summary, err := accountService.GetSummary(testUserID)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if summary.AccountCount != 2 {
		t.Errorf("Expected 2 accounts, got %d", summary.AccountCount)
	}
	if !summary.TotalBalance.Equal(decimal.NewFromInt(1500)) {
		t.Errorf("Expected total 1500, got %s", summary.TotalBalance)
	}
}

func TestUpdateAccount_Rename(t *testing.T) {
	_, accountService := newAccountFixture(t)

	account, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Cash"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	newName := "Wallet"
	updated, err := accountService.UpdateAccount(testUserID, account.ID, UpdateAccountInput{Name: &newName})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if updated.Name != "Wallet" {
		t.Errorf("Expected name 'Wallet', got %s", updated.Name)
	}
}

func TestUpdateAccount_BalanceEditBecomesAdjustment(t *testing.T) {
	f, accountService := newAccountFixture(t)
	f.category(t, domain.AdjustmentIncomeCategory, domain.CategoryTypeIncome)
	f.category(t, domain.AdjustmentExpenseCategory, domain.CategoryTypeExpense)

	account, err := accountService.CreateAccount(testUserID, CreateAccountInput{
		Name:           "Cash",
		InitialBalance: decimal.NewFromInt(700),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	target := decimal.NewFromInt(900)
	updated, err := accountService.UpdateAccount(testUserID, account.ID, UpdateAccountInput{Balance: &target})
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if !updated.Balance.Equal(target) {
		t.Errorf("Expected balance exactly 900, got %s", updated.Balance)
	}
	if n := f.transactionRepo.Count(testUserID, "Balance Adjustment"); n != 1 {
		t.Errorf("Expected 1 adjustment record, got %d", n)
	}
}

func TestUpdateAccount_BalanceEditWithoutAdjustmentCategories(t *testing.T) {
	_, accountService := newAccountFixture(t)

	account, err := accountService.CreateAccount(testUserID, CreateAccountInput{
		Name:           "Cash",
		InitialBalance: decimal.NewFromInt(700),
	})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	target := decimal.NewFromInt(900)
	_, err = accountService.UpdateAccount(testUserID, account.ID, UpdateAccountInput{Balance: &target})
	if !errors.Is(err, domain.ErrAdjustmentCategoryMissing) {
		t.Errorf("Expected ErrAdjustmentCategoryMissing, got %v", err)
	}
}

func TestDeleteAccount_Idempotence(t *testing.T) {
	_, accountService := newAccountFixture(t)

	account, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Cash"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := accountService.DeleteAccount(testUserID, account.ID); err != nil {
		t.Fatalf("First delete failed: %v", err)
	}
	err = accountService.DeleteAccount(testUserID, account.ID)
	if !errors.Is(err, domain.ErrAccountNotFound) {
		t.Errorf("Expected ErrAccountNotFound on second delete, got %v", err)
	}
}

func TestDeleteAccount_LeavesTransactionsInPlace(t *testing.T) {
	f, accountService := newAccountFixture(t)
	cash := f.account(t, "Cash", 1000)
	salary := f.category(t, "Salary", domain.CategoryTypeIncome)

	created, err := f.ledger.CreateTransaction(testUserID, CreateTransactionInput{
		AccountID:  cash.ID,
		CategoryID: salary.ID,
		Amount:     decimal.NewFromInt(500),
		Type:       domain.TransactionTypeIncome,
	})
	if err != nil {
		t.Fatalf("Create transaction failed: %v", err)
	}

	if err := accountService.DeleteAccount(testUserID, cash.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	// The transaction survives with a dangling account reference
	survivor, err := f.transactionRepo.GetByID(testUserID, created.ID)
	if err != nil {
		t.Fatalf("Expected transaction to survive, got %v", err)
	}
	if survivor.AccountID != cash.ID {
		t.Errorf("Expected dangling account ID %d, got %d", cash.ID, survivor.AccountID)
	}
}

func TestGetAccounts_CacheServesRepeatReads(t *testing.T) {
	f := newLedgerFixture(t)
	readCache := cache.NewLRUCache[any](100, time.Minute)
	accountService := NewAccountService(f.accountRepo, f.ledger, readCache, nil)

	if _, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Cash"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := accountService.GetAccounts(testUserID); err != nil {
		t.Fatalf("First read failed: %v", err)
	}

	// The second read must not reach the repository at all
	calls := 0
	accountService.accountRepo = &countingAccountRepo{inner: f.accountRepo, calls: &calls}

	accounts, err := accountService.GetAccounts(testUserID)
	if err != nil {
		t.Fatalf("Second read failed: %v", err)
	}
	if len(accounts) != 1 {
		t.Fatalf("Expected 1 account, got %d", len(accounts))
	}
	if calls != 0 {
		t.Errorf("Expected cached read to skip the repository, got %d calls", calls)
	}
}

func TestCreateAccount_InvalidatesAccountCache(t *testing.T) {
	f := newLedgerFixture(t)
	readCache := cache.NewLRUCache[any](100, time.Minute)
	accountService := NewAccountService(f.accountRepo, f.ledger, readCache, nil)

	if _, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Cash"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if _, err := accountService.GetAccounts(testUserID); err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if _, err := accountService.CreateAccount(testUserID, CreateAccountInput{Name: "Bank"}); err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	accounts, err := accountService.GetAccounts(testUserID)
	if err != nil {
		t.Fatalf("Read failed: %v", err)
	}
	if len(accounts) != 2 {
		t.Errorf("Expected stale list to be invalidated, got %d accounts", len(accounts))
	}
}

// countingAccountRepo counts pass-through calls to detect cache hits.
type countingAccountRepo struct {
	inner domain.AccountRepository
	calls *int
}

func (r *countingAccountRepo) Create(account *domain.Account) (*domain.Account, error) {
	*r.calls++
	return r.inner.Create(account)
}

func (r *countingAccountRepo) GetByID(userID string, id int32) (*domain.Account, error) {
	*r.calls++
	return r.inner.GetByID(userID, id)
}

func (r *countingAccountRepo) GetByName(userID string, name string) (*domain.Account, error) {
	*r.calls++
	return r.inner.GetByName(userID, name)
}

func (r *countingAccountRepo) GetAllByUser(userID string) ([]*domain.Account, error) {
	*r.calls++
	return r.inner.GetAllByUser(userID)
}

func (r *countingAccountRepo) UpdateName(userID string, id int32, name string) (*domain.Account, error) {
	*r.calls++
	return r.inner.UpdateName(userID, id, name)
}

func (r *countingAccountRepo) Delete(userID string, id int32) error {
	*r.calls++
	return r.inner.Delete(userID, id)
}
