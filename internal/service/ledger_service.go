package service

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pennywise-app/pennywise-backend/internal/cache"
	"github.com/pennywise-app/pennywise-backend/internal/domain"
	"github.com/pennywise-app/pennywise-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// LedgerService owns the transaction lifecycle and every balance-affecting
// write. Each operation validates ownership, computes the balance deltas, and
// hands the record write plus the deltas to the repository as one atomic
// unit; caches are invalidated synchronously after the commit, before
// returning to the caller.
type LedgerService struct {
	transactionRepo domain.TransactionRepository
	accountRepo     domain.AccountRepository
	categoryRepo    domain.CategoryRepository
	cache           *cache.LRUCache[any]
	publisher       websocket.EventPublisher
}

// NewLedgerService creates a new LedgerService. cache may be nil to disable
// caching; publisher may be nil to disable event fan-out.
func NewLedgerService(transactionRepo domain.TransactionRepository, accountRepo domain.AccountRepository, categoryRepo domain.CategoryRepository, c *cache.LRUCache[any], publisher websocket.EventPublisher) *LedgerService {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &LedgerService{
		transactionRepo: transactionRepo,
		accountRepo:     accountRepo,
		categoryRepo:    categoryRepo,
		cache:           c,
		publisher:       publisher,
	}
}

// CreateTransactionInput holds the input for creating a transaction
type CreateTransactionInput struct {
	AccountID   int32
	CategoryID  int32
	Amount      decimal.Decimal
	Type        domain.TransactionType
	Description string
	Date        *time.Time
}

// CreateTransaction records a new income or expense and applies its effect to
// the account balance in the same atomic unit.
func (s *LedgerService) CreateTransaction(userID string, input CreateTransactionInput) (*domain.Transaction, error) {
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}
	if input.Type != domain.TransactionTypeIncome && input.Type != domain.TransactionTypeExpense {
		return nil, domain.ErrInvalidTransactionType
	}

	description := strings.TrimSpace(input.Description)
	if len(description) > domain.MaxDescriptionLength {
		return nil, domain.ErrNameTooLong
	}

	account, err := s.accountRepo.GetByID(userID, input.AccountID)
	if err != nil {
		return nil, err
	}
	if _, err := s.categoryRepo.GetByID(userID, input.CategoryID); err != nil {
		return nil, err
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if input.Date != nil {
		date = *input.Date
	}

	categoryID := input.CategoryID
	transaction := &domain.Transaction{
		UserID:          userID,
		AccountID:       account.ID,
		CategoryID:      &categoryID,
		Amount:          input.Amount,
		Type:            input.Type,
		Description:     description,
		TransactionDate: date,
	}

	delta := domain.BalanceChange{
		AccountID: account.ID,
		Delta:     domain.SignedAmount(input.Amount, input.Type),
	}

	created, err := s.transactionRepo.Create(transaction, delta)
	if err != nil {
		return nil, err
	}

	s.invalidateLedgerCaches(userID)
	s.publisher.Publish(userID, websocket.TransactionCreated(created))
	return created, nil
}

// UpdateTransactionInput holds the input for updating a transaction. Nil
// fields keep their previous value; amount, type and account always
// participate in the delta math with their effective values.
type UpdateTransactionInput struct {
	AccountID   *int32
	CategoryID  *int32
	Amount      *decimal.Decimal
	Type        *domain.TransactionType
	Description *string
	Date        *time.Time
}

// UpdateTransaction edits a transaction. The old effect is reversed on the
// old account and the new effect applied to the target account; when both
// land on the same account the deltas are summed into a single write. Record
// and balance writes commit as one unit.
func (s *LedgerService) UpdateTransaction(userID string, id int32, input UpdateTransactionInput) (*domain.Transaction, error) {
	existing, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	amount := existing.Amount
	if input.Amount != nil {
		amount = *input.Amount
	}
	if amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	txType := existing.Type
	if input.Type != nil {
		txType = *input.Type
	}
	if txType != domain.TransactionTypeIncome && txType != domain.TransactionTypeExpense {
		return nil, domain.ErrInvalidTransactionType
	}

	accountID := existing.AccountID
	if input.AccountID != nil {
		accountID = *input.AccountID
	}
	// The old account may already be deleted; the reversal delta then simply
	// finds no row. The target account must exist.
	if _, err := s.accountRepo.GetByID(userID, accountID); err != nil {
		return nil, err
	}

	categoryID := existing.CategoryID
	if input.CategoryID != nil {
		if _, err := s.categoryRepo.GetByID(userID, *input.CategoryID); err != nil {
			return nil, err
		}
		categoryID = input.CategoryID
	}

	description := existing.Description
	if input.Description != nil {
		description = strings.TrimSpace(*input.Description)
		if len(description) > domain.MaxDescriptionLength {
			return nil, domain.ErrNameTooLong
		}
	}

	date := existing.TransactionDate
	if input.Date != nil {
		date = *input.Date
	}

	deltas := mergeBalanceChanges([]domain.BalanceChange{
		{AccountID: existing.AccountID, Delta: existing.Signed().Neg()},
		{AccountID: accountID, Delta: domain.SignedAmount(amount, txType)},
	})

	updated, err := s.transactionRepo.Update(userID, id, &domain.UpdateTransactionData{
		AccountID:       accountID,
		CategoryID:      categoryID,
		Amount:          amount,
		Type:            txType,
		Description:     description,
		TransactionDate: date,
	}, deltas)
	if err != nil {
		return nil, err
	}

	s.invalidateLedgerCaches(userID)
	s.publisher.Publish(userID, websocket.TransactionUpdated(updated))
	return updated, nil
}

// DeleteTransaction removes a transaction and reverses its effect on its
// account as one atomic unit. A second delete of the same id reports the
// record as not found and changes nothing.
func (s *LedgerService) DeleteTransaction(userID string, id int32) error {
	existing, err := s.transactionRepo.GetByID(userID, id)
	if err != nil {
		return err
	}

	delta := domain.BalanceChange{
		AccountID: existing.AccountID,
		Delta:     existing.Signed().Neg(),
	}

	if err := s.transactionRepo.Delete(userID, id, delta); err != nil {
		return err
	}

	s.invalidateLedgerCaches(userID)
	s.publisher.Publish(userID, websocket.TransactionDeleted(existing))
	return nil
}

// DeleteAllTransactions removes every transaction owned by the user after
// reversing the aggregated per-account effects. Returns the number deleted.
func (s *LedgerService) DeleteAllTransactions(userID string) (int64, error) {
	deleted, err := s.transactionRepo.DeleteAllByUser(userID)
	if err != nil {
		return 0, err
	}

	s.invalidateLedgerCaches(userID)
	s.publisher.Publish(userID, websocket.TransactionsCleared(map[string]int64{"deleted": deleted}))
	return deleted, nil
}

// TransferInput holds the input for a fund transfer
type TransferInput struct {
	FromAccountID int32
	ToAccountID   int32
	Amount        decimal.Decimal
	Description   *string
	Date          *time.Time
}

// Transfer moves amount between two of the user's accounts: two balance
// writes plus an expense leg on the source and an income leg on the target,
// all committed together. Transfer legs carry no category.
func (s *LedgerService) Transfer(userID string, input TransferInput) (*domain.TransferResult, error) {
	if input.FromAccountID == input.ToAccountID {
		return nil, domain.ErrSameAccountTransfer
	}
	if input.Amount.LessThanOrEqual(decimal.Zero) {
		return nil, domain.ErrInvalidAmount
	}

	fromAccount, err := s.accountRepo.GetByID(userID, input.FromAccountID)
	if err != nil {
		return nil, err
	}
	toAccount, err := s.accountRepo.GetByID(userID, input.ToAccountID)
	if err != nil {
		return nil, err
	}

	// Early funds check on the possibly-cached read; the repository repeats
	// it under a row lock, which is the authoritative one.
	if fromAccount.Balance.LessThan(input.Amount) {
		return nil, domain.ErrInsufficientFunds
	}

	date := time.Now().UTC().Truncate(24 * time.Hour)
	if input.Date != nil {
		date = *input.Date
	}

	fromDescription := fmt.Sprintf("Transfer to %s", toAccount.Name)
	toDescription := fmt.Sprintf("Transfer from %s", fromAccount.Name)
	if input.Description != nil && strings.TrimSpace(*input.Description) != "" {
		note := strings.TrimSpace(*input.Description)
		fromDescription = fmt.Sprintf("%s: %s", fromDescription, note)
		toDescription = fmt.Sprintf("%s: %s", toDescription, note)
	}

	pairID := uuid.New()

	fromTx := &domain.Transaction{
		UserID:          userID,
		AccountID:       fromAccount.ID,
		Amount:          input.Amount,
		Type:            domain.TransactionTypeExpense,
		Description:     fromDescription,
		TransactionDate: date,
		TransferPairID:  &pairID,
	}
	toTx := &domain.Transaction{
		UserID:          userID,
		AccountID:       toAccount.ID,
		Amount:          input.Amount,
		Type:            domain.TransactionTypeIncome,
		Description:     toDescription,
		TransactionDate: date,
		TransferPairID:  &pairID,
	}

	result, err := s.transactionRepo.CreateTransferPair(fromTx, toTx, input.Amount)
	if err != nil {
		return nil, err
	}

	s.invalidateLedgerCaches(userID)
	s.publisher.Publish(userID, websocket.TransferCreated(result))
	return result, nil
}

// AdjustBalance sets an account's balance to newBalance exactly, recording
// the difference as a synthetic transaction against the per-user system
// adjustment category. The category must already exist; a missing one is a
// provisioning failure, not a user-facing not-found.
func (s *LedgerService) AdjustBalance(userID string, accountID int32, newBalance decimal.Decimal) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(userID, accountID)
	if err != nil {
		return nil, err
	}

	delta := newBalance.Sub(account.Balance)
	if delta.IsZero() {
		return account, nil
	}

	txType := domain.TransactionTypeIncome
	categoryName := domain.AdjustmentIncomeCategory
	if delta.IsNegative() {
		txType = domain.TransactionTypeExpense
		categoryName = domain.AdjustmentExpenseCategory
	}

	category, err := s.categoryRepo.GetByName(userID, categoryName)
	if err != nil {
		return nil, domain.ErrAdjustmentCategoryMissing
	}

	categoryID := category.ID
	adjustment := &domain.Transaction{
		UserID:          userID,
		AccountID:       account.ID,
		CategoryID:      &categoryID,
		Amount:          delta.Abs(),
		Type:            txType,
		Description:     "Balance Adjustment",
		TransactionDate: time.Now().UTC().Truncate(24 * time.Hour),
	}

	if _, err := s.transactionRepo.CreateAdjustment(adjustment, newBalance); err != nil {
		return nil, err
	}

	s.invalidateLedgerCaches(userID)

	updated, err := s.accountRepo.GetByID(userID, accountID)
	if err != nil {
		return nil, err
	}
	s.publisher.Publish(userID, websocket.AccountAdjusted(updated))
	return updated, nil
}

// GetTransaction retrieves a single transaction
func (s *LedgerService) GetTransaction(userID string, id int32) (*domain.Transaction, error) {
	return s.transactionRepo.GetByID(userID, id)
}

// ListTransactions retrieves a user's transactions joined with account and
// category names, served through the cache per filter combination.
func (s *LedgerService) ListTransactions(userID string, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	key := cache.TransactionsListKey(userID, filterCacheKey(filters))
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if page, ok := cached.(*domain.PaginatedTransactions); ok {
				return page, nil
			}
		}
	}

	page, err := s.transactionRepo.GetByUser(userID, filters)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, page)
	}
	return page, nil
}

// VerifyAccountBalance recomputes the signed transaction sum for an account
// and reports whether the stored balance matches it. Used by reconciliation
// checks; a mismatch is surfaced, never silently repaired.
func (s *LedgerService) VerifyAccountBalance(userID string, accountID int32) (bool, decimal.Decimal, error) {
	account, err := s.accountRepo.GetByID(userID, accountID)
	if err != nil {
		return false, decimal.Zero, err
	}
	sum, err := s.transactionRepo.SumByAccount(userID, accountID)
	if err != nil {
		return false, decimal.Zero, err
	}
	return account.Balance.Equal(sum), sum, nil
}

// invalidateLedgerCaches drops every cache entry a ledger write can stale:
// account balances, joined transaction lists and category-scoped reads.
func (s *LedgerService) invalidateLedgerCaches(userID string) {
	if s.cache == nil {
		return
	}
	s.cache.DeletePrefix(cache.AccountsPrefix(userID))
	s.cache.DeletePrefix(cache.TransactionsPrefix(userID))
}

// mergeBalanceChanges sums deltas targeting the same account so each account
// receives a single write.
func mergeBalanceChanges(changes []domain.BalanceChange) []domain.BalanceChange {
	merged := make([]domain.BalanceChange, 0, len(changes))
	for _, change := range changes {
		found := false
		for i := range merged {
			if merged[i].AccountID == change.AccountID {
				merged[i].Delta = merged[i].Delta.Add(change.Delta)
				found = true
				break
			}
		}
		if !found {
			merged = append(merged, change)
		}
	}
	return merged
}

// filterCacheKey builds a stable cache key fragment from the filter set.
func filterCacheKey(filters *domain.TransactionFilters) string {
	if filters == nil {
		return "all"
	}
	part := func(v any, ok bool) string {
		if !ok {
			return "-"
		}
		return fmt.Sprintf("%v", v)
	}
	return strings.Join([]string{
		part(derefInt32(filters.AccountID), filters.AccountID != nil),
		part(derefInt32(filters.CategoryID), filters.CategoryID != nil),
		part(derefType(filters.Type), filters.Type != nil),
		part(derefDate(filters.StartDate), filters.StartDate != nil),
		part(derefDate(filters.EndDate), filters.EndDate != nil),
		fmt.Sprintf("%d", filters.Page),
		fmt.Sprintf("%d", filters.PageSize),
	}, ":")
}

func derefInt32(v *int32) int32 {
	if v == nil {
		return 0
	}
	return *v
}

func derefType(v *domain.TransactionType) domain.TransactionType {
	if v == nil {
		return ""
	}
	return *v
}

func derefDate(v *time.Time) string {
	if v == nil {
		return ""
	}
	return v.Format("2006-01-02")
}
