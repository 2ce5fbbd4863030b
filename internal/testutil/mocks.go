package testutil

import (
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/pennywise-app/pennywise-backend/internal/domain"
	"github.com/shopspring/decimal"
)

// MockAccountRepository is an in-memory AccountRepository for tests.
// Individual methods can be overridden via the Fn fields.
type MockAccountRepository struct {
	mu       sync.Mutex
	nextID   int32
	accounts map[int32]*domain.Account

	CreateFn     func(account *domain.Account) (*domain.Account, error)
	GetByIDFn    func(userID string, id int32) (*domain.Account, error)
	GetByNameFn  func(userID string, name string) (*domain.Account, error)
	UpdateNameFn func(userID string, id int32, name string) (*domain.Account, error)
	DeleteFn     func(userID string, id int32) error
}

// NewMockAccountRepository creates an empty in-memory account store.
func NewMockAccountRepository() *MockAccountRepository {
	return &MockAccountRepository{accounts: make(map[int32]*domain.Account)}
}

func (m *MockAccountRepository) Create(account *domain.Account) (*domain.Account, error) {
	if m.CreateFn != nil {
		return m.CreateFn(account)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, a := range m.accounts {
		if a.UserID == account.UserID && a.Name == account.Name {
			return nil, domain.ErrAccountNameTaken
		}
	}
	m.nextID++
	stored := *account
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.accounts[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (m *MockAccountRepository) GetByID(userID string, id int32) (*domain.Account, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(userID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok || account.UserID != userID {
		return nil, domain.ErrAccountNotFound
	}
	copied := *account
	return &copied, nil
}

func (m *MockAccountRepository) GetByName(userID string, name string) (*domain.Account, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(userID, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, account := range m.accounts {
		if account.UserID == userID && account.Name == name {
			copied := *account
			return &copied, nil
		}
	}
	return nil, domain.ErrAccountNotFound
}

func (m *MockAccountRepository) GetAllByUser(userID string) ([]*domain.Account, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Account
	for _, account := range m.accounts {
		if account.UserID == userID {
			copied := *account
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *MockAccountRepository) UpdateName(userID string, id int32, name string) (*domain.Account, error) {
	if m.UpdateNameFn != nil {
		return m.UpdateNameFn(userID, id, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok || account.UserID != userID {
		return nil, domain.ErrAccountNotFound
	}
	for _, a := range m.accounts {
		if a.ID != id && a.UserID == userID && a.Name == name {
			return nil, domain.ErrAccountNameTaken
		}
	}
	account.Name = name
	account.UpdatedAt = time.Now()
	copied := *account
	return &copied, nil
}

func (m *MockAccountRepository) Delete(userID string, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(userID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	account, ok := m.accounts[id]
	if !ok || account.UserID != userID {
		return domain.ErrAccountNotFound
	}
	delete(m.accounts, id)
	return nil
}

// applyDelta mirrors the relative balance update the real repository issues.
func (m *MockAccountRepository) applyDelta(change domain.BalanceChange) error {
	if change.Delta.IsZero() {
		return nil
	}
	account, ok := m.accounts[change.AccountID]
	if !ok {
		return domain.ErrAccountNotFound
	}
	account.Balance = account.Balance.Add(change.Delta)
	account.UpdatedAt = time.Now()
	return nil
}

// SetBalance overwrites a stored account's balance directly. Test setup only.
func (m *MockAccountRepository) SetBalance(id int32, balance decimal.Decimal) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if account, ok := m.accounts[id]; ok {
		account.Balance = balance
	}
}

// MockCategoryRepository is an in-memory CategoryRepository for tests.
type MockCategoryRepository struct {
	mu         sync.Mutex
	nextID     int32
	categories map[int32]*domain.Category

	CreateFn    func(category *domain.Category) (*domain.Category, error)
	GetByIDFn   func(userID string, id int32) (*domain.Category, error)
	GetByNameFn func(userID string, name string) (*domain.Category, error)
	UpdateFn    func(userID string, id int32, data *domain.UpdateCategoryData) (*domain.Category, error)
	DeleteFn    func(userID string, id int32) error
}

// NewMockCategoryRepository creates an empty in-memory category store.
func NewMockCategoryRepository() *MockCategoryRepository {
	return &MockCategoryRepository{categories: make(map[int32]*domain.Category)}
}

func (m *MockCategoryRepository) Create(category *domain.Category) (*domain.Category, error) {
	if m.CreateFn != nil {
		return m.CreateFn(category)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, c := range m.categories {
		if c.UserID == category.UserID && c.Name == category.Name {
			return nil, domain.ErrCategoryNameTaken
		}
	}
	m.nextID++
	stored := *category
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.categories[stored.ID] = &stored
	copied := stored
	return &copied, nil
}

func (m *MockCategoryRepository) GetByID(userID string, id int32) (*domain.Category, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(userID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok || category.UserID != userID {
		return nil, domain.ErrCategoryNotFound
	}
	copied := *category
	return &copied, nil
}

func (m *MockCategoryRepository) GetByName(userID string, name string) (*domain.Category, error) {
	if m.GetByNameFn != nil {
		return m.GetByNameFn(userID, name)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, category := range m.categories {
		if category.UserID == userID && category.Name == name {
			copied := *category
			return &copied, nil
		}
	}
	return nil, domain.ErrCategoryNotFound
}

func (m *MockCategoryRepository) GetAllByUser(userID string) ([]*domain.Category, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var result []*domain.Category
	for _, category := range m.categories {
		if category.UserID == userID {
			copied := *category
			result = append(result, &copied)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

func (m *MockCategoryRepository) GetByType(userID string, categoryType domain.CategoryType) ([]*domain.Category, error) {
	all, _ := m.GetAllByUser(userID)
	var result []*domain.Category
	for _, category := range all {
		if category.Type == categoryType {
			result = append(result, category)
		}
	}
	return result, nil
}

func (m *MockCategoryRepository) GetByParent(userID string, parent string) ([]*domain.Category, error) {
	all, _ := m.GetAllByUser(userID)
	var result []*domain.Category
	for _, category := range all {
		if category.ParentCategory == parent {
			result = append(result, category)
		}
	}
	return result, nil
}

func (m *MockCategoryRepository) Update(userID string, id int32, data *domain.UpdateCategoryData) (*domain.Category, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(userID, id, data)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok || category.UserID != userID {
		return nil, domain.ErrCategoryNotFound
	}
	for _, c := range m.categories {
		if c.ID != id && c.UserID == userID && c.Name == data.Name {
			return nil, domain.ErrCategoryNameTaken
		}
	}
	category.Name = data.Name
	category.Type = data.Type
	category.ParentCategory = data.ParentCategory
	category.Budget = data.Budget
	category.UpdatedAt = time.Now()
	copied := *category
	return &copied, nil
}

func (m *MockCategoryRepository) Delete(userID string, id int32) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(userID, id)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	category, ok := m.categories[id]
	if !ok || category.UserID != userID {
		return domain.ErrCategoryNotFound
	}
	delete(m.categories, id)
	return nil
}

// MockTransactionRepository is an in-memory TransactionRepository. It shares
// the account mock so balance deltas land on the same stored accounts the
// services read back, matching the real repository's atomic behavior.
type MockTransactionRepository struct {
	mu           sync.Mutex
	nextID       int32
	transactions map[int32]*domain.Transaction
	accounts     *MockAccountRepository
	categories   *MockCategoryRepository

	CreateFn             func(transaction *domain.Transaction, delta domain.BalanceChange) (*domain.Transaction, error)
	UpdateFn             func(userID string, id int32, data *domain.UpdateTransactionData, deltas []domain.BalanceChange) (*domain.Transaction, error)
	DeleteFn             func(userID string, id int32, delta domain.BalanceChange) error
	CreateTransferPairFn func(fromTx, toTx *domain.Transaction, amount decimal.Decimal) (*domain.TransferResult, error)
}

// NewMockTransactionRepository creates an in-memory transaction store wired
// to the given account and category mocks.
func NewMockTransactionRepository(accounts *MockAccountRepository, categories *MockCategoryRepository) *MockTransactionRepository {
	return &MockTransactionRepository{
		transactions: make(map[int32]*domain.Transaction),
		accounts:     accounts,
		categories:   categories,
	}
}

func (m *MockTransactionRepository) Create(transaction *domain.Transaction, delta domain.BalanceChange) (*domain.Transaction, error) {
	if m.CreateFn != nil {
		return m.CreateFn(transaction, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()
	if err := m.accounts.applyDelta(delta); err != nil {
		return nil, err
	}
	return m.insertLocked(transaction), nil
}

func (m *MockTransactionRepository) GetByID(userID string, id int32) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	transaction, ok := m.transactions[id]
	if !ok || transaction.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	copied := *transaction
	return &copied, nil
}

func (m *MockTransactionRepository) GetByUser(userID string, filters *domain.TransactionFilters) (*domain.PaginatedTransactions, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var matched []*domain.Transaction
	for _, t := range m.transactions {
		if t.UserID != userID {
			continue
		}
		if filters != nil {
			if filters.AccountID != nil && t.AccountID != *filters.AccountID {
				continue
			}
			if filters.CategoryID != nil && (t.CategoryID == nil || *t.CategoryID != *filters.CategoryID) {
				continue
			}
			if filters.Type != nil && t.Type != *filters.Type {
				continue
			}
			if filters.StartDate != nil && t.TransactionDate.Before(*filters.StartDate) {
				continue
			}
			if filters.EndDate != nil && t.TransactionDate.After(*filters.EndDate) {
				continue
			}
		}
		matched = append(matched, t)
	}
	sort.Slice(matched, func(i, j int) bool { return matched[i].ID > matched[j].ID })

	page := int32(1)
	pageSize := int32(domain.DefaultPageSize)
	if filters != nil {
		if filters.Page > 0 {
			page = filters.Page
		}
		if filters.PageSize > 0 {
			pageSize = filters.PageSize
		}
	}

	total := int64(len(matched))
	start := int(page-1) * int(pageSize)
	if start > len(matched) {
		start = len(matched)
	}
	end := start + int(pageSize)
	if end > len(matched) {
		end = len(matched)
	}

	details := make([]*domain.TransactionDetail, 0, end-start)
	for _, t := range matched[start:end] {
		detail := &domain.TransactionDetail{Transaction: *t}
		if account, ok := m.accounts.accounts[t.AccountID]; ok {
			detail.AccountName = account.Name
		}
		if t.CategoryID != nil {
			if category, ok := m.categories.categories[*t.CategoryID]; ok {
				name := category.Name
				detail.CategoryName = &name
			}
		}
		details = append(details, detail)
	}

	totalPages := int32((total + int64(pageSize) - 1) / int64(pageSize))
	return &domain.PaginatedTransactions{
		Data:       details,
		Page:       page,
		PageSize:   pageSize,
		TotalItems: total,
		TotalPages: totalPages,
	}, nil
}

func (m *MockTransactionRepository) Update(userID string, id int32, data *domain.UpdateTransactionData, deltas []domain.BalanceChange) (*domain.Transaction, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(userID, id, data, deltas)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	transaction, ok := m.transactions[id]
	if !ok || transaction.UserID != userID {
		return nil, domain.ErrTransactionNotFound
	}
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()
	for _, delta := range deltas {
		if err := m.accounts.applyDelta(delta); err != nil {
			return nil, err
		}
	}
	transaction.AccountID = data.AccountID
	transaction.CategoryID = data.CategoryID
	transaction.Amount = data.Amount
	transaction.Type = data.Type
	transaction.Description = data.Description
	transaction.TransactionDate = data.TransactionDate
	transaction.UpdatedAt = time.Now()
	copied := *transaction
	return &copied, nil
}

func (m *MockTransactionRepository) Delete(userID string, id int32, delta domain.BalanceChange) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(userID, id, delta)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	transaction, ok := m.transactions[id]
	if !ok || transaction.UserID != userID {
		return domain.ErrTransactionNotFound
	}
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()
	if err := m.accounts.applyDelta(delta); err != nil {
		return err
	}
	delete(m.transactions, id)
	return nil
}

func (m *MockTransactionRepository) DeleteAllByUser(userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()

	var deleted int64
	for id, transaction := range m.transactions {
		if transaction.UserID != userID {
			continue
		}
		// Reversals on deleted accounts find no row, matching the aggregated
		// SQL update.
		_ = m.accounts.applyDelta(domain.BalanceChange{
			AccountID: transaction.AccountID,
			Delta:     transaction.Signed().Neg(),
		})
		delete(m.transactions, id)
		deleted++
	}
	return deleted, nil
}

func (m *MockTransactionRepository) CreateTransferPair(fromTx, toTx *domain.Transaction, amount decimal.Decimal) (*domain.TransferResult, error) {
	if m.CreateTransferPairFn != nil {
		return m.CreateTransferPairFn(fromTx, toTx, amount)
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()

	source, ok := m.accounts.accounts[fromTx.AccountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	if _, ok := m.accounts.accounts[toTx.AccountID]; !ok {
		return nil, domain.ErrAccountNotFound
	}
	if source.Balance.LessThan(amount) {
		return nil, domain.ErrInsufficientFunds
	}

	if err := m.accounts.applyDelta(domain.BalanceChange{AccountID: fromTx.AccountID, Delta: amount.Neg()}); err != nil {
		return nil, err
	}
	if err := m.accounts.applyDelta(domain.BalanceChange{AccountID: toTx.AccountID, Delta: amount}); err != nil {
		return nil, err
	}

	return &domain.TransferResult{
		FromTransaction: m.insertLocked(fromTx),
		ToTransaction:   m.insertLocked(toTx),
	}, nil
}

func (m *MockTransactionRepository) CreateAdjustment(adjustment *domain.Transaction, newBalance decimal.Decimal) (*domain.Transaction, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.accounts.mu.Lock()
	defer m.accounts.mu.Unlock()

	account, ok := m.accounts.accounts[adjustment.AccountID]
	if !ok {
		return nil, domain.ErrAccountNotFound
	}
	account.Balance = newBalance
	account.UpdatedAt = time.Now()
	return m.insertLocked(adjustment), nil
}

func (m *MockTransactionRepository) SumByAccount(userID string, accountID int32) (decimal.Decimal, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	sum := decimal.Zero
	for _, transaction := range m.transactions {
		if transaction.UserID == userID && transaction.AccountID == accountID {
			sum = sum.Add(transaction.Signed())
		}
	}
	return sum, nil
}

// Count returns the number of stored transactions for a user, optionally
// narrowed to descriptions containing substr.
func (m *MockTransactionRepository) Count(userID string, substr string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for _, transaction := range m.transactions {
		if transaction.UserID == userID && strings.Contains(transaction.Description, substr) {
			n++
		}
	}
	return n
}

func (m *MockTransactionRepository) insertLocked(transaction *domain.Transaction) *domain.Transaction {
	m.nextID++
	stored := *transaction
	stored.ID = m.nextID
	stored.CreatedAt = time.Now()
	stored.UpdatedAt = stored.CreatedAt
	m.transactions[stored.ID] = &stored
	copied := stored
	return &copied
}
