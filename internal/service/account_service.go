package service

import (
	"strings"

	"github.com/pennywise-app/pennywise-backend/internal/cache"
	"github.com/pennywise-app/pennywise-backend/internal/domain"
	"github.com/pennywise-app/pennywise-backend/internal/websocket"
	"github.com/shopspring/decimal"
)

// AccountService handles account business logic. Balance edits are routed
// through the ledger so they leave an audit trail; the repository's balance
// column is otherwise written only by ledger operations.
type AccountService struct {
	accountRepo domain.AccountRepository
	ledger      *LedgerService
	cache       *cache.LRUCache[any]
	publisher   websocket.EventPublisher
}

// NewAccountService creates a new AccountService. cache may be nil to
// disable caching; publisher may be nil to disable event fan-out.
func NewAccountService(accountRepo domain.AccountRepository, ledger *LedgerService, c *cache.LRUCache[any], publisher websocket.EventPublisher) *AccountService {
	if publisher == nil {
		publisher = &websocket.NoOpPublisher{}
	}
	return &AccountService{
		accountRepo: accountRepo,
		ledger:      ledger,
		cache:       c,
		publisher:   publisher,
	}
}

// CreateAccountInput holds the input for creating an account
type CreateAccountInput struct {
	Name           string
	InitialBalance decimal.Decimal
}

// CreateAccount creates a new account with an opening balance.
func (s *AccountService) CreateAccount(userID string, input CreateAccountInput) (*domain.Account, error) {
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return nil, domain.ErrNameRequired
	}
	if len(name) > domain.MaxAccountNameLength {
		return nil, domain.ErrNameTooLong
	}
	if input.InitialBalance.IsNegative() {
		return nil, domain.ErrNegativeBalance
	}

	account, err := s.accountRepo.Create(&domain.Account{
		UserID:  userID,
		Name:    name,
		Balance: input.InitialBalance,
	})
	if err != nil {
		return nil, err
	}

	s.invalidate(userID)
	s.publisher.Publish(userID, websocket.AccountCreated(account))
	return account, nil
}

// GetAccounts retrieves all accounts for a user, read through the cache.
func (s *AccountService) GetAccounts(userID string) ([]*domain.Account, error) {
	key := cache.AccountsAllKey(userID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if accounts, ok := cached.([]*domain.Account); ok {
				return accounts, nil
			}
		}
	}

	accounts, err := s.accountRepo.GetAllByUser(userID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, accounts)
	}
	return accounts, nil
}

// GetAccountByID retrieves a single account, read through the cache.
func (s *AccountService) GetAccountByID(userID string, id int32) (*domain.Account, error) {
	key := cache.AccountKey(userID, id)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if account, ok := cached.(*domain.Account); ok {
				return account, nil
			}
		}
	}

	account, err := s.accountRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, account)
	}
	return account, nil
}

// GetAccountByName retrieves a single account by its unique name.
func (s *AccountService) GetAccountByName(userID string, name string) (*domain.Account, error) {
	key := cache.AccountNameKey(userID, name)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if account, ok := cached.(*domain.Account); ok {
				return account, nil
			}
		}
	}

	account, err := s.accountRepo.GetByName(userID, name)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		s.cache.Set(key, account)
	}
	return account, nil
}

// GetSummary retrieves the user's total balance across all accounts.
func (s *AccountService) GetSummary(userID string) (*domain.AccountSummary, error) {
	key := cache.AccountSummaryKey(userID)
	if s.cache != nil {
		if cached, ok := s.cache.Get(key); ok {
			if summary, ok := cached.(*domain.AccountSummary); ok {
				return summary, nil
			}
		}
	}

	accounts, err := s.accountRepo.GetAllByUser(userID)
	if err != nil {
		return nil, err
	}

	summary := &domain.AccountSummary{AccountCount: int32(len(accounts))}
	total := decimal.Zero
	for _, account := range accounts {
		total = total.Add(account.Balance)
	}
	summary.TotalBalance = total

	if s.cache != nil {
		s.cache.Set(key, summary)
	}
	return summary, nil
}

// UpdateAccountInput holds the input for updating an account. A balance edit
// becomes a ledger adjustment, not a raw column write.
type UpdateAccountInput struct {
	Name    *string
	Balance *decimal.Decimal
}

// UpdateAccount renames an account and/or adjusts its balance.
func (s *AccountService) UpdateAccount(userID string, id int32, input UpdateAccountInput) (*domain.Account, error) {
	account, err := s.accountRepo.GetByID(userID, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		name := strings.TrimSpace(*input.Name)
		if name == "" {
			return nil, domain.ErrNameRequired
		}
		if len(name) > domain.MaxAccountNameLength {
			return nil, domain.ErrNameTooLong
		}
		if name != account.Name {
			account, err = s.accountRepo.UpdateName(userID, id, name)
			if err != nil {
				return nil, err
			}
			s.invalidate(userID)
		}
	}

	if input.Balance != nil {
		account, err = s.ledger.AdjustBalance(userID, id, *input.Balance)
		if err != nil {
			return nil, err
		}
	}

	s.publisher.Publish(userID, websocket.AccountUpdated(account))
	return account, nil
}

// DeleteAccount removes an account. Transactions that reference it are left
// in place and keep a dangling account id.
func (s *AccountService) DeleteAccount(userID string, id int32) error {
	if err := s.accountRepo.Delete(userID, id); err != nil {
		return err
	}

	s.invalidate(userID)
	if s.cache != nil {
		// Joined transaction lists carry the deleted account's name.
		s.cache.DeletePrefix(cache.TransactionsPrefix(userID))
	}
	s.publisher.Publish(userID, websocket.AccountDeleted(map[string]int32{"id": id}))
	return nil
}

func (s *AccountService) invalidate(userID string) {
	if s.cache != nil {
		s.cache.DeletePrefix(cache.AccountsPrefix(userID))
	}
}
