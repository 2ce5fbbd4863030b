package handler

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pennywise-app/pennywise-backend/internal/domain"
	"github.com/pennywise-app/pennywise-backend/internal/middleware"
	"github.com/pennywise-app/pennywise-backend/internal/service"
	"github.com/rs/zerolog/log"
	"github.com/shopspring/decimal"
)

// AccountHandler handles account-related HTTP requests
type AccountHandler struct {
	accountService *service.AccountService
	ledgerService  *service.LedgerService
}

// NewAccountHandler creates a new AccountHandler
func NewAccountHandler(accountService *service.AccountService, ledgerService *service.LedgerService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
		ledgerService:  ledgerService,
	}
}

// CreateAccountRequest represents the create account request body
type CreateAccountRequest struct {
	Name           string `json:"name"`
	InitialBalance string `json:"initialBalance,omitempty"`
}

// UpdateAccountRequest represents the update account request body. Both
// fields are optional; a balance value becomes a recorded adjustment.
type UpdateAccountRequest struct {
	Name    *string `json:"name,omitempty"`
	Balance *string `json:"balance,omitempty"`
}

// AccountResponse represents an account in API responses
type AccountResponse struct {
	ID        int32  `json:"id"`
	Name      string `json:"name"`
	Balance   string `json:"balance"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

// AccountSummaryResponse represents the account totals API response
type AccountSummaryResponse struct {
	TotalBalance string `json:"totalBalance"`
	AccountCount int    `json:"accountCount"`
}

// CreateAccount handles POST /api/v1/accounts
func (h *AccountHandler) CreateAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	initialBalance := decimal.Zero
	if req.InitialBalance != "" {
		var err error
		initialBalance, err = decimal.NewFromString(req.InitialBalance)
		if err != nil {
			return NewValidationError(c, "Invalid initial balance", []ValidationError{
				{Field: "initialBalance", Message: "Must be a valid decimal number"},
			})
		}
	}

	account, err := h.accountService.CreateAccount(userID, service.CreateAccountInput{
		Name:           req.Name,
		InitialBalance: initialBalance,
	})
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create account")
		return NewInternalError(c, "Failed to create account")
	}

	log.Info().Str("user_id", userID).Int32("account_id", account.ID).Str("name", account.Name).Msg("Account created")

	return c.JSON(http.StatusCreated, toAccountResponse(account))
}

// GetAccounts handles GET /api/v1/accounts
func (h *AccountHandler) GetAccounts(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	accounts, err := h.accountService.GetAccounts(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get accounts")
		return NewInternalError(c, "Failed to get accounts")
	}

	response := make([]AccountResponse, len(accounts))
	for i, account := range accounts {
		response[i] = toAccountResponse(account)
	}
	return c.JSON(http.StatusOK, response)
}

// GetAccount handles GET /api/v1/accounts/:id
func (h *AccountHandler) GetAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	account, err := h.accountService.GetAccountByID(userID, id)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Int32("account_id", id).Msg("Failed to get account")
		return NewInternalError(c, "Failed to get account")
	}

	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// GetSummary handles GET /api/v1/accounts/summary
func (h *AccountHandler) GetSummary(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	summary, err := h.accountService.GetSummary(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get account summary")
		return NewInternalError(c, "Failed to get account summary")
	}

	return c.JSON(http.StatusOK, AccountSummaryResponse{
		TotalBalance: summary.TotalBalance.StringFixed(2),
		AccountCount: int(summary.AccountCount),
	})
}

// UpdateAccount handles PUT /api/v1/accounts/:id
func (h *AccountHandler) UpdateAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	var req UpdateAccountRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}
	if req.Name == nil && req.Balance == nil {
		return NewValidationError(c, "Nothing to update", nil)
	}

	input := service.UpdateAccountInput{Name: req.Name}
	if req.Balance != nil {
		balance, err := decimal.NewFromString(*req.Balance)
		if err != nil {
			return NewValidationError(c, "Invalid balance", []ValidationError{
				{Field: "balance", Message: "Must be a valid decimal number"},
			})
		}
		input.Balance = &balance
	}

	account, err := h.accountService.UpdateAccount(userID, id, input)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Int32("account_id", id).Msg("Failed to update account")
		return NewInternalError(c, "Failed to update account")
	}

	log.Info().Str("user_id", userID).Int32("account_id", account.ID).Msg("Account updated")

	return c.JSON(http.StatusOK, toAccountResponse(account))
}

// DeleteAccount handles DELETE /api/v1/accounts/:id
func (h *AccountHandler) DeleteAccount(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid account ID", nil)
	}

	if err := h.accountService.DeleteAccount(userID, id); err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Int32("account_id", id).Msg("Failed to delete account")
		return NewInternalError(c, "Failed to delete account")
	}

	log.Info().Str("user_id", userID).Int32("account_id", id).Msg("Account deleted")

	return c.NoContent(http.StatusNoContent)
}

func toAccountResponse(account *domain.Account) AccountResponse {
	return AccountResponse{
		ID:        account.ID,
		Name:      account.Name,
		Balance:   account.Balance.StringFixed(2),
		CreatedAt: account.CreatedAt.Format(time.RFC3339),
		UpdatedAt: account.UpdatedAt.Format(time.RFC3339),
	}
}

func parseIDParam(c echo.Context) (int32, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 32)
	if err != nil || id <= 0 {
		return 0, echo.ErrBadRequest
	}
	return int32(id), nil
}
