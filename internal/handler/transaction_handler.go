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

// TransactionHandler handles transaction-related HTTP requests
type TransactionHandler struct {
	ledgerService *service.LedgerService
}

// NewTransactionHandler creates a new TransactionHandler
func NewTransactionHandler(ledgerService *service.LedgerService) *TransactionHandler {
	return &TransactionHandler{ledgerService: ledgerService}
}

// CreateTransactionRequest represents the create transaction request body
type CreateTransactionRequest struct {
	AccountID   int32  `json:"accountId"`
	CategoryID  int32  `json:"categoryId"`
	Amount      string `json:"amount"`
	Type        string `json:"type"`
	Description string `json:"description,omitempty"`
	Date        string `json:"date,omitempty"`
}

// UpdateTransactionRequest represents the update transaction request body.
// Nil fields keep their previous value.
type UpdateTransactionRequest struct {
	AccountID   *int32  `json:"accountId,omitempty"`
	CategoryID  *int32  `json:"categoryId,omitempty"`
	Amount      *string `json:"amount,omitempty"`
	Type        *string `json:"type,omitempty"`
	Description *string `json:"description,omitempty"`
	Date        *string `json:"date,omitempty"`
}

// CreateTransferRequest represents the create transfer request body
type CreateTransferRequest struct {
	FromAccountID int32   `json:"fromAccountId"`
	ToAccountID   int32   `json:"toAccountId"`
	Amount        string  `json:"amount"`
	Description   *string `json:"description,omitempty"`
	Date          string  `json:"date,omitempty"`
}

// TransactionResponse represents a transaction in API responses
type TransactionResponse struct {
	ID             int32   `json:"id"`
	AccountID      int32   `json:"accountId"`
	CategoryID     *int32  `json:"categoryId,omitempty"`
	Amount         string  `json:"amount"`
	Type           string  `json:"type"`
	Description    string  `json:"description"`
	Date           string  `json:"date"`
	TransferPairID *string `json:"transferPairId,omitempty"`
	AccountName    string  `json:"accountName,omitempty"`
	CategoryName   *string `json:"categoryName,omitempty"`
	CreatedAt      string  `json:"createdAt"`
	UpdatedAt      string  `json:"updatedAt"`
}

// TransactionListResponse represents a page of transactions
type TransactionListResponse struct {
	Data       []TransactionResponse `json:"data"`
	Page       int32                 `json:"page"`
	PageSize   int32                 `json:"pageSize"`
	TotalItems int64                 `json:"totalItems"`
	TotalPages int32                 `json:"totalPages"`
}

// TransferResponse represents a completed transfer in API responses
type TransferResponse struct {
	FromTransaction TransactionResponse `json:"fromTransaction"`
	ToTransaction   TransactionResponse `json:"toTransaction"`
}

// CreateTransaction handles POST /api/v1/transactions
func (h *TransactionHandler) CreateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	txType, err := domain.ParseTransactionType(req.Type)
	if err != nil {
		return NewValidationError(c, "Validation failed", []ValidationError{
			{Field: "type", Message: "Type must be income or expense"},
		})
	}

	input := service.CreateTransactionInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Amount:      amount,
		Type:        txType,
		Description: req.Description,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: "date", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.Date = &date
	}

	transaction, err := h.ledgerService.CreateTransaction(userID, input)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create transaction")
		return NewInternalError(c, "Failed to create transaction")
	}

	log.Info().
		Str("user_id", userID).
		Int32("transaction_id", transaction.ID).
		Str("type", string(transaction.Type)).
		Str("amount", transaction.Amount.String()).
		Msg("Transaction created")

	return c.JSON(http.StatusCreated, toTransactionResponse(transaction))
}

// GetTransactions handles GET /api/v1/transactions
func (h *TransactionHandler) GetTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	filters, err := parseTransactionFilters(c)
	if err != nil {
		return NewValidationError(c, "Invalid filter parameters", nil)
	}

	page, err := h.ledgerService.ListTransactions(userID, filters)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to get transactions")
		return NewInternalError(c, "Failed to get transactions")
	}

	data := make([]TransactionResponse, len(page.Data))
	for i, detail := range page.Data {
		data[i] = toTransactionDetailResponse(detail)
	}

	return c.JSON(http.StatusOK, TransactionListResponse{
		Data:       data,
		Page:       page.Page,
		PageSize:   page.PageSize,
		TotalItems: page.TotalItems,
		TotalPages: page.TotalPages,
	})
}

// GetTransaction handles GET /api/v1/transactions/:id
func (h *TransactionHandler) GetTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	transaction, err := h.ledgerService.GetTransaction(userID, id)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Int32("transaction_id", id).Msg("Failed to get transaction")
		return NewInternalError(c, "Failed to get transaction")
	}

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// UpdateTransaction handles PUT /api/v1/transactions/:id
func (h *TransactionHandler) UpdateTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	var req UpdateTransactionRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	input := service.UpdateTransactionInput{
		AccountID:   req.AccountID,
		CategoryID:  req.CategoryID,
		Description: req.Description,
	}
	if req.Amount != nil {
		amount, err := decimal.NewFromString(*req.Amount)
		if err != nil {
			return NewValidationError(c, "Invalid amount", []ValidationError{
				{Field: "amount", Message: "Must be a valid decimal number"},
			})
		}
		input.Amount = &amount
	}
	if req.Type != nil {
		txType, err := domain.ParseTransactionType(*req.Type)
		if err != nil {
			return NewValidationError(c, "Validation failed", []ValidationError{
				{Field: "type", Message: "Type must be income or expense"},
			})
		}
		input.Type = &txType
	}
	if req.Date != nil {
		date, err := time.Parse("2006-01-02", *req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: "date", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.Date = &date
	}

	transaction, err := h.ledgerService.UpdateTransaction(userID, id, input)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Int32("transaction_id", id).Msg("Failed to update transaction")
		return NewInternalError(c, "Failed to update transaction")
	}

	log.Info().Str("user_id", userID).Int32("transaction_id", transaction.ID).Msg("Transaction updated")

	return c.JSON(http.StatusOK, toTransactionResponse(transaction))
}

// DeleteTransaction handles DELETE /api/v1/transactions/:id
func (h *TransactionHandler) DeleteTransaction(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	id, err := parseIDParam(c)
	if err != nil {
		return NewValidationError(c, "Invalid transaction ID", nil)
	}

	if err := h.ledgerService.DeleteTransaction(userID, id); err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Int32("transaction_id", id).Msg("Failed to delete transaction")
		return NewInternalError(c, "Failed to delete transaction")
	}

	log.Info().Str("user_id", userID).Int32("transaction_id", id).Msg("Transaction deleted")

	return c.NoContent(http.StatusNoContent)
}

// DeleteAllTransactions handles DELETE /api/v1/transactions
func (h *TransactionHandler) DeleteAllTransactions(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	deleted, err := h.ledgerService.DeleteAllTransactions(userID)
	if err != nil {
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to delete transactions")
		return NewInternalError(c, "Failed to delete transactions")
	}

	log.Info().Str("user_id", userID).Int64("deleted", deleted).Msg("All transactions deleted")

	return c.JSON(http.StatusOK, map[string]int64{"deleted": deleted})
}

// CreateTransfer handles POST /api/v1/transactions/transfers
func (h *TransactionHandler) CreateTransfer(c echo.Context) error {
	userID := middleware.GetUserID(c)
	if userID == "" {
		return NewUnauthorizedError(c, "Authentication required")
	}

	var req CreateTransferRequest
	if err := c.Bind(&req); err != nil {
		return NewValidationError(c, "Invalid request body", nil)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil {
		return NewValidationError(c, "Invalid amount", []ValidationError{
			{Field: "amount", Message: "Must be a valid decimal number"},
		})
	}

	input := service.TransferInput{
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Amount:        amount,
		Description:   req.Description,
	}
	if req.Date != "" {
		date, err := time.Parse("2006-01-02", req.Date)
		if err != nil {
			return NewValidationError(c, "Invalid date", []ValidationError{
				{Field: "date", Message: "Must be in YYYY-MM-DD format"},
			})
		}
		input.Date = &date
	}

	result, err := h.ledgerService.Transfer(userID, input)
	if err != nil {
		if handled, resp := mapDomainError(c, err); handled {
			return resp
		}
		log.Error().Err(err).Str("user_id", userID).Msg("Failed to create transfer")
		return NewInternalError(c, "Failed to create transfer")
	}

	log.Info().
		Str("user_id", userID).
		Int32("from_account_id", req.FromAccountID).
		Int32("to_account_id", req.ToAccountID).
		Str("amount", amount.String()).
		Msg("Transfer created")

	return c.JSON(http.StatusCreated, TransferResponse{
		FromTransaction: toTransactionResponse(result.FromTransaction),
		ToTransaction:   toTransactionResponse(result.ToTransaction),
	})
}

func parseTransactionFilters(c echo.Context) (*domain.TransactionFilters, error) {
	filters := &domain.TransactionFilters{
		Page:     1,
		PageSize: domain.DefaultPageSize,
	}

	if v := c.QueryParam("accountId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, err
		}
		accountID := int32(id)
		filters.AccountID = &accountID
	}
	if v := c.QueryParam("categoryId"); v != "" {
		id, err := strconv.ParseInt(v, 10, 32)
		if err != nil {
			return nil, err
		}
		categoryID := int32(id)
		filters.CategoryID = &categoryID
	}
	if v := c.QueryParam("type"); v != "" {
		txType, err := domain.ParseTransactionType(v)
		if err != nil {
			return nil, err
		}
		filters.Type = &txType
	}
	if v := c.QueryParam("startDate"); v != "" {
		date, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, err
		}
		filters.StartDate = &date
	}
	if v := c.QueryParam("endDate"); v != "" {
		date, err := time.Parse("2006-01-02", v)
		if err != nil {
			return nil, err
		}
		filters.EndDate = &date
	}
	if v := c.QueryParam("page"); v != "" {
		page, err := strconv.ParseInt(v, 10, 32)
		if err != nil || page < 1 {
			return nil, echo.ErrBadRequest
		}
		filters.Page = int32(page)
	}
	if v := c.QueryParam("pageSize"); v != "" {
		pageSize, err := strconv.ParseInt(v, 10, 32)
		if err != nil || pageSize < 1 {
			return nil, echo.ErrBadRequest
		}
		if pageSize > domain.MaxPageSize {
			pageSize = domain.MaxPageSize
		}
		filters.PageSize = int32(pageSize)
	}

	return filters, nil
}

func toTransactionResponse(transaction *domain.Transaction) TransactionResponse {
	resp := TransactionResponse{
		ID:          transaction.ID,
		AccountID:   transaction.AccountID,
		CategoryID:  transaction.CategoryID,
		Amount:      transaction.Amount.StringFixed(2),
		Type:        string(transaction.Type),
		Description: transaction.Description,
		Date:        transaction.TransactionDate.Format("2006-01-02"),
		CreatedAt:   transaction.CreatedAt.Format(time.RFC3339),
		UpdatedAt:   transaction.UpdatedAt.Format(time.RFC3339),
	}
	if transaction.TransferPairID != nil {
		pairID := transaction.TransferPairID.String()
		resp.TransferPairID = &pairID
	}
	return resp
}

func toTransactionDetailResponse(detail *domain.TransactionDetail) TransactionResponse {
	resp := toTransactionResponse(&detail.Transaction)
	resp.AccountName = detail.AccountName
	resp.CategoryName = detail.CategoryName
	return resp
}
