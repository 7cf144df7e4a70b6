// Package ledgerdelivery manages delivery layer of the ledger.
package ledgerdelivery

import (
	"context"
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/errorspkg"
	"github.com/go-petr/ledger-bank/pkg/web"
)

// Service provides service layer interface needed by ledger delivery layer.
//
//go:generate mockgen -source http.go -destination http_mock.go -package ledgerdelivery
type Service interface {
	CreateAccount(ctx context.Context, name, initialDeposit string) (domain.AccountTxResult, error)
	Deposit(ctx context.Context, arg domain.CreateTransactionParams) (domain.TransactionTxResult, error)
	Withdraw(ctx context.Context, arg domain.CreateTransactionParams) (domain.TransactionTxResult, error)
	GetBalance(ctx context.Context, id int32) (domain.Account, error)
	GetTransactionHistory(ctx context.Context, accountID, limit int32) ([]domain.Transaction, error)
	ListAccounts(ctx context.Context, pageSize, pageID int32) ([]domain.Account, error)
}

// Handler facilitates ledger delivery layer logic.
type Handler struct {
	service Service
}

// NewHandler returns ledger handler.
func NewHandler(s Service) Handler {
	return Handler{service: s}
}

func bindingErrorMsg(err error) string {
	var ve validator.ValidationErrors
	if errors.As(err, &ve) {
		field := ve[0]
		return field.Field() + web.GetErrorMsg(field)
	}

	return err.Error()
}

// writeError maps domain errors to HTTP status codes.
func writeError(gctx *gin.Context, err error) {
	switch {
	case errors.Is(err, domain.ErrInvalidAmount), errors.Is(err, domain.ErrNegativeAmount):
		gctx.JSON(http.StatusBadRequest, web.Error(err))
	case errors.Is(err, domain.ErrAccountNotFound):
		gctx.JSON(http.StatusNotFound, web.Error(err))
	case errors.Is(err, domain.ErrInsufficientBalance):
		gctx.JSON(http.StatusUnprocessableEntity, web.Error(err))
	case errors.Is(err, domain.ErrTxConflict):
		gctx.JSON(http.StatusConflict, web.Error(err))
	default:
		gctx.JSON(http.StatusInternalServerError, web.Error(errorspkg.ErrInternal))
	}
}

type accountURI struct {
	ID int32 `uri:"id" binding:"required,min=1"`
}

type createAccountRequest struct {
	Name           string `json:"name" binding:"required"`
	InitialDeposit string `json:"initial_deposit" binding:"required,amount"`
}

type accountData struct {
	Account     domain.Account      `json:"account"`
	Transaction *domain.Transaction `json:"transaction,omitempty"`
}

// CreateAccount handles http request to create an account.
func (h *Handler) CreateAccount(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req createAccountRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	result, err := h.service.CreateAccount(ctx, req.Name, req.InitialDeposit)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountData{
		Account:     result.Account,
		Transaction: result.Transaction,
	}})
}

type mutationRequest struct {
	Amount      string `json:"amount" binding:"required,amount"`
	Description string `json:"description"`
}

type transactionData struct {
	Account     domain.Account     `json:"account"`
	Transaction domain.Transaction `json:"transaction"`
}

// Deposit handles http request to deposit money into an account.
func (h *Handler) Deposit(gctx *gin.Context) {
	h.mutate(gctx, h.service.Deposit)
}

// Withdraw handles http request to withdraw money from an account.
func (h *Handler) Withdraw(gctx *gin.Context) {
	h.mutate(gctx, h.service.Withdraw)
}

func (h *Handler) mutate(gctx *gin.Context, op func(context.Context, domain.CreateTransactionParams) (domain.TransactionTxResult, error)) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	var req mutationRequest
	if err := gctx.ShouldBindJSON(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	result, err := op(ctx, domain.CreateTransactionParams{
		AccountID:   uri.ID,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionData{
		Account:     result.Account,
		Transaction: result.Transaction,
	}})
}

// GetBalance handles http request to get the current account snapshot.
func (h *Handler) GetBalance(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	account, err := h.service.GetBalance(ctx, uri.ID)
	if err != nil {
		writeError(gctx, err)
		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountData{Account: account}})
}

type historyRequest struct {
	Limit int32 `form:"limit" binding:"omitempty,min=1,max=100"`
}

type transactionsData struct {
	Transactions []domain.Transaction `json:"transactions"`
}

// GetTransactionHistory handles http request to list the account's most
// recent transactions, newest first.
func (h *Handler) GetTransactionHistory(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var uri accountURI
	if err := gctx.ShouldBindUri(&uri); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	var req historyRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	transactions, err := h.service.GetTransactionHistory(ctx, uri.ID, req.Limit)
	if err != nil {
		if errors.Is(err, domain.ErrNoTransactions) {
			gctx.JSON(http.StatusOK, web.Message(domain.ErrNoTransactions.Error()))
			return
		}

		writeError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: transactionsData{Transactions: transactions}})
}

type listAccountsRequest struct {
	PageID   int32 `form:"page_id" binding:"omitempty,min=1"`
	PageSize int32 `form:"page_size" binding:"omitempty,min=1,max=100"`
}

type accountsData struct {
	Accounts []domain.Account `json:"accounts"`
}

const defaultPageSize = 50

// ListAccounts handles http request to list accounts ordered by id.
func (h *Handler) ListAccounts(gctx *gin.Context) {
	ctx := gctx.Request.Context()
	l := zerolog.Ctx(gctx)

	var req listAccountsRequest
	if err := gctx.ShouldBindQuery(&req); err != nil {
		l.Info().Err(err).Send()
		gctx.JSON(http.StatusBadRequest, web.Response{Error: bindingErrorMsg(err)})

		return
	}

	if req.PageID == 0 {
		req.PageID = 1
	}

	if req.PageSize == 0 {
		req.PageSize = defaultPageSize
	}

	accounts, err := h.service.ListAccounts(ctx, req.PageSize, req.PageID)
	if err != nil {
		if errors.Is(err, domain.ErrNoAccounts) {
			gctx.JSON(http.StatusOK, web.Message(domain.ErrNoAccounts.Error()))
			return
		}

		writeError(gctx, err)

		return
	}

	gctx.JSON(http.StatusOK, web.Response{Data: accountsData{Accounts: accounts}})
}
