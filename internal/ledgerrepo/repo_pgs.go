// Package ledgerrepo manages the atomic mutation boundary of the ledger.
//
// Every mutating operation updates the account balance and appends the
// matching transaction record inside a single database transaction, so
// either both become visible together or neither does.
package ledgerrepo

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-petr/ledger-bank/internal/accountrepo"
	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/internal/transactionrepo"
	"github.com/go-petr/ledger-bank/pkg/errorspkg"
	"github.com/lib/pq"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const (
	// maxAttempts bounds internal retries of conflicting transactions.
	maxAttempts  = 3
	retryBackoff = 50 * time.Millisecond

	initialDepositDescription = "Initial deposit"
)

// RepoPGS executes ledger mutations over Postgres.
type RepoPGS struct {
	conn         *sql.DB
	accounts     *accountrepo.RepoPGS
	transactions *transactionrepo.RepoPGS
}

// NewRepoPGS returns ledger RepoPGS with a connection to start transactions.
func NewRepoPGS(conn *sql.DB) *RepoPGS {
	return &RepoPGS{
		conn:         conn,
		accounts:     accountrepo.NewRepoPGS(conn),
		transactions: transactionrepo.NewRepoPGS(conn),
	}
}

// CreateAccount inserts the account and, for a nonzero initial deposit,
// the matching first transaction within a single database transaction.
// A zero initial deposit records no transaction.
func (r *RepoPGS) CreateAccount(ctx context.Context, arg domain.CreateAccountParams) (domain.AccountTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.AccountTxResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	accountRepo := accountrepo.NewRepoPGS(tx)
	transactionRepo := transactionrepo.NewRepoPGS(tx)

	result.Account, err = accountRepo.Create(ctx, arg.Name, arg.InitialDeposit)
	if err != nil {
		return result, err
	}

	deposit, err := decimal.NewFromString(arg.InitialDeposit)
	if err != nil {
		l.Error().Err(err).Send()
		return result, domain.ErrInvalidAmount
	}

	if deposit.IsPositive() {
		transaction, err := transactionRepo.Append(ctx, transactionrepo.AppendParams{
			AccountID:    result.Account.ID,
			Type:         domain.TransactionTypeDeposit,
			Amount:       arg.InitialDeposit,
			BalanceAfter: arg.InitialDeposit,
			Description:  initialDepositDescription,
		})
		if err != nil {
			return result, err
		}

		result.Transaction = &transaction
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	return result, nil
}

// Deposit adds the amount to the account balance and appends the matching
// DEPOSIT transaction atomically.
func (r *RepoPGS) Deposit(ctx context.Context, arg domain.CreateTransactionParams) (domain.TransactionTxResult, error) {
	return r.mutate(ctx, arg, domain.TransactionTypeDeposit)
}

// Withdraw subtracts the amount from the account balance and appends the
// matching WITHDRAWAL transaction atomically. Withdrawals exceeding the
// current balance are rejected without any state change.
func (r *RepoPGS) Withdraw(ctx context.Context, arg domain.CreateTransactionParams) (domain.TransactionTxResult, error) {
	return r.mutate(ctx, arg, domain.TransactionTypeWithdrawal)
}

// Get returns the current snapshot of the account.
func (r *RepoPGS) Get(ctx context.Context, id int32) (domain.Account, error) {
	return r.accounts.Get(ctx, id)
}

// List returns accounts ordered by id ascending.
func (r *RepoPGS) List(ctx context.Context, limit, offset int32) ([]domain.Account, error) {
	return r.accounts.List(ctx, limit, offset)
}

// History returns up to limit most recent transactions of the account, newest first.
func (r *RepoPGS) History(ctx context.Context, accountID, limit int32) ([]domain.Transaction, error) {
	return r.transactions.List(ctx, accountID, limit)
}

func (r *RepoPGS) mutate(ctx context.Context, arg domain.CreateTransactionParams, transactionType domain.TransactionType) (domain.TransactionTxResult, error) {
	l := zerolog.Ctx(ctx)

	var (
		result domain.TransactionTxResult
		err    error
	)

	for attempt := 1; ; attempt++ {
		result, err = r.mutateTx(ctx, arg, transactionType)
		if err == nil || !retryable(err) {
			return result, err
		}

		l.Warn().Err(err).Int("attempt", attempt).Msg("retrying conflicting ledger transaction")

		if attempt == maxAttempts {
			return result, domain.ErrTxConflict
		}

		select {
		case <-time.After(time.Duration(attempt) * retryBackoff):
		case <-ctx.Done():
			return result, ctx.Err()
		}
	}
}

func (r *RepoPGS) mutateTx(ctx context.Context, arg domain.CreateTransactionParams, transactionType domain.TransactionType) (domain.TransactionTxResult, error) {
	l := zerolog.Ctx(ctx)

	var result domain.TransactionTxResult

	tx, err := r.conn.BeginTx(ctx, nil)
	if err != nil {
		l.Error().Err(err).Send()

		if retryable(err) {
			return result, err
		}

		return result, errorspkg.ErrInternal
	}

	defer func() {
		if err := tx.Rollback(); err != nil && err != sql.ErrTxDone {
			l.Error().Err(err).Send()
		}
	}()

	accountRepo := accountrepo.NewRepoPGS(tx)
	transactionRepo := transactionrepo.NewRepoPGS(tx)

	// The row lock serializes the read-compute-write-append sequence
	// per account. Other accounts proceed in parallel.
	account, err := accountRepo.GetForUpdate(ctx, arg.AccountID)
	if err != nil {
		return result, err
	}

	balance, err := decimal.NewFromString(account.Balance)
	if err != nil {
		l.Error().Err(err).Send()
		return result, errorspkg.ErrInternal
	}

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		l.Error().Err(err).Send()
		return result, domain.ErrInvalidAmount
	}

	var newBalance decimal.Decimal

	switch transactionType {
	case domain.TransactionTypeDeposit:
		newBalance = balance.Add(amount)
	case domain.TransactionTypeWithdrawal:
		if balance.LessThan(amount) {
			return result, &domain.InsufficientBalanceError{
				Balance:   account.Balance,
				Requested: arg.Amount,
			}
		}

		newBalance = balance.Sub(amount)
	default:
		return result, errorspkg.ErrInternal
	}

	result.Account, err = accountRepo.SetBalance(ctx, newBalance.String(), arg.AccountID)
	if err != nil {
		return result, err
	}

	result.Transaction, err = transactionRepo.Append(ctx, transactionrepo.AppendParams{
		AccountID:    arg.AccountID,
		Type:         transactionType,
		Amount:       amount.String(),
		BalanceAfter: newBalance.String(),
		Description:  arg.Description,
	})
	if err != nil {
		return result, err
	}

	if err := tx.Commit(); err != nil {
		l.Error().Err(err).Send()

		if retryable(err) {
			return result, err
		}

		return result, errorspkg.ErrInternal
	}

	return result, nil
}

// retryable reports whether the error is a transient storage-level write
// collision (serialization failure or deadlock).
func retryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == "40001" || pqErr.Code == "40P01"
	}

	return false
}
