// Package ledgerservice manages business logic layer of the ledger.
package ledgerservice

import (
	"context"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/internal/events"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// DefaultHistoryLimit is used when the caller does not bound the
// transaction history.
const DefaultHistoryLimit = 10

// Repo provides data access layer interface needed by ledger service layer.
//
//go:generate mockgen -source service.go -destination service_mock.go -package ledgerservice
type Repo interface {
	CreateAccount(ctx context.Context, arg domain.CreateAccountParams) (domain.AccountTxResult, error)
	Deposit(ctx context.Context, arg domain.CreateTransactionParams) (domain.TransactionTxResult, error)
	Withdraw(ctx context.Context, arg domain.CreateTransactionParams) (domain.TransactionTxResult, error)
	Get(ctx context.Context, id int32) (domain.Account, error)
	List(ctx context.Context, limit, offset int32) ([]domain.Account, error)
	History(ctx context.Context, accountID, limit int32) ([]domain.Transaction, error)
}

// Publisher provides the event publishing interface needed by ledger service layer.
type Publisher interface {
	Publish(ctx context.Context, topic string, event any) error
}

// Service facilitates ledger service layer logic.
type Service struct {
	repo      Repo
	publisher Publisher
}

// New returns ledger service struct to manage ledger bussines logic.
func New(r Repo, p Publisher) *Service {
	return &Service{
		repo:      r,
		publisher: p,
	}
}

// parsePositiveAmount parses the amount and rejects zero and negative values.
func parsePositiveAmount(ctx context.Context, amount string) (decimal.Decimal, error) {
	l := zerolog.Ctx(ctx)

	amountDecimal, err := decimal.NewFromString(amount)
	if err != nil {
		l.Info().Err(err).Send()
		return amountDecimal, domain.ErrInvalidAmount
	}

	if amountDecimal.LessThanOrEqual(decimal.Zero) {
		l.Info().Str("amount", amount).Msg("non-positive amount")
		return amountDecimal, domain.ErrNegativeAmount
	}

	return amountDecimal, nil
}

// CreateAccount creates an account with the given initial deposit.
// A nonzero initial deposit is recorded as the account's first DEPOSIT
// transaction; a zero one leaves the transaction log empty.
func (s *Service) CreateAccount(ctx context.Context, name, initialDeposit string) (domain.AccountTxResult, error) {
	l := zerolog.Ctx(ctx)

	deposit, err := decimal.NewFromString(initialDeposit)
	if err != nil {
		l.Info().Err(err).Send()
		return domain.AccountTxResult{}, domain.ErrInvalidAmount
	}

	if deposit.IsNegative() {
		l.Info().Str("initial_deposit", initialDeposit).Msg("negative initial deposit")
		return domain.AccountTxResult{}, domain.ErrNegativeAmount
	}

	result, err := s.repo.CreateAccount(ctx, domain.CreateAccountParams{
		Name:           name,
		InitialDeposit: deposit.String(),
	})
	if err != nil {
		return result, err
	}

	if result.Transaction != nil {
		s.publishTransactionCompleted(ctx, *result.Transaction)
	}

	return result, nil
}

// Deposit adds the amount to the account balance and records the transaction.
func (s *Service) Deposit(ctx context.Context, arg domain.CreateTransactionParams) (domain.TransactionTxResult, error) {
	amount, err := parsePositiveAmount(ctx, arg.Amount)
	if err != nil {
		return domain.TransactionTxResult{}, err
	}

	arg.Amount = amount.String()

	result, err := s.repo.Deposit(ctx, arg)
	if err != nil {
		return result, err
	}

	s.publishTransactionCompleted(ctx, result.Transaction)

	return result, nil
}

// Withdraw subtracts the amount from the account balance and records the
// transaction. Withdrawals exceeding the balance fail without mutation.
func (s *Service) Withdraw(ctx context.Context, arg domain.CreateTransactionParams) (domain.TransactionTxResult, error) {
	amount, err := parsePositiveAmount(ctx, arg.Amount)
	if err != nil {
		return domain.TransactionTxResult{}, err
	}

	arg.Amount = amount.String()

	result, err := s.repo.Withdraw(ctx, arg)
	if err != nil {
		return result, err
	}

	s.publishTransactionCompleted(ctx, result.Transaction)

	return result, nil
}

// GetBalance returns the current snapshot of the account.
func (s *Service) GetBalance(ctx context.Context, id int32) (domain.Account, error) {
	return s.repo.Get(ctx, id)
}

// GetTransactionHistory returns up to limit most recent transactions of
// the account, newest first. A non-positive limit falls back to
// DefaultHistoryLimit. An existing account with an empty log yields
// ErrNoTransactions, distinct from ErrAccountNotFound.
func (s *Service) GetTransactionHistory(ctx context.Context, accountID, limit int32) ([]domain.Transaction, error) {
	if limit <= 0 {
		limit = DefaultHistoryLimit
	}

	if _, err := s.repo.Get(ctx, accountID); err != nil {
		return nil, err
	}

	transactions, err := s.repo.History(ctx, accountID, limit)
	if err != nil {
		return nil, err
	}

	if len(transactions) == 0 {
		return nil, domain.ErrNoTransactions
	}

	return transactions, nil
}

// ListAccounts returns the requested page of accounts ordered by id
// ascending. An empty system yields ErrNoAccounts.
func (s *Service) ListAccounts(ctx context.Context, pageSize, pageID int32) ([]domain.Account, error) {
	limit := pageSize
	offset := (pageID - 1) * pageSize

	accounts, err := s.repo.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	if len(accounts) == 0 {
		return nil, domain.ErrNoAccounts
	}

	return accounts, nil
}

// publishTransactionCompleted emits the event for a recorded transaction.
// Publishing failures are logged and never fail the operation.
func (s *Service) publishTransactionCompleted(ctx context.Context, transaction domain.Transaction) {
	l := zerolog.Ctx(ctx)

	event := domain.TransactionCompletedEvent{
		TransactionID: transaction.ID,
		AccountID:     transaction.AccountID,
		Type:          transaction.Type,
		Amount:        transaction.Amount,
		BalanceAfter:  transaction.BalanceAfter,
		OccurredAt:    transaction.CreatedAt,
	}

	if err := s.publisher.Publish(ctx, events.TopicTransactionCompleted, event); err != nil {
		l.Error().Err(err).Int64("transaction_id", transaction.ID).Msg("publish transaction completed")
	}
}
