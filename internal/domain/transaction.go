package domain

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrInvalidAmount indicates invalid amount.
	ErrInvalidAmount = errors.New("invalid amount")
	// ErrNegativeAmount indicates a zero or negative amount where a positive one is required.
	ErrNegativeAmount = errors.New("amount must be positive")
	// ErrInsufficientBalance indicates that the account does not have sufficient balance.
	ErrInsufficientBalance = errors.New("insufficient balance")
	// ErrNoTransactions indicates that the account exists but has no transactions.
	ErrNoTransactions = errors.New("no transactions found")
	// ErrTxConflict indicates that a storage write collision persisted through all retries.
	ErrTxConflict = errors.New("transaction conflict")
)

// TransactionType distinguishes balance-increasing from balance-decreasing transactions.
type TransactionType string

// The two transaction types. Amount stores the positive magnitude;
// the sign is implied by the type.
const (
	TransactionTypeDeposit    TransactionType = "DEPOSIT"
	TransactionTypeWithdrawal TransactionType = "WITHDRAWAL"
)

// Transaction is an immutable record of one balance-affecting event.
//
// BalanceAfter equals the previous transaction's BalanceAfter for the
// same account (or 0 if none) plus or minus Amount depending on Type.
type Transaction struct {
	ID           int64           `json:"id"`
	AccountID    int32           `json:"account_id"`
	Type         TransactionType `json:"type"`
	Amount       string          `json:"amount"`
	BalanceAfter string          `json:"balance_after"`
	Description  string          `json:"description,omitempty"`
	CreatedAt    time.Time       `json:"created_at"`
}

// CreateTransactionParams is the input data for the deposit and withdrawal transactions.
type CreateTransactionParams struct {
	AccountID   int32  `json:"account_id"`
	Amount      string `json:"amount"`
	Description string `json:"description"`
}

// TransactionTxResult is the result of a deposit or withdrawal transaction.
type TransactionTxResult struct {
	Account     Account     `json:"account"`
	Transaction Transaction `json:"transaction"`
}

// InsufficientBalanceError reports a rejected withdrawal together with
// the balance at the time of the attempt and the requested amount.
// It matches ErrInsufficientBalance in errors.Is comparisons.
type InsufficientBalanceError struct {
	Balance   string
	Requested string
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf("insufficient balance: have %s, requested %s", e.Balance, e.Requested)
}

// Is reports whether the target is ErrInsufficientBalance.
func (e *InsufficientBalanceError) Is(target error) bool {
	return target == ErrInsufficientBalance
}
