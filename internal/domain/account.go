// Package domain provides defenitions of all entities.
package domain

import (
	"errors"
	"time"
)

var (
	// ErrAccountNotFound indicates that the account is not found.
	ErrAccountNotFound = errors.New("account not found")
	// ErrNoAccounts indicates that no accounts exist in the system.
	ErrNoAccounts = errors.New("no accounts found")
)

// Account holds the current balance for a single account holder.
//
// Balance is a decimal string and always equals the sum of the signed
// amounts of the account's recorded transactions.
type Account struct {
	ID        int32     `json:"id"`
	Name      string    `json:"name"`
	Balance   string    `json:"balance"`
	CreatedAt time.Time `json:"created_at"`
}

// CreateAccountParams is the input data for the account creation transaction.
type CreateAccountParams struct {
	Name           string `json:"name"`
	InitialDeposit string `json:"initial_deposit"`
}

// AccountTxResult is the result of the account creation transaction.
//
// Transaction is nil when the account was opened with a zero initial
// deposit, in which case no transaction is recorded.
type AccountTxResult struct {
	Account     Account      `json:"account"`
	Transaction *Transaction `json:"transaction,omitempty"`
}
