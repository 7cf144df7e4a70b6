package ledgerrepo

import (
	"context"
	"sync"
	"testing"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
)

func createMemAccount(t *testing.T, r *RepoMem, initialDeposit string) domain.AccountTxResult {
	t.Helper()

	result, err := r.CreateAccount(context.Background(), domain.CreateAccountParams{
		Name:           "alice",
		InitialDeposit: initialDeposit,
	})
	require.NoError(t, err)
	require.NotZero(t, result.Account.ID)
	require.Equal(t, initialDeposit, result.Account.Balance)
	require.NotZero(t, result.Account.CreatedAt)

	return result
}

// requireBalanceMatchesLog checks that the account balance equals the
// running sum of its signed transaction amounts and that every
// balance_after chains from the previous one in id order.
func requireBalanceMatchesLog(t *testing.T, r *RepoMem, accountID int32) {
	t.Helper()

	account, err := r.Get(context.Background(), accountID)
	require.NoError(t, err)

	transactions, err := r.History(context.Background(), accountID, 1<<30)
	require.NoError(t, err)

	// History is newest first; walk it oldest first.
	sum := decimal.Zero

	for i := len(transactions) - 1; i >= 0; i-- {
		transaction := transactions[i]

		amount, err := decimal.NewFromString(transaction.Amount)
		require.NoError(t, err)
		require.True(t, amount.IsPositive())

		switch transaction.Type {
		case domain.TransactionTypeDeposit:
			sum = sum.Add(amount)
		case domain.TransactionTypeWithdrawal:
			sum = sum.Sub(amount)
		default:
			t.Fatalf("unexpected transaction type %q", transaction.Type)
		}

		balanceAfter, err := decimal.NewFromString(transaction.BalanceAfter)
		require.NoError(t, err)
		require.True(t, sum.Equal(balanceAfter),
			"transaction %d: running sum %s != balance_after %s", transaction.ID, sum, balanceAfter)

		if i < len(transactions)-1 {
			require.Greater(t, transactions[i].ID, transactions[i+1].ID)
			require.False(t, transactions[i].CreatedAt.Before(transactions[i+1].CreatedAt))
		}
	}

	balance, err := decimal.NewFromString(account.Balance)
	require.NoError(t, err)
	require.True(t, sum.Equal(balance), "log total %s != balance %s", sum, balance)
	require.False(t, balance.IsNegative())
}

func TestRepoMemCreateAccount(t *testing.T) {
	r := NewRepoMem()

	result := createMemAccount(t, r, "100")

	require.NotNil(t, result.Transaction)
	require.Equal(t, result.Account.ID, result.Transaction.AccountID)
	require.Equal(t, domain.TransactionTypeDeposit, result.Transaction.Type)
	require.Equal(t, "100", result.Transaction.Amount)
	require.Equal(t, "100", result.Transaction.BalanceAfter)
	require.Equal(t, "Initial deposit", result.Transaction.Description)

	requireBalanceMatchesLog(t, r, result.Account.ID)
}

func TestRepoMemCreateAccountZeroDeposit(t *testing.T) {
	r := NewRepoMem()

	result := createMemAccount(t, r, "0")
	require.Nil(t, result.Transaction)

	transactions, err := r.History(context.Background(), result.Account.ID, 10)
	require.NoError(t, err)
	require.Empty(t, transactions)
}

func TestRepoMemCreateAccountNegativeDeposit(t *testing.T) {
	r := NewRepoMem()

	_, err := r.CreateAccount(context.Background(), domain.CreateAccountParams{
		Name:           "alice",
		InitialDeposit: "-1",
	})
	require.ErrorIs(t, err, domain.ErrNegativeAmount)
}

func TestRepoMemDeposit(t *testing.T) {
	r := NewRepoMem()
	account := createMemAccount(t, r, "100").Account

	result, err := r.Deposit(context.Background(), domain.CreateTransactionParams{
		AccountID:   account.ID,
		Amount:      "50",
		Description: "paycheck",
	})
	require.NoError(t, err)
	require.Equal(t, "150", result.Account.Balance)
	require.Equal(t, domain.TransactionTypeDeposit, result.Transaction.Type)
	require.Equal(t, "150", result.Transaction.BalanceAfter)
	require.Equal(t, "paycheck", result.Transaction.Description)

	transactions, err := r.History(context.Background(), account.ID, 10)
	require.NoError(t, err)
	require.Len(t, transactions, 2)
	require.Equal(t, result.Transaction.ID, transactions[0].ID) // newest first

	requireBalanceMatchesLog(t, r, account.ID)
}

func TestRepoMemDepositAccountNotFound(t *testing.T) {
	r := NewRepoMem()

	_, err := r.Deposit(context.Background(), domain.CreateTransactionParams{
		AccountID: 9999,
		Amount:    "50",
	})
	require.ErrorIs(t, err, domain.ErrAccountNotFound)
}

func TestRepoMemWithdraw(t *testing.T) {
	r := NewRepoMem()
	account := createMemAccount(t, r, "150").Account

	result, err := r.Withdraw(context.Background(), domain.CreateTransactionParams{
		AccountID: account.ID,
		Amount:    "30",
	})
	require.NoError(t, err)
	require.Equal(t, "120", result.Account.Balance)
	require.Equal(t, domain.TransactionTypeWithdrawal, result.Transaction.Type)
	require.Equal(t, "120", result.Transaction.BalanceAfter)

	requireBalanceMatchesLog(t, r, account.ID)
}

func TestRepoMemWithdrawInsufficientBalance(t *testing.T) {
	r := NewRepoMem()
	account := createMemAccount(t, r, "150").Account

	_, err := r.Withdraw(context.Background(), domain.CreateTransactionParams{
		AccountID: account.ID,
		Amount:    "200",
	})
	require.ErrorIs(t, err, domain.ErrInsufficientBalance)

	var insufficientErr *domain.InsufficientBalanceError
	require.ErrorAs(t, err, &insufficientErr)
	require.Equal(t, "150", insufficientErr.Balance)
	require.Equal(t, "200", insufficientErr.Requested)

	// No state change on the rejection path.
	got, err := r.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, "150", got.Balance)

	transactions, err := r.History(context.Background(), account.ID, 10)
	require.NoError(t, err)
	require.Len(t, transactions, 1)
}

func TestRepoMemConcurrentDeposits(t *testing.T) {
	r := NewRepoMem()
	account := createMemAccount(t, r, "0").Account

	n := 20
	amount := "5"
	errs := make(chan error, n)

	for i := 0; i < n; i++ {
		go func() {
			_, err := r.Deposit(context.Background(), domain.CreateTransactionParams{
				AccountID: account.ID,
				Amount:    amount,
			})
			errs <- err
		}()
	}

	for i := 0; i < n; i++ {
		require.NoError(t, <-errs)
	}

	got, err := r.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, "100", got.Balance)

	transactions, err := r.History(context.Background(), account.ID, int32(n)+1)
	require.NoError(t, err)
	require.Len(t, transactions, n)

	requireBalanceMatchesLog(t, r, account.ID)
}

func TestRepoMemConcurrentDepositsAndWithdrawals(t *testing.T) {
	r := NewRepoMem()
	account := createMemAccount(t, r, "1000").Account

	n := 10
	errs := make(chan error, 2*n)

	for i := 0; i < n; i++ {
		go func() {
			_, err := r.Deposit(context.Background(), domain.CreateTransactionParams{
				AccountID: account.ID,
				Amount:    "10",
			})
			errs <- err
		}()
		go func() {
			_, err := r.Withdraw(context.Background(), domain.CreateTransactionParams{
				AccountID: account.ID,
				Amount:    "10",
			})
			errs <- err
		}()
	}

	for i := 0; i < 2*n; i++ {
		require.NoError(t, <-errs)
	}

	got, err := r.Get(context.Background(), account.ID)
	require.NoError(t, err)
	require.Equal(t, "1000", got.Balance)

	requireBalanceMatchesLog(t, r, account.ID)
}

func TestRepoMemIndependentAccounts(t *testing.T) {
	r := NewRepoMem()
	account1 := createMemAccount(t, r, "0").Account
	account2 := createMemAccount(t, r, "0").Account

	n := 10

	var wg sync.WaitGroup

	for i := 0; i < n; i++ {
		for _, id := range []int32{account1.ID, account2.ID} {
			wg.Add(1)

			go func(id int32) {
				defer wg.Done()

				_, err := r.Deposit(context.Background(), domain.CreateTransactionParams{
					AccountID: id,
					Amount:    "1",
				})
				require.NoError(t, err)
			}(id)
		}
	}

	wg.Wait()

	requireBalanceMatchesLog(t, r, account1.ID)
	requireBalanceMatchesLog(t, r, account2.ID)
}

func TestRepoMemList(t *testing.T) {
	r := NewRepoMem()

	for i := 0; i < 5; i++ {
		createMemAccount(t, r, "10")
	}

	accounts, err := r.List(context.Background(), 3, 0)
	require.NoError(t, err)
	require.Len(t, accounts, 3)

	for i := 1; i < len(accounts); i++ {
		require.Greater(t, accounts[i].ID, accounts[i-1].ID)
	}

	rest, err := r.List(context.Background(), 10, 3)
	require.NoError(t, err)
	require.Len(t, rest, 2)
}

func TestRepoMemHistoryLimit(t *testing.T) {
	r := NewRepoMem()
	account := createMemAccount(t, r, "0").Account

	for i := 0; i < 5; i++ {
		_, err := r.Deposit(context.Background(), domain.CreateTransactionParams{
			AccountID: account.ID,
			Amount:    "1",
		})
		require.NoError(t, err)
	}

	transactions, err := r.History(context.Background(), account.ID, 3)
	require.NoError(t, err)
	require.Len(t, transactions, 3)

	// Newest first.
	for i := 1; i < len(transactions); i++ {
		require.Less(t, transactions[i].ID, transactions[i-1].ID)
	}
}
