package transactionrepo

import (
	"context"
	"database/sql"
	"log"
	"os"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/go-petr/ledger-bank/internal/accountrepo"
	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/configpkg"
	"github.com/go-petr/ledger-bank/pkg/randompkg"
)

var (
	testRepo        *RepoPGS
	testAccountRepo *accountrepo.RepoPGS
)

func TestMain(m *testing.M) {
	config, err := configpkg.Load("../../configs")
	if err != nil {
		log.Fatal("cannot load config:", err)
	}

	testDB, err := sql.Open(config.DBDriver, config.DBSource)
	if err != nil {
		log.Fatal("cannot connect to db:", err)
	}

	testRepo = NewRepoPGS(testDB)
	testAccountRepo = accountrepo.NewRepoPGS(testDB)

	os.Exit(m.Run())
}

func createRandomAccount(t *testing.T) domain.Account {
	t.Helper()

	account, err := testAccountRepo.Create(
		context.Background(),
		randompkg.Name(),
		randompkg.MoneyAmountBetween(1_000, 10_000),
	)
	require.NoError(t, err)
	require.NotZero(t, account.ID)

	return account
}

func appendRandomTransaction(t *testing.T, account domain.Account, balanceAfter string) domain.Transaction {
	t.Helper()

	arg := AppendParams{
		AccountID:    account.ID,
		Type:         domain.TransactionTypeDeposit,
		Amount:       randompkg.MoneyAmountBetween(100, 1_000),
		BalanceAfter: balanceAfter,
		Description:  randompkg.String(10),
	}

	transaction, err := testRepo.Append(context.Background(), arg)
	require.NoError(t, err)
	require.NotEmpty(t, transaction)

	require.Equal(t, arg.AccountID, transaction.AccountID)
	require.Equal(t, arg.Type, transaction.Type)
	require.Equal(t, arg.Description, transaction.Description)

	require.NotZero(t, transaction.ID)
	require.NotZero(t, transaction.CreatedAt)

	return transaction
}

func TestAppend(t *testing.T) {
	account := createRandomAccount(t)
	appendRandomTransaction(t, account, account.Balance)
}

func TestAppendConstraintViolations(t *testing.T) {
	account := createRandomAccount(t)

	testCases := []struct {
		name          string
		arg           AppendParams
		checkResponse func(response domain.Transaction, err error)
	}{
		{
			name: "ErrAccountNotFound",
			arg: AppendParams{
				AccountID:    -1,
				Type:         domain.TransactionTypeDeposit,
				Amount:       "100",
				BalanceAfter: "100",
			},
			checkResponse: func(response domain.Transaction, err error) {
				require.EqualError(t, err, domain.ErrAccountNotFound.Error())
				require.Empty(t, response)
			},
		},
		{
			name: "ErrNegativeAmount",
			arg: AppendParams{
				AccountID:    account.ID,
				Type:         domain.TransactionTypeWithdrawal,
				Amount:       "-100",
				BalanceAfter: account.Balance,
			},
			checkResponse: func(response domain.Transaction, err error) {
				require.EqualError(t, err, domain.ErrNegativeAmount.Error())
				require.Empty(t, response)
			},
		},
		{
			name: "ZeroAmount",
			arg: AppendParams{
				AccountID:    account.ID,
				Type:         domain.TransactionTypeDeposit,
				Amount:       "0",
				BalanceAfter: account.Balance,
			},
			checkResponse: func(response domain.Transaction, err error) {
				require.EqualError(t, err, domain.ErrNegativeAmount.Error())
				require.Empty(t, response)
			},
		},
	}

	for i := range testCases {
		tc := testCases[i]

		t.Run(tc.name, func(t *testing.T) {
			response, err := testRepo.Append(context.Background(), tc.arg)

			tc.checkResponse(response, err)
		})
	}
}

func TestListNewestFirst(t *testing.T) {
	account := createRandomAccount(t)

	n := 5
	for i := 0; i < n; i++ {
		appendRandomTransaction(t, account, account.Balance)
	}

	transactions, err := testRepo.List(context.Background(), account.ID, int32(n))
	require.NoError(t, err)
	require.Len(t, transactions, n)

	for i, transaction := range transactions {
		require.Equal(t, account.ID, transaction.AccountID)

		if i > 0 {
			require.Less(t, transaction.ID, transactions[i-1].ID)
			require.False(t, transactions[i-1].CreatedAt.Before(transaction.CreatedAt))
		}
	}
}

func TestListLimit(t *testing.T) {
	account := createRandomAccount(t)

	for i := 0; i < 5; i++ {
		appendRandomTransaction(t, account, account.Balance)
	}

	transactions, err := testRepo.List(context.Background(), account.ID, 3)
	require.NoError(t, err)
	require.Len(t, transactions, 3)
}

func TestListEmpty(t *testing.T) {
	account := createRandomAccount(t)

	transactions, err := testRepo.List(context.Background(), account.ID, 10)
	require.NoError(t, err)
	require.Empty(t, transactions)
}
