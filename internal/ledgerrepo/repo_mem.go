package ledgerrepo

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/shopspring/decimal"
)

// RepoMem is the in-memory counterpart of RepoPGS. It serializes
// mutations with one mutex per account, so operations on different
// accounts never block each other. Useful for local runs and tests
// that need no database.
type RepoMem struct {
	mu                sync.RWMutex // guards the accounts map
	nextAccountID     int32
	nextTransactionID int64
	accounts          map[int32]*memAccount
}

type memAccount struct {
	mu           sync.Mutex // serializes mutations on this account
	account      domain.Account
	balance      decimal.Decimal
	transactions []domain.Transaction
}

// NewRepoMem returns an empty in-memory ledger store.
func NewRepoMem() *RepoMem {
	return &RepoMem{
		accounts: make(map[int32]*memAccount),
	}
}

// CreateAccount creates the account and, for a nonzero initial deposit,
// records the first transaction. Both become visible together.
func (r *RepoMem) CreateAccount(ctx context.Context, arg domain.CreateAccountParams) (domain.AccountTxResult, error) {
	var result domain.AccountTxResult

	deposit, err := decimal.NewFromString(arg.InitialDeposit)
	if err != nil {
		return result, domain.ErrInvalidAmount
	}

	if deposit.IsNegative() {
		return result, domain.ErrNegativeAmount
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	r.nextAccountID++

	a := &memAccount{
		account: domain.Account{
			ID:        r.nextAccountID,
			Name:      arg.Name,
			Balance:   deposit.String(),
			CreatedAt: time.Now().UTC(),
		},
		balance: deposit,
	}

	if deposit.IsPositive() {
		transaction := domain.Transaction{
			ID:           atomic.AddInt64(&r.nextTransactionID, 1),
			AccountID:    a.account.ID,
			Type:         domain.TransactionTypeDeposit,
			Amount:       deposit.String(),
			BalanceAfter: deposit.String(),
			Description:  initialDepositDescription,
			CreatedAt:    a.account.CreatedAt,
		}

		a.transactions = append(a.transactions, transaction)
		result.Transaction = &transaction
	}

	r.accounts[a.account.ID] = a
	result.Account = a.account

	return result, nil
}

// Deposit adds the amount to the account balance and appends the matching
// DEPOSIT transaction within the account's critical section.
func (r *RepoMem) Deposit(ctx context.Context, arg domain.CreateTransactionParams) (domain.TransactionTxResult, error) {
	return r.mutate(ctx, arg, domain.TransactionTypeDeposit)
}

// Withdraw subtracts the amount from the account balance and appends the
// matching WITHDRAWAL transaction within the account's critical section.
func (r *RepoMem) Withdraw(ctx context.Context, arg domain.CreateTransactionParams) (domain.TransactionTxResult, error) {
	return r.mutate(ctx, arg, domain.TransactionTypeWithdrawal)
}

func (r *RepoMem) mutate(_ context.Context, arg domain.CreateTransactionParams, transactionType domain.TransactionType) (domain.TransactionTxResult, error) {
	var result domain.TransactionTxResult

	amount, err := decimal.NewFromString(arg.Amount)
	if err != nil {
		return result, domain.ErrInvalidAmount
	}

	r.mu.RLock()
	a, ok := r.accounts[arg.AccountID]
	r.mu.RUnlock()

	if !ok {
		return result, domain.ErrAccountNotFound
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	var newBalance decimal.Decimal

	switch transactionType {
	case domain.TransactionTypeDeposit:
		newBalance = a.balance.Add(amount)
	case domain.TransactionTypeWithdrawal:
		if a.balance.LessThan(amount) {
			return result, &domain.InsufficientBalanceError{
				Balance:   a.balance.String(),
				Requested: arg.Amount,
			}
		}

		newBalance = a.balance.Sub(amount)
	}

	transaction := domain.Transaction{
		ID:           atomic.AddInt64(&r.nextTransactionID, 1),
		AccountID:    arg.AccountID,
		Type:         transactionType,
		Amount:       amount.String(),
		BalanceAfter: newBalance.String(),
		Description:  arg.Description,
		CreatedAt:    time.Now().UTC(),
	}

	a.balance = newBalance
	a.account.Balance = newBalance.String()
	a.transactions = append(a.transactions, transaction)

	result.Account = a.account
	result.Transaction = transaction

	return result, nil
}

// Get returns the current snapshot of the account.
func (r *RepoMem) Get(_ context.Context, id int32) (domain.Account, error) {
	r.mu.RLock()
	a, ok := r.accounts[id]
	r.mu.RUnlock()

	if !ok {
		return domain.Account{}, domain.ErrAccountNotFound
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	return a.account, nil
}

// List returns accounts ordered by id ascending.
func (r *RepoMem) List(_ context.Context, limit, offset int32) ([]domain.Account, error) {
	r.mu.RLock()

	ids := make([]int32, 0, len(r.accounts))
	for id := range r.accounts {
		ids = append(ids, id)
	}

	r.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	items := []domain.Account{}

	for _, id := range ids {
		if offset > 0 {
			offset--
			continue
		}

		if int32(len(items)) == limit {
			break
		}

		account, err := r.Get(context.Background(), id)
		if err != nil {
			continue
		}

		items = append(items, account)
	}

	return items, nil
}

// History returns up to limit most recent transactions of the account, newest first.
func (r *RepoMem) History(_ context.Context, accountID, limit int32) ([]domain.Transaction, error) {
	r.mu.RLock()
	a, ok := r.accounts[accountID]
	r.mu.RUnlock()

	if !ok {
		return nil, domain.ErrAccountNotFound
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	items := []domain.Transaction{}

	for i := len(a.transactions) - 1; i >= 0 && int32(len(items)) < limit; i-- {
		items = append(items, a.transactions[i])
	}

	return items, nil
}
