// Package transactionrepo manages repository layer of the append-only transaction log.
package transactionrepo

import (
	"context"

	"github.com/go-petr/ledger-bank/internal/domain"
	"github.com/go-petr/ledger-bank/pkg/dbpkg"
	"github.com/go-petr/ledger-bank/pkg/errorspkg"

	"github.com/lib/pq"
	"github.com/rs/zerolog"
)

// RepoPGS facilitates transaction repository layer logic.
// Records are only ever inserted; nothing updates or deletes them.
type RepoPGS struct {
	db dbpkg.SQLInterface
}

// NewRepoPGS returns transaction RepoPGS.
func NewRepoPGS(db dbpkg.SQLInterface) *RepoPGS {
	return &RepoPGS{db: db}
}

// AppendParams is the input data for appending one transaction record.
type AppendParams struct {
	AccountID    int32
	Type         domain.TransactionType
	Amount       string
	BalanceAfter string
	Description  string
}

const appendQuery = `
INSERT INTO
    transactions (account_id, type, amount, balance_after, description)
VALUES
    ($1, $2, $3, $4, $5)
RETURNING id, account_id, type, amount, balance_after, description, created_at
`

// Append inserts one immutable transaction record and then returns it.
func (r *RepoPGS) Append(ctx context.Context, arg AppendParams) (domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	row := r.db.QueryRowContext(ctx, appendQuery,
		arg.AccountID,
		arg.Type,
		arg.Amount,
		arg.BalanceAfter,
		arg.Description,
	)

	var t domain.Transaction

	err := row.Scan(
		&t.ID,
		&t.AccountID,
		&t.Type,
		&t.Amount,
		&t.BalanceAfter,
		&t.Description,
		&t.CreatedAt,
	)

	if err != nil {
		l.Error().Err(err).Msgf("Append(ctx, %+v)", arg)

		if pqErr, ok := err.(*pq.Error); ok {
			switch pqErr.Constraint {
			case "transactions_account_id_fkey":
				return t, domain.ErrAccountNotFound
			case "transactions_amount_check":
				return t, domain.ErrNegativeAmount
			}

			// Retryable write collisions pass through unmasked.
			if pqErr.Code == "40001" || pqErr.Code == "40P01" {
				return t, err
			}
		}

		return t, errorspkg.ErrInternal
	}

	return t, nil
}

const listQuery = `
SELECT id, account_id, type, amount, balance_after, description, created_at
FROM transactions
WHERE account_id = $1
ORDER BY id DESC
LIMIT $2
`

// List returns up to limit most recent transactions for the given account,
// newest first. Ordering is by id so that equal timestamps cannot reorder
// the history.
func (r *RepoPGS) List(ctx context.Context, accountID, limit int32) ([]domain.Transaction, error) {
	l := zerolog.Ctx(ctx)

	rows, err := r.db.QueryContext(ctx, listQuery, accountID, limit)
	if err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}
	defer rows.Close()

	items := []domain.Transaction{}

	for rows.Next() {
		var t domain.Transaction
		if err := rows.Scan(
			&t.ID,
			&t.AccountID,
			&t.Type,
			&t.Amount,
			&t.BalanceAfter,
			&t.Description,
			&t.CreatedAt,
		); err != nil {
			l.Error().Err(err).Send()
			return nil, errorspkg.ErrInternal
		}

		items = append(items, t)
	}

	if err := rows.Close(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	if err := rows.Err(); err != nil {
		l.Error().Err(err).Send()
		return nil, errorspkg.ErrInternal
	}

	return items, nil
}
