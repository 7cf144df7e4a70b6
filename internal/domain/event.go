package domain

import "time"

// TransactionCompletedEvent is published after a transaction has been
// durably recorded.
type TransactionCompletedEvent struct {
	TransactionID int64           `json:"transaction_id"`
	AccountID     int32           `json:"account_id"`
	Type          TransactionType `json:"type"`
	Amount        string          `json:"amount"`
	BalanceAfter  string          `json:"balance_after"`
	OccurredAt    time.Time       `json:"occurred_at"`
}
