// Package events provides publishers for ledger domain events.
package events

import "context"

// TopicTransactionCompleted receives one event per recorded transaction.
const TopicTransactionCompleted = "ledger.transaction_completed"

// NopPublisher discards all events. Wired when no broker is configured.
type NopPublisher struct{}

// Publish discards the event.
func (NopPublisher) Publish(ctx context.Context, topic string, event any) error {
	return nil
}
