// Package events publishes sale lifecycle events.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event types.
const (
	SaleCompleted = "sale.completed"
	SaleRefunded  = "sale.refunded"
)

// Event is the envelope written to the broker.
type Event struct {
	EventID   string      `json:"event_id"`
	EventType string      `json:"event_type"`
	Payload   SalePayload `json:"payload"`
	Timestamp time.Time   `json:"timestamp"`
}

// SalePayload describes the sale and the stock it moved.
type SalePayload struct {
	ID            string        `json:"id"`
	ReceiptNumber string        `json:"receipt_number"`
	UserID        string        `json:"user_id"`
	TotalAmount   string        `json:"total_amount"`
	Items         []ItemPayload `json:"items"`
}

type ItemPayload struct {
	ProductID string `json:"product_id"`
	Quantity  int    `json:"quantity"`
}

// New wraps a payload in an envelope with a fresh id.
func New(eventType string, payload SalePayload) Event {
	return Event{
		EventID:   uuid.NewString(),
		EventType: eventType,
		Payload:   payload,
		Timestamp: time.Now().UTC(),
	}
}

// Publisher sends events. Implementations must be safe for concurrent use.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
	Close() error
}

// Nop discards events. It is used when no broker is configured.
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
func (Nop) Close() error                         { return nil }
