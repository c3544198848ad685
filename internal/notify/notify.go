// Package notify delivers outbound customer notifications. Delivery is
// best-effort: a failed notification is logged and never rolls back the state
// transition that produced it.
package notify

import "context"

type Kind string

const (
	KindPaymentSuccess Kind = "payment_success"
	KindShipped        Kind = "shipped"
	KindBackInStock    Kind = "back_in_stock"
)

// Event is one outbound notification.
type Event struct {
	Kind      Kind                   `json:"kind"`
	Recipient string                 `json:"recipient"`
	Payload   map[string]interface{} `json:"payload"`
}

// Sink delivers events to an external channel.
type Sink interface {
	Notify(ctx context.Context, ev Event) error
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Notify(ctx context.Context, ev Event) error { return nil }
