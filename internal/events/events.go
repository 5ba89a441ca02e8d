// Package events carries order lifecycle notifications to dashboards and
// downstream consumers.
package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"millorders/internal/model"

	"github.com/google/uuid"
)

// Event types
const (
	TypeOrderCreated       = "order.created"
	TypeOrderUpdated       = "order.updated"
	TypeOrderStatusChanged = "order.status_changed"
	TypeOrderPayment       = "order.payment_recorded"
	TypeOrderOverdue       = "order.overdue"
)

// Event is the JSON payload sent to every sink
type Event struct {
	Type          string              `json:"type"`
	OrderID       string              `json:"order_id"`
	OrderNumber   string              `json:"order_number"`
	Status        model.OrderStatus   `json:"status"`
	PaymentStatus model.PaymentStatus `json:"payment_status"`
	Action        string              `json:"action,omitempty"`
	ActorID       string              `json:"actor_id,omitempty"`
	TotalAmount   string              `json:"total_amount"`
	OccurredAt    time.Time           `json:"occurred_at"`
}

// Publisher delivers an event to one sink
type Publisher interface {
	Publish(ctx context.Context, evt Event) error
}

// NewOrderEvent snapshots o into an event. actor may be uuid.Nil for scheduled jobs.
func NewOrderEvent(eventType string, o model.Order, action string, actor uuid.UUID) Event {
	evt := Event{
		Type:          eventType,
		OrderID:       o.ID.String(),
		OrderNumber:   o.OrderNumber,
		Status:        o.Status,
		PaymentStatus: o.PaymentStatus,
		Action:        action,
		TotalAmount:   o.TotalAmount.StringFixed(2),
		OccurredAt:    time.Now().UTC(),
	}
	if actor != uuid.Nil {
		evt.ActorID = actor.String()
	}
	return evt
}

// Fanout publishes to every sink; one failing sink does not stop the others.
// The returned error names each failed sink and is left to the caller to log.
type Fanout struct {
	publishers []Publisher
}

func NewFanout(publishers ...Publisher) *Fanout {
	return &Fanout{publishers: publishers}
}

func (f *Fanout) Publish(ctx context.Context, evt Event) error {
	var errs []error
	for _, p := range f.publishers {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, fmt.Errorf("%T: %w", p, err))
		}
	}
	return errors.Join(errs...)
}

// Nop discards events
type Nop struct{}

func (Nop) Publish(context.Context, Event) error { return nil }
