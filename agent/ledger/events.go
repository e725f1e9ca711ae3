package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
)

const DefaultFinalizedSubject = "orders.finalized"

// Publisher is satisfied by *nats.Conn.
type Publisher interface {
	Publish(subject string, data []byte) error
}

type OrderFinalizedEvent struct {
	OrderID         string    `json:"order_id"`
	RecordedAt      time.Time `json:"recorded_at"`
	CustomerID      string    `json:"customer_id"`
	OriginalMessage string    `json:"original_message"`
	QuantityKg      *float64  `json:"quantity_kg"`
	DeliveryDay     *string   `json:"delivery_day"`
	Address         *string   `json:"address"`
	District        *string   `json:"district"`
	PaymentMethod   *string   `json:"payment_method"`
}

// EventLedger announces finalized orders on a message bus subject.
type EventLedger struct {
	pub     Publisher
	subject string
}

var _ contractx.Ledger = (*EventLedger)(nil)

func NewEventLedger(pub Publisher, subject string) (*EventLedger, error) {
	if pub == nil {
		return nil, errors.New("publisher is required")
	}
	subject = strings.TrimSpace(subject)
	if subject == "" {
		subject = DefaultFinalizedSubject
	}
	return &EventLedger{pub: pub, subject: subject}, nil
}

func (l *EventLedger) Append(ctx context.Context, entry contractx.LedgerEntry) error {
	if err := ctx.Err(); err != nil {
		return fmt.Errorf("%w: %v", contractx.ErrLedgerAppend, err)
	}

	form := entry.Form
	data, err := json.Marshal(OrderFinalizedEvent{
		OrderID:         entry.OrderID,
		RecordedAt:      entry.RecordedAt.UTC(),
		CustomerID:      entry.CustomerID,
		OriginalMessage: entry.OriginalMessage,
		QuantityKg:      form.QuantityKg,
		DeliveryDay:     form.DeliveryDay,
		Address:         form.Address,
		District:        form.District,
		PaymentMethod:   form.PaymentMethod,
	})
	if err != nil {
		return fmt.Errorf("%w: marshal event: %v", contractx.ErrLedgerAppend, err)
	}
	if err := l.pub.Publish(l.subject, data); err != nil {
		return fmt.Errorf("%w: publish %s: %v", contractx.ErrLedgerAppend, l.subject, err)
	}
	return nil
}
