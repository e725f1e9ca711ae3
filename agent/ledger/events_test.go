package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
)

type fakePublisher struct {
	subject string
	data    []byte
	err     error
}

func (f *fakePublisher) Publish(subject string, data []byte) error {
	if f.err != nil {
		return f.err
	}
	f.subject = subject
	f.data = append([]byte(nil), data...)
	return nil
}

func TestEventLedgerPublishesOrder(t *testing.T) {
	t.Parallel()

	pub := &fakePublisher{}
	l, err := NewEventLedger(pub, "")
	if err != nil {
		t.Fatalf("NewEventLedger() error = %v", err)
	}

	if err := l.Append(context.Background(), sampleEntry("+51999999999", time.Now())); err != nil {
		t.Fatalf("Append() error = %v", err)
	}
	if pub.subject != DefaultFinalizedSubject {
		t.Fatalf("subject = %q", pub.subject)
	}

	var ev OrderFinalizedEvent
	if err := json.Unmarshal(pub.data, &ev); err != nil {
		t.Fatalf("decode event: %v", err)
	}
	if ev.OrderID != "order-1" || ev.CustomerID != "+51999999999" {
		t.Fatalf("unexpected event: %+v", ev)
	}
	if ev.District == nil || *ev.District != "Surco" {
		t.Fatalf("District = %v", ev.District)
	}
}

func TestEventLedgerPublishError(t *testing.T) {
	t.Parallel()

	l, _ := NewEventLedger(&fakePublisher{err: errors.New("nats: connection closed")}, "orders.done")
	if err := l.Append(context.Background(), sampleEntry("c1", time.Now())); !errors.Is(err, contractx.ErrLedgerAppend) {
		t.Fatalf("Append() error = %v, want ErrLedgerAppend", err)
	}
	if _, err := NewEventLedger(nil, ""); err == nil {
		t.Fatal("expected error for nil publisher")
	}
}
