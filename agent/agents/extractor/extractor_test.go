package extractor

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
)

type fakeStep struct {
	content string
	err     error
	block   bool
}

type fakeChatModel struct {
	mu     sync.Mutex
	steps  []fakeStep
	calls  int
	inputs [][]*schema.Message
}

func (f *fakeChatModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	f.mu.Lock()
	idx := f.calls
	f.calls++
	f.inputs = append(f.inputs, input)
	f.mu.Unlock()

	if idx >= len(f.steps) {
		return nil, errors.New("no fake response left")
	}
	step := f.steps[idx]
	if step.block {
		<-ctx.Done()
		return nil, ctx.Err()
	}
	if step.err != nil {
		return nil, step.err
	}
	return schema.AssistantMessage(step.content, nil), nil
}

func (f *fakeChatModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *fakeChatModel) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

func newTestExtractor(t *testing.T, model *fakeChatModel, retry RetryPolicy) *Extractor {
	t.Helper()
	e, err := New(context.Background(), model, "system prompt", retry)
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	e.sleep = func(ctx context.Context, d time.Duration) error { return ctx.Err() }
	return e
}

func sampleRequest() contractx.ExtractionRequest {
	form := statex.NewOrderForm("+51999999999", time.Now())
	form.Merge(statex.FormUpdate{QuantityKg: statex.Float(2), DeliveryDay: statex.String("mañana")})
	return contractx.ExtractionRequest{
		CustomerID:  "+51999999999",
		CurrentForm: *form,
		NewMessage:  "Surco, Av. X, pago con yape, confirma",
	}
}

func TestExtractSuccessSendsFormAndMessage(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{steps: []fakeStep{{
		content: `{"quantity_kg":null,"delivery_day":null,"address":"Av. X","district":"Surco","payment_method":"yape","confirmed":true,"missing_fields":[],"reply_text":"¡Pedido confirmado!"}`,
	}}}
	e := newTestExtractor(t, model, RetryPolicy{MaxAttempts: 3})

	res, err := e.Extract(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !res.ReadyToFinalize() || res.ReplyText != "¡Pedido confirmado!" {
		t.Fatalf("unexpected result: %+v", res)
	}
	if res.QuantityKg != nil {
		t.Fatalf("QuantityKg = %v, want nil (no update)", *res.QuantityKg)
	}

	if len(model.inputs) != 1 || len(model.inputs[0]) != 2 {
		t.Fatalf("unexpected model input: %#v", model.inputs)
	}
	user := model.inputs[0][1].Content
	for _, want := range []string{`"customer_id":"+51999999999"`, `"quantity_kg":2`, `"new_message":"Surco, Av. X, pago con yape, confirma"`} {
		if !strings.Contains(user, want) {
			t.Fatalf("user message %s does not contain %s", user, want)
		}
	}
}

func TestExtractMalformedOutputReturnsFallback(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{steps: []fakeStep{{content: "lo siento, no entendí"}}}
	e := newTestExtractor(t, model, RetryPolicy{MaxAttempts: 3})

	req := sampleRequest()
	req.CurrentForm.Confirmed = true
	res, err := e.Extract(context.Background(), req)
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if !res.Fallback || res.Confirmed {
		t.Fatalf("expected unconfirmed fallback, got %+v", res)
	}
	if len(res.MissingFields) != 6 {
		t.Fatalf("MissingFields = %v, want all six", res.MissingFields)
	}
	if res.ReplyText != contractx.FallbackReply {
		t.Fatalf("ReplyText = %q", res.ReplyText)
	}
	if res.QuantityKg == nil || *res.QuantityKg != 2 {
		t.Fatalf("fallback must keep current quantity, got %v", res.QuantityKg)
	}
	if model.callCount() != 1 {
		t.Fatalf("malformed output must not be retried, calls = %d", model.callCount())
	}
}

func TestExtractRetriesTransportFailures(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{steps: []fakeStep{
		{err: errors.New("502 bad gateway")},
		{content: `{"quantity_kg":3,"missing_fields":["address"],"reply_text":"ok"}`},
	}}
	e := newTestExtractor(t, model, RetryPolicy{MaxAttempts: 3})

	res, err := e.Extract(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if *res.QuantityKg != 3 {
		t.Fatalf("QuantityKg = %v, want 3", *res.QuantityKg)
	}
	if model.callCount() != 2 {
		t.Fatalf("calls = %d, want 2", model.callCount())
	}
}

func TestExtractUnavailableAfterMaxAttempts(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{steps: []fakeStep{
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{err: errors.New("connection refused")},
		{content: `{"missing_fields":[]}`},
	}}
	e := newTestExtractor(t, model, RetryPolicy{MaxAttempts: 3})

	_, err := e.Extract(context.Background(), sampleRequest())
	if !errors.Is(err, contractx.ErrExtractorUnavailable) {
		t.Fatalf("Extract() error = %v, want ErrExtractorUnavailable", err)
	}
	if errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("unavailable must be distinct from schema violation: %v", err)
	}
	if model.callCount() != 3 {
		t.Fatalf("calls = %d, want 3", model.callCount())
	}
}

func TestExtractPerAttemptTimeout(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{steps: []fakeStep{
		{block: true},
		{content: `{"missing_fields":["quantity_kg"],"reply_text":"¿Cuántos kilos?"}`},
	}}
	e := newTestExtractor(t, model, RetryPolicy{MaxAttempts: 2, AttemptTimeout: 20 * time.Millisecond})

	res, err := e.Extract(context.Background(), sampleRequest())
	if err != nil {
		t.Fatalf("Extract() error = %v", err)
	}
	if res.ReplyText != "¿Cuántos kilos?" {
		t.Fatalf("ReplyText = %q", res.ReplyText)
	}
}

func TestExtractStopsOnCallerCancellation(t *testing.T) {
	t.Parallel()

	model := &fakeChatModel{steps: []fakeStep{
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
		{err: errors.New("timeout")},
	}}
	e := newTestExtractor(t, model, RetryPolicy{MaxAttempts: 3})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.Extract(ctx, sampleRequest())
	if !errors.Is(err, contractx.ErrExtractorUnavailable) {
		t.Fatalf("Extract() error = %v, want ErrExtractorUnavailable", err)
	}
	if model.callCount() > 1 {
		t.Fatalf("calls = %d, want at most 1 after cancellation", model.callCount())
	}
}

func TestNewValidatesDependencies(t *testing.T) {
	t.Parallel()

	if _, err := New(context.Background(), nil, "prompt", RetryPolicy{}); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("New(nil model) error = %v", err)
	}
	if _, err := New(context.Background(), &fakeChatModel{}, " ", RetryPolicy{}); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("New(empty prompt) error = %v", err)
	}
}

func TestSleepContext(t *testing.T) {
	t.Parallel()

	if err := sleepContext(context.Background(), time.Millisecond); err != nil {
		t.Fatalf("sleepContext() error = %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if err := sleepContext(ctx, time.Hour); !errors.Is(err, context.Canceled) {
		t.Fatalf("sleepContext() error = %v, want context.Canceled", err)
	}
}
