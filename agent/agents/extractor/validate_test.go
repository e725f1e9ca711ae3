package extractor

import (
	"errors"
	"reflect"
	"testing"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
)

func TestParseResultFullObject(t *testing.T) {
	t.Parallel()

	res, err := ParseResult(`{
		"quantity_kg": 2,
		"delivery_day": "mañana",
		"address": null,
		"district": null,
		"payment_method": null,
		"confirmed": false,
		"missing_fields": ["address", "district", "payment_method"],
		"reply_text": "¡Perfecto! ¿A qué dirección lo enviamos?"
	}`)
	if err != nil {
		t.Fatalf("ParseResult() error = %v", err)
	}
	if res.QuantityKg == nil || *res.QuantityKg != 2 {
		t.Fatalf("QuantityKg = %v", res.QuantityKg)
	}
	if res.DeliveryDay == nil || *res.DeliveryDay != "mañana" {
		t.Fatalf("DeliveryDay = %v", res.DeliveryDay)
	}
	if res.Address != nil || res.District != nil || res.PaymentMethod != nil {
		t.Fatalf("expected nil text fields, got %+v", res.FormUpdate)
	}
	want := []statex.Field{statex.FieldAddress, statex.FieldDistrict, statex.FieldPaymentMethod}
	if !reflect.DeepEqual(res.MissingFields, want) {
		t.Fatalf("MissingFields = %v, want %v", res.MissingFields, want)
	}
	if res.Fallback {
		t.Fatal("parsed result must not be marked as fallback")
	}
}

func TestParseResultCoercions(t *testing.T) {
	t.Parallel()

	res, err := ParseResult("```json\n" + `{
		"quantity_kg": "1,5",
		"delivery_day": "  ",
		"address": 123,
		"district": "Surco",
		"payment_method": " yape ",
		"missing_fields": ["delivery_day", "DELIVERY_DAY", "confirmed"]
	}` + "\n```")
	if err != nil {
		t.Fatalf("ParseResult() error = %v", err)
	}
	if *res.QuantityKg != 1.5 {
		t.Fatalf("QuantityKg = %v, want 1.5", *res.QuantityKg)
	}
	if res.DeliveryDay != nil {
		t.Fatalf("blank delivery_day should be nil, got %q", *res.DeliveryDay)
	}
	if *res.Address != "123" {
		t.Fatalf("Address = %q, want 123", *res.Address)
	}
	if *res.PaymentMethod != "yape" {
		t.Fatalf("PaymentMethod = %q, want yape", *res.PaymentMethod)
	}
	if res.Confirmed {
		t.Fatal("absent confirmed must be false")
	}
	want := []statex.Field{statex.FieldDeliveryDay, statex.FieldConfirmed}
	if !reflect.DeepEqual(res.MissingFields, want) {
		t.Fatalf("MissingFields = %v, want %v", res.MissingFields, want)
	}
	if res.ReplyText != "" {
		t.Fatalf("ReplyText = %q, want empty", res.ReplyText)
	}
}

func TestParseResultRejections(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"prose":               "Claro, aquí tienes tu pedido",
		"empty":               "   ",
		"array":               `[1,2]`,
		"null":                `null`,
		"missing list absent": `{"confirmed": true}`,
		"missing list string": `{"missing_fields": "address"}`,
		"unknown field":       `{"missing_fields": ["price"]}`,
		"zero quantity":       `{"quantity_kg": 0, "missing_fields": []}`,
		"negative quantity":   `{"quantity_kg": -2, "missing_fields": []}`,
		"word quantity":       `{"quantity_kg": "dos", "missing_fields": []}`,
		"object address":      `{"address": {"street": "x"}, "missing_fields": []}`,
		"string confirmed":    `{"confirmed": "yes", "missing_fields": []}`,
		"numeric reply":       `{"reply_text": 5, "missing_fields": []}`,
	}

	for name, content := range cases {
		name, content := name, content
		t.Run(name, func(t *testing.T) {
			t.Parallel()
			_, err := ParseResult(content)
			if !errors.Is(err, contractx.ErrSchemaViolation) {
				t.Fatalf("ParseResult(%q) error = %v, want ErrSchemaViolation", content, err)
			}
		})
	}
}

func TestParseResultConfirmedWithEmptyMissing(t *testing.T) {
	t.Parallel()

	res, err := ParseResult(`{"quantity_kg":2,"delivery_day":"mañana","address":"Av. X","district":"Surco","payment_method":"yape","confirmed":true,"missing_fields":[],"reply_text":"¡Listo!"}`)
	if err != nil {
		t.Fatalf("ParseResult() error = %v", err)
	}
	if !res.ReadyToFinalize() {
		t.Fatalf("expected result ready to finalize: %+v", res)
	}
}

func TestStripCodeFence(t *testing.T) {
	t.Parallel()

	cases := map[string]string{
		"{}":                  "{}",
		"```json\n{}\n```":    "{}",
		"```\n{\"a\":1}\n```": "{\"a\":1}",
		"  {}  ":              "{}",
	}
	for in, want := range cases {
		if got := stripCodeFence(in); got != want {
			t.Fatalf("stripCodeFence(%q) = %q, want %q", in, got, want)
		}
	}
}
