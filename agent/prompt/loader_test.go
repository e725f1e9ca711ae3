package prompt

import (
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if err := set.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	for _, key := range []string{"quantity_kg", "missing_fields", "reply_text", "confirmed"} {
		if !strings.Contains(set.Extractor, key) {
			t.Fatalf("extractor prompt does not mention %q", key)
		}
	}
}

func TestPromptSetValidate(t *testing.T) {
	t.Parallel()

	if err := (PromptSet{}).Validate(); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("Validate() error = %v, want ErrPromptMissing", err)
	}
	if err := (PromptSet{Extractor: "use {x}"}).Validate(); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("Validate() error = %v, want ErrValidation", err)
	}
}
