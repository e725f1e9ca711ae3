package contract

import (
	"time"

	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
)

const (
	DefaultReply     = "Recibido 👍"
	FallbackReply    = "Tuve un problema interpretando tu mensaje 🤖. ¿Cuántos kilos de filete de salmón deseas?"
	UnavailableReply = "Estamos con problemas para procesar tu mensaje en este momento. ¿Puedes intentarlo de nuevo en unos minutos?"
)

type ExtractionRequest struct {
	CustomerID  string           `json:"customer_id"`
	CurrentForm statex.OrderForm `json:"current_form"`
	NewMessage  string           `json:"new_message"`
}

// ExtractionResult is one turn of model judgment. Nil data fields mean "no update".
type ExtractionResult struct {
	statex.FormUpdate
	MissingFields []statex.Field `json:"missing_fields"`
	ReplyText     string         `json:"reply_text"`

	// Fallback marks a result synthesized after malformed model output.
	Fallback bool `json:"-"`
}

// ReadyToFinalize is the double gate: confirmed and nothing missing, both
// as reported in this result.
func (r ExtractionResult) ReadyToFinalize() bool {
	return r.Confirmed && len(r.MissingFields) == 0
}

// FallbackResult keeps the current form values, never confirms and reports
// every field as missing.
func FallbackResult(current statex.OrderForm) ExtractionResult {
	update := statex.UpdateFromForm(current)
	update.Confirmed = false
	return ExtractionResult{
		FormUpdate:    update,
		MissingFields: statex.AllFields(),
		ReplyText:     FallbackReply,
		Fallback:      true,
	}
}

type LedgerEntry struct {
	OrderID         string           `json:"order_id"`
	RecordedAt      time.Time        `json:"recorded_at"`
	CustomerID      string           `json:"customer_id"`
	OriginalMessage string           `json:"original_message"`
	Form            statex.OrderForm `json:"form"`
}
