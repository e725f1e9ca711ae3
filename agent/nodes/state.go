package orchestratornode

import (
	"time"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
)

type GraphInput struct {
	CustomerID string
	Text       string
}

type GraphOutput struct {
	Reply     string
	Finalized bool
	OrderID   string
	Fallback  bool

	Unavailable bool
	NewForm     bool
	Changed     []statex.Field
}

// GraphState travels through every node of one turn.
type GraphState struct {
	CustomerID string
	Text       string
	Now        time.Time

	Form    *statex.OrderForm
	Created bool

	Result contractx.ExtractionResult
	// Unavailable is set when the extractor could not be reached; later
	// nodes leave the form and ledger untouched.
	Unavailable bool
	Changed     []statex.Field

	Finalized bool
	OrderID   string
	Reset     bool
}
