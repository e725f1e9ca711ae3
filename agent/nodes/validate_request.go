package orchestratornode

import (
	"strings"
	"time"

	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
)

var ErrInvalidCustomer = statex.ErrInvalidCustomer

// ValidateRequest only requires a customer id. Empty text is a valid turn.
func ValidateRequest(in GraphInput, nowFn func() time.Time) (*GraphState, error) {
	customerID := strings.TrimSpace(in.CustomerID)
	if customerID == "" {
		return nil, ErrInvalidCustomer
	}

	return &GraphState{
		CustomerID: customerID,
		Text:       in.Text,
		Now:        nowFn(),
	}, nil
}
