package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
)

// RecordOrder appends a ledger entry when this turn's result passes the
// double gate. The form itself is not consulted for completeness.
func RecordOrder(
	ctx context.Context,
	in *GraphState,
	ledger contractx.Ledger,
	newID func() string,
) (*GraphState, error) {
	if in == nil || in.Form == nil {
		return nil, fmt.Errorf("%w: graph form is nil", contractx.ErrValidation)
	}
	if in.Unavailable || !in.Result.ReadyToFinalize() {
		return in, nil
	}

	entry := contractx.LedgerEntry{
		OrderID:         newID(),
		RecordedAt:      in.Now,
		CustomerID:      in.CustomerID,
		OriginalMessage: in.Text,
		Form:            *in.Form.Clone(),
	}
	if err := ledger.Append(ctx, entry); err != nil {
		return nil, fmt.Errorf("record order %s: %w", entry.OrderID, err)
	}

	in.Finalized = true
	in.OrderID = entry.OrderID
	return in, nil
}
