package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
)

func LoadOrCreateForm(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	form, err := store.Load(ctx, in.CustomerID)
	switch {
	case err == nil:
		in.Form = form
	case errors.Is(err, statex.ErrFormNotFound):
		in.Form = statex.NewOrderForm(in.CustomerID, in.Now)
		in.Created = true
	default:
		return nil, fmt.Errorf("load form: %w", err)
	}
	return in, nil
}
