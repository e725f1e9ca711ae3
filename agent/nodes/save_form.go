package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
)

func SaveForm(ctx context.Context, in *GraphState, store statex.Store) (*GraphState, error) {
	if in == nil || in.Form == nil {
		return nil, fmt.Errorf("%w: graph form is nil", contractx.ErrValidation)
	}
	if in.Unavailable {
		return in, nil
	}

	if err := in.Form.Validate(); err != nil {
		return nil, fmt.Errorf("form validation failed: %w", err)
	}
	if err := store.Save(ctx, in.Form); err != nil {
		return nil, fmt.Errorf("save form: %w", err)
	}
	return in, nil
}
