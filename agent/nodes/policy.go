package orchestratornode

import (
	"context"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
	statex "github.com/tanpawarit/Chative-Order-Intake/agent/state"
)

// PostConfirmPolicy decides what happens to a form once its order is recorded.
type PostConfirmPolicy string

const (
	// PolicyKeep leaves the confirmed form as the next turn's baseline.
	PolicyKeep PostConfirmPolicy = "keep"
	// PolicyReset replaces it with a fresh form.
	PolicyReset PostConfirmPolicy = "reset"
)

func ParsePostConfirmPolicy(raw string) (PostConfirmPolicy, error) {
	switch p := PostConfirmPolicy(strings.ToLower(strings.TrimSpace(raw))); p {
	case "", PolicyKeep:
		return PolicyKeep, nil
	case PolicyReset:
		return PolicyReset, nil
	default:
		return "", fmt.Errorf("%w: unknown post-confirm policy %q", contractx.ErrValidation, raw)
	}
}

func ApplyPolicy(
	ctx context.Context,
	in *GraphState,
	store statex.Store,
	policy PostConfirmPolicy,
) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}
	if !in.Finalized || policy != PolicyReset {
		return in, nil
	}

	fresh := statex.NewOrderForm(in.CustomerID, in.Now)
	if err := store.Save(ctx, fresh); err != nil {
		return nil, fmt.Errorf("reset form after order %s: %w", in.OrderID, err)
	}
	in.Form = fresh
	in.Reset = true
	return in, nil
}
