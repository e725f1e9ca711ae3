package orchestratornode

import (
	"context"
	"errors"
	"fmt"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
)

func Extract(ctx context.Context, in *GraphState, extractor contractx.Extractor) (*GraphState, error) {
	if in == nil || in.Form == nil {
		return nil, fmt.Errorf("%w: graph form is nil", contractx.ErrValidation)
	}

	res, err := extractor.Extract(ctx, contractx.ExtractionRequest{
		CustomerID:  in.CustomerID,
		CurrentForm: *in.Form.Clone(),
		NewMessage:  in.Text,
	})
	if errors.Is(err, contractx.ErrExtractorUnavailable) {
		in.Unavailable = true
		return in, nil
	}
	if err != nil {
		return nil, err
	}

	in.Result = res
	return in, nil
}
