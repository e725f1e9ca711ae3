package orchestratornode

import (
	"fmt"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
)

func MergeForm(in *GraphState) (*GraphState, error) {
	if in == nil || in.Form == nil {
		return nil, fmt.Errorf("%w: graph form is nil", contractx.ErrValidation)
	}
	if in.Unavailable {
		return in, nil
	}

	in.Changed = in.Form.Merge(in.Result.FormUpdate)
	in.Form.Touch(in.Now)
	return in, nil
}
