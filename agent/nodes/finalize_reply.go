package orchestratornode

import (
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/Chative-Order-Intake/agent/contract"
)

func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.Unavailable {
		return GraphOutput{Reply: contractx.UnavailableReply, Unavailable: true, NewForm: in.Created}, nil
	}

	reply := strings.TrimSpace(in.Result.ReplyText)
	if reply == "" {
		reply = contractx.DefaultReply
	}
	return GraphOutput{
		Reply:     reply,
		Finalized: in.Finalized,
		OrderID:   in.OrderID,
		Fallback:  in.Result.Fallback,
		NewForm:   in.Created,
		Changed:   in.Changed,
	}, nil
}
