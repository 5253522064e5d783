package orchestratornode

import (
	"fmt"
	"regexp"
	"strings"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	toolx "github.com/tanpawarit/support-dispatch/agent/tool"
)

var escalationIDPattern = regexp.MustCompile(`ESC_\d{8}_\d{6}_[0-9a-f]{6}`)

// FailureMessage is the customer-facing text for a request the completion capability could not serve.
func FailureMessage(err error) string {
	return fmt.Sprintf("I apologize, but I encountered an error while processing your request: %v. Please try again or contact support.", err)
}

// FinalizeReply decides the terminal state and assembles the response.
func FinalizeReply(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	out := GraphOutput{
		Domain:         in.Routing.Domain,
		SpecialistRole: in.Specialist.Role,
		RoutingReason:  in.Routing.Reason,
		Confidence:     in.Routing.Confidence,
		Intent:         in.Intent,
		ToolCalls:      in.Reply.ToolCalls,
	}

	if in.Err != nil || in.State == contractx.StateFailed {
		err := in.Err
		if err == nil {
			err = fmt.Errorf("%w: no reply produced", contractx.ErrModelInvoke)
		}
		out.State = contractx.StateFailed
		out.ResponseText = FailureMessage(err)
		return out, nil
	}

	reply := strings.TrimSpace(in.Reply.Message)
	if confirmation, ok := escalationConfirmation(in.Reply.ToolCalls); ok {
		out.State = contractx.StateEscalated
		id := escalationIDPattern.FindString(confirmation)
		if reply == "" {
			reply = confirmation
		} else if id != "" && !strings.Contains(reply, id) {
			reply += "\n\n" + confirmation
		}
	} else {
		out.State = contractx.StateCompleted
	}

	out.ResponseText = reply
	return out, nil
}

// escalationConfirmation returns the text of the last successful escalation, if any.
func escalationConfirmation(exchanges []contractx.ToolExchange) (string, bool) {
	for i := len(exchanges) - 1; i >= 0; i-- {
		ex := exchanges[i]
		if ex.Call.Name == toolx.ToolEscalateToHuman && !ex.Result.IsError {
			return ex.Result.Text, true
		}
	}
	return "", false
}
