package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

// ReasonCustomerSelected is the routing reason when the caller forces a domain.
const ReasonCustomerSelected = "domain selected by customer"

const clarificationMessage = "Please tell me what you need help with, for example an order, an account or a phone plan."

// Route fills the routing decision from the override or the classifier.
func Route(ctx context.Context, in *GraphState, classifier contractx.Classifier) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	if in.Override != nil {
		in.Routing = contractx.RoutingDecision{
			Domain:     *in.Override,
			Confidence: contractx.ConfidenceHigh,
			Reason:     ReasonCustomerSelected,
		}
	} else {
		in.Routing = classifier.Classify(ctx, in.Query)
	}
	if !in.Routing.Domain.Valid() {
		in.Routing = contractx.RoutingDecision{
			Domain:     contractx.FallbackDomain,
			Confidence: contractx.ConfidenceLow,
			Reason:     fmt.Sprintf("unsupported domain %q; defaulting to %s", in.Routing.Domain, contractx.FallbackDomain),
		}
	}

	log.Ctx(ctx).Info().
		Str("component", "dispatch").
		Str("domain", string(in.Routing.Domain)).
		Str("confidence", string(in.Routing.Confidence)).
		Str("reason", in.Routing.Reason).
		Msg("query routed")

	in.State = contractx.StateIntentAnalysis
	return in, nil
}

// AskForQuery answers an empty query without consulting any model.
func AskForQuery(in *GraphState) (GraphOutput, error) {
	if in == nil {
		return GraphOutput{}, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	domain := contractx.FallbackDomain
	reason := "empty query"
	if in.Override != nil {
		domain = *in.Override
		reason = ReasonCustomerSelected
	}
	return GraphOutput{
		ResponseText:  clarificationMessage,
		Domain:        domain,
		RoutingReason: reason,
		Confidence:    contractx.ConfidenceLow,
		Intent:        contractx.DefaultIntent(),
		State:         contractx.StateCompleted,
	}, nil
}
