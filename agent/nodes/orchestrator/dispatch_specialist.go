package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	statex "github.com/tanpawarit/support-dispatch/agent/state"
)

// Selector picks a specialist for a routed query.
type Selector interface {
	Select(domain contractx.Domain, query string) contractx.Specialist
}

// SelectSpecialist picks the specialist and works out which identifying fields are still missing.
func SelectSpecialist(ctx context.Context, in *GraphState, selector Selector) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Specialist = selector.Select(in.Routing.Domain, in.Query.Text)
	in.Missing = statex.MissingFields(in.Routing.Domain, in.Query.CustomerContext)

	log.Ctx(ctx).Debug().
		Str("component", "dispatch").
		Str("specialist", in.Specialist.Role).
		Strs("missing_fields", in.Missing).
		Msg("specialist selected")
	return in, nil
}

// DispatchSpecialist runs the selected specialist. A runner error moves the request to the
// failed state instead of aborting the graph.
func DispatchSpecialist(ctx context.Context, in *GraphState, runner contractx.SpecialistRunner) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	resp, err := runner.Run(ctx, in.Specialist, contractx.SpecialistRequest{
		Query:         in.Query,
		Routing:       in.Routing,
		Intent:        in.Intent,
		MissingFields: in.Missing,
		History:       in.History,
	})
	in.Reply = resp
	if err != nil {
		log.Ctx(ctx).Error().
			Err(err).
			Str("component", "dispatch").
			Str("specialist", in.Specialist.Role).
			Msg("specialist failed")
		in.Err = err
		in.State = contractx.StateFailed
	}
	return in, nil
}
