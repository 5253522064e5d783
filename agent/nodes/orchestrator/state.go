package orchestratornode

import (
	"time"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

type GraphInput struct {
	Text            string
	CustomerContext map[string]string
	Override        *contractx.Domain
	History         []contractx.ChatTurn
}

// GraphState travels through every node of the dispatch graph.
type GraphState struct {
	Query      contractx.Query
	Override   *contractx.Domain
	History    []contractx.ChatTurn
	Now        time.Time
	State      contractx.DispatchState
	Routing    contractx.RoutingDecision
	Intent     contractx.IntentAssessment
	Specialist contractx.Specialist
	Missing    []string
	Reply      contractx.SpecialistResponse
	Err        error
}

type GraphOutput = contractx.Response

// ValidateRequest builds the initial state. It never rejects input: an empty query is
// answered with a clarification request by AskForQuery.
func ValidateRequest(in GraphInput, now func() time.Time) (*GraphState, error) {
	st := &GraphState{
		Query:   contractx.NewQuery(in.Text, in.CustomerContext),
		History: append([]contractx.ChatTurn(nil), in.History...),
		Now:     now(),
		State:   contractx.StateRouting,
		Intent:  contractx.DefaultIntent(),
	}
	if in.Override != nil && in.Override.Valid() {
		d := *in.Override
		st.Override = &d
	}
	return st, nil
}

// HasQuery reports whether there is anything to dispatch.
func HasQuery(in *GraphState) bool {
	return in != nil && in.Query.Text != ""
}
