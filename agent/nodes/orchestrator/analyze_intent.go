package orchestratornode

import (
	"context"
	"fmt"

	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

func AnalyzeIntent(ctx context.Context, in *GraphState, analyzer contractx.IntentAnalyzer) (*GraphState, error) {
	if in == nil {
		return nil, fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
	}

	in.Intent = analyzer.Analyze(ctx, in.Query)
	if in.Intent.RequiredInfo == nil {
		in.Intent.RequiredInfo = []string{}
	}
	in.State = contractx.StateSpecialistExecution
	return in, nil
}
