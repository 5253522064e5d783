package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	nodex "github.com/tanpawarit/support-dispatch/agent/nodes/orchestrator"
	"github.com/tanpawarit/support-dispatch/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// stateNode wraps a node body in its own span.
func stateNode(name string, fn func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error)) *compose.Lambda {
	return compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
		ctx, span := telemetry.Tracer().Start(ctx, "dispatch."+name)
		defer span.End()

		out, err := fn(ctx, in)
		if err != nil {
			span.RecordError(err)
			return nil, err
		}
		span.SetAttributes(attribute.String("dispatch.state", string(out.State)))
		return out, nil
	})
}

func (o *Orchestrator) compileDispatchGraph(ctx context.Context) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode("validate_request",
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.ValidateRequest(in, o.now)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node validate_request: %w", err)
	}

	if err := graph.AddLambdaNode("ask_for_query",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.AskForQuery(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node ask_for_query: %w", err)
	}

	if err := graph.AddLambdaNode("route", stateNode("route",
		func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.Route(ctx, in, o.classifier)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node route: %w", err)
	}

	if err := graph.AddLambdaNode("analyze_intent", stateNode("analyze_intent",
		func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.AnalyzeIntent(ctx, in, o.intent)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node analyze_intent: %w", err)
	}

	if err := graph.AddLambdaNode("select_specialist", stateNode("select_specialist",
		func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.SelectSpecialist(ctx, in, o.selector)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node select_specialist: %w", err)
	}

	if err := graph.AddLambdaNode("run_specialist", stateNode("run_specialist",
		func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.DispatchSpecialist(ctx, in, o.runner)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node run_specialist: %w", err)
	}

	if err := graph.AddLambdaNode("finalize_reply",
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node finalize_reply: %w", err)
	}

	branch := compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if !nodex.HasQuery(in) {
				return "ask_for_query", nil
			}
			return "route", nil
		},
		map[string]bool{
			"ask_for_query": true,
			"route":         true,
		},
	)
	if err := graph.AddBranch("validate_request", branch); err != nil {
		return nil, fmt.Errorf("add branch after validate_request: %w", err)
	}

	edges := [][2]string{
		{compose.START, "validate_request"},
		{"ask_for_query", compose.END},
		{"route", "analyze_intent"},
		{"analyze_intent", "select_specialist"},
		{"select_specialist", "run_specialist"},
		{"run_specialist", "finalize_reply"},
		{"finalize_reply", compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.dispatch"))
	if err != nil {
		return nil, fmt.Errorf("%w: compile dispatch graph: %v", contractx.ErrValidation, err)
	}
	return runner, nil
}
