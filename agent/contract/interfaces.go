package contract

import "context"

type Classifier interface {
	Classify(ctx context.Context, q Query) RoutingDecision
}

type IntentAnalyzer interface {
	Analyze(ctx context.Context, q Query) IntentAssessment
}

type SpecialistRunner interface {
	Run(ctx context.Context, spec Specialist, req SpecialistRequest) (SpecialistResponse, error)
}

type ToolGateway interface {
	Invoke(ctx context.Context, name string, args ...string) ToolResult
	Execute(ctx context.Context, calls []ToolCall) []ToolResult
}

// Dispatcher is the caller-facing entry point of the engine.
type Dispatcher interface {
	RouteAndRespond(ctx context.Context, text string, customerContext map[string]string, override *Domain) Response
}
