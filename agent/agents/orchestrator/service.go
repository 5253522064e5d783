package orchestrator

import (
	"context"
	"errors"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	nodex "github.com/tanpawarit/support-dispatch/agent/nodes/orchestrator"
	"github.com/tanpawarit/support-dispatch/pkg/telemetry"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
)

type Deps struct {
	Classifier contractx.Classifier
	Intent     contractx.IntentAnalyzer
	Selector   nodex.Selector
	Runner     contractx.SpecialistRunner
}

// Orchestrator routes a query through classification, intent analysis and a specialist.
type Orchestrator struct {
	classifier contractx.Classifier
	intent     contractx.IntentAnalyzer
	selector   nodex.Selector
	runner     contractx.SpecialistRunner

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

var _ contractx.Dispatcher = (*Orchestrator)(nil)

func New(deps Deps) (*Orchestrator, error) {
	if deps.Classifier == nil {
		return nil, errors.New("classifier is required")
	}
	if deps.Intent == nil {
		return nil, errors.New("intent analyzer is required")
	}
	if deps.Selector == nil {
		return nil, errors.New("specialist selector is required")
	}
	if deps.Runner == nil {
		return nil, errors.New("specialist runner is required")
	}

	o := &Orchestrator{
		classifier: deps.Classifier,
		intent:     deps.Intent,
		selector:   deps.Selector,
		runner:     deps.Runner,
		now:        time.Now,
	}

	graphRunner, err := o.compileDispatchGraph(context.Background())
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// RouteAndRespond answers one query. It never fails: problems surface as a failed-state response.
func (o *Orchestrator) RouteAndRespond(ctx context.Context, text string, customerContext map[string]string, override *contractx.Domain) contractx.Response {
	return o.Respond(ctx, nodex.GraphInput{
		Text:            text,
		CustomerContext: customerContext,
		Override:        override,
	})
}

// Respond is RouteAndRespond with conversation history.
func (o *Orchestrator) Respond(ctx context.Context, in nodex.GraphInput) contractx.Response {
	ctx, span := telemetry.Tracer().Start(ctx, "dispatch.route_and_respond")
	defer span.End()

	out, err := o.graphRunner.Invoke(ctx, in)
	if err != nil {
		log.Ctx(ctx).Error().Err(err).Str("component", "dispatch").Msg("dispatch graph failed")
		span.RecordError(err)
		span.SetStatus(codes.Error, "dispatch graph failed")

		domain := contractx.FallbackDomain
		if in.Override != nil && in.Override.Valid() {
			domain = *in.Override
		}
		return contractx.Response{
			ResponseText: nodex.FailureMessage(err),
			Domain:       domain,
			Confidence:   contractx.ConfidenceLow,
			Intent:       contractx.DefaultIntent(),
			State:        contractx.StateFailed,
		}
	}

	span.SetAttributes(
		attribute.String("dispatch.domain", string(out.Domain)),
		attribute.String("dispatch.confidence", string(out.Confidence)),
		attribute.String("dispatch.specialist", out.SpecialistRole),
		attribute.String("dispatch.state", string(out.State)),
		attribute.Int("dispatch.tool_calls", len(out.ToolCalls)),
	)
	if out.State == contractx.StateFailed {
		span.SetStatus(codes.Error, "specialist failed")
	}

	log.Ctx(ctx).Info().
		Str("component", "dispatch").
		Str("domain", string(out.Domain)).
		Str("specialist", out.SpecialistRole).
		Str("state", string(out.State)).
		Int("tool_calls", len(out.ToolCalls)).
		Msg("query answered")
	return out
}
