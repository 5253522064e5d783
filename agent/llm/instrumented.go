package llm

import (
	"context"
	"fmt"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	tokensx "github.com/tanpawarit/support-dispatch/pkg/tokens"
)

// instrumentedModel bounds every Generate call by a timeout and records token usage per role.
type instrumentedModel struct {
	inner     einomodel.ToolCallingChatModel
	role      Role
	timeout   time.Duration
	tracker   *tokensx.Tracker
	estimator *tokensx.Estimator
}

var _ einomodel.ToolCallingChatModel = (*instrumentedModel)(nil)

func Instrument(
	inner einomodel.ToolCallingChatModel,
	role Role,
	timeout time.Duration,
	tracker *tokensx.Tracker,
	estimator *tokensx.Estimator,
) einomodel.ToolCallingChatModel {
	if inner == nil {
		return nil
	}
	return &instrumentedModel{
		inner:     inner,
		role:      role,
		timeout:   timeout,
		tracker:   tracker,
		estimator: estimator,
	}
}

func (m *instrumentedModel) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	callCtx := ctx
	if m.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, m.timeout)
		defer cancel()
	}

	start := time.Now()
	out, err := m.inner.Generate(callCtx, input, opts...)
	elapsed := time.Since(start)
	if err != nil {
		log.Ctx(ctx).Warn().
			Err(err).
			Str("role", string(m.role)).
			Dur("elapsed", elapsed).
			Msg("completion call failed")
		return nil, fmt.Errorf("%w: %s: %w", contractx.ErrCompletionUnavailable, m.role, err)
	}
	if out == nil {
		return nil, fmt.Errorf("%w: %s: empty completion", contractx.ErrCompletionUnavailable, m.role)
	}

	usage := m.usageOf(input, out)
	m.tracker.Record(string(m.role), usage)

	log.Ctx(ctx).Debug().
		Str("role", string(m.role)).
		Dur("elapsed", elapsed).
		Int("prompt_tokens", usage.PromptTokens).
		Int("completion_tokens", usage.CompletionTokens).
		Bool("estimated", usage.Estimated).
		Msg("completion call finished")

	return out, nil
}

// Stream passes through untouched; the engine only uses Generate.
func (m *instrumentedModel) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return m.inner.Stream(ctx, input, opts...)
}

func (m *instrumentedModel) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	bound, err := m.inner.WithTools(tools)
	if err != nil {
		return nil, err
	}
	return Instrument(bound, m.role, m.timeout, m.tracker, m.estimator), nil
}

func (m *instrumentedModel) usageOf(input []*schema.Message, out *schema.Message) tokensx.Usage {
	if out.ResponseMeta != nil && out.ResponseMeta.Usage != nil {
		u := out.ResponseMeta.Usage
		return tokensx.Usage{
			PromptTokens:     u.PromptTokens,
			CompletionTokens: u.CompletionTokens,
			TotalTokens:      u.TotalTokens,
		}
	}
	if m.estimator == nil {
		return tokensx.Usage{Estimated: true}
	}
	return tokensx.Usage{
		PromptTokens:     m.estimator.CountMessages(input),
		CompletionTokens: m.estimator.CountMessages([]*schema.Message{out}),
		Estimated:        true,
	}
}
