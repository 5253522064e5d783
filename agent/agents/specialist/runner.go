package specialist

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

// DefaultMaxToolIterations caps the tool rounds of one request.
const DefaultMaxToolIterations = 3

const finalAnswerInstruction = "You have used all available tool calls for this request. " +
	"Answer the customer now using only the information gathered so far."

// ToolGateway is what the runner needs from the tool registry.
type ToolGateway interface {
	contractx.ToolGateway
	ForDomain(domain contractx.Domain) []*schema.ToolInfo
	DecodeArgs(name, raw string) ([]string, error)
}

type Options struct {
	MaxToolIterations int
}

// Runner drives one specialist through a bounded tool-calling loop.
type Runner struct {
	model         einomodel.ToolCallingChatModel
	gateway       ToolGateway
	template      einoprompt.ChatTemplate
	maxIterations int
}

var _ contractx.SpecialistRunner = (*Runner)(nil)

func NewRunner(chatModel einomodel.ToolCallingChatModel, gateway ToolGateway, systemPrompt string, opts Options) (*Runner, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: specialist model is required", contractx.ErrValidation)
	}
	if gateway == nil {
		return nil, fmt.Errorf("%w: specialist tool gateway is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: specialist", contractx.ErrPromptMissing)
	}

	maxIterations := opts.MaxToolIterations
	if maxIterations <= 0 {
		maxIterations = DefaultMaxToolIterations
	}

	return &Runner{
		model:   chatModel,
		gateway: gateway,
		template: einoprompt.FromMessages(
			schema.FString,
			schema.SystemMessage(systemPrompt),
			schema.MessagesPlaceholder("history", true),
			schema.UserMessage("{input}"),
		),
		maxIterations: maxIterations,
	}, nil
}

// Run answers req as spec. A returned error means the completion capability could not
// produce a reply; tool failures are fed back to the model instead.
func (r *Runner) Run(ctx context.Context, spec contractx.Specialist, req contractx.SpecialistRequest) (contractx.SpecialistResponse, error) {
	logger := log.Ctx(ctx).With().
		Str("component", "specialist").
		Str("role", spec.Role).
		Str("domain", string(spec.Domain)).
		Logger()

	messages, err := r.template.Format(ctx, map[string]any{
		"title":     spec.Title,
		"domain":    string(spec.Domain),
		"goal":      spec.Goal,
		"backstory": spec.Backstory,
		"history":   historyMessages(req.History),
		"input":     BuildInput(spec, req),
	})
	if err != nil {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: format specialist prompt: %v", contractx.ErrValidation, err)
	}

	tools := r.gateway.ForDomain(spec.Domain)
	allowed := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		allowed[t.Name] = struct{}{}
	}

	toolModel, err := r.model.WithTools(tools)
	if err != nil {
		return contractx.SpecialistResponse{}, fmt.Errorf("%w: bind tools for specialist=%s: %v", contractx.ErrModelInvoke, spec.Role, err)
	}

	var exchanges []contractx.ToolExchange
	for round := 0; round < r.maxIterations; round++ {
		msg, err := toolModel.Generate(ctx, messages)
		if err != nil {
			return contractx.SpecialistResponse{ToolCalls: exchanges}, fmt.Errorf("%w: specialist=%s round=%d: %w", contractx.ErrModelInvoke, spec.Role, round, err)
		}
		if msg == nil {
			return contractx.SpecialistResponse{ToolCalls: exchanges}, fmt.Errorf("%w: empty reply from specialist=%s", contractx.ErrSchemaViolation, spec.Role)
		}

		if len(msg.ToolCalls) == 0 {
			return finish(msg, spec, exchanges)
		}

		messages = append(messages, msg)
		batch := r.runTools(ctx, msg.ToolCalls, allowed)
		for _, ex := range batch {
			messages = append(messages, schema.ToolMessage(ex.Result.Text, ex.Call.ID))
		}
		exchanges = append(exchanges, batch...)

		logger.Debug().Int("round", round).Int("calls", len(batch)).Msg("tool round completed")
	}

	logger.Info().Int("max_iterations", r.maxIterations).Msg("tool budget exhausted; requesting final answer")
	messages = append(messages, schema.UserMessage(finalAnswerInstruction))
	msg, err := r.model.Generate(ctx, messages)
	if err != nil {
		return contractx.SpecialistResponse{ToolCalls: exchanges}, fmt.Errorf("%w: specialist=%s final answer: %w", contractx.ErrModelInvoke, spec.Role, err)
	}
	if msg == nil {
		return contractx.SpecialistResponse{ToolCalls: exchanges}, fmt.Errorf("%w: empty final reply from specialist=%s", contractx.ErrSchemaViolation, spec.Role)
	}
	return finish(msg, spec, exchanges)
}

// runTools executes one round of calls. Calls the model is not allowed to make and calls
// with undecodable arguments become error results without reaching the gateway.
func (r *Runner) runTools(ctx context.Context, calls []schema.ToolCall, allowed map[string]struct{}) []contractx.ToolExchange {
	out := make([]contractx.ToolExchange, len(calls))
	var (
		pending []contractx.ToolCall
		slots   []int
	)

	for i, c := range calls {
		name := strings.TrimSpace(c.Function.Name)
		call := contractx.ToolCall{ID: c.ID, Name: name}
		out[i].Call = call

		if _, ok := allowed[name]; !ok {
			out[i].Result = contractx.Fail(name, contractx.ErrorKindUnknownTool, "Tool %q is not available to this specialist.", name)
			continue
		}
		args, err := r.gateway.DecodeArgs(name, c.Function.Arguments)
		if err != nil {
			out[i].Result = contractx.Fail(name, contractx.ErrorKindInvalidInput, "Could not read the arguments for %s: %v", name, err)
			continue
		}
		call.Args = args
		out[i].Call = call
		pending = append(pending, call)
		slots = append(slots, i)
	}

	results := r.gateway.Execute(ctx, pending)
	for j, res := range results {
		out[slots[j]].Result = res
	}
	return out
}

func finish(msg *schema.Message, spec contractx.Specialist, exchanges []contractx.ToolExchange) (contractx.SpecialistResponse, error) {
	content := strings.TrimSpace(msg.Content)
	if content == "" {
		return contractx.SpecialistResponse{ToolCalls: exchanges}, fmt.Errorf("%w: specialist=%s returned no text", contractx.ErrSchemaViolation, spec.Role)
	}
	return contractx.SpecialistResponse{Message: content, ToolCalls: exchanges}, nil
}

func historyMessages(turns []contractx.ChatTurn) []*schema.Message {
	out := make([]*schema.Message, 0, len(turns))
	for _, t := range turns {
		switch t.Role {
		case contractx.RoleUser:
			out = append(out, schema.UserMessage(t.Content))
		case contractx.RoleAssistant:
			out = append(out, schema.AssistantMessage(t.Content, nil))
		}
	}
	return out
}
