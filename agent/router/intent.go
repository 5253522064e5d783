package router

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

// IntentAnalyzer asks the completion capability for a structured read of the query.
// Every failure yields contract.DefaultIntent.
type IntentAnalyzer struct {
	runner compose.Runnable[map[string]any, contractx.IntentAssessment]
}

var _ contractx.IntentAnalyzer = (*IntentAnalyzer)(nil)

func NewIntentAnalyzer(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*IntentAnalyzer, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: intent model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: intent", contractx.ErrPromptMissing)
	}

	runner, err := compileParsedGraph(ctx, chatModel, systemPrompt, "router.intent_graph",
		func(ctx context.Context, msg *schema.Message) (contractx.IntentAssessment, error) {
			if msg == nil {
				return contractx.IntentAssessment{}, fmt.Errorf("%w: empty intent response", contractx.ErrSchemaViolation)
			}
			return ParseIntent(msg.Content)
		})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &IntentAnalyzer{runner: runner}, nil
}

func (a *IntentAnalyzer) Analyze(ctx context.Context, q contractx.Query) contractx.IntentAssessment {
	out, err := a.runner.Invoke(ctx, map[string]any{"input": formatQuery(q)})
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("component", "intent").Msg("intent analysis failed; using default")
		return contractx.DefaultIntent()
	}
	return out
}

type intentPayload struct {
	PrimaryIntent     string          `json:"primary_intent"`
	Urgency           string          `json:"urgency"`
	Tone              string          `json:"tone"`
	RequiredInfo      json.RawMessage `json:"required_info"`
	SuggestedApproach string          `json:"suggested_approach"`
}

// ParseIntent extracts the first JSON object from raw and normalises it.
// Code fences and text around the object are ignored.
func ParseIntent(raw string) (contractx.IntentAssessment, error) {
	body, err := firstJSONObject(raw)
	if err != nil {
		return contractx.IntentAssessment{}, err
	}

	var p intentPayload
	if err := json.Unmarshal(body, &p); err != nil {
		return contractx.IntentAssessment{}, fmt.Errorf("%w: decode intent: %v", contractx.ErrSchemaViolation, err)
	}

	out := contractx.DefaultIntent()
	out.PrimaryIntent = strings.TrimSpace(p.PrimaryIntent)
	out.Urgency = normalizeUrgency(p.Urgency)
	out.Tone = normalizeTone(p.Tone)
	out.RequiredInfo = requiredInfo(p.RequiredInfo)
	if s := strings.TrimSpace(p.SuggestedApproach); s != "" {
		out.SuggestedApproach = s
	}
	return out, nil
}

func firstJSONObject(raw string) ([]byte, error) {
	s := strings.TrimSpace(raw)
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")

	start := strings.Index(s, "{")
	if start < 0 {
		return nil, fmt.Errorf("%w: no JSON object in intent response", contractx.ErrSchemaViolation)
	}

	var obj json.RawMessage
	if err := json.NewDecoder(strings.NewReader(s[start:])).Decode(&obj); err != nil {
		return nil, fmt.Errorf("%w: read intent object: %v", contractx.ErrSchemaViolation, err)
	}
	return obj, nil
}

func normalizeUrgency(raw string) contractx.Urgency {
	switch u := contractx.Urgency(strings.ToLower(strings.TrimSpace(raw))); u {
	case contractx.UrgencyLow, contractx.UrgencyMedium, contractx.UrgencyHigh:
		return u
	default:
		return contractx.UrgencyMedium
	}
}

func normalizeTone(raw string) contractx.Tone {
	switch t := contractx.Tone(strings.ToLower(strings.TrimSpace(raw))); t {
	case contractx.ToneFrustrated, contractx.ToneNeutral, contractx.ToneHappy, contractx.ToneConfused:
		return t
	default:
		return contractx.ToneNeutral
	}
}

// requiredInfo accepts a list of strings or a single string.
func requiredInfo(raw json.RawMessage) []string {
	out := []string{}
	if len(raw) == 0 {
		return out
	}

	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		for _, item := range list {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}

	var single string
	if err := json.Unmarshal(raw, &single); err == nil {
		if single = strings.TrimSpace(single); single != "" {
			out = append(out, single)
		}
	}
	return out
}
