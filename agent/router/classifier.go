package router

import (
	"context"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
)

// Classifier maps a query onto one of the supported domains. It never fails: an unusable
// completion degrades to a keyword scan and then to the fallback domain.
type Classifier struct {
	runner compose.Runnable[map[string]any, *schema.Message]
}

var _ contractx.Classifier = (*Classifier)(nil)

func NewClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, systemPrompt string) (*Classifier, error) {
	if chatModel == nil {
		return nil, fmt.Errorf("%w: classifier model is required", contractx.ErrValidation)
	}
	if strings.TrimSpace(systemPrompt) == "" {
		return nil, fmt.Errorf("%w: classifier", contractx.ErrPromptMissing)
	}

	runner, err := compileCompletionGraph(ctx, chatModel, systemPrompt, "router.classifier_graph")
	if err != nil {
		return nil, fmt.Errorf("%w: %v", contractx.ErrModelInvoke, err)
	}
	return &Classifier{runner: runner}, nil
}

func (c *Classifier) Classify(ctx context.Context, q contractx.Query) contractx.RoutingDecision {
	logger := log.Ctx(ctx).With().Str("component", "classifier").Logger()

	msg, err := c.runner.Invoke(ctx, map[string]any{"input": formatQuery(q)})
	if err != nil || msg == nil {
		logger.Warn().Err(err).Msg("classification completion failed; using keyword fallback")
		return keywordDecision(q.Text)
	}

	decision := DecisionFromLabel(msg.Content, q.Text)
	logger.Debug().
		Str("raw", msg.Content).
		Str("domain", string(decision.Domain)).
		Str("confidence", string(decision.Confidence)).
		Msg("query classified")
	return decision
}

// ParseLabel scans raw completion text for a domain label in the fixed order
// ecommerce, banking, telecom and returns the first one found anywhere.
func ParseLabel(raw string) (contractx.Domain, bool) {
	normalized := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(raw)), "e-commerce", "ecommerce")
	for _, d := range contractx.Domains {
		if strings.Contains(normalized, string(d)) {
			return d, true
		}
	}
	return "", false
}

// DecisionFromLabel turns a completion into a routing decision for queryText.
func DecisionFromLabel(raw, queryText string) contractx.RoutingDecision {
	domain, ok := ParseLabel(raw)
	if !ok {
		return contractx.RoutingDecision{
			Domain:     contractx.FallbackDomain,
			Confidence: contractx.ConfidenceLow,
			Reason:     fmt.Sprintf("no domain label in classifier output; defaulting to %s", contractx.FallbackDomain),
		}
	}
	if kw, found := matchKeyword(domain, queryText); found {
		return contractx.RoutingDecision{
			Domain:     domain,
			Confidence: contractx.ConfidenceHigh,
			Reason:     fmt.Sprintf("classified as %s; query mentions %q", domain, kw),
		}
	}
	return contractx.RoutingDecision{
		Domain:     domain,
		Confidence: contractx.ConfidenceMedium,
		Reason:     fmt.Sprintf("classified as %s", domain),
	}
}

func keywordDecision(queryText string) contractx.RoutingDecision {
	if domain, kw, ok := keywordDomain(queryText); ok {
		return contractx.RoutingDecision{
			Domain:     domain,
			Confidence: contractx.ConfidenceMedium,
			Reason:     fmt.Sprintf("classifier unavailable; query mentions %q", kw),
		}
	}
	return contractx.RoutingDecision{
		Domain:     contractx.FallbackDomain,
		Confidence: contractx.ConfidenceLow,
		Reason:     fmt.Sprintf("classifier unavailable and keywords inconclusive; defaulting to %s", contractx.FallbackDomain),
	}
}
