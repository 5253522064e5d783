package contract

import (
	"fmt"
	"strings"
	"time"
)

type Domain string

const (
	DomainEcommerce Domain = "ecommerce"
	DomainBanking   Domain = "banking"
	DomainTelecom   Domain = "telecom"
)

// Domains lists every supported domain in classification priority order.
var Domains = []Domain{DomainEcommerce, DomainBanking, DomainTelecom}

// FallbackDomain is used when classification cannot resolve a label.
const FallbackDomain = DomainEcommerce

func (d Domain) Valid() bool {
	switch d {
	case DomainEcommerce, DomainBanking, DomainTelecom:
		return true
	default:
		return false
	}
}

func (d Domain) String() string {
	return string(d)
}

// KnowledgeCollection is the document collection backing the domain.
func (d Domain) KnowledgeCollection() string {
	return string(d) + "_knowledge"
}

func ParseDomain(raw string) (Domain, error) {
	d := Domain(strings.ToLower(strings.TrimSpace(raw)))
	if !d.Valid() {
		return "", fmt.Errorf("%w: %q", ErrInvalidDomain, raw)
	}
	return d, nil
}

type Confidence string

const (
	ConfidenceLow    Confidence = "low"
	ConfidenceMedium Confidence = "medium"
	ConfidenceHigh   Confidence = "high"
)

type Query struct {
	Text            string            `json:"text"`
	CustomerContext map[string]string `json:"customer_context,omitempty"`
}

// NewQuery copies the context so later changes by the caller do not leak in.
func NewQuery(text string, customerContext map[string]string) Query {
	var cc map[string]string
	if len(customerContext) > 0 {
		cc = make(map[string]string, len(customerContext))
		for k, v := range customerContext {
			cc[k] = v
		}
	}
	return Query{Text: strings.TrimSpace(text), CustomerContext: cc}
}

type RoutingDecision struct {
	Domain     Domain     `json:"domain"`
	Confidence Confidence `json:"confidence"`
	Reason     string     `json:"reason"`
}

type Urgency string

const (
	UrgencyLow    Urgency = "low"
	UrgencyMedium Urgency = "medium"
	UrgencyHigh   Urgency = "high"
)

type Tone string

const (
	ToneFrustrated Tone = "frustrated"
	ToneNeutral    Tone = "neutral"
	ToneHappy      Tone = "happy"
	ToneConfused   Tone = "confused"
)

type IntentAssessment struct {
	PrimaryIntent     string   `json:"primary_intent"`
	Urgency           Urgency  `json:"urgency"`
	Tone              Tone     `json:"tone"`
	RequiredInfo      []string `json:"required_info"`
	SuggestedApproach string   `json:"suggested_approach"`
}

const DefaultSuggestedApproach = "handle as standard inquiry"

// DefaultIntent is returned whenever intent analysis cannot produce a result.
func DefaultIntent() IntentAssessment {
	return IntentAssessment{
		Urgency:           UrgencyMedium,
		Tone:              ToneNeutral,
		RequiredInfo:      []string{},
		SuggestedApproach: DefaultSuggestedApproach,
	}
}

type Specialist struct {
	Role            string   `json:"role"`
	Title           string   `json:"title"`
	Domain          Domain   `json:"domain"`
	Goal            string   `json:"goal"`
	Backstory       string   `json:"backstory,omitempty"`
	KeywordTriggers []string `json:"keyword_triggers,omitempty"`
	Default         bool     `json:"default,omitempty"`
}

type ToolCall struct {
	ID   string   `json:"id,omitempty"`
	Name string   `json:"name"`
	Args []string `json:"args,omitempty"`
}

type ErrorKind string

const (
	ErrorKindNone               ErrorKind = ""
	ErrorKindNotFound           ErrorKind = "not_found"
	ErrorKindInvalidInput       ErrorKind = "invalid_input"
	ErrorKindBackendUnavailable ErrorKind = "backend_unavailable"
	ErrorKindUnknownTool        ErrorKind = "unknown_tool"
)

type ToolResult struct {
	Tool    string    `json:"tool"`
	Text    string    `json:"text"`
	IsError bool      `json:"is_error,omitempty"`
	Kind    ErrorKind `json:"kind,omitempty"`
}

func OK(tool, text string) ToolResult {
	return ToolResult{Tool: tool, Text: text}
}

func Fail(tool string, kind ErrorKind, format string, args ...any) ToolResult {
	text := strings.TrimSpace(fmt.Sprintf(format, args...))
	if text == "" {
		text = fmt.Sprintf("tool %s failed", tool)
	}
	return ToolResult{Tool: tool, Text: text, IsError: true, Kind: kind}
}

type DispatchState string

const (
	StateRouting             DispatchState = "routing"
	StateIntentAnalysis      DispatchState = "intent_analysis"
	StateSpecialistExecution DispatchState = "specialist_execution"
	StateCompleted           DispatchState = "completed"
	StateEscalated           DispatchState = "escalated"
	StateFailed              DispatchState = "failed"
)

type SpecialistRequest struct {
	Query         Query            `json:"query"`
	Routing       RoutingDecision  `json:"routing"`
	Intent        IntentAssessment `json:"intent"`
	MissingFields []string         `json:"missing_fields,omitempty"`
	History       []ChatTurn       `json:"history,omitempty"`
}

// ToolExchange records one tool invocation made while producing a reply.
type ToolExchange struct {
	Call   ToolCall   `json:"call"`
	Result ToolResult `json:"result"`
}

type SpecialistResponse struct {
	Message   string         `json:"message"`
	ToolCalls []ToolExchange `json:"tool_calls,omitempty"`
}

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type ChatTurn struct {
	Role    Role      `json:"role"`
	Content string    `json:"content"`
	At      time.Time `json:"at,omitempty"`
}

// Response is what RouteAndRespond hands back to callers.
type Response struct {
	ResponseText   string           `json:"response_text"`
	Domain         Domain           `json:"domain"`
	SpecialistRole string           `json:"specialist_role"`
	RoutingReason  string           `json:"routing_reason"`
	Confidence     Confidence       `json:"confidence"`
	Intent         IntentAssessment `json:"intent"`
	State          DispatchState    `json:"state"`
	ToolCalls      []ToolExchange   `json:"tool_calls,omitempty"`
}
