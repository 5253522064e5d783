package router

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	"github.com/tanpawarit/support-dispatch/agent/llm/llmtest"
	promptx "github.com/tanpawarit/support-dispatch/agent/prompt"
)

func newClassifier(t *testing.T, fake *llmtest.Model) *Classifier {
	t.Helper()
	c, err := NewClassifier(context.Background(), fake, promptx.LoadPromptSet().Classifier)
	if err != nil {
		t.Fatalf("new classifier: %v", err)
	}
	return c
}

func newAnalyzer(t *testing.T, fake *llmtest.Model) *IntentAnalyzer {
	t.Helper()
	a, err := NewIntentAnalyzer(context.Background(), fake, promptx.LoadPromptSet().Intent)
	if err != nil {
		t.Fatalf("new intent analyzer: %v", err)
	}
	return a
}

func TestClassifyLabelAndConfidence(t *testing.T) {
	t.Parallel()

	cases := []struct {
		name  string
		query string
		reply string
		want  contractx.Domain
		conf  contractx.Confidence
	}{
		{"corroborated", "What's my account balance?", "banking", contractx.DomainBanking, contractx.ConfidenceHigh},
		{"uncorroborated", "Can you help me?", "Telecom.", contractx.DomainTelecom, contractx.ConfidenceMedium},
		{"noisy label", "Where is my order?", "The domain is: ECOMMERCE", contractx.DomainEcommerce, contractx.ConfidenceHigh},
		{"hyphenated", "I want a refund", "e-commerce", contractx.DomainEcommerce, contractx.ConfidenceHigh},
		{"fixed scan order", "hello", "banking or ecommerce", contractx.DomainEcommerce, contractx.ConfidenceMedium},
		{"no label", "hello", "I am not sure", contractx.DomainEcommerce, contractx.ConfidenceLow},
		{"data usage", "Why is my data usage so high?", "telecom", contractx.DomainTelecom, contractx.ConfidenceHigh},
	}

	for _, tc := range cases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := newClassifier(t, &llmtest.Model{Responses: []*schema.Message{llmtest.Text(tc.reply)}})
			got := c.Classify(context.Background(), contractx.NewQuery(tc.query, nil))
			if got.Domain != tc.want || got.Confidence != tc.conf {
				t.Fatalf("Classify(%q) with reply %q = %s/%s, want %s/%s", tc.query, tc.reply, got.Domain, got.Confidence, tc.want, tc.conf)
			}
			if strings.TrimSpace(got.Reason) == "" {
				t.Fatal("expected a routing reason")
			}
		})
	}
}

func TestClassifyFallsBackToKeywordsOnCompletionFailure(t *testing.T) {
	t.Parallel()

	cases := []struct {
		query string
		want  contractx.Domain
		conf  contractx.Confidence
	}{
		{"Why is my data usage so high?", contractx.DomainTelecom, contractx.ConfidenceMedium},
		{"I need to transfer money", contractx.DomainBanking, contractx.ConfidenceMedium},
		{"Where is my order?", contractx.DomainEcommerce, contractx.ConfidenceMedium},
		{"My card was charged for an order", contractx.DomainEcommerce, contractx.ConfidenceLow},
		{"hello there", contractx.DomainEcommerce, contractx.ConfidenceLow},
	}

	c := newClassifier(t, &llmtest.Model{Err: errors.New("provider down")})
	for _, tc := range cases {
		got := c.Classify(context.Background(), contractx.NewQuery(tc.query, nil))
		if got.Domain != tc.want || got.Confidence != tc.conf {
			t.Fatalf("Classify(%q) = %s/%s, want %s/%s", tc.query, got.Domain, got.Confidence, tc.want, tc.conf)
		}
		if !got.Domain.Valid() {
			t.Fatalf("domain %q outside the closed set", got.Domain)
		}
	}
}

func TestClassifyIsIdempotent(t *testing.T) {
	t.Parallel()

	fake := &llmtest.Model{Handler: func(call llmtest.Call) (*schema.Message, error) {
		return llmtest.Text("banking"), nil
	}}
	c := newClassifier(t, fake)
	q := contractx.NewQuery("Show my recent transactions", map[string]string{"account_number": "ACC001"})

	first := c.Classify(context.Background(), q)
	second := c.Classify(context.Background(), q)
	if first != second {
		t.Fatalf("same query routed differently: %+v vs %+v", first, second)
	}
}

func TestClassifyPromptCarriesCustomerContext(t *testing.T) {
	t.Parallel()

	fake := &llmtest.Model{Responses: []*schema.Message{llmtest.Text("telecom")}}
	c := newClassifier(t, fake)
	c.Classify(context.Background(), contractx.NewQuery("Is there an outage?", map[string]string{
		"phone_number": "555-0103",
		"name":         "Bob Wilson",
	}))

	calls := fake.Calls()
	if len(calls) != 1 {
		t.Fatalf("expected one completion call, got %d", len(calls))
	}
	input := calls[0].Input
	if len(input) != 2 || input[0].Role != schema.System || input[1].Role != schema.User {
		t.Fatalf("unexpected message layout: %+v", input)
	}
	want := "Customer query: Is there an outage?\n\nCustomer information:\n- name: Bob Wilson\n- phone_number: 555-0103"
	if input[1].Content != want {
		t.Fatalf("user turn = %q, want %q", input[1].Content, want)
	}
}

func TestNewClassifierValidation(t *testing.T) {
	t.Parallel()

	if _, err := NewClassifier(context.Background(), nil, "x"); !errors.Is(err, contractx.ErrValidation) {
		t.Fatalf("expected ErrValidation, got %v", err)
	}
	if _, err := NewClassifier(context.Background(), &llmtest.Model{}, "  "); !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("expected ErrPromptMissing, got %v", err)
	}
}

func TestAnalyzeParsesStructuredReply(t *testing.T) {
	t.Parallel()

	reply := "```json\n" + `{"primary_intent":"check order status","urgency":"HIGH","tone":"frustrated",` +
		`"required_info":["order_id"],"suggested_approach":"Look up the order first."}` + "\n```"
	a := newAnalyzer(t, &llmtest.Model{Responses: []*schema.Message{llmtest.Text(reply)}})

	got := a.Analyze(context.Background(), contractx.NewQuery("Where is my order?! This is urgent", nil))
	if got.PrimaryIntent != "check order status" {
		t.Fatalf("primary intent = %q", got.PrimaryIntent)
	}
	if got.Urgency != contractx.UrgencyHigh || got.Tone != contractx.ToneFrustrated {
		t.Fatalf("urgency/tone = %s/%s", got.Urgency, got.Tone)
	}
	if len(got.RequiredInfo) != 1 || got.RequiredInfo[0] != "order_id" {
		t.Fatalf("required info = %v", got.RequiredInfo)
	}
	if got.SuggestedApproach != "Look up the order first." {
		t.Fatalf("suggested approach = %q", got.SuggestedApproach)
	}
}

func TestAnalyzeFallsBackToDefault(t *testing.T) {
	t.Parallel()

	for name, fake := range map[string]*llmtest.Model{
		"completion error": {Err: errors.New("timeout")},
		"not json":         {Responses: []*schema.Message{llmtest.Text("the customer seems upset")}},
		"broken json":      {Responses: []*schema.Message{llmtest.Text(`{"urgency": "high",`)}},
	} {
		got := newAnalyzer(t, fake).Analyze(context.Background(), contractx.NewQuery("help", nil))
		want := contractx.DefaultIntent()
		if got.Urgency != want.Urgency || got.Tone != want.Tone || got.SuggestedApproach != want.SuggestedApproach {
			t.Fatalf("%s: got %+v, want defaults", name, got)
		}
		if got.RequiredInfo == nil || len(got.RequiredInfo) != 0 {
			t.Fatalf("%s: required info = %#v, want empty list", name, got.RequiredInfo)
		}
	}
}

func TestParseIntentNormalisesUnknownValues(t *testing.T) {
	t.Parallel()

	got, err := ParseIntent(`Sure! {"primary_intent":" refund ","urgency":"critical","tone":"sarcastic","required_info":"order id"} thanks`)
	if err != nil {
		t.Fatalf("ParseIntent: %v", err)
	}
	if got.PrimaryIntent != "refund" {
		t.Fatalf("primary intent = %q", got.PrimaryIntent)
	}
	if got.Urgency != contractx.UrgencyMedium || got.Tone != contractx.ToneNeutral {
		t.Fatalf("urgency/tone = %s/%s", got.Urgency, got.Tone)
	}
	if len(got.RequiredInfo) != 1 || got.RequiredInfo[0] != "order id" {
		t.Fatalf("required info = %v", got.RequiredInfo)
	}
	if got.SuggestedApproach != contractx.DefaultSuggestedApproach {
		t.Fatalf("suggested approach = %q", got.SuggestedApproach)
	}

	if _, err := ParseIntent("no object here"); !errors.Is(err, contractx.ErrSchemaViolation) {
		t.Fatalf("expected ErrSchemaViolation, got %v", err)
	}
}
