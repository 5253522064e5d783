package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tanpawarit/support-dispatch/agent/agents/orchestrator"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	nodex "github.com/tanpawarit/support-dispatch/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/support-dispatch/agent/state"
	tokensx "github.com/tanpawarit/support-dispatch/pkg/tokens"
)

type fakeDispatcher struct {
	mu       sync.Mutex
	text     string
	ctx      map[string]string
	override *contractx.Domain
}

func (f *fakeDispatcher) RouteAndRespond(ctx context.Context, text string, cc map[string]string, override *contractx.Domain) contractx.Response {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.text, f.ctx, f.override = text, cc, override

	domain := contractx.DomainEcommerce
	if override != nil {
		domain = *override
	}
	return contractx.Response{
		ResponseText: "Order ORD001 has shipped.",
		Domain:       domain,
		Confidence:   contractx.ConfidenceHigh,
		State:        contractx.StateCompleted,
		Intent:       contractx.DefaultIntent(),
	}
}

func (f *fakeDispatcher) last() (string, map[string]string, *contractx.Domain) {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.text, f.ctx, f.override
}

type echoResponder struct{}

func (echoResponder) Respond(ctx context.Context, in nodex.GraphInput) contractx.Response {
	return contractx.Response{
		ResponseText: "echo: " + in.Text,
		Domain:       *in.Override,
		State:        contractx.StateCompleted,
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Code    string          `json:"code"`
	Message string          `json:"message"`
}

func newTestServer(t *testing.T, deps Deps) (*httptest.Server, *fakeDispatcher) {
	t.Helper()

	dispatcher := &fakeDispatcher{}
	if deps.Dispatcher == nil {
		deps.Dispatcher = dispatcher
	}
	if deps.Sessions == nil {
		conv, err := orchestrator.NewConversations(echoResponder{}, statex.NewMemoryStore())
		require.NoError(t, err)
		deps.Sessions = conv
	}

	router, err := NewRouter(Config{MaxBodyBytes: 1 << 16}, deps)
	require.NoError(t, err)
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return srv, dispatcher
}

func do(t *testing.T, srv *httptest.Server, method, path, body string) (int, envelope) {
	t.Helper()

	req, err := http.NewRequest(method, srv.URL+path, strings.NewReader(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := srv.Client().Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	var env envelope
	if resp.StatusCode != http.StatusNoContent {
		require.NoError(t, json.NewDecoder(resp.Body).Decode(&env))
	}
	return resp.StatusCode, env
}

func TestNewRouterRequiresDeps(t *testing.T) {
	t.Parallel()

	_, err := NewRouter(Config{}, Deps{})
	require.Error(t, err)
}

func TestHealth(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, Deps{})
	status, env := do(t, srv, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, status)
	assert.True(t, env.Success)

	down, _ := newTestServer(t, Deps{Ready: func(ctx context.Context) error { return errors.New("database down") }})
	status, env = do(t, down, http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusServiceUnavailable, status)
	assert.Equal(t, "unavailable", env.Code)
}

func TestListDomains(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, Deps{})
	status, env := do(t, srv, http.MethodGet, "/v1/domains", "")
	require.Equal(t, http.StatusOK, status)

	var domains []domainView
	require.NoError(t, json.Unmarshal(env.Data, &domains))
	require.Len(t, domains, 3)
	assert.Equal(t, contractx.DomainEcommerce, domains[0].Domain)
	assert.Equal(t, []string{"name", "account_number", "phone"}, domains[1].RequiredFields)
	require.NotEmpty(t, domains[2].Specialists)
	assert.Equal(t, "technical_support", domains[2].Specialists[0].Role)
}

func TestRoute(t *testing.T) {
	t.Parallel()

	srv, dispatcher := newTestServer(t, Deps{})
	status, env := do(t, srv, http.MethodPost, "/v1/route",
		`{"query":"Where is my order ORD001?","customer_context":{"name":"John Smith"}}`)
	require.Equal(t, http.StatusOK, status)

	var resp contractx.Response
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, contractx.DomainEcommerce, resp.Domain)
	assert.Equal(t, contractx.StateCompleted, resp.State)
	text, cc, override := dispatcher.last()
	assert.Equal(t, "Where is my order ORD001?", text)
	assert.Equal(t, "John Smith", cc["name"])
	assert.Nil(t, override)
}

func TestRouteWithDomain(t *testing.T) {
	t.Parallel()

	srv, dispatcher := newTestServer(t, Deps{})
	status, _ := do(t, srv, http.MethodPost, "/v1/route", `{"query":"hi","domain":"Banking"}`)
	require.Equal(t, http.StatusOK, status)
	_, _, override := dispatcher.last()
	require.NotNil(t, override)
	assert.Equal(t, contractx.DomainBanking, *override)

	status, env := do(t, srv, http.MethodPost, "/v1/route", `{"query":"hi","domain":"insurance"}`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", env.Code)
}

func TestRouteRejectsMalformedBody(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, Deps{})
	status, env := do(t, srv, http.MethodPost, "/v1/route", `{"query":`)
	assert.Equal(t, http.StatusBadRequest, status)
	assert.Equal(t, "invalid_input", env.Code)

	status, _ = do(t, srv, http.MethodPost, "/v1/route", "")
	assert.Equal(t, http.StatusBadRequest, status)
}

func TestUsage(t *testing.T) {
	t.Parallel()

	tracker := tokensx.NewTracker()
	tracker.Record("classifier", tokensx.Usage{PromptTokens: 10, CompletionTokens: 2})

	srv, _ := newTestServer(t, Deps{Usage: tracker})
	status, env := do(t, srv, http.MethodGet, "/v1/usage", "")
	require.Equal(t, http.StatusOK, status)

	var snap tokensx.Snapshot
	require.NoError(t, json.Unmarshal(env.Data, &snap))
	assert.Equal(t, 12, snap.Total.TotalTokens)
	assert.Equal(t, 1, snap.ByRole["classifier"].Calls)
}

func TestSessionLifecycle(t *testing.T) {
	t.Parallel()

	srv, _ := newTestServer(t, Deps{})

	status, env := do(t, srv, http.MethodPost, "/v1/sessions",
		`{"domain":"ecommerce","customer_info":{"name":"John Smith","email":"john.smith@email.com"}}`)
	require.Equal(t, http.StatusBadRequest, status)
	assert.Contains(t, env.Message, "order_id")

	status, env = do(t, srv, http.MethodPost, "/v1/sessions",
		`{"domain":"ecommerce","customer_info":{"name":"John Smith","email":"john.smith@email.com","order_id":"ORD001"}}`)
	require.Equal(t, http.StatusCreated, status)
	var sess statex.Session
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	require.NotEmpty(t, sess.ID)
	base := "/v1/sessions/" + sess.ID

	status, env = do(t, srv, http.MethodPost, base+"/messages", `{"text":"Where is my order?"}`)
	require.Equal(t, http.StatusOK, status)
	var resp contractx.Response
	require.NoError(t, json.Unmarshal(env.Data, &resp))
	assert.Equal(t, "echo: Where is my order?", resp.ResponseText)
	assert.Equal(t, contractx.DomainEcommerce, resp.Domain)

	status, env = do(t, srv, http.MethodGet, base, "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.Len(t, sess.Turns, 2)

	status, _ = do(t, srv, http.MethodPost, base+"/messages", `{"text":"  "}`)
	assert.Equal(t, http.StatusBadRequest, status)

	status, env = do(t, srv, http.MethodDelete, base+"/messages", "")
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.Empty(t, sess.Turns)

	status, env = do(t, srv, http.MethodPut, base+"/domain",
		`{"domain":"telecom","customer_info":{"name":"Bob Wilson","phone_number":"555-0103","account_id":"CUST003"}}`)
	require.Equal(t, http.StatusOK, status)
	require.NoError(t, json.Unmarshal(env.Data, &sess))
	assert.Equal(t, contractx.DomainTelecom, sess.Domain)

	status, _ = do(t, srv, http.MethodDelete, base, "")
	assert.Equal(t, http.StatusNoContent, status)

	status, env = do(t, srv, http.MethodGet, base, "")
	assert.Equal(t, http.StatusNotFound, status)
	assert.Equal(t, "not_found", env.Code)
}
