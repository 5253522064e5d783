package orchestrator

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/cloudwego/eino/schema"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	"github.com/tanpawarit/support-dispatch/agent/llm/llmtest"
	nodex "github.com/tanpawarit/support-dispatch/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/support-dispatch/agent/state"
	storex "github.com/tanpawarit/support-dispatch/agent/store"
)

type recordingResponder struct {
	mu     sync.Mutex
	inputs []nodex.GraphInput
	reply  contractx.Response
}

func (r *recordingResponder) Respond(ctx context.Context, in nodex.GraphInput) contractx.Response {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.inputs = append(r.inputs, in)
	out := r.reply
	if in.Override != nil {
		out.Domain = *in.Override
	}
	return out
}

type fakeChatLog struct {
	mu      sync.Mutex
	err     error
	entries []*storex.ChatSessionLog
}

func (f *fakeChatLog) LogChatSession(ctx context.Context, entry *storex.ChatSessionLog) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return f.err
}

var clock = time.Date(2024, 3, 5, 15, 0, 0, 0, time.UTC)

func newConversations(t *testing.T, responder Responder, opts ...ConversationOption) (*Conversations, *statex.MemoryStore) {
	t.Helper()
	store := statex.NewMemoryStore()
	opts = append([]ConversationOption{WithClock(func() time.Time { return clock })}, opts...)
	c, err := NewConversations(responder, store, opts...)
	require.NoError(t, err)
	return c, store
}

var ecommerceFields = map[string]string{
	"name":     "John Smith",
	"email":    "john.smith@email.com",
	"order_id": "ORD001",
}

func TestNewConversationsValidates(t *testing.T) {
	t.Parallel()

	_, err := NewConversations(nil, statex.NewMemoryStore())
	require.Error(t, err)

	_, err = NewConversations(&recordingResponder{}, nil)
	require.Error(t, err)
}

func TestStartSessionRequiresFields(t *testing.T) {
	t.Parallel()

	c, _ := newConversations(t, &recordingResponder{})

	_, err := c.StartSession(context.Background(), contractx.DomainEcommerce, map[string]string{"name": "John"})
	require.ErrorIs(t, err, statex.ErrMissingFields)

	_, err = c.StartSession(context.Background(), contractx.Domain("insurance"), ecommerceFields)
	require.Error(t, err)
}

func TestChatForcesSessionDomainAndKeepsHistory(t *testing.T) {
	t.Parallel()

	responder := &recordingResponder{reply: contractx.Response{
		ResponseText: "Your order has shipped.",
		State:        contractx.StateCompleted,
	}}
	chatLog := &fakeChatLog{}
	c, _ := newConversations(t, responder, WithChatLogger(chatLog))
	ctx := context.Background()

	sess, err := c.StartSession(ctx, contractx.DomainEcommerce, ecommerceFields)
	require.NoError(t, err)

	_, err = c.Chat(ctx, sess.ID, "Where is my order?")
	require.NoError(t, err)
	resp, err := c.Chat(ctx, sess.ID, "When will it arrive?")
	require.NoError(t, err)
	assert.Equal(t, contractx.DomainEcommerce, resp.Domain)

	require.Len(t, responder.inputs, 2)
	first, second := responder.inputs[0], responder.inputs[1]
	require.NotNil(t, first.Override)
	assert.Equal(t, contractx.DomainEcommerce, *first.Override)
	assert.Empty(t, first.History)
	require.Len(t, second.History, 2)
	assert.Equal(t, "Where is my order?", second.History[0].Content)
	assert.Equal(t, contractx.RoleAssistant, second.History[1].Role)
	assert.Equal(t, "ORD001", second.CustomerContext["order_id"])

	loaded, err := c.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Len(t, loaded.Turns, 4)

	require.Len(t, chatLog.entries, 2)
	assert.Equal(t, sess.ID, chatLog.entries[0].SessionID)
	assert.Equal(t, "john.smith@email.com", chatLog.entries[0].CustomerID)
	assert.Contains(t, chatLog.entries[0].Messages, `"query":"Where is my order?"`)
}

func TestChatRejectsEmptyMessageAndUnknownSession(t *testing.T) {
	t.Parallel()

	c, _ := newConversations(t, &recordingResponder{})
	ctx := context.Background()

	_, err := c.Chat(ctx, "missing", "hello")
	require.ErrorIs(t, err, statex.ErrStateNotFound)

	sess, err := c.StartSession(ctx, contractx.DomainEcommerce, ecommerceFields)
	require.NoError(t, err)
	_, err = c.Chat(ctx, sess.ID, "  ")
	require.ErrorIs(t, err, ErrInvalidMessage)
}

func TestChatLogFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	chatLog := &fakeChatLog{err: errors.New("disk full")}
	c, _ := newConversations(t, &recordingResponder{reply: contractx.Response{ResponseText: "ok"}}, WithChatLogger(chatLog))
	ctx := context.Background()

	sess, err := c.StartSession(ctx, contractx.DomainEcommerce, ecommerceFields)
	require.NoError(t, err)
	_, err = c.Chat(ctx, sess.ID, "hi")
	require.NoError(t, err)
	assert.Len(t, chatLog.entries, 1)
}

func TestResetAndSwitchDomain(t *testing.T) {
	t.Parallel()

	c, _ := newConversations(t, &recordingResponder{reply: contractx.Response{ResponseText: "ok"}})
	ctx := context.Background()

	sess, err := c.StartSession(ctx, contractx.DomainEcommerce, ecommerceFields)
	require.NoError(t, err)
	_, err = c.Chat(ctx, sess.ID, "Where is my order?")
	require.NoError(t, err)

	reset, err := c.ResetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Empty(t, reset.Turns)
	assert.Equal(t, contractx.DomainEcommerce, reset.Domain)
	assert.Equal(t, "ORD001", reset.CustomerContext["order_id"])

	_, err = c.SwitchDomain(ctx, sess.ID, contractx.DomainBanking, map[string]string{"name": "Jane"})
	require.ErrorIs(t, err, statex.ErrMissingFields)

	switched, err := c.SwitchDomain(ctx, sess.ID, contractx.DomainBanking, map[string]string{
		"name":           "Jane Johnson",
		"account_number": "ACC001",
		"phone":          "555-0102",
	})
	require.NoError(t, err)
	assert.Equal(t, contractx.DomainBanking, switched.Domain)
	assert.Empty(t, switched.Turns)
	_, hasOrder := switched.CustomerContext["order_id"]
	assert.False(t, hasOrder)

	loaded, err := c.GetSession(ctx, sess.ID)
	require.NoError(t, err)
	assert.Equal(t, contractx.DomainBanking, loaded.Domain)
}

func TestConversationEndToEndWritesChatLog(t *testing.T) {
	t.Parallel()

	h := newHarness(t, func(call llmtest.Call) (*schema.Message, error) {
		return llmtest.Text("Your balance is $2,500.75."), nil
	})
	c, _ := newConversations(t, h.orch, WithChatLogger(h.repo))
	ctx := context.Background()

	sess, err := c.StartSession(ctx, contractx.DomainBanking, map[string]string{
		"name":           "Jane Johnson",
		"account_number": "ACC001",
		"phone":          "555-0102",
	})
	require.NoError(t, err)

	resp, err := c.Chat(ctx, sess.ID, "Where is my order?")
	require.NoError(t, err)
	assert.Equal(t, contractx.DomainBanking, resp.Domain)
	assert.Equal(t, contractx.StateCompleted, resp.State)
	assert.Empty(t, h.classifier.Calls())
}
