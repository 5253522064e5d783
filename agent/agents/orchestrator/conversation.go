package orchestrator

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
	contractx "github.com/tanpawarit/support-dispatch/agent/contract"
	nodex "github.com/tanpawarit/support-dispatch/agent/nodes/orchestrator"
	statex "github.com/tanpawarit/support-dispatch/agent/state"
	storex "github.com/tanpawarit/support-dispatch/agent/store"
)

var ErrInvalidMessage = errors.New("message is empty")

// Responder answers one turn with history.
type Responder interface {
	Respond(ctx context.Context, in nodex.GraphInput) contractx.Response
}

// ChatLogger records finished turns. Failures are logged and otherwise ignored.
type ChatLogger interface {
	LogChatSession(ctx context.Context, entry *storex.ChatSessionLog) error
}

type ConversationOption func(*Conversations)

func WithHistoryTurns(n int) ConversationOption {
	return func(c *Conversations) {
		c.historyTurns = n
	}
}

func WithClock(now func() time.Time) ConversationOption {
	return func(c *Conversations) {
		if now != nil {
			c.now = now
		}
	}
}

func WithChatLogger(l ChatLogger) ConversationOption {
	return func(c *Conversations) {
		c.chatLog = l
	}
}

// Conversations manages domain-bound customer sessions on top of a Responder.
type Conversations struct {
	responder    Responder
	store        statex.Store
	chatLog      ChatLogger
	historyTurns int
	now          func() time.Time
	newID        func() string
}

func NewConversations(responder Responder, store statex.Store, opts ...ConversationOption) (*Conversations, error) {
	if responder == nil {
		return nil, errors.New("responder is required")
	}
	if store == nil {
		return nil, errors.New("session store is required")
	}

	c := &Conversations{
		responder:    responder,
		store:        store,
		historyTurns: statex.DefaultHistoryTurns,
		now:          time.Now,
		newID:        uuid.NewString,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

// StartSession opens a session for domain once fields holds every required identifying field.
func (c *Conversations) StartSession(ctx context.Context, domain contractx.Domain, fields map[string]string) (*statex.Session, error) {
	sess, err := statex.NewSession(c.newID(), domain, fields, c.now())
	if err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}

	log.Ctx(ctx).Info().
		Str("component", "conversation").
		Str("session_id", sess.ID).
		Str("domain", string(domain)).
		Msg("session started")
	return sess, nil
}

func (c *Conversations) GetSession(ctx context.Context, sessionID string) (*statex.Session, error) {
	return c.store.Load(ctx, strings.TrimSpace(sessionID))
}

// Chat answers text within the session's domain and records both turns.
func (c *Conversations) Chat(ctx context.Context, sessionID, text string) (contractx.Response, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return contractx.Response{}, ErrInvalidMessage
	}

	sess, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return contractx.Response{}, err
	}

	domain := sess.Domain
	resp := c.responder.Respond(ctx, nodex.GraphInput{
		Text:            text,
		CustomerContext: sess.CustomerContext,
		Override:        &domain,
		History:         sess.History(c.historyTurns),
	})

	now := c.now()
	sess.Append(contractx.RoleUser, text, now)
	sess.Append(contractx.RoleAssistant, resp.ResponseText, now)
	if err := c.store.Save(ctx, sess); err != nil {
		return resp, fmt.Errorf("save session: %w", err)
	}

	c.logTurn(ctx, sess, text, resp)
	return resp, nil
}

// ResetSession clears the conversation while keeping the domain and customer details.
func (c *Conversations) ResetSession(ctx context.Context, sessionID string) (*statex.Session, error) {
	sess, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	sess.Reset(c.now())
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// SwitchDomain rebinds the session to domain with fresh customer details and an empty conversation.
func (c *Conversations) SwitchDomain(ctx context.Context, sessionID string, domain contractx.Domain, fields map[string]string) (*statex.Session, error) {
	sess, err := c.GetSession(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := sess.SwitchDomain(domain, fields, c.now()); err != nil {
		return nil, err
	}
	if err := c.store.Save(ctx, sess); err != nil {
		return nil, fmt.Errorf("save session: %w", err)
	}
	return sess, nil
}

// customerIDKeys are tried in order to label a chat log entry with its customer.
var customerIDKeys = []string{"customer_id", "account_id", "account_number", "email", "phone_number", "phone", "name"}

type loggedTurn struct {
	Query      string                  `json:"query"`
	Response   string                  `json:"response"`
	Specialist string                  `json:"specialist"`
	State      contractx.DispatchState `json:"state"`
	ToolCalls  []string                `json:"tool_calls,omitempty"`
}

func (c *Conversations) logTurn(ctx context.Context, sess *statex.Session, text string, resp contractx.Response) {
	if c.chatLog == nil {
		return
	}

	turn := loggedTurn{
		Query:      text,
		Response:   resp.ResponseText,
		Specialist: resp.SpecialistRole,
		State:      resp.State,
	}
	for _, ex := range resp.ToolCalls {
		turn.ToolCalls = append(turn.ToolCalls, ex.Call.Name)
	}
	payload, err := json.Marshal(turn)
	if err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("component", "conversation").Msg("failed to encode chat log")
		return
	}

	var customerID string
	for _, key := range customerIDKeys {
		if v := sess.CustomerContext[key]; v != "" {
			customerID = v
			break
		}
	}

	entry := &storex.ChatSessionLog{
		SessionID:  sess.ID,
		CustomerID: customerID,
		Domain:     string(sess.Domain),
		Messages:   string(payload),
		CreatedAt:  c.now().UTC(),
	}
	if err := c.chatLog.LogChatSession(ctx, entry); err != nil {
		log.Ctx(ctx).Warn().Err(err).Str("component", "conversation").Str("session_id", sess.ID).Msg("failed to write chat log")
	}
}

// EndSession forgets the session.
func (c *Conversations) EndSession(ctx context.Context, sessionID string) error {
	sessionID = strings.TrimSpace(sessionID)
	if _, err := c.store.Load(ctx, sessionID); err != nil {
		return err
	}
	return c.store.Delete(ctx, sessionID)
}
