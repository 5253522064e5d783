// Package llmtest provides a scripted chat model for tests.
package llmtest

import (
	"context"
	"errors"
	"sync"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

var ErrExhausted = errors.New("no fake response left")

// Call records one Generate invocation.
type Call struct {
	Input []*schema.Message
	Tools []*schema.ToolInfo
}

// Model serves Responses in order, or delegates to Handler when set. Safe for concurrent use.
type Model struct {
	Responses []*schema.Message
	Err       error
	Handler   func(call Call) (*schema.Message, error)

	mu    sync.Mutex
	idx   int
	calls []Call
}

var _ einomodel.ToolCallingChatModel = (*Model)(nil)

func (f *Model) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return f.generate(ctx, input, nil)
}

func (f *Model) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("stream not implemented in fake model")
}

func (f *Model) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return &bound{parent: f, tools: tools}, nil
}

func (f *Model) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]Call, len(f.calls))
	copy(out, f.calls)
	return out
}

func (f *Model) generate(ctx context.Context, input []*schema.Message, tools []*schema.ToolInfo) (*schema.Message, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	call := Call{Input: append([]*schema.Message(nil), input...), Tools: tools}

	f.mu.Lock()
	f.calls = append(f.calls, call)
	if f.Err != nil {
		f.mu.Unlock()
		return nil, f.Err
	}
	if f.Handler != nil {
		h := f.Handler
		f.mu.Unlock()
		return h(call)
	}
	defer f.mu.Unlock()
	if f.idx >= len(f.Responses) {
		return nil, ErrExhausted
	}
	msg := f.Responses[f.idx]
	f.idx++
	return msg, nil
}

type bound struct {
	parent *Model
	tools  []*schema.ToolInfo
}

func (b *bound) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	return b.parent.generate(ctx, input, b.tools)
}

func (b *bound) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return b.parent.Stream(ctx, input, opts...)
}

func (b *bound) WithTools(tools []*schema.ToolInfo) (einomodel.ToolCallingChatModel, error) {
	return &bound{parent: b.parent, tools: tools}, nil
}

// Text builds an assistant reply.
func Text(content string) *schema.Message {
	return schema.AssistantMessage(content, nil)
}

// ToolCalls builds an assistant reply requesting the given calls.
func ToolCalls(calls ...schema.ToolCall) *schema.Message {
	return schema.AssistantMessage("", calls)
}

func ToolCall(id, name, args string) schema.ToolCall {
	return schema.ToolCall{
		ID:       id,
		Type:     "function",
		Function: schema.FunctionCall{Name: name, Arguments: args},
	}
}
