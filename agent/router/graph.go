package router

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	einoprompt "github.com/cloudwego/eino/components/prompt"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
)

// compileCompletionGraph builds prompt -> model. The user turn is the {input} variable.
func compileCompletionGraph(
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
) (compose.Runnable[map[string]any, *schema.Message], error) {
	graph := compose.NewGraph[map[string]any, *schema.Message]()
	if err := addPromptAndModel(graph, chatModel, systemPrompt); err != nil {
		return nil, err
	}
	if err := graph.AddEdge("model", compose.END); err != nil {
		return nil, fmt.Errorf("add edge model->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}

// compileParsedGraph builds prompt -> model -> parse, where parse turns the reply into T.
func compileParsedGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	systemPrompt string,
	graphName string,
	parse func(ctx context.Context, msg *schema.Message) (T, error),
) (compose.Runnable[map[string]any, T], error) {
	graph := compose.NewGraph[map[string]any, T]()
	if err := addPromptAndModel(graph, chatModel, systemPrompt); err != nil {
		return nil, err
	}
	if err := graph.AddLambdaNode("parse", compose.InvokableLambda(parse)); err != nil {
		return nil, fmt.Errorf("add parse node: %w", err)
	}
	if err := graph.AddEdge("model", "parse"); err != nil {
		return nil, fmt.Errorf("add edge model->parse: %w", err)
	}
	if err := graph.AddEdge("parse", compose.END); err != nil {
		return nil, fmt.Errorf("add edge parse->end: %w", err)
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName(graphName))
	if err != nil {
		return nil, fmt.Errorf("compile %s: %w", graphName, err)
	}
	return runner, nil
}

func addPromptAndModel[O any](graph *compose.Graph[map[string]any, O], chatModel einomodel.BaseChatModel, systemPrompt string) error {
	template := einoprompt.FromMessages(
		schema.FString,
		schema.SystemMessage(systemPrompt),
		schema.UserMessage("{input}"),
	)

	if err := graph.AddChatTemplateNode("prompt", template); err != nil {
		return fmt.Errorf("add prompt node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return fmt.Errorf("add model node: %w", err)
	}
	if err := graph.AddEdge(compose.START, "prompt"); err != nil {
		return fmt.Errorf("add edge start->prompt: %w", err)
	}
	if err := graph.AddEdge("prompt", "model"); err != nil {
		return fmt.Errorf("add edge prompt->model: %w", err)
	}
	return nil
}
