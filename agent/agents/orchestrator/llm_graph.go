package orchestrator

import (
	"context"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/compose"
	"github.com/cloudwego/eino/schema"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	llmx "github.com/tanpawarit/chative-commerce-orchestrator/agent/llm"
	nodex "github.com/tanpawarit/chative-commerce-orchestrator/agent/nodes/orchestrator"
	promptx "github.com/tanpawarit/chative-commerce-orchestrator/agent/prompt"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
	toolx "github.com/tanpawarit/chative-commerce-orchestrator/agent/tool"
)

// compileModelGraph wires build_messages -> model. Decoding stays with the
// caller because it needs the original input alongside the reply.
func compileModelGraph[T any](
	ctx context.Context,
	chatModel einomodel.BaseChatModel,
	build func(T) []*schema.Message,
	graphName string,
) (compose.Runnable[T, *schema.Message], error) {
	graph := compose.NewGraph[T, *schema.Message]()

	if err := graph.AddLambdaNode("build_messages",
		compose.InvokableLambda(func(ctx context.Context, in T) ([]*schema.Message, error) {
			return build(in), nil
		}),
	); err != nil {
		return nil, fmt.Errorf("add build_messages node: %w", err)
	}
	if err := graph.AddChatModelNode("model", chatModel); err != nil {
		return nil, fmt.Errorf("add model node: %w", err)
	}

	if err := graph.AddEdge(compose.START, "build_messages"); err != nil {
		return nil, fmt.Errorf("add edge start->build_messages: %w", err)
	}
	if err := graph.AddEdge("build_messages", "model"); err != nil {
		return nil, fmt.Errorf("add edge build_messages->model: %w", err)
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

type modelClassifier struct {
	runner compose.Runnable[string, *schema.Message]
}

var _ nodex.IntentClassifier = (*modelClassifier)(nil)

func newModelClassifier(ctx context.Context, chatModel einomodel.BaseChatModel, prompts promptx.PromptSet) (*modelClassifier, error) {
	tools := toolx.DescribeForPrompt()
	runner, err := compileModelGraph(ctx, chatModel, func(utterance string) []*schema.Message {
		return []*schema.Message{schema.UserMessage(prompts.RenderClassifier(tools, utterance))}
	}, "orchestrator.intent_classifier")
	if err != nil {
		return nil, err
	}
	return &modelClassifier{runner: runner}, nil
}

func (c *modelClassifier) Classify(ctx context.Context, utterance string) (statex.IntentClassification, error) {
	msg, err := c.runner.Invoke(ctx, utterance)
	if err != nil {
		return statex.IntentClassification{}, fmt.Errorf("%w: %w", contractx.ErrModelInvoke, err)
	}
	return nodex.ParseIntent(llmx.Text(msg), utterance), nil
}

type answerRequest struct {
	UserRequest string
	ToolResults string
}

type modelComposer struct {
	runner compose.Runnable[answerRequest, *schema.Message]
}

var _ nodex.AnswerComposer = (*modelComposer)(nil)

func newModelComposer(ctx context.Context, chatModel einomodel.BaseChatModel, prompts promptx.PromptSet) (*modelComposer, error) {
	runner, err := compileModelGraph(ctx, chatModel, func(req answerRequest) []*schema.Message {
		return []*schema.Message{schema.UserMessage(prompts.RenderAnswer(req.UserRequest, req.ToolResults))}
	}, "orchestrator.answer_composer")
	if err != nil {
		return nil, err
	}
	return &modelComposer{runner: runner}, nil
}

func (c *modelComposer) Compose(ctx context.Context, userRequest, toolResults string) (string, error) {
	msg, err := c.runner.Invoke(ctx, answerRequest{UserRequest: userRequest, ToolResults: toolResults})
	if err != nil {
		return "", fmt.Errorf("%w: %w", contractx.ErrModelInvoke, err)
	}
	return llmx.Text(msg), nil
}
