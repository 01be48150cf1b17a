package llm

import (
	"context"
	"errors"
	"fmt"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
)

type OpenAIOptions struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
}

// OpenAIChatModel serves eino messages through the openai-go Chat Completions API.
type OpenAIChatModel struct {
	client *openai.Client
	opts   OpenAIOptions
}

var _ einomodel.BaseChatModel = (*OpenAIChatModel)(nil)

func NewOpenAIChatModel(client *openai.Client, opts OpenAIOptions) *OpenAIChatModel {
	return &OpenAIChatModel{client: client, opts: opts}
}

func (m *OpenAIChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	params := openai.ChatCompletionNewParams{
		Model:       m.opts.Model,
		Messages:    toOpenAIMessages(input),
		Temperature: openai.Float(m.opts.Temperature),
	}
	if m.opts.MaxCompletionTokens > 0 {
		params.MaxCompletionTokens = openai.Int(m.opts.MaxCompletionTokens)
	}

	resp, err := m.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("openai chat completion: %w", err)
	}
	if len(resp.Choices) == 0 {
		return schema.AssistantMessage("", nil), nil
	}
	return schema.AssistantMessage(resp.Choices[0].Message.Content, nil), nil
}

func (m *OpenAIChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("openai: streaming is not supported")
}

func toOpenAIMessages(input []*schema.Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(input))
	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			out = append(out, openai.SystemMessage(msg.Content))
		case schema.Assistant:
			out = append(out, openai.AssistantMessage(msg.Content))
		default:
			out = append(out, openai.UserMessage(msg.Content))
		}
	}
	return out
}
