package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/anthropics/anthropic-sdk-go"
	"github.com/anthropics/anthropic-sdk-go/option"
	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
)

type AnthropicOptions struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int64
	Timeout     time.Duration
	// BaseURL overrides the API endpoint; empty uses the SDK default.
	BaseURL string
}

// AnthropicChatModel serves eino messages through the Anthropic Messages API.
type AnthropicChatModel struct {
	client *anthropic.Client
	opts   AnthropicOptions
}

var _ einomodel.BaseChatModel = (*AnthropicChatModel)(nil)

func NewAnthropicChatModel(opts AnthropicOptions) *AnthropicChatModel {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.Timeout > 0 {
		clientOpts = append(clientOpts, option.WithRequestTimeout(opts.Timeout))
	}
	if baseURL := strings.TrimSpace(opts.BaseURL); baseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(baseURL))
	}
	client := anthropic.NewClient(clientOpts...)

	return &AnthropicChatModel{client: &client, opts: opts}
}

func (m *AnthropicChatModel) Generate(ctx context.Context, input []*schema.Message, _ ...einomodel.Option) (*schema.Message, error) {
	params := anthropic.MessageNewParams{
		Model:       anthropic.Model(m.opts.Model),
		MaxTokens:   m.opts.MaxTokens,
		Temperature: anthropic.Float(m.opts.Temperature),
	}

	for _, msg := range input {
		if msg == nil {
			continue
		}
		switch msg.Role {
		case schema.System:
			params.System = append(params.System, anthropic.TextBlockParam{Text: msg.Content})
		case schema.Assistant:
			params.Messages = append(params.Messages, anthropic.NewAssistantMessage(anthropic.NewTextBlock(msg.Content)))
		default:
			params.Messages = append(params.Messages, anthropic.NewUserMessage(anthropic.NewTextBlock(msg.Content)))
		}
	}

	resp, err := m.client.Messages.New(ctx, params)
	if err != nil {
		return nil, fmt.Errorf("anthropic api error: %w", err)
	}

	var parts []string
	for _, block := range resp.Content {
		if block.Type == "text" {
			if text := block.AsText().Text; text != "" {
				parts = append(parts, text)
			}
		}
	}
	return schema.AssistantMessage(strings.Join(parts, "\n"), nil), nil
}

func (m *AnthropicChatModel) Stream(context.Context, []*schema.Message, ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("anthropic: streaming is not supported")
}
