package llm

import (
	"context"
	"fmt"
	"strings"
	"time"

	einomodel "github.com/cloudwego/eino/components/model"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	openrouterx "github.com/tanpawarit/chative-commerce-orchestrator/pkg/openrouter"
)

// Provider selects the SDK a model tier is served through.
type Provider string

const (
	ProviderOpenRouter Provider = "openrouter"
	ProviderOpenAI     Provider = "openai"
	ProviderAnthropic  Provider = "anthropic"
)

type Config struct {
	PrimaryProvider   Provider `envconfig:"PRIMARY_PROVIDER" split_words:"true" default:"openrouter"`
	PrimaryModel      string   `envconfig:"PRIMARY_MODEL" split_words:"true" default:"openai/gpt-4o-mini"`
	SecondaryProvider Provider `envconfig:"SECONDARY_PROVIDER" split_words:"true" default:"openrouter"`
	SecondaryModel    string   `envconfig:"SECONDARY_MODEL" split_words:"true" default:"openai/gpt-4o"`

	BaseURL            string        `envconfig:"BASE_URL" split_words:"true" default:"https://openrouter.ai/api/v1"`
	APIKey             string        `envconfig:"API_KEY" split_words:"true"`
	AnthropicAPIKey    string        `envconfig:"ANTHROPIC_API_KEY" split_words:"true"`
	MaxCompletionToken int           `envconfig:"MAX_COMPLETION_TOKEN" split_words:"true" default:"2000"`
	Temperature        float32       `envconfig:"TEMPERATURE" split_words:"true" default:"0"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	SiteURL            string        `envconfig:"SITE_URL" split_words:"true"`
	SiteName           string        `envconfig:"SITE_NAME" split_words:"true"`
}

// Tiers is the primary/secondary pair the orchestrator fails over between.
type Tiers struct {
	Primary   einomodel.BaseChatModel
	Secondary einomodel.BaseChatModel
}

func (c Config) Validate() error {
	tiers := []struct {
		name     string
		provider Provider
		model    string
	}{
		{"primary", c.PrimaryProvider, c.PrimaryModel},
		{"secondary", c.SecondaryProvider, c.SecondaryModel},
	}

	for _, tier := range tiers {
		if strings.TrimSpace(tier.model) == "" {
			return fmt.Errorf("%w: %s model is required", contractx.ErrValidation, tier.name)
		}
		switch tier.provider {
		case ProviderOpenRouter, ProviderOpenAI:
			if strings.TrimSpace(c.APIKey) == "" {
				return fmt.Errorf("%w: api key is required for %s provider %s", contractx.ErrValidation, tier.name, tier.provider)
			}
		case ProviderAnthropic:
			if strings.TrimSpace(c.AnthropicAPIKey) == "" {
				return fmt.Errorf("%w: anthropic api key is required for %s provider", contractx.ErrValidation, tier.name)
			}
		default:
			return fmt.Errorf("%w: unknown %s provider %q", contractx.ErrValidation, tier.name, tier.provider)
		}
	}
	return nil
}

// OpenRouterFor returns the OpenRouter settings for one model name.
func (c Config) OpenRouterFor(modelName string) openrouterx.Config {
	maxCompletionToken := c.MaxCompletionToken
	return openrouterx.Config{
		BaseURL:            strings.TrimSpace(c.BaseURL),
		APIKey:             strings.TrimSpace(c.APIKey),
		Model:              strings.TrimSpace(modelName),
		MaxCompletionToken: &maxCompletionToken,
		Temperature:        c.Temperature,
		Timeout:            c.Timeout,
		SiteURL:            strings.TrimSpace(c.SiteURL),
		SiteName:           strings.TrimSpace(c.SiteName),
	}
}

// Build creates both model tiers.
func (c Config) Build(ctx context.Context) (Tiers, error) {
	if err := c.Validate(); err != nil {
		return Tiers{}, err
	}

	primary, err := c.buildModel(ctx, c.PrimaryProvider, c.PrimaryModel)
	if err != nil {
		return Tiers{}, fmt.Errorf("%w: create primary model: %v", contractx.ErrModelInvoke, err)
	}
	secondary, err := c.buildModel(ctx, c.SecondaryProvider, c.SecondaryModel)
	if err != nil {
		return Tiers{}, fmt.Errorf("%w: create secondary model: %v", contractx.ErrModelInvoke, err)
	}
	return Tiers{Primary: primary, Secondary: secondary}, nil
}

func (c Config) buildModel(ctx context.Context, provider Provider, modelName string) (einomodel.BaseChatModel, error) {
	switch provider {
	case ProviderOpenRouter:
		cfg := c.OpenRouterFor(modelName)
		return cfg.New(ctx)
	case ProviderOpenAI:
		client := openrouterx.NewClient(c.OpenRouterFor(modelName))
		if client == nil {
			return nil, fmt.Errorf("%w: openai client requires an api key", contractx.ErrValidation)
		}
		return NewOpenAIChatModel(client, OpenAIOptions{
			Model:               strings.TrimSpace(modelName),
			Temperature:         float64(c.Temperature),
			MaxCompletionTokens: int64(c.MaxCompletionToken),
		}), nil
	case ProviderAnthropic:
		return NewAnthropicChatModel(AnthropicOptions{
			APIKey:      strings.TrimSpace(c.AnthropicAPIKey),
			Model:       strings.TrimSpace(modelName),
			Temperature: float64(c.Temperature),
			MaxTokens:   int64(c.MaxCompletionToken),
			Timeout:     c.Timeout,
		}), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", contractx.ErrValidation, provider)
	}
}
