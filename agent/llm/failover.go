package llm

import (
	"context"
	"errors"
	"fmt"
	"strings"

	einomodel "github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"
	"github.com/rs/zerolog"
)

var errEmptyResponse = errors.New("empty model response")

// Failover asks the primary model first and retries once on the secondary
// when the primary errors or answers with blank content. Secondary failures
// are returned to the caller.
type Failover struct {
	primary   einomodel.BaseChatModel
	secondary einomodel.BaseChatModel
}

var _ einomodel.BaseChatModel = (*Failover)(nil)

func NewFailover(tiers Tiers) (*Failover, error) {
	if tiers.Primary == nil {
		return nil, errors.New("primary model is required")
	}
	if tiers.Secondary == nil {
		return nil, errors.New("secondary model is required")
	}
	return &Failover{primary: tiers.Primary, secondary: tiers.Secondary}, nil
}

func (f *Failover) Generate(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.Message, error) {
	msg, err := f.primary.Generate(ctx, input, opts...)
	if err == nil && msg != nil && strings.TrimSpace(msg.Content) != "" {
		return msg, nil
	}
	if err == nil {
		err = errEmptyResponse
	}

	zerolog.Ctx(ctx).Warn().Err(err).Msg("primary model failed, retrying on secondary")

	msg, err = f.secondary.Generate(ctx, input, opts...)
	if err != nil {
		return nil, fmt.Errorf("secondary model: %w", err)
	}
	if msg == nil {
		return schema.AssistantMessage("", nil), nil
	}
	return msg, nil
}

func (f *Failover) Stream(ctx context.Context, input []*schema.Message, opts ...einomodel.Option) (*schema.StreamReader[*schema.Message], error) {
	stream, err := f.primary.Stream(ctx, input, opts...)
	if err == nil {
		return stream, nil
	}
	zerolog.Ctx(ctx).Warn().Err(err).Msg("primary model stream failed, retrying on secondary")
	return f.secondary.Stream(ctx, input, opts...)
}

// Text returns the trimmed content of a model reply.
func Text(msg *schema.Message) string {
	if msg == nil {
		return ""
	}
	return strings.TrimSpace(msg.Content)
}
