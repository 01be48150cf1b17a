// Package orchestrator runs one conversational turn: classify the intent,
// plan tool calls, validate and execute them, then summarize the results.
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/cloudwego/eino/compose"
	"github.com/rs/zerolog"
	specialistx "github.com/tanpawarit/chative-commerce-orchestrator/agent/agents/specialist"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	llmx "github.com/tanpawarit/chative-commerce-orchestrator/agent/llm"
	nodex "github.com/tanpawarit/chative-commerce-orchestrator/agent/nodes/orchestrator"
	promptx "github.com/tanpawarit/chative-commerce-orchestrator/agent/prompt"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
	tracex "github.com/tanpawarit/chative-commerce-orchestrator/agent/trace"
)

var ErrInvalidMessage = nodex.ErrInvalidMessage

type Config struct {
	// ProductListMaxItems caps listing blocks passed to the answer model.
	// Zero selects the default of 20; a negative value disables the cap.
	ProductListMaxItems int

	// Model names are reported on the turn span only.
	PrimaryModel   string
	SecondaryModel string

	// Registry defaults to the product and order planners.
	Registry contractx.Registry
	// Tracer defaults to a no-op tracer.
	Tracer contractx.Tracer
}

type TurnResult struct {
	Reply string                    `json:"reply"`
	State *statex.ConversationState `json:"state"`
}

type Orchestrator struct {
	registry   contractx.Registry
	tools      contractx.ToolGateway
	tracer     contractx.Tracer
	classifier nodex.IntentClassifier
	composer   nodex.AnswerComposer

	productListMaxItems int
	primaryModel        string
	secondaryModel      string

	graphRunner compose.Runnable[nodex.GraphInput, nodex.GraphOutput]

	now func() time.Time
}

func New(models llmx.Tiers, tools contractx.ToolGateway, cfg Config) (*Orchestrator, error) {
	if tools == nil {
		return nil, errors.New("tool gateway is required")
	}

	chatModel, err := llmx.NewFailover(models)
	if err != nil {
		return nil, err
	}

	prompts := promptx.LoadPromptSet()
	if err := prompts.Validate(); err != nil {
		return nil, err
	}

	registry := cfg.Registry
	if registry == nil {
		registry = specialistx.NewRegistry()
	}
	tracer := cfg.Tracer
	if tracer == nil {
		tracer = tracex.Noop{}
	}
	maxItems := cfg.ProductListMaxItems
	if maxItems == 0 {
		maxItems = nodex.DefaultProductListMaxItems
	}

	ctx := context.Background()
	classifier, err := newModelClassifier(ctx, chatModel, prompts)
	if err != nil {
		return nil, err
	}
	composer, err := newModelComposer(ctx, chatModel, prompts)
	if err != nil {
		return nil, err
	}

	o := &Orchestrator{
		registry:            registry,
		tools:               tools,
		tracer:              tracer,
		classifier:          classifier,
		composer:            composer,
		productListMaxItems: maxItems,
		primaryModel:        strings.TrimSpace(cfg.PrimaryModel),
		secondaryModel:      strings.TrimSpace(cfg.SecondaryModel),
		now:                 time.Now,
	}

	graphRunner, err := o.compileTurnGraph(ctx)
	if err != nil {
		return nil, err
	}
	o.graphRunner = graphRunner

	return o, nil
}

// HandleTurn processes one user utterance against st and returns the reply
// with the next state. st is never modified; a nil st starts a new session.
// On error no state is returned and the caller keeps its previous value.
func (o *Orchestrator) HandleTurn(
	ctx context.Context,
	utterance string,
	st *statex.ConversationState,
	meta contractx.TurnMeta,
) (TurnResult, error) {
	if strings.TrimSpace(utterance) == "" {
		return TurnResult{}, ErrInvalidMessage
	}
	if st == nil {
		st = statex.NewConversationState(o.now())
	}

	logger := zerolog.Ctx(ctx).With().Str("session_id", st.ID).Logger()
	if meta.UserID != "" {
		logger = logger.With().Str("user_id", meta.UserID).Logger()
	}
	ctx = logger.WithContext(ctx)

	ctx, span := o.tracer.StartSpan(ctx, spanTurn, map[string]any{
		"session_id":      st.ID,
		"user_id":         meta.UserID,
		"primary_model":   o.primaryModel,
		"secondary_model": o.secondaryModel,
	})

	out, err := o.graphRunner.Invoke(ctx, nodex.GraphInput{
		Text:  utterance,
		State: st,
		Meta:  meta,
	})
	if err != nil {
		span.End(nil, err)
		logger.Error().Err(err).Msg("turn failed")
		return TurnResult{}, fmt.Errorf("handle turn: %w", err)
	}

	span.End(out.Reply, nil)
	logger.Info().Int("messages", len(out.State.Messages)).Msg("turn completed")
	return TurnResult{Reply: out.Reply, State: out.State}, nil
}
