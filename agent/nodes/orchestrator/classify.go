package orchestratornode

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
)

const parseFailureReason = "parse failure"

var listingPhrases = []string{"show me all", "list", "browse", "in stock", "available"}

type rawIntent struct {
	TargetAgent        string  `json:"target_agent"`
	ToolHint           *string `json:"tool_hint"`
	MissingInformation *string `json:"missing_information"`
	Reason             string  `json:"reason"`
}

// ParseIntent decodes the classifier reply. Anything that does not decode to
// a known agent and tool hint falls back to out_of_scope.
func ParseIntent(raw, utterance string) statex.IntentClassification {
	var decoded rawIntent
	if err := json.Unmarshal([]byte(stripCodeFence(raw)), &decoded); err != nil {
		return parseFailure()
	}

	intent := statex.IntentClassification{
		TargetAgent: statex.AgentKind(strings.TrimSpace(decoded.TargetAgent)),
		Reason:      decoded.Reason,
	}
	if !intent.TargetAgent.Valid() {
		return parseFailure()
	}
	if decoded.ToolHint != nil {
		hint := mcpx.ToolName(strings.TrimSpace(*decoded.ToolHint))
		if hint != "" && !hint.Known() {
			return parseFailure()
		}
		intent.ToolHint = hint
	}
	if decoded.MissingInformation != nil {
		intent.MissingInformation = strings.TrimSpace(*decoded.MissingInformation)
	}

	lower := strings.ToLower(utterance)
	if intent.TargetAgent == statex.AgentProduct && strings.Contains(lower, "monitor") && containsAny(lower, listingPhrases) {
		intent.ToolHint = mcpx.ToolListProducts
	}
	return intent
}

func parseFailure() statex.IntentClassification {
	return statex.IntentClassification{TargetAgent: statex.AgentOutOfScope, Reason: parseFailureReason}
}

// stripCodeFence removes a surrounding ``` or ```json fence.
func stripCodeFence(raw string) string {
	text := strings.TrimSpace(raw)
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	if nl := strings.IndexByte(text, '\n'); nl >= 0 {
		text = text[nl+1:]
	} else {
		text = strings.TrimPrefix(text, "json")
	}
	text = strings.TrimSpace(text)
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}

func ClassifyIntent(ctx context.Context, in *GraphState, classifier IntentClassifier) (*GraphState, error) {
	if err := checkState(in); err != nil {
		return nil, err
	}

	intent, err := classifier.Classify(ctx, in.Text)
	if err != nil {
		return nil, fmt.Errorf("classify intent: %w", err)
	}

	zerolog.Ctx(ctx).Debug().
		Str("target_agent", string(intent.TargetAgent)).
		Str("tool_hint", string(intent.ToolHint)).
		Str("reason", intent.Reason).
		Msg("intent classified")

	in.Intent = intent
	last := intent
	in.State.LastIntent = &last
	return in, nil
}

// RouteIntent ends the turn for out_of_scope requests and for product
// requests the classifier flagged as incomplete. Order requests always reach
// the order planner, which owns its own follow-up questions.
func RouteIntent(in *GraphState) (*GraphState, error) {
	if err := checkState(in); err != nil {
		return nil, err
	}

	switch {
	case in.Intent.TargetAgent == statex.AgentOutOfScope:
		return in.finish(contractx.Template(contractx.RefusalOutOfScope)), nil
	case in.Intent.MissingInformation != "" && in.Intent.TargetAgent != statex.AgentOrder:
		return in.finish(in.Intent.MissingInformation), nil
	}
	return in, nil
}
