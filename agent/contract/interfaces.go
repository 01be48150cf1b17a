package contract

import (
	"context"

	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
)

// Planner turns an utterance plus state into a tool plan or a refusal.
// Implementations must be pure.
type Planner interface {
	Plan(ctx context.Context, userMessage string, st *statex.ConversationState) (PlanResult, error)
}

type Registry interface {
	Product() Planner
	Order() Planner
	For(agent statex.AgentKind) (Planner, bool)
}

// ToolGateway calls one backend tool. Failures are reported through
// CallToolResponse.IsError rather than an error return.
type ToolGateway interface {
	CallTool(ctx context.Context, name mcpx.ToolName, args mcpx.ToolArgs) mcpx.CallToolResponse
}

// Tracer receives stage boundaries of a turn. Implementations must be safe
// for concurrent use.
type Tracer interface {
	StartSpan(ctx context.Context, name string, attrs map[string]any) (context.Context, Span)
}

type Span interface {
	End(output any, err error)
}
