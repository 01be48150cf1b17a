package tool

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
)

// Caller is the transport an Executor dispatches to; *mcp.Client satisfies it.
type Caller interface {
	CallTool(ctx context.Context, name mcpx.ToolName, args mcpx.ToolArgs) (*mcpx.CallToolResponse, error)
}

// Executor is the ToolGateway used by the orchestrator. Transport failures
// come back as isError responses so a turn never sees an empty success.
type Executor struct {
	caller Caller
}

var _ contractx.ToolGateway = (*Executor)(nil)

func NewExecutor(caller Caller) (*Executor, error) {
	if caller == nil {
		return nil, fmt.Errorf("%w: tool caller is required", contractx.ErrValidation)
	}
	return &Executor{caller: caller}, nil
}

func (e *Executor) CallTool(ctx context.Context, name mcpx.ToolName, args mcpx.ToolArgs) mcpx.CallToolResponse {
	logger := zerolog.Ctx(ctx).With().Str("tool", string(name)).Logger()

	if !name.Known() {
		logger.Warn().Msg("refusing unknown tool")
		return mcpx.ErrorResponse(fmt.Sprintf("unknown tool %q", name))
	}
	if args != nil && args.ToolName() != name {
		logger.Warn().Str("args_tool", string(args.ToolName())).Msg("tool arguments do not match tool")
		return mcpx.ErrorResponse(fmt.Sprintf("arguments for %s sent to %s", args.ToolName(), name))
	}

	started := time.Now()
	resp, err := e.caller.CallTool(ctx, name, args)
	if err != nil {
		logger.Warn().Err(err).Dur("elapsed", time.Since(started)).Msg("tool call failed")
		return mcpx.ErrorResponse(fmt.Sprintf("tool %s failed: %v", name, err))
	}
	if resp == nil {
		logger.Warn().Msg("tool call returned no response")
		return mcpx.ErrorResponse(fmt.Sprintf("tool %s returned no response", name))
	}

	event := logger.Info()
	if resp.IsError {
		event = logger.Warn()
	}
	event.Bool("is_error", resp.IsError).Dur("elapsed", time.Since(started)).Msg("tool call completed")
	return *resp
}
