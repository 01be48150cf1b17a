package orchestratornode

import (
	"context"

	"github.com/rs/zerolog"
	specialistx "github.com/tanpawarit/chative-commerce-orchestrator/agent/agents/specialist"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
)

// ExecuteTools runs the plan strictly in order. A failed verification stops
// the plan; a successful one pins the verified customer id onto the session
// and onto every later create_order call.
func ExecuteTools(ctx context.Context, in *GraphState, gateway contractx.ToolGateway) (*GraphState, error) {
	if err := checkState(in); err != nil {
		return nil, err
	}
	if in.Plan == nil {
		return in.finish(contractx.Template(contractx.RefusalInsufficientInformation)), nil
	}

	logger := zerolog.Ctx(ctx)
	failed := false
	verifiedID := ""

	for _, call := range in.Plan.ToolCalls {
		if args, ok := createOrderArgs(call.Args); ok && verifiedID != "" {
			args.CustomerID = verifiedID
			call.Args = args
		}

		resp := gateway.CallTool(ctx, call.Tool, call.Args)
		in.Calls = append(in.Calls, ExecutedCall{Call: call, Response: resp})

		if resp.IsError {
			failed = true
			logger.Warn().Str("tool", string(call.Tool)).Str("error", resp.Text()).Msg("tool returned error")
		}

		if call.Tool != mcpx.ToolVerifyCustomerPin {
			continue
		}
		if resp.IsError {
			break
		}

		if args, ok := verifyArgs(call.Args); ok {
			in.State.CustomerEmail = args.Email
			in.State.CustomerPin = args.Pin
		}
		if id := specialistx.ExtractUUID(resp.Text()); id != "" {
			verifiedID = id
			in.State.CustomerID = id
			if in.State.PendingCreateOrder != nil {
				in.State.PendingCreateOrder.CustomerID = id
			}
		}
	}

	if failed {
		return in.finish(contractx.Template(contractx.RefusalToolUnavailable)), nil
	}
	return in, nil
}

func verifyArgs(args mcpx.ToolArgs) (mcpx.VerifyCustomerPinArgs, bool) {
	switch a := args.(type) {
	case mcpx.VerifyCustomerPinArgs:
		return a, true
	case *mcpx.VerifyCustomerPinArgs:
		if a != nil {
			return *a, true
		}
	}
	return mcpx.VerifyCustomerPinArgs{}, false
}

// createOrderArgs returns a private copy of create_order arguments.
func createOrderArgs(args mcpx.ToolArgs) (mcpx.CreateOrderArgs, bool) {
	switch a := args.(type) {
	case mcpx.CreateOrderArgs:
		return *a.Clone(), true
	case *mcpx.CreateOrderArgs:
		if a != nil {
			return *a.Clone(), true
		}
	}
	return mcpx.CreateOrderArgs{}, false
}

// ResumePending settles the session after a successful plan: a placed order
// drops its draft, and a verification that interrupted an order request
// answers that original request.
func ResumePending(in *GraphState) (*GraphState, error) {
	if err := checkState(in); err != nil {
		return nil, err
	}

	if in.Plan.Has(mcpx.ToolCreateOrder) {
		in.State.PendingCreateOrder = nil
	}
	if in.State.PendingOrderRequestMessage != "" && in.Plan.Has(mcpx.ToolVerifyCustomerPin) {
		in.AnswerSubject = in.State.PendingOrderRequestMessage
		in.State.ClearPendingOrderRequest()
	}
	return in, nil
}
