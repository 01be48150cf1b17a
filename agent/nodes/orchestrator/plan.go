package orchestratornode

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	policyx "github.com/tanpawarit/chative-commerce-orchestrator/agent/policy"
)

func PlanTools(ctx context.Context, in *GraphState, registry contractx.Registry) (*GraphState, error) {
	if err := checkState(in); err != nil {
		return nil, err
	}

	planner, ok := registry.For(in.Intent.TargetAgent)
	if !ok {
		return in.finish(contractx.Template(contractx.RefusalOutOfScope)), nil
	}

	res, err := planner.Plan(ctx, in.Text, in.State)
	if err != nil {
		return nil, fmt.Errorf("plan %s tools: %w", in.Intent.TargetAgent, err)
	}

	if res.IsRefusal() {
		applyRefusal(in, res.Refusal)
		zerolog.Ctx(ctx).Debug().Str("category", string(res.Refusal.Category)).Msg("planner refused")
		return in.finish(res.Refusal.Reply()), nil
	}

	in.Plan = res.ToolPlan
	return in, nil
}

// applyRefusal keeps an order draft and the request that produced it so the
// next turn can resume after verification.
func applyRefusal(in *GraphState, refusal *contractx.Refusal) {
	if refusal == nil {
		return
	}
	if refusal.PendingCreateOrderArgs != nil {
		in.State.PendingCreateOrder = refusal.PendingCreateOrderArgs.Clone()
	}
	if refusal.PendingOrderRequestMessage != "" {
		in.State.PendingOrderRequestMessage = refusal.PendingOrderRequestMessage
		in.State.PendingOrderToolHint = refusal.PendingOrderToolHint
		if in.State.PendingOrderToolHint == "" {
			in.State.PendingOrderToolHint = in.Intent.ToolHint
		}
	}
}

func ValidatePlan(ctx context.Context, in *GraphState) (*GraphState, error) {
	if err := checkState(in); err != nil {
		return nil, err
	}

	res := policyx.ValidateToolPlan(in.Intent, in.Plan, in.State)
	if !res.OK {
		zerolog.Ctx(ctx).Info().
			Str("category", string(res.Category)).
			Str("reason", res.Reason).
			Msg("tool plan rejected")
		return in.finish(res.Reply()), nil
	}
	return in, nil
}
