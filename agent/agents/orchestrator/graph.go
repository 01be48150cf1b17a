package orchestrator

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino/compose"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	nodex "github.com/tanpawarit/chative-commerce-orchestrator/agent/nodes/orchestrator"
)

const (
	nodePrepareTurn    = "prepare_turn"
	nodeClassifyIntent = "classify_intent"
	nodeRouteIntent    = "route_intent"
	nodePlanTools      = "plan_tools"
	nodeValidatePlan   = "validate_plan"
	nodeExecuteTools   = "execute_tools"
	nodeResumePending  = "resume_pending"
	nodeComposeAnswer  = "compose_answer"
	nodeFinalizeReply  = "finalize_reply"
)

const (
	spanTurn                 = "mcp-orchestrator-chat"
	spanIntentClassification = "intent_classification"
	spanToolSelection        = "tool_selection"
	spanPlanValidation       = "plan_validation"
	spanToolExecution        = "tool_execution"
	spanFinalAnswer          = "final_answer"
)

type stageFunc = func(context.Context, *nodex.GraphState) (*nodex.GraphState, error)

func (o *Orchestrator) compileTurnGraph(
	ctx context.Context,
) (compose.Runnable[nodex.GraphInput, nodex.GraphOutput], error) {
	graph := compose.NewGraph[nodex.GraphInput, nodex.GraphOutput]()

	if err := graph.AddLambdaNode(nodePrepareTurn,
		compose.InvokableLambda(func(ctx context.Context, in nodex.GraphInput) (*nodex.GraphState, error) {
			return nodex.PrepareTurn(in, o.now())
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodePrepareTurn, err)
	}

	stages := []struct {
		name string
		fn   stageFunc
	}{
		{nodeClassifyIntent, o.traced(spanIntentClassification, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ClassifyIntent(ctx, in, o.classifier)
		})},
		{nodeRouteIntent, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.RouteIntent(in)
		}},
		{nodePlanTools, o.traced(spanToolSelection, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.PlanTools(ctx, in, o.registry)
		})},
		{nodeValidatePlan, o.traced(spanPlanValidation, nodex.ValidatePlan)},
		{nodeExecuteTools, o.traced(spanToolExecution, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ExecuteTools(ctx, in, o.tools)
		})},
		{nodeResumePending, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ResumePending(in)
		}},
		{nodeComposeAnswer, o.traced(spanFinalAnswer, func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
			return nodex.ComposeAnswer(ctx, in, o.composer, o.productListMaxItems)
		})},
	}
	for _, stage := range stages {
		if err := graph.AddLambdaNode(stage.name, compose.InvokableLambda(stage.fn)); err != nil {
			return nil, fmt.Errorf("add node %s: %w", stage.name, err)
		}
	}

	if err := graph.AddLambdaNode(nodeFinalizeReply,
		compose.InvokableLambda(func(ctx context.Context, in *nodex.GraphState) (nodex.GraphOutput, error) {
			return nodex.FinalizeReply(in)
		}),
	); err != nil {
		return nil, fmt.Errorf("add node %s: %w", nodeFinalizeReply, err)
	}

	edges := [][2]string{
		{compose.START, nodePrepareTurn},
		{nodePrepareTurn, nodeClassifyIntent},
		{nodeClassifyIntent, nodeRouteIntent},
		{nodeResumePending, nodeComposeAnswer},
		{nodeComposeAnswer, nodeFinalizeReply},
		{nodeFinalizeReply, compose.END},
	}
	for _, edge := range edges {
		if err := graph.AddEdge(edge[0], edge[1]); err != nil {
			return nil, fmt.Errorf("add edge %s->%s: %w", edge[0], edge[1], err)
		}
	}

	// Each of these stages either hands over to the next one or, once the
	// reply is settled, jumps to finalize_reply.
	branches := [][2]string{
		{nodeRouteIntent, nodePlanTools},
		{nodePlanTools, nodeValidatePlan},
		{nodeValidatePlan, nodeExecuteTools},
		{nodeExecuteTools, nodeResumePending},
	}
	for _, branch := range branches {
		if err := graph.AddBranch(branch[0], continueOrFinalize(branch[1])); err != nil {
			return nil, fmt.Errorf("add branch %s: %w", branch[0], err)
		}
	}

	runner, err := graph.Compile(ctx, compose.WithGraphName("orchestrator.handle_turn"))
	if err != nil {
		return nil, fmt.Errorf("compile orchestrator graph: %w", err)
	}
	return runner, nil
}

func continueOrFinalize(next string) *compose.GraphBranch {
	return compose.NewGraphBranch(
		func(ctx context.Context, in *nodex.GraphState) (string, error) {
			if in == nil {
				return "", fmt.Errorf("%w: graph state is nil", contractx.ErrValidation)
			}
			if in.Finished {
				return nodeFinalizeReply, nil
			}
			return next, nil
		},
		map[string]bool{
			next:              true,
			nodeFinalizeReply: true,
		},
	)
}

// traced reports a stage to the tracer as its own span.
func (o *Orchestrator) traced(span string, fn stageFunc) stageFunc {
	return func(ctx context.Context, in *nodex.GraphState) (*nodex.GraphState, error) {
		ctx, s := o.tracer.StartSpan(ctx, span, nil)
		out, err := fn(ctx, in)
		s.End(stageOutput(span, out), err)
		return out, err
	}
}

func stageOutput(span string, out *nodex.GraphState) any {
	if out == nil {
		return nil
	}

	fields := map[string]any{}
	if out.Finished {
		fields["reply"] = out.Reply
	}

	switch span {
	case spanIntentClassification:
		fields["intent"] = out.Intent
	case spanToolSelection:
		if out.Plan != nil {
			fields["tool_plan"] = out.Plan
		}
	case spanToolExecution:
		tools := make([]string, 0, len(out.Calls))
		errored := 0
		for _, call := range out.Calls {
			tools = append(tools, string(call.Call.Tool))
			if call.Response.IsError {
				errored++
			}
		}
		fields["tools"] = tools
		fields["errors"] = errored
	}
	return fields
}
