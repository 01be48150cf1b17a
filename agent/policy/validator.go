// Package policy is the gate every tool plan passes before execution.
package policy

import (
	"fmt"
	"reflect"
	"strings"

	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
	toolx "github.com/tanpawarit/chative-commerce-orchestrator/agent/tool"
)

const (
	reasonOutOfScope   = "Intent is out of scope."
	reasonEmptyPlan    = "No tool call was planned for this request."
	reasonMissingSKU   = "Please provide the product SKU so I can look it up."
	reasonMissingQuery = "What keywords should I use to search for the product?"
	reasonMissingOrder = "Please provide the order ID (UUID) so I can get that order."
	reasonUnverified   = "Orders can only be created right after the customer is verified."
)

func ok() contractx.ValidationResult {
	return contractx.ValidationResult{OK: true}
}

func fail(category contractx.RefusalCategory, reason string) contractx.ValidationResult {
	return contractx.ValidationResult{Category: category, Reason: reason}
}

// ValidateToolPlan checks a plan against the intent and the per-agent
// allow-lists. It is pure; the session argument is reserved for rules that
// depend on session context.
func ValidateToolPlan(
	intent statex.IntentClassification,
	plan *contractx.ToolPlan,
	_ *statex.ConversationState,
) contractx.ValidationResult {
	if intent.TargetAgent == statex.AgentOutOfScope {
		return fail(contractx.RefusalOutOfScope, reasonOutOfScope)
	}
	if plan == nil || len(plan.ToolCalls) == 0 {
		return fail(contractx.RefusalInsufficientInformation, reasonEmptyPlan)
	}

	verified := false
	for _, call := range plan.ToolCalls {
		if !toolx.IsAllowed(plan.TargetAgent, call.Tool) {
			return fail(contractx.RefusalActionNotSupported,
				fmt.Sprintf("Tool %s is not allowed for %s agent.", call.Tool, plan.TargetAgent))
		}
		args, present := normalizeArgs(call.Args)
		if !present || args.ToolName() != call.Tool {
			return fail(contractx.RefusalInsufficientInformation,
				fmt.Sprintf("Arguments for %s are missing or malformed.", call.Tool))
		}
		if res := validateArgs(args); !res.OK {
			return res
		}

		switch call.Tool {
		case mcpx.ToolVerifyCustomerPin:
			verified = true
		case mcpx.ToolCreateOrder:
			if !verified {
				return fail(contractx.RefusalPolicyRestriction, reasonUnverified)
			}
		}
	}

	return ok()
}

// normalizeArgs dereferences pointer forms of the argument structs. A nil
// interface or a typed nil pointer reports false.
func normalizeArgs(args mcpx.ToolArgs) (mcpx.ToolArgs, bool) {
	if args == nil {
		return nil, false
	}
	v := reflect.ValueOf(args)
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return nil, false
		}
		v = v.Elem()
	}
	normalized, ok := v.Interface().(mcpx.ToolArgs)
	if !ok {
		return nil, false
	}
	return normalized, true
}

func validateArgs(args mcpx.ToolArgs) contractx.ValidationResult {
	switch a := args.(type) {
	case mcpx.GetProductArgs:
		if strings.TrimSpace(a.SKU) == "" {
			return fail(contractx.RefusalInsufficientInformation, reasonMissingSKU)
		}
	case mcpx.SearchProductsArgs:
		if strings.TrimSpace(a.Query) == "" {
			return fail(contractx.RefusalInsufficientInformation, reasonMissingQuery)
		}
	case mcpx.GetOrderArgs:
		if strings.TrimSpace(a.OrderID) == "" {
			return fail(contractx.RefusalInsufficientInformation, reasonMissingOrder)
		}
	}
	return ok()
}
