package contract

import (
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
)

// RefusalCategory is the closed set of reasons a turn ends without tool output.
type RefusalCategory string

const (
	RefusalOutOfScope              RefusalCategory = "OUT_OF_SCOPE"
	RefusalMissingAuth             RefusalCategory = "MISSING_AUTH"
	RefusalActionNotSupported      RefusalCategory = "ACTION_NOT_SUPPORTED"
	RefusalInsufficientInformation RefusalCategory = "INSUFFICIENT_INFORMATION"
	RefusalPolicyRestriction       RefusalCategory = "POLICY_RESTRICTION"
	RefusalToolUnavailable         RefusalCategory = "TOOL_UNAVAILABLE"
)

var refusalTemplates = map[RefusalCategory]string{
	RefusalOutOfScope:              "Sorry, I can't help with that request. I can assist with products or orders.",
	RefusalMissingAuth:             "I can help once you provide your customer ID and PIN.",
	RefusalActionNotSupported:      "That action isn't supported yet. I can help with available order details.",
	RefusalInsufficientInformation: "I need a bit more information to continue.",
	RefusalPolicyRestriction:       "I'm unable to help with that request due to policy restrictions.",
	RefusalToolUnavailable:         "I'm unable to complete that right now because the tools I use are unavailable or failing. Please try again later.",
}

// Template returns the fixed user-facing text of a category.
func Template(category RefusalCategory) string {
	if tpl, ok := refusalTemplates[category]; ok {
		return tpl
	}
	return refusalTemplates[RefusalInsufficientInformation]
}

// ToolCallPlan is a single validated-to-be call against the tool backend.
type ToolCallPlan struct {
	Tool        mcpx.ToolName `json:"tool"`
	Args        mcpx.ToolArgs `json:"args"`
	Description string        `json:"description,omitempty"`
}

// NewToolCall derives the tool name from the argument type.
func NewToolCall(args mcpx.ToolArgs, description string) ToolCallPlan {
	return ToolCallPlan{Tool: args.ToolName(), Args: args, Description: description}
}

type ToolPlan struct {
	TargetAgent statex.AgentKind `json:"target_agent"`
	ToolCalls   []ToolCallPlan   `json:"tool_calls"`
}

// Has reports whether any call in the plan targets tool.
func (p *ToolPlan) Has(tool mcpx.ToolName) bool {
	if p == nil {
		return false
	}
	for _, call := range p.ToolCalls {
		if call.Tool == tool {
			return true
		}
	}
	return false
}

// Refusal carries an optional explicit message and any order context that
// must survive into the next turn.
type Refusal struct {
	Category                   RefusalCategory       `json:"category"`
	Message                    string                `json:"message,omitempty"`
	PendingCreateOrderArgs     *mcpx.CreateOrderArgs `json:"pending_create_order_args,omitempty"`
	PendingOrderRequestMessage string                `json:"pending_order_request_message,omitempty"`
	PendingOrderToolHint       mcpx.ToolName         `json:"pending_order_tool_hint,omitempty"`
}

// Reply is the explicit message, or the category template when none was set.
func (r *Refusal) Reply() string {
	if r == nil {
		return Template(RefusalInsufficientInformation)
	}
	if r.Message != "" {
		return r.Message
	}
	return Template(r.Category)
}

type PlanKind string

const (
	PlanKindToolPlan PlanKind = "tool_plan"
	PlanKindRefusal  PlanKind = "refusal"
)

// PlanResult is exactly one of ToolPlan or Refusal, selected by Kind.
type PlanResult struct {
	Kind     PlanKind  `json:"kind"`
	ToolPlan *ToolPlan `json:"tool_plan,omitempty"`
	Refusal  *Refusal  `json:"refusal,omitempty"`
}

func PlanTools(target statex.AgentKind, calls ...ToolCallPlan) PlanResult {
	return PlanResult{
		Kind:     PlanKindToolPlan,
		ToolPlan: &ToolPlan{TargetAgent: target, ToolCalls: calls},
	}
}

func Refuse(refusal Refusal) PlanResult {
	return PlanResult{Kind: PlanKindRefusal, Refusal: &refusal}
}

func (r PlanResult) IsRefusal() bool {
	return r.Kind == PlanKindRefusal
}

// ValidationResult is the policy gate verdict; Category and Reason are set only when OK is false.
type ValidationResult struct {
	OK       bool            `json:"ok"`
	Category RefusalCategory `json:"category,omitempty"`
	Reason   string          `json:"reason,omitempty"`
}

// Reply is the user-facing text for a failed validation: the reason for
// INSUFFICIENT_INFORMATION, otherwise the category template.
func (v ValidationResult) Reply() string {
	if v.Category == RefusalInsufficientInformation && v.Reason != "" {
		return v.Reason
	}
	return Template(v.Category)
}

type TurnMeta struct {
	UserID string `json:"user_id,omitempty"`
}
