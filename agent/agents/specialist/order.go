package specialist

import (
	"context"
	"strings"

	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
)

const (
	askVerification       = "Please provide your customer email and 4-digit PIN so I can verify you."
	askVerificationForNew = "Please provide your customer email and 4-digit PIN so I can verify you before creating the order."
	askValidPayload       = "Please provide a valid JSON payload with customer_id and items (sku, quantity, unit_price, currency)."
	askPayload            = "Please include a JSON payload with customer_id and items (sku, quantity, unit_price, currency)."
	askOrderID            = "Please provide the order ID (UUID) so I can fetch a specific order."
)

// OrderPlanner handles verification, order lookup and order creation.
// create_order is never planned directly: a fresh payload is parked on the
// session and only replayed after verify_customer_pin.
type OrderPlanner struct{}

var _ contractx.Planner = OrderPlanner{}

func (OrderPlanner) Plan(ctx context.Context, userMessage string, st *statex.ConversationState) (contractx.PlanResult, error) {
	text := strings.TrimSpace(userMessage)

	var hint mcpx.ToolName
	if st != nil && st.LastIntent != nil {
		hint = st.LastIntent.ToolHint
	}

	switch hint {
	case mcpx.ToolVerifyCustomerPin:
		return planVerification(text, st), nil
	case mcpx.ToolCreateOrder:
		return planCreateOrder(text), nil
	case mcpx.ToolGetOrder:
		orderID := ExtractUUID(text)
		if orderID == "" {
			return needMoreInformation(askOrderID), nil
		}
		return planOrder(getOrderCall(orderID)), nil
	case mcpx.ToolListOrders:
		return planOrder(contractx.NewToolCall(mcpx.ListOrdersArgs{}, "List orders for the customer.")), nil
	case mcpx.ToolGetCustomer:
		// A UUID here names a customer, never an order.
		args := mcpx.ListOrdersArgs{}
		if customerID := ExtractUUID(text); customerID != "" {
			args.CustomerID = &customerID
		}
		return planOrder(contractx.NewToolCall(args, "List orders for the requested customer.")), nil
	}

	if orderID := ExtractUUID(text); orderID != "" {
		return planOrder(getOrderCall(orderID)), nil
	}
	return planOrder(contractx.NewToolCall(mcpx.ListOrdersArgs{}, "Default to listing recent orders when order intent is detected.")), nil
}

func planVerification(text string, st *statex.ConversationState) contractx.PlanResult {
	email := ExtractEmail(text)
	pin := ExtractPIN(text)
	if email == "" || pin == "" {
		return needMoreInformation(askVerification)
	}

	calls := []contractx.ToolCallPlan{
		contractx.NewToolCall(mcpx.VerifyCustomerPinArgs{Email: email, Pin: pin}, "Verify customer identity using email and PIN."),
	}
	if st != nil && st.PendingCreateOrder != nil {
		calls = append(calls, contractx.NewToolCall(
			*st.PendingCreateOrder.Clone(),
			"Create a new order using the previously provided customer_id and items after successful verification.",
		))
	}
	return contractx.PlanTools(statex.AgentOrder, calls...)
}

func planCreateOrder(text string) contractx.PlanResult {
	obj, found, err := extractJSONObject(text)
	if !found {
		return needMoreInformation(askPayload)
	}
	if err != nil {
		return needMoreInformation(askValidPayload)
	}

	payload, ok := cleanCreateOrderPayload(obj)
	if !ok {
		return needMoreInformation(askValidPayload)
	}

	return contractx.Refuse(contractx.Refusal{
		Category:                   contractx.RefusalInsufficientInformation,
		Message:                    withTemplate(askVerificationForNew),
		PendingCreateOrderArgs:     payload,
		PendingOrderRequestMessage: text,
		PendingOrderToolHint:       mcpx.ToolCreateOrder,
	})
}

func planOrder(call contractx.ToolCallPlan) contractx.PlanResult {
	return contractx.PlanTools(statex.AgentOrder, call)
}

func getOrderCall(orderID string) contractx.ToolCallPlan {
	return contractx.NewToolCall(mcpx.GetOrderArgs{OrderID: orderID}, "Get a specific order by its ID.")
}

func needMoreInformation(ask string) contractx.PlanResult {
	return contractx.Refuse(contractx.Refusal{
		Category: contractx.RefusalInsufficientInformation,
		Message:  withTemplate(ask),
	})
}

func withTemplate(ask string) string {
	return contractx.Template(contractx.RefusalInsufficientInformation) + " " + ask
}
