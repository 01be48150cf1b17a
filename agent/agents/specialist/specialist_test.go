package specialist

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
)

const testCustomerID = "3f2b1c9e-8d7a-4b6c-9e5f-1a2b3c4d5e6f"

func stateWithHint(agent statex.AgentKind, hint mcpx.ToolName) *statex.ConversationState {
	return &statex.ConversationState{
		ID:         "s1",
		LastIntent: &statex.IntentClassification{TargetAgent: agent, ToolHint: hint},
	}
}

func requireSingleCall(t *testing.T, res contractx.PlanResult) contractx.ToolCallPlan {
	t.Helper()
	require.Equal(t, contractx.PlanKindToolPlan, res.Kind)
	require.NotNil(t, res.ToolPlan)
	require.Len(t, res.ToolPlan.ToolCalls, 1)
	return res.ToolPlan.ToolCalls[0]
}

func TestProductPlannerMonitorsInStock(t *testing.T) {
	t.Parallel()

	res, err := ProductPlanner{}.Plan(context.Background(), "Show me all monitors in stock", stateWithHint(statex.AgentProduct, ""))
	require.NoError(t, err)

	call := requireSingleCall(t, res)
	assert.Equal(t, statex.AgentProduct, res.ToolPlan.TargetAgent)
	assert.Equal(t, mcpx.ToolListProducts, call.Tool)
	args, ok := call.Args.(mcpx.ListProductsArgs)
	require.True(t, ok)
	require.NotNil(t, args.Category)
	require.NotNil(t, args.IsActive)
	assert.Equal(t, "Monitors", *args.Category)
	assert.True(t, *args.IsActive)
}

func TestProductPlanner(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		hint     mcpx.ToolName
		message  string
		wantTool mcpx.ToolName
		check    func(t *testing.T, args mcpx.ToolArgs)
	}{
		{
			name:     "get_product hint with sku",
			hint:     mcpx.ToolGetProduct,
			message:  "Tell me about MON-0042 please",
			wantTool: mcpx.ToolGetProduct,
			check: func(t *testing.T, args mcpx.ToolArgs) {
				assert.Equal(t, mcpx.GetProductArgs{SKU: "MON-0042"}, args)
			},
		},
		{
			name:     "get_product hint without sku falls back to search",
			hint:     mcpx.ToolGetProduct,
			message:  "tell me about the curved one",
			wantTool: mcpx.ToolSearchProducts,
			check: func(t *testing.T, args mcpx.ToolArgs) {
				assert.Equal(t, mcpx.SearchProductsArgs{Query: "tell me about the curved one"}, args)
			},
		},
		{
			name:     "list hint without category",
			hint:     mcpx.ToolListProducts,
			message:  "what do you sell?",
			wantTool: mcpx.ToolListProducts,
			check: func(t *testing.T, args mcpx.ToolArgs) {
				assert.Equal(t, mcpx.ListProductsArgs{}, args)
			},
		},
		{
			name:     "list hint with router category",
			hint:     mcpx.ToolListProducts,
			message:  "which routers do you carry",
			wantTool: mcpx.ToolListProducts,
			check: func(t *testing.T, args mcpx.ToolArgs) {
				list := args.(mcpx.ListProductsArgs)
				require.NotNil(t, list.Category)
				assert.Equal(t, "Networking", *list.Category)
				assert.Nil(t, list.IsActive)
			},
		},
		{
			name:     "search hint",
			hint:     mcpx.ToolSearchProducts,
			message:  "  wireless keyboard  ",
			wantTool: mcpx.ToolSearchProducts,
			check: func(t *testing.T, args mcpx.ToolArgs) {
				assert.Equal(t, mcpx.SearchProductsArgs{Query: "wireless keyboard"}, args)
			},
		},
		{
			name:     "no hint sku",
			message:  "Is COM-1234 any good?",
			wantTool: mcpx.ToolGetProduct,
		},
		{
			name:     "no hint category",
			message:  "I need a new laptop",
			wantTool: mcpx.ToolListProducts,
			check: func(t *testing.T, args mcpx.ToolArgs) {
				list := args.(mcpx.ListProductsArgs)
				require.NotNil(t, list.Category)
				assert.Equal(t, "Computers", *list.Category)
			},
		},
		{
			name:     "no hint listing language",
			message:  "browse everything that is available",
			wantTool: mcpx.ToolListProducts,
			check: func(t *testing.T, args mcpx.ToolArgs) {
				list := args.(mcpx.ListProductsArgs)
				assert.Nil(t, list.Category)
				require.NotNil(t, list.IsActive)
				assert.True(t, *list.IsActive)
			},
		},
		{
			name:     "no hint fallback search",
			message:  "ergonomic chair",
			wantTool: mcpx.ToolSearchProducts,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := ProductPlanner{}.Plan(context.Background(), tt.message, stateWithHint(statex.AgentProduct, tt.hint))
			require.NoError(t, err)
			call := requireSingleCall(t, res)
			assert.Equal(t, tt.wantTool, call.Tool)
			assert.Equal(t, call.Tool, call.Args.ToolName())
			if tt.check != nil {
				tt.check(t, call.Args)
			}
		})
	}
}

func TestOrderPlannerVerification(t *testing.T) {
	t.Parallel()

	st := stateWithHint(statex.AgentOrder, mcpx.ToolVerifyCustomerPin)

	res, err := OrderPlanner{}.Plan(context.Background(), "my email is jane@example.com", st)
	require.NoError(t, err)
	require.True(t, res.IsRefusal())
	assert.Equal(t, contractx.RefusalInsufficientInformation, res.Refusal.Category)
	assert.Equal(t, "I need a bit more information to continue. Please provide your customer email and 4-digit PIN so I can verify you.", res.Refusal.Message)

	res, err = OrderPlanner{}.Plan(context.Background(), "jane@example.com pin 4821", st)
	require.NoError(t, err)
	call := requireSingleCall(t, res)
	assert.Equal(t, mcpx.VerifyCustomerPinArgs{Email: "jane@example.com", Pin: "4821"}, call.Args)
}

func TestOrderPlannerVerificationChainsPendingOrder(t *testing.T) {
	t.Parallel()

	st := stateWithHint(statex.AgentOrder, mcpx.ToolVerifyCustomerPin)
	st.PendingCreateOrder = &mcpx.CreateOrderArgs{
		CustomerID: "draft-customer",
		Items:      []mcpx.CreateOrderItem{{SKU: "MON-0001", Quantity: 2, UnitPrice: "199.99", Currency: "USD"}},
	}

	res, err := OrderPlanner{}.Plan(context.Background(), "jane@example.com 4821", st)
	require.NoError(t, err)
	require.Equal(t, contractx.PlanKindToolPlan, res.Kind)
	require.Len(t, res.ToolPlan.ToolCalls, 2)
	assert.Equal(t, mcpx.ToolVerifyCustomerPin, res.ToolPlan.ToolCalls[0].Tool)
	assert.Equal(t, mcpx.ToolCreateOrder, res.ToolPlan.ToolCalls[1].Tool)
	assert.Equal(t, *st.PendingCreateOrder, res.ToolPlan.ToolCalls[1].Args)
}

func TestOrderPlannerCreateOrder(t *testing.T) {
	t.Parallel()

	st := stateWithHint(statex.AgentOrder, mcpx.ToolCreateOrder)
	msg := `Please order {"customer_id":"` + testCustomerID + `","items":[` +
		`{"sku":"MON-0001","quantity":2,"unit_price":"199.99"},` +
		`{"sku":"COM-0002","quantity":"1","unit_price":"10.00"},` +
		`{"sku":"NET-0003","quantity":1,"unit_price":"49.50","currency":"EUR"},` +
		`{"sku":"","quantity":1,"unit_price":"1.00"},` +
		`{"sku":"MON-0004","quantity":1.5,"unit_price":"1.00"}` +
		`]} thanks`

	res, err := OrderPlanner{}.Plan(context.Background(), msg, st)
	require.NoError(t, err)
	require.True(t, res.IsRefusal())
	assert.Equal(t, contractx.RefusalInsufficientInformation, res.Refusal.Category)
	assert.Equal(t, "I need a bit more information to continue. Please provide your customer email and 4-digit PIN so I can verify you before creating the order.", res.Refusal.Message)
	assert.Equal(t, mcpx.ToolCreateOrder, res.Refusal.PendingOrderToolHint)
	assert.Equal(t, msg, res.Refusal.PendingOrderRequestMessage)
	assert.Equal(t, &mcpx.CreateOrderArgs{
		CustomerID: testCustomerID,
		Items: []mcpx.CreateOrderItem{
			{SKU: "MON-0001", Quantity: 2, UnitPrice: "199.99", Currency: "USD"},
			{SKU: "NET-0003", Quantity: 1, UnitPrice: "49.50", Currency: "EUR"},
		},
	}, res.Refusal.PendingCreateOrderArgs)
}

func TestOrderPlannerCreateOrderRejectsPayloads(t *testing.T) {
	t.Parallel()

	const (
		invalid = "I need a bit more information to continue. Please provide a valid JSON payload with customer_id and items (sku, quantity, unit_price, currency)."
		missing = "I need a bit more information to continue. Please include a JSON payload with customer_id and items (sku, quantity, unit_price, currency)."
	)

	tests := []struct {
		name    string
		message string
		want    string
	}{
		{name: "no json", message: "create an order for two monitors", want: missing},
		{name: "broken json", message: `order {"customer_id": "c1", "items": [`, want: invalid},
		{name: "missing customer", message: `{"items":[{"sku":"MON-0001","quantity":1,"unit_price":"1.00"}]}`, want: invalid},
		{name: "items not array", message: `{"customer_id":"c1","items":{"sku":"MON-0001"}}`, want: invalid},
		{name: "no valid items", message: `{"customer_id":"c1","items":[{"sku":"MON-0001","quantity":0,"unit_price":"1.00"}]}`, want: invalid},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			res, err := OrderPlanner{}.Plan(context.Background(), tt.message, stateWithHint(statex.AgentOrder, mcpx.ToolCreateOrder))
			require.NoError(t, err)
			require.True(t, res.IsRefusal())
			assert.Equal(t, tt.want, res.Refusal.Message)
			assert.Nil(t, res.Refusal.PendingCreateOrderArgs)
		})
	}
}

func TestOrderPlannerLookups(t *testing.T) {
	t.Parallel()

	res, err := OrderPlanner{}.Plan(context.Background(), "where is my order?", stateWithHint(statex.AgentOrder, mcpx.ToolGetOrder))
	require.NoError(t, err)
	require.True(t, res.IsRefusal())
	assert.Equal(t, "I need a bit more information to continue. Please provide the order ID (UUID) so I can fetch a specific order.", res.Refusal.Message)

	res, err = OrderPlanner{}.Plan(context.Background(), "status of "+testCustomerID, stateWithHint(statex.AgentOrder, mcpx.ToolGetOrder))
	require.NoError(t, err)
	assert.Equal(t, mcpx.GetOrderArgs{OrderID: testCustomerID}, requireSingleCall(t, res).Args)

	res, err = OrderPlanner{}.Plan(context.Background(), "show my orders", stateWithHint(statex.AgentOrder, mcpx.ToolListOrders))
	require.NoError(t, err)
	assert.Equal(t, mcpx.ListOrdersArgs{}, requireSingleCall(t, res).Args)

	res, err = OrderPlanner{}.Plan(context.Background(), "what about "+testCustomerID, stateWithHint(statex.AgentOrder, ""))
	require.NoError(t, err)
	assert.Equal(t, mcpx.ToolGetOrder, requireSingleCall(t, res).Tool)

	res, err = OrderPlanner{}.Plan(context.Background(), "orders please", stateWithHint(statex.AgentOrder, mcpx.ToolGetCustomer))
	require.NoError(t, err)
	assert.Equal(t, mcpx.ToolListOrders, requireSingleCall(t, res).Tool)
}

func TestOrderPlannerGetCustomerHintNeverGetsOrder(t *testing.T) {
	t.Parallel()

	res, err := OrderPlanner{}.Plan(context.Background(), "Show customer "+testCustomerID, stateWithHint(statex.AgentOrder, mcpx.ToolGetCustomer))
	require.NoError(t, err)

	call := requireSingleCall(t, res)
	assert.NotEqual(t, mcpx.ToolGetOrder, call.Tool)
	assert.Equal(t, mcpx.ToolListOrders, call.Tool)
	args, ok := call.Args.(mcpx.ListOrdersArgs)
	require.True(t, ok)
	require.NotNil(t, args.CustomerID)
	assert.Equal(t, testCustomerID, *args.CustomerID)
}

func TestPlannersNeverReturnEmptyPlans(t *testing.T) {
	t.Parallel()

	messages := []string{"", "hi", "MON-0001", "list", "{", testCustomerID, "a@b.co 1234", `{"customer_id":"c","items":[]}`}
	hints := append([]mcpx.ToolName{""}, mcpx.AllTools...)
	registry := NewRegistry()

	for _, agent := range []statex.AgentKind{statex.AgentProduct, statex.AgentOrder} {
		planner, ok := registry.For(agent)
		require.True(t, ok)
		for _, hint := range hints {
			for _, msg := range messages {
				res, err := planner.Plan(context.Background(), msg, stateWithHint(agent, hint))
				require.NoError(t, err)
				if res.IsRefusal() {
					require.NotNil(t, res.Refusal)
					continue
				}
				require.NotNil(t, res.ToolPlan, "agent=%s hint=%s msg=%q", agent, hint, msg)
				assert.NotEmpty(t, res.ToolPlan.ToolCalls, "agent=%s hint=%s msg=%q", agent, hint, msg)
			}
		}
	}
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	registry := NewRegistry()
	_, ok := registry.For(statex.AgentOutOfScope)
	assert.False(t, ok)
	assert.IsType(t, ProductPlanner{}, registry.Product())
	assert.IsType(t, OrderPlanner{}, registry.Order())

	custom := NewRegistryWith(nil, ProductPlanner{})
	assert.IsType(t, ProductPlanner{}, custom.Order())
}

func TestExtractors(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "1234", ExtractPIN("john2024@example.com with pin 1234"))
	assert.Equal(t, "", ExtractPIN("my pin is 12345"))
	assert.Equal(t, "john2024@example.com", ExtractEmail("email: john2024@example.com, thanks"))
	assert.Equal(t, testCustomerID, ExtractUUID("customer "+testCustomerID+" verified"))
	assert.Equal(t, "", ExtractUUID("customer 3f2b1c9e-8d7a-0b6c-9e5f-1a2b3c4d5e6f"))
	assert.Equal(t, "NET-0420", ExtractSKU("router NET-0420 and net-0001"))
}
