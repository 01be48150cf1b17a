package specialist

import (
	"context"
	"strings"

	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
)

type categoryBucket struct {
	name     string
	keywords []string
}

var categoryBuckets = []categoryBucket{
	{name: "Monitors", keywords: []string{"monitor"}},
	{name: "Computers", keywords: []string{"computer", "laptop", "pc"}},
	{name: "Networking", keywords: []string{"network", "router", "switch", "modem"}},
}

// ProductPlanner maps product questions onto list/get/search calls.
type ProductPlanner struct{}

var _ contractx.Planner = ProductPlanner{}

func (ProductPlanner) Plan(ctx context.Context, userMessage string, st *statex.ConversationState) (contractx.PlanResult, error) {
	text := strings.TrimSpace(userMessage)
	lower := strings.ToLower(text)
	sku := ExtractSKU(text)

	var hint mcpx.ToolName
	if st != nil && st.LastIntent != nil {
		hint = st.LastIntent.ToolHint
	}

	switch hint {
	case mcpx.ToolGetProduct:
		if sku != "" {
			return planProduct(contractx.NewToolCall(mcpx.GetProductArgs{SKU: sku}, "Get product details by SKU.")), nil
		}
		return planProduct(searchCall(text, "Fallback to search when SKU was requested but not provided.")), nil

	case mcpx.ToolListProducts:
		return planProduct(listCall(lower, detectCategory(lower))), nil

	case mcpx.ToolSearchProducts:
		return planProduct(searchCall(text, "Search products by query text.")), nil
	}

	switch {
	case sku != "":
		return planProduct(contractx.NewToolCall(mcpx.GetProductArgs{SKU: sku}, "Get product details by SKU.")), nil
	case detectCategory(lower) != "":
		return planProduct(listCall(lower, detectCategory(lower))), nil
	case containsAny(lower, "list", "all products", "browse"):
		return planProduct(listCall(lower, "")), nil
	default:
		return planProduct(searchCall(text, "Search products by query text.")), nil
	}
}

func planProduct(call contractx.ToolCallPlan) contractx.PlanResult {
	return contractx.PlanTools(statex.AgentProduct, call)
}

func detectCategory(lower string) string {
	for _, bucket := range categoryBuckets {
		if containsAny(lower, bucket.keywords...) {
			return bucket.name
		}
	}
	return ""
}

func wantsInStock(lower string) bool {
	return containsAny(lower, "in stock", "available")
}

func listCall(lower, category string) contractx.ToolCallPlan {
	var args mcpx.ListProductsArgs
	if category != "" {
		args.Category = &category
	}
	if wantsInStock(lower) {
		active := true
		args.IsActive = &active
	}

	desc := "List products matching optional filters."
	if category != "" {
		desc = "List products filtered by inferred category and availability."
	}
	return contractx.NewToolCall(args, desc)
}

func searchCall(query, desc string) contractx.ToolCallPlan {
	return contractx.NewToolCall(mcpx.SearchProductsArgs{Query: query}, desc)
}
