package tool

import (
	"fmt"
	"sort"
	"strings"

	"github.com/cloudwego/eino/schema"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
	statex "github.com/tanpawarit/chative-commerce-orchestrator/agent/state"
)

var (
	productTools = []mcpx.ToolName{
		mcpx.ToolListProducts,
		mcpx.ToolGetProduct,
		mcpx.ToolSearchProducts,
	}
	orderTools = []mcpx.ToolName{
		mcpx.ToolGetCustomer,
		mcpx.ToolVerifyCustomerPin,
		mcpx.ToolListOrders,
		mcpx.ToolGetOrder,
		mcpx.ToolCreateOrder,
	}
)

// promptHidden tools stay callable but are never offered as a classifier hint;
// no planner maps a hint onto them.
var promptHidden = map[mcpx.ToolName]bool{
	mcpx.ToolGetCustomer: true,
}

type toolSpec struct {
	desc   string
	params map[string]*schema.ParameterInfo
}

var toolSpecs = map[mcpx.ToolName]toolSpec{
	mcpx.ToolListProducts: {
		desc: "List products, optionally filtered by category and availability.",
		params: map[string]*schema.ParameterInfo{
			"category":  {Type: schema.String, Desc: "Product category, e.g. Monitors"},
			"is_active": {Type: schema.Boolean, Desc: "Only products currently in stock"},
		},
	},
	mcpx.ToolGetProduct: {
		desc: "Get one product by SKU.",
		params: map[string]*schema.ParameterInfo{
			"sku": {Type: schema.String, Desc: "Product SKU such as MON-0001", Required: true},
		},
	},
	mcpx.ToolSearchProducts: {
		desc: "Search products by free-text keywords.",
		params: map[string]*schema.ParameterInfo{
			"query": {Type: schema.String, Desc: "Search keywords", Required: true},
		},
	},
	mcpx.ToolGetCustomer: {
		desc: "Get a customer record by id.",
		params: map[string]*schema.ParameterInfo{
			"customer_id": {Type: schema.String, Desc: "Customer UUID", Required: true},
		},
	},
	mcpx.ToolVerifyCustomerPin: {
		desc: "Verify a customer with email and 4-digit PIN.",
		params: map[string]*schema.ParameterInfo{
			"email": {Type: schema.String, Desc: "Customer email", Required: true},
			"pin":   {Type: schema.String, Desc: "4-digit PIN", Required: true},
		},
	},
	mcpx.ToolListOrders: {
		desc: "List orders, optionally filtered by customer and status.",
		params: map[string]*schema.ParameterInfo{
			"customer_id": {Type: schema.String, Desc: "Customer UUID"},
			"status":      {Type: schema.String, Desc: "Order status"},
		},
	},
	mcpx.ToolGetOrder: {
		desc: "Get one order by its UUID.",
		params: map[string]*schema.ParameterInfo{
			"order_id": {Type: schema.String, Desc: "Order UUID", Required: true},
		},
	},
	mcpx.ToolCreateOrder: {
		desc: "Create an order for a verified customer.",
		params: map[string]*schema.ParameterInfo{
			"customer_id": {Type: schema.String, Desc: "Customer UUID", Required: true},
			"items": {
				Type:     schema.Array,
				Desc:     "Order lines",
				Required: true,
				ElemInfo: &schema.ParameterInfo{
					Type: schema.Object,
					SubParams: map[string]*schema.ParameterInfo{
						"sku":        {Type: schema.String, Required: true},
						"quantity":   {Type: schema.Integer, Required: true},
						"unit_price": {Type: schema.String, Desc: "Decimal as text", Required: true},
						"currency":   {Type: schema.String, Desc: "ISO currency, default USD"},
					},
				},
			},
		},
	},
}

var toolInfos = buildToolInfos()

func buildToolInfos() map[mcpx.ToolName]*schema.ToolInfo {
	infos := make(map[mcpx.ToolName]*schema.ToolInfo, len(toolSpecs))
	for name, spec := range toolSpecs {
		infos[name] = &schema.ToolInfo{
			Name:        string(name),
			Desc:        spec.desc,
			ParamsOneOf: schema.NewParamsOneOfByParams(spec.params),
		}
	}
	return infos
}

// AllowedForAgent returns the tool allow-list of an agent; out_of_scope has none.
func AllowedForAgent(agent statex.AgentKind) []mcpx.ToolName {
	switch agent {
	case statex.AgentProduct:
		return productTools
	case statex.AgentOrder:
		return orderTools
	default:
		return nil
	}
}

func IsAllowed(agent statex.AgentKind, name mcpx.ToolName) bool {
	for _, allowed := range AllowedForAgent(agent) {
		if allowed == name {
			return true
		}
	}
	return false
}

// InfosForAgent returns the eino tool descriptions of an agent's allow-list.
func InfosForAgent(agent statex.AgentKind) []*schema.ToolInfo {
	names := AllowedForAgent(agent)
	infos := make([]*schema.ToolInfo, 0, len(names))
	for _, name := range names {
		if info, ok := toolInfos[name]; ok {
			infos = append(infos, info)
		}
	}
	return infos
}

// DescribeForPrompt renders the per-agent tool list, with parameters, used by
// the intent classifier.
func DescribeForPrompt() string {
	var b strings.Builder
	for _, agent := range []statex.AgentKind{statex.AgentProduct, statex.AgentOrder} {
		fmt.Fprintf(&b, "For %s requests:\n", agent)
		for _, info := range InfosForAgent(agent) {
			name := mcpx.ToolName(info.Name)
			if promptHidden[name] {
				continue
			}
			fmt.Fprintf(&b, "- %q: %s", info.Name, info.Desc)
			if params := describeParams(toolSpecs[name].params); params != "" {
				fmt.Fprintf(&b, " Params: %s.", params)
			}
			b.WriteByte('\n')
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func describeParams(params map[string]*schema.ParameterInfo) string {
	names := make([]string, 0, len(params))
	for name := range params {
		names = append(names, name)
	}
	sort.Strings(names)

	parts := make([]string, 0, len(names))
	for _, name := range names {
		p := params[name]
		kind := string(p.Type)
		if p.Required {
			kind += ", required"
		}
		parts = append(parts, fmt.Sprintf("%s (%s)", name, kind))
	}
	return strings.Join(parts, ", ")
}
