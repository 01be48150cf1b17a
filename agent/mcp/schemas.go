package mcp

import (
	"encoding/json"
	"strings"
)

// ToolName identifies one of the commerce backend tools.
type ToolName string

const (
	ToolListProducts      ToolName = "list_products"
	ToolGetProduct        ToolName = "get_product"
	ToolSearchProducts    ToolName = "search_products"
	ToolGetCustomer       ToolName = "get_customer"
	ToolVerifyCustomerPin ToolName = "verify_customer_pin"
	ToolListOrders        ToolName = "list_orders"
	ToolGetOrder          ToolName = "get_order"
	ToolCreateOrder       ToolName = "create_order"
)

// AllTools lists every tool the backend exposes.
var AllTools = []ToolName{
	ToolListProducts,
	ToolGetProduct,
	ToolSearchProducts,
	ToolGetCustomer,
	ToolVerifyCustomerPin,
	ToolListOrders,
	ToolGetOrder,
	ToolCreateOrder,
}

// Known reports whether name is one of AllTools.
func (n ToolName) Known() bool {
	for _, t := range AllTools {
		if t == n {
			return true
		}
	}
	return false
}

func (n ToolName) String() string { return string(n) }

// ToolArgs is the typed argument payload of a single tool call.
type ToolArgs interface {
	ToolName() ToolName
}

type ListProductsArgs struct {
	Category *string `json:"category,omitempty"`
	IsActive *bool   `json:"is_active,omitempty"`
}

func (ListProductsArgs) ToolName() ToolName { return ToolListProducts }

type GetProductArgs struct {
	SKU string `json:"sku"`
}

func (GetProductArgs) ToolName() ToolName { return ToolGetProduct }

type SearchProductsArgs struct {
	Query string `json:"query"`
}

func (SearchProductsArgs) ToolName() ToolName { return ToolSearchProducts }

type GetCustomerArgs struct {
	CustomerID string `json:"customer_id"`
}

func (GetCustomerArgs) ToolName() ToolName { return ToolGetCustomer }

type VerifyCustomerPinArgs struct {
	Email string `json:"email"`
	Pin   string `json:"pin"`
}

func (VerifyCustomerPinArgs) ToolName() ToolName { return ToolVerifyCustomerPin }

type ListOrdersArgs struct {
	CustomerID *string `json:"customer_id,omitempty"`
	Status     *string `json:"status,omitempty"`
}

func (ListOrdersArgs) ToolName() ToolName { return ToolListOrders }

type GetOrderArgs struct {
	OrderID string `json:"order_id"`
}

func (GetOrderArgs) ToolName() ToolName { return ToolGetOrder }

// CreateOrderItem is one order line. UnitPrice is a decimal kept as text.
type CreateOrderItem struct {
	SKU       string `json:"sku"`
	Quantity  int    `json:"quantity"`
	UnitPrice string `json:"unit_price"`
	Currency  string `json:"currency,omitempty"`
}

type CreateOrderArgs struct {
	CustomerID string            `json:"customer_id"`
	Items      []CreateOrderItem `json:"items"`
}

func (CreateOrderArgs) ToolName() ToolName { return ToolCreateOrder }

// Clone returns a deep copy; nil stays nil.
func (a *CreateOrderArgs) Clone() *CreateOrderArgs {
	if a == nil {
		return nil
	}
	out := &CreateOrderArgs{CustomerID: a.CustomerID}
	if a.Items != nil {
		out.Items = make([]CreateOrderItem, len(a.Items))
		copy(out.Items, a.Items)
	}
	return out
}

// ContentBlock is a single content item in a tools/call result.
type ContentBlock struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// CallToolResponse is the result payload of a tools/call request.
type CallToolResponse struct {
	Content           []ContentBlock `json:"content"`
	StructuredContent map[string]any `json:"structuredContent,omitempty"`
	IsError           bool           `json:"isError,omitempty"`
}

// ErrorResponse builds an error result carrying msg as its only text block.
func ErrorResponse(msg string) CallToolResponse {
	return CallToolResponse{
		Content: []ContentBlock{{Type: "text", Text: msg}},
		IsError: true,
	}
}

// Text returns the structured "result" field when present, otherwise the
// text blocks joined by newlines.
func (r CallToolResponse) Text() string {
	if result, ok := r.StructuredContent["result"]; ok {
		switch v := result.(type) {
		case nil:
			return ""
		case string:
			return v
		default:
			raw, err := json.Marshal(v)
			if err == nil {
				return string(raw)
			}
		}
	}

	parts := make([]string, 0, len(r.Content))
	for _, block := range r.Content {
		parts = append(parts, block.Text)
	}
	return strings.Join(parts, "\n")
}
