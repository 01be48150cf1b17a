package specialist

import (
	"encoding/json"
	"regexp"
	"strings"

	"github.com/google/uuid"
	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
)

const defaultCurrency = "USD"

var (
	skuPattern     = regexp.MustCompile(`\b[A-Z]{3}-\d{4}\b`)
	uuidPattern    = regexp.MustCompile(`\b[0-9a-fA-F]{8}-[0-9a-fA-F]{4}-[1-5][0-9a-fA-F]{3}-[89abAB][0-9a-fA-F]{3}-[0-9a-fA-F]{12}\b`)
	pinPattern     = regexp.MustCompile(`\b\d{4}\b`)
	emailPattern   = regexp.MustCompile(`[A-Za-z0-9._%+\-]+@[A-Za-z0-9.\-]+\.[A-Za-z]{2,}`)
	decimalPattern = regexp.MustCompile(`^\d+(\.\d+)?$`)
)

// ExtractSKU returns the first product code of the form ABC-1234.
func ExtractSKU(text string) string {
	return skuPattern.FindString(text)
}

// ExtractUUID returns the first RFC 4122 (v1-v5) identifier in text.
func ExtractUUID(text string) string {
	for _, candidate := range uuidPattern.FindAllString(text, -1) {
		if _, err := uuid.Parse(candidate); err == nil {
			return candidate
		}
	}
	return ""
}

func ExtractEmail(text string) string {
	return emailPattern.FindString(text)
}

// ExtractPIN returns the first standalone 4-digit number outside any email address.
func ExtractPIN(text string) string {
	return pinPattern.FindString(emailPattern.ReplaceAllString(text, " "))
}

// extractJSONObject decodes the first {...} object embedded in text. found
// is false when text holds no opening brace at all.
func extractJSONObject(text string) (obj map[string]any, found bool, err error) {
	start := strings.IndexByte(text, '{')
	if start < 0 {
		return nil, false, nil
	}

	dec := json.NewDecoder(strings.NewReader(text[start:]))
	dec.UseNumber()
	if err := dec.Decode(&obj); err != nil {
		return nil, true, err
	}
	return obj, true, nil
}

// cleanCreateOrderPayload keeps only well-formed items and reports whether a
// usable payload remains.
func cleanCreateOrderPayload(obj map[string]any) (*mcpx.CreateOrderArgs, bool) {
	customerID, _ := obj["customer_id"].(string)
	customerID = strings.TrimSpace(customerID)
	rawItems, isArray := obj["items"].([]any)
	if customerID == "" || !isArray {
		return nil, false
	}

	items := make([]mcpx.CreateOrderItem, 0, len(rawItems))
	for _, raw := range rawItems {
		if item, ok := cleanOrderItem(raw); ok {
			items = append(items, item)
		}
	}
	if len(items) == 0 {
		return nil, false
	}
	return &mcpx.CreateOrderArgs{CustomerID: customerID, Items: items}, true
}

func cleanOrderItem(raw any) (mcpx.CreateOrderItem, bool) {
	fields, ok := raw.(map[string]any)
	if !ok {
		return mcpx.CreateOrderItem{}, false
	}

	sku, _ := fields["sku"].(string)
	sku = strings.TrimSpace(sku)
	if sku == "" {
		return mcpx.CreateOrderItem{}, false
	}

	qtyNum, ok := fields["quantity"].(json.Number)
	if !ok {
		return mcpx.CreateOrderItem{}, false
	}
	qty, err := qtyNum.Int64()
	if err != nil || qty <= 0 {
		return mcpx.CreateOrderItem{}, false
	}

	price, _ := fields["unit_price"].(string)
	price = strings.TrimSpace(price)
	if !decimalPattern.MatchString(price) {
		return mcpx.CreateOrderItem{}, false
	}

	currency, _ := fields["currency"].(string)
	currency = strings.TrimSpace(currency)
	if currency == "" {
		currency = defaultCurrency
	}

	return mcpx.CreateOrderItem{
		SKU:       sku,
		Quantity:  int(qty),
		UnitPrice: price,
		Currency:  currency,
	}, true
}

func containsAny(text string, needles ...string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
