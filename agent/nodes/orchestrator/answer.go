package orchestratornode

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	mcpx "github.com/tanpawarit/chative-commerce-orchestrator/agent/mcp"
)

const DefaultProductListMaxItems = 20

var blankLine = regexp.MustCompile(`\n\s*\n`)

// ComposeAnswer renders the tool transcript and asks the answer model to
// summarize it for AnswerSubject.
func ComposeAnswer(ctx context.Context, in *GraphState, composer AnswerComposer, productListMaxItems int) (*GraphState, error) {
	if err := checkState(in); err != nil {
		return nil, err
	}

	reply, err := composer.Compose(ctx, in.AnswerSubject, FormatToolResults(in.Calls, productListMaxItems))
	if err != nil {
		return nil, fmt.Errorf("compose answer: %w", err)
	}
	return in.finish(reply), nil
}

// FormatToolResults renders one "Tool i (name):" block per call. Product
// listings are cut down to productListMaxItems entries.
func FormatToolResults(calls []ExecutedCall, productListMaxItems int) string {
	blocks := make([]string, 0, len(calls))
	for i, call := range calls {
		text := call.Response.Text()
		if call.Call.Tool == mcpx.ToolListProducts || call.Call.Tool == mcpx.ToolSearchProducts {
			text = LimitProductList(text, productListMaxItems)
		}
		blocks = append(blocks, fmt.Sprintf("Tool %d (%s):\n%s", i+1, call.Call.Tool, text))
	}
	return strings.Join(blocks, "\n\n")
}

// LimitProductList keeps the header block and the first limit item blocks of
// a blank-line separated listing. A limit of zero or less disables it.
func LimitProductList(text string, limit int) string {
	if limit <= 0 {
		return text
	}

	blocks := blankLine.Split(text, -1)
	if len(blocks) <= limit+1 {
		return text
	}

	kept := strings.Join(blocks[:limit+1], "\n\n")
	return kept + fmt.Sprintf("\n\n(Showing first %d products; additional items are omitted.)", limit)
}
