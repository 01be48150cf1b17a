package prompt

import (
	_ "embed"
	"fmt"
	"strings"

	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
)

var (
	//go:embed template/classifier.txt
	classifierRaw string

	//go:embed template/answer.txt
	answerRaw string
)

// PromptSet holds loaded prompt content.
type PromptSet struct {
	Classifier string
	Answer     string
}

// LoadPromptSet returns a PromptSet with trimmed prompt strings.
func LoadPromptSet() PromptSet {
	return PromptSet{
		Classifier: strings.TrimSpace(classifierRaw),
		Answer:     strings.TrimSpace(answerRaw),
	}
}

func (p PromptSet) Validate() error {
	if p.Classifier == "" {
		return fmt.Errorf("%w: classifier", contractx.ErrPromptMissing)
	}
	if p.Answer == "" {
		return fmt.Errorf("%w: answer", contractx.ErrPromptMissing)
	}
	return nil
}

// RenderClassifier fills the intent classification prompt. Placeholders are
// substituted in a single pass, so user text is never re-expanded.
func (p PromptSet) RenderClassifier(tools, userRequest string) string {
	return strings.NewReplacer(
		"{{tools}}", tools,
		"{{user_request}}", userRequest,
	).Replace(p.Classifier)
}

func (p PromptSet) RenderAnswer(userRequest, toolResults string) string {
	return strings.NewReplacer(
		"{{user_request}}", userRequest,
		"{{tool_results}}", toolResults,
	).Replace(p.Answer)
}
