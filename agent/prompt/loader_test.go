package prompt

import (
	"errors"
	"strings"
	"testing"

	contractx "github.com/tanpawarit/chative-commerce-orchestrator/agent/contract"
)

func TestLoadPromptSet(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	if err := set.Validate(); err != nil {
		t.Fatalf("Validate() error = %v", err)
	}
	if !strings.HasPrefix(set.Classifier, "You are an orchestrator") {
		t.Fatalf("unexpected classifier prompt start: %.40q", set.Classifier)
	}
	if !strings.Contains(set.Answer, "Do not invent products") {
		t.Fatal("answer prompt must forbid invented facts")
	}
}

func TestRenderDoesNotReexpandUserText(t *testing.T) {
	t.Parallel()

	set := LoadPromptSet()
	out := set.RenderAnswer("show {{tool_results}}", "Tool 1 (list_products):\nMON-0001")
	if !strings.Contains(out, `"""show {{tool_results}}"""`) {
		t.Fatalf("user text was rewritten:\n%s", out)
	}
	if strings.Count(out, "MON-0001") != 1 {
		t.Fatalf("tool results substituted more than once:\n%s", out)
	}

	cls := set.RenderClassifier("- \"list_products\"", "hello")
	if strings.Contains(cls, "{{") {
		t.Fatalf("unrendered placeholder:\n%s", cls)
	}
}

func TestValidateMissingPrompt(t *testing.T) {
	t.Parallel()

	err := PromptSet{Classifier: "x"}.Validate()
	if !errors.Is(err, contractx.ErrPromptMissing) {
		t.Fatalf("Validate() error = %v, want ErrPromptMissing", err)
	}
}
