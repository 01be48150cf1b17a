package openrouter

import "testing"

func TestChatModelConfigTrimsAndCopies(t *testing.T) {
	t.Parallel()

	maxTokens := 256
	cfg := &Config{
		BaseURL:            " https://openrouter.ai/api/v1/ ",
		APIKey:             " key ",
		Model:              " openai/gpt-4o-mini ",
		MaxCompletionToken: &maxTokens,
		Temperature:        0,
	}

	got := cfg.ChatModelConfig()
	if got.BaseURL != "https://openrouter.ai/api/v1" {
		t.Fatalf("BaseURL = %q", got.BaseURL)
	}
	if got.APIKey != "key" || got.Model != "openai/gpt-4o-mini" {
		t.Fatalf("APIKey/Model = %q/%q", got.APIKey, got.Model)
	}
	if got.Temperature == nil || *got.Temperature != 0 {
		t.Fatalf("Temperature = %v", got.Temperature)
	}
	if got.ExtraFields != nil {
		t.Fatalf("ExtraFields = %v, want nil", got.ExtraFields)
	}

	cfg.Model = "x-ai/grok-4.1-fast"
	if cfg.ChatModelConfig().ExtraFields == nil {
		t.Fatal("expected reasoning override for blacklisted model")
	}
}

func TestNewClientRequiresAPIKey(t *testing.T) {
	t.Parallel()

	if NewClient(Config{APIKey: "  "}) != nil {
		t.Fatal("expected nil client without api key")
	}
	if NewClient(Config{APIKey: "key", BaseURL: "https://openrouter.ai/api/v1"}) == nil {
		t.Fatal("expected client")
	}
}
