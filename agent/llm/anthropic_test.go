package llm

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/cloudwego/eino/schema"
)

func newTestAnthropicModel(srv *httptest.Server) *AnthropicChatModel {
	return NewAnthropicChatModel(AnthropicOptions{
		APIKey:  "sk-ant-test",
		Model:   "claude-test",
		BaseURL: srv.URL,
	})
}

func TestAnthropicChatModelJoinsTextBlocks(t *testing.T) {
	t.Parallel()

	captured := &capturedRequest{}
	srv := newJSONServer(t, captured, `{
		"id": "msg_1",
		"type": "message",
		"role": "assistant",
		"model": "claude-test",
		"content": [
			{"type": "text", "text": "First part."},
			{"type": "tool_use", "id": "toolu_1", "name": "lookup", "input": {}},
			{"type": "text", "text": ""},
			{"type": "text", "text": "Second part."}
		],
		"stop_reason": "end_turn",
		"stop_sequence": null,
		"usage": {"input_tokens": 3, "output_tokens": 5}
	}`)

	input := []*schema.Message{
		schema.SystemMessage("Be brief."),
		schema.UserMessage("Show monitors"),
		nil,
		schema.AssistantMessage("Which size?", nil),
		schema.UserMessage("27 inch"),
	}
	out, err := newTestAnthropicModel(srv).Generate(context.Background(), input)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out.Role != schema.Assistant {
		t.Fatalf("role = %s", out.Role)
	}
	if out.Content != "First part.\nSecond part." {
		t.Fatalf("content = %q", out.Content)
	}

	if !strings.HasSuffix(captured.path, "/v1/messages") {
		t.Fatalf("path = %s", captured.path)
	}
	var sent struct {
		Model     string `json:"model"`
		MaxTokens int64  `json:"max_tokens"`
		System    []struct {
			Text string `json:"text"`
		} `json:"system"`
		Messages []struct {
			Role    string `json:"role"`
			Content []struct {
				Type string `json:"type"`
				Text string `json:"text"`
			} `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(captured.body, &sent); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if sent.Model != "claude-test" || sent.MaxTokens != 1024 {
		t.Fatalf("model = %s, max_tokens = %d", sent.Model, sent.MaxTokens)
	}
	if len(sent.System) != 1 || sent.System[0].Text != "Be brief." {
		t.Fatalf("system = %+v", sent.System)
	}

	wantRoles := []string{"user", "assistant", "user"}
	wantText := []string{"Show monitors", "Which size?", "27 inch"}
	if len(sent.Messages) != len(wantRoles) {
		t.Fatalf("sent %d messages, want %d", len(sent.Messages), len(wantRoles))
	}
	for i, msg := range sent.Messages {
		if msg.Role != wantRoles[i] {
			t.Fatalf("message %d role = %s, want %s", i, msg.Role, wantRoles[i])
		}
		if len(msg.Content) != 1 || msg.Content[0].Text != wantText[i] {
			t.Fatalf("message %d content = %+v, want %q", i, msg.Content, wantText[i])
		}
	}
}

func TestAnthropicChatModelNoTextBlocks(t *testing.T) {
	t.Parallel()

	srv := newJSONServer(t, &capturedRequest{}, `{
		"id": "msg_2",
		"type": "message",
		"role": "assistant",
		"model": "claude-test",
		"content": [],
		"stop_reason": "end_turn",
		"stop_sequence": null,
		"usage": {"input_tokens": 1, "output_tokens": 0}
	}`)

	out, err := newTestAnthropicModel(srv).Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out.Content != "" {
		t.Fatalf("content = %q, want empty", out.Content)
	}
}
