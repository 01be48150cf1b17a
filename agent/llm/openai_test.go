package llm

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/cloudwego/eino/schema"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

type capturedRequest struct {
	mu   sync.Mutex
	path string
	body []byte
}

func (c *capturedRequest) record(r *http.Request) {
	body, _ := io.ReadAll(r.Body)
	c.mu.Lock()
	c.path = r.URL.Path
	c.body = body
	c.mu.Unlock()
}

func newJSONServer(t *testing.T, captured *capturedRequest, response string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		captured.record(r)
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, response)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func newTestOpenAIModel(srv *httptest.Server) *OpenAIChatModel {
	client := openai.NewClient(
		option.WithBaseURL(srv.URL),
		option.WithAPIKey("test-key"),
		option.WithMaxRetries(0),
	)
	return NewOpenAIChatModel(&client, OpenAIOptions{Model: "gpt-test", Temperature: 0.2, MaxCompletionTokens: 64})
}

func TestOpenAIChatModelMapsRoles(t *testing.T) {
	t.Parallel()

	captured := &capturedRequest{}
	srv := newJSONServer(t, captured, `{
		"id": "chatcmpl-1",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-test",
		"choices": [{"index": 0, "finish_reason": "stop", "message": {"role": "assistant", "content": "Here are the monitors."}}]
	}`)

	input := []*schema.Message{
		schema.SystemMessage("You are helpful."),
		nil,
		schema.UserMessage("Show monitors"),
		schema.AssistantMessage("Sure.", nil),
		schema.ToolMessage("tool output", "call-1"),
	}
	out, err := newTestOpenAIModel(srv).Generate(context.Background(), input)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out.Role != schema.Assistant || out.Content != "Here are the monitors." {
		t.Fatalf("unexpected output: %+v", out)
	}

	if !strings.HasSuffix(captured.path, "/chat/completions") {
		t.Fatalf("path = %s", captured.path)
	}
	var sent struct {
		Model    string `json:"model"`
		Messages []struct {
			Role    string          `json:"role"`
			Content json.RawMessage `json:"content"`
		} `json:"messages"`
	}
	if err := json.Unmarshal(captured.body, &sent); err != nil {
		t.Fatalf("decode request: %v", err)
	}
	if sent.Model != "gpt-test" {
		t.Fatalf("model = %s", sent.Model)
	}

	wantRoles := []string{"system", "user", "assistant", "user"}
	wantText := []string{"You are helpful.", "Show monitors", "Sure.", "tool output"}
	if len(sent.Messages) != len(wantRoles) {
		t.Fatalf("sent %d messages, want %d", len(sent.Messages), len(wantRoles))
	}
	for i, msg := range sent.Messages {
		if msg.Role != wantRoles[i] {
			t.Fatalf("message %d role = %s, want %s", i, msg.Role, wantRoles[i])
		}
		if !strings.Contains(string(msg.Content), wantText[i]) {
			t.Fatalf("message %d content = %s, want %q", i, msg.Content, wantText[i])
		}
	}
}

func TestOpenAIChatModelNoChoices(t *testing.T) {
	t.Parallel()

	srv := newJSONServer(t, &capturedRequest{}, `{
		"id": "chatcmpl-2",
		"object": "chat.completion",
		"created": 1,
		"model": "gpt-test",
		"choices": []
	}`)

	out, err := newTestOpenAIModel(srv).Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if out.Role != schema.Assistant || out.Content != "" {
		t.Fatalf("blank choice list should give an empty assistant message, got %+v", out)
	}
}

func TestOpenAIChatModelHTTPError(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		_, _ = io.WriteString(w, `{"error": {"message": "bad model", "type": "invalid_request_error"}}`)
	}))
	t.Cleanup(srv.Close)

	_, err := newTestOpenAIModel(srv).Generate(context.Background(), []*schema.Message{schema.UserMessage("hi")})
	if err == nil || !strings.Contains(err.Error(), "openai chat completion") {
		t.Fatalf("Generate() error = %v, want wrapped api error", err)
	}
}
