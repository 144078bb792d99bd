package claude

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Nyukimin/textmoe/internal/domain/llm"
)

func TestNewClaudeProvider(t *testing.T) {
	provider := NewClaudeProvider("test-key", "claude-sonnet-4-20250514")

	if provider == nil {
		t.Fatal("NewClaudeProvider should not return nil")
	}

	if provider.Name() != "claude-claude-sonnet-4-20250514" {
		t.Errorf("Unexpected name '%s'", provider.Name())
	}
}

func TestClaudeProviderGenerate_Success(t *testing.T) {
	// モックAnthropicサーバー
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/messages" {
			t.Errorf("Expected path '/v1/messages', got '%s'", r.URL.Path)
		}

		var reqBody map[string]interface{}
		json.NewDecoder(r.Body).Decode(&reqBody)

		if reqBody["max_tokens"] == nil {
			t.Error("Request should always carry max_tokens")
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":    "msg_test",
			"type":  "message",
			"role":  "assistant",
			"model": "claude-sonnet-4-20250514",
			"content": []map[string]interface{}{
				{"type": "text", "text": "The moon hums softly."},
			},
			"stop_reason": "end_turn",
			"usage": map[string]interface{}{
				"input_tokens":  12,
				"output_tokens": 6,
			},
		})
	}))
	defer server.Close()

	provider := NewClaudeProvider("test-key", "claude-sonnet-4-20250514")
	provider.SetBaseURL(server.URL)

	req := llm.GenerateRequest{
		SystemPrompt: "You are a poet.",
		Messages: []llm.Message{
			{Role: "user", Content: "a poem about the moon"},
		},
		MaxTokens:   200,
		Temperature: 0.9,
	}

	resp, err := provider.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Content != "The moon hums softly." {
		t.Errorf("Unexpected content: '%s'", resp.Content)
	}

	if resp.TokensUsed != 18 {
		t.Errorf("Expected 18 tokens used, got %d", resp.TokensUsed)
	}

	if resp.FinishReason != "end_turn" {
		t.Errorf("Expected finish reason 'end_turn', got '%s'", resp.FinishReason)
	}
}

func TestClaudeProviderGenerate_DefaultMaxTokens(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		json.NewDecoder(r.Body).Decode(&reqBody)

		if got, ok := reqBody["max_tokens"].(float64); !ok || got != float64(defaultMaxTokens) {
			t.Errorf("Expected default max_tokens %d, got %v", defaultMaxTokens, reqBody["max_tokens"])
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "msg_test",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-sonnet-4-20250514",
			"content":     []map[string]interface{}{{"type": "text", "text": "ok"}},
			"stop_reason": "end_turn",
			"usage":       map[string]interface{}{"input_tokens": 1, "output_tokens": 1},
		})
	}))
	defer server.Close()

	provider := NewClaudeProvider("test-key", "claude-sonnet-4-20250514")
	provider.SetBaseURL(server.URL)

	req := llm.GenerateRequest{
		Messages: []llm.Message{{Role: "user", Content: "x"}},
	}

	if _, err := provider.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestClaudeProviderGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		json.NewEncoder(w).Encode(map[string]interface{}{
			"type": "error",
			"error": map[string]interface{}{
				"type":    "invalid_request_error",
				"message": "malformed request",
			},
		})
	}))
	defer server.Close()

	provider := NewClaudeProvider("test-key", "claude-sonnet-4-20250514")
	provider.SetBaseURL(server.URL)

	req := llm.GenerateRequest{
		Messages: []llm.Message{{Role: "user", Content: "x"}},
	}

	_, err := provider.Generate(context.Background(), req)
	if err == nil {
		t.Fatal("Generate should fail for API errors")
	}
}
