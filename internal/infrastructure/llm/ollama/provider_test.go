package ollama

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/Nyukimin/textmoe/internal/domain/llm"
)

func TestNewOllamaProvider(t *testing.T) {
	provider := NewOllamaProvider("http://localhost:11434", "test-model")

	if provider == nil {
		t.Fatal("NewOllamaProvider should not return nil")
	}

	if provider.Name() != "ollama-test-model" {
		t.Errorf("Expected name 'ollama-test-model', got '%s'", provider.Name())
	}
}

func TestOllamaProviderGenerate_Success(t *testing.T) {
	// モックOllamaサーバー
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/generate" {
			t.Errorf("Expected path '/api/generate', got '%s'", r.URL.Path)
		}

		if r.Method != "POST" {
			t.Errorf("Expected POST method, got '%s'", r.Method)
		}

		response := map[string]interface{}{
			"response": "Once upon a time, a dragon learned to sing.",
			"done":     true,
		}

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(response)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model")

	req := llm.GenerateRequest{
		Messages: []llm.Message{
			{Role: "user", Content: "Write about a singing dragon"},
		},
		MaxTokens:   100,
		Temperature: 0.8,
	}

	resp, err := provider.Generate(context.Background(), req)
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}

	if resp.Content != "Once upon a time, a dragon learned to sing." {
		t.Errorf("Expected response content, got '%s'", resp.Content)
	}

	if resp.FinishReason != "stop" {
		t.Errorf("Expected finish reason 'stop', got '%s'", resp.FinishReason)
	}
}

func TestOllamaProviderGenerate_SystemPromptIncluded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		json.NewDecoder(r.Body).Decode(&reqBody)

		prompt, ok := reqBody["prompt"].(string)
		if !ok || prompt == "" {
			t.Error("Request should contain a non-empty prompt")
		}

		if !strings.Contains(prompt, "System: You are a poet.") {
			t.Errorf("Prompt should contain the system instruction, got '%s'", prompt)
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": "ok",
			"done":     true,
		})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model")

	req := llm.GenerateRequest{
		SystemPrompt: "You are a poet.",
		Messages: []llm.Message{
			{Role: "user", Content: "a haiku"},
		},
		MaxTokens:   100,
		Temperature: 0.9,
		TopP:        0.95,
	}

	if _, err := provider.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestOllamaProviderGenerate_TopPForwarded(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var reqBody map[string]interface{}
		json.NewDecoder(r.Body).Decode(&reqBody)

		options, ok := reqBody["options"].(map[string]interface{})
		if !ok {
			t.Fatal("Request should contain options")
		}

		if topP, ok := options["top_p"].(float64); !ok || topP != 0.95 {
			t.Errorf("Expected top_p 0.95, got %v", options["top_p"])
		}

		json.NewEncoder(w).Encode(map[string]interface{}{
			"response": "ok",
			"done":     true,
		})
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "test-model")

	req := llm.GenerateRequest{
		Messages:    []llm.Message{{Role: "user", Content: "x"}},
		MaxTokens:   10,
		Temperature: 0.5,
		TopP:        0.95,
	}

	if _, err := provider.Generate(context.Background(), req); err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
}

func TestOllamaProviderGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "model not found", http.StatusNotFound)
	}))
	defer server.Close()

	provider := NewOllamaProvider(server.URL, "missing-model")

	req := llm.GenerateRequest{
		Messages: []llm.Message{{Role: "user", Content: "x"}},
	}

	_, err := provider.Generate(context.Background(), req)
	if err == nil {
		t.Fatal("Generate should fail for non-200 status")
	}
}

func TestOllamaProviderGenerate_Unreachable(t *testing.T) {
	provider := NewOllamaProvider("http://127.0.0.1:1", "test-model")

	req := llm.GenerateRequest{
		Messages: []llm.Message{{Role: "user", Content: "x"}},
	}

	_, err := provider.Generate(context.Background(), req)
	if err == nil {
		t.Fatal("Generate should fail when the server is unreachable")
	}
}
