package llms

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/dominds-project/dominds/pkg/config"
)

func testOllamaConfig(baseURL string) *config.LLMConfig {
	return &config.LLMConfig{
		Provider: config.LLMProviderOllama,
		Model:    "llama3",
		BaseURL:  baseURL,
	}
}

func TestNewOllamaProvider_DefaultBaseURL(t *testing.T) {
	cfg := testOllamaConfig("")
	provider, err := NewOllamaProvider(cfg)
	if err != nil {
		t.Fatalf("NewOllamaProvider() error = %v", err)
	}
	if provider.baseURL != "http://localhost:11434" {
		t.Errorf("baseURL = %q, want default", provider.baseURL)
	}
}

func TestNewOllamaProvider_TrimsTrailingSlash(t *testing.T) {
	cfg := testOllamaConfig("http://example.com:11434/")
	provider, err := NewOllamaProvider(cfg)
	if err != nil {
		t.Fatalf("NewOllamaProvider() error = %v", err)
	}
	if provider.baseURL != "http://example.com:11434" {
		t.Errorf("baseURL = %q, want trimmed", provider.baseURL)
	}
}

func TestOllamaProvider_Generate_Success(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/chat" {
			t.Errorf("expected /api/chat, got %s", r.URL.Path)
		}
		var req OllamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if req.Stream {
			t.Error("expected non-streaming request")
		}

		resp := OllamaResponse{
			Message:         OllamaMessage{Role: "assistant", Content: "hello there"},
			Done:            true,
			PromptEvalCount: 8,
			EvalCount:       12,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(testOllamaConfig(server.URL))

	text, toolCalls, tokens, err := provider.Generate([]Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if text != "hello there" {
		t.Errorf("text = %q", text)
	}
	if len(toolCalls) != 0 {
		t.Errorf("toolCalls = %d, want 0", len(toolCalls))
	}
	if tokens != 20 {
		t.Errorf("tokens = %d, want 20", tokens)
	}
}

func TestOllamaProvider_Generate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewEncoder(w).Encode(OllamaResponse{Error: "model not found"})
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(testOllamaConfig(server.URL))
	_, _, _, err := provider.Generate([]Message{{Role: "user", Content: "hi"}}, nil)
	if err == nil {
		t.Error("expected error from API error field")
	}
}

func TestOllamaProvider_Generate_ToolCallRoundtrip(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req OllamaRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("failed to decode request: %v", err)
		}
		if len(req.Tools) != 1 || req.Tools[0].Function.Name != "search" {
			t.Errorf("unexpected tools: %+v", req.Tools)
		}

		resp := OllamaResponse{
			Message: OllamaMessage{
				Role: "assistant",
				ToolCalls: []OllamaToolCall{
					{Type: "function", Function: OllamaToolCallFunction{Name: "search", Arguments: map[string]interface{}{"q": "go"}}},
				},
			},
			Done: true,
		}
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(resp)
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(testOllamaConfig(server.URL))
	tools := []ToolDefinition{{Name: "search", Description: "search the web", Parameters: map[string]interface{}{"type": "object"}}}

	_, toolCalls, _, err := provider.Generate([]Message{{Role: "user", Content: "find go docs"}}, tools)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if len(toolCalls) != 1 || toolCalls[0].Name != "search" {
		t.Fatalf("unexpected tool calls: %+v", toolCalls)
	}
}

func TestOllamaProvider_GenerateStreaming(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		flusher, _ := w.(http.Flusher)
		enc := json.NewEncoder(w)
		_ = enc.Encode(OllamaStreamChunk{Message: OllamaMessage{Content: "hel"}})
		_ = enc.Encode(OllamaStreamChunk{Message: OllamaMessage{Content: "lo"}})
		_ = enc.Encode(OllamaStreamChunk{Done: true, PromptEvalCount: 3, EvalCount: 4})
		if flusher != nil {
			flusher.Flush()
		}
	}))
	defer server.Close()

	provider, _ := NewOllamaProvider(testOllamaConfig(server.URL))
	ch, err := provider.GenerateStreaming([]Message{{Role: "user", Content: "hi"}}, nil)
	if err != nil {
		t.Fatalf("GenerateStreaming() error = %v", err)
	}

	var text string
	var tokens int
	for chunk := range ch {
		switch chunk.Type {
		case "text":
			text += chunk.Text
		case "done":
			tokens = chunk.Tokens
		case "error":
			t.Fatalf("unexpected stream error: %v", chunk.Error)
		}
	}
	if text != "hello" {
		t.Errorf("streamed text = %q, want hello", text)
	}
	if tokens != 7 {
		t.Errorf("tokens = %d, want 7", tokens)
	}
}
