package llms

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/dominds-project/dominds/pkg/config"
	"github.com/dominds-project/dominds/pkg/httpclient"
)

// OllamaProvider implements LLMProvider for a local Ollama server's
// /api/chat endpoint (NDJSON streaming, no SSE framing).
type OllamaProvider struct {
	cfg        *config.LLMConfig
	httpClient *httpclient.Client
	baseURL    string
}

type OllamaRequest struct {
	Model    string          `json:"model"`
	Messages []OllamaMessage `json:"messages"`
	Stream   bool            `json:"stream"`
	Options  *OllamaOptions  `json:"options,omitempty"`
	Tools    []OllamaTool    `json:"tools,omitempty"`
}

type OllamaMessage struct {
	Role       string           `json:"role"`
	Content    string           `json:"content"`
	Thinking   string           `json:"thinking,omitempty"`
	ToolCalls  []OllamaToolCall `json:"tool_calls,omitempty"`
	ToolCallID string           `json:"tool_call_id,omitempty"`
	ToolName   string           `json:"tool_name,omitempty"`
}

type OllamaTool struct {
	Type     string             `json:"type"`
	Function OllamaToolFunction `json:"function"`
}

type OllamaToolFunction struct {
	Name        string                 `json:"name"`
	Description string                 `json:"description"`
	Parameters  map[string]interface{} `json:"parameters"`
}

type OllamaToolCall struct {
	Type     string                 `json:"type"`
	Function OllamaToolCallFunction `json:"function"`
}

type OllamaToolCallFunction struct {
	Index     int                    `json:"index,omitempty"`
	Name      string                 `json:"name"`
	Arguments map[string]interface{} `json:"arguments"`
}

type OllamaOptions struct {
	Temperature float64 `json:"temperature,omitempty"`
	NumPredict  int     `json:"num_predict,omitempty"`
}

type OllamaResponse struct {
	Model           string        `json:"model"`
	Message         OllamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error,omitempty"`
}

type OllamaStreamChunk struct {
	Message         OllamaMessage `json:"message"`
	Done            bool          `json:"done"`
	PromptEvalCount int           `json:"prompt_eval_count"`
	EvalCount       int           `json:"eval_count"`
	Error           string        `json:"error,omitempty"`
}

// NewOllamaProvider builds a provider from a fully-formed config.
func NewOllamaProvider(cfg *config.LLMConfig) (*OllamaProvider, error) {
	if cfg == nil {
		return nil, fmt.Errorf("config is required")
	}
	baseURL := cfg.BaseURL
	if baseURL == "" {
		baseURL = "http://localhost:11434"
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	return &OllamaProvider{
		cfg: cfg,
		httpClient: httpclient.New(
			httpclient.WithHTTPClient(&http.Client{Timeout: 300 * time.Second}),
			httpclient.WithMaxRetries(2),
			httpclient.WithBaseDelay(time.Second),
		),
		baseURL: baseURL,
	}, nil
}

func (p *OllamaProvider) GetModelName() string { return p.cfg.Model }
func (p *OllamaProvider) GetMaxTokens() int     { return p.cfg.MaxTokens }
func (p *OllamaProvider) GetTemperature() float64 {
	if p.cfg.Temperature != nil {
		return *p.cfg.Temperature
	}
	return 0.7
}
func (p *OllamaProvider) Close() error { return nil }

// Generate performs a single non-streaming completion.
func (p *OllamaProvider) Generate(messages []Message, tools []ToolDefinition) (string, []ToolCall, int, error) {
	request := p.buildRequest(messages, false, tools)

	response, err := p.makeRequest(request)
	if err != nil {
		return "", nil, 0, err
	}
	if response.Error != "" {
		return "", nil, 0, fmt.Errorf("ollama API error: %s", response.Error)
	}

	tokens := response.PromptEvalCount + response.EvalCount
	return response.Message.Content, p.parseToolCalls(response.Message.ToolCalls), tokens, nil
}

// GenerateStreaming performs a streaming completion over NDJSON.
func (p *OllamaProvider) GenerateStreaming(messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	request := p.buildRequest(messages, true, tools)
	outputCh := make(chan StreamChunk, 100)

	go func() {
		defer close(outputCh)
		if err := p.makeStreamingRequest(request, outputCh); err != nil {
			outputCh <- StreamChunk{Type: "error", Error: err}
		}
	}()

	return outputCh, nil
}

func (p *OllamaProvider) buildRequest(messages []Message, stream bool, tools []ToolDefinition) OllamaRequest {
	ollamaMessages := make([]OllamaMessage, 0, len(messages))
	for _, msg := range messages {
		switch msg.Role {
		case "system":
			if msg.Content != "" {
				ollamaMessages = append(ollamaMessages, OllamaMessage{Role: "user", Content: fmt.Sprintf("System: %s", msg.Content)})
			}
		case "tool":
			toolName := msg.Name
			if toolName == "" {
				toolName = msg.ToolCallID
			}
			ollamaMessages = append(ollamaMessages, OllamaMessage{Role: "tool", Content: msg.Content, ToolName: toolName})
		case "assistant":
			om := OllamaMessage{Role: "assistant", Content: msg.Content}
			for i, tc := range msg.ToolCalls {
				args := tc.Arguments
				if args == nil {
					args = make(map[string]interface{})
				}
				om.ToolCalls = append(om.ToolCalls, OllamaToolCall{
					Type:     "function",
					Function: OllamaToolCallFunction{Index: i, Name: tc.Name, Arguments: args},
				})
			}
			ollamaMessages = append(ollamaMessages, om)
		default: // "user"
			ollamaMessages = append(ollamaMessages, OllamaMessage{Role: "user", Content: msg.Content})
		}
	}

	request := OllamaRequest{
		Model:    p.cfg.Model,
		Messages: ollamaMessages,
		Stream:   stream,
	}

	temp := p.GetTemperature()
	if temp > 0 || p.cfg.MaxTokens > 0 {
		request.Options = &OllamaOptions{Temperature: temp, NumPredict: p.cfg.MaxTokens}
	}

	if len(tools) > 0 {
		request.Tools = p.convertToOllamaTools(tools)
	}
	return request
}

func (p *OllamaProvider) convertToOllamaTools(tools []ToolDefinition) []OllamaTool {
	result := make([]OllamaTool, len(tools))
	for i, tool := range tools {
		result[i] = OllamaTool{
			Type:     "function",
			Function: OllamaToolFunction{Name: tool.Name, Description: tool.Description, Parameters: tool.Parameters},
		}
	}
	return result
}

func (p *OllamaProvider) parseToolCalls(ollamaToolCalls []OllamaToolCall) []ToolCall {
	toolCalls := make([]ToolCall, 0, len(ollamaToolCalls))
	for i, tc := range ollamaToolCalls {
		args := tc.Function.Arguments
		if args == nil {
			args = make(map[string]interface{})
		}
		var id string
		if tc.Function.Index >= 0 {
			id = fmt.Sprintf("call_%d_%s", tc.Function.Index, tc.Function.Name)
		} else {
			id = fmt.Sprintf("call_%d_%d", time.Now().UnixNano(), i)
		}
		raw, _ := json.Marshal(args)
		toolCalls = append(toolCalls, ToolCall{ID: id, Name: tc.Function.Name, Arguments: args, RawArgs: string(raw)})
	}
	return toolCalls
}

func (p *OllamaProvider) makeRequest(request OllamaRequest) (*OllamaResponse, error) {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequest("POST", p.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("API request failed with status %d: %s", resp.StatusCode, string(body))
	}

	var response OllamaResponse
	if err := json.Unmarshal(body, &response); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &response, nil
}

func (p *OllamaProvider) makeStreamingRequest(request OllamaRequest, outputCh chan<- StreamChunk) error {
	jsonData, err := json.Marshal(request)
	if err != nil {
		return fmt.Errorf("failed to marshal request: %w", err)
	}
	req, err := http.NewRequest("POST", p.baseURL+"/api/chat", bytes.NewReader(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.httpClient.Do(req)
	if resp != nil {
		defer resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			bodyBytes, _ := io.ReadAll(resp.Body)
			var errorJSON struct {
				Error string `json:"error"`
			}
			if json.Unmarshal(bodyBytes, &errorJSON) == nil && errorJSON.Error != "" {
				return fmt.Errorf("ollama API error: %s", errorJSON.Error)
			}
			return fmt.Errorf("ollama API request failed with status %d: %s", resp.StatusCode, string(bodyBytes))
		}
	}
	if err != nil {
		return fmt.Errorf("failed to make streaming request: %w", err)
	}
	if resp == nil {
		return fmt.Errorf("failed to make streaming request: no response received")
	}

	reader := bufio.NewReader(resp.Body)
	toolCallsMap := make(map[int]*OllamaToolCall)
	var totalTokens int

	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err == io.EOF {
				break
			}
			return fmt.Errorf("failed to read stream: %w", err)
		}
		line = bytes.TrimSpace(line)
		if len(line) == 0 {
			continue
		}

		var chunk OllamaStreamChunk
		if err := json.Unmarshal(line, &chunk); err != nil {
			continue
		}
		if chunk.Error != "" {
			return fmt.Errorf("ollama API error: %s", chunk.Error)
		}

		if chunk.Message.Content != "" {
			outputCh <- StreamChunk{Type: "text", Text: chunk.Message.Content}
		}
		if chunk.Message.Thinking != "" {
			outputCh <- StreamChunk{Type: "thinking", Text: chunk.Message.Thinking}
		}

		for _, tc := range chunk.Message.ToolCalls {
			idx := tc.Function.Index
			if idx < 0 {
				idx = len(toolCallsMap)
			}
			if existing, exists := toolCallsMap[idx]; exists {
				for k, v := range tc.Function.Arguments {
					existing.Function.Arguments[k] = v
				}
			} else {
				tcCopy := tc
				toolCallsMap[idx] = &tcCopy
			}
		}

		if chunk.Done {
			totalTokens = chunk.PromptEvalCount + chunk.EvalCount

			if len(toolCallsMap) > 0 {
				var accumulated []OllamaToolCall
				for i := 0; i < len(toolCallsMap); i++ {
					if tc, exists := toolCallsMap[i]; exists {
						accumulated = append(accumulated, *tc)
					}
				}
				for _, tc := range p.parseToolCalls(accumulated) {
					tc := tc
					outputCh <- StreamChunk{Type: "tool_call", ToolCall: &tc}
				}
			}

			outputCh <- StreamChunk{Type: "done", Tokens: totalTokens}
			break
		}
	}
	return nil
}
