package llms

import (
	"testing"

	"github.com/dominds-project/dominds/pkg/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockLLMProvider struct {
	model string
}

func (m *mockLLMProvider) Generate(messages []Message, tools []ToolDefinition) (string, []ToolCall, int, error) {
	return "mock response", nil, 0, nil
}

func (m *mockLLMProvider) GenerateStreaming(messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error) {
	ch := make(chan StreamChunk, 1)
	ch <- StreamChunk{Type: "done"}
	close(ch)
	return ch, nil
}

func (m *mockLLMProvider) GetModelName() string   { return m.model }
func (m *mockLLMProvider) GetMaxTokens() int       { return 1024 }
func (m *mockLLMProvider) GetTemperature() float64 { return 0.7 }
func (m *mockLLMProvider) Close() error            { return nil }

func TestNewLLMRegistry(t *testing.T) {
	reg := NewLLMRegistry()
	require.NotNil(t, reg)
	assert.NotNil(t, reg.List())
}

func TestLLMRegistry_RegisterLLM(t *testing.T) {
	reg := NewLLMRegistry()
	provider := &mockLLMProvider{model: "test-model"}

	require.NoError(t, reg.RegisterLLM("test-provider", provider))

	got, exists := reg.Get("test-provider")
	assert.True(t, exists)
	assert.Same(t, provider, got)
}

func TestLLMRegistry_RegisterLLM_Duplicate(t *testing.T) {
	reg := NewLLMRegistry()
	provider := &mockLLMProvider{model: "test-model"}

	require.NoError(t, reg.RegisterLLM("test-provider", provider))
	assert.Error(t, reg.RegisterLLM("test-provider", provider))
}

func TestLLMRegistry_RegisterLLM_EmptyName(t *testing.T) {
	reg := NewLLMRegistry()
	assert.Error(t, reg.RegisterLLM("", &mockLLMProvider{}))
}

func TestLLMRegistry_RegisterLLM_NilProvider(t *testing.T) {
	reg := NewLLMRegistry()
	assert.Error(t, reg.RegisterLLM("name", nil))
}

func TestLLMRegistry_GetLLM_NotFound(t *testing.T) {
	reg := NewLLMRegistry()
	_, err := reg.GetLLM("missing")
	assert.Error(t, err)
}

func TestLLMRegistry_CreateLLMFromConfig_Anthropic(t *testing.T) {
	reg := NewLLMRegistry()
	cfg := &config.LLMConfig{Provider: config.LLMProviderAnthropic, Model: "claude-sonnet-4-20250514", APIKey: "sk-test"}
	cfg.SetDefaults()

	provider, err := reg.CreateLLMFromConfig("default", cfg)
	require.NoError(t, err)
	assert.Equal(t, "claude-sonnet-4-20250514", provider.GetModelName())

	_, err = reg.GetLLM("default")
	assert.NoError(t, err)
}

func TestLLMRegistry_CreateLLMFromConfig_Ollama(t *testing.T) {
	reg := NewLLMRegistry()
	cfg := &config.LLMConfig{Provider: config.LLMProviderOllama, Model: "llama3", BaseURL: "http://localhost:11434"}
	cfg.SetDefaults()

	provider, err := reg.CreateLLMFromConfig("local", cfg)
	require.NoError(t, err)
	assert.Equal(t, "llama3", provider.GetModelName())
}

func TestLLMRegistry_CreateLLMFromConfig_Unsupported(t *testing.T) {
	reg := NewLLMRegistry()
	cfg := &config.LLMConfig{Provider: "unsupported", Model: "x"}

	_, err := reg.CreateLLMFromConfig("x", cfg)
	assert.Error(t, err)
}

func TestLLMRegistry_CreateLLMFromConfig_NilConfig(t *testing.T) {
	reg := NewLLMRegistry()
	_, err := reg.CreateLLMFromConfig("x", nil)
	assert.Error(t, err)
}

func TestLLMRegistry_ListLLMs(t *testing.T) {
	reg := NewLLMRegistry()
	require.NoError(t, reg.RegisterLLM("a", &mockLLMProvider{model: "model-a"}))
	require.NoError(t, reg.RegisterLLM("b", &mockLLMProvider{model: "model-b"}))

	names := reg.ListLLMs()
	assert.ElementsMatch(t, []string{"model-a", "model-b"}, names)
}
