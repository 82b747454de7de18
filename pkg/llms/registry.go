package llms

import (
	"fmt"

	"github.com/dominds-project/dominds/pkg/config"
	"github.com/dominds-project/dominds/pkg/registry"
)

// LLMProvider is the contract every wire-format adapter implements.
type LLMProvider interface {
	Generate(messages []Message, tools []ToolDefinition) (text string, toolCalls []ToolCall, tokens int, err error)

	GenerateStreaming(messages []Message, tools []ToolDefinition) (<-chan StreamChunk, error)

	GetModelName() string

	GetMaxTokens() int

	GetTemperature() float64

	Close() error
}

// LLMRegistry holds the named LLM providers a team.yaml configures.
type LLMRegistry struct {
	*registry.BaseRegistry[LLMProvider]
}

func NewLLMRegistry() *LLMRegistry {
	return &LLMRegistry{
		BaseRegistry: registry.NewBaseRegistry[LLMProvider](),
	}
}

func (r *LLMRegistry) RegisterLLM(name string, provider LLMProvider) error {
	if name == "" {
		return fmt.Errorf("LLM name cannot be empty")
	}
	if provider == nil {
		return fmt.Errorf("LLM provider cannot be nil")
	}
	return r.Register(name, provider)
}

// CreateLLMFromConfig builds and registers a provider for one entry of the config's llms section.
func (r *LLMRegistry) CreateLLMFromConfig(name string, cfg *config.LLMConfig) (LLMProvider, error) {
	if name == "" {
		return nil, fmt.Errorf("LLM name cannot be empty")
	}
	if cfg == nil {
		return nil, fmt.Errorf("LLM config cannot be nil")
	}

	var provider LLMProvider
	var err error

	switch cfg.Provider {
	case config.LLMProviderAnthropic:
		provider, err = NewAnthropicProvider(cfg)
	case config.LLMProviderOllama:
		provider, err = NewOllamaProvider(cfg)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s (supported: anthropic, ollama)", cfg.Provider)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to create LLM provider: %w", err)
	}

	if err := r.RegisterLLM(name, provider); err != nil {
		return nil, fmt.Errorf("failed to register LLM: %w", err)
	}

	return provider, nil
}

func (r *LLMRegistry) GetLLM(name string) (LLMProvider, error) {
	provider, exists := r.Get(name)
	if !exists {
		return nil, fmt.Errorf("LLM provider '%s' not found", name)
	}
	return provider, nil
}

func (r *LLMRegistry) ListLLMs() []string {
	names := make([]string, 0)
	for _, provider := range r.List() {
		names = append(names, provider.GetModelName())
	}
	return names
}
