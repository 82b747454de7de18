// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package config

import "fmt"

// LLMProvider identifies the LLM provider type.
type LLMProvider string

const (
	LLMProviderAnthropic LLMProvider = "anthropic"
	LLMProviderOllama    LLMProvider = "ollama"
)

// LLMConfig configures an LLM provider used to drive dialogs.
//
// llm.yaml:
//
//	llms:
//	  claude:
//	    provider: anthropic
//	    model: claude-sonnet-4-20250514
//	    api_key: ${ANTHROPIC_API_KEY}
type LLMConfig struct {
	// Provider type (anthropic, ollama).
	Provider LLMProvider `yaml:"provider,omitempty" jsonschema:"enum=anthropic,enum=ollama,default=anthropic"`

	// Model name (e.g. "claude-sonnet-4-20250514", "llama3").
	Model string `yaml:"model,omitempty"`

	// APIKey for authentication. Supports ${VAR} / ${VAR:-default} expansion.
	APIKey string `yaml:"api_key,omitempty"`

	// BaseURL overrides the default API endpoint (required for ollama).
	BaseURL string `yaml:"base_url,omitempty"`

	// Temperature for sampling (0.0 - 1.0).
	Temperature *float64 `yaml:"temperature,omitempty" jsonschema:"minimum=0,maximum=2,default=0.7"`

	// MaxTokens bounds the length of a single completion.
	MaxTokens int `yaml:"max_tokens,omitempty" jsonschema:"minimum=1,default=4096"`

	// ContextWindow is the provider's total token budget, used by the
	// driver's context-assembly step to decide when to drop oldest rounds.
	ContextWindow int `yaml:"context_window,omitempty" jsonschema:"minimum=1,default=128000"`
}

// SetDefaults applies default values to LLMConfig.
func (c *LLMConfig) SetDefaults() {
	if c.Provider == "" {
		c.Provider = LLMProviderAnthropic
	}
	if c.Temperature == nil {
		t := 0.7
		c.Temperature = &t
	}
	if c.MaxTokens == 0 {
		c.MaxTokens = 4096
	}
	if c.ContextWindow == 0 {
		c.ContextWindow = 128000
	}
}

// Validate checks the LLM configuration.
func (c *LLMConfig) Validate() error {
	switch c.Provider {
	case LLMProviderAnthropic, LLMProviderOllama:
	case "":
		return fmt.Errorf("provider is required")
	default:
		return fmt.Errorf("unsupported provider %q (valid: anthropic, ollama)", c.Provider)
	}
	if c.Model == "" {
		return fmt.Errorf("model is required")
	}
	if c.Provider == LLMProviderOllama && c.BaseURL == "" {
		return fmt.Errorf("base_url is required for provider %q", c.Provider)
	}
	if c.Provider == LLMProviderAnthropic && c.APIKey == "" {
		return fmt.Errorf("api_key is required for provider %q", c.Provider)
	}
	if c.MaxTokens < 0 {
		return fmt.Errorf("max_tokens must be non-negative")
	}
	if c.ContextWindow < 0 {
		return fmt.Errorf("context_window must be non-negative")
	}
	return nil
}
