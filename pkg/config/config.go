// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package config loads and validates the module's configuration from one
// YAML document: agents, llms (LLM providers), tools and the serve
// command's own options. Example team.yaml:
//
//	agents:
//	  researcher:
//	    llm: claude
//	    tools: [web_search]
//	    instruction: "You research topics thoroughly."
//	defaults:
//	  llm: claude
package config

import (
	"fmt"
	"strings"
)

// Config is the merged, validated configuration for a dominds process.
type Config struct {
	Version     string `yaml:"version,omitempty"`
	Name        string `yaml:"name,omitempty"`
	Description string `yaml:"description,omitempty"`

	Agents    map[string]*AgentConfig    `yaml:"agents,omitempty"`
	LLMs      map[string]*LLMConfig      `yaml:"llms,omitempty"`
	Tools     map[string]*ToolConfig     `yaml:"tools,omitempty"`
	Databases map[string]*DatabaseConfig `yaml:"databases,omitempty"`

	Server       ServerConfig     `yaml:"server,omitempty"`
	Logger       *LoggerConfig    `yaml:"logger,omitempty"`
	RateLimiting *RateLimitConfig `yaml:"rate_limiting,omitempty"`
	Defaults     *DefaultsConfig  `yaml:"defaults,omitempty"`
}

// DefaultsConfig names fallbacks applied to agents that don't set their own.
type DefaultsConfig struct {
	LLM string `yaml:"llm,omitempty"`
}

// SetDefaults fills in unset fields across the whole config tree.
func (c *Config) SetDefaults() {
	if c.Version == "" {
		c.Version = "v1"
	}
	if c.Agents == nil {
		c.Agents = make(map[string]*AgentConfig)
	}
	if c.LLMs == nil {
		c.LLMs = make(map[string]*LLMConfig)
	}
	if c.Tools == nil {
		c.Tools = make(map[string]*ToolConfig)
	}
	if c.Databases == nil {
		c.Databases = make(map[string]*DatabaseConfig)
	}
	if c.Logger == nil {
		c.Logger = &LoggerConfig{}
	}
	if c.Defaults == nil {
		c.Defaults = &DefaultsConfig{}
	}

	if len(c.LLMs) == 0 {
		c.LLMs["default"] = &LLMConfig{Provider: LLMProviderAnthropic, Model: "claude-sonnet-4-20250514"}
	}
	if c.Defaults.LLM == "" {
		for name := range c.LLMs {
			c.Defaults.LLM = name
			break
		}
	}
	if len(c.Agents) == 0 {
		c.Agents["default"] = &AgentConfig{Name: "default", LLM: c.Defaults.LLM}
	}

	for name, agent := range c.Agents {
		if agent.Name == "" {
			agent.Name = name
		}
		if agent.LLM == "" {
			agent.LLM = c.Defaults.LLM
		}
		agent.SetDefaults()
	}
	for _, llm := range c.LLMs {
		llm.SetDefaults()
	}
	for _, tool := range c.Tools {
		tool.SetDefaults()
	}
	for _, db := range c.Databases {
		db.SetDefaults()
	}
	c.Logger.SetDefaults()
	c.Server.SetDefaults()
	if c.RateLimiting != nil {
		c.RateLimiting.SetDefaults()
	}
}

// Validate checks internal consistency of the whole config tree, including
// cross-references between sections.
func (c *Config) Validate() error {
	var errs []string

	for name, agent := range c.Agents {
		if err := agent.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("agent %q: %v", name, err))
		}
	}
	for name, llm := range c.LLMs {
		if err := llm.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("llm %q: %v", name, err))
		}
	}
	for name, tool := range c.Tools {
		if err := tool.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("tool %q: %v", name, err))
		}
	}
	for name, db := range c.Databases {
		if err := db.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("database %q: %v", name, err))
		}
	}
	if c.Logger != nil {
		if err := c.Logger.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("logger: %v", err))
		}
	}
	if err := c.Server.Validate(); err != nil {
		errs = append(errs, fmt.Sprintf("server: %v", err))
	}
	if c.RateLimiting != nil {
		if err := c.RateLimiting.Validate(); err != nil {
			errs = append(errs, fmt.Sprintf("rate_limiting: %v", err))
		}
	}

	if err := c.validateReferences(); err != nil {
		errs = append(errs, err.Error())
	}

	if len(errs) > 0 {
		return fmt.Errorf("configuration errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// validateReferences checks that every name referenced by one section
// (agent.llm, agent.tools, server.mirror.database, rate_limiting.sql_database)
// is actually defined in its owning section.
func (c *Config) validateReferences() error {
	var errs []string

	for agentName, agent := range c.Agents {
		if agent.LLM != "" {
			if _, ok := c.LLMs[agent.LLM]; !ok {
				errs = append(errs, fmt.Sprintf("agent %q references undefined llm %q", agentName, agent.LLM))
			}
		}
		for _, toolName := range agent.Tools {
			if _, ok := c.Tools[toolName]; !ok {
				errs = append(errs, fmt.Sprintf("agent %q references undefined tool %q", agentName, toolName))
			}
		}
	}

	if c.Server.Mirror.IsEnabled() && c.Server.Mirror.Database != "" {
		if _, ok := c.Databases[c.Server.Mirror.Database]; !ok {
			errs = append(errs, fmt.Sprintf("server.mirror references undefined database %q", c.Server.Mirror.Database))
		}
	}

	if c.RateLimiting != nil && c.RateLimiting.Backend == "sql" && c.RateLimiting.SQLDatabase != "" {
		if _, ok := c.Databases[c.RateLimiting.SQLDatabase]; !ok {
			errs = append(errs, fmt.Sprintf("rate_limiting references undefined database %q", c.RateLimiting.SQLDatabase))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("reference errors:\n  - %s", strings.Join(errs, "\n  - "))
	}
	return nil
}

// GetAgent returns the agent config by name.
func (c *Config) GetAgent(name string) (*AgentConfig, bool) {
	agent, ok := c.Agents[name]
	return agent, ok
}

// GetLLM returns the LLM config by name.
func (c *Config) GetLLM(name string) (*LLMConfig, bool) {
	llm, ok := c.LLMs[name]
	return llm, ok
}

// GetTool returns the tool config by name.
func (c *Config) GetTool(name string) (*ToolConfig, bool) {
	tool, ok := c.Tools[name]
	return tool, ok
}

// ListAgents returns the names of all configured agents.
func (c *Config) ListAgents() []string {
	names := make([]string, 0, len(c.Agents))
	for name := range c.Agents {
		names = append(names, name)
	}
	return names
}

// GetDatabase returns the database config by name.
func (c *Config) GetDatabase(name string) (*DatabaseConfig, bool) {
	db, ok := c.Databases[name]
	return db, ok
}
