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

// ToolType identifies how a tool is implemented.
type ToolType string

const (
	// ToolTypeFunction is an in-process function tool (see pkg/tool/functiontool).
	ToolTypeFunction ToolType = "function"

	// ToolTypeMCP is backed by a Model Context Protocol server.
	ToolTypeMCP ToolType = "mcp"
)

// ToolConfig configures a tool exposed to dialogs.
//
// Example:
//
//	tools:
//	  web_search:
//	    type: function
//	  filesystem:
//	    type: mcp
//	    transport: stdio
//	    command: mcp-server-filesystem
//	    args: ["/workspace"]
type ToolConfig struct {
	// Type of tool (function, mcp).
	Type ToolType `yaml:"type,omitempty" jsonschema:"enum=function,enum=mcp,default=function"`

	// Enabled controls whether the tool is registered.
	Enabled *bool `yaml:"enabled,omitempty" jsonschema:"default=true"`

	// Description shown to the LLM in the tool's JSON schema.
	Description string `yaml:"description,omitempty"`

	// Transport for MCP tools (stdio, sse, streamable-http).
	Transport string `yaml:"transport,omitempty" jsonschema:"enum=stdio,enum=sse,enum=streamable-http"`

	// URL is the MCP server endpoint (sse / streamable-http transports).
	URL string `yaml:"url,omitempty"`

	// Command launches an MCP server over stdio.
	Command string `yaml:"command,omitempty"`

	// Args passed to Command.
	Args []string `yaml:"args,omitempty"`

	// Env passed to Command, supports ${VAR} expansion.
	Env map[string]string `yaml:"env,omitempty"`
}

// IsEnabled reports whether the tool should be registered.
func (c *ToolConfig) IsEnabled() bool {
	return c.Enabled == nil || *c.Enabled
}

// SetDefaults applies default values to ToolConfig.
func (c *ToolConfig) SetDefaults() {
	if c.Type == "" {
		c.Type = ToolTypeFunction
	}
	if c.Enabled == nil {
		enabled := true
		c.Enabled = &enabled
	}
	if c.Type == ToolTypeMCP && c.Transport == "" {
		c.Transport = "stdio"
	}
}

// Validate checks the tool configuration.
func (c *ToolConfig) Validate() error {
	switch c.Type {
	case ToolTypeFunction, ToolTypeMCP:
	default:
		return fmt.Errorf("unsupported tool type %q (valid: function, mcp)", c.Type)
	}
	if c.Type == ToolTypeMCP {
		switch c.Transport {
		case "stdio":
			if c.Command == "" {
				return fmt.Errorf("command is required for mcp transport %q", c.Transport)
			}
		case "sse", "streamable-http":
			if c.URL == "" {
				return fmt.Errorf("url is required for mcp transport %q", c.Transport)
			}
		default:
			return fmt.Errorf("unsupported mcp transport %q (valid: stdio, sse, streamable-http)", c.Transport)
		}
	}
	return nil
}
