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

import "testing"

func TestToolConfig_SetDefaults(t *testing.T) {
	c := &ToolConfig{}
	c.SetDefaults()

	if c.Type != ToolTypeFunction {
		t.Errorf("Type = %q, want %q", c.Type, ToolTypeFunction)
	}
	if !c.IsEnabled() {
		t.Error("expected IsEnabled() true by default")
	}
}

func TestToolConfig_SetDefaults_MCPGetsStdioTransport(t *testing.T) {
	c := &ToolConfig{Type: ToolTypeMCP}
	c.SetDefaults()

	if c.Transport != "stdio" {
		t.Errorf("Transport = %q, want %q", c.Transport, "stdio")
	}
}

func TestToolConfig_IsEnabled_RespectsExplicitFalse(t *testing.T) {
	c := &ToolConfig{Enabled: BoolPtr(false)}
	if c.IsEnabled() {
		t.Error("expected IsEnabled() false when explicitly disabled")
	}
}

func TestToolConfig_Validate_MCPStdioRequiresCommand(t *testing.T) {
	c := &ToolConfig{Type: ToolTypeMCP, Transport: "stdio"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to require command for stdio transport")
	}
}

func TestToolConfig_Validate_MCPHTTPRequiresURL(t *testing.T) {
	c := &ToolConfig{Type: ToolTypeMCP, Transport: "streamable-http"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to require url for streamable-http transport")
	}
}

func TestToolConfig_Validate_RejectsUnknownTransport(t *testing.T) {
	c := &ToolConfig{Type: ToolTypeMCP, Transport: "carrier-pigeon"}
	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to reject an unknown mcp transport")
	}
}

func TestToolConfig_Validate_AcceptsAWellFormedFunctionTool(t *testing.T) {
	c := &ToolConfig{Type: ToolTypeFunction}
	if err := c.Validate(); err != nil {
		t.Errorf("expected a well-formed function tool to validate, got: %v", err)
	}
}
