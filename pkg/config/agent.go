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

// AgentConfig configures a team member that drives a subdialog.
//
// team.yaml:
//
//	agents:
//	  researcher:
//	    llm: claude
//	    tools: [web_search, read_file]
//	    instruction: "You research topics thoroughly."
//	    diligence_push_max: 5
type AgentConfig struct {
	// Name is the agentId used in DialogID and @mentions.
	Name string `yaml:"name,omitempty" jsonschema:"title=Agent Name,pattern=^[a-zA-Z][a-zA-Z0-9_-]*$,minLength=1,maxLength=64"`

	// Description is a human-readable summary, shown to other agents
	// deciding whether to @mention this one.
	Description string `yaml:"description,omitempty"`

	// LLM references a configured LLM by name (see LLMConfig).
	LLM string `yaml:"llm,omitempty" jsonschema:"default=default"`

	// Tools lists tool names this agent's subdialogs may call.
	Tools []string `yaml:"tools,omitempty"`

	// Instruction is the system prompt prepended to every driving step.
	Instruction string `yaml:"instruction,omitempty"`

	// DiligencePushMax overrides the default diligence budget (3) granted
	// to this agent's dialogs at the start of every user turn.
	DiligencePushMax int `yaml:"diligence_push_max,omitempty" jsonschema:"minimum=0,default=3"`
}

// SetDefaults applies default values to AgentConfig.
func (c *AgentConfig) SetDefaults() {
	if c.LLM == "" {
		c.LLM = "default"
	}
	if c.DiligencePushMax == 0 {
		c.DiligencePushMax = 3
	}
}

// Validate checks the agent configuration.
func (c *AgentConfig) Validate() error {
	if c.Name == "" {
		return fmt.Errorf("name is required")
	}
	if c.DiligencePushMax < 0 {
		return fmt.Errorf("diligence_push_max must be non-negative")
	}
	return nil
}
