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

func TestAgentConfig_SetDefaults(t *testing.T) {
	c := &AgentConfig{}
	c.SetDefaults()

	if c.LLM != "default" {
		t.Errorf("LLM = %q, want %q", c.LLM, "default")
	}
	if c.DiligencePushMax != 3 {
		t.Errorf("DiligencePushMax = %d, want 3", c.DiligencePushMax)
	}
}

func TestAgentConfig_SetDefaults_PreservesExplicitDiligenceMax(t *testing.T) {
	c := &AgentConfig{DiligencePushMax: 7}
	c.SetDefaults()

	if c.DiligencePushMax != 7 {
		t.Errorf("DiligencePushMax = %d, want explicit 7 preserved", c.DiligencePushMax)
	}
}

func TestAgentConfig_Validate_RequiresName(t *testing.T) {
	c := &AgentConfig{}
	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to reject a nameless agent")
	}
}

func TestAgentConfig_Validate_RejectsNegativeDiligenceMax(t *testing.T) {
	c := &AgentConfig{Name: "researcher", DiligencePushMax: -1}
	if err := c.Validate(); err == nil {
		t.Fatal("expected Validate to reject a negative diligence_push_max")
	}
}

func TestAgentConfig_Validate_AcceptsAWellFormedAgent(t *testing.T) {
	c := &AgentConfig{Name: "researcher", LLM: "default", DiligencePushMax: 3}
	if err := c.Validate(); err != nil {
		t.Errorf("expected a well-formed agent to validate, got: %v", err)
	}
}
