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

package app

import (
	"fmt"
	"sync"
	"time"

	"github.com/dominds-project/dominds/pkg/config"
	"github.com/dominds-project/dominds/pkg/tool"
	"github.com/dominds-project/dominds/pkg/tool/functiontool"
	"github.com/dominds-project/dominds/pkg/tool/mcptoolset"
)

// ToolRegistry resolves a tellask callsign to an executable tool, pooling
// both statically-registered function tools and lazily-connected MCP
// toolsets behind one Lookup so driver.Tools never has to know which kind
// it got.
type ToolRegistry struct {
	mu       sync.Mutex
	static   map[string]tool.CallableTool
	toolsets []*mcptoolset.Toolset
	resolved map[string]tool.CallableTool
}

// BuildTools constructs the registry a team.yaml's tools section describes:
// the built-in function tools (filtered by enablement) plus one
// mcptoolset.Toolset per "mcp"-typed entry.
func BuildTools(cfg *config.Config) (*ToolRegistry, error) {
	r := &ToolRegistry{
		static:   builtinTools(),
		resolved: make(map[string]tool.CallableTool),
	}

	for name, tc := range cfg.Tools {
		if !tc.IsEnabled() {
			delete(r.static, name)
			continue
		}
		if tc.Type != config.ToolTypeMCP {
			continue
		}
		ts, err := mcptoolset.New(mcptoolset.Config{
			Name:      name,
			URL:       tc.URL,
			Transport: tc.Transport,
			Command:   tc.Command,
			Args:      tc.Args,
			Env:       tc.Env,
		})
		if err != nil {
			return nil, fmt.Errorf("mcp toolset %q: %w", name, err)
		}
		r.toolsets = append(r.toolsets, ts)
	}
	return r, nil
}

// Lookup resolves callsign against the static table first, then against
// every MCP toolset in turn, caching each toolset's tools on first use.
func (r *ToolRegistry) Lookup(callsign string) (tool.CallableTool, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if t, ok := r.static[callsign]; ok {
		return t, true
	}
	if t, ok := r.resolved[callsign]; ok {
		return t, true
	}

	for _, ts := range r.toolsets {
		tools, err := ts.Tools(staticToolContext{})
		if err != nil {
			continue
		}
		for _, t := range tools {
			if ct, ok := t.(tool.CallableTool); ok {
				r.resolved[t.Name()] = ct
			}
		}
	}
	t, ok := r.resolved[callsign]
	return t, ok
}

// staticToolContext satisfies tool.Context for the one-off listing call a
// toolset needs to enumerate its tools; the calling dialog's identity is
// irrelevant to that call, only to the later Call invocation.
type staticToolContext struct{}

func (staticToolContext) Deadline() (time.Time, bool)   { return time.Time{}, false }
func (staticToolContext) Done() <-chan struct{}         { return nil }
func (staticToolContext) Err() error                    { return nil }
func (staticToolContext) Value(key any) any             { return nil }
func (staticToolContext) RootID() string                { return "" }
func (staticToolContext) SelfID() string                { return "" }
func (staticToolContext) Callsign() string              { return "" }

type nowArgs struct{}

type echoArgs struct {
	Text string `json:"text" jsonschema:"required,description=Text to echo back"`
}

// builtinTools returns the function tools available without any mcp.yaml
// entry: "now" and "echo", useful on their own for smoke-testing a team
// before wiring real MCP servers.
func builtinTools() map[string]tool.CallableTool {
	out := make(map[string]tool.CallableTool)

	nowTool, err := functiontool.New(functiontool.Config{
		Name:        "now",
		Description: "Returns the current UTC time in RFC3339 format.",
	}, func(ctx tool.Context, _ nowArgs) (map[string]any, error) {
		return map[string]any{"time": time.Now().UTC().Format(time.RFC3339)}, nil
	})
	if err == nil {
		out["now"] = nowTool
	}

	echoTool, err := functiontool.New(functiontool.Config{
		Name:        "echo",
		Description: "Echoes its input back unchanged, for wiring smoke tests.",
	}, func(ctx tool.Context, args echoArgs) (map[string]any, error) {
		return map[string]any{"text": args.Text}, nil
	})
	if err == nil {
		out["echo"] = echoTool
	}

	return out
}
