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

// Package app wires the dialog, persist, driver, bus, llms and tool
// packages together into one running process, the way cmd/dominds's
// subcommands need them. No package above this one constructs a Driver,
// Store or LLMRegistry directly — app is the single place that does.
package app

import (
	"context"
	"fmt"

	"github.com/dominds-project/dominds/pkg/bus"
	"github.com/dominds-project/dominds/pkg/config"
	"github.com/dominds-project/dominds/pkg/dialog"
	"github.com/dominds-project/dominds/pkg/driver"
	"github.com/dominds-project/dominds/pkg/llms"
	"github.com/dominds-project/dominds/pkg/observability"
	"github.com/dominds-project/dominds/pkg/persist"
	"github.com/dominds-project/dominds/pkg/persist/storebackend"
	"github.com/dominds-project/dominds/pkg/utils"
)

// App is every long-lived object one dominds process needs, built once
// from a validated Config and reused across every dialog tree it drives.
type App struct {
	Config *config.Config

	Bus      *bus.Bus
	LLMs     *llms.LLMRegistry
	Tools    *ToolRegistry
	Metrics  *observability.Metrics
	Owners   *dialog.OwnerRegistry
	Registry *dialog.GlobalRegistry
	Store    *persist.Store
	Mirror   storebackend.Backend

	Driver  *driver.Driver
	Spawner *Spawner
}

// New builds an App from cfg. obsCfg may be nil to disable metrics
// entirely regardless of what cfg says.
func New(cfg *config.Config, obsCfg *observability.Config) (*App, error) {
	llmReg := llms.NewLLMRegistry()
	for name, llmCfg := range cfg.LLMs {
		if _, err := llmReg.CreateLLMFromConfig(name, llmCfg); err != nil {
			return nil, fmt.Errorf("app: llm %q: %w", name, err)
		}
	}

	tools, err := BuildTools(cfg)
	if err != nil {
		return nil, fmt.Errorf("app: tools: %w", err)
	}

	var metrics *observability.Metrics
	if obsCfg != nil {
		metrics, err = observability.NewMetrics(&obsCfg.Metrics)
		if err != nil {
			return nil, fmt.Errorf("app: metrics: %w", err)
		}
	}

	b := bus.New()
	owners := dialog.NewOwnerRegistry()
	globalReg := dialog.NewGlobalRegistry()
	store := persist.NewStore(cfg.Server.RunDir + "/run")

	var mirror storebackend.Backend
	if cfg.Server.Mirror.IsEnabled() {
		mirror, err = openMirror(cfg)
		if err != nil {
			return nil, fmt.Errorf("app: mirror: %w", err)
		}
	}

	counter, err := utils.NewTokenCounter("gpt-3.5-turbo")
	if err != nil {
		return nil, fmt.Errorf("app: token counter: %w", err)
	}
	builder := driver.NewContextBuilder(counter, contextWindowOf(cfg))

	spawner := NewSpawner(store, owners, globalReg)
	drv := driver.New(b, tools, builder, spawner, metrics)
	spawner.driver = drv
	spawner.llms = llmReg
	spawner.agents = cfg.Agents
	spawner.defaultLLM = llmNameFor(cfg, "")

	return &App{
		Config:   cfg,
		Bus:      b,
		LLMs:     llmReg,
		Tools:    tools,
		Metrics:  metrics,
		Owners:   owners,
		Registry: globalReg,
		Store:    store,
		Mirror:   mirror,
		Driver:   drv,
		Spawner:  spawner,
	}, nil
}

// contextWindowOf returns the largest context window among configured LLMs,
// a conservative choice since the context builder is shared across every
// agent a dialog tree might call into.
func contextWindowOf(cfg *config.Config) int {
	max := 0
	for _, llmCfg := range cfg.LLMs {
		if llmCfg.ContextWindow > max {
			max = llmCfg.ContextWindow
		}
	}
	if max == 0 {
		max = 128000
	}
	return max
}

func llmNameFor(cfg *config.Config, agentID string) string {
	if agentID != "" {
		if agent, ok := cfg.Agents[agentID]; ok && agent.LLM != "" {
			return agent.LLM
		}
	}
	if cfg.Defaults != nil {
		return cfg.Defaults.LLM
	}
	return ""
}

func openMirror(cfg *config.Config) (storebackend.Backend, error) {
	db, ok := cfg.GetDatabase(cfg.Server.Mirror.Database)
	if !ok {
		return nil, fmt.Errorf("database %q not found", cfg.Server.Mirror.Database)
	}
	switch db.Dialect() {
	case "sqlite":
		return storebackend.NewSQLite(db.DSN())
	case "postgres":
		return storebackend.NewPostgres(db.DSN())
	case "mysql":
		return storebackend.NewMySQL(db.DSN())
	default:
		return nil, fmt.Errorf("unsupported mirror dialect %q", db.Dialect())
	}
}

// ReviveAll reconstructs every dialog tree left on disk at process start
// and, if a mirror is configured, reconciles it against what was found.
func (a *App) ReviveAll(ctx context.Context) ([]*persist.RevivedRoot, error) {
	rv := persist.NewReviver(a.Store, a.Owners, a.Registry)
	revived, err := rv.ReviveAll()
	if err != nil {
		return nil, err
	}
	if a.Mirror != nil {
		if err := persist.SyncMirror(ctx, a.Mirror, revived); err != nil {
			return nil, err
		}
	}
	return revived, nil
}
