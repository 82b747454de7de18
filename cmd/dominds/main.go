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

// Command dominds drives dialog trees from the command line.
//
// Usage:
//
//	dominds run --config team.yaml --agent researcher "find the open PRs"
//	dominds serve --config team.yaml
//	dominds validate --config team.yaml
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"

	"github.com/alecthomas/kong"
	"github.com/gorilla/websocket"

	"github.com/dominds-project/dominds/pkg/app"
	"github.com/dominds-project/dominds/pkg/bus"
	"github.com/dominds-project/dominds/pkg/config"
	"github.com/dominds-project/dominds/pkg/dialog"
	"github.com/dominds-project/dominds/pkg/driver"
	"github.com/dominds-project/dominds/pkg/llms"
	"github.com/dominds-project/dominds/pkg/observability"
	"github.com/dominds-project/dominds/pkg/persist"
	"github.com/dominds-project/dominds/pkg/tool"
)

// CLI defines the command-line interface.
type CLI struct {
	Version  VersionCmd  `cmd:"" help:"Show version information."`
	Run      RunCmd      `cmd:"" help:"Submit one prompt to a root dialog and print its event stream."`
	Serve    ServeCmd    `cmd:"" help:"Start the HTTP/WebSocket event surface."`
	Validate ValidateCmd `cmd:"" help:"Validate a team configuration file."`

	Config    string `short:"c" help:"Path to team.yaml." type:"path" default:".minds/team.yaml"`
	LogLevel  string `help:"Log level (debug, info, warn, error)."`
	LogFile   string `help:"Log file path (empty = stderr)."`
	LogFormat string `help:"Log format (simple, verbose, or custom)."`
}

// VersionCmd shows version information.
type VersionCmd struct{}

func (c *VersionCmd) Run() error {
	version := "dev"
	if info, ok := debug.ReadBuildInfo(); ok {
		if info.Main.Version != "(devel)" && info.Main.Version != "" {
			version = info.Main.Version
		}
	}
	fmt.Printf("dominds version %s\n", version)
	return nil
}

// RunCmd submits one prompt to a fresh root dialog and prints every event
// the driving step emits to stdout, until the root blocks or goes
// terminal.
type RunCmd struct {
	Agent   string `help:"Agent to address the root dialog to (defaults to an arbitrary configured agent)."`
	TaskDoc string `name:"task-doc" help:"Task document path." default:"TASK.md"`
	Prompt  string `arg:"" help:"The prompt to submit."`
}

func (c *RunCmd) Run(cli *CLI) error {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	cfg, err := loadTeamConfig(cli.Config)
	if err != nil {
		return err
	}

	agentID := c.Agent
	if agentID == "" {
		agents := cfg.ListAgents()
		if len(agents) == 0 {
			return fmt.Errorf("no agents configured in %s", cli.Config)
		}
		agentID = agents[0]
	}
	agentCfg, ok := cfg.GetAgent(agentID)
	if !ok {
		return fmt.Errorf("agent %q not found", agentID)
	}

	a, err := app.New(cfg, observabilityConfigFor(cfg))
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	llmName := agentCfg.LLM
	provider, err := a.LLMs.GetLLM(llmName)
	if err != nil {
		return fmt.Errorf("llm %q: %w", llmName, err)
	}

	id := dialog.NewRootID()
	root := dialog.NewRootDialog(id, c.TaskDoc, agentID, a.Store.Journal(id.SelfID), agentCfg.DiligencePushMax)
	if err := a.Registry.RegisterRoot(root); err != nil {
		return fmt.Errorf("register root: %w", err)
	}
	if err := a.Store.SaveMeta(persist.Meta{
		RootID: id.RootID, SelfID: id.SelfID, AgentID: agentID, TaskDocPath: c.TaskDoc,
		IsRoot: true, DiligenceMax: agentCfg.DiligencePushMax,
	}); err != nil {
		return fmt.Errorf("persist root: %w", err)
	}

	sub := a.Bus.Subscribe(root.ID().Key())
	defer sub.Close()
	done := make(chan struct{})
	go printEvents(ctx, sub, done)

	toolDefs := toolDefsFor(a.Tools, agentCfg.Tools)

	stepErr := a.Driver.StepRoot(ctx, root, provider, toolDefs, driver.StepInput{UserPrompt: c.Prompt})
	cancel()
	<-done
	return stepErr
}

// toolDefsFor resolves each configured tool name against reg and converts
// it to the LLM-facing definition shape; a name with no matching tool is
// silently skipped, since agentCfg.Tools may reference a tool disabled at
// the team level.
func toolDefsFor(reg *app.ToolRegistry, names []string) []llms.ToolDefinition {
	defs := make([]llms.ToolDefinition, 0, len(names))
	for _, name := range names {
		t, ok := reg.Lookup(name)
		if !ok {
			continue
		}
		d := tool.ToDefinition(t)
		defs = append(defs, llms.ToolDefinition{
			Name:        d.Name,
			Description: d.Description,
			Parameters:  d.Parameters,
		})
	}
	return defs
}

func printEvents(ctx context.Context, sub *bus.SubChan, done chan<- struct{}) {
	defer close(done)
	for {
		evt, err := sub.Next(ctx)
		if err != nil {
			return
		}
		data, _ := json.Marshal(evt)
		fmt.Println(string(data))
	}
}

// ServeCmd starts a thin HTTP surface: Prometheus metrics and a
// per-root-dialog WebSocket event stream at /dialogs/{rootId}/events. It
// never drives a dialog itself — dialogs are driven by `run` or by
// whatever submits prompts through the bus this process shares.
type ServeCmd struct {
	Port int `help:"Port to listen on." default:"8080"`
}

func (c *ServeCmd) Run(cli *CLI) error {
	cfg, err := loadTeamConfig(cli.Config)
	if err != nil {
		return err
	}
	if c.Port != 0 && c.Port != 8080 {
		cfg.Server.Port = c.Port
	}

	a, err := app.New(cfg, observabilityConfigFor(cfg))
	if err != nil {
		return fmt.Errorf("failed to build app: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	if _, err := a.ReviveAll(ctx); err != nil {
		return fmt.Errorf("revive: %w", err)
	}

	mux := http.NewServeMux()
	if cfg.Server.MetricsEnabled() {
		mux.Handle("/metrics", a.Metrics.Handler())
	}
	if cfg.Server.EventsEnabled() {
		mux.HandleFunc("/dialogs/", dialogEventsHandler(a))
	}

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		cancel()
	}()

	srv := &http.Server{Addr: cfg.Server.Address(), Handler: mux}
	go func() {
		<-ctx.Done()
		srv.Close()
	}()

	fmt.Printf("dominds serving on http://%s\n", cfg.Server.Address())
	err = srv.ListenAndServe()
	if err == http.ErrServerClosed {
		return nil
	}
	return err
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin:     func(r *http.Request) bool { return true },
}

// dialogEventsHandler serves GET /dialogs/{rootId}/events by upgrading to
// a WebSocket and relaying every bus event for that root dialog verbatim,
// JSON-encoded, until the client disconnects.
func dialogEventsHandler(a *app.App) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		rootID, ok := parseDialogEventsPath(r.URL.Path)
		if !ok {
			http.NotFound(w, r)
			return
		}

		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		sub := a.Bus.Subscribe(rootID)
		defer sub.Close()

		for {
			evt, err := sub.Next(r.Context())
			if err != nil {
				return
			}
			if err := conn.WriteJSON(evt); err != nil {
				return
			}
		}
	}
}

func parseDialogEventsPath(path string) (string, bool) {
	const prefix, suffix = "/dialogs/", "/events"
	if len(path) <= len(prefix)+len(suffix) {
		return "", false
	}
	if path[:len(prefix)] != prefix {
		return "", false
	}
	if path[len(path)-len(suffix):] != suffix {
		return "", false
	}
	return path[len(prefix) : len(path)-len(suffix)], true
}

// ValidateCmd loads and strict-validates a team configuration file without
// starting anything.
type ValidateCmd struct{}

func (c *ValidateCmd) Run(cli *CLI) error {
	cfg, err := loadTeamConfig(cli.Config)
	if err != nil {
		return err
	}
	fmt.Printf("%s: valid (%d agent(s), %d llm(s))\n", cli.Config, len(cfg.Agents), len(cfg.LLMs))
	return nil
}

func loadTeamConfig(path string) (*config.Config, error) {
	cfg, err := config.LoadConfig(config.LoaderOptions{Type: config.ConfigTypeFile, Path: path})
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}
	return cfg, nil
}

func observabilityConfigFor(cfg *config.Config) *observability.Config {
	if !cfg.Server.MetricsEnabled() {
		return nil
	}
	obsCfg := &observability.Config{Metrics: observability.MetricsConfig{Enabled: true}}
	obsCfg.SetDefaults()
	return obsCfg
}

func main() {
	cli := CLI{}
	ctx := kong.Parse(&cli,
		kong.Name("dominds"),
		kong.Description("dominds — the dialog driving kernel"),
		kong.UsageOnError(),
	)

	cleanup, err := initLoggerFromCLI(cli.LogLevel, cli.LogFile, cli.LogFormat)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	if cleanup != nil {
		defer cleanup()
	}

	err = ctx.Run(&cli)
	ctx.FatalIfErrorf(err)
}
